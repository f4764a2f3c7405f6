package gorm

import (
	"context"
	"errors"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
)

func TestHealthStore_CheckConnectivity(t *testing.T) {
	tests := []struct {
		name    string
		rows    *sqlmock.Rows
		err     error
		wantErr error
	}{
		{
			name: "clean schema",
			rows: sqlmock.NewRows([]string{"version", "dirty"}).AddRow(1, false),
		},
		{
			name: "no migrations yet",
			rows: sqlmock.NewRows([]string{"version", "dirty"}),
		},
		{
			name:    "dirty schema",
			rows:    sqlmock.NewRows([]string{"version", "dirty"}).AddRow(3, true),
			wantErr: ErrDirtySchema,
		},
		{
			name:    "connection refused",
			err:     errors.New("connection refused"),
			wantErr: errors.New("connection refused"),
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			m := newMock(t)
			q := m.Mock.ExpectQuery(`SELECT version, dirty FROM schema_migrations LIMIT 1`)
			if tt.err != nil {
				q.WillReturnError(tt.err)
			} else {
				q.WillReturnRows(tt.rows)
			}

			err := NewHealthStore(m.GormDB).CheckConnectivity(context.Background())
			switch {
			case tt.wantErr == nil:
				assert.NoError(t, err)
			case errors.Is(tt.wantErr, ErrDirtySchema):
				assert.ErrorIs(t, err, ErrDirtySchema)
				assert.Contains(t, err.Error(), "version 3")
			default:
				assert.ErrorContains(t, err, tt.wantErr.Error())
			}
			assert.NoError(t, m.Mock.ExpectationsWereMet())
		})
	}
}
