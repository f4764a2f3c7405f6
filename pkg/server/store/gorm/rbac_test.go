package gorm

import (
	"context"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRolesStore_UserIDs(t *testing.T) {
	m := newMock(t)
	s := NewRolesStore(m.GormDB)
	roleID := uuid.New()
	a, b := uuid.New(), uuid.New()

	m.Mock.ExpectQuery(`SELECT "user_id" FROM "portal_user_role" WHERE role_id = \$1`).
		WithArgs(roleID).
		WillReturnRows(sqlmock.NewRows([]string{"user_id"}).AddRow(a).AddRow(b))

	ids, err := s.UserIDs(context.Background(), roleID)
	require.NoError(t, err)
	assert.Equal(t, []uuid.UUID{a, b}, ids)
	assert.NoError(t, m.Mock.ExpectationsWereMet())
}
