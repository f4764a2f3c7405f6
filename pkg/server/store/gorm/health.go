package gorm

import (
	"context"
	"errors"
	"fmt"

	"gorm.io/gorm"

	"github.com/confportal/conf-portal-api/pkg/server/store"
)

var _ store.HealthStore = (*HealthStore)(nil)

// ErrDirtySchema means a migration failed halfway and needs `portalctl db`
// attention before the portal can serve.
var ErrDirtySchema = errors.New("database schema is dirty")

// HealthStore checks that Postgres answers and that the last migration
// completed.
type HealthStore struct {
	db *gorm.DB
}

func NewHealthStore(db *gorm.DB) *HealthStore {
	return &HealthStore{db: db}
}

type schemaVersion struct {
	Version int64
	Dirty   bool
}

// CheckConnectivity reads golang-migrate's schema_migrations row. An empty
// table is not an error.
func (s *HealthStore) CheckConnectivity(ctx context.Context) error {
	var rows []schemaVersion
	err := s.db.WithContext(ctx).
		Raw("SELECT version, dirty FROM schema_migrations LIMIT 1").
		Scan(&rows).Error
	if err != nil {
		return err
	}
	if len(rows) > 0 && rows[0].Dirty {
		return fmt.Errorf("%w at version %d", ErrDirtySchema, rows[0].Version)
	}
	return nil
}
