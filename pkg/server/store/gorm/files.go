package gorm

import (
	"context"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/confportal/conf-portal-api/pkg/model"
	"github.com/confportal/conf-portal-api/pkg/server/store"
)

var (
	_ store.FileStore = (*FileStore)(nil)
	_ store.LogStore  = (*LogStore)(nil)
)

// FileStore implements store.FileStore using GORM
type FileStore struct {
	*CRUD[model.File]
	db *gorm.DB
}

func NewFileStore(db *gorm.DB) *FileStore {
	return &FileStore{
		CRUD: NewCRUD[model.File](db, Options{
			OrderBy: []string{"created_at", "original_name", "size_bytes"},
			Search:  []string{"original_name", "key"},
			Filters: []string{"status", "source", "content_type", "is_public"},
		}),
		db: db,
	}
}

func (s *FileStore) MarkDeleted(ctx context.Context, ids []uuid.UUID) ([]model.File, error) {
	var files []model.File
	if len(ids) == 0 {
		return files, nil
	}
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).
			Where("id IN ? AND status <> ?", ids, model.FileStatusDeleted).
			Find(&files).Error; err != nil {
			return err
		}
		if len(files) == 0 {
			return nil
		}
		found := make([]uuid.UUID, 0, len(files))
		for _, f := range files {
			found = append(found, f.ID)
		}
		return tx.Model(&model.File{}).
			Where("id IN ?", found).
			Updates(map[string]interface{}{
				"status":     model.FileStatusDeleted,
				"is_deleted": true,
			}).Error
	})
	if err != nil {
		return nil, err
	}
	return files, nil
}

// LogStore implements store.LogStore using GORM
type LogStore struct {
	*CRUD[model.Log]
}

func NewLogStore(db *gorm.DB) *LogStore {
	return &LogStore{
		CRUD: NewCRUD[model.Log](db, Options{
			OrderBy: []string{"created_at", "operation_type", "operation_code"},
			Search:  []string{"operation_code", "created_by"},
			Filters: []string{"operation_type", "operation_code", "record_id", "created_by_id"},
		}),
	}
}
