package audit

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/google/uuid"
	"gorm.io/datatypes"
	"gorm.io/gorm"

	"github.com/confportal/conf-portal-api/pkg/model"
)

var _ Saver = (*Store)(nil)

// Store persists events as portal_log rows.
type Store struct {
	db *gorm.DB
}

// NewStoreWithDB creates a store using an existing connection.
func NewStoreWithDB(db *gorm.DB) *Store {
	return &Store{db: db}
}

func jsonColumn(v any) (datatypes.JSON, error) {
	if v == nil {
		return nil, nil
	}
	raw, err := json.Marshal(v)
	if err != nil {
		return nil, err
	}
	return datatypes.JSON(raw), nil
}

func optional(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}

// Row builds the portal_log row for an event.
func Row(actor Actor, event Event) (*model.Log, error) {
	old, new := event.Data()

	row := &model.Log{
		RecordID:      event.RecordID(),
		OperationType: event.Type(),
		OperationCode: event.Code(),
		IPAddress:     optional(actor.IP),
		UserAgent:     optional(actor.UserAgent),
	}
	row.CreatedBy = optional(actor.Name)
	if actor.UserID != uuid.Nil {
		id := actor.UserID
		row.CreatedByID = &id
	}

	var err error
	if row.OldData, err = jsonColumn(old); err != nil {
		return nil, fmt.Errorf("failed to encode old data: %w", err)
	}
	if row.NewData, err = jsonColumn(new); err != nil {
		return nil, fmt.Errorf("failed to encode new data: %w", err)
	}
	if old != nil || new != nil {
		changes, err := ChangedFields(old, new)
		if err != nil {
			return nil, fmt.Errorf("failed to diff record: %w", err)
		}
		if len(changes) > 0 {
			if row.ChangedFields, err = jsonColumn(changes); err != nil {
				return nil, err
			}
		}
	}
	return row, nil
}

// Save writes an event to portal_log.
func (s *Store) Save(ctx context.Context, actor Actor, event Event) error {
	row, err := Row(actor, event)
	if err != nil {
		return err
	}
	if err := s.db.WithContext(ctx).Create(row).Error; err != nil {
		return fmt.Errorf("failed to save operation log: %w", err)
	}
	return nil
}
