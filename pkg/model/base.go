package model

import (
	"context"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Base holds the columns shared by every portal table.
type Base struct {
	ID           uuid.UUID  `gorm:"column:id;type:uuid;primaryKey" json:"id"`
	CreatedAt    time.Time  `gorm:"column:created_at;autoCreateTime" json:"created_at"`
	UpdatedAt    time.Time  `gorm:"column:updated_at;autoUpdateTime" json:"updated_at"`
	CreatedBy    *string    `gorm:"column:created_by" json:"created_by,omitempty"`
	UpdatedBy    *string    `gorm:"column:updated_by" json:"updated_by,omitempty"`
	CreatedByID  *uuid.UUID `gorm:"column:created_by_id;type:uuid" json:"-"`
	UpdatedByID  *uuid.UUID `gorm:"column:updated_by_id;type:uuid" json:"-"`
	IsDeleted    bool       `gorm:"column:is_deleted;not null;default:false" json:"-"`
	DeleteReason *string    `gorm:"column:delete_reason" json:"delete_reason,omitempty"`
	Description  *string    `gorm:"column:description" json:"description,omitempty"`
	Remark       *string    `gorm:"column:remark" json:"remark,omitempty"`
}

// PrimaryKey lets generic code read the id of any model embedding Base.
func (b Base) PrimaryKey() uuid.UUID {
	return b.ID
}

// Record is implemented by every model embedding Base.
type Record interface {
	PrimaryKey() uuid.UUID
}

// Editor is the user a write is attributed to.
type Editor struct {
	ID   uuid.UUID
	Name string
}

type editorKey struct{}

// WithEditor attaches the editor to ctx. Writes made through a gorm session
// carrying ctx fill the created_by and updated_by columns.
func WithEditor(ctx context.Context, e Editor) context.Context {
	return context.WithValue(ctx, editorKey{}, e)
}

func EditorFrom(ctx context.Context) (Editor, bool) {
	if ctx == nil {
		return Editor{}, false
	}
	e, ok := ctx.Value(editorKey{}).(Editor)
	return e, ok && e.ID != uuid.Nil
}

// BeforeCreate assigns a random UUID when the caller did not set one.
func (b *Base) BeforeCreate(tx *gorm.DB) error {
	if b.ID == uuid.Nil {
		b.ID = uuid.New()
	}
	if e, ok := EditorFrom(tx.Statement.Context); ok {
		name, id := e.Name, e.ID
		b.CreatedBy, b.CreatedByID = &name, &id
		b.UpdatedBy, b.UpdatedByID = &name, &id
	}
	return nil
}

func (b *Base) BeforeUpdate(tx *gorm.DB) error {
	if e, ok := EditorFrom(tx.Statement.Context); ok {
		tx.Statement.SetColumn("updated_by", e.Name)
		tx.Statement.SetColumn("updated_by_id", e.ID)
	}
	return nil
}

// Sortable is embedded by models whose lists are ordered manually.
type Sortable struct {
	Sequence float64 `gorm:"column:sequence;not null;default:0" json:"sequence"`
}
