package store

import (
	"context"

	"github.com/google/uuid"
)

// CRUDStore is the lifecycle shared by every admin resource.
type CRUDStore[T any] interface {
	// Get returns a non-deleted record.
	// Returns ErrNotFound if it doesn't exist or is soft deleted.
	Get(ctx context.Context, id uuid.UUID) (*T, error)

	// GetAny returns the record whether or not it is soft deleted.
	GetAny(ctx context.Context, id uuid.UUID) (*T, error)

	// List returns every record whose deleted flag matches.
	List(ctx context.Context, deleted bool) ([]T, error)

	Pages(ctx context.Context, q PageQuery) (*Page[T], error)

	Create(ctx context.Context, item *T) error

	// Update writes every column of item except the creation audit columns
	// and the soft-delete flag.
	Update(ctx context.Context, item *T) error

	// SoftDelete flags the record as deleted and stores reason.
	SoftDelete(ctx context.Context, id uuid.UUID, reason string) error

	// Delete removes the row.
	Delete(ctx context.Context, id uuid.UUID) error

	// Restore clears the deleted flag and reason. It returns the number of
	// rows restored.
	Restore(ctx context.Context, ids []uuid.UUID) (int64, error)
}
