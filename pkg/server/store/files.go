package store

import (
	"context"

	"github.com/google/uuid"

	"github.com/confportal/conf-portal-api/pkg/model"
)

// FileStore abstracts uploaded file metadata
type FileStore interface {
	CRUDStore[model.File]

	// MarkDeleted flags the files as DELETED and returns the rows changed so
	// their objects can be removed.
	MarkDeleted(ctx context.Context, ids []uuid.UUID) ([]model.File, error)
}

type LogStore interface {
	Pages(ctx context.Context, q PageQuery) (*Page[model.Log], error)
}
