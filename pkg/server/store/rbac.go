package store

import (
	"context"

	"github.com/google/uuid"

	"github.com/confportal/conf-portal-api/pkg/model"
)

// RolesStore abstracts role operations
type RolesStore interface {
	CRUDStore[model.Role]

	PermissionIDs(ctx context.Context, roleID uuid.UUID) ([]uuid.UUID, error)

	// AssignPermissions grants permissions, ignoring ones already held.
	AssignPermissions(ctx context.Context, roleID uuid.UUID, permissionIDs []uuid.UUID) error

	RevokePermissions(ctx context.Context, roleID uuid.UUID, permissionIDs []uuid.UUID) error

	// UserIDs returns the users holding the role.
	UserIDs(ctx context.Context, roleID uuid.UUID) ([]uuid.UUID, error)
}

type PermissionsStore interface {
	CRUDStore[model.Permission]
}

// SequenceChange moves one row to a new sequence value.
type SequenceChange struct {
	ID       uuid.UUID `json:"id" validate:"required"`
	Sequence float64   `json:"sequence"`
}

// ResourcesStore abstracts resource tree operations
type ResourcesStore interface {
	CRUDStore[model.Resource]

	// Active returns active resources ordered by sequence.
	Active(ctx context.Context) ([]model.Resource, error)

	// Menus returns the active, visible resources the permission codes
	// reach, together with their parents. A nil codes slice means all.
	Menus(ctx context.Context, codes []string) ([]model.Resource, error)

	ChangeParent(ctx context.Context, id uuid.UUID, pid *uuid.UUID) error

	ChangeSequence(ctx context.Context, changes []SequenceChange) error
}

type VerbsStore interface {
	List(ctx context.Context) ([]model.Verb, error)
}
