package rbac

import (
	"github.com/google/uuid"

	"github.com/confportal/conf-portal-api/pkg/model"
)

// Store abstracts the storage operations for seeding.
// This allows the seeder to work with different backends (e.g., database, fake for testing).
type Store interface {
	// Transaction wraps operations in a database transaction.
	// The provided function receives a transactional Store.
	// If the function returns an error, the transaction is rolled back.
	Transaction(fn func(Store) error) error

	// UpsertVerb inserts a verb or refreshes its display name.
	UpsertVerb(v *model.Verb) error

	// UpsertResource inserts a resource or refreshes it by code.
	UpsertResource(r *model.Resource) error

	// UpsertPermission inserts a permission or refreshes it by code.
	UpsertPermission(p *model.Permission) error

	Verbs() ([]model.Verb, error)
	Resources() ([]model.Resource, error)
	Permissions() ([]model.Permission, error)

	// DeleteRolesExcept hard-deletes every role other than code.
	DeleteRolesExcept(code string) error

	// EnsureRole creates the role unless one with its code exists, and
	// returns the stored row.
	EnsureRole(r *model.Role) (*model.Role, error)

	// GrantPermission links a permission to a role, ignoring duplicates.
	GrantPermission(roleID, permissionID uuid.UUID) error
}
