package store

import (
	"context"
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"

	"github.com/confportal/conf-portal-api/pkg/model"
)

// Grants are the role codes and permission codes an admin holds.
type Grants struct {
	Roles       []string
	Permissions []string
}

// ProfileUpdate is what an app user may change about themselves.
type ProfileUpdate struct {
	DisplayName *string
	Gender      *model.Gender
}

// UsersStore abstracts portal account operations
type UsersStore interface {
	CRUDStore[model.User]

	// GetByEmail returns an active, non-deleted user.
	// Returns ErrNotFound otherwise.
	GetByEmail(ctx context.Context, email string) (*model.User, error)

	// Exists reports whether any user, deleted or not, has the email or phone.
	Exists(ctx context.Context, email, phone string) (bool, error)

	// FindForLogin looks the user up by (provider, uid), then by email.
	FindForLogin(ctx context.Context, provider, uid, email string) (*model.User, error)

	// CreateWithProfile inserts the user and its profile in one transaction.
	CreateWithProfile(ctx context.Context, user *model.User, profile *model.UserProfile) error

	// LinkProvider upserts the third-party auth row on (provider, uid).
	LinkProvider(ctx context.Context, userID uuid.UUID, provider, uid string, data datatypes.JSON) error

	TouchLogin(ctx context.Context, userID uuid.UUID, at time.Time) error

	SetPassword(ctx context.Context, userID uuid.UUID, hash string, at time.Time) error

	UpdateProfile(ctx context.Context, userID uuid.UUID, update ProfileUpdate) error

	// AdminGrants resolves the roles and permissions reachable through
	// active, unexpired roles. Superusers get every active permission.
	AdminGrants(ctx context.Context, user *model.User, now time.Time) (*Grants, error)

	// SetRoles replaces the user's roles.
	SetRoles(ctx context.Context, userID uuid.UUID, roleIDs []uuid.UUID) error

	RoleIDs(ctx context.Context, userID uuid.UUID) ([]uuid.UUID, error)
}

// PasswordResetStore abstracts password reset token storage
type PasswordResetStore interface {
	Create(ctx context.Context, token *model.PasswordResetToken) error

	// Redeem marks the unused, unexpired token with tokenHash as used and
	// stores passwordHash as its user's password, in one transaction.
	// Returns ErrNotFound when no such token or user exists; the token stays
	// usable on any error.
	Redeem(ctx context.Context, tokenHash, passwordHash string, now time.Time) (*model.PasswordResetToken, error)
}
