package middleware

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/confportal/conf-portal-api/pkg/cache"
	"github.com/confportal/conf-portal-api/pkg/errs"
	"github.com/confportal/conf-portal-api/pkg/identity"
	"github.com/confportal/conf-portal-api/pkg/model"
	"github.com/confportal/conf-portal-api/pkg/rbac"
	"github.com/confportal/conf-portal-api/pkg/server/response"
	"github.com/confportal/conf-portal-api/pkg/server/store"
)

// PermissionCache is the part of cache.PermissionCache the checks use.
type PermissionCache interface {
	Permissions(ctx context.Context, userID uuid.UUID) ([]string, error)
	Warm(ctx context.Context, userID uuid.UUID, roles, permissions []string) error
}

// GrantLoader resolves an admin's grants from the database.
type GrantLoader interface {
	Get(ctx context.Context, id uuid.UUID) (*model.User, error)
	AdminGrants(ctx context.Context, user *model.User, now time.Time) (*store.Grants, error)
}

// Permissions enforces RBAC requirements on admin routes. It must run after
// Auth.
type Permissions struct {
	cache  PermissionCache
	grants GrantLoader
	debug  bool
	logger *zerolog.Logger
	now    func() time.Time
}

func NewPermissions(c PermissionCache, grants GrantLoader, debug bool, logger *zerolog.Logger) *Permissions {
	return &Permissions{
		cache:  c,
		grants: grants,
		debug:  debug,
		logger: logger,
		now:    func() time.Time { return time.Now().UTC() },
	}
}

// Held returns the caller's permission codes from the cache, falling back to
// the database and re-warming the cache on a miss.
func (p *Permissions) Held(ctx context.Context, id *identity.Identity) ([]string, error) {
	codes, err := p.cache.Permissions(ctx, id.UserID)
	if err == nil {
		return codes, nil
	}
	if !errors.Is(err, cache.ErrMiss) {
		p.logger.Warn().Err(err).Str("user_id", id.UserID.String()).Msg("Permission cache unavailable")
	}

	user, err := p.grants.Get(ctx, id.UserID)
	if err != nil {
		return nil, err
	}
	grants, err := p.grants.AdminGrants(ctx, user, p.now())
	if err != nil {
		return nil, err
	}
	if err := p.cache.Warm(ctx, id.UserID, grants.Roles, grants.Permissions); err != nil {
		p.logger.Warn().Err(err).Str("user_id", id.UserID.String()).Msg("Failed to warm permission cache")
	}
	return grants.Permissions, nil
}

// Require returns middleware that lets the request through only when req is
// satisfied.
func (p *Permissions) Require(req rbac.Requirement) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			id, ok := identity.Get(r.Context())
			if !ok {
				response.Error(w, r, errs.NewUnauthorizedError("Authentication required", false), p.debug, p.logger)
				return
			}

			if id.IsSuperuser && !req.DenySuperuser {
				next.ServeHTTP(w, r)
				return
			}

			held, err := p.Held(r.Context(), id)
			if err != nil {
				response.Error(w, r, err, p.debug, p.logger)
				return
			}
			id.WithPermissions(held)

			if !req.Allows(held, id.IsSuperuser) {
				response.Error(w, r, errs.NewForbiddenError("Permission denied", false), p.debug, p.logger)
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}
