package middleware

import (
	"context"
	"errors"
	"net/http"
	"strings"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/confportal/conf-portal-api/pkg/errs"
	"github.com/confportal/conf-portal-api/pkg/identity"
	"github.com/confportal/conf-portal-api/pkg/model"
	"github.com/confportal/conf-portal-api/pkg/server/response"
	"github.com/confportal/conf-portal-api/pkg/server/store"
	"github.com/confportal/conf-portal-api/pkg/token"
)

// TokenParser verifies access tokens.
type TokenParser interface {
	Parse(raw string, kind token.Kind) (*token.Claims, error)
}

// Blacklist reports revoked access tokens.
type Blacklist interface {
	IsBlacklisted(ctx context.Context, raw string) bool
}

// UserLoader loads non-deleted users.
type UserLoader interface {
	Get(ctx context.Context, id uuid.UUID) (*model.User, error)
}

// Auth validates bearer tokens and puts the caller's identity in the request
// context.
type Auth struct {
	tokens    TokenParser
	blacklist Blacklist
	users     UserLoader
	debug     bool
	logger    *zerolog.Logger
}

func NewAuth(tokens TokenParser, blacklist Blacklist, users UserLoader, debug bool, logger *zerolog.Logger) *Auth {
	return &Auth{
		tokens:    tokens,
		blacklist: blacklist,
		users:     users,
		debug:     debug,
		logger:    logger,
	}
}

type authOptions struct {
	superuser bool
}

type AuthOption func(*authOptions)

// RequireSuperuser rejects callers that are not superusers.
func RequireSuperuser() AuthOption {
	return func(o *authOptions) { o.superuser = true }
}

// BearerToken extracts the token of an "Authorization: Bearer" header.
func BearerToken(header string) (string, bool) {
	scheme, raw, ok := strings.Cut(strings.TrimSpace(header), " ")
	if !ok || !strings.EqualFold(scheme, token.TypeBearer) {
		return "", false
	}
	raw = strings.TrimSpace(raw)
	return raw, raw != ""
}

func (a *Auth) fail(w http.ResponseWriter, r *http.Request, err error) {
	response.Error(w, r, err, a.debug, a.logger)
}

// Require returns middleware accepting only tokens of the given kind.
func (a *Auth) Require(kind token.Kind, opts ...AuthOption) func(http.Handler) http.Handler {
	o := authOptions{}
	for _, opt := range opts {
		opt(&o)
	}

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ctx := r.Context()

			raw, ok := BearerToken(r.Header.Get("Authorization"))
			if !ok {
				a.fail(w, r, errs.NewUnauthorizedError("Missing or malformed authorization header", false))
				return
			}

			claims, err := a.tokens.Parse(raw, kind)
			if err != nil {
				a.fail(w, r, errs.NewUnauthorizedError("Invalid or expired token", false).WithDebug(err.Error()))
				return
			}

			if a.blacklist.IsBlacklisted(ctx, raw) {
				a.fail(w, r, errs.NewUnauthorizedError("Token has been revoked", false))
				return
			}

			user, err := a.users.Get(ctx, claims.UserUUID())
			if errors.Is(err, store.ErrNotFound) {
				a.fail(w, r, errs.NewUnauthorizedError("User not found", false))
				return
			}
			if err != nil {
				a.fail(w, r, err)
				return
			}
			if !user.IsActive || !user.Verified {
				a.fail(w, r, errs.NewUnauthorizedError("User is inactive or unverified", false))
				return
			}
			if kind == token.KindAdmin && !user.IsAdmin && !user.IsSuperuser {
				a.fail(w, r, errs.NewForbiddenError("User does not have admin privileges", false))
				return
			}
			if o.superuser && !user.IsSuperuser {
				a.fail(w, r, errs.NewForbiddenError("Superuser privileges required", false))
				return
			}

			id := identity.FromClaims(claims, kind, raw).
				WithRemoteIP(identity.RemoteIP(r.Header.Get("X-Forwarded-For"), r.RemoteAddr)).
				WithUserAgent(r.UserAgent()).
				WithUser(user)

			setUserID(ctx, user.ID.String())
			ctx = identity.Set(ctx, id)
			ctx = model.WithEditor(ctx, model.Editor{ID: user.ID, Name: id.Actor()})
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}
