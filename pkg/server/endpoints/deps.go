package endpoints

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/confportal/conf-portal-api/pkg/authenticator"
	"github.com/confportal/conf-portal-api/pkg/model"
	"github.com/confportal/conf-portal-api/pkg/token"
)

// The interfaces below are what handlers need from the token, cache and
// authenticator services. The server wires the concrete types.

type accessTokens interface {
	Issue(kind token.Kind, sub token.Subject) (string, time.Time, error)
}

type refreshTokens interface {
	Issue(ctx context.Context, userID, deviceID, familyID uuid.UUID, client token.Client) (string, *model.RefreshToken, error)
	Lookup(ctx context.Context, raw string) (*model.RefreshToken, error)
	Rotate(ctx context.Context, raw string, client token.Client) (string, *model.RefreshToken, error)
	RevokeFamily(ctx context.Context, familyID uuid.UUID, reason string) error
	RevokeUser(ctx context.Context, userID uuid.UUID, reason string) error
	Hash(raw string) string
}

type tokenBlacklist interface {
	Add(ctx context.Context, raw string, expiresAt time.Time) bool
	AddRefresh(ctx context.Context, raw string, expiresAt time.Time) bool
	IsRefreshBlacklisted(ctx context.Context, raw string) bool
}

type grantCache interface {
	Warm(ctx context.Context, userID uuid.UUID, roles, permissions []string) error
	Clear(ctx context.Context, userID uuid.UUID) error
}

type authenticators interface {
	Lookup(name string) (authenticator.Authenticator, bool)
}

var (
	_ accessTokens   = (*token.Provider)(nil)
	_ refreshTokens  = (*token.RefreshProvider)(nil)
	_ tokenBlacklist = (*token.Blacklist)(nil)
	_ authenticators = (*authenticator.Registry)(nil)
)
