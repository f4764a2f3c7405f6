package token

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

// Kind selects the audience of an access token.
type Kind string

const (
	KindAdmin Kind = "admin"
	KindApp   Kind = "app"

	TypeBearer = "bearer"
)

var ErrInvalidToken = errors.New("invalid token")

// Claims is the access-token payload.
type Claims struct {
	UserID      string   `json:"user_id"`
	Email       string   `json:"email,omitempty"`
	DisplayName string   `json:"display_name,omitempty"`
	FamilyID    string   `json:"family_id"`
	Roles       []string `json:"roles,omitempty"`
	Scope       string   `json:"scope,omitempty"`
	jwt.RegisteredClaims
}

// Subject is what an access token is issued for.
type Subject struct {
	UserID      uuid.UUID
	Email       string
	DisplayName string
	FamilyID    uuid.UUID
	// Roles and Permissions are only embedded in admin tokens.
	Roles       []string
	Permissions []string
}

// Provider signs and parses access tokens.
type Provider struct {
	secret  []byte
	issuer  string
	appName string
	ttl     time.Duration
	now     func() time.Time
}

func NewProvider(secret, issuer, appName string, ttl time.Duration) *Provider {
	return &Provider{
		secret:  []byte(secret),
		issuer:  issuer,
		appName: appName,
		ttl:     ttl,
		now:     time.Now,
	}
}

// Audience returns the aud claim used for kind.
func (p *Provider) Audience(kind Kind) string {
	return p.appName + "-" + string(kind)
}

// TTL is the access token lifetime.
func (p *Provider) TTL() time.Duration {
	return p.ttl
}

// Issue signs a new access token and returns it with its expiry.
func (p *Provider) Issue(kind Kind, sub Subject) (string, time.Time, error) {
	now := p.now().UTC()
	expiresAt := now.Add(p.ttl)

	claims := Claims{
		UserID:      sub.UserID.String(),
		Email:       sub.Email,
		DisplayName: sub.DisplayName,
		FamilyID:    sub.FamilyID.String(),
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    p.issuer,
			Subject:   sub.UserID.String(),
			Audience:  jwt.ClaimStrings{p.Audience(kind)},
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(expiresAt),
		},
	}
	if kind == KindAdmin {
		claims.Roles = sub.Roles
		claims.Scope = BuildScope(sub.Permissions)
	}

	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(p.secret)
	if err != nil {
		return "", time.Time{}, fmt.Errorf("failed to sign access token: %w", err)
	}
	return signed, expiresAt, nil
}

// Parse verifies raw against the audience of kind and returns its claims.
func (p *Provider) Parse(raw string, kind Kind) (*Claims, error) {
	claims := &Claims{}
	_, err := jwt.ParseWithClaims(raw, claims, func(t *jwt.Token) (interface{}, error) {
		return p.secret, nil
	},
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithAudience(p.Audience(kind)),
		jwt.WithIssuer(p.issuer),
		jwt.WithExpirationRequired(),
		jwt.WithTimeFunc(p.now),
	)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidToken, err)
	}
	if _, err := uuid.Parse(claims.UserID); err != nil {
		return nil, fmt.Errorf("%w: bad user_id claim", ErrInvalidToken)
	}
	return claims, nil
}

// UserUUID returns the user_id claim as a UUID. Parse has already validated it.
func (c *Claims) UserUUID() uuid.UUID {
	id, _ := uuid.Parse(c.UserID)
	return id
}

// FamilyUUID returns the family_id claim, or uuid.Nil when absent.
func (c *Claims) FamilyUUID() uuid.UUID {
	id, err := uuid.Parse(c.FamilyID)
	if err != nil {
		return uuid.Nil
	}
	return id
}

// Expiry returns exp, or the zero time when absent.
func (c *Claims) Expiry() time.Time {
	if c.ExpiresAt == nil {
		return time.Time{}
	}
	return c.ExpiresAt.Time
}
