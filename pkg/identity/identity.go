package identity

import (
	"context"
	"net"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/confportal/conf-portal-api/pkg/model"
	"github.com/confportal/conf-portal-api/pkg/token"
)

// ContextKey is a type for context keys to avoid collisions.
type ContextKey string

const (
	// Key is the context key for Identity.
	Key ContextKey = "identity"
)

// Identity represents the authenticated caller of a request.
type Identity struct {
	// Token claims
	UserID      uuid.UUID
	Email       string
	DisplayName string
	FamilyID    uuid.UUID
	Kind        token.Kind
	Roles       []string
	Scope       string
	IssuedAt    time.Time
	ExpiresAt   time.Time

	// Request context
	RemoteIP  net.IP
	UserAgent string

	// Loaded by the auth middleware
	IsSuperuser bool
	IsAdmin     bool
	Permissions []string

	// The raw bearer token, kept for blacklisting on logout
	Raw string
}

// FromClaims creates an Identity from validated access-token claims.
func FromClaims(claims *token.Claims, kind token.Kind, raw string) *Identity {
	id := &Identity{
		UserID:      claims.UserUUID(),
		Email:       claims.Email,
		DisplayName: claims.DisplayName,
		FamilyID:    claims.FamilyUUID(),
		Kind:        kind,
		Roles:       claims.Roles,
		Scope:       claims.Scope,
		ExpiresAt:   claims.Expiry(),
		Raw:         raw,
	}
	if claims.IssuedAt != nil {
		id.IssuedAt = claims.IssuedAt.Time
	}
	return id
}

// WithRemoteIP sets the remote IP address.
func (i *Identity) WithRemoteIP(ip net.IP) *Identity {
	i.RemoteIP = ip
	return i
}

// WithUserAgent sets the client user agent.
func (i *Identity) WithUserAgent(ua string) *Identity {
	i.UserAgent = ua
	return i
}

// WithUser copies the privilege flags of the loaded user.
func (i *Identity) WithUser(u *model.User) *Identity {
	i.IsSuperuser = u.IsSuperuser
	i.IsAdmin = u.IsAdmin
	return i
}

// WithPermissions sets the effective permission codes.
func (i *Identity) WithPermissions(codes []string) *Identity {
	i.Permissions = codes
	return i
}

// IP returns the remote address as a string, empty when unknown.
func (i *Identity) IP() string {
	if i.RemoteIP == nil {
		return ""
	}
	return i.RemoteIP.String()
}

// Client returns the request origin in the form the refresh provider wants.
func (i *Identity) Client() token.Client {
	return token.Client{IP: i.IP(), UserAgent: i.UserAgent}
}

// Actor is the display label written into audit columns.
func (i *Identity) Actor() string {
	if i.DisplayName != "" {
		return i.DisplayName
	}
	return i.Email
}

// RemoteIP extracts the client address from a request, preferring the first
// X-Forwarded-For hop.
func RemoteIP(forwardedFor, remoteAddr string) net.IP {
	if forwardedFor != "" {
		first := strings.TrimSpace(strings.Split(forwardedFor, ",")[0])
		if ip := net.ParseIP(first); ip != nil {
			return ip
		}
	}
	host, _, err := net.SplitHostPort(remoteAddr)
	if err != nil {
		host = remoteAddr
	}
	return net.ParseIP(host)
}

// Get retrieves Identity from context.
func Get(ctx context.Context) (*Identity, bool) {
	id, ok := ctx.Value(Key).(*Identity)
	return id, ok
}

// Set stores Identity in context.
func Set(ctx context.Context, id *Identity) context.Context {
	return context.WithValue(ctx, Key, id)
}
