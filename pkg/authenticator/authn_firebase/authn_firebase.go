// Package authn_firebase authenticates app users with Firebase ID tokens.
package authn_firebase

import (
	"context"
	"crypto/rsa"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"math/big"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"gorm.io/datatypes"

	"github.com/confportal/conf-portal-api/pkg/authenticator"
	"github.com/confportal/conf-portal-api/pkg/model"
	"github.com/confportal/conf-portal-api/pkg/server/store"
)

// DefaultJWKSURI serves the keys Firebase signs ID tokens with.
const DefaultJWKSURI = "https://www.googleapis.com/service_accounts/v1/jwk/securetoken@system.gserviceaccount.com"

const (
	issuerPrefix = "https://securetoken.google.com/"
	jwksTTL      = 5 * time.Minute
)

// Config holds Firebase authenticator configuration
type Config struct {
	ProjectID string
	// JWKSURI overrides DefaultJWKSURI
	JWKSURI    string
	HTTPClient *http.Client
}

// Store is the part of store.UsersStore the authenticator needs.
type Store interface {
	FindForLogin(ctx context.Context, provider, uid, email string) (*model.User, error)
	CreateWithProfile(ctx context.Context, user *model.User, profile *model.UserProfile) error
	LinkProvider(ctx context.Context, userID uuid.UUID, provider, uid string, data datatypes.JSON) error
}

// Claims are the ID token fields the portal reads.
type Claims struct {
	Email         string `json:"email,omitempty"`
	EmailVerified bool   `json:"email_verified,omitempty"`
	Name          string `json:"name,omitempty"`
	Picture       string `json:"picture,omitempty"`
	Firebase      struct {
		SignInProvider string `json:"sign_in_provider,omitempty"`
	} `json:"firebase"`
	jwt.RegisteredClaims
}

// Authenticator implements Firebase ID token authentication
type Authenticator struct {
	users     Store
	config    Config
	jwksCache *jwksCache
	now       func() time.Time
}

// jwksCache caches JWKS keys
type jwksCache struct {
	mu        sync.RWMutex
	keys      map[string]*rsa.PublicKey
	expiresAt time.Time
}

func New(users Store, config Config) *Authenticator {
	if config.JWKSURI == "" {
		config.JWKSURI = DefaultJWKSURI
	}
	if config.HTTPClient == nil {
		config.HTTPClient = &http.Client{Timeout: 10 * time.Second}
	}
	return &Authenticator{
		users:  users,
		config: config,
		jwksCache: &jwksCache{
			keys: make(map[string]*rsa.PublicKey),
		},
		now: time.Now,
	}
}

func (a *Authenticator) Name() string {
	return authenticator.Firebase
}

// Authenticate verifies the ID token in input.Credentials and resolves the
// portal user, creating one on first login.
func (a *Authenticator) Authenticate(ctx context.Context, input authenticator.Input) (*authenticator.Result, error) {
	raw := strings.TrimSpace(string(input.Credentials))
	if raw == "" {
		return nil, authenticator.ErrInvalidCredentials
	}

	claims, err := a.Verify(ctx, raw)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", authenticator.ErrInvalidCredentials, err)
	}

	result := &authenticator.Result{}
	user, err := a.users.FindForLogin(ctx, authenticator.Firebase, claims.Subject, claims.Email)
	switch {
	case errors.Is(err, store.ErrNotFound):
		user, err = a.createUser(ctx, claims)
		if err != nil {
			return nil, err
		}
		result.FirstLogin = true
	case err != nil:
		return nil, err
	}

	if !user.IsActive {
		return nil, authenticator.ErrInvalidCredentials
	}

	data, err := json.Marshal(map[string]any{
		"email":            claims.Email,
		"email_verified":   claims.EmailVerified,
		"name":             claims.Name,
		"picture":          claims.Picture,
		"sign_in_provider": claims.Firebase.SignInProvider,
	})
	if err != nil {
		return nil, err
	}
	if err := a.users.LinkProvider(ctx, user.ID, authenticator.Firebase, claims.Subject, data); err != nil {
		return nil, fmt.Errorf("failed to link firebase account: %w", err)
	}

	result.User = user
	return result, nil
}

func (a *Authenticator) createUser(ctx context.Context, claims *Claims) (*model.User, error) {
	user := &model.User{IsActive: true, Verified: true}
	if claims.Email != "" {
		email := claims.Email
		user.Email = &email
	}

	name := claims.Name
	if name == "" {
		name = claims.Email
	}
	profile := &model.UserProfile{}
	if name != "" {
		profile.DisplayName = &name
	}

	if err := a.users.CreateWithProfile(ctx, user, profile); err != nil {
		return nil, fmt.Errorf("failed to create user: %w", err)
	}
	return user, nil
}

// Verify checks the signature, issuer, audience and subject of an ID token.
func (a *Authenticator) Verify(ctx context.Context, raw string) (*Claims, error) {
	if a.config.ProjectID == "" {
		return nil, errors.New("firebase project id is not configured")
	}
	if err := a.refreshJWKSIfNeeded(ctx); err != nil {
		return nil, fmt.Errorf("failed to fetch signing keys: %w", err)
	}

	claims := &Claims{}
	_, err := jwt.ParseWithClaims(raw, claims, func(token *jwt.Token) (interface{}, error) {
		kid, ok := token.Header["kid"].(string)
		if !ok {
			return nil, errors.New("missing kid in token header")
		}
		if key, ok := a.key(kid); ok {
			return key, nil
		}
		if err := a.refreshJWKS(ctx); err != nil {
			return nil, err
		}
		key, ok := a.key(kid)
		if !ok {
			return nil, fmt.Errorf("key %s not found", kid)
		}
		return key, nil
	},
		jwt.WithValidMethods([]string{jwt.SigningMethodRS256.Alg()}),
		jwt.WithIssuer(issuerPrefix+a.config.ProjectID),
		jwt.WithAudience(a.config.ProjectID),
		jwt.WithExpirationRequired(),
		jwt.WithTimeFunc(a.now),
	)
	if err != nil {
		return nil, err
	}
	if claims.Subject == "" {
		return nil, errors.New("token has no subject")
	}
	return claims, nil
}

func (a *Authenticator) key(kid string) (*rsa.PublicKey, bool) {
	a.jwksCache.mu.RLock()
	defer a.jwksCache.mu.RUnlock()
	key, ok := a.jwksCache.keys[kid]
	return key, ok
}

func (a *Authenticator) refreshJWKSIfNeeded(ctx context.Context) error {
	a.jwksCache.mu.RLock()
	expired := a.now().After(a.jwksCache.expiresAt)
	a.jwksCache.mu.RUnlock()

	if expired {
		return a.refreshJWKS(ctx)
	}
	return nil
}

func (a *Authenticator) refreshJWKS(ctx context.Context) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, a.config.JWKSURI, nil)
	if err != nil {
		return err
	}
	resp, err := a.config.HTTPClient.Do(req)
	if err != nil {
		return fmt.Errorf("failed to fetch JWKS: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("failed to fetch JWKS: status %d", resp.StatusCode)
	}
	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("failed to read JWKS: %w", err)
	}
	return a.parseJWKSBody(body)
}

func (a *Authenticator) parseJWKSBody(body []byte) error {
	var jwks struct {
		Keys []struct {
			Kid string `json:"kid"`
			Kty string `json:"kty"`
			N   string `json:"n"`
			E   string `json:"e"`
		} `json:"keys"`
	}
	if err := json.Unmarshal(body, &jwks); err != nil {
		return fmt.Errorf("failed to parse JWKS: %w", err)
	}

	keys := make(map[string]*rsa.PublicKey)
	for _, k := range jwks.Keys {
		if k.Kty != "RSA" {
			continue
		}
		pubKey, err := parseRSAPublicKey(k.N, k.E)
		if err != nil {
			continue
		}
		keys[k.Kid] = pubKey
	}

	a.jwksCache.mu.Lock()
	a.jwksCache.keys = keys
	a.jwksCache.expiresAt = a.now().Add(jwksTTL)
	a.jwksCache.mu.Unlock()
	return nil
}

// Status checks that the signing keys can be fetched.
func (a *Authenticator) Status(ctx context.Context) error {
	return a.refreshJWKS(ctx)
}

// parseRSAPublicKey parses an RSA public key from JWK components
func parseRSAPublicKey(nBase64, eBase64 string) (*rsa.PublicKey, error) {
	nBytes, err := jwt.NewParser().DecodeSegment(nBase64)
	if err != nil {
		return nil, err
	}
	eBytes, err := jwt.NewParser().DecodeSegment(eBase64)
	if err != nil {
		return nil, err
	}

	var e int
	for _, b := range eBytes {
		e = e<<8 + int(b)
	}
	return &rsa.PublicKey{
		N: new(big.Int).SetBytes(nBytes),
		E: e,
	}, nil
}
