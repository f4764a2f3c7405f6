// Package authn_password authenticates admins by email and password.
package authn_password

import (
	"context"
	"errors"
	"strings"

	"github.com/confportal/conf-portal-api/pkg/authenticator"
	"github.com/confportal/conf-portal-api/pkg/model"
	"github.com/confportal/conf-portal-api/pkg/server/store"
)

// Store is the part of store.UsersStore the authenticator reads.
type Store interface {
	GetByEmail(ctx context.Context, email string) (*model.User, error)
}

// Verifier checks a plain password against its stored hash.
type Verifier interface {
	Verify(plain, encoded string) bool
}

// Authenticator implements password authentication
type Authenticator struct {
	users    Store
	verifier Verifier
}

func New(users Store, verifier Verifier) *Authenticator {
	return &Authenticator{users: users, verifier: verifier}
}

func (a *Authenticator) Name() string {
	return authenticator.Password
}

// Authenticate looks up the active user by email and verifies the password.
// Unknown users and wrong passwords both yield ErrInvalidCredentials.
func (a *Authenticator) Authenticate(ctx context.Context, input authenticator.Input) (*authenticator.Result, error) {
	email := strings.TrimSpace(input.Login)
	if email == "" || len(input.Credentials) == 0 {
		return nil, authenticator.ErrInvalidCredentials
	}

	user, err := a.users.GetByEmail(ctx, email)
	if errors.Is(err, store.ErrNotFound) {
		return nil, authenticator.ErrInvalidCredentials
	}
	if err != nil {
		return nil, err
	}

	if user.PasswordHash == nil || !a.verifier.Verify(string(input.Credentials), *user.PasswordHash) {
		return nil, authenticator.ErrInvalidCredentials
	}
	return &authenticator.Result{User: user}, nil
}

// Status always succeeds; the database is covered by the health check.
func (a *Authenticator) Status(ctx context.Context) error {
	return nil
}
