package authenticator

import (
	"context"
	"errors"
	"sort"
	"sync"

	"github.com/confportal/conf-portal-api/pkg/model"
)

const (
	Password = "password"
	Firebase = "firebase"
)

// ErrInvalidCredentials is returned for unknown logins and bad secrets alike.
var ErrInvalidCredentials = errors.New("invalid credentials")

// Authenticator defines the interface for all authenticators
type Authenticator interface {
	// Name is the login method the authenticator serves (e.g. "password")
	Name() string

	// Authenticate validates credentials and returns the portal user
	Authenticate(ctx context.Context, input Input) (*Result, error)

	// Status checks if the authenticator is able to serve logins
	Status(ctx context.Context) error
}

// Input contains the input for authentication
type Input struct {
	// Login is the email for password logins and unused for firebase
	Login       string
	Credentials []byte
	ClientIP    string
	UserAgent   string
}

// Result is a successful authentication.
type Result struct {
	User *model.User
	// FirstLogin is set when the user was created by this login.
	FirstLogin bool
}

// Registry maps login methods to authenticators. It is filled once at
// startup and only read afterwards.
type Registry struct {
	entries map[string]entry
}

type entry struct {
	auth    Authenticator
	enabled bool
}

func NewRegistry() *Registry {
	return &Registry{entries: map[string]entry{}}
}

// Install adds auth under its name. A disabled authenticator is still
// reported by Installed but never returned by Lookup.
func (r *Registry) Install(auth Authenticator, enabled bool) *Registry {
	r.entries[auth.Name()] = entry{auth: auth, enabled: enabled}
	return r
}

// Lookup returns the named authenticator if it is enabled.
func (r *Registry) Lookup(name string) (Authenticator, bool) {
	e, ok := r.entries[name]
	if !ok || !e.enabled {
		return nil, false
	}
	return e.auth, true
}

func (r *Registry) names(enabledOnly bool) []string {
	names := make([]string, 0, len(r.entries))
	for name, e := range r.entries {
		if enabledOnly && !e.enabled {
			continue
		}
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Installed lists every authenticator, sorted.
func (r *Registry) Installed() []string { return r.names(false) }

// Enabled lists the authenticators Lookup will return, sorted.
func (r *Registry) Enabled() []string { return r.names(true) }

// Status checks the enabled authenticators concurrently and returns one
// entry per authenticator, nil when healthy.
func (r *Registry) Status(ctx context.Context) map[string]error {
	var (
		mu  sync.Mutex
		wg  sync.WaitGroup
		out = make(map[string]error, len(r.entries))
	)
	for _, name := range r.Enabled() {
		auth := r.entries[name].auth
		wg.Add(1)
		go func() {
			defer wg.Done()
			err := auth.Status(ctx)
			mu.Lock()
			out[auth.Name()] = err
			mu.Unlock()
		}()
	}
	wg.Wait()
	return out
}
