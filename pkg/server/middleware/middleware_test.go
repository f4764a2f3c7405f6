package middleware

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/mock"

	"github.com/confportal/conf-portal-api/pkg/model"
	"github.com/confportal/conf-portal-api/pkg/server/store"
	"github.com/confportal/conf-portal-api/pkg/token"
)

type mockBlacklist struct {
	mock.Mock
}

func (m *mockBlacklist) IsBlacklisted(ctx context.Context, raw string) bool {
	return m.Called(ctx, raw).Bool(0)
}

type mockUsers struct {
	mock.Mock
}

func (m *mockUsers) Get(ctx context.Context, id uuid.UUID) (*model.User, error) {
	args := m.Called(ctx, id)
	u, _ := args.Get(0).(*model.User)
	return u, args.Error(1)
}

func (m *mockUsers) AdminGrants(ctx context.Context, user *model.User, now time.Time) (*store.Grants, error) {
	args := m.Called(ctx, user, now)
	g, _ := args.Get(0).(*store.Grants)
	return g, args.Error(1)
}

type mockCache struct {
	mock.Mock
}

func (m *mockCache) Permissions(ctx context.Context, userID uuid.UUID) ([]string, error) {
	args := m.Called(ctx, userID)
	codes, _ := args.Get(0).([]string)
	return codes, args.Error(1)
}

func (m *mockCache) Warm(ctx context.Context, userID uuid.UUID, roles, permissions []string) error {
	return m.Called(ctx, userID, roles, permissions).Error(0)
}

var errBoom = errors.New("boom")

func testProvider() *token.Provider {
	return token.NewProvider("test-secret", "https://portal.test", "portal", time.Hour)
}

func issue(t *testing.T, kind token.Kind, userID uuid.UUID) string {
	t.Helper()
	raw, _, err := testProvider().Issue(kind, token.Subject{
		UserID:      userID,
		Email:       "ada@example.org",
		DisplayName: "Ada",
		FamilyID:    uuid.New(),
	})
	if err != nil {
		t.Fatal(err)
	}
	return raw
}

func nopLogger() *zerolog.Logger {
	l := zerolog.Nop()
	return &l
}

// okHandler records that it ran.
func okHandler(called *bool) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		*called = true
		w.WriteHeader(http.StatusOK)
	})
}

func bearer(raw string) *http.Request {
	req := httptest.NewRequest(http.MethodGet, "/api/v1/admin/role/pages", nil)
	if raw != "" {
		req.Header.Set("Authorization", "Bearer "+raw)
	}
	return req
}
