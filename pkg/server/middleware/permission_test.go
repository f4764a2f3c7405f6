package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"

	"github.com/confportal/conf-portal-api/pkg/cache"
	"github.com/confportal/conf-portal-api/pkg/identity"
	"github.com/confportal/conf-portal-api/pkg/model"
	"github.com/confportal/conf-portal-api/pkg/rbac"
	"github.com/confportal/conf-portal-api/pkg/server/store"
)

func withIdentity(req *http.Request, id *identity.Identity) *http.Request {
	return req.WithContext(identity.Set(req.Context(), id))
}

func TestPermissionsRequire(t *testing.T) {
	userID := uuid.New()
	tests := []struct {
		name       string
		req        rbac.Requirement
		cached     []string
		superuser  bool
		wantStatus int
	}{
		{name: "exact code", req: rbac.Any("system:role:read"), cached: []string{"system:role:read"}, wantStatus: http.StatusOK},
		{name: "wildcard", req: rbac.Any("system:role:delete"), cached: []string{"system:role:*"}, wantStatus: http.StatusOK},
		{name: "any of", req: rbac.Any("content:file:read", "system:log:read"), cached: []string{"system:log:read"}, wantStatus: http.StatusOK},
		{name: "all missing one", req: rbac.All("content:file:read", "system:log:read"), cached: []string{"system:log:read"}, wantStatus: http.StatusForbidden},
		{name: "nothing held", req: rbac.Any("system:role:read"), cached: []string{}, wantStatus: http.StatusForbidden},
		{name: "superuser bypass", req: rbac.Any("system:role:read"), superuser: true, wantStatus: http.StatusOK},
		{name: "superuser bypass disabled", req: rbac.Requirement{Codes: []string{"system:role:read"}, DenySuperuser: true}, cached: []string{}, superuser: true, wantStatus: http.StatusForbidden},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := &mockCache{}
			c.On("Permissions", mock.Anything, userID).Return(tt.cached, nil)

			var called bool
			rec := httptest.NewRecorder()
			req := withIdentity(bearer(""), &identity.Identity{UserID: userID, IsSuperuser: tt.superuser})
			NewPermissions(c, &mockUsers{}, false, nopLogger()).Require(tt.req)(okHandler(&called)).ServeHTTP(rec, req)

			assert.Equal(t, tt.wantStatus, rec.Code)
			assert.Equal(t, tt.wantStatus == http.StatusOK, called)
		})
	}
}

func TestPermissionsCacheMissRewarms(t *testing.T) {
	userID := uuid.New()
	user := &model.User{Base: model.Base{ID: userID}, IsAdmin: true}
	grants := &store.Grants{Roles: []string{"admin"}, Permissions: []string{"content:file:read"}}

	c := &mockCache{}
	c.On("Permissions", mock.Anything, userID).Return(nil, cache.ErrMiss)
	c.On("Warm", mock.Anything, userID, grants.Roles, grants.Permissions).Return(nil)
	users := &mockUsers{}
	users.On("Get", mock.Anything, userID).Return(user, nil)
	users.On("AdminGrants", mock.Anything, user, mock.Anything).Return(grants, nil)

	id := &identity.Identity{UserID: userID}
	var called bool
	rec := httptest.NewRecorder()
	NewPermissions(c, users, false, nopLogger()).
		Require(rbac.Any("content:file:read"))(okHandler(&called)).
		ServeHTTP(rec, withIdentity(bearer(""), id))

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, grants.Permissions, id.Permissions)
	c.AssertExpectations(t)
	users.AssertExpectations(t)
}

func TestPermissionsDatabaseFailure(t *testing.T) {
	userID := uuid.New()
	c := &mockCache{}
	c.On("Permissions", mock.Anything, userID).Return(nil, errBoom)
	users := &mockUsers{}
	users.On("Get", mock.Anything, userID).Return(nil, errBoom)

	var called bool
	rec := httptest.NewRecorder()
	NewPermissions(c, users, false, nopLogger()).
		Require(rbac.Any("content:file:read"))(okHandler(&called)).
		ServeHTTP(rec, withIdentity(bearer(""), &identity.Identity{UserID: userID}))

	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	assert.False(t, called)
}

func TestPermissionsWithoutIdentity(t *testing.T) {
	var called bool
	rec := httptest.NewRecorder()
	NewPermissions(&mockCache{}, &mockUsers{}, false, nopLogger()).
		Require(rbac.Any("content:file:read"))(okHandler(&called)).
		ServeHTTP(rec, bearer(""))

	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}
