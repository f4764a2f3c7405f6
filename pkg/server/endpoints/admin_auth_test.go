package endpoints

import (
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/confportal/conf-portal-api/pkg/authenticator"
	"github.com/confportal/conf-portal-api/pkg/identity"
	"github.com/confportal/conf-portal-api/pkg/jobs"
	"github.com/confportal/conf-portal-api/pkg/mail"
	"github.com/confportal/conf-portal-api/pkg/model"
	"github.com/confportal/conf-portal-api/pkg/server/store"
	"github.com/confportal/conf-portal-api/pkg/token"
)

type adminAuthFixture struct {
	h         *adminAuthHandlers
	password  *mockAuthenticator
	users     *mockUsersStore
	resets    *mockPasswordResetStore
	tokens    *mockAccessTokens
	refresh   *mockRefreshTokens
	blacklist *mockBlacklist
	cache     *mockGrantCache
	hasher    *mockHasher
	queue     *mockQueue
}

func newAdminAuthFixture() *adminAuthFixture {
	f := &adminAuthFixture{
		password:  &mockAuthenticator{name: authenticator.Password},
		users:     &mockUsersStore{},
		resets:    &mockPasswordResetStore{},
		tokens:    &mockAccessTokens{},
		refresh:   &mockRefreshTokens{},
		blacklist: &mockBlacklist{},
		cache:     &mockGrantCache{},
		hasher:    &mockHasher{},
		queue:     &mockQueue{},
	}
	f.h = &adminAuthHandlers{
		rs:        testResponder(),
		authn:     stubAuthenticators{authenticator.Password: f.password},
		users:     f.users,
		resets:    f.resets,
		tokens:    f.tokens,
		refresh:   f.refresh,
		blacklist: f.blacklist,
		cache:     f.cache,
		hasher:    f.hasher,
		queue:     f.queue,
		resetURL:  "http://admin.test/reset-password",
		now:       func() time.Time { return fixedNow },
	}
	return f
}

func adminUser() *model.User {
	return &model.User{
		Base:     model.Base{ID: uuid.New()},
		Email:    ptr("admin@example.com"),
		IsActive: true,
		Verified: true,
		IsAdmin:  true,
	}
}

func TestAdminLogin(t *testing.T) {
	f := newAdminAuthFixture()
	user := adminUser()
	grants := &store.Grants{Roles: []string{"editor"}, Permissions: []string{"system:role:read"}}

	f.password.On("Authenticate", mock.MatchedBy(func(in authenticator.Input) bool {
		return in.Login == "admin@example.com" && string(in.Credentials) == "secret123"
	})).Return(&authenticator.Result{User: user}, nil)
	f.users.On("AdminGrants", user, fixedNow).Return(grants, nil)
	f.cache.On("Warm", user.ID, grants.Roles, grants.Permissions).Return(nil)
	f.users.On("TouchLogin", user.ID, fixedNow).Return(nil)
	f.tokens.On("Issue", token.KindAdmin, mock.MatchedBy(func(sub token.Subject) bool {
		return sub.UserID == user.ID && sub.Email == "admin@example.com" && sub.FamilyID != uuid.Nil
	})).Return("access", fixedNow.Add(time.Hour), nil)
	f.refresh.On("Issue", user.ID, mock.Anything, mock.Anything, mock.Anything).Return("refresh", &model.RefreshToken{}, nil)

	w := httptest.NewRecorder()
	f.h.login(w, jsonRequest(t, "POST", "/admin/auth/login", map[string]string{
		"email": "admin@example.com", "password": "secret123",
	}))

	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	var resp AdminLoginResponse
	decodeBody(t, w, &resp)
	assert.Equal(t, "access", resp.Tokens.AccessToken)
	assert.Equal(t, "refresh", resp.Tokens.RefreshToken)
	assert.Equal(t, token.TypeBearer, resp.Tokens.TokenType)
	assert.Equal(t, 3600, resp.Tokens.ExpiresIn)
	assert.Equal(t, []string{"editor"}, resp.Admin.Roles)
	assert.Equal(t, "admin@example.com", resp.Admin.Email)
	f.users.AssertExpectations(t)
	f.cache.AssertExpectations(t)
}

func TestAdminLoginRejected(t *testing.T) {
	tests := []struct {
		name       string
		result     *authenticator.Result
		err        error
		wantStatus int
		wantMsg    string
	}{
		{
			name:       "bad credentials",
			err:        authenticator.ErrInvalidCredentials,
			wantStatus: http.StatusUnauthorized,
			wantMsg:    "Invalid email or password",
		},
		{
			name:       "not an admin",
			result:     &authenticator.Result{User: &model.User{Base: model.Base{ID: uuid.New()}, IsActive: true}},
			wantStatus: http.StatusForbidden,
			wantMsg:    "admin privileges",
		},
		{
			name:       "store failure",
			err:        errors.New("db down"),
			wantStatus: http.StatusInternalServerError,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newAdminAuthFixture()
			f.password.On("Authenticate", mock.Anything).Return(tt.result, tt.err)

			w := httptest.NewRecorder()
			f.h.login(w, jsonRequest(t, "POST", "/admin/auth/login", map[string]string{
				"email": "a@example.com", "password": "whatever",
			}))

			assert.Equal(t, tt.wantStatus, w.Code)
			assert.Contains(t, w.Body.String(), tt.wantMsg)
			f.tokens.AssertNotCalled(t, "Issue", mock.Anything, mock.Anything)
		})
	}
}

func TestAdminRefresh(t *testing.T) {
	t.Run("blacklisted refresh token", func(t *testing.T) {
		f := newAdminAuthFixture()
		f.blacklist.On("IsRefreshBlacklisted", "old").Return(true)

		w := httptest.NewRecorder()
		f.h.refreshToken(w, jsonRequest(t, "POST", "/", map[string]string{"refresh_token": "old"}))

		assert.Equal(t, http.StatusUnauthorized, w.Code)
		f.refresh.AssertNotCalled(t, "Rotate", mock.Anything, mock.Anything)
	})

	t.Run("reused refresh token", func(t *testing.T) {
		f := newAdminAuthFixture()
		f.blacklist.On("IsRefreshBlacklisted", "old").Return(false)
		f.refresh.On("Rotate", "old", mock.Anything).Return("", nil, token.ErrRefreshTokenReused)

		w := httptest.NewRecorder()
		f.h.refreshToken(w, jsonRequest(t, "POST", "/", map[string]string{"refresh_token": "old"}))

		assert.Equal(t, http.StatusUnauthorized, w.Code)
	})

	t.Run("rotates and reissues", func(t *testing.T) {
		f := newAdminAuthFixture()
		user := adminUser()
		child := &model.RefreshToken{UserID: user.ID, FamilyID: uuid.New(), ExpiresAt: fixedNow.Add(24 * time.Hour)}
		grants := &store.Grants{}
		f.blacklist.On("IsRefreshBlacklisted", "old").Return(false)
		f.refresh.On("Rotate", "old", mock.Anything).Return("new", child, nil)
		f.blacklist.On("AddRefresh", "old", child.ExpiresAt).Return(true)
		f.users.On("Get", user.ID).Return(user, nil)
		f.users.On("AdminGrants", user, fixedNow).Return(grants, nil)
		f.cache.On("Warm", user.ID, mock.Anything, mock.Anything).Return(nil)
		f.tokens.On("Issue", token.KindAdmin, mock.MatchedBy(func(sub token.Subject) bool {
			return sub.FamilyID == child.FamilyID
		})).Return("access", fixedNow.Add(time.Hour), nil)

		w := httptest.NewRecorder()
		f.h.refreshToken(w, jsonRequest(t, "POST", "/", map[string]string{"refresh_token": "old"}))

		require.Equal(t, http.StatusOK, w.Code, w.Body.String())
		var pair TokenPair
		decodeBody(t, w, &pair)
		assert.Equal(t, "new", pair.RefreshToken)
		f.blacklist.AssertExpectations(t)
	})
}

func TestAdminLogout(t *testing.T) {
	f := newAdminAuthFixture()
	id := &identity.Identity{
		UserID:    uuid.New(),
		Email:     "admin@example.com",
		Kind:      token.KindAdmin,
		FamilyID:  uuid.New(),
		ExpiresAt: fixedNow.Add(time.Hour),
		Raw:       "access",
	}
	rt := &model.RefreshToken{ExpiresAt: fixedNow.Add(48 * time.Hour)}
	f.blacklist.On("Add", "access", id.ExpiresAt).Return(true)
	f.refresh.On("Lookup", "refresh").Return(rt, nil)
	f.blacklist.On("AddRefresh", "refresh", rt.ExpiresAt).Return(true)
	f.refresh.On("RevokeFamily", id.FamilyID, token.ReasonLogout).Return(nil)
	f.cache.On("Clear", id.UserID).Return(nil)

	req := withIdentity(jsonRequest(t, "POST", "/", map[string]string{"refresh_token": "refresh"}), id)
	w := httptest.NewRecorder()
	f.h.logout(w, req)

	assert.Equal(t, http.StatusNoContent, w.Code)
	f.blacklist.AssertExpectations(t)
	f.refresh.AssertExpectations(t)
	f.cache.AssertExpectations(t)
}

func TestForgotPassword(t *testing.T) {
	t.Run("unknown email still answers 204", func(t *testing.T) {
		f := newAdminAuthFixture()
		f.users.On("GetByEmail", "ghost@example.com").Return(nil, store.ErrNotFound)

		w := httptest.NewRecorder()
		f.h.forgotPassword(w, jsonRequest(t, "POST", "/", map[string]string{"email": "ghost@example.com"}))

		assert.Equal(t, http.StatusNoContent, w.Code)
		f.queue.AssertNotCalled(t, "EnqueueEmail", mock.Anything)
	})

	t.Run("admin gets a reset mail", func(t *testing.T) {
		f := newAdminAuthFixture()
		user := adminUser()
		f.users.On("GetByEmail", "admin@example.com").Return(user, nil)
		f.resets.On("Create", mock.MatchedBy(func(rt *model.PasswordResetToken) bool {
			return rt.UserID == user.ID && rt.ExpiresAt.Equal(fixedNow.Add(passwordResetTTL)) && len(rt.TokenHash) > len("hash:")
		})).Return(nil)
		var sent jobs.EmailPayload
		f.queue.On("EnqueueEmail", mock.Anything).Run(func(args mock.Arguments) {
			sent = args.Get(0).(jobs.EmailPayload)
		}).Return(nil)

		w := httptest.NewRecorder()
		f.h.forgotPassword(w, jsonRequest(t, "POST", "/", map[string]string{"email": "admin@example.com"}))

		assert.Equal(t, http.StatusNoContent, w.Code)
		assert.Equal(t, "admin@example.com", sent.To)
		assert.Equal(t, mail.TemplatePasswordReset, sent.Template)
		assert.Contains(t, sent.Data["ResetURL"], "http://admin.test/reset-password?token=")
		f.resets.AssertExpectations(t)
	})
}

func TestResetPassword(t *testing.T) {
	t.Run("unknown token", func(t *testing.T) {
		f := newAdminAuthFixture()
		f.hasher.On("Hash", "longenough").Return("bcrypt", nil)
		f.resets.On("Redeem", "hash:raw", "bcrypt", fixedNow).Return(nil, store.ErrNotFound)

		w := httptest.NewRecorder()
		f.h.resetPassword(w, jsonRequest(t, "POST", "/", map[string]string{"token": "raw", "new_password": "longenough"}))

		assert.Equal(t, http.StatusBadRequest, w.Code)
		f.refresh.AssertNotCalled(t, "RevokeUser", mock.Anything, mock.Anything)
	})

	t.Run("password stored and sessions revoked", func(t *testing.T) {
		f := newAdminAuthFixture()
		userID := uuid.New()
		f.hasher.On("Hash", "longenough").Return("bcrypt", nil)
		f.resets.On("Redeem", "hash:raw", "bcrypt", fixedNow).
			Return(&model.PasswordResetToken{UserID: userID, UsedAt: &fixedNow}, nil)
		f.refresh.On("RevokeUser", userID, reasonPasswordReset).Return(nil)

		w := httptest.NewRecorder()
		f.h.resetPassword(w, jsonRequest(t, "POST", "/", map[string]string{"token": "raw", "new_password": "longenough"}))

		assert.Equal(t, http.StatusNoContent, w.Code)
		f.resets.AssertExpectations(t)
		f.refresh.AssertExpectations(t)
	})

	t.Run("failed password write is an error", func(t *testing.T) {
		f := newAdminAuthFixture()
		f.hasher.On("Hash", "longenough").Return("bcrypt", nil)
		f.resets.On("Redeem", "hash:raw", "bcrypt", fixedNow).Return(nil, errors.New("connection reset"))

		w := httptest.NewRecorder()
		f.h.resetPassword(w, jsonRequest(t, "POST", "/", map[string]string{"token": "raw", "new_password": "longenough"}))

		assert.Equal(t, http.StatusInternalServerError, w.Code)
		f.refresh.AssertNotCalled(t, "RevokeUser", mock.Anything, mock.Anything)
	})

	t.Run("short password", func(t *testing.T) {
		f := newAdminAuthFixture()
		w := httptest.NewRecorder()
		f.h.resetPassword(w, jsonRequest(t, "POST", "/", map[string]string{"token": "raw", "new_password": "short"}))
		assert.Equal(t, http.StatusBadRequest, w.Code)
	})
}
