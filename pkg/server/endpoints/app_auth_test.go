package endpoints

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/confportal/conf-portal-api/pkg/authenticator"
	"github.com/confportal/conf-portal-api/pkg/model"
	"github.com/confportal/conf-portal-api/pkg/server/store"
	"github.com/confportal/conf-portal-api/pkg/token"
)

func newAppAuth(authn authenticators, users *mockUsersStore, devices *mockDevicesStore, tokens *mockAccessTokens, refresh *mockRefreshTokens) *appAuthHandlers {
	return &appAuthHandlers{
		rs:        testResponder(),
		authn:     authn,
		users:     users,
		devices:   devices,
		tokens:    tokens,
		refresh:   refresh,
		blacklist: &mockBlacklist{},
		now:       func() time.Time { return fixedNow },
	}
}

func TestAppLogin(t *testing.T) {
	firebase := &mockAuthenticator{name: authenticator.Firebase}
	users := &mockUsersStore{}
	devices := &mockDevicesStore{}
	tokens := &mockAccessTokens{}
	refresh := &mockRefreshTokens{}
	h := newAppAuth(stubAuthenticators{authenticator.Firebase: firebase}, users, devices, tokens, refresh)

	user := &model.User{Base: model.Base{ID: uuid.New()}, PhoneNumber: ptr("+886912345678"), IsActive: true, Verified: true}
	firebase.On("Authenticate", mock.MatchedBy(func(in authenticator.Input) bool {
		return string(in.Credentials) == "id-token"
	})).Return(&authenticator.Result{User: user, FirstLogin: true}, nil)
	users.On("TouchLogin", user.ID, fixedNow).Return(nil)
	devices.On("Bind", user.ID, "phone-1").Return(uuid.Nil, store.ErrNotFound)
	tokens.On("Issue", token.KindApp, mock.Anything).Return("access", fixedNow.Add(time.Hour), nil)
	refresh.On("Issue", user.ID, authDeviceID(user.ID, "phone-1"), mock.Anything, mock.Anything).Return("refresh", &model.RefreshToken{}, nil)

	w := httptest.NewRecorder()
	h.login(w, jsonRequest(t, "POST", "/auth/login", map[string]string{
		"login_method":   "firebase",
		"firebase_token": "id-token",
		"device_id":      "phone-1",
	}))

	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	var resp AppLoginResponse
	decodeBody(t, w, &resp)
	assert.True(t, resp.User.FirstLogin)
	assert.Equal(t, "access", resp.AccessToken)
	assert.Equal(t, "refresh", resp.RefreshToken)
	refresh.AssertExpectations(t)
	devices.AssertExpectations(t)
}

func TestAppLoginErrors(t *testing.T) {
	t.Run("firebase disabled", func(t *testing.T) {
		h := newAppAuth(stubAuthenticators{}, &mockUsersStore{}, &mockDevicesStore{}, &mockAccessTokens{}, &mockRefreshTokens{})
		w := httptest.NewRecorder()
		h.login(w, jsonRequest(t, "POST", "/", map[string]string{"login_method": "firebase", "firebase_token": "x"}))
		assert.Equal(t, http.StatusBadRequest, w.Code)
	})

	t.Run("unsupported method", func(t *testing.T) {
		h := newAppAuth(stubAuthenticators{}, &mockUsersStore{}, &mockDevicesStore{}, &mockAccessTokens{}, &mockRefreshTokens{})
		w := httptest.NewRecorder()
		h.login(w, jsonRequest(t, "POST", "/", map[string]string{"login_method": "apple", "firebase_token": "x"}))
		assert.Equal(t, http.StatusBadRequest, w.Code)
		assert.Contains(t, w.Body.String(), "LoginMethod")
	})

	t.Run("invalid token", func(t *testing.T) {
		firebase := &mockAuthenticator{name: authenticator.Firebase}
		firebase.On("Authenticate", mock.Anything).Return(nil, authenticator.ErrInvalidCredentials)
		h := newAppAuth(stubAuthenticators{authenticator.Firebase: firebase}, &mockUsersStore{}, &mockDevicesStore{}, &mockAccessTokens{}, &mockRefreshTokens{})
		w := httptest.NewRecorder()
		h.login(w, jsonRequest(t, "POST", "/", map[string]string{"login_method": "firebase", "firebase_token": "bad"}))
		assert.Equal(t, http.StatusUnauthorized, w.Code)
		assert.Contains(t, w.Body.String(), "Invalid Firebase token")
	})
}

func TestAuthDeviceID(t *testing.T) {
	user := uuid.New()
	assert.Equal(t, authDeviceID(user, "phone-1"), authDeviceID(user, "phone-1"))
	assert.NotEqual(t, authDeviceID(user, "phone-1"), authDeviceID(user, "phone-2"))
	assert.NotEqual(t, authDeviceID(user, "phone-1"), authDeviceID(uuid.New(), "phone-1"))
	assert.NotEqual(t, authDeviceID(user, ""), authDeviceID(user, ""))
}
