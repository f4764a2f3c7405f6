package endpoints

import (
	"errors"
	"net/http"
	"time"

	"github.com/google/uuid"

	"github.com/confportal/conf-portal-api/pkg/authenticator"
	"github.com/confportal/conf-portal-api/pkg/errs"
	"github.com/confportal/conf-portal-api/pkg/model"
	"github.com/confportal/conf-portal-api/pkg/server"
	"github.com/confportal/conf-portal-api/pkg/server/store"
	"github.com/confportal/conf-portal-api/pkg/token"
)

type appLoginRequest struct {
	LoginMethod   string `json:"login_method" validate:"required,oneof=firebase"`
	FirebaseToken string `json:"firebase_token" validate:"required"`
	DeviceID      string `json:"device_id"`
}

// AppUser is the login view of an app user.
type AppUser struct {
	ID          uuid.UUID `json:"id"`
	PhoneNumber *string   `json:"phone_number"`
	Email       *string   `json:"email"`
	DisplayName string    `json:"display_name"`
	Verified    bool      `json:"verified"`
	FirstLogin  bool      `json:"first_login"`
}

type AppLoginResponse struct {
	User AppUser `json:"user"`
	TokenPair
}

type appAuthHandlers struct {
	rs        responder
	authn     authenticators
	users     store.UsersStore
	devices   store.DevicesStore
	tokens    accessTokens
	refresh   refreshTokens
	blacklist tokenBlacklist
	now       func() time.Time
}

// RegisterAppAuthEndpoints registers /auth
func RegisterAppAuthEndpoints(s *server.Server) {
	h := &appAuthHandlers{
		rs:        newResponder(s),
		authn:     s.Authenticators,
		users:     s.UsersStore,
		devices:   s.DevicesStore,
		tokens:    s.Tokens,
		refresh:   s.Refresh,
		blacklist: s.Blacklist,
		now:       func() time.Time { return time.Now().UTC() },
	}

	r := s.API.PathPrefix("/auth").Subrouter()
	r.HandleFunc("/login", h.login).Methods("POST")
	r.HandleFunc("/refresh", h.refreshToken).Methods("POST")
	r.Handle("/logout", s.Auth.Require(token.KindApp)(http.HandlerFunc(h.logout))).Methods("POST")
}

func appSubject(user *model.User, familyID uuid.UUID) token.Subject {
	sub := token.Subject{
		UserID:      user.ID,
		DisplayName: user.DisplayName(),
		FamilyID:    familyID,
	}
	if user.Email != nil {
		sub.Email = *user.Email
	}
	return sub
}

// authDeviceID is stable per user and client device so repeated logins from
// one phone update the same auth device row.
func authDeviceID(userID uuid.UUID, deviceKey string) uuid.UUID {
	if deviceKey == "" {
		return uuid.New()
	}
	return uuid.NewSHA1(userID, []byte(deviceKey))
}

func (h *appAuthHandlers) login(w http.ResponseWriter, r *http.Request) {
	var req appLoginRequest
	if err := decodeJSON(r, &req); err != nil {
		h.rs.error(w, r, err)
		return
	}
	authn, ok := h.authn.Lookup(authenticator.Firebase)
	if !ok {
		h.rs.error(w, r, errs.NewBadRequestError("Unsupported login method", false, nil,
			[]errs.FieldError{{Field: "login_method", Error: "is not enabled"}}, nil))
		return
	}

	ip, ua := clientOf(r)
	result, err := authn.Authenticate(r.Context(), authenticator.Input{
		Credentials: []byte(req.FirebaseToken),
		ClientIP:    ip,
		UserAgent:   ua,
	})
	if errors.Is(err, authenticator.ErrInvalidCredentials) {
		h.rs.error(w, r, errs.NewUnauthorizedError("Invalid Firebase token", true).WithDebug(err.Error()))
		return
	}
	if err != nil {
		h.rs.error(w, r, err)
		return
	}
	user := result.User

	now := h.now()
	if err := h.users.TouchLogin(r.Context(), user.ID, now); err != nil {
		h.rs.error(w, r, err)
		return
	}
	if req.DeviceID != "" {
		if _, err := h.devices.Bind(r.Context(), user.ID, req.DeviceID); err != nil && !errors.Is(err, store.ErrNotFound) {
			h.rs.error(w, r, err)
			return
		}
	}

	familyID := uuid.New()
	access, expiresAt, err := h.tokens.Issue(token.KindApp, appSubject(user, familyID))
	if err != nil {
		h.rs.error(w, r, err)
		return
	}
	refresh, _, err := h.refresh.Issue(r.Context(), user.ID, authDeviceID(user.ID, req.DeviceID), familyID, token.Client{IP: ip, UserAgent: ua})
	if err != nil {
		h.rs.error(w, r, err)
		return
	}

	respondWithJSON(w, http.StatusOK, AppLoginResponse{
		User: AppUser{
			ID:          user.ID,
			PhoneNumber: user.PhoneNumber,
			Email:       user.Email,
			DisplayName: user.DisplayName(),
			Verified:    user.Verified,
			FirstLogin:  result.FirstLogin,
		},
		TokenPair: TokenPair{
			AccessToken:  access,
			RefreshToken: refresh,
			TokenType:    token.TypeBearer,
			ExpiresIn:    expiresIn(expiresAt, now),
		},
	})
}

func (h *appAuthHandlers) refreshToken(w http.ResponseWriter, r *http.Request) {
	var req refreshRequest
	if err := decodeJSON(r, &req); err != nil {
		h.rs.error(w, r, err)
		return
	}
	newRaw, child, err := rotate(r, h.refresh, h.blacklist, req.RefreshToken)
	if err != nil {
		h.rs.error(w, r, err)
		return
	}
	user, err := h.users.Get(r.Context(), child.UserID)
	if errors.Is(err, store.ErrNotFound) {
		h.rs.error(w, r, errs.NewUnauthorizedError("Invalid refresh token", true))
		return
	}
	if err != nil {
		h.rs.error(w, r, err)
		return
	}
	if !user.IsActive {
		h.rs.error(w, r, errs.NewUnauthorizedError("User is inactive", true))
		return
	}
	access, expiresAt, err := h.tokens.Issue(token.KindApp, appSubject(user, child.FamilyID))
	if err != nil {
		h.rs.error(w, r, err)
		return
	}
	respondWithJSON(w, http.StatusOK, TokenPair{
		AccessToken:  access,
		RefreshToken: newRaw,
		TokenType:    token.TypeBearer,
		ExpiresIn:    expiresIn(expiresAt, h.now()),
	})
}

func (h *appAuthHandlers) logout(w http.ResponseWriter, r *http.Request) {
	var req logoutRequest
	if err := decodeJSON(r, &req); err != nil {
		h.rs.error(w, r, err)
		return
	}
	if err := endSession(r, h.refresh, h.blacklist, req.RefreshToken); err != nil {
		h.rs.error(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
