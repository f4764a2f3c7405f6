package endpoints

import (
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/confportal/conf-portal-api/pkg/audit"
	"github.com/confportal/conf-portal-api/pkg/authenticator"
	"github.com/confportal/conf-portal-api/pkg/errs"
	"github.com/confportal/conf-portal-api/pkg/jobs"
	"github.com/confportal/conf-portal-api/pkg/mail"
	"github.com/confportal/conf-portal-api/pkg/model"
	"github.com/confportal/conf-portal-api/pkg/server"
	"github.com/confportal/conf-portal-api/pkg/server/store"
	"github.com/confportal/conf-portal-api/pkg/token"
)

const (
	passwordResetTTL   = time.Hour
	passwordResetBytes = 48

	reasonPasswordReset = "Password reset"
)

type adminLoginRequest struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required"`
}

type refreshRequest struct {
	RefreshToken string `json:"refresh_token" validate:"required"`
}

type logoutRequest struct {
	RefreshToken string `json:"refresh_token"`
}

type forgotPasswordRequest struct {
	Email string `json:"email" validate:"required,email"`
}

type resetPasswordRequest struct {
	Token       string `json:"token" validate:"required"`
	NewPassword string `json:"new_password" validate:"required,min=8"`
}

// AdminInfo describes the signed in admin.
type AdminInfo struct {
	ID          uuid.UUID  `json:"id"`
	Email       string     `json:"email"`
	DisplayName string     `json:"display_name"`
	Roles       []string   `json:"roles"`
	Permissions []string   `json:"permissions"`
	LastLoginAt *time.Time `json:"last_login_at,omitempty"`
}

// TokenPair is returned by every login and refresh.
type TokenPair struct {
	AccessToken  string `json:"access_token"`
	RefreshToken string `json:"refresh_token"`
	TokenType    string `json:"token_type"`
	ExpiresIn    int    `json:"expires_in"`
}

type AdminLoginResponse struct {
	Admin  AdminInfo `json:"admin"`
	Tokens TokenPair `json:"tokens"`
}

type adminAuthHandlers struct {
	rs        responder
	authn     authenticators
	users     store.UsersStore
	resets    store.PasswordResetStore
	tokens    accessTokens
	refresh   refreshTokens
	blacklist tokenBlacklist
	cache     grantCache
	hasher    passwordHasher
	queue     server.Queue
	audit     *audit.Recorder
	resetURL  string
	now       func() time.Time
}

type passwordHasher interface {
	Hash(plain string) (string, error)
}

// RegisterAdminAuthEndpoints registers /admin/auth
func RegisterAdminAuthEndpoints(s *server.Server) {
	h := &adminAuthHandlers{
		rs:        newResponder(s),
		authn:     s.Authenticators,
		users:     s.UsersStore,
		resets:    s.PasswordResetStore,
		tokens:    s.Tokens,
		refresh:   s.Refresh,
		blacklist: s.Blacklist,
		cache:     s.PermCache,
		hasher:    s.Hasher,
		queue:     s.Queue,
		audit:     s.Audit,
		resetURL:  strings.TrimRight(s.Config.AdminFrontendURL, "/") + "/reset-password",
		now:       func() time.Time { return time.Now().UTC() },
	}

	r := s.API.PathPrefix("/admin/auth").Subrouter()
	r.HandleFunc("/login", h.login).Methods("POST")
	r.HandleFunc("/refresh", h.refreshToken).Methods("POST")
	r.HandleFunc("/password/forgot", h.forgotPassword).Methods("POST")
	r.HandleFunc("/password/reset", h.resetPassword).Methods("POST")

	authed := r.NewRoute().Subrouter()
	authed.Use(s.Auth.Require(token.KindAdmin))
	authed.HandleFunc("/logout", h.logout).Methods("POST")
	authed.HandleFunc("/me", h.me).Methods("GET")
}

func (h *adminAuthHandlers) grants(r *http.Request, user *model.User) (*store.Grants, error) {
	grants, err := h.users.AdminGrants(r.Context(), user, h.now())
	if err != nil {
		return nil, err
	}
	if err := h.cache.Warm(r.Context(), user.ID, grants.Roles, grants.Permissions); err != nil {
		h.rs.logger.Warn().Err(err).Str("user_id", user.ID.String()).Msg("failed to warm permission cache")
	}
	return grants, nil
}

func adminInfo(user *model.User, grants *store.Grants) AdminInfo {
	info := AdminInfo{
		ID:          user.ID,
		DisplayName: user.DisplayName(),
		Roles:       grants.Roles,
		Permissions: grants.Permissions,
		LastLoginAt: user.LastLoginAt,
	}
	if user.Email != nil {
		info.Email = *user.Email
	}
	if info.Roles == nil {
		info.Roles = []string{}
	}
	if info.Permissions == nil {
		info.Permissions = []string{}
	}
	return info
}

func (h *adminAuthHandlers) issueAccess(user *model.User, familyID uuid.UUID, grants *store.Grants) (string, time.Time, error) {
	sub := token.Subject{
		UserID:      user.ID,
		DisplayName: user.DisplayName(),
		FamilyID:    familyID,
		Roles:       grants.Roles,
		Permissions: grants.Permissions,
	}
	if user.Email != nil {
		sub.Email = *user.Email
	}
	return h.tokens.Issue(token.KindAdmin, sub)
}

func (h *adminAuthHandlers) login(w http.ResponseWriter, r *http.Request) {
	var req adminLoginRequest
	if err := decodeJSON(r, &req); err != nil {
		h.rs.error(w, r, err)
		return
	}

	authn, ok := h.authn.Lookup(authenticator.Password)
	if !ok {
		h.rs.error(w, r, errs.NewServiceUnavailableError("Password login is disabled"))
		return
	}
	ip, ua := clientOf(r)
	result, err := authn.Authenticate(r.Context(), authenticator.Input{
		Login:       req.Email,
		Credentials: []byte(req.Password),
		ClientIP:    ip,
		UserAgent:   ua,
	})
	if errors.Is(err, authenticator.ErrInvalidCredentials) {
		h.rs.error(w, r, errs.NewUnauthorizedError("Invalid email or password", true))
		return
	}
	if err != nil {
		h.rs.error(w, r, err)
		return
	}
	user := result.User
	if !user.IsAdmin && !user.IsSuperuser {
		h.rs.error(w, r, errs.NewForbiddenError("User does not have admin privileges", true))
		return
	}

	grants, err := h.grants(r, user)
	if err != nil {
		h.rs.error(w, r, err)
		return
	}
	now := h.now()
	if err := h.users.TouchLogin(r.Context(), user.ID, now); err != nil {
		h.rs.error(w, r, err)
		return
	}
	user.LastLoginAt = &now

	familyID := uuid.New()
	access, expiresAt, err := h.issueAccess(user, familyID, grants)
	if err != nil {
		h.rs.error(w, r, err)
		return
	}
	refresh, _, err := h.refresh.Issue(r.Context(), user.ID, uuid.New(), familyID, token.Client{IP: ip, UserAgent: ua})
	if err != nil {
		h.rs.error(w, r, err)
		return
	}

	a := audit.Actor{UserID: user.ID, Name: user.DisplayName(), IP: ip, UserAgent: ua}
	h.audit.Record(r.Context(), a, audit.Login(user.ID, req.Email))

	respondWithJSON(w, http.StatusOK, AdminLoginResponse{
		Admin: adminInfo(user, grants),
		Tokens: TokenPair{
			AccessToken:  access,
			RefreshToken: refresh,
			TokenType:    token.TypeBearer,
			ExpiresIn:    expiresIn(expiresAt, now),
		},
	})
}

// rotate exchanges a refresh token and blacklists the old one.
func rotate(r *http.Request, refresh refreshTokens, blacklist tokenBlacklist, raw string) (string, *model.RefreshToken, error) {
	if blacklist.IsRefreshBlacklisted(r.Context(), raw) {
		return "", nil, errs.NewUnauthorizedError("Refresh token has been revoked", true)
	}
	ip, ua := clientOf(r)
	newRaw, child, err := refresh.Rotate(r.Context(), raw, token.Client{IP: ip, UserAgent: ua})
	if errors.Is(err, token.ErrRefreshTokenInvalid) || errors.Is(err, token.ErrRefreshTokenReused) {
		return "", nil, errs.NewUnauthorizedError("Invalid refresh token", true).WithDebug(err.Error())
	}
	if err != nil {
		return "", nil, err
	}
	blacklist.AddRefresh(r.Context(), raw, child.ExpiresAt)
	return newRaw, child, nil
}

func (h *adminAuthHandlers) refreshToken(w http.ResponseWriter, r *http.Request) {
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
	if !user.IsActive || (!user.IsAdmin && !user.IsSuperuser) {
		h.rs.error(w, r, errs.NewForbiddenError("User does not have admin privileges", true))
		return
	}
	grants, err := h.grants(r, user)
	if err != nil {
		h.rs.error(w, r, err)
		return
	}
	access, expiresAt, err := h.issueAccess(user, child.FamilyID, grants)
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

// endSession blacklists the caller's tokens and revokes the family.
func endSession(r *http.Request, refresh refreshTokens, blacklist tokenBlacklist, rawRefresh string) error {
	id, err := caller(r)
	if err != nil {
		return err
	}
	blacklist.Add(r.Context(), id.Raw, id.ExpiresAt)
	if rawRefresh != "" {
		if rt, err := refresh.Lookup(r.Context(), rawRefresh); err == nil {
			blacklist.AddRefresh(r.Context(), rawRefresh, rt.ExpiresAt)
		}
	}
	if id.FamilyID != uuid.Nil {
		if err := refresh.RevokeFamily(r.Context(), id.FamilyID, token.ReasonLogout); err != nil {
			return err
		}
	}
	return nil
}

func (h *adminAuthHandlers) logout(w http.ResponseWriter, r *http.Request) {
	var req logoutRequest
	if err := decodeJSON(r, &req); err != nil {
		h.rs.error(w, r, err)
		return
	}
	if err := endSession(r, h.refresh, h.blacklist, req.RefreshToken); err != nil {
		h.rs.error(w, r, err)
		return
	}
	id, _ := caller(r)
	if err := h.cache.Clear(r.Context(), id.UserID); err != nil {
		h.rs.logger.Warn().Err(err).Str("user_id", id.UserID.String()).Msg("failed to clear permission cache")
	}
	h.audit.Record(r.Context(), actor(r), audit.Logout(id.UserID, id.Email))
	w.WriteHeader(http.StatusNoContent)
}

func (h *adminAuthHandlers) me(w http.ResponseWriter, r *http.Request) {
	id, err := caller(r)
	if err != nil {
		h.rs.error(w, r, err)
		return
	}
	user, err := h.users.Get(r.Context(), id.UserID)
	if err != nil {
		h.rs.error(w, r, err)
		return
	}
	grants, err := h.grants(r, user)
	if err != nil {
		h.rs.error(w, r, err)
		return
	}
	respondWithJSON(w, http.StatusOK, adminInfo(user, grants))
}

// forgotPassword always answers 204 so it does not reveal which emails have accounts.
func (h *adminAuthHandlers) forgotPassword(w http.ResponseWriter, r *http.Request) {
	var req forgotPasswordRequest
	if err := decodeJSON(r, &req); err != nil {
		h.rs.error(w, r, err)
		return
	}
	if err := h.sendReset(r, strings.TrimSpace(req.Email)); err != nil {
		h.rs.logger.Error().Err(err).Msg("failed to start password reset")
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *adminAuthHandlers) sendReset(r *http.Request, email string) error {
	user, err := h.users.GetByEmail(r.Context(), email)
	if errors.Is(err, store.ErrNotFound) {
		return nil
	}
	if err != nil {
		return err
	}
	if !user.IsAdmin && !user.IsSuperuser {
		return nil
	}

	raw, err := token.NewOpaque(passwordResetBytes)
	if err != nil {
		return err
	}
	ip, ua := clientOf(r)
	if err := h.resets.Create(r.Context(), &model.PasswordResetToken{
		UserID:    user.ID,
		TokenHash: h.refresh.Hash(raw),
		ExpiresAt: h.now().Add(passwordResetTTL),
		IP:        optional(ip),
		UserAgent: optional(ua),
	}); err != nil {
		return err
	}
	if h.queue == nil {
		return errors.New("no job queue configured")
	}
	return h.queue.EnqueueEmail(r.Context(), jobs.EmailPayload{
		To:       email,
		Subject:  "Reset your password",
		Template: mail.TemplatePasswordReset,
		Data: map[string]string{
			"Name":     user.DisplayName(),
			"ResetURL": h.resetURL + "?token=" + raw,
		},
	})
}

func (h *adminAuthHandlers) resetPassword(w http.ResponseWriter, r *http.Request) {
	var req resetPasswordRequest
	if err := decodeJSON(r, &req); err != nil {
		h.rs.error(w, r, err)
		return
	}
	hash, err := h.hasher.Hash(req.NewPassword)
	if err != nil {
		h.rs.error(w, r, err)
		return
	}
	reset, err := h.resets.Redeem(r.Context(), h.refresh.Hash(req.Token), hash, h.now())
	if errors.Is(err, store.ErrNotFound) {
		h.rs.error(w, r, errs.NewBadRequestError("Invalid or expired reset token", true, nil, nil, nil))
		return
	}
	if err != nil {
		h.rs.error(w, r, err)
		return
	}
	if err := h.refresh.RevokeUser(r.Context(), reset.UserID, reasonPasswordReset); err != nil {
		h.rs.error(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
