package endpoints

import (
	"net/http"
	"time"

	"github.com/google/uuid"

	"github.com/confportal/conf-portal-api/pkg/errs"
	"github.com/confportal/conf-portal-api/pkg/identity"
	"github.com/confportal/conf-portal-api/pkg/model"
	"github.com/confportal/conf-portal-api/pkg/server"
	"github.com/confportal/conf-portal-api/pkg/server/store"
	"github.com/confportal/conf-portal-api/pkg/token"
)

const reasonAccountDeleted = "User deleted account"

// AccountResponse is an app user's own account.
type AccountResponse struct {
	ID          uuid.UUID    `json:"id"`
	Email       *string      `json:"email"`
	PhoneNumber *string      `json:"phone_number"`
	DisplayName string       `json:"display_name"`
	Gender      model.Gender `json:"gender"`
	Verified    bool         `json:"verified"`
	LastLoginAt *time.Time   `json:"last_login_at,omitempty"`
	CreatedAt   time.Time    `json:"created_at"`
}

type updateAccountRequest struct {
	DisplayName *string       `json:"display_name" validate:"omitempty,min=1,max=64"`
	Gender      *model.Gender `json:"gender" validate:"omitempty,min=0,max=2"`
}

type accountHandlers struct {
	rs        responder
	users     store.UsersStore
	refresh   refreshTokens
	blacklist tokenBlacklist
}

// RegisterAccountEndpoints registers /account/{user_id}
func RegisterAccountEndpoints(s *server.Server) {
	h := &accountHandlers{
		rs:        newResponder(s),
		users:     s.UsersStore,
		refresh:   s.Refresh,
		blacklist: s.Blacklist,
	}

	r := s.API.PathPrefix("/account").Subrouter()
	r.Use(s.Auth.Require(token.KindApp))
	r.HandleFunc("/{user_id}", h.get).Methods("GET")
	r.HandleFunc("/{user_id}", h.update).Methods("PUT")
	r.HandleFunc("/{user_id}", h.delete).Methods("DELETE")
}

// self returns the caller when it owns the account in the path.
func self(r *http.Request) (*identity.Identity, error) {
	userID, err := pathUUID(r, "user_id")
	if err != nil {
		return nil, err
	}
	id, err := caller(r)
	if err != nil {
		return nil, err
	}
	if id.UserID != userID {
		return nil, errs.NewForbiddenError("You can only access your own account", false)
	}
	return id, nil
}

func accountOf(u *model.User) AccountResponse {
	resp := AccountResponse{
		ID:          u.ID,
		Email:       u.Email,
		PhoneNumber: u.PhoneNumber,
		DisplayName: u.DisplayName(),
		Verified:    u.Verified,
		LastLoginAt: u.LastLoginAt,
		CreatedAt:   u.CreatedAt,
	}
	if u.Profile != nil {
		resp.Gender = u.Profile.Gender
	}
	return resp
}

func (h *accountHandlers) get(w http.ResponseWriter, r *http.Request) {
	id, err := self(r)
	if err != nil {
		h.rs.error(w, r, err)
		return
	}
	user, err := h.users.Get(r.Context(), id.UserID)
	if err != nil {
		h.rs.error(w, r, err)
		return
	}
	respondWithJSON(w, http.StatusOK, accountOf(user))
}

func (h *accountHandlers) update(w http.ResponseWriter, r *http.Request) {
	id, err := self(r)
	if err != nil {
		h.rs.error(w, r, err)
		return
	}
	var req updateAccountRequest
	if err := decodeJSON(r, &req); err != nil {
		h.rs.error(w, r, err)
		return
	}
	if err := h.users.UpdateProfile(r.Context(), id.UserID, store.ProfileUpdate{
		DisplayName: req.DisplayName,
		Gender:      req.Gender,
	}); err != nil {
		h.rs.error(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *accountHandlers) delete(w http.ResponseWriter, r *http.Request) {
	id, err := self(r)
	if err != nil {
		h.rs.error(w, r, err)
		return
	}
	if err := h.users.SoftDelete(r.Context(), id.UserID, reasonAccountDeleted); err != nil {
		h.rs.error(w, r, err)
		return
	}
	if err := endSession(r, h.refresh, h.blacklist, ""); err != nil {
		h.rs.error(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
