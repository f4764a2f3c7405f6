package endpoints

import (
	"encoding/json"
	"net/http"
	"strings"

	"github.com/gorilla/mux"
	"gorm.io/datatypes"

	"github.com/confportal/conf-portal-api/pkg/errs"
	"github.com/confportal/conf-portal-api/pkg/model"
	"github.com/confportal/conf-portal-api/pkg/server"
	"github.com/confportal/conf-portal-api/pkg/server/store"
	"github.com/confportal/conf-portal-api/pkg/token"
)

type registerDeviceRequest struct {
	FcmToken       string          `json:"fcm_token" validate:"required"`
	AdditionalData json.RawMessage `json:"additional_data"`
}

type readAllResponse struct {
	Updated int64 `json:"updated"`
}

type deviceHandlers struct {
	rs            responder
	devices       store.DevicesStore
	notifications store.NotificationStore
}

// RegisterDeviceEndpoints registers /fcm_device and the app /notification
// routes
func RegisterDeviceEndpoints(s *server.Server) {
	h := &deviceHandlers{
		rs:            newResponder(s),
		devices:       s.DevicesStore,
		notifications: s.NotificationStore,
	}

	s.API.HandleFunc("/fcm_device/register/{device_id}", h.register).Methods("POST")

	n := s.API.PathPrefix("/notification").Subrouter()
	n.Use(s.Auth.Require(token.KindApp))
	n.HandleFunc("", h.history).Methods("GET")
	n.HandleFunc("/history/"+idPattern+"/read", h.markRead).Methods("PATCH")
	n.HandleFunc("/read_all", h.readAll).Methods("POST")
}

func (h *deviceHandlers) register(w http.ResponseWriter, r *http.Request) {
	key := strings.TrimSpace(mux.Vars(r)["device_id"])
	if key == "" {
		h.rs.error(w, r, errs.NewBadRequestError("Invalid device_id", false, nil, nil, nil))
		return
	}
	var req registerDeviceRequest
	if err := decodeJSON(r, &req); err != nil {
		h.rs.error(w, r, err)
		return
	}
	device := &model.FcmDevice{
		DeviceKey: key,
		Token:     req.FcmToken,
	}
	if len(req.AdditionalData) > 0 && string(req.AdditionalData) != "null" {
		device.AdditionalData = datatypes.JSON(req.AdditionalData)
	}
	if err := h.devices.Register(r.Context(), device); err != nil {
		h.rs.error(w, r, err)
		return
	}
	respondWithJSON(w, http.StatusCreated, idResponse{ID: device.ID})
}

func (h *deviceHandlers) history(w http.ResponseWriter, r *http.Request) {
	id, err := caller(r)
	if err != nil {
		h.rs.error(w, r, err)
		return
	}
	items, err := h.notifications.UserHistory(r.Context(), id.UserID)
	if err != nil {
		h.rs.error(w, r, err)
		return
	}
	if items == nil {
		items = []store.UserNotification{}
	}
	respondWithJSON(w, http.StatusOK, items)
}

func (h *deviceHandlers) markRead(w http.ResponseWriter, r *http.Request) {
	id, err := caller(r)
	if err != nil {
		h.rs.error(w, r, err)
		return
	}
	historyID, err := pathUUID(r, "id")
	if err != nil {
		h.rs.error(w, r, err)
		return
	}
	if err := h.notifications.MarkRead(r.Context(), id.UserID, historyID); err != nil {
		h.rs.error(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *deviceHandlers) readAll(w http.ResponseWriter, r *http.Request) {
	id, err := caller(r)
	if err != nil {
		h.rs.error(w, r, err)
		return
	}
	n, err := h.notifications.MarkAllRead(r.Context(), id.UserID)
	if err != nil {
		h.rs.error(w, r, err)
		return
	}
	respondWithJSON(w, http.StatusOK, readAllResponse{Updated: n})
}
