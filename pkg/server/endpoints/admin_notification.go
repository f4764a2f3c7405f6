package endpoints

import (
	"net/http"
	"strings"

	"github.com/google/uuid"
	"github.com/gorilla/mux"

	"github.com/confportal/conf-portal-api/pkg/audit"
	"github.com/confportal/conf-portal-api/pkg/errs"
	"github.com/confportal/conf-portal-api/pkg/jobs"
	"github.com/confportal/conf-portal-api/pkg/model"
	"github.com/confportal/conf-portal-api/pkg/rbac"
	"github.com/confportal/conf-portal-api/pkg/server"
	"github.com/confportal/conf-portal-api/pkg/server/store"
)

type notificationRequest struct {
	Title   string                   `json:"title" validate:"required,max=256"`
	Message string                   `json:"message" validate:"required"`
	URL     *string                  `json:"url" validate:"omitempty,url"`
	Method  model.NotificationMethod `json:"method" validate:"min=0,max=1"`
	Type    model.NotificationType   `json:"type" validate:"min=0,max=2"`
	DryRun  bool                     `json:"dry_run"`
	UserIDs []uuid.UUID              `json:"user_ids"`
}

// targets checks user_ids against the notification type.
func (q notificationRequest) targets() error {
	field := func(msg string) error {
		return errs.NewBadRequestError("Validation failed", true, nil,
			[]errs.FieldError{{Field: "user_ids", Error: msg}}, nil)
	}
	switch q.Type {
	case model.NotificationTypeIndividual:
		if len(q.UserIDs) != 1 {
			return field("must contain exactly one user")
		}
	case model.NotificationTypeMultiple:
		if len(q.UserIDs) == 0 {
			return field("is required")
		}
	}
	return nil
}

type notificationHandlers struct {
	rs            responder
	notifications store.NotificationStore
	queue         server.Queue
	audit         *audit.Recorder
}

// RegisterNotificationEndpoints registers /admin/notification
func RegisterNotificationEndpoints(s *server.Server, admin *mux.Router) {
	h := &notificationHandlers{
		rs:            newResponder(s),
		notifications: s.NotificationStore,
		queue:         s.Queue,
		audit:         s.Audit,
	}
	p := s.Perms

	n := admin.PathPrefix("/notification").Subrouter()
	n.Handle("/pages", guard(p, rbac.Read(rbac.CommsNotification), h.pages)).Methods("GET")
	n.Handle("/history/pages", guard(p, rbac.Read(rbac.CommsNotification), h.historyPages)).Methods("GET")
	n.Handle("", guard(p, rbac.Create(rbac.CommsNotification), h.create)).Methods("POST")
}

func (h *notificationHandlers) pages(w http.ResponseWriter, r *http.Request) {
	q, err := pageQuery(r)
	if err != nil {
		h.rs.error(w, r, err)
		return
	}
	for _, f := range []string{"status", "method", "type"} {
		if q, err = withIntFilter(q, r, f, f); err != nil {
			h.rs.error(w, r, err)
			return
		}
	}
	page, err := h.notifications.Pages(r.Context(), q)
	if err != nil {
		h.rs.error(w, r, err)
		return
	}
	respondWithJSON(w, http.StatusOK, page)
}

func (h *notificationHandlers) historyPages(w http.ResponseWriter, r *http.Request) {
	q, err := pageQuery(r)
	if err != nil {
		h.rs.error(w, r, err)
		return
	}
	for _, f := range []string{"notification_id", "device_id"} {
		if q, err = withFilter(q, r, f, f); err != nil {
			h.rs.error(w, r, err)
			return
		}
	}
	if q, err = withIntFilter(q, r, "status", "status"); err != nil {
		h.rs.error(w, r, err)
		return
	}
	if v := r.URL.Query().Get("is_read"); v != "" {
		if q.Filters == nil {
			q.Filters = map[string]any{}
		}
		q.Filters["is_read"] = queryBool(r, "is_read")
	}
	page, err := h.notifications.HistoryPages(r.Context(), q)
	if err != nil {
		h.rs.error(w, r, err)
		return
	}
	respondWithJSON(w, http.StatusOK, page)
}

func (h *notificationHandlers) create(w http.ResponseWriter, r *http.Request) {
	var req notificationRequest
	if err := decodeJSON(r, &req); err != nil {
		h.rs.error(w, r, err)
		return
	}
	if err := req.targets(); err != nil {
		h.rs.error(w, r, err)
		return
	}
	if h.queue == nil {
		h.rs.error(w, r, errs.NewServiceUnavailableError("Notification queue is not configured"))
		return
	}

	n := &model.Notification{
		Title:   strings.TrimSpace(req.Title),
		Message: req.Message,
		URL:     req.URL,
		Method:  req.Method,
		Type:    req.Type,
		Status:  model.NotificationStatusPending,
	}
	if err := h.notifications.Create(r.Context(), n); err != nil {
		h.rs.error(w, r, err)
		return
	}
	h.audit.Record(r.Context(), actor(r), audit.Created(rbac.CommsNotification, n.ID, n))

	payload := jobs.NotificationPayload{NotificationID: n.ID, DryRun: req.DryRun}
	if req.Type != model.NotificationTypeSystem {
		payload.UserIDs = req.UserIDs
	}
	if err := h.queue.EnqueueNotification(r.Context(), payload); err != nil {
		h.rs.error(w, r, err)
		return
	}
	respondWithJSON(w, http.StatusCreated, idResponse{ID: n.ID})
}
