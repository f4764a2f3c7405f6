package endpoints

import (
	"net/http"
	"strings"

	"github.com/confportal/conf-portal-api/pkg/model"
	"github.com/confportal/conf-portal-api/pkg/server"
	"github.com/confportal/conf-portal-api/pkg/server/store"
)

// ConferenceDetail is a conference with its location and instructors.
type ConferenceDetail struct {
	model.Conference
	Instructors []model.ConferenceInstructor `json:"instructors"`
}

type feedbackRequest struct {
	Name    string `json:"name" validate:"required,max=128"`
	Email   string `json:"email" validate:"omitempty,email"`
	Message string `json:"message" validate:"required"`
}

type testimonyRequest struct {
	Name        string `json:"name" validate:"required,max=128"`
	PhoneNumber string `json:"phone_number" validate:"omitempty,e164"`
	Share       bool   `json:"share"`
	Message     string `json:"message" validate:"required"`
}

type publicHandlers struct {
	rs          responder
	conferences store.ConferenceStore
	schedules   store.EventScheduleStore
	faqs        store.FaqStore
	categories  store.FaqCategoryStore
	feedback    store.CRUDStore[model.Feedback]
	testimonies store.CRUDStore[model.Testimony]
}

// RegisterPublicEndpoints registers the unauthenticated app content routes
func RegisterPublicEndpoints(s *server.Server) {
	h := &publicHandlers{
		rs:          newResponder(s),
		conferences: s.ConferenceStore,
		schedules:   s.EventScheduleStore,
		faqs:        s.FaqStore,
		categories:  s.FaqCategoryStore,
		feedback:    s.FeedbackStore,
		testimonies: s.TestimonyStore,
	}

	conf := s.API.PathPrefix("/conference").Subrouter()
	conf.HandleFunc("/list", h.listConferences).Methods("GET")
	conf.HandleFunc("/active", h.activeConference).Methods("GET")
	conf.HandleFunc("/"+idPattern, h.getConference).Methods("GET")

	s.API.HandleFunc("/event_info/{conference_id}/schedule", h.schedule).Methods("GET")

	faq := s.API.PathPrefix("/faq").Subrouter()
	faq.HandleFunc("/categories", h.listCategories).Methods("GET")
	faq.HandleFunc("/category/"+idPattern, h.getCategory).Methods("GET")
	faq.HandleFunc("/category/"+idPattern+"/list", h.categoryFaqs).Methods("GET")
	faq.HandleFunc("/"+idPattern, h.getFaq).Methods("GET")

	s.API.HandleFunc("/feedback", h.submitFeedback).Methods("POST")
	s.API.HandleFunc("/testimony", h.submitTestimony).Methods("POST")
}

func (h *publicHandlers) listConferences(w http.ResponseWriter, r *http.Request) {
	items, err := h.conferences.List(r.Context(), false)
	if err != nil {
		h.rs.error(w, r, err)
		return
	}
	if items == nil {
		items = []model.Conference{}
	}
	respondWithJSON(w, http.StatusOK, items)
}

func (h *publicHandlers) detail(w http.ResponseWriter, r *http.Request, c *model.Conference) {
	instructors, err := h.conferences.Instructors(r.Context(), c.ID)
	if err != nil {
		h.rs.error(w, r, err)
		return
	}
	if instructors == nil {
		instructors = []model.ConferenceInstructor{}
	}
	respondWithJSON(w, http.StatusOK, ConferenceDetail{Conference: *c, Instructors: instructors})
}

func (h *publicHandlers) activeConference(w http.ResponseWriter, r *http.Request) {
	c, err := h.conferences.Active(r.Context())
	if err != nil {
		h.rs.error(w, r, err)
		return
	}
	h.detail(w, r, c)
}

func (h *publicHandlers) getConference(w http.ResponseWriter, r *http.Request) {
	id, err := pathUUID(r, "id")
	if err != nil {
		h.rs.error(w, r, err)
		return
	}
	c, err := h.conferences.Get(r.Context(), id)
	if err != nil {
		h.rs.error(w, r, err)
		return
	}
	h.detail(w, r, c)
}

func (h *publicHandlers) schedule(w http.ResponseWriter, r *http.Request) {
	id, err := pathUUID(r, "conference_id")
	if err != nil {
		h.rs.error(w, r, err)
		return
	}
	items, err := h.schedules.ByConference(r.Context(), id)
	if err != nil {
		h.rs.error(w, r, err)
		return
	}
	if items == nil {
		items = []model.EventSchedule{}
	}
	respondWithJSON(w, http.StatusOK, items)
}

func (h *publicHandlers) listCategories(w http.ResponseWriter, r *http.Request) {
	items, err := h.categories.List(r.Context(), false)
	if err != nil {
		h.rs.error(w, r, err)
		return
	}
	if items == nil {
		items = []model.FaqCategory{}
	}
	respondWithJSON(w, http.StatusOK, items)
}

func (h *publicHandlers) getCategory(w http.ResponseWriter, r *http.Request) {
	id, err := pathUUID(r, "id")
	if err != nil {
		h.rs.error(w, r, err)
		return
	}
	c, err := h.categories.Get(r.Context(), id)
	if err != nil {
		h.rs.error(w, r, err)
		return
	}
	respondWithJSON(w, http.StatusOK, c)
}

func (h *publicHandlers) categoryFaqs(w http.ResponseWriter, r *http.Request) {
	id, err := pathUUID(r, "id")
	if err != nil {
		h.rs.error(w, r, err)
		return
	}
	if _, err := h.categories.Get(r.Context(), id); err != nil {
		h.rs.error(w, r, err)
		return
	}
	items, err := h.faqs.ByCategory(r.Context(), id)
	if err != nil {
		h.rs.error(w, r, err)
		return
	}
	if items == nil {
		items = []model.Faq{}
	}
	respondWithJSON(w, http.StatusOK, items)
}

func (h *publicHandlers) getFaq(w http.ResponseWriter, r *http.Request) {
	id, err := pathUUID(r, "id")
	if err != nil {
		h.rs.error(w, r, err)
		return
	}
	f, err := h.faqs.Get(r.Context(), id)
	if err != nil {
		h.rs.error(w, r, err)
		return
	}
	respondWithJSON(w, http.StatusOK, f)
}

func (h *publicHandlers) submitFeedback(w http.ResponseWriter, r *http.Request) {
	var req feedbackRequest
	if err := decodeJSON(r, &req); err != nil {
		h.rs.error(w, r, err)
		return
	}
	f := &model.Feedback{
		Name:    strings.TrimSpace(req.Name),
		Email:   optional(req.Email),
		Message: req.Message,
		Status:  model.FeedbackStatusPending,
	}
	if err := h.feedback.Create(r.Context(), f); err != nil {
		h.rs.error(w, r, err)
		return
	}
	respondWithJSON(w, http.StatusCreated, idResponse{ID: f.ID})
}

func (h *publicHandlers) submitTestimony(w http.ResponseWriter, r *http.Request) {
	var req testimonyRequest
	if err := decodeJSON(r, &req); err != nil {
		h.rs.error(w, r, err)
		return
	}
	t := &model.Testimony{
		Name:        strings.TrimSpace(req.Name),
		PhoneNumber: optional(req.PhoneNumber),
		Share:       req.Share,
		Message:     req.Message,
	}
	if err := h.testimonies.Create(r.Context(), t); err != nil {
		h.rs.error(w, r, err)
		return
	}
	respondWithJSON(w, http.StatusCreated, idResponse{ID: t.ID})
}
