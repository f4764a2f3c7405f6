package endpoints

import (
	"encoding/json"
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/mux"

	"github.com/confportal/conf-portal-api/pkg/audit"
	"github.com/confportal/conf-portal-api/pkg/model"
	"github.com/confportal/conf-portal-api/pkg/rbac"
	"github.com/confportal/conf-portal-api/pkg/server"
	"github.com/confportal/conf-portal-api/pkg/server/store"
)

// Date accepts "2006-01-02" as well as RFC 3339 timestamps.
type Date struct {
	time.Time
}

func (d *Date) UnmarshalJSON(b []byte) error {
	var s string
	if err := json.Unmarshal(b, &s); err != nil {
		return err
	}
	if s == "" {
		d.Time = time.Time{}
		return nil
	}
	if t, err := time.Parse(time.DateOnly, s); err == nil {
		d.Time = t
		return nil
	}
	t, err := time.Parse(time.RFC3339, s)
	if err != nil {
		return err
	}
	d.Time = t
	return nil
}

type conferenceRequest struct {
	Title       string     `json:"title" validate:"required,max=256"`
	StartDate   Date       `json:"start_date" validate:"required"`
	EndDate     Date       `json:"end_date" validate:"required"`
	Active      bool       `json:"active"`
	LocationID  *uuid.UUID `json:"location_id"`
	Description *string    `json:"description"`
	Remark      *string    `json:"remark"`
}

func (q conferenceRequest) Model() *model.Conference {
	c := &model.Conference{}
	q.Apply(c)
	return c
}

func (q conferenceRequest) Apply(c *model.Conference) {
	c.Title = strings.TrimSpace(q.Title)
	c.StartDate = q.StartDate.Time
	c.EndDate = q.EndDate.Time
	c.Active = q.Active
	c.LocationID = q.LocationID
	c.Description = q.Description
	c.Remark = q.Remark
	c.Location = nil
}

type eventScheduleRequest struct {
	ConferenceID    uuid.UUID `json:"conference_id" validate:"required"`
	Title           string    `json:"title" validate:"required,max=256"`
	StartDatetime   time.Time `json:"start_datetime" validate:"required"`
	EndDatetime     time.Time `json:"end_datetime" validate:"required,gtfield=StartDatetime"`
	TextColor       *string   `json:"text_color" validate:"omitempty,hexcolor"`
	BackgroundColor *string   `json:"background_color" validate:"omitempty,hexcolor"`
	Sequence        float64   `json:"sequence"`
	Description     *string   `json:"description"`
}

func (q eventScheduleRequest) Model() *model.EventSchedule {
	e := &model.EventSchedule{}
	q.Apply(e)
	return e
}

func (q eventScheduleRequest) Apply(e *model.EventSchedule) {
	e.ConferenceID = q.ConferenceID
	e.Title = strings.TrimSpace(q.Title)
	e.StartDatetime = q.StartDatetime
	e.EndDatetime = q.EndDatetime
	e.TextColor = q.TextColor
	e.BackgroundColor = q.BackgroundColor
	e.Sequence = q.Sequence
	e.Description = q.Description
}

type instructorRequest struct {
	Name        string  `json:"name" validate:"required,max=128"`
	Title       *string `json:"title"`
	Bio         *string `json:"bio"`
	Sequence    float64 `json:"sequence"`
	Description *string `json:"description"`
}

func (q instructorRequest) Model() *model.Instructor {
	i := &model.Instructor{}
	q.Apply(i)
	return i
}

func (q instructorRequest) Apply(i *model.Instructor) {
	i.Name = strings.TrimSpace(q.Name)
	i.Title = q.Title
	i.Bio = q.Bio
	i.Sequence = q.Sequence
	i.Description = q.Description
}

type locationRequest struct {
	Name        string   `json:"name" validate:"required,max=128"`
	Address     *string  `json:"address"`
	Floor       *string  `json:"floor"`
	RoomNumber  *string  `json:"room_number"`
	Latitude    *float64 `json:"latitude" validate:"omitempty,latitude"`
	Longitude   *float64 `json:"longitude" validate:"omitempty,longitude"`
	Description *string  `json:"description"`
}

func (q locationRequest) Model() *model.Location {
	l := &model.Location{}
	q.Apply(l)
	return l
}

func (q locationRequest) Apply(l *model.Location) {
	l.Name = strings.TrimSpace(q.Name)
	l.Address = q.Address
	l.Floor = q.Floor
	l.RoomNumber = q.RoomNumber
	l.Latitude = q.Latitude
	l.Longitude = q.Longitude
	l.Description = q.Description
}

type faqRequest struct {
	CategoryID  uuid.UUID `json:"category_id" validate:"required"`
	Question    string    `json:"question" validate:"required"`
	Answer      string    `json:"answer" validate:"required"`
	RelatedLink *string   `json:"related_link" validate:"omitempty,url"`
	Sequence    float64   `json:"sequence"`
}

func (q faqRequest) Model() *model.Faq {
	f := &model.Faq{}
	q.Apply(f)
	return f
}

func (q faqRequest) Apply(f *model.Faq) {
	f.CategoryID = q.CategoryID
	f.Question = q.Question
	f.Answer = q.Answer
	f.RelatedLink = q.RelatedLink
	f.Sequence = q.Sequence
}

type faqCategoryRequest struct {
	Name        string  `json:"name" validate:"required,max=128"`
	Sequence    float64 `json:"sequence"`
	Description *string `json:"description"`
}

func (q faqCategoryRequest) Model() *model.FaqCategory {
	c := &model.FaqCategory{}
	q.Apply(c)
	return c
}

func (q faqCategoryRequest) Apply(c *model.FaqCategory) {
	c.Name = strings.TrimSpace(q.Name)
	c.Sequence = q.Sequence
	c.Description = q.Description
}

// feedbackUpdateRequest only changes the triage state.
type feedbackUpdateRequest struct {
	Status model.FeedbackStatus `json:"status" validate:"min=0,max=6"`
	Remark *string              `json:"remark"`
}

func (q feedbackUpdateRequest) Model() *model.Feedback { return &model.Feedback{} }

func (q feedbackUpdateRequest) Apply(f *model.Feedback) {
	f.Status = q.Status
	if q.Remark != nil {
		f.Remark = q.Remark
	}
}

type workshopRequest struct {
	Title             string     `json:"title" validate:"required,max=256"`
	StartDatetime     time.Time  `json:"start_datetime" validate:"required"`
	EndDatetime       time.Time  `json:"end_datetime" validate:"required,gtfield=StartDatetime"`
	Timezone          string     `json:"timezone" validate:"required,timezone"`
	ConferenceID      uuid.UUID  `json:"conference_id" validate:"required"`
	LocationID        *uuid.UUID `json:"location_id"`
	ParticipantsLimit *int       `json:"participants_limit" validate:"omitempty,min=1"`
	SlidoURL          *string    `json:"slido_url" validate:"omitempty,url"`
	Sequence          float64    `json:"sequence"`
	Description       *string    `json:"description"`
}

func (q workshopRequest) Model() *model.Workshop {
	ws := &model.Workshop{}
	q.Apply(ws)
	return ws
}

func (q workshopRequest) Apply(ws *model.Workshop) {
	ws.Title = strings.TrimSpace(q.Title)
	ws.StartDatetime = q.StartDatetime
	ws.EndDatetime = q.EndDatetime
	ws.Timezone = q.Timezone
	ws.ConferenceID = q.ConferenceID
	ws.LocationID = q.LocationID
	ws.ParticipantsLimit = q.ParticipantsLimit
	ws.SlidoURL = q.SlidoURL
	ws.Sequence = q.Sequence
	ws.Description = q.Description
	ws.Location = nil
}

type registrationRequest struct {
	WorkshopID uuid.UUID `json:"workshop_id" validate:"required"`
	UserID     uuid.UUID `json:"user_id" validate:"required"`
}

func (q registrationRequest) Model() *model.WorkshopRegistration {
	return &model.WorkshopRegistration{
		WorkshopID:   q.WorkshopID,
		UserID:       q.UserID,
		RegisteredAt: time.Now().UTC(),
	}
}

func (q registrationRequest) Apply(reg *model.WorkshopRegistration) {
	reg.WorkshopID = q.WorkshopID
	reg.UserID = q.UserID
}

type sequenceRequest struct {
	Sequence float64 `json:"sequence"`
}

type instructorAssignment struct {
	InstructorID uuid.UUID `json:"instructor_id" validate:"required"`
	IsPrimary    bool      `json:"is_primary"`
	Sequence     float64   `json:"sequence"`
}

type instructorsRequest struct {
	Instructors []instructorAssignment `json:"instructors" validate:"dive"`
}

type contentHandlers struct {
	rs            responder
	conferences   store.ConferenceStore
	schedules     store.EventScheduleStore
	workshops     store.WorkshopStore
	registrations store.RegistrationStore
	audit         *audit.Recorder
	now           func() time.Time
}

// RegisterContentEndpoints registers the admin conference, workshop and
// support content routes
func RegisterContentEndpoints(s *server.Server, admin *mux.Router) {
	rs := newResponder(s)
	h := &contentHandlers{
		rs:            rs,
		conferences:   s.ConferenceStore,
		schedules:     s.EventScheduleStore,
		workshops:     s.WorkshopStore,
		registrations: s.RegistrationStore,
		audit:         s.Audit,
		now:           func() time.Time { return time.Now().UTC() },
	}
	p := s.Perms

	conf := admin.PathPrefix("/conference").Subrouter()
	conf.Handle("/active", guard(p, rbac.Read(rbac.ConferenceConferences), h.activeConference)).Methods("GET")
	conf.Handle("/instructors/"+idPattern, guard(p, rbac.Read(rbac.ConferenceConferences), h.conferenceInstructors)).Methods("GET")
	conf.Handle("/instructors/"+idPattern, guard(p, rbac.Modify(rbac.ConferenceConferences), h.setConferenceInstructors)).Methods("PUT")
	(&crud[model.Conference, conferenceRequest]{code: rbac.ConferenceConferences, store: s.ConferenceStore, audit: s.Audit, rs: rs}).routes(conf, p)

	event := admin.PathPrefix("/event_info").Subrouter()
	event.Handle("/{conference_id:[0-9a-fA-F-]{36}}/list", guard(p, rbac.Read(rbac.ConferenceEventSchedule), h.conferenceSchedule)).Methods("GET")
	(&crud[model.EventSchedule, eventScheduleRequest]{
		code:    rbac.ConferenceEventSchedule,
		store:   s.EventScheduleStore,
		audit:   s.Audit,
		rs:      rs,
		filters: map[string]string{"conference_id": "conference_id"},
	}).routes(event, p)

	(&crud[model.Instructor, instructorRequest]{code: rbac.ContentInstructor, store: s.InstructorsStore, audit: s.Audit, rs: rs}).
		routes(admin.PathPrefix("/instructor").Subrouter(), p)
	(&crud[model.Location, locationRequest]{code: rbac.ContentLocation, store: s.LocationsStore, audit: s.Audit, rs: rs}).
		routes(admin.PathPrefix("/location").Subrouter(), p)

	// /faq/category must be registered before the /faq routes.
	(&crud[model.FaqCategory, faqCategoryRequest]{code: rbac.SupportFaq, store: s.FaqCategoryStore, audit: s.Audit, rs: rs}).
		routes(admin.PathPrefix("/faq/category").Subrouter(), p)
	(&crud[model.Faq, faqRequest]{
		code:    rbac.SupportFaq,
		store:   s.FaqStore,
		audit:   s.Audit,
		rs:      rs,
		filters: map[string]string{"category_id": "category_id"},
	}).routes(admin.PathPrefix("/faq").Subrouter(), p)

	(&crud[model.Feedback, feedbackUpdateRequest]{code: rbac.SupportFeedback, store: s.FeedbackStore, audit: s.Audit, rs: rs}).
		routes(admin.PathPrefix("/feedback").Subrouter(), p, opPages, opGet, opUpdate)
	(&crud[model.Testimony, noWrite[model.Testimony]]{code: rbac.ContentTestimony, store: s.TestimonyStore, audit: s.Audit, rs: rs}).
		routes(admin.PathPrefix("/testimony").Subrouter(), p, opPages, opGet)

	ws := admin.PathPrefix("/workshop").Subrouter()
	ws.Handle("/"+idPattern+"/sequence", guard(p, rbac.Modify(rbac.WorkshopWorkshops), h.workshopSequence)).Methods("PUT")
	ws.Handle("/instructors/"+idPattern, guard(p, rbac.Read(rbac.WorkshopWorkshops), h.workshopInstructors)).Methods("GET")
	ws.Handle("/instructors/"+idPattern, guard(p, rbac.Modify(rbac.WorkshopWorkshops), h.setWorkshopInstructors)).Methods("PUT")
	(&crud[model.Workshop, workshopRequest]{
		code:    rbac.WorkshopWorkshops,
		store:   s.WorkshopStore,
		audit:   s.Audit,
		rs:      rs,
		filters: map[string]string{"conference_id": "conference_id"},
	}).routes(ws, p)

	reg := admin.PathPrefix("/workshop_registration").Subrouter()
	reg.Handle("/"+idPattern+"/unregister", guard(p, rbac.Modify(rbac.WorkshopRegistration), h.unregister)).Methods("POST")
	(&crud[model.WorkshopRegistration, registrationRequest]{
		code:    rbac.WorkshopRegistration,
		store:   s.RegistrationStore,
		audit:   s.Audit,
		rs:      rs,
		filters: map[string]string{"workshop_id": "workshop_id", "user_id": "user_id"},
	}).routes(reg, p, opPages, opGet, opCreate, opDelete)
}

func (h *contentHandlers) activeConference(w http.ResponseWriter, r *http.Request) {
	c, err := h.conferences.Active(r.Context())
	if err != nil {
		h.rs.error(w, r, err)
		return
	}
	respondWithJSON(w, http.StatusOK, c)
}

func (h *contentHandlers) conferenceInstructors(w http.ResponseWriter, r *http.Request) {
	id, err := pathUUID(r, "id")
	if err != nil {
		h.rs.error(w, r, err)
		return
	}
	items, err := h.conferences.Instructors(r.Context(), id)
	if err != nil {
		h.rs.error(w, r, err)
		return
	}
	if items == nil {
		items = []model.ConferenceInstructor{}
	}
	respondWithJSON(w, http.StatusOK, items)
}

func (h *contentHandlers) setConferenceInstructors(w http.ResponseWriter, r *http.Request) {
	id, err := pathUUID(r, "id")
	if err != nil {
		h.rs.error(w, r, err)
		return
	}
	var req instructorsRequest
	if err := decodeJSON(r, &req); err != nil {
		h.rs.error(w, r, err)
		return
	}
	if _, err := h.conferences.Get(r.Context(), id); err != nil {
		h.rs.error(w, r, err)
		return
	}
	links := make([]model.ConferenceInstructor, 0, len(req.Instructors))
	for _, a := range req.Instructors {
		links = append(links, model.ConferenceInstructor{
			ConferenceID: id,
			InstructorID: a.InstructorID,
			IsPrimary:    a.IsPrimary,
			Sequence:     a.Sequence,
		})
	}
	if err := h.conferences.SetInstructors(r.Context(), id, links); err != nil {
		h.rs.error(w, r, err)
		return
	}
	h.audit.Record(r.Context(), actor(r), audit.Updated(rbac.ConferenceConferences, id, nil, map[string]any{"instructors": req.Instructors}))
	w.WriteHeader(http.StatusNoContent)
}

func (h *contentHandlers) conferenceSchedule(w http.ResponseWriter, r *http.Request) {
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

func (h *contentHandlers) workshopSequence(w http.ResponseWriter, r *http.Request) {
	id, err := pathUUID(r, "id")
	if err != nil {
		h.rs.error(w, r, err)
		return
	}
	var req sequenceRequest
	if err := decodeJSON(r, &req); err != nil {
		h.rs.error(w, r, err)
		return
	}
	if err := h.workshops.SetSequence(r.Context(), id, req.Sequence); err != nil {
		h.rs.error(w, r, err)
		return
	}
	h.audit.Record(r.Context(), actor(r), audit.Updated(rbac.WorkshopWorkshops, id, nil, map[string]any{"sequence": req.Sequence}))
	w.WriteHeader(http.StatusNoContent)
}

func (h *contentHandlers) workshopInstructors(w http.ResponseWriter, r *http.Request) {
	id, err := pathUUID(r, "id")
	if err != nil {
		h.rs.error(w, r, err)
		return
	}
	items, err := h.workshops.Instructors(r.Context(), id)
	if err != nil {
		h.rs.error(w, r, err)
		return
	}
	if items == nil {
		items = []model.WorkshopInstructor{}
	}
	respondWithJSON(w, http.StatusOK, items)
}

func (h *contentHandlers) setWorkshopInstructors(w http.ResponseWriter, r *http.Request) {
	id, err := pathUUID(r, "id")
	if err != nil {
		h.rs.error(w, r, err)
		return
	}
	var req instructorsRequest
	if err := decodeJSON(r, &req); err != nil {
		h.rs.error(w, r, err)
		return
	}
	if _, err := h.workshops.Get(r.Context(), id); err != nil {
		h.rs.error(w, r, err)
		return
	}
	links := make([]model.WorkshopInstructor, 0, len(req.Instructors))
	for _, a := range req.Instructors {
		links = append(links, model.WorkshopInstructor{
			WorkshopID:   id,
			InstructorID: a.InstructorID,
			IsPrimary:    a.IsPrimary,
			Sequence:     a.Sequence,
		})
	}
	if err := h.workshops.SetInstructors(r.Context(), id, links); err != nil {
		h.rs.error(w, r, err)
		return
	}
	h.audit.Record(r.Context(), actor(r), audit.Updated(rbac.WorkshopWorkshops, id, nil, map[string]any{"instructors": req.Instructors}))
	w.WriteHeader(http.StatusNoContent)
}

func (h *contentHandlers) unregister(w http.ResponseWriter, r *http.Request) {
	id, err := pathUUID(r, "id")
	if err != nil {
		h.rs.error(w, r, err)
		return
	}
	at := h.now()
	if err := h.registrations.Unregister(r.Context(), id, at); err != nil {
		h.rs.error(w, r, err)
		return
	}
	h.audit.Record(r.Context(), actor(r), audit.Updated(rbac.WorkshopRegistration, id, nil, map[string]any{"unregistered_at": at}))
	w.WriteHeader(http.StatusNoContent)
}
