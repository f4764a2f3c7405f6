package store

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/confportal/conf-portal-api/pkg/model"
)

// ConferenceStore abstracts conference operations
type ConferenceStore interface {
	CRUDStore[model.Conference]

	// Active returns the newest active conference.
	// Returns ErrNotFound when none is active.
	Active(ctx context.Context) (*model.Conference, error)

	Instructors(ctx context.Context, conferenceID uuid.UUID) ([]model.ConferenceInstructor, error)

	// SetInstructors replaces the instructor list of a conference.
	SetInstructors(ctx context.Context, conferenceID uuid.UUID, instructors []model.ConferenceInstructor) error
}

type EventScheduleStore interface {
	CRUDStore[model.EventSchedule]

	// ByConference orders by sequence, then start time.
	ByConference(ctx context.Context, conferenceID uuid.UUID) ([]model.EventSchedule, error)
}

type WorkshopStore interface {
	CRUDStore[model.Workshop]

	SetSequence(ctx context.Context, id uuid.UUID, sequence float64) error

	Instructors(ctx context.Context, workshopID uuid.UUID) ([]model.WorkshopInstructor, error)

	SetInstructors(ctx context.Context, workshopID uuid.UUID, instructors []model.WorkshopInstructor) error
}

type RegistrationStore interface {
	CRUDStore[model.WorkshopRegistration]

	// Unregister stamps unregistered_at on an active registration.
	Unregister(ctx context.Context, id uuid.UUID, at time.Time) error
}

type FaqStore interface {
	CRUDStore[model.Faq]

	ByCategory(ctx context.Context, categoryID uuid.UUID) ([]model.Faq, error)
}

type FaqCategoryStore interface {
	CRUDStore[model.FaqCategory]
}
