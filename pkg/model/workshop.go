package model

import (
	"time"

	"github.com/google/uuid"
)

// Workshop is a session held during a conference.
type Workshop struct {
	Base
	Sortable
	Title             string     `gorm:"column:title;not null" json:"title"`
	StartDatetime     time.Time  `gorm:"column:start_datetime;not null" json:"start_datetime"`
	EndDatetime       time.Time  `gorm:"column:end_datetime;not null" json:"end_datetime"`
	Timezone          string     `gorm:"column:timezone;not null" json:"timezone"`
	ConferenceID      uuid.UUID  `gorm:"column:conference_id;type:uuid;not null" json:"conference_id"`
	LocationID        *uuid.UUID `gorm:"column:location_id;type:uuid" json:"location_id,omitempty"`
	ParticipantsLimit *int       `gorm:"column:participants_limit" json:"participants_limit,omitempty"`
	SlidoURL          *string    `gorm:"column:slido_url" json:"slido_url,omitempty"`

	Location *Location `gorm:"foreignKey:LocationID" json:"location,omitempty"`
}

func (Workshop) TableName() string {
	return "portal_workshop"
}

// WorkshopInstructor links an instructor to a workshop.
type WorkshopInstructor struct {
	WorkshopID   uuid.UUID `gorm:"column:workshop_id;type:uuid;primaryKey" json:"workshop_id"`
	InstructorID uuid.UUID `gorm:"column:instructor_id;type:uuid;primaryKey" json:"instructor_id"`
	IsPrimary    bool      `gorm:"column:is_primary;not null" json:"is_primary"`
	Sequence     float64   `gorm:"column:sequence;not null" json:"sequence"`

	Instructor *Instructor `gorm:"foreignKey:InstructorID" json:"instructor,omitempty"`
}

func (WorkshopInstructor) TableName() string {
	return "portal_workshop_instructor"
}

// WorkshopRegistration records a user signing up for a workshop.
type WorkshopRegistration struct {
	Base
	WorkshopID     uuid.UUID  `gorm:"column:workshop_id;type:uuid;not null" json:"workshop_id"`
	UserID         uuid.UUID  `gorm:"column:user_id;type:uuid;not null" json:"user_id"`
	RegisteredAt   time.Time  `gorm:"column:registered_at;not null" json:"registered_at"`
	UnregisteredAt *time.Time `gorm:"column:unregistered_at" json:"unregistered_at,omitempty"`
}

func (WorkshopRegistration) TableName() string {
	return "portal_workshop_registration"
}
