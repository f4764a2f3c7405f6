package model

import (
	"time"

	"github.com/google/uuid"
)

// Conference is a single conference edition.
type Conference struct {
	Base
	Title      string     `gorm:"column:title;not null" json:"title"`
	StartDate  time.Time  `gorm:"column:start_date;type:date;not null" json:"start_date"`
	EndDate    time.Time  `gorm:"column:end_date;type:date;not null" json:"end_date"`
	Active     bool       `gorm:"column:active;not null" json:"active"`
	LocationID *uuid.UUID `gorm:"column:location_id;type:uuid" json:"location_id,omitempty"`

	Location *Location `gorm:"foreignKey:LocationID" json:"location,omitempty"`
}

func (Conference) TableName() string {
	return "portal_conference"
}

// ConferenceInstructor links an instructor to a conference.
type ConferenceInstructor struct {
	ConferenceID uuid.UUID `gorm:"column:conference_id;type:uuid;primaryKey" json:"conference_id"`
	InstructorID uuid.UUID `gorm:"column:instructor_id;type:uuid;primaryKey" json:"instructor_id"`
	IsPrimary    bool      `gorm:"column:is_primary;not null" json:"is_primary"`
	Sequence     float64   `gorm:"column:sequence;not null" json:"sequence"`

	Instructor *Instructor `gorm:"foreignKey:InstructorID" json:"instructor,omitempty"`
}

func (ConferenceInstructor) TableName() string {
	return "portal_conference_instructor"
}

// EventSchedule is one entry of a conference agenda.
type EventSchedule struct {
	Base
	Sortable
	ConferenceID    uuid.UUID `gorm:"column:conference_id;type:uuid;not null" json:"conference_id"`
	Title           string    `gorm:"column:title;not null" json:"title"`
	StartDatetime   time.Time `gorm:"column:start_datetime;not null" json:"start_datetime"`
	EndDatetime     time.Time `gorm:"column:end_datetime;not null" json:"end_datetime"`
	TextColor       *string   `gorm:"column:text_color" json:"text_color,omitempty"`
	BackgroundColor *string   `gorm:"column:background_color" json:"background_color,omitempty"`
}

func (EventSchedule) TableName() string {
	return "portal_event_schedule"
}
