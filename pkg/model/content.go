package model

import "github.com/google/uuid"

// Instructor is a speaker or workshop host listed on conferences and workshops.
type Instructor struct {
	Base
	Sortable
	Name  string  `gorm:"column:name;not null" json:"name"`
	Title *string `gorm:"column:title" json:"title,omitempty"`
	Bio   *string `gorm:"column:bio" json:"bio,omitempty"`
}

func (Instructor) TableName() string {
	return "portal_instructor"
}

// Location is a venue or room.
type Location struct {
	Base
	Name       string   `gorm:"column:name;not null" json:"name"`
	Address    *string  `gorm:"column:address" json:"address,omitempty"`
	Floor      *string  `gorm:"column:floor" json:"floor,omitempty"`
	RoomNumber *string  `gorm:"column:room_number" json:"room_number,omitempty"`
	Latitude   *float64 `gorm:"column:latitude;type:numeric(9,6)" json:"latitude,omitempty"`
	Longitude  *float64 `gorm:"column:longitude;type:numeric(9,6)" json:"longitude,omitempty"`
}

func (Location) TableName() string {
	return "portal_location"
}

// FaqCategory groups FAQ entries.
type FaqCategory struct {
	Base
	Sortable
	Name string `gorm:"column:name;not null" json:"name"`
}

func (FaqCategory) TableName() string {
	return "portal_faq_category"
}

// Faq is a question and its answer.
type Faq struct {
	Base
	Sortable
	CategoryID  uuid.UUID `gorm:"column:category_id;type:uuid;not null" json:"category_id"`
	Question    string    `gorm:"column:question;not null" json:"question"`
	Answer      string    `gorm:"column:answer;not null" json:"answer"`
	RelatedLink *string   `gorm:"column:related_link" json:"related_link,omitempty"`
}

func (Faq) TableName() string {
	return "portal_faq"
}

// Testimony is a story shared by an attendee.
type Testimony struct {
	Base
	Name        string  `gorm:"column:name;not null" json:"name"`
	PhoneNumber *string `gorm:"column:phone_number" json:"phone_number,omitempty"`
	Share       bool    `gorm:"column:share;not null" json:"share"`
	Message     string  `gorm:"column:message;not null" json:"message"`
}

func (Testimony) TableName() string {
	return "portal_testimony"
}
