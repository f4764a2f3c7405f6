package model

//go:generate go run github.com/dmarkham/enumer -type FeedbackStatus -trimprefix FeedbackStatus -transform snake-upper -output feedback_status.gen.go

// FeedbackStatus is the triage state of a feedback entry.
type FeedbackStatus int

const (
	FeedbackStatusPending FeedbackStatus = iota
	FeedbackStatusReview
	FeedbackStatusDiscussion
	FeedbackStatusAccepted
	FeedbackStatusDone
	FeedbackStatusRejected
	FeedbackStatusArchived
)

// Feedback is a message submitted from the app.
type Feedback struct {
	Base
	Name    string         `gorm:"column:name;not null" json:"name"`
	Email   *string        `gorm:"column:email" json:"email,omitempty"`
	Message string         `gorm:"column:message;not null" json:"message"`
	Status  FeedbackStatus `gorm:"column:status;not null" json:"status"`
}

func (Feedback) TableName() string {
	return "portal_feedback"
}
