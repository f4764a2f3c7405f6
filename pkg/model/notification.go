package model

//go:generate go run github.com/dmarkham/enumer -type NotificationStatus -trimprefix NotificationStatus -transform snake-upper -output notification_status.gen.go

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
)

// NotificationMethod is the delivery channel.
type NotificationMethod int

const (
	NotificationMethodPush NotificationMethod = iota
	NotificationMethodEmail
)

// NotificationType decides how targets are resolved.
type NotificationType int

const (
	// NotificationTypeSystem targets every registered device.
	NotificationTypeSystem NotificationType = iota
	NotificationTypeMultiple
	NotificationTypeIndividual
)

// NotificationStatus is the delivery state of a notification.
type NotificationStatus int

const (
	NotificationStatusPending NotificationStatus = iota
	NotificationStatusSent
	NotificationStatusFailed
	NotificationStatusDryRun
)

// NotificationHistoryStatus is the delivery state for one device.
type NotificationHistoryStatus int

const (
	NotificationHistoryPending NotificationHistoryStatus = iota
	NotificationHistorySuccess
	NotificationHistoryFailed
	NotificationHistoryDryRun
)

// FcmDevice is an app installation able to receive push messages.
type FcmDevice struct {
	Base
	DeviceKey      string         `gorm:"column:device_key;not null;uniqueIndex" json:"device_key"`
	Token          string         `gorm:"column:token;not null" json:"-"`
	ExpiredAt      *time.Time     `gorm:"column:expired_at" json:"expired_at,omitempty"`
	AdditionalData datatypes.JSON `gorm:"column:additional_data;type:jsonb" json:"additional_data,omitempty"`
}

func (FcmDevice) TableName() string {
	return "portal_fcm_device"
}

// FcmUserDevice binds a device to the user signed in on it.
type FcmUserDevice struct {
	UserID    uuid.UUID `gorm:"column:user_id;type:uuid;primaryKey"`
	DeviceID  uuid.UUID `gorm:"column:device_id;type:uuid;primaryKey"`
	CreatedAt time.Time `gorm:"column:created_at;autoCreateTime"`
}

func (FcmUserDevice) TableName() string {
	return "portal_fcm_user_device"
}

// Notification is a message sent to one or many devices.
type Notification struct {
	Base
	Title        string             `gorm:"column:title;not null" json:"title"`
	Message      string             `gorm:"column:message;not null" json:"message"`
	URL          *string            `gorm:"column:url" json:"url,omitempty"`
	Method       NotificationMethod `gorm:"column:method;not null" json:"method"`
	Type         NotificationType   `gorm:"column:type;not null" json:"type"`
	Status       NotificationStatus `gorm:"column:status;not null" json:"status"`
	FailureCount int                `gorm:"column:failure_count;not null" json:"failure_count"`
	SuccessCount int                `gorm:"column:success_count;not null" json:"success_count"`
}

func (Notification) TableName() string {
	return "portal_notification"
}

// NotificationHistory is the delivery record for one device.
type NotificationHistory struct {
	Base
	NotificationID uuid.UUID                 `gorm:"column:notification_id;type:uuid;not null" json:"notification_id"`
	DeviceID       uuid.UUID                 `gorm:"column:device_id;type:uuid;not null" json:"device_id"`
	MessageID      *string                   `gorm:"column:message_id" json:"message_id,omitempty"`
	Exception      *string                   `gorm:"column:exception" json:"exception,omitempty"`
	Status         NotificationHistoryStatus `gorm:"column:status;not null" json:"status"`
	IsRead         bool                      `gorm:"column:is_read;not null" json:"is_read"`
}

func (NotificationHistory) TableName() string {
	return "portal_notification_history"
}
