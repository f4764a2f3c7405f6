package store

import (
	"context"

	"github.com/google/uuid"

	"github.com/confportal/conf-portal-api/pkg/model"
)

// DevicesStore abstracts FCM device registration
type DevicesStore interface {
	// Register upserts the device on device_key.
	Register(ctx context.Context, device *model.FcmDevice) error

	// Bind links the registered device with deviceKey to the user. It
	// returns the device id, or ErrNotFound when the key is unknown.
	Bind(ctx context.Context, userID uuid.UUID, deviceKey string) (uuid.UUID, error)

	// UserDeviceIDs lists the devices bound to the user.
	UserDeviceIDs(ctx context.Context, userID uuid.UUID) ([]uuid.UUID, error)
}

// Delivery is the outcome of sending a notification.
type Delivery struct {
	Status       model.NotificationStatus
	SuccessCount int
	FailureCount int
}

// NotificationStore abstracts notification delivery state
type NotificationStore interface {
	CRUDStore[model.Notification]

	// TargetDevices returns every non-deleted device for SYSTEM
	// notifications, and the devices bound to userIDs otherwise.
	TargetDevices(ctx context.Context, typ model.NotificationType, userIDs []uuid.UUID) ([]model.FcmDevice, error)

	// TargetUsers returns the non-deleted users with an email address.
	TargetUsers(ctx context.Context, userIDs []uuid.UUID) ([]model.User, error)

	// SaveHistory upserts rows on (notification_id, device_id).
	SaveHistory(ctx context.Context, rows []model.NotificationHistory) error

	UpdateDelivery(ctx context.Context, id uuid.UUID, d Delivery) error

	HistoryPages(ctx context.Context, q PageQuery) (*Page[model.NotificationHistory], error)

	// UserHistory returns history rows for the user's devices, newest first.
	UserHistory(ctx context.Context, userID uuid.UUID) ([]UserNotification, error)

	// MarkRead returns ErrNotFound unless the row belongs to one of the
	// user's devices.
	MarkRead(ctx context.Context, userID, historyID uuid.UUID) error

	MarkAllRead(ctx context.Context, userID uuid.UUID) (int64, error)
}

// UserNotification is a history row joined with its notification.
type UserNotification struct {
	ID             uuid.UUID `json:"id"`
	NotificationID uuid.UUID `json:"notification_id"`
	Title          string    `json:"title"`
	Message        string    `json:"message"`
	URL            *string   `json:"url,omitempty"`
	IsRead         bool      `json:"is_read"`
	CreatedAt      string    `json:"created_at"`
}
