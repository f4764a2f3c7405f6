package gorm

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/confportal/conf-portal-api/pkg/model"
	"github.com/confportal/conf-portal-api/pkg/server/store"
)

var (
	_ store.DevicesStore      = (*DevicesStore)(nil)
	_ store.NotificationStore = (*NotificationStore)(nil)
)

// DevicesStore implements store.DevicesStore using GORM
type DevicesStore struct {
	db *gorm.DB
}

func NewDevicesStore(db *gorm.DB) *DevicesStore {
	return &DevicesStore{db: db}
}

// Register upserts by device key. On conflict the stored row is scanned back
// into device, so device.ID is the id of the existing registration.
func (s *DevicesStore) Register(ctx context.Context, device *model.FcmDevice) error {
	return s.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "device_key"}},
		DoUpdates: clause.AssignmentColumns([]string{"token", "additional_data", "updated_at"}),
	}, clause.Returning{}).Create(device).Error
}

func (s *DevicesStore) Bind(ctx context.Context, userID uuid.UUID, deviceKey string) (uuid.UUID, error) {
	var device model.FcmDevice
	err := s.db.WithContext(ctx).
		Where("device_key = ? AND is_deleted = ?", deviceKey, false).
		First(&device).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return uuid.Nil, fmt.Errorf("%w: device %s", store.ErrNotFound, deviceKey)
	}
	if err != nil {
		return uuid.Nil, err
	}
	err = s.db.WithContext(ctx).Clauses(clause.OnConflict{DoNothing: true}).
		Create(&model.FcmUserDevice{UserID: userID, DeviceID: device.ID}).Error
	if err != nil {
		return uuid.Nil, err
	}
	return device.ID, nil
}

func (s *DevicesStore) UserDeviceIDs(ctx context.Context, userID uuid.UUID) ([]uuid.UUID, error) {
	var ids []uuid.UUID
	err := s.db.WithContext(ctx).Model(&model.FcmUserDevice{}).
		Where("user_id = ?", userID).
		Pluck("device_id", &ids).Error
	return ids, err
}

// NotificationStore implements store.NotificationStore using GORM
type NotificationStore struct {
	*CRUD[model.Notification]
	history *CRUD[model.NotificationHistory]
	db      *gorm.DB
}

func NewNotificationStore(db *gorm.DB) *NotificationStore {
	return &NotificationStore{
		CRUD: NewCRUD[model.Notification](db, Options{
			OrderBy: []string{"created_at", "status", "title"},
			Search:  []string{"title", "message"},
			Filters: []string{"status", "method", "type"},
		}),
		history: NewCRUD[model.NotificationHistory](db, Options{
			OrderBy: []string{"created_at", "status"},
			Filters: []string{"notification_id", "device_id", "status", "is_read"},
		}),
		db: db,
	}
}

func (s *NotificationStore) TargetDevices(ctx context.Context, typ model.NotificationType, userIDs []uuid.UUID) ([]model.FcmDevice, error) {
	var devices []model.FcmDevice
	db := s.db.WithContext(ctx)
	if typ == model.NotificationTypeSystem {
		err := db.Where("is_deleted = ?", false).Order("created_at").Find(&devices).Error
		return devices, err
	}
	if len(userIDs) == 0 {
		return devices, nil
	}
	err := db.Distinct("portal_fcm_device.*").
		Joins("JOIN portal_fcm_user_device ud ON ud.device_id = portal_fcm_device.id").
		Where("ud.user_id IN ? AND portal_fcm_device.is_deleted = ?", userIDs, false).
		Find(&devices).Error
	return devices, err
}

func (s *NotificationStore) TargetUsers(ctx context.Context, userIDs []uuid.UUID) ([]model.User, error) {
	var users []model.User
	if len(userIDs) == 0 {
		return users, nil
	}
	err := s.db.WithContext(ctx).Preload("Profile").
		Where("id IN ? AND is_deleted = ? AND email IS NOT NULL AND email <> ''", userIDs, false).
		Find(&users).Error
	return users, err
}

func (s *NotificationStore) SaveHistory(ctx context.Context, rows []model.NotificationHistory) error {
	if len(rows) == 0 {
		return nil
	}
	return s.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "notification_id"}, {Name: "device_id"}},
		DoUpdates: clause.AssignmentColumns([]string{"message_id", "exception", "status", "updated_at"}),
	}).CreateInBatches(&rows, 500).Error
}

func (s *NotificationStore) UpdateDelivery(ctx context.Context, id uuid.UUID, d store.Delivery) error {
	return s.db.WithContext(ctx).Model(&model.Notification{}).
		Where("id = ?", id).
		Updates(map[string]interface{}{
			"status":        d.Status,
			"success_count": d.SuccessCount,
			"failure_count": d.FailureCount,
		}).Error
}

func (s *NotificationStore) HistoryPages(ctx context.Context, q store.PageQuery) (*store.Page[model.NotificationHistory], error) {
	return s.history.Pages(ctx, q)
}

func (s *NotificationStore) userDevices(userID uuid.UUID) *gorm.DB {
	return s.db.Model(&model.FcmUserDevice{}).Select("device_id").Where("user_id = ?", userID)
}

type userNotificationRow struct {
	ID             uuid.UUID
	NotificationID uuid.UUID
	Title          string
	Message        string
	URL            *string
	IsRead         bool
	CreatedAt      time.Time
}

func (s *NotificationStore) UserHistory(ctx context.Context, userID uuid.UUID) ([]store.UserNotification, error) {
	var rows []userNotificationRow
	err := s.db.WithContext(ctx).Table("portal_notification_history h").
		Select("h.id, h.notification_id, n.title, n.message, n.url, h.is_read, h.created_at").
		Joins("JOIN portal_notification n ON n.id = h.notification_id").
		Where("h.device_id IN (?) AND h.is_deleted = ? AND n.is_deleted = ?", s.userDevices(userID), false, false).
		Order("h.created_at DESC").
		Scan(&rows).Error
	if err != nil {
		return nil, err
	}
	out := make([]store.UserNotification, 0, len(rows))
	for _, r := range rows {
		out = append(out, store.UserNotification{
			ID:             r.ID,
			NotificationID: r.NotificationID,
			Title:          r.Title,
			Message:        r.Message,
			URL:            r.URL,
			IsRead:         r.IsRead,
			CreatedAt:      r.CreatedAt.UTC().Format(time.RFC3339),
		})
	}
	return out, nil
}

func (s *NotificationStore) MarkRead(ctx context.Context, userID, historyID uuid.UUID) error {
	tx := s.db.WithContext(ctx).Model(&model.NotificationHistory{}).
		Where("id = ? AND device_id IN (?)", historyID, s.userDevices(userID)).
		Update("is_read", true)
	if tx.Error != nil {
		return tx.Error
	}
	if tx.RowsAffected == 0 {
		return fmt.Errorf("%w: notification history %s", store.ErrNotFound, historyID)
	}
	return nil
}

func (s *NotificationStore) MarkAllRead(ctx context.Context, userID uuid.UUID) (int64, error) {
	tx := s.db.WithContext(ctx).Model(&model.NotificationHistory{}).
		Where("device_id IN (?) AND is_read = ?", s.userDevices(userID), false).
		Update("is_read", true)
	return tx.RowsAffected, tx.Error
}
