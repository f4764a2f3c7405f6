package model

import (
	"time"

	"github.com/google/uuid"
)

// AuthDevice tracks a client that holds refresh tokens for a user.
type AuthDevice struct {
	Base
	UserID        uuid.UUID `gorm:"column:user_id;type:uuid;not null"`
	FirstSeenAt   time.Time `gorm:"column:first_seen_at;not null"`
	LastSeenAt    time.Time `gorm:"column:last_seen_at;not null"`
	LastIP        *string   `gorm:"column:last_ip"`
	LastUserAgent *string   `gorm:"column:last_user_agent"`
}

func (AuthDevice) TableName() string {
	return "portal_auth_device"
}

// RefreshToken is one link in a rotation family. Only the hash of the raw
// token is stored.
type RefreshToken struct {
	Base
	UserID        uuid.UUID  `gorm:"column:user_id;type:uuid;not null"`
	DeviceID      *uuid.UUID `gorm:"column:device_id;type:uuid"`
	FamilyID      uuid.UUID  `gorm:"column:family_id;type:uuid;not null"`
	ParentID      *uuid.UUID `gorm:"column:parent_id;type:uuid"`
	ReplacedByID  *uuid.UUID `gorm:"column:replaced_by_id;type:uuid"`
	TokenHash     string     `gorm:"column:token_hash;not null;uniqueIndex"`
	ExpiresAt     time.Time  `gorm:"column:expires_at;not null"`
	LastUsedAt    *time.Time `gorm:"column:last_used_at"`
	RevokedAt     *time.Time `gorm:"column:revoked_at"`
	RevokedReason *string    `gorm:"column:revoked_reason"`
	IP            *string    `gorm:"column:ip"`
	UserAgent     *string    `gorm:"column:user_agent"`
}

func (RefreshToken) TableName() string {
	return "portal_refresh_token"
}

// Revoked reports whether the token has been revoked.
func (t *RefreshToken) Revoked() bool {
	return t.RevokedAt != nil
}

// Expired reports whether the token is past its expiry at now.
func (t *RefreshToken) Expired(now time.Time) bool {
	return !now.Before(t.ExpiresAt)
}

// PasswordResetToken is a single-use token mailed to an admin.
type PasswordResetToken struct {
	Base
	UserID    uuid.UUID  `gorm:"column:user_id;type:uuid;not null"`
	TokenHash string     `gorm:"column:token_hash;not null;uniqueIndex"`
	ExpiresAt time.Time  `gorm:"column:expires_at;not null"`
	UsedAt    *time.Time `gorm:"column:used_at"`
	IP        *string    `gorm:"column:ip"`
	UserAgent *string    `gorm:"column:user_agent"`
}

func (PasswordResetToken) TableName() string {
	return "portal_password_reset_token"
}
