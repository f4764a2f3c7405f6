package model

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
)

// Gender of a portal user profile.
type Gender int

const (
	GenderUnknown Gender = iota
	GenderMale
	GenderFemale
)

// ProviderFirebase is the name of the only third-party login provider.
const ProviderFirebase = "firebase"

// User is a portal account. Admins and app users share this table.
type User struct {
	Base
	PhoneNumber       *string    `gorm:"column:phone_number;uniqueIndex" json:"phone_number,omitempty"`
	Email             *string    `gorm:"column:email;uniqueIndex" json:"email,omitempty"`
	PasswordHash      *string    `gorm:"column:password_hash" json:"-"`
	Salt              *string    `gorm:"column:salt" json:"-"`
	IsActive          bool       `gorm:"column:is_active;not null" json:"is_active"`
	Verified          bool       `gorm:"column:verified;not null;default:false" json:"verified"`
	LastLoginAt       *time.Time `gorm:"column:last_login_at" json:"last_login_at,omitempty"`
	PasswordChangedAt *time.Time `gorm:"column:password_changed_at" json:"-"`
	PasswordExpiresAt *time.Time `gorm:"column:password_expires_at" json:"-"`
	IsSuperuser       bool       `gorm:"column:is_superuser;not null;default:false" json:"is_superuser"`
	IsAdmin           bool       `gorm:"column:is_admin;not null;default:false" json:"is_admin"`

	Profile *UserProfile `gorm:"foreignKey:UserID" json:"profile,omitempty"`
}

func (User) TableName() string {
	return "portal_user"
}

// DisplayName returns the profile display name, falling back to the email.
func (u *User) DisplayName() string {
	if u.Profile != nil && u.Profile.DisplayName != nil && *u.Profile.DisplayName != "" {
		return *u.Profile.DisplayName
	}
	if u.Email != nil {
		return *u.Email
	}
	return ""
}

// UserProfile holds presentation details for a user.
type UserProfile struct {
	Base
	UserID      uuid.UUID `gorm:"column:user_id;type:uuid;not null;uniqueIndex" json:"user_id"`
	DisplayName *string   `gorm:"column:display_name" json:"display_name,omitempty"`
	Gender      Gender    `gorm:"column:gender;not null;default:0" json:"gender"`
	IsMinistry  bool      `gorm:"column:is_ministry;not null;default:false" json:"is_ministry"`
}

func (UserProfile) TableName() string {
	return "portal_user_profile"
}

// ThirdPartyProvider names an external identity provider.
type ThirdPartyProvider struct {
	Base
	Name string `gorm:"column:name;not null;uniqueIndex" json:"name"`
}

func (ThirdPartyProvider) TableName() string {
	return "portal_third_party_provider"
}

// UserThirdPartyAuth links a user to an identity at a provider.
type UserThirdPartyAuth struct {
	Base
	UserID         uuid.UUID      `gorm:"column:user_id;type:uuid;not null" json:"user_id"`
	ProviderID     uuid.UUID      `gorm:"column:provider_id;type:uuid;not null" json:"provider_id"`
	ProviderUID    string         `gorm:"column:provider_uid;not null" json:"provider_uid"`
	AccessToken    *string        `gorm:"column:access_token" json:"-"`
	RefreshToken   *string        `gorm:"column:refresh_token" json:"-"`
	AdditionalData datatypes.JSON `gorm:"column:additional_data;type:jsonb" json:"additional_data,omitempty"`
}

func (UserThirdPartyAuth) TableName() string {
	return "portal_user_third_party_auth"
}
