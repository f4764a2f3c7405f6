package model

import (
	"time"

	"github.com/google/uuid"
)

// RoleAdmin is the code of the built-in administrator role kept by seeding.
const RoleAdmin = "admin"

// RoleSuperuser is reported in tokens for superusers, it has no row.
const RoleSuperuser = "superuser"

// Role groups permissions that can be assigned to users.
type Role struct {
	Base
	Code     string `gorm:"column:code;not null;uniqueIndex" json:"code"`
	Name     string `gorm:"column:name;not null" json:"name"`
	IsActive bool   `gorm:"column:is_active;not null" json:"is_active"`
}

func (Role) TableName() string {
	return "portal_role"
}

// UserRole assigns a role to a user.
type UserRole struct {
	UserID    uuid.UUID `gorm:"column:user_id;type:uuid;primaryKey"`
	RoleID    uuid.UUID `gorm:"column:role_id;type:uuid;primaryKey"`
	CreatedAt time.Time `gorm:"column:created_at;autoCreateTime"`
}

func (UserRole) TableName() string {
	return "portal_user_role"
}

// RolePermission grants a permission to a role, optionally until ExpireDate.
type RolePermission struct {
	RoleID       uuid.UUID  `gorm:"column:role_id;type:uuid;primaryKey"`
	PermissionID uuid.UUID  `gorm:"column:permission_id;type:uuid;primaryKey"`
	ExpireDate   *time.Time `gorm:"column:expire_date"`
	CreatedAt    time.Time  `gorm:"column:created_at;autoCreateTime"`
}

func (RolePermission) TableName() string {
	return "portal_role_permission"
}
