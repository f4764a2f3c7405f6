package model

import (
	"time"

	"github.com/google/uuid"
)

// Verb is an action that can be performed on a resource.
type Verb struct {
	Base
	Action      string `gorm:"column:action;not null;uniqueIndex" json:"action"`
	DisplayName string `gorm:"column:display_name;not null" json:"display_name"`
	IsActive    bool   `gorm:"column:is_active;not null" json:"is_active"`
}

func (Verb) TableName() string {
	return "portal_verb"
}

// Permission is a (resource, verb) pair. Code is "resource:verb".
type Permission struct {
	Base
	ResourceID  uuid.UUID  `gorm:"column:resource_id;type:uuid;not null" json:"resource_id"`
	VerbID      uuid.UUID  `gorm:"column:verb_id;type:uuid;not null" json:"verb_id"`
	Code        string     `gorm:"column:code;not null;uniqueIndex" json:"code"`
	DisplayName string     `gorm:"column:display_name;not null" json:"display_name"`
	ExpireDate  *time.Time `gorm:"column:expire_date" json:"expire_date,omitempty"`
	IsActive    bool       `gorm:"column:is_active;not null" json:"is_active"`

	Resource *Resource `gorm:"foreignKey:ResourceID" json:"resource,omitempty"`
	Verb     *Verb     `gorm:"foreignKey:VerbID" json:"verb,omitempty"`
}

func (Permission) TableName() string {
	return "portal_permission"
}
