package model

//go:generate go run github.com/dmarkham/enumer -type ResourceType -trimprefix ResourceType -transform lower -yaml -output resource_type.gen.go

import "github.com/google/uuid"

// ResourceType separates platform resources from content resources.
type ResourceType int

const (
	ResourceTypeSystem ResourceType = iota
	ResourceTypeGeneral
)

// Resource is a node of the two-level RBAC resource tree. Leaf codes look
// like "system:role" and are the left half of permission codes.
type Resource struct {
	Base
	Sortable
	PID       *uuid.UUID   `gorm:"column:pid;type:uuid" json:"pid"`
	Code      string       `gorm:"column:code;not null;uniqueIndex" json:"code"`
	Key       string       `gorm:"column:key;not null" json:"key"`
	Name      string       `gorm:"column:name;not null" json:"name"`
	Icon      *string      `gorm:"column:icon" json:"icon,omitempty"`
	Path      *string      `gorm:"column:path" json:"path,omitempty"`
	Type      ResourceType `gorm:"column:type;not null" json:"type"`
	IsVisible bool         `gorm:"column:is_visible;not null" json:"is_visible"`
	IsActive  bool         `gorm:"column:is_active;not null" json:"is_active"`
}

func (Resource) TableName() string {
	return "portal_resource"
}
