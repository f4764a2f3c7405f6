package model

import (
	"github.com/google/uuid"
	"gorm.io/datatypes"
)

// OperationType is the kind of change recorded in the operation log.
type OperationType string

const (
	OperationCreate  OperationType = "create"
	OperationUpdate  OperationType = "update"
	OperationDelete  OperationType = "delete"
	OperationRestore OperationType = "restore"
	OperationRecycle OperationType = "recycle"
	OperationLogin   OperationType = "login"
	OperationLogout  OperationType = "logout"
	OperationOther   OperationType = "other"
)

// Log is one entry of the admin operation journal.
type Log struct {
	Base
	RecordID      *uuid.UUID     `gorm:"column:record_id;type:uuid" json:"record_id,omitempty"`
	OperationType OperationType  `gorm:"column:operation_type;not null" json:"operation_type"`
	OperationCode string         `gorm:"column:operation_code;not null" json:"operation_code"`
	OldData       datatypes.JSON `gorm:"column:old_data;type:jsonb" json:"old_data,omitempty"`
	NewData       datatypes.JSON `gorm:"column:new_data;type:jsonb" json:"new_data,omitempty"`
	ChangedFields datatypes.JSON `gorm:"column:changed_fields;type:jsonb" json:"changed_fields,omitempty"`
	IPAddress     *string        `gorm:"column:ip_address" json:"ip_address,omitempty"`
	UserAgent     *string        `gorm:"column:user_agent" json:"user_agent,omitempty"`
}

func (Log) TableName() string {
	return "portal_log"
}
