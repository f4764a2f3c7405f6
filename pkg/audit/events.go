package audit

import (
	"fmt"

	"github.com/google/uuid"

	"github.com/confportal/conf-portal-api/pkg/model"
)

// ChangeEvent describes a create, update, delete or restore of a record.
type ChangeEvent struct {
	Operation model.OperationType
	Resource  string
	ID        uuid.UUID
	Old       any
	New       any
}

func (e ChangeEvent) Type() model.OperationType { return e.Operation }
func (e ChangeEvent) Code() string              { return e.Resource }
func (e ChangeEvent) Data() (any, any)          { return e.Old, e.New }

func (e ChangeEvent) RecordID() *uuid.UUID {
	if e.ID == uuid.Nil {
		return nil
	}
	id := e.ID
	return &id
}

func (e ChangeEvent) Message() string {
	return fmt.Sprintf("%s %s %s", e.Operation, e.Resource, e.ID)
}

func Created(resource string, id uuid.UUID, record any) ChangeEvent {
	return ChangeEvent{Operation: model.OperationCreate, Resource: resource, ID: id, New: record}
}

func Updated(resource string, id uuid.UUID, old, new any) ChangeEvent {
	return ChangeEvent{Operation: model.OperationUpdate, Resource: resource, ID: id, Old: old, New: new}
}

// Deleted is a soft delete when permanent is false. Soft deletes are
// journalled as recycle and can be restored.
func Deleted(resource string, id uuid.UUID, old any, permanent bool) ChangeEvent {
	op := model.OperationRecycle
	if permanent {
		op = model.OperationDelete
	}
	return ChangeEvent{Operation: op, Resource: resource, ID: id, Old: old}
}

func Restored(resource string, id uuid.UUID) ChangeEvent {
	return ChangeEvent{Operation: model.OperationRestore, Resource: resource, ID: id}
}

// SessionEvent is an admin login or logout.
type SessionEvent struct {
	Operation model.OperationType
	UserID    uuid.UUID
	Email     string
}

func Login(userID uuid.UUID, email string) SessionEvent {
	return SessionEvent{Operation: model.OperationLogin, UserID: userID, Email: email}
}

func Logout(userID uuid.UUID, email string) SessionEvent {
	return SessionEvent{Operation: model.OperationLogout, UserID: userID, Email: email}
}

func (e SessionEvent) Type() model.OperationType { return e.Operation }
func (e SessionEvent) Code() string              { return "auth" }
func (e SessionEvent) Data() (any, any)          { return nil, nil }

func (e SessionEvent) RecordID() *uuid.UUID {
	id := e.UserID
	return &id
}

func (e SessionEvent) Message() string {
	if e.Operation == model.OperationLogin {
		return fmt.Sprintf("%s logged in", e.Email)
	}
	return fmt.Sprintf("%s logged out", e.Email)
}
