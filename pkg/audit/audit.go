package audit

import (
	"context"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/confportal/conf-portal-api/pkg/identity"
	"github.com/confportal/conf-portal-api/pkg/model"
)

// Event is one entry of the operation journal.
type Event interface {
	Type() model.OperationType
	Code() string
	RecordID() *uuid.UUID
	Message() string
	// Data returns the record before and after the operation, either may be nil.
	Data() (old, new any)
}

// Actor is who performed an operation and from where.
type Actor struct {
	UserID    uuid.UUID
	Name      string
	IP        string
	UserAgent string
}

// ActorFrom builds an Actor from the request identity.
func ActorFrom(id *identity.Identity) Actor {
	if id == nil {
		return Actor{}
	}
	return Actor{
		UserID:    id.UserID,
		Name:      id.Actor(),
		IP:        id.IP(),
		UserAgent: id.UserAgent,
	}
}

// Saver persists events.
type Saver interface {
	Save(ctx context.Context, actor Actor, event Event) error
}

// Recorder logs events and hands them to a Saver.
type Recorder struct {
	saver  Saver
	logger zerolog.Logger
}

func NewRecorder(saver Saver, logger zerolog.Logger) *Recorder {
	return &Recorder{saver: saver, logger: logger}
}

// Record never fails the caller. Persistence errors are logged.
func (r *Recorder) Record(ctx context.Context, actor Actor, event Event) {
	if r == nil {
		return
	}

	entry := r.logger.Info().
		Str("operation_type", string(event.Type())).
		Str("operation_code", event.Code()).
		Str("actor", actor.Name).
		Str("ip", actor.IP)
	if id := event.RecordID(); id != nil {
		entry = entry.Str("record_id", id.String())
	}
	entry.Msg(event.Message())

	if r.saver == nil {
		return
	}
	if err := r.saver.Save(ctx, actor, event); err != nil {
		r.logger.Error().Err(err).
			Str("operation_code", event.Code()).
			Msg("failed to save operation log")
	}
}
