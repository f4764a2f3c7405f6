package jobs

import (
	"context"
	"encoding/json"
	"time"

	"github.com/google/uuid"
	"github.com/hibiken/asynq"
	"github.com/rs/zerolog"

	"github.com/confportal/conf-portal-api/pkg/mail"
)

const (
	TaskNotificationSend = "notification:send"
	TaskEmailSend        = "email:send"

	QueueCritical = "critical"
	QueueDefault  = "default"
	QueueLow      = "low"
)

// NotificationPayload carries the users of MULTIPLE and INDIVIDUAL
// notifications since they are not persisted with the notification.
type NotificationPayload struct {
	NotificationID uuid.UUID   `json:"notification_id"`
	UserIDs        []uuid.UUID `json:"user_ids,omitempty"`
	DryRun         bool        `json:"dry_run"`
}

type EmailPayload struct {
	To       string            `json:"to"`
	Subject  string            `json:"subject"`
	Template mail.Template     `json:"template"`
	Data     map[string]string `json:"data,omitempty"`
}

func NewNotificationTask(p NotificationPayload) (*asynq.Task, error) {
	payload, err := json.Marshal(p)
	if err != nil {
		return nil, err
	}
	return asynq.NewTask(TaskNotificationSend, payload,
		asynq.MaxRetry(3),
		asynq.Queue(QueueDefault),
		asynq.Timeout(30*time.Second),
	), nil
}

func NewEmailTask(p EmailPayload) (*asynq.Task, error) {
	payload, err := json.Marshal(p)
	if err != nil {
		return nil, err
	}
	queue := QueueDefault
	if p.Template == mail.TemplatePasswordReset {
		queue = QueueCritical
	}
	return asynq.NewTask(TaskEmailSend, payload,
		asynq.MaxRetry(3),
		asynq.Queue(queue),
		asynq.Timeout(30*time.Second),
	), nil
}

// Enqueuer is the part of *asynq.Client a Queue needs.
type Enqueuer interface {
	EnqueueContext(ctx context.Context, task *asynq.Task, opts ...asynq.Option) (*asynq.TaskInfo, error)
}

// Queue enqueues portal tasks.
type Queue struct {
	client Enqueuer
	logger zerolog.Logger
}

func NewQueue(client Enqueuer, logger zerolog.Logger) *Queue {
	return &Queue{client: client, logger: logger}
}

func (q *Queue) enqueue(ctx context.Context, task *asynq.Task) error {
	info, err := q.client.EnqueueContext(ctx, task)
	if err != nil {
		return err
	}
	q.logger.Debug().
		Str("task_id", info.ID).
		Str("type", task.Type()).
		Str("queue", info.Queue).
		Msg("Task enqueued")
	return nil
}

func (q *Queue) EnqueueNotification(ctx context.Context, p NotificationPayload) error {
	task, err := NewNotificationTask(p)
	if err != nil {
		return err
	}
	return q.enqueue(ctx, task)
}

func (q *Queue) EnqueueEmail(ctx context.Context, p EmailPayload) error {
	task, err := NewEmailTask(p)
	if err != nil {
		return err
	}
	return q.enqueue(ctx, task)
}
