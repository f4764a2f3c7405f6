package jobs

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/hibiken/asynq"

	"github.com/confportal/conf-portal-api/pkg/notify"
	"github.com/confportal/conf-portal-api/pkg/server/store"
)

func (j *JobService) handleNotificationTask(ctx context.Context, t *asynq.Task) error {
	var p NotificationPayload
	if err := json.Unmarshal(t.Payload(), &p); err != nil {
		return fmt.Errorf("failed to unmarshal notification payload: %v: %w", err, asynq.SkipRetry)
	}

	j.logger.Info().
		Str("type", "notification").
		Str("notification_id", p.NotificationID.String()).
		Int("users", len(p.UserIDs)).
		Msg("Processing notification task")

	_, err := j.dispatcher.Dispatch(ctx, notify.Request{
		NotificationID: p.NotificationID,
		UserIDs:        p.UserIDs,
		DryRun:         p.DryRun,
	})
	if errors.Is(err, notify.ErrNoTargets) || errors.Is(err, store.ErrNotFound) {
		return fmt.Errorf("%w: %w", err, asynq.SkipRetry)
	}
	return err
}

func (j *JobService) handleEmailTask(ctx context.Context, t *asynq.Task) error {
	var p EmailPayload
	if err := json.Unmarshal(t.Payload(), &p); err != nil {
		return fmt.Errorf("failed to unmarshal email payload: %v: %w", err, asynq.SkipRetry)
	}

	j.logger.Info().
		Str("type", "email").
		Str("template", string(p.Template)).
		Msg("Processing email task")

	if _, err := j.mailer.Send(ctx, p.To, p.Subject, p.Template, p.Data); err != nil {
		j.logger.Error().
			Str("type", "email").
			Str("template", string(p.Template)).
			Err(err).
			Msg("Failed to send email")
		return err
	}
	return nil
}
