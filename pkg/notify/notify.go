// Package notify delivers portal notifications to FCM devices or by email
// and records the outcome per device.
package notify

import (
	"context"
	"errors"
	"fmt"
	"strconv"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/confportal/conf-portal-api/pkg/mail"
	"github.com/confportal/conf-portal-api/pkg/model"
	"github.com/confportal/conf-portal-api/pkg/push"
	"github.com/confportal/conf-portal-api/pkg/server/store"
)

// ErrNoTargets means the notification addresses no device or mailbox.
// Retrying cannot help.
var ErrNoTargets = errors.New("no delivery targets")

// Store is the subset of store.NotificationStore the dispatcher needs.
type Store interface {
	Get(ctx context.Context, id uuid.UUID) (*model.Notification, error)
	TargetDevices(ctx context.Context, typ model.NotificationType, userIDs []uuid.UUID) ([]model.FcmDevice, error)
	TargetUsers(ctx context.Context, userIDs []uuid.UUID) ([]model.User, error)
	SaveHistory(ctx context.Context, rows []model.NotificationHistory) error
	UpdateDelivery(ctx context.Context, id uuid.UUID, d store.Delivery) error
}

type Mailer interface {
	Send(ctx context.Context, to, subject string, tmpl mail.Template, data map[string]string) (string, error)
}

// Request asks for one notification to be delivered.
type Request struct {
	NotificationID uuid.UUID
	UserIDs        []uuid.UUID
	DryRun         bool
}

// Result summarises a delivery.
type Result struct {
	Status  model.NotificationStatus
	Targets int
	Success int
	Failure int
}

// Dispatcher sends notifications.
type Dispatcher struct {
	store       Store
	sender      push.Sender
	mailer      Mailer
	pushEnabled bool
	logger      zerolog.Logger
}

// NewDispatcher creates a Dispatcher. With pushEnabled false every push
// notification is handled as a dry run.
func NewDispatcher(s Store, sender push.Sender, mailer Mailer, pushEnabled bool, logger zerolog.Logger) *Dispatcher {
	if sender == nil {
		sender = push.DryRunSender{}
	}
	return &Dispatcher{
		store:       s,
		sender:      sender,
		mailer:      mailer,
		pushEnabled: pushEnabled,
		logger:      logger,
	}
}

// Dispatch delivers the notification and stores counts and status. Any
// failure marks the notification FAILED before the error is returned.
func (d *Dispatcher) Dispatch(ctx context.Context, req Request) (*Result, error) {
	n, err := d.store.Get(ctx, req.NotificationID)
	if err != nil {
		return nil, fmt.Errorf("failed to load notification %s: %w", req.NotificationID, err)
	}

	log := d.logger.With().
		Str("notification_id", n.ID.String()).
		Int("method", int(n.Method)).
		Int("type", int(n.Type)).
		Logger()
	log.Info().Bool("dry_run", req.DryRun).Msg("Processing notification")

	var result *Result
	switch {
	case req.DryRun || !d.pushEnabled:
		result, err = d.dryRun(ctx, n, req.UserIDs)
	case n.Method == model.NotificationMethodPush:
		result, err = d.sendPush(ctx, n, req.UserIDs)
	case n.Method == model.NotificationMethodEmail:
		result, err = d.sendEmail(ctx, n, req.UserIDs)
	default:
		err = fmt.Errorf("invalid notification method: %d", n.Method)
	}

	if err != nil {
		log.Error().Err(err).Msg("Failed to send notification")
		failed := store.Delivery{Status: model.NotificationStatusFailed}
		if result != nil {
			failed.SuccessCount, failed.FailureCount = result.Success, result.Failure
		}
		if uerr := d.store.UpdateDelivery(ctx, n.ID, failed); uerr != nil {
			log.Error().Err(uerr).Msg("Failed to update notification status")
		}
		return result, err
	}

	if err := d.store.UpdateDelivery(ctx, n.ID, store.Delivery{
		Status:       result.Status,
		SuccessCount: result.Success,
		FailureCount: result.Failure,
	}); err != nil {
		return result, fmt.Errorf("failed to update notification %s: %w", n.ID, err)
	}

	log.Info().
		Str("status", result.Status.String()).
		Int("success", result.Success).
		Int("failure", result.Failure).
		Msg("Notification processed")
	return result, nil
}

func historyRow(n *model.Notification, deviceID uuid.UUID, status model.NotificationHistoryStatus) model.NotificationHistory {
	return model.NotificationHistory{
		NotificationID: n.ID,
		DeviceID:       deviceID,
		Status:         status,
	}
}

func (d *Dispatcher) dryRun(ctx context.Context, n *model.Notification, userIDs []uuid.UUID) (*Result, error) {
	result := &Result{Status: model.NotificationStatusDryRun}

	if n.Method == model.NotificationMethodEmail {
		users, err := d.store.TargetUsers(ctx, userIDs)
		if err != nil {
			return nil, err
		}
		result.Targets, result.Success = len(users), len(users)
		return result, nil
	}

	devices, err := d.store.TargetDevices(ctx, n.Type, userIDs)
	if err != nil {
		return nil, err
	}
	rows := make([]model.NotificationHistory, 0, len(devices))
	for _, dev := range devices {
		rows = append(rows, historyRow(n, dev.ID, model.NotificationHistoryDryRun))
	}
	if err := d.store.SaveHistory(ctx, rows); err != nil {
		return nil, err
	}
	result.Targets, result.Success = len(devices), len(devices)
	return result, nil
}

func (d *Dispatcher) message(n *model.Notification, token string) push.Message {
	data := map[string]string{
		"notification_id": n.ID.String(),
		"type":            strconv.Itoa(int(n.Type)),
	}
	msg := push.Message{Token: token, Title: n.Title, Body: n.Message, Data: data}
	if n.URL != nil && *n.URL != "" {
		msg.URL = *n.URL
		data["url"] = *n.URL
	}
	return msg
}

func (d *Dispatcher) sendPush(ctx context.Context, n *model.Notification, userIDs []uuid.UUID) (*Result, error) {
	devices, err := d.store.TargetDevices(ctx, n.Type, userIDs)
	if err != nil {
		return nil, err
	}

	targets := devices[:0:0]
	for _, dev := range devices {
		if dev.Token != "" {
			targets = append(targets, dev)
		}
	}
	if len(targets) == 0 {
		return &Result{}, ErrNoTargets
	}

	result := &Result{Targets: len(targets)}
	rows := make([]model.NotificationHistory, 0, len(targets))
	for _, dev := range targets {
		row := historyRow(n, dev.ID, model.NotificationHistorySuccess)
		id, err := d.sender.Send(ctx, d.message(n, dev.Token))
		if err != nil {
			msg := err.Error()
			row.Status = model.NotificationHistoryFailed
			row.Exception = &msg
			result.Failure++
			d.logger.Warn().Err(err).
				Str("notification_id", n.ID.String()).
				Str("device_id", dev.ID.String()).
				Msg("Push delivery failed")
		} else {
			row.MessageID = &id
			result.Success++
		}
		rows = append(rows, row)
	}

	if err := d.store.SaveHistory(ctx, rows); err != nil {
		return result, err
	}

	result.Status = model.NotificationStatusFailed
	if result.Success > 0 {
		result.Status = model.NotificationStatusSent
	}
	return result, nil
}

func (d *Dispatcher) sendEmail(ctx context.Context, n *model.Notification, userIDs []uuid.UUID) (*Result, error) {
	if d.mailer == nil {
		return nil, errors.New("email delivery is not configured")
	}
	users, err := d.store.TargetUsers(ctx, userIDs)
	if err != nil {
		return nil, err
	}
	if len(users) == 0 {
		return &Result{}, ErrNoTargets
	}

	data := map[string]string{"Title": n.Title, "Message": n.Message}
	if n.URL != nil {
		data["URL"] = *n.URL
	}

	result := &Result{Targets: len(users)}
	for _, u := range users {
		if u.Email == nil || *u.Email == "" {
			result.Failure++
			continue
		}
		if _, err := d.mailer.Send(ctx, *u.Email, n.Title, mail.TemplateNotification, data); err != nil {
			result.Failure++
			d.logger.Warn().Err(err).
				Str("notification_id", n.ID.String()).
				Str("user_id", u.ID.String()).
				Msg("Email delivery failed")
			continue
		}
		result.Success++
	}

	result.Status = model.NotificationStatusFailed
	if result.Success > 0 {
		result.Status = model.NotificationStatusSent
	}
	return result, nil
}
