package notify

import (
	"context"
	"errors"
	"testing"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/confportal/conf-portal-api/pkg/mail"
	"github.com/confportal/conf-portal-api/pkg/model"
	"github.com/confportal/conf-portal-api/pkg/push"
	"github.com/confportal/conf-portal-api/pkg/server/store"
)

type mockStore struct {
	mock.Mock
}

func (m *mockStore) Get(ctx context.Context, id uuid.UUID) (*model.Notification, error) {
	args := m.Called(ctx, id)
	n, _ := args.Get(0).(*model.Notification)
	return n, args.Error(1)
}

func (m *mockStore) TargetDevices(ctx context.Context, typ model.NotificationType, userIDs []uuid.UUID) ([]model.FcmDevice, error) {
	args := m.Called(ctx, typ, userIDs)
	d, _ := args.Get(0).([]model.FcmDevice)
	return d, args.Error(1)
}

func (m *mockStore) TargetUsers(ctx context.Context, userIDs []uuid.UUID) ([]model.User, error) {
	args := m.Called(ctx, userIDs)
	u, _ := args.Get(0).([]model.User)
	return u, args.Error(1)
}

func (m *mockStore) SaveHistory(ctx context.Context, rows []model.NotificationHistory) error {
	return m.Called(ctx, rows).Error(0)
}

func (m *mockStore) UpdateDelivery(ctx context.Context, id uuid.UUID, d store.Delivery) error {
	return m.Called(ctx, id, d).Error(0)
}

type mockSender struct {
	mock.Mock
}

func (m *mockSender) Send(ctx context.Context, msg push.Message) (string, error) {
	args := m.Called(ctx, msg)
	return args.String(0), args.Error(1)
}

type mockMailer struct {
	mock.Mock
}

func (m *mockMailer) Send(ctx context.Context, to, subject string, tmpl mail.Template, data map[string]string) (string, error) {
	args := m.Called(ctx, to, subject, tmpl, data)
	return args.String(0), args.Error(1)
}

func strPtr(s string) *string { return &s }

func pushNotification() *model.Notification {
	return &model.Notification{
		Base:    model.Base{ID: uuid.New()},
		Title:   "Welcome",
		Message: "Doors open at 9",
		URL:     strPtr("https://example.org/schedule"),
		Method:  model.NotificationMethodPush,
		Type:    model.NotificationTypeSystem,
	}
}

func device(token string) model.FcmDevice {
	return model.FcmDevice{Base: model.Base{ID: uuid.New()}, DeviceKey: uuid.NewString(), Token: token}
}

func TestDispatchPush(t *testing.T) {
	ctx := context.Background()
	n := pushNotification()
	ok, bad, empty := device("tok-ok"), device("tok-bad"), device("")

	s := &mockStore{}
	s.On("Get", ctx, n.ID).Return(n, nil)
	s.On("TargetDevices", ctx, model.NotificationTypeSystem, []uuid.UUID(nil)).
		Return([]model.FcmDevice{ok, bad, empty}, nil)
	s.On("SaveHistory", ctx, mock.MatchedBy(func(rows []model.NotificationHistory) bool {
		return len(rows) == 2 &&
			rows[0].DeviceID == ok.ID && rows[0].Status == model.NotificationHistorySuccess && *rows[0].MessageID == "msg-1" &&
			rows[1].DeviceID == bad.ID && rows[1].Status == model.NotificationHistoryFailed && rows[1].Exception != nil
	})).Return(nil)
	s.On("UpdateDelivery", ctx, n.ID, store.Delivery{
		Status: model.NotificationStatusSent, SuccessCount: 1, FailureCount: 1,
	}).Return(nil)

	sender := &mockSender{}
	sender.On("Send", ctx, mock.MatchedBy(func(m push.Message) bool {
		return m.Token == "tok-ok" && m.Data["notification_id"] == n.ID.String() && m.Data["url"] == *n.URL
	})).Return("msg-1", nil)
	sender.On("Send", ctx, mock.MatchedBy(func(m push.Message) bool { return m.Token == "tok-bad" })).
		Return("", push.ErrUnregistered)

	d := NewDispatcher(s, sender, nil, true, zerolog.Nop())
	res, err := d.Dispatch(ctx, Request{NotificationID: n.ID})
	require.NoError(t, err)
	assert.Equal(t, &Result{Status: model.NotificationStatusSent, Targets: 2, Success: 1, Failure: 1}, res)
	s.AssertExpectations(t)
	sender.AssertExpectations(t)
}

func TestDispatchPushAllFailed(t *testing.T) {
	ctx := context.Background()
	n := pushNotification()
	n.Type = model.NotificationTypeIndividual
	userIDs := []uuid.UUID{uuid.New()}
	dev := device("tok")

	s := &mockStore{}
	s.On("Get", ctx, n.ID).Return(n, nil)
	s.On("TargetDevices", ctx, model.NotificationTypeIndividual, userIDs).Return([]model.FcmDevice{dev}, nil)
	s.On("SaveHistory", ctx, mock.Anything).Return(nil)
	s.On("UpdateDelivery", ctx, n.ID, store.Delivery{
		Status: model.NotificationStatusFailed, FailureCount: 1,
	}).Return(nil)

	sender := &mockSender{}
	sender.On("Send", ctx, mock.Anything).Return("", errors.New("quota exceeded"))

	d := NewDispatcher(s, sender, nil, true, zerolog.Nop())
	res, err := d.Dispatch(ctx, Request{NotificationID: n.ID, UserIDs: userIDs})
	require.NoError(t, err)
	assert.Equal(t, model.NotificationStatusFailed, res.Status)
	s.AssertExpectations(t)
}

func TestDispatchNoTargets(t *testing.T) {
	ctx := context.Background()
	n := pushNotification()

	s := &mockStore{}
	s.On("Get", ctx, n.ID).Return(n, nil)
	s.On("TargetDevices", ctx, model.NotificationTypeSystem, []uuid.UUID(nil)).
		Return([]model.FcmDevice{device("")}, nil)
	s.On("UpdateDelivery", ctx, n.ID, store.Delivery{Status: model.NotificationStatusFailed}).Return(nil)

	d := NewDispatcher(s, &mockSender{}, nil, true, zerolog.Nop())
	_, err := d.Dispatch(ctx, Request{NotificationID: n.ID})
	assert.ErrorIs(t, err, ErrNoTargets)
	s.AssertExpectations(t)
}

func TestDispatchDryRun(t *testing.T) {
	tests := []struct {
		name        string
		dryRun      bool
		pushEnabled bool
	}{
		{name: "requested", dryRun: true, pushEnabled: true},
		{name: "push disabled", dryRun: false, pushEnabled: false},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			ctx := context.Background()
			n := pushNotification()
			devices := []model.FcmDevice{device("a"), device("b")}

			s := &mockStore{}
			s.On("Get", ctx, n.ID).Return(n, nil)
			s.On("TargetDevices", ctx, model.NotificationTypeSystem, []uuid.UUID(nil)).Return(devices, nil)
			s.On("SaveHistory", ctx, mock.MatchedBy(func(rows []model.NotificationHistory) bool {
				return len(rows) == 2 && rows[0].Status == model.NotificationHistoryDryRun
			})).Return(nil)
			s.On("UpdateDelivery", ctx, n.ID, store.Delivery{
				Status: model.NotificationStatusDryRun, SuccessCount: 2,
			}).Return(nil)

			sender := &mockSender{}
			d := NewDispatcher(s, sender, nil, tc.pushEnabled, zerolog.Nop())
			res, err := d.Dispatch(ctx, Request{NotificationID: n.ID, DryRun: tc.dryRun})
			require.NoError(t, err)
			assert.Equal(t, 2, res.Targets)
			sender.AssertNotCalled(t, "Send", mock.Anything, mock.Anything)
			s.AssertExpectations(t)
		})
	}
}

func TestDispatchEmail(t *testing.T) {
	ctx := context.Background()
	n := pushNotification()
	n.Method = model.NotificationMethodEmail
	n.Type = model.NotificationTypeMultiple
	userIDs := []uuid.UUID{uuid.New(), uuid.New()}
	users := []model.User{
		{Base: model.Base{ID: userIDs[0]}, Email: strPtr("a@example.org")},
		{Base: model.Base{ID: userIDs[1]}, Email: strPtr("b@example.org")},
	}

	s := &mockStore{}
	s.On("Get", ctx, n.ID).Return(n, nil)
	s.On("TargetUsers", ctx, userIDs).Return(users, nil)
	s.On("UpdateDelivery", ctx, n.ID, store.Delivery{
		Status: model.NotificationStatusSent, SuccessCount: 1, FailureCount: 1,
	}).Return(nil)

	m := &mockMailer{}
	m.On("Send", ctx, "a@example.org", "Welcome", mail.TemplateNotification, mock.Anything).Return("id-1", nil)
	m.On("Send", ctx, "b@example.org", "Welcome", mail.TemplateNotification, mock.Anything).Return("", errors.New("bounced"))

	d := NewDispatcher(s, nil, m, true, zerolog.Nop())
	res, err := d.Dispatch(ctx, Request{NotificationID: n.ID, UserIDs: userIDs})
	require.NoError(t, err)
	assert.Equal(t, 1, res.Success)
	m.AssertExpectations(t)
	s.AssertExpectations(t)
}

func TestDispatchStoreError(t *testing.T) {
	ctx := context.Background()
	n := pushNotification()
	boom := errors.New("connection reset")

	s := &mockStore{}
	s.On("Get", ctx, n.ID).Return(n, nil)
	s.On("TargetDevices", ctx, mock.Anything, mock.Anything).Return(nil, boom)
	s.On("UpdateDelivery", ctx, n.ID, store.Delivery{Status: model.NotificationStatusFailed}).Return(nil)

	d := NewDispatcher(s, &mockSender{}, nil, true, zerolog.Nop())
	_, err := d.Dispatch(ctx, Request{NotificationID: n.ID})
	assert.ErrorIs(t, err, boom)
	s.AssertExpectations(t)
}

func TestDispatchUnknownNotification(t *testing.T) {
	ctx := context.Background()
	id := uuid.New()
	s := &mockStore{}
	s.On("Get", ctx, id).Return(nil, store.ErrNotFound)

	d := NewDispatcher(s, nil, nil, true, zerolog.Nop())
	_, err := d.Dispatch(ctx, Request{NotificationID: id})
	assert.ErrorIs(t, err, store.ErrNotFound)
}
