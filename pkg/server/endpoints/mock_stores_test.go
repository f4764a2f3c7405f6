package endpoints

import (
	"context"
	"io"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/mock"
	"gorm.io/datatypes"

	"github.com/confportal/conf-portal-api/pkg/authenticator"
	"github.com/confportal/conf-portal-api/pkg/jobs"
	"github.com/confportal/conf-portal-api/pkg/model"
	"github.com/confportal/conf-portal-api/pkg/server/store"
	"github.com/confportal/conf-portal-api/pkg/storage"
	"github.com/confportal/conf-portal-api/pkg/token"
)

func testResponder() responder {
	logger := zerolog.Nop()
	return responder{debug: true, logger: &logger}
}

// mockCRUD implements store.CRUDStore[T] for testing using testify/mock
type mockCRUD[T any] struct {
	mock.Mock
}

func (m *mockCRUD[T]) Get(ctx context.Context, id uuid.UUID) (*T, error) {
	args := m.MethodCalled("Get", id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*T), args.Error(1)
}

func (m *mockCRUD[T]) GetAny(ctx context.Context, id uuid.UUID) (*T, error) {
	args := m.MethodCalled("GetAny", id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*T), args.Error(1)
}

func (m *mockCRUD[T]) List(ctx context.Context, deleted bool) ([]T, error) {
	args := m.MethodCalled("List", deleted)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]T), args.Error(1)
}

func (m *mockCRUD[T]) Pages(ctx context.Context, q store.PageQuery) (*store.Page[T], error) {
	args := m.MethodCalled("Pages", q)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*store.Page[T]), args.Error(1)
}

func (m *mockCRUD[T]) Create(ctx context.Context, item *T) error {
	return m.MethodCalled("Create", item).Error(0)
}

func (m *mockCRUD[T]) Update(ctx context.Context, item *T) error {
	return m.MethodCalled("Update", item).Error(0)
}

func (m *mockCRUD[T]) SoftDelete(ctx context.Context, id uuid.UUID, reason string) error {
	return m.MethodCalled("SoftDelete", id, reason).Error(0)
}

func (m *mockCRUD[T]) Delete(ctx context.Context, id uuid.UUID) error {
	return m.MethodCalled("Delete", id).Error(0)
}

func (m *mockCRUD[T]) Restore(ctx context.Context, ids []uuid.UUID) (int64, error) {
	args := m.MethodCalled("Restore", ids)
	return args.Get(0).(int64), args.Error(1)
}

type mockUsersStore struct {
	mockCRUD[model.User]
}

func (m *mockUsersStore) GetByEmail(ctx context.Context, email string) (*model.User, error) {
	args := m.MethodCalled("GetByEmail", email)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.User), args.Error(1)
}

func (m *mockUsersStore) Exists(ctx context.Context, email, phone string) (bool, error) {
	args := m.MethodCalled("Exists", email, phone)
	return args.Bool(0), args.Error(1)
}

func (m *mockUsersStore) FindForLogin(ctx context.Context, provider, uid, email string) (*model.User, error) {
	args := m.MethodCalled("FindForLogin", provider, uid, email)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.User), args.Error(1)
}

func (m *mockUsersStore) CreateWithProfile(ctx context.Context, user *model.User, profile *model.UserProfile) error {
	return m.MethodCalled("CreateWithProfile", user, profile).Error(0)
}

func (m *mockUsersStore) LinkProvider(ctx context.Context, userID uuid.UUID, provider, uid string, data datatypes.JSON) error {
	return m.MethodCalled("LinkProvider", userID, provider, uid, data).Error(0)
}

func (m *mockUsersStore) TouchLogin(ctx context.Context, userID uuid.UUID, at time.Time) error {
	return m.MethodCalled("TouchLogin", userID, at).Error(0)
}

func (m *mockUsersStore) SetPassword(ctx context.Context, userID uuid.UUID, hash string, at time.Time) error {
	return m.MethodCalled("SetPassword", userID, hash, at).Error(0)
}

func (m *mockUsersStore) UpdateProfile(ctx context.Context, userID uuid.UUID, update store.ProfileUpdate) error {
	return m.MethodCalled("UpdateProfile", userID, update).Error(0)
}

func (m *mockUsersStore) AdminGrants(ctx context.Context, user *model.User, now time.Time) (*store.Grants, error) {
	args := m.MethodCalled("AdminGrants", user, now)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*store.Grants), args.Error(1)
}

func (m *mockUsersStore) SetRoles(ctx context.Context, userID uuid.UUID, roleIDs []uuid.UUID) error {
	return m.MethodCalled("SetRoles", userID, roleIDs).Error(0)
}

func (m *mockUsersStore) RoleIDs(ctx context.Context, userID uuid.UUID) ([]uuid.UUID, error) {
	args := m.MethodCalled("RoleIDs", userID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]uuid.UUID), args.Error(1)
}

type mockPasswordResetStore struct {
	mock.Mock
}

func (m *mockPasswordResetStore) Create(ctx context.Context, t *model.PasswordResetToken) error {
	return m.Called(t).Error(0)
}

func (m *mockPasswordResetStore) Redeem(ctx context.Context, tokenHash, passwordHash string, now time.Time) (*model.PasswordResetToken, error) {
	args := m.Called(tokenHash, passwordHash, now)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.PasswordResetToken), args.Error(1)
}

type mockConferenceStore struct {
	mockCRUD[model.Conference]
}

func (m *mockConferenceStore) Active(ctx context.Context) (*model.Conference, error) {
	args := m.MethodCalled("Active")
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.Conference), args.Error(1)
}

func (m *mockConferenceStore) Instructors(ctx context.Context, conferenceID uuid.UUID) ([]model.ConferenceInstructor, error) {
	args := m.MethodCalled("Instructors", conferenceID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]model.ConferenceInstructor), args.Error(1)
}

func (m *mockConferenceStore) SetInstructors(ctx context.Context, conferenceID uuid.UUID, instructors []model.ConferenceInstructor) error {
	return m.MethodCalled("SetInstructors", conferenceID, instructors).Error(0)
}

type mockEventScheduleStore struct {
	mockCRUD[model.EventSchedule]
}

func (m *mockEventScheduleStore) ByConference(ctx context.Context, conferenceID uuid.UUID) ([]model.EventSchedule, error) {
	args := m.MethodCalled("ByConference", conferenceID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]model.EventSchedule), args.Error(1)
}

type mockWorkshopStore struct {
	mockCRUD[model.Workshop]
}

func (m *mockWorkshopStore) SetSequence(ctx context.Context, id uuid.UUID, sequence float64) error {
	return m.MethodCalled("SetSequence", id, sequence).Error(0)
}

func (m *mockWorkshopStore) Instructors(ctx context.Context, workshopID uuid.UUID) ([]model.WorkshopInstructor, error) {
	args := m.MethodCalled("Instructors", workshopID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]model.WorkshopInstructor), args.Error(1)
}

func (m *mockWorkshopStore) SetInstructors(ctx context.Context, workshopID uuid.UUID, instructors []model.WorkshopInstructor) error {
	return m.MethodCalled("SetInstructors", workshopID, instructors).Error(0)
}

type mockRegistrationStore struct {
	mockCRUD[model.WorkshopRegistration]
}

func (m *mockRegistrationStore) Unregister(ctx context.Context, id uuid.UUID, at time.Time) error {
	return m.MethodCalled("Unregister", id, at).Error(0)
}

type mockFaqStore struct {
	mockCRUD[model.Faq]
}

func (m *mockFaqStore) ByCategory(ctx context.Context, categoryID uuid.UUID) ([]model.Faq, error) {
	args := m.MethodCalled("ByCategory", categoryID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]model.Faq), args.Error(1)
}

type mockFaqCategoryStore struct {
	mockCRUD[model.FaqCategory]
}

type mockDevicesStore struct {
	mock.Mock
}

func (m *mockDevicesStore) Register(ctx context.Context, device *model.FcmDevice) error {
	return m.Called(device).Error(0)
}

func (m *mockDevicesStore) Bind(ctx context.Context, userID uuid.UUID, deviceKey string) (uuid.UUID, error) {
	args := m.Called(userID, deviceKey)
	return args.Get(0).(uuid.UUID), args.Error(1)
}

func (m *mockDevicesStore) UserDeviceIDs(ctx context.Context, userID uuid.UUID) ([]uuid.UUID, error) {
	args := m.Called(userID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]uuid.UUID), args.Error(1)
}

type mockNotificationStore struct {
	mockCRUD[model.Notification]
}

func (m *mockNotificationStore) TargetDevices(ctx context.Context, typ model.NotificationType, userIDs []uuid.UUID) ([]model.FcmDevice, error) {
	args := m.MethodCalled("TargetDevices", typ, userIDs)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]model.FcmDevice), args.Error(1)
}

func (m *mockNotificationStore) TargetUsers(ctx context.Context, userIDs []uuid.UUID) ([]model.User, error) {
	args := m.MethodCalled("TargetUsers", userIDs)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]model.User), args.Error(1)
}

func (m *mockNotificationStore) SaveHistory(ctx context.Context, rows []model.NotificationHistory) error {
	return m.MethodCalled("SaveHistory", rows).Error(0)
}

func (m *mockNotificationStore) UpdateDelivery(ctx context.Context, id uuid.UUID, d store.Delivery) error {
	return m.MethodCalled("UpdateDelivery", id, d).Error(0)
}

func (m *mockNotificationStore) HistoryPages(ctx context.Context, q store.PageQuery) (*store.Page[model.NotificationHistory], error) {
	args := m.MethodCalled("HistoryPages", q)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*store.Page[model.NotificationHistory]), args.Error(1)
}

func (m *mockNotificationStore) UserHistory(ctx context.Context, userID uuid.UUID) ([]store.UserNotification, error) {
	args := m.MethodCalled("UserHistory", userID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]store.UserNotification), args.Error(1)
}

func (m *mockNotificationStore) MarkRead(ctx context.Context, userID, historyID uuid.UUID) error {
	return m.MethodCalled("MarkRead", userID, historyID).Error(0)
}

func (m *mockNotificationStore) MarkAllRead(ctx context.Context, userID uuid.UUID) (int64, error) {
	args := m.MethodCalled("MarkAllRead", userID)
	return args.Get(0).(int64), args.Error(1)
}

type mockFileStore struct {
	mockCRUD[model.File]
}

func (m *mockFileStore) MarkDeleted(ctx context.Context, ids []uuid.UUID) ([]model.File, error) {
	args := m.MethodCalled("MarkDeleted", ids)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]model.File), args.Error(1)
}

type mockLogStore struct {
	mock.Mock
}

func (m *mockLogStore) Pages(ctx context.Context, q store.PageQuery) (*store.Page[model.Log], error) {
	args := m.Called(q)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*store.Page[model.Log]), args.Error(1)
}

type mockHealthStore struct {
	mock.Mock
}

func (m *mockHealthStore) CheckConnectivity(ctx context.Context) error {
	return m.Called().Error(0)
}

type mockPinger struct {
	mock.Mock
}

func (m *mockPinger) Ping(ctx context.Context) error {
	return m.Called().Error(0)
}

type mockResourcesStore struct {
	mockCRUD[model.Resource]
}

func (m *mockResourcesStore) Active(ctx context.Context) ([]model.Resource, error) {
	args := m.MethodCalled("Active")
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]model.Resource), args.Error(1)
}

func (m *mockResourcesStore) Menus(ctx context.Context, codes []string) ([]model.Resource, error) {
	args := m.MethodCalled("Menus", codes)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]model.Resource), args.Error(1)
}

func (m *mockResourcesStore) ChangeParent(ctx context.Context, id uuid.UUID, pid *uuid.UUID) error {
	return m.MethodCalled("ChangeParent", id, pid).Error(0)
}

func (m *mockResourcesStore) ChangeSequence(ctx context.Context, changes []store.SequenceChange) error {
	return m.MethodCalled("ChangeSequence", changes).Error(0)
}

type mockRolesStore struct {
	mockCRUD[model.Role]
}

func (m *mockRolesStore) PermissionIDs(ctx context.Context, roleID uuid.UUID) ([]uuid.UUID, error) {
	args := m.MethodCalled("PermissionIDs", roleID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]uuid.UUID), args.Error(1)
}

func (m *mockRolesStore) AssignPermissions(ctx context.Context, roleID uuid.UUID, permissionIDs []uuid.UUID) error {
	return m.MethodCalled("AssignPermissions", roleID, permissionIDs).Error(0)
}

func (m *mockRolesStore) RevokePermissions(ctx context.Context, roleID uuid.UUID, permissionIDs []uuid.UUID) error {
	return m.MethodCalled("RevokePermissions", roleID, permissionIDs).Error(0)
}

func (m *mockRolesStore) UserIDs(ctx context.Context, roleID uuid.UUID) ([]uuid.UUID, error) {
	args := m.MethodCalled("UserIDs", roleID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]uuid.UUID), args.Error(1)
}

// Token, cache and authenticator doubles

type mockAccessTokens struct {
	mock.Mock
}

func (m *mockAccessTokens) Issue(kind token.Kind, sub token.Subject) (string, time.Time, error) {
	args := m.Called(kind, sub)
	return args.String(0), args.Get(1).(time.Time), args.Error(2)
}

type mockRefreshTokens struct {
	mock.Mock
}

func (m *mockRefreshTokens) Issue(ctx context.Context, userID, deviceID, familyID uuid.UUID, client token.Client) (string, *model.RefreshToken, error) {
	args := m.Called(userID, deviceID, familyID, client)
	rt, _ := args.Get(1).(*model.RefreshToken)
	return args.String(0), rt, args.Error(2)
}

func (m *mockRefreshTokens) Lookup(ctx context.Context, raw string) (*model.RefreshToken, error) {
	args := m.Called(raw)
	rt, _ := args.Get(0).(*model.RefreshToken)
	return rt, args.Error(1)
}

func (m *mockRefreshTokens) Rotate(ctx context.Context, raw string, client token.Client) (string, *model.RefreshToken, error) {
	args := m.Called(raw, client)
	rt, _ := args.Get(1).(*model.RefreshToken)
	return args.String(0), rt, args.Error(2)
}

func (m *mockRefreshTokens) RevokeFamily(ctx context.Context, familyID uuid.UUID, reason string) error {
	return m.Called(familyID, reason).Error(0)
}

func (m *mockRefreshTokens) RevokeUser(ctx context.Context, userID uuid.UUID, reason string) error {
	return m.Called(userID, reason).Error(0)
}

func (m *mockRefreshTokens) Hash(raw string) string {
	return "hash:" + raw
}

type mockBlacklist struct {
	mock.Mock
}

func (m *mockBlacklist) Add(ctx context.Context, raw string, expiresAt time.Time) bool {
	return m.Called(raw, expiresAt).Bool(0)
}

func (m *mockBlacklist) AddRefresh(ctx context.Context, raw string, expiresAt time.Time) bool {
	return m.Called(raw, expiresAt).Bool(0)
}

func (m *mockBlacklist) IsRefreshBlacklisted(ctx context.Context, raw string) bool {
	return m.Called(raw).Bool(0)
}

type mockGrantCache struct {
	mock.Mock
}

func (m *mockGrantCache) Warm(ctx context.Context, userID uuid.UUID, roles, permissions []string) error {
	return m.Called(userID, roles, permissions).Error(0)
}

func (m *mockGrantCache) Clear(ctx context.Context, userID uuid.UUID) error {
	return m.Called(userID).Error(0)
}

// stubAuthenticators serves a fixed set of authenticators.
type stubAuthenticators map[string]authenticator.Authenticator

func (s stubAuthenticators) Lookup(name string) (authenticator.Authenticator, bool) {
	a, ok := s[name]
	return a, ok
}

type mockAuthenticator struct {
	mock.Mock
	name string
}

func (m *mockAuthenticator) Name() string { return m.name }

func (m *mockAuthenticator) Authenticate(ctx context.Context, input authenticator.Input) (*authenticator.Result, error) {
	args := m.Called(input)
	res, _ := args.Get(0).(*authenticator.Result)
	return res, args.Error(1)
}

func (m *mockAuthenticator) Status(ctx context.Context) error {
	return nil
}

type mockHasher struct {
	mock.Mock
}

func (m *mockHasher) Hash(plain string) (string, error) {
	args := m.Called(plain)
	return args.String(0), args.Error(1)
}

type mockQueue struct {
	mock.Mock
}

func (m *mockQueue) EnqueueNotification(ctx context.Context, p jobs.NotificationPayload) error {
	return m.Called(p).Error(0)
}

func (m *mockQueue) EnqueueEmail(ctx context.Context, p jobs.EmailPayload) error {
	return m.Called(p).Error(0)
}

type mockStorage struct {
	mock.Mock
}

func (m *mockStorage) Bucket() string { return "portal-test" }
func (m *mockStorage) Region() string { return "ap-northeast-1" }

func (m *mockStorage) NewKey(filename string) string {
	return m.Called(filename).String(0)
}

func (m *mockStorage) Upload(ctx context.Context, key string, body io.Reader, contentType string) (*storage.Object, error) {
	data, _ := io.ReadAll(body)
	args := m.Called(key, string(data), contentType)
	obj, _ := args.Get(0).(*storage.Object)
	return obj, args.Error(1)
}

func (m *mockStorage) DeleteMany(ctx context.Context, keys []string) error {
	return m.Called(keys).Error(0)
}

func (m *mockStorage) PresignGet(ctx context.Context, key string) (string, time.Time, error) {
	args := m.Called(key)
	return args.String(0), args.Get(1).(time.Time), args.Error(2)
}

var (
	_ store.UsersStore        = (*mockUsersStore)(nil)
	_ store.ConferenceStore   = (*mockConferenceStore)(nil)
	_ store.WorkshopStore     = (*mockWorkshopStore)(nil)
	_ store.RegistrationStore = (*mockRegistrationStore)(nil)
	_ store.NotificationStore = (*mockNotificationStore)(nil)
	_ store.FileStore         = (*mockFileStore)(nil)
	_ store.ResourcesStore    = (*mockResourcesStore)(nil)
	_ store.RolesStore        = (*mockRolesStore)(nil)
	_ refreshTokens           = (*mockRefreshTokens)(nil)
)
