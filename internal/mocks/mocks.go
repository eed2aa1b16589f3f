package mocks

import (
	"context"
	"io"

	"github.com/stretchr/testify/mock"

	"workspace-chat-service/internal/models"
	"workspace-chat-service/internal/repositories"
	"workspace-chat-service/internal/services"
	"workspace-chat-service/internal/storage"
	"workspace-chat-service/internal/ws"
)

type MembershipRepositoryMock struct {
	mock.Mock
}

func (m *MembershipRepositoryMock) Resolve(ctx context.Context, userID int, workspaceID int) (models.Membership, error) {
	args := m.Called(ctx, userID, workspaceID)
	var membership models.Membership
	if val := args.Get(0); val != nil {
		membership = val.(models.Membership)
	}
	return membership, args.Error(1)
}

func (m *MembershipRepositoryMock) ListMemberIDs(ctx context.Context, workspaceID int) ([]int, error) {
	args := m.Called(ctx, workspaceID)
	var ids []int
	if val := args.Get(0); val != nil {
		ids = val.([]int)
	}
	return ids, args.Error(1)
}

type RoomRepositoryMock struct {
	mock.Mock
}

func (m *RoomRepositoryMock) EnsureRoom(ctx context.Context, workspaceID int) (models.Room, error) {
	args := m.Called(ctx, workspaceID)
	var room models.Room
	if val := args.Get(0); val != nil {
		room = val.(models.Room)
	}
	return room, args.Error(1)
}

type MessageRepositoryMock struct {
	mock.Mock
}

func (m *MessageRepositoryMock) Append(ctx context.Context, roomID int, authorID int, payload models.MessagePayload) (models.Message, error) {
	args := m.Called(ctx, roomID, authorID, payload)
	var msg models.Message
	if val := args.Get(0); val != nil {
		msg = val.(models.Message)
	}
	return msg, args.Error(1)
}

func (m *MessageRepositoryMock) Page(ctx context.Context, roomID int, cursor *int, pageSize int) ([]models.Message, *int, error) {
	args := m.Called(ctx, roomID, cursor, pageSize)
	var msgs []models.Message
	if val := args.Get(0); val != nil {
		msgs = val.([]models.Message)
	}
	var next *int
	if val := args.Get(1); val != nil {
		next = val.(*int)
	}
	return msgs, next, args.Error(2)
}

type NotificationRepositoryMock struct {
	mock.Mock
}

func (m *NotificationRepositoryMock) Create(ctx context.Context, n models.Notification) (models.Notification, error) {
	args := m.Called(ctx, n)
	var stored models.Notification
	if val := args.Get(0); val != nil {
		stored = val.(models.Notification)
	}
	return stored, args.Error(1)
}

func (m *NotificationRepositoryMock) CreateBulk(ctx context.Context, ns []models.Notification) ([]models.Notification, error) {
	args := m.Called(ctx, ns)
	var stored []models.Notification
	if val := args.Get(0); val != nil {
		stored = val.([]models.Notification)
	}
	return stored, args.Error(1)
}

func (m *NotificationRepositoryMock) ListForUser(ctx context.Context, userID int, filter repositories.NotificationFilter) ([]models.Notification, int, int, error) {
	args := m.Called(ctx, userID, filter)
	var items []models.Notification
	if val := args.Get(0); val != nil {
		items = val.([]models.Notification)
	}
	return items, args.Int(1), args.Int(2), args.Error(3)
}

func (m *NotificationRepositoryMock) UnreadCount(ctx context.Context, userID int) (int, error) {
	args := m.Called(ctx, userID)
	return args.Int(0), args.Error(1)
}

func (m *NotificationRepositoryMock) MarkRead(ctx context.Context, id int, userID int) (bool, error) {
	args := m.Called(ctx, id, userID)
	return args.Bool(0), args.Error(1)
}

func (m *NotificationRepositoryMock) MarkAllRead(ctx context.Context, userID int, workspaceID *int) (int64, error) {
	args := m.Called(ctx, userID, workspaceID)
	return args.Get(0).(int64), args.Error(1)
}

func (m *NotificationRepositoryMock) Delete(ctx context.Context, id int, userID int) (bool, error) {
	args := m.Called(ctx, id, userID)
	return args.Bool(0), args.Error(1)
}

type PreferenceRepositoryMock struct {
	mock.Mock
}

func (m *PreferenceRepositoryMock) GetOrCreate(ctx context.Context, userID int, category string) (models.Preference, error) {
	args := m.Called(ctx, userID, category)
	var pref models.Preference
	if val := args.Get(0); val != nil {
		pref = val.(models.Preference)
	}
	return pref, args.Error(1)
}

func (m *PreferenceRepositoryMock) Update(ctx context.Context, userID int, category string, patch models.PreferenceUpdate) (models.Preference, error) {
	args := m.Called(ctx, userID, category, patch)
	var pref models.Preference
	if val := args.Get(0); val != nil {
		pref = val.(models.Preference)
	}
	return pref, args.Error(1)
}

func (m *PreferenceRepositoryMock) ListForUser(ctx context.Context, userID int) ([]models.Preference, error) {
	args := m.Called(ctx, userID)
	var prefs []models.Preference
	if val := args.Get(0); val != nil {
		prefs = val.([]models.Preference)
	}
	return prefs, args.Error(1)
}

type HubMock struct {
	mock.Mock
}

func (m *HubMock) JoinWorkspaceRoom(session *ws.Session, workspaceID int) {
	m.Called(session, workspaceID)
}

func (m *HubMock) BroadcastToWorkspace(workspaceID int, event any) {
	m.Called(workspaceID, event)
}

func (m *HubMock) SendToUser(userID int, event any) bool {
	args := m.Called(userID, event)
	return args.Bool(0)
}

type NotifierMock struct {
	mock.Mock
}

func (m *NotifierMock) Dispatch(ctx context.Context, kind services.NotificationKind, params services.DispatchParams) ([]models.Notification, error) {
	args := m.Called(ctx, kind, params)
	var ns []models.Notification
	if val := args.Get(0); val != nil {
		ns = val.([]models.Notification)
	}
	return ns, args.Error(1)
}

type ChatServiceMock struct {
	mock.Mock
}

func (m *ChatServiceMock) History(ctx context.Context, userID, workspaceID int, cursor *int, pageSize int) ([]models.Message, *int, error) {
	args := m.Called(ctx, userID, workspaceID, cursor, pageSize)
	var msgs []models.Message
	if val := args.Get(0); val != nil {
		msgs = val.([]models.Message)
	}
	var next *int
	if val := args.Get(1); val != nil {
		next = val.(*int)
	}
	return msgs, next, args.Error(2)
}

func (m *ChatServiceMock) Post(ctx context.Context, userID, workspaceID int, payload models.MessagePayload) (models.Message, error) {
	args := m.Called(ctx, userID, workspaceID, payload)
	var msg models.Message
	if val := args.Get(0); val != nil {
		msg = val.(models.Message)
	}
	return msg, args.Error(1)
}

type NotificationServiceMock struct {
	mock.Mock
}

func (m *NotificationServiceMock) List(ctx context.Context, userID int, filter repositories.NotificationFilter) ([]models.Notification, int, int, error) {
	args := m.Called(ctx, userID, filter)
	var items []models.Notification
	if val := args.Get(0); val != nil {
		items = val.([]models.Notification)
	}
	return items, args.Int(1), args.Int(2), args.Error(3)
}

func (m *NotificationServiceMock) UnreadCount(ctx context.Context, userID int) (int, error) {
	args := m.Called(ctx, userID)
	return args.Int(0), args.Error(1)
}

func (m *NotificationServiceMock) MarkRead(ctx context.Context, id, userID int) (bool, error) {
	args := m.Called(ctx, id, userID)
	return args.Bool(0), args.Error(1)
}

func (m *NotificationServiceMock) MarkAllRead(ctx context.Context, userID int, workspaceID *int) (int64, error) {
	args := m.Called(ctx, userID, workspaceID)
	return args.Get(0).(int64), args.Error(1)
}

func (m *NotificationServiceMock) Delete(ctx context.Context, id, userID int) (bool, error) {
	args := m.Called(ctx, id, userID)
	return args.Bool(0), args.Error(1)
}

func (m *NotificationServiceMock) Preference(ctx context.Context, userID int, category string) (models.Preference, error) {
	args := m.Called(ctx, userID, category)
	var pref models.Preference
	if val := args.Get(0); val != nil {
		pref = val.(models.Preference)
	}
	return pref, args.Error(1)
}

func (m *NotificationServiceMock) UpdatePreference(ctx context.Context, userID int, category string, patch models.PreferenceUpdate) (models.Preference, error) {
	args := m.Called(ctx, userID, category, patch)
	var pref models.Preference
	if val := args.Get(0); val != nil {
		pref = val.(models.Preference)
	}
	return pref, args.Error(1)
}

func (m *NotificationServiceMock) Preferences(ctx context.Context, userID int) ([]models.Preference, error) {
	args := m.Called(ctx, userID)
	var prefs []models.Preference
	if val := args.Get(0); val != nil {
		prefs = val.([]models.Preference)
	}
	return prefs, args.Error(1)
}

type ObjectStoreMock struct {
	mock.Mock
}

func (m *ObjectStoreMock) Upload(ctx context.Context, name string, r io.Reader, size int64, contentType string) (storage.UploadResult, error) {
	args := m.Called(ctx, name, r, size, contentType)
	var result storage.UploadResult
	if val := args.Get(0); val != nil {
		result = val.(storage.UploadResult)
	}
	return result, args.Error(1)
}
