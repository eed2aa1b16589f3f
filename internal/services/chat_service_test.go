package services_test

import (
	"context"
	"encoding/json"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"workspace-chat-service/internal/mocks"
	"workspace-chat-service/internal/models"
	"workspace-chat-service/internal/repositories"
	"workspace-chat-service/internal/services"
	"workspace-chat-service/internal/ws"
)

type stubConn struct {
	mu     sync.Mutex
	writes [][]byte
}

func (c *stubConn) ReadMessage() (int, []byte, error) {
	return 0, nil, errors.New("not readable")
}

func (c *stubConn) WriteMessage(_ int, data []byte) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	cp := make([]byte, len(data))
	copy(cp, data)
	c.writes = append(c.writes, cp)
	return nil
}

func (c *stubConn) Close() error { return nil }

func (c *stubConn) written() [][]byte {
	c.mu.Lock()
	defer c.mu.Unlock()
	out := make([][]byte, len(c.writes))
	copy(out, c.writes)
	return out
}

type chatFixture struct {
	memberships *mocks.MembershipRepositoryMock
	rooms       *mocks.RoomRepositoryMock
	messages    *mocks.MessageRepositoryMock
	hub         *ws.Hub
	service     *services.ChatService
}

func newChatFixture(t *testing.T, notifier services.Notifier) *chatFixture {
	t.Helper()
	f := &chatFixture{
		memberships: new(mocks.MembershipRepositoryMock),
		rooms:       new(mocks.RoomRepositoryMock),
		messages:    new(mocks.MessageRepositoryMock),
		hub:         ws.NewHub(zap.NewNop()),
	}
	f.service = services.NewChatService(f.memberships, f.rooms, f.messages, f.hub, notifier, zap.NewNop())
	return f
}

func teamMembership() models.Membership {
	return models.Membership{Role: "member", WorkspaceType: models.WorkspaceTypeTeam}
}

func TestJoinNonMemberForbidden(t *testing.T) {
	f := newChatFixture(t, nil)
	session := ws.NewSession(1, &stubConn{}, ws.ConnInfo{})

	f.memberships.On("Resolve", mock.Anything, 1, 5).
		Return(models.Membership{}, repositories.ErrNotMember).Once()

	err := f.service.Join(context.Background(), session, 5)
	assert.ErrorIs(t, err, models.ErrForbidden)
	f.rooms.AssertNotCalled(t, "EnsureRoom", mock.Anything, mock.Anything)
	f.memberships.AssertExpectations(t)
}

func TestJoinPersonalWorkspaceForbidden(t *testing.T) {
	f := newChatFixture(t, nil)
	session := ws.NewSession(1, &stubConn{}, ws.ConnInfo{})

	f.memberships.On("Resolve", mock.Anything, 1, 5).
		Return(models.Membership{Role: "owner", WorkspaceType: models.WorkspaceTypePersonal}, nil).Once()

	err := f.service.Join(context.Background(), session, 5)
	assert.ErrorIs(t, err, models.ErrForbidden)
	f.rooms.AssertNotCalled(t, "EnsureRoom", mock.Anything, mock.Anything)
}

func TestJoinIsIdempotent(t *testing.T) {
	f := newChatFixture(t, nil)
	session := ws.NewSession(1, &stubConn{}, ws.ConnInfo{})

	f.memberships.On("Resolve", mock.Anything, 1, 5).Return(teamMembership(), nil).Twice()
	f.rooms.On("EnsureRoom", mock.Anything, 5).Return(models.Room{ID: 3, WorkspaceID: 5}, nil).Once()

	require.NoError(t, f.service.Join(context.Background(), session, 5))
	require.NoError(t, f.service.Join(context.Background(), session, 5))

	assert.True(t, session.Joined(5))
	f.memberships.AssertExpectations(t)
	f.rooms.AssertExpectations(t)
}

func TestSendRequiresJoin(t *testing.T) {
	f := newChatFixture(t, nil)
	session := ws.NewSession(1, &stubConn{}, ws.ConnInfo{})

	_, err := f.service.Send(context.Background(), session, 5, models.MessagePayload{Content: "hi"})
	assert.ErrorIs(t, err, models.ErrNotJoined)
	f.memberships.AssertNotCalled(t, "Resolve", mock.Anything, mock.Anything, mock.Anything)
}

func TestSendValidationError(t *testing.T) {
	f := newChatFixture(t, nil)
	session := ws.NewSession(1, &stubConn{}, ws.ConnInfo{})

	f.memberships.On("Resolve", mock.Anything, 1, 5).Return(teamMembership(), nil)
	f.rooms.On("EnsureRoom", mock.Anything, 5).Return(models.Room{ID: 3, WorkspaceID: 5}, nil)
	require.NoError(t, f.service.Join(context.Background(), session, 5))

	_, err := f.service.Send(context.Background(), session, 5, models.MessagePayload{Content: "   "})
	assert.ErrorIs(t, err, models.ErrValidationFailed)
	f.messages.AssertNotCalled(t, "Append", mock.Anything, mock.Anything, mock.Anything, mock.Anything)
}

func TestSendBroadcastsStoredMessageAndNotifies(t *testing.T) {
	notifier := new(mocks.NotifierMock)
	f := newChatFixture(t, notifier)

	senderConn, peerConn := &stubConn{}, &stubConn{}
	sender := ws.NewSession(1, senderConn, ws.ConnInfo{})
	peer := ws.NewSession(2, peerConn, ws.ConnInfo{})

	f.memberships.On("Resolve", mock.Anything, 1, 5).Return(teamMembership(), nil)
	f.memberships.On("Resolve", mock.Anything, 2, 5).Return(teamMembership(), nil)
	f.rooms.On("EnsureRoom", mock.Anything, 5).Return(models.Room{ID: 3, WorkspaceID: 5}, nil)
	require.NoError(t, f.service.Join(context.Background(), sender, 5))
	require.NoError(t, f.service.Join(context.Background(), peer, 5))

	stored := models.Message{
		ID:      9,
		RoomID:  3,
		Type:    models.MessageTypeText,
		Content: "hi",
		Author:  models.User{ID: 1, Username: "alice"},
	}
	f.messages.On("Append", mock.Anything, 3, 1, mock.Anything).Return(stored, nil).Once()
	f.memberships.On("ListMemberIDs", mock.Anything, 5).Return([]int{1, 2}, nil).Once()

	dispatched := make(chan services.DispatchParams, 1)
	notifier.On("Dispatch", mock.Anything, services.KindChatMessage, mock.Anything).
		Run(func(args mock.Arguments) {
			dispatched <- args.Get(2).(services.DispatchParams)
		}).
		Return([]models.Notification{}, nil).Once()

	msg, err := f.service.Send(context.Background(), sender, 5, models.MessagePayload{Content: "hi"})
	require.NoError(t, err)
	assert.Equal(t, 9, msg.ID)

	// Broadcast carries the persisted row, to every joined session.
	require.Len(t, peerConn.written(), 1)
	var event models.RoomEvent
	require.NoError(t, json.Unmarshal(peerConn.written()[0], &event))
	assert.Equal(t, models.EventMessage, event.Type)
	assert.Equal(t, 5, event.WorkspaceID)
	require.NotNil(t, event.Message)
	assert.Equal(t, 9, event.Message.ID)
	require.Len(t, senderConn.written(), 1)

	select {
	case params := <-dispatched:
		assert.Equal(t, 1, params.ActorID)
		assert.Equal(t, "alice", params.ActorName)
		assert.Equal(t, []int{1, 2}, params.RecipientIDs)
		assert.Equal(t, "hi", params.Subject)
	case <-time.After(time.Second):
		t.Fatal("notification dispatch never happened")
	}
	notifier.AssertExpectations(t)
}

func TestPostDoesNotRequireJoin(t *testing.T) {
	f := newChatFixture(t, nil)

	f.memberships.On("Resolve", mock.Anything, 1, 5).Return(teamMembership(), nil).Once()
	f.rooms.On("EnsureRoom", mock.Anything, 5).Return(models.Room{ID: 3, WorkspaceID: 5}, nil).Once()
	stored := models.Message{ID: 4, RoomID: 3, Type: models.MessageTypeText, Content: "hi"}
	f.messages.On("Append", mock.Anything, 3, 1, mock.Anything).Return(stored, nil).Once()

	msg, err := f.service.Post(context.Background(), 1, 5, models.MessagePayload{Content: "hi"})
	require.NoError(t, err)
	assert.Equal(t, 4, msg.ID)
	f.messages.AssertExpectations(t)
}

func TestPostNonMemberForbidden(t *testing.T) {
	f := newChatFixture(t, nil)

	f.memberships.On("Resolve", mock.Anything, 1, 5).
		Return(models.Membership{}, repositories.ErrNotMember).Once()

	_, err := f.service.Post(context.Background(), 1, 5, models.MessagePayload{Content: "hi"})
	assert.ErrorIs(t, err, models.ErrForbidden)
}

func TestHistoryPassesCursorThrough(t *testing.T) {
	f := newChatFixture(t, nil)

	cursor := 40
	next := 21
	page := []models.Message{{ID: 39}, {ID: 21}}

	f.memberships.On("Resolve", mock.Anything, 1, 5).Return(teamMembership(), nil).Once()
	f.rooms.On("EnsureRoom", mock.Anything, 5).Return(models.Room{ID: 3, WorkspaceID: 5}, nil).Once()
	f.messages.On("Page", mock.Anything, 3, &cursor, 25).Return(page, &next, nil).Once()

	messages, nextCursor, err := f.service.History(context.Background(), 1, 5, &cursor, 25)
	require.NoError(t, err)
	assert.Equal(t, page, messages)
	require.NotNil(t, nextCursor)
	assert.Equal(t, 21, *nextCursor)
	f.messages.AssertExpectations(t)
}

func TestHistoryForbidden(t *testing.T) {
	f := newChatFixture(t, nil)

	f.memberships.On("Resolve", mock.Anything, 1, 5).
		Return(models.Membership{}, repositories.ErrNotMember).Once()

	_, _, err := f.service.History(context.Background(), 1, 5, nil, 0)
	assert.ErrorIs(t, err, models.ErrForbidden)
	f.messages.AssertNotCalled(t, "Page", mock.Anything, mock.Anything, mock.Anything, mock.Anything)
}
