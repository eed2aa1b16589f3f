package ws

import (
	"context"
	"encoding/json"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"workspace-chat-service/internal/models"
)

type chatStub struct {
	joinErr error
	sendMsg models.Message
	sendErr error

	joinedWorkspace int
	sentPayload     models.MessagePayload
}

func (s *chatStub) Join(_ context.Context, session *Session, workspaceID int) error {
	if s.joinErr != nil {
		return s.joinErr
	}
	s.joinedWorkspace = workspaceID
	session.markJoined(workspaceID)
	return nil
}

func (s *chatStub) Send(_ context.Context, _ *Session, _ int, payload models.MessagePayload) (models.Message, error) {
	if s.sendErr != nil {
		return models.Message{}, s.sendErr
	}
	s.sentPayload = payload
	return s.sendMsg, nil
}

func newTestSocketHandler(chat ChatService) *SocketHandler {
	return NewSocketHandler(NewHub(zap.NewNop()), chat, nil, zap.NewNop())
}

func lastAck(t *testing.T, conn *fakeConn) Ack {
	t.Helper()
	writes := conn.written()
	require.NotEmpty(t, writes)
	var ack Ack
	require.NoError(t, json.Unmarshal(writes[len(writes)-1], &ack))
	return ack
}

func TestHandleFrameJoinOk(t *testing.T) {
	chat := &chatStub{}
	h := newTestSocketHandler(chat)
	conn := newFakeConn()
	session := NewSession(1, conn, ConnInfo{})

	h.handleFrame(context.Background(), session, ClientFrame{ID: "f1", Action: ActionJoin, WorkspaceID: 5})

	ack := lastAck(t, conn)
	assert.Equal(t, "f1", ack.ID)
	assert.Equal(t, "ok", ack.Status)
	assert.Equal(t, 5, chat.joinedWorkspace)
}

func TestHandleFrameJoinForbidden(t *testing.T) {
	h := newTestSocketHandler(&chatStub{joinErr: models.ErrForbidden})
	conn := newFakeConn()
	session := NewSession(1, conn, ConnInfo{})

	h.handleFrame(context.Background(), session, ClientFrame{ID: "f1", Action: ActionJoin, WorkspaceID: 5})

	ack := lastAck(t, conn)
	assert.Equal(t, "error", ack.Status)
	assert.Equal(t, models.ErrForbidden.Error(), ack.Error)
}

func TestHandleFrameLeaveReleasesRoom(t *testing.T) {
	chat := &chatStub{}
	h := newTestSocketHandler(chat)
	conn := newFakeConn()
	session := NewSession(1, conn, ConnInfo{})

	h.handleFrame(context.Background(), session, ClientFrame{ID: "f1", Action: ActionJoin, WorkspaceID: 5})
	h.hub.JoinWorkspaceRoom(session, 5)
	require.True(t, session.Joined(5))

	h.handleFrame(context.Background(), session, ClientFrame{ID: "f2", Action: ActionLeave, WorkspaceID: 5})

	ack := lastAck(t, conn)
	assert.Equal(t, "f2", ack.ID)
	assert.Equal(t, "ok", ack.Status)
	assert.False(t, session.Joined(5))

	before := len(conn.written())
	h.hub.BroadcastToWorkspace(5, "event")
	assert.Len(t, conn.written(), before)
}

func TestHandleFrameMessageOk(t *testing.T) {
	chat := &chatStub{sendMsg: models.Message{ID: 7, Type: models.MessageTypeText, Content: "hi"}}
	h := newTestSocketHandler(chat)
	conn := newFakeConn()
	session := NewSession(1, conn, ConnInfo{})

	h.handleFrame(context.Background(), session, ClientFrame{
		ID: "f2", Action: ActionMessage, WorkspaceID: 5, Content: "hi",
		Mentions: models.Mentions{{UserID: 2, Username: "bob"}},
	})

	ack := lastAck(t, conn)
	assert.Equal(t, "f2", ack.ID)
	assert.Equal(t, "ok", ack.Status)
	require.NotNil(t, ack.Message)
	assert.Equal(t, 7, ack.Message.ID)
	assert.Equal(t, "hi", chat.sentPayload.Content)
	require.Len(t, chat.sentPayload.Mentions, 1)
	assert.Equal(t, "bob", chat.sentPayload.Mentions[0].Username)
}

func TestHandleFrameMessageNotJoined(t *testing.T) {
	h := newTestSocketHandler(&chatStub{sendErr: models.ErrNotJoined})
	conn := newFakeConn()
	session := NewSession(1, conn, ConnInfo{})

	h.handleFrame(context.Background(), session, ClientFrame{ID: "f3", Action: ActionMessage, WorkspaceID: 5, Content: "hi"})

	ack := lastAck(t, conn)
	assert.Equal(t, "error", ack.Status)
	assert.Equal(t, models.ErrNotJoined.Error(), ack.Error)
	assert.Nil(t, ack.Message)
}

func TestHandleFrameUnknownAction(t *testing.T) {
	h := newTestSocketHandler(&chatStub{})
	conn := newFakeConn()
	session := NewSession(1, conn, ConnInfo{})

	h.handleFrame(context.Background(), session, ClientFrame{ID: "f4", Action: "typing"})

	ack := lastAck(t, conn)
	assert.Equal(t, "error", ack.Status)
	assert.Equal(t, "unknown action", ack.Error)
}

func TestServeMalformedFrameThenDisconnect(t *testing.T) {
	h := newTestSocketHandler(&chatStub{})
	conn := newFakeConn()
	session := NewSession(1, conn, ConnInfo{})
	h.hub.JoinPersonalChannel(session)

	conn.reads <- []byte("{not json")
	close(conn.reads)

	done := make(chan struct{})
	go func() {
		h.serve(context.Background(), session)
		close(done)
	}()
	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("serve did not return after connection closed")
	}

	ack := lastAck(t, conn)
	assert.Equal(t, "error", ack.Status)
	assert.Equal(t, "malformed frame", ack.Error)
	assert.True(t, conn.isClosed())
	assert.False(t, h.hub.SendToUser(1, "event"))
}

func TestBearerToken(t *testing.T) {
	gin.SetMode(gin.TestMode)

	cases := []struct {
		name   string
		header string
		query  string
		want   string
	}{
		{"authorization header", "Bearer abc123", "", "abc123"},
		{"query fallback", "", "abc123", "abc123"},
		{"malformed header wins over query", "abc123", "def", ""},
		{"missing", "", "", ""},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			c, _ := gin.CreateTestContext(httptest.NewRecorder())
			target := "/ws"
			if tc.query != "" {
				target += "?token=" + tc.query
			}
			c.Request = httptest.NewRequest("GET", target, nil)
			if tc.header != "" {
				c.Request.Header.Set("Authorization", tc.header)
			}
			assert.Equal(t, tc.want, bearerToken(c))
		})
	}
}
