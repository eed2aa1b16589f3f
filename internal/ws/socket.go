package ws

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
	"go.opentelemetry.io/otel"
	"go.uber.org/zap"

	"workspace-chat-service/internal/auth"
	"workspace-chat-service/internal/models"
	"workspace-chat-service/internal/observability"
)

// ChatService is the slice of the chat session service the socket layer
// drives. Implemented by services.ChatService.
type ChatService interface {
	Join(ctx context.Context, session *Session, workspaceID int) error
	Send(ctx context.Context, session *Session, workspaceID int, payload models.MessagePayload) (models.Message, error)
}

// SocketHandler owns the /ws endpoint: token verification before the
// upgrade, the automatic personal-channel subscription, and the
// per-connection read loop.
type SocketHandler struct {
	hub      *Hub
	chat     ChatService
	verifier auth.TokenVerifier
	log      *zap.Logger
}

// NewSocketHandler constructs a SocketHandler.
func NewSocketHandler(hub *Hub, chat ChatService, verifier auth.TokenVerifier, log *zap.Logger) *SocketHandler {
	return &SocketHandler{hub: hub, chat: chat, verifier: verifier, log: log}
}

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin:     func(r *http.Request) bool { return true },
}

// Handle authenticates and upgrades the connection, then serves it until
// it drops. Rejection happens before the upgrade with no retry.
func (h *SocketHandler) Handle(c *gin.Context) {
	ctx, span := otel.Tracer("workspace-chat/ws").Start(c.Request.Context(), "ws.handshake")
	defer span.End()
	c.Request = c.Request.WithContext(ctx)

	token := bearerToken(c)
	if token == "" {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "missing token"})
		return
	}
	userID, err := h.verifier.Verify(ctx, token)
	if err != nil {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "invalid token"})
		return
	}

	conn, err := upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		return
	}

	meta := observability.MetaFromRequest(c.Request)
	info := ConnInfo{
		ConnID:      newConnID(),
		UserID:      userID,
		DeviceID:    meta.DeviceID,
		IP:          meta.IP,
		RequestID:   meta.RequestID,
		TraceID:     span.SpanContext().TraceID().String(),
		ConnectedAt: time.Now(),
	}
	session := NewSession(userID, conn, info)
	h.hub.JoinPersonalChannel(session)

	observability.IncWSActive()
	observability.IncWSEvent("ws_connect")
	h.publishWSEvent(ctx, "ws_connect", info, "")

	go h.serve(ctx, session)
}

func bearerToken(c *gin.Context) string {
	header := c.GetHeader("Authorization")
	if header != "" {
		const prefix = "Bearer "
		if len(header) > len(prefix) && header[:len(prefix)] == prefix {
			return header[len(prefix):]
		}
		return ""
	}
	return c.Query("token")
}

// serve runs the read loop until the connection drops, then releases every
// hub association.
func (h *SocketHandler) serve(ctx context.Context, session *Session) {
	var closeReason string
	defer func() {
		h.hub.Disconnect(session)
		_ = session.Close()
		observability.DecWSActive()
		observability.IncWSEvent("ws_disconnect")
		h.publishWSEvent(ctx, "ws_disconnect", session.Info, closeReason)
	}()

	for {
		_, data, err := session.conn.ReadMessage()
		if err != nil {
			closeReason = err.Error()
			if !websocket.IsCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway) {
				observability.IncWSEvent("ws_error")
			}
			return
		}

		var frame ClientFrame
		if err := json.Unmarshal(data, &frame); err != nil {
			h.writeAck(session, Ack{Status: "error", Error: "malformed frame"})
			continue
		}
		h.handleFrame(ctx, session, frame)
	}
}

// handleFrame dispatches one client request and writes its single ack.
// Failures are resolved locally into the ack; they never touch other
// sessions.
func (h *SocketHandler) handleFrame(ctx context.Context, session *Session, frame ClientFrame) {
	switch frame.Action {
	case ActionJoin:
		if err := h.chat.Join(ctx, session, frame.WorkspaceID); err != nil {
			h.writeAck(session, errorAck(frame.ID, err))
			return
		}
		h.writeAck(session, okAck(frame.ID))

	case ActionLeave:
		h.hub.LeaveWorkspaceRoom(session, frame.WorkspaceID)
		h.writeAck(session, okAck(frame.ID))

	case ActionMessage:
		payload := models.MessagePayload{
			Type:                 frame.Type,
			Content:              frame.Content,
			AttachmentURL:        frame.AttachmentURL,
			AttachmentMimeType:   frame.AttachmentMimeType,
			AttachmentDurationMs: frame.AttachmentDurationMs,
			Mentions:             frame.Mentions,
		}
		msg, err := h.chat.Send(ctx, session, frame.WorkspaceID, payload)
		if err != nil {
			h.writeAck(session, errorAck(frame.ID, err))
			return
		}
		ack := okAck(frame.ID)
		ack.Message = &msg
		h.writeAck(session, ack)

	default:
		h.writeAck(session, errorAck(frame.ID, errors.New("unknown action")))
	}
}

// writeAck best-effort writes the reply; a dropped connection makes it a
// no-op rather than an error.
func (h *SocketHandler) writeAck(session *Session, ack Ack) {
	if err := session.Send(ack); err != nil {
		h.log.Debug("ack write skipped, connection gone",
			zap.String("conn_id", session.Info.ConnID),
			zap.Error(err))
	}
}

func (h *SocketHandler) publishWSEvent(ctx context.Context, event string, info ConnInfo, reason string) {
	payload := map[string]any{
		"ws": map[string]any{
			"event":       event,
			"conn_id":     info.ConnID,
			"duration_ms": time.Since(info.ConnectedAt).Milliseconds(),
			"reason":      reason,
		},
		"identity": map[string]any{
			"user_id":   info.UserID,
			"device_id": info.DeviceID,
			"ip":        info.IP,
		},
	}
	err := observability.PublishEvent(ctx, "ws_events.sessions", observability.EventEnvelope{
		EventType: "ws_events",
		EventName: event,
		Payload:   payload,
	}, observability.BuildHeaders(info.RequestID, info.TraceID))
	if err != nil {
		h.log.Warn("ws event publish failed", zap.String("event", event), zap.Error(err))
	}
}
