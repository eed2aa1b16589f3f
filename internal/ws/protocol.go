package ws

import "workspace-chat-service/internal/models"

// Client actions.
const (
	ActionJoin    = "join"
	ActionLeave   = "leave"
	ActionMessage = "message"
)

// ClientFrame is one client request over the socket. The id correlates the
// single ack the server writes back.
type ClientFrame struct {
	ID                   string          `json:"id"`
	Action               string          `json:"action"`
	WorkspaceID          int             `json:"workspaceId"`
	Type                 string          `json:"type"`
	Content              string          `json:"content"`
	AttachmentURL        string          `json:"attachmentUrl"`
	AttachmentMimeType   string          `json:"attachmentMimeType"`
	AttachmentDurationMs int             `json:"attachmentDurationMs"`
	Mentions             models.Mentions `json:"mentions"`
}

// Ack is the single reply to a client frame.
type Ack struct {
	ID      string          `json:"id,omitempty"`
	Status  string          `json:"status"`
	Error   string          `json:"error,omitempty"`
	Message *models.Message `json:"message,omitempty"`
}

func okAck(id string) Ack {
	return Ack{ID: id, Status: "ok"}
}

func errorAck(id string, err error) Ack {
	return Ack{ID: id, Status: "error", Error: err.Error()}
}
