package models

import (
	"database/sql/driver"
	"encoding/json"
	"fmt"
	"strings"
	"time"
)

// Message types.
const (
	MessageTypeText  = "TEXT"
	MessageTypeImage = "IMAGE"
	MessageTypeAudio = "AUDIO"
)

// Room is the chat channel scoped 1:1 to a team workspace, created lazily
// on first join or send.
type Room struct {
	ID          int       `db:"id" json:"id"`
	WorkspaceID int       `db:"workspace_id" json:"workspace_id"`
	CreatedAt   time.Time `db:"created_at" json:"created_at"`
}

// Mention is an opaque (user id, username) pair carried inside a message.
type Mention struct {
	UserID   int    `json:"userId"`
	Username string `json:"username"`
}

// Mentions is stored as a JSONB column.
type Mentions []Mention

func (m Mentions) Value() (driver.Value, error) {
	if m == nil {
		return []byte("[]"), nil
	}
	return json.Marshal(m)
}

func (m *Mentions) Scan(src any) error {
	if src == nil {
		*m = nil
		return nil
	}
	switch data := src.(type) {
	case []byte:
		return json.Unmarshal(data, m)
	case string:
		return json.Unmarshal([]byte(data), m)
	default:
		return fmt.Errorf("mentions: unsupported scan type %T", src)
	}
}

// Message represents a persisted chat message. Messages are immutable once
// created and ordered by creation timestamp.
type Message struct {
	ID                   int       `db:"id" json:"id"`
	RoomID               int       `db:"room_id" json:"-"`
	Type                 string    `db:"type" json:"type"`
	Content              string    `db:"content" json:"content"`
	AttachmentURL        *string   `db:"attachment_url" json:"attachmentUrl"`
	AttachmentMimeType   *string   `db:"attachment_mime_type" json:"attachmentMimeType"`
	AttachmentDurationMs *int      `db:"attachment_duration_ms" json:"attachmentDurationMs"`
	Mentions             Mentions  `db:"mentions" json:"mentions"`
	CreatedAt            time.Time `db:"created_at" json:"createdAt"`
	Author               User      `db:"author" json:"author"`
}

// MessagePayload is the client-supplied portion of a send request.
type MessagePayload struct {
	Type                 string   `json:"type"`
	Content              string   `json:"content"`
	AttachmentURL        string   `json:"attachmentUrl"`
	AttachmentMimeType   string   `json:"attachmentMimeType"`
	AttachmentDurationMs int      `json:"attachmentDurationMs"`
	Mentions             Mentions `json:"mentions"`
}

// Normalize defaults the type, trims content and enforces the payload
// invariant: TEXT requires non-empty trimmed content and no attachment;
// IMAGE/AUDIO require an attachment url, trimmed content becomes the caption.
func (p *MessagePayload) Normalize() error {
	if p.Type == "" {
		p.Type = MessageTypeText
	}
	p.Content = strings.TrimSpace(p.Content)

	switch p.Type {
	case MessageTypeText:
		if p.AttachmentURL != "" {
			return ErrAttachmentOnText
		}
		if p.Content == "" {
			return ErrEmptyContent
		}
	case MessageTypeImage, MessageTypeAudio:
		if p.AttachmentURL == "" {
			return ErrMissingAttachment
		}
	default:
		return ErrUnknownType
	}
	return nil
}
