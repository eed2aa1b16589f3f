package repositories

import (
	"context"
	"database/sql"
	"errors"

	"github.com/jmoiron/sqlx"

	"workspace-chat-service/internal/models"
)

var ErrMessageNotFound = errors.New("message not found")

// DefaultPageSize bounds history pages when the caller passes no limit.
const (
	DefaultPageSize = 50
	MaxPageSize     = 100
)

// MessageRepository defines interactions for chat messages.
type MessageRepository interface {
	Append(ctx context.Context, roomID int, authorID int, payload models.MessagePayload) (models.Message, error)
	Page(ctx context.Context, roomID int, cursor *int, pageSize int) ([]models.Message, *int, error)
}

// MessageRepo is a sqlx-backed repository.
type MessageRepo struct {
	db *sqlx.DB
}

// NewMessageRepo constructs MessageRepo.
func NewMessageRepo(db *sqlx.DB) *MessageRepo {
	return &MessageRepo{db: db}
}

const messageColumns = `m.id, m.room_id, m.type, m.content, m.attachment_url, m.attachment_mime_type,
        m.attachment_duration_ms, m.mentions, m.created_at,
        u.id AS "author.id", u.email AS "author.email", u.first_name AS "author.first_name",
        u.last_name AS "author.last_name", u.username AS "author.username"`

// Append validates the payload once more and inserts the message with a
// server-side creation timestamp. The stored row is returned joined with
// its author profile.
func (r *MessageRepo) Append(ctx context.Context, roomID int, authorID int, payload models.MessagePayload) (models.Message, error) {
	if err := payload.Normalize(); err != nil {
		return models.Message{}, err
	}

	var attachmentURL, attachmentMime *string
	var attachmentDuration *int
	if payload.AttachmentURL != "" {
		attachmentURL = &payload.AttachmentURL
	}
	if payload.AttachmentMimeType != "" {
		attachmentMime = &payload.AttachmentMimeType
	}
	if payload.AttachmentDurationMs > 0 {
		attachmentDuration = &payload.AttachmentDurationMs
	}

	var id int
	err := r.db.QueryRowxContext(ctx, `INSERT INTO chat_messages
        (room_id, author_id, type, content, attachment_url, attachment_mime_type, attachment_duration_ms, mentions)
        VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
        RETURNING id`,
		roomID, authorID, payload.Type, payload.Content, attachmentURL, attachmentMime, attachmentDuration, payload.Mentions).
		Scan(&id)
	if err != nil {
		return models.Message{}, err
	}

	var msg models.Message
	err = r.db.GetContext(ctx, &msg, `SELECT `+messageColumns+`
        FROM chat_messages m
        JOIN users u ON u.id = m.author_id
        WHERE m.id = $1`, id)
	if errors.Is(err, sql.ErrNoRows) {
		return models.Message{}, ErrMessageNotFound
	}
	return msg, err
}

// Page fetches the pageSize most recent messages strictly older than the
// cursor message (or than now when nil), newest first. The returned cursor
// is the oldest id of the page, nil once history is exhausted. Because ids
// only grow, a page captured before an insert never picks it up.
func (r *MessageRepo) Page(ctx context.Context, roomID int, cursor *int, pageSize int) ([]models.Message, *int, error) {
	if pageSize <= 0 {
		pageSize = DefaultPageSize
	}
	if pageSize > MaxPageSize {
		pageSize = MaxPageSize
	}

	var before any
	if cursor != nil {
		before = *cursor
	}

	var msgs []models.Message
	err := r.db.SelectContext(ctx, &msgs, `SELECT `+messageColumns+`
        FROM chat_messages m
        JOIN users u ON u.id = m.author_id
        WHERE m.room_id = $1 AND ($2::int IS NULL OR m.id < $2)
        ORDER BY m.created_at DESC, m.id DESC
        LIMIT $3`, roomID, before, pageSize)
	if err != nil {
		return nil, nil, err
	}

	var next *int
	if len(msgs) == pageSize {
		oldest := msgs[len(msgs)-1].ID
		next = &oldest
	}
	return msgs, next, nil
}
