package repositories

import (
	"context"

	"github.com/jmoiron/sqlx"

	"workspace-chat-service/internal/models"
)

// RoomRepository abstracts chat room persistence.
type RoomRepository interface {
	EnsureRoom(ctx context.Context, workspaceID int) (models.Room, error)
}

// RoomRepo is a sqlx-backed repository.
type RoomRepo struct {
	db *sqlx.DB
}

// NewRoomRepo constructs RoomRepo.
func NewRoomRepo(db *sqlx.DB) *RoomRepo {
	return &RoomRepo{db: db}
}

// EnsureRoom creates the workspace's room if absent and returns it. The
// upsert rides on the unique workspace_id constraint, so concurrent callers
// converge on the same row.
func (r *RoomRepo) EnsureRoom(ctx context.Context, workspaceID int) (models.Room, error) {
	var room models.Room
	err := r.db.QueryRowxContext(ctx, `INSERT INTO chat_rooms (workspace_id) VALUES ($1)
        ON CONFLICT (workspace_id) DO UPDATE SET workspace_id = EXCLUDED.workspace_id
        RETURNING id, workspace_id, created_at`, workspaceID).StructScan(&room)
	return room, err
}
