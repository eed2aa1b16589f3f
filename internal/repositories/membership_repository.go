package repositories

import (
	"context"
	"database/sql"
	"errors"

	"github.com/jmoiron/sqlx"

	"workspace-chat-service/internal/models"
)

var ErrNotMember = errors.New("user is not a workspace member")

// MembershipRepository resolves workspace membership. Rows are written by
// the main application; resolution is side-effect-free.
type MembershipRepository interface {
	Resolve(ctx context.Context, userID int, workspaceID int) (models.Membership, error)
	ListMemberIDs(ctx context.Context, workspaceID int) ([]int, error)
}

// MembershipRepo is a sqlx-backed repository.
type MembershipRepo struct {
	db *sqlx.DB
}

// NewMembershipRepo constructs MembershipRepo.
func NewMembershipRepo(db *sqlx.DB) *MembershipRepo {
	return &MembershipRepo{db: db}
}

// Resolve returns the caller's role and the workspace type, or ErrNotMember
// when no membership row exists.
func (r *MembershipRepo) Resolve(ctx context.Context, userID int, workspaceID int) (models.Membership, error) {
	var membership models.Membership
	err := r.db.GetContext(ctx, &membership, `SELECT wm.role, w.type AS workspace_type
        FROM workspace_members wm
        JOIN workspaces w ON w.id = wm.workspace_id
        WHERE wm.user_id = $1 AND wm.workspace_id = $2`, userID, workspaceID)
	if errors.Is(err, sql.ErrNoRows) {
		return models.Membership{}, ErrNotMember
	}
	return membership, err
}

// ListMemberIDs returns the ids of every member of the workspace.
func (r *MembershipRepo) ListMemberIDs(ctx context.Context, workspaceID int) ([]int, error) {
	var ids []int
	err := r.db.SelectContext(ctx, &ids, `SELECT user_id FROM workspace_members WHERE workspace_id = $1 ORDER BY user_id`, workspaceID)
	return ids, err
}
