package models

import "time"

// Workspace types. Personal workspaces never have chat.
const (
	WorkspaceTypePersonal = "personal"
	WorkspaceTypeTeam     = "team"
)

// Workspace is the tenant boundary chat rooms are scoped to.
type Workspace struct {
	ID        int       `db:"id" json:"id"`
	Name      string    `db:"name" json:"name"`
	Type      string    `db:"type" json:"type"`
	CreatedAt time.Time `db:"created_at" json:"created_at"`
}

// Membership is the result of resolving a (user, workspace) pair.
type Membership struct {
	Role          string `db:"role"`
	WorkspaceType string `db:"workspace_type"`
}
