package models

import (
	"database/sql/driver"
	"encoding/json"
	"fmt"
	"time"
)

// Notification severities.
const (
	NotificationInfo    = "INFO"
	NotificationSuccess = "SUCCESS"
	NotificationWarning = "WARNING"
	NotificationError   = "ERROR"
)

// Notification categories used by the dispatch templates and the
// per-category preference rows.
const (
	CategoryChat      = "chat"
	CategoryTask      = "task"
	CategoryWorkspace = "workspace"
	CategoryProject   = "project"
)

// Metadata is free-form notification context stored as JSONB.
type Metadata map[string]any

func (m Metadata) Value() (driver.Value, error) {
	if m == nil {
		return []byte("{}"), nil
	}
	return json.Marshal(m)
}

func (m *Metadata) Scan(src any) error {
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
		return fmt.Errorf("metadata: unsupported scan type %T", src)
	}
}

// Notification belongs to exactly one recipient and is mutated only to flip
// the read flag.
type Notification struct {
	ID          int       `db:"id" json:"id"`
	UserID      int       `db:"user_id" json:"userId"`
	WorkspaceID *int      `db:"workspace_id" json:"workspaceId,omitempty"`
	Title       string    `db:"title" json:"title"`
	Message     string    `db:"message" json:"message"`
	Type        string    `db:"type" json:"type"`
	Category    string    `db:"category" json:"category"`
	IsRead      bool      `db:"is_read" json:"isRead"`
	Metadata    Metadata  `db:"metadata" json:"metadata"`
	CreatedAt   time.Time `db:"created_at" json:"createdAt"`
}

// Preference holds the per-(user, category) delivery switches. Missing rows
// default to all-true on first access.
type Preference struct {
	UserID   int    `db:"user_id" json:"userId"`
	Category string `db:"category" json:"category"`
	InApp    bool   `db:"in_app" json:"inApp"`
	Desktop  bool   `db:"desktop" json:"desktop"`
	Sound    bool   `db:"sound" json:"sound"`
}

// PreferenceUpdate is a partial preference change; nil fields are untouched.
type PreferenceUpdate struct {
	InApp   *bool `json:"inApp"`
	Desktop *bool `json:"desktop"`
	Sound   *bool `json:"sound"`
}
