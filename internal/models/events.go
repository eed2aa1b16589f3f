package models

// Server event names pushed over live connections.
const (
	EventMessage               = "message"
	EventNotificationNew       = "notification:new"
	EventNotificationUnread    = "notification:unread-count"
	EventNotificationWorkspace = "notification:workspace"
)

// RoomEvent is broadcast to every session joined to a workspace room.
type RoomEvent struct {
	Type        string   `json:"type"`
	WorkspaceID int      `json:"workspaceId"`
	Message     *Message `json:"message,omitempty"`
}

// UserEvent is delivered on a user's personal channel.
type UserEvent struct {
	Type         string        `json:"type"`
	Notification *Notification `json:"notification,omitempty"`
	UnreadCount  *int          `json:"unreadCount,omitempty"`
	WorkspaceID  *int          `json:"workspaceId,omitempty"`
}
