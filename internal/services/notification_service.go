package services

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"workspace-chat-service/internal/cache"
	"workspace-chat-service/internal/models"
	"workspace-chat-service/internal/observability"
	"workspace-chat-service/internal/repositories"
)

// NotificationKind names a domain event the dispatcher knows how to render.
type NotificationKind string

const (
	KindChatMessage         NotificationKind = "chat:new-message"
	KindTaskCreated         NotificationKind = "task:created"
	KindWorkspaceInvitation NotificationKind = "workspace:invitation"
	KindProjectUpdated      NotificationKind = "project:updated"
)

// DispatchParams carries the event context. Recipients are always
// enumerated by the caller; the dispatcher does not discover membership.
type DispatchParams struct {
	ActorID      int
	ActorName    string
	WorkspaceID  *int
	RecipientIDs []int
	Subject      string
	Metadata     models.Metadata
}

type notificationTemplate struct {
	category string
	severity string
	title    string
	message  func(DispatchParams) string
}

var templates = map[NotificationKind]notificationTemplate{
	KindChatMessage: {
		category: models.CategoryChat,
		severity: models.NotificationInfo,
		title:    "New message",
		message: func(p DispatchParams) string {
			return fmt.Sprintf("%s: %s", p.ActorName, p.Subject)
		},
	},
	KindTaskCreated: {
		category: models.CategoryTask,
		severity: models.NotificationInfo,
		title:    "Task created",
		message: func(p DispatchParams) string {
			return fmt.Sprintf("%s created task %q", p.ActorName, p.Subject)
		},
	},
	KindWorkspaceInvitation: {
		category: models.CategoryWorkspace,
		severity: models.NotificationSuccess,
		title:    "Workspace invitation",
		message: func(p DispatchParams) string {
			return fmt.Sprintf("%s invited you to %s", p.ActorName, p.Subject)
		},
	},
	KindProjectUpdated: {
		category: models.CategoryProject,
		severity: models.NotificationInfo,
		title:    "Project updated",
		message: func(p DispatchParams) string {
			return fmt.Sprintf("%s updated project %q", p.ActorName, p.Subject)
		},
	},
}

// NotificationService composes, persists and delivers notifications, and
// fronts the notification store for the HTTP layer. Delivery consults the
// recipient's per-category preference.
type NotificationService struct {
	notifications repositories.NotificationRepository
	preferences   repositories.PreferenceRepository
	hub           Hub
	unread        *cache.UnreadCache
	notifyActor   bool
	log           *zap.Logger
}

// NewNotificationService builds a NotificationService. notifyActor
// controls whether the acting user also receives the notifications their
// own action produced.
func NewNotificationService(
	notifications repositories.NotificationRepository,
	preferences repositories.PreferenceRepository,
	hub Hub,
	unread *cache.UnreadCache,
	notifyActor bool,
	log *zap.Logger,
) *NotificationService {
	return &NotificationService{
		notifications: notifications,
		preferences:   preferences,
		hub:           hub,
		unread:        unread,
		notifyActor:   notifyActor,
		log:           log,
	}
}

// Dispatch renders the event through its template, persists one row per
// recipient and pushes to live personal channels where the in-app
// preference allows. Recipients are independent: a failed insert is logged
// and skipped, the rest of the batch still lands and delivers.
func (s *NotificationService) Dispatch(ctx context.Context, kind NotificationKind, params DispatchParams) ([]models.Notification, error) {
	tmpl, ok := templates[kind]
	if !ok {
		return nil, fmt.Errorf("unknown notification kind %q", kind)
	}

	rows := make([]models.Notification, 0, len(params.RecipientIDs))
	for _, userID := range params.RecipientIDs {
		if userID == params.ActorID && !s.notifyActor {
			continue
		}
		rows = append(rows, models.Notification{
			UserID:      userID,
			WorkspaceID: params.WorkspaceID,
			Title:       tmpl.title,
			Message:     tmpl.message(params),
			Type:        tmpl.severity,
			Category:    tmpl.category,
			Metadata:    params.Metadata,
		})
	}
	if len(rows) == 0 {
		return nil, nil
	}

	stored, err := s.notifications.CreateBulk(ctx, rows)
	if err != nil {
		s.log.Warn("notification insert partially failed",
			zap.String("kind", string(kind)), zap.Error(err))
	}
	for i := len(stored); i < len(rows); i++ {
		observability.IncNotificationDispatched(tmpl.category, "failed")
	}
	for _, n := range stored {
		observability.IncNotificationDispatched(tmpl.category, "created")
		s.unread.Invalidate(ctx, n.UserID)
		s.deliver(ctx, n)
	}
	return stored, nil
}

// deliver pushes one stored notification to the recipient's personal
// channel if their in-app preference for the category is on. Offline
// recipients are dropped; they catch up by polling the store.
func (s *NotificationService) deliver(ctx context.Context, n models.Notification) {
	pref, err := s.preferences.GetOrCreate(ctx, n.UserID, n.Category)
	if err != nil {
		s.log.Warn("preference lookup failed, skipping push",
			zap.Int("user_id", n.UserID), zap.String("category", n.Category), zap.Error(err))
		return
	}
	if !pref.InApp {
		return
	}

	s.hub.SendToUser(n.UserID, models.UserEvent{Type: models.EventNotificationNew, Notification: &n})
	if count, err := s.UnreadCount(ctx, n.UserID); err == nil {
		s.hub.SendToUser(n.UserID, models.UserEvent{Type: models.EventNotificationUnread, UnreadCount: &count})
	}
	if n.WorkspaceID != nil {
		s.hub.SendToUser(n.UserID, models.UserEvent{
			Type:         models.EventNotificationWorkspace,
			Notification: &n,
			WorkspaceID:  n.WorkspaceID,
		})
	}
	observability.IncNotificationDelivered(n.Category)
}

// List returns a page plus total and unread counts.
func (s *NotificationService) List(ctx context.Context, userID int, filter repositories.NotificationFilter) ([]models.Notification, int, int, error) {
	return s.notifications.ListForUser(ctx, userID, filter)
}

// UnreadCount reads through the cache to the store.
func (s *NotificationService) UnreadCount(ctx context.Context, userID int) (int, error) {
	if count, ok := s.unread.Get(ctx, userID); ok {
		return count, nil
	}
	count, err := s.notifications.UnreadCount(ctx, userID)
	if err != nil {
		return 0, err
	}
	s.unread.Set(ctx, userID, count)
	return count, nil
}

// MarkRead flips one notification's read flag. False means absent, not
// owned, or already read.
func (s *NotificationService) MarkRead(ctx context.Context, id, userID int) (bool, error) {
	updated, err := s.notifications.MarkRead(ctx, id, userID)
	if err != nil {
		return false, err
	}
	if updated {
		s.unread.Invalidate(ctx, userID)
	}
	return updated, nil
}

// MarkAllRead marks every unread notification, optionally scoped to one
// workspace.
func (s *NotificationService) MarkAllRead(ctx context.Context, userID int, workspaceID *int) (int64, error) {
	count, err := s.notifications.MarkAllRead(ctx, userID, workspaceID)
	if err != nil {
		return 0, err
	}
	if count > 0 {
		s.unread.Invalidate(ctx, userID)
	}
	return count, nil
}

// Delete removes one notification owned by the user.
func (s *NotificationService) Delete(ctx context.Context, id, userID int) (bool, error) {
	deleted, err := s.notifications.Delete(ctx, id, userID)
	if err != nil {
		return false, err
	}
	if deleted {
		s.unread.Invalidate(ctx, userID)
	}
	return deleted, nil
}

// Preference returns the (possibly defaulted) row for one category.
func (s *NotificationService) Preference(ctx context.Context, userID int, category string) (models.Preference, error) {
	return s.preferences.GetOrCreate(ctx, userID, category)
}

// UpdatePreference applies a partial change.
func (s *NotificationService) UpdatePreference(ctx context.Context, userID int, category string, patch models.PreferenceUpdate) (models.Preference, error) {
	return s.preferences.Update(ctx, userID, category, patch)
}

// Preferences lists every stored preference row of the user.
func (s *NotificationService) Preferences(ctx context.Context, userID int) ([]models.Preference, error) {
	return s.preferences.ListForUser(ctx, userID)
}
