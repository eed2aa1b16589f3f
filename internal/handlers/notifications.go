package handlers

import (
	"context"
	"fmt"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"workspace-chat-service/internal/models"
	"workspace-chat-service/internal/repositories"
	"workspace-chat-service/internal/telemetry"
)

// NotificationService is the slice of the notification service the HTTP
// layer uses.
type NotificationService interface {
	List(ctx context.Context, userID int, filter repositories.NotificationFilter) ([]models.Notification, int, int, error)
	UnreadCount(ctx context.Context, userID int) (int, error)
	MarkRead(ctx context.Context, id, userID int) (bool, error)
	MarkAllRead(ctx context.Context, userID int, workspaceID *int) (int64, error)
	Delete(ctx context.Context, id, userID int) (bool, error)
	Preference(ctx context.Context, userID int, category string) (models.Preference, error)
	UpdatePreference(ctx context.Context, userID int, category string, patch models.PreferenceUpdate) (models.Preference, error)
	Preferences(ctx context.Context, userID int) ([]models.Preference, error)
}

// NotificationHandler serves the notification inbox and preference
// endpoints.
type NotificationHandler struct {
	notifications NotificationService
	audit         *telemetry.AuditEmitter
	log           *zap.Logger
}

// NewNotificationHandler builds a NotificationHandler.
func NewNotificationHandler(notifications NotificationService, audit *telemetry.AuditEmitter, log *zap.Logger) *NotificationHandler {
	return &NotificationHandler{notifications: notifications, audit: audit, log: log}
}

// List returns a notification page with total and unread counts.
func (h *NotificationHandler) List(c *gin.Context) {
	userID := c.GetInt("userID")

	workspaceID, ok := optionalIntQuery(c, "workspaceId")
	if !ok {
		return
	}
	filter := repositories.NotificationFilter{
		UnreadOnly:  c.Query("unreadOnly") == "true",
		WorkspaceID: workspaceID,
		Category:    c.Query("category"),
	}
	filter.Page, _ = strconv.Atoi(c.DefaultQuery("page", "1"))
	filter.PageSize, _ = strconv.Atoi(c.DefaultQuery("pageSize", "20"))

	items, total, unread, err := h.notifications.List(c.Request.Context(), userID, filter)
	if err != nil {
		h.log.Error("notification list failed", zap.Int("user_id", userID), zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to load notifications"})
		return
	}
	if items == nil {
		items = []models.Notification{}
	}
	c.JSON(http.StatusOK, gin.H{
		"notifications": items,
		"totalCount":    total,
		"unreadCount":   unread,
	})
}

// UnreadCount returns the user's total unread notifications.
func (h *NotificationHandler) UnreadCount(c *gin.Context) {
	userID := c.GetInt("userID")
	count, err := h.notifications.UnreadCount(c.Request.Context(), userID)
	if err != nil {
		h.log.Error("unread count failed", zap.Int("user_id", userID), zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to count notifications"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"unreadCount": count})
}

// MarkRead flips one notification's read flag. Already-read rows are a
// no-op; rows the caller does not own look absent.
func (h *NotificationHandler) MarkRead(c *gin.Context) {
	id, ok := intParam(c, "id")
	if !ok {
		return
	}
	userID := c.GetInt("userID")

	updated, err := h.notifications.MarkRead(c.Request.Context(), id, userID)
	if err != nil {
		h.log.Error("mark read failed", zap.Int("notification_id", id), zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to update notification"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"updated": updated})
}

// MarkAllRead marks every unread notification, optionally scoped to one
// workspace via ?workspaceId=.
func (h *NotificationHandler) MarkAllRead(c *gin.Context) {
	userID := c.GetInt("userID")
	workspaceID, ok := optionalIntQuery(c, "workspaceId")
	if !ok {
		return
	}

	count, err := h.notifications.MarkAllRead(c.Request.Context(), userID, workspaceID)
	if err != nil {
		h.log.Error("mark all read failed", zap.Int("user_id", userID), zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to update notifications"})
		return
	}
	h.audit.Emit(c.Request.Context(), "info",
		fmt.Sprintf("marked %d notifications read", count),
		requestIDFromContext(c), &userID)
	c.JSON(http.StatusOK, gin.H{"updated": count})
}

// Delete removes one notification owned by the caller.
func (h *NotificationHandler) Delete(c *gin.Context) {
	id, ok := intParam(c, "id")
	if !ok {
		return
	}
	userID := c.GetInt("userID")

	deleted, err := h.notifications.Delete(c.Request.Context(), id, userID)
	if err != nil {
		h.log.Error("notification delete failed", zap.Int("notification_id", id), zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to delete notification"})
		return
	}
	if !deleted {
		c.JSON(http.StatusNotFound, gin.H{"error": "notification not found"})
		return
	}
	h.audit.Emit(c.Request.Context(), "info",
		fmt.Sprintf("deleted notification %d", id),
		requestIDFromContext(c), &userID)
	c.Status(http.StatusNoContent)
}

// ListPreferences returns every stored preference row of the caller.
func (h *NotificationHandler) ListPreferences(c *gin.Context) {
	userID := c.GetInt("userID")
	prefs, err := h.notifications.Preferences(c.Request.Context(), userID)
	if err != nil {
		h.log.Error("preference list failed", zap.Int("user_id", userID), zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to load preferences"})
		return
	}
	if prefs == nil {
		prefs = []models.Preference{}
	}
	c.JSON(http.StatusOK, gin.H{"preferences": prefs})
}

// GetPreference returns the (defaulted on first access) row for one
// category.
func (h *NotificationHandler) GetPreference(c *gin.Context) {
	userID := c.GetInt("userID")
	category := c.Param("category")

	pref, err := h.notifications.Preference(c.Request.Context(), userID, category)
	if err != nil {
		h.log.Error("preference load failed", zap.String("category", category), zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to load preference"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"preference": pref})
}

// UpdatePreference applies a partial change to one category's switches.
func (h *NotificationHandler) UpdatePreference(c *gin.Context) {
	userID := c.GetInt("userID")
	category := c.Param("category")

	var patch models.PreferenceUpdate
	if err := c.ShouldBindJSON(&patch); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	pref, err := h.notifications.UpdatePreference(c.Request.Context(), userID, category, patch)
	if err != nil {
		h.log.Error("preference update failed", zap.String("category", category), zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to update preference"})
		return
	}
	h.audit.Emit(c.Request.Context(), "info",
		fmt.Sprintf("updated %s notification preference", category),
		requestIDFromContext(c), &userID)
	c.JSON(http.StatusOK, gin.H{"preference": pref})
}
