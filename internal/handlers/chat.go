package handlers

import (
	"context"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"workspace-chat-service/internal/models"
	"workspace-chat-service/internal/storage"
)

// ChatService is the slice of the chat session service the HTTP layer
// uses.
type ChatService interface {
	History(ctx context.Context, userID, workspaceID int, cursor *int, pageSize int) ([]models.Message, *int, error)
	Post(ctx context.Context, userID, workspaceID int, payload models.MessagePayload) (models.Message, error)
}

// ChatHandler serves workspace chat history, HTTP sends and attachment
// uploads.
type ChatHandler struct {
	chat  ChatService
	store storage.ObjectStore
	log   *zap.Logger
}

// NewChatHandler builds a ChatHandler. A nil store disables uploads.
func NewChatHandler(chat ChatService, store storage.ObjectStore, log *zap.Logger) *ChatHandler {
	return &ChatHandler{chat: chat, store: store, log: log}
}

// GetMessages returns one history page in chronological order.
func (h *ChatHandler) GetMessages(c *gin.Context) {
	workspaceID, ok := intParam(c, "workspace_id")
	if !ok {
		return
	}
	cursor, ok := optionalIntQuery(c, "cursor")
	if !ok {
		return
	}
	limit, ok := optionalIntQuery(c, "limit")
	if !ok {
		return
	}
	pageSize := 0
	if limit != nil {
		pageSize = *limit
	}

	userID := c.GetInt("userID")
	messages, next, err := h.chat.History(c.Request.Context(), userID, workspaceID, cursor, pageSize)
	if err != nil {
		status := statusFromError(err)
		if status == http.StatusInternalServerError {
			h.log.Error("history load failed", zap.Int("workspace_id", workspaceID), zap.Error(err))
			c.JSON(status, gin.H{"error": "failed to load messages"})
			return
		}
		c.JSON(status, gin.H{"error": err.Error()})
		return
	}

	// The store pages newest first; clients read chronologically.
	chronological := make([]models.Message, 0, len(messages))
	for i := len(messages) - 1; i >= 0; i-- {
		chronological = append(chronological, messages[i])
	}

	var nextCursor any
	if next != nil {
		nextCursor = strconv.Itoa(*next)
	}
	c.JSON(http.StatusOK, gin.H{"messages": chronological, "nextCursor": nextCursor})
}

// PostMessage persists and broadcasts a message sent over HTTP.
func (h *ChatHandler) PostMessage(c *gin.Context) {
	workspaceID, ok := intParam(c, "workspace_id")
	if !ok {
		return
	}

	var payload models.MessagePayload
	if err := c.ShouldBindJSON(&payload); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	userID := c.GetInt("userID")
	msg, err := h.chat.Post(c.Request.Context(), userID, workspaceID, payload)
	if err != nil {
		status := statusFromError(err)
		if status == http.StatusInternalServerError {
			h.log.Error("message post failed", zap.Int("workspace_id", workspaceID), zap.Error(err))
			c.JSON(status, gin.H{"error": "failed to store message"})
			return
		}
		c.JSON(status, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusCreated, gin.H{"message": msg})
}

// Upload streams a multipart attachment to the blob store and returns the
// opaque reference the client then attaches to a message.
func (h *ChatHandler) Upload(c *gin.Context) {
	if h.store == nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": "uploads are disabled"})
		return
	}
	if _, ok := intParam(c, "workspace_id"); !ok {
		return
	}

	fileHeader, err := c.FormFile("file")
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "missing file"})
		return
	}
	file, err := fileHeader.Open()
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "unreadable file"})
		return
	}
	defer file.Close()

	contentType := fileHeader.Header.Get("Content-Type")
	if contentType == "" {
		contentType = "application/octet-stream"
	}

	result, err := h.store.Upload(c.Request.Context(), fileHeader.Filename, file, fileHeader.Size, contentType)
	if err != nil {
		h.log.Error("attachment upload failed", zap.String("file", fileHeader.Filename), zap.Error(err))
		c.JSON(http.StatusBadGateway, gin.H{"error": "failed to store attachment"})
		return
	}

	response := gin.H{"url": result.URL, "mimeType": result.MimeType, "size": result.Size}
	if raw := c.PostForm("durationMs"); raw != "" {
		if duration, err := strconv.Atoi(raw); err == nil {
			response["durationMs"] = duration
		}
	}
	c.JSON(http.StatusCreated, response)
}
