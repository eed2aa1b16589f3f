package services

import (
	"context"
	"errors"
	"fmt"

	"go.uber.org/zap"

	"workspace-chat-service/internal/models"
	"workspace-chat-service/internal/repositories"
	"workspace-chat-service/internal/ws"
)

// Hub is the fan-out surface the services drive. Implemented by *ws.Hub.
type Hub interface {
	JoinWorkspaceRoom(session *ws.Session, workspaceID int)
	BroadcastToWorkspace(workspaceID int, event any)
	SendToUser(userID int, event any) bool
}

// Notifier is the dispatch entry point the chat service triggers after a
// message is persisted.
type Notifier interface {
	Dispatch(ctx context.Context, kind NotificationKind, params DispatchParams) ([]models.Notification, error)
}

// ChatService orchestrates join and send requests: membership and
// workspace-type authorization, payload validation, persistence, then
// fan-out. Broadcast strictly follows successful persistence, so the hub
// never announces a message that does not durably exist.
type ChatService struct {
	memberships repositories.MembershipRepository
	rooms       repositories.RoomRepository
	messages    repositories.MessageRepository
	hub         Hub
	notifier    Notifier
	log         *zap.Logger
}

// NewChatService builds a ChatService.
func NewChatService(
	memberships repositories.MembershipRepository,
	rooms repositories.RoomRepository,
	messages repositories.MessageRepository,
	hub Hub,
	notifier Notifier,
	log *zap.Logger,
) *ChatService {
	return &ChatService{
		memberships: memberships,
		rooms:       rooms,
		messages:    messages,
		hub:         hub,
		notifier:    notifier,
		log:         log,
	}
}

// authorize resolves membership and requires a team workspace. Personal
// workspaces never have chat.
func (s *ChatService) authorize(ctx context.Context, userID, workspaceID int) error {
	membership, err := s.memberships.Resolve(ctx, userID, workspaceID)
	if err != nil {
		if errors.Is(err, repositories.ErrNotMember) {
			return models.ErrForbidden
		}
		return fmt.Errorf("resolve membership: %w", err)
	}
	if membership.WorkspaceType != models.WorkspaceTypeTeam {
		return models.ErrForbidden
	}
	return nil
}

// Join subscribes the session to the workspace room after authorization,
// lazily creating the room. Joining an already-joined room succeeds as a
// no-op.
func (s *ChatService) Join(ctx context.Context, session *ws.Session, workspaceID int) error {
	if err := s.authorize(ctx, session.UserID, workspaceID); err != nil {
		return err
	}
	if session.Joined(workspaceID) {
		return nil
	}
	if _, err := s.rooms.EnsureRoom(ctx, workspaceID); err != nil {
		return fmt.Errorf("ensure room: %w", err)
	}
	s.hub.JoinWorkspaceRoom(session, workspaceID)
	return nil
}

// Send handles a socket send. A client must have joined the room first;
// sending to an unjoined room is a NotJoined error, never an implicit join.
func (s *ChatService) Send(ctx context.Context, session *ws.Session, workspaceID int, payload models.MessagePayload) (models.Message, error) {
	if !session.Joined(workspaceID) {
		return models.Message{}, models.ErrNotJoined
	}
	return s.send(ctx, session.UserID, workspaceID, payload)
}

// Post handles an HTTP send, which carries no join state.
func (s *ChatService) Post(ctx context.Context, userID, workspaceID int, payload models.MessagePayload) (models.Message, error) {
	return s.send(ctx, userID, workspaceID, payload)
}

func (s *ChatService) send(ctx context.Context, userID, workspaceID int, payload models.MessagePayload) (models.Message, error) {
	if err := s.authorize(ctx, userID, workspaceID); err != nil {
		return models.Message{}, err
	}
	if err := payload.Normalize(); err != nil {
		return models.Message{}, err
	}

	room, err := s.rooms.EnsureRoom(ctx, workspaceID)
	if err != nil {
		return models.Message{}, fmt.Errorf("ensure room: %w", err)
	}
	msg, err := s.messages.Append(ctx, room.ID, userID, payload)
	if err != nil {
		if errors.Is(err, models.ErrValidationFailed) {
			return models.Message{}, err
		}
		return models.Message{}, fmt.Errorf("append message: %w", err)
	}

	s.hub.BroadcastToWorkspace(workspaceID, models.RoomEvent{
		Type:        models.EventMessage,
		WorkspaceID: workspaceID,
		Message:     &msg,
	})

	// Notification fan-out must not delay the sender's ack, and it must
	// survive the sender disconnecting mid-send.
	if s.notifier != nil {
		go s.dispatchMessageNotifications(context.WithoutCancel(ctx), workspaceID, msg)
	}
	return msg, nil
}

// History pages backward through the room's messages, newest first.
func (s *ChatService) History(ctx context.Context, userID, workspaceID int, cursor *int, pageSize int) ([]models.Message, *int, error) {
	if err := s.authorize(ctx, userID, workspaceID); err != nil {
		return nil, nil, err
	}
	room, err := s.rooms.EnsureRoom(ctx, workspaceID)
	if err != nil {
		return nil, nil, fmt.Errorf("ensure room: %w", err)
	}
	return s.messages.Page(ctx, room.ID, cursor, pageSize)
}

// dispatchMessageNotifications enumerates the other workspace members and
// hands them to the dispatcher. Failures only lose the notification, never
// the message.
func (s *ChatService) dispatchMessageNotifications(ctx context.Context, workspaceID int, msg models.Message) {
	memberIDs, err := s.memberships.ListMemberIDs(ctx, workspaceID)
	if err != nil {
		s.log.Warn("member enumeration for notification failed",
			zap.Int("workspace_id", workspaceID), zap.Error(err))
		return
	}

	preview := msg.Content
	if preview == "" {
		preview = "an attachment"
	}
	_, err = s.notifier.Dispatch(ctx, KindChatMessage, DispatchParams{
		ActorID:      msg.Author.ID,
		ActorName:    msg.Author.Username,
		WorkspaceID:  &workspaceID,
		RecipientIDs: memberIDs,
		Subject:      preview,
		Metadata:     models.Metadata{"messageId": msg.ID},
	})
	if err != nil {
		s.log.Warn("chat notification dispatch failed",
			zap.Int("workspace_id", workspaceID), zap.Error(err))
	}
}
