package ws

import (
	"sync"

	"go.uber.org/zap"

	"workspace-chat-service/internal/observability"
)

// Hub is the single fan-out point for chat and notification events. It is
// the only holder of live-connection state: workspace rooms and per-user
// personal channels. Each room carries its own lock so unrelated
// workspaces' traffic never serializes; the registry lock only guards the
// maps themselves. Socket writes happen outside every lock.
type Hub struct {
	log *zap.Logger

	mu       sync.RWMutex
	rooms    map[int]*room
	personal map[int]map[*Session]struct{}
}

type room struct {
	mu       sync.RWMutex
	sessions map[*Session]struct{}
}

// NewHub creates an empty hub.
func NewHub(log *zap.Logger) *Hub {
	return &Hub{
		log:      log,
		rooms:    make(map[int]*room),
		personal: make(map[int]map[*Session]struct{}),
	}
}

// JoinPersonalChannel subscribes the session to its user's personal
// channel. Called exactly once, right after authentication succeeds.
func (h *Hub) JoinPersonalChannel(s *Session) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if _, ok := h.personal[s.UserID]; !ok {
		h.personal[s.UserID] = make(map[*Session]struct{})
	}
	h.personal[s.UserID][s] = struct{}{}
}

// JoinWorkspaceRoom marks the session as joined to the workspace room.
// Authorization and room persistence happen in the chat service before
// this is called. Joining an already-joined room is a no-op.
func (h *Hub) JoinWorkspaceRoom(s *Session, workspaceID int) {
	for {
		r := h.getOrCreateRoom(workspaceID)
		if h.addToRoom(r, workspaceID, s) {
			break
		}
		// A concurrent Disconnect emptied the room and dropped it from the
		// registry after we picked it up. Retry against a fresh room.
	}
	s.markJoined(workspaceID)
}

// addToRoom inserts the session and then confirms the room is still the
// registered one for the workspace. A false return means the room was
// removed concurrently and the insert landed in an orphan.
func (h *Hub) addToRoom(r *room, workspaceID int, s *Session) bool {
	r.mu.Lock()
	r.sessions[s] = struct{}{}
	r.mu.Unlock()

	h.mu.RLock()
	current := h.rooms[workspaceID] == r
	h.mu.RUnlock()
	return current
}

// LeaveWorkspaceRoom removes the session from one room.
func (h *Hub) LeaveWorkspaceRoom(s *Session, workspaceID int) {
	h.mu.RLock()
	r := h.rooms[workspaceID]
	h.mu.RUnlock()
	if r != nil {
		r.mu.Lock()
		delete(r.sessions, s)
		r.mu.Unlock()
	}
	s.forget(workspaceID)
}

// BroadcastToWorkspace delivers the event to every session currently
// joined to the workspace room. Sessions that never joined receive
// nothing. A failed write evicts that one connection only.
func (h *Hub) BroadcastToWorkspace(workspaceID int, event any) {
	h.mu.RLock()
	r := h.rooms[workspaceID]
	h.mu.RUnlock()
	if r == nil {
		return
	}

	r.mu.RLock()
	sessions := make([]*Session, 0, len(r.sessions))
	for s := range r.sessions {
		sessions = append(sessions, s)
	}
	r.mu.RUnlock()

	for _, s := range sessions {
		if err := s.Send(event); err != nil {
			h.log.Warn("websocket write failed, evicting session",
				zap.Int("user_id", s.UserID),
				zap.String("conn_id", s.Info.ConnID),
				zap.Error(err))
			observability.IncWSEvent("ws_error")
			_ = s.Close()
			h.Disconnect(s)
		}
	}
}

// SendToUser delivers the event to every live session of the user and
// reports whether at least one write succeeded. Offline users are silently
// dropped; durable delivery is the notification store's job.
func (h *Hub) SendToUser(userID int, event any) bool {
	h.mu.RLock()
	sessions := make([]*Session, 0, len(h.personal[userID]))
	for s := range h.personal[userID] {
		sessions = append(sessions, s)
	}
	h.mu.RUnlock()

	delivered := false
	for _, s := range sessions {
		if err := s.Send(event); err != nil {
			h.log.Warn("personal channel write failed, evicting session",
				zap.Int("user_id", s.UserID),
				zap.String("conn_id", s.Info.ConnID),
				zap.Error(err))
			observability.IncWSEvent("ws_error")
			_ = s.Close()
			h.Disconnect(s)
			continue
		}
		delivered = true
	}
	return delivered
}

// Disconnect releases every room membership and the personal channel
// association of the session. Safe to call more than once.
func (h *Hub) Disconnect(s *Session) {
	joined := s.drainJoined()

	h.mu.Lock()
	if set, ok := h.personal[s.UserID]; ok {
		delete(set, s)
		if len(set) == 0 {
			delete(h.personal, s.UserID)
		}
	}
	for _, workspaceID := range joined {
		r := h.rooms[workspaceID]
		if r == nil {
			continue
		}
		r.mu.Lock()
		delete(r.sessions, s)
		empty := len(r.sessions) == 0
		r.mu.Unlock()
		if empty {
			delete(h.rooms, workspaceID)
		}
	}
	h.mu.Unlock()
}

func (h *Hub) getOrCreateRoom(workspaceID int) *room {
	h.mu.RLock()
	r := h.rooms[workspaceID]
	h.mu.RUnlock()
	if r != nil {
		return r
	}

	h.mu.Lock()
	defer h.mu.Unlock()
	if r = h.rooms[workspaceID]; r == nil {
		r = &room{sessions: make(map[*Session]struct{})}
		h.rooms[workspaceID] = r
	}
	return r
}
