package ws

import (
	"encoding/json"
	"sync"

	"github.com/gorilla/websocket"
)

// Conn abstracts the underlying websocket connection so the hub and its
// tests do not depend on a live socket. *websocket.Conn satisfies it.
type Conn interface {
	ReadMessage() (int, []byte, error)
	WriteMessage(messageType int, data []byte) error
	Close() error
}

// Session is the in-memory state of one authenticated live connection:
// the user it belongs to and the set of workspace rooms it has joined.
// Sessions are owned by the Hub and destroyed on disconnect.
type Session struct {
	UserID int
	Info   ConnInfo

	conn    Conn
	writeMu sync.Mutex

	mu     sync.Mutex
	joined map[int]struct{}
}

// NewSession wraps an accepted connection.
func NewSession(userID int, conn Conn, info ConnInfo) *Session {
	return &Session{
		UserID: userID,
		Info:   info,
		conn:   conn,
		joined: make(map[int]struct{}),
	}
}

// Joined reports whether the session has joined the workspace room.
func (s *Session) Joined(workspaceID int) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	_, ok := s.joined[workspaceID]
	return ok
}

func (s *Session) markJoined(workspaceID int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.joined[workspaceID] = struct{}{}
}

func (s *Session) forget(workspaceID int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.joined, workspaceID)
}

// drainJoined empties the joined set and returns what it held. The second
// call returns nothing, which makes disconnect idempotent.
func (s *Session) drainJoined() []int {
	s.mu.Lock()
	defer s.mu.Unlock()
	ids := make([]int, 0, len(s.joined))
	for id := range s.joined {
		ids = append(ids, id)
	}
	s.joined = make(map[int]struct{})
	return ids
}

// Send writes a JSON event to the connection. Writes are serialized; the
// websocket allows a single concurrent writer.
func (s *Session) Send(event any) error {
	payload, err := json.Marshal(event)
	if err != nil {
		return err
	}
	s.writeMu.Lock()
	defer s.writeMu.Unlock()
	return s.conn.WriteMessage(websocket.TextMessage, payload)
}

// Close closes the underlying connection.
func (s *Session) Close() error {
	return s.conn.Close()
}
