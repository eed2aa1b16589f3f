package ws

import (
	"time"

	"github.com/google/uuid"
)

// ConnInfo carries the identity and correlation data of one connection,
// attached to every websocket event envelope.
type ConnInfo struct {
	ConnID      string
	UserID      int
	DeviceID    string
	IP          string
	RequestID   string
	TraceID     string
	ConnectedAt time.Time
}

func newConnID() string {
	return uuid.NewString()
}
