package ws

import (
	"time"

	"entity-chat-service/internal/observability"
)

// ConnInfo describes one chat room subscriber.
type ConnInfo struct {
	ConnID      string
	UserID      string
	ChatID      string
	Client      observability.ClientMeta
	TraceID     string
	ConnectedAt time.Time
}
