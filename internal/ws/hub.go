package ws

import (
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"go.uber.org/zap"

	"entity-chat-service/internal/observability"
)

const writeWait = 10 * time.Second

// Conn is the part of *websocket.Conn the hub writes through.
type Conn interface {
	WriteMessage(messageType int, data []byte) error
	SetWriteDeadline(t time.Time) error
	Close() error
}

type client struct {
	conn Conn
	info ConnInfo
	mu   sync.Mutex
}

func (c *client) writeClose(code int, reason string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	_ = c.conn.SetWriteDeadline(time.Now().Add(writeWait))
	return c.conn.WriteMessage(websocket.CloseMessage, websocket.FormatCloseMessage(code, reason))
}

func (c *client) write(payload []byte) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	_ = c.conn.SetWriteDeadline(time.Now().Add(writeWait))
	return c.conn.WriteMessage(websocket.TextMessage, payload)
}

// Hub maintains active websocket rooms keyed by room channel.
type Hub struct {
	rooms  map[string]map[Conn]*client
	logger *zap.SugaredLogger
	mu     sync.RWMutex
}

// NewHub creates an empty hub.
func NewHub(logger *zap.SugaredLogger) *Hub {
	return &Hub{
		rooms:  make(map[string]map[Conn]*client),
		logger: logger,
	}
}

// Join registers conn in room.
func (h *Hub) Join(room string, conn Conn, info ConnInfo) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if _, ok := h.rooms[room]; !ok {
		h.rooms[room] = make(map[Conn]*client)
	}
	h.rooms[room][conn] = &client{conn: conn, info: info}
}

// Leave removes conn from room, dropping the room once empty.
func (h *Hub) Leave(room string, conn Conn) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if clients, ok := h.rooms[room]; ok {
		delete(clients, conn)
		if len(clients) == 0 {
			delete(h.rooms, room)
		}
	}
}

// RoomSize returns the number of connections in room.
func (h *Hub) RoomSize(room string) int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.rooms[room])
}

// Broadcast writes payload to every connection in room and returns how many
// writes succeeded. Connections that fail are closed and evicted.
func (h *Hub) Broadcast(room string, payload []byte) int {
	h.mu.RLock()
	clients := make([]*client, 0, len(h.rooms[room]))
	for _, c := range h.rooms[room] {
		clients = append(clients, c)
	}
	h.mu.RUnlock()

	sent := 0
	for _, c := range clients {
		if err := c.write(payload); err != nil {
			h.logger.Warnw("websocket write error",
				"room", room,
				"conn_id", c.info.ConnID,
				"user_id", c.info.UserID,
				"duration_ms", time.Since(c.info.ConnectedAt).Milliseconds(),
				"error", err,
			)
			_ = c.conn.Close()
			h.Leave(room, c.conn)
			observability.IncWSEvent("write_error")
			continue
		}
		sent++
	}
	return sent
}

// Kick disconnects every connection userID holds in room and returns how many
// were closed.
func (h *Hub) Kick(room, userID string) int {
	return h.evict(room, "removed from chat", func(info ConnInfo) bool { return info.UserID == userID })
}

// CloseRoom disconnects every member of room.
func (h *Hub) CloseRoom(room string) int {
	return h.evict(room, "chat deactivated", func(ConnInfo) bool { return true })
}

func (h *Hub) evict(room, reason string, match func(ConnInfo) bool) int {
	h.mu.Lock()
	var evicted []*client
	if clients, ok := h.rooms[room]; ok {
		for conn, c := range clients {
			if match(c.info) {
				evicted = append(evicted, c)
				delete(clients, conn)
			}
		}
		if len(clients) == 0 {
			delete(h.rooms, room)
		}
	}
	h.mu.Unlock()

	for _, c := range evicted {
		_ = c.writeClose(websocket.ClosePolicyViolation, reason)
		_ = c.conn.Close()
		observability.IncWSEvent("evicted")
		h.logger.Infow("websocket evicted", "room", room, "conn_id", c.info.ConnID, "user_id", c.info.UserID, "reason", reason)
	}
	return len(evicted)
}
