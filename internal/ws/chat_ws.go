package ws

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
	"go.opentelemetry.io/otel"
	"go.uber.org/zap"
	"golang.org/x/text/language"

	"entity-chat-service/internal/auth"
	"entity-chat-service/internal/i18n"
	"entity-chat-service/internal/models"
	"entity-chat-service/internal/observability"
	"entity-chat-service/internal/service"
)

const (
	pongWait   = 60 * time.Second
	pingPeriod = (pongWait * 9) / 10
)

// MembershipChecker reports whether a user may join a chat room.
type MembershipChecker interface {
	IsParticipant(ctx context.Context, chatID, userID string) (bool, error)
}

// TokenVerifier authenticates the handshake.
type TokenVerifier interface {
	Verify(token string) (auth.Identity, error)
}

// ChatWebSocketHandler handles chat websocket connections.
type ChatWebSocketHandler struct {
	hub      *Hub
	members  MembershipChecker
	verifier TokenVerifier
	logger   *zap.SugaredLogger
}

// NewChatWebSocketHandler constructs a ChatWebSocketHandler.
func NewChatWebSocketHandler(hub *Hub, members MembershipChecker, verifier TokenVerifier, logger *zap.SugaredLogger) *ChatWebSocketHandler {
	return &ChatWebSocketHandler{hub: hub, members: members, verifier: verifier, logger: logger}
}

var upgrader = websocket.Upgrader{
	CheckOrigin: func(r *http.Request) bool { return true },
}

func reject(c *gin.Context, lang language.Tag, status int, key string) {
	c.JSON(status, gin.H{"success": false, "message": i18n.T(lang, key)})
}

// Handle authenticates the caller, checks membership and joins the chat room.
// The connection is receive-only: client frames are read and discarded.
func (h *ChatWebSocketHandler) Handle(c *gin.Context) {
	chatID := c.Param("chat_id")

	ctx, span := otel.Tracer("entity-chat-service/ws").Start(c.Request.Context(), "ws.handshake")
	defer span.End()
	c.Request = c.Request.WithContext(ctx)

	token := auth.BearerToken(c.GetHeader("Authorization"))
	if token == "" {
		token = c.Query("token")
	}
	lang := i18n.Negotiate(c.GetHeader("Accept-Language"))
	identity, err := h.verifier.Verify(token)
	if err != nil {
		key := i18n.KeyInvalidToken
		if errors.Is(err, auth.ErrMissingToken) {
			key = i18n.KeyMissingToken
		}
		reject(c, lang, http.StatusUnauthorized, key)
		return
	}

	member, err := h.members.IsParticipant(ctx, chatID, identity.UserID)
	if err != nil {
		status := service.KindOf(err).HTTPStatus()
		if status == http.StatusInternalServerError {
			h.logger.Errorw("ws membership check", "chat_id", chatID, "user_id", identity.UserID, "error", err)
		}
		reject(c, lang, status, service.CodeOf(err))
		return
	}
	if !member {
		reject(c, lang, http.StatusForbidden, service.CodeNotParticipant)
		return
	}

	conn, err := upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		return
	}
	room := models.RoomChannel(chatID)
	meta := observability.ClientMetaFromRequest(c.Request)
	info := ConnInfo{
		ConnID:      newConnID(),
		UserID:      identity.UserID,
		ChatID:      chatID,
		Client:      meta,
		TraceID:     span.SpanContext().TraceID().String(),
		ConnectedAt: time.Now(),
	}
	h.hub.Join(room, conn, info)

	observability.WSConnected()
	h.logger.Infow("ws connect", "room", room, "conn_id", info.ConnID, "user_id", info.UserID, "ip", info.Client.IP, "device_id", info.Client.DeviceID, "request_id", info.Client.RequestID, "trace_id", info.TraceID)

	go h.readLoop(room, conn, info)
}

func (h *ChatWebSocketHandler) readLoop(room string, conn *websocket.Conn, info ConnInfo) {
	var closeReason string
	stop := make(chan struct{})
	defer func() {
		close(stop)
		h.hub.Leave(room, conn)
		observability.WSDisconnected()
		h.logger.Infow("ws disconnect", "room", room, "conn_id", info.ConnID, "user_id", info.UserID,
			"duration_ms", time.Since(info.ConnectedAt).Milliseconds(), "reason", closeReason)
		conn.Close()
	}()

	_ = conn.SetReadDeadline(time.Now().Add(pongWait))
	conn.SetPongHandler(func(string) error {
		return conn.SetReadDeadline(time.Now().Add(pongWait))
	})
	go func() {
		ticker := time.NewTicker(pingPeriod)
		defer ticker.Stop()
		for {
			select {
			case <-stop:
				return
			case <-ticker.C:
				if err := conn.WriteControl(websocket.PingMessage, nil, time.Now().Add(writeWait)); err != nil {
					return
				}
			}
		}
	}()

	for {
		if _, _, err := conn.ReadMessage(); err != nil {
			closeReason = err.Error()
			if !websocket.IsCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway) {
				observability.IncWSEvent("read_error")
			}
			return
		}
	}
}
