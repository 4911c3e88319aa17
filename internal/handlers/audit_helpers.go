package handlers

import (
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"entity-chat-service/internal/middleware"
	"entity-chat-service/internal/telemetry"
)

const requestIDContextKey = "request_id"

// RequestID assigns every request an id, reusing X-Request-ID when present,
// and echoes it back.
func RequestID() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Header("X-Request-ID", requestIDFromContext(c))
		c.Next()
	}
}

func requestIDFromContext(c *gin.Context) string {
	if val, ok := c.Get(requestIDContextKey); ok {
		if id, ok := val.(string); ok && id != "" {
			return id
		}
	}

	requestID := c.GetHeader("X-Request-ID")
	if requestID == "" {
		requestID = uuid.NewString()
	}
	c.Set(requestIDContextKey, requestID)
	return requestID
}

func (h *ChatHandler) emitAudit(c *gin.Context, payload telemetry.AuditPayload) {
	h.audit.Emit(c.Request.Context(), requestIDFromContext(c), middleware.UserID(c), payload)
}
