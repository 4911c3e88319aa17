package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"entity-chat-service/internal/middleware"
	"entity-chat-service/internal/telemetry"
)

// RegisterDebugRoutes adds GET /debug/audit-test, which pushes a synthetic audit
// event for the authenticated caller through the broker. The route exists only
// when enabled and must be mounted behind AuthMiddleware.
func RegisterDebugRoutes(router gin.IRoutes, emitter *telemetry.AuditEmitter, enabled bool) {
	if !enabled {
		return
	}
	router.GET("/debug/audit-test", func(c *gin.Context) {
		if emitter == nil {
			c.JSON(http.StatusServiceUnavailable, gin.H{"success": false, "message": "audit emitter not configured"})
			return
		}
		payload := telemetry.AuditPayload{Action: "audit_test", ChatID: c.Query("chatId"), Text: "debug"}
		emitter.Emit(c.Request.Context(), requestIDFromContext(c), middleware.UserID(c), payload)
		c.JSON(http.StatusAccepted, gin.H{"success": true, "routingKey": telemetry.AuditRoutingKey})
	})
}
