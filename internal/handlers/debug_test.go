package handlers

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"

	"entity-chat-service/internal/logging"
	"entity-chat-service/internal/middleware"
	"entity-chat-service/internal/mocks"
	"entity-chat-service/internal/telemetry"
)

func TestDebugRoutesDisabled(t *testing.T) {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	RegisterDebugRoutes(r, nil, false)

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/debug/audit-test", nil))
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestDebugAuditTestWithoutEmitter(t *testing.T) {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	RegisterDebugRoutes(r, nil, true)

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/debug/audit-test", nil))
	assert.Equal(t, http.StatusServiceUnavailable, w.Code)
}

func TestDebugAuditTestUsesAuthenticatedCaller(t *testing.T) {
	gin.SetMode(gin.TestMode)
	pub := &mocks.PublisherMock{}
	pub.On("Publish", mock.Anything, telemetry.AuditRoutingKey, mock.MatchedBy(func(env telemetry.AuditEnvelope) bool {
		return env.Payload.Action == "audit_test" && env.Payload.ChatID == "c1" && env.UserID == "u9" && env.RequestID == "req-7"
	})).Return(nil).Once()
	emitter := telemetry.NewAuditEmitter(pub, telemetry.AuditRoutingKey, "entity-chat-service", "test", logging.Nop())

	r := gin.New()
	r.Use(RequestID())
	r.Use(func(c *gin.Context) {
		c.Set(middleware.UserIDKey, "u9")
		c.Next()
	})
	RegisterDebugRoutes(r, emitter, true)

	req := httptest.NewRequest(http.MethodGet, "/debug/audit-test?chatId=c1&userId=spoofed", nil)
	req.Header.Set("X-Request-ID", "req-7")
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	assert.Equal(t, http.StatusAccepted, w.Code)
	assert.Equal(t, []string{telemetry.AuditRoutingKey}, pub.RoutingKeys())
	pub.AssertExpectations(t)
}
