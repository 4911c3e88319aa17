package middleware

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"entity-chat-service/internal/auth"
)

func newRouter(handlers ...gin.HandlerFunc) *gin.Engine {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.Use(Locale())
	handlers = append(handlers, func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"user": UserID(c), "lang": Lang(c).String()})
	})
	r.GET("/", handlers...)
	return r
}

func do(r http.Handler, header map[string]string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	for k, v := range header {
		req.Header.Set(k, v)
	}
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func TestAuthMiddleware(t *testing.T) {
	verifier := auth.NewVerifier("secret")
	token, err := verifier.Issue("u1", "admin", time.Minute)
	require.NoError(t, err)
	r := newRouter(AuthMiddleware(verifier))

	w := do(r, map[string]string{"Authorization": "Bearer " + token})
	require.Equal(t, http.StatusOK, w.Code)
	var body map[string]string
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	assert.Equal(t, "u1", body["user"])

	w = do(r, nil)
	assert.Equal(t, http.StatusUnauthorized, w.Code)
	assert.Contains(t, w.Body.String(), "manquant")

	w = do(r, map[string]string{"Authorization": "Bearer nope", "Accept-Language": "en"})
	assert.Equal(t, http.StatusUnauthorized, w.Code)
	assert.Contains(t, w.Body.String(), "Invalid authentication token")
}

func TestLocaleDefaultsToFrench(t *testing.T) {
	w := do(newRouter(), nil)
	assert.Contains(t, w.Body.String(), `"lang":"fr"`)

	w = do(newRouter(), map[string]string{"Accept-Language": "en-GB,en;q=0.8"})
	assert.Contains(t, w.Body.String(), `"lang":"en"`)
}

func TestRateLimiterPerUser(t *testing.T) {
	rl := NewRateLimiter(2)

	assert.True(t, rl.Allow("u1"))
	assert.True(t, rl.Allow("u1"))
	assert.False(t, rl.Allow("u1"))
	assert.True(t, rl.Allow("u2"), "buckets are per user")
}

func TestRateLimiterDisabled(t *testing.T) {
	rl := NewRateLimiter(0)
	for i := 0; i < 100; i++ {
		require.True(t, rl.Allow("u1"))
	}
}

func TestRateLimiterMiddleware(t *testing.T) {
	rl := NewRateLimiter(1)
	r := newRouter(func(c *gin.Context) { c.Set(UserIDKey, "u1"); c.Next() }, rl.Middleware())

	assert.Equal(t, http.StatusOK, do(r, nil).Code)
	assert.Equal(t, http.StatusTooManyRequests, do(r, nil).Code)
}
