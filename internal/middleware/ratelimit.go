package middleware

import (
	"net/http"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
	"golang.org/x/time/rate"

	"entity-chat-service/internal/i18n"
)

// RateLimiter keeps one token bucket per authenticated user.
type RateLimiter struct {
	limit rate.Limit
	burst int
	ttl   time.Duration

	mu      sync.Mutex
	buckets map[string]*bucket
}

type bucket struct {
	limiter  *rate.Limiter
	lastSeen time.Time
}

// NewRateLimiter allows perMinute requests per user per minute, with bursts of
// the same size. perMinute <= 0 disables limiting.
func NewRateLimiter(perMinute int) *RateLimiter {
	return &RateLimiter{
		limit:   rate.Limit(float64(perMinute) / 60),
		burst:   perMinute,
		ttl:     10 * time.Minute,
		buckets: make(map[string]*bucket),
	}
}

// Allow reports whether key may proceed now.
func (r *RateLimiter) Allow(key string) bool {
	if r.burst <= 0 {
		return true
	}
	now := time.Now()
	r.mu.Lock()
	defer r.mu.Unlock()
	b, ok := r.buckets[key]
	if !ok {
		b = &bucket{limiter: rate.NewLimiter(r.limit, r.burst)}
		r.buckets[key] = b
	}
	b.lastSeen = now
	if len(r.buckets) > 1024 {
		r.evict(now)
	}
	return b.limiter.AllowN(now, 1)
}

func (r *RateLimiter) evict(now time.Time) {
	for k, b := range r.buckets {
		if now.Sub(b.lastSeen) > r.ttl {
			delete(r.buckets, k)
		}
	}
}

// Middleware rejects callers over their budget with 429. It must run after
// AuthMiddleware.
func (r *RateLimiter) Middleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		key := UserID(c)
		if key == "" {
			key = c.ClientIP()
		}
		if !r.Allow(key) {
			abortLocalized(c, http.StatusTooManyRequests, i18n.KeyTooManyRequests)
			return
		}
		c.Next()
	}
}
