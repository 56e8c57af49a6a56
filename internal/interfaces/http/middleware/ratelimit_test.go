package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/procurement/backend/internal/interfaces/http/dto"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeClock struct{ now time.Time }

func (f *fakeClock) Now() time.Time { return f.now }

func newTestLimiter(rps float64, burst int) (*RateLimiter, *fakeClock) {
	clock := &fakeClock{now: time.Date(2026, 5, 11, 9, 0, 0, 0, time.UTC)}
	rl := NewRateLimiter(rps, burst)
	rl.now = clock.Now
	return rl, clock
}

func TestRateLimiter(t *testing.T) {
	t.Run("allows the burst then blocks", func(t *testing.T) {
		rl, _ := newTestLimiter(1, 3)
		for i := 0; i < 3; i++ {
			assert.True(t, rl.Allow("client"), "request %d should be allowed", i+1)
		}
		assert.False(t, rl.Allow("client"))
	})

	t.Run("separate buckets per key", func(t *testing.T) {
		rl, _ := newTestLimiter(1, 1)
		assert.True(t, rl.Allow("a"))
		assert.False(t, rl.Allow("a"))
		assert.True(t, rl.Allow("b"))
	})

	t.Run("refills over time", func(t *testing.T) {
		rl, clock := newTestLimiter(2, 1)
		assert.True(t, rl.Allow("client"))
		assert.False(t, rl.Allow("client"))

		clock.now = clock.now.Add(600 * time.Millisecond)
		assert.True(t, rl.Allow("client"))
	})

	t.Run("drops idle buckets", func(t *testing.T) {
		rl, clock := newTestLimiter(1, 1)
		rl.Allow("idle")
		clock.now = clock.now.Add(idleTimeout + time.Minute)
		rl.Allow("fresh")

		rl.mu.Lock()
		defer rl.mu.Unlock()
		assert.NotContains(t, rl.clients, "idle")
		assert.Contains(t, rl.clients, "fresh")
	})
}

func TestRateLimitMiddleware(t *testing.T) {
	rl, _ := newTestLimiter(1, 2)
	router := gin.New()
	router.Use(RateLimit(rl))
	router.GET("/test", func(c *gin.Context) { c.Status(http.StatusOK) })

	send := func() *httptest.ResponseRecorder {
		req := httptest.NewRequest(http.MethodGet, "/test", nil)
		req.RemoteAddr = "203.0.113.7:5000"
		w := httptest.NewRecorder()
		router.ServeHTTP(w, req)
		return w
	}

	first := send()
	assert.Equal(t, http.StatusOK, first.Code)
	assert.Equal(t, "2", first.Header().Get("X-RateLimit-Limit"))
	assert.Equal(t, "1", first.Header().Get("X-RateLimit-Remaining"))

	require.Equal(t, http.StatusOK, send().Code)

	blocked := send()
	assert.Equal(t, http.StatusTooManyRequests, blocked.Code)
	assert.Equal(t, "1", blocked.Header().Get("Retry-After"))
	assert.Equal(t, dto.ErrCodeRateLimited, decodeError(t, blocked).Code)
}

func TestRateLimitByKey(t *testing.T) {
	rl, _ := newTestLimiter(1, 1)
	router := gin.New()
	router.Use(RateLimitByKey(rl, func(c *gin.Context) string { return c.Param("token") }))
	router.GET("/portal/:token", func(c *gin.Context) { c.Status(http.StatusOK) })

	get := func(path string) int {
		w := httptest.NewRecorder()
		router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, path, nil))
		return w.Code
	}

	assert.Equal(t, http.StatusOK, get("/portal/abc"))
	assert.Equal(t, http.StatusTooManyRequests, get("/portal/abc"))
	assert.Equal(t, http.StatusOK, get("/portal/def"))
}
