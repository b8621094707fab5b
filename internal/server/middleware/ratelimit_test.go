package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

// newTestLimiter rate limiter с управляемым временем
func newTestLimiter(t *testing.T, rate int, window time.Duration) (*RateLimiter, *time.Time) {
	t.Helper()
	limiter := NewRateLimiter(rate, window, setupTestLogger())
	t.Cleanup(limiter.Stop)

	now := time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)
	limiter.now = func() time.Time { return now }
	return limiter, &now
}

func TestRateLimiter_Allow(t *testing.T) {
	limiter, now := newTestLimiter(t, 3, time.Minute)

	for i := 0; i < 3; i++ {
		allowed, _ := limiter.Allow("10.0.0.1")
		assert.True(t, allowed, "request %d should be allowed", i+1)
	}

	allowed, retryAfter := limiter.Allow("10.0.0.1")
	assert.False(t, allowed)
	assert.Equal(t, time.Minute, retryAfter)

	// Другой ключ независим
	allowed, _ = limiter.Allow("10.0.0.2")
	assert.True(t, allowed)

	*now = now.Add(40 * time.Second)
	allowed, retryAfter = limiter.Allow("10.0.0.1")
	assert.False(t, allowed)
	assert.Equal(t, 20*time.Second, retryAfter)

	// Новое окно
	*now = now.Add(20 * time.Second)
	allowed, _ = limiter.Allow("10.0.0.1")
	assert.True(t, allowed)
}

func TestRateLimiter_EvictStale(t *testing.T) {
	limiter, now := newTestLimiter(t, 1, time.Minute)

	limiter.Allow("a")
	*now = now.Add(90 * time.Second)
	limiter.Allow("b")
	*now = now.Add(60 * time.Second)

	limiter.evictStale()

	limiter.mu.Lock()
	defer limiter.mu.Unlock()
	assert.NotContains(t, limiter.buckets, "a")
	assert.Contains(t, limiter.buckets, "b")
}

func TestRateLimiter_StopIsIdempotent(t *testing.T) {
	limiter := NewRateLimiter(1, time.Minute, setupTestLogger())
	assert.NotPanics(t, func() {
		limiter.Stop()
		limiter.Stop()
	})
}

func TestRateLimit(t *testing.T) {
	limiter, _ := newTestLimiter(t, 2, time.Minute)
	handler := RateLimit(limiter, setupTestLogger())(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))

	do := func(remote string) *httptest.ResponseRecorder {
		req := httptest.NewRequest(http.MethodGet, "/api/v1/items", nil)
		req.RemoteAddr = remote
		w := httptest.NewRecorder()
		handler.ServeHTTP(w, req)
		return w
	}

	// Порт не влияет на ключ
	assert.Equal(t, http.StatusOK, do("192.168.1.1:1000").Code)
	assert.Equal(t, http.StatusOK, do("192.168.1.1:2000").Code)

	w := do("192.168.1.1:3000")
	assert.Equal(t, http.StatusTooManyRequests, w.Code)
	assert.Equal(t, "60", w.Header().Get("Retry-After"))
	assert.Contains(t, w.Body.String(), "rate limit exceeded")

	assert.Equal(t, http.StatusOK, do("192.168.1.2:1000").Code)
}

func TestClientIP(t *testing.T) {
	tests := []struct {
		remote string
		want   string
	}{
		{remote: "192.168.1.1:1234", want: "192.168.1.1"},
		{remote: "[::1]:8080", want: "::1"},
		{remote: "192.168.1.1", want: "192.168.1.1"},
	}

	for _, tt := range tests {
		t.Run(tt.remote, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/", nil)
			req.RemoteAddr = tt.remote
			assert.Equal(t, tt.want, clientIP(req))
		})
	}
}
