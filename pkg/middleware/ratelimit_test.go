package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/platinummonkey/veil/pkg/contextkeys"
)

func okHandler() http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	})
}

func TestRateLimiter_Allow(t *testing.T) {
	config := &RateLimitConfig{
		RequestsPerWindow: 10,
		WindowDuration:    time.Second,
		BurstSize:         2,
	}
	limiter := NewRateLimiter(config)

	key := "key:test"

	// Should allow initial requests up to limit + burst
	allowedCount := 0
	for i := 0; i < config.RequestsPerWindow+config.BurstSize+5; i++ {
		if limiter.Allow(key) {
			allowedCount++
		}
	}

	expected := config.RequestsPerWindow + config.BurstSize
	assert.Equal(t, expected, allowedCount)

	// After waiting, tokens should refill
	time.Sleep(time.Second)
	assert.True(t, limiter.Allow(key), "should allow request after refill")
}

func TestRateLimiter_Remaining(t *testing.T) {
	config := &RateLimitConfig{
		RequestsPerWindow: 10,
		WindowDuration:    time.Second,
		BurstSize:         2,
	}
	limiter := NewRateLimiter(config)

	key := "key:test"

	assert.Equal(t, 12, limiter.Remaining(key))

	limiter.Allow(key)
	limiter.Allow(key)
	assert.Equal(t, 10, limiter.Remaining(key))
}

func TestRateLimiter_IndependentKeys(t *testing.T) {
	config := &RateLimitConfig{
		RequestsPerWindow: 1,
		WindowDuration:    time.Minute,
		BurstSize:         0,
	}
	limiter := NewRateLimiter(config)

	assert.True(t, limiter.Allow("key:a"))
	assert.False(t, limiter.Allow("key:a"))
	assert.True(t, limiter.Allow("key:b"), "exhausting one key must not affect another")
}

func TestRateLimiter_Cleanup(t *testing.T) {
	config := &RateLimitConfig{
		RequestsPerWindow: 10,
		WindowDuration:    10 * time.Millisecond,
		BurstSize:         0,
	}
	limiter := NewRateLimiter(config)

	limiter.Allow("key:stale")
	time.Sleep(30 * time.Millisecond)
	limiter.Cleanup()

	limiter.mu.RLock()
	_, exists := limiter.buckets["key:stale"]
	limiter.mu.RUnlock()
	assert.False(t, exists, "stale bucket should be removed")
}

func TestRateLimitMiddleware_KeyedByAPIKey(t *testing.T) {
	m := NewRateLimitMiddleware()
	handler := m.Handler(okHandler())

	req := httptest.NewRequest("GET", "/", nil)
	req = req.WithContext(contextkeys.WithAPIKeyID(req.Context(), "key-1"))
	rec := httptest.NewRecorder()

	handler.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "1000", rec.Header().Get("X-RateLimit-Limit"))
	assert.NotEmpty(t, rec.Header().Get("X-RateLimit-Remaining"))
}

func TestRateLimitMiddleware_AnonymousKeyedByIP(t *testing.T) {
	m := NewRateLimitMiddleware()
	handler := m.Handler(okHandler())

	req := httptest.NewRequest("GET", "/", nil)
	req.Header.Set("X-Real-IP", "10.0.0.9")
	rec := httptest.NewRecorder()

	handler.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "100", rec.Header().Get("X-RateLimit-Limit"))
}

func TestRateLimitMiddleware_Exhaustion(t *testing.T) {
	m := &RateLimitMiddleware{
		keyLimiter: NewRateLimiter(PerKeyRateLimitConfig()),
		anonymousLimiter: NewRateLimiter(&RateLimitConfig{
			RequestsPerWindow: 2,
			WindowDuration:    time.Minute,
			BurstSize:         0,
		}),
	}
	handler := m.Handler(okHandler())

	var last *httptest.ResponseRecorder
	for i := 0; i < 3; i++ {
		req := httptest.NewRequest("GET", "/", nil)
		req.Header.Set("X-Real-IP", "10.0.0.7")
		last = httptest.NewRecorder()
		handler.ServeHTTP(last, req)
	}

	assert.Equal(t, http.StatusTooManyRequests, last.Code)
	assert.Contains(t, last.Body.String(), "rate limit exceeded")
	assert.NotEmpty(t, last.Header().Get("Retry-After"))
}

func TestGetClientIP(t *testing.T) {
	req := httptest.NewRequest("GET", "/", nil)
	req.Header.Set("X-Forwarded-For", "1.2.3.4")
	assert.Equal(t, "1.2.3.4", getClientIP(req))

	req = httptest.NewRequest("GET", "/", nil)
	req.Header.Set("X-Real-IP", "5.6.7.8")
	assert.Equal(t, "5.6.7.8", getClientIP(req))

	req = httptest.NewRequest("GET", "/", nil)
	assert.Equal(t, req.RemoteAddr, getClientIP(req))
}
