package middleware

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ajharbinger/partnex-scoring/internal/logger"
	"github.com/ajharbinger/partnex-scoring/internal/metrics"
)

func fixedClock(t time.Time) func() time.Time {
	return func() time.Time { return t }
}

func TestMemoryRateLimiter_RejectsAfterBudget(t *testing.T) {
	limiter := NewMemoryRateLimiter(120)
	limiter.now = fixedClock(time.Date(2025, 1, 1, 12, 0, 0, 0, time.UTC))
	ctx := context.Background()

	for i := 0; i < 120; i++ {
		d, err := limiter.Allow(ctx, "10.0.0.1")
		require.NoError(t, err)
		require.True(t, d.Allowed, "request %d", i+1)
	}

	d, err := limiter.Allow(ctx, "10.0.0.1")
	require.NoError(t, err)
	assert.False(t, d.Allowed)
	assert.Equal(t, 120, d.Limit)
	assert.Equal(t, 500*time.Millisecond, d.RetryAfter)

	other, err := limiter.Allow(ctx, "10.0.0.2")
	require.NoError(t, err)
	assert.True(t, other.Allowed, "budgets are per client")
}

func TestMemoryRateLimiter_Refills(t *testing.T) {
	limiter := NewMemoryRateLimiter(60)
	start := time.Date(2025, 1, 1, 12, 0, 0, 0, time.UTC)
	limiter.now = fixedClock(start)
	ctx := context.Background()

	for i := 0; i < 60; i++ {
		_, _ = limiter.Allow(ctx, "k")
	}
	d, _ := limiter.Allow(ctx, "k")
	require.False(t, d.Allowed)

	limiter.now = fixedClock(start.Add(time.Second))
	d, err := limiter.Allow(ctx, "k")
	require.NoError(t, err)
	assert.True(t, d.Allowed)
}

func newTestRedisLimiter(t *testing.T, perMinute int) (*RedisRateLimiter, *miniredis.Miniredis) {
	t.Helper()
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })
	return NewRedisRateLimiter(client, perMinute), mr
}

func TestRedisRateLimiter_FixedWindow(t *testing.T) {
	limiter, mr := newTestRedisLimiter(t, 3)
	now := time.Date(2025, 1, 1, 12, 0, 45, 0, time.UTC)
	limiter.now = fixedClock(now)
	ctx := context.Background()

	for i := 0; i < 3; i++ {
		d, err := limiter.Allow(ctx, "10.0.0.1")
		require.NoError(t, err)
		assert.True(t, d.Allowed)
		assert.Equal(t, 2-i, d.Remaining)
	}

	d, err := limiter.Allow(ctx, "10.0.0.1")
	require.NoError(t, err)
	assert.False(t, d.Allowed)
	assert.Equal(t, 15*time.Second, d.RetryAfter)

	key := "partnex:ratelimit:10.0.0.1:" + "1735732800"
	assert.True(t, mr.Exists(key))
	assert.Equal(t, 2*time.Minute, mr.TTL(key))

	limiter.now = fixedClock(now.Add(time.Minute))
	d, err = limiter.Allow(ctx, "10.0.0.1")
	require.NoError(t, err)
	assert.True(t, d.Allowed, "a new window starts a new count")
}

func TestRedisRateLimiter_ErrorWhenRedisDown(t *testing.T) {
	limiter, mr := newTestRedisLimiter(t, 3)
	mr.Close()

	_, err := limiter.Allow(context.Background(), "10.0.0.1")
	assert.Error(t, err)
}

func TestNewRedisClient(t *testing.T) {
	mr := miniredis.RunT(t)

	client, err := NewRedisClient(context.Background(), "redis://"+mr.Addr()+"/0")
	require.NoError(t, err)
	_ = client.Close()

	_, err = NewRedisClient(context.Background(), "not a url")
	assert.Error(t, err)
}

func rateLimitedRouter(limiter RateLimiter, m *metrics.Metrics) *gin.Engine {
	router := gin.New()
	router.Use(RateLimitMiddleware(limiter, m, logger.NewNop()))
	router.GET("/test", okHandler)
	return router
}

func TestRateLimitMiddleware_Rejects121stRequest(t *testing.T) {
	limiter := NewMemoryRateLimiter(DefaultRequestsPerMinute)
	limiter.now = fixedClock(time.Date(2025, 1, 1, 12, 0, 0, 0, time.UTC))
	m := metrics.New()
	router := rateLimitedRouter(limiter, m)

	var last *httptest.ResponseRecorder
	for i := 0; i < 121; i++ {
		req := httptest.NewRequest(http.MethodGet, "/test", nil)
		req.RemoteAddr = "192.168.1.1:12345"
		last = httptest.NewRecorder()
		router.ServeHTTP(last, req)
		if i < 120 {
			require.Equal(t, http.StatusOK, last.Code, "request %d", i+1)
		}
	}

	assert.Equal(t, http.StatusTooManyRequests, last.Code)
	assert.Equal(t, "1", last.Header().Get("Retry-After"))
	assert.Equal(t, "120", last.Header().Get("X-RateLimit-Limit"))
	assert.Contains(t, last.Body.String(), "Too many requests")
	assert.Equal(t, 1.0, testutil.ToFloat64(m.RateLimitHits.WithLabelValues("memory")))
}

func TestRateLimitMiddleware_FailsOpen(t *testing.T) {
	limiter, mr := newTestRedisLimiter(t, 1)
	mr.Close()
	router := rateLimitedRouter(limiter, nil)

	for i := 0; i < 3; i++ {
		w := httptest.NewRecorder()
		router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/test", nil))
		assert.Equal(t, http.StatusOK, w.Code)
	}
}
