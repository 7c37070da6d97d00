package middleware

import (
	"context"
	"fmt"
	"math"
	"net/http"
	"strconv"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
	gocache "github.com/patrickmn/go-cache"
	"github.com/redis/go-redis/v9"
	"github.com/rotisserie/eris"
	"golang.org/x/time/rate"

	"github.com/ajharbinger/partnex-scoring/internal/logger"
	"github.com/ajharbinger/partnex-scoring/internal/metrics"
)

// DefaultRequestsPerMinute is the per-client budget when none is configured.
const DefaultRequestsPerMinute = 120

// RateDecision is the outcome of one rate limit check.
type RateDecision struct {
	Allowed    bool
	Limit      int
	Remaining  int
	RetryAfter time.Duration
}

// RateLimiter decides whether a client identified by key may make a request.
type RateLimiter interface {
	Allow(ctx context.Context, key string) (RateDecision, error)
	// Backend names the implementation for metrics.
	Backend() string
}

// MemoryRateLimiter keeps a token bucket per client in process memory.
// Buckets for idle clients expire from the cache.
type MemoryRateLimiter struct {
	perMinute int
	buckets   *gocache.Cache
	mu        sync.Mutex
	now       func() time.Time
}

// NewMemoryRateLimiter allows perMinute requests per client per minute.
func NewMemoryRateLimiter(perMinute int) *MemoryRateLimiter {
	if perMinute <= 0 {
		perMinute = DefaultRequestsPerMinute
	}
	return &MemoryRateLimiter{
		perMinute: perMinute,
		buckets:   gocache.New(10*time.Minute, 5*time.Minute),
		now:       time.Now,
	}
}

func (l *MemoryRateLimiter) bucket(key string) *rate.Limiter {
	l.mu.Lock()
	defer l.mu.Unlock()

	if v, ok := l.buckets.Get(key); ok {
		limiter := v.(*rate.Limiter)
		l.buckets.SetDefault(key, limiter)
		return limiter
	}
	limiter := rate.NewLimiter(rate.Every(time.Minute/time.Duration(l.perMinute)), l.perMinute)
	l.buckets.SetDefault(key, limiter)
	return limiter
}

// Allow implements RateLimiter
func (l *MemoryRateLimiter) Allow(_ context.Context, key string) (RateDecision, error) {
	limiter := l.bucket(key)
	now := l.now()

	reservation := limiter.ReserveN(now, 1)
	if delay := reservation.DelayFrom(now); delay > 0 {
		reservation.CancelAt(now)
		return RateDecision{Limit: l.perMinute, RetryAfter: delay}, nil
	}

	remaining := int(math.Floor(limiter.TokensAt(now)))
	if remaining < 0 {
		remaining = 0
	}
	return RateDecision{Allowed: true, Limit: l.perMinute, Remaining: remaining}, nil
}

// Backend implements RateLimiter
func (l *MemoryRateLimiter) Backend() string { return "memory" }

// RedisRateLimiter counts requests per client in fixed one-minute windows
// shared by every replica.
type RedisRateLimiter struct {
	client    redis.UniversalClient
	perMinute int
	prefix    string
	window    time.Duration
	now       func() time.Time
}

// NewRedisRateLimiter allows perMinute requests per client per window.
func NewRedisRateLimiter(client redis.UniversalClient, perMinute int) *RedisRateLimiter {
	if perMinute <= 0 {
		perMinute = DefaultRequestsPerMinute
	}
	return &RedisRateLimiter{
		client:    client,
		perMinute: perMinute,
		prefix:    "partnex:ratelimit:",
		window:    time.Minute,
		now:       time.Now,
	}
}

// NewRedisClient parses a redis:// URL and checks the connection.
func NewRedisClient(ctx context.Context, url string) (*redis.Client, error) {
	opts, err := redis.ParseURL(url)
	if err != nil {
		return nil, eris.Wrap(err, "parse redis url")
	}
	client := redis.NewClient(opts)

	ctx, cancel := context.WithTimeout(ctx, 3*time.Second)
	defer cancel()
	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil, eris.Wrap(err, "ping redis")
	}
	return client, nil
}

// Allow implements RateLimiter
func (l *RedisRateLimiter) Allow(ctx context.Context, key string) (RateDecision, error) {
	now := l.now()
	windowStart := now.Truncate(l.window)
	redisKey := fmt.Sprintf("%s%s:%d", l.prefix, key, windowStart.Unix())

	count, err := l.client.Incr(ctx, redisKey).Result()
	if err != nil {
		return RateDecision{}, eris.Wrapf(err, "increment %s", redisKey)
	}
	if count == 1 {
		if err := l.client.Expire(ctx, redisKey, 2*l.window).Err(); err != nil {
			return RateDecision{}, eris.Wrapf(err, "expire %s", redisKey)
		}
	}

	decision := RateDecision{Limit: l.perMinute}
	if count > int64(l.perMinute) {
		decision.RetryAfter = windowStart.Add(l.window).Sub(now)
		return decision, nil
	}
	decision.Allowed = true
	decision.Remaining = l.perMinute - int(count)
	return decision, nil
}

// Backend implements RateLimiter
func (l *RedisRateLimiter) Backend() string { return "redis" }

// RateLimitMiddleware rejects clients that exceed the limiter's budget with
// 429. When the limiter itself fails the request is let through.
func RateLimitMiddleware(limiter RateLimiter, m *metrics.Metrics, log logger.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		decision, err := limiter.Allow(c.Request.Context(), c.ClientIP())
		if err != nil {
			log.Warn("rate limiter unavailable, allowing request", "backend", limiter.Backend(), "error", err.Error())
			c.Next()
			return
		}

		c.Header("X-RateLimit-Limit", strconv.Itoa(decision.Limit))
		c.Header("X-RateLimit-Remaining", strconv.Itoa(decision.Remaining))

		if !decision.Allowed {
			m.RecordRateLimitHit(limiter.Backend())
			retry := int(math.Ceil(decision.RetryAfter.Seconds()))
			if retry < 1 {
				retry = 1
			}
			c.Header("Retry-After", strconv.Itoa(retry))
			c.AbortWithStatusJSON(http.StatusTooManyRequests, gin.H{
				"error": "Too many requests, please try again later.",
			})
			return
		}

		c.Next()
	}
}
