package middleware

import (
	"context"
	"net/http"
	"strconv"
	"sync"
	"time"

	"go-resume-backend/internal/delivery/http/response"
	"go-resume-backend/pkg/logger"

	"github.com/cockroachdb/errors"
	"github.com/gin-gonic/gin"
	goredis "github.com/redis/go-redis/v9"
	"golang.org/x/time/rate"
)

// RateLimitConfig holds configuration for rate limiting
type RateLimitConfig struct {
	// Requests per window
	Limit int
	// Time window duration
	Window time.Duration
	// Key extractor, client IP when nil
	KeyFunc func(*gin.Context) string
	// Redis key prefix
	KeyPrefix string
	// Reject instead of falling back to memory when Redis errors
	FailClosed bool
}

// Increments the counter and sets its TTL on first hit.
// Returns {count, ttl_seconds}.
const rateLimitLuaScript = `
local count = redis.call('INCR', KEYS[1])
if count == 1 then
    redis.call('EXPIRE', KEYS[1], ARGV[1])
end
local ttl = redis.call('TTL', KEYS[1])
return {count, ttl}
`

type visitor struct {
	limiter  *rate.Limiter
	lastSeen time.Time
}

// RateLimiter allows Limit requests per Window for each key. Counters live in
// Redis when a client is given so every instance shares them; otherwise each
// key gets a token bucket in memory.
type RateLimiter struct {
	cfg    RateLimitConfig
	client *goredis.Client

	mu        sync.Mutex
	visitors  map[string]*visitor
	lastSweep time.Time
	now       func() time.Time
}

func NewRateLimiter(client *goredis.Client, cfg RateLimitConfig) *RateLimiter {
	if cfg.KeyFunc == nil {
		cfg.KeyFunc = func(c *gin.Context) string { return c.ClientIP() }
	}
	if cfg.KeyPrefix == "" {
		cfg.KeyPrefix = "rl:ip:"
	}
	return &RateLimiter{
		cfg:      cfg,
		client:   client,
		visitors: make(map[string]*visitor),
		now:      time.Now,
	}
}

// DefaultRateLimitConfig limits each client IP to perMinute requests
func DefaultRateLimitConfig(perMinute int) RateLimitConfig {
	return RateLimitConfig{
		Limit:     perMinute,
		Window:    time.Minute,
		KeyPrefix: "rl:ip:",
	}
}

func (rl *RateLimiter) Middleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		if rl.cfg.Limit <= 0 {
			c.Next()
			return
		}

		key := rl.cfg.KeyPrefix + rl.cfg.KeyFunc(c)

		var count int
		var resetAt time.Time
		var err error

		if rl.client != nil {
			count, resetAt, err = rl.checkRedis(c.Request.Context(), key)
			if err != nil {
				logger.Log.Warn("Rate limit check failed", "error", err.Error(), "key", key)
				if rl.cfg.FailClosed {
					response.Abort(c, http.StatusServiceUnavailable, "Service temporarily unavailable. Please try again.", nil)
					return
				}
				count, resetAt = rl.checkInMemory(key)
			}
		} else {
			count, resetAt = rl.checkInMemory(key)
		}

		remaining := rl.cfg.Limit - count
		if remaining < 0 {
			remaining = 0
		}
		c.Header("X-RateLimit-Limit", strconv.Itoa(rl.cfg.Limit))
		c.Header("X-RateLimit-Remaining", strconv.Itoa(remaining))
		c.Header("X-RateLimit-Reset", resetAt.Format(time.RFC3339))

		if count > rl.cfg.Limit {
			retryAfter := int(resetAt.Sub(rl.now()).Seconds())
			if retryAfter < 1 {
				retryAfter = 1
			}
			c.Header("Retry-After", strconv.Itoa(retryAfter))

			logger.Log.Info("Rate limit triggered",
				"ip", c.ClientIP(),
				"path", c.FullPath(),
				"request_id", c.GetString(response.RequestIDKey),
			)
			response.Abort(c, http.StatusTooManyRequests, "Rate limit exceeded. Please try again later.", nil)
			return
		}

		c.Next()
	}
}

func (rl *RateLimiter) checkRedis(ctx context.Context, key string) (int, time.Time, error) {
	ttlSeconds := int(rl.cfg.Window.Seconds())

	result, err := rl.client.Eval(ctx, rateLimitLuaScript, []string{key}, ttlSeconds).Result()
	if err != nil {
		return 0, time.Time{}, errors.Wrap(err, "redis rate limit eval")
	}

	arr, ok := result.([]interface{})
	if !ok || len(arr) < 2 {
		return 0, time.Time{}, errors.New("unexpected redis result format")
	}

	count, _ := arr[0].(int64)
	ttl, _ := arr[1].(int64)

	return int(count), rl.now().Add(time.Duration(ttl) * time.Second), nil
}

// checkInMemory reports a count comparable to the Redis path: Limit+1 once
// the bucket is empty.
func (rl *RateLimiter) checkInMemory(key string) (int, time.Time) {
	rl.mu.Lock()
	defer rl.mu.Unlock()

	now := rl.now()
	// Idle visitors are dropped once per window
	if now.Sub(rl.lastSweep) > rl.cfg.Window {
		for k, v := range rl.visitors {
			if now.Sub(v.lastSeen) > rl.cfg.Window {
				delete(rl.visitors, k)
			}
		}
		rl.lastSweep = now
	}

	v, ok := rl.visitors[key]
	if !ok {
		every := rl.cfg.Window / time.Duration(rl.cfg.Limit)
		v = &visitor{limiter: rate.NewLimiter(rate.Every(every), rl.cfg.Limit)}
		rl.visitors[key] = v
	}
	v.lastSeen = now

	if !v.limiter.AllowN(now, 1) {
		// Time until one token is back
		resetAt := now.Add(time.Duration(float64(time.Second) / float64(v.limiter.Limit())))
		return rl.cfg.Limit + 1, resetAt
	}

	remaining := int(v.limiter.TokensAt(now))
	resetAt := now.Add(rl.cfg.Window)
	return rl.cfg.Limit - remaining, resetAt
}
