package middleware

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
)

const rateLimitScript = `
local current = redis.call("INCR", KEYS[1])
if current == 1 then
  redis.call("EXPIRE", KEYS[1], ARGV[1])
end
return current
`

type redisEvaler interface {
	Eval(ctx context.Context, script string, keys []string, args ...interface{}) *redis.Cmd
}

// RateLimiter is a fixed-window counter backed by Redis. It fails open: if
// Redis is unreachable the request is let through rather than blocked.
type RateLimiter struct {
	client redisEvaler
	window time.Duration
	max    int
	prefix string
}

func NewRateLimiter(client *redis.Client, window time.Duration, max int, prefix string) *RateLimiter {
	if window <= 0 {
		window = 15 * time.Minute
	}
	if max <= 0 {
		max = 100
	}
	return &RateLimiter{client: client, window: window, max: max, prefix: prefix}
}

// Allow reports whether the caller identified by key is within its window
// budget.
func (l *RateLimiter) Allow(ctx context.Context, key string) bool {
	if l == nil || l.client == nil {
		return true
	}
	ctx, cancel := context.WithTimeout(ctx, 500*time.Millisecond)
	defer cancel()

	seconds := int(l.window.Seconds())
	count, err := l.client.Eval(ctx, rateLimitScript, []string{l.prefix + key}, seconds).Int()
	if err != nil {
		return true
	}
	return count <= l.max
}

// RateLimit applies the limiter per client IP.
func RateLimit(limiter *RateLimiter) gin.HandlerFunc {
	return rateLimitWith(limiter, "RATE_LIMIT_EXCEEDED",
		"Too many requests from this IP, try again later",
		func(c *gin.Context) string { return c.ClientIP() })
}

// AuthRateLimit applies a stricter limiter keyed by IP and path, so failed
// login attempts against one endpoint do not consume the budget of another.
func AuthRateLimit(limiter *RateLimiter) gin.HandlerFunc {
	return rateLimitWith(limiter, "AUTH_RATE_LIMIT_EXCEEDED",
		"Too many authentication attempts, try again later",
		func(c *gin.Context) string { return c.ClientIP() + ":" + c.FullPath() })
}

func rateLimitWith(limiter *RateLimiter, code, message string, keyFn func(*gin.Context) string) gin.HandlerFunc {
	return func(c *gin.Context) {
		if !limiter.Allow(c.Request.Context(), keyFn(c)) {
			RespondWithError(c, http.StatusTooManyRequests, code, message)
			c.Abort()
			return
		}
		c.Next()
	}
}
