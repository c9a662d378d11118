package middleware

import (
	"context"
	"net/http"
	"strconv"
	"time"

	"taskboard/internal/logger"

	"github.com/gin-gonic/gin"
	redis "github.com/redis/go-redis/v9"
)

var redisClient *redis.Client

// InitRedisRateLimiter initializes a shared Redis client used by the middleware.
// If the ping fails redisClient stays nil and RateLimit falls back to the
// in-process limiter.
func InitRedisRateLimiter(addr, password string, db int) {
	if addr == "" {
		return
	}
	client := redis.NewClient(&redis.Options{Addr: addr, Password: password, DB: db})
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	if err := client.Ping(ctx).Err(); err != nil {
		logger.Warn("redis unavailable, using in-process rate limiter", "addr", addr, "error", err)
		_ = client.Close()
		return
	}
	redisClient = client
}

// CloseRedisRateLimiter releases the shared client.
func CloseRedisRateLimiter() {
	if redisClient != nil {
		_ = redisClient.Close()
		redisClient = nil
	}
}

// RateLimit limits requests per owner (or per client IP before
// authentication) in fixed windows. Redis backs it when configured.
func RateLimit(maxRequests int, window time.Duration) gin.HandlerFunc {
	local := SimpleRateLimit(maxRequests, window)
	return func(c *gin.Context) {
		if redisClient == nil {
			local(c)
			return
		}
		redisRateLimit(c, maxRequests, window)
	}
}

// rateIdentity keys the limiter by owner, falling back to the client IP.
func rateIdentity(c *gin.Context) string {
	if owner, ok := OwnerID(c); ok {
		return "owner:" + owner
	}
	return "ip:" + c.ClientIP()
}

// redisRateLimit is a fixed-window limiter using INCR/EXPIRE.
// key format: rl:<window_seconds>:<identity>
func redisRateLimit(c *gin.Context, maxRequests int, window time.Duration) {
	key := "rl:" + strconv.FormatInt(int64(window.Seconds()), 10) + ":" + rateIdentity(c)
	ctx := c.Request.Context()

	val, err := redisClient.Incr(ctx, key).Result()
	if err != nil {
		// fail-open
		c.Header("X-RateLimit-Error", "redis-error")
		c.Next()
		return
	}
	if val == 1 {
		redisClient.Expire(ctx, key, window)
	}

	limited(c, maxRequests, val, window)
}

func limited(c *gin.Context, maxRequests int, count int64, window time.Duration) {
	c.Header("X-RateLimit-Limit", strconv.Itoa(maxRequests))
	c.Header("X-RateLimit-Remaining", strconv.FormatInt(max(0, int64(maxRequests)-count), 10))

	if count > int64(maxRequests) {
		RLBlocked.WithLabelValues(c.FullPath()).Inc()
		c.Header("Retry-After", strconv.Itoa(int(window.Seconds())))
		Abort(c, http.StatusTooManyRequests, "rate limit exceeded")
		return
	}

	RLRequests.WithLabelValues(c.FullPath()).Inc()
	c.Next()
}

// RedisProbe reports whether the shared limiter client answers. It returns
// false when the limiter runs in-process.
func RedisProbe() (func(ctx context.Context) error, bool) {
	if redisClient == nil {
		return nil, false
	}
	c := redisClient
	return func(ctx context.Context) error { return c.Ping(ctx).Err() }, true
}
