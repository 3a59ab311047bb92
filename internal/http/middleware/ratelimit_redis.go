package middleware

import (
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	redis "github.com/redis/go-redis/v9"

	"mineduel/internal/logger"
	"mineduel/internal/metrics"
)

var redisClient *redis.Client

// UseRedis shares client with the rate limiters. With a nil client every
// limiter runs in process memory.
func UseRedis(client *redis.Client) {
	redisClient = client
}

// RedisRateLimit implements a fixed-window limiter using Redis INCR/EXPIRE,
// keyed rl:<scope>:<window_seconds>:<ip>. Without redis, or on a redis
// error, the in-memory limiter decides.
func RedisRateLimit(scope string, maxRequests int, window time.Duration) gin.HandlerFunc {
	fallback := NewIPLimiter(maxRequests, window)
	local := LocalRateLimit(scope, fallback)

	return func(c *gin.Context) {
		if redisClient == nil {
			local(c)
			return
		}

		ident := c.ClientIP()
		key := "rl:" + scope + ":" + strconv.FormatInt(int64(window.Seconds()), 10) + ":" + ident
		ctx := c.Request.Context()

		val, err := redisClient.Incr(ctx, key).Result()
		if err != nil {
			logger.WithContext(ctx).Warn("rate limiter redis error", "error", err)
			c.Header("X-RateLimit-Error", "redis-error")
			local(c)
			return
		}
		if val == 1 {
			redisClient.Expire(ctx, key, window)
		}

		c.Header("X-RateLimit-Limit", strconv.Itoa(maxRequests))
		c.Header("X-RateLimit-Remaining", strconv.FormatInt(max(0, int64(maxRequests)-val), 10))

		if val > int64(maxRequests) {
			metrics.RLBlocked.WithLabelValues(scope).Inc()
			c.AbortWithStatusJSON(http.StatusTooManyRequests, gin.H{
				"error":       "rate limit exceeded",
				"retry_after": int(window.Seconds()),
			})
			return
		}

		metrics.RLRequests.WithLabelValues(scope).Inc()
		c.Next()
	}
}
