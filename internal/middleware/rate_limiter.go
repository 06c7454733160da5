package middleware

import (
	"fmt"
	"net/http"
	"time"

	"github.com/attestation/backend/internal/config"
	"github.com/attestation/backend/internal/logging"
	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
)

// RateLimiter limits requests per client IP over cfg.RateLimitDuration.
// When redis is unreachable requests are let through.
func RateLimiter(redisClient *redis.Client, cfg *config.Config) gin.HandlerFunc {
	log := logging.WithComponent("rate_limiter")

	return func(c *gin.Context) {
		ctx := c.Request.Context()
		key := fmt.Sprintf("rate_limit:%s", c.ClientIP())

		count, err := redisClient.Get(ctx, key).Int()
		switch {
		case err == redis.Nil:
			if err := redisClient.Set(ctx, key, 1, cfg.RateLimitDuration).Err(); err != nil {
				log.WithError(err).Warn("Rate limiter failed to set key")
				c.Next()
				return
			}
			count = 1
		case err != nil:
			log.WithError(err).Warn("Redis not available for rate limiting")
			c.Next()
			return
		case count >= cfg.RateLimitRequests:
			ttl, _ := redisClient.TTL(ctx, key).Result()
			c.Header("X-RateLimit-Limit", fmt.Sprintf("%d", cfg.RateLimitRequests))
			c.Header("X-RateLimit-Remaining", "0")
			c.Header("X-RateLimit-Reset", fmt.Sprintf("%d", time.Now().Add(ttl).Unix()))
			c.AbortWithStatusJSON(http.StatusTooManyRequests, gin.H{
				"error":       "rate_limit_exceeded",
				"retry_after": ttl.Seconds(),
			})
			return
		default:
			newCount, err := redisClient.Incr(ctx, key).Result()
			if err != nil {
				log.WithError(err).Warn("Rate limiter failed to increment key")
				c.Next()
				return
			}
			count = int(newCount)
		}

		c.Header("X-RateLimit-Limit", fmt.Sprintf("%d", cfg.RateLimitRequests))
		c.Header("X-RateLimit-Remaining", fmt.Sprintf("%d", cfg.RateLimitRequests-count))
		c.Next()
	}
}
