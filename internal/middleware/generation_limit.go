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

// GenerationLimit caps the number of certificates a client IP can generate
// per calendar day in the configured timezone. Only successful generations
// are counted and the counter resets at midnight. A limit of 0 disables the
// check.
func GenerationLimit(redisClient *redis.Client, cfg *config.Config, now func() time.Time) gin.HandlerFunc {
	log := logging.WithComponent("generation_limit")
	loc := cfg.Location()

	return func(c *gin.Context) {
		if cfg.GenerationDailyLimit <= 0 {
			c.Next()
			return
		}

		ctx := c.Request.Context()
		today := now().In(loc)
		key := fmt.Sprintf("generation_limit:%s:%s", c.ClientIP(), today.Format("2006-01-02"))

		count, err := redisClient.Get(ctx, key).Int()
		if err != nil && err != redis.Nil {
			log.WithError(err).Warn("Redis not available for generation limit")
		} else if count >= cfg.GenerationDailyLimit {
			ttl, _ := redisClient.TTL(ctx, key).Result()
			c.AbortWithStatusJSON(http.StatusTooManyRequests, gin.H{
				"error":                   "generation_limit_exceeded",
				"message":                 "Too many certificates generated today. Please try again tomorrow.",
				"retry_after_hours":       int(ttl.Hours()),
				"generations_today":       count,
				"max_generations_per_day": cfg.GenerationDailyLimit,
			})
			return
		}

		c.Next()

		if c.Writer.Status() != http.StatusOK {
			return
		}
		midnight := time.Date(today.Year(), today.Month(), today.Day()+1, 0, 0, 0, 0, loc)
		_, err = redisClient.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
			pipe.Incr(ctx, key)
			pipe.Expire(ctx, key, midnight.Sub(today))
			return nil
		})
		if err != nil {
			log.WithError(err).Warn("Generation limit failed to count generation")
		}
	}
}
