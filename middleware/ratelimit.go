package middleware

import (
	"context"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"

	"executive-portfolio-api/internal/config"
	"executive-portfolio-api/internal/logger"
	"executive-portfolio-api/internal/telemetry"
	"executive-portfolio-api/utils"
)

// SubmitRateLimit caps message submissions per visitor IP using a Redis
// fixed window (INCR + EXPIRE). The window default is one hour, which is
// the cooldown the form surfaces to the visitor on 429.
//
// Redis being unavailable fails open: a broken limiter must not block the
// contact form.
func SubmitRateLimit(rdb *redis.Client, cfg *config.Config, metrics *telemetry.Metrics) gin.HandlerFunc {
	window := time.Duration(cfg.SubmitRateWindow) * time.Second

	return func(c *gin.Context) {
		key := "submitlimit:" + c.ClientIP()

		ctx := context.Background()
		count, err := rdb.Incr(ctx, key).Result()
		if err != nil {
			logger.Warn("submit rate limiter unavailable, failing open", "error", err)
			c.Next()
			return
		}

		// Window starts at the first submission
		if count == 1 {
			rdb.Expire(ctx, key, window)
		}

		if count > int64(cfg.SubmitRateLimit) {
			if metrics != nil {
				metrics.RecordRateLimitReject()
			}
			c.Header("X-RateLimit-Limit", strconv.Itoa(cfg.SubmitRateLimit))
			c.Header("X-RateLimit-Remaining", "0")
			c.Header("Retry-After", strconv.Itoa(cfg.SubmitRateWindow))

			utils.RespondWithError(c, http.StatusTooManyRequests,
				"rate_limit_exceeded",
				"You have reached the message limit. Please try again after an hour.",
				gin.H{
					"retry_after": cfg.SubmitRateWindow,
					"limit":       cfg.SubmitRateLimit,
				})
			c.Abort()
			return
		}

		c.Header("X-RateLimit-Limit", strconv.Itoa(cfg.SubmitRateLimit))
		c.Header("X-RateLimit-Remaining", strconv.Itoa(cfg.SubmitRateLimit-int(count)))
		c.Next()
	}
}
