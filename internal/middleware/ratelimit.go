package middleware

import (
	"context"
	"math"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	appErrors "github.com/noah-isme/doctor-booking-api/pkg/errors"
	"github.com/noah-isme/doctor-booking-api/pkg/response"
)

type windowCounter interface {
	IncrWindow(ctx context.Context, key string, window time.Duration) (int64, time.Duration, error)
}

type rateLimitRecorder interface {
	RecordRateLimited()
}

// RateLimitConfig bounds requests per client IP inside a fixed window.
type RateLimitConfig struct {
	Name   string
	Limit  int
	Window time.Duration
}

// RateLimit rejects a client IP with TOO_MANY_REQUESTS once it exceeds Limit requests in the
// current window. Counter failures let the request through.
func RateLimit(counter windowCounter, recorder rateLimitRecorder, cfg RateLimitConfig, logger *zap.Logger) gin.HandlerFunc {
	if logger == nil {
		logger = zap.NewNop()
	}
	if cfg.Name == "" {
		cfg.Name = "default"
	}

	return func(c *gin.Context) {
		if counter == nil || cfg.Limit <= 0 || cfg.Window <= 0 {
			c.Next()
			return
		}

		key := "ratelimit:" + cfg.Name + ":" + c.ClientIP()
		count, remaining, err := counter.IncrWindow(c.Request.Context(), key, cfg.Window)
		if err != nil {
			logger.Warn("rate limit counter unavailable", zap.String("key", key), zap.Error(err))
			c.Next()
			return
		}

		left := int64(cfg.Limit) - count
		if left < 0 {
			left = 0
		}
		h := c.Writer.Header()
		h.Set("X-RateLimit-Limit", strconv.Itoa(cfg.Limit))
		h.Set("X-RateLimit-Remaining", strconv.FormatInt(left, 10))

		if count > int64(cfg.Limit) {
			h.Set("Retry-After", strconv.Itoa(int(math.Ceil(remaining.Seconds()))))
			if recorder != nil {
				recorder.RecordRateLimited()
			}
			response.Error(c, appErrors.Clone(appErrors.ErrTooManyRequests, "too many booking attempts, try again later"))
			c.Abort()
			return
		}
		c.Next()
	}
}
