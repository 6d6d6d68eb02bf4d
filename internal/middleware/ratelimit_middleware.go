package middleware

import (
	"context"
	"net/http"
	"strconv"

	"imagevault/internal/redis"
	"imagevault/internal/transport/httpdto"
	"imagevault/pkg/logger"

	"github.com/gin-gonic/gin"
)

// UploadLimiter is the slice of the rate limiter the middleware consumes.
type UploadLimiter interface {
	AllowUpload(ctx context.Context, ownerID string) (*redis.RateLimitResult, error)
}

// RateLimitMiddleware guards the ingest endpoints. Limiter errors fail open;
// a broken Redis must not take uploads down with it.
func RateLimitMiddleware(limiter UploadLimiter, l *logger.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		if limiter == nil {
			c.Next()
			return
		}
		owner := OwnerID(c)
		if owner == "" {
			c.Next()
			return
		}

		result, err := limiter.AllowUpload(c.Request.Context(), owner)
		if err != nil {
			if l != nil {
				l.Warnf("rate limit check failed, allowing request: %v", err)
			}
			c.Next()
			return
		}

		c.Header("X-RateLimit-Limit", strconv.Itoa(result.Limit))
		c.Header("X-RateLimit-Remaining", strconv.Itoa(result.Remaining))

		if !result.Allowed {
			c.Header("Retry-After", strconv.Itoa(int(result.ResetIn.Seconds())))
			c.JSON(http.StatusTooManyRequests, httpdto.NewErrorResponse("rate limit exceeded", "RATE_LIMITED"))
			c.Abort()
			return
		}
		c.Next()
	}
}
