package middleware

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"imagevault/internal/redis"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
)

type stubLimiter struct {
	result *redis.RateLimitResult
	err    error
}

func (s *stubLimiter) AllowUpload(ctx context.Context, ownerID string) (*redis.RateLimitResult, error) {
	return s.result, s.err
}

func limitedRouter(limiter UploadLimiter) *gin.Engine {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.POST("/uploads",
		func(c *gin.Context) { c.Set(ownerIDKey, "owner-1") },
		RateLimitMiddleware(limiter, nil),
		func(c *gin.Context) { c.Status(http.StatusCreated) },
	)
	return r
}

func TestRateLimitMiddleware_Allows(t *testing.T) {
	r := limitedRouter(&stubLimiter{result: &redis.RateLimitResult{
		Allowed:   true,
		Remaining: 29,
		Limit:     30,
	}})
	w := httptest.NewRecorder()

	r.ServeHTTP(w, httptest.NewRequest(http.MethodPost, "/uploads", nil))

	assert.Equal(t, http.StatusCreated, w.Code)
	assert.Equal(t, "30", w.Header().Get("X-RateLimit-Limit"))
	assert.Equal(t, "29", w.Header().Get("X-RateLimit-Remaining"))
}

func TestRateLimitMiddleware_Blocks(t *testing.T) {
	r := limitedRouter(&stubLimiter{result: &redis.RateLimitResult{
		Allowed: false,
		ResetIn: 42 * time.Second,
		Limit:   30,
	}})
	w := httptest.NewRecorder()

	r.ServeHTTP(w, httptest.NewRequest(http.MethodPost, "/uploads", nil))

	assert.Equal(t, http.StatusTooManyRequests, w.Code)
	assert.Equal(t, "42", w.Header().Get("Retry-After"))
	assert.Contains(t, w.Body.String(), "RATE_LIMITED")
}

func TestRateLimitMiddleware_FailsOpenOnLimiterError(t *testing.T) {
	r := limitedRouter(&stubLimiter{err: errors.New("redis down")})
	w := httptest.NewRecorder()

	r.ServeHTTP(w, httptest.NewRequest(http.MethodPost, "/uploads", nil))

	assert.Equal(t, http.StatusCreated, w.Code)
}

func TestRateLimitMiddleware_NilLimiterPassesThrough(t *testing.T) {
	r := limitedRouter(nil)
	w := httptest.NewRecorder()

	r.ServeHTTP(w, httptest.NewRequest(http.MethodPost, "/uploads", nil))

	assert.Equal(t, http.StatusCreated, w.Code)
}
