package middleware

import (
	"errors"
	"net/http"

	"imagevault/internal/transport/httpdto"
	vault_errors "imagevault/pkg/errors"
	"imagevault/pkg/logger"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// ErrorHandler maps errors attached by handlers to HTTP responses. Domain
// errors carry their own message; anything unclassified becomes a generic
// internal failure so driver and SDK details never leak to clients. The
// original error is always logged with request context.
func ErrorHandler(l *logger.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Next()

		if len(c.Errors) == 0 {
			return
		}

		err := c.Errors.Last().Err
		status, code, message := mapError(err)

		if l != nil {
			l.WithContext(c.Request.Context()).Error("request error",
				zap.String("path", c.Request.URL.Path),
				zap.String("code", code),
				zap.Error(err),
			)
		}
		c.JSON(status, httpdto.NewErrorResponse(message, code))
	}
}

func mapError(err error) (int, string, string) {
	switch {
	case errors.Is(err, vault_errors.ErrInvalidMedia):
		return http.StatusBadRequest, "INVALID_MEDIA", err.Error()
	case errors.Is(err, vault_errors.ErrModelNotSupported):
		return http.StatusBadRequest, "MODEL_NOT_SUPPORTED", err.Error()
	case errors.Is(err, vault_errors.ErrInvalidInput):
		return http.StatusBadRequest, "INVALID_INPUT", err.Error()
	case errors.Is(err, vault_errors.ErrNotFound):
		return http.StatusNotFound, "NOT_FOUND", "upload not found"
	case errors.Is(err, vault_errors.ErrUnauthorized):
		return http.StatusUnauthorized, "UNAUTHORIZED", "unauthorized"
	case errors.Is(err, vault_errors.ErrRateLimited):
		return http.StatusTooManyRequests, "RATE_LIMITED", "rate limit exceeded"
	case errors.Is(err, vault_errors.ErrExternalService):
		return http.StatusBadGateway, "EXTERNAL_SERVICE_UNAVAILABLE", "external service unavailable"
	case errors.Is(err, vault_errors.ErrStorageFailure),
		errors.Is(err, vault_errors.ErrPersistence):
		return http.StatusInternalServerError, "INTERNAL_ERROR", "internal error"
	default:
		return http.StatusInternalServerError, "INTERNAL_ERROR", "internal error"
	}
}
