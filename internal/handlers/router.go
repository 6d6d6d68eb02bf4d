package handlers

import (
	"imagevault/internal/middleware"
	"imagevault/pkg/logger"

	"github.com/gin-gonic/gin"
)

// RegisterRoutes wires the upload API under /api/v1. Everything except the
// public gallery and the model catalog requires a bearer token; the ingest
// endpoints additionally sit behind the rate limiter.
func RegisterRoutes(r *gin.Engine, h *UploadHandler, jwtSecret string, limiter middleware.UploadLimiter, l *logger.Logger) {
	r.Use(
		middleware.RequestIDMiddleware(),
		middleware.LoggingMiddleware(l),
		middleware.ErrorHandler(l),
	)

	api := r.Group("/api/v1")
	api.GET("/models", h.Models)
	api.GET("/uploads/public", h.Public)

	auth := api.Group("", middleware.AuthMiddleware(jwtSecret))
	auth.GET("/uploads", h.List)
	auth.GET("/uploads/:id", h.Get)
	auth.PATCH("/uploads/:id", h.Update)
	auth.DELETE("/uploads/:id", h.Delete)

	ingest := auth.Group("", middleware.RateLimitMiddleware(limiter, l))
	ingest.POST("/uploads", h.Create)
	ingest.POST("/uploads/background-removal", h.CreateWithBackgroundRemoval)
}
