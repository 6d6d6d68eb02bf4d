package main

import (
	"context"
	"fmt"
	"log"
	"time"

	"imagevault/config"
	"imagevault/internal/caption"
	"imagevault/internal/engine"
	"imagevault/internal/handlers"
	"imagevault/internal/redis"
	"imagevault/internal/repository"
	"imagevault/internal/services"
	"imagevault/internal/storage"
	"imagevault/pkg/logger"

	"github.com/gin-gonic/gin"
)

func main() {
	cfg := config.LoadConfig()

	l := logger.New(cfg.Server.Environment)
	defer l.Logger.Sync()

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	// Metadata store
	mongoClient, err := repository.Connect(ctx, cfg.Mongo)
	if err != nil {
		log.Fatalf("Failed to connect to MongoDB: %v", err)
	}
	defer mongoClient.Disconnect(context.Background())

	uploads := repository.UploadCollection(mongoClient, cfg.Mongo.Database)
	if err := repository.EnsureUploadIndexes(ctx, uploads); err != nil {
		log.Fatalf("Failed to create upload indexes: %v", err)
	}
	repo := repository.NewUploadRepository(uploads)

	// Object store
	store, err := storage.NewClient(ctx, storage.S3Config{
		Region:     cfg.S3.Region,
		Bucket:     cfg.S3.Bucket,
		AccessKey:  cfg.S3.AccessKey,
		SecretKey:  cfg.S3.SecretKey,
		Endpoint:   cfg.S3.Endpoint,
		PublicBase: cfg.S3.PublicBase,
	}, l)
	if err != nil {
		log.Fatalf("Failed to initialize S3 client: %v", err)
	}

	// Background-removal engine
	pool := engine.NewPool(cfg.Engine.Workers)
	pool.Start()
	defer pool.Stop()
	remover := engine.New(engine.HTTPModels(cfg.Engine.RembgEndpoint, 2*time.Minute), pool, l)

	// Captioning (best effort)
	captions := caption.New(cfg.Caption.Endpoint, cfg.Caption.Timeout, l)

	// Rate limiting
	limiter := redis.NewRateLimiter(redis.NewClient(cfg.Redis), redis.DefaultRateLimitConfig())

	svc := services.NewUploadService(repo, store, remover, captions, l)

	if cfg.Server.Environment == logger.ProductionMode {
		gin.SetMode(gin.ReleaseMode)
	}
	r := gin.New()
	r.Use(gin.Recovery())

	handlers.RegisterRoutes(r, handlers.NewUploadHandler(svc), cfg.Auth.JWTSecret, limiter, l)

	l.Infof("Starting server on port %s", cfg.Server.Port)
	if err := r.Run(fmt.Sprintf(":%s", cfg.Server.Port)); err != nil {
		log.Fatalf("Failed to start server: %v", err)
	}
}
