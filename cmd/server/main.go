package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/redis/go-redis/v9"

	"github.com/motionhero/api/internal/client"
	"github.com/motionhero/api/internal/config"
	"github.com/motionhero/api/internal/handler"
	"github.com/motionhero/api/internal/logger"
	"github.com/motionhero/api/internal/middleware"
	"github.com/motionhero/api/internal/router"
	"github.com/motionhero/api/internal/service"
	ws "github.com/motionhero/api/internal/websocket"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		// logger needs config; fall back to a default one
		l := logger.New("production", "info")
		l.Fatal().Err(err).Msg("failed to load config")
	}

	log := logger.New(cfg.Server.Env, cfg.Server.LogLevel)

	if !cfg.Fal.IsConfigured() {
		log.Warn().Msg("FAL_KEY is not set; generation requests will fail with 500")
	}

	ctx := context.Background()

	// Redis is optional; without it rate limiting is off
	var redisClient *redis.Client
	if cfg.Redis.Addr != "" {
		redisClient = redis.NewClient(&redis.Options{
			Addr:     cfg.Redis.Addr,
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
		})
		if err := redisClient.Ping(ctx).Err(); err != nil {
			log.Warn().Err(err).Str("addr", cfg.Redis.Addr).Msg("redis not available")
		}
		defer redisClient.Close()
	} else {
		log.Info().Msg("redis not configured, rate limiting disabled")
	}

	validate := validator.New()

	hub := ws.NewHub(log)
	go hub.Run()
	defer hub.Stop()

	falClient := client.NewFalClient(&cfg.Fal, log)

	// Asset store: fal storage unless a bucket is configured
	var store client.AssetStore = falClient
	if cfg.Storage.Driver == config.StorageDriverS3 {
		s3Store, err := client.NewS3Store(ctx, &cfg.Storage.S3)
		if err != nil {
			log.Fatal().Err(err).Msg("failed to initialise S3 storage")
		}
		store = s3Store
		log.Info().Str("bucket", cfg.Storage.S3.Bucket).Msg("using S3 asset storage")
	}

	generationService := service.NewGenerationService(cfg.Fal, store, falClient, hub, log)
	generationHandler := handler.NewGenerationHandler(generationService, validate, cfg.Fal.Timeout, log)

	app := router.New(router.Deps{
		Logger:          log,
		BodyLimit:       cfg.Server.BodyLimitMB * 1024 * 1024,
		Generation:      generationHandler,
		RateLimiter:     middleware.NewRateLimiter(redisClient, log),
		GeneratePerHour: cfg.RateLimit.GeneratePerHour,
		Hub:             hub,
		Health: handler.HealthChecks{
			Fal:     cfg.Fal.IsConfigured,
			Storage: store.IsConfigured,
			Redis:   func() bool { return redisClient != nil },
		},
	})

	// Graceful shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

	go func() {
		<-quit
		log.Info().Msg("shutting down server")
		if err := app.ShutdownWithTimeout(10 * time.Second); err != nil {
			log.Error().Err(err).Msg("server shutdown error")
		}
	}()

	addr := ":" + cfg.Server.Port
	log.Info().Str("addr", addr).Str("model", cfg.Fal.Model).Msg("server starting")
	if err := app.Listen(addr); err != nil {
		log.Fatal().Err(err).Msg("server error")
	}
}
