package main

import (
	"context"
	"log"

	"docuchat/config"
	"docuchat/internal/ai"
	"docuchat/internal/handler"
	appredis "docuchat/internal/redis"
	"docuchat/internal/repository"
	"docuchat/internal/server"
	"docuchat/internal/services"
	"docuchat/internal/storage"
	"docuchat/pkg/database"
	"docuchat/pkg/logger"
)

func main() {
	cfg := config.LoadConfig()

	mode := logger.DevelopmentMode
	if cfg.AppMode == server.ReleaseMode {
		mode = logger.ProductionMode
	}
	l := logger.New(mode)
	logger.SetGlobalLogger(l)

	database.Connect(cfg)

	blob, err := storage.NewClient(context.Background(), storage.S3Config{
		Region:     cfg.S3Region,
		Bucket:     cfg.S3Bucket,
		AccessKey:  cfg.S3AccessKey,
		SecretKey:  cfg.S3SecretKey,
		Endpoint:   cfg.S3Endpoint,
		PresignTTL: cfg.S3PresignTTL,
	})
	if err != nil {
		log.Fatalf("Failed to create s3 client: %v", err)
	}

	collaborator, err := ai.NewGeminiClient(ai.GeminiConfig{
		APIKey:  cfg.GeminiAPIKey,
		BaseURL: cfg.GeminiBaseURL,
		Model:   cfg.GeminiModel,
	})
	if err != nil {
		log.Fatalf("Failed to create gemini client: %v", err)
	}

	fileRepo := repository.NewFileRepository(database.DB)
	procRepo := repository.NewProcessingRepository(database.DB)

	fileService := services.NewFileService(fileRepo, procRepo, blob, l)
	procService := services.NewProcessingService(procRepo, fileRepo, blob, collaborator, cfg.AITimeout, l)

	redisClient := appredis.NewClient(appredis.Config{
		Host:     cfg.RedisHost,
		Port:     cfg.RedisPort,
		Password: cfg.RedisPassword,
		DB:       cfg.RedisDB,
	})
	limitCfg := appredis.DefaultRateLimitConfig()
	limitCfg.RequestLimit = cfg.RateLimitPerMin
	limiter := appredis.NewRateLimiter(redisClient, limitCfg)

	srv := server.New(cfg, l)
	srv.SetupRoutes(&server.Handlers{
		Files:      handler.NewFileHandler(fileService),
		Processing: handler.NewProcessingHandler(procService),
	}, limiter)

	if err := srv.Start(); err != nil {
		log.Fatalf("Server shutdown failed: %v", err)
	}
}
