package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/fhuszti/skillswap-media-ms/internal/assets"
	"github.com/fhuszti/skillswap-media-ms/internal/config"
	workerHandler "github.com/fhuszti/skillswap-media-ms/internal/handler/worker"
	"github.com/fhuszti/skillswap-media-ms/internal/logger"
	"github.com/fhuszti/skillswap-media-ms/internal/storage"
	"github.com/fhuszti/skillswap-media-ms/internal/task"
	"github.com/hibiken/asynq"
)

func main() {
	ctx := context.Background()

	cfg, err := config.Load()
	if err != nil {
		logger.Errorf(ctx, "❌  Configuration error: %v", err)
		os.Exit(1)
	}

	logger.Init()

	if cfg.RedisAddr == "" {
		logger.Error(ctx, "⚠️  REDIS_ADDR must be set to run the worker")
		os.Exit(1)
	}

	svc := initAssets(ctx, cfg)

	mux := asynq.NewServeMux()
	mux.HandleFunc(task.TypeDeleteAsset, func(ctx context.Context, t *asynq.Task) error {
		p, err := task.ParseDeleteAssetPayload(t)
		if err != nil {
			return fmt.Errorf("%w: %w", err, asynq.SkipRetry)
		}
		return workerHandler.DeleteAssetHandler(ctx, p, svc)
	})

	runWorker(ctx, mux, cfg)
}

// initAssets registers every provider with credentials; deletions can target
// assets written before the image provider was switched.
func initAssets(ctx context.Context, cfg *config.Settings) *assets.Service {
	var providers []assets.Provider

	if cfg.CloudinaryEnabled() {
		c, err := assets.NewCloudinary(cfg.CloudinaryCloudName, cfg.CloudinaryAPIKey, cfg.CloudinaryAPISecret)
		if err != nil {
			logger.Errorf(ctx, "❌  Failed to initialise Cloudinary: %v", err)
			os.Exit(1)
		}
		providers = append(providers, c)
	}

	if cfg.ObjectStoreEnabled() {
		strg, err := storage.NewStorage(cfg.MinioEndpoint, cfg.MinioAccessKey, cfg.MinioSecretKey, cfg.MinioUseSSL)
		if err != nil {
			logger.Errorf(ctx, "❌  Failed to initialise MinIO client: %v", err)
			os.Exit(1)
		}
		providers = append(providers, assets.NewObjectStore(strg))
	}

	return assets.NewService(assets.Options{
		Timeout:            cfg.AssetTimeout,
		BreakerFailureRate: cfg.BreakerFailureRate,
		BreakerMinRequests: cfg.BreakerMinRequests,
		BreakerTimeout:     cfg.BreakerTimeout,
	}, providers...)
}

func runWorker(ctx context.Context, mux *asynq.ServeMux, cfg *config.Settings) {
	srv := asynq.NewServer(asynq.RedisClientOpt{
		Addr:     cfg.RedisAddr,
		Password: cfg.RedisPassword,
	}, asynq.Config{
		Concurrency:     10,
		ShutdownTimeout: cfg.AssetTimeout,
	})

	// Run server in background
	go func() {
		if err := srv.Run(mux); err != nil {
			logger.Errorf(context.Background(), "❌  Worker failed: %v", err)
			os.Exit(1)
		}
	}()
	logger.Info(ctx, "🚀 Worker started")

	// Wait for interrupt signal
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM)
	<-sigCh
	logger.Info(ctx, "🛑 Shutdown signal received, exiting…")

	// stop accepting new tasks, finish in-flight ones within ShutdownTimeout
	srv.Shutdown()
	logger.Info(ctx, "✅  Worker gracefully stopped")
}
