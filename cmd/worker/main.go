package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"go.uber.org/zap"

	"github.com/activity-search/internal/config"
	"github.com/activity-search/internal/infrastructure/provider"
	"github.com/activity-search/internal/pkg/logger"
	"github.com/activity-search/internal/repository/cache"
	redisRepo "github.com/activity-search/internal/repository/redis"
	"github.com/activity-search/internal/worker"
	"github.com/activity-search/internal/worker/search"
)

func main() {
	// 1. Load configuration
	cfg, err := config.Load()
	if err != nil {
		panic(fmt.Sprintf("Failed to load config: %v", err))
	}

	// Check if worker is enabled
	if !cfg.Worker.Enabled {
		fmt.Println("Worker is disabled in configuration. Set WORKER_ENABLED=true to enable.")
		os.Exit(0)
	}

	// 2. Initialize logger
	log, err := logger.New(cfg.Log.Level)
	if err != nil {
		panic(fmt.Sprintf("Failed to initialize logger: %v", err))
	}
	defer log.Sync()

	log.Info("Starting Activity Search Worker")
	log.Info("Configuration loaded",
		zap.String("consumer_group", cfg.Worker.ConsumerGroup),
		zap.Int("max_retries", cfg.Worker.MaxRetries),
		zap.Int("chunk_size", cfg.Worker.ChunkSize))

	// 3. Connect to Redis
	redisClient, err := cache.NewRedis(&cfg.Redis, log)
	if err != nil {
		log.Fatal("Failed to connect to Redis", zap.Error(err))
	}
	defer func() {
		if err := redisClient.Close(); err != nil {
			log.Error("Failed to close Redis connection", zap.Error(err))
		}
	}()

	// 4. Initialize repositories and clients
	streamRepo := redisRepo.NewStreamRepository(redisClient.Client(), log)
	providerClient := provider.NewProviderClient(&cfg.Provider, log)

	// 5. Initialize workers
	searchWorker := search.NewSearchWorker(
		streamRepo,
		providerClient,
		cfg.Worker.ConsumerGroup,
		cfg.Worker.MaxRetries,
		cfg.Worker.ChunkSize,
		log,
	)

	// 6. Create worker manager and register workers
	workerManager := worker.NewWorkerManager(log)
	workerManager.Register(searchWorker)

	// 7. Setup graceful shutdown
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Start workers
	if err := workerManager.Start(ctx); err != nil {
		log.Fatal("Failed to start workers", zap.Error(err))
	}

	// Wait for interrupt signal
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)

	<-sigChan
	log.Info("Received shutdown signal")

	// Cancel context to stop workers
	cancel()

	// Stop worker manager
	if err := workerManager.Stop(); err != nil {
		log.Error("Error stopping workers", zap.Error(err))
	}

	log.Info("Worker shutdown complete")
}
