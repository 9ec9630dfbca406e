package main

// @title Activity Search API
// @version 1.0.0
// @description Сервис поиска активностей по текстовому запросу локации. Геокодирует запрос через Nominatim, ставит поисковое задание в очередь и стримит результаты клиенту: состояние поиска, нормализованные активности и маркеры для карты.
// @description
// @description Основные возможности:
// @description - Запуск поиска активностей (fast search / deep search)
// @description - Стриминг состояния поиска через Server-Sent Events
// @description - Нормализация сырых данных провайдера с отчётом об ошибках маппинга
// @description - История завершённых поисков

// @contact.name API Support
// @contact.email support@activity-search.dev

// @license.name MIT
// @license.url https://opensource.org/licenses/MIT

// @host localhost:8080
// @BasePath /
// @schemes http https

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"go.uber.org/zap"

	_ "github.com/activity-search/docs"
	"github.com/activity-search/internal/config"
	httpDelivery "github.com/activity-search/internal/delivery/http"
	"github.com/activity-search/internal/delivery/http/handler"
	"github.com/activity-search/internal/domain/repository"
	"github.com/activity-search/internal/infrastructure/nominatim"
	"github.com/activity-search/internal/pkg/logger"
	"github.com/activity-search/internal/repository/cache"
	"github.com/activity-search/internal/repository/postgres"
	redisRepo "github.com/activity-search/internal/repository/redis"
	"github.com/activity-search/internal/usecase"
)

func main() {
	// 1. Load configuration
	cfg, err := config.Load()
	if err != nil {
		panic(fmt.Sprintf("Failed to load config: %v", err))
	}

	// 2. Initialize logger
	log, err := logger.New(cfg.Log.Level)
	if err != nil {
		panic(fmt.Sprintf("Failed to initialize logger: %v", err))
	}
	defer log.Sync()

	log.Info("Starting Activity Search API")
	log.Info("Configuration loaded",
		zap.String("env", cfg.Server.Env),
		zap.String("server_addr", cfg.GetServerAddr()),
	)

	// 3. Connect to Redis (кеш геокодинга + стримы заданий и кадров)
	redisClient, err := cache.NewRedis(&cfg.Redis, log)
	if err != nil {
		log.Fatal("Failed to connect to Redis", zap.Error(err))
	}
	defer func() {
		if err := redisClient.Close(); err != nil {
			log.Error("Failed to close Redis connection", zap.Error(err))
		}
	}()
	log.Info("Redis connected")

	// 4. Connect to PostgreSQL (история поисков, опционально)
	var db *postgres.DB
	var historyRepo repository.HistoryRepository
	if cfg.Search.HistoryEnabled {
		db, err = postgres.New(&cfg.Database, log)
		if err != nil {
			log.Fatal("Failed to connect to PostgreSQL", zap.Error(err))
		}
		defer func() {
			if err := db.Close(); err != nil {
				log.Error("Failed to close PostgreSQL connection", zap.Error(err))
			}
		}()
		historyRepo = postgres.NewHistoryRepository(db, log)
		log.Info("PostgreSQL connected, search history enabled")
	} else {
		log.Info("Search history disabled")
	}

	// 5. Health checks
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := redisClient.Health(ctx); err != nil {
		log.Fatal("Redis health check failed", zap.Error(err))
	}
	if db != nil {
		if err := db.Health(ctx); err != nil {
			log.Fatal("PostgreSQL health check failed", zap.Error(err))
		}
	}
	log.Info("All connections healthy")

	// 6. Initialize repositories and clients
	cacheRepo := cache.NewCacheRepository(redisClient)
	streamRepo := redisRepo.NewStreamRepository(redisClient.Client(), log)
	geocoder := nominatim.NewNominatimClient(&cfg.Geocoder, log)

	log.Info("Repositories initialized")

	// 7. Initialize use cases
	ingestUC := usecase.NewIngestUseCase(log)
	searchUC := usecase.NewSearchUseCase(
		geocoder,
		cacheRepo,
		streamRepo,
		historyRepo,
		ingestUC,
		log,
		cfg.Search.JobTimeout,
		cfg.Cache.GeocodeCacheTTL,
	)
	defer searchUC.Teardown()

	log.Info("Use cases initialized")

	// 8. Initialize HTTP handlers
	searchHandler := handler.NewSearchHandler(searchUC, log)
	var historyHandler *handler.HistoryHandler
	if historyRepo != nil {
		historyHandler = handler.NewHistoryHandler(historyRepo, cfg.Search.HistoryLimit, log)
	}

	log.Info("HTTP handlers initialized")

	// 9. Initialize HTTP server
	server := httpDelivery.NewServer(cfg, log, searchHandler, historyHandler)

	// 10. Start server in goroutine
	go func() {
		if err := server.Start(); err != nil {
			log.Fatal("Failed to start server", zap.Error(err))
		}
	}()

	log.Info("Server started successfully",
		zap.String("address", cfg.GetServerAddr()),
		zap.String("env", cfg.Server.Env),
	)

	// 11. Graceful shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, os.Interrupt, syscall.SIGTERM)
	<-quit

	log.Info("Shutting down server gracefully...")

	ctx, cancel = context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := server.Shutdown(ctx); err != nil {
		log.Error("Server shutdown error", zap.Error(err))
	}

	// Закрывает канал кадров активного поиска и все SSE-подписки
	searchUC.Teardown()

	log.Info("Server stopped successfully")
}
