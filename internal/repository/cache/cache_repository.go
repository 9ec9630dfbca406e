package cache

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/activity-search/internal/domain"
	"github.com/activity-search/internal/domain/repository"
)

type cacheRepository struct {
	client *redis.Client
	logger *zap.Logger
}

func NewCacheRepository(redis *Redis) repository.CacheRepository {
	return &cacheRepository{
		client: redis.Client(),
		logger: redis.logger,
	}
}

func (r *cacheRepository) Get(ctx context.Context, key string) ([]byte, error) {
	val, err := r.client.Get(ctx, key).Bytes()
	if err == redis.Nil {
		return nil, nil // Cache miss
	}
	if err != nil {
		r.logger.Error("Failed to get from cache", zap.String("key", key), zap.Error(err))
		return nil, fmt.Errorf("cache get error: %w", err)
	}

	r.logger.Debug("Cache hit", zap.String("key", key))
	return val, nil
}

func (r *cacheRepository) Set(ctx context.Context, key string, value []byte, ttl time.Duration) error {
	err := r.client.Set(ctx, key, value, ttl).Err()
	if err != nil {
		r.logger.Error("Failed to set cache", zap.String("key", key), zap.Error(err))
		return fmt.Errorf("cache set error: %w", err)
	}

	r.logger.Debug("Cache set", zap.String("key", key), zap.Duration("ttl", ttl))
	return nil
}

func (r *cacheRepository) Delete(ctx context.Context, key string) error {
	err := r.client.Del(ctx, key).Err()
	if err != nil {
		r.logger.Error("Failed to delete from cache", zap.String("key", key), zap.Error(err))
		return fmt.Errorf("cache delete error: %w", err)
	}

	r.logger.Debug("Cache deleted", zap.String("key", key))
	return nil
}

// geocodeKey нормализует текст запроса: "Barcelona" и " barcelona " - один ключ
func geocodeKey(query string) string {
	return "geocode:" + strings.ToLower(strings.TrimSpace(query))
}

// GetLocation получает закешированный результат геокодинга
func (r *cacheRepository) GetLocation(ctx context.Context, query string) (*domain.SearchedLocation, error) {
	data, err := r.Get(ctx, geocodeKey(query))
	if err != nil {
		return nil, err
	}
	if data == nil {
		return nil, nil // Cache miss
	}

	var location domain.SearchedLocation
	if err := json.Unmarshal(data, &location); err != nil {
		r.logger.Error("Failed to unmarshal cached location", zap.Error(err))
		return nil, fmt.Errorf("unmarshal location: %w", err)
	}

	return &location, nil
}

// SetLocation сохраняет результат геокодинга в кеше
func (r *cacheRepository) SetLocation(ctx context.Context, query string, loc *domain.SearchedLocation, ttl time.Duration) error {
	data, err := json.Marshal(loc)
	if err != nil {
		r.logger.Error("Failed to marshal location", zap.Error(err))
		return fmt.Errorf("marshal location: %w", err)
	}

	return r.Set(ctx, geocodeKey(query), data, ttl)
}
