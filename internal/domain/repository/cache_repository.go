package repository

import (
	"context"
	"time"

	"github.com/activity-search/internal/domain"
)

// CacheRepository - кеш результатов геокодинга
type CacheRepository interface {
	Get(ctx context.Context, key string) ([]byte, error)
	Set(ctx context.Context, key string, value []byte, ttl time.Duration) error
	Delete(ctx context.Context, key string) error

	GetLocation(ctx context.Context, query string) (*domain.SearchedLocation, error)
	SetLocation(ctx context.Context, query string, loc *domain.SearchedLocation, ttl time.Duration) error
}
