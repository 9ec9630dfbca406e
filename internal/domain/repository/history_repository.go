package repository

import (
	"context"

	"github.com/activity-search/internal/domain"
)

// HistoryRepository - хранилище истории завершённых поисков
type HistoryRepository interface {
	Save(ctx context.Context, record *domain.SearchRecord) error
	ListRecent(ctx context.Context, limit int) ([]*domain.SearchRecord, error)
}
