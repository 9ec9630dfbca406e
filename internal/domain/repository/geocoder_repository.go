package repository

import (
	"context"

	"github.com/activity-search/internal/domain"
)

// GeocoderRepository - внешний геокодер (текстовый запрос -> координаты).
// Отсутствие совпадений - нормальный исход: (nil, nil), не ошибка.
type GeocoderRepository interface {
	Search(ctx context.Context, query string) (*domain.SearchedLocation, error)
}
