package repository

import (
	"context"
	"encoding/json"
)

// ProviderRepository - вышестоящий поставщик активностей. Элементы ответа
// отдаются как есть (json.RawMessage): нормализация - ответственность
// принимающей стороны, воркер данные не трогает.
type ProviderRepository interface {
	FetchActivities(ctx context.Context, query string, lat, lon float64) ([]json.RawMessage, error)
}
