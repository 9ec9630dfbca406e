package dto

import (
	"time"

	"github.com/activity-search/internal/domain"
)

// SubmitSearchRequest - запрос на запуск поиска активностей
type SubmitSearchRequest struct {
	Query string `json:"query" validate:"required,min=2"`
	Mode  string `json:"mode" validate:"omitempty,oneof=fastsearch deepsearch"`
}

// SubmitSearchResponse - ответ на постановку поиска
type SubmitSearchResponse struct {
	JobID    string                   `json:"job_id"`
	State    domain.SearchState       `json:"state"`
	Location *domain.SearchedLocation `json:"location,omitempty"`
}

// SearchSnapshot - текущее состояние активного поиска для клиента.
// Отдаётся и в polling-ответах, и в SSE-кадрах.
type SearchSnapshot struct {
	State      domain.SearchState       `json:"state"`
	JobID      string                   `json:"job_id,omitempty"`
	Query      string                   `json:"query,omitempty"`
	Mode       domain.SearchMode        `json:"mode,omitempty"`
	Progress   string                   `json:"progress,omitempty"`
	Reason     string                   `json:"reason,omitempty"` // человекочитаемая причина failed/error
	Location   *domain.SearchedLocation `json:"location,omitempty"`
	Activities []domain.Activity        `json:"activities"`
	Markers    []domain.Marker          `json:"markers"`
	Errors     []domain.MappingError    `json:"errors,omitempty"`
	UpdatedAt  time.Time                `json:"updated_at"`
}

// HistoryResponse - список недавних завершённых поисков
type HistoryResponse struct {
	Searches []*domain.SearchRecord `json:"searches"`
	Total    int                    `json:"total"`
}
