package handler

import (
	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"

	"github.com/activity-search/internal/domain/repository"
	"github.com/activity-search/internal/pkg/errors"
	"github.com/activity-search/internal/pkg/utils"
	"github.com/activity-search/internal/usecase/dto"
)

// HistoryHandler - обработчик истории поисков
type HistoryHandler struct {
	history      repository.HistoryRepository
	defaultLimit int
	logger       *zap.Logger
}

// NewHistoryHandler - создание нового HistoryHandler
func NewHistoryHandler(history repository.HistoryRepository, defaultLimit int, logger *zap.Logger) *HistoryHandler {
	return &HistoryHandler{
		history:      history,
		defaultLimit: defaultLimit,
		logger:       logger,
	}
}

// List godoc
// @Summary Недавние завершённые поиски
// @Description Возвращает список последних завершённых поисков, новые первыми
// @Tags History
// @Produce json
// @Param limit query int false "Максимальное количество записей" default(20)
// @Success 200 {object} utils.SuccessResponse{data=dto.HistoryResponse}
// @Failure 500 {object} utils.ErrorResponse
// @Router /api/v1/history [get]
func (h *HistoryHandler) List(c *fiber.Ctx) error {
	limit := c.QueryInt("limit", h.defaultLimit)
	if limit <= 0 || limit > 100 {
		limit = h.defaultLimit
	}

	records, err := h.history.ListRecent(c.Context(), limit)
	if err != nil {
		h.logger.Error("Failed to list search history", zap.Error(err))
		return utils.SendError(c, errors.ErrDatabaseError)
	}

	return utils.SendSuccess(c, dto.HistoryResponse{
		Searches: records,
		Total:    len(records),
	}, &utils.Meta{
		Total: len(records),
		Limit: limit,
	})
}
