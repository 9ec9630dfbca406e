package handler

import (
	"bufio"
	"encoding/json"
	"fmt"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/valyala/fasthttp"
	"go.uber.org/zap"

	"github.com/activity-search/internal/domain"
	"github.com/activity-search/internal/pkg/errors"
	"github.com/activity-search/internal/pkg/utils"
	"github.com/activity-search/internal/pkg/validator"
	"github.com/activity-search/internal/usecase"
	"github.com/activity-search/internal/usecase/dto"
)

// heartbeatInterval - период keep-alive комментариев в SSE-потоке
const heartbeatInterval = 15 * time.Second

// SearchHandler - обработчик поисковых запросов
type SearchHandler struct {
	searchUC *usecase.SearchUseCase
	logger   *zap.Logger
}

// NewSearchHandler - создание нового SearchHandler
func NewSearchHandler(searchUC *usecase.SearchUseCase, logger *zap.Logger) *SearchHandler {
	return &SearchHandler{
		searchUC: searchUC,
		logger:   logger,
	}
}

// Submit godoc
// @Summary Запуск поиска активностей
// @Description Геокодирует запрос, ставит поисковое задание в очередь и начинает стриминг результатов. Активный поиск, если он есть, вытесняется: его канал закрывается до открытия нового.
// @Tags Search
// @Accept json
// @Produce json
// @Param request body dto.SubmitSearchRequest true "Поисковый запрос"
// @Success 200 {object} utils.SuccessResponse{data=dto.SubmitSearchResponse}
// @Failure 400 {object} utils.ErrorResponse
// @Failure 404 {object} utils.ErrorResponse
// @Failure 502 {object} utils.ErrorResponse
// @Router /api/v1/search [post]
func (h *SearchHandler) Submit(c *fiber.Ctx) error {
	var req dto.SubmitSearchRequest
	if err := c.BodyParser(&req); err != nil {
		return utils.SendError(c, errors.ErrInvalidRequest)
	}

	if err := validator.Validate(&req); err != nil {
		return utils.SendError(c, errors.ErrInvalidRequest.WithDetails(map[string]interface{}{
			"validation": err.Error(),
		}))
	}

	result, err := h.searchUC.Submit(c.Context(), req)
	if err != nil {
		return utils.SendError(c, err)
	}

	return utils.SendSuccess(c, result, nil)
}

// Current godoc
// @Summary Текущее состояние поиска
// @Description Возвращает снапшот активного поиска: состояние, активности, маркеры, ошибки маппинга
// @Tags Search
// @Produce json
// @Success 200 {object} utils.SuccessResponse{data=dto.SearchSnapshot}
// @Failure 404 {object} utils.ErrorResponse
// @Router /api/v1/search/current [get]
func (h *SearchHandler) Current(c *fiber.Ctx) error {
	snapshot := h.searchUC.Snapshot()
	if snapshot.State == domain.StateIdle {
		return utils.SendError(c, errors.ErrNoActiveSearch)
	}

	return utils.SendSuccess(c, snapshot, &utils.Meta{
		Total: len(snapshot.Activities),
	})
}

// Stream godoc
// @Summary SSE-поток состояния поиска
// @Description Отдаёт снапшоты состояния поиска как Server-Sent Events. Первый кадр - текущее состояние, далее кадр на каждое изменение.
// @Tags Search
// @Produce text/event-stream
// @Success 200 {string} string "поток событий snapshot"
// @Router /api/v1/search/stream [get]
func (h *SearchHandler) Stream(c *fiber.Ctx) error {
	c.Set(fiber.HeaderContentType, "text/event-stream")
	c.Set(fiber.HeaderCacheControl, "no-cache")
	c.Set(fiber.HeaderConnection, "keep-alive")
	c.Set("X-Accel-Buffering", "no")

	searchUC := h.searchUC
	logger := h.logger

	c.Context().SetBodyStreamWriter(fasthttp.StreamWriter(func(w *bufio.Writer) {
		subID, snapshots := searchUC.Subscribe()
		defer searchUC.Unsubscribe(subID)

		// Первый кадр - текущее состояние, чтобы клиент не ждал изменения
		if err := writeEvent(w, searchUC.Snapshot()); err != nil {
			return
		}

		heartbeat := time.NewTicker(heartbeatInterval)
		defer heartbeat.Stop()

		for {
			select {
			case snapshot, ok := <-snapshots:
				if !ok {
					// Подписка закрыта (teardown сервиса)
					return
				}
				if err := writeEvent(w, snapshot); err != nil {
					logger.Debug("SSE client disconnected", zap.Error(err))
					return
				}

			case <-heartbeat.C:
				// Комментарий удерживает соединение через прокси
				if _, err := fmt.Fprint(w, ": heartbeat\n\n"); err != nil {
					return
				}
				if err := w.Flush(); err != nil {
					return
				}
			}
		}
	}))

	return nil
}

// writeEvent сериализует снапшот в один SSE-кадр и сбрасывает буфер
func writeEvent(w *bufio.Writer, snapshot dto.SearchSnapshot) error {
	data, err := json.Marshal(snapshot)
	if err != nil {
		return err
	}
	if _, err := fmt.Fprintf(w, "event: snapshot\ndata: %s\n\n", data); err != nil {
		return err
	}
	return w.Flush()
}
