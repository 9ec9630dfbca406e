package usecase

import (
	"bytes"
	"encoding/json"
	"fmt"

	"github.com/activity-search/internal/domain"
	"go.uber.org/zap"
)

// IngestUseCase - пайплайн инжеста сырых payload от бэкенда поиска.
// Это граница ошибок: всё, что может пойти не так при разборе и нормализации,
// превращается в данные (errors[]) и никогда не пробрасывается вызывающему
// как ошибка или паника. Один битый элемент не срывает обработку пачки.
type IngestUseCase struct {
	logger *zap.Logger
}

// NewIngestUseCase создает новый IngestUseCase
func NewIngestUseCase(logger *zap.Logger) *IngestUseCase {
	return &IngestUseCase{logger: logger}
}

// Ingest обрабатывает один payload: разбирает JSON (включая второй проход для
// result, закодированного строкой), валидирует структуру и прогоняет каждый
// элемент через нормализатор. Чистая функция от payload: повторный вызов на
// том же входе даёт идентичный результат, состояния между вызовами нет.
func (uc *IngestUseCase) Ingest(payload []byte) (result domain.IngestResult) {
	// Последний рубеж: любая неожиданная паника деградирует до пустого
	// результата с CRITICAL_ERROR, наружу ничего не вылетает
	defer func() {
		if r := recover(); r != nil {
			uc.logger.Error("Ingest panicked", zap.Any("panic", r))
			result = criticalResult(fmt.Sprintf("unexpected failure: %v", r))
		}
	}()

	trimmed := bytes.TrimSpace(payload)
	if len(trimmed) == 0 || bytes.Equal(trimmed, []byte("null")) {
		return domain.IngestResult{
			Activities: []domain.Activity{},
			Errors: []domain.MappingError{{
				Code:    domain.CodeNoData,
				Message: "payload is empty",
			}},
			HasErrors: true,
		}
	}

	var obj map[string]interface{}
	if err := json.Unmarshal(trimmed, &obj); err != nil {
		uc.logger.Warn("Failed to parse payload", zap.Error(err))
		return criticalResult("payload is not a JSON object: " + err.Error())
	}

	var errs []domain.MappingError

	// Ожидаемые статусы с данными - completed и chunk. Любой другой статус
	// записываем, но извлечение всё равно пробуем: некоторые бэкенды кладут
	// результат и в промежуточные кадры
	status, _ := obj["status"].(string)
	if kind := domain.ClassifyFrameStatus(status); kind != domain.FrameCompleted && kind != domain.FrameChunk {
		errs = append(errs, domain.MappingError{
			Code:    domain.CodeInvalidStatus,
			Message: fmt.Sprintf("unexpected payload status %q", status),
			Field:   "status",
			Value:   status,
		})
	}

	// Второй проход: result бывает JSON-строкой с ещё одним уровнем кодирования
	rawResult := obj["result"]
	if encoded, ok := rawResult.(string); ok {
		var decoded interface{}
		if err := json.Unmarshal([]byte(encoded), &decoded); err != nil {
			uc.logger.Warn("Failed to decode string-encoded result", zap.Error(err))
			return criticalResult("result field is not decodable JSON: " + err.Error())
		}
		rawResult = decoded
	}

	items, ok := rawResult.([]interface{})
	if !ok {
		errs = append(errs, domain.MappingError{
			Code:    domain.CodeInvalidResultType,
			Message: "result is not an array",
			Field:   "result",
			Value:   rawResult,
		})
		return domain.IngestResult{
			Activities: []domain.Activity{},
			Errors:     errs,
			HasErrors:  true,
		}
	}

	activities := make([]domain.Activity, 0, len(items))
	for i, item := range items {
		activity, itemErrs := uc.normalizeGuarded(item, i)
		errs = append(errs, itemErrs...)
		if activity != nil {
			activities = append(activities, *activity)
		}
	}

	if len(errs) > 0 {
		uc.logger.Debug("Ingest finished with mapping errors",
			zap.Int("activities", len(activities)),
			zap.Int("errors", len(errs)))
	}

	return domain.IngestResult{
		Activities: activities,
		Errors:     errs,
		HasErrors:  len(errs) > 0,
	}
}

// normalizeGuarded изолирует нормализацию одного элемента: паника внутри
// превращается в MAPPING_ERROR, элемент отбрасывается, пачка продолжается
func (uc *IngestUseCase) normalizeGuarded(raw interface{}, index int) (activity *domain.Activity, errs []domain.MappingError) {
	defer func() {
		if r := recover(); r != nil {
			uc.logger.Warn("Normalization panicked, dropping element",
				zap.Int("index", index),
				zap.Any("panic", r))
			idx := index
			activity = nil
			errs = append(errs, domain.MappingError{
				Code:    domain.CodeMappingError,
				Message: fmt.Sprintf("normalization failed: %v", r),
				Index:   &idx,
			})
		}
	}()

	return NormalizeActivity(raw, index)
}

func criticalResult(message string) domain.IngestResult {
	return domain.IngestResult{
		Activities: []domain.Activity{},
		Errors: []domain.MappingError{{
			Code:    domain.CodeCriticalError,
			Message: message,
		}},
		HasErrors: true,
	}
}
