package domain

import "strings"

// Имена Redis-стримов (должны совпадать с воркером)
const (
	// StreamSearchJobs - очередь поисковых заданий
	StreamSearchJobs = "stream:search:jobs"

	// streamFramesPrefix - префикс per-job стрима с кадрами прогресса/результата
	streamFramesPrefix = "stream:search:frames:"
)

// FrameStream возвращает имя стрима кадров для конкретного задания
func FrameStream(jobID string) string {
	return streamFramesPrefix + jobID
}

// SearchMode - режим поиска активностей
type SearchMode string

const (
	ModeFastSearch SearchMode = "fastsearch"
	ModeDeepSearch SearchMode = "deepsearch"
)

// Valid проверяет, что режим известен
func (m SearchMode) Valid() bool {
	return m == ModeFastSearch || m == ModeDeepSearch
}

// SearchState - состояние контроллера поиска
type SearchState string

const (
	StateIdle       SearchState = "idle"
	StateSubmitting SearchState = "submitting"
	StateStreaming  SearchState = "streaming"
	StateCompleted  SearchState = "completed"
	StateFailed     SearchState = "failed"
	StateError      SearchState = "error"
)

// Terminal сообщает, является ли состояние конечным для задания
func (s SearchState) Terminal() bool {
	return s == StateCompleted || s == StateFailed || s == StateError
}

// SearchJob - задание в очереди воркера. Локация уже геокодирована:
// геокодинг обязан завершиться успешно до постановки задания.
type SearchJob struct {
	JobID   string     `json:"job_id"`
	Query   string     `json:"query"`
	Mode    SearchMode `json:"mode"`
	Lat     float64    `json:"lat"`
	Lon     float64    `json:"lon"`
	Address string     `json:"address"`
}

// StreamMessage - сообщение из Redis Stream
type StreamMessage struct {
	ID   string
	Data string
}

// FrameKind - классификация статуса входящего кадра
type FrameKind int

const (
	FrameUnknown FrameKind = iota
	FrameProgress
	FrameChunk
	FrameCompleted
	FrameFailed
)

// Статусы кадров, публикуемые воркером
const (
	FrameStatusInProgress = "in progress"
	FrameStatusChunk      = "chunk"
	FrameStatusCompleted  = "completed"
	FrameStatusFailed     = "failed"
)

// ClassifyFrameStatus относит статус кадра к одной из известных категорий.
// Бэкенды исторически присылают статусы в разном регистре и в разных
// формулировках, поэтому распознаём все наблюдавшиеся варианты. Неизвестный
// статус - FrameUnknown: кадр игнорируется, канал остаётся открытым.
func ClassifyFrameStatus(status string) FrameKind {
	switch strings.ToLower(strings.TrimSpace(status)) {
	case "in progress", "started", "processing":
		return FrameProgress
	case "chunk":
		return FrameChunk
	case "completed", "complete":
		return FrameCompleted
	case "failed", "error":
		return FrameFailed
	}
	return FrameUnknown
}

// FrameEnvelope - минимальная оболочка кадра для маршрутизации по статусу.
// Полный payload кадра разбирает пайплайн инжеста, здесь только маршрутизация.
type FrameEnvelope struct {
	Status   string `json:"status"`
	Message  string `json:"message,omitempty"`
	Progress string `json:"progress,omitempty"`
}
