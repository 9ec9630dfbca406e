package usecase

import (
	"context"
	"encoding/json"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/activity-search/internal/domain"
	"github.com/activity-search/internal/domain/repository"
	"github.com/activity-search/internal/pkg/errors"
	"github.com/activity-search/internal/usecase/dto"
)

const snapshotBuffer = 8

// SearchUseCase - контроллер жизненного цикла поискового задания.
// Владеет ровно одним открытым каналом кадров в любой момент времени:
// новый Submit сначала закрывает канал предыдущего задания (supersession),
// и только потом открывает свой. Закрытие канала при supersession, таймауте
// и teardown - самый важный контракт компонента: незакрытый канал - это
// утечка соединения и кадры устаревшего запроса поверх нового состояния.
type SearchUseCase struct {
	geocoder repository.GeocoderRepository
	cache    repository.CacheRepository
	streams  repository.StreamRepository
	history  repository.HistoryRepository // nil, если история выключена
	ingest   *IngestUseCase
	logger   *zap.Logger

	jobTimeout time.Duration
	geocodeTTL time.Duration

	mu sync.Mutex
	// seq - поколение поиска; растёт на каждый Submit. Обработчики кадров
	// запоминают своё поколение и молча бросают сообщения, пришедшие после
	// закрытия их канала
	seq         int64
	closeFrames context.CancelFunc

	state      domain.SearchState
	jobID      string
	query      string
	mode       domain.SearchMode
	progress   string
	reason     string
	location   *domain.SearchedLocation
	activities []domain.Activity
	markers    []domain.Marker
	mapErrors  []domain.MappingError

	subscribers map[int64]chan dto.SearchSnapshot
	nextSubID   int64
}

// NewSearchUseCase - создание нового SearchUseCase
func NewSearchUseCase(
	geocoder repository.GeocoderRepository,
	cache repository.CacheRepository,
	streams repository.StreamRepository,
	history repository.HistoryRepository,
	ingest *IngestUseCase,
	logger *zap.Logger,
	jobTimeout time.Duration,
	geocodeTTL time.Duration,
) *SearchUseCase {
	return &SearchUseCase{
		geocoder:    geocoder,
		cache:       cache,
		streams:     streams,
		history:     history,
		ingest:      ingest,
		logger:      logger,
		jobTimeout:  jobTimeout,
		geocodeTTL:  geocodeTTL,
		state:       domain.StateIdle,
		subscribers: make(map[int64]chan dto.SearchSnapshot),
	}
}

// Submit запускает новый поиск: закрывает канал предыдущего задания,
// геокодирует запрос, ставит задание в очередь и открывает канал кадров.
// Геокодинг обязан завершиться успешно до обращения к очереди: без локации
// задание не ставится, поиск переходит в failed.
func (uc *SearchUseCase) Submit(ctx context.Context, req dto.SubmitSearchRequest) (*dto.SubmitSearchResponse, error) {
	mode := domain.SearchMode(req.Mode)
	if mode == "" {
		mode = domain.ModeFastSearch
	}
	if !mode.Valid() {
		return nil, errors.ErrInvalidSearchMode
	}

	mySeq := uc.beginSubmit(req.Query, mode)

	// 1. Геокодинг (с кешем); ошибки кеша - это промах, не сбой поиска
	location, err := uc.geocode(ctx, req.Query)
	if err != nil {
		uc.logger.Error("Geocoding failed", zap.String("query", req.Query), zap.Error(err))
		uc.setTerminal(mySeq, domain.StateFailed, "Geocoding service is unavailable")
		return nil, errors.ErrGeocodingFailed
	}
	if location == nil {
		uc.logger.Info("No geocoding match", zap.String("query", req.Query))
		uc.setTerminal(mySeq, domain.StateFailed, "Location not found, try another address")
		return nil, errors.ErrLocationNotFound
	}

	// 2. Постановка задания
	job := &domain.SearchJob{
		JobID:   uuid.New().String(),
		Query:   req.Query,
		Mode:    mode,
		Lat:     location.Lat,
		Lon:     location.Lon,
		Address: location.Address,
	}
	if err := uc.streams.SubmitJob(ctx, job); err != nil {
		uc.logger.Error("Failed to submit job", zap.Error(err))
		uc.setTerminal(mySeq, domain.StateFailed, "Search backend is unavailable")
		return nil, errors.ErrJobSubmitFailed
	}

	// 3. Открытие канала кадров. Контекст канала живёт дольше HTTP-запроса
	// и ограничен таймаутом задания: бэкенд, не приславший терминальный
	// статус, не оставит нас в streaming навсегда
	frameCtx, cancel := context.WithTimeout(context.Background(), uc.jobTimeout)

	uc.mu.Lock()
	if uc.seq != mySeq {
		uc.mu.Unlock()
		cancel()
		return nil, errors.ErrSearchSuperseded
	}
	uc.closeFrames = cancel
	uc.jobID = job.JobID
	uc.location = location
	uc.state = domain.StateStreaming
	uc.markers = ProjectMarkers(nil, *location)
	uc.mu.Unlock()
	uc.notify()

	frames, err := uc.streams.OpenFrames(frameCtx, job.JobID)
	if err != nil {
		uc.logger.Error("Failed to open frame channel", zap.String("job_id", job.JobID), zap.Error(err))
		uc.closeChannel(mySeq)
		uc.setTerminal(mySeq, domain.StateError, "Could not open result stream")
		return nil, errors.ErrJobSubmitFailed
	}

	go uc.consumeFrames(frameCtx, mySeq, job.JobID, mode, *location, frames)

	return &dto.SubmitSearchResponse{
		JobID:    job.JobID,
		State:    domain.StateStreaming,
		Location: location,
	}, nil
}

// beginSubmit закрывает канал предыдущего задания и сбрасывает состояние
// под новый запрос. Возвращает поколение нового поиска.
func (uc *SearchUseCase) beginSubmit(query string, mode domain.SearchMode) int64 {
	uc.mu.Lock()
	if uc.closeFrames != nil {
		uc.logger.Info("Superseding active search",
			zap.String("old_job_id", uc.jobID),
			zap.String("new_query", query))
		uc.closeFrames()
		uc.closeFrames = nil
	}
	uc.seq++
	mySeq := uc.seq
	uc.state = domain.StateSubmitting
	uc.jobID = ""
	uc.query = query
	uc.mode = mode
	uc.progress = ""
	uc.reason = ""
	uc.location = nil
	uc.activities = nil
	uc.markers = nil
	uc.mapErrors = nil
	uc.mu.Unlock()

	uc.notify()
	return mySeq
}

func (uc *SearchUseCase) geocode(ctx context.Context, query string) (*domain.SearchedLocation, error) {
	if uc.cache != nil {
		if cached, err := uc.cache.GetLocation(ctx, query); err == nil && cached != nil {
			uc.logger.Debug("Geocode cache hit", zap.String("query", query))
			return cached, nil
		}
	}

	location, err := uc.geocoder.Search(ctx, query)
	if err != nil || location == nil {
		return location, err
	}

	if uc.cache != nil {
		if err := uc.cache.SetLocation(ctx, query, location, uc.geocodeTTL); err != nil {
			uc.logger.Warn("Failed to cache geocode result", zap.Error(err))
		}
	}
	return location, nil
}

// consumeFrames - цикл чтения кадров одного задания. Завершается, когда
// репозиторий закрывает канал: по терминальному кадру, по supersession
// или по таймауту задания.
func (uc *SearchUseCase) consumeFrames(
	ctx context.Context,
	mySeq int64,
	jobID string,
	mode domain.SearchMode,
	location domain.SearchedLocation,
	frames <-chan domain.StreamMessage,
) {
	for msg := range frames {
		if uc.handleFrame(mySeq, jobID, mode, location, msg.Data) {
			uc.closeChannel(mySeq)
			return
		}
	}

	// Канал закрылся без терминального кадра: либо supersession (молчим),
	// либо истёк таймаут задания
	if ctx.Err() == context.DeadlineExceeded {
		uc.logger.Warn("Search job timed out",
			zap.String("job_id", jobID),
			zap.Duration("timeout", uc.jobTimeout))
		uc.setTerminal(mySeq, domain.StateError, "Search timed out")
	}
}

// handleFrame маршрутизирует один кадр. Возвращает true, если кадр
// терминальный и канал нужно закрыть. Нераспознанный или битый кадр
// логируется и игнорируется - канал остаётся открытым, состояние не меняется.
func (uc *SearchUseCase) handleFrame(
	mySeq int64,
	jobID string,
	mode domain.SearchMode,
	location domain.SearchedLocation,
	data string,
) bool {
	var envelope domain.FrameEnvelope
	if err := json.Unmarshal([]byte(data), &envelope); err != nil {
		uc.logger.Warn("Malformed frame, ignoring",
			zap.String("job_id", jobID),
			zap.Error(err))
		return false
	}

	switch domain.ClassifyFrameStatus(envelope.Status) {
	case domain.FrameProgress:
		uc.applyProgress(mySeq, envelope)
		return false

	case domain.FrameChunk:
		// Режим deep search: чанки дописываются в накопленный набор,
		// завершение сигналит отдельный терминальный кадр
		result := uc.ingest.Ingest([]byte(data))
		uc.applyChunk(mySeq, location, result)
		return false

	case domain.FrameCompleted:
		result := uc.ingest.Ingest([]byte(data))
		uc.applyCompleted(mySeq, jobID, mode, location, result)
		return true

	case domain.FrameFailed:
		state := domain.StateFailed
		if strings.EqualFold(strings.TrimSpace(envelope.Status), "error") {
			state = domain.StateError
		}
		reason := envelope.Message
		if reason == "" {
			reason = "Search failed on the backend"
		}
		uc.setTerminal(mySeq, state, reason)
		return true
	}

	uc.logger.Debug("Unrecognized frame status, ignoring",
		zap.String("job_id", jobID),
		zap.String("status", envelope.Status))
	return false
}

func (uc *SearchUseCase) applyProgress(mySeq int64, envelope domain.FrameEnvelope) {
	uc.mu.Lock()
	if uc.seq != mySeq {
		uc.mu.Unlock()
		return
	}
	if envelope.Progress != "" {
		uc.progress = envelope.Progress
	} else if envelope.Message != "" {
		uc.progress = envelope.Message
	} else {
		uc.progress = envelope.Status
	}
	uc.mu.Unlock()
	uc.notify()
}

func (uc *SearchUseCase) applyChunk(mySeq int64, location domain.SearchedLocation, result domain.IngestResult) {
	uc.mu.Lock()
	if uc.seq != mySeq {
		uc.mu.Unlock()
		return
	}
	uc.activities = append(uc.activities, result.Activities...)
	uc.mapErrors = append(uc.mapErrors, result.Errors...)
	uc.markers = ProjectMarkers(uc.activities, location)
	uc.mu.Unlock()
	uc.notify()
}

func (uc *SearchUseCase) applyCompleted(
	mySeq int64,
	jobID string,
	mode domain.SearchMode,
	location domain.SearchedLocation,
	result domain.IngestResult,
) {
	uc.mu.Lock()
	if uc.seq != mySeq {
		uc.mu.Unlock()
		return
	}

	if mode == domain.ModeDeepSearch {
		// Терминальный кадр глубокого поиска может нести последний чанк
		uc.activities = append(uc.activities, result.Activities...)
	} else {
		uc.activities = result.Activities
	}
	uc.mapErrors = append(uc.mapErrors, result.Errors...)

	SortByDistance(uc.activities, location)
	uc.markers = ProjectMarkers(uc.activities, location)
	uc.state = domain.StateCompleted
	uc.progress = ""

	record := &domain.SearchRecord{
		ID:            jobID,
		Query:         uc.query,
		Address:       location.Address,
		Lat:           location.Lat,
		Lon:           location.Lon,
		Mode:          mode,
		ActivityCount: len(uc.activities),
		Activities:    uc.activities,
		CreatedAt:     time.Now().UTC(),
	}
	for _, a := range uc.activities {
		record.Titles = append(record.Titles, a.Title)
	}
	uc.mu.Unlock()
	uc.notify()

	uc.logger.Info("Search completed",
		zap.String("job_id", jobID),
		zap.Int("activities", record.ActivityCount),
		zap.Int("mapping_errors", len(result.Errors)))

	uc.saveHistory(record)
}

// saveHistory пишет завершённый поиск в историю best-effort: сбой хранилища
// логируется и не влияет на результат поиска
func (uc *SearchUseCase) saveHistory(record *domain.SearchRecord) {
	if uc.history == nil {
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := uc.history.Save(ctx, record); err != nil {
		uc.logger.Warn("Failed to save search history",
			zap.String("job_id", record.ID),
			zap.Error(err))
	}
}

// setTerminal переводит поиск поколения mySeq в конечное состояние
func (uc *SearchUseCase) setTerminal(mySeq int64, state domain.SearchState, reason string) {
	uc.mu.Lock()
	if uc.seq != mySeq {
		uc.mu.Unlock()
		return
	}
	uc.state = state
	uc.reason = reason
	uc.progress = ""
	uc.mu.Unlock()
	uc.notify()
}

// closeChannel закрывает канал кадров поколения mySeq, если он ещё открыт
func (uc *SearchUseCase) closeChannel(mySeq int64) {
	uc.mu.Lock()
	defer uc.mu.Unlock()
	if uc.seq == mySeq && uc.closeFrames != nil {
		uc.closeFrames()
		uc.closeFrames = nil
	}
}

// Snapshot возвращает копию текущего состояния поиска
func (uc *SearchUseCase) Snapshot() dto.SearchSnapshot {
	uc.mu.Lock()
	defer uc.mu.Unlock()
	return uc.snapshotLocked()
}

func (uc *SearchUseCase) snapshotLocked() dto.SearchSnapshot {
	snapshot := dto.SearchSnapshot{
		State:      uc.state,
		JobID:      uc.jobID,
		Query:      uc.query,
		Mode:       uc.mode,
		Progress:   uc.progress,
		Reason:     uc.reason,
		Location:   uc.location,
		Activities: make([]domain.Activity, len(uc.activities)),
		Markers:    make([]domain.Marker, len(uc.markers)),
		UpdatedAt:  time.Now().UTC(),
	}
	copy(snapshot.Activities, uc.activities)
	copy(snapshot.Markers, uc.markers)
	if len(uc.mapErrors) > 0 {
		snapshot.Errors = make([]domain.MappingError, len(uc.mapErrors))
		copy(snapshot.Errors, uc.mapErrors)
	}
	return snapshot
}

// Subscribe подписывает на снапшоты состояния (SSE). Медленный подписчик
// пропускает промежуточные снапшоты, но не блокирует контроллер.
func (uc *SearchUseCase) Subscribe() (int64, <-chan dto.SearchSnapshot) {
	uc.mu.Lock()
	defer uc.mu.Unlock()

	uc.nextSubID++
	id := uc.nextSubID
	ch := make(chan dto.SearchSnapshot, snapshotBuffer)
	uc.subscribers[id] = ch
	return id, ch
}

// Unsubscribe снимает подписку и закрывает её канал
func (uc *SearchUseCase) Unsubscribe(id int64) {
	uc.mu.Lock()
	defer uc.mu.Unlock()

	if ch, ok := uc.subscribers[id]; ok {
		delete(uc.subscribers, id)
		close(ch)
	}
}

func (uc *SearchUseCase) notify() {
	uc.mu.Lock()
	snapshot := uc.snapshotLocked()
	for _, ch := range uc.subscribers {
		select {
		case ch <- snapshot:
		default:
		}
	}
	uc.mu.Unlock()
}

// Teardown закрывает открытый канал кадров и все подписки. Обязателен при
// остановке сервиса: без него живое соединение переживёт владельца.
func (uc *SearchUseCase) Teardown() {
	uc.mu.Lock()
	if uc.closeFrames != nil {
		uc.closeFrames()
		uc.closeFrames = nil
	}
	for id, ch := range uc.subscribers {
		delete(uc.subscribers, id)
		close(ch)
	}
	uc.seq++ // обесценивает все ещё живые обработчики кадров
	uc.state = domain.StateIdle
	uc.mu.Unlock()

	uc.logger.Info("Search controller torn down")
}
