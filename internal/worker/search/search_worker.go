package search

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"time"

	"go.uber.org/zap"

	"github.com/activity-search/internal/domain"
	"github.com/activity-search/internal/domain/repository"
	"github.com/activity-search/internal/worker"
)

// retryDelay - пауза между повторами запроса к провайдеру
const retryDelay = 2 * time.Second

// frame - кадр, публикуемый в стрим кадров задания. Result без omitempty:
// терминальный кадр обязан нести массив result, даже пустой - принимающий
// пайплайн считает его отсутствие ошибкой данных.
type frame struct {
	Status  string            `json:"status"`
	Message string            `json:"message,omitempty"`
	Result  []json.RawMessage `json:"result"`
}

// SearchWorker выполняет поисковые задания: берёт задание из очереди,
// опрашивает провайдера активностей и публикует кадры в стрим задания
type SearchWorker struct {
	*worker.BaseWorker
	streamRepo   repository.StreamRepository
	provider     repository.ProviderRepository
	consumerName string
	maxRetries   int
	chunkSize    int
}

// NewSearchWorker создает новый SearchWorker
func NewSearchWorker(
	streamRepo repository.StreamRepository,
	provider repository.ProviderRepository,
	consumerGroup string,
	maxRetries int,
	chunkSize int,
	logger *zap.Logger,
) *SearchWorker {
	hostname, _ := os.Hostname()
	consumerName := fmt.Sprintf("%s-%d", hostname, os.Getpid())

	return &SearchWorker{
		BaseWorker:   worker.NewBaseWorker("activity-search", consumerGroup, logger),
		streamRepo:   streamRepo,
		provider:     provider,
		consumerName: consumerName,
		maxRetries:   maxRetries,
		chunkSize:    chunkSize,
	}
}

// Start запускает воркер
func (w *SearchWorker) Start(ctx context.Context) error {
	logger := w.Logger()
	logger.Info("Starting SearchWorker",
		zap.String("consumer_group", w.ConsumerGroup()),
		zap.String("consumer_name", w.consumerName),
		zap.Int("chunk_size", w.chunkSize))

	if err := w.streamRepo.CreateConsumerGroup(ctx, domain.StreamSearchJobs, w.ConsumerGroup()); err != nil {
		logger.Error("Failed to create consumer group", zap.Error(err))
		return fmt.Errorf("failed to create consumer group: %w", err)
	}

	jobs, err := w.streamRepo.ConsumeJobs(ctx, w.ConsumerGroup(), w.consumerName)
	if err != nil {
		return fmt.Errorf("failed to open job channel: %w", err)
	}

	for {
		select {
		case <-w.StopChan():
			logger.Info("Worker stopped")
			return nil

		case <-ctx.Done():
			logger.Info("Context cancelled")
			return ctx.Err()

		case msg, ok := <-jobs:
			if !ok {
				logger.Info("Job channel closed")
				return nil
			}
			w.handleJob(ctx, msg)
		}
	}
}

// handleJob обрабатывает одно задание. Задание подтверждается всегда, даже
// после сбоя: клиент узнаёт о сбое из failed-кадра, а не из повторной доставки.
func (w *SearchWorker) handleJob(ctx context.Context, msg domain.StreamMessage) {
	logger := w.Logger()

	var job domain.SearchJob
	if err := json.Unmarshal([]byte(msg.Data), &job); err != nil {
		logger.Warn("Failed to parse job, skipping",
			zap.String("message_id", msg.ID),
			zap.Error(err))
		_ = w.streamRepo.AckJob(ctx, w.ConsumerGroup(), msg.ID)
		return
	}

	logger.Info("Processing search job",
		zap.String("job_id", job.JobID),
		zap.String("query", job.Query),
		zap.String("mode", string(job.Mode)))

	if err := w.process(ctx, &job); err != nil {
		logger.Error("Search job failed",
			zap.String("job_id", job.JobID),
			zap.Error(err))
		w.publishFrame(ctx, job.JobID, frame{
			Status:  domain.FrameStatusFailed,
			Message: "Search backend could not complete the request",
		})
	}

	if err := w.streamRepo.AckJob(ctx, w.ConsumerGroup(), msg.ID); err != nil {
		logger.Error("Failed to ack job",
			zap.String("message_id", msg.ID),
			zap.Error(err))
	}
}

func (w *SearchWorker) process(ctx context.Context, job *domain.SearchJob) error {
	w.publishFrame(ctx, job.JobID, frame{Status: domain.FrameStatusInProgress})

	activities, err := w.fetchWithRetry(ctx, job)
	if err != nil {
		return err
	}

	if job.Mode == domain.ModeDeepSearch {
		return w.publishChunked(ctx, job.JobID, activities)
	}

	return w.streamRepo.PublishFrame(ctx, job.JobID, frame{
		Status: domain.FrameStatusCompleted,
		Result: activities,
	})
}

// fetchWithRetry опрашивает провайдера с повторами
func (w *SearchWorker) fetchWithRetry(ctx context.Context, job *domain.SearchJob) ([]json.RawMessage, error) {
	logger := w.Logger()

	var lastErr error
	for attempt := 1; attempt <= w.maxRetries; attempt++ {
		activities, err := w.provider.FetchActivities(ctx, job.Query, job.Lat, job.Lon)
		if err == nil {
			return activities, nil
		}

		lastErr = err
		logger.Warn("Provider request failed",
			zap.String("job_id", job.JobID),
			zap.Int("attempt", attempt),
			zap.Error(err))

		if attempt < w.maxRetries {
			select {
			case <-time.After(retryDelay):
			case <-ctx.Done():
				return nil, ctx.Err()
			}
		}
	}

	return nil, fmt.Errorf("provider failed after %d attempts: %w", w.maxRetries, lastErr)
}

// publishChunked отдаёт результат порциями (режим deep search): chunk-кадры
// c порциями и отдельный терминальный кадр с пустым result
func (w *SearchWorker) publishChunked(ctx context.Context, jobID string, activities []json.RawMessage) error {
	for start := 0; start < len(activities); start += w.chunkSize {
		end := start + w.chunkSize
		if end > len(activities) {
			end = len(activities)
		}

		if err := w.streamRepo.PublishFrame(ctx, jobID, frame{
			Status: domain.FrameStatusChunk,
			Result: activities[start:end],
		}); err != nil {
			return err
		}
	}

	return w.streamRepo.PublishFrame(ctx, jobID, frame{
		Status: domain.FrameStatusCompleted,
		Result: []json.RawMessage{},
	})
}

// publishFrame - best-effort публикация нетерминального кадра
func (w *SearchWorker) publishFrame(ctx context.Context, jobID string, f frame) {
	if err := w.streamRepo.PublishFrame(ctx, jobID, f); err != nil {
		w.Logger().Warn("Failed to publish frame",
			zap.String("job_id", jobID),
			zap.String("status", f.Status),
			zap.Error(err))
	}
}
