package redis

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/activity-search/internal/domain"
	"github.com/activity-search/internal/domain/repository"
)

// frameStreamTTL ограничивает жизнь стрима кадров одного задания: стримы
// именуются по job_id и без TTL накапливались бы бесконечно
const frameStreamTTL = time.Hour

type streamRepository struct {
	client *redis.Client
	logger *zap.Logger
}

// NewStreamRepository создает новый экземпляр StreamRepository
func NewStreamRepository(client *redis.Client, logger *zap.Logger) repository.StreamRepository {
	return &streamRepository{
		client: client,
		logger: logger,
	}
}

// CreateConsumerGroup создаёт consumer group для стрима заданий
func (r *streamRepository) CreateConsumerGroup(ctx context.Context, stream, group string) error {
	// Пытаемся создать consumer group, начиная с ID "$" (новые сообщения)
	// MKSTREAM автоматически создаст стрим, если он не существует
	err := r.client.XGroupCreateMkStream(ctx, stream, group, "$").Err()
	if err != nil {
		// Игнорируем ошибку BUSYGROUP - группа уже существует
		if err.Error() == "BUSYGROUP Consumer Group name already exists" {
			r.logger.Debug("Consumer group already exists",
				zap.String("stream", stream),
				zap.String("group", group))
			return nil
		}
		r.logger.Error("Failed to create consumer group",
			zap.String("stream", stream),
			zap.String("group", group),
			zap.Error(err))
		return fmt.Errorf("failed to create consumer group: %w", err)
	}

	r.logger.Info("Consumer group created successfully",
		zap.String("stream", stream),
		zap.String("group", group))
	return nil
}

// ConsumeJobs читает задания из очереди с использованием consumer group
func (r *streamRepository) ConsumeJobs(ctx context.Context, group, consumer string) (<-chan domain.StreamMessage, error) {
	msgChan := make(chan domain.StreamMessage, 10)

	go func() {
		defer close(msgChan)

		for {
			select {
			case <-ctx.Done():
				r.logger.Info("Job consumer stopped",
					zap.String("consumer", consumer))
				return
			default:
				// XReadGroup блокирует на 1 секунду, ожидая новых заданий
				result, err := r.client.XReadGroup(ctx, &redis.XReadGroupArgs{
					Group:    group,
					Consumer: consumer,
					Streams:  []string{domain.StreamSearchJobs, ">"},
					Count:    10,
					Block:    1 * time.Second,
				}).Result()

				if err != nil {
					if err == redis.Nil {
						// Нет новых заданий - продолжаем ждать
						continue
					}
					if ctx.Err() != nil {
						// Контекст был отменён
						return
					}
					r.logger.Error("Failed to read from job stream", zap.Error(err))
					time.Sleep(time.Second)
					continue
				}

				for _, stream := range result {
					for _, msg := range stream.Messages {
						data, ok := msg.Values["data"].(string)
						if !ok {
							r.logger.Warn("Job message does not contain 'data' field",
								zap.String("message_id", msg.ID))
							continue
						}

						select {
						case msgChan <- domain.StreamMessage{ID: msg.ID, Data: data}:
							r.logger.Debug("Job sent to channel",
								zap.String("message_id", msg.ID))
						case <-ctx.Done():
							return
						}
					}
				}
			}
		}
	}()

	return msgChan, nil
}

// AckJob подтверждает обработку задания
func (r *streamRepository) AckJob(ctx context.Context, group, messageID string) error {
	err := r.client.XAck(ctx, domain.StreamSearchJobs, group, messageID).Err()
	if err != nil {
		r.logger.Error("Failed to acknowledge job",
			zap.String("group", group),
			zap.String("message_id", messageID),
			zap.Error(err))
		return fmt.Errorf("failed to acknowledge job: %w", err)
	}

	r.logger.Debug("Job acknowledged", zap.String("message_id", messageID))
	return nil
}

// SubmitJob ставит поисковое задание в очередь
func (r *streamRepository) SubmitJob(ctx context.Context, job *domain.SearchJob) error {
	jsonData, err := json.Marshal(job)
	if err != nil {
		r.logger.Error("Failed to marshal job", zap.Error(err))
		return fmt.Errorf("failed to marshal job: %w", err)
	}

	result, err := r.client.XAdd(ctx, &redis.XAddArgs{
		Stream: domain.StreamSearchJobs,
		Values: map[string]interface{}{
			"data": string(jsonData),
		},
	}).Result()

	if err != nil {
		r.logger.Error("Failed to submit job",
			zap.String("job_id", job.JobID),
			zap.Error(err))
		return fmt.Errorf("failed to submit job: %w", err)
	}

	r.logger.Debug("Job submitted",
		zap.String("job_id", job.JobID),
		zap.String("message_id", result))
	return nil
}

// PublishFrame публикует кадр в стрим кадров задания
func (r *streamRepository) PublishFrame(ctx context.Context, jobID string, frame interface{}) error {
	jsonData, err := json.Marshal(frame)
	if err != nil {
		r.logger.Error("Failed to marshal frame",
			zap.String("job_id", jobID),
			zap.Error(err))
		return fmt.Errorf("failed to marshal frame: %w", err)
	}

	stream := domain.FrameStream(jobID)
	result, err := r.client.XAdd(ctx, &redis.XAddArgs{
		Stream: stream,
		Values: map[string]interface{}{
			"data": string(jsonData),
		},
	}).Result()

	if err != nil {
		r.logger.Error("Failed to publish frame",
			zap.String("job_id", jobID),
			zap.Error(err))
		return fmt.Errorf("failed to publish frame: %w", err)
	}

	r.client.Expire(ctx, stream, frameStreamTTL)

	r.logger.Debug("Frame published",
		zap.String("job_id", jobID),
		zap.String("message_id", result))
	return nil
}

// OpenFrames открывает канал кадров задания. Канал живёт, пока жив ctx:
// отмена контекста - единственный способ его закрыть. Читаем стрим с начала
// ("0"): кадры, опубликованные до открытия канала, не теряются.
func (r *streamRepository) OpenFrames(ctx context.Context, jobID string) (<-chan domain.StreamMessage, error) {
	msgChan := make(chan domain.StreamMessage, 10)
	stream := domain.FrameStream(jobID)

	go func() {
		defer close(msgChan)

		lastID := "0"

		for {
			select {
			case <-ctx.Done():
				r.logger.Debug("Frame channel closed",
					zap.String("job_id", jobID))
				return
			default:
				result, err := r.client.XRead(ctx, &redis.XReadArgs{
					Streams: []string{stream, lastID},
					Count:   10,
					Block:   1 * time.Second,
				}).Result()

				if err != nil {
					if err == redis.Nil {
						continue
					}
					if ctx.Err() != nil {
						return
					}
					r.logger.Error("Failed to read frame stream",
						zap.String("job_id", jobID),
						zap.Error(err))
					time.Sleep(time.Second)
					continue
				}

				for _, s := range result {
					for _, msg := range s.Messages {
						lastID = msg.ID

						data, ok := msg.Values["data"].(string)
						if !ok {
							r.logger.Warn("Frame does not contain 'data' field",
								zap.String("message_id", msg.ID))
							continue
						}

						select {
						case msgChan <- domain.StreamMessage{ID: msg.ID, Data: data}:
						case <-ctx.Done():
							return
						}
					}
				}
			}
		}
	}()

	return msgChan, nil
}
