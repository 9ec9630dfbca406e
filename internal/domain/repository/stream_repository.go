package repository

import (
	"context"

	"github.com/activity-search/internal/domain"
)

// StreamRepository - очередь заданий и push-канал кадров поверх Redis Streams.
//
// Контракт канала кадров: OpenFrames возвращает канал, привязанный к ctx.
// Отмена ctx - единственный способ закрыть канал; после отмены канал
// закрывается и сообщения по нему больше не приходят. Ровно один открытый
// канал на активное задание - инвариант вызывающего (SearchUseCase).
type StreamRepository interface {
	// Очередь заданий (воркер)
	CreateConsumerGroup(ctx context.Context, stream, group string) error
	ConsumeJobs(ctx context.Context, group, consumer string) (<-chan domain.StreamMessage, error)
	AckJob(ctx context.Context, group, messageID string) error

	// Постановка задания (контроллер)
	SubmitJob(ctx context.Context, job *domain.SearchJob) error

	// Канал кадров конкретного задания
	PublishFrame(ctx context.Context, jobID string, frame interface{}) error
	OpenFrames(ctx context.Context, jobID string) (<-chan domain.StreamMessage, error)
}
