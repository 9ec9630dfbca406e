package postgres

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/lib/pq"
	"go.uber.org/zap"

	"github.com/activity-search/internal/domain"
	"github.com/activity-search/internal/domain/repository"
)

type historyRepository struct {
	db     *DB
	logger *zap.Logger
}

// NewHistoryRepository создает новый экземпляр history repository
func NewHistoryRepository(db *DB, logger *zap.Logger) repository.HistoryRepository {
	return &historyRepository{
		db:     db,
		logger: logger,
	}
}

// Save сохраняет завершённый поиск в историю. Повторная запись того же
// job_id перезаписывает строку: завершение одного задания идемпотентно.
func (r *historyRepository) Save(ctx context.Context, record *domain.SearchRecord) error {
	activities, err := json.Marshal(record.Activities)
	if err != nil {
		return fmt.Errorf("marshal activities: %w", err)
	}

	query := `
		INSERT INTO search_history (
			id, query, address, lat, lon, mode,
			activity_count, titles, activities, created_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
		ON CONFLICT (id) DO UPDATE SET
			activity_count = EXCLUDED.activity_count,
			titles = EXCLUDED.titles,
			activities = EXCLUDED.activities
	`

	_, err = r.db.ExecContext(ctx, query,
		record.ID,
		record.Query,
		record.Address,
		record.Lat,
		record.Lon,
		string(record.Mode),
		record.ActivityCount,
		pq.Array(record.Titles),
		activities,
		record.CreatedAt,
	)
	if err != nil {
		r.logger.Error("failed to save search record",
			zap.String("id", record.ID),
			zap.Error(err))
		return fmt.Errorf("save search record: %w", err)
	}

	r.logger.Debug("Search record saved",
		zap.String("id", record.ID),
		zap.Int("activity_count", record.ActivityCount))
	return nil
}

// ListRecent возвращает последние завершённые поиски, новые первыми
func (r *historyRepository) ListRecent(ctx context.Context, limit int) ([]*domain.SearchRecord, error) {
	query := `
		SELECT id, query, address, lat, lon, mode,
		       activity_count, titles, activities, created_at
		FROM search_history
		ORDER BY created_at DESC
		LIMIT $1
	`

	rows, err := r.db.QueryContext(ctx, query, limit)
	if err != nil {
		r.logger.Error("failed to list search history", zap.Error(err))
		return nil, fmt.Errorf("list search history: %w", err)
	}
	defer rows.Close()

	var records []*domain.SearchRecord
	for rows.Next() {
		var (
			record     domain.SearchRecord
			mode       string
			titles     pq.StringArray
			activities []byte
		)

		if err := rows.Scan(
			&record.ID,
			&record.Query,
			&record.Address,
			&record.Lat,
			&record.Lon,
			&mode,
			&record.ActivityCount,
			&titles,
			&activities,
			&record.CreatedAt,
		); err != nil {
			return nil, fmt.Errorf("scan search record: %w", err)
		}

		record.Mode = domain.SearchMode(mode)
		record.Titles = titles
		if len(activities) > 0 {
			if err := json.Unmarshal(activities, &record.Activities); err != nil {
				r.logger.Warn("failed to unmarshal stored activities",
					zap.String("id", record.ID),
					zap.Error(err))
			}
		}

		records = append(records, &record)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate search records: %w", err)
	}

	return records, nil
}
