package provider

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"go.uber.org/zap"

	"github.com/activity-search/internal/config"
	"github.com/activity-search/internal/domain/repository"
)

type client struct {
	httpClient *http.Client
	baseURL    string
	logger     *zap.Logger
}

// NewProviderClient создает новый клиент поставщика активностей
func NewProviderClient(cfg *config.ProviderConfig, logger *zap.Logger) repository.ProviderRepository {
	return &client{
		httpClient: &http.Client{
			Timeout: time.Duration(cfg.RequestTimeout) * time.Second,
		},
		baseURL: cfg.BaseURL,
		logger:  logger,
	}
}

// FetchActivities запрашивает активности вокруг точки. Элементы результата
// не разбираются и не фильтруются: битые объекты дойдут до нормализатора
// и будут отражены в его отчёте об ошибках, а не потеряны молча здесь.
func (c *client) FetchActivities(ctx context.Context, query string, lat, lon float64) ([]json.RawMessage, error) {
	params := url.Values{}
	params.Set("q", query)
	params.Set("lat", strconv.FormatFloat(lat, 'f', -1, 64))
	params.Set("lon", strconv.FormatFloat(lon, 'f', -1, 64))

	reqURL := fmt.Sprintf("%s/activities?%s", c.baseURL, params.Encode())

	c.logger.Debug("Calling activity provider",
		zap.String("query", query),
		zap.Float64("lat", lat),
		zap.Float64("lon", lon))

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, reqURL, nil)
	if err != nil {
		c.logger.Error("Failed to create request", zap.Error(err))
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		c.logger.Error("Failed to execute request", zap.Error(err))
		return nil, fmt.Errorf("failed to execute request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(resp.Body)
		c.logger.Error("Provider API returned error",
			zap.Int("status_code", resp.StatusCode),
			zap.String("body", string(body)))
		return nil, fmt.Errorf("provider API error: status %d", resp.StatusCode)
	}

	var activities []json.RawMessage
	if err := json.NewDecoder(resp.Body).Decode(&activities); err != nil {
		c.logger.Error("Failed to decode response", zap.Error(err))
		return nil, fmt.Errorf("failed to decode response: %w", err)
	}

	c.logger.Debug("Provider API call successful", zap.Int("count", len(activities)))

	return activities, nil
}
