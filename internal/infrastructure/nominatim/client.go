package nominatim

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"

	"go.uber.org/zap"

	"github.com/activity-search/internal/config"
	"github.com/activity-search/internal/domain"
	"github.com/activity-search/internal/domain/repository"
	"github.com/activity-search/internal/pkg/utils"
)

type client struct {
	httpClient *http.Client
	baseURL    string
	userAgent  string
	logger     *zap.Logger
}

// searchResult - один элемент ответа Nominatim. Координаты приходят строками.
type searchResult struct {
	Lat         string `json:"lat"`
	Lon         string `json:"lon"`
	DisplayName string `json:"display_name"`
}

// NewNominatimClient создает новый клиент для Nominatim API
func NewNominatimClient(cfg *config.GeocoderConfig, logger *zap.Logger) repository.GeocoderRepository {
	return &client{
		httpClient: &http.Client{
			Timeout: time.Duration(cfg.RequestTimeout) * time.Second,
		},
		baseURL:   cfg.BaseURL,
		userAgent: cfg.UserAgent,
		logger:    logger,
	}
}

// Search геокодирует текстовый запрос. Пустой список совпадений - это
// (nil, nil): вызывающий различает "не найдено" и "геокодер недоступен".
func (c *client) Search(ctx context.Context, query string) (*domain.SearchedLocation, error) {
	params := url.Values{}
	params.Set("q", query)
	params.Set("format", "json")
	params.Set("limit", "1")

	reqURL := fmt.Sprintf("%s/search?%s", c.baseURL, params.Encode())

	c.logger.Debug("Calling Nominatim API", zap.String("query", query))

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, reqURL, nil)
	if err != nil {
		c.logger.Error("Failed to create request", zap.Error(err))
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	// Nominatim требует идентифицирующий User-Agent
	req.Header.Set("User-Agent", c.userAgent)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		c.logger.Error("Failed to execute request", zap.Error(err))
		return nil, fmt.Errorf("failed to execute request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(resp.Body)
		c.logger.Error("Nominatim API returned error",
			zap.Int("status_code", resp.StatusCode),
			zap.String("body", string(body)))
		return nil, fmt.Errorf("nominatim API error: status %d", resp.StatusCode)
	}

	var results []searchResult
	if err := json.NewDecoder(resp.Body).Decode(&results); err != nil {
		c.logger.Error("Failed to decode response", zap.Error(err))
		return nil, fmt.Errorf("failed to decode response: %w", err)
	}

	if len(results) == 0 {
		c.logger.Debug("Nominatim returned no matches", zap.String("query", query))
		return nil, nil
	}

	hit := results[0]
	lat := utils.ParseCoordinate(hit.Lat)
	lon := utils.ParseCoordinate(hit.Lon)
	if !utils.ValidateCoordinates(lat, lon) {
		c.logger.Error("Nominatim returned invalid coordinates",
			zap.String("lat", hit.Lat),
			zap.String("lon", hit.Lon))
		return nil, fmt.Errorf("invalid coordinates in response: %s, %s", hit.Lat, hit.Lon)
	}

	c.logger.Debug("Nominatim API call successful",
		zap.Float64("lat", lat),
		zap.Float64("lon", lon),
		zap.String("address", hit.DisplayName))

	return &domain.SearchedLocation{
		Lat:     lat,
		Lon:     lon,
		Address: hit.DisplayName,
	}, nil
}
