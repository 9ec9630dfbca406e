package provider

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/activity-search/internal/config"
)

func TestClient_FetchActivities(t *testing.T) {
	logger, _ := zap.NewDevelopment()

	newCfg := func(baseURL string) *config.ProviderConfig {
		return &config.ProviderConfig{
			BaseURL:        baseURL,
			RequestTimeout: 5,
		}
	}

	t.Run("successful request keeps elements verbatim", func(t *testing.T) {
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			assert.Equal(t, "kayaking", r.URL.Query().Get("q"))
			assert.Equal(t, "41.3851", r.URL.Query().Get("lat"))
			w.Header().Set("Content-Type", "application/json")
			w.Write([]byte(`[
				{"name": "Kayaking", "rating_average": 4.2},
				"not an object",
				{"name": "Sailing"}
			]`))
		}))
		defer server.Close()

		client := NewProviderClient(newCfg(server.URL), logger)

		activities, err := client.FetchActivities(context.Background(), "kayaking", 41.3851, 2.1734)
		require.NoError(t, err)
		require.Len(t, activities, 3)
		// Небалансный элемент не отфильтрован: решает нормализатор
		assert.JSONEq(t, `"not an object"`, string(activities[1]))
		assert.JSONEq(t, `{"name": "Kayaking", "rating_average": 4.2}`, string(activities[0]))
	})

	t.Run("empty result", func(t *testing.T) {
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.Write([]byte(`[]`))
		}))
		defer server.Close()

		client := NewProviderClient(newCfg(server.URL), logger)

		activities, err := client.FetchActivities(context.Background(), "kayaking", 41.3851, 2.1734)
		require.NoError(t, err)
		assert.Empty(t, activities)
	})

	t.Run("api error response", func(t *testing.T) {
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusInternalServerError)
		}))
		defer server.Close()

		client := NewProviderClient(newCfg(server.URL), logger)

		activities, err := client.FetchActivities(context.Background(), "kayaking", 41.3851, 2.1734)
		assert.Error(t, err)
		assert.Nil(t, activities)
		assert.Contains(t, err.Error(), "provider API error")
	})

	t.Run("non-array response", func(t *testing.T) {
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.Write([]byte(`{"error": "unexpected"}`))
		}))
		defer server.Close()

		client := NewProviderClient(newCfg(server.URL), logger)

		activities, err := client.FetchActivities(context.Background(), "kayaking", 41.3851, 2.1734)
		assert.Error(t, err)
		assert.Nil(t, activities)
	})
}
