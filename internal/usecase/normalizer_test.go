package usecase

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/activity-search/internal/domain"
)

func errorCodes(errs []domain.MappingError) []string {
	codes := make([]string, 0, len(errs))
	for _, e := range errs {
		codes = append(codes, e.Code)
	}
	return codes
}

func TestNormalizeActivity_RejectsNonObjects(t *testing.T) {
	tests := []struct {
		name  string
		raw   interface{}
		descr string
	}{
		{name: "nil value", raw: nil, descr: "nil is not an object"},
		{name: "string value", raw: "kayaking", descr: "scalar is not an object"},
		{name: "number value", raw: 42.0, descr: "scalar is not an object"},
		{name: "array value", raw: []interface{}{"a"}, descr: "array is not an object"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			activity, errs := NormalizeActivity(tt.raw, 3)
			assert.Nil(t, activity, tt.descr)
			require.Len(t, errs, 1, "exactly one error is expected")
			assert.Equal(t, domain.CodeInvalidActivityObject, errs[0].Code)
			require.NotNil(t, errs[0].Index)
			assert.Equal(t, 3, *errs[0].Index)
		})
	}
}

func TestNormalizeActivity_Title(t *testing.T) {
	t.Run("name preferred over title", func(t *testing.T) {
		activity, errs := NormalizeActivity(map[string]interface{}{
			"name":  "Kayaking",
			"title": "Ignored",
		}, 0)
		require.NotNil(t, activity)
		assert.Empty(t, errs)
		assert.Equal(t, "Kayaking", activity.Title)
	})

	t.Run("title used as fallback", func(t *testing.T) {
		activity, _ := NormalizeActivity(map[string]interface{}{"title": "Museum Tour"}, 0)
		require.NotNil(t, activity)
		assert.Equal(t, "Museum Tour", activity.Title)
	})

	t.Run("missing both is blocking", func(t *testing.T) {
		activity, errs := NormalizeActivity(map[string]interface{}{"price_value": 30.0}, 0)
		assert.Nil(t, activity)
		assert.Contains(t, errorCodes(errs), domain.CodeMissingTitle)
	})

	t.Run("empty title counts as missing", func(t *testing.T) {
		activity, errs := NormalizeActivity(map[string]interface{}{"title": "   "}, 0)
		assert.Nil(t, activity)
		assert.Contains(t, errorCodes(errs), domain.CodeMissingTitle)
	})

	t.Run("missing title logged before rating error", func(t *testing.T) {
		activity, errs := NormalizeActivity(map[string]interface{}{
			"title":          "",
			"rating_average": 9.0,
		}, 0)
		assert.Nil(t, activity)
		codes := errorCodes(errs)
		require.Len(t, codes, 2, "both errors must be logged deterministically")
		assert.Equal(t, domain.CodeMissingTitle, codes[0])
		assert.Equal(t, domain.CodeInvalidRating, codes[1])
	})
}

func TestNormalizeActivity_ActivityURL(t *testing.T) {
	t.Run("activity_url preferred", func(t *testing.T) {
		activity, errs := NormalizeActivity(map[string]interface{}{
			"name":         "Tour",
			"activity_url": "https://x.test/a",
			"url":          "https://ignored.test/b",
		}, 0)
		require.NotNil(t, activity)
		assert.Empty(t, errs)
		assert.Equal(t, "https://x.test/a", activity.ActivityURL)
	})

	t.Run("url fallback", func(t *testing.T) {
		activity, _ := NormalizeActivity(map[string]interface{}{
			"name": "Tour",
			"url":  "https://x.test/b",
		}, 0)
		require.NotNil(t, activity)
		assert.Equal(t, "https://x.test/b", activity.ActivityURL)
	})

	t.Run("absent url defaults to sentinel", func(t *testing.T) {
		activity, errs := NormalizeActivity(map[string]interface{}{"name": "Tour"}, 0)
		require.NotNil(t, activity)
		assert.Empty(t, errs)
		assert.Equal(t, "#", activity.ActivityURL)
	})

	t.Run("relative url is blocking", func(t *testing.T) {
		activity, errs := NormalizeActivity(map[string]interface{}{
			"name": "Tour",
			"url":  "/tours/123",
		}, 0)
		assert.Nil(t, activity)
		assert.Contains(t, errorCodes(errs), domain.CodeInvalidURL)
	})

	t.Run("explicit sentinel is accepted", func(t *testing.T) {
		activity, errs := NormalizeActivity(map[string]interface{}{
			"name":         "Tour",
			"activity_url": "#",
		}, 0)
		require.NotNil(t, activity)
		assert.Empty(t, errs)
		assert.Equal(t, "#", activity.ActivityURL)
	})
}

func TestNormalizeActivity_NumericFields(t *testing.T) {
	t.Run("happy path values", func(t *testing.T) {
		activity, errs := NormalizeActivity(map[string]interface{}{
			"name":               "Kayaking",
			"rating_average":     4.2,
			"rating_count":       128.0,
			"price_value":        30.0,
			"duration_min_hours": 2.5,
		}, 0)
		require.NotNil(t, activity)
		assert.Empty(t, errs)
		assert.Equal(t, 4.2, activity.RatingAverage)
		assert.Equal(t, 128, activity.RatingCount)
		assert.Equal(t, 30.0, activity.PriceValue)
		assert.Equal(t, 2.5, activity.DurationMinHours)
	})

	t.Run("string numbers with decimal comma", func(t *testing.T) {
		activity, errs := NormalizeActivity(map[string]interface{}{
			"name":           "Kayaking",
			"rating_average": "4,5",
			"price_value":    "79,90",
		}, 0)
		require.NotNil(t, activity)
		assert.Empty(t, errs)
		assert.Equal(t, 4.5, activity.RatingAverage)
		assert.Equal(t, 79.9, activity.PriceValue)
	})

	t.Run("non-numeric value falls back to default", func(t *testing.T) {
		activity, errs := NormalizeActivity(map[string]interface{}{
			"name":        "Kayaking",
			"price_value": "free",
		}, 0)
		require.NotNil(t, activity, "INVALID_NUMBER is non-blocking")
		assert.Contains(t, errorCodes(errs), domain.CodeInvalidNumber)
		assert.Equal(t, 0.0, activity.PriceValue)
	})

	t.Run("negative price falls back to default", func(t *testing.T) {
		activity, errs := NormalizeActivity(map[string]interface{}{
			"name":        "Kayaking",
			"price_value": -5.0,
		}, 0)
		require.NotNil(t, activity)
		assert.Contains(t, errorCodes(errs), domain.CodeInvalidNumber)
		assert.Equal(t, 0.0, activity.PriceValue)
	})

	t.Run("rating outside range passes through unclamped", func(t *testing.T) {
		activity, errs := NormalizeActivity(map[string]interface{}{
			"name":           "Kayaking",
			"rating_average": 9.0,
		}, 0)
		require.NotNil(t, activity, "INVALID_RATING is non-blocking")
		assert.Contains(t, errorCodes(errs), domain.CodeInvalidRating)
		assert.Equal(t, 9.0, activity.RatingAverage, "value is displayed as-is, not clamped")
	})

	t.Run("absent numeric fields default silently", func(t *testing.T) {
		activity, errs := NormalizeActivity(map[string]interface{}{"name": "Kayaking"}, 0)
		require.NotNil(t, activity)
		assert.Empty(t, errs)
		assert.Equal(t, 0.0, activity.RatingAverage)
		assert.Equal(t, 0, activity.RatingCount)
	})
}

func TestNormalizeActivity_Defaults(t *testing.T) {
	activity, _ := NormalizeActivity(map[string]interface{}{"name": "Tour"}, 0)
	require.NotNil(t, activity)
	assert.Equal(t, "EUR", activity.PriceCurrency)
	assert.Equal(t, "Person", activity.PriceUnit)

	activity, _ = NormalizeActivity(map[string]interface{}{
		"name":           "Tour",
		"price_currency": "€",
		"price_unit":     "group",
	}, 0)
	require.NotNil(t, activity)
	assert.Equal(t, "€", activity.PriceCurrency)
	assert.Equal(t, "group", activity.PriceUnit)
}

func TestNormalizeActivity_ImageURL(t *testing.T) {
	tests := []struct {
		name        string
		imageURL    interface{}
		expectURL   string
		expectNil   bool
		expectError bool
		description string
	}{
		{
			name:        "trusted CDN url preserved verbatim",
			imageURL:    "https://cdn.getyourguide.com/img/tour/x.jpg/87.jpg",
			expectURL:   "https://cdn.getyourguide.com/img/tour/x.jpg/87.jpg",
			description: "Valid CDN links must round-trip unchanged",
		},
		{
			name:        "tour_img path without trusted host rejected",
			imageURL:    "http://foo/tour_img/x.jpg",
			expectNil:   true,
			expectError: true,
			description: "tour_img/ is only allowed on the trusted CDN",
		},
		{
			name:        "tour_img path on trusted host accepted",
			imageURL:    "https://cdn.getyourguide.com/tour_img/x.jpg",
			expectURL:   "https://cdn.getyourguide.com/tour_img/x.jpg",
			description: "The trusted host whitelists tour_img paths",
		},
		{
			name:        "tracking parameter rejected",
			imageURL:    "https://img.test/a.jpg?ranking_uuid=abc",
			expectNil:   true,
			expectError: true,
			description: "ranking_uuid links are tracking redirects, not images",
		},
		{
			name:        "empty string rejected",
			imageURL:    "  ",
			expectNil:   true,
			expectError: true,
			description: "Empty image must become nil, never an empty string",
		},
		{
			name:        "non-http scheme rejected",
			imageURL:    "ftp://img.test/a.jpg",
			expectNil:   true,
			expectError: true,
			description: "Only http/https absolute URLs are allowed",
		},
		{
			name:        "relative path rejected",
			imageURL:    "img/tour/a.jpg",
			expectNil:   true,
			expectError: true,
			description: "Relative paths cannot be rendered by the client",
		},
		{
			name:        "non-string value rejected",
			imageURL:    12345.0,
			expectNil:   true,
			expectError: true,
			description: "image_url must be a string",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			activity, errs := NormalizeActivity(map[string]interface{}{
				"name":      "Tour",
				"image_url": tt.imageURL,
			}, 0)
			require.NotNil(t, activity, "image errors are never blocking")

			if tt.expectNil {
				assert.Nil(t, activity.ImageURL, tt.description)
			} else {
				require.NotNil(t, activity.ImageURL, tt.description)
				assert.Equal(t, tt.expectURL, *activity.ImageURL)
			}

			if tt.expectError {
				assert.Contains(t, errorCodes(errs), domain.CodeInvalidImageURL)
			} else {
				assert.Empty(t, errs)
			}
		})
	}

	t.Run("absent image is nil without error", func(t *testing.T) {
		activity, errs := NormalizeActivity(map[string]interface{}{"name": "Tour"}, 0)
		require.NotNil(t, activity)
		assert.Nil(t, activity.ImageURL)
		assert.Empty(t, errs)
	})
}

func TestNormalizeActivity_Coordinates(t *testing.T) {
	t.Run("nested object wins", func(t *testing.T) {
		activity, _ := NormalizeActivity(map[string]interface{}{
			"name": "Tour",
			"coordinates": map[string]interface{}{
				"lat": 41.3851,
				"lon": 2.1734,
			},
			"latitude":  50.0,
			"longitude": 8.0,
		}, 0)
		require.NotNil(t, activity)
		require.NotNil(t, activity.Coordinates)
		assert.Equal(t, 41.3851, activity.Coordinates.Lat)
		assert.Equal(t, 2.1734, activity.Coordinates.Lon)
	})

	t.Run("nested object alternative keys", func(t *testing.T) {
		activity, _ := NormalizeActivity(map[string]interface{}{
			"name": "Tour",
			"coordinates": map[string]interface{}{
				"latitude": "41,3851",
				"lng":      "2,1734",
			},
		}, 0)
		require.NotNil(t, activity)
		require.NotNil(t, activity.Coordinates)
		assert.Equal(t, 41.3851, activity.Coordinates.Lat)
	})

	t.Run("flat fields as fallback", func(t *testing.T) {
		activity, _ := NormalizeActivity(map[string]interface{}{
			"name":      "Tour",
			"latitude":  52.52,
			"longitude": 13.405,
		}, 0)
		require.NotNil(t, activity)
		require.NotNil(t, activity.Coordinates)
		assert.Equal(t, 52.52, activity.Coordinates.Lat)
		assert.Equal(t, 13.405, activity.Coordinates.Lon)
	})

	t.Run("meeting_point as last resort", func(t *testing.T) {
		activity, _ := NormalizeActivity(map[string]interface{}{
			"name":          "Tour",
			"meeting_point": []interface{}{28.05, -14.35},
		}, 0)
		require.NotNil(t, activity)
		require.NotNil(t, activity.Coordinates)
		assert.Equal(t, 28.05, activity.Coordinates.Lat)
		assert.Equal(t, -14.35, activity.Coordinates.Lon)
	})

	t.Run("zero component disqualifies candidate", func(t *testing.T) {
		activity, _ := NormalizeActivity(map[string]interface{}{
			"name": "Tour",
			"coordinates": map[string]interface{}{
				"lat": 0.0,
				"lon": 2.1734,
			},
			"latitude":  52.52,
			"longitude": 13.405,
		}, 0)
		require.NotNil(t, activity)
		require.NotNil(t, activity.Coordinates)
		assert.Equal(t, 52.52, activity.Coordinates.Lat, "the flat fields are the next candidate")
	})

	t.Run("no source yields nil coordinates", func(t *testing.T) {
		activity, _ := NormalizeActivity(map[string]interface{}{"name": "Tour"}, 0)
		require.NotNil(t, activity)
		assert.Nil(t, activity.Coordinates)
		assert.False(t, activity.HasCoordinates())
	})

	t.Run("meeting point resolved independently", func(t *testing.T) {
		activity, _ := NormalizeActivity(map[string]interface{}{
			"name":          "Tour",
			"latitude":      52.52,
			"longitude":     13.405,
			"meeting_point": []interface{}{28.05, -14.35},
		}, 0)
		require.NotNil(t, activity)
		require.NotNil(t, activity.Coordinates)
		assert.Equal(t, 52.52, activity.Coordinates.Lat)
		assert.Equal(t, []float64{28.05, -14.35}, activity.MeetingPoint)
	})

	t.Run("malformed meeting point is nil", func(t *testing.T) {
		activity, _ := NormalizeActivity(map[string]interface{}{
			"name":          "Tour",
			"meeting_point": []interface{}{28.05},
		}, 0)
		require.NotNil(t, activity)
		assert.Nil(t, activity.MeetingPoint)
	})
}
