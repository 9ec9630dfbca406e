package utils

import (
	"encoding/json"
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestParseCoordinate(t *testing.T) {
	tests := []struct {
		name        string
		value       interface{}
		expected    float64
		description string
	}{
		{
			name:        "plain float",
			value:       52.52,
			expected:    52.52,
			description: "Numbers should pass through unchanged",
		},
		{
			name:        "integer value",
			value:       13,
			expected:    13.0,
			description: "Integers should be converted to float64",
		},
		{
			name:        "string with decimal point",
			value:       "41.3851",
			expected:    41.3851,
			description: "Dot-separated strings should parse directly",
		},
		{
			name:        "string with decimal comma",
			value:       "52,5200",
			expected:    52.52,
			description: "Comma decimal separator should be normalized to a dot",
		},
		{
			name:        "string with surrounding spaces",
			value:       " 2.1734 ",
			expected:    2.1734,
			description: "Whitespace should not break parsing",
		},
		{
			name:        "json.Number input",
			value:       json.Number("48.8566"),
			expected:    48.8566,
			description: "json.Number should be accepted",
		},
		{
			name:        "unparsable string",
			value:       "invalid",
			expected:    0,
			description: "Garbage strings should yield the absent sentinel",
		},
		{
			name:        "nil value",
			value:       nil,
			expected:    0,
			description: "Missing values should yield the absent sentinel",
		},
		{
			name:        "boolean value",
			value:       true,
			expected:    0,
			description: "Unsupported types should yield the absent sentinel",
		},
		{
			name:        "NaN is rejected",
			value:       math.NaN(),
			expected:    0,
			description: "Non-finite numbers must never escape the parser",
		},
		{
			name:        "positive infinity is rejected",
			value:       math.Inf(1),
			expected:    0,
			description: "Non-finite numbers must never escape the parser",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result := ParseCoordinate(tt.value)
			assert.Equal(t, tt.expected, result, tt.description)
		})
	}
}

func TestHaversineDistance(t *testing.T) {
	// Berlin -> Paris, примерно 878 км
	dist := HaversineDistance(52.52, 13.405, 48.8566, 2.3522)
	assert.InDelta(t, 878, dist, 5)

	// Нулевое расстояние до самой себя
	assert.Equal(t, 0.0, HaversineDistance(41.3851, 2.1734, 41.3851, 2.1734))
}

func TestValidateCoordinates(t *testing.T) {
	assert.True(t, ValidateCoordinates(41.3851, 2.1734))
	assert.False(t, ValidateCoordinates(91, 0))
	assert.False(t, ValidateCoordinates(0, -181))
}
