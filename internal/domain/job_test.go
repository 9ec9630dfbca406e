package domain

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestClassifyFrameStatus(t *testing.T) {
	tests := []struct {
		name        string
		status      string
		expected    FrameKind
		description string
	}{
		{
			name:        "lowercase in progress",
			status:      "in progress",
			expected:    FrameProgress,
			description: "Polling backends report lowercase progress",
		},
		{
			name:        "uppercase STARTED",
			status:      "STARTED",
			expected:    FrameProgress,
			description: "arq-style backends report STARTED",
		},
		{
			name:        "uppercase PROCESSING",
			status:      "PROCESSING",
			expected:    FrameProgress,
			description: "Processing is a progress status",
		},
		{
			name:        "completed",
			status:      "completed",
			expected:    FrameCompleted,
			description: "Terminal success status",
		},
		{
			name:        "uppercase COMPLETED",
			status:      "COMPLETED",
			expected:    FrameCompleted,
			description: "Status matching must be case-insensitive",
		},
		{
			name:        "failed",
			status:      "failed",
			expected:    FrameFailed,
			description: "Terminal failure status",
		},
		{
			name:        "error counts as failure",
			status:      "error",
			expected:    FrameFailed,
			description: "error and failed are the same terminal category",
		},
		{
			name:        "chunk frame",
			status:      "chunk",
			expected:    FrameChunk,
			description: "Deep search delivers data chunks before the terminal frame",
		},
		{
			name:        "status with padding",
			status:      "  completed  ",
			expected:    FrameCompleted,
			description: "Whitespace around the status must be tolerated",
		},
		{
			name:        "unknown status",
			status:      "something-else",
			expected:    FrameUnknown,
			description: "Unknown statuses are ignored, not treated as errors",
		},
		{
			name:        "empty status",
			status:      "",
			expected:    FrameUnknown,
			description: "Missing status is unknown",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result := ClassifyFrameStatus(tt.status)
			assert.Equal(t, tt.expected, result, tt.description)
		})
	}
}

func TestSearchState_Terminal(t *testing.T) {
	assert.False(t, StateIdle.Terminal())
	assert.False(t, StateSubmitting.Terminal())
	assert.False(t, StateStreaming.Terminal())
	assert.True(t, StateCompleted.Terminal())
	assert.True(t, StateFailed.Terminal())
	assert.True(t, StateError.Terminal())
}

func TestSearchMode_Valid(t *testing.T) {
	assert.True(t, ModeFastSearch.Valid())
	assert.True(t, ModeDeepSearch.Valid())
	assert.False(t, SearchMode("slowsearch").Valid())
}

func TestMarkerIDs(t *testing.T) {
	assert.Equal(t, "loc-41.3851-2.1734", LocationMarkerID(41.3851, 2.1734))
	assert.Equal(t, "act-0-41.3851-2.1734", ActivityMarkerID(0, 41.3851, 2.1734))
	assert.Equal(t, "act-3-52.52-13.405", ActivityMarkerID(3, 52.52, 13.405))
}

func TestMappingError_IsBlocking(t *testing.T) {
	assert.True(t, MappingError{Code: CodeMissingTitle}.IsBlocking())
	assert.True(t, MappingError{Code: CodeInvalidURL}.IsBlocking())
	assert.True(t, MappingError{Code: CodeInvalidActivityObject}.IsBlocking())
	assert.False(t, MappingError{Code: CodeInvalidRating}.IsBlocking())
	assert.False(t, MappingError{Code: CodeInvalidNumber}.IsBlocking())
	assert.False(t, MappingError{Code: CodeInvalidImageURL}.IsBlocking())
}
