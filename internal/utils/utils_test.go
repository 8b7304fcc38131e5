package utils

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

// TestSanitizeFilename tests the SanitizeFilename function.
func TestSanitizeFilename(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name     string
		input    string
		expected string
	}{
		{
			name:     "clean name passes through",
			input:    "Bohemian Rhapsody",
			expected: "Bohemian Rhapsody",
		},
		{
			name:     "windows restricted characters",
			input:    `AC/DC: Back <in> Black?`,
			expected: "AC_DC_ Back _in_ Black_",
		},
		{
			name:     "control characters",
			input:    "Track\x00\x1fName",
			expected: "Track__Name",
		},
		{
			name:     "leading and trailing dots and spaces",
			input:    "  .hidden track.  ",
			expected: "hidden track",
		},
		{
			name:     "empty input",
			input:    "",
			expected: "Unknown",
		},
		{
			name:     "only invalid characters",
			input:    "  ...  ",
			expected: "Unknown",
		},
		{
			name:     "overlong name is truncated",
			input:    strings.Repeat("a", 300),
			expected: strings.Repeat("a", 200),
		},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			assert.Equal(t, tt.expected, SanitizeFilename(tt.input))
		})
	}
}

// TestIsTextContentType tests the IsTextContentType function.
func TestIsTextContentType(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name        string
		contentType string
		expected    bool
	}{
		{
			name:        "plain text",
			contentType: "text/plain; charset=utf-8",
			expected:    true,
		},
		{
			name:        "json",
			contentType: "application/json",
			expected:    true,
		},
		{
			name:        "xml",
			contentType: "application/xml",
			expected:    true,
		},
		{
			name:        "audio",
			contentType: "audio/mp4",
			expected:    false,
		},
		{
			name:        "garbage",
			contentType: "not a content type",
			expected:    false,
		},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			assert.Equal(t, tt.expected, IsTextContentType(tt.contentType))
		})
	}
}

// TestMap tests the Map function.
func TestMap(t *testing.T) {
	t.Parallel()

	result := Map([]int{1, 2, 3}, func(v int) int { return v * 2 })
	assert.Equal(t, []int{2, 4, 6}, result)

	empty := Map(nil, func(v int) int { return v })
	assert.Empty(t, empty)
}
