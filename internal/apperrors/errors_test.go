package apperrors

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
)

// TestExitCode tests the ExitCode mapping.
func TestExitCode(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name     string
		err      error
		expected int
	}{
		{
			name:     "nil error",
			err:      nil,
			expected: ExitOK,
		},
		{
			name:     "config error",
			err:      New(KindConfig, errors.New("missing key")),
			expected: ExitConfig,
		},
		{
			name:     "registry error",
			err:      New(KindRegistry, errors.New("schema mismatch")),
			expected: ExitRegistry,
		},
		{
			name:     "spotify error",
			err:      NewAuth(KindSpotify, errors.New("bad credentials")),
			expected: ExitSpotify,
		},
		{
			name:     "acquisition error",
			err:      New(KindAcquisition, errors.New("yt-dlp failed")),
			expected: ExitOther,
		},
		{
			name:     "untyped error",
			err:      errors.New("boom"),
			expected: ExitOther,
		},
		{
			name:     "interrupted",
			err:      fmt.Errorf("run aborted: %w", context.Canceled),
			expected: ExitInterrupted,
		},
		{
			name:     "wrapped typed error",
			err:      fmt.Errorf("outer: %w", New(KindConfig, errors.New("inner"))),
			expected: ExitConfig,
		},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			assert.Equal(t, tt.expected, ExitCode(tt.err))
		})
	}
}

// TestIsAuth tests the auth marker propagation.
func TestIsAuth(t *testing.T) {
	t.Parallel()

	assert.True(t, IsAuth(NewAuth(KindSpotify, errors.New("expired token"))))
	assert.False(t, IsAuth(New(KindSpotify, errors.New("not found"))))
	assert.False(t, IsAuth(errors.New("plain")))
	assert.True(t, IsAuth(fmt.Errorf("wrapped: %w", NewAuth(KindSpotify, errors.New("x")))))
}

// TestKindOf tests error classification.
func TestKindOf(t *testing.T) {
	t.Parallel()

	assert.Equal(t, KindRegistry, KindOf(New(KindRegistry, errors.New("x"))))
	assert.Equal(t, KindUnknown, KindOf(errors.New("x")))
}
