package logger

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zapcore"
)

// TestNew tests the New function.
func TestNew(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name  string
		level zapcore.LevelEnabler
	}{
		{
			name:  "with debug level",
			level: zapcore.DebugLevel,
		},
		{
			name:  "with info level",
			level: zapcore.InfoLevel,
		},
		{
			name:  "with error level",
			level: zapcore.ErrorLevel,
		},
		{
			name:  "with nil level",
			level: nil,
		},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			logger := New(tt.level)
			assert.NotNil(t, logger)
		})
	}
}

// TestParseLogLevel tests the ParseLogLevel function.
func TestParseLogLevel(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name     string
		input    string
		expected zapcore.Level
		valid    bool
	}{
		{
			name:     "debug level",
			input:    "debug",
			expected: zapcore.DebugLevel,
			valid:    true,
		},
		{
			name:     "info level",
			input:    "info",
			expected: zapcore.InfoLevel,
			valid:    true,
		},
		{
			name:     "warn level",
			input:    "warn",
			expected: zapcore.WarnLevel,
			valid:    true,
		},
		{
			name:     "error level",
			input:    "error",
			expected: zapcore.ErrorLevel,
			valid:    true,
		},
		{
			name:     "empty string defaults to info",
			input:    "",
			expected: zapcore.InfoLevel,
			valid:    true,
		},
		{
			name:     "mixed case",
			input:    "DeBuG",
			expected: zapcore.DebugLevel,
			valid:    true,
		},
		{
			name:  "unknown level",
			input: "chatty",
			valid: false,
		},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			level, ok := ParseLogLevel(tt.input)
			assert.Equal(t, tt.valid, ok)

			if tt.valid {
				assert.Equal(t, tt.expected, level)
			}
		})
	}
}

// TestAttachFileSinks tests that file sinks are created under the logs directory.
func TestAttachFileSinks(t *testing.T) {
	logsDir := filepath.Join(t.TempDir(), "logs")

	fullPath, errorsPath, err := AttachFileSinks(logsDir)
	require.NoError(t, err)

	t.Cleanup(Close)

	assert.Contains(t, filepath.Base(fullPath), "log_full_")
	assert.Contains(t, filepath.Base(errorsPath), "log_errors_")

	_, err = os.Stat(fullPath)
	assert.NoError(t, err)

	_, err = os.Stat(errorsPath)
	assert.NoError(t, err)
}
