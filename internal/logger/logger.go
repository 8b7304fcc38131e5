package logger

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

const (
	// fullLogFilenamePattern names the debug-and-above log file for a run.
	fullLogFilenamePattern = "log_full_%s.log"
	// errorLogFilenamePattern names the error-and-above log file for a run.
	errorLogFilenamePattern = "log_errors_%s.log"
	// logFileTimestampLayout is the timestamp layout embedded in log filenames.
	logFileTimestampLayout = "20060102_150405"
	// logFilePermissions sets permissions for created log files (rw-r--r--).
	logFilePermissions = 0o644
	// logDirPermissions sets permissions for the logs directory (rwxr-xr-x).
	logDirPermissions = 0o755
)

//nolint:gochecknoglobals // A process-wide logger keeps call sites terse; it is owned here and swapped atomically.
var (
	globalMutex  sync.Mutex
	globalLevel  = zap.NewAtomicLevelAt(zapcore.InfoLevel)
	globalLogger = New(globalLevel)
	fileSinks    []*os.File
)

// New creates a sugared console logger at the given level.
// A nil level defaults to info.
func New(level zapcore.LevelEnabler) *zap.SugaredLogger {
	if level == nil {
		level = zapcore.InfoLevel
	}

	encoderConfig := zap.NewDevelopmentEncoderConfig()
	encoderConfig.EncodeLevel = zapcore.CapitalLevelEncoder
	encoderConfig.EncodeTime = zapcore.TimeEncoderOfLayout("2006-01-02 15:04:05")

	core := zapcore.NewCore(
		zapcore.NewConsoleEncoder(encoderConfig),
		zapcore.Lock(os.Stderr),
		level,
	)

	return zap.New(core).Sugar()
}

// Logger returns the current global logger.
func Logger() *zap.SugaredLogger {
	globalMutex.Lock()
	defer globalMutex.Unlock()

	return globalLogger
}

// SetLevel changes the level of the global console logger.
func SetLevel(level zapcore.Level) {
	globalLevel.SetLevel(level)
}

// Level returns the current level of the global console logger.
func Level() zapcore.Level {
	return globalLevel.Level()
}

// IsDebugLevel reports whether debug logging is currently enabled.
func IsDebugLevel() bool {
	return globalLevel.Enabled(zapcore.DebugLevel)
}

// ParseLogLevel converts a textual level into a zap level.
// The second return value reports whether the input was recognized.
func ParseLogLevel(level string) (zapcore.Level, bool) {
	switch strings.ToLower(strings.TrimSpace(level)) {
	case "", "info":
		return zapcore.InfoLevel, true
	case "debug":
		return zapcore.DebugLevel, true
	case "warn", "warning":
		return zapcore.WarnLevel, true
	case "error":
		return zapcore.ErrorLevel, true
	case "fatal":
		return zapcore.FatalLevel, true
	default:
		return zapcore.InfoLevel, false
	}
}

// AttachFileSinks adds two file cores to the global logger under logsDir:
// a full log capturing debug and above, and an error-only log.
// The console core keeps its configured level.
// Returns the paths of the created files.
func AttachFileSinks(logsDir string) (fullPath, errorsPath string, err error) {
	if err = os.MkdirAll(logsDir, logDirPermissions); err != nil {
		return "", "", fmt.Errorf("failed to create logs directory: %w", err)
	}

	timestamp := time.Now().Format(logFileTimestampLayout)
	fullPath = filepath.Join(logsDir, fmt.Sprintf(fullLogFilenamePattern, timestamp))
	errorsPath = filepath.Join(logsDir, fmt.Sprintf(errorLogFilenamePattern, timestamp))

	fullFile, err := os.OpenFile(filepath.Clean(fullPath), os.O_CREATE|os.O_APPEND|os.O_WRONLY, logFilePermissions)
	if err != nil {
		return "", "", fmt.Errorf("failed to open full log file: %w", err)
	}

	errorsFile, err := os.OpenFile(filepath.Clean(errorsPath), os.O_CREATE|os.O_APPEND|os.O_WRONLY, logFilePermissions)
	if err != nil {
		_ = fullFile.Close()

		return "", "", fmt.Errorf("failed to open errors log file: %w", err)
	}

	encoderConfig := zap.NewProductionEncoderConfig()
	encoderConfig.EncodeTime = zapcore.ISO8601TimeEncoder

	fileEncoder := zapcore.NewConsoleEncoder(encoderConfig)

	consoleEncoderConfig := zap.NewDevelopmentEncoderConfig()
	consoleEncoderConfig.EncodeLevel = zapcore.CapitalLevelEncoder
	consoleEncoderConfig.EncodeTime = zapcore.TimeEncoderOfLayout("2006-01-02 15:04:05")

	core := zapcore.NewTee(
		zapcore.NewCore(zapcore.NewConsoleEncoder(consoleEncoderConfig), zapcore.Lock(os.Stderr), globalLevel),
		zapcore.NewCore(fileEncoder, zapcore.Lock(fullFile), zapcore.DebugLevel),
		zapcore.NewCore(fileEncoder, zapcore.Lock(errorsFile), zapcore.ErrorLevel),
	)

	globalMutex.Lock()
	globalLogger = zap.New(core).Sugar()
	fileSinks = append(fileSinks, fullFile, errorsFile)
	globalMutex.Unlock()

	return fullPath, errorsPath, nil
}

// Close syncs the global logger and closes any attached file sinks.
func Close() {
	globalMutex.Lock()
	defer globalMutex.Unlock()

	_ = globalLogger.Sync()

	for _, f := range fileSinks {
		_ = f.Close()
	}

	fileSinks = nil
}

// Info logs a message at info level.
func Info(_ context.Context, args ...any) {
	Logger().Info(args...)
}

// Infof logs a formatted message at info level.
func Infof(_ context.Context, format string, args ...any) {
	Logger().Infof(format, args...)
}

// Debug logs a message at debug level.
func Debug(_ context.Context, args ...any) {
	Logger().Debug(args...)
}

// Debugf logs a formatted message at debug level.
func Debugf(_ context.Context, format string, args ...any) {
	Logger().Debugf(format, args...)
}

// Warnf logs a formatted message at warn level.
func Warnf(_ context.Context, format string, args ...any) {
	Logger().Warnf(format, args...)
}

// Error logs a message at error level.
func Error(_ context.Context, args ...any) {
	Logger().Error(args...)
}

// Errorf logs a formatted message at error level.
func Errorf(_ context.Context, format string, args ...any) {
	Logger().Errorf(format, args...)
}

// Fatalf logs a formatted message at fatal level and exits the process.
func Fatalf(_ context.Context, format string, args ...any) {
	Logger().Fatalf(format, args...)
}
