// Package logger provides a structured logging solution using the Zap logging library.
// It includes utilities for creating and managing loggers, setting log levels,
// and integrating logging with context for enhanced traceability.
// The package also owns the per-run log files under the library's logs directory:
// a full debug-level log and an error-only log, attached once the output root is known.
package logger
