// Package apperrors defines the typed error kinds surfaced at the
// orchestrator boundary and their mapping to CLI exit codes.
package apperrors

import (
	"context"
	"errors"
	"fmt"
)

// CLI exit codes.
const (
	// ExitOK indicates success.
	ExitOK = 0
	// ExitConfig indicates a configuration error.
	ExitConfig = 1
	// ExitRegistry indicates a registry open or integrity error.
	ExitRegistry = 2
	// ExitSpotify indicates a Spotify catalog error.
	ExitSpotify = 3
	// ExitOther indicates any other typed error.
	ExitOther = 4
	// ExitInterrupted indicates the run was interrupted by the user.
	ExitInterrupted = 130
)

// Kind classifies an error for exit-code mapping and reporting.
type Kind uint8

const (
	// KindUnknown - unclassified error.
	KindUnknown Kind = iota
	// KindConfig - configuration loading or validation failure.
	KindConfig
	// KindRegistry - registry open, schema, or statement failure.
	KindRegistry
	// KindSpotify - Spotify catalog failure.
	KindSpotify
	// KindYTMusic - YouTube Music search failure.
	KindYTMusic
	// KindAcquisition - audio extraction or placement failure.
	KindAcquisition
	// KindLyrics - lyrics provider failure.
	KindLyrics
	// KindEmbedding - tag embedding failure.
	KindEmbedding
)

// String returns a human-readable representation of the Kind.
func (k Kind) String() string {
	switch k {
	case KindConfig:
		return "config"
	case KindRegistry:
		return "registry"
	case KindSpotify:
		return "spotify"
	case KindYTMusic:
		return "ytmusic"
	case KindAcquisition:
		return "acquisition"
	case KindLyrics:
		return "lyrics"
	case KindEmbedding:
		return "embedding"
	case KindUnknown:
		return "unknown"
	default:
		return fmt.Sprintf("unknown: %d", k)
	}
}

// Error is a classified error with an optional auth marker.
type Error struct {
	// Kind is the error classification.
	Kind Kind
	// Auth marks catalog authentication failures.
	Auth bool
	// Err is the wrapped cause.
	Err error
}

// Error implements the error interface.
func (e *Error) Error() string {
	return fmt.Sprintf("%s error: %v", e.Kind, e.Err)
}

// Unwrap returns the wrapped cause.
func (e *Error) Unwrap() error {
	return e.Err
}

// New wraps err with a kind. A nil err returns nil.
func New(kind Kind, err error) error {
	if err == nil {
		return nil
	}

	return &Error{Kind: kind, Err: err}
}

// Newf wraps a formatted message with a kind.
func Newf(kind Kind, format string, args ...any) error {
	return &Error{Kind: kind, Err: fmt.Errorf(format, args...)}
}

// NewAuth wraps err as an authentication failure of the given kind.
func NewAuth(kind Kind, err error) error {
	if err == nil {
		return nil
	}

	return &Error{Kind: kind, Auth: true, Err: err}
}

// KindOf returns the classification of err, or KindUnknown.
func KindOf(err error) Kind {
	var typed *Error
	if errors.As(err, &typed) {
		return typed.Kind
	}

	return KindUnknown
}

// IsAuth reports whether err is marked as an authentication failure.
func IsAuth(err error) bool {
	var typed *Error
	if errors.As(err, &typed) {
		return typed.Auth
	}

	return false
}

// ExitCode maps an error to the process exit code.
func ExitCode(err error) int {
	if err == nil {
		return ExitOK
	}

	if errors.Is(err, context.Canceled) {
		return ExitInterrupted
	}

	switch KindOf(err) {
	case KindConfig:
		return ExitConfig
	case KindRegistry:
		return ExitRegistry
	case KindSpotify:
		return ExitSpotify
	case KindYTMusic, KindAcquisition, KindLyrics, KindEmbedding:
		return ExitOther
	case KindUnknown:
		return ExitOther
	default:
		return ExitOther
	}
}
