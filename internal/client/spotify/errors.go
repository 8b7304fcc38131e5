package spotify

import "errors"

// Static error definitions for better error handling.
var (
	// ErrAlreadyInitialized indicates a second client construction in one process.
	ErrAlreadyInitialized = errors.New("spotify client is already initialized")
	// ErrInvalidReference indicates a reference that is not a URL, URI, or bare id.
	ErrInvalidReference = errors.New("invalid spotify reference")
	// ErrUserAuthRequired indicates an operation that needs the user-delegated mode.
	ErrUserAuthRequired = errors.New("operation requires user authorization")
	// ErrAuthCallbackState indicates a consent callback with a mismatched state token.
	ErrAuthCallbackState = errors.New("authorization callback state mismatch")
)
