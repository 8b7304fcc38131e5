package ytmusic

import "errors"

// Static error definitions for better error handling.
var (
	// ErrUnexpectedStatus indicates a non-200 response from the endpoint.
	ErrUnexpectedStatus = errors.New("unexpected response status")
	// ErrMalformedResponse indicates a response body the parser cannot walk.
	ErrMalformedResponse = errors.New("malformed search response")
)
