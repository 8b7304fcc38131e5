package lyrics

//go:generate $MOCKGEN -source=provider.go -destination=mocks/provider_mock.go

import (
	"context"
	"errors"
	"net/http"

	http_transport "github.com/dkrasnov/spotiport/internal/transport/http"
	"github.com/dkrasnov/spotiport/internal/utils"
)

// Static error definitions for better error handling.
var (
	// ErrNotFound indicates the provider has no lyrics for the track.
	ErrNotFound = errors.New("lyrics not found")
	// ErrUnexpectedStatus indicates a non-200 provider response.
	ErrUnexpectedStatus = errors.New("unexpected response status")
)

// Result is a successful lyrics lookup.
type Result struct {
	// Text is the lyrics body; LRC timestamped lines when Synced is set.
	Text string
	// Synced marks timestamped (LRC) text.
	Synced bool
	// Source is the provider tag stored in the registry.
	Source string
}

// Provider fetches lyrics for one track from a single upstream service.
type Provider interface {
	// Name returns the provider tag.
	Name() string
	// Fetch returns lyrics or ErrNotFound.
	Fetch(ctx context.Context, artist, title string, durationSeconds int) (*Result, error)
}

// newProviderHTTPClient builds the shared instrumented HTTP client of the
// bundled providers.
func newProviderHTTPClient() *http.Client {
	return &http.Client{
		Transport: http_transport.NewUserAgentInjector(
			http_transport.NewLogTransport(http.DefaultTransport, 0),
			utils.NewSimpleUserAgentProvider(http_transport.DefaultUserAgent)),
		Timeout: http_transport.DefaultTimeout,
	}
}
