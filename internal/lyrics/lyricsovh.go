package lyrics

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strings"
)

const lyricsOVHBaseURL = "https://api.lyrics.ovh/v1"

// LyricsOVHProvider fetches plain-text lyrics from lyrics.ovh.
type LyricsOVHProvider struct {
	// httpClient is the HTTP client for making requests.
	httpClient *http.Client
	// baseURL is the lookup endpoint; overridable in tests.
	baseURL string
}

// NewLyricsOVHProvider creates the lyrics.ovh provider.
func NewLyricsOVHProvider() *LyricsOVHProvider {
	return &LyricsOVHProvider{
		httpClient: newProviderHTTPClient(),
		baseURL:    lyricsOVHBaseURL,
	}
}

// Name returns the provider tag.
func (p *LyricsOVHProvider) Name() string {
	return "lyrics.ovh"
}

// Fetch returns lyrics or ErrNotFound. Duration is unused by this service.
func (p *LyricsOVHProvider) Fetch(ctx context.Context, artist, title string, _ int) (*Result, error) {
	endpoint := p.baseURL + "/" + url.PathEscape(artist) + "/" + url.PathEscape(title)

	request, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to build request: %w", err)
	}

	response, err := p.httpClient.Do(request)
	if err != nil {
		return nil, fmt.Errorf("request failed: %w", err)
	}

	defer response.Body.Close()

	if response.StatusCode == http.StatusNotFound {
		return nil, ErrNotFound
	}

	if response.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("%w: %s", ErrUnexpectedStatus, response.Status)
	}

	var payload struct {
		Lyrics string `json:"lyrics"`
	}

	if err = json.NewDecoder(response.Body).Decode(&payload); err != nil {
		return nil, fmt.Errorf("failed to decode response: %w", err)
	}

	text := strings.TrimSpace(payload.Lyrics)
	if text == "" {
		return nil, ErrNotFound
	}

	return &Result{Text: text, Source: p.Name()}, nil
}
