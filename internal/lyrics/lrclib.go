package lyrics

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"strings"
)

// lrclibBaseURL is the LRCLIB lookup endpoint; exact-match by artist,
// title, and duration.
const lrclibBaseURL = "https://lrclib.net/api/get"

// LRCLIBProvider fetches timestamped lyrics from lrclib.net. It is the only
// synced source in the chain and therefore runs first.
type LRCLIBProvider struct {
	// httpClient is the HTTP client for making requests.
	httpClient *http.Client
	// baseURL is the lookup endpoint; overridable in tests.
	baseURL string
}

// NewLRCLIBProvider creates the LRCLIB provider.
func NewLRCLIBProvider() *LRCLIBProvider {
	return &LRCLIBProvider{
		httpClient: newProviderHTTPClient(),
		baseURL:    lrclibBaseURL,
	}
}

// Name returns the provider tag.
func (p *LRCLIBProvider) Name() string {
	return "lrclib"
}

type lrclibResponse struct {
	SyncedLyrics string `json:"syncedLyrics"`
	PlainLyrics  string `json:"plainLyrics"`
	Instrumental bool   `json:"instrumental"`
}

// Fetch returns lyrics or ErrNotFound. Synced text is preferred; a plain
// fallback from the same record is still used.
func (p *LRCLIBProvider) Fetch(ctx context.Context, artist, title string, durationSeconds int) (*Result, error) {
	query := url.Values{
		"artist_name": {artist},
		"track_name":  {title},
	}
	if durationSeconds > 0 {
		query.Set("duration", strconv.Itoa(durationSeconds))
	}

	request, err := http.NewRequestWithContext(ctx, http.MethodGet, p.baseURL+"?"+query.Encode(), nil)
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

	var payload lrclibResponse
	if err = json.NewDecoder(response.Body).Decode(&payload); err != nil {
		return nil, fmt.Errorf("failed to decode response: %w", err)
	}

	if synced := strings.TrimSpace(payload.SyncedLyrics); synced != "" {
		return &Result{Text: synced, Synced: true, Source: p.Name()}, nil
	}

	if plain := strings.TrimSpace(payload.PlainLyrics); plain != "" {
		return &Result{Text: plain, Source: p.Name()}, nil
	}

	return nil, ErrNotFound
}
