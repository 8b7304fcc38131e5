package lyrics

import (
	"context"
	"encoding/xml"
	"fmt"
	"net/http"
	"net/url"
	"strings"
)

const chartLyricsBaseURL = "http://api.chartlyrics.com/apiv1.asmx/SearchLyricDirect"

// ChartLyricsProvider fetches plain-text lyrics from the ChartLyrics SOAP
// service, which answers plain GET requests with XML.
type ChartLyricsProvider struct {
	// httpClient is the HTTP client for making requests.
	httpClient *http.Client
	// baseURL is the lookup endpoint; overridable in tests.
	baseURL string
}

// NewChartLyricsProvider creates the ChartLyrics provider.
func NewChartLyricsProvider() *ChartLyricsProvider {
	return &ChartLyricsProvider{
		httpClient: newProviderHTTPClient(),
		baseURL:    chartLyricsBaseURL,
	}
}

// Name returns the provider tag.
func (p *ChartLyricsProvider) Name() string {
	return "chartlyrics"
}

type chartLyricsResponse struct {
	XMLName xml.Name `xml:"GetLyricResult"`
	Lyric   string   `xml:"Lyric"`
}

// Fetch returns lyrics or ErrNotFound. Duration is unused by this service.
func (p *ChartLyricsProvider) Fetch(ctx context.Context, artist, title string, _ int) (*Result, error) {
	query := url.Values{
		"artist": {artist},
		"song":   {title},
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

	if response.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("%w: %s", ErrUnexpectedStatus, response.Status)
	}

	var payload chartLyricsResponse
	if err = xml.NewDecoder(response.Body).Decode(&payload); err != nil {
		return nil, fmt.Errorf("failed to decode response: %w", err)
	}

	text := strings.TrimSpace(payload.Lyric)
	if text == "" {
		return nil, ErrNotFound
	}

	return &Result{Text: text, Source: p.Name()}, nil
}
