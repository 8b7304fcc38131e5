package ytmusic

//go:generate $MOCKGEN -source=client.go -destination=mocks/client_mock.go

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"

	"github.com/dkrasnov/spotiport/internal/apperrors"
	http_transport "github.com/dkrasnov/spotiport/internal/transport/http"
	"github.com/dkrasnov/spotiport/internal/utils"
)

// Client defines the search interface against YouTube Music.
type Client interface {
	// SearchSongs runs a songs-filtered search and returns normalized hits
	// in ranking order.
	SearchSongs(ctx context.Context, query string) ([]*SearchResult, error)
}

// ClientImpl implements Client over the InnerTube HTTP endpoint.
type ClientImpl struct {
	// httpClient is the HTTP client for making requests.
	httpClient *http.Client
	// endpoint is the search URL; overridable in tests.
	endpoint string
}

// NewClient creates a search client with an instrumented transport.
func NewClient() Client {
	return &ClientImpl{
		httpClient: &http.Client{
			Transport: http_transport.NewUserAgentInjector(
				http_transport.NewLogTransport(http.DefaultTransport, 0),
				utils.NewSimpleUserAgentProvider(http_transport.DefaultUserAgent)),
			Timeout: http_transport.DefaultTimeout,
		},
		endpoint: searchEndpoint,
	}
}

type searchRequest struct {
	Context searchContext `json:"context"`
	Query   string        `json:"query"`
	Params  string        `json:"params"`
}

type searchContext struct {
	Client searchClient `json:"client"`
}

type searchClient struct {
	ClientName    string `json:"clientName"`
	ClientVersion string `json:"clientVersion"`
	HL            string `json:"hl"`
}

// SearchSongs runs a songs-filtered search and returns normalized hits.
func (c *ClientImpl) SearchSongs(ctx context.Context, query string) ([]*SearchResult, error) {
	payload, err := json.Marshal(searchRequest{
		Context: searchContext{
			Client: searchClient{
				ClientName:    clientName,
				ClientVersion: clientVersion,
				HL:            "en",
			},
		},
		Query:  query,
		Params: songsFilterParam,
	})
	if err != nil {
		return nil, apperrors.New(apperrors.KindYTMusic, fmt.Errorf("failed to encode search request: %w", err))
	}

	request, err := http.NewRequestWithContext(ctx, http.MethodPost, c.endpoint, bytes.NewReader(payload))
	if err != nil {
		return nil, apperrors.New(apperrors.KindYTMusic, fmt.Errorf("failed to build search request: %w", err))
	}

	request.Header.Set("Content-Type", "application/json")
	request.Header.Set("Origin", originHeader)
	request.Header.Set("Referer", originHeader+"/")

	response, err := c.httpClient.Do(request)
	if err != nil {
		return nil, apperrors.New(apperrors.KindYTMusic, fmt.Errorf("search request failed: %w", err))
	}

	defer response.Body.Close()

	if response.StatusCode != http.StatusOK {
		return nil, apperrors.New(apperrors.KindYTMusic,
			fmt.Errorf("%w: %s", ErrUnexpectedStatus, response.Status))
	}

	var body map[string]any
	if err = json.NewDecoder(response.Body).Decode(&body); err != nil {
		return nil, apperrors.New(apperrors.KindYTMusic, fmt.Errorf("failed to decode search response: %w", err))
	}

	results, err := parseSearchResponse(body)
	if err != nil {
		return nil, apperrors.New(apperrors.KindYTMusic, err)
	}

	return results, nil
}
