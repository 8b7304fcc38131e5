package http

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dkrasnov/spotiport/internal/utils"
)

// TestUserAgentInjector tests that a missing User-Agent header is injected
// and an existing one is preserved.
func TestUserAgentInjector(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name      string
		presetUA  string
		expectUA  string
		injectsUA string
	}{
		{
			name:      "injects when missing",
			presetUA:  "",
			injectsUA: "spotiport-test/1.0",
			expectUA:  "spotiport-test/1.0",
		},
		{
			name:      "keeps existing header",
			presetUA:  "custom/2.0",
			injectsUA: "spotiport-test/1.0",
			expectUA:  "custom/2.0",
		},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			var seenUA string

			server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				seenUA = r.Header.Get("User-Agent")
				w.WriteHeader(http.StatusOK)
			}))
			defer server.Close()

			client := &http.Client{
				Transport: NewUserAgentInjector(
					http.DefaultTransport,
					utils.NewSimpleUserAgentProvider(tt.injectsUA),
				),
			}

			req, err := http.NewRequest(http.MethodGet, server.URL, nil)
			require.NoError(t, err)

			if tt.presetUA != "" {
				req.Header.Set("User-Agent", tt.presetUA)
			}

			resp, err := client.Do(req)
			require.NoError(t, err)

			_ = resp.Body.Close()

			assert.Equal(t, tt.expectUA, seenUA)
		})
	}
}
