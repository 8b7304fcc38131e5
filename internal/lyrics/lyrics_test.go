package lyrics

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// TestLRCLIBProvider tests synced-over-plain preference and the 404 path.
func TestLRCLIBProvider(t *testing.T) {
	t.Parallel()

	t.Run("synced lyrics preferred", func(t *testing.T) {
		t.Parallel()

		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			assert.Equal(t, "Queen", r.URL.Query().Get("artist_name"))
			assert.Equal(t, "Bohemian Rhapsody", r.URL.Query().Get("track_name"))
			assert.Equal(t, "354", r.URL.Query().Get("duration"))

			_, _ = w.Write([]byte(`{"syncedLyrics": "[00:01.00] Is this the real life", "plainLyrics": "Is this the real life"}`))
		}))
		defer server.Close()

		provider := &LRCLIBProvider{httpClient: server.Client(), baseURL: server.URL}

		result, err := provider.Fetch(context.Background(), "Queen", "Bohemian Rhapsody", 354)
		require.NoError(t, err)
		assert.True(t, result.Synced)
		assert.Equal(t, "lrclib", result.Source)
		assert.Equal(t, "[00:01.00] Is this the real life", result.Text)
	})

	t.Run("plain fallback from same record", func(t *testing.T) {
		t.Parallel()

		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
			_, _ = w.Write([]byte(`{"syncedLyrics": "", "plainLyrics": "Is this the real life"}`))
		}))
		defer server.Close()

		provider := &LRCLIBProvider{httpClient: server.Client(), baseURL: server.URL}

		result, err := provider.Fetch(context.Background(), "Queen", "Bohemian Rhapsody", 0)
		require.NoError(t, err)
		assert.False(t, result.Synced)
	})

	t.Run("not found", func(t *testing.T) {
		t.Parallel()

		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
			w.WriteHeader(http.StatusNotFound)
		}))
		defer server.Close()

		provider := &LRCLIBProvider{httpClient: server.Client(), baseURL: server.URL}

		_, err := provider.Fetch(context.Background(), "Nobody", "Nothing", 100)
		assert.ErrorIs(t, err, ErrNotFound)
	})
}

// TestLyricsOVHProvider tests the JSON lookup path.
func TestLyricsOVHProvider(t *testing.T) {
	t.Parallel()

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/Queen/Bohemian%20Rhapsody", r.URL.EscapedPath())
		_, _ = w.Write([]byte(`{"lyrics": "Is this the real life"}`))
	}))
	defer server.Close()

	provider := &LyricsOVHProvider{httpClient: server.Client(), baseURL: server.URL}

	result, err := provider.Fetch(context.Background(), "Queen", "Bohemian Rhapsody", 0)
	require.NoError(t, err)
	assert.False(t, result.Synced)
	assert.Equal(t, "lyrics.ovh", result.Source)
	assert.Equal(t, "Is this the real life", result.Text)
}

// TestChartLyricsProvider tests the XML lookup path.
func TestChartLyricsProvider(t *testing.T) {
	t.Parallel()

	t.Run("found", func(t *testing.T) {
		t.Parallel()

		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			assert.Equal(t, "Queen", r.URL.Query().Get("artist"))
			assert.Equal(t, "Bohemian Rhapsody", r.URL.Query().Get("song"))

			_, _ = w.Write([]byte(`<?xml version="1.0" encoding="utf-8"?>
<GetLyricResult xmlns="http://api.chartlyrics.com/"><Lyric>Is this the real life</Lyric></GetLyricResult>`))
		}))
		defer server.Close()

		provider := &ChartLyricsProvider{httpClient: server.Client(), baseURL: server.URL}

		result, err := provider.Fetch(context.Background(), "Queen", "Bohemian Rhapsody", 0)
		require.NoError(t, err)
		assert.Equal(t, "chartlyrics", result.Source)
		assert.Equal(t, "Is this the real life", result.Text)
	})

	t.Run("empty lyric element", func(t *testing.T) {
		t.Parallel()

		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
			_, _ = w.Write([]byte(`<?xml version="1.0" encoding="utf-8"?>
<GetLyricResult xmlns="http://api.chartlyrics.com/"><Lyric></Lyric></GetLyricResult>`))
		}))
		defer server.Close()

		provider := &ChartLyricsProvider{httpClient: server.Client(), baseURL: server.URL}

		_, err := provider.Fetch(context.Background(), "Nobody", "Nothing", 0)
		assert.ErrorIs(t, err, ErrNotFound)
	})
}

type stubProvider struct {
	name   string
	result *Result
	err    error
	calls  int
}

func (s *stubProvider) Name() string { return s.name }

func (s *stubProvider) Fetch(_ context.Context, _, _ string, _ int) (*Result, error) {
	s.calls++

	return s.result, s.err
}

// TestResolverChain tests chain ordering and failure isolation.
func TestResolverChain(t *testing.T) {
	t.Parallel()

	t.Run("first hit wins", func(t *testing.T) {
		t.Parallel()

		first := &stubProvider{name: "first", result: &Result{Text: "synced", Synced: true, Source: "first"}}
		second := &stubProvider{name: "second", result: &Result{Text: "plain", Source: "second"}}

		result, err := NewResolver(first, second).Resolve(context.Background(), "a", "t", 100)
		require.NoError(t, err)
		assert.Equal(t, "first", result.Source)
		assert.Zero(t, second.calls)
	})

	t.Run("provider error passes control on", func(t *testing.T) {
		t.Parallel()

		broken := &stubProvider{name: "broken", err: errors.New("connection reset")}
		missing := &stubProvider{name: "missing", err: ErrNotFound}
		working := &stubProvider{name: "working", result: &Result{Text: "plain", Source: "working"}}

		result, err := NewResolver(broken, missing, working).Resolve(context.Background(), "a", "t", 100)
		require.NoError(t, err)
		assert.Equal(t, "working", result.Source)
	})

	t.Run("all providers empty", func(t *testing.T) {
		t.Parallel()

		result, err := NewResolver(
			&stubProvider{name: "one", err: ErrNotFound},
			&stubProvider{name: "two", err: ErrNotFound},
		).Resolve(context.Background(), "a", "t", 100)
		require.NoError(t, err)
		assert.Nil(t, result)
	})

	t.Run("cancelled context stops the chain", func(t *testing.T) {
		t.Parallel()

		ctx, cancel := context.WithCancel(context.Background())
		cancel()

		provider := &stubProvider{name: "never", result: &Result{Text: "x"}}

		_, err := NewResolver(provider).Resolve(ctx, "a", "t", 100)
		assert.ErrorIs(t, err, context.Canceled)
		assert.Zero(t, provider.calls)
	})
}
