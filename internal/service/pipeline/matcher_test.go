package pipeline

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dkrasnov/spotiport/internal/client/ytmusic"
	"github.com/dkrasnov/spotiport/internal/registry"
)

// stubSearchClient serves canned results keyed by query.
type stubSearchClient struct {
	responses map[string][]*ytmusic.SearchResult
	err       error
	queries   []string
}

func (c *stubSearchClient) SearchSongs(_ context.Context, query string) ([]*ytmusic.SearchResult, error) {
	c.queries = append(c.queries, query)

	if c.err != nil {
		return nil, c.err
	}

	return c.responses[query], nil
}

func matchTestMetadata() *registry.TrackMetadata {
	return &registry.TrackMetadata{
		Name:       "Bohemian Rhapsody",
		Artist:     "Queen",
		Artists:    []string{"Queen"},
		DurationMS: 354000,
	}
}

func TestMatchSelectsBestAndCollectsAlternatives(t *testing.T) {
	t.Parallel()

	official := &ytmusic.SearchResult{
		VideoID:         "official1234",
		URL:             "https://music.youtube.com/watch?v=official1234",
		Title:           "Bohemian Rhapsody",
		Artists:         []string{"Queen"},
		DurationSeconds: 354,
		IsSong:          true,
		Views:           1200000,
	}
	remaster := &ytmusic.SearchResult{
		VideoID:         "remaster5678",
		URL:             "https://music.youtube.com/watch?v=remaster5678",
		Title:           "Bohemian Rhapsody - Remastered 2011",
		Artists:         []string{"Queen"},
		DurationSeconds: 354,
		IsSong:          true,
		Views:           1000,
	}

	client := &stubSearchClient{
		responses: map[string][]*ytmusic.SearchResult{
			"Queen - Bohemian Rhapsody": {remaster, official},
		},
	}

	result, err := NewMatcher(client).Match(context.Background(), matchTestMetadata())
	require.NoError(t, err)
	require.NotNil(t, result)

	assert.Equal(t, official.URL, result.URL)
	assert.Equal(t, "query", result.Reason)
	assert.GreaterOrEqual(t, result.Score, MinAcceptScore)
	assert.True(t, result.Ambiguous())
	require.Len(t, result.Alternatives, 1)
	assert.Equal(t, remaster.URL, result.Alternatives[0].URL)
	assert.InDelta(t, result.Score, result.Alternatives[0].Score, CloseMatchThreshold)
}

func TestMatchDurationFilter(t *testing.T) {
	t.Parallel()

	tooLong := &ytmusic.SearchResult{
		VideoID:         "extended1234",
		URL:             "https://music.youtube.com/watch?v=extended1234",
		Title:           "Bohemian Rhapsody",
		Artists:         []string{"Queen"},
		DurationSeconds: 354 + DurationToleranceSeconds + 1,
		IsSong:          true,
		Views:           5000000,
	}

	client := &stubSearchClient{
		responses: map[string][]*ytmusic.SearchResult{
			"Queen - Bohemian Rhapsody": {tooLong},
		},
	}

	result, err := NewMatcher(client).Match(context.Background(), matchTestMetadata())
	require.NoError(t, err)
	assert.Nil(t, result)
}

func TestMatchRejectsBelowFloor(t *testing.T) {
	t.Parallel()

	unrelated := &ytmusic.SearchResult{
		VideoID:         "unrelated123",
		URL:             "https://music.youtube.com/watch?v=unrelated123",
		Title:           "Zxqv Wpl",
		Artists:         []string{"Kktt"},
		DurationSeconds: 354,
	}

	client := &stubSearchClient{
		responses: map[string][]*ytmusic.SearchResult{
			"Queen - Bohemian Rhapsody": {unrelated},
		},
	}

	result, err := NewMatcher(client).Match(context.Background(), matchTestMetadata())
	require.NoError(t, err)
	assert.Nil(t, result)
}

func TestMatchPrefersISRCSearch(t *testing.T) {
	t.Parallel()

	hit := &ytmusic.SearchResult{
		VideoID:         "isrchit12345",
		URL:             "https://music.youtube.com/watch?v=isrchit12345",
		Title:           "Bohemian Rhapsody",
		Artists:         []string{"Queen"},
		DurationSeconds: 354,
		IsSong:          true,
	}

	meta := matchTestMetadata()
	meta.ISRC = "GBUM71029604"

	t.Run("isrc results win", func(t *testing.T) {
		t.Parallel()

		client := &stubSearchClient{
			responses: map[string][]*ytmusic.SearchResult{
				"GBUM71029604": {hit},
			},
		}

		result, err := NewMatcher(client).Match(context.Background(), meta)
		require.NoError(t, err)
		require.NotNil(t, result)
		assert.Equal(t, "isrc", result.Reason)
		assert.Equal(t, []string{"GBUM71029604"}, client.queries)
	})

	t.Run("empty isrc results fall back to text query", func(t *testing.T) {
		t.Parallel()

		client := &stubSearchClient{
			responses: map[string][]*ytmusic.SearchResult{
				"Queen - Bohemian Rhapsody": {hit},
			},
		}

		result, err := NewMatcher(client).Match(context.Background(), meta)
		require.NoError(t, err)
		require.NotNil(t, result)
		assert.Equal(t, "query", result.Reason)
		assert.Equal(t, []string{"GBUM71029604", "Queen - Bohemian Rhapsody"}, client.queries)
	})
}

func TestMatchPropagatesSearchErrors(t *testing.T) {
	t.Parallel()

	searchErr := errors.New("search exploded")
	client := &stubSearchClient{err: searchErr}

	result, err := NewMatcher(client).Match(context.Background(), matchTestMetadata())
	require.ErrorIs(t, err, searchErr)
	assert.Nil(t, result)
}

func TestNormalizeTitle(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name     string
		input    string
		expected string
	}{
		{
			name:     "strips parenthesized qualifier",
			input:    "Africa (Remastered 2011)",
			expected: "africa",
		},
		{
			name:     "strips bracketed qualifier",
			input:    "Africa [Live]",
			expected: "africa",
		},
		{
			name:     "collapses whitespace and lowercases",
			input:    "  The   Final  COUNTDOWN ",
			expected: "the final countdown",
		},
		{
			name:     "plain title unchanged",
			input:    "hotel california",
			expected: "hotel california",
		},
	}

	for _, tc := range tests {
		tc := tc
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()

			assert.Equal(t, tc.expected, normalizeTitle(tc.input))
		})
	}
}

func TestParsePhases(t *testing.T) {
	t.Parallel()

	t.Run("empty selects all", func(t *testing.T) {
		t.Parallel()

		set, err := ParsePhases("")
		require.NoError(t, err)
		assert.Len(t, set, len(orderedPhases))
	})

	t.Run("subset", func(t *testing.T) {
		t.Parallel()

		set, err := ParsePhases("match, Acquire")
		require.NoError(t, err)
		assert.True(t, set.Contains(PhaseMatch))
		assert.True(t, set.Contains(PhaseAcquire))
		assert.False(t, set.Contains(PhaseIngest))
		assert.False(t, set.Contains(PhaseEmbed))
	})

	t.Run("unknown phase", func(t *testing.T) {
		t.Parallel()

		_, err := ParsePhases("match,transmogrify")

		var unknownErr *UnknownPhaseError

		require.ErrorAs(t, err, &unknownErr)
		assert.Equal(t, "transmogrify", unknownErr.Value)
	})
}
