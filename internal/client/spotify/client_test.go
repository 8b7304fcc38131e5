package spotify

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	spotifyapi "github.com/zmb3/spotify/v2"
)

// TestResolveID tests reference parsing across URL, URI, and bare-id forms.
func TestResolveID(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name         string
		ref          string
		resourceType string
		expected     string
		expectError  bool
	}{
		{
			name:         "open URL",
			ref:          "https://open.spotify.com/playlist/37i9dQZF1DXcBWIGoYBM5M",
			resourceType: "playlist",
			expected:     "37i9dQZF1DXcBWIGoYBM5M",
		},
		{
			name:         "open URL with query",
			ref:          "https://open.spotify.com/playlist/37i9dQZF1DXcBWIGoYBM5M?si=abc123",
			resourceType: "playlist",
			expected:     "37i9dQZF1DXcBWIGoYBM5M",
		},
		{
			name:         "localized URL",
			ref:          "https://open.spotify.com/intl-de/track/4u7EnebtmKWzUH433cf5Qv",
			resourceType: "track",
			expected:     "4u7EnebtmKWzUH433cf5Qv",
		},
		{
			name:         "spotify URI",
			ref:          "spotify:track:4u7EnebtmKWzUH433cf5Qv",
			resourceType: "track",
			expected:     "4u7EnebtmKWzUH433cf5Qv",
		},
		{
			name:         "bare id",
			ref:          "4u7EnebtmKWzUH433cf5Qv",
			resourceType: "track",
			expected:     "4u7EnebtmKWzUH433cf5Qv",
		},
		{
			name:         "wrong resource type in URI",
			ref:          "spotify:album:4u7EnebtmKWzUH433cf5Qv",
			resourceType: "track",
			expectError:  true,
		},
		{
			name:         "URL without resource segment",
			ref:          "https://open.spotify.com/user/someone",
			resourceType: "playlist",
			expectError:  true,
		},
		{
			name:         "empty reference",
			ref:          "  ",
			resourceType: "playlist",
			expectError:  true,
		},
	}

	for _, tc := range tests {
		tc := tc
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()

			id, err := resolveID(tc.ref, tc.resourceType)
			if tc.expectError {
				assert.ErrorIs(t, err, ErrInvalidReference)

				return
			}

			require.NoError(t, err)
			assert.Equal(t, tc.expected, id)
		})
	}
}

// TestConvertFullTrack tests the track flattening used by ingestion.
func TestConvertFullTrack(t *testing.T) {
	t.Parallel()

	full := &spotifyapi.FullTrack{
		SimpleTrack: spotifyapi.SimpleTrack{
			ID:   "4u7EnebtmKWzUH433cf5Qv",
			Name: "Bohemian Rhapsody",
			Artists: []spotifyapi.SimpleArtist{
				{ID: "1dfeR4HaWDbWqFHLkxsg1d", Name: "Queen"},
				{ID: "someoneelse", Name: "Someone Else"},
			},
			Duration:    354_320,
			DiscNumber:  1,
			TrackNumber: 11,
			Explicit:    false,
			PreviewURL:  "https://p.scdn.co/mp3-preview/abc",
			ExternalURLs: map[string]string{
				"spotify": "https://open.spotify.com/track/4u7EnebtmKWzUH433cf5Qv",
			},
		},
		Album: spotifyapi.SimpleAlbum{
			ID:          "1GbtB4zTqAsyfZEsm1RZfx",
			Name:        "A Night At The Opera",
			ReleaseDate: "1975-11-21",
			Artists:     []spotifyapi.SimpleArtist{{Name: "Queen"}},
			Images: []spotifyapi.Image{
				{URL: "https://i.scdn.co/image/large"},
				{URL: "https://i.scdn.co/image/small"},
			},
		},
		Popularity:  87,
		ExternalIDs: map[string]string{"isrc": "GBUM71029604"},
	}

	track := convertFullTrack(full)

	assert.Equal(t, "4u7EnebtmKWzUH433cf5Qv", track.ID)
	assert.Equal(t, "Bohemian Rhapsody", track.Name)
	assert.Equal(t, []string{"Queen", "Someone Else"}, track.Artists)
	assert.Equal(t, []string{"1dfeR4HaWDbWqFHLkxsg1d", "someoneelse"}, track.ArtistIDs)
	assert.Equal(t, "A Night At The Opera", track.Album)
	assert.Equal(t, "Queen", track.AlbumArtist)
	assert.EqualValues(t, 354_320, track.DurationMS)
	assert.Equal(t, "GBUM71029604", track.ISRC)
	assert.Equal(t, "https://i.scdn.co/image/large", track.CoverURL)
	assert.Equal(t, 11, track.TrackNumber)
	assert.Equal(t, 87, track.Popularity)
	assert.NotEmpty(t, track.RawJSON())
}

// TestConvertFullAlbum tests label derivation from the copyright block.
func TestConvertFullAlbum(t *testing.T) {
	t.Parallel()

	full := &spotifyapi.FullAlbum{
		SimpleAlbum: spotifyapi.SimpleAlbum{
			ID:          "1GbtB4zTqAsyfZEsm1RZfx",
			Name:        "A Night At The Opera",
			ReleaseDate: "1975-11-21",
		},
		Copyrights: []spotifyapi.Copyright{
			{Text: "(C) 1975 Queen Productions Ltd", Type: "C"},
			{Text: "(P) 1975 Queen Productions Ltd", Type: "P"},
		},
	}

	// The track page holds at most one page; the reported total is authoritative.
	full.Tracks.Tracks = make([]spotifyapi.SimpleTrack, 2)
	full.Tracks.Total = 120

	album := convertFullAlbum(full)

	assert.Equal(t, "(C) 1975 Queen Productions Ltd", album.Copyright)
	assert.Equal(t, "(P) 1975 Queen Productions Ltd", album.Label)
	assert.Equal(t, 120, album.TotalTracks)
}

// TestParseAddedAt tests timestamp parsing of playlist entries.
func TestParseAddedAt(t *testing.T) {
	t.Parallel()

	parsed := parseAddedAt("2024-05-01T12:30:00Z")
	require.NotNil(t, parsed)
	assert.Equal(t, time.Date(2024, 5, 1, 12, 30, 0, 0, time.UTC), *parsed)

	assert.Nil(t, parseAddedAt(""))
	assert.Nil(t, parseAddedAt("1970-01-01"))
}

// TestSingletonGuard tests that a second client construction is rejected.
func TestSingletonGuard(t *testing.T) {
	require.NoError(t, claimSingleton())
	assert.ErrorIs(t, claimSingleton(), ErrAlreadyInitialized)

	releaseSingleton()
	assert.NoError(t, claimSingleton())
	releaseSingleton()
}
