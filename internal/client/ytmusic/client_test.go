package ytmusic

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func runWithLink(text, browseID, videoID string) map[string]any {
	run := map[string]any{"text": text}

	if browseID != "" {
		run["navigationEndpoint"] = map[string]any{
			"browseEndpoint": map[string]any{"browseId": browseID},
		}
	}

	if videoID != "" {
		run["navigationEndpoint"] = map[string]any{
			"watchEndpoint": map[string]any{"videoId": videoID},
		}
	}

	return run
}

func flexColumn(runs ...map[string]any) map[string]any {
	converted := make([]any, 0, len(runs))
	for _, run := range runs {
		converted = append(converted, run)
	}

	return map[string]any{
		"musicResponsiveListItemFlexColumnRenderer": map[string]any{
			"text": map[string]any{"runs": converted},
		},
	}
}

func shelfItem(videoID, title string, explicit bool, videoType string, detailRuns ...map[string]any) map[string]any {
	renderer := map[string]any{
		"playlistItemData": map[string]any{"videoId": videoID},
		"flexColumns": []any{
			flexColumn(runWithLink(title, "", "")),
			flexColumn(detailRuns...),
		},
	}

	if explicit {
		renderer["badges"] = []any{
			map[string]any{
				"musicInlineBadgeRenderer": map[string]any{
					"icon": map[string]any{"iconType": "MUSIC_EXPLICIT_BADGE"},
				},
			},
		}
	}

	if videoType != "" {
		renderer["overlay"] = map[string]any{
			"musicItemThumbnailOverlayRenderer": map[string]any{
				"content": map[string]any{
					"musicPlayButtonRenderer": map[string]any{
						"playNavigationEndpoint": map[string]any{
							"watchEndpoint": map[string]any{
								"watchEndpointMusicSupportedConfigs": map[string]any{
									"watchEndpointMusicConfig": map[string]any{
										"musicVideoType": videoType,
									},
								},
							},
						},
					},
				},
			},
		}
	}

	return map[string]any{"musicResponsiveListItemRenderer": renderer}
}

func searchResponse(shelfTitle string, items ...map[string]any) map[string]any {
	converted := make([]any, 0, len(items))
	for _, item := range items {
		converted = append(converted, item)
	}

	return map[string]any{
		"contents": map[string]any{
			"tabbedSearchResultsRenderer": map[string]any{
				"tabs": []any{
					map[string]any{
						"tabRenderer": map[string]any{
							"content": map[string]any{
								"sectionListRenderer": map[string]any{
									"contents": []any{
										map[string]any{
											"musicShelfRenderer": map[string]any{
												"title":    map[string]any{"runs": []any{map[string]any{"text": shelfTitle}}},
												"contents": converted,
											},
										},
									},
								},
							},
						},
					},
				},
			},
		},
	}
}

// TestSearchSongs tests the full request plus renderer-tree parse path.
func TestSearchSongs(t *testing.T) {
	t.Parallel()

	bullet := runWithLink("•", "", "")
	response := searchResponse("Songs",
		shelfItem("dQw4w9WgXcQ", "Bohemian Rhapsody", true, "MUSIC_VIDEO_TYPE_ATV",
			runWithLink("Queen", "UC1234", ""),
			bullet,
			runWithLink("A Night At The Opera", "MPRE5678", ""),
			bullet,
			runWithLink("5:54", "", ""),
			bullet,
			runWithLink("1.2M plays", "", "")),
		shelfItem("abcdefghijk", "Bohemian Rhapsody (Live)", false, "MUSIC_VIDEO_TYPE_UGC",
			runWithLink("Some Uploader", "", ""),
			bullet,
			runWithLink("10:02", "", "")),
	)

	var requested searchRequest

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.NoError(t, json.NewDecoder(r.Body).Decode(&requested))
		require.NoError(t, json.NewEncoder(w).Encode(response))
	}))
	defer server.Close()

	client := &ClientImpl{httpClient: server.Client(), endpoint: server.URL}

	results, err := client.SearchSongs(context.Background(), "Queen - Bohemian Rhapsody")
	require.NoError(t, err)
	require.Len(t, results, 2)

	assert.Equal(t, clientName, requested.Context.Client.ClientName)
	assert.Equal(t, songsFilterParam, requested.Params)
	assert.Equal(t, "Queen - Bohemian Rhapsody", requested.Query)

	song := results[0]
	assert.Equal(t, "dQw4w9WgXcQ", song.VideoID)
	assert.Equal(t, watchURLPrefix+"dQw4w9WgXcQ", song.URL)
	assert.Equal(t, "Bohemian Rhapsody", song.Title)
	assert.Equal(t, "Queen", song.Author)
	assert.Equal(t, "A Night At The Opera", song.Album)
	assert.Equal(t, 354, song.DurationSeconds)
	assert.True(t, song.IsSong)
	assert.True(t, song.Explicit)
	assert.EqualValues(t, 1_200_000, song.Views)

	upload := results[1]
	assert.Equal(t, "Some Uploader", upload.Author)
	assert.Equal(t, 602, upload.DurationSeconds)
	assert.False(t, upload.IsSong)
	assert.False(t, upload.Explicit)
	assert.Zero(t, upload.Views)
}

// TestSearchSongsErrors tests status and shape failures.
func TestSearchSongsErrors(t *testing.T) {
	t.Parallel()

	t.Run("non-200 status", func(t *testing.T) {
		t.Parallel()

		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
			w.WriteHeader(http.StatusTooManyRequests)
		}))
		defer server.Close()

		client := &ClientImpl{httpClient: server.Client(), endpoint: server.URL}

		_, err := client.SearchSongs(context.Background(), "anything")
		assert.ErrorIs(t, err, ErrUnexpectedStatus)
	})

	t.Run("missing section list", func(t *testing.T) {
		t.Parallel()

		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
			require.NoError(t, json.NewEncoder(w).Encode(map[string]any{"contents": map[string]any{}}))
		}))
		defer server.Close()

		client := &ClientImpl{httpClient: server.Client(), endpoint: server.URL}

		_, err := client.SearchSongs(context.Background(), "anything")
		assert.ErrorIs(t, err, ErrMalformedResponse)
	})
}

// TestParseViews tests play-count normalization.
func TestParseViews(t *testing.T) {
	t.Parallel()

	tests := []struct {
		text     string
		expected int64
		ok       bool
	}{
		{"1.2M plays", 1_200_000, true},
		{"735K plays", 735_000, true},
		{"1B views", 1_000_000_000, true},
		{"1,234 plays", 1234, true},
		{"Queen", 0, false},
		{"5:54", 0, false},
	}

	for _, tc := range tests {
		tc := tc
		t.Run(tc.text, func(t *testing.T) {
			t.Parallel()

			views, ok := parseViews(tc.text)
			assert.Equal(t, tc.ok, ok)
			assert.Equal(t, tc.expected, views)
		})
	}
}
