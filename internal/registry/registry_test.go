package registry

import (
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func openTestRegistry(t *testing.T) *Registry {
	t.Helper()

	reg, err := Open(filepath.Join(t.TempDir(), "database.db"))
	require.NoError(t, err)
	t.Cleanup(func() { _ = reg.Close() })

	return reg
}

func testMetadata(name, artist string) *TrackMetadata {
	return &TrackMetadata{
		Name:       name,
		Artist:     artist,
		Artists:    []string{artist},
		Album:      "Test Album",
		DurationMS: 200_000,
	}
}

// seedTrack inserts a canonical track and links it to the playlist.
func seedTrack(t *testing.T, reg *Registry, playlistID, externalID, name, artist string, position int) int64 {
	t.Helper()

	rowID, err := reg.UpsertCanonicalTrack(externalID, testMetadata(name, artist))
	require.NoError(t, err)
	require.NoError(t, reg.LinkTrackToPlaylist(playlistID, rowID, position, nil))

	return rowID
}

// TestOpenSchemaVersion tests schema pinning and the mismatch guard.
func TestOpenSchemaVersion(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), "database.db")

	reg, err := Open(path)
	require.NoError(t, err)
	require.NoError(t, reg.Close())

	// Reopening with the same pinned version succeeds.
	reg, err = Open(path)
	require.NoError(t, err)

	_, err = reg.db.Exec(`UPDATE schema_version SET version = ?`, SchemaVersion+1)
	require.NoError(t, err)
	require.NoError(t, reg.Close())

	_, err = Open(path)
	assert.ErrorIs(t, err, ErrSchemaVersionMismatch)
}

// TestPlaylists tests playlist upsert, lookup, listing, and deletion.
func TestPlaylists(t *testing.T) {
	t.Parallel()

	reg := openTestRegistry(t)

	t.Run("upsert and get", func(t *testing.T) {
		require.NoError(t, reg.UpsertPlaylist("pl1", "https://example.com/pl1", "Road Trip"))

		playlist, err := reg.GetPlaylist("pl1")
		require.NoError(t, err)
		assert.Equal(t, "Road Trip", playlist.Name)
		assert.Equal(t, "https://example.com/pl1", playlist.ExternalURL)
		assert.False(t, playlist.LastSynced.IsZero())

		// A second upsert refreshes the name without duplicating the row.
		require.NoError(t, reg.UpsertPlaylist("pl1", "https://example.com/pl1", "Road Trip 2024"))

		playlist, err = reg.GetPlaylist("pl1")
		require.NoError(t, err)
		assert.Equal(t, "Road Trip 2024", playlist.Name)
	})

	t.Run("liked pseudo playlist", func(t *testing.T) {
		require.NoError(t, reg.EnsureLikedPlaylist())

		playlist, err := reg.GetPlaylist(LikedPlaylistID)
		require.NoError(t, err)
		assert.Equal(t, "Liked Songs", playlist.Name)
		assert.Empty(t, playlist.ExternalURL)
	})

	t.Run("list syncable excludes liked by default", func(t *testing.T) {
		playlists, err := reg.ListSyncablePlaylists(false)
		require.NoError(t, err)
		require.Len(t, playlists, 1)
		assert.Equal(t, "pl1", playlists[0].ExternalID)

		playlists, err = reg.ListSyncablePlaylists(true)
		require.NoError(t, err)
		assert.Len(t, playlists, 2)
	})

	t.Run("unknown playlist", func(t *testing.T) {
		_, err := reg.GetPlaylist("missing")
		assert.ErrorIs(t, err, ErrPlaylistNotFound)
	})
}

// TestUpsertCanonicalTrackPreservesState tests that re-ingesting metadata
// never resets match, acquisition, or lyrics state.
func TestUpsertCanonicalTrackPreservesState(t *testing.T) {
	t.Parallel()

	reg := openTestRegistry(t)

	_, err := reg.UpsertCanonicalTrack("tr1", testMetadata("Bohemian Rhapsody", "Queen"))
	require.NoError(t, err)

	require.NoError(t, reg.SetYouTubeURL("tr1", "https://music.youtube.com/watch?v=abc", 92.5))
	require.NoError(t, reg.MarkAcquired("tr1", "/library/tracks/Bohemian Rhapsody-Queen.m4a"))
	require.NoError(t, reg.SetLyrics("tr1", "[00:01.00] Is this the real life", true, "lrclib"))

	// Re-ingestion with refreshed metadata.
	updated := testMetadata("Bohemian Rhapsody", "Queen")
	updated.Popularity = 95
	_, err = reg.UpsertCanonicalTrack("tr1", updated)
	require.NoError(t, err)

	track, err := reg.GetTrack("tr1")
	require.NoError(t, err)
	assert.Equal(t, 95, track.Metadata.Popularity)
	assert.Equal(t, "https://music.youtube.com/watch?v=abc", track.YouTubeURL)
	require.NotNil(t, track.MatchScore)
	assert.InDelta(t, 92.5, *track.MatchScore, 0.001)
	assert.True(t, track.Acquired)
	assert.Equal(t, "[00:01.00] Is this the real life", track.Lyrics)
	assert.True(t, track.LyricsSynced)
	assert.Equal(t, "lrclib", track.LyricsSource)
}

// TestTrackStateRoundTrip tests nullable columns surviving a scan.
func TestTrackStateRoundTrip(t *testing.T) {
	t.Parallel()

	reg := openTestRegistry(t)

	_, err := reg.UpsertCanonicalTrack("tr1", testMetadata("Song", "Artist"))
	require.NoError(t, err)

	track, err := reg.GetTrack("tr1")
	require.NoError(t, err)
	assert.Empty(t, track.YouTubeURL)
	assert.Nil(t, track.MatchScore)
	assert.Nil(t, track.MatchedAt)
	assert.Nil(t, track.AcquiredAt)
	assert.False(t, track.Acquired)
	assert.False(t, track.MatchFailed())
	assert.False(t, track.Resolved())

	require.NoError(t, reg.SetYouTubeURL("tr1", "https://music.youtube.com/watch?v=xyz", 77))

	track, err = reg.GetTrack("tr1")
	require.NoError(t, err)
	assert.True(t, track.Resolved())
	require.NotNil(t, track.MatchedAt)
	assert.WithinDuration(t, time.Now().UTC(), *track.MatchedAt, time.Minute)
}

// TestEligibilityQueries tests phase input selection and ordering.
func TestEligibilityQueries(t *testing.T) {
	t.Parallel()

	reg := openTestRegistry(t)
	require.NoError(t, reg.UpsertPlaylist("pl1", "https://example.com/pl1", "Mix"))

	seedTrack(t, reg, "pl1", "pending", "Pending", "A", 1)
	seedTrack(t, reg, "pl1", "matched", "Matched", "B", 2)
	seedTrack(t, reg, "pl1", "failed", "Failed", "C", 3)
	seedTrack(t, reg, "pl1", "acquired", "Acquired", "D", 4)
	seedTrack(t, reg, "pl1", "done", "Done", "E", 5)

	require.NoError(t, reg.SetYouTubeURL("matched", "https://music.youtube.com/watch?v=m", 80))
	require.NoError(t, reg.MarkMatchFailed("failed"))

	require.NoError(t, reg.SetYouTubeURL("acquired", "https://music.youtube.com/watch?v=a", 90))
	require.NoError(t, reg.MarkAcquired("acquired", "/library/tracks/Acquired-D.m4a"))

	require.NoError(t, reg.SetYouTubeURL("done", "https://music.youtube.com/watch?v=d", 95))
	require.NoError(t, reg.MarkAcquired("done", "/library/tracks/Done-E.m4a"))
	require.NoError(t, reg.SetLyrics("done", "la la la", false, "lyrics.ovh"))
	require.NoError(t, reg.MarkMetadataEmbedded("done", ""))
	require.NoError(t, reg.MarkLyricsEmbedded("done"))

	t.Run("needing match", func(t *testing.T) {
		tracks, err := reg.TracksNeedingMatch()
		require.NoError(t, err)
		require.Len(t, tracks, 1)
		assert.Equal(t, "pending", tracks[0].ExternalID)
	})

	t.Run("needing acquisition excludes sentinel", func(t *testing.T) {
		tracks, err := reg.TracksNeedingAcquisition()
		require.NoError(t, err)
		require.Len(t, tracks, 1)
		assert.Equal(t, "matched", tracks[0].ExternalID)
	})

	t.Run("needing lyrics", func(t *testing.T) {
		tracks, err := reg.TracksNeedingLyrics()
		require.NoError(t, err)
		require.Len(t, tracks, 1)
		assert.Equal(t, "acquired", tracks[0].ExternalID)
	})

	t.Run("needing embedding", func(t *testing.T) {
		tracks, err := reg.TracksNeedingEmbedding()
		require.NoError(t, err)
		require.Len(t, tracks, 1)
		assert.Equal(t, "acquired", tracks[0].ExternalID)
	})

	t.Run("insertion order preserved", func(t *testing.T) {
		reset, err := reg.ResetFailedMatches("")
		require.NoError(t, err)
		assert.EqualValues(t, 1, reset)

		tracks, err := reg.TracksNeedingMatch()
		require.NoError(t, err)
		require.Len(t, tracks, 2)
		assert.Equal(t, "pending", tracks[0].ExternalID)
		assert.Equal(t, "failed", tracks[1].ExternalID)
	})
}

// TestEmbeddingStaleness tests that lyrics arriving after a tag pass put the
// track back into the embedding queue.
func TestEmbeddingStaleness(t *testing.T) {
	t.Parallel()

	reg := openTestRegistry(t)

	_, err := reg.UpsertCanonicalTrack("tr1", testMetadata("Song", "Artist"))
	require.NoError(t, err)
	require.NoError(t, reg.SetYouTubeURL("tr1", "https://music.youtube.com/watch?v=x", 85))
	require.NoError(t, reg.MarkAcquired("tr1", "/library/tracks/Song-Artist.m4a"))
	require.NoError(t, reg.MarkMetadataEmbedded("tr1", ""))

	// Metadata embedded, no lyrics yet: nothing to do.
	tracks, err := reg.TracksNeedingEmbedding()
	require.NoError(t, err)
	assert.Empty(t, tracks)

	require.NoError(t, reg.SetLyrics("tr1", "words", false, "chartlyrics"))

	tracks, err = reg.TracksNeedingEmbedding()
	require.NoError(t, err)
	require.Len(t, tracks, 1)
	assert.Equal(t, "tr1", tracks[0].ExternalID)

	require.NoError(t, reg.MarkLyricsEmbedded("tr1"))

	tracks, err = reg.TracksNeedingEmbedding()
	require.NoError(t, err)
	assert.Empty(t, tracks)

	// Replacement resets both flags so tags are reapplied.
	require.NoError(t, reg.ResetEmbeddingFlags("tr1"))

	tracks, err = reg.TracksNeedingEmbedding()
	require.NoError(t, err)
	require.Len(t, tracks, 1)
}

// TestLyricsStickiness tests that a not-found outcome never erases stored text.
func TestLyricsStickiness(t *testing.T) {
	t.Parallel()

	reg := openTestRegistry(t)

	_, err := reg.UpsertCanonicalTrack("tr1", testMetadata("Song", "Artist"))
	require.NoError(t, err)

	require.NoError(t, reg.SetLyrics("tr1", "stored lyrics", false, "lrclib"))
	require.NoError(t, reg.MarkLyricsNotFound("tr1"))

	track, err := reg.GetTrack("tr1")
	require.NoError(t, err)
	assert.True(t, track.LyricsAttempted)
	assert.Equal(t, "stored lyrics", track.Lyrics)
}

// TestPlaylistLinksAndSync tests link dedup, position updates, and removal sync.
func TestPlaylistLinksAndSync(t *testing.T) {
	t.Parallel()

	reg := openTestRegistry(t)
	require.NoError(t, reg.UpsertPlaylist("pl1", "https://example.com/pl1", "Mix"))
	require.NoError(t, reg.UpsertPlaylist("pl2", "https://example.com/pl2", "Workout"))

	trackID := seedTrack(t, reg, "pl1", "shared", "Shared", "A", 1)
	seedTrack(t, reg, "pl1", "only1", "Only One", "B", 2)

	// The same canonical row links into a second playlist.
	require.NoError(t, reg.LinkTrackToPlaylist("pl2", trackID, 1, nil))

	t.Run("dedup across playlists", func(t *testing.T) {
		stats, err := reg.GlobalStatistics()
		require.NoError(t, err)
		assert.EqualValues(t, 2, stats.UniqueTracks)
		assert.EqualValues(t, 3, stats.TotalLinks)
		assert.InDelta(t, 1.5, stats.DedupRatio, 0.001)
	})

	t.Run("relink updates position only", func(t *testing.T) {
		addedAt := time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)
		require.NoError(t, reg.LinkTrackToPlaylist("pl1", trackID, 5, &addedAt))
		require.NoError(t, reg.LinkTrackToPlaylist("pl1", trackID, 3, nil))

		snapshot, err := reg.GetPlaylistTracksSnapshot("pl1")
		require.NoError(t, err)
		assert.Equal(t, 3, snapshot["shared"])

		entries, err := reg.GetPlaylistEntries("pl1")
		require.NoError(t, err)
		require.Len(t, entries, 2)

		// added_at survives a relink without a timestamp.
		for _, entry := range entries {
			if entry.Track.ExternalID == "shared" {
				require.NotNil(t, entry.AddedAt)
				assert.Equal(t, addedAt, entry.AddedAt.UTC())
			}
		}
	})

	t.Run("sync removes stale links and keeps canonical rows", func(t *testing.T) {
		deleted, err := reg.SyncPlaylistTracks("pl1", map[string]struct{}{"shared": {}})
		require.NoError(t, err)
		assert.EqualValues(t, 1, deleted)

		ids, err := reg.GetPlaylistTrackIDs("pl1")
		require.NoError(t, err)
		assert.Equal(t, map[string]struct{}{"shared": {}}, ids)

		// The unlinked canonical track still exists.
		_, err = reg.GetTrack("only1")
		require.NoError(t, err)
	})

	t.Run("placements", func(t *testing.T) {
		placements, err := reg.TrackPlacements("shared")
		require.NoError(t, err)
		require.Len(t, placements, 2)
		assert.Equal(t, "Mix", placements[0].PlaylistName)
		assert.Equal(t, "Workout", placements[1].PlaylistName)
	})

	t.Run("max position", func(t *testing.T) {
		maxPos, err := reg.MaxPlaylistPosition("pl1")
		require.NoError(t, err)
		assert.Equal(t, 3, maxPos)

		maxPos, err = reg.MaxPlaylistPosition("pl2")
		require.NoError(t, err)
		assert.Equal(t, 1, maxPos)
	})

	t.Run("delete playlist cascades links", func(t *testing.T) {
		require.NoError(t, reg.DeletePlaylist("pl2"))

		placements, err := reg.TrackPlacements("shared")
		require.NoError(t, err)
		require.Len(t, placements, 1)
		assert.Equal(t, "Mix", placements[0].PlaylistName)
	})
}

// TestResetFailedMatchesScoped tests the playlist-scoped retry reset.
func TestResetFailedMatchesScoped(t *testing.T) {
	t.Parallel()

	reg := openTestRegistry(t)
	require.NoError(t, reg.UpsertPlaylist("pl1", "https://example.com/pl1", "Mix"))
	require.NoError(t, reg.UpsertPlaylist("pl2", "https://example.com/pl2", "Workout"))

	seedTrack(t, reg, "pl1", "in1", "In One", "A", 1)
	seedTrack(t, reg, "pl2", "in2", "In Two", "B", 1)

	require.NoError(t, reg.MarkMatchFailed("in1"))
	require.NoError(t, reg.MarkMatchFailed("in2"))

	reset, err := reg.ResetFailedMatches("pl1")
	require.NoError(t, err)
	assert.EqualValues(t, 1, reset)

	track, err := reg.GetTrack("in1")
	require.NoError(t, err)
	assert.Empty(t, track.YouTubeURL)
	assert.Nil(t, track.MatchScore)

	track, err = reg.GetTrack("in2")
	require.NoError(t, err)
	assert.True(t, track.MatchFailed())
}

// TestPlaylistStatistics tests per-playlist counters.
func TestPlaylistStatistics(t *testing.T) {
	t.Parallel()

	reg := openTestRegistry(t)
	require.NoError(t, reg.UpsertPlaylist("pl1", "https://example.com/pl1", "Mix"))

	seedTrack(t, reg, "pl1", "pending", "Pending", "A", 1)
	seedTrack(t, reg, "pl1", "matched", "Matched", "B", 2)
	seedTrack(t, reg, "pl1", "failed", "Failed", "C", 3)
	seedTrack(t, reg, "pl1", "acquired", "Acquired", "D", 4)

	require.NoError(t, reg.SetYouTubeURL("matched", "https://music.youtube.com/watch?v=m", 80))
	require.NoError(t, reg.MarkMatchFailed("failed"))
	require.NoError(t, reg.SetYouTubeURL("acquired", "https://music.youtube.com/watch?v=a", 90))
	require.NoError(t, reg.MarkAcquired("acquired", "/library/tracks/Acquired-D.m4a"))

	stats, err := reg.PlaylistStatistics("pl1")
	require.NoError(t, err)
	assert.EqualValues(t, 4, stats.Total)
	assert.EqualValues(t, 2, stats.Matched)
	assert.EqualValues(t, 1, stats.Acquired)
	assert.EqualValues(t, 1, stats.FailedMatch)
	assert.EqualValues(t, 1, stats.PendingMatch)
	assert.EqualValues(t, 1, stats.PendingAcquisition)
}

// TestGetTrackByFilePath tests the replace-flow lookup.
func TestGetTrackByFilePath(t *testing.T) {
	t.Parallel()

	reg := openTestRegistry(t)

	_, err := reg.UpsertCanonicalTrack("tr1", testMetadata("Song", "Artist"))
	require.NoError(t, err)
	require.NoError(t, reg.MarkAcquired("tr1", "/library/tracks/Song-Artist.m4a"))

	track, err := reg.GetTrackByFilePath("/library/tracks/Song-Artist.m4a")
	require.NoError(t, err)
	assert.Equal(t, "tr1", track.ExternalID)

	_, err = reg.GetTrackByFilePath("/library/tracks/missing.m4a")
	assert.ErrorIs(t, err, ErrTrackNotFound)
}
