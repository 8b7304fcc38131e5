package registry

// PlaylistStatistics returns pipeline counters for one playlist.
func (r *Registry) PlaylistStatistics(playlistExternalID string) (*PlaylistStats, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	var stats PlaylistStats

	err := r.db.QueryRow(`
		SELECT
			COUNT(*),
			COALESCE(SUM(ct.youtube_url IS NOT NULL AND ct.youtube_url != ?), 0),
			COALESCE(SUM(ct.acquired), 0),
			COALESCE(SUM(ct.youtube_url = ?), 0),
			COALESCE(SUM(ct.youtube_url IS NULL), 0),
			COALESCE(SUM(ct.youtube_url IS NOT NULL AND ct.youtube_url != ? AND ct.acquired = 0), 0)
		FROM playlist_tracks pt
		JOIN playlists p ON p.id = pt.playlist_id
		JOIN canonical_tracks ct ON ct.id = pt.track_id
		WHERE p.external_id = ?`,
		MatchFailedSentinel, MatchFailedSentinel, MatchFailedSentinel, playlistExternalID,
	).Scan(&stats.Total, &stats.Matched, &stats.Acquired,
		&stats.FailedMatch, &stats.PendingMatch, &stats.PendingAcquisition)
	if err != nil {
		return nil, wrapErr("playlist statistics", err)
	}

	return &stats, nil
}

// GlobalStatistics returns library-wide counters across every playlist.
func (r *Registry) GlobalStatistics() (*GlobalStats, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	var stats GlobalStats

	err := r.db.QueryRow(`
		SELECT
			(SELECT COUNT(*) FROM playlists),
			(SELECT COUNT(*) FROM canonical_tracks),
			(SELECT COUNT(*) FROM canonical_tracks WHERE youtube_url IS NOT NULL AND youtube_url != ?),
			(SELECT COUNT(*) FROM canonical_tracks WHERE acquired = 1),
			(SELECT COUNT(*) FROM canonical_tracks WHERE lyrics_text IS NOT NULL AND lyrics_text != ''),
			(SELECT COUNT(*) FROM playlist_tracks)`,
		MatchFailedSentinel,
	).Scan(&stats.Playlists, &stats.UniqueTracks, &stats.Matched,
		&stats.Acquired, &stats.WithLyrics, &stats.TotalLinks)
	if err != nil {
		return nil, wrapErr("global statistics", err)
	}

	if stats.UniqueTracks > 0 {
		stats.DedupRatio = float64(stats.TotalLinks) / float64(stats.UniqueTracks)
	}

	return &stats, nil
}
