package registry

import (
	"database/sql"
	"encoding/json"
	"fmt"
	"time"
)

// scanner abstracts *sql.Row and *sql.Rows for the shared track scan.
type scanner interface {
	Scan(dest ...any) error
}

// trackScanBuffer holds the nullable and JSON-encoded column temporaries
// of a single track scan.
type trackScanBuffer struct {
	artistsJSON string
	genresJSON  string
	youtubeURL  sql.NullString
	matchScore  sql.NullFloat64
	matchedAt   sql.NullTime
	acquiredAt  sql.NullTime
	lyricsText  sql.NullString
}

// dest returns scan destinations in trackColumns order.
func (b *trackScanBuffer) dest(t *Track) []any {
	return []any{
		&t.ID, &t.ExternalID, &t.Metadata.Name, &t.Metadata.Artist, &b.artistsJSON,
		&t.Metadata.Album, &t.Metadata.AlbumArtist, &t.Metadata.DurationMS,
		&t.Metadata.ISRC, &t.Metadata.CoverURL, &t.Metadata.ReleaseDate,
		&t.Metadata.TrackNumber, &t.Metadata.TotalTracks, &t.Metadata.DiscNumber,
		&t.Metadata.DiscTotal, &t.Metadata.Year, &b.genresJSON, &t.Metadata.Publisher,
		&t.Metadata.Copyright, &t.Metadata.Explicit, &t.Metadata.Popularity,
		&t.Metadata.PreviewURL, &t.Metadata.ExternalURL, &t.Metadata.Raw,
		&b.youtubeURL, &b.matchScore, &b.matchedAt, &t.Acquired, &b.acquiredAt, &t.FilePath,
		&t.LyricsAttempted, &b.lyricsText, &t.LyricsSynced, &t.LyricsSource,
		&t.MetadataEmbedded, &t.LyricsEmbedded, &t.CreatedAt, &t.UpdatedAt,
	}
}

// apply copies the buffered temporaries into the track.
func (b *trackScanBuffer) apply(t *Track) error {
	if err := json.Unmarshal([]byte(b.artistsJSON), &t.Metadata.Artists); err != nil {
		return fmt.Errorf("failed to decode artists: %w", err)
	}

	if err := json.Unmarshal([]byte(b.genresJSON), &t.Metadata.Genres); err != nil {
		return fmt.Errorf("failed to decode genres: %w", err)
	}

	t.YouTubeURL = b.youtubeURL.String
	t.Lyrics = b.lyricsText.String

	if b.matchScore.Valid {
		score := b.matchScore.Float64
		t.MatchScore = &score
	}

	if b.matchedAt.Valid {
		at := b.matchedAt.Time
		t.MatchedAt = &at
	}

	if b.acquiredAt.Valid {
		at := b.acquiredAt.Time
		t.AcquiredAt = &at
	}

	return nil
}

// scanTrack reads one canonical track row (trackColumns order).
func scanTrack(s scanner) (*Track, error) {
	var (
		track  Track
		buffer trackScanBuffer
	)

	if err := s.Scan(buffer.dest(&track)...); err != nil {
		return nil, err
	}

	if err := buffer.apply(&track); err != nil {
		return nil, err
	}

	return &track, nil
}

// scanPlaylistEntry reads one track row followed by position and added_at.
func scanPlaylistEntry(rows *sql.Rows) (*PlaylistEntry, error) {
	var (
		track    Track
		buffer   trackScanBuffer
		position int
		addedAt  sql.NullTime
	)

	dest := append(buffer.dest(&track), &position, &addedAt)
	if err := rows.Scan(dest...); err != nil {
		return nil, err
	}

	if err := buffer.apply(&track); err != nil {
		return nil, err
	}

	entry := &PlaylistEntry{Track: &track, Position: position}
	if addedAt.Valid {
		at := addedAt.Time
		entry.AddedAt = &at
	}

	return entry, nil
}

// queryTracks runs a track query and scans every row.
func (r *Registry) queryTracks(op, query string, args ...any) ([]*Track, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	rows, err := r.db.Query(query, args...)
	if err != nil {
		return nil, wrapErr(op, err)
	}

	defer rows.Close()

	var tracks []*Track

	for rows.Next() {
		track, scanErr := scanTrack(rows)
		if scanErr != nil {
			return nil, wrapErr(op, scanErr)
		}

		tracks = append(tracks, track)
	}

	return tracks, wrapErr(op, rows.Err())
}

// TracksNeedingMatch returns unresolved tracks, oldest first.
func (r *Registry) TracksNeedingMatch() ([]*Track, error) {
	return r.queryTracks("tracks needing match",
		`SELECT `+trackColumns+` FROM canonical_tracks
		WHERE youtube_url IS NULL
		ORDER BY created_at ASC, id ASC`)
}

// TracksNeedingAcquisition returns resolved, unacquired tracks, oldest first.
// Tracks carrying the failure sentinel are never included.
func (r *Registry) TracksNeedingAcquisition() ([]*Track, error) {
	return r.queryTracks("tracks needing acquisition",
		`SELECT `+trackColumns+` FROM canonical_tracks
		WHERE youtube_url IS NOT NULL AND youtube_url != ? AND acquired = 0
		ORDER BY created_at ASC, id ASC`,
		MatchFailedSentinel)
}

// TracksNeedingLyrics returns acquired tracks the lyrics chain has not run for.
func (r *Registry) TracksNeedingLyrics() ([]*Track, error) {
	return r.queryTracks("tracks needing lyrics",
		`SELECT `+trackColumns+` FROM canonical_tracks
		WHERE acquired = 1 AND lyrics_attempted = 0
		ORDER BY created_at ASC, id ASC`)
}

// TracksNeedingEmbedding returns acquired tracks whose tags are stale:
// either metadata was never embedded, or lyrics arrived after the last pass.
func (r *Registry) TracksNeedingEmbedding() ([]*Track, error) {
	return r.queryTracks("tracks needing embedding",
		`SELECT `+trackColumns+` FROM canonical_tracks
		WHERE acquired = 1 AND (
			metadata_embedded = 0
			OR (lyrics_attempted = 1 AND lyrics_text IS NOT NULL AND lyrics_embedded = 0)
		)
		ORDER BY created_at ASC, id ASC`)
}

// SetYouTubeURL records a successful resolution.
func (r *Registry) SetYouTubeURL(externalID, url string, score float64) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	now := time.Now().UTC()

	_, err := r.db.Exec(`
		UPDATE canonical_tracks
		SET youtube_url = ?, match_score = ?, matched_at = ?, updated_at = ?
		WHERE external_id = ?`,
		url, score, now, now, externalID)

	return wrapErr("set youtube url", err)
}

// MarkMatchFailed records a rejected resolution attempt with the failure sentinel.
func (r *Registry) MarkMatchFailed(externalID string) error {
	return r.SetYouTubeURL(externalID, MatchFailedSentinel, 0)
}

// ResetFailedMatches clears the failure sentinel so matching retries those
// tracks. With an empty playlistExternalID the reset is global; otherwise it
// is restricted to tracks linked to that playlist. Returns the reset count.
func (r *Registry) ResetFailedMatches(playlistExternalID string) (int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	query := `
		UPDATE canonical_tracks
		SET youtube_url = NULL, match_score = NULL, matched_at = NULL, updated_at = ?
		WHERE youtube_url = ?`
	args := []any{time.Now().UTC(), MatchFailedSentinel}

	if playlistExternalID != "" {
		query += ` AND id IN (
			SELECT pt.track_id FROM playlist_tracks pt
			JOIN playlists p ON p.id = pt.playlist_id
			WHERE p.external_id = ?)`
		args = append(args, playlistExternalID)
	}

	result, err := r.db.Exec(query, args...)
	if err != nil {
		return 0, wrapErr("reset failed matches", err)
	}

	count, err := result.RowsAffected()

	return count, wrapErr("reset failed matches", err)
}

// MarkAcquired records a completed acquisition and the canonical file path.
func (r *Registry) MarkAcquired(externalID, filePath string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	now := time.Now().UTC()

	_, err := r.db.Exec(`
		UPDATE canonical_tracks
		SET acquired = 1, acquired_at = ?, file_path = ?, updated_at = ?
		WHERE external_id = ?`,
		now, filePath, now, externalID)

	return wrapErr("mark acquired", err)
}

// SetLyrics stores lyrics text and marks the lyrics phase complete.
func (r *Registry) SetLyrics(externalID, text string, synced bool, source string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	_, err := r.db.Exec(`
		UPDATE canonical_tracks
		SET lyrics_attempted = 1, lyrics_text = ?, lyrics_synced = ?, lyrics_source = ?, updated_at = ?
		WHERE external_id = ?`,
		text, synced, source, time.Now().UTC(), externalID)

	return wrapErr("set lyrics", err)
}

// MarkLyricsNotFound marks the lyrics phase complete without text.
// Previously stored text, if any, is preserved.
func (r *Registry) MarkLyricsNotFound(externalID string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	_, err := r.db.Exec(`
		UPDATE canonical_tracks
		SET lyrics_attempted = 1, updated_at = ?
		WHERE external_id = ?`,
		time.Now().UTC(), externalID)

	return wrapErr("mark lyrics not found", err)
}

// MarkMetadataEmbedded records a completed tag pass; a non-empty newPath
// also updates the canonical file path (used by the replace flow).
func (r *Registry) MarkMetadataEmbedded(externalID, newPath string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	query := `UPDATE canonical_tracks SET metadata_embedded = 1, updated_at = ?`
	args := []any{time.Now().UTC()}

	if newPath != "" {
		query += `, file_path = ?`
		args = append(args, newPath)
	}

	query += ` WHERE external_id = ?`
	args = append(args, externalID)

	_, err := r.db.Exec(query, args...)

	return wrapErr("mark metadata embedded", err)
}

// MarkLyricsEmbedded records that lyrics were written into the file tags.
func (r *Registry) MarkLyricsEmbedded(externalID string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	_, err := r.db.Exec(`
		UPDATE canonical_tracks
		SET lyrics_embedded = 1, updated_at = ?
		WHERE external_id = ?`,
		time.Now().UTC(), externalID)

	return wrapErr("mark lyrics embedded", err)
}

// ResetEmbeddingFlags clears both embedding flags so the next embedding pass
// re-applies canonical tags (used after out-of-band audio replacement).
func (r *Registry) ResetEmbeddingFlags(externalID string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	_, err := r.db.Exec(`
		UPDATE canonical_tracks
		SET metadata_embedded = 0, lyrics_embedded = 0, updated_at = ?
		WHERE external_id = ?`,
		time.Now().UTC(), externalID)

	return wrapErr("reset embedding flags", err)
}
