package registry

import (
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	// SQLite driver registration.
	_ "github.com/mattn/go-sqlite3"

	"github.com/dkrasnov/spotiport/internal/apperrors"
)

// Registry is the mutex-guarded SQLite store for all persistent state.
type Registry struct {
	// mu serializes every public operation.
	mu sync.Mutex
	// db is the underlying SQLite handle.
	db *sql.DB
}

// Static error definitions for better error handling.
var (
	// ErrSchemaVersionMismatch indicates the stored schema version differs from SchemaVersion.
	ErrSchemaVersionMismatch = errors.New("registry schema version mismatch")
	// ErrPlaylistNotFound indicates the referenced playlist does not exist.
	ErrPlaylistNotFound = errors.New("playlist not found")
	// ErrTrackNotFound indicates the referenced track does not exist.
	ErrTrackNotFound = errors.New("track not found")
)

const schemaStatements = `
CREATE TABLE IF NOT EXISTS playlists (
	id           INTEGER PRIMARY KEY AUTOINCREMENT,
	external_id  TEXT NOT NULL UNIQUE,
	external_url TEXT,
	name         TEXT NOT NULL,
	last_synced  TIMESTAMP
);

CREATE TABLE IF NOT EXISTS canonical_tracks (
	id                INTEGER PRIMARY KEY AUTOINCREMENT,
	external_id       TEXT NOT NULL UNIQUE,
	name              TEXT NOT NULL,
	artist            TEXT NOT NULL,
	artists           TEXT NOT NULL DEFAULT '[]',
	album             TEXT NOT NULL DEFAULT '',
	album_artist      TEXT NOT NULL DEFAULT '',
	duration_ms       INTEGER NOT NULL DEFAULT 0,
	isrc              TEXT NOT NULL DEFAULT '',
	cover_url         TEXT NOT NULL DEFAULT '',
	release_date      TEXT NOT NULL DEFAULT '',
	track_number      INTEGER NOT NULL DEFAULT 0,
	total_tracks      INTEGER NOT NULL DEFAULT 0,
	disc_number       INTEGER NOT NULL DEFAULT 0,
	disc_total        INTEGER NOT NULL DEFAULT 0,
	year              INTEGER NOT NULL DEFAULT 0,
	genres            TEXT NOT NULL DEFAULT '[]',
	publisher         TEXT NOT NULL DEFAULT '',
	copyright         TEXT NOT NULL DEFAULT '',
	explicit          INTEGER NOT NULL DEFAULT 0,
	popularity        INTEGER NOT NULL DEFAULT 0,
	preview_url       TEXT NOT NULL DEFAULT '',
	external_url      TEXT NOT NULL DEFAULT '',
	raw_metadata      TEXT NOT NULL DEFAULT '',
	youtube_url       TEXT,
	match_score       REAL,
	matched_at        TIMESTAMP,
	acquired          INTEGER NOT NULL DEFAULT 0,
	acquired_at       TIMESTAMP,
	file_path         TEXT NOT NULL DEFAULT '',
	lyrics_attempted  INTEGER NOT NULL DEFAULT 0,
	lyrics_text       TEXT,
	lyrics_synced     INTEGER NOT NULL DEFAULT 0,
	lyrics_source     TEXT NOT NULL DEFAULT '',
	metadata_embedded INTEGER NOT NULL DEFAULT 0,
	lyrics_embedded   INTEGER NOT NULL DEFAULT 0,
	created_at        TIMESTAMP NOT NULL,
	updated_at        TIMESTAMP NOT NULL
);

CREATE TABLE IF NOT EXISTS playlist_tracks (
	id          INTEGER PRIMARY KEY AUTOINCREMENT,
	playlist_id INTEGER NOT NULL REFERENCES playlists(id) ON DELETE CASCADE,
	track_id    INTEGER NOT NULL REFERENCES canonical_tracks(id) ON DELETE CASCADE,
	position    INTEGER NOT NULL,
	added_at    TIMESTAMP,
	UNIQUE(playlist_id, track_id)
);

CREATE TABLE IF NOT EXISTS schema_version (
	version INTEGER PRIMARY KEY
);

CREATE INDEX IF NOT EXISTS idx_tracks_external_id ON canonical_tracks(external_id);
CREATE INDEX IF NOT EXISTS idx_tracks_youtube_url ON canonical_tracks(youtube_url);
CREATE INDEX IF NOT EXISTS idx_tracks_acquired ON canonical_tracks(acquired);
CREATE INDEX IF NOT EXISTS idx_playlist_tracks_playlist ON playlist_tracks(playlist_id);
CREATE INDEX IF NOT EXISTS idx_playlist_tracks_track ON playlist_tracks(track_id);
`

// trackColumns is the full column list used by every track scan.
const trackColumns = `id, external_id, name, artist, artists, album, album_artist, duration_ms,
	isrc, cover_url, release_date, track_number, total_tracks, disc_number, disc_total, year,
	genres, publisher, copyright, explicit, popularity, preview_url, external_url, raw_metadata,
	youtube_url, match_score, matched_at, acquired, acquired_at, file_path,
	lyrics_attempted, lyrics_text, lyrics_synced, lyrics_source,
	metadata_embedded, lyrics_embedded, created_at, updated_at`

// Open opens (or creates) the registry database at path, applies the schema,
// and verifies the stored schema version against SchemaVersion.
func Open(path string) (*Registry, error) {
	db, err := sql.Open("sqlite3", path+"?_foreign_keys=on&_busy_timeout=5000")
	if err != nil {
		return nil, apperrors.New(apperrors.KindRegistry, fmt.Errorf("failed to open database: %w", err))
	}

	// A single connection avoids SQLITE_BUSY under concurrent workers;
	// the registry mutex serializes access anyway.
	db.SetMaxOpenConns(1)

	if _, err = db.Exec(schemaStatements); err != nil {
		_ = db.Close()

		return nil, apperrors.New(apperrors.KindRegistry, fmt.Errorf("failed to apply schema: %w", err))
	}

	if err = ensureSchemaVersion(db); err != nil {
		_ = db.Close()

		return nil, apperrors.New(apperrors.KindRegistry, err)
	}

	return &Registry{db: db}, nil
}

// Close closes the underlying database handle.
func (r *Registry) Close() error {
	r.mu.Lock()
	defer r.mu.Unlock()

	return r.db.Close()
}

func ensureSchemaVersion(db *sql.DB) error {
	var stored int

	err := db.QueryRow(`SELECT version FROM schema_version LIMIT 1`).Scan(&stored)

	switch {
	case errors.Is(err, sql.ErrNoRows):
		if _, err = db.Exec(`INSERT INTO schema_version (version) VALUES (?)`, SchemaVersion); err != nil {
			return fmt.Errorf("failed to pin schema version: %w", err)
		}

		return nil
	case err != nil:
		return fmt.Errorf("failed to read schema version: %w", err)
	case stored != SchemaVersion:
		return fmt.Errorf("%w: stored %d, expected %d", ErrSchemaVersionMismatch, stored, SchemaVersion)
	default:
		return nil
	}
}

// wrapErr classifies an engine error as a registry error.
func wrapErr(op string, err error) error {
	if err == nil {
		return nil
	}

	return apperrors.New(apperrors.KindRegistry, fmt.Errorf("%s: %w", op, err))
}

// UpsertPlaylist creates or updates a playlist row, refreshing name, URL,
// and the last-sync timestamp.
func (r *Registry) UpsertPlaylist(externalID, externalURL, name string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	_, err := r.db.Exec(`
		INSERT INTO playlists (external_id, external_url, name, last_synced)
		VALUES (?, ?, ?, ?)
		ON CONFLICT(external_id) DO UPDATE SET
			external_url = excluded.external_url,
			name         = excluded.name,
			last_synced  = excluded.last_synced`,
		externalID, nullableString(externalURL), name, time.Now().UTC())

	return wrapErr("upsert playlist", err)
}

// EnsureLikedPlaylist idempotently creates the saved-items pseudo-playlist.
func (r *Registry) EnsureLikedPlaylist() error {
	return r.UpsertPlaylist(LikedPlaylistID, "", "Liked Songs")
}

// GetPlaylist returns the playlist with the given external id.
func (r *Registry) GetPlaylist(externalID string) (*Playlist, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	return r.getPlaylistLocked(externalID)
}

func (r *Registry) getPlaylistLocked(externalID string) (*Playlist, error) {
	var (
		p          Playlist
		url        sql.NullString
		lastSynced sql.NullTime
	)

	err := r.db.QueryRow(
		`SELECT id, external_id, external_url, name, last_synced FROM playlists WHERE external_id = ?`,
		externalID,
	).Scan(&p.ID, &p.ExternalID, &url, &p.Name, &lastSynced)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, wrapErr("get playlist", fmt.Errorf("%w: %s", ErrPlaylistNotFound, externalID))
	}

	if err != nil {
		return nil, wrapErr("get playlist", err)
	}

	p.ExternalURL = url.String
	p.LastSynced = lastSynced.Time

	return &p, nil
}

// ListSyncablePlaylists returns every non-liked playlist with a known
// external URL, plus optionally the liked pseudo-playlist.
func (r *Registry) ListSyncablePlaylists(includeLiked bool) ([]*Playlist, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	rows, err := r.db.Query(`
		SELECT id, external_id, external_url, name, last_synced
		FROM playlists
		WHERE (external_id != ? AND external_url IS NOT NULL) OR (external_id = ? AND ?)
		ORDER BY name ASC`,
		LikedPlaylistID, LikedPlaylistID, includeLiked)
	if err != nil {
		return nil, wrapErr("list playlists", err)
	}

	defer rows.Close()

	var playlists []*Playlist

	for rows.Next() {
		var (
			p          Playlist
			url        sql.NullString
			lastSynced sql.NullTime
		)

		if err = rows.Scan(&p.ID, &p.ExternalID, &url, &p.Name, &lastSynced); err != nil {
			return nil, wrapErr("list playlists", err)
		}

		p.ExternalURL = url.String
		p.LastSynced = lastSynced.Time
		playlists = append(playlists, &p)
	}

	return playlists, wrapErr("list playlists", rows.Err())
}

// DeletePlaylist removes a playlist; its links cascade, canonical tracks survive.
func (r *Registry) DeletePlaylist(externalID string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	_, err := r.db.Exec(`DELETE FROM playlists WHERE external_id = ?`, externalID)

	return wrapErr("delete playlist", err)
}

// UpsertCanonicalTrack creates a canonical track or, when the row exists,
// updates only its catalog metadata block. Pipeline state is never touched.
// Returns the internal row id.
func (r *Registry) UpsertCanonicalTrack(externalID string, meta *TrackMetadata) (int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	artists, err := json.Marshal(meta.Artists)
	if err != nil {
		return 0, wrapErr("upsert track", err)
	}

	genres, err := json.Marshal(meta.Genres)
	if err != nil {
		return 0, wrapErr("upsert track", err)
	}

	now := time.Now().UTC()

	_, err = r.db.Exec(`
		INSERT INTO canonical_tracks (
			external_id, name, artist, artists, album, album_artist, duration_ms,
			isrc, cover_url, release_date, track_number, total_tracks, disc_number,
			disc_total, year, genres, publisher, copyright, explicit, popularity,
			preview_url, external_url, raw_metadata, created_at, updated_at
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(external_id) DO UPDATE SET
			name = excluded.name, artist = excluded.artist, artists = excluded.artists,
			album = excluded.album, album_artist = excluded.album_artist,
			duration_ms = excluded.duration_ms, isrc = excluded.isrc,
			cover_url = excluded.cover_url, release_date = excluded.release_date,
			track_number = excluded.track_number, total_tracks = excluded.total_tracks,
			disc_number = excluded.disc_number, disc_total = excluded.disc_total,
			year = excluded.year, genres = excluded.genres, publisher = excluded.publisher,
			copyright = excluded.copyright, explicit = excluded.explicit,
			popularity = excluded.popularity, preview_url = excluded.preview_url,
			external_url = excluded.external_url, raw_metadata = excluded.raw_metadata,
			updated_at = excluded.updated_at`,
		externalID, meta.Name, meta.Artist, string(artists), meta.Album, meta.AlbumArtist,
		meta.DurationMS, meta.ISRC, meta.CoverURL, meta.ReleaseDate, meta.TrackNumber,
		meta.TotalTracks, meta.DiscNumber, meta.DiscTotal, meta.Year, string(genres),
		meta.Publisher, meta.Copyright, meta.Explicit, meta.Popularity, meta.PreviewURL,
		meta.ExternalURL, meta.Raw, now, now)
	if err != nil {
		return 0, wrapErr("upsert track", err)
	}

	var rowID int64
	if err = r.db.QueryRow(
		`SELECT id FROM canonical_tracks WHERE external_id = ?`, externalID,
	).Scan(&rowID); err != nil {
		return 0, wrapErr("upsert track", err)
	}

	return rowID, nil
}

// GetTrack returns the canonical track with the given external id.
func (r *Registry) GetTrack(externalID string) (*Track, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	row := r.db.QueryRow(
		`SELECT `+trackColumns+` FROM canonical_tracks WHERE external_id = ?`, externalID)

	track, err := scanTrack(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, wrapErr("get track", fmt.Errorf("%w: %s", ErrTrackNotFound, externalID))
	}

	if err != nil {
		return nil, wrapErr("get track", err)
	}

	return track, nil
}

// GetTrackByFilePath returns the canonical track stored at the given path.
func (r *Registry) GetTrackByFilePath(filePath string) (*Track, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	row := r.db.QueryRow(
		`SELECT `+trackColumns+` FROM canonical_tracks WHERE file_path = ?`, filePath)

	track, err := scanTrack(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, wrapErr("get track by path", fmt.Errorf("%w: %s", ErrTrackNotFound, filePath))
	}

	if err != nil {
		return nil, wrapErr("get track by path", err)
	}

	return track, nil
}

// LinkTrackToPlaylist inserts or updates the link between a playlist and a
// canonical track. Position is overwritten on conflict; addedAt falls back to
// the existing value when the new one is nil.
func (r *Registry) LinkTrackToPlaylist(playlistExternalID string, trackRowID int64, position int, addedAt *time.Time) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	playlist, err := r.getPlaylistLocked(playlistExternalID)
	if err != nil {
		return err
	}

	_, err = r.db.Exec(`
		INSERT INTO playlist_tracks (playlist_id, track_id, position, added_at)
		VALUES (?, ?, ?, ?)
		ON CONFLICT(playlist_id, track_id) DO UPDATE SET
			position = excluded.position,
			added_at = COALESCE(excluded.added_at, playlist_tracks.added_at)`,
		playlist.ID, trackRowID, position, nullableTime(addedAt))

	return wrapErr("link track", err)
}

// GetPlaylistTrackIDs returns the set of external track ids linked to a playlist.
func (r *Registry) GetPlaylistTrackIDs(playlistExternalID string) (map[string]struct{}, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	rows, err := r.db.Query(`
		SELECT ct.external_id
		FROM playlist_tracks pt
		JOIN playlists p ON p.id = pt.playlist_id
		JOIN canonical_tracks ct ON ct.id = pt.track_id
		WHERE p.external_id = ?`,
		playlistExternalID)
	if err != nil {
		return nil, wrapErr("get playlist track ids", err)
	}

	defer rows.Close()

	ids := make(map[string]struct{})

	for rows.Next() {
		var id string
		if err = rows.Scan(&id); err != nil {
			return nil, wrapErr("get playlist track ids", err)
		}

		ids[id] = struct{}{}
	}

	return ids, wrapErr("get playlist track ids", rows.Err())
}

// GetPlaylistTracksSnapshot returns the mapping of external track id to
// position for a playlist.
func (r *Registry) GetPlaylistTracksSnapshot(playlistExternalID string) (map[string]int, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	rows, err := r.db.Query(`
		SELECT ct.external_id, pt.position
		FROM playlist_tracks pt
		JOIN playlists p ON p.id = pt.playlist_id
		JOIN canonical_tracks ct ON ct.id = pt.track_id
		WHERE p.external_id = ?
		ORDER BY pt.position ASC`,
		playlistExternalID)
	if err != nil {
		return nil, wrapErr("get playlist snapshot", err)
	}

	defer rows.Close()

	snapshot := make(map[string]int)

	for rows.Next() {
		var (
			id       string
			position int
		)

		if err = rows.Scan(&id, &position); err != nil {
			return nil, wrapErr("get playlist snapshot", err)
		}

		snapshot[id] = position
	}

	return snapshot, wrapErr("get playlist snapshot", rows.Err())
}

// SyncPlaylistTracks deletes links whose canonical track external id is not
// in validSet and returns the number of removed links. Canonical tracks are
// never deleted.
func (r *Registry) SyncPlaylistTracks(playlistExternalID string, validSet map[string]struct{}) (int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	playlist, err := r.getPlaylistLocked(playlistExternalID)
	if err != nil {
		return 0, err
	}

	args := []any{playlist.ID}
	placeholders := make([]string, 0, len(validSet))

	for id := range validSet {
		placeholders = append(placeholders, "?")
		args = append(args, id)
	}

	query := `DELETE FROM playlist_tracks WHERE playlist_id = ?`
	if len(placeholders) > 0 {
		query += ` AND track_id NOT IN (
			SELECT id FROM canonical_tracks WHERE external_id IN (` + strings.Join(placeholders, ", ") + `))`
	}

	result, err := r.db.Exec(query, args...)
	if err != nil {
		return 0, wrapErr("sync playlist tracks", err)
	}

	deleted, err := result.RowsAffected()

	return deleted, wrapErr("sync playlist tracks", err)
}

// ClearPlaylistTracks removes every link of a playlist.
func (r *Registry) ClearPlaylistTracks(playlistExternalID string) error {
	_, err := r.SyncPlaylistTracks(playlistExternalID, nil)

	return err
}

// MaxPlaylistPosition returns the highest link position in a playlist (0 when empty).
func (r *Registry) MaxPlaylistPosition(playlistExternalID string) (int, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	var maxPosition sql.NullInt64

	err := r.db.QueryRow(`
		SELECT MAX(pt.position)
		FROM playlist_tracks pt
		JOIN playlists p ON p.id = pt.playlist_id
		WHERE p.external_id = ?`,
		playlistExternalID).Scan(&maxPosition)
	if err != nil {
		return 0, wrapErr("max playlist position", err)
	}

	return int(maxPosition.Int64), nil
}

// TrackPlacements returns every (playlist name, position) pair referencing a track.
func (r *Registry) TrackPlacements(externalID string) ([]TrackPlacement, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	rows, err := r.db.Query(`
		SELECT p.name, pt.position
		FROM playlist_tracks pt
		JOIN playlists p ON p.id = pt.playlist_id
		JOIN canonical_tracks ct ON ct.id = pt.track_id
		WHERE ct.external_id = ?
		ORDER BY p.name ASC`,
		externalID)
	if err != nil {
		return nil, wrapErr("track placements", err)
	}

	defer rows.Close()

	var placements []TrackPlacement

	for rows.Next() {
		var placement TrackPlacement
		if err = rows.Scan(&placement.PlaylistName, &placement.Position); err != nil {
			return nil, wrapErr("track placements", err)
		}

		placements = append(placements, placement)
	}

	return placements, wrapErr("track placements", rows.Err())
}

// GetPlaylistEntries returns a playlist's tracks ordered by position.
func (r *Registry) GetPlaylistEntries(playlistExternalID string) ([]*PlaylistEntry, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	rows, err := r.db.Query(`
		SELECT `+prefixColumns("ct", trackColumns)+`, pt.position, pt.added_at
		FROM playlist_tracks pt
		JOIN playlists p ON p.id = pt.playlist_id
		JOIN canonical_tracks ct ON ct.id = pt.track_id
		WHERE p.external_id = ?
		ORDER BY pt.position ASC`,
		playlistExternalID)
	if err != nil {
		return nil, wrapErr("get playlist entries", err)
	}

	defer rows.Close()

	var entries []*PlaylistEntry

	for rows.Next() {
		entry, scanErr := scanPlaylistEntry(rows)
		if scanErr != nil {
			return nil, wrapErr("get playlist entries", scanErr)
		}

		entries = append(entries, entry)
	}

	return entries, wrapErr("get playlist entries", rows.Err())
}

// nullableString converts an empty string to a SQL NULL.
func nullableString(s string) any {
	if s == "" {
		return nil
	}

	return s
}

// nullableTime converts a nil time pointer to a SQL NULL.
func nullableTime(t *time.Time) any {
	if t == nil {
		return nil
	}

	return t.UTC()
}

// prefixColumns qualifies every column in list with a table alias.
func prefixColumns(alias, list string) string {
	columns := strings.Split(list, ",")
	for i := range columns {
		columns[i] = alias + "." + strings.TrimSpace(columns[i])
	}

	return strings.Join(columns, ", ")
}
