package registry

import "time"

const (
	// LikedPlaylistID is the reserved external id of the saved-items pseudo-playlist.
	LikedPlaylistID = "LIKED"

	// MatchFailedSentinel is the reserved youtube_url value marking a
	// completed-but-unsuccessful resolution attempt.
	MatchFailedSentinel = "MATCH_FAILED"

	// SchemaVersion is the pinned schema version; opening a store with a
	// different stored version fails.
	SchemaVersion = 1
)

// Playlist is a mirrored external playlist.
type Playlist struct {
	// ID is the internal row id.
	ID int64
	// ExternalID is the stable Spotify playlist id, or LikedPlaylistID.
	ExternalID string
	// ExternalURL is the public playlist URL; empty for the liked pseudo-playlist.
	ExternalURL string
	// Name is the display name.
	Name string
	// LastSynced is the time of the last ingestion.
	LastSynced time.Time
}

// TrackMetadata is the catalog-A metadata block of a canonical track.
// Updating it on an existing track never touches pipeline state.
type TrackMetadata struct {
	// Name is the track display name.
	Name string
	// Artist is the primary artist name.
	Artist string
	// Artists is the full artist list.
	Artists []string
	// Album is the album display name.
	Album string
	// AlbumArtist is the album's primary artist.
	AlbumArtist string
	// DurationMS is the track duration in milliseconds.
	DurationMS int64
	// ISRC is the International Standard Recording Code, when known.
	ISRC string
	// CoverURL is the album cover image URL.
	CoverURL string
	// ReleaseDate is the album release date as reported by the catalog.
	ReleaseDate string
	// TrackNumber is the position within the album disc.
	TrackNumber int
	// TotalTracks is the number of tracks on the album.
	TotalTracks int
	// DiscNumber is the disc the track appears on.
	DiscNumber int
	// DiscTotal is the number of discs in the album.
	DiscTotal int
	// Year is the release year.
	Year int
	// Genres is the primary artist's genre list.
	Genres []string
	// Publisher is the album label.
	Publisher string
	// Copyright is the album copyright line.
	Copyright string
	// Explicit marks explicit content.
	Explicit bool
	// Popularity is the catalog popularity score.
	Popularity int
	// PreviewURL is the catalog preview clip URL.
	PreviewURL string
	// ExternalURL is the public track URL on the catalog.
	ExternalURL string
	// Raw is the opaque catalog metadata blob (JSON).
	Raw string
}

// Track is a canonical track row with its full pipeline state.
type Track struct {
	// ID is the internal row id.
	ID int64
	// ExternalID is the stable Spotify track id.
	ExternalID string
	// Metadata is the catalog-A metadata block.
	Metadata TrackMetadata

	// YouTubeURL is the resolved catalog-B URL; empty means unresolved and
	// MatchFailedSentinel means a rejected resolution attempt.
	YouTubeURL string
	// MatchScore is the resolution score (0-100); nil when unresolved.
	MatchScore *float64
	// MatchedAt is the resolution timestamp.
	MatchedAt *time.Time

	// Acquired marks that the canonical audio file exists.
	Acquired bool
	// AcquiredAt is the acquisition timestamp.
	AcquiredAt *time.Time
	// FilePath is the canonical file path.
	FilePath string

	// LyricsAttempted marks that the lyrics chain has run for this track.
	LyricsAttempted bool
	// Lyrics is the stored lyrics text, when found.
	Lyrics string
	// LyricsSynced marks timestamped (LRC) lyrics.
	LyricsSynced bool
	// LyricsSource names the provider that supplied the lyrics.
	LyricsSource string

	// MetadataEmbedded marks that canonical tags were written to the file.
	MetadataEmbedded bool
	// LyricsEmbedded marks that lyrics were written to the file.
	LyricsEmbedded bool

	// CreatedAt is the row creation time.
	CreatedAt time.Time
	// UpdatedAt is the last modification time.
	UpdatedAt time.Time
}

// MatchFailed reports whether resolution was attempted and rejected.
func (t *Track) MatchFailed() bool {
	return t.YouTubeURL == MatchFailedSentinel
}

// Resolved reports whether the track has a usable catalog-B URL.
func (t *Track) Resolved() bool {
	return t.YouTubeURL != "" && t.YouTubeURL != MatchFailedSentinel
}

// PlaylistEntry is a track together with its position inside one playlist.
type PlaylistEntry struct {
	// Track is the canonical track.
	Track *Track
	// Position is the 1-indexed position within the playlist.
	Position int
	// AddedAt is when the track was added to the external playlist.
	AddedAt *time.Time
}

// TrackPlacement locates a track inside one playlist by name and position.
type TrackPlacement struct {
	// PlaylistName is the playlist display name.
	PlaylistName string
	// Position is the 1-indexed position within the playlist.
	Position int
}

// PlaylistStats holds per-playlist pipeline counters.
type PlaylistStats struct {
	// Total is the number of linked tracks.
	Total int64
	// Matched is the number of tracks with a usable catalog-B URL.
	Matched int64
	// Acquired is the number of tracks with canonical audio.
	Acquired int64
	// FailedMatch is the number of tracks carrying the failure sentinel.
	FailedMatch int64
	// PendingMatch is the number of unresolved tracks.
	PendingMatch int64
	// PendingAcquisition is the number of matched tracks without audio.
	PendingAcquisition int64
}

// GlobalStats holds library-wide counters.
type GlobalStats struct {
	// Playlists is the number of known playlists.
	Playlists int64
	// UniqueTracks is the number of canonical track rows.
	UniqueTracks int64
	// Matched is the number of tracks with a usable catalog-B URL.
	Matched int64
	// Acquired is the number of tracks with canonical audio.
	Acquired int64
	// WithLyrics is the number of tracks with stored lyrics text.
	WithLyrics int64
	// TotalLinks is the number of playlist-track links.
	TotalLinks int64
	// DedupRatio is TotalLinks divided by UniqueTracks (0 when empty).
	DedupRatio float64
}
