package spotify

import (
	"encoding/json"
	"time"

	spotifyapi "github.com/zmb3/spotify/v2"
)

// Playlist is the metadata of one remote playlist.
type Playlist struct {
	// ID is the stable playlist id.
	ID string
	// Name is the display name.
	Name string
	// ExternalURL is the public playlist URL.
	ExternalURL string
	// TotalTracks is the reported item count.
	TotalTracks int
}

// Track is the catalog view of one track, flattened for ingestion.
type Track struct {
	// ID is the stable track id.
	ID string
	// Name is the track display name.
	Name string
	// Artists is the full artist list; the first entry is the primary artist.
	Artists []string
	// ArtistIDs parallels Artists with stable ids.
	ArtistIDs []string
	// Album is the album display name.
	Album string
	// AlbumID is the stable album id.
	AlbumID string
	// AlbumArtist is the album's primary artist.
	AlbumArtist string
	// DurationMS is the track duration in milliseconds.
	DurationMS int64
	// ISRC is the International Standard Recording Code, when reported.
	ISRC string
	// CoverURL is the largest album cover image URL.
	CoverURL string
	// ReleaseDate is the album release date string.
	ReleaseDate string
	// TrackNumber is the position within the album disc.
	TrackNumber int
	// DiscNumber is the disc the track appears on.
	DiscNumber int
	// Explicit marks explicit content.
	Explicit bool
	// Popularity is the catalog popularity score (0-100).
	Popularity int
	// PreviewURL is the preview clip URL, when available.
	PreviewURL string
	// ExternalURL is the public track URL.
	ExternalURL string
}

// Artist is the catalog view of one artist.
type Artist struct {
	// ID is the stable artist id.
	ID string
	// Name is the artist display name.
	Name string
	// Genres is the catalog genre list.
	Genres []string
}

// Album is the catalog view of one album.
type Album struct {
	// ID is the stable album id.
	ID string
	// Name is the album display name.
	Name string
	// ReleaseDate is the album release date string.
	ReleaseDate string
	// TotalTracks is the number of tracks on the album.
	TotalTracks int
	// Copyright is the first copyright line, when reported.
	Copyright string
	// Label is the publisher derived from the copyright block.
	Label string
}

// PlaylistItem is one playlist entry: a track plus its addition timestamp.
type PlaylistItem struct {
	// Track is the flattened track; nil for episodes and removed content.
	Track *Track
	// AddedAt is when the entry was added upstream; nil when unreported.
	AddedAt *time.Time
	// IsLocal marks user-uploaded local files, which have no catalog identity.
	IsLocal bool
}

// addedAtLayout is the timestamp format of playlist and library entries.
const addedAtLayout = time.RFC3339

func convertFullTrack(full *spotifyapi.FullTrack) *Track {
	track := &Track{
		ID:          string(full.ID),
		Name:        full.Name,
		Album:       full.Album.Name,
		AlbumID:     string(full.Album.ID),
		DurationMS:  int64(full.Duration),
		ReleaseDate: full.Album.ReleaseDate,
		TrackNumber: int(full.TrackNumber),
		DiscNumber:  int(full.DiscNumber),
		Explicit:    full.Explicit,
		Popularity:  int(full.Popularity),
		PreviewURL:  full.PreviewURL,
		ExternalURL: full.ExternalURLs["spotify"],
		ISRC:        full.ExternalIDs["isrc"],
	}

	for _, artist := range full.Artists {
		track.Artists = append(track.Artists, artist.Name)
		track.ArtistIDs = append(track.ArtistIDs, string(artist.ID))
	}

	if len(full.Album.Artists) > 0 {
		track.AlbumArtist = full.Album.Artists[0].Name
	}

	// The first image is the largest.
	if len(full.Album.Images) > 0 {
		track.CoverURL = full.Album.Images[0].URL
	}

	return track
}

func convertFullArtist(full *spotifyapi.FullArtist) *Artist {
	return &Artist{
		ID:     string(full.ID),
		Name:   full.Name,
		Genres: full.Genres,
	}
}

func convertFullAlbum(full *spotifyapi.FullAlbum) *Album {
	album := &Album{
		ID:          string(full.ID),
		Name:        full.Name,
		ReleaseDate: full.ReleaseDate,
		// Tracks.Tracks is only the first page; Total covers the whole album.
		TotalTracks: int(full.Tracks.Total),
	}

	for _, c := range full.Copyrights {
		if album.Copyright == "" {
			album.Copyright = c.Text
		}

		// The phonogram copyright names the label.
		if c.Type == "P" && album.Label == "" {
			album.Label = c.Text
		}
	}

	if album.Label == "" {
		album.Label = album.Copyright
	}

	return album
}

func parseAddedAt(value string) *time.Time {
	parsed, err := time.Parse(addedAtLayout, value)
	if err != nil {
		return nil
	}

	parsed = parsed.UTC()

	return &parsed
}

// RawJSON serializes a track for opaque storage alongside structured columns.
func (t *Track) RawJSON() string {
	encoded, err := json.Marshal(t)
	if err != nil {
		return ""
	}

	return string(encoded)
}
