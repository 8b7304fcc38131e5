package ytmusic

// SearchResult is one normalized songs-shelf search hit.
type SearchResult struct {
	// VideoID is the stable video id.
	VideoID string
	// URL is the playable watch URL.
	URL string
	// Title is the result title.
	Title string
	// Author is the primary artist name.
	Author string
	// Artists is the full artist list.
	Artists []string
	// Album is the album name, when the shelf reports one.
	Album string
	// DurationSeconds is the reported duration.
	DurationSeconds int
	// IsSong marks a song-type result (verified music content, not a
	// user upload or music video).
	IsSong bool
	// Explicit marks results carrying the explicit badge.
	Explicit bool
	// Views is the reported play count; 0 when unreported.
	Views int64
}
