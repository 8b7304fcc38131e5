// Package spotify wraps the Spotify Web API behind a narrow read-only
// interface: playlist metadata, paginated playlist items, saved tracks, and
// track, artist, and album lookups. References may be full open.spotify.com
// URLs, spotify: URIs, or bare ids.
//
// Two credential modes exist. Application credentials (client-credentials
// grant) cover public playlists; the user-delegated mode additionally grants
// access to the account's saved tracks via a browser consent flow.
package spotify
