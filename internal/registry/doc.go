// Package registry implements the global track registry: a mutex-guarded
// SQLite store holding playlists, canonical tracks, playlist-track links,
// and per-track pipeline state.
//
// The registry is the single writer for all persistent state. Every public
// method takes the registry lock around a single statement or a small atomic
// batch, so an interrupted run always leaves the store consistent. Catalog
// metadata updates never touch pipeline state (match, acquisition, lyrics,
// embedding), which is what makes re-ingestion safe.
//
// Lyrics state is sticky: MarkLyricsNotFound only flips the attempted flag
// and never clears previously stored text, so a later SetLyrics always wins.
package registry
