// Package pipeline implements the five-phase mirroring pipeline: ingest
// playlists from Spotify into the registry, match tracks against YouTube
// Music, acquire audio through yt-dlp, resolve lyrics, and embed tags.
//
// Phases never hand work to each other directly. Each phase consumes a
// registry eligibility query evaluated at its start, which is what makes an
// interrupted run resumable: whatever finished stays finished, whatever did
// not shows up in the next eligibility query.
package pipeline
