package pipeline

import (
	"context"
	"io"
	"net/http"
	"strings"

	"github.com/Sorrow446/go-mp4tag"

	"github.com/dkrasnov/spotiport/internal/logger"
	"github.com/dkrasnov/spotiport/internal/registry"
	http_transport "github.com/dkrasnov/spotiport/internal/transport/http"
	"github.com/dkrasnov/spotiport/internal/utils"
)

// Custom atom names for catalog identifiers.
const (
	customTagSpotifyURL = "SPOTIFY_URL"
	customTagISRC       = "ISRC"
)

// runEmbed writes tags into every acquired file with pending metadata or
// newly arrived lyrics.
func (s *ServiceImpl) runEmbed(ctx context.Context) error {
	tracks, err := s.reg.TracksNeedingEmbedding()
	if err != nil {
		return err
	}

	if len(tracks) == 0 {
		logger.Info(ctx, "No files need tagging.")

		return nil
	}

	logger.Infof(ctx, "Tagging %d file(s)", len(tracks))

	bar := newPhaseBar(len(tracks), "Tagging")
	defer finishBar(bar)

	s.runWorkerPool(ctx, tracks, func(track *registry.Track) {
		defer advanceBar(bar)

		s.embedTrack(ctx, track)
	})

	return ctx.Err()
}

// embedTrack writes canonical tags and stored lyrics into one file.
// A failure is recorded and skipped; the file stays eligible for the next run.
func (s *ServiceImpl) embedTrack(ctx context.Context, track *registry.Track) {
	exists, statErr := utils.IsFileExist(track.FilePath)
	if statErr != nil {
		logger.Errorf(ctx, "Failed to check canonical file %s: %v", track.FilePath, statErr)
		s.incrementEmbedFailed()

		return
	}

	if track.FilePath == "" || !exists {
		logger.Warnf(ctx, "Canonical file missing for %s - %s, skipping tagging",
			track.Metadata.Artist, track.Metadata.Name)
		s.incrementEmbedFailed()

		return
	}

	file, err := mp4tag.Open(track.FilePath)
	if err != nil {
		logger.Errorf(ctx, "Failed to open %s for tagging: %v", track.FilePath, err)
		s.incrementEmbedFailed()

		return
	}
	defer file.Close() //nolint:errcheck // Error on close is not critical here.

	tags := s.buildTags(ctx, track)
	withLyrics := track.LyricsAttempted && track.Lyrics != ""

	if withLyrics {
		tags.Lyrics = track.Lyrics
	}

	if err = file.Write(tags, nil); err != nil {
		logger.Errorf(ctx, "Failed to write tags to %s: %v", track.FilePath, err)
		s.incrementEmbedFailed()

		return
	}

	if err = s.reg.MarkMetadataEmbedded(track.ExternalID, ""); err != nil {
		logger.Errorf(ctx, "Failed to record tagging: %v", err)

		return
	}

	if withLyrics {
		if err = s.reg.MarkLyricsEmbedded(track.ExternalID); err != nil {
			logger.Errorf(ctx, "Failed to record lyrics embedding: %v", err)

			return
		}
	}

	s.incrementEmbedded()
}

// buildTags assembles the MP4 tag block from the canonical metadata.
func (s *ServiceImpl) buildTags(ctx context.Context, track *registry.Track) *mp4tag.MP4Tags {
	meta := &track.Metadata

	tags := &mp4tag.MP4Tags{
		Title:       meta.Name,
		Artist:      strings.Join(meta.Artists, ", "),
		Album:       meta.Album,
		AlbumArtist: meta.AlbumArtist,
		Copyright:   meta.Copyright,
		Publisher:   meta.Publisher,
		CustomGenre: strings.Join(meta.Genres, ", "),
		Custom:      map[string]string{},
	}

	if meta.Year > 0 {
		tags.Year = int32(meta.Year)
	}

	if meta.TrackNumber > 0 {
		tags.TrackNumber = int16(meta.TrackNumber)
		tags.TrackTotal = int16(meta.TotalTracks)
	}

	if meta.DiscNumber > 0 {
		tags.DiscNumber = int16(meta.DiscNumber)
		tags.DiscTotal = int16(meta.DiscTotal)
	}

	if meta.Explicit {
		tags.ItunesAdvisory = mp4tag.ItunesAdvisoryExplicit
	}

	if meta.ExternalURL != "" {
		tags.Custom[customTagSpotifyURL] = meta.ExternalURL
	}

	if meta.ISRC != "" {
		tags.Custom[customTagISRC] = meta.ISRC
	}

	if cover := s.downloadCover(ctx, meta.CoverURL); cover != nil {
		tags.Pictures = []*mp4tag.MP4Picture{{Data: cover}}
	}

	return tags
}

// downloadCover fetches the album cover. Cover failures degrade to a tag
// block without artwork.
func (s *ServiceImpl) downloadCover(ctx context.Context, coverURL string) []byte {
	if coverURL == "" {
		return nil
	}

	request, err := http.NewRequestWithContext(ctx, http.MethodGet, coverURL, nil)
	if err != nil {
		logger.Debugf(ctx, "Failed to build cover request: %v", err)

		return nil
	}

	response, err := s.coverClient.Do(request)
	if err != nil {
		logger.Debugf(ctx, "Failed to download cover: %v", err)

		return nil
	}
	defer response.Body.Close() //nolint:errcheck // Error on close is not critical here.

	if response.StatusCode != http.StatusOK {
		logger.Debugf(ctx, "Cover download returned status %d", response.StatusCode)

		return nil
	}

	data, err := io.ReadAll(response.Body)
	if err != nil {
		logger.Debugf(ctx, "Failed to read cover body: %v", err)

		return nil
	}

	return data
}

// newCoverHTTPClient builds the instrumented client used for cover art.
func newCoverHTTPClient() *http.Client {
	return &http.Client{
		Transport: http_transport.NewUserAgentInjector(
			http_transport.NewLogTransport(http.DefaultTransport, 0),
			utils.NewSimpleUserAgentProvider(http_transport.DefaultUserAgent)),
		Timeout: http_transport.DefaultTimeout,
	}
}
