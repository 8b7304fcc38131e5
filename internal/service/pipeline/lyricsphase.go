package pipeline

import (
	"context"
	"errors"

	"github.com/dkrasnov/spotiport/internal/logger"
	"github.com/dkrasnov/spotiport/internal/registry"
)

// runLyrics resolves lyrics for every acquired track not yet attempted.
func (s *ServiceImpl) runLyrics(ctx context.Context) error {
	tracks, err := s.reg.TracksNeedingLyrics()
	if err != nil {
		return err
	}

	if len(tracks) == 0 {
		logger.Info(ctx, "No tracks need lyrics.")

		return nil
	}

	logger.Infof(ctx, "Fetching lyrics for %d track(s)", len(tracks))

	bar := newPhaseBar(len(tracks), "Fetching lyrics")
	defer finishBar(bar)

	s.runWorkerPool(ctx, tracks, func(track *registry.Track) {
		defer advanceBar(bar)

		s.fetchTrackLyrics(ctx, track)
	})

	return ctx.Err()
}

// fetchTrackLyrics walks the provider chain for one track and records the
// outcome. An exhausted chain is a recorded attempt, not an error.
func (s *ServiceImpl) fetchTrackLyrics(ctx context.Context, track *registry.Track) {
	durationSeconds := int(track.Metadata.DurationMS / 1000)

	result, err := s.lyricsResolver.Resolve(ctx, track.Metadata.Artist, track.Metadata.Name, durationSeconds)
	if err != nil {
		if !errors.Is(err, context.Canceled) {
			logger.Errorf(ctx, "Lyrics lookup failed for %s - %s: %v",
				track.Metadata.Artist, track.Metadata.Name, err)
		}

		// Leave the track unattempted so the next run retries it.
		return
	}

	if result == nil {
		if markErr := s.reg.MarkLyricsNotFound(track.ExternalID); markErr != nil {
			logger.Errorf(ctx, "Failed to record lyrics attempt: %v", markErr)

			return
		}

		s.incrementLyricsMissing()
		s.reportLyricsFailure(ctx, track)

		return
	}

	if err = s.reg.SetLyrics(track.ExternalID, result.Text, result.Synced, result.Source); err != nil {
		logger.Errorf(ctx, "Failed to store lyrics: %v", err)

		return
	}

	s.incrementLyricsFound()
}

// reportLyricsFailure appends the track to the lyrics failures log.
func (s *ServiceImpl) reportLyricsFailure(ctx context.Context, track *registry.Track) {
	position := s.firstPlacementPosition(track.ExternalID)

	if err := s.reports.LyricsFailure(
		position, track.Metadata.Name, track.Metadata.Artist, track.Metadata.ExternalURL,
	); err != nil {
		logger.Warnf(ctx, "Failed to write lyrics-failures report: %v", err)
	}
}
