package pipeline

import (
	"context"
	"errors"

	"github.com/dkrasnov/spotiport/internal/logger"
	"github.com/dkrasnov/spotiport/internal/registry"
)

// runMatch resolves every unresolved track against YouTube Music.
func (s *ServiceImpl) runMatch(ctx context.Context, request *RunRequest) error {
	if request.ForceRematch {
		scopeID := ""

		if request.Scope.Kind == ScopePlaylist || request.Scope.Kind == ScopeLiked {
			resolved, err := s.scopePlaylistExternalID(ctx, request.Scope)
			if err != nil {
				return err
			}

			scopeID = resolved
		}

		reset, err := s.reg.ResetFailedMatches(scopeID)
		if err != nil {
			return err
		}

		if reset > 0 {
			logger.Infof(ctx, "Re-queued %d previously failed match(es)", reset)
		}
	}

	tracks, err := s.reg.TracksNeedingMatch()
	if err != nil {
		return err
	}

	if len(tracks) == 0 {
		logger.Info(ctx, "No tracks need matching.")

		return nil
	}

	logger.Infof(ctx, "Matching %d track(s)", len(tracks))

	bar := newPhaseBar(len(tracks), "Matching")
	defer finishBar(bar)

	s.runWorkerPool(ctx, tracks, func(track *registry.Track) {
		defer advanceBar(bar)

		s.matchTrack(ctx, track)
	})

	return ctx.Err()
}

// matchTrack resolves one track and records the outcome.
func (s *ServiceImpl) matchTrack(ctx context.Context, track *registry.Track) {
	result, err := s.matcher.Match(ctx, &track.Metadata)
	if err != nil {
		if !errors.Is(err, context.Canceled) {
			logger.Errorf(ctx, "Match lookup failed for %s - %s: %v",
				track.Metadata.Artist, track.Metadata.Name, err)
		}

		// Transient failure: leave the track unresolved so the next run
		// retries it without --force-rematch.
		return
	}

	if result == nil {
		if markErr := s.reg.MarkMatchFailed(track.ExternalID); markErr != nil {
			logger.Errorf(ctx, "Failed to record match failure: %v", markErr)
		}

		s.incrementMatchFailed()
		logger.Warnf(ctx, "No acceptable match: %s - %s", track.Metadata.Artist, track.Metadata.Name)

		return
	}

	if err = s.reg.SetYouTubeURL(track.ExternalID, result.URL, result.Score); err != nil {
		logger.Errorf(ctx, "Failed to record match: %v", err)

		return
	}

	s.incrementMatched(result.Ambiguous())
	logger.Debugf(ctx, "Matched %s - %s -> %s (score %.1f, via %s)",
		track.Metadata.Artist, track.Metadata.Name, result.URL, result.Score, result.Reason)

	if result.Ambiguous() {
		position := s.firstPlacementPosition(track.ExternalID)

		if reportErr := s.reports.CloseAlternatives(
			position,
			track.Metadata.Name,
			track.Metadata.Artist,
			track.Metadata.ExternalURL,
			result,
		); reportErr != nil {
			logger.Warnf(ctx, "Failed to write close-alternatives report: %v", reportErr)
		}
	}
}

// firstPlacementPosition returns the track's position in its first playlist,
// or zero when the track is not linked anywhere.
func (s *ServiceImpl) firstPlacementPosition(externalID string) int {
	placements, err := s.reg.TrackPlacements(externalID)
	if err != nil || len(placements) == 0 {
		return 0
	}

	return placements[0].Position
}
