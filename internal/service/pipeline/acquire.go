package pipeline

import (
	"context"
	"errors"
	"os"
	"path/filepath"

	"github.com/google/uuid"

	"github.com/dkrasnov/spotiport/internal/filemanager"
	"github.com/dkrasnov/spotiport/internal/logger"
	"github.com/dkrasnov/spotiport/internal/registry"
	"github.com/dkrasnov/spotiport/internal/utils"
)

// tempDirPrefix marks per-download scratch directories under the library root.
const tempDirPrefix = ".tmp-"

// runAcquire downloads audio for every matched track without a canonical file.
func (s *ServiceImpl) runAcquire(ctx context.Context) error {
	tracks, err := s.reg.TracksNeedingAcquisition()
	if err != nil {
		return err
	}

	if len(tracks) == 0 {
		logger.Info(ctx, "No tracks need downloading.")

		return nil
	}

	logger.Infof(ctx, "Downloading %d track(s)", len(tracks))

	bar := newPhaseBar(len(tracks), "Downloading")
	defer finishBar(bar)

	s.runWorkerPool(ctx, tracks, func(track *registry.Track) {
		defer advanceBar(bar)

		s.acquireTrack(ctx, track)
	})

	return ctx.Err()
}

// acquireTrack downloads one track into its canonical location. A canonical
// file that already exists is adopted as-is; two tracks resolving to the
// same artist and title share one file.
func (s *ServiceImpl) acquireTrack(ctx context.Context, track *registry.Track) {
	canonicalPath := s.fileManager.CanonicalPath(track.Metadata.Artist, track.Metadata.Name)

	exists, statErr := utils.IsFileExist(canonicalPath)
	if statErr != nil {
		logger.Errorf(ctx, "Failed to check canonical file %s: %v", canonicalPath, statErr)
		s.incrementAcquisitionFailed()

		return
	}

	if exists {
		logger.Debugf(ctx, "Canonical file already exists: %s", canonicalPath)

		if err := s.reg.MarkAcquired(track.ExternalID, canonicalPath); err != nil {
			logger.Errorf(ctx, "Failed to record acquisition: %v", err)

			return
		}

		s.incrementCacheHit()
		s.refreshTrackLinks(ctx, track, canonicalPath)

		return
	}

	tempDir := filepath.Join(s.fileManager.Root(), tempDirPrefix+uuid.NewString())
	defer os.RemoveAll(tempDir) //nolint:errcheck // Best-effort scratch cleanup.

	downloadedPath, err := s.extractor.Extract(ctx, track.YouTubeURL, tempDir)
	if err != nil {
		// An interrupted download is not a failure; the track stays
		// eligible and the next run picks it up.
		if errors.Is(err, context.Canceled) {
			return
		}

		logger.Errorf(ctx, "Download failed for %s - %s: %v",
			track.Metadata.Artist, track.Metadata.Name, err)
		s.reportDownloadFailure(ctx, track)
		s.incrementAcquisitionFailed()

		return
	}

	var downloadedBytes int64

	if info, statErr := os.Stat(downloadedPath); statErr == nil {
		downloadedBytes = info.Size()
	}

	if err = filemanager.MoveFile(downloadedPath, canonicalPath); err != nil {
		logger.Errorf(ctx, "Failed to place canonical file for %s - %s: %v",
			track.Metadata.Artist, track.Metadata.Name, err)
		s.reportDownloadFailure(ctx, track)
		s.incrementAcquisitionFailed()

		return
	}

	if err = s.reg.MarkAcquired(track.ExternalID, canonicalPath); err != nil {
		logger.Errorf(ctx, "Failed to record acquisition: %v", err)

		return
	}

	s.incrementAcquired(downloadedBytes)
	s.refreshTrackLinks(ctx, track, canonicalPath)
}

// refreshTrackLinks recreates the playlist hard links of a freshly placed
// canonical file in every playlist the track appears in.
func (s *ServiceImpl) refreshTrackLinks(ctx context.Context, track *registry.Track, canonicalPath string) {
	placements, err := s.reg.TrackPlacements(track.ExternalID)
	if err != nil {
		logger.Errorf(ctx, "Failed to look up playlist placements: %v", err)

		return
	}

	converted := utils.Map(placements, func(placement registry.TrackPlacement) filemanager.PlaylistPlacement {
		return filemanager.PlaylistPlacement{
			PlaylistName: placement.PlaylistName,
			Position:     placement.Position,
		}
	})

	for _, linkErr := range s.fileManager.UpdateAllPlaylistLinks(
		canonicalPath, track.Metadata.Name, track.Metadata.Artist, converted,
	) {
		logger.Warnf(ctx, "Failed to update playlist link: %v", linkErr)
	}
}

// reportDownloadFailure appends the track to the download failures log.
func (s *ServiceImpl) reportDownloadFailure(ctx context.Context, track *registry.Track) {
	position := s.firstPlacementPosition(track.ExternalID)

	if err := s.reports.DownloadFailure(
		position, track.Metadata.Name, track.Metadata.Artist, track.Metadata.ExternalURL,
	); err != nil {
		logger.Warnf(ctx, "Failed to write download-failures report: %v", err)
	}
}
