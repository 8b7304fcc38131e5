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
)

// Replace downloads the given watch URL and swaps it in over an existing
// library file. Hard-linked playlist views keep pointing at the same inode
// path, so only the canonical file changes. When the file is known to the
// registry, the new match is recorded and tags are re-queued for embedding.
func (s *ServiceImpl) Replace(ctx context.Context, filePath, watchURL string) error {
	absolutePath, err := filepath.Abs(filePath)
	if err != nil {
		return err
	}

	track, err := s.reg.GetTrackByFilePath(absolutePath)
	if err != nil && !errors.Is(err, registry.ErrTrackNotFound) {
		return err
	}

	tempDir := filepath.Join(filepath.Dir(absolutePath), tempDirPrefix+uuid.NewString())
	defer os.RemoveAll(tempDir) //nolint:errcheck // Best-effort scratch cleanup.

	downloadedPath, err := s.extractor.Extract(ctx, watchURL, tempDir)
	if err != nil {
		return err
	}

	if err = filemanager.MoveFile(downloadedPath, absolutePath); err != nil {
		return err
	}

	logger.Infof(ctx, "Replaced audio of %s", absolutePath)

	if track == nil {
		logger.Warnf(ctx, "File is not tracked in the registry; tags will not be refreshed automatically.")

		return nil
	}

	if err = s.reg.SetYouTubeURL(track.ExternalID, watchURL, 0); err != nil {
		return err
	}

	if err = s.reg.MarkAcquired(track.ExternalID, absolutePath); err != nil {
		return err
	}

	if err = s.reg.ResetEmbeddingFlags(track.ExternalID); err != nil {
		return err
	}

	logger.Infof(ctx, "Re-queued %s - %s for tagging; run the embed phase to refresh the file.",
		track.Metadata.Artist, track.Metadata.Name)

	return nil
}
