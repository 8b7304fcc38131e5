package pipeline

import (
	"context"
	"fmt"
	"time"

	"github.com/dustin/go-humanize"

	"github.com/dkrasnov/spotiport/internal/logger"
)

// RunStatistics holds the counters of one pipeline run.
// All fields are guarded by the service statsMutex.
type RunStatistics struct {
	// StartTime is when the run began.
	StartTime time.Time
	// EndTime is when the run finished.
	EndTime time.Time

	// TracksIngested is the number of tracks written to the registry.
	TracksIngested int64
	// ItemsSkipped is the number of playlist items dropped during ingestion.
	ItemsSkipped int64

	// TracksMatched is the number of successful resolutions.
	TracksMatched int64
	// MatchFailures is the number of tracks left with the failure sentinel.
	MatchFailures int64
	// AmbiguousMatches is the number of resolutions with close alternatives.
	AmbiguousMatches int64

	// TracksAcquired is the number of freshly downloaded canonical files.
	TracksAcquired int64
	// CacheHits is the number of tracks whose canonical file already existed.
	CacheHits int64
	// AcquisitionFailures is the number of failed downloads.
	AcquisitionFailures int64
	// BytesAcquired is the total size of freshly downloaded audio.
	BytesAcquired int64

	// LyricsFound is the number of tracks with resolved lyrics.
	LyricsFound int64
	// LyricsMissing is the number of tracks the whole chain came up empty for.
	LyricsMissing int64

	// TracksEmbedded is the number of files with freshly written tags.
	TracksEmbedded int64
	// EmbedFailures is the number of failed tag writes.
	EmbedFailures int64
}

// formatDuration formats a duration into a human-readable string.
func formatDuration(d time.Duration) string {
	if d < time.Second {
		return fmt.Sprintf("%dms", d.Milliseconds())
	}

	hours := int(d.Hours())
	minutes := int(d.Minutes()) % 60
	seconds := int(d.Seconds()) % 60

	if hours > 0 {
		return fmt.Sprintf("%dh %dm %ds", hours, minutes, seconds)
	}

	if minutes > 0 {
		return fmt.Sprintf("%dm %ds", minutes, seconds)
	}

	return fmt.Sprintf("%ds", seconds)
}

// incrementIngested increments the ingested tracks counter.
func (s *ServiceImpl) incrementIngested() {
	s.statsMutex.Lock()
	defer s.statsMutex.Unlock()

	s.stats.TracksIngested++
}

// incrementSkipped increments the skipped playlist items counter.
func (s *ServiceImpl) incrementSkipped() {
	s.statsMutex.Lock()
	defer s.statsMutex.Unlock()

	s.stats.ItemsSkipped++
}

// incrementMatched increments the matched tracks counter, tracking ambiguity.
func (s *ServiceImpl) incrementMatched(ambiguous bool) {
	s.statsMutex.Lock()
	defer s.statsMutex.Unlock()

	s.stats.TracksMatched++

	if ambiguous {
		s.stats.AmbiguousMatches++
	}
}

// incrementMatchFailed increments the match failures counter.
func (s *ServiceImpl) incrementMatchFailed() {
	s.statsMutex.Lock()
	defer s.statsMutex.Unlock()

	s.stats.MatchFailures++
}

// incrementAcquired increments the acquired tracks counter and adds bytes.
func (s *ServiceImpl) incrementAcquired(bytes int64) {
	s.statsMutex.Lock()
	defer s.statsMutex.Unlock()

	s.stats.TracksAcquired++
	s.stats.BytesAcquired += bytes
}

// incrementCacheHit increments the acquisition cache hits counter.
func (s *ServiceImpl) incrementCacheHit() {
	s.statsMutex.Lock()
	defer s.statsMutex.Unlock()

	s.stats.CacheHits++
}

// incrementAcquisitionFailed increments the acquisition failures counter.
func (s *ServiceImpl) incrementAcquisitionFailed() {
	s.statsMutex.Lock()
	defer s.statsMutex.Unlock()

	s.stats.AcquisitionFailures++
}

// incrementLyricsFound increments the resolved lyrics counter.
func (s *ServiceImpl) incrementLyricsFound() {
	s.statsMutex.Lock()
	defer s.statsMutex.Unlock()

	s.stats.LyricsFound++
}

// incrementLyricsMissing increments the missing lyrics counter.
func (s *ServiceImpl) incrementLyricsMissing() {
	s.statsMutex.Lock()
	defer s.statsMutex.Unlock()

	s.stats.LyricsMissing++
}

// incrementEmbedded increments the embedded files counter.
func (s *ServiceImpl) incrementEmbedded() {
	s.statsMutex.Lock()
	defer s.statsMutex.Unlock()

	s.stats.TracksEmbedded++
}

// incrementEmbedFailed increments the embedding failures counter.
func (s *ServiceImpl) incrementEmbedFailed() {
	s.statsMutex.Lock()
	defer s.statsMutex.Unlock()

	s.stats.EmbedFailures++
}

// PrintRunSummary prints a formatted summary of the run.
func (s *ServiceImpl) PrintRunSummary(ctx context.Context, scope Scope) {
	s.statsMutex.Lock()
	defer s.statsMutex.Unlock()

	stats := s.stats

	totalProcessed := stats.TracksIngested + stats.TracksMatched + stats.MatchFailures +
		stats.TracksAcquired + stats.CacheHits + stats.AcquisitionFailures +
		stats.LyricsFound + stats.LyricsMissing + stats.TracksEmbedded + stats.EmbedFailures
	if totalProcessed == 0 {
		return
	}

	wasInterrupted := ctx.Err() != nil

	s.printSummaryHeader(ctx, wasInterrupted)
	s.printPhaseStatistics(ctx, stats)
	s.printLibraryStatistics(ctx, scope)
	logger.Info(ctx, "═══════════════════════════════════════════════════════════════")
	s.printFinalMessage(ctx, wasInterrupted, stats)
}

// printSummaryHeader prints the summary header.
func (s *ServiceImpl) printSummaryHeader(ctx context.Context, wasInterrupted bool) {
	logger.Info(ctx, "")
	logger.Info(ctx, "═══════════════════════════════════════════════════════════════")

	if wasInterrupted {
		logger.Info(ctx, "               MIRROR SUMMARY (Interrupted)")
	} else {
		logger.Info(ctx, "                      MIRROR SUMMARY")
	}

	logger.Info(ctx, "═══════════════════════════════════════════════════════════════")
}

// printPhaseStatistics prints the per-phase counters of the run.
func (s *ServiceImpl) printPhaseStatistics(ctx context.Context, stats *RunStatistics) {
	if stats.TracksIngested > 0 || stats.ItemsSkipped > 0 {
		logger.Infof(ctx, "Ingested:         %d track(s)", stats.TracksIngested)

		if stats.ItemsSkipped > 0 {
			logger.Infof(ctx, "  Skipped Items:  %d", stats.ItemsSkipped)
		}
	}

	if stats.TracksMatched > 0 || stats.MatchFailures > 0 {
		logger.Infof(ctx, "Matched:          %d track(s)", stats.TracksMatched)

		if stats.AmbiguousMatches > 0 {
			logger.Infof(ctx, "  Ambiguous:      %d (see close-alternatives log)", stats.AmbiguousMatches)
		}

		if stats.MatchFailures > 0 {
			logger.Infof(ctx, "  No Match:       %d", stats.MatchFailures)
		}
	}

	if stats.TracksAcquired > 0 || stats.CacheHits > 0 || stats.AcquisitionFailures > 0 {
		logger.Infof(ctx, "Acquired:         %d track(s)", stats.TracksAcquired)

		if stats.CacheHits > 0 {
			logger.Infof(ctx, "  Cache Hits:     %d", stats.CacheHits)
		}

		if stats.AcquisitionFailures > 0 {
			logger.Infof(ctx, "  Failed:         %d", stats.AcquisitionFailures)
		}

		if stats.BytesAcquired > 0 {
			//nolint:gosec // BytesAcquired is always positive, no overflow risk.
			logger.Infof(ctx, "  Downloaded:     %s", humanize.Bytes(uint64(stats.BytesAcquired)))
		}
	}

	if stats.LyricsFound > 0 || stats.LyricsMissing > 0 {
		logger.Infof(ctx, "Lyrics:           %d found, %d missing", stats.LyricsFound, stats.LyricsMissing)
	}

	if stats.TracksEmbedded > 0 || stats.EmbedFailures > 0 {
		logger.Infof(ctx, "Tagged:           %d file(s)", stats.TracksEmbedded)

		if stats.EmbedFailures > 0 {
			logger.Infof(ctx, "  Failed:         %d", stats.EmbedFailures)
		}
	}

	if !stats.StartTime.IsZero() && !stats.EndTime.IsZero() {
		duration := stats.EndTime.Sub(stats.StartTime)
		if duration > 100*time.Millisecond {
			logger.Infof(ctx, "Duration:         %s", formatDuration(duration))
		}
	}
}

// printLibraryStatistics prints registry-wide or per-playlist state.
func (s *ServiceImpl) printLibraryStatistics(ctx context.Context, scope Scope) {
	switch scope.Kind {
	case ScopeSyncAll, ScopeNone:
		global, err := s.reg.GlobalStatistics()
		if err != nil {
			logger.Debugf(ctx, "Failed to read library statistics: %v", err)

			return
		}

		logger.Info(ctx, "")
		logger.Infof(ctx, "Library:          %d playlist(s), %d unique track(s)", global.Playlists, global.UniqueTracks)
		logger.Infof(ctx, "  Matched:        %d", global.Matched)
		logger.Infof(ctx, "  Acquired:       %d", global.Acquired)
		logger.Infof(ctx, "  With Lyrics:    %d", global.WithLyrics)

		if global.DedupRatio > 0 {
			logger.Infof(ctx, "  Dedup Ratio:    %.2fx (%d link(s))", global.DedupRatio, global.TotalLinks)
		}
	case ScopePlaylist, ScopeLiked:
		externalID, err := s.scopePlaylistExternalID(ctx, scope)
		if err != nil {
			return
		}

		playlistStats, err := s.reg.PlaylistStatistics(externalID)
		if err != nil {
			logger.Debugf(ctx, "Failed to read playlist statistics: %v", err)

			return
		}

		logger.Info(ctx, "")
		logger.Infof(ctx, "Playlist:         %d track(s)", playlistStats.Total)
		logger.Infof(ctx, "  Matched:        %d", playlistStats.Matched)
		logger.Infof(ctx, "  Acquired:       %d", playlistStats.Acquired)

		if playlistStats.FailedMatch > 0 {
			logger.Infof(ctx, "  No Match:       %d", playlistStats.FailedMatch)
		}

		if playlistStats.PendingMatch > 0 {
			logger.Infof(ctx, "  Pending Match:  %d", playlistStats.PendingMatch)
		}
	}
}

// printFinalMessage prints a closing message based on run results.
func (s *ServiceImpl) printFinalMessage(ctx context.Context, wasInterrupted bool, stats *RunStatistics) {
	failures := stats.MatchFailures + stats.AcquisitionFailures + stats.EmbedFailures

	switch {
	case wasInterrupted:
		logger.Info(ctx, "")
		logger.Warnf(ctx, "Run interrupted by user (CTRL+C). Re-run to resume where it stopped.")
	case failures > 0:
		logger.Info(ctx, "")
		logger.Warnf(ctx, "%d item(s) failed. See the failure logs in the logs directory.", failures)
	default:
		logger.Info(ctx, "")
		logger.Info(ctx, "All selected phases completed successfully!")
	}
}
