package pipeline

//go:generate $MOCKGEN -source=service.go -destination=mocks/service_mock.go

import (
	"context"
	"errors"
	"net/http"
	"sync"
	"time"

	"github.com/dkrasnov/spotiport/internal/client/spotify"
	"github.com/dkrasnov/spotiport/internal/config"
	"github.com/dkrasnov/spotiport/internal/extractor"
	"github.com/dkrasnov/spotiport/internal/filemanager"
	"github.com/dkrasnov/spotiport/internal/logger"
	"github.com/dkrasnov/spotiport/internal/lyrics"
	"github.com/dkrasnov/spotiport/internal/registry"
)

// Static error definitions for better error handling.
var (
	// ErrScopeRequired indicates an ingestion run without a scope.
	ErrScopeRequired = errors.New("ingestion requires a playlist URL, --liked, or --sync-all")
)

// Service runs the mirroring pipeline.
type Service interface {
	// Run executes the selected phases for the given scope.
	Run(ctx context.Context, request *RunRequest) error
	// Replace swaps the audio of an already-acquired file from an explicit
	// watch URL, preserving playlist placement.
	Replace(ctx context.Context, filePath, watchURL string) error
	// PrintRunSummary prints the end-of-run statistics banner.
	PrintRunSummary(ctx context.Context, scope Scope)
}

// ServiceImpl implements the pipeline with dependency-injected components.
type ServiceImpl struct {
	// cfg contains the application configuration.
	cfg *config.Config
	// reg is the global track registry.
	reg *registry.Registry
	// fileManager owns the on-disk library layout.
	fileManager filemanager.Manager
	// spotifyClient fetches playlists and catalog metadata.
	spotifyClient spotify.Client
	// matcher resolves tracks to watch URLs.
	matcher Matcher
	// lyricsResolver walks the lyrics provider chain.
	lyricsResolver lyrics.Resolver
	// extractor downloads audio via yt-dlp.
	extractor extractor.Extractor
	// reports writes the structured failure log files.
	reports *ReportWriter
	// coverClient fetches album art for tagging.
	coverClient *http.Client
	// stats tracks counters for the current run.
	stats *RunStatistics
	// statsMutex protects concurrent access to statistics.
	statsMutex *sync.Mutex
	// playlistExternalID caches the resolved id of a playlist-scoped run.
	playlistExternalID string
}

// NewService creates a pipeline service instance with dependency-injected
// components.
func NewService(
	cfg *config.Config,
	reg *registry.Registry,
	fileManager filemanager.Manager,
	spotifyClient spotify.Client,
	matcher Matcher,
	lyricsResolver lyrics.Resolver,
	extr extractor.Extractor,
) Service {
	return &ServiceImpl{
		cfg:            cfg,
		reg:            reg,
		fileManager:    fileManager,
		spotifyClient:  spotifyClient,
		matcher:        matcher,
		lyricsResolver: lyricsResolver,
		extractor:      extr,
		reports:        NewReportWriter(fileManager.LogsDir()),
		coverClient:    newCoverHTTPClient(),
		stats:          new(RunStatistics),
		statsMutex:     new(sync.Mutex),
	}
}

// Run executes the selected phases in canonical order. Later phases read
// their input from eligibility queries evaluated after the previous phase
// finished, so a partially-selected or interrupted run resumes cleanly.
func (s *ServiceImpl) Run(ctx context.Context, request *RunRequest) error {
	defer s.reports.Close()

	if request.Phases.Contains(PhaseIngest) && request.Scope.Kind == ScopeNone {
		return ErrScopeRequired
	}

	s.statsMutex.Lock()
	s.stats.StartTime = time.Now()
	s.statsMutex.Unlock()

	defer func() {
		s.statsMutex.Lock()
		s.stats.EndTime = time.Now()
		s.statsMutex.Unlock()
	}()

	for _, phase := range orderedPhases {
		if !request.Phases.Contains(phase) {
			continue
		}

		if err := ctx.Err(); err != nil {
			return err
		}

		var err error

		switch phase {
		case PhaseIngest:
			err = s.runIngest(ctx, request.Scope)
		case PhaseMatch:
			err = s.runMatch(ctx, request)
		case PhaseAcquire:
			err = s.runAcquire(ctx)
		case PhaseLyrics:
			err = s.runLyrics(ctx)
		case PhaseEmbed:
			err = s.runEmbed(ctx)
		}

		if err != nil {
			return err
		}
	}

	return s.runExports(ctx, request)
}

// runExports writes M3U files or physical copies after a playlist run.
func (s *ServiceImpl) runExports(ctx context.Context, request *RunRequest) error {
	if request.ExportM3UDir == "" && request.ExportCopyDir == "" {
		return nil
	}

	playlists, err := s.scopePlaylists(ctx, request.Scope)
	if err != nil {
		return err
	}

	for _, playlist := range playlists {
		entries, entriesErr := s.playlistLinkEntries(playlist.ExternalID)
		if entriesErr != nil {
			return entriesErr
		}

		if request.ExportM3UDir != "" {
			path, exportErr := s.fileManager.ExportPlaylistM3U(playlist.Name, entries, request.ExportM3UDir)
			if exportErr != nil {
				return exportErr
			}

			logger.Infof(ctx, "Exported playlist file: %s", path)
		}

		if request.ExportCopyDir != "" {
			if exportErr := s.fileManager.ExportPlaylistCopy(playlist.Name, entries, request.ExportCopyDir); exportErr != nil {
				return exportErr
			}

			logger.Infof(ctx, "Copied playlist %s to %s", playlist.Name, request.ExportCopyDir)
		}
	}

	return nil
}

// scopePlaylistExternalID resolves a playlist or liked scope to its registry
// external id, caching the remote lookup for the rest of the run.
func (s *ServiceImpl) scopePlaylistExternalID(ctx context.Context, scope Scope) (string, error) {
	if scope.Kind == ScopeLiked {
		return registry.LikedPlaylistID, nil
	}

	if s.playlistExternalID != "" {
		return s.playlistExternalID, nil
	}

	remote, err := s.spotifyClient.Playlist(ctx, scope.PlaylistRef)
	if err != nil {
		return "", err
	}

	s.playlistExternalID = remote.ID

	return remote.ID, nil
}

// scopePlaylists resolves the playlists a scope refers to.
func (s *ServiceImpl) scopePlaylists(ctx context.Context, scope Scope) ([]*registry.Playlist, error) {
	switch scope.Kind {
	case ScopePlaylist, ScopeLiked:
		externalID, err := s.scopePlaylistExternalID(ctx, scope)
		if err != nil {
			return nil, err
		}

		playlist, err := s.reg.GetPlaylist(externalID)
		if err != nil {
			return nil, err
		}

		return []*registry.Playlist{playlist}, nil
	case ScopeSyncAll:
		return s.reg.ListSyncablePlaylists(scope.IncludeLiked)
	default:
		return nil, nil
	}
}

// playlistLinkEntries builds the acquired-only export view of a playlist.
func (s *ServiceImpl) playlistLinkEntries(playlistExternalID string) ([]filemanager.LinkEntry, error) {
	entries, err := s.reg.GetPlaylistEntries(playlistExternalID)
	if err != nil {
		return nil, err
	}

	var links []filemanager.LinkEntry

	for _, entry := range entries {
		if !entry.Track.Acquired || entry.Track.FilePath == "" {
			continue
		}

		links = append(links, filemanager.LinkEntry{
			CanonicalPath:   entry.Track.FilePath,
			Position:        entry.Position,
			Title:           entry.Track.Metadata.Name,
			Artist:          entry.Track.Metadata.Artist,
			DurationSeconds: int(entry.Track.Metadata.DurationMS / 1000),
		})
	}

	return links, nil
}

// runWorkerPool fans tracks out to a bounded pool. Cancelling ctx stops
// queueing; in-flight tracks finish.
func (s *ServiceImpl) runWorkerPool(ctx context.Context, tracks []*registry.Track, work func(*registry.Track)) {
	workers := s.cfg.Acquisition.Workers
	if workers < 1 {
		workers = config.DefaultWorkers
	}

	semaphore := make(chan struct{}, workers)

	var waitGroup sync.WaitGroup

	for _, track := range tracks {
		select {
		case <-ctx.Done():
			waitGroup.Wait()

			return
		default:
		}

		waitGroup.Add(1)

		go func(current *registry.Track) {
			defer waitGroup.Done()

			semaphore <- struct{}{}

			defer func() {
				<-semaphore
			}()

			work(current)
		}(track)
	}

	waitGroup.Wait()
}
