package app

import (
	"context"
	"path/filepath"

	"github.com/dkrasnov/spotiport/internal/client/spotify"
	"github.com/dkrasnov/spotiport/internal/client/ytmusic"
	"github.com/dkrasnov/spotiport/internal/config"
	"github.com/dkrasnov/spotiport/internal/constants"
	"github.com/dkrasnov/spotiport/internal/extractor"
	"github.com/dkrasnov/spotiport/internal/filemanager"
	"github.com/dkrasnov/spotiport/internal/logger"
	"github.com/dkrasnov/spotiport/internal/lyrics"
	"github.com/dkrasnov/spotiport/internal/registry"
	"github.com/dkrasnov/spotiport/internal/service/pipeline"
)

// ExecuteRootCommand is the entry point for a mirroring run. It initializes
// the library layout, the registry, and the catalog clients, then executes
// the requested pipeline phases.
func ExecuteRootCommand(ctx context.Context, cfg *config.Config, request *pipeline.RunRequest, userAuth bool) error {
	fileManager := filemanager.NewManager(cfg.Output.Directory)
	if err := fileManager.EnsureLayout(); err != nil {
		return err
	}

	if _, _, err := logger.AttachFileSinks(fileManager.LogsDir()); err != nil {
		return err
	}

	reg, err := registry.Open(filepath.Join(fileManager.Root(), constants.DatabaseFilename))
	if err != nil {
		return err
	}

	defer reg.Close() //nolint:errcheck // Error on close is not critical here.

	var spotifyClient spotify.Client

	if userAuth {
		spotifyClient, err = spotify.NewUserClient(ctx, cfg)
	} else {
		spotifyClient, err = spotify.NewClient(ctx, cfg)
	}

	if err != nil {
		return err
	}

	s := pipeline.NewService(
		cfg,
		reg,
		fileManager,
		spotifyClient,
		pipeline.NewMatcher(ytmusic.NewClient()),
		lyrics.NewDefaultResolver(),
		extractor.NewExtractor(cfg.Acquisition.CookieFile),
	)

	// Ensure statistics are ALWAYS printed, even on panic or interruption.
	defer func() {
		if r := recover(); r != nil {
			logger.Errorf(ctx, "Panic recovered: %v", r)
		}

		s.PrintRunSummary(ctx, request.Scope)
	}()

	return s.Run(ctx, request)
}

// ExecuteReplaceCommand swaps the audio of one library file from an explicit
// watch URL. The replacement path touches only the registry, the extractor,
// and the file manager, so no catalog clients are initialized.
func ExecuteReplaceCommand(ctx context.Context, cfg *config.Config, filePath, watchURL string) error {
	fileManager := filemanager.NewManager(cfg.Output.Directory)
	if err := fileManager.EnsureLayout(); err != nil {
		return err
	}

	reg, err := registry.Open(filepath.Join(fileManager.Root(), constants.DatabaseFilename))
	if err != nil {
		return err
	}

	defer reg.Close() //nolint:errcheck // Error on close is not critical here.

	s := pipeline.NewService(
		cfg,
		reg,
		fileManager,
		nil,
		nil,
		nil,
		extractor.NewExtractor(cfg.Acquisition.CookieFile),
	)

	return s.Replace(ctx, filePath, watchURL)
}
