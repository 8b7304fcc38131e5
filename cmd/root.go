package cmd

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"

	"github.com/dkrasnov/spotiport/internal/app"
	"github.com/dkrasnov/spotiport/internal/apperrors"
	"github.com/dkrasnov/spotiport/internal/config"
	"github.com/dkrasnov/spotiport/internal/logger"
	"github.com/dkrasnov/spotiport/internal/service/pipeline"
)

// Static error definitions for better error handling.
var (
	// ErrConflictingScope indicates that more than one ingestion target was given.
	ErrConflictingScope = errors.New("a playlist URL cannot be combined with --liked or --sync-all")
)

var (
	//nolint:gochecknoglobals // It is required for configuration initialization before the application starts.
	configFilenameFromFlag string

	//nolint:gochecknoglobals,lll // It is initialized once during the application's startup and shared across the command execution logic.
	appConfig *config.Config

	//nolint:gochecknoglobals,lll // Cobra command requires a global definition for proper command-line parsing and execution.
	rootCmd = &cobra.Command{
		Use:   "spotiport [flags] [playlist-url]",
		Short: "Mirror Spotify playlists into a local, fully tagged music library.",
		Long: `Spotiport mirrors Spotify playlists and liked songs into a local library.

Each run walks up to five phases:
- ingest:  fetch playlist contents from Spotify into the track registry
- match:   resolve each track to its YouTube Music counterpart
- acquire: download audio via yt-dlp into deduplicated canonical files
- lyrics:  fetch lyrics from LRCLIB, lyrics.ovh, and ChartLyrics
- embed:   write metadata, cover art, and lyrics into the audio files

Playlists are exposed as folders of position-prefixed hard links, so a track
shared by ten playlists is stored exactly once. Interrupted runs resume where
they stopped.`,
		Args:             cobra.MaximumNArgs(1),
		SilenceUsage:     true,
		SilenceErrors:    true,
		PersistentPreRun: initConfig,
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := bindFlagsToConfig(cmd.Flags(), appConfig); err != nil {
				return apperrors.New(apperrors.KindConfig, err)
			}

			request, userAuth, err := buildRunRequest(cmd.Flags(), args)
			if err != nil {
				return apperrors.New(apperrors.KindConfig, err)
			}

			return app.ExecuteRootCommand(cmd.Context(), appConfig, request, userAuth)
		},
	}
)

// Execute executes the root command and maps the outcome to an exit code.
func Execute() {
	signals := []os.Signal{syscall.SIGHUP, syscall.SIGINT, syscall.SIGTERM}
	ctx, stop := signal.NotifyContext(context.Background(), signals...)

	err := rootCmd.ExecuteContext(ctx)

	stop()

	if err != nil && !errors.Is(err, context.Canceled) {
		logger.Errorf(ctx, "%v", err)

		if apperrors.IsAuth(err) && apperrors.KindOf(err) == apperrors.KindSpotify {
			logger.Errorf(ctx,
				"Check spotify.client_id and spotify.client_secret in your configuration, "+
					"or re-run with --user-auth for liked songs access.")
		}
	}

	logger.Close()
	os.Exit(apperrors.ExitCode(err))
}

//nolint:gochecknoinits // Cobra requires the init function to set up flags before the command is executed.
func init() {
	rootCmd.PersistentFlags().StringVarP(
		&configFilenameFromFlag,
		"config",
		"c",
		"",
		fmt.Sprintf("path to the configuration file (default is '%s')",
			config.DefaultConfigFilename))

	registerRunFlags(rootCmd.Flags())
}

// registerRunFlags declares the run flags of the root command.
func registerRunFlags(rootCmdFlags *pflag.FlagSet) {
	rootCmdFlags.Bool(
		"liked",
		false,
		"mirror the account's liked songs (requires --user-auth on first run).")

	rootCmdFlags.Bool(
		"sync-all",
		false,
		"re-sync every playlist known to the registry; add --liked to include liked songs.")

	rootCmdFlags.Bool(
		"user-auth",
		false,
		"authorize via browser consent instead of application credentials.")

	rootCmdFlags.String(
		"phases",
		"",
		"comma-separated subset of phases to run: ingest,match,acquire,lyrics,embed (default all).")

	rootCmdFlags.Bool(
		"force-rematch",
		false,
		"re-queue tracks whose previous match attempt found nothing acceptable.")

	rootCmdFlags.IntP(
		"workers",
		"w",
		0,
		"worker pool size for the parallel phases.")

	rootCmdFlags.String(
		"export-m3u",
		"",
		"write an M3U file per synced playlist into the given directory.")

	rootCmdFlags.String(
		"export-copy",
		"",
		"copy each synced playlist's audio files into the given directory.")
}

func initConfig(cmd *cobra.Command, _ []string) {
	var err error

	appConfig, err = config.LoadConfig(configFilenameFromFlag)
	if err != nil {
		logger.Fatalf(cmd.Context(), "Failed to load configuration: %v", err)
	}
}

func bindFlagsToConfig(flags *pflag.FlagSet, cfg *config.Config) error {
	if flag := flags.Lookup("workers"); flag != nil && flag.Changed {
		cfg.Acquisition.Workers, _ = flags.GetInt("workers")
	}

	if err := config.ValidateConfig(cfg); err != nil {
		return err
	}

	logger.SetLevel(cfg.ParsedLogLevel)

	return nil
}

// buildRunRequest translates flags and the optional playlist argument into a
// pipeline run request.
func buildRunRequest(flags *pflag.FlagSet, args []string) (*pipeline.RunRequest, bool, error) {
	liked, _ := flags.GetBool("liked")
	syncAll, _ := flags.GetBool("sync-all")
	userAuth, _ := flags.GetBool("user-auth")
	forceRematch, _ := flags.GetBool("force-rematch")
	phasesValue, _ := flags.GetString("phases")
	exportM3U, _ := flags.GetString("export-m3u")
	exportCopy, _ := flags.GetString("export-copy")

	phases, err := pipeline.ParsePhases(phasesValue)
	if err != nil {
		return nil, false, err
	}

	scope := pipeline.Scope{Kind: pipeline.ScopeNone}

	switch {
	case len(args) == 1:
		if liked || syncAll {
			return nil, false, ErrConflictingScope
		}

		scope = pipeline.Scope{Kind: pipeline.ScopePlaylist, PlaylistRef: args[0]}
	case syncAll:
		scope = pipeline.Scope{Kind: pipeline.ScopeSyncAll, IncludeLiked: liked}
	case liked:
		scope = pipeline.Scope{Kind: pipeline.ScopeLiked}
	}

	return &pipeline.RunRequest{
		Scope:         scope,
		Phases:        phases,
		ForceRematch:  forceRematch,
		ExportM3UDir:  exportM3U,
		ExportCopyDir: exportCopy,
	}, userAuth, nil
}
