package cmd

import (
	"github.com/spf13/cobra"

	"github.com/dkrasnov/spotiport/internal/app"
	"github.com/dkrasnov/spotiport/internal/apperrors"
)

var (
	//nolint:gochecknoglobals // Cobra command requires a global definition.
	replaceCmd = &cobra.Command{
		Use:   "replace <file> <youtube-url>",
		Short: "Replace a library file's audio with a specific YouTube video",
		Long: `Downloads the given YouTube URL and swaps it in over an existing library
file. Use this to fix a wrong automatic match: playlist hard links keep
working because only the file content changes.

When the file is tracked in the registry, the new URL is recorded and the
file is re-queued for tagging. Run the embed phase afterwards:

  spotiport --phases embed`,
		Args: cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := bindFlagsToConfig(cmd.Flags(), appConfig); err != nil {
				return apperrors.New(apperrors.KindConfig, err)
			}

			return app.ExecuteReplaceCommand(cmd.Context(), appConfig, args[0], args[1])
		},
	}
)

//nolint:gochecknoinits // Cobra requires the init function to set up commands.
func init() {
	rootCmd.AddCommand(replaceCmd)
}
