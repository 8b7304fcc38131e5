package cmd

import (
	"github.com/spf13/cobra"

	"github.com/dkrasnov/spotiport/internal/app"
)

// defaultCookieFilename is where captured session cookies land by default.
const defaultCookieFilename = "cookies.txt"

var (
	//nolint:gochecknoglobals // Cobra command requires a global definition.
	authOutputPath string

	//nolint:gochecknoglobals // Cobra command requires a global definition.
	authCmd = &cobra.Command{
		Use:   "auth",
		Short: "Log in to YouTube and capture session cookies for yt-dlp",
		Long: `Opens a browser window for you to log in to YouTube Music.

The login process:
1. Browser opens at https://music.youtube.com/
2. Click 'Sign in' and complete the Google login flow
3. Wait for authentication to complete

After successful login, the session cookies are exported in Netscape
cookies.txt format. Point acquisition.cookie_file at the exported file to
download age-restricted or premium-quality audio.`,
		Args: cobra.NoArgs,
		// Cookie capture works without a configuration file.
		PersistentPreRun: func(_ *cobra.Command, _ []string) {},
		RunE: func(cmd *cobra.Command, _ []string) error {
			return app.ExecuteAuthCommand(cmd.Context(), authOutputPath)
		},
	}
)

//nolint:gochecknoinits // Cobra requires the init function to set up commands.
func init() {
	authCmd.Flags().StringVarP(
		&authOutputPath,
		"output",
		"o",
		defaultCookieFilename,
		"path to write the captured cookies to.")

	rootCmd.AddCommand(authCmd)
}
