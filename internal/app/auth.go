package app

import (
	"context"
	"path/filepath"

	"github.com/dkrasnov/spotiport/internal/config"
	"github.com/dkrasnov/spotiport/internal/logger"
	"github.com/dkrasnov/spotiport/internal/service/auth"
)

// ExecuteAuthCommand runs the browser login flow, writes the captured YouTube
// session cookies to outputPath, and records the path in the configuration.
func ExecuteAuthCommand(ctx context.Context, outputPath string) error {
	authService := auth.NewService()

	if err := authService.CaptureCookies(ctx, outputPath); err != nil {
		return err
	}

	cookiePath, err := filepath.Abs(outputPath)
	if err != nil {
		cookiePath = outputPath
	}

	if err = config.SaveCookieFilePath(cookiePath); err != nil {
		logger.Warnf(ctx, "Failed to update configuration: %v", err)
		logger.Info(ctx, "Point the downloader at the cookie file manually:")
		logger.Info(ctx, "")
		logger.Info(ctx, "acquisition:")
		logger.Infof(ctx, "  cookie_file: %s", cookiePath)

		return nil
	}

	logger.Info(ctx, "Configuration updated successfully!")
	logger.Info(ctx, "Authentication complete! The next run will use the captured cookies.")

	return nil
}
