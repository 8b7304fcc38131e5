package auth

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/go-rod/rod"

	"github.com/dkrasnov/spotiport/internal/logger"
)

const (
	// browserSlowMotionDelay is the delay between browser actions for visibility during debugging.
	browserSlowMotionDelay = 200 * time.Millisecond

	// youtubeMusicURL is the YouTube Music landing page.
	youtubeMusicURL = "https://music.youtube.com/"

	// loginCookieName marks an authenticated Google session. It is set on
	// .youtube.com once login completes.
	loginCookieName = "SAPISID"

	// loginPollInterval is the interval for polling the login status.
	loginPollInterval = 1 * time.Second

	// maxLoginWaitTime is the maximum time to wait for user to complete login.
	maxLoginWaitTime = 10 * time.Minute

	// sessionEstablishDelay is the delay after login to allow cookies to settle.
	sessionEstablishDelay = 2 * time.Second

	// browserCleanupDelay is the delay to wait for Chrome to release file locks before cleanup.
	browserCleanupDelay = 500 * time.Millisecond
)

// Static error definitions for better error handling.
var (
	// ErrLoginTimeout is returned when login takes too long.
	ErrLoginTimeout = errors.New("login timeout exceeded")

	// ErrBrowserClosed is returned when the browser is closed by the user.
	ErrBrowserClosed = errors.New("browser was closed by user")

	// ErrNoSessionCookies is returned when no YouTube session cookies exist after login.
	ErrNoSessionCookies = errors.New("no session cookies found - login may have failed")
)

// Service provides browser-based cookie capture.
type Service interface {
	// CaptureCookies opens a browser, waits for the user to log in to
	// YouTube, and writes the session cookies to outputPath.
	CaptureCookies(ctx context.Context, outputPath string) error
}

// ServiceImpl provides browser-based cookie capture for YouTube.
type ServiceImpl struct {
	browser *rod.Browser
	page    *rod.Page
	// tempDir stores the temporary profile directory for cleanup.
	tempDir string
}

// NewService creates a new browser authentication service.
func NewService() *ServiceImpl {
	return &ServiceImpl{}
}

// CaptureCookies opens a browser, waits for the user to log in to YouTube,
// and writes the session cookies to outputPath in Netscape format.
func (s *ServiceImpl) CaptureCookies(ctx context.Context, outputPath string) error {
	logger.Info(ctx, "Starting browser-based authentication")

	if err := s.initBrowser(ctx); err != nil {
		return fmt.Errorf("failed to initialize browser: %w", err)
	}

	defer s.cleanup(ctx)

	if err := s.waitForUserLogin(ctx); err != nil {
		return fmt.Errorf("login failed: %w", err)
	}

	if err := s.exportCookies(ctx, outputPath); err != nil {
		return fmt.Errorf("failed to export cookies: %w", err)
	}

	logger.Infof(ctx, "Session cookies written to %s", outputPath)

	return nil
}
