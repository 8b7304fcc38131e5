package auth

import (
	"context"
	"fmt"
	"time"

	"github.com/dkrasnov/spotiport/internal/logger"
)

// waitForUserLogin navigates to YouTube Music and waits for the user to
// complete the Google sign-in flow.
func (s *ServiceImpl) waitForUserLogin(ctx context.Context) error {
	logger.Info(ctx, "Opening YouTube Music...")
	logger.Debugf(ctx, "Navigating to %s", youtubeMusicURL)

	s.page.MustNavigate(youtubeMusicURL)

	logger.Info(ctx, "")
	logger.Info(ctx, "╔══════════════════════════════════════════════════════════════════╗")
	logger.Info(ctx, "║                      LOGIN INSTRUCTIONS                          ║")
	logger.Info(ctx, "╚══════════════════════════════════════════════════════════════════╝")
	logger.Info(ctx, "")
	logger.Info(ctx, "Please complete the login in the browser:")
	logger.Info(ctx, "")
	logger.Info(ctx, "1. Click 'Sign in' in the top right corner")
	logger.Info(ctx, "2. Enter your Google account email and password")
	logger.Info(ctx, "3. Complete two-factor verification if prompted")
	logger.Info(ctx, "4. Wait until YouTube Music shows your avatar")
	logger.Info(ctx, "")
	logger.Info(ctx, "Do NOT close the browser - the tool detects login automatically.")
	logger.Info(ctx, "")
	logger.Info(ctx, "Waiting for login to complete...")
	logger.Info(ctx, "")

	if err := s.waitForLoginComplete(ctx); err != nil {
		return err
	}

	logger.Info(ctx, "Login completed successfully!")

	// Give the session a moment to fully establish.
	time.Sleep(sessionEstablishDelay)

	return nil
}

// waitForLoginComplete polls the browser until the session cookie appears.
func (s *ServiceImpl) waitForLoginComplete(ctx context.Context) error {
	startTime := time.Now()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		default:
		}

		if time.Since(startTime) > maxLoginWaitTime {
			return fmt.Errorf("%w: waited for %v", ErrLoginTimeout, maxLoginWaitTime)
		}

		if !s.isBrowserAlive(ctx) {
			return ErrBrowserClosed
		}

		if s.hasSessionCookie(ctx) {
			return nil
		}

		time.Sleep(loginPollInterval)
	}
}

// hasSessionCookie checks whether the authenticated-session cookie is set.
func (s *ServiceImpl) hasSessionCookie(ctx context.Context) bool {
	defer func() {
		if r := recover(); r != nil {
			logger.Debugf(ctx, "hasSessionCookie panic recovered: %v", r)
		}
	}()

	cookies, err := s.page.Cookies([]string{youtubeMusicURL})
	if err != nil {
		return false
	}

	for _, cookie := range cookies {
		if cookie.Name == loginCookieName && cookie.Value != "" {
			return true
		}
	}

	return false
}
