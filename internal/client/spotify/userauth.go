package spotify

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"time"

	"github.com/google/uuid"
	spotifyauth "github.com/zmb3/spotify/v2/auth"

	"github.com/dkrasnov/spotiport/internal/config"
	"github.com/dkrasnov/spotiport/internal/logger"
)

const (
	// authCallbackAddr is the local listener for the consent redirect.
	// It must match a redirect URI registered for the application.
	authCallbackAddr = "127.0.0.1:8914"
	// authCallbackPath is the consent redirect path.
	authCallbackPath = "/callback"
	// authShutdownTimeout bounds the callback server teardown.
	authShutdownTimeout = 5 * time.Second
)

// authorizeUser runs the authorization-code consent flow: it prints the
// consent URL, waits for the browser redirect on a local listener, and
// exchanges the code for a token. Cancelling ctx aborts the wait.
func authorizeUser(ctx context.Context, cfg *config.Config) (*http.Client, error) {
	authenticator := spotifyauth.New(
		spotifyauth.WithClientID(cfg.Spotify.ClientID),
		spotifyauth.WithClientSecret(cfg.Spotify.ClientSecret),
		spotifyauth.WithRedirectURL("http://"+authCallbackAddr+authCallbackPath),
		spotifyauth.WithScopes(
			spotifyauth.ScopeUserLibraryRead,
			spotifyauth.ScopePlaylistReadPrivate,
			spotifyauth.ScopePlaylistReadCollaborative,
		),
	)

	state := uuid.NewString()

	type callbackResult struct {
		client *http.Client
		err    error
	}

	results := make(chan callbackResult, 1)
	mux := http.NewServeMux()
	mux.HandleFunc(authCallbackPath, func(w http.ResponseWriter, r *http.Request) {
		if received := r.FormValue("state"); received != state {
			http.Error(w, "state mismatch", http.StatusForbidden)
			results <- callbackResult{err: ErrAuthCallbackState}

			return
		}

		token, err := authenticator.Token(r.Context(), state, r)
		if err != nil {
			http.Error(w, "authorization failed", http.StatusForbidden)
			results <- callbackResult{err: fmt.Errorf("failed to exchange authorization code: %w", err)}

			return
		}

		fmt.Fprintln(w, "Authorization complete, you can close this tab.")
		results <- callbackResult{client: authenticator.Client(ctx, token)}
	})

	listener, err := net.Listen("tcp", authCallbackAddr)
	if err != nil {
		return nil, fmt.Errorf("failed to start callback listener: %w", err)
	}

	server := &http.Server{
		Handler:           mux,
		ReadHeaderTimeout: authShutdownTimeout,
	}

	go func() {
		if serveErr := server.Serve(listener); serveErr != nil && !errors.Is(serveErr, http.ErrServerClosed) {
			results <- callbackResult{err: fmt.Errorf("callback server failed: %w", serveErr)}
		}
	}()

	defer func() {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), authShutdownTimeout)
		defer cancel()

		_ = server.Shutdown(shutdownCtx)
	}()

	logger.Infof(ctx, "Open this URL in your browser to authorize access:\n%s", authenticator.AuthURL(state))

	select {
	case <-ctx.Done():
		return nil, ctx.Err()
	case result := <-results:
		return result.client, result.err
	}
}
