package lyrics

//go:generate $MOCKGEN -source=resolver.go -destination=mocks/resolver_mock.go

import (
	"context"
	"errors"

	"github.com/dkrasnov/spotiport/internal/logger"
)

// Resolver walks the provider chain until one returns lyrics.
type Resolver interface {
	// Resolve returns the first successful result, or nil when every
	// provider came up empty. Only a cancelled context is an error.
	Resolve(ctx context.Context, artist, title string, durationSeconds int) (*Result, error)
}

// ResolverImpl implements Resolver over an ordered provider list.
type ResolverImpl struct {
	// providers is the chain in priority order.
	providers []Provider
}

// NewResolver creates a resolver over the given chain.
func NewResolver(providers ...Provider) Resolver {
	return &ResolverImpl{providers: providers}
}

// NewDefaultResolver creates the bundled chain: LRCLIB (synced) first, then
// the plain-text services.
func NewDefaultResolver() Resolver {
	return NewResolver(
		NewLRCLIBProvider(),
		NewLyricsOVHProvider(),
		NewChartLyricsProvider(),
	)
}

// Resolve walks the chain. Provider errors are logged and skipped so one
// flaky service never hides lyrics available elsewhere.
func (r *ResolverImpl) Resolve(ctx context.Context, artist, title string, durationSeconds int) (*Result, error) {
	for _, provider := range r.providers {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		result, err := provider.Fetch(ctx, artist, title, durationSeconds)
		if err != nil {
			if !errors.Is(err, ErrNotFound) {
				logger.Warnf(ctx, "Lyrics provider %s failed for %s - %s: %v", provider.Name(), artist, title, err)
			}

			continue
		}

		logger.Debugf(ctx, "Lyrics for %s - %s found via %s (synced: %t)", artist, title, result.Source, result.Synced)

		return result, nil
	}

	return nil, nil
}
