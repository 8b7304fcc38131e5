package spotify

//go:generate $MOCKGEN -source=client.go -destination=mocks/client_mock.go

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"sync/atomic"

	lru "github.com/hashicorp/golang-lru/v2"
	spotifyapi "github.com/zmb3/spotify/v2"
	spotifyauth "github.com/zmb3/spotify/v2/auth"
	"golang.org/x/oauth2"
	"golang.org/x/oauth2/clientcredentials"

	"github.com/dkrasnov/spotiport/internal/apperrors"
	"github.com/dkrasnov/spotiport/internal/config"
	http_transport "github.com/dkrasnov/spotiport/internal/transport/http"
	"github.com/dkrasnov/spotiport/internal/utils"
)

// Client defines the read-only interface to the Spotify Web API.
type Client interface {
	// Playlist fetches playlist metadata by URL, URI, or bare id.
	Playlist(ctx context.Context, ref string) (*Playlist, error)
	// AllPlaylistItems fetches every playlist item, following pagination.
	AllPlaylistItems(ctx context.Context, ref string) ([]*PlaylistItem, error)
	// AllSavedItems fetches the account's saved tracks; needs user authorization.
	AllSavedItems(ctx context.Context) ([]*PlaylistItem, error)
	// Track fetches one track by URL, URI, or bare id.
	Track(ctx context.Context, ref string) (*Track, error)
	// Artist fetches one artist by URL, URI, or bare id.
	Artist(ctx context.Context, ref string) (*Artist, error)
	// Album fetches one album by URL, URI, or bare id.
	Album(ctx context.Context, ref string) (*Album, error)
}

// ClientImpl implements Client on top of the official Web API bindings.
type ClientImpl struct {
	// api is the authenticated Web API client.
	api *spotifyapi.Client
	// userAuthorized marks the user-delegated credential mode.
	userAuthorized bool
	// artistsCache caches artist lookups; genres are fetched once per artist.
	artistsCache *lru.Cache[string, *Artist]
	// albumsCache caches album lookups shared by tracks of one album.
	albumsCache *lru.Cache[string, *Album]
}

const (
	// playlistItemsPageSize is the maximum page size of the playlist items endpoint.
	playlistItemsPageSize = 100
	// savedItemsPageSize is the maximum page size of the saved tracks endpoint.
	savedItemsPageSize = 50
	// artistsCacheSize bounds the artist cache; one entry per distinct artist in a run.
	artistsCacheSize = 2000
	// albumsCacheSize bounds the album cache; albums repeat heavily within playlists.
	albumsCacheSize = 5000
)

// initialized guards against a second client in the same process. Token
// sources refresh in the background, so two clients would race on quota.
var initialized atomic.Bool

func claimSingleton() error {
	if !initialized.CompareAndSwap(false, true) {
		return ErrAlreadyInitialized
	}

	return nil
}

func releaseSingleton() {
	initialized.Store(false)
}

func baseHTTPClient() *http.Client {
	return &http.Client{
		Transport: http_transport.NewUserAgentInjector(
			http_transport.NewLogTransport(http.DefaultTransport, 0),
			utils.NewSimpleUserAgentProvider(http_transport.DefaultUserAgent)),
		Timeout: http_transport.DefaultTimeout,
	}
}

// NewClient creates a client in application-credentials mode. Public
// playlists only; saved-items access requires NewUserClient.
func NewClient(ctx context.Context, cfg *config.Config) (Client, error) {
	if err := claimSingleton(); err != nil {
		return nil, apperrors.New(apperrors.KindSpotify, err)
	}

	credentials := &clientcredentials.Config{
		ClientID:     cfg.Spotify.ClientID,
		ClientSecret: cfg.Spotify.ClientSecret,
		TokenURL:     spotifyauth.TokenURL,
	}

	// The token exchange and all API calls share one instrumented transport.
	ctx = context.WithValue(ctx, oauth2.HTTPClient, baseHTTPClient())

	token, err := credentials.Token(ctx)
	if err != nil {
		releaseSingleton()

		return nil, apperrors.NewAuth(apperrors.KindSpotify, fmt.Errorf("failed to obtain app token: %w", err))
	}

	httpClient := spotifyauth.New().Client(ctx, token)

	return newClientImpl(httpClient, false)
}

// NewUserClient creates a client in user-delegated mode via a browser
// consent flow with a local callback listener.
func NewUserClient(ctx context.Context, cfg *config.Config) (Client, error) {
	if err := claimSingleton(); err != nil {
		return nil, apperrors.New(apperrors.KindSpotify, err)
	}

	ctx = context.WithValue(ctx, oauth2.HTTPClient, baseHTTPClient())

	httpClient, err := authorizeUser(ctx, cfg)
	if err != nil {
		releaseSingleton()

		return nil, apperrors.NewAuth(apperrors.KindSpotify, err)
	}

	return newClientImpl(httpClient, true)
}

func newClientImpl(httpClient *http.Client, userAuthorized bool) (Client, error) {
	artistsCache, err := lru.New[string, *Artist](artistsCacheSize)
	if err != nil {
		releaseSingleton()

		return nil, fmt.Errorf("failed to create artists cache: %w", err)
	}

	albumsCache, err := lru.New[string, *Album](albumsCacheSize)
	if err != nil {
		releaseSingleton()

		return nil, fmt.Errorf("failed to create albums cache: %w", err)
	}

	return &ClientImpl{
		api:            spotifyapi.New(httpClient, spotifyapi.WithRetry(true)),
		userAuthorized: userAuthorized,
		artistsCache:   artistsCache,
		albumsCache:    albumsCache,
	}, nil
}

// Playlist fetches playlist metadata by URL, URI, or bare id.
func (c *ClientImpl) Playlist(ctx context.Context, ref string) (*Playlist, error) {
	id, err := resolveID(ref, "playlist")
	if err != nil {
		return nil, apperrors.New(apperrors.KindSpotify, err)
	}

	full, err := c.api.GetPlaylist(ctx, spotifyapi.ID(id))
	if err != nil {
		return nil, apperrors.New(apperrors.KindSpotify, fmt.Errorf("failed to fetch playlist %s: %w", id, err))
	}

	return &Playlist{
		ID:          string(full.ID),
		Name:        full.Name,
		ExternalURL: full.ExternalURLs["spotify"],
		TotalTracks: int(full.Tracks.Total),
	}, nil
}

// AllPlaylistItems fetches every playlist item, following pagination in
// upstream order. Entries without a track (episodes, removed content) come
// back with a nil Track so the caller can count skips.
func (c *ClientImpl) AllPlaylistItems(ctx context.Context, ref string) ([]*PlaylistItem, error) {
	id, err := resolveID(ref, "playlist")
	if err != nil {
		return nil, apperrors.New(apperrors.KindSpotify, err)
	}

	page, err := c.api.GetPlaylistItems(ctx, spotifyapi.ID(id), spotifyapi.Limit(playlistItemsPageSize))
	if err != nil {
		return nil, apperrors.New(apperrors.KindSpotify, fmt.Errorf("failed to fetch playlist items: %w", err))
	}

	var items []*PlaylistItem

	for {
		for i := range page.Items {
			item := &page.Items[i]

			converted := &PlaylistItem{
				AddedAt: parseAddedAt(item.AddedAt),
				IsLocal: item.IsLocal,
			}
			if item.Track.Track != nil {
				converted.Track = convertFullTrack(item.Track.Track)
			}

			items = append(items, converted)
		}

		err = c.api.NextPage(ctx, page)
		if errors.Is(err, spotifyapi.ErrNoMorePages) {
			break
		}

		if err != nil {
			return nil, apperrors.New(apperrors.KindSpotify, fmt.Errorf("failed to fetch playlist items page: %w", err))
		}
	}

	return items, nil
}

// AllSavedItems fetches the account's saved tracks, newest first, following
// pagination. Requires the user-delegated credential mode.
func (c *ClientImpl) AllSavedItems(ctx context.Context) ([]*PlaylistItem, error) {
	if !c.userAuthorized {
		return nil, apperrors.NewAuth(apperrors.KindSpotify, ErrUserAuthRequired)
	}

	page, err := c.api.CurrentUsersTracks(ctx, spotifyapi.Limit(savedItemsPageSize))
	if err != nil {
		return nil, apperrors.New(apperrors.KindSpotify, fmt.Errorf("failed to fetch saved tracks: %w", err))
	}

	var items []*PlaylistItem

	for {
		for i := range page.Tracks {
			saved := &page.Tracks[i]

			items = append(items, &PlaylistItem{
				Track:   convertFullTrack(&saved.FullTrack),
				AddedAt: parseAddedAt(saved.AddedAt),
			})
		}

		err = c.api.NextPage(ctx, page)
		if errors.Is(err, spotifyapi.ErrNoMorePages) {
			break
		}

		if err != nil {
			return nil, apperrors.New(apperrors.KindSpotify, fmt.Errorf("failed to fetch saved tracks page: %w", err))
		}
	}

	return items, nil
}

// Track fetches one track by URL, URI, or bare id.
func (c *ClientImpl) Track(ctx context.Context, ref string) (*Track, error) {
	id, err := resolveID(ref, "track")
	if err != nil {
		return nil, apperrors.New(apperrors.KindSpotify, err)
	}

	full, err := c.api.GetTrack(ctx, spotifyapi.ID(id))
	if err != nil {
		return nil, apperrors.New(apperrors.KindSpotify, fmt.Errorf("failed to fetch track %s: %w", id, err))
	}

	return convertFullTrack(full), nil
}

// Artist fetches one artist by URL, URI, or bare id. Lookups are cached.
func (c *ClientImpl) Artist(ctx context.Context, ref string) (*Artist, error) {
	id, err := resolveID(ref, "artist")
	if err != nil {
		return nil, apperrors.New(apperrors.KindSpotify, err)
	}

	if cached, ok := c.artistsCache.Get(id); ok {
		return cached, nil
	}

	full, err := c.api.GetArtist(ctx, spotifyapi.ID(id))
	if err != nil {
		return nil, apperrors.New(apperrors.KindSpotify, fmt.Errorf("failed to fetch artist %s: %w", id, err))
	}

	artist := convertFullArtist(full)
	c.artistsCache.Add(id, artist)

	return artist, nil
}

// Album fetches one album by URL, URI, or bare id. Lookups are cached.
func (c *ClientImpl) Album(ctx context.Context, ref string) (*Album, error) {
	id, err := resolveID(ref, "album")
	if err != nil {
		return nil, apperrors.New(apperrors.KindSpotify, err)
	}

	if cached, ok := c.albumsCache.Get(id); ok {
		return cached, nil
	}

	full, err := c.api.GetAlbum(ctx, spotifyapi.ID(id))
	if err != nil {
		return nil, apperrors.New(apperrors.KindSpotify, fmt.Errorf("failed to fetch album %s: %w", id, err))
	}

	album := convertFullAlbum(full)
	c.albumsCache.Add(id, album)

	return album, nil
}
