package pipeline

import (
	"context"
	"sort"
	"strconv"

	"github.com/dkrasnov/spotiport/internal/client/spotify"
	"github.com/dkrasnov/spotiport/internal/logger"
	"github.com/dkrasnov/spotiport/internal/registry"
)

// runIngest fetches the scoped playlists from Spotify and writes them into
// the registry. Ingestion is sequential: it is API-bound and order matters.
func (s *ServiceImpl) runIngest(ctx context.Context, scope Scope) error {
	switch scope.Kind {
	case ScopePlaylist:
		return s.ingestPlaylist(ctx, scope.PlaylistRef)
	case ScopeLiked:
		return s.ingestLiked(ctx)
	case ScopeSyncAll:
		return s.ingestAll(ctx, scope.IncludeLiked)
	default:
		return ErrScopeRequired
	}
}

// ingestPlaylist mirrors one playlist into the registry.
func (s *ServiceImpl) ingestPlaylist(ctx context.Context, ref string) error {
	remote, err := s.spotifyClient.Playlist(ctx, ref)
	if err != nil {
		return err
	}

	s.playlistExternalID = remote.ID

	if err = s.reg.UpsertPlaylist(remote.ID, remote.ExternalURL, remote.Name); err != nil {
		return err
	}

	logger.Infof(ctx, "Ingesting playlist %q (%d item(s))", remote.Name, remote.TotalTracks)

	items, err := s.spotifyClient.AllPlaylistItems(ctx, remote.ID)
	if err != nil {
		return err
	}

	return s.ingestItems(ctx, remote.ID, remote.Name, items)
}

// ingestLiked mirrors the saved-items pseudo-playlist into the registry.
func (s *ServiceImpl) ingestLiked(ctx context.Context) error {
	if err := s.reg.EnsureLikedPlaylist(); err != nil {
		return err
	}

	items, err := s.spotifyClient.AllSavedItems(ctx)
	if err != nil {
		return err
	}

	logger.Infof(ctx, "Ingesting Liked Songs (%d item(s))", len(items))

	return s.ingestItems(ctx, registry.LikedPlaylistID, "Liked Songs", items)
}

// ingestAll re-syncs every known playlist, continuing past per-playlist
// failures so one broken playlist does not strand the rest.
func (s *ServiceImpl) ingestAll(ctx context.Context, includeLiked bool) error {
	playlists, err := s.reg.ListSyncablePlaylists(includeLiked)
	if err != nil {
		return err
	}

	for _, playlist := range playlists {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return ctxErr
		}

		var syncErr error

		if playlist.ExternalID == registry.LikedPlaylistID {
			syncErr = s.ingestLiked(ctx)
		} else {
			syncErr = s.ingestPlaylist(ctx, playlist.ExternalID)
		}

		if syncErr != nil {
			logger.Errorf(ctx, "Failed to sync playlist %q: %v", playlist.Name, syncErr)
		}
	}

	// A sync-all run targets every playlist, so a single-playlist cache
	// from an individual sync must not leak into statistics.
	s.playlistExternalID = ""

	return nil
}

// ingestItems writes the fetched playlist items into the registry, appending
// new tracks after the current tail and pruning links for removed ones.
func (s *ServiceImpl) ingestItems(
	ctx context.Context,
	playlistExternalID, playlistName string,
	items []*spotify.PlaylistItem,
) error {
	valid := make([]*spotify.PlaylistItem, 0, len(items))

	for _, item := range items {
		if item.Track == nil || item.IsLocal || item.Track.DurationMS <= 0 {
			s.incrementSkipped()

			continue
		}

		valid = append(valid, item)
	}

	// Oldest additions first so append order matches listening history.
	sort.SliceStable(valid, func(i, j int) bool {
		if valid[i].AddedAt == nil || valid[j].AddedAt == nil {
			return valid[j].AddedAt == nil && valid[i].AddedAt != nil
		}

		return valid[i].AddedAt.Before(*valid[j].AddedAt)
	})

	snapshot, err := s.reg.GetPlaylistTracksSnapshot(playlistExternalID)
	if err != nil {
		return err
	}

	maxPosition, err := s.reg.MaxPlaylistPosition(playlistExternalID)
	if err != nil {
		return err
	}

	validSet := make(map[string]struct{}, len(valid))
	newLinks := 0

	for _, item := range valid {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return ctxErr
		}

		track := item.Track
		validSet[track.ID] = struct{}{}

		meta, metaErr := s.buildTrackMetadata(ctx, track)
		if metaErr != nil {
			return metaErr
		}

		rowID, upsertErr := s.reg.UpsertCanonicalTrack(track.ID, meta)
		if upsertErr != nil {
			return upsertErr
		}

		position, known := snapshot[track.ID]
		if !known {
			maxPosition++
			position = maxPosition
			newLinks++
		}

		if linkErr := s.reg.LinkTrackToPlaylist(playlistExternalID, rowID, position, item.AddedAt); linkErr != nil {
			return linkErr
		}

		s.incrementIngested()
	}

	removed, err := s.reg.SyncPlaylistTracks(playlistExternalID, validSet)
	if err != nil {
		return err
	}

	if removed > 0 {
		logger.Infof(ctx, "Removed %d track(s) no longer in playlist %q", removed, playlistName)
	}

	// A new link can reference a track whose audio already exists from
	// another playlist; such links only materialize through a rebuild.
	if newLinks > 0 || removed > 0 {
		return s.rebuildPlaylistView(playlistExternalID, playlistName)
	}

	return nil
}

// rebuildPlaylistView regenerates the playlist link directory from acquired
// tracks after membership or ordering changed.
func (s *ServiceImpl) rebuildPlaylistView(playlistExternalID, playlistName string) error {
	entries, err := s.playlistLinkEntries(playlistExternalID)
	if err != nil {
		return err
	}

	if err = s.fileManager.RebuildPlaylistFromTracks(playlistName, entries); err != nil {
		return err
	}

	validPositions := make(map[int]struct{}, len(entries))
	for _, entry := range entries {
		validPositions[entry.Position] = struct{}{}
	}

	return s.fileManager.CleanupPlaylistOrphans(playlistName, validPositions)
}

// buildTrackMetadata assembles the canonical metadata block from the track
// and its cached artist and album lookups. Enrichment failures degrade to
// partial metadata instead of failing the item.
func (s *ServiceImpl) buildTrackMetadata(ctx context.Context, track *spotify.Track) (*registry.TrackMetadata, error) {
	meta := &registry.TrackMetadata{
		Name:        track.Name,
		Artists:     track.Artists,
		Album:       track.Album,
		AlbumArtist: track.AlbumArtist,
		DurationMS:  track.DurationMS,
		ISRC:        track.ISRC,
		CoverURL:    track.CoverURL,
		ReleaseDate: track.ReleaseDate,
		TrackNumber: track.TrackNumber,
		DiscNumber:  track.DiscNumber,
		Year:        releaseYear(track.ReleaseDate),
		Explicit:    track.Explicit,
		Popularity:  track.Popularity,
		PreviewURL:  track.PreviewURL,
		ExternalURL: track.ExternalURL,
	}

	if len(track.Artists) > 0 {
		meta.Artist = track.Artists[0]
	}

	if meta.DiscNumber < 1 {
		meta.DiscNumber = 1
	}

	meta.DiscTotal = meta.DiscNumber

	if len(track.ArtistIDs) > 0 {
		artist, err := s.spotifyClient.Artist(ctx, track.ArtistIDs[0])
		if err != nil {
			logger.Debugf(ctx, "Failed to fetch artist for %q: %v", track.Name, err)
		} else {
			meta.Genres = artist.Genres
		}
	}

	if track.AlbumID != "" {
		album, err := s.spotifyClient.Album(ctx, track.AlbumID)
		if err != nil {
			logger.Debugf(ctx, "Failed to fetch album for %q: %v", track.Name, err)
		} else {
			meta.TotalTracks = album.TotalTracks
			meta.Copyright = album.Copyright
			meta.Publisher = album.Label

			if album.ReleaseDate != "" {
				meta.ReleaseDate = album.ReleaseDate
				meta.Year = releaseYear(album.ReleaseDate)
			}
		}
	}

	meta.Raw = track.RawJSON()

	return meta, nil
}

// releaseYear extracts the year from a catalog release date, which may be a
// full date, a year-month, or a bare year.
func releaseYear(releaseDate string) int {
	if len(releaseDate) < 4 {
		return 0
	}

	year, err := strconv.Atoi(releaseDate[:4])
	if err != nil {
		return 0
	}

	return year
}
