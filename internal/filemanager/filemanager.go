package filemanager

//go:generate $MOCKGEN -source=filemanager.go -destination=mocks/filemanager_mock.go

import (
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/dkrasnov/spotiport/internal/constants"
	"github.com/dkrasnov/spotiport/internal/utils"
)

// Static error definitions for better error handling.
var (
	// ErrCanonicalFileNotFound indicates a link target that does not exist.
	ErrCanonicalFileNotFound = errors.New("canonical file not found")
)

// LinkEntry describes one playlist view entry to create or export.
type LinkEntry struct {
	// CanonicalPath is the path of the canonical audio file.
	CanonicalPath string
	// Position is the 1-indexed position within the playlist.
	Position int
	// Title is the track display name.
	Title string
	// Artist is the primary artist name.
	Artist string
	// DurationSeconds is the track duration, used by M3U export.
	DurationSeconds int
}

// Manager maintains the on-disk library layout: a flat canonical track store
// plus per-playlist directories of position-prefixed links.
type Manager interface {
	// EnsureLayout creates the root, tracks, playlists, and logs directories.
	EnsureLayout() error
	// Root returns the configured library root.
	Root() string
	// LogsDir returns the logs directory under the root.
	LogsDir() string
	// CanonicalPath derives the canonical file path for a track.
	CanonicalPath(artist, title string) string
	// CreatePlaylistLink places a link to a canonical file inside a playlist view.
	CreatePlaylistLink(canonicalPath, playlistName string, position int, title, artist string) error
	// UpdateAllPlaylistLinks refreshes the link for one track across playlists, best-effort.
	UpdateAllPlaylistLinks(canonicalPath, title, artist string, playlists []PlaylistPlacement) []error
	// RebuildPlaylistFromTracks recreates a playlist view from scratch.
	RebuildPlaylistFromTracks(playlistName string, entries []LinkEntry) error
	// CleanupPlaylistOrphans removes view entries at positions not in validPositions.
	CleanupPlaylistOrphans(playlistName string, validPositions map[int]struct{}) error
	// ExportPlaylistM3U writes an extended M3U file for a playlist.
	ExportPlaylistM3U(playlistName string, entries []LinkEntry, exportDir string) (string, error)
	// ExportPlaylistCopy copies a playlist's canonical files into an export directory.
	ExportPlaylistCopy(playlistName string, entries []LinkEntry, exportDir string) error
}

// PlaylistPlacement locates one track inside one playlist view.
type PlaylistPlacement struct {
	// PlaylistName is the playlist display name.
	PlaylistName string
	// Position is the 1-indexed position within the playlist.
	Position int
}

// ManagerImpl implements Manager on top of a local filesystem root.
type ManagerImpl struct {
	// root is the absolute library root directory.
	root string
}

// NewManager creates a file manager rooted at the given directory.
func NewManager(root string) Manager {
	return &ManagerImpl{root: root}
}

// EnsureLayout creates the library directory skeleton.
func (m *ManagerImpl) EnsureLayout() error {
	for _, dir := range []string{
		m.root,
		m.tracksDir(),
		m.playlistsDir(),
		m.LogsDir(),
	} {
		if err := os.MkdirAll(dir, constants.DefaultFolderPermissions); err != nil {
			return fmt.Errorf("failed to create directory %s: %w", dir, err)
		}
	}

	return nil
}

// Root returns the configured library root.
func (m *ManagerImpl) Root() string {
	return m.root
}

// LogsDir returns the logs directory under the root.
func (m *ManagerImpl) LogsDir() string {
	return filepath.Join(m.root, constants.LogsDirName)
}

func (m *ManagerImpl) tracksDir() string {
	return filepath.Join(m.root, constants.TracksDirName)
}

func (m *ManagerImpl) playlistsDir() string {
	return filepath.Join(m.root, constants.PlaylistsDirName)
}

// CanonicalPath derives the canonical file path for a track.
// The mapping is pure: equal (artist, title) pairs always map to one file,
// which is what deduplicates tracks shared across playlists.
func (m *ManagerImpl) CanonicalPath(artist, title string) string {
	name := utils.SanitizeFilename(title) + "-" + utils.SanitizeFilename(artist) + constants.ExtensionM4A

	return filepath.Join(m.tracksDir(), name)
}

// linkName builds the position-prefixed filename of a playlist view entry.
func linkName(position int, title, artist string) string {
	return fmt.Sprintf("%05d-%s-%s%s",
		position, utils.SanitizeFilename(title), utils.SanitizeFilename(artist), constants.ExtensionM4A)
}

// CreatePlaylistLink places a link to a canonical file inside a playlist view.
// Any existing entry at the target path is removed first, so re-linking is
// idempotent. A hard link is attempted first; filesystems that reject it
// (cross-device, unsupported) get a relative symlink instead.
func (m *ManagerImpl) CreatePlaylistLink(canonicalPath, playlistName string, position int, title, artist string) error {
	exists, err := utils.IsFileExist(canonicalPath)
	if err != nil {
		return fmt.Errorf("failed to check canonical file: %w", err)
	}

	if !exists {
		return fmt.Errorf("%w: %s", ErrCanonicalFileNotFound, canonicalPath)
	}

	playlistDir := filepath.Join(m.playlistsDir(), utils.SanitizeFilename(playlistName))
	if err := os.MkdirAll(playlistDir, constants.DefaultFolderPermissions); err != nil {
		return fmt.Errorf("failed to create playlist directory: %w", err)
	}

	linkPath := filepath.Join(playlistDir, linkName(position, title, artist))

	if err := os.Remove(linkPath); err != nil && !errors.Is(err, os.ErrNotExist) {
		return fmt.Errorf("failed to remove existing link: %w", err)
	}

	if err := os.Link(canonicalPath, linkPath); err == nil {
		return nil
	}

	relTarget, err := filepath.Rel(playlistDir, canonicalPath)
	if err != nil {
		relTarget = canonicalPath
	}

	if err = os.Symlink(relTarget, linkPath); err != nil {
		return fmt.Errorf("failed to link %s into %s: %w", canonicalPath, playlistDir, err)
	}

	return nil
}

// UpdateAllPlaylistLinks refreshes the link for one track in every playlist
// that references it. Failures are collected, not fatal: one broken playlist
// view must not block the rest.
func (m *ManagerImpl) UpdateAllPlaylistLinks(
	canonicalPath, title, artist string,
	playlists []PlaylistPlacement,
) []error {
	var errs []error

	for _, placement := range playlists {
		err := m.CreatePlaylistLink(canonicalPath, placement.PlaylistName, placement.Position, title, artist)
		if err != nil {
			errs = append(errs, fmt.Errorf("playlist %s: %w", placement.PlaylistName, err))
		}
	}

	return errs
}

// RebuildPlaylistFromTracks deletes the playlist view directory and recreates
// every link from the supplied list. Used when positions shift upstream.
func (m *ManagerImpl) RebuildPlaylistFromTracks(playlistName string, entries []LinkEntry) error {
	playlistDir := filepath.Join(m.playlistsDir(), utils.SanitizeFilename(playlistName))
	if err := os.RemoveAll(playlistDir); err != nil {
		return fmt.Errorf("failed to remove playlist directory: %w", err)
	}

	for _, entry := range entries {
		exists, err := utils.IsFileExist(entry.CanonicalPath)
		if err != nil {
			return fmt.Errorf("failed to check canonical file: %w", err)
		}

		if !exists {
			// Unacquired tracks have no file yet; they get linked after acquisition.
			continue
		}

		if err = m.CreatePlaylistLink(entry.CanonicalPath, playlistName, entry.Position, entry.Title, entry.Artist); err != nil {
			return err
		}
	}

	return nil
}

// CleanupPlaylistOrphans removes view entries whose leading zero-padded
// position is not in validPositions. Files without a parseable prefix are
// left alone.
func (m *ManagerImpl) CleanupPlaylistOrphans(playlistName string, validPositions map[int]struct{}) error {
	playlistDir := filepath.Join(m.playlistsDir(), utils.SanitizeFilename(playlistName))

	dirEntries, err := os.ReadDir(playlistDir)
	if errors.Is(err, os.ErrNotExist) {
		return nil
	}

	if err != nil {
		return fmt.Errorf("failed to read playlist directory: %w", err)
	}

	for _, dirEntry := range dirEntries {
		if dirEntry.IsDir() {
			continue
		}

		position, ok := parseLinkPosition(dirEntry.Name())
		if !ok {
			continue
		}

		if _, valid := validPositions[position]; valid {
			continue
		}

		if err = os.Remove(filepath.Join(playlistDir, dirEntry.Name())); err != nil {
			return fmt.Errorf("failed to remove orphan link %s: %w", dirEntry.Name(), err)
		}
	}

	return nil
}

// parseLinkPosition extracts the zero-padded position prefix of a view entry.
func parseLinkPosition(name string) (int, bool) {
	prefix, _, found := strings.Cut(name, "-")
	if !found {
		return 0, false
	}

	position, err := strconv.Atoi(prefix)
	if err != nil {
		return 0, false
	}

	return position, true
}

// ExportPlaylistM3U writes an extended M3U playlist file into exportDir and
// returns its path. Track paths are written relative to the export directory
// when possible.
func (m *ManagerImpl) ExportPlaylistM3U(playlistName string, entries []LinkEntry, exportDir string) (string, error) {
	if err := os.MkdirAll(exportDir, constants.DefaultFolderPermissions); err != nil {
		return "", fmt.Errorf("failed to create export directory: %w", err)
	}

	var builder strings.Builder

	builder.WriteString("#EXTM3U\n")

	for _, entry := range entries {
		trackPath := entry.CanonicalPath
		if relPath, err := filepath.Rel(exportDir, entry.CanonicalPath); err == nil {
			trackPath = relPath
		}

		builder.WriteString(fmt.Sprintf("#EXTINF:%d,%s - %s\n", entry.DurationSeconds, entry.Artist, entry.Title))
		builder.WriteString(trackPath + "\n")
	}

	m3uPath := filepath.Join(exportDir, utils.SanitizeFilename(playlistName)+constants.ExtensionM3U)
	if err := os.WriteFile(m3uPath, []byte(builder.String()), constants.DefaultFilePermissions); err != nil {
		return "", fmt.Errorf("failed to write playlist file: %w", err)
	}

	return m3uPath, nil
}

// ExportPlaylistCopy copies a playlist's canonical files into a subdirectory
// of exportDir, carrying the position-prefixed view names.
func (m *ManagerImpl) ExportPlaylistCopy(playlistName string, entries []LinkEntry, exportDir string) error {
	targetDir := filepath.Join(exportDir, utils.SanitizeFilename(playlistName))
	if err := os.MkdirAll(targetDir, constants.DefaultFolderPermissions); err != nil {
		return fmt.Errorf("failed to create export directory: %w", err)
	}

	for _, entry := range entries {
		exists, err := utils.IsFileExist(entry.CanonicalPath)
		if err != nil {
			return fmt.Errorf("failed to check canonical file: %w", err)
		}

		if !exists {
			continue
		}

		targetPath := filepath.Join(targetDir, linkName(entry.Position, entry.Title, entry.Artist))
		if err := CopyFile(entry.CanonicalPath, targetPath); err != nil {
			return err
		}
	}

	return nil
}

// CopyFile copies a regular file, creating or truncating the destination.
func CopyFile(sourcePath, targetPath string) error {
	source, err := os.Open(sourcePath)
	if err != nil {
		return fmt.Errorf("failed to open %s: %w", sourcePath, err)
	}

	defer source.Close()

	target, err := os.OpenFile(targetPath, os.O_WRONLY|os.O_CREATE|os.O_TRUNC, constants.DefaultFilePermissions)
	if err != nil {
		return fmt.Errorf("failed to create %s: %w", targetPath, err)
	}

	if _, err = io.Copy(target, source); err != nil {
		_ = target.Close()

		return fmt.Errorf("failed to copy %s: %w", sourcePath, err)
	}

	return target.Close()
}

// MoveFile renames a file, falling back to copy plus unlink when the rename
// crosses filesystems.
func MoveFile(sourcePath, targetPath string) error {
	if err := os.Rename(sourcePath, targetPath); err == nil {
		return nil
	}

	if err := CopyFile(sourcePath, targetPath); err != nil {
		return err
	}

	return os.Remove(sourcePath)
}
