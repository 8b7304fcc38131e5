// Package constants defines shared filesystem constants.
package constants

import "os"

const (
	// DefaultFilePermissions sets the default permissions for regular files: (rw-r--r--).
	// Owner: read and write;
	// Group: read;
	// Others: read.
	DefaultFilePermissions os.FileMode = 0o644

	// DefaultFolderPermissions sets the default permissions for regular folders: (rwxr-xr-x).
	// Owner: read, write, and execute;
	// Group: read and execute;
	// Others: read and execute.
	DefaultFolderPermissions os.FileMode = 0o755
)

// File extension constants.
const (
	// ExtensionM4A is the target audio container for the canonical store.
	ExtensionM4A = ".m4a"
	// ExtensionM3U is the extended M3U playlist extension.
	ExtensionM3U = ".m3u"
)

// Library layout directory names under the output root.
const (
	// TracksDirName holds the canonical, de-duplicated audio files.
	TracksDirName = "tracks"
	// PlaylistsDirName holds per-playlist link views.
	PlaylistsDirName = "Playlists"
	// LogsDirName holds run logs and structured failure reports.
	LogsDirName = "logs"
	// DatabaseFilename is the registry database file under the output root.
	DatabaseFilename = "database.db"
)
