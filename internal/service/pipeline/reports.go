package pipeline

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/dkrasnov/spotiport/internal/constants"
)

// Failure log filename patterns. The timestamp is shared by all files of one
// run so they sort together.
const (
	reportTimestampLayout        = "20060102_150405"
	downloadFailuresPattern      = "download_failures_%s.log"
	lyricsFailuresPattern        = "lyrics_failures_%s.log"
	closeAlternativesPattern     = "match_close_alternatives_%s.log"
	closeAlternativesInstruction = "Multiple close matches found. Verify if correct."
)

// ReportWriter appends structured failure blocks to per-run log files.
// Files are created lazily so a clean run leaves no empty logs behind.
type ReportWriter struct {
	mu        sync.Mutex
	logsDir   string
	timestamp string
	files     map[string]*os.File
}

// NewReportWriter creates a report writer rooted at the logs directory.
func NewReportWriter(logsDir string) *ReportWriter {
	return &ReportWriter{
		logsDir:   logsDir,
		timestamp: time.Now().Format(reportTimestampLayout),
		files:     make(map[string]*os.File),
	}
}

// DownloadFailure records one failed acquisition: the would-be playlist
// filename followed by the source catalog URL.
func (w *ReportWriter) DownloadFailure(position int, title, artist, spotifyURL string) error {
	block := fmt.Sprintf("%s\n%s\n\n", reportFilename(position, title, artist), spotifyURL)

	return w.append(downloadFailuresPattern, block)
}

// LyricsFailure records one track the whole lyrics chain came up empty for.
func (w *ReportWriter) LyricsFailure(position int, title, artist, spotifyURL string) error {
	block := fmt.Sprintf("%s\n%s\n\n", reportFilename(position, title, artist), spotifyURL)

	return w.append(lyricsFailuresPattern, block)
}

// CloseAlternatives records an accepted match that had other candidates
// within the close-match threshold.
func (w *ReportWriter) CloseAlternatives(
	position int,
	title, artist, spotifyURL string,
	result *MatchResult,
) error {
	var block strings.Builder

	block.WriteString(reportFilename(position, title, artist))
	block.WriteString("\n")
	fmt.Fprintf(&block, "Spotify: %s %s\n", title, spotifyURL)
	fmt.Fprintf(&block, "Selected: %s %s (score: %.1f)\n", result.Title, result.URL, result.Score)
	block.WriteString("Alternatives:\n")

	for _, alternative := range result.Alternatives {
		fmt.Fprintf(&block, "  - %s %s (score: %.1f)\n", alternative.Title, alternative.URL, alternative.Score)
	}

	block.WriteString(closeAlternativesInstruction)
	block.WriteString("\n\n")

	return w.append(closeAlternativesPattern, block.String())
}

// Close flushes and closes every opened log file.
func (w *ReportWriter) Close() {
	w.mu.Lock()
	defer w.mu.Unlock()

	for name, file := range w.files {
		_ = file.Close()
		delete(w.files, name)
	}
}

// append writes a block to the named log, opening it on first use.
func (w *ReportWriter) append(pattern, block string) error {
	w.mu.Lock()
	defer w.mu.Unlock()

	name := fmt.Sprintf(pattern, w.timestamp)

	file, ok := w.files[name]
	if !ok {
		if err := os.MkdirAll(w.logsDir, constants.DefaultFolderPermissions); err != nil {
			return fmt.Errorf("failed to create logs directory: %w", err)
		}

		var err error

		file, err = os.OpenFile(
			filepath.Join(w.logsDir, name),
			os.O_CREATE|os.O_WRONLY|os.O_APPEND,
			constants.DefaultFilePermissions,
		)
		if err != nil {
			return fmt.Errorf("failed to open report file: %w", err)
		}

		w.files[name] = file
	}

	if _, err := file.WriteString(block); err != nil {
		return fmt.Errorf("failed to write report block: %w", err)
	}

	return nil
}

// reportFilename renders the playlist-view filename a track maps to.
func reportFilename(position int, title, artist string) string {
	return fmt.Sprintf("%d-%s-%s%s", position, title, artist, constants.ExtensionM4A)
}
