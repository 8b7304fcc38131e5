package extractor

//go:generate $MOCKGEN -source=extractor.go -destination=mocks/extractor_mock.go

import (
	"context"
	"errors"
	"fmt"
	"os/exec"
	"path/filepath"
	"strings"

	"github.com/dkrasnov/spotiport/internal/constants"
	"github.com/dkrasnov/spotiport/internal/logger"
)

// Static error definitions for better error handling.
var (
	// ErrToolNotFound indicates the extractor binary is not on PATH.
	ErrToolNotFound = errors.New("yt-dlp executable not found")
	// ErrNoOutputFile indicates the tool exited cleanly but produced nothing.
	ErrNoOutputFile = errors.New("extractor produced no audio file")
)

const (
	// toolName is the extractor binary.
	toolName = "yt-dlp"
	// formatPreference picks native m4a audio when available and falls
	// back to the best audio stream for re-encoding.
	formatPreference = "bestaudio[ext=m4a]/bestaudio"
	// downloadRetries is the whole-download retry count.
	downloadRetries = "3"
	// fragmentRetries is the per-fragment retry count.
	fragmentRetries = "3"
)

// Extractor downloads the audio of one video into a working directory.
type Extractor interface {
	// Extract downloads url into destDir and returns the produced file path.
	Extract(ctx context.Context, url, destDir string) (string, error)
}

// ExtractorImpl implements Extractor by shelling out to yt-dlp.
type ExtractorImpl struct {
	// cookieFile is an optional Netscape cookies.txt for premium quality.
	cookieFile string
}

// NewExtractor creates an extractor; cookieFile may be empty.
func NewExtractor(cookieFile string) Extractor {
	return &ExtractorImpl{cookieFile: cookieFile}
}

// Extract downloads url into destDir and returns the produced file path.
// The tool re-encodes to m4a at the best available quality when the native
// stream is in another container.
func (e *ExtractorImpl) Extract(ctx context.Context, url, destDir string) (string, error) {
	toolPath, err := exec.LookPath(toolName)
	if err != nil {
		return "", fmt.Errorf("%w: %w", ErrToolNotFound, err)
	}

	args := []string{
		"-f", formatPreference,
		"--retries", downloadRetries,
		"--fragment-retries", fragmentRetries,
		"-q", "--no-progress",
		"-x",
		"--audio-format", "m4a",
		"--audio-quality", "0",
		"-o", filepath.Join(destDir, "%(id)s.%(ext)s"),
	}

	if e.cookieFile != "" {
		args = append(args, "--cookies", e.cookieFile)
	}

	args = append(args, url)

	logger.Debugf(ctx, "Running %s %s", toolPath, strings.Join(args, " "))

	command := exec.CommandContext(ctx, toolPath, args...)

	output, err := command.CombinedOutput()
	if err != nil {
		return "", wrapToolError(output, err)
	}

	return locateAudioFile(destDir)
}

// wrapToolError folds the tool's combined output into the returned error.
// The original error stays in the chain so cancellation is still detectable.
func wrapToolError(output []byte, err error) error {
	message := strings.TrimSpace(string(output))
	if message == "" {
		return fmt.Errorf("yt-dlp failed: %w", err)
	}

	return fmt.Errorf("yt-dlp failed: %s: %w", message, err)
}

// locateAudioFile finds the produced audio file in the working directory,
// preferring the target container.
func locateAudioFile(destDir string) (string, error) {
	if matches, err := filepath.Glob(filepath.Join(destDir, "*"+constants.ExtensionM4A)); err == nil && len(matches) > 0 {
		return matches[0], nil
	}

	audioExtensions := map[string]struct{}{
		".opus": {}, ".webm": {}, ".mp3": {}, ".ogg": {}, ".aac": {}, ".flac": {}, ".wav": {},
	}

	matches, err := filepath.Glob(filepath.Join(destDir, "*"))
	if err != nil {
		return "", fmt.Errorf("failed to scan output directory: %w", err)
	}

	for _, match := range matches {
		if _, ok := audioExtensions[strings.ToLower(filepath.Ext(match))]; ok {
			return match, nil
		}
	}

	return "", ErrNoOutputFile
}
