package utils

import (
	"mime"
	"os"
	"path/filepath"
	"regexp"
	"strings"
)

const (
	// maxFilenameLength caps sanitized filename components.
	maxFilenameLength = 200

	// fallbackFilename is used when sanitization leaves nothing usable.
	fallbackFilename = "Unknown"
)

var (
	// invalidCharsPattern includes ASCII control characters (0-31) and Windows-restricted characters: < > : " / \ | ? *.
	//nolint:gochecknoglobals // This is immutable, pre-compiled regex pattern and used as a constant.
	invalidCharsPattern = regexp.MustCompile(`[<>:"/\\|?*\x00-\x1F]`)

	// textContentTypePatterns is a slice of regular expressions that match content types
	// considered to be text-based. This includes "text/*", "application/json", and "application/xml".
	//nolint:gochecknoglobals // These are immutable, pre-compiled regex patterns and used as constants.
	textContentTypePatterns = []*regexp.Regexp{
		regexp.MustCompile("^text/.+"),
		regexp.MustCompile("^application/json$"),
		regexp.MustCompile(`^application/(.+\+)?xml$`),
	}
)

// SanitizeFilename sanitizes a filename component to be valid on both Windows and Unix-like systems.
// Invalid characters are replaced with underscores, leading and trailing whitespace and dots are
// stripped, and the result is truncated to a bounded length. An empty result yields "Unknown".
func SanitizeFilename(name string) string {
	result := invalidCharsPattern.ReplaceAllString(name, "_")
	result = strings.Trim(result, " \t.")

	if runes := []rune(result); len(runes) > maxFilenameLength {
		result = string(runes[:maxFilenameLength])
	}

	if result == "" {
		return fallbackFilename
	}

	return result
}

// ExpandTilde expands a leading "~" in a path to the user's home directory.
func ExpandTilde(path string) string {
	if path == "~" || strings.HasPrefix(path, "~/") {
		home, err := os.UserHomeDir()
		if err != nil {
			return path
		}

		return filepath.Join(home, strings.TrimPrefix(path[1:], "/"))
	}

	return path
}

// IsFileExist checks if a file exists at the specified path.
// It returns true if the file exists and is not a directory, false if the file does not exist,
// and an error if there was an issue accessing the file.
func IsFileExist(path string) (bool, error) {
	stat, err := os.Stat(path)
	if err == nil {
		return !stat.IsDir(), nil
	}

	if os.IsNotExist(err) {
		return false, nil
	}

	return false, err
}

// IsTextContentType checks if the given content type represents a text-based format.
// It supports common text content types like "text/*", "application/json", and "application/xml".
// It also checks that the charset, if present, is either "utf-8" or "us-ascii".
func IsTextContentType(contentType string) bool {
	parsedType, params, err := mime.ParseMediaType(contentType)
	if err != nil {
		return false
	}

	for _, pattern := range textContentTypePatterns {
		if !pattern.MatchString(parsedType) {
			continue
		}

		charset := strings.ToLower(params["charset"])

		return charset == "" || charset == "utf-8" || charset == "us-ascii"
	}

	return false
}

// Map applies a transformation function to each element of a slice and returns a new slice with the results.
func Map[E, S any](v []E, transformFunc func(E) S) []S {
	result := make([]S, len(v))
	for i := range v {
		result[i] = transformFunc(v[i])
	}

	return result
}
