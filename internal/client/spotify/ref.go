package spotify

import (
	"fmt"
	"net/url"
	"strings"
)

// resolveID extracts a bare resource id from a reference: an
// open.spotify.com URL, a spotify: URI, or an already-bare id.
// resourceType is the expected path segment (playlist, track, artist, album).
func resolveID(ref, resourceType string) (string, error) {
	ref = strings.TrimSpace(ref)
	if ref == "" {
		return "", fmt.Errorf("%w: empty reference", ErrInvalidReference)
	}

	if strings.HasPrefix(ref, "spotify:") {
		parts := strings.Split(ref, ":")
		if len(parts) != 3 || parts[1] != resourceType || parts[2] == "" {
			return "", fmt.Errorf("%w: expected spotify:%s:<id>, got %q", ErrInvalidReference, resourceType, ref)
		}

		return parts[2], nil
	}

	if strings.Contains(ref, "://") {
		parsed, err := url.Parse(ref)
		if err != nil {
			return "", fmt.Errorf("%w: %q", ErrInvalidReference, ref)
		}

		segments := strings.Split(strings.Trim(parsed.Path, "/"), "/")

		// Localized URLs carry an intl-xx segment before the resource type.
		for i, segment := range segments {
			if segment == resourceType && i+1 < len(segments) && segments[i+1] != "" {
				return segments[i+1], nil
			}
		}

		return "", fmt.Errorf("%w: no %s id in %q", ErrInvalidReference, resourceType, ref)
	}

	return ref, nil
}
