package ytmusic

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"
)

var (
	durationPattern = regexp.MustCompile(`^(?:(\d+):)?(\d{1,2}):(\d{2})$`)
	viewsPattern    = regexp.MustCompile(`^([\d.,]+)([KMB])?\s+(?:plays|views)$`)
)

// nav walks a generic JSON tree: string steps index maps, int steps index
// slices. The second return is false when any step misses.
func nav(node any, path ...any) (any, bool) {
	current := node

	for _, step := range path {
		switch key := step.(type) {
		case string:
			object, ok := current.(map[string]any)
			if !ok {
				return nil, false
			}

			current, ok = object[key]
			if !ok {
				return nil, false
			}
		case int:
			list, ok := current.([]any)
			if !ok || key < 0 || key >= len(list) {
				return nil, false
			}

			current = list[key]
		default:
			return nil, false
		}
	}

	return current, true
}

func navString(node any, path ...any) string {
	value, ok := nav(node, path...)
	if !ok {
		return ""
	}

	text, _ := value.(string)

	return text
}

func navSlice(node any, path ...any) []any {
	value, ok := nav(node, path...)
	if !ok {
		return nil
	}

	list, _ := value.([]any)

	return list
}

// parseSearchResponse extracts normalized hits from every music shelf of a
// songs-filtered search response.
func parseSearchResponse(body map[string]any) ([]*SearchResult, error) {
	sections := navSlice(body,
		"contents", "tabbedSearchResultsRenderer", "tabs", 0,
		"tabRenderer", "content", "sectionListRenderer", "contents")
	if sections == nil {
		return nil, fmt.Errorf("%w: no section list", ErrMalformedResponse)
	}

	var results []*SearchResult

	for _, section := range sections {
		shelf, ok := nav(section, "musicShelfRenderer")
		if !ok {
			continue
		}

		shelfIsSongs := navString(shelf, "title", "runs", 0, "text") == "Songs"

		for _, item := range navSlice(shelf, "contents") {
			if result := parseShelfItem(item, shelfIsSongs); result != nil {
				results = append(results, result)
			}
		}
	}

	return results, nil
}

// parseShelfItem normalizes one musicResponsiveListItemRenderer. Items
// without a video id or title are dropped.
func parseShelfItem(item any, shelfIsSongs bool) *SearchResult {
	renderer, ok := nav(item, "musicResponsiveListItemRenderer")
	if !ok {
		return nil
	}

	result := &SearchResult{
		VideoID: navString(renderer, "playlistItemData", "videoId"),
		Title: navString(renderer,
			"flexColumns", 0, "musicResponsiveListItemFlexColumnRenderer", "text", "runs", 0, "text"),
	}

	if result.VideoID == "" {
		result.VideoID = navString(renderer,
			"flexColumns", 0, "musicResponsiveListItemFlexColumnRenderer",
			"text", "runs", 0, "navigationEndpoint", "watchEndpoint", "videoId")
	}

	if result.VideoID == "" || result.Title == "" {
		return nil
	}

	result.URL = watchURLPrefix + result.VideoID

	// Columns past the title hold artist, album, duration, and play count
	// runs separated by bullet runs; classification is by run content.
	for i, column := range navSlice(renderer, "flexColumns") {
		if i == 0 {
			continue
		}

		for _, run := range navSlice(column, "musicResponsiveListItemFlexColumnRenderer", "text", "runs") {
			classifyRun(run, result)
		}
	}

	result.Author = firstOrEmpty(result.Artists)
	result.Explicit = hasExplicitBadge(renderer)

	switch musicVideoType(renderer) {
	case "MUSIC_VIDEO_TYPE_ATV":
		result.IsSong = true
	case "":
		result.IsSong = shelfIsSongs
	}

	return result
}

func classifyRun(run any, result *SearchResult) {
	text := strings.TrimSpace(navString(run, "text"))
	if text == "" || text == "•" {
		return
	}

	if matches := durationPattern.FindStringSubmatch(text); matches != nil {
		result.DurationSeconds = durationToSeconds(matches)

		return
	}

	if views, ok := parseViews(text); ok {
		result.Views = views

		return
	}

	browseID := navString(run, "navigationEndpoint", "browseEndpoint", "browseId")

	switch {
	case strings.HasPrefix(browseID, "UC"):
		result.Artists = append(result.Artists, text)
	case strings.HasPrefix(browseID, "MPRE"):
		result.Album = text
	case browseID == "" && len(result.Artists) == 0:
		// Unlinked primary artist (common for uploads).
		result.Artists = append(result.Artists, text)
	}
}

func durationToSeconds(matches []string) int {
	hours, _ := strconv.Atoi(matches[1])
	minutes, _ := strconv.Atoi(matches[2])
	seconds, _ := strconv.Atoi(matches[3])

	return hours*3600 + minutes*60 + seconds
}

// parseViews converts strings like "1.2M plays" into a count.
func parseViews(text string) (int64, bool) {
	matches := viewsPattern.FindStringSubmatch(text)
	if matches == nil {
		return 0, false
	}

	number, err := strconv.ParseFloat(strings.ReplaceAll(matches[1], ",", ""), 64)
	if err != nil {
		return 0, false
	}

	switch matches[2] {
	case "K":
		number *= 1_000
	case "M":
		number *= 1_000_000
	case "B":
		number *= 1_000_000_000
	}

	return int64(number), true
}

func hasExplicitBadge(renderer any) bool {
	for _, badge := range navSlice(renderer, "badges") {
		if navString(badge, "musicInlineBadgeRenderer", "icon", "iconType") == "MUSIC_EXPLICIT_BADGE" {
			return true
		}
	}

	return false
}

func musicVideoType(renderer any) string {
	return navString(renderer,
		"overlay", "musicItemThumbnailOverlayRenderer", "content",
		"musicPlayButtonRenderer", "playNavigationEndpoint", "watchEndpoint",
		"watchEndpointMusicSupportedConfigs", "watchEndpointMusicConfig", "musicVideoType")
}

func firstOrEmpty(values []string) string {
	if len(values) == 0 {
		return ""
	}

	return values[0]
}
