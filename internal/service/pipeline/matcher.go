package pipeline

//go:generate $MOCKGEN -source=matcher.go -destination=mocks/matcher_mock.go

import (
	"context"
	"fmt"
	"math"
	"regexp"
	"strings"

	fuzzy "github.com/paul-mannino/go-fuzzywuzzy"

	"github.com/dkrasnov/spotiport/internal/client/ytmusic"
	"github.com/dkrasnov/spotiport/internal/logger"
	"github.com/dkrasnov/spotiport/internal/registry"
)

// Matching tunables. The tolerance and threshold are deliberately exported:
// they are the two knobs operators ask about first.
const (
	// DurationToleranceSeconds is the maximum allowed duration difference
	// between the catalog track and a candidate.
	DurationToleranceSeconds = 3
	// MinAcceptScore is the acceptance floor; candidates below it are rejected.
	MinAcceptScore = 50.0
	// CloseMatchThreshold is the score distance within which a non-selected
	// candidate counts as a close alternative.
	CloseMatchThreshold = 5.0
)

// Scoring weights. Title, artist, and duration cover 0.90 of the scale;
// the remaining band holds the verified bonus and the views tiebreaker.
const (
	titleWeight    = 0.45
	artistWeight   = 0.30
	durationWeight = 0.15
	verifiedBonus  = 7.0
	viewsBonusCap  = 2.0
)

// Matcher resolves one catalog track to a watch URL.
type Matcher interface {
	// Match returns the best candidate, or nil when no candidate passes
	// the acceptance floor. Transport failures are errors.
	Match(ctx context.Context, meta *registry.TrackMetadata) (*MatchResult, error)
}

// MatcherImpl implements Matcher over the search client.
type MatcherImpl struct {
	// ytClient runs songs-filtered searches.
	ytClient ytmusic.Client
}

// NewMatcher creates a matcher over the given search client.
func NewMatcher(ytClient ytmusic.Client) Matcher {
	return &MatcherImpl{ytClient: ytClient}
}

// Match resolves one track: ISRC search first, text query fallback,
// duration filter, weighted scoring, floor, and close-alternative collection.
func (m *MatcherImpl) Match(ctx context.Context, meta *registry.TrackMetadata) (*MatchResult, error) {
	candidates, reason, err := m.searchCandidates(ctx, meta)
	if err != nil {
		return nil, err
	}

	trackSeconds := int(meta.DurationMS / 1000)

	type scored struct {
		result *ytmusic.SearchResult
		score  float64
	}

	var survivors []scored

	for _, candidate := range candidates {
		delta := candidate.DurationSeconds - trackSeconds
		if delta < -DurationToleranceSeconds || delta > DurationToleranceSeconds {
			continue
		}

		survivors = append(survivors, scored{
			result: candidate,
			score:  scoreCandidate(meta, candidate),
		})
	}

	var best *scored

	for i := range survivors {
		if survivors[i].score < MinAcceptScore {
			continue
		}

		if best == nil || survivors[i].score > best.score {
			best = &survivors[i]
		}
	}

	if best == nil {
		logger.Debugf(ctx, "No acceptable match for %s - %s (%d candidates, reason: %s)",
			meta.Artist, meta.Name, len(candidates), reason)

		return nil, nil
	}

	result := &MatchResult{
		URL:    best.result.URL,
		Title:  best.result.Title,
		Score:  best.score,
		Reason: reason,
	}

	for i := range survivors {
		if &survivors[i] == best || survivors[i].score < MinAcceptScore {
			continue
		}

		if best.score-survivors[i].score <= CloseMatchThreshold {
			result.Alternatives = append(result.Alternatives, Alternative{
				Title: survivors[i].result.Title,
				URL:   survivors[i].result.URL,
				Score: survivors[i].score,
			})
		}
	}

	return result, nil
}

// searchCandidates queries by ISRC when present, falling back to the
// "artist - title" text query when the ISRC search comes up empty.
func (m *MatcherImpl) searchCandidates(
	ctx context.Context,
	meta *registry.TrackMetadata,
) ([]*ytmusic.SearchResult, string, error) {
	if meta.ISRC != "" {
		results, err := m.ytClient.SearchSongs(ctx, meta.ISRC)
		if err != nil {
			return nil, "", err
		}

		if len(results) > 0 {
			return results, "isrc", nil
		}
	}

	query := fmt.Sprintf("%s - %s", meta.Artist, meta.Name)

	results, err := m.ytClient.SearchSongs(ctx, query)
	if err != nil {
		return nil, "", err
	}

	return results, "query", nil
}

// scoreCandidate computes the weighted score of one duration-filtered
// candidate on the 0-100 scale.
func scoreCandidate(meta *registry.TrackMetadata, candidate *ytmusic.SearchResult) float64 {
	titleScore := float64(fuzzy.TokenSetRatio(normalizeTitle(meta.Name), normalizeTitle(candidate.Title)))
	artistScore := bestArtistScore(meta.Artists, candidate.Artists)

	trackSeconds := float64(meta.DurationMS) / 1000
	delta := math.Abs(trackSeconds - float64(candidate.DurationSeconds))
	durationScore := math.Max(0, 1-delta/DurationToleranceSeconds) * 100

	score := titleWeight*titleScore + artistWeight*artistScore + durationWeight*durationScore

	if candidate.IsSong {
		score += verifiedBonus
	}

	if candidate.Views > 0 {
		score += math.Min(viewsBonusCap, math.Log10(float64(candidate.Views)+1)/5)
	}

	return score
}

// bestArtistScore takes the best token-set ratio across the cartesian
// product of the two artist lists.
func bestArtistScore(trackArtists, candidateArtists []string) float64 {
	if len(trackArtists) == 0 || len(candidateArtists) == 0 {
		return 0
	}

	best := 0

	for _, trackArtist := range trackArtists {
		for _, candidateArtist := range candidateArtists {
			ratio := fuzzy.TokenSetRatio(normalizeTitle(trackArtist), normalizeTitle(candidateArtist))
			if ratio > best {
				best = ratio
			}
		}
	}

	return float64(best)
}

var bracketedPattern = regexp.MustCompile(`\([^)]*\)|\[[^\]]*\]`)

// normalizeTitle lowercases and strips bracketed qualifiers so that
// "(Remastered 2011)" style suffixes do not depress similarity.
func normalizeTitle(value string) string {
	value = bracketedPattern.ReplaceAllString(value, " ")
	value = strings.ToLower(value)

	return strings.Join(strings.Fields(value), " ")
}
