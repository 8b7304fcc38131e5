package pipeline

import "strings"

// Phase identifies one pipeline stage.
type Phase string

// Pipeline phases in execution order.
const (
	PhaseIngest  Phase = "ingest"
	PhaseMatch   Phase = "match"
	PhaseAcquire Phase = "acquire"
	PhaseLyrics  Phase = "lyrics"
	PhaseEmbed   Phase = "embed"
)

// orderedPhases is the canonical execution order.
var orderedPhases = []Phase{PhaseIngest, PhaseMatch, PhaseAcquire, PhaseLyrics, PhaseEmbed}

// PhaseSet is the subset of phases selected for one run.
type PhaseSet map[Phase]struct{}

// AllPhases returns a set containing every phase.
func AllPhases() PhaseSet {
	set := make(PhaseSet, len(orderedPhases))
	for _, phase := range orderedPhases {
		set[phase] = struct{}{}
	}

	return set
}

// ParsePhases parses a comma-separated phase list. An empty string selects
// every phase.
func ParsePhases(value string) (PhaseSet, error) {
	if strings.TrimSpace(value) == "" {
		return AllPhases(), nil
	}

	set := make(PhaseSet)

	for _, part := range strings.Split(value, ",") {
		phase := Phase(strings.ToLower(strings.TrimSpace(part)))

		switch phase {
		case PhaseIngest, PhaseMatch, PhaseAcquire, PhaseLyrics, PhaseEmbed:
			set[phase] = struct{}{}
		default:
			return nil, &UnknownPhaseError{Value: string(phase)}
		}
	}

	return set, nil
}

// Contains reports whether the set selects the phase.
func (s PhaseSet) Contains(phase Phase) bool {
	_, ok := s[phase]

	return ok
}

// ScopeKind selects what ingestion operates on.
type ScopeKind int

const (
	// ScopeNone runs later phases from eligibility queries only.
	ScopeNone ScopeKind = iota
	// ScopePlaylist targets a single playlist reference.
	ScopePlaylist
	// ScopeLiked targets the saved-items pseudo-playlist.
	ScopeLiked
	// ScopeSyncAll targets every known playlist.
	ScopeSyncAll
)

// Scope is the ingestion target of one run.
type Scope struct {
	// Kind selects the scope variant.
	Kind ScopeKind
	// PlaylistRef is the playlist URL or id for ScopePlaylist.
	PlaylistRef string
	// IncludeLiked extends ScopeSyncAll with the saved-items pseudo-playlist.
	IncludeLiked bool
}

// RunRequest describes one pipeline invocation.
type RunRequest struct {
	// Scope is the ingestion target.
	Scope Scope
	// Phases is the selected phase subset.
	Phases PhaseSet
	// ForceRematch resets failed matches before the matching phase.
	ForceRematch bool
	// ExportM3UDir, when set, writes an M3U per synced playlist after the run.
	ExportM3UDir string
	// ExportCopyDir, when set, copies playlist audio after the run.
	ExportCopyDir string
}

// Alternative is a non-selected match candidate close to the winner.
type Alternative struct {
	// Title is the candidate title.
	Title string
	// URL is the candidate watch URL.
	URL string
	// Score is the candidate score.
	Score float64
}

// MatchResult is a successful resolution.
type MatchResult struct {
	// URL is the selected watch URL.
	URL string
	// Title is the selected candidate title.
	Title string
	// Score is the selected candidate score.
	Score float64
	// Reason describes how the candidate was found (isrc or text query).
	Reason string
	// Alternatives holds candidates within the close-match threshold.
	Alternatives []Alternative
}

// Ambiguous reports whether the result carries close alternatives.
func (r *MatchResult) Ambiguous() bool {
	return len(r.Alternatives) > 0
}

// UnknownPhaseError reports an unrecognized phase name in --phases.
type UnknownPhaseError struct {
	// Value is the offending phase name.
	Value string
}

func (e *UnknownPhaseError) Error() string {
	return "unknown phase: " + e.Value
}
