// Package resolver maps noisy recognized text to a canonical station from a
// caller-supplied catalogue. Matching runs as a cascade of increasingly
// permissive stages; the first stage producing any candidate wins.
//
// All non-match outcomes are data, not failures: callers branch on
// *domain.ResolveError via errors.As.
package resolver

import (
	"sort"
	"strings"

	"github.com/tubequest/checkin/internal/domain"
)

// suggestionFloor is the minimum whole-catalogue similarity for an entry to
// appear in no-match suggestions.
const suggestionFloor = 0.5

// maxSuggestions caps how many ranked alternatives a no-match error carries.
const maxSuggestions = 3

// Resolve finds the best catalogue station for the given recognized text.
// cleanedName, when non-empty, is preferred over rawText as the search text.
// userLoc, when non-nil, enables the location-assisted fallback stage.
//
// Failure modes all return *domain.ResolveError: empty text, empty catalogue,
// no match (with up to three ranked suggestions), or an ambiguous tie between
// equally-scored candidates (with the tied stations as suggestions). A tie is
// ambiguous in every stage, including the location-assisted one.
func Resolve(rawText, cleanedName string, catalogue []domain.Station, userLoc *domain.Coordinate) (domain.ResolvedStation, error) {
	if len(catalogue) == 0 {
		return domain.ResolvedStation{}, &domain.ResolveError{Code: domain.ResolveNoCatalogue}
	}

	text := cleanedName
	if strings.TrimSpace(text) == "" {
		text = rawText
	}
	normalized := normalize(text)
	if normalized == "" {
		return domain.ResolvedStation{}, &domain.ResolveError{Code: domain.ResolveEmptyText}
	}

	q := query{text: normalized, userLoc: userLoc}

	for _, st := range stages {
		candidates := st.match(q, catalogue)
		if len(candidates) == 0 {
			continue
		}

		sortCandidates(candidates)

		if tied := topTies(candidates); len(tied) > 1 {
			return domain.ResolvedStation{}, &domain.ResolveError{
				Code:        domain.ResolveAmbiguous,
				Suggestions: toSuggestions(tied),
			}
		}

		best := candidates[0]
		return domain.ResolvedStation{
			Station: best.station,
			Rule:    st.rule,
			Score:   best.score,
		}, nil
	}

	return domain.ResolvedStation{}, &domain.ResolveError{
		Code:        domain.ResolveNoMatch,
		Suggestions: closestSuggestions(normalized, catalogue),
	}
}

// sortCandidates orders by score descending, then by station name for a
// deterministic order among non-tied candidates.
func sortCandidates(cs []candidate) {
	sort.Slice(cs, func(i, j int) bool {
		if cs[i].score != cs[j].score {
			return cs[i].score > cs[j].score
		}
		return cs[i].station.Name < cs[j].station.Name
	})
}

// topTies returns every candidate sharing the exact top score.
// More than one element means the match is ambiguous.
func topTies(cs []candidate) []candidate {
	top := cs[0].score
	var tied []candidate
	for _, c := range cs {
		if c.score != top {
			break
		}
		tied = append(tied, c)
	}
	return tied
}

// closestSuggestions ranks the entire catalogue by similarity and returns up
// to maxSuggestions entries scoring at least suggestionFloor. May be empty.
func closestSuggestions(normalized string, catalogue []domain.Station) []domain.Suggestion {
	var cs []candidate
	for _, st := range catalogue {
		if sim := similarity(normalized, normalize(st.Name)); sim >= suggestionFloor {
			cs = append(cs, candidate{station: st, score: sim})
		}
	}
	sortCandidates(cs)
	if len(cs) > maxSuggestions {
		cs = cs[:maxSuggestions]
	}
	return toSuggestions(cs)
}

func toSuggestions(cs []candidate) []domain.Suggestion {
	out := make([]domain.Suggestion, len(cs))
	for i, c := range cs {
		out[i] = domain.Suggestion{Station: c.station, Score: c.score}
	}
	return out
}
