package resolver

import (
	"strings"

	"github.com/tubequest/checkin/internal/domain"
	"github.com/tubequest/checkin/internal/geofence"
)

// locationAssistRadiusM bounds the candidate set for location-assisted
// matching to stations near the user.
const locationAssistRadiusM = 500.0

const (
	fuzzyThreshold = 0.90
	// Location-assisted matching accepts weaker text matches because
	// geography narrows the field, and discounts the returned score.
	locationFuzzyThreshold = 0.75
	locationFuzzyDiscount  = 0.9
)

// candidate is one scored catalogue entry produced by a matching stage.
type candidate struct {
	station domain.Station
	score   float64
}

// query carries the precomputed inputs shared by every stage.
type query struct {
	text    string // normalized search text
	userLoc *domain.Coordinate
}

// stage is one rule in the matching cascade. Stages run in order and the
// first stage returning any candidates wins; later stages are never
// consulted once an earlier one fires.
type stage struct {
	rule  domain.MatchRule
	match func(q query, catalogue []domain.Station) []candidate
}

// stages is the cascade, strictest first.
var stages = []stage{
	{rule: domain.MatchExact, match: matchExact},
	{rule: domain.MatchSuffix, match: matchSuffix},
	{rule: domain.MatchFuzzy, match: matchFuzzy},
	{rule: domain.MatchLocationFuzzy, match: matchLocationFuzzy},
}

// matchExact returns catalogue entries whose normalized name equals the
// search text. Score 1.0.
func matchExact(q query, catalogue []domain.Station) []candidate {
	var out []candidate
	for _, st := range catalogue {
		if normalize(st.Name) == q.text {
			out = append(out, candidate{station: st, score: 1.0})
		}
	}
	return out
}

// matchSuffix handles a bare trailing "station" present on exactly one side:
// "victoria station" matches catalogue entry "Victoria" and vice versa.
// Tried in both directions. Score 0.95.
func matchSuffix(q query, catalogue []domain.Station) []candidate {
	var out []candidate
	for _, st := range catalogue {
		name := normalize(st.Name)
		if stripStationSuffix(q.text) == name || q.text == stripStationSuffix(name) {
			out = append(out, candidate{station: st, score: 0.95})
		}
	}
	return out
}

// stripStationSuffix removes a bare trailing " station" word, returning the
// input unchanged when no such suffix exists or nothing would remain.
func stripStationSuffix(s string) string {
	trimmed := strings.TrimSuffix(s, " station")
	if trimmed == s || trimmed == "" {
		return s
	}
	return trimmed
}

// matchFuzzy accepts edit-distance similarity at or above fuzzyThreshold.
// Score is the raw similarity.
func matchFuzzy(q query, catalogue []domain.Station) []candidate {
	var out []candidate
	for _, st := range catalogue {
		if sim := similarity(q.text, normalize(st.Name)); sim >= fuzzyThreshold {
			out = append(out, candidate{station: st, score: sim})
		}
	}
	return out
}

// matchLocationFuzzy is the last resort: only runs when a user location was
// supplied, restricts candidates to stations within locationAssistRadiusM,
// and accepts weaker similarity. The score is discounted to reflect the
// lower confidence of a geography-assisted match.
func matchLocationFuzzy(q query, catalogue []domain.Station) []candidate {
	if q.userLoc == nil {
		return nil
	}
	var out []candidate
	for _, st := range catalogue {
		d := geofence.Distance(q.userLoc.Lat, q.userLoc.Lng, st.Lat, st.Lng)
		if d > locationAssistRadiusM {
			continue
		}
		if sim := similarity(q.text, normalize(st.Name)); sim >= locationFuzzyThreshold {
			out = append(out, candidate{station: st, score: sim * locationFuzzyDiscount})
		}
	}
	return out
}
