// Package domain contains the core data types for the check-in verification
// pipeline. This package has no dependencies on other internal packages and
// is imported by every layer above it (repo, service, handler).
package domain

import (
	"time"

	"github.com/google/uuid"
)

// Station is a canonical transit stop from the station catalogue.
// Reference data: loaded read-only per resolution request, never written by
// the core pipeline.
type Station struct {
	ID        uuid.UUID `json:"id"`
	Name      string    `json:"name"`
	Lines     []string  `json:"lines"`
	Zone      string    `json:"zone,omitempty"`
	Lat       float64   `json:"lat"`
	Lng       float64   `json:"lng"`
	CreatedAt time.Time `json:"created_at"`
}

// MatchRule names the resolver stage that produced a match.
type MatchRule string

const (
	MatchExact         MatchRule = "exact"
	MatchSuffix        MatchRule = "suffix"
	MatchFuzzy         MatchRule = "fuzzy"
	MatchLocationFuzzy MatchRule = "location_fuzzy"
)

// ResolvedStation is the successful output of station-name resolution:
// the single best station, the rule that matched it, and the match score.
type ResolvedStation struct {
	Station Station
	Rule    MatchRule
	Score   float64
}

// Suggestion is one ranked alternative offered when resolution fails or ties.
type Suggestion struct {
	Station Station `json:"station"`
	Score   float64 `json:"score"`
}
