package domain

import (
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
)

// ErrNotFound is returned by repo and service functions when the requested
// resource does not exist in the database.
// Handlers should map this to HTTP 404.
var ErrNotFound = errors.New("not found")

// ErrValidation is returned by service functions when input fails business
// rule validation (e.g. missing required identifier).
// Handlers should map this to HTTP 400.
var ErrValidation = errors.New("validation error")

// DuplicateVisitError is returned when a check-in is submitted for an
// (activity, station, user) triple that already has a recorded visit.
// It carries enough detail for the client to show which visit blocked the
// submission. Both detection paths, the pre-insert lookup and a lost race
// surfacing as a store uniqueness violation, produce this same type, so
// callers never need to distinguish who caught the duplicate.
// Handlers should map this to HTTP 409.
type DuplicateVisitError struct {
	ExistingVisitID uuid.UUID
	StationName     string
	VisitedAt       time.Time
}

func (e *DuplicateVisitError) Error() string {
	return fmt.Sprintf("already checked in at %s on %s",
		e.StationName, e.VisitedAt.Format(time.RFC3339))
}

// ResolveErrorCode classifies the terminal outcomes of station-name
// resolution that did not produce a single station.
type ResolveErrorCode string

const (
	// ResolveNoCatalogue: the caller supplied an empty station catalogue.
	ResolveNoCatalogue ResolveErrorCode = "no_catalogue"
	// ResolveEmptyText: the search text was empty after trimming.
	ResolveEmptyText ResolveErrorCode = "empty_search_text"
	// ResolveNoMatch: no matching rule fired. Suggestions holds up to three
	// closest catalogue entries, possibly none.
	ResolveNoMatch ResolveErrorCode = "no_match"
	// ResolveAmbiguous: multiple stations tied for the top score. Suggestions
	// holds the tied candidates; the resolver never picks one arbitrarily.
	ResolveAmbiguous ResolveErrorCode = "ambiguous_match"
)

// ResolveError is the structured result of a resolution that terminated
// without a single station. It is a legitimate outcome requiring caller
// branching, not a system failure: handlers map it to HTTP 422 and surface
// the ranked suggestions.
type ResolveError struct {
	Code        ResolveErrorCode
	Suggestions []Suggestion
}

func (e *ResolveError) Error() string {
	switch e.Code {
	case ResolveNoCatalogue:
		return "no station catalogue available"
	case ResolveEmptyText:
		return "empty search text"
	case ResolveAmbiguous:
		return fmt.Sprintf("ambiguous station name: %d stations tied", len(e.Suggestions))
	default:
		return fmt.Sprintf("no matching station (%d suggestions)", len(e.Suggestions))
	}
}
