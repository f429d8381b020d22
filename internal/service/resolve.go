package service

import (
	"context"
	"fmt"

	"github.com/tubequest/checkin/internal/domain"
	"github.com/tubequest/checkin/internal/resolver"
)

// ResolveService maps recognized station text to a catalogue station.
// It owns fetching the catalogue (through the cache tier) and delegates the
// matching itself to the resolver package.
type ResolveService struct {
	stations StationReader
}

// NewResolveService constructs a ResolveService backed by the given catalogue reader.
func NewResolveService(stations StationReader) *ResolveService {
	return &ResolveService{stations: stations}
}

// Resolve returns the best-matching station for the recognized text.
// Resolution failures come back as *domain.ResolveError: a structured
// outcome for the caller, not a system fault. Only catalogue reads can fail
// with a plain error.
func (s *ResolveService) Resolve(ctx context.Context, rawText, cleanedName string, userLoc *domain.Coordinate) (domain.ResolvedStation, error) {
	catalogue, err := s.stations.Catalogue(ctx)
	if err != nil {
		return domain.ResolvedStation{}, fmt.Errorf("service.ResolveService.Resolve: %w", err)
	}
	return resolver.Resolve(rawText, cleanedName, catalogue, userLoc)
}
