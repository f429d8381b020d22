package service

import (
	"context"
	"fmt"

	"github.com/tubequest/checkin/internal/domain"
	"github.com/tubequest/checkin/internal/repo"
)

// StationService serves catalogue reads for the HTTP layer.
type StationService struct {
	stations repo.StationRepo
}

// NewStationService constructs a StationService backed by the provided StationRepo.
func NewStationService(stations repo.StationRepo) *StationService {
	return &StationService{stations: stations}
}

// ListPaged returns one page of the catalogue and the total count.
// Always returns a non-nil slice so callers can safely range over it.
func (s *StationService) ListPaged(ctx context.Context, p domain.PaginationParams) ([]domain.Station, int64, error) {
	stations, total, err := s.stations.ListPaged(ctx, p)
	if err != nil {
		return nil, 0, fmt.Errorf("service.StationService.ListPaged: %w", err)
	}
	if stations == nil {
		stations = []domain.Station{}
	}
	return stations, total, nil
}
