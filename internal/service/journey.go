package service

import (
	"context"
	"fmt"

	"github.com/google/uuid"

	"github.com/tubequest/checkin/internal/domain"
	"github.com/tubequest/checkin/internal/repo"
)

// JourneyService assembles the flat journey export of one activity:
// one row per visit in sequence order, with activity fields repeated.
type JourneyService struct {
	activities repo.ActivityRepo
	journeys   repo.JourneyRepo
}

// NewJourneyService constructs a JourneyService backed by the provided repos.
func NewJourneyService(activities repo.ActivityRepo, journeys repo.JourneyRepo) *JourneyService {
	return &JourneyService{activities: activities, journeys: journeys}
}

// Export returns the journey rows for an activity.
// Returns domain.ErrNotFound if the activity does not exist.
// Always returns a non-nil slice so callers can safely range over it.
func (s *JourneyService) Export(ctx context.Context, activityID uuid.UUID) ([]domain.JourneyRow, error) {
	if _, err := s.activities.GetByID(ctx, activityID); err != nil {
		return nil, fmt.Errorf("service.JourneyService.Export: activity: %w", err)
	}
	rows, err := s.journeys.ListByActivity(ctx, activityID)
	if err != nil {
		return nil, fmt.Errorf("service.JourneyService.Export: %w", err)
	}
	if rows == nil {
		return []domain.JourneyRow{}, nil
	}
	return rows, nil
}
