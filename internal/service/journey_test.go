package service_test

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tubequest/checkin/internal/domain"
	"github.com/tubequest/checkin/internal/repo"
	"github.com/tubequest/checkin/internal/service"
)

// mockJourneyRepo is a hand-written test double for repo.JourneyRepo.
type mockJourneyRepo struct {
	listByActivity func(ctx context.Context, activityID uuid.UUID) ([]domain.JourneyRow, error)
}

func (m *mockJourneyRepo) ListByActivity(ctx context.Context, activityID uuid.UUID) ([]domain.JourneyRow, error) {
	return m.listByActivity(ctx, activityID)
}

var _ repo.JourneyRepo = (*mockJourneyRepo)(nil)

func TestJourneyService_Export_OK(t *testing.T) {
	activityID := uuid.New()
	svc := service.NewJourneyService(
		&mockActivityRepo{getByID: activityFound(activityID)},
		&mockJourneyRepo{listByActivity: func(_ context.Context, _ uuid.UUID) ([]domain.JourneyRow, error) {
			return []domain.JourneyRow{
				{SeqActual: 1, StationName: "Euston", Status: "verified", VisitedAt: time.Now().UTC()},
				{SeqActual: 2, StationName: "Victoria", Status: "pending", PendingReason: "low_confidence"},
			}, nil
		}},
	)

	rows, err := svc.Export(context.Background(), activityID)

	require.NoError(t, err)
	require.Len(t, rows, 2)
	assert.Equal(t, "Euston", rows[0].StationName)
	assert.Equal(t, "low_confidence", rows[1].PendingReason)
}

func TestJourneyService_Export_ActivityNotFound(t *testing.T) {
	svc := service.NewJourneyService(
		&mockActivityRepo{getByID: func(_ context.Context, _ uuid.UUID) (domain.Activity, error) {
			return domain.Activity{}, domain.ErrNotFound
		}},
		&mockJourneyRepo{},
	)

	_, err := svc.Export(context.Background(), uuid.New())

	assert.ErrorIs(t, err, domain.ErrNotFound)
}

func TestJourneyService_Export_EmptyIsNonNil(t *testing.T) {
	activityID := uuid.New()
	svc := service.NewJourneyService(
		&mockActivityRepo{getByID: activityFound(activityID)},
		&mockJourneyRepo{listByActivity: func(_ context.Context, _ uuid.UUID) ([]domain.JourneyRow, error) {
			return nil, nil
		}},
	)

	rows, err := svc.Export(context.Background(), activityID)

	require.NoError(t, err)
	assert.NotNil(t, rows)
	assert.Empty(t, rows)
}
