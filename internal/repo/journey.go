package repo

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/tubequest/checkin/internal/domain"
)

// JourneyRepo reads the flat journey view of an activity: one row per visit,
// joined with activity and station names, in seq_actual order.
type JourneyRepo interface {
	ListByActivity(ctx context.Context, activityID uuid.UUID) ([]domain.JourneyRow, error)
}

// pgJourneyRepo is the Postgres implementation of JourneyRepo.
type pgJourneyRepo struct {
	db db
}

// NewJourneyRepo constructs a JourneyRepo backed by the provided db connection.
func NewJourneyRepo(db db) JourneyRepo {
	return &pgJourneyRepo{db: db}
}

func (r *pgJourneyRepo) ListByActivity(ctx context.Context, activityID uuid.UUID) ([]domain.JourneyRow, error) {
	const q = `
		SELECT a.id::text, a.name,
		       v.seq_actual, s.name, v.status,
		       COALESCE(v.pending_reason, ''), v.verification_method,
		       v.gps_source, v.geofence_distance_m, v.visited_at, v.simulation
		FROM visits v
		JOIN activities a ON a.id = v.activity_id
		JOIN stations   s ON s.id = v.station_id
		WHERE v.activity_id = @activity_id
		ORDER BY v.seq_actual`

	rows, err := r.db.Query(ctx, q, pgx.NamedArgs{"activity_id": activityID})
	if err != nil {
		return nil, fmt.Errorf("repo.JourneyRepo.ListByActivity: %w", err)
	}
	defer rows.Close()

	var out []domain.JourneyRow
	for rows.Next() {
		var jr domain.JourneyRow
		err := rows.Scan(
			&jr.ActivityID, &jr.ActivityName,
			&jr.SeqActual, &jr.StationName, &jr.Status,
			&jr.PendingReason, &jr.VerificationMethod,
			&jr.GPSSource, &jr.DistanceMeters, &jr.VisitedAt, &jr.Simulation,
		)
		if err != nil {
			return nil, fmt.Errorf("repo.JourneyRepo.ListByActivity: scan: %w", err)
		}
		out = append(out, jr)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("repo.JourneyRepo.ListByActivity: rows: %w", err)
	}
	return out, nil
}
