// Package repo contains all database access logic for the check-in API.
// Each resource has its own file with an interface and a Postgres implementation.
// No business logic lives here, only SQL and type mapping.
package repo

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgtype"

	"github.com/tubequest/checkin/internal/domain"
)

// db is the minimal interface satisfied by *pgxpool.Pool, pgx.Conn, and pgx.Tx.
// Accepting this interface instead of *pgxpool.Pool directly allows integration
// tests to pass a transaction that is rolled back after each test, giving free
// per-test isolation without any manual cleanup.
type db interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

// txDB is a db that can also open transactions. Satisfied by *pgxpool.Pool
// and by pgx.Tx (nested transactions become savepoints), so the same
// tx-rollback test isolation works for the visit repo too.
type txDB interface {
	db
	Begin(ctx context.Context) (pgx.Tx, error)
}

// visitTripleConstraint is the unique constraint on (activity, station, user).
// A violation here means a concurrent submission for the same triple won the
// race; it is translated into *domain.DuplicateVisitError.
const visitTripleConstraint = "visits_activity_station_user_key"

// VisitRepo defines the persistence operations for Visits.
type VisitRepo interface {
	// CreateWithSequence atomically assigns the next per-activity seq_actual
	// and inserts the visit in the same transaction. The read-max-then-insert
	// step is serialized per activity with a Postgres advisory transaction
	// lock, so concurrent recorders for one activity cannot observe the same
	// maximum. Returns *domain.DuplicateVisitError when the insert loses a
	// race on the (activity, station, user) uniqueness constraint.
	CreateWithSequence(ctx context.Context, visit domain.Visit) (domain.Visit, error)

	// FindByTriple returns the existing visit for (activity, station, user)
	// along with its station display name. Returns domain.ErrNotFound when no
	// such visit exists.
	FindByTriple(ctx context.Context, activityID, stationID, userID uuid.UUID) (domain.Visit, string, error)

	// ListByActivity returns all visits for an activity ordered by seq_actual.
	ListByActivity(ctx context.Context, activityID uuid.UUID) ([]domain.Visit, error)
}

// pgVisitRepo is the Postgres implementation of VisitRepo.
type pgVisitRepo struct {
	db txDB
}

// NewVisitRepo constructs a VisitRepo backed by the provided connection.
// In production pass *pgxpool.Pool; in tests pass a pgx.Tx for rollback isolation.
func NewVisitRepo(db txDB) VisitRepo {
	return &pgVisitRepo{db: db}
}

const visitColumns = `
	id, activity_id, station_id, user_id, seq_actual,
	status, pending_reason, verification_method,
	lat, lng, gps_source, geofence_distance_m,
	ocr_text, ocr_confidence,
	captured_at, visited_at, simulation, verifier_version, created_at`

func (r *pgVisitRepo) CreateWithSequence(ctx context.Context, visit domain.Visit) (domain.Visit, error) {
	tx, err := r.db.Begin(ctx)
	if err != nil {
		return domain.Visit{}, fmt.Errorf("repo.VisitRepo.CreateWithSequence: begin: %w", err)
	}
	defer tx.Rollback(ctx)

	// Serialize sequence assignment per activity. hashtextextended maps the
	// activity UUID onto the bigint advisory lock keyspace; the lock is held
	// until commit or rollback.
	const lockQ = `SELECT pg_advisory_xact_lock(hashtextextended(@activity_id::text, 0))`
	if _, err := tx.Exec(ctx, lockQ, pgx.NamedArgs{"activity_id": visit.ActivityID}); err != nil {
		return domain.Visit{}, fmt.Errorf("repo.VisitRepo.CreateWithSequence: lock: %w", err)
	}

	const seqQ = `SELECT COALESCE(MAX(seq_actual), 0) FROM visits WHERE activity_id = @activity_id`
	var maxSeq int
	if err := tx.QueryRow(ctx, seqQ, pgx.NamedArgs{"activity_id": visit.ActivityID}).Scan(&maxSeq); err != nil {
		return domain.Visit{}, fmt.Errorf("repo.VisitRepo.CreateWithSequence: read max: %w", err)
	}
	visit.SeqActual = maxSeq + 1

	const insertQ = `
		INSERT INTO visits (
			activity_id, station_id, user_id, seq_actual,
			status, pending_reason, verification_method,
			lat, lng, gps_source, geofence_distance_m,
			ocr_text, ocr_confidence,
			captured_at, simulation, verifier_version
		) VALUES (
			@activity_id, @station_id, @user_id, @seq_actual,
			@status, @pending_reason, @verification_method,
			@lat, @lng, @gps_source, @geofence_distance_m,
			@ocr_text, @ocr_confidence,
			@captured_at, @simulation, @verifier_version
		)
		RETURNING` + visitColumns

	args := pgx.NamedArgs{
		"activity_id":         visit.ActivityID,
		"station_id":          visit.StationID,
		"user_id":             visit.UserID,
		"seq_actual":          visit.SeqActual,
		"status":              string(visit.Status),
		"pending_reason":      reasonArg(visit.PendingReason),
		"verification_method": string(visit.VerificationMethod),
		"lat":                 visit.Lat,
		"lng":                 visit.Lng,
		"gps_source":          string(visit.GPSSource),
		"geofence_distance_m": visit.GeofenceDistance,
		"ocr_text":            visit.OCRText,
		"ocr_confidence":      visit.OCRConfidence,
		"captured_at":         visit.CapturedAt,
		"simulation":          visit.Simulation,
		"verifier_version":    visit.VerifierVersion,
	}

	row := tx.QueryRow(ctx, insertQ, args)
	result, err := scanVisit(row)
	if err != nil {
		// Release the failed transaction before the duplicate lookup runs:
		// the lookup goes through the base connection, which is this same
		// (aborted) transaction when running under tx-rollback isolation.
		_ = tx.Rollback(ctx)
		if dup := r.asDuplicate(ctx, err, visit); dup != nil {
			return domain.Visit{}, dup
		}
		return domain.Visit{}, fmt.Errorf("repo.VisitRepo.CreateWithSequence: insert: %w", err)
	}

	if err := tx.Commit(ctx); err != nil {
		return domain.Visit{}, fmt.Errorf("repo.VisitRepo.CreateWithSequence: commit: %w", err)
	}
	return result, nil
}

// asDuplicate translates a uniqueness violation on the (activity, station,
// user) constraint into the same *domain.DuplicateVisitError shape the
// pre-insert check produces. Any other error returns nil.
func (r *pgVisitRepo) asDuplicate(ctx context.Context, err error, visit domain.Visit) *domain.DuplicateVisitError {
	var pgErr *pgconn.PgError
	if !errors.As(err, &pgErr) || pgErr.Code != "23505" || pgErr.ConstraintName != visitTripleConstraint {
		return nil
	}

	// Look up the row that won the race. The insert's transaction is dead at
	// this point, so query on the base connection.
	existing, stationName, lookupErr := r.FindByTriple(ctx, visit.ActivityID, visit.StationID, visit.UserID)
	if lookupErr != nil {
		// The winning row must exist; fall back to a bare duplicate error
		// rather than masking the conflict as a server error.
		return &domain.DuplicateVisitError{}
	}
	return &domain.DuplicateVisitError{
		ExistingVisitID: existing.ID,
		StationName:     stationName,
		VisitedAt:       existing.VisitedAt,
	}
}

func (r *pgVisitRepo) FindByTriple(ctx context.Context, activityID, stationID, userID uuid.UUID) (domain.Visit, string, error) {
	const q = `
		SELECT v.id, v.activity_id, v.station_id, v.user_id, v.seq_actual,
		       v.status, v.pending_reason, v.verification_method,
		       v.lat, v.lng, v.gps_source, v.geofence_distance_m,
		       v.ocr_text, v.ocr_confidence,
		       v.captured_at, v.visited_at, v.simulation, v.verifier_version, v.created_at,
		       s.name
		FROM visits v
		JOIN stations s ON s.id = v.station_id
		WHERE v.activity_id = @activity_id
		  AND v.station_id  = @station_id
		  AND v.user_id     = @user_id`

	args := pgx.NamedArgs{
		"activity_id": activityID,
		"station_id":  stationID,
		"user_id":     userID,
	}

	row := r.db.QueryRow(ctx, q, args)
	visit, stationName, err := scanVisitWithStation(row)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return domain.Visit{}, "", domain.ErrNotFound
		}
		return domain.Visit{}, "", fmt.Errorf("repo.VisitRepo.FindByTriple: %w", err)
	}
	return visit, stationName, nil
}

func (r *pgVisitRepo) ListByActivity(ctx context.Context, activityID uuid.UUID) ([]domain.Visit, error) {
	q := `
		SELECT` + visitColumns + `
		FROM visits
		WHERE activity_id = @activity_id
		ORDER BY seq_actual`

	rows, err := r.db.Query(ctx, q, pgx.NamedArgs{"activity_id": activityID})
	if err != nil {
		return nil, fmt.Errorf("repo.VisitRepo.ListByActivity: %w", err)
	}
	defer rows.Close()

	var visits []domain.Visit
	for rows.Next() {
		v, err := scanVisit(rows)
		if err != nil {
			return nil, fmt.Errorf("repo.VisitRepo.ListByActivity: scan: %w", err)
		}
		visits = append(visits, v)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("repo.VisitRepo.ListByActivity: rows: %w", err)
	}
	return visits, nil
}

// scanner is satisfied by both pgx.Row and pgx.Rows, allowing the scan
// helpers to be reused for both QueryRow and Query calls.
type scanner interface {
	Scan(dest ...any) error
}

// scanVisit maps a single database row (visitColumns order) into a domain.Visit.
func scanVisit(s scanner) (domain.Visit, error) {
	var (
		v                       domain.Visit
		id, actID, staID, usrID pgtype.UUID
		status, method, source  string
		reason                  *string
	)

	err := s.Scan(
		&id, &actID, &staID, &usrID, &v.SeqActual,
		&status, &reason, &method,
		&v.Lat, &v.Lng, &source, &v.GeofenceDistance,
		&v.OCRText, &v.OCRConfidence,
		&v.CapturedAt, &v.VisitedAt, &v.Simulation, &v.VerifierVersion, &v.CreatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return domain.Visit{}, domain.ErrNotFound
		}
		return domain.Visit{}, err
	}

	v.ID = uuid.UUID(id.Bytes)
	v.ActivityID = uuid.UUID(actID.Bytes)
	v.StationID = uuid.UUID(staID.Bytes)
	v.UserID = uuid.UUID(usrID.Bytes)
	v.Status = domain.VisitStatus(status)
	v.VerificationMethod = domain.VerificationMethod(method)
	v.GPSSource = domain.GPSSource(source)
	if reason != nil {
		pr := domain.PendingReason(*reason)
		v.PendingReason = &pr
	}
	return v, nil
}

// scanVisitWithStation scans visitColumns plus a trailing station name.
func scanVisitWithStation(s scanner) (domain.Visit, string, error) {
	var (
		v                       domain.Visit
		id, actID, staID, usrID pgtype.UUID
		status, method, source  string
		reason                  *string
		stationName             string
	)

	err := s.Scan(
		&id, &actID, &staID, &usrID, &v.SeqActual,
		&status, &reason, &method,
		&v.Lat, &v.Lng, &source, &v.GeofenceDistance,
		&v.OCRText, &v.OCRConfidence,
		&v.CapturedAt, &v.VisitedAt, &v.Simulation, &v.VerifierVersion, &v.CreatedAt,
		&stationName,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return domain.Visit{}, "", domain.ErrNotFound
		}
		return domain.Visit{}, "", err
	}

	v.ID = uuid.UUID(id.Bytes)
	v.ActivityID = uuid.UUID(actID.Bytes)
	v.StationID = uuid.UUID(staID.Bytes)
	v.UserID = uuid.UUID(usrID.Bytes)
	v.Status = domain.VisitStatus(status)
	v.VerificationMethod = domain.VerificationMethod(method)
	v.GPSSource = domain.GPSSource(source)
	if reason != nil {
		pr := domain.PendingReason(*reason)
		v.PendingReason = &pr
	}
	return v, stationName, nil
}

// reasonArg converts an optional pending reason to a nullable SQL argument.
func reasonArg(r *domain.PendingReason) *string {
	if r == nil {
		return nil
	}
	s := string(*r)
	return &s
}
