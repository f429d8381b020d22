package repo

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgtype"

	"github.com/tubequest/checkin/internal/domain"
)

// StationRepo defines read access to the station catalogue.
// The catalogue is reference data owned outside this service: no writes here
// beyond Seed, which exists for migrations tooling and test fixtures.
type StationRepo interface {
	// List returns the full catalogue ordered by name.
	List(ctx context.Context) ([]domain.Station, error)

	// ListPaged returns one page of the catalogue and the total count.
	ListPaged(ctx context.Context, p domain.PaginationParams) ([]domain.Station, int64, error)

	// GetByID retrieves a single station.
	// Returns domain.ErrNotFound if no station with that ID exists.
	GetByID(ctx context.Context, id uuid.UUID) (domain.Station, error)

	// Seed inserts a station row. Intended for fixtures and bootstrap only.
	Seed(ctx context.Context, station domain.Station) (domain.Station, error)
}

// pgStationRepo is the Postgres implementation of StationRepo.
type pgStationRepo struct {
	db db
}

// NewStationRepo constructs a StationRepo backed by the provided db connection.
// In production pass *pgxpool.Pool; in tests pass a pgx.Tx for rollback isolation.
func NewStationRepo(db db) StationRepo {
	return &pgStationRepo{db: db}
}

const stationColumns = `id, name, lines, zone, lat, lng, created_at`

func (r *pgStationRepo) List(ctx context.Context) ([]domain.Station, error) {
	q := `SELECT ` + stationColumns + ` FROM stations ORDER BY name`

	rows, err := r.db.Query(ctx, q)
	if err != nil {
		return nil, fmt.Errorf("repo.StationRepo.List: %w", err)
	}
	defer rows.Close()

	var stations []domain.Station
	for rows.Next() {
		st, err := scanStation(rows)
		if err != nil {
			return nil, fmt.Errorf("repo.StationRepo.List: scan: %w", err)
		}
		stations = append(stations, st)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("repo.StationRepo.List: rows: %w", err)
	}
	return stations, nil
}

func (r *pgStationRepo) ListPaged(ctx context.Context, p domain.PaginationParams) ([]domain.Station, int64, error) {
	q := `
		SELECT ` + stationColumns + `, COUNT(*) OVER () AS total
		FROM stations
		ORDER BY name
		LIMIT @limit OFFSET @offset`

	rows, err := r.db.Query(ctx, q, pgx.NamedArgs{"limit": p.Limit, "offset": p.Offset()})
	if err != nil {
		return nil, 0, fmt.Errorf("repo.StationRepo.ListPaged: %w", err)
	}
	defer rows.Close()

	var (
		stations []domain.Station
		total    int64
	)
	for rows.Next() {
		st, n, err := scanStationWithTotal(rows)
		if err != nil {
			return nil, 0, fmt.Errorf("repo.StationRepo.ListPaged: scan: %w", err)
		}
		stations = append(stations, st)
		total = n
	}
	if err := rows.Err(); err != nil {
		return nil, 0, fmt.Errorf("repo.StationRepo.ListPaged: rows: %w", err)
	}
	return stations, total, nil
}

func (r *pgStationRepo) GetByID(ctx context.Context, id uuid.UUID) (domain.Station, error) {
	q := `SELECT ` + stationColumns + ` FROM stations WHERE id = @id`

	row := r.db.QueryRow(ctx, q, pgx.NamedArgs{"id": id})
	st, err := scanStation(row)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return domain.Station{}, domain.ErrNotFound
		}
		return domain.Station{}, fmt.Errorf("repo.StationRepo.GetByID: %w", err)
	}
	return st, nil
}

func (r *pgStationRepo) Seed(ctx context.Context, station domain.Station) (domain.Station, error) {
	const q = `
		INSERT INTO stations (name, lines, zone, lat, lng)
		VALUES (@name, @lines, @zone, @lat, @lng)
		RETURNING ` + stationColumns

	args := pgx.NamedArgs{
		"name":  station.Name,
		"lines": station.Lines,
		"zone":  station.Zone,
		"lat":   station.Lat,
		"lng":   station.Lng,
	}

	row := r.db.QueryRow(ctx, q, args)
	result, err := scanStation(row)
	if err != nil {
		return domain.Station{}, fmt.Errorf("repo.StationRepo.Seed: %w", err)
	}
	return result, nil
}

// scanStation maps a single database row into a domain.Station.
func scanStation(s scanner) (domain.Station, error) {
	var (
		st domain.Station
		id pgtype.UUID
	)

	err := s.Scan(&id, &st.Name, &st.Lines, &st.Zone, &st.Lat, &st.Lng, &st.CreatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return domain.Station{}, domain.ErrNotFound
		}
		return domain.Station{}, err
	}

	st.ID = uuid.UUID(id.Bytes)
	return st, nil
}

func scanStationWithTotal(s scanner) (domain.Station, int64, error) {
	var (
		st    domain.Station
		id    pgtype.UUID
		total int64
	)

	err := s.Scan(&id, &st.Name, &st.Lines, &st.Zone, &st.Lat, &st.Lng, &st.CreatedAt, &total)
	if err != nil {
		return domain.Station{}, 0, err
	}

	st.ID = uuid.UUID(id.Bytes)
	return st, total, nil
}
