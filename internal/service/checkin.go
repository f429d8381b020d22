// Package service contains the business logic for the check-in API.
// Services validate inputs, enforce business rules, and orchestrate repo
// calls. No SQL lives here; services depend on repo interfaces, not
// implementations.
package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/sethvargo/go-retry"

	"github.com/tubequest/checkin/internal/domain"
	"github.com/tubequest/checkin/internal/geofence"
	"github.com/tubequest/checkin/internal/repo"
	"github.com/tubequest/checkin/internal/verify"
)

// StationReader is the catalogue access the check-in services need.
// Satisfied by *catalog.Cache; defined here so tests can inject a fake
// without a cache or a database.
type StationReader interface {
	Station(ctx context.Context, id uuid.UUID) (domain.Station, error)
	Catalogue(ctx context.Context) ([]domain.Station, error)
}

// transientAttempts is how many times a transient store failure is retried
// before surfacing as a server error. Each retry restarts from the duplicate
// check, never from a partially assigned sequence.
const transientAttempts = 2

// CheckinService implements the visit recorder: duplicate detection, atomic
// sequence assignment, status derivation, and persistence of one check-in.
type CheckinService struct {
	activities repo.ActivityRepo
	visits     repo.VisitRepo
	stations   StationReader
	radiusM    float64
	log        *slog.Logger
}

// NewCheckinService constructs a CheckinService backed by the provided repos.
// radiusM is the geofence radius applied when a submission carries raw
// coordinates but no client-side geofence result; log may be nil to silence
// the geofence audit line.
func NewCheckinService(activities repo.ActivityRepo, visits repo.VisitRepo, stations StationReader, radiusM float64, log *slog.Logger) *CheckinService {
	if radiusM <= 0 {
		radiusM = geofence.DefaultRadiusMeters
	}
	return &CheckinService{activities: activities, visits: visits, stations: stations, radiusM: radiusM, log: log}
}

// Record runs the full recording flow for one submission.
//
// Client errors (domain.ErrValidation for missing identifiers,
// domain.ErrNotFound for an unknown activity or station, and
// *domain.DuplicateVisitError for an already-visited station) are terminal;
// the caller should not blindly retry them. Transient store failures are
// retried internally with exponential backoff, restarting from the duplicate
// check each time.
func (s *CheckinService) Record(ctx context.Context, sub domain.Submission) (domain.CheckinResult, error) {
	if err := validateSubmission(sub); err != nil {
		return domain.CheckinResult{}, err
	}

	if _, err := s.activities.GetByID(ctx, sub.ActivityID); err != nil {
		return domain.CheckinResult{}, fmt.Errorf("service.CheckinService.Record: activity: %w", err)
	}
	station, err := s.stations.Station(ctx, sub.StationID)
	if err != nil {
		return domain.CheckinResult{}, fmt.Errorf("service.CheckinService.Record: station: %w", err)
	}

	var result domain.CheckinResult
	backoff := retry.WithMaxRetries(transientAttempts, retry.NewExponential(50*time.Millisecond))
	err = retry.Do(ctx, backoff, func(ctx context.Context) error {
		r, err := s.recordOnce(ctx, sub, station)
		if err != nil {
			if isClientError(err) {
				return err
			}
			return retry.RetryableError(err)
		}
		result = r
		return nil
	})
	if err != nil {
		return domain.CheckinResult{}, err
	}
	return result, nil
}

// recordOnce is one attempt of the duplicate-check → sequence → insert flow.
// It is the retry unit: a transient failure anywhere inside re-enters at the
// duplicate check.
func (s *CheckinService) recordOnce(ctx context.Context, sub domain.Submission, station domain.Station) (domain.CheckinResult, error) {
	existing, stationName, err := s.visits.FindByTriple(ctx, sub.ActivityID, sub.StationID, sub.UserID)
	switch {
	case err == nil:
		dup := &domain.DuplicateVisitError{
			ExistingVisitID: existing.ID,
			StationName:     stationName,
			VisitedAt:       existing.VisitedAt,
		}
		duplicatesTotal.Inc()
		return domain.CheckinResult{}, dup
	case !errors.Is(err, domain.ErrNotFound):
		return domain.CheckinResult{}, fmt.Errorf("service.CheckinService.Record: duplicate check: %w", err)
	}

	// A client that could not run its own geofence check still sends raw
	// coordinates; validate them server-side against the station location.
	gf := sub.Geofence
	if gf == nil && (sub.ImageCoords != nil || sub.DeviceCoords != nil) {
		r := geofence.Validate(sub.ImageCoords, sub.DeviceCoords,
			domain.Coordinate{Lat: station.Lat, Lng: station.Lng}, s.radiusM, s.log)
		gf = &r
	}

	verdict := verify.Decide(verify.Inputs{
		SimulationMode:  sub.SimulationMode,
		HasConnectivity: sub.HasConnectivity,
		AIEnabled:       sub.AIEnabled,
		Geofence:        gf,
		OCR:             sub.OCR,
	})

	visit, err := s.visits.CreateWithSequence(ctx, buildVisit(sub, verdict, gf))
	if err != nil {
		var dup *domain.DuplicateVisitError
		if errors.As(err, &dup) {
			// Lost the race to a concurrent insert for the same triple.
			// The repo already shaped it identically to the pre-check path.
			if dup.StationName == "" {
				dup.StationName = station.Name
			}
			duplicatesTotal.Inc()
			return domain.CheckinResult{}, dup
		}
		return domain.CheckinResult{}, fmt.Errorf("service.CheckinService.Record: insert: %w", err)
	}

	verdictsTotal.WithLabelValues(string(visit.Status), string(visit.VerificationMethod)).Inc()
	return domain.CheckinResult{
		VisitID:   visit.ID,
		SeqActual: visit.SeqActual,
		Status:    visit.Status,
	}, nil
}

// ListByActivity returns the visit log of an activity in sequence order.
// Always returns a non-nil slice so callers can safely range over it.
func (s *CheckinService) ListByActivity(ctx context.Context, activityID uuid.UUID) ([]domain.Visit, error) {
	if _, err := s.activities.GetByID(ctx, activityID); err != nil {
		return nil, fmt.Errorf("service.CheckinService.ListByActivity: activity: %w", err)
	}
	visits, err := s.visits.ListByActivity(ctx, activityID)
	if err != nil {
		return nil, fmt.Errorf("service.CheckinService.ListByActivity: %w", err)
	}
	if visits == nil {
		return []domain.Visit{}, nil
	}
	return visits, nil
}

// validateSubmission enforces the required-identifier rule before anything
// touches storage.
func validateSubmission(sub domain.Submission) error {
	if sub.ActivityID == uuid.Nil || sub.StationID == uuid.Nil || sub.UserID == uuid.Nil {
		return fmt.Errorf("%w: activity, station and user identifiers are required", domain.ErrValidation)
	}
	return nil
}

// buildVisit assembles the durable record from the submission and verdict.
// The persisted coordinates are the ones from the winning GPS source.
func buildVisit(sub domain.Submission, verdict domain.Verdict, gf *domain.GeofenceResult) domain.Visit {
	v := domain.Visit{
		ActivityID:         sub.ActivityID,
		StationID:          sub.StationID,
		UserID:             sub.UserID,
		Status:             verdict.Status,
		PendingReason:      verdict.PendingReason,
		VerificationMethod: verdict.Method,
		GPSSource:          geofence.SelectSource(sub.ImageCoords, sub.DeviceCoords),
		CapturedAt:         sub.CapturedAt,
		Simulation:         sub.SimulationMode,
		VerifierVersion:    sub.VerifierVersion,
	}

	switch v.GPSSource {
	case domain.SourceImage:
		v.Lat, v.Lng = &sub.ImageCoords.Lat, &sub.ImageCoords.Lng
	case domain.SourceDevice:
		v.Lat, v.Lng = &sub.DeviceCoords.Lat, &sub.DeviceCoords.Lng
	}

	if gf != nil {
		v.GeofenceDistance = gf.DistanceMeters
		// The geofence result's source tag is authoritative when present:
		// it reflects the coordinates the validation actually used.
		v.GPSSource = gf.Source
	}
	if sub.OCR != nil {
		v.OCRText = sub.OCR.RawText
		conf := sub.OCR.Confidence
		v.OCRConfidence = &conf
	}
	return v
}

// isClientError reports whether err is terminal for the caller: validation,
// missing resource, or duplicate. Everything else is treated as transient.
func isClientError(err error) bool {
	var dup *domain.DuplicateVisitError
	return errors.Is(err, domain.ErrValidation) ||
		errors.Is(err, domain.ErrNotFound) ||
		errors.As(err, &dup)
}
