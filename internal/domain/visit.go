package domain

import (
	"time"

	"github.com/google/uuid"
)

// VisitStatus is the verification verdict persisted with a visit.
type VisitStatus string

const (
	StatusVerified VisitStatus = "verified"
	StatusPending  VisitStatus = "pending"
)

// PendingReason explains why a visit was accepted but not verified.
// The vocabulary is stable: downstream UI and re-verification jobs key off it.
type PendingReason string

const (
	ReasonNoConnectivity PendingReason = "no_connectivity"
	ReasonGeofenceFailed PendingReason = "geofence_failed"
	ReasonNoGPSData      PendingReason = "no_gps_data"
	ReasonOCRFailed      PendingReason = "ocr_failed"
	ReasonLowConfidence  PendingReason = "low_confidence"
)

// VerificationMethod records which evidence path produced the verdict.
type VerificationMethod string

const (
	MethodSimulation VerificationMethod = "simulation"
	MethodOffline    VerificationMethod = "offline"
	MethodManual     VerificationMethod = "manual"
	MethodAIImage    VerificationMethod = "ai_image"
	MethodGPS        VerificationMethod = "gps"
)

// Verdict is the output of the status decision engine: the final status, the
// pending reason when status is pending, and the verification method.
type Verdict struct {
	Status        VisitStatus
	PendingReason *PendingReason
	Method        VerificationMethod
}

// Visit is the durable record of one accepted check-in.
//
// Two invariants are enforced by the recorder and the store together:
// at most one Visit exists per (activity, station, user) triple, and within
// one activity the SeqActual values form exactly {1..N} with no gaps or
// repeats. A Visit is never mutated after insertion.
type Visit struct {
	ID         uuid.UUID
	ActivityID uuid.UUID
	StationID  uuid.UUID
	UserID     uuid.UUID

	// SeqActual is the dense per-activity sequence number, starting at 1.
	// It reflects insertion order, not evidence timestamp: a late-arriving
	// submission for an earlier real-world visit still sequences later.
	SeqActual int

	Status             VisitStatus
	PendingReason      *PendingReason
	VerificationMethod VerificationMethod

	Lat              *float64
	Lng              *float64
	GPSSource        GPSSource
	GeofenceDistance *float64

	OCRText       string
	OCRConfidence *float64

	CapturedAt      *time.Time
	VisitedAt       time.Time
	Simulation      bool
	VerifierVersion string
	CreatedAt       time.Time
}

// Submission is everything the client sends for one check-in attempt.
// Network round-trips to the recognizer and geocoder happen before the
// recorder runs; their results arrive here as already-resolved inputs.
type Submission struct {
	ActivityID uuid.UUID
	StationID  uuid.UUID
	UserID     uuid.UUID

	DeviceCoords *Coordinate
	ImageCoords  *Coordinate

	Geofence *GeofenceResult
	OCR      *OCRResult

	SimulationMode  bool
	AIEnabled       bool
	HasConnectivity bool

	CapturedAt      *time.Time
	VerifierVersion string
}

// CheckinResult is returned to the caller on a successful recording.
type CheckinResult struct {
	VisitID   uuid.UUID
	SeqActual int
	Status    VisitStatus
}

// Activity is the container a Visit belongs to. It owns the per-activity
// sequence counter implicitly via "max seq_actual so far".
type Activity struct {
	ID        uuid.UUID
	Name      string
	UserID    uuid.UUID
	CreatedAt time.Time
	UpdatedAt time.Time
}
