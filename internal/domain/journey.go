package domain

import "time"

// JourneyRow is a single row in an activity's journey export.
// It is a flat, denormalized view: one row per visit in seq_actual order,
// with activity fields repeated on every row. Activities with no visits
// yield no rows.
type JourneyRow struct {
	ActivityID   string `json:"activityId"`
	ActivityName string `json:"activityName"`

	SeqActual          int       `json:"seqActual"`
	StationName        string    `json:"stationName"`
	Status             string    `json:"status"`
	PendingReason      string    `json:"pendingReason,omitempty"`
	VerificationMethod string    `json:"verificationMethod"`
	GPSSource          string    `json:"gpsSource"`
	DistanceMeters     *float64  `json:"distanceMeters,omitempty"`
	VisitedAt          time.Time `json:"visitedAt"`
	Simulation         bool      `json:"simulation"`
}
