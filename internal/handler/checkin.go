package handler

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/tubequest/checkin/internal/domain"
)

// checkinRequest is the submission payload for POST
// /api/activities/{activityID}/checkins. The shape validation (required
// identifiers, confidence range) happens here at the boundary; everything
// past the handler works with typed domain values.
type checkinRequest struct {
	StationID uuid.UUID `json:"stationId" validate:"required"`
	UserID    uuid.UUID `json:"userId" validate:"required"`

	// Device-reported position.
	Latitude  *float64 `json:"latitude" validate:"omitempty,gte=-90,lte=90"`
	Longitude *float64 `json:"longitude" validate:"omitempty,gte=-180,lte=180"`

	// Image-embedded position, when the photo carried EXIF GPS data.
	ExifLatitude  *float64 `json:"exifLatitude" validate:"omitempty,gte=-90,lte=90"`
	ExifLongitude *float64 `json:"exifLongitude" validate:"omitempty,gte=-180,lte=180"`

	GeofenceResult *geofenceResultPayload `json:"geofenceResult"`
	OCRResult      *ocrResultPayload      `json:"ocrResult"`

	SimulationMode  bool `json:"simulationMode"`
	AIEnabled       bool `json:"aiEnabled"`
	HasConnectivity bool `json:"hasConnectivity"`

	CapturedAt *time.Time `json:"capturedAt"`
	// CheckinType is the client's idea of the check-in mode. Validated for
	// shape but advisory only: the verification method is derived server-side.
	CheckinType     string `json:"checkinType" validate:"omitempty,oneof=gps image manual"`
	VerifierVersion string `json:"verifierVersion"`
}

type geofenceResultPayload struct {
	WithinGeofence bool     `json:"withinGeofence"`
	Distance       *float64 `json:"distance"`
	GPSSource      string   `json:"gpsSource" validate:"required,oneof=exif device none"`
	RadiusUsed     float64  `json:"radiusUsed"`
}

type ocrResultPayload struct {
	Success        bool    `json:"success"`
	Confidence     float64 `json:"confidence" validate:"gte=0,lte=1"`
	StationTextRaw string  `json:"stationTextRaw"`
}

// checkinResponse is the success payload.
type checkinResponse struct {
	Success   bool   `json:"success"`
	VisitID   string `json:"visitId"`
	SeqActual int    `json:"seqActual"`
	Status    string `json:"status"`
}

// CreateCheckin handles POST /api/activities/{activityID}/checkins.
func (s *Server) CreateCheckin(w http.ResponseWriter, r *http.Request) {
	activityID, err := uuid.Parse(chi.URLParam(r, "activityID"))
	if err != nil {
		badRequest(w, "invalid activity id")
		return
	}

	var req checkinRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		badRequest(w, "invalid request body")
		return
	}
	if err := s.validate.Struct(req); err != nil {
		badRequest(w, "activity, station and user identifiers are required")
		return
	}

	result, err := s.checkins.Record(r.Context(), requestToSubmission(activityID, req))
	if err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusCreated, checkinResponse{
		Success:   true,
		VisitID:   result.VisitID.String(),
		SeqActual: result.SeqActual,
		Status:    string(result.Status),
	})
}

// visitResponse is one row of the activity visit log.
type visitResponse struct {
	VisitID            string     `json:"visitId"`
	StationID          string     `json:"stationId"`
	SeqActual          int        `json:"seqActual"`
	Status             string     `json:"status"`
	PendingReason      *string    `json:"pendingReason,omitempty"`
	VerificationMethod string     `json:"verificationMethod"`
	GPSSource          string     `json:"gpsSource"`
	DistanceMeters     *float64   `json:"distanceMeters,omitempty"`
	VisitedAt          time.Time  `json:"visitedAt"`
	CapturedAt         *time.Time `json:"capturedAt,omitempty"`
	Simulation         bool       `json:"simulation"`
}

// ListVisits handles GET /api/activities/{activityID}/visits.
// Visits are returned in seq_actual order.
func (s *Server) ListVisits(w http.ResponseWriter, r *http.Request) {
	activityID, err := uuid.Parse(chi.URLParam(r, "activityID"))
	if err != nil {
		badRequest(w, "invalid activity id")
		return
	}

	visits, err := s.checkins.ListByActivity(r.Context(), activityID)
	if err != nil {
		writeError(w, err)
		return
	}

	out := make([]visitResponse, len(visits))
	for i, v := range visits {
		out[i] = visitToResponse(v)
	}
	writeJSON(w, http.StatusOK, out)
}

// --- mapping helpers --------------------------------------------------------

func requestToSubmission(activityID uuid.UUID, req checkinRequest) domain.Submission {
	sub := domain.Submission{
		ActivityID:      activityID,
		StationID:       req.StationID,
		UserID:          req.UserID,
		SimulationMode:  req.SimulationMode,
		AIEnabled:       req.AIEnabled,
		HasConnectivity: req.HasConnectivity,
		CapturedAt:      req.CapturedAt,
		VerifierVersion: req.VerifierVersion,
	}
	if req.Latitude != nil && req.Longitude != nil {
		sub.DeviceCoords = &domain.Coordinate{Lat: *req.Latitude, Lng: *req.Longitude}
	}
	if req.ExifLatitude != nil && req.ExifLongitude != nil {
		sub.ImageCoords = &domain.Coordinate{Lat: *req.ExifLatitude, Lng: *req.ExifLongitude}
	}
	if g := req.GeofenceResult; g != nil {
		sub.Geofence = &domain.GeofenceResult{
			WithinRadius:   g.WithinGeofence,
			DistanceMeters: g.Distance,
			Source:         domain.GPSSource(g.GPSSource),
			RadiusUsed:     g.RadiusUsed,
		}
	}
	if o := req.OCRResult; o != nil {
		sub.OCR = &domain.OCRResult{
			Success:    o.Success,
			Confidence: o.Confidence,
			RawText:    o.StationTextRaw,
		}
	}
	return sub
}

func visitToResponse(v domain.Visit) visitResponse {
	resp := visitResponse{
		VisitID:            v.ID.String(),
		StationID:          v.StationID.String(),
		SeqActual:          v.SeqActual,
		Status:             string(v.Status),
		VerificationMethod: string(v.VerificationMethod),
		GPSSource:          string(v.GPSSource),
		DistanceMeters:     v.GeofenceDistance,
		VisitedAt:          v.VisitedAt,
		CapturedAt:         v.CapturedAt,
		Simulation:         v.Simulation,
	}
	if v.PendingReason != nil {
		reason := string(*v.PendingReason)
		resp.PendingReason = &reason
	}
	return resp
}
