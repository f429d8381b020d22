package handler

import (
	"bytes"
	"encoding/csv"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/tubequest/checkin/internal/domain"
)

// csvHeaders defines the column names written as the first row of any CSV export.
var csvHeaders = []string{
	"activity_id", "activity_name", "seq_actual", "station_name",
	"status", "pending_reason", "verification_method", "gps_source",
	"distance_m", "visited_at", "simulation",
}

// ExportJourney handles GET /api/activities/{activityID}/export.
// Use ?format=csv to receive CSV; default is JSON.
func (s *Server) ExportJourney(w http.ResponseWriter, r *http.Request) {
	activityID, err := uuid.Parse(chi.URLParam(r, "activityID"))
	if err != nil {
		badRequest(w, "invalid activity id")
		return
	}

	rows, err := s.journeys.Export(r.Context(), activityID)
	if err != nil {
		writeError(w, err)
		return
	}

	if r.URL.Query().Get("format") == "csv" {
		writeCSV(w, rows)
		return
	}
	writeJSON(w, http.StatusOK, rows)
}

// writeCSV encodes journey rows as CSV.
func writeCSV(w http.ResponseWriter, rows []domain.JourneyRow) {
	var buf bytes.Buffer
	cw := csv.NewWriter(&buf)

	cw.Write(csvHeaders)
	for _, row := range rows {
		distance := ""
		if row.DistanceMeters != nil {
			distance = strconv.FormatFloat(*row.DistanceMeters, 'f', 1, 64)
		}
		cw.Write([]string{
			row.ActivityID,
			row.ActivityName,
			strconv.Itoa(row.SeqActual),
			row.StationName,
			row.Status,
			row.PendingReason,
			row.VerificationMethod,
			row.GPSSource,
			distance,
			row.VisitedAt.Format(time.RFC3339),
			strconv.FormatBool(row.Simulation),
		})
	}
	cw.Flush()

	w.Header().Set("Content-Type", "text/csv")
	w.Header().Set("Content-Disposition", `attachment; filename="journey.csv"`)
	w.WriteHeader(http.StatusOK)
	w.Write(buf.Bytes())
}
