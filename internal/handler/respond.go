package handler

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/tubequest/checkin/internal/domain"
)

// errorResponse is the wire shape of every rejection. MachineCode carries the
// stable error vocabulary; Message is the human-readable text the surrounding
// application surfaces directly.
type errorResponse struct {
	Success   bool   `json:"success"`
	ErrorCode string `json:"errorCode"`
	Message   string `json:"message,omitempty"`

	// Duplicate-visit details, present only for errorCode "duplicate_visit".
	ExistingVisitID string     `json:"existingVisitId,omitempty"`
	StationName     string     `json:"stationName,omitempty"`
	VisitedAt       *time.Time `json:"visitedAt,omitempty"`

	// Ranked alternatives, present only for resolver outcomes.
	Suggestions []domain.Suggestion `json:"suggestions,omitempty"`
}

// writeJSON encodes v with the given status. Encoding failures are logged,
// not surfaced: headers are already written by then.
func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		slog.Error("encode response", "error", err)
	}
}

// writeError maps a service error onto the wire. Duplicate, validation,
// not-found, and resolver outcomes each get their documented status and
// error code; anything else is a 500 server_error with no internals leaked.
func writeError(w http.ResponseWriter, err error) {
	var dup *domain.DuplicateVisitError
	if errors.As(err, &dup) {
		resp := errorResponse{
			ErrorCode:   "duplicate_visit",
			Message:     dup.Error(),
			StationName: dup.StationName,
		}
		if dup.ExistingVisitID != uuid.Nil {
			resp.ExistingVisitID = dup.ExistingVisitID.String()
		}
		if !dup.VisitedAt.IsZero() {
			t := dup.VisitedAt
			resp.VisitedAt = &t
		}
		writeJSON(w, http.StatusConflict, resp)
		return
	}

	var re *domain.ResolveError
	if errors.As(err, &re) {
		writeJSON(w, http.StatusUnprocessableEntity, errorResponse{
			ErrorCode:   string(re.Code),
			Message:     re.Error(),
			Suggestions: re.Suggestions,
		})
		return
	}

	switch {
	case errors.Is(err, domain.ErrValidation):
		writeJSON(w, http.StatusBadRequest, errorResponse{
			ErrorCode: "missing_fields",
			Message:   unwrapMessage(err),
		})
	case errors.Is(err, domain.ErrNotFound):
		writeJSON(w, http.StatusNotFound, errorResponse{
			ErrorCode: "not_found",
			Message:   "resource not found",
		})
	default:
		slog.Error("request failed", "error", err)
		writeJSON(w, http.StatusInternalServerError, errorResponse{
			ErrorCode: "server_error",
		})
	}
}

// badRequest rejects a request before it reaches the service layer
// (malformed body, invalid identifiers).
func badRequest(w http.ResponseWriter, message string) {
	writeJSON(w, http.StatusBadRequest, errorResponse{
		ErrorCode: "missing_fields",
		Message:   message,
	})
}

// unwrapMessage extracts the human-readable part from a wrapped sentinel
// error, e.g. "service.CheckinService.Record: validation error: user id is
// required" becomes "user id is required".
func unwrapMessage(err error) string {
	if err == nil {
		return ""
	}
	msg := err.Error()
	if i := strings.LastIndex(msg, "validation error: "); i >= 0 {
		return msg[i+len("validation error: "):]
	}
	return msg
}
