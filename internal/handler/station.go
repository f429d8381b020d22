package handler

import (
	"encoding/json"
	"net/http"
	"strconv"

	"github.com/tubequest/checkin/internal/domain"
)

// ListStations handles GET /api/stations.
// Supports ?page= and ?limit= query parameters (defaults: page=1, limit=50, max=100).
func (s *Server) ListStations(w http.ResponseWriter, r *http.Request) {
	params := domain.NewPaginationParams(
		queryInt(r, "page"),
		queryInt(r, "limit"),
	)

	stations, total, err := s.stations.ListPaged(r.Context(), params)
	if err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"data": stations,
		"pagination": map[string]any{
			"page":  params.Page,
			"limit": params.Limit,
			"total": total,
		},
	})
}

// resolveRequest is the payload for POST /api/stations/resolve.
type resolveRequest struct {
	Text        string   `json:"text" validate:"required"`
	CleanedName string   `json:"cleanedName"`
	Lat         *float64 `json:"lat" validate:"omitempty,gte=-90,lte=90"`
	Lng         *float64 `json:"lng" validate:"omitempty,gte=-180,lte=180"`
}

// resolveResponse is the success payload of a resolution.
type resolveResponse struct {
	Success bool           `json:"success"`
	Station domain.Station `json:"station"`
	Rule    string         `json:"rule"`
	Score   float64        `json:"score"`
}

// ResolveStation handles POST /api/stations/resolve.
// Resolution failures (no match, ambiguity) return 422 with ranked
// suggestions; they are outcomes, not server faults.
func (s *Server) ResolveStation(w http.ResponseWriter, r *http.Request) {
	var req resolveRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		badRequest(w, "invalid request body")
		return
	}
	if err := s.validate.Struct(req); err != nil {
		badRequest(w, "text is required")
		return
	}

	var userLoc *domain.Coordinate
	if req.Lat != nil && req.Lng != nil {
		userLoc = &domain.Coordinate{Lat: *req.Lat, Lng: *req.Lng}
	}

	resolved, err := s.resolve.Resolve(r.Context(), req.Text, req.CleanedName, userLoc)
	if err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, resolveResponse{
		Success: true,
		Station: resolved.Station,
		Rule:    string(resolved.Rule),
		Score:   resolved.Score,
	})
}

// queryInt parses an optional positive integer query parameter.
func queryInt(r *http.Request, key string) *int {
	raw := r.URL.Query().Get(key)
	if raw == "" {
		return nil
	}
	n, err := strconv.Atoi(raw)
	if err != nil {
		return nil
	}
	return &n
}
