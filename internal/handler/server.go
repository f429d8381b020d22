// Package handler implements the HTTP handlers for the check-in API.
// Handlers decode and validate request bodies, call the service layer, and
// map domain errors onto the wire error shapes. Methods are split into
// endpoint-specific files but all share the same Server struct.
package handler

import (
	"context"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/tubequest/checkin/internal/domain"
)

// CheckinServicer defines the business operations the check-in handlers
// depend on. Defining the interface here (in the consumer package) follows
// the Go convention: "accept interfaces, return concrete types". It lets
// handler tests inject a mock without touching the database or service layer.
type CheckinServicer interface {
	Record(ctx context.Context, sub domain.Submission) (domain.CheckinResult, error)
	ListByActivity(ctx context.Context, activityID uuid.UUID) ([]domain.Visit, error)
}

// ResolveServicer defines the station-name resolution operation.
type ResolveServicer interface {
	Resolve(ctx context.Context, rawText, cleanedName string, userLoc *domain.Coordinate) (domain.ResolvedStation, error)
}

// StationServicer defines the catalogue read operations.
type StationServicer interface {
	ListPaged(ctx context.Context, p domain.PaginationParams) ([]domain.Station, int64, error)
}

// JourneyServicer defines the journey export operation.
type JourneyServicer interface {
	Export(ctx context.Context, activityID uuid.UUID) ([]domain.JourneyRow, error)
}

// Server holds the dependencies shared by all endpoint handlers.
type Server struct {
	checkins CheckinServicer
	resolve  ResolveServicer
	stations StationServicer
	journeys JourneyServicer
	validate *validator.Validate
}

// NewServer constructs the Server with all its dependencies.
func NewServer(checkins CheckinServicer, resolve ResolveServicer, stations StationServicer, journeys JourneyServicer) *Server {
	return &Server{
		checkins: checkins,
		resolve:  resolve,
		stations: stations,
		journeys: journeys,
		validate: validator.New(validator.WithRequiredStructEnabled()),
	}
}

// Routes mounts every endpoint on a fresh chi router. main.go and handler
// tests wire the same router, so tests exercise real routing.
func (s *Server) Routes() chi.Router {
	r := chi.NewRouter()

	r.Get("/healthz", s.GetHealth)
	r.Method(http.MethodGet, "/metrics", promhttp.Handler())

	r.Route("/api", func(r chi.Router) {
		r.Route("/activities/{activityID}", func(r chi.Router) {
			r.Post("/checkins", s.CreateCheckin)
			r.Get("/visits", s.ListVisits)
			r.Get("/export", s.ExportJourney)
		})
		r.Get("/stations", s.ListStations)
		r.Post("/stations/resolve", s.ResolveStation)
	})

	return r
}
