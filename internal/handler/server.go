// Package handler implements the HTTP handlers for the Fahrtenbuch API.
// All handlers are methods on Server. Methods are split into domain-specific
// files (health.go, trip.go, vehicle.go, etc.) but share the same Server
// struct so they can access its dependencies.
package handler

import (
	"context"
	"io"
	"log/slog"
	"net/http"
	"slices"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/gorilla/websocket"

	"github.com/pkordes/fahrtenbuch/internal/allowance"
	"github.com/pkordes/fahrtenbuch/internal/clock"
	"github.com/pkordes/fahrtenbuch/internal/domain"
	"github.com/pkordes/fahrtenbuch/internal/service"
	"github.com/pkordes/fahrtenbuch/internal/view"
	"github.com/pkordes/fahrtenbuch/internal/watch"
)

// TripServicer defines the trip lifecycle operations the handlers depend on.
// Defining the interface here (in the consumer package) lets handler tests
// inject a mock without touching the database or service layer.
type TripServicer interface {
	Start(ctx context.Context, draft domain.Trip) (domain.Trip, error)
	Complete(ctx context.Context, in service.CompleteInput) (domain.Trip, error)
	MarkGhost(ctx context.Context, id int64) (domain.Trip, error)
	Edit(ctx context.Context, existing, proposed domain.Trip) (domain.Trip, error)
	Delete(ctx context.Context, id int64) error
	GetByID(ctx context.Context, id int64) (domain.Trip, error)
	ListPaged(ctx context.Context, f domain.TripFilter, p domain.PaginationParams) ([]domain.Trip, int64, error)
	Active(ctx context.Context, vehicleID int64) (domain.Trip, error)
}

// VehicleServicer defines the vehicle registry operations.
type VehicleServicer interface {
	Insert(ctx context.Context, v domain.Vehicle) (domain.Vehicle, error)
	Update(ctx context.Context, v domain.Vehicle) (domain.Vehicle, error)
	SetPrimary(ctx context.Context, id int64) (domain.Vehicle, error)
	Delete(ctx context.Context, id int64) error
	GetByID(ctx context.Context, id int64) (domain.Vehicle, error)
	List(ctx context.Context) ([]domain.Vehicle, error)
}

// PurposeServicer defines the trip purpose catalogue operations.
type PurposeServicer interface {
	Create(ctx context.Context, p domain.TripPurpose) (domain.TripPurpose, error)
	Update(ctx context.Context, p domain.TripPurpose) (domain.TripPurpose, error)
	Delete(ctx context.Context, id int64) error
	List(ctx context.Context) ([]domain.TripPurpose, error)
}

// AuditServicer reads a trip's audit trail.
type AuditServicer interface {
	ForTrip(ctx context.Context, tripID int64) ([]domain.TripAuditLog, error)
}

// AllowanceServicer computes the commuter allowance.
type AllowanceServicer interface {
	ForYear(ctx context.Context, year, workingDays int) (allowance.Result, error)
	ForCommute(oneWayKm float64, workingDays int) allowance.Result
}

// SummaryViewer serves the trip collection aggregates.
type SummaryViewer interface {
	Summary(ctx context.Context, year int) (view.Summary, error)
	CountInRange(ctx context.Context, from, to time.Time) (int, error)
	WatchSummary(ctx context.Context, year int) <-chan watch.Update[view.Summary]
}

// Services bundles the Server's dependencies. Nil services leave their
// routes unregistered.
type Services struct {
	Trips     TripServicer
	Vehicles  VehicleServicer
	Purposes  PurposeServicer
	Audit     AuditServicer
	Allowance AllowanceServicer
	View      SummaryViewer
	Clock     clock.Clock
	Log       *slog.Logger
	// Origins lists the origins allowed to open the live summary socket.
	// "*" allows any origin.
	Origins []string
}

// Server serves every API endpoint.
type Server struct {
	svc      Services
	log      *slog.Logger
	clock    clock.Clock
	upgrader websocket.Upgrader
}

// NewServer constructs the Server with all its dependencies.
func NewServer(svc Services) *Server {
	s := &Server{svc: svc, log: svc.Log, clock: svc.Clock}
	if s.log == nil {
		s.log = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	if s.clock == nil {
		s.clock = clock.System{}
	}
	s.upgrader = websocket.Upgrader{CheckOrigin: s.checkOrigin}
	return s
}

// NewHealthHandler returns a Server that only serves the health check.
func NewHealthHandler() *Server {
	return NewServer(Services{})
}

// Routes returns a chi router with every endpoint whose service is set.
func (s *Server) Routes() chi.Router {
	r := chi.NewRouter()
	r.Get("/healthz", s.GetHealth)

	if s.svc.Trips != nil {
		r.Route("/trips", func(r chi.Router) {
			r.Get("/", s.ListTrips)
			r.Post("/", s.StartTrip)
			r.Get("/active", s.GetActiveTrip)
			if s.svc.View != nil {
				r.Get("/summary", s.GetSummary)
				r.Post("/count", s.CountTrips)
			}
			r.Route("/{id}", func(r chi.Router) {
				r.Get("/", s.GetTrip)
				r.Put("/", s.EditTrip)
				r.Delete("/", s.DeleteTrip)
				r.Post("/complete", s.CompleteTrip)
				r.Post("/ghost", s.MarkGhost)
				if s.svc.Audit != nil {
					r.Get("/audit", s.ListAudit)
				}
			})
		})
	}
	if s.svc.Vehicles != nil {
		r.Route("/vehicles", func(r chi.Router) {
			r.Get("/", s.ListVehicles)
			r.Post("/", s.CreateVehicle)
			r.Get("/{id}", s.GetVehicle)
			r.Put("/{id}", s.UpdateVehicle)
			r.Delete("/{id}", s.DeleteVehicle)
			r.Post("/{id}/primary", s.SetPrimaryVehicle)
		})
	}
	if s.svc.Purposes != nil {
		r.Route("/purposes", func(r chi.Router) {
			r.Get("/", s.ListPurposes)
			r.Post("/", s.CreatePurpose)
			r.Put("/{id}", s.UpdatePurpose)
			r.Delete("/{id}", s.DeletePurpose)
		})
	}
	if s.svc.Allowance != nil {
		r.Get("/allowance", s.GetAllowance)
	}
	if s.svc.View != nil {
		r.Get("/ws/summary", s.StreamSummary)
	}
	return r
}

func (s *Server) checkOrigin(r *http.Request) bool {
	origin := r.Header.Get("Origin")
	if origin == "" {
		return true
	}
	return slices.Contains(s.svc.Origins, "*") || slices.Contains(s.svc.Origins, origin)
}
