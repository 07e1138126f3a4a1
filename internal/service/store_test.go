package service_test

import (
	"context"
	"fmt"
	"maps"
	"time"

	"github.com/pkordes/fahrtenbuch/internal/clock"
	"github.com/pkordes/fahrtenbuch/internal/domain"
	"github.com/pkordes/fahrtenbuch/internal/service"
	"github.com/pkordes/fahrtenbuch/internal/validation"
	"github.com/pkordes/fahrtenbuch/internal/watch"
)

var testNow = time.Date(2025, 6, 15, 12, 0, 0, 0, time.UTC)

func ptr[T any](v T) *T { return &v }

// store backs the func-field mocks with maps so lifecycle tests can follow a
// trip across several commands.
type store struct {
	trips    map[int64]domain.Trip
	vehicles map[int64]domain.Vehicle
	purposes map[int64]domain.TripPurpose
	nextID   int64
	updates  int

	audit *mockAuditRepo
	tx    *fakeTx
	hub   *watch.Hub
	clock *clock.Fake
}

func newStore() *store {
	s := &store{
		trips:    map[int64]domain.Trip{},
		vehicles: map[int64]domain.Vehicle{},
		purposes: map[int64]domain.TripPurpose{},
		nextID:   100,
		audit:    &mockAuditRepo{},
		hub:      watch.NewHub(),
		clock:    clock.NewFake(testNow),
	}
	s.tx = &fakeTx{begin: s.snapshot}
	return s
}

// snapshot copies the trip and vehicle maps and returns a func restoring them.
func (s *store) snapshot() func() {
	trips := maps.Clone(s.trips)
	vehicles := maps.Clone(s.vehicles)
	return func() {
		s.trips = trips
		s.vehicles = vehicles
	}
}

func (s *store) id() int64 {
	s.nextID++
	return s.nextID
}

func (s *store) addVehicle(v domain.Vehicle) domain.Vehicle {
	v.ID = s.id()
	s.vehicles[v.ID] = v
	return v
}

func (s *store) addTrip(t domain.Trip) domain.Trip {
	t.ID = s.id()
	s.trips[t.ID] = t
	return t
}

func notFound(kind string, id int64) error {
	return fmt.Errorf("%s %d: %w", kind, id, domain.ErrNotFound)
}

func (s *store) tripRepo() *mockTripRepo {
	get := func(_ context.Context, id int64) (domain.Trip, error) {
		t, ok := s.trips[id]
		if !ok {
			return domain.Trip{}, notFound("trip", id)
		}
		return t, nil
	}
	return &mockTripRepo{
		create: func(_ context.Context, t domain.Trip) (domain.Trip, error) {
			t.ID = s.id()
			t.CreatedAt = s.clock.Now()
			s.trips[t.ID] = t
			return t, nil
		},
		getByID:      get,
		getForUpdate: get,
		activeForVehicle: func(_ context.Context, vehicleID int64) (domain.Trip, error) {
			for _, t := range s.trips {
				if t.IsActive && t.VehicleID != nil && *t.VehicleID == vehicleID {
					return t, nil
				}
			}
			return domain.Trip{}, notFound("active trip for vehicle", vehicleID)
		},
		list: func(_ context.Context, _ domain.TripFilter) ([]domain.Trip, error) {
			out := make([]domain.Trip, 0, len(s.trips))
			for _, t := range s.trips {
				out = append(out, t)
			}
			return out, nil
		},
		update: func(_ context.Context, t domain.Trip) (domain.Trip, error) {
			if _, ok := s.trips[t.ID]; !ok {
				return domain.Trip{}, notFound("trip", t.ID)
			}
			s.updates++
			s.trips[t.ID] = t
			return t, nil
		},
		delete: func(_ context.Context, id int64) error {
			if _, ok := s.trips[id]; !ok {
				return notFound("trip", id)
			}
			delete(s.trips, id)
			return nil
		},
	}
}

func (s *store) vehicleRepo() *mockVehicleRepo {
	get := func(_ context.Context, id int64) (domain.Vehicle, error) {
		v, ok := s.vehicles[id]
		if !ok {
			return domain.Vehicle{}, notFound("vehicle", id)
		}
		return v, nil
	}
	return &mockVehicleRepo{
		create: func(_ context.Context, v domain.Vehicle) (domain.Vehicle, error) {
			return s.addVehicle(v), nil
		},
		getByID:      get,
		getForUpdate: get,
		update: func(_ context.Context, v domain.Vehicle) (domain.Vehicle, error) {
			if _, ok := s.vehicles[v.ID]; !ok {
				return domain.Vehicle{}, notFound("vehicle", v.ID)
			}
			s.vehicles[v.ID] = v
			return v, nil
		},
		delete: func(_ context.Context, id int64) error {
			if _, ok := s.vehicles[id]; !ok {
				return notFound("vehicle", id)
			}
			v := s.vehicles[id]
			delete(s.vehicles, id)
			for tid, t := range s.trips {
				if t.VehicleID != nil && *t.VehicleID == id {
					t.VehicleID = nil
					t.AuditLocked = t.AuditLocked || v.AuditProtected
					s.trips[tid] = t
				}
			}
			return nil
		},
		lockRegistry: func(context.Context) error { return nil },
		clearPrimary: func(_ context.Context, keepID int64) (int64, error) {
			var n int64
			for id, v := range s.vehicles {
				if v.IsPrimary && id != keepID {
					v.IsPrimary = false
					s.vehicles[id] = v
					n++
				}
			}
			return n, nil
		},
		setPrimary: func(_ context.Context, id int64) (domain.Vehicle, error) {
			v, ok := s.vehicles[id]
			if !ok {
				return domain.Vehicle{}, notFound("vehicle", id)
			}
			v.IsPrimary = true
			s.vehicles[id] = v
			return v, nil
		},
	}
}

func (s *store) purposeRepo() *mockPurposeRepo {
	return &mockPurposeRepo{
		getByID: func(_ context.Context, id int64) (domain.TripPurpose, error) {
			p, ok := s.purposes[id]
			if !ok {
				return domain.TripPurpose{}, notFound("purpose", id)
			}
			return p, nil
		},
	}
}

func (s *store) deps() service.Deps {
	return service.Deps{
		Tx:        s.tx,
		Trips:     s.tripRepo(),
		Vehicles:  s.vehicleRepo(),
		Purposes:  s.purposeRepo(),
		Audit:     s.audit,
		Validator: validation.NewEngine(s.clock),
		Clock:     s.clock,
		Hub:       s.hub,
	}
}

func (s *store) primaryCount() int {
	n := 0
	for _, v := range s.vehicles {
		if v.IsPrimary {
			n++
		}
	}
	return n
}
