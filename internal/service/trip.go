package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/pkordes/fahrtenbuch/internal/domain"
	"github.com/pkordes/fahrtenbuch/internal/lifecycle"
	"github.com/pkordes/fahrtenbuch/internal/watch"
)

// ActiveTripPolicy decides what Start does when the vehicle already has an
// active trip.
type ActiveTripPolicy string

const (
	// PolicySupersede demotes the previous active trip to a ghost.
	PolicySupersede ActiveTripPolicy = "supersede"
	// PolicyReject fails the start with domain.ErrActiveTripExists.
	PolicyReject ActiveTripPolicy = "reject"
)

// ParseActiveTripPolicy parses a policy name. The empty string means
// PolicySupersede.
func ParseActiveTripPolicy(s string) (ActiveTripPolicy, error) {
	switch ActiveTripPolicy(s) {
	case "", PolicySupersede:
		return PolicySupersede, nil
	case PolicyReject:
		return PolicyReject, nil
	}
	return "", fmt.Errorf("unknown active trip policy %q", s)
}

// CompleteInput carries the end-of-trip fields supplied by the driver.
type CompleteInput struct {
	TripID      int64
	EndLocation string
	EndOdometer *int64
	Purpose     string
	PurposeID   *int64
	// BusinessTrip, when nil, is taken from the purpose's business flag.
	BusinessTrip *bool
	Notes        string
}

// TripService runs the trip lifecycle: start, complete, ghost, edit, delete.
type TripService struct {
	Deps
	policy ActiveTripPolicy
}

// NewTripService constructs a TripService.
func NewTripService(d Deps, policy ActiveTripPolicy) *TripService {
	if policy == "" {
		policy = PolicySupersede
	}
	return &TripService{Deps: d, policy: policy}
}

// Start validates draft and persists it as the vehicle's active trip.
// The vehicle row is locked for the transaction so concurrent starts on the
// same vehicle are serialized.
func (s *TripService) Start(ctx context.Context, draft domain.Trip) (domain.Trip, error) {
	defer s.Metrics.ObserveCommand("start", time.Now())

	if res := s.Validator.ValidateStart(draft); !res.Valid() {
		s.Metrics.IncValidationFailure("start")
		return domain.Trip{}, fmt.Errorf("service.TripService.Start: %w", res.Err())
	}

	var (
		created    domain.Trip
		superseded *domain.Trip
		audited    int
	)
	err := s.Tx.RunInTx(ctx, func(ctx context.Context) error {
		vehicle, err := s.Vehicles.GetForUpdate(ctx, *draft.VehicleID)
		if err != nil {
			return err
		}

		prev, err := s.Trips.ActiveForVehicle(ctx, vehicle.ID)
		switch {
		case errors.Is(err, domain.ErrNotFound):
		case err != nil:
			return err
		case s.policy == PolicyReject:
			return fmt.Errorf("%w (trip %d)", domain.ErrActiveTripExists, prev.ID)
		default:
			ghost, n, err := s.abandon(ctx, prev, vehicle.AuditProtected)
			if err != nil {
				return err
			}
			superseded, audited = &ghost, n
		}

		t := draft
		t.ID = 0
		t.AuditLocked = false
		if t.Date.IsZero() {
			t.Date = calendarDay(s.Clock.Now())
		}
		t = clearEnd(t).WithPhase(domain.PhaseStarted)

		created, err = s.Trips.Create(ctx, t)
		return err
	})
	if err != nil {
		return domain.Trip{}, fmt.Errorf("service.TripService.Start: %w", err)
	}

	s.Metrics.IncTransition("start")
	s.Metrics.AddAuditEntries(audited)
	if superseded != nil {
		s.Metrics.IncTransition(lifecycle.EventAbandon)
		s.logger().InfoContext(ctx, "active trip superseded", "trip_id", superseded.ID, "vehicle_id", created.VehicleID)
	}
	s.logger().InfoContext(ctx, "trip started", "trip_id", created.ID, "vehicle_id", created.VehicleID)
	s.publishTrips(audited)
	return created, nil
}

// Complete closes an active trip. The distance is derived from the odometer
// readings and the result must pass full validation; on failure nothing is
// written and the trip stays active.
func (s *TripService) Complete(ctx context.Context, in CompleteInput) (domain.Trip, error) {
	defer s.Metrics.ObserveCommand("complete", time.Now())

	var (
		updated domain.Trip
		audited int
	)
	err := s.Tx.RunInTx(ctx, func(ctx context.Context) error {
		current, err := s.Trips.GetForUpdate(ctx, in.TripID)
		if err != nil {
			return err
		}
		next, err := lifecycle.Transition(current.Phase(), lifecycle.EventComplete)
		if err != nil {
			return err
		}

		proposed := current
		proposed.EndLocation = in.EndLocation
		proposed.EndOdometer = in.EndOdometer
		if in.Purpose != "" {
			proposed.Purpose = in.Purpose
		}
		if in.Notes != "" {
			proposed.Notes = in.Notes
		}
		if in.BusinessTrip != nil {
			proposed.BusinessTrip = *in.BusinessTrip
		}
		if in.PurposeID != nil {
			purpose, err := s.Purposes.GetByID(ctx, *in.PurposeID)
			if errors.Is(err, domain.ErrNotFound) {
				return fmt.Errorf("%w %d", domain.ErrPurposeNotFound, *in.PurposeID)
			}
			if err != nil {
				return err
			}
			proposed.PurposeID = &purpose.ID
			if proposed.Purpose == "" {
				proposed.Purpose = purpose.Name
			}
			if in.BusinessTrip == nil {
				proposed.BusinessTrip = purpose.IsBusinessRelevant
			}
		}
		if km, ok := proposed.OdometerDistance(); ok {
			proposed.DistanceKm = km
		}
		proposed = proposed.WithPhase(next)

		if res := s.Validator.Validate(proposed); !res.Valid() {
			s.Metrics.IncValidationFailure("complete")
			return res.Err()
		}

		updated, audited, err = s.commit(ctx, current, proposed)
		return err
	})
	if err != nil {
		return domain.Trip{}, fmt.Errorf("service.TripService.Complete: %w", err)
	}

	s.Metrics.IncTransition(lifecycle.EventComplete)
	s.Metrics.AddAuditEntries(audited)
	s.logger().InfoContext(ctx, "trip completed", "trip_id", updated.ID, "distance_km", updated.DistanceKm)
	s.publishTrips(audited)
	return updated, nil
}

// MarkGhost abandons an active trip. The row is kept with its end fields
// cleared.
func (s *TripService) MarkGhost(ctx context.Context, id int64) (domain.Trip, error) {
	defer s.Metrics.ObserveCommand("ghost", time.Now())

	var (
		ghost   domain.Trip
		audited int
	)
	err := s.Tx.RunInTx(ctx, func(ctx context.Context) error {
		current, err := s.Trips.GetForUpdate(ctx, id)
		if err != nil {
			return err
		}
		protected, err := s.protected(ctx, current)
		if err != nil {
			return err
		}
		ghost, audited, err = s.abandon(ctx, current, protected)
		return err
	})
	if err != nil {
		return domain.Trip{}, fmt.Errorf("service.TripService.MarkGhost: %w", err)
	}

	s.Metrics.IncTransition(lifecycle.EventAbandon)
	s.Metrics.AddAuditEntries(audited)
	s.logger().InfoContext(ctx, "trip marked as ghost", "trip_id", ghost.ID)
	s.publishTrips(audited)
	return ghost, nil
}

// Edit replaces the stored state of existing.ID with proposed. The phase
// change implied by proposed's flags must be a legal lifecycle event; a
// completed target passes full validation, a started target the start rules
// with its end fields cleared. Abandoning goes through MarkGhost, so Ghost is
// never an edit target. A proposed date on the stored calendar day keeps the
// stored time of day. When the old or new vehicle is audit-protected, one
// audit entry per changed field commits in the same transaction as the update.
func (s *TripService) Edit(ctx context.Context, existing, proposed domain.Trip) (domain.Trip, error) {
	defer s.Metrics.ObserveCommand("edit", time.Now())

	var (
		updated domain.Trip
		event   string
		audited int
	)
	err := s.Tx.RunInTx(ctx, func(ctx context.Context) error {
		current, err := s.Trips.GetForUpdate(ctx, existing.ID)
		if err != nil {
			return err
		}

		target := proposed.Phase()
		if target == domain.PhaseGhost {
			return fmt.Errorf("%w: use the ghost command to abandon a trip", domain.ErrInvalidState)
		}
		event, err = lifecycle.EventFor(current.Phase(), target)
		if err != nil {
			return err
		}
		if _, err := lifecycle.Transition(current.Phase(), event); err != nil {
			return err
		}

		next := proposed.WithPhase(target)
		next.ID = current.ID
		next.CreatedAt = current.CreatedAt
		next.AuditLocked = current.AuditLocked
		if sameDay(next.Date, current.Date) {
			next.Date = current.Date
		}

		var res domain.ValidationResult
		if target == domain.PhaseStarted {
			next = clearEnd(next)
			res = s.Validator.ValidateStart(next)
		} else {
			if km, ok := next.OdometerDistance(); ok {
				next.DistanceKm = km
			}
			res = s.Validator.Validate(next)
		}
		if !res.Valid() {
			s.Metrics.IncValidationFailure("edit")
			return res.Err()
		}

		updated, audited, err = s.commit(ctx, current, next)
		return err
	})
	if err != nil {
		return domain.Trip{}, fmt.Errorf("service.TripService.Edit: %w", err)
	}

	s.Metrics.IncTransition(event)
	s.Metrics.AddAuditEntries(audited)
	s.logger().InfoContext(ctx, "trip edited", "trip_id", updated.ID, "event", event, "audit_entries", audited)
	s.publishTrips(audited)
	return updated, nil
}

// Delete removes a trip unless it is audit-locked or its vehicle is
// audit-protected, in which case it fails with a *domain.ProtectedDeletionError
// and the row is untouched.
// Audit rows of a deleted trip cascade.
func (s *TripService) Delete(ctx context.Context, id int64) error {
	defer s.Metrics.ObserveCommand("delete", time.Now())

	err := s.Tx.RunInTx(ctx, func(ctx context.Context) error {
		current, err := s.Trips.GetForUpdate(ctx, id)
		if err != nil {
			return err
		}
		protected, err := s.protected(ctx, current)
		if err != nil {
			return err
		}
		if protected {
			return &domain.ProtectedDeletionError{Entity: "trip", ID: id, Reason: protectionReason(current)}
		}
		return s.Trips.Delete(ctx, id)
	})
	if err != nil {
		return fmt.Errorf("service.TripService.Delete: %w", err)
	}

	s.logger().InfoContext(ctx, "trip deleted", "trip_id", id)
	s.publish(watch.TopicTrips, watch.TopicAudit)
	return nil
}

// GetByID returns a single trip.
func (s *TripService) GetByID(ctx context.Context, id int64) (domain.Trip, error) {
	t, err := s.Trips.GetByID(ctx, id)
	if err != nil {
		return domain.Trip{}, fmt.Errorf("service.TripService.GetByID: %w", err)
	}
	return t, nil
}

// List returns the trips matching f, most recent first.
func (s *TripService) List(ctx context.Context, f domain.TripFilter) ([]domain.Trip, error) {
	trips, err := s.Trips.List(ctx, f)
	if err != nil {
		return nil, fmt.Errorf("service.TripService.List: %w", err)
	}
	return trips, nil
}

// ListPaged returns one page of trips matching f and the total match count.
func (s *TripService) ListPaged(ctx context.Context, f domain.TripFilter, p domain.PaginationParams) ([]domain.Trip, int64, error) {
	trips, total, err := s.Trips.ListPaged(ctx, f, p)
	if err != nil {
		return nil, 0, fmt.Errorf("service.TripService.ListPaged: %w", err)
	}
	return trips, total, nil
}

// Active returns the vehicle's active trip or domain.ErrNotFound.
func (s *TripService) Active(ctx context.Context, vehicleID int64) (domain.Trip, error) {
	t, err := s.Trips.ActiveForVehicle(ctx, vehicleID)
	if err != nil {
		return domain.Trip{}, fmt.Errorf("service.TripService.Active: %w", err)
	}
	return t, nil
}

// abandon moves an active trip to Ghost inside the caller's transaction.
func (s *TripService) abandon(ctx context.Context, current domain.Trip, protected bool) (domain.Trip, int, error) {
	next, err := lifecycle.Transition(current.Phase(), lifecycle.EventAbandon)
	if err != nil {
		return domain.Trip{}, 0, err
	}

	ghost := clearEnd(current.WithPhase(next))

	n := 0
	if protected {
		if n, err = s.appendAudit(ctx, current, ghost); err != nil {
			return domain.Trip{}, 0, err
		}
	}
	updated, err := s.Trips.Update(ctx, ghost)
	if err != nil {
		return domain.Trip{}, 0, err
	}
	return updated, n, nil
}

// commit writes proposed over current, auditing the diff first when either
// the old or the new vehicle is protected.
func (s *TripService) commit(ctx context.Context, current, proposed domain.Trip) (domain.Trip, int, error) {
	protected, err := s.protected(ctx, current)
	if err != nil {
		return domain.Trip{}, 0, err
	}
	if !protected && !sameRef(current.VehicleID, proposed.VehicleID) {
		if protected, err = s.vehicleProtected(ctx, proposed.VehicleID); err != nil {
			return domain.Trip{}, 0, err
		}
	}

	n := 0
	if protected {
		if n, err = s.appendAudit(ctx, current, proposed); err != nil {
			return domain.Trip{}, 0, err
		}
	}
	updated, err := s.Trips.Update(ctx, proposed)
	if err != nil {
		return domain.Trip{}, 0, err
	}
	return updated, n, nil
}

func (s *TripService) appendAudit(ctx context.Context, old, updated domain.Trip) (int, error) {
	entries := RecordChanges(old.ID, old, updated, s.Clock.Now())
	if len(entries) == 0 {
		return 0, nil
	}
	if _, err := s.Audit.Append(ctx, entries); err != nil {
		return 0, err
	}
	return len(entries), nil
}

// protected reports whether changes to t must be audited: t was locked when
// its protected vehicle was deleted, or its vehicle is protected now.
func (s *TripService) protected(ctx context.Context, t domain.Trip) (bool, error) {
	if t.AuditLocked {
		return true, nil
	}
	return s.vehicleProtected(ctx, t.VehicleID)
}

// vehicleProtected reports whether the referenced vehicle is audit-protected.
// A nil reference is unprotected; a dangling one is domain.ErrNotFound.
func (s *TripService) vehicleProtected(ctx context.Context, vehicleID *int64) (bool, error) {
	if vehicleID == nil {
		return false, nil
	}
	v, err := s.Vehicles.GetByID(ctx, *vehicleID)
	if err != nil {
		return false, err
	}
	return v.AuditProtected, nil
}

func (s *TripService) publishTrips(audited int) {
	if audited > 0 {
		s.publish(watch.TopicTrips, watch.TopicAudit)
		return
	}
	s.publish(watch.TopicTrips)
}

func protectionReason(t domain.Trip) string {
	if t.VehicleID == nil {
		return "its audit-protected vehicle was deleted"
	}
	return fmt.Sprintf("vehicle %d is audit-protected", *t.VehicleID)
}

// clearEnd empties the fields a trip only has once completed.
func clearEnd(t domain.Trip) domain.Trip {
	t.EndLocation = ""
	t.EndOdometer = nil
	t.DistanceKm = 0
	return t
}

// calendarDay returns midnight UTC of t's UTC date. Trip dates are calendar
// dates on the wire.
func calendarDay(t time.Time) time.Time {
	y, m, d := t.UTC().Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

func sameDay(a, b time.Time) bool {
	return calendarDay(a).Equal(calendarDay(b))
}

func sameRef(a, b *int64) bool {
	if a == nil || b == nil {
		return a == b
	}
	return *a == *b
}
