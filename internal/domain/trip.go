// Package domain contains the core data types for the Fahrtenbuch backend.
// This package has no dependencies on other internal packages and is imported
// by every other internal package (validation, repo, service, handler).
package domain

import "time"

// Phase is the lifecycle phase of a trip. It is derived from the IsActive and
// IsGhost flags rather than stored, so the two can never disagree.
type Phase string

const (
	// PhaseStarted is the initial phase: only start fields are populated.
	PhaseStarted Phase = "started"
	// PhaseCompleted is the terminal success phase.
	PhaseCompleted Phase = "completed"
	// PhaseGhost marks an abandoned or superseded trip kept for reconciliation.
	PhaseGhost Phase = "ghost"
)

// Trip is a single vehicle trip recorded for mileage reporting.
// ID is zero until the trip has been persisted.
type Trip struct {
	ID            int64     `json:"id"`
	Date          time.Time `json:"date"`
	StartLocation string    `json:"start_location"`
	EndLocation   string    `json:"end_location,omitempty"`
	DistanceKm    float64   `json:"distance_km"`
	Purpose       string    `json:"purpose,omitempty"`
	PurposeID     *int64    `json:"purpose_id,omitempty"`
	BusinessTrip  bool      `json:"business_trip"`
	Notes         string    `json:"notes,omitempty"`
	StartOdometer *int64    `json:"start_odometer,omitempty"`
	EndOdometer   *int64    `json:"end_odometer,omitempty"` // nil until the trip is completed
	VehicleID     *int64    `json:"vehicle_id,omitempty"`
	IsActive      bool      `json:"is_active"`
	IsGhost       bool      `json:"is_ghost"`
	// AuditLocked is set by the store when the trip's audit-protected vehicle
	// is deleted, so the trip stays protected without its vehicle.
	AuditLocked   bool      `json:"audit_locked"`
	CreatedAt     time.Time `json:"created_at"`
	UpdatedAt     time.Time `json:"updated_at"`
}

// Phase reports the lifecycle phase encoded by the trip's flags.
func (t Trip) Phase() Phase {
	switch {
	case t.IsActive:
		return PhaseStarted
	case t.IsGhost:
		return PhaseGhost
	default:
		return PhaseCompleted
	}
}

// WithPhase returns a copy of t with IsActive and IsGhost set for p.
func (t Trip) WithPhase(p Phase) Trip {
	t.IsActive = p == PhaseStarted
	t.IsGhost = p == PhaseGhost
	return t
}

// OdometerDistance returns EndOdometer - StartOdometer when both readings are
// present. ok is false when either reading is missing.
func (t Trip) OdometerDistance() (km float64, ok bool) {
	if t.StartOdometer == nil || t.EndOdometer == nil {
		return 0, false
	}
	return float64(*t.EndOdometer - *t.StartOdometer), true
}

// TripFilter narrows trip list queries. Zero values mean "no constraint".
// From and To are inclusive bounds on Trip.Date.
type TripFilter struct {
	VehicleID *int64
	From      *time.Time
	To        *time.Time
}
