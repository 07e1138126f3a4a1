// Package view derives read-side aggregates from the trip collection: counts,
// the active trip, and distance sums. Nothing here writes to the store.
package view

import (
	"time"

	"github.com/pkordes/fahrtenbuch/internal/domain"
)

// Distances sums the distance of completed trips.
type Distances struct {
	TotalKm    float64 `json:"total_km"`
	BusinessKm float64 `json:"business_km"`
	PrivateKm  float64 `json:"private_km"`
}

// Summary bundles every aggregate for one calendar year.
type Summary struct {
	Year       int          `json:"year"`
	TripCount  int          `json:"trip_count"`
	GhostCount int          `json:"ghost_count"`
	ActiveTrip *domain.Trip `json:"active_trip"`
	Distances  Distances    `json:"distances"`
	MonthlyKm  [12]float64  `json:"monthly_km"`
}

// counted reports whether t contributes to distance totals. Active trips have
// no distance yet and ghost trips never will.
func counted(t domain.Trip) bool {
	return t.Phase() == domain.PhaseCompleted
}

// GhostCount returns the number of ghost trips.
func GhostCount(trips []domain.Trip) int {
	n := 0
	for _, t := range trips {
		if t.Phase() == domain.PhaseGhost {
			n++
		}
	}
	return n
}

// ActiveTrip returns the most recently started active trip, or nil. Only one
// is expected, but uniqueness is enforced per vehicle, not globally.
func ActiveTrip(trips []domain.Trip) *domain.Trip {
	var active *domain.Trip
	for i := range trips {
		t := trips[i]
		if t.Phase() != domain.PhaseStarted {
			continue
		}
		if active == nil || t.Date.After(active.Date) {
			active = &t
		}
	}
	return active
}

// SumDistances totals completed trips, split by the business flag.
func SumDistances(trips []domain.Trip) Distances {
	var d Distances
	for _, t := range trips {
		if !counted(t) {
			continue
		}
		d.TotalKm += t.DistanceKm
		if t.BusinessTrip {
			d.BusinessKm += t.DistanceKm
		} else {
			d.PrivateKm += t.DistanceKm
		}
	}
	return d
}

// MonthlyDistance returns the completed distance per month of year, January
// at index 0.
func MonthlyDistance(trips []domain.Trip, year int) [12]float64 {
	var months [12]float64
	for _, t := range trips {
		if !counted(t) || t.Date.Year() != year {
			continue
		}
		months[t.Date.Month()-1] += t.DistanceKm
	}
	return months
}

// CountInRange counts non-ghost trips dated within [from, to].
func CountInRange(trips []domain.Trip, from, to time.Time) int {
	n := 0
	for _, t := range trips {
		if t.Phase() == domain.PhaseGhost {
			continue
		}
		if t.Date.Before(from) || t.Date.After(to) {
			continue
		}
		n++
	}
	return n
}

// Summarize computes the Summary of year. Distance sums and the trip count
// cover only trips dated in year; the ghost count and the active trip span the
// whole collection, since both call for attention regardless of date.
func Summarize(trips []domain.Trip, year int) Summary {
	from := time.Date(year, time.January, 1, 0, 0, 0, 0, time.UTC)
	to := from.AddDate(1, 0, 0).Add(-time.Nanosecond)

	inYear := make([]domain.Trip, 0, len(trips))
	for _, t := range trips {
		if t.Date.Year() == year {
			inYear = append(inYear, t)
		}
	}

	return Summary{
		Year:       year,
		TripCount:  CountInRange(inYear, from, to),
		GhostCount: GhostCount(trips),
		ActiveTrip: ActiveTrip(trips),
		Distances:  SumDistances(inYear),
		MonthlyKm:  MonthlyDistance(trips, year),
	}
}
