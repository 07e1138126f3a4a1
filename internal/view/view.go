package view

import (
	"context"
	"fmt"
	"time"

	"github.com/pkordes/fahrtenbuch/internal/domain"
	"github.com/pkordes/fahrtenbuch/internal/watch"
)

// TripSource lists trips. *service.TripService satisfies it.
type TripSource interface {
	List(ctx context.Context, f domain.TripFilter) ([]domain.Trip, error)
}

// View serves the aggregates as one-shot reads and as live streams that
// recompute after every change to the trips topic.
type View struct {
	trips TripSource
	hub   *watch.Hub
}

// New constructs a View.
func New(trips TripSource, hub *watch.Hub) *View {
	return &View{trips: trips, hub: hub}
}

// Summary computes the Summary of year from the current collection.
func (v *View) Summary(ctx context.Context, year int) (Summary, error) {
	trips, err := v.load(ctx)
	if err != nil {
		return Summary{}, fmt.Errorf("view.View.Summary: %w", err)
	}
	return Summarize(trips, year), nil
}

// CountInRange counts non-ghost trips dated within [from, to].
func (v *View) CountInRange(ctx context.Context, from, to time.Time) (int, error) {
	trips, err := v.load(ctx)
	if err != nil {
		return 0, fmt.Errorf("view.View.CountInRange: %w", err)
	}
	return CountInRange(trips, from, to), nil
}

// WatchSummary streams the Summary of year.
func (v *View) WatchSummary(ctx context.Context, year int) <-chan watch.Update[Summary] {
	return derive(ctx, v, func(trips []domain.Trip) Summary { return Summarize(trips, year) })
}

// WatchGhostCount streams the number of ghost trips.
func (v *View) WatchGhostCount(ctx context.Context) <-chan watch.Update[int] {
	return derive(ctx, v, GhostCount)
}

// WatchActiveTrip streams the active trip, nil when there is none.
func (v *View) WatchActiveTrip(ctx context.Context) <-chan watch.Update[*domain.Trip] {
	return derive(ctx, v, ActiveTrip)
}

// WatchDistances streams the total, business, and private distance.
func (v *View) WatchDistances(ctx context.Context) <-chan watch.Update[Distances] {
	return derive(ctx, v, SumDistances)
}

// WatchMonthlyDistance streams the per-month distance of year.
func (v *View) WatchMonthlyDistance(ctx context.Context, year int) <-chan watch.Update[[12]float64] {
	return derive(ctx, v, func(trips []domain.Trip) [12]float64 { return MonthlyDistance(trips, year) })
}

// WatchCountInRange streams the trip count within [from, to].
func (v *View) WatchCountInRange(ctx context.Context, from, to time.Time) <-chan watch.Update[int] {
	return derive(ctx, v, func(trips []domain.Trip) int { return CountInRange(trips, from, to) })
}

func (v *View) load(ctx context.Context) ([]domain.Trip, error) {
	return v.trips.List(ctx, domain.TripFilter{})
}

func derive[T any](ctx context.Context, v *View, f func([]domain.Trip) T) <-chan watch.Update[T] {
	return watch.Watch(ctx, v.hub, func(ctx context.Context) (T, error) {
		trips, err := v.load(ctx)
		if err != nil {
			var zero T
			return zero, err
		}
		return f(trips), nil
	}, watch.TopicTrips)
}
