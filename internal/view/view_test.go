package view_test

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pkordes/fahrtenbuch/internal/domain"
	"github.com/pkordes/fahrtenbuch/internal/view"
	"github.com/pkordes/fahrtenbuch/internal/watch"
)

func day(y int, m time.Month, d int) time.Time {
	return time.Date(y, m, d, 8, 0, 0, 0, time.UTC)
}

func completed(date time.Time, km float64, business bool) domain.Trip {
	return domain.Trip{Date: date, DistanceKm: km, BusinessTrip: business}
}

func fixtures() []domain.Trip {
	return []domain.Trip{
		completed(day(2025, 1, 10), 30, true),
		completed(day(2025, 1, 20), 12.5, false),
		completed(day(2025, 3, 5), 100, true),
		completed(day(2024, 12, 31), 40, true),
		{Date: day(2025, 2, 1), IsGhost: true, DistanceKm: 999},
		{Date: day(2025, 4, 1), IsActive: true, StartLocation: "Köln"},
	}
}

func TestGhostCount(t *testing.T) {
	assert.Equal(t, 1, view.GhostCount(fixtures()))
	assert.Equal(t, 0, view.GhostCount(nil))
}

func TestActiveTrip(t *testing.T) {
	got := view.ActiveTrip(fixtures())
	require.NotNil(t, got)
	assert.Equal(t, "Köln", got.StartLocation)

	assert.Nil(t, view.ActiveTrip([]domain.Trip{completed(day(2025, 1, 1), 1, true)}))
}

func TestActiveTrip_PicksLatest(t *testing.T) {
	trips := []domain.Trip{
		{ID: 1, Date: day(2025, 5, 1), IsActive: true},
		{ID: 2, Date: day(2025, 5, 2), IsActive: true},
	}

	assert.Equal(t, int64(2), view.ActiveTrip(trips).ID)
}

func TestSumDistances_ExcludesGhostAndActive(t *testing.T) {
	got := view.SumDistances(fixtures())

	assert.Equal(t, view.Distances{TotalKm: 182.5, BusinessKm: 170, PrivateKm: 12.5}, got)
}

func TestMonthlyDistance(t *testing.T) {
	got := view.MonthlyDistance(fixtures(), 2025)

	assert.Equal(t, 42.5, got[0])
	assert.Equal(t, 0.0, got[1], "ghost trip in February must not count")
	assert.Equal(t, 100.0, got[2])
	assert.Equal(t, 0.0, got[11])
}

func TestCountInRange_InclusiveBounds(t *testing.T) {
	trips := fixtures()

	assert.Equal(t, 2, view.CountInRange(trips, day(2025, 1, 10), day(2025, 1, 20)))
	assert.Equal(t, 4, view.CountInRange(trips, day(2025, 1, 1), day(2025, 12, 31)))
	assert.Equal(t, 0, view.CountInRange(trips, day(2026, 1, 1), day(2026, 12, 31)))
}

func TestSummarize(t *testing.T) {
	got := view.Summarize(fixtures(), 2025)

	assert.Equal(t, 2025, got.Year)
	assert.Equal(t, 4, got.TripCount)
	assert.Equal(t, 1, got.GhostCount)
	require.NotNil(t, got.ActiveTrip)
	assert.Equal(t, 142.5, got.Distances.TotalKm)
	assert.Equal(t, 130.0, got.Distances.BusinessKm)
}

func TestAggregates_DoNotMutateInput(t *testing.T) {
	trips := fixtures()
	before := append([]domain.Trip(nil), trips...)

	view.Summarize(trips, 2025)

	assert.Equal(t, before, trips)
}

// ---- live View -------------------------------------------------------------

type fakeSource struct {
	mu    sync.Mutex
	trips []domain.Trip
	err   error
}

func (f *fakeSource) List(_ context.Context, _ domain.TripFilter) ([]domain.Trip, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]domain.Trip(nil), f.trips...), f.err
}

func (f *fakeSource) add(t domain.Trip) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.trips = append(f.trips, t)
}

var _ view.TripSource = (*fakeSource)(nil)

func recv[T any](t *testing.T, ch <-chan watch.Update[T]) T {
	t.Helper()
	select {
	case u := <-ch:
		require.NoError(t, u.Err)
		return u.Value
	case <-time.After(time.Second):
		t.Fatal("timed out waiting for update")
		var zero T
		return zero
	}
}

func TestView_WatchGhostCount(t *testing.T) {
	src := &fakeSource{trips: fixtures()}
	hub := watch.NewHub()
	v := view.New(src, hub)
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	ch := v.WatchGhostCount(ctx)
	assert.Equal(t, 1, recv(t, ch))

	src.add(domain.Trip{Date: day(2025, 6, 1), IsGhost: true})
	hub.Publish(watch.TopicTrips)

	assert.Equal(t, 2, recv(t, ch))
}

func TestView_WatchIgnoresOtherTopics(t *testing.T) {
	src := &fakeSource{trips: fixtures()}
	hub := watch.NewHub()
	v := view.New(src, hub)
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	ch := v.WatchDistances(ctx)
	recv(t, ch)

	hub.Publish(watch.TopicVehicles)

	select {
	case <-ch:
		t.Fatal("vehicle changes must not trigger a reload")
	case <-time.After(50 * time.Millisecond):
	}
}

func TestView_Summary_StoreError(t *testing.T) {
	boom := errors.New("store unavailable")
	v := view.New(&fakeSource{err: boom}, watch.NewHub())

	_, err := v.Summary(context.Background(), 2025)

	assert.ErrorIs(t, err, boom)
}

func TestView_CountInRange(t *testing.T) {
	v := view.New(&fakeSource{trips: fixtures()}, watch.NewHub())

	n, err := v.CountInRange(context.Background(), day(2025, 1, 1), day(2025, 1, 31))

	require.NoError(t, err)
	assert.Equal(t, 2, n)
}

func TestView_WatchActiveTrip_ClearsOnCompletion(t *testing.T) {
	src := &fakeSource{trips: fixtures()}
	hub := watch.NewHub()
	v := view.New(src, hub)
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	ch := v.WatchActiveTrip(ctx)
	active := recv(t, ch)
	require.NotNil(t, active)
	assert.Equal(t, "Köln", active.StartLocation)

	src.mu.Lock()
	src.trips[5].IsActive = false
	src.trips[5].DistanceKm = 15
	src.mu.Unlock()
	hub.Publish(watch.TopicTrips)

	assert.Nil(t, recv(t, ch))
}

func TestView_WatchMonthlyAndRange(t *testing.T) {
	src := &fakeSource{trips: fixtures()}
	hub := watch.NewHub()
	v := view.New(src, hub)
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	monthly := v.WatchMonthlyDistance(ctx, 2025)
	count := v.WatchCountInRange(ctx, day(2025, 1, 1), day(2025, 1, 31))

	m := recv(t, monthly)
	assert.InDelta(t, 42.5, m[0], 1e-9)
	assert.InDelta(t, 100, m[2], 1e-9)
	assert.Equal(t, 2, recv(t, count))

	src.add(completed(day(2025, 1, 25), 7.5, true))
	hub.Publish(watch.TopicTrips)

	m = recv(t, monthly)
	assert.InDelta(t, 50, m[0], 1e-9)
	assert.Equal(t, 3, recv(t, count))
}
