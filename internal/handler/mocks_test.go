package handler_test

import (
	"context"
	"time"

	"github.com/pkordes/fahrtenbuch/internal/allowance"
	"github.com/pkordes/fahrtenbuch/internal/domain"
	"github.com/pkordes/fahrtenbuch/internal/handler"
	"github.com/pkordes/fahrtenbuch/internal/service"
	"github.com/pkordes/fahrtenbuch/internal/view"
	"github.com/pkordes/fahrtenbuch/internal/watch"
)

// Test doubles for the handler's service interfaces. Set only the method
// fields your test needs.

type mockTripServicer struct {
	start     func(ctx context.Context, draft domain.Trip) (domain.Trip, error)
	complete  func(ctx context.Context, in service.CompleteInput) (domain.Trip, error)
	markGhost func(ctx context.Context, id int64) (domain.Trip, error)
	edit      func(ctx context.Context, existing, proposed domain.Trip) (domain.Trip, error)
	delete    func(ctx context.Context, id int64) error
	getByID   func(ctx context.Context, id int64) (domain.Trip, error)
	listPaged func(ctx context.Context, f domain.TripFilter, p domain.PaginationParams) ([]domain.Trip, int64, error)
	active    func(ctx context.Context, vehicleID int64) (domain.Trip, error)
}

func (m *mockTripServicer) Start(ctx context.Context, d domain.Trip) (domain.Trip, error) {
	return m.start(ctx, d)
}
func (m *mockTripServicer) Complete(ctx context.Context, in service.CompleteInput) (domain.Trip, error) {
	return m.complete(ctx, in)
}
func (m *mockTripServicer) MarkGhost(ctx context.Context, id int64) (domain.Trip, error) {
	return m.markGhost(ctx, id)
}
func (m *mockTripServicer) Edit(ctx context.Context, existing, proposed domain.Trip) (domain.Trip, error) {
	return m.edit(ctx, existing, proposed)
}
func (m *mockTripServicer) Delete(ctx context.Context, id int64) error { return m.delete(ctx, id) }
func (m *mockTripServicer) GetByID(ctx context.Context, id int64) (domain.Trip, error) {
	return m.getByID(ctx, id)
}
func (m *mockTripServicer) ListPaged(ctx context.Context, f domain.TripFilter, p domain.PaginationParams) ([]domain.Trip, int64, error) {
	return m.listPaged(ctx, f, p)
}
func (m *mockTripServicer) Active(ctx context.Context, vehicleID int64) (domain.Trip, error) {
	return m.active(ctx, vehicleID)
}

// compile-time check: mockTripServicer must satisfy handler.TripServicer.
var _ handler.TripServicer = (*mockTripServicer)(nil)

type mockVehicleServicer struct {
	insert     func(ctx context.Context, v domain.Vehicle) (domain.Vehicle, error)
	update     func(ctx context.Context, v domain.Vehicle) (domain.Vehicle, error)
	setPrimary func(ctx context.Context, id int64) (domain.Vehicle, error)
	delete     func(ctx context.Context, id int64) error
	getByID    func(ctx context.Context, id int64) (domain.Vehicle, error)
	list       func(ctx context.Context) ([]domain.Vehicle, error)
}

func (m *mockVehicleServicer) Insert(ctx context.Context, v domain.Vehicle) (domain.Vehicle, error) {
	return m.insert(ctx, v)
}
func (m *mockVehicleServicer) Update(ctx context.Context, v domain.Vehicle) (domain.Vehicle, error) {
	return m.update(ctx, v)
}
func (m *mockVehicleServicer) SetPrimary(ctx context.Context, id int64) (domain.Vehicle, error) {
	return m.setPrimary(ctx, id)
}
func (m *mockVehicleServicer) Delete(ctx context.Context, id int64) error { return m.delete(ctx, id) }
func (m *mockVehicleServicer) GetByID(ctx context.Context, id int64) (domain.Vehicle, error) {
	return m.getByID(ctx, id)
}
func (m *mockVehicleServicer) List(ctx context.Context) ([]domain.Vehicle, error) { return m.list(ctx) }

var _ handler.VehicleServicer = (*mockVehicleServicer)(nil)

type mockPurposeServicer struct {
	create func(ctx context.Context, p domain.TripPurpose) (domain.TripPurpose, error)
	update func(ctx context.Context, p domain.TripPurpose) (domain.TripPurpose, error)
	delete func(ctx context.Context, id int64) error
	list   func(ctx context.Context) ([]domain.TripPurpose, error)
}

func (m *mockPurposeServicer) Create(ctx context.Context, p domain.TripPurpose) (domain.TripPurpose, error) {
	return m.create(ctx, p)
}
func (m *mockPurposeServicer) Update(ctx context.Context, p domain.TripPurpose) (domain.TripPurpose, error) {
	return m.update(ctx, p)
}
func (m *mockPurposeServicer) Delete(ctx context.Context, id int64) error { return m.delete(ctx, id) }
func (m *mockPurposeServicer) List(ctx context.Context) ([]domain.TripPurpose, error) {
	return m.list(ctx)
}

var _ handler.PurposeServicer = (*mockPurposeServicer)(nil)

type mockAuditServicer struct {
	forTrip func(ctx context.Context, tripID int64) ([]domain.TripAuditLog, error)
}

func (m *mockAuditServicer) ForTrip(ctx context.Context, tripID int64) ([]domain.TripAuditLog, error) {
	return m.forTrip(ctx, tripID)
}

var _ handler.AuditServicer = (*mockAuditServicer)(nil)

type mockAllowanceServicer struct {
	forYear    func(ctx context.Context, year, workingDays int) (allowance.Result, error)
	forCommute func(oneWayKm float64, workingDays int) allowance.Result
}

func (m *mockAllowanceServicer) ForYear(ctx context.Context, year, workingDays int) (allowance.Result, error) {
	return m.forYear(ctx, year, workingDays)
}
func (m *mockAllowanceServicer) ForCommute(oneWayKm float64, workingDays int) allowance.Result {
	return m.forCommute(oneWayKm, workingDays)
}

var _ handler.AllowanceServicer = (*mockAllowanceServicer)(nil)

type mockSummaryViewer struct {
	summary      func(ctx context.Context, year int) (view.Summary, error)
	countInRange func(ctx context.Context, from, to time.Time) (int, error)
	watchSummary func(ctx context.Context, year int) <-chan watch.Update[view.Summary]
}

func (m *mockSummaryViewer) Summary(ctx context.Context, year int) (view.Summary, error) {
	return m.summary(ctx, year)
}
func (m *mockSummaryViewer) CountInRange(ctx context.Context, from, to time.Time) (int, error) {
	return m.countInRange(ctx, from, to)
}
func (m *mockSummaryViewer) WatchSummary(ctx context.Context, year int) <-chan watch.Update[view.Summary] {
	return m.watchSummary(ctx, year)
}

var _ handler.SummaryViewer = (*mockSummaryViewer)(nil)
