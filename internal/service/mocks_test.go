package service_test

import (
	"context"
	"time"

	"github.com/pkordes/fahrtenbuch/internal/domain"
	"github.com/pkordes/fahrtenbuch/internal/repo"
	"github.com/pkordes/fahrtenbuch/internal/service"
)

// Hand-written test doubles. Each method is a function field; set only the
// ones your test needs. Calling an unset one panics, which flags an
// unexpected repo call.

type mockTripRepo struct {
	create           func(ctx context.Context, t domain.Trip) (domain.Trip, error)
	getByID          func(ctx context.Context, id int64) (domain.Trip, error)
	getForUpdate     func(ctx context.Context, id int64) (domain.Trip, error)
	activeForVehicle func(ctx context.Context, vehicleID int64) (domain.Trip, error)
	list             func(ctx context.Context, f domain.TripFilter) ([]domain.Trip, error)
	listPaged        func(ctx context.Context, f domain.TripFilter, p domain.PaginationParams) ([]domain.Trip, int64, error)
	businessDistance func(ctx context.Context, from, to time.Time) (float64, error)
	update           func(ctx context.Context, t domain.Trip) (domain.Trip, error)
	delete           func(ctx context.Context, id int64) error
}

func (m *mockTripRepo) Create(ctx context.Context, t domain.Trip) (domain.Trip, error) {
	return m.create(ctx, t)
}
func (m *mockTripRepo) GetByID(ctx context.Context, id int64) (domain.Trip, error) {
	return m.getByID(ctx, id)
}
func (m *mockTripRepo) GetForUpdate(ctx context.Context, id int64) (domain.Trip, error) {
	return m.getForUpdate(ctx, id)
}
func (m *mockTripRepo) ActiveForVehicle(ctx context.Context, vehicleID int64) (domain.Trip, error) {
	return m.activeForVehicle(ctx, vehicleID)
}
func (m *mockTripRepo) List(ctx context.Context, f domain.TripFilter) ([]domain.Trip, error) {
	return m.list(ctx, f)
}
func (m *mockTripRepo) ListPaged(ctx context.Context, f domain.TripFilter, p domain.PaginationParams) ([]domain.Trip, int64, error) {
	return m.listPaged(ctx, f, p)
}
func (m *mockTripRepo) BusinessDistance(ctx context.Context, from, to time.Time) (float64, error) {
	return m.businessDistance(ctx, from, to)
}
func (m *mockTripRepo) Update(ctx context.Context, t domain.Trip) (domain.Trip, error) {
	return m.update(ctx, t)
}
func (m *mockTripRepo) Delete(ctx context.Context, id int64) error {
	return m.delete(ctx, id)
}

var _ repo.TripRepo = (*mockTripRepo)(nil)

type mockVehicleRepo struct {
	create       func(ctx context.Context, v domain.Vehicle) (domain.Vehicle, error)
	getByID      func(ctx context.Context, id int64) (domain.Vehicle, error)
	getForUpdate func(ctx context.Context, id int64) (domain.Vehicle, error)
	list         func(ctx context.Context) ([]domain.Vehicle, error)
	primary      func(ctx context.Context) (domain.Vehicle, error)
	update       func(ctx context.Context, v domain.Vehicle) (domain.Vehicle, error)
	delete       func(ctx context.Context, id int64) error
	lockRegistry func(ctx context.Context) error
	clearPrimary func(ctx context.Context, keepID int64) (int64, error)
	setPrimary   func(ctx context.Context, id int64) (domain.Vehicle, error)
}

func (m *mockVehicleRepo) Create(ctx context.Context, v domain.Vehicle) (domain.Vehicle, error) {
	return m.create(ctx, v)
}
func (m *mockVehicleRepo) GetByID(ctx context.Context, id int64) (domain.Vehicle, error) {
	return m.getByID(ctx, id)
}
func (m *mockVehicleRepo) GetForUpdate(ctx context.Context, id int64) (domain.Vehicle, error) {
	return m.getForUpdate(ctx, id)
}
func (m *mockVehicleRepo) List(ctx context.Context) ([]domain.Vehicle, error) { return m.list(ctx) }
func (m *mockVehicleRepo) Primary(ctx context.Context) (domain.Vehicle, error) {
	return m.primary(ctx)
}
func (m *mockVehicleRepo) Update(ctx context.Context, v domain.Vehicle) (domain.Vehicle, error) {
	return m.update(ctx, v)
}
func (m *mockVehicleRepo) Delete(ctx context.Context, id int64) error { return m.delete(ctx, id) }
func (m *mockVehicleRepo) LockRegistry(ctx context.Context) error    { return m.lockRegistry(ctx) }
func (m *mockVehicleRepo) ClearPrimary(ctx context.Context, keepID int64) (int64, error) {
	return m.clearPrimary(ctx, keepID)
}
func (m *mockVehicleRepo) SetPrimary(ctx context.Context, id int64) (domain.Vehicle, error) {
	return m.setPrimary(ctx, id)
}

var _ repo.VehicleRepo = (*mockVehicleRepo)(nil)

type mockAuditRepo struct {
	appended   []domain.TripAuditLog
	append     func(ctx context.Context, entries []domain.TripAuditLog) ([]domain.TripAuditLog, error)
	listByTrip func(ctx context.Context, tripID int64) ([]domain.TripAuditLog, error)
}

// Append records entries and, unless overridden, echoes them back.
func (m *mockAuditRepo) Append(ctx context.Context, entries []domain.TripAuditLog) ([]domain.TripAuditLog, error) {
	if m.append != nil {
		return m.append(ctx, entries)
	}
	m.appended = append(m.appended, entries...)
	return entries, nil
}
func (m *mockAuditRepo) ListByTrip(ctx context.Context, tripID int64) ([]domain.TripAuditLog, error) {
	return m.listByTrip(ctx, tripID)
}

var _ repo.AuditRepo = (*mockAuditRepo)(nil)

type mockPurposeRepo struct {
	create         func(ctx context.Context, p domain.TripPurpose) (domain.TripPurpose, error)
	getByID        func(ctx context.Context, id int64) (domain.TripPurpose, error)
	list           func(ctx context.Context) ([]domain.TripPurpose, error)
	update         func(ctx context.Context, p domain.TripPurpose) (domain.TripPurpose, error)
	delete         func(ctx context.Context, id int64) error
	countTrips     func(ctx context.Context, id int64) (int64, error)
	ensureDefaults func(ctx context.Context, defaults []domain.TripPurpose) ([]domain.TripPurpose, error)
}

func (m *mockPurposeRepo) Create(ctx context.Context, p domain.TripPurpose) (domain.TripPurpose, error) {
	return m.create(ctx, p)
}
func (m *mockPurposeRepo) GetByID(ctx context.Context, id int64) (domain.TripPurpose, error) {
	return m.getByID(ctx, id)
}
func (m *mockPurposeRepo) List(ctx context.Context) ([]domain.TripPurpose, error) {
	return m.list(ctx)
}
func (m *mockPurposeRepo) Update(ctx context.Context, p domain.TripPurpose) (domain.TripPurpose, error) {
	return m.update(ctx, p)
}
func (m *mockPurposeRepo) Delete(ctx context.Context, id int64) error { return m.delete(ctx, id) }
func (m *mockPurposeRepo) CountTrips(ctx context.Context, id int64) (int64, error) {
	return m.countTrips(ctx, id)
}
func (m *mockPurposeRepo) EnsureDefaults(ctx context.Context, defaults []domain.TripPurpose) ([]domain.TripPurpose, error) {
	return m.ensureDefaults(ctx, defaults)
}

var _ repo.PurposeRepo = (*mockPurposeRepo)(nil)

// fakeTx runs fn directly and counts transactions. When begin is set it is
// called before fn and the rollback it returns runs if fn fails.
type fakeTx struct {
	runs  int
	begin func() (rollback func())
}

func (f *fakeTx) RunInTx(ctx context.Context, fn func(ctx context.Context) error) error {
	f.runs++
	rollback := func() {}
	if f.begin != nil {
		rollback = f.begin()
	}
	if err := fn(ctx); err != nil {
		rollback()
		return err
	}
	return nil
}

var _ service.TxRunner = (*fakeTx)(nil)
