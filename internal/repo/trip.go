package repo

import (
	"context"
	"fmt"
	"time"

	"github.com/Masterminds/squirrel"
	"github.com/jackc/pgx/v5"

	"github.com/pkordes/fahrtenbuch/internal/domain"
)

// psql builds Postgres-flavoured ($1, $2, ...) statements.
var psql = squirrel.StatementBuilder.PlaceholderFormat(squirrel.Dollar)

const tripColumns = `id, date, start_location, end_location, distance_km, purpose, purpose_id,
	business_trip, notes, start_odometer, end_odometer, vehicle_id, is_active, is_ghost,
	audit_locked, created_at, updated_at`

// TripRepo defines the persistence operations for Trips.
type TripRepo interface {
	// Create inserts a trip and returns it with id and timestamps populated.
	Create(ctx context.Context, trip domain.Trip) (domain.Trip, error)

	// GetByID returns domain.ErrNotFound if no trip has that id.
	GetByID(ctx context.Context, id int64) (domain.Trip, error)

	// GetForUpdate is GetByID with a row lock held until the surrounding
	// transaction ends.
	GetForUpdate(ctx context.Context, id int64) (domain.Trip, error)

	// ActiveForVehicle returns the vehicle's active trip, locked for update,
	// or domain.ErrNotFound when there is none.
	ActiveForVehicle(ctx context.Context, vehicleID int64) (domain.Trip, error)

	// List returns the trips matching f, most recent first.
	List(ctx context.Context, f domain.TripFilter) ([]domain.Trip, error)

	// ListPaged returns one page of trips matching f and the total match count.
	ListPaged(ctx context.Context, f domain.TripFilter, p domain.PaginationParams) ([]domain.Trip, int64, error)

	// BusinessDistance sums distance_km of completed business trips dated
	// within [from, to).
	BusinessDistance(ctx context.Context, from, to time.Time) (float64, error)

	// Update overwrites every mutable column. Returns domain.ErrNotFound if
	// the trip does not exist.
	Update(ctx context.Context, trip domain.Trip) (domain.Trip, error)

	// Delete removes a trip; its audit rows cascade.
	Delete(ctx context.Context, id int64) error
}

type pgTripRepo struct {
	db db
}

// NewTripRepo constructs a TripRepo. In production pass *pgxpool.Pool; in
// tests pass a pgx.Tx for rollback isolation.
func NewTripRepo(db db) TripRepo {
	return &pgTripRepo{db: db}
}

func tripArgs(t domain.Trip) pgx.NamedArgs {
	return pgx.NamedArgs{
		"id":             t.ID,
		"date":           t.Date,
		"start_location": t.StartLocation,
		"end_location":   t.EndLocation,
		"distance_km":    t.DistanceKm,
		"purpose":        t.Purpose,
		"purpose_id":     t.PurposeID,
		"business_trip":  t.BusinessTrip,
		"notes":          t.Notes,
		"start_odometer": t.StartOdometer,
		"end_odometer":   t.EndOdometer,
		"vehicle_id":     t.VehicleID,
		"is_active":      t.IsActive,
		"is_ghost":       t.IsGhost,
	}
}

func (r *pgTripRepo) Create(ctx context.Context, trip domain.Trip) (domain.Trip, error) {
	q := `
		INSERT INTO trips (date, start_location, end_location, distance_km, purpose, purpose_id,
			business_trip, notes, start_odometer, end_odometer, vehicle_id, is_active, is_ghost)
		VALUES (@date, @start_location, @end_location, @distance_km, @purpose, @purpose_id,
			@business_trip, @notes, @start_odometer, @end_odometer, @vehicle_id, @is_active, @is_ghost)
		RETURNING ` + tripColumns

	result, err := scanTrip(conn(ctx, r.db).QueryRow(ctx, q, tripArgs(trip)))
	if err != nil {
		return domain.Trip{}, mapError("repo.TripRepo.Create", err)
	}
	return result, nil
}

func (r *pgTripRepo) GetByID(ctx context.Context, id int64) (domain.Trip, error) {
	q := `SELECT ` + tripColumns + ` FROM trips WHERE id = @id`

	result, err := scanTrip(conn(ctx, r.db).QueryRow(ctx, q, pgx.NamedArgs{"id": id}))
	if err != nil {
		return domain.Trip{}, mapError("repo.TripRepo.GetByID", err)
	}
	return result, nil
}

func (r *pgTripRepo) GetForUpdate(ctx context.Context, id int64) (domain.Trip, error) {
	q := `SELECT ` + tripColumns + ` FROM trips WHERE id = @id FOR UPDATE`

	result, err := scanTrip(conn(ctx, r.db).QueryRow(ctx, q, pgx.NamedArgs{"id": id}))
	if err != nil {
		return domain.Trip{}, mapError("repo.TripRepo.GetForUpdate", err)
	}
	return result, nil
}

func (r *pgTripRepo) ActiveForVehicle(ctx context.Context, vehicleID int64) (domain.Trip, error) {
	q := `SELECT ` + tripColumns + ` FROM trips WHERE vehicle_id = @vehicle_id AND is_active FOR UPDATE`

	result, err := scanTrip(conn(ctx, r.db).QueryRow(ctx, q, pgx.NamedArgs{"vehicle_id": vehicleID}))
	if err != nil {
		return domain.Trip{}, mapError("repo.TripRepo.ActiveForVehicle", err)
	}
	return result, nil
}

// filtered applies f to a SELECT on trips.
func filtered(b squirrel.SelectBuilder, f domain.TripFilter) squirrel.SelectBuilder {
	if f.VehicleID != nil {
		b = b.Where(squirrel.Eq{"vehicle_id": *f.VehicleID})
	}
	if f.From != nil {
		b = b.Where(squirrel.GtOrEq{"date": *f.From})
	}
	if f.To != nil {
		b = b.Where(squirrel.LtOrEq{"date": *f.To})
	}
	return b
}

func (r *pgTripRepo) List(ctx context.Context, f domain.TripFilter) ([]domain.Trip, error) {
	sql, args, err := filtered(psql.Select(tripColumns).From("trips"), f).
		OrderBy("date DESC", "id DESC").
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("repo.TripRepo.List: build: %w", err)
	}

	rows, err := conn(ctx, r.db).Query(ctx, sql, args...)
	if err != nil {
		return nil, mapError("repo.TripRepo.List", err)
	}
	trips, err := collect(rows, scanTrip)
	if err != nil {
		return nil, mapError("repo.TripRepo.List", err)
	}
	return trips, nil
}

func (r *pgTripRepo) ListPaged(ctx context.Context, f domain.TripFilter, p domain.PaginationParams) ([]domain.Trip, int64, error) {
	countSQL, countArgs, err := filtered(psql.Select("count(*)").From("trips"), f).ToSql()
	if err != nil {
		return nil, 0, fmt.Errorf("repo.TripRepo.ListPaged: build count: %w", err)
	}

	var total int64
	if err := conn(ctx, r.db).QueryRow(ctx, countSQL, countArgs...).Scan(&total); err != nil {
		return nil, 0, mapError("repo.TripRepo.ListPaged: count", err)
	}

	sql, args, err := filtered(psql.Select(tripColumns).From("trips"), f).
		OrderBy("date DESC", "id DESC").
		Limit(uint64(p.Limit)).
		Offset(uint64(p.Offset())).
		ToSql()
	if err != nil {
		return nil, 0, fmt.Errorf("repo.TripRepo.ListPaged: build: %w", err)
	}

	rows, err := conn(ctx, r.db).Query(ctx, sql, args...)
	if err != nil {
		return nil, 0, mapError("repo.TripRepo.ListPaged", err)
	}
	trips, err := collect(rows, scanTrip)
	if err != nil {
		return nil, 0, mapError("repo.TripRepo.ListPaged", err)
	}
	return trips, total, nil
}

func (r *pgTripRepo) BusinessDistance(ctx context.Context, from, to time.Time) (float64, error) {
	const q = `
		SELECT COALESCE(SUM(distance_km), 0)
		FROM trips
		WHERE business_trip
		  AND NOT is_active
		  AND NOT is_ghost
		  AND date >= @from AND date < @to`

	var km float64
	err := conn(ctx, r.db).QueryRow(ctx, q, pgx.NamedArgs{"from": from, "to": to}).Scan(&km)
	if err != nil {
		return 0, mapError("repo.TripRepo.BusinessDistance", err)
	}
	return km, nil
}

func (r *pgTripRepo) Update(ctx context.Context, trip domain.Trip) (domain.Trip, error) {
	q := `
		UPDATE trips
		SET date           = @date,
		    start_location = @start_location,
		    end_location   = @end_location,
		    distance_km    = @distance_km,
		    purpose        = @purpose,
		    purpose_id     = @purpose_id,
		    business_trip  = @business_trip,
		    notes          = @notes,
		    start_odometer = @start_odometer,
		    end_odometer   = @end_odometer,
		    vehicle_id     = @vehicle_id,
		    is_active      = @is_active,
		    is_ghost       = @is_ghost,
		    updated_at     = now()
		WHERE id = @id
		RETURNING ` + tripColumns

	result, err := scanTrip(conn(ctx, r.db).QueryRow(ctx, q, tripArgs(trip)))
	if err != nil {
		return domain.Trip{}, mapError("repo.TripRepo.Update", err)
	}
	return result, nil
}

func (r *pgTripRepo) Delete(ctx context.Context, id int64) error {
	const q = `DELETE FROM trips WHERE id = @id`

	tag, err := conn(ctx, r.db).Exec(ctx, q, pgx.NamedArgs{"id": id})
	if err != nil {
		return mapDeleteError("repo.TripRepo.Delete", err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("repo.TripRepo.Delete: %w", domain.ErrNotFound)
	}
	return nil
}

// scanTrip maps one row selected with tripColumns. Nullable columns scan
// straight into the pointer fields.
func scanTrip(s scanner) (domain.Trip, error) {
	var t domain.Trip
	err := s.Scan(
		&t.ID, &t.Date, &t.StartLocation, &t.EndLocation, &t.DistanceKm, &t.Purpose, &t.PurposeID,
		&t.BusinessTrip, &t.Notes, &t.StartOdometer, &t.EndOdometer, &t.VehicleID, &t.IsActive, &t.IsGhost,
		&t.AuditLocked, &t.CreatedAt, &t.UpdatedAt,
	)
	if err != nil {
		return domain.Trip{}, err
	}
	t.Date = t.Date.UTC()
	return t, nil
}
