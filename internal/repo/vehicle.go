package repo

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"

	"github.com/pkordes/fahrtenbuch/internal/domain"
)

// registryLockKey is the pg_advisory_xact_lock key serializing every
// primary-flag change.
const registryLockKey int64 = 0x76656869636c65 // "vehicle"

const vehicleColumns = `id, make, model, license_plate, fuel_type, is_primary, audit_protected, created_at, updated_at`

// VehicleRepo defines the persistence operations for Vehicles.
type VehicleRepo interface {
	Create(ctx context.Context, v domain.Vehicle) (domain.Vehicle, error)

	// GetByID returns domain.ErrNotFound if no vehicle has that id.
	GetByID(ctx context.Context, id int64) (domain.Vehicle, error)

	// GetForUpdate is GetByID with a row lock held until the transaction ends.
	GetForUpdate(ctx context.Context, id int64) (domain.Vehicle, error)

	// List returns all vehicles, primary first, then by id.
	List(ctx context.Context) ([]domain.Vehicle, error)

	// Primary returns the primary vehicle or domain.ErrNotFound.
	Primary(ctx context.Context) (domain.Vehicle, error)

	Update(ctx context.Context, v domain.Vehicle) (domain.Vehicle, error)

	// Delete removes a vehicle. Its trips keep their rows with vehicle_id NULL;
	// when the vehicle was audit-protected they are marked audit_locked first.
	// Call it inside a transaction.
	Delete(ctx context.Context, id int64) error

	// LockRegistry takes a transaction-scoped advisory lock. It must run
	// inside TxManager.RunInTx.
	LockRegistry(ctx context.Context) error

	// ClearPrimary unsets is_primary on every vehicle except keepID (pass 0
	// to clear all) and returns how many rows changed.
	ClearPrimary(ctx context.Context, keepID int64) (int64, error)

	// SetPrimary sets is_primary on one vehicle.
	SetPrimary(ctx context.Context, id int64) (domain.Vehicle, error)
}

type pgVehicleRepo struct {
	db db
}

// NewVehicleRepo constructs a VehicleRepo.
func NewVehicleRepo(db db) VehicleRepo {
	return &pgVehicleRepo{db: db}
}

func vehicleArgs(v domain.Vehicle) pgx.NamedArgs {
	return pgx.NamedArgs{
		"id":              v.ID,
		"make":            v.Make,
		"model":           v.Model,
		"license_plate":   v.LicensePlate,
		"fuel_type":       v.FuelType,
		"is_primary":      v.IsPrimary,
		"audit_protected": v.AuditProtected,
	}
}

func (r *pgVehicleRepo) Create(ctx context.Context, v domain.Vehicle) (domain.Vehicle, error) {
	q := `
		INSERT INTO vehicles (make, model, license_plate, fuel_type, is_primary, audit_protected)
		VALUES (@make, @model, @license_plate, @fuel_type, @is_primary, @audit_protected)
		RETURNING ` + vehicleColumns

	result, err := scanVehicle(conn(ctx, r.db).QueryRow(ctx, q, vehicleArgs(v)))
	if err != nil {
		return domain.Vehicle{}, mapError("repo.VehicleRepo.Create", err)
	}
	return result, nil
}

func (r *pgVehicleRepo) GetByID(ctx context.Context, id int64) (domain.Vehicle, error) {
	q := `SELECT ` + vehicleColumns + ` FROM vehicles WHERE id = @id`

	result, err := scanVehicle(conn(ctx, r.db).QueryRow(ctx, q, pgx.NamedArgs{"id": id}))
	if err != nil {
		return domain.Vehicle{}, mapError("repo.VehicleRepo.GetByID", err)
	}
	return result, nil
}

func (r *pgVehicleRepo) GetForUpdate(ctx context.Context, id int64) (domain.Vehicle, error) {
	q := `SELECT ` + vehicleColumns + ` FROM vehicles WHERE id = @id FOR UPDATE`

	result, err := scanVehicle(conn(ctx, r.db).QueryRow(ctx, q, pgx.NamedArgs{"id": id}))
	if err != nil {
		return domain.Vehicle{}, mapError("repo.VehicleRepo.GetForUpdate", err)
	}
	return result, nil
}

func (r *pgVehicleRepo) List(ctx context.Context) ([]domain.Vehicle, error) {
	q := `SELECT ` + vehicleColumns + ` FROM vehicles ORDER BY is_primary DESC, id`

	rows, err := conn(ctx, r.db).Query(ctx, q)
	if err != nil {
		return nil, mapError("repo.VehicleRepo.List", err)
	}
	vehicles, err := collect(rows, scanVehicle)
	if err != nil {
		return nil, mapError("repo.VehicleRepo.List", err)
	}
	return vehicles, nil
}

func (r *pgVehicleRepo) Primary(ctx context.Context) (domain.Vehicle, error) {
	q := `SELECT ` + vehicleColumns + ` FROM vehicles WHERE is_primary`

	result, err := scanVehicle(conn(ctx, r.db).QueryRow(ctx, q))
	if err != nil {
		return domain.Vehicle{}, mapError("repo.VehicleRepo.Primary", err)
	}
	return result, nil
}

func (r *pgVehicleRepo) Update(ctx context.Context, v domain.Vehicle) (domain.Vehicle, error) {
	q := `
		UPDATE vehicles
		SET make            = @make,
		    model           = @model,
		    license_plate   = @license_plate,
		    fuel_type       = @fuel_type,
		    is_primary      = @is_primary,
		    audit_protected = @audit_protected,
		    updated_at      = now()
		WHERE id = @id
		RETURNING ` + vehicleColumns

	result, err := scanVehicle(conn(ctx, r.db).QueryRow(ctx, q, vehicleArgs(v)))
	if err != nil {
		return domain.Vehicle{}, mapError("repo.VehicleRepo.Update", err)
	}
	return result, nil
}

func (r *pgVehicleRepo) Delete(ctx context.Context, id int64) error {
	const lock = `
		UPDATE trips SET audit_locked = true
		WHERE vehicle_id = @id
		  AND EXISTS (SELECT 1 FROM vehicles WHERE id = @id AND audit_protected)`
	const q = `DELETE FROM vehicles WHERE id = @id`

	c := conn(ctx, r.db)
	if _, err := c.Exec(ctx, lock, pgx.NamedArgs{"id": id}); err != nil {
		return mapError("repo.VehicleRepo.Delete", err)
	}
	tag, err := c.Exec(ctx, q, pgx.NamedArgs{"id": id})
	if err != nil {
		return mapDeleteError("repo.VehicleRepo.Delete", err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("repo.VehicleRepo.Delete: %w", domain.ErrNotFound)
	}
	return nil
}

func (r *pgVehicleRepo) LockRegistry(ctx context.Context) error {
	if _, err := conn(ctx, r.db).Exec(ctx, `SELECT pg_advisory_xact_lock($1)`, registryLockKey); err != nil {
		return mapError("repo.VehicleRepo.LockRegistry", err)
	}
	return nil
}

func (r *pgVehicleRepo) ClearPrimary(ctx context.Context, keepID int64) (int64, error) {
	const q = `
		UPDATE vehicles
		SET is_primary = false, updated_at = now()
		WHERE is_primary AND id <> @keep_id`

	tag, err := conn(ctx, r.db).Exec(ctx, q, pgx.NamedArgs{"keep_id": keepID})
	if err != nil {
		return 0, mapError("repo.VehicleRepo.ClearPrimary", err)
	}
	return tag.RowsAffected(), nil
}

func (r *pgVehicleRepo) SetPrimary(ctx context.Context, id int64) (domain.Vehicle, error) {
	q := `
		UPDATE vehicles
		SET is_primary = true, updated_at = now()
		WHERE id = @id
		RETURNING ` + vehicleColumns

	result, err := scanVehicle(conn(ctx, r.db).QueryRow(ctx, q, pgx.NamedArgs{"id": id}))
	if err != nil {
		return domain.Vehicle{}, mapError("repo.VehicleRepo.SetPrimary", err)
	}
	return result, nil
}

func scanVehicle(s scanner) (domain.Vehicle, error) {
	var v domain.Vehicle
	err := s.Scan(&v.ID, &v.Make, &v.Model, &v.LicensePlate, &v.FuelType, &v.IsPrimary, &v.AuditProtected,
		&v.CreatedAt, &v.UpdatedAt)
	if err != nil {
		return domain.Vehicle{}, err
	}
	return v, nil
}
