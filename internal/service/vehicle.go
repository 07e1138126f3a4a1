package service

import (
	"context"
	"fmt"

	"github.com/pkordes/fahrtenbuch/internal/domain"
	"github.com/pkordes/fahrtenbuch/internal/validation"
	"github.com/pkordes/fahrtenbuch/internal/watch"
)

// VehicleRegistry manages vehicles and keeps at most one of them primary.
// Every primary-flag change takes the registry lock and clears the old
// primary in the same transaction that sets the new one, so readers never
// see two primaries.
type VehicleRegistry struct {
	Deps
}

// NewVehicleRegistry constructs a VehicleRegistry.
func NewVehicleRegistry(d Deps) *VehicleRegistry {
	return &VehicleRegistry{Deps: d}
}

func (s *VehicleRegistry) validate(v domain.Vehicle) (domain.Vehicle, error) {
	v.LicensePlate = validation.NormalizePlate(v.LicensePlate)
	if res := s.Validator.ValidateVehicle(v); !res.Valid() {
		s.Metrics.IncValidationFailure("vehicle")
		return v, res.Err()
	}
	return v, nil
}

// Insert validates and stores a new vehicle. When v is primary, every other
// vehicle loses the flag in the same transaction.
func (s *VehicleRegistry) Insert(ctx context.Context, v domain.Vehicle) (domain.Vehicle, error) {
	v, err := s.validate(v)
	if err != nil {
		return domain.Vehicle{}, fmt.Errorf("service.VehicleRegistry.Insert: %w", err)
	}

	var created domain.Vehicle
	err = s.Tx.RunInTx(ctx, func(ctx context.Context) error {
		if err := s.Vehicles.LockRegistry(ctx); err != nil {
			return err
		}
		if v.IsPrimary {
			if _, err := s.Vehicles.ClearPrimary(ctx, 0); err != nil {
				return err
			}
		}
		created, err = s.Vehicles.Create(ctx, v)
		return err
	})
	if err != nil {
		return domain.Vehicle{}, fmt.Errorf("service.VehicleRegistry.Insert: %w", err)
	}

	if created.IsPrimary {
		s.Metrics.IncPrimaryChange()
	}
	s.logger().InfoContext(ctx, "vehicle added", "vehicle_id", created.ID, "primary", created.IsPrimary)
	s.publish(watch.TopicVehicles)
	return created, nil
}

// Update validates and overwrites a vehicle. Returns domain.ErrNotFound for
// an unknown id.
func (s *VehicleRegistry) Update(ctx context.Context, v domain.Vehicle) (domain.Vehicle, error) {
	v, err := s.validate(v)
	if err != nil {
		return domain.Vehicle{}, fmt.Errorf("service.VehicleRegistry.Update: %w", err)
	}

	var (
		updated    domain.Vehicle
		wasPrimary bool
	)
	err = s.Tx.RunInTx(ctx, func(ctx context.Context) error {
		if err := s.Vehicles.LockRegistry(ctx); err != nil {
			return err
		}
		current, err := s.Vehicles.GetForUpdate(ctx, v.ID)
		if err != nil {
			return err
		}
		wasPrimary = current.IsPrimary
		if v.IsPrimary {
			if _, err := s.Vehicles.ClearPrimary(ctx, v.ID); err != nil {
				return err
			}
		}
		updated, err = s.Vehicles.Update(ctx, v)
		return err
	})
	if err != nil {
		return domain.Vehicle{}, fmt.Errorf("service.VehicleRegistry.Update: %w", err)
	}

	if updated.IsPrimary && !wasPrimary {
		s.Metrics.IncPrimaryChange()
	}
	s.logger().InfoContext(ctx, "vehicle updated", "vehicle_id", updated.ID, "primary", updated.IsPrimary)
	s.publish(watch.TopicVehicles)
	return updated, nil
}

// SetPrimary makes id the only primary vehicle. For an unknown id it fails
// with domain.ErrNotFound and the transaction rolls back, so the previous
// primary keeps its flag.
func (s *VehicleRegistry) SetPrimary(ctx context.Context, id int64) (domain.Vehicle, error) {
	var updated domain.Vehicle
	err := s.Tx.RunInTx(ctx, func(ctx context.Context) error {
		if err := s.Vehicles.LockRegistry(ctx); err != nil {
			return err
		}
		if _, err := s.Vehicles.ClearPrimary(ctx, 0); err != nil {
			return err
		}
		if _, err := s.Vehicles.GetForUpdate(ctx, id); err != nil {
			return err
		}
		var err error
		updated, err = s.Vehicles.SetPrimary(ctx, id)
		return err
	})
	if err != nil {
		return domain.Vehicle{}, fmt.Errorf("service.VehicleRegistry.SetPrimary: %w", err)
	}

	s.Metrics.IncPrimaryChange()
	s.logger().InfoContext(ctx, "primary vehicle set", "vehicle_id", id)
	s.publish(watch.TopicVehicles)
	return updated, nil
}

// Delete removes a vehicle unconditionally. Its trips stay, with the vehicle
// reference cleared; trips of an audit-protected vehicle stay protected.
func (s *VehicleRegistry) Delete(ctx context.Context, id int64) error {
	err := s.Tx.RunInTx(ctx, func(ctx context.Context) error {
		return s.Vehicles.Delete(ctx, id)
	})
	if err != nil {
		return fmt.Errorf("service.VehicleRegistry.Delete: %w", err)
	}

	s.logger().InfoContext(ctx, "vehicle deleted", "vehicle_id", id)
	s.publish(watch.TopicVehicles, watch.TopicTrips)
	return nil
}

// GetByID returns a single vehicle.
func (s *VehicleRegistry) GetByID(ctx context.Context, id int64) (domain.Vehicle, error) {
	v, err := s.Vehicles.GetByID(ctx, id)
	if err != nil {
		return domain.Vehicle{}, fmt.Errorf("service.VehicleRegistry.GetByID: %w", err)
	}
	return v, nil
}

// List returns all vehicles, primary first.
func (s *VehicleRegistry) List(ctx context.Context) ([]domain.Vehicle, error) {
	vs, err := s.Vehicles.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("service.VehicleRegistry.List: %w", err)
	}
	return vs, nil
}

// Primary returns the primary vehicle or domain.ErrNotFound.
func (s *VehicleRegistry) Primary(ctx context.Context) (domain.Vehicle, error) {
	v, err := s.Vehicles.Primary(ctx)
	if err != nil {
		return domain.Vehicle{}, fmt.Errorf("service.VehicleRegistry.Primary: %w", err)
	}
	return v, nil
}
