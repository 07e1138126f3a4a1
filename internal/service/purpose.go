package service

import (
	"context"
	"fmt"

	"github.com/pkordes/fahrtenbuch/internal/domain"
	"github.com/pkordes/fahrtenbuch/internal/watch"
)

// DefaultPurposes are seeded by EnsureDefaults and cannot be deleted.
var DefaultPurposes = []domain.TripPurpose{
	{Name: "Arbeitsweg", IsBusinessRelevant: true, Color: "#1E88E5"},
	{Name: "Dienstfahrt", IsBusinessRelevant: true, Color: "#43A047"},
	{Name: "Privat", IsBusinessRelevant: false, Color: "#8E24AA"},
}

// PurposeService manages the trip purpose catalogue.
type PurposeService struct {
	Deps
}

// NewPurposeService constructs a PurposeService.
func NewPurposeService(d Deps) *PurposeService {
	return &PurposeService{Deps: d}
}

// Create validates and stores a purpose. A taken name is domain.ErrDuplicate.
func (s *PurposeService) Create(ctx context.Context, p domain.TripPurpose) (domain.TripPurpose, error) {
	if res := s.Validator.ValidatePurpose(p); !res.Valid() {
		return domain.TripPurpose{}, fmt.Errorf("service.PurposeService.Create: %w", res.Err())
	}
	p.IsDefault = false

	created, err := s.Purposes.Create(ctx, p)
	if err != nil {
		return domain.TripPurpose{}, fmt.Errorf("service.PurposeService.Create: %w", err)
	}
	s.publish(watch.TopicPurposes)
	return created, nil
}

// Update validates and overwrites a purpose.
func (s *PurposeService) Update(ctx context.Context, p domain.TripPurpose) (domain.TripPurpose, error) {
	if res := s.Validator.ValidatePurpose(p); !res.Valid() {
		return domain.TripPurpose{}, fmt.Errorf("service.PurposeService.Update: %w", res.Err())
	}

	updated, err := s.Purposes.Update(ctx, p)
	if err != nil {
		return domain.TripPurpose{}, fmt.Errorf("service.PurposeService.Update: %w", err)
	}
	s.publish(watch.TopicPurposes)
	return updated, nil
}

// Delete removes a purpose. Default purposes and purposes referenced by a
// trip fail with a *domain.ProtectedDeletionError.
func (s *PurposeService) Delete(ctx context.Context, id int64) error {
	err := s.Tx.RunInTx(ctx, func(ctx context.Context) error {
		p, err := s.Purposes.GetByID(ctx, id)
		if err != nil {
			return err
		}
		if p.IsDefault {
			return &domain.ProtectedDeletionError{Entity: "purpose", ID: id, Reason: "default purpose"}
		}
		n, err := s.Purposes.CountTrips(ctx, id)
		if err != nil {
			return err
		}
		if n > 0 {
			return &domain.ProtectedDeletionError{
				Entity: "purpose", ID: id, Reason: fmt.Sprintf("referenced by %d trips", n),
			}
		}
		return s.Purposes.Delete(ctx, id)
	})
	if err != nil {
		return fmt.Errorf("service.PurposeService.Delete: %w", err)
	}
	s.publish(watch.TopicPurposes)
	return nil
}

// List returns all purposes, defaults first.
func (s *PurposeService) List(ctx context.Context) ([]domain.TripPurpose, error) {
	ps, err := s.Purposes.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("service.PurposeService.List: %w", err)
	}
	return ps, nil
}

// EnsureDefaults seeds DefaultPurposes. Running it again changes nothing.
func (s *PurposeService) EnsureDefaults(ctx context.Context) error {
	ps, err := s.Purposes.EnsureDefaults(ctx, DefaultPurposes)
	if err != nil {
		return fmt.Errorf("service.PurposeService.EnsureDefaults: %w", err)
	}
	s.logger().InfoContext(ctx, "default purposes ensured", "count", len(ps))
	return nil
}
