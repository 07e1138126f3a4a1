package repo

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"

	"github.com/pkordes/fahrtenbuch/internal/domain"
)

const purposeColumns = `id, name, is_business_relevant, color, is_default`

// PurposeRepo defines the persistence operations for TripPurposes.
type PurposeRepo interface {
	// Create returns domain.ErrDuplicate when the name is taken.
	Create(ctx context.Context, p domain.TripPurpose) (domain.TripPurpose, error)

	GetByID(ctx context.Context, id int64) (domain.TripPurpose, error)

	// List returns all purposes, defaults first, then by name.
	List(ctx context.Context) ([]domain.TripPurpose, error)

	// Update returns domain.ErrDuplicate when the new name is taken.
	Update(ctx context.Context, p domain.TripPurpose) (domain.TripPurpose, error)

	Delete(ctx context.Context, id int64) error

	// CountTrips returns how many trips reference the purpose.
	CountTrips(ctx context.Context, id int64) (int64, error)

	// EnsureDefaults inserts each purpose whose name is not taken yet and
	// returns the resulting rows, existing or new.
	EnsureDefaults(ctx context.Context, defaults []domain.TripPurpose) ([]domain.TripPurpose, error)
}

type pgPurposeRepo struct {
	db db
}

// NewPurposeRepo constructs a PurposeRepo.
func NewPurposeRepo(db db) PurposeRepo {
	return &pgPurposeRepo{db: db}
}

func purposeArgs(p domain.TripPurpose) pgx.NamedArgs {
	return pgx.NamedArgs{
		"id":                   p.ID,
		"name":                 p.Name,
		"is_business_relevant": p.IsBusinessRelevant,
		"color":                p.Color,
		"is_default":           p.IsDefault,
	}
}

func (r *pgPurposeRepo) Create(ctx context.Context, p domain.TripPurpose) (domain.TripPurpose, error) {
	q := `
		INSERT INTO trip_purposes (name, is_business_relevant, color, is_default)
		VALUES (@name, @is_business_relevant, @color, @is_default)
		RETURNING ` + purposeColumns

	result, err := scanPurpose(conn(ctx, r.db).QueryRow(ctx, q, purposeArgs(p)))
	if err != nil {
		return domain.TripPurpose{}, mapError("repo.PurposeRepo.Create", err)
	}
	return result, nil
}

func (r *pgPurposeRepo) GetByID(ctx context.Context, id int64) (domain.TripPurpose, error) {
	q := `SELECT ` + purposeColumns + ` FROM trip_purposes WHERE id = @id`

	result, err := scanPurpose(conn(ctx, r.db).QueryRow(ctx, q, pgx.NamedArgs{"id": id}))
	if err != nil {
		return domain.TripPurpose{}, mapError("repo.PurposeRepo.GetByID", err)
	}
	return result, nil
}

func (r *pgPurposeRepo) List(ctx context.Context) ([]domain.TripPurpose, error) {
	q := `SELECT ` + purposeColumns + ` FROM trip_purposes ORDER BY is_default DESC, name`

	rows, err := conn(ctx, r.db).Query(ctx, q)
	if err != nil {
		return nil, mapError("repo.PurposeRepo.List", err)
	}
	purposes, err := collect(rows, scanPurpose)
	if err != nil {
		return nil, mapError("repo.PurposeRepo.List", err)
	}
	return purposes, nil
}

// Update leaves is_default untouched; the flag is only set by EnsureDefaults.
func (r *pgPurposeRepo) Update(ctx context.Context, p domain.TripPurpose) (domain.TripPurpose, error) {
	q := `
		UPDATE trip_purposes
		SET name                 = @name,
		    is_business_relevant = @is_business_relevant,
		    color                = @color
		WHERE id = @id
		RETURNING ` + purposeColumns

	result, err := scanPurpose(conn(ctx, r.db).QueryRow(ctx, q, purposeArgs(p)))
	if err != nil {
		return domain.TripPurpose{}, mapError("repo.PurposeRepo.Update", err)
	}
	return result, nil
}

func (r *pgPurposeRepo) Delete(ctx context.Context, id int64) error {
	const q = `DELETE FROM trip_purposes WHERE id = @id`

	tag, err := conn(ctx, r.db).Exec(ctx, q, pgx.NamedArgs{"id": id})
	if err != nil {
		return mapDeleteError("repo.PurposeRepo.Delete", err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("repo.PurposeRepo.Delete: %w", domain.ErrNotFound)
	}
	return nil
}

func (r *pgPurposeRepo) CountTrips(ctx context.Context, id int64) (int64, error) {
	const q = `SELECT count(*) FROM trips WHERE purpose_id = @id`

	var n int64
	if err := conn(ctx, r.db).QueryRow(ctx, q, pgx.NamedArgs{"id": id}).Scan(&n); err != nil {
		return 0, mapError("repo.PurposeRepo.CountTrips", err)
	}
	return n, nil
}

// EnsureDefaults relies on the DO UPDATE SET no-op so RETURNING yields the
// existing row on a name conflict; DO NOTHING would return no row at all.
func (r *pgPurposeRepo) EnsureDefaults(ctx context.Context, defaults []domain.TripPurpose) ([]domain.TripPurpose, error) {
	q := `
		INSERT INTO trip_purposes (name, is_business_relevant, color, is_default)
		VALUES (@name, @is_business_relevant, @color, true)
		ON CONFLICT (name) DO UPDATE SET name = EXCLUDED.name
		RETURNING ` + purposeColumns

	out := make([]domain.TripPurpose, 0, len(defaults))
	for _, p := range defaults {
		result, err := scanPurpose(conn(ctx, r.db).QueryRow(ctx, q, purposeArgs(p)))
		if err != nil {
			return nil, mapError("repo.PurposeRepo.EnsureDefaults", err)
		}
		out = append(out, result)
	}
	return out, nil
}

func scanPurpose(s scanner) (domain.TripPurpose, error) {
	var p domain.TripPurpose
	if err := s.Scan(&p.ID, &p.Name, &p.IsBusinessRelevant, &p.Color, &p.IsDefault); err != nil {
		return domain.TripPurpose{}, err
	}
	return p, nil
}
