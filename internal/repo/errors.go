package repo

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"

	"github.com/pkordes/fahrtenbuch/internal/domain"
)

// Postgres SQLSTATE codes mapped to domain errors.
const (
	codeUniqueViolation     = "23505"
	codeForeignKeyViolation = "23503"
	codeCheckViolation      = "23514"
)

// mapError converts pgx errors into domain errors prefixed with op.
// A foreign-key violation means the referenced row is missing.
// Context errors pass through; anything unrecognized becomes a *domain.StoreError.
func mapError(op string, err error) error {
	return mapErr(op, err, domain.ErrNotFound)
}

// mapDeleteError is mapError for deletes, where a foreign-key violation means
// other rows still reference the one being removed.
func mapDeleteError(op string, err error) error {
	return mapErr(op, err, domain.ErrProtected)
}

func mapErr(op string, err, onForeignKey error) error {
	if err == nil {
		return nil
	}

	if errors.Is(err, context.DeadlineExceeded) || errors.Is(err, context.Canceled) {
		return fmt.Errorf("%s: %w", op, err)
	}

	if errors.Is(err, pgx.ErrNoRows) {
		return fmt.Errorf("%s: %w", op, domain.ErrNotFound)
	}

	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		switch pgErr.Code {
		case codeUniqueViolation:
			return fmt.Errorf("%s: %w (%s)", op, domain.ErrDuplicate, pgErr.ConstraintName)
		case codeForeignKeyViolation:
			return fmt.Errorf("%s: %w (%s)", op, onForeignKey, pgErr.ConstraintName)
		case codeCheckViolation:
			return fmt.Errorf("%s: %w (%s)", op, domain.ErrValidation, pgErr.ConstraintName)
		}
	}

	return &domain.StoreError{Op: op, Err: err}
}
