package domain

import (
	"errors"
	"fmt"
	"sort"
	"strings"
)

// ErrNotFound is returned by repo and service functions when the requested
// resource does not exist in the database.
// Handlers should map this to HTTP 404.
var ErrNotFound = errors.New("not found")

// ErrValidation is matched by every *ValidationError.
// Handlers should map this to HTTP 422 Unprocessable Entity.
var ErrValidation = errors.New("validation error")

// ErrProtected is matched by every *ProtectedDeletionError and by foreign-key
// violations raised while deleting a referenced row.
var ErrProtected = errors.New("protected")

// ErrDuplicate is returned when a uniqueness constraint is violated
// (e.g. two trip purposes with the same name).
var ErrDuplicate = errors.New("duplicate")

// ErrInvalidState is returned when a command is not allowed in the entity's
// current lifecycle phase (e.g. completing a ghost trip).
var ErrInvalidState = errors.New("invalid state")

// ErrActiveTripExists is returned by a trip start when the vehicle already has
// an active trip and the configured policy forbids superseding it.
var ErrActiveTripExists = fmt.Errorf("%w: vehicle already has an active trip", ErrInvalidState)

// ErrPurposeNotFound is returned when a command references an unknown trip
// purpose. It matches ErrNotFound.
var ErrPurposeNotFound = fmt.Errorf("purpose %w", ErrNotFound)

// ValidationResult maps a field name to a human-readable error message.
// An empty result means the input is valid.
type ValidationResult map[string]string

// Valid reports whether no field failed validation.
func (r ValidationResult) Valid() bool { return len(r) == 0 }

// Add records msg for field unless the field already has a message, so the
// first failing rule per field wins.
func (r ValidationResult) Add(field, msg string) {
	if _, ok := r[field]; !ok {
		r[field] = msg
	}
}

// Err returns a *ValidationError carrying r, or nil when r is valid.
func (r ValidationResult) Err() error {
	if r.Valid() {
		return nil
	}
	return &ValidationError{Fields: r}
}

// ValidationError carries every failing field of a rejected command.
// Nothing is persisted when a command fails with a ValidationError.
type ValidationError struct {
	Fields ValidationResult
}

func (e *ValidationError) Error() string {
	keys := make([]string, 0, len(e.Fields))
	for k := range e.Fields {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	parts := make([]string, 0, len(keys))
	for _, k := range keys {
		parts = append(parts, k+": "+e.Fields[k])
	}
	return "validation error: " + strings.Join(parts, "; ")
}

func (e *ValidationError) Unwrap() error { return ErrValidation }

// ProtectedDeletionError is returned when a delete is refused, either because
// the row falls under audit protection or because other rows still reference it.
type ProtectedDeletionError struct {
	Entity string
	ID     int64
	Reason string
}

func (e *ProtectedDeletionError) Error() string {
	return fmt.Sprintf("%s %d cannot be deleted: %s", e.Entity, e.ID, e.Reason)
}

func (e *ProtectedDeletionError) Unwrap() error { return ErrProtected }

// StoreError wraps an unexpected persistence failure. Op names the repo
// method that failed. The cause is preserved for errors.Is / errors.As.
type StoreError struct {
	Op  string
	Err error
}

func (e *StoreError) Error() string { return e.Op + ": " + e.Err.Error() }

func (e *StoreError) Unwrap() error { return e.Err }
