package repo

import (
	"context"

	"github.com/jackc/pgx/v5"

	"github.com/pkordes/fahrtenbuch/internal/domain"
)

// AuditRepo appends and reads trip audit rows. There is no update or delete:
// rows only disappear when their trip is deleted.
type AuditRepo interface {
	// Append inserts entries in order and returns them with ids set.
	Append(ctx context.Context, entries []domain.TripAuditLog) ([]domain.TripAuditLog, error)

	// ListByTrip returns a trip's entries ordered by changed_at, then id.
	ListByTrip(ctx context.Context, tripID int64) ([]domain.TripAuditLog, error)
}

type pgAuditRepo struct {
	db db
}

// NewAuditRepo constructs an AuditRepo.
func NewAuditRepo(db db) AuditRepo {
	return &pgAuditRepo{db: db}
}

func (r *pgAuditRepo) Append(ctx context.Context, entries []domain.TripAuditLog) ([]domain.TripAuditLog, error) {
	const q = `
		INSERT INTO trip_audit_log (trip_id, field_name, old_value, new_value, changed_at)
		VALUES (@trip_id, @field_name, @old_value, @new_value, @changed_at)
		RETURNING id, trip_id, field_name, old_value, new_value, changed_at`

	if len(entries) == 0 {
		return []domain.TripAuditLog{}, nil
	}

	batch := &pgx.Batch{}
	for _, e := range entries {
		batch.Queue(q, pgx.NamedArgs{
			"trip_id":    e.TripID,
			"field_name": e.FieldName,
			"old_value":  e.OldValue,
			"new_value":  e.NewValue,
			"changed_at": e.ChangedAt,
		})
	}

	br := conn(ctx, r.db).SendBatch(ctx, batch)
	defer br.Close()

	out := make([]domain.TripAuditLog, 0, len(entries))
	for range entries {
		e, err := scanAudit(br.QueryRow())
		if err != nil {
			return nil, mapError("repo.AuditRepo.Append", err)
		}
		out = append(out, e)
	}
	return out, nil
}

func (r *pgAuditRepo) ListByTrip(ctx context.Context, tripID int64) ([]domain.TripAuditLog, error) {
	const q = `
		SELECT id, trip_id, field_name, old_value, new_value, changed_at
		FROM trip_audit_log
		WHERE trip_id = @trip_id
		ORDER BY changed_at, id`

	rows, err := conn(ctx, r.db).Query(ctx, q, pgx.NamedArgs{"trip_id": tripID})
	if err != nil {
		return nil, mapError("repo.AuditRepo.ListByTrip", err)
	}
	entries, err := collect(rows, scanAudit)
	if err != nil {
		return nil, mapError("repo.AuditRepo.ListByTrip", err)
	}
	return entries, nil
}

func scanAudit(s scanner) (domain.TripAuditLog, error) {
	var e domain.TripAuditLog
	if err := s.Scan(&e.ID, &e.TripID, &e.FieldName, &e.OldValue, &e.NewValue, &e.ChangedAt); err != nil {
		return domain.TripAuditLog{}, err
	}
	return e, nil
}
