package domain

import "time"

// TripAuditLog records one field-level change to a trip.
// Rows are append-only and are removed only when their trip is deleted.
type TripAuditLog struct {
	ID        int64     `json:"id"`
	TripID    int64     `json:"trip_id"`
	FieldName string    `json:"field_name"`
	OldValue  string    `json:"old_value"`
	NewValue  string    `json:"new_value"`
	ChangedAt time.Time `json:"changed_at"`
}
