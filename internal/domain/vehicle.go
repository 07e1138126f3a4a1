package domain

import "time"

// Vehicle is a car whose trips are recorded.
// At most one vehicle in the whole collection may be primary at any time;
// IsPrimary is only ever changed by the vehicle registry.
type Vehicle struct {
	ID             int64     `json:"id"`
	Make           string    `json:"make"`
	Model          string    `json:"model"`
	LicensePlate   string    `json:"license_plate"`
	FuelType       string    `json:"fuel_type"`
	IsPrimary      bool      `json:"is_primary"`
	AuditProtected bool      `json:"audit_protected"` // trips require change logging and cannot be deleted
	CreatedAt      time.Time `json:"created_at"`
	UpdatedAt      time.Time `json:"updated_at"`
}
