package domain

// TripPurpose is a reusable, named reason for a trip.
// Name is unique (case-sensitive). Default purposes cannot be deleted.
type TripPurpose struct {
	ID                 int64  `json:"id"`
	Name               string `json:"name"`
	IsBusinessRelevant bool   `json:"is_business_relevant"`
	Color              string `json:"color,omitempty"`
	IsDefault          bool   `json:"is_default"`
}
