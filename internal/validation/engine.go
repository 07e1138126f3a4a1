// Package validation holds the field-level rules for trips, vehicles, and trip
// purposes. Every check is pure: it reads only its input and the injected clock,
// so the same rules run before a form is submitted and again before a commit.
package validation

import (
	"fmt"
	"regexp"
	"strings"
	"unicode/utf8"

	"github.com/pkordes/fahrtenbuch/internal/clock"
	"github.com/pkordes/fahrtenbuch/internal/domain"
)

// Field keys used in domain.ValidationResult.
const (
	FieldStartLocation = "startLocation"
	FieldEndLocation   = "endLocation"
	FieldDistance      = "distanceKm"
	FieldPurpose       = "purpose"
	FieldDate          = "date"
	FieldOdometer      = "odometer"
	FieldStartOdometer = "startOdometer"
	FieldVehicle       = "vehicle"
	FieldMake          = "make"
	FieldModel         = "model"
	FieldLicensePlate  = "licensePlate"
	FieldFuelType      = "fuelType"
	FieldName          = "name"
	FieldColor         = "color"
)

// Limits applied by the rules below.
const (
	MaxLocationLength    = 200
	MaxPurposeLength     = 200
	MaxVehicleTextLength = 100
	MaxPurposeNameLength = 50
	MaxDistanceKm        = 99999.0
)

// platePattern matches a normalized German licence plate: district code,
// separator, one or two letters, optional separator, up to four digits and an
// optional E (electric) or H (historic) suffix.
var platePattern = regexp.MustCompile(`^[A-ZÄÖÜ]{1,3}[- ][A-Z]{1,2}[- ]?[0-9]{1,4}[EH]?$`)

var colorPattern = regexp.MustCompile(`^#[0-9A-Fa-f]{6}$`)

// Engine evaluates validation rules. The clock supplies "now" for the
// not-in-the-future date rule.
type Engine struct {
	clock clock.Clock
}

// NewEngine constructs an Engine using c as its time source.
func NewEngine(c clock.Clock) *Engine {
	return &Engine{clock: c}
}

// ValidateStart checks the fields required to open a trip.
func (e *Engine) ValidateStart(t domain.Trip) domain.ValidationResult {
	r := domain.ValidationResult{}

	checkText(r, FieldStartLocation, t.StartLocation, MaxLocationLength, true)

	switch {
	case t.StartOdometer == nil:
		r.Add(FieldStartOdometer, "required")
	case *t.StartOdometer < 0:
		r.Add(FieldStartOdometer, "must not be negative")
	}

	checkVehicle(r, t.VehicleID)
	return r
}

// Validate checks a trip in its completed form. Every failing field is
// reported; the distance and odometer rules are evaluated independently.
func (e *Engine) Validate(t domain.Trip) domain.ValidationResult {
	r := domain.ValidationResult{}

	checkText(r, FieldStartLocation, t.StartLocation, MaxLocationLength, true)
	checkText(r, FieldEndLocation, t.EndLocation, MaxLocationLength, true)
	checkText(r, FieldPurpose, t.Purpose, MaxPurposeLength, false)

	switch {
	case t.DistanceKm <= 0:
		r.Add(FieldDistance, "must be greater than 0")
	case t.DistanceKm > MaxDistanceKm:
		r.Add(FieldDistance, fmt.Sprintf("must not exceed %.0f", MaxDistanceKm))
	}

	switch {
	case t.Date.IsZero():
		r.Add(FieldDate, "required")
	case t.Date.After(e.clock.Now()):
		r.Add(FieldDate, "must not be in the future")
	}

	switch {
	case t.StartOdometer == nil || t.EndOdometer == nil:
		r.Add(FieldOdometer, "start and end readings are required")
	case *t.StartOdometer < 0 || *t.EndOdometer < 0:
		r.Add(FieldOdometer, "readings must not be negative")
	case *t.EndOdometer <= *t.StartOdometer:
		r.Add(FieldOdometer, "end reading must be greater than start reading")
	}

	checkVehicle(r, t.VehicleID)
	return r
}

// ValidateVehicle checks a vehicle before insert or update. The licence plate
// is normalized before it is matched.
func (e *Engine) ValidateVehicle(v domain.Vehicle) domain.ValidationResult {
	r := domain.ValidationResult{}

	checkText(r, FieldMake, v.Make, MaxVehicleTextLength, true)
	checkText(r, FieldModel, v.Model, MaxVehicleTextLength, true)

	plate := NormalizePlate(v.LicensePlate)
	switch {
	case plate == "":
		r.Add(FieldLicensePlate, "required")
	case !platePattern.MatchString(plate):
		r.Add(FieldLicensePlate, "not a valid German licence plate")
	}

	if strings.TrimSpace(v.FuelType) == "" {
		r.Add(FieldFuelType, "required")
	}
	return r
}

// ValidatePurpose checks a trip purpose before insert or update.
func (e *Engine) ValidatePurpose(p domain.TripPurpose) domain.ValidationResult {
	r := domain.ValidationResult{}

	checkText(r, FieldName, p.Name, MaxPurposeNameLength, true)
	if p.Color != "" && !colorPattern.MatchString(p.Color) {
		r.Add(FieldColor, "must be a hex color like #1E88E5")
	}
	return r
}

// NormalizePlate trims and uppercases a licence plate.
func NormalizePlate(s string) string {
	return strings.ToUpper(strings.TrimSpace(s))
}

func checkText(r domain.ValidationResult, field, value string, max int, required bool) {
	v := strings.TrimSpace(value)
	if required && v == "" {
		r.Add(field, "required")
		return
	}
	if utf8.RuneCountInString(v) > max {
		r.Add(field, fmt.Sprintf("max %d characters", max))
	}
}

func checkVehicle(r domain.ValidationResult, id *int64) {
	if id == nil || *id <= 0 {
		r.Add(FieldVehicle, "required")
	}
}
