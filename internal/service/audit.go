package service

import (
	"context"
	"fmt"
	"strconv"
	"time"

	"github.com/pkordes/fahrtenbuch/internal/domain"
	"github.com/pkordes/fahrtenbuch/internal/watch"
)

// Audited field names, as stored in trip_audit_log.field_name.
const (
	AuditStartLocation = "startLocation"
	AuditEndLocation   = "endLocation"
	AuditDistance      = "distanceKm"
	AuditPurpose       = "purpose"
	AuditPurposeID     = "purposeId"
	AuditBusinessTrip  = "businessTrip"
	AuditNotes         = "notes"
	AuditStartOdometer = "startOdometer"
	AuditEndOdometer   = "endOdometer"
	AuditVehicle       = "vehicleId"
	AuditDate          = "date"
	AuditPhase         = "phase"
)

// RecordChanges returns one audit entry per field that differs between old
// and updated, in a fixed field order. Values are compared in their string
// form; unchanged fields are omitted.
func RecordChanges(tripID int64, old, updated domain.Trip, changedAt time.Time) []domain.TripAuditLog {
	fields := []struct {
		name     string
		old, new string
	}{
		{AuditStartLocation, old.StartLocation, updated.StartLocation},
		{AuditEndLocation, old.EndLocation, updated.EndLocation},
		{AuditDistance, formatFloat(old.DistanceKm), formatFloat(updated.DistanceKm)},
		{AuditPurpose, old.Purpose, updated.Purpose},
		{AuditPurposeID, formatInt(old.PurposeID), formatInt(updated.PurposeID)},
		{AuditBusinessTrip, strconv.FormatBool(old.BusinessTrip), strconv.FormatBool(updated.BusinessTrip)},
		{AuditNotes, old.Notes, updated.Notes},
		{AuditStartOdometer, formatInt(old.StartOdometer), formatInt(updated.StartOdometer)},
		{AuditEndOdometer, formatInt(old.EndOdometer), formatInt(updated.EndOdometer)},
		{AuditVehicle, formatInt(old.VehicleID), formatInt(updated.VehicleID)},
		{AuditDate, formatTime(old.Date), formatTime(updated.Date)},
		{AuditPhase, string(old.Phase()), string(updated.Phase())},
	}

	var entries []domain.TripAuditLog
	for _, f := range fields {
		if f.old == f.new {
			continue
		}
		entries = append(entries, domain.TripAuditLog{
			TripID:    tripID,
			FieldName: f.name,
			OldValue:  f.old,
			NewValue:  f.new,
			ChangedAt: changedAt,
		})
	}
	return entries
}

func formatFloat(v float64) string { return strconv.FormatFloat(v, 'f', -1, 64) }

func formatInt(v *int64) string {
	if v == nil {
		return ""
	}
	return strconv.FormatInt(*v, 10)
}

func formatTime(t time.Time) string {
	if t.IsZero() {
		return ""
	}
	return t.UTC().Format(time.RFC3339)
}

// AuditService reads the audit trail of a trip.
type AuditService struct {
	Deps
}

// NewAuditService constructs an AuditService. It uses d.Trips, d.Audit, and d.Hub.
func NewAuditService(d Deps) *AuditService {
	return &AuditService{Deps: d}
}

// ForTrip returns the trip's audit entries ordered by changedAt ascending.
// Returns domain.ErrNotFound for an unknown trip.
func (s *AuditService) ForTrip(ctx context.Context, tripID int64) ([]domain.TripAuditLog, error) {
	if _, err := s.Trips.GetByID(ctx, tripID); err != nil {
		return nil, fmt.Errorf("service.AuditService.ForTrip: %w", err)
	}
	entries, err := s.Audit.ListByTrip(ctx, tripID)
	if err != nil {
		return nil, fmt.Errorf("service.AuditService.ForTrip: %w", err)
	}
	return entries, nil
}

// Watch streams the trip's audit entries: the current list first, then the
// full list again after every audit change, until ctx ends.
func (s *AuditService) Watch(ctx context.Context, tripID int64) <-chan watch.Update[[]domain.TripAuditLog] {
	return watch.Watch(ctx, s.Hub, func(ctx context.Context) ([]domain.TripAuditLog, error) {
		return s.ForTrip(ctx, tripID)
	}, watch.TopicAudit)
}
