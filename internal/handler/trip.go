package handler

import (
	"errors"
	"fmt"
	"net/http"
	"time"

	openapi_types "github.com/oapi-codegen/runtime/types"

	"github.com/pkordes/fahrtenbuch/internal/domain"
	"github.com/pkordes/fahrtenbuch/internal/service"
)

// Trip is the API representation of a trip. Date is a calendar date.
type Trip struct {
	ID            int64              `json:"id"`
	Date          openapi_types.Date `json:"date"`
	StartLocation string             `json:"start_location"`
	EndLocation   *string            `json:"end_location,omitempty"`
	DistanceKm    float64            `json:"distance_km"`
	Purpose       *string            `json:"purpose,omitempty"`
	PurposeID     *int64             `json:"purpose_id,omitempty"`
	BusinessTrip  bool               `json:"business_trip"`
	Notes         *string            `json:"notes,omitempty"`
	StartOdometer *int64             `json:"start_odometer,omitempty"`
	EndOdometer   *int64             `json:"end_odometer,omitempty"`
	VehicleID     *int64             `json:"vehicle_id,omitempty"`
	Phase         domain.Phase       `json:"phase"`
	IsActive      bool               `json:"is_active"`
	IsGhost       bool               `json:"is_ghost"`
	CreatedAt     time.Time          `json:"created_at"`
	UpdatedAt     time.Time          `json:"updated_at"`
}

// StartTripRequest is the body of POST /trips. A missing date means today.
type StartTripRequest struct {
	Date          *openapi_types.Date `json:"date,omitempty"`
	StartLocation string              `json:"start_location"`
	StartOdometer *int64              `json:"start_odometer"`
	VehicleID     *int64              `json:"vehicle_id"`
	Purpose       *string             `json:"purpose,omitempty"`
	PurposeID     *int64              `json:"purpose_id,omitempty"`
	BusinessTrip  *bool               `json:"business_trip,omitempty"`
	Notes         *string             `json:"notes,omitempty"`
}

// CompleteTripRequest is the body of POST /trips/{id}/complete.
type CompleteTripRequest struct {
	EndLocation  string  `json:"end_location"`
	EndOdometer  *int64  `json:"end_odometer"`
	Purpose      *string `json:"purpose,omitempty"`
	PurposeID    *int64  `json:"purpose_id,omitempty"`
	BusinessTrip *bool   `json:"business_trip,omitempty"`
	Notes        *string `json:"notes,omitempty"`
}

// UpdateTripRequest is the body of PUT /trips/{id}: the complete new state of
// the trip. The phase flags select the lifecycle event.
type UpdateTripRequest struct {
	Date          openapi_types.Date `json:"date"`
	StartLocation string             `json:"start_location"`
	EndLocation   *string            `json:"end_location,omitempty"`
	DistanceKm    float64            `json:"distance_km"`
	Purpose       *string            `json:"purpose,omitempty"`
	PurposeID     *int64             `json:"purpose_id,omitempty"`
	BusinessTrip  bool               `json:"business_trip"`
	Notes         *string            `json:"notes,omitempty"`
	StartOdometer *int64             `json:"start_odometer,omitempty"`
	EndOdometer   *int64             `json:"end_odometer,omitempty"`
	VehicleID     *int64             `json:"vehicle_id,omitempty"`
	IsActive      bool               `json:"is_active"`
	IsGhost       bool               `json:"is_ghost"`
}

// Pagination is the metadata of a paged list.
type Pagination struct {
	Page  int   `json:"page"`
	Limit int   `json:"limit"`
	Total int64 `json:"total"`
}

// TripList is the body of GET /trips.
type TripList struct {
	Data       []Trip     `json:"data"`
	Pagination Pagination `json:"pagination"`
}

// StartTrip handles POST /trips.
func (s *Server) StartTrip(w http.ResponseWriter, r *http.Request) {
	var body StartTripRequest
	if !decode(w, r, &body) {
		return
	}

	created, err := s.svc.Trips.Start(r.Context(), startRequestToTrip(body))
	if err != nil {
		s.writeError(w, r, err, "vehicle not found")
		return
	}
	writeJSON(w, http.StatusCreated, tripToResponse(created))
}

// ListTrips handles GET /trips.
// Supports ?vehicleId=, ?from= and ?to= (inclusive calendar dates) filters and
// ?page= / ?limit= pagination (defaults: page=1, limit=20, max=100).
func (s *Server) ListTrips(w http.ResponseWriter, r *http.Request) {
	page, err := queryInt(r, "page")
	if err != nil {
		requestError(w, err.Error())
		return
	}
	limit, err := queryInt(r, "limit")
	if err != nil {
		requestError(w, err.Error())
		return
	}
	f, err := tripFilter(r)
	if err != nil {
		requestError(w, err.Error())
		return
	}

	params := domain.NewPaginationParams(page, limit)
	trips, total, err := s.svc.Trips.ListPaged(r.Context(), f, params)
	if err != nil {
		s.writeError(w, r, err, "")
		return
	}

	data := make([]Trip, len(trips))
	for i, t := range trips {
		data[i] = tripToResponse(t)
	}
	writeJSON(w, http.StatusOK, TripList{
		Data:       data,
		Pagination: Pagination{Page: params.Page, Limit: params.Limit, Total: total},
	})
}

// GetTrip handles GET /trips/{id}.
func (s *Server) GetTrip(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r)
	if !ok {
		return
	}

	trip, err := s.svc.Trips.GetByID(r.Context(), id)
	if err != nil {
		s.writeError(w, r, err, "trip not found")
		return
	}
	writeJSON(w, http.StatusOK, tripToResponse(trip))
}

// GetActiveTrip handles GET /trips/active?vehicleId=.
func (s *Server) GetActiveTrip(w http.ResponseWriter, r *http.Request) {
	vehicleID, err := queryInt(r, "vehicleId")
	if err != nil {
		requestError(w, err.Error())
		return
	}
	if vehicleID == nil {
		requestError(w, "vehicleId is required")
		return
	}

	trip, err := s.svc.Trips.Active(r.Context(), int64(*vehicleID))
	if err != nil {
		s.writeError(w, r, err, "no active trip")
		return
	}
	writeJSON(w, http.StatusOK, tripToResponse(trip))
}

// EditTrip handles PUT /trips/{id}.
func (s *Server) EditTrip(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r)
	if !ok {
		return
	}
	var body UpdateTripRequest
	if !decode(w, r, &body) {
		return
	}

	existing, err := s.svc.Trips.GetByID(r.Context(), id)
	if err != nil {
		s.writeError(w, r, err, "trip not found")
		return
	}
	updated, err := s.svc.Trips.Edit(r.Context(), existing, updateRequestToTrip(id, body))
	if err != nil {
		s.writeError(w, r, err, "trip not found")
		return
	}
	writeJSON(w, http.StatusOK, tripToResponse(updated))
}

// DeleteTrip handles DELETE /trips/{id}.
func (s *Server) DeleteTrip(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r)
	if !ok {
		return
	}

	if err := s.svc.Trips.Delete(r.Context(), id); err != nil {
		s.writeError(w, r, err, "trip not found")
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// CompleteTrip handles POST /trips/{id}/complete.
func (s *Server) CompleteTrip(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r)
	if !ok {
		return
	}
	var body CompleteTripRequest
	if !decode(w, r, &body) {
		return
	}

	completed, err := s.svc.Trips.Complete(r.Context(), service.CompleteInput{
		TripID:       id,
		EndLocation:  body.EndLocation,
		EndOdometer:  body.EndOdometer,
		Purpose:      derefString(body.Purpose),
		PurposeID:    body.PurposeID,
		BusinessTrip: body.BusinessTrip,
		Notes:        derefString(body.Notes),
	})
	if errors.Is(err, domain.ErrPurposeNotFound) {
		s.writeError(w, r, err, "purpose not found")
		return
	}
	if err != nil {
		s.writeError(w, r, err, "trip not found")
		return
	}
	writeJSON(w, http.StatusOK, tripToResponse(completed))
}

// MarkGhost handles POST /trips/{id}/ghost.
func (s *Server) MarkGhost(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r)
	if !ok {
		return
	}

	ghost, err := s.svc.Trips.MarkGhost(r.Context(), id)
	if err != nil {
		s.writeError(w, r, err, "trip not found")
		return
	}
	writeJSON(w, http.StatusOK, tripToResponse(ghost))
}

// --- mapping helpers --------------------------------------------------------

func startRequestToTrip(body StartTripRequest) domain.Trip {
	t := domain.Trip{
		StartLocation: body.StartLocation,
		StartOdometer: body.StartOdometer,
		VehicleID:     body.VehicleID,
		Purpose:       derefString(body.Purpose),
		PurposeID:     body.PurposeID,
		Notes:         derefString(body.Notes),
	}
	if body.Date != nil {
		t.Date = body.Date.Time
	}
	if body.BusinessTrip != nil {
		t.BusinessTrip = *body.BusinessTrip
	}
	return t
}

// updateRequestToTrip builds the proposed trip for an edit, preserving the
// path ID.
func updateRequestToTrip(id int64, body UpdateTripRequest) domain.Trip {
	return domain.Trip{
		ID:            id,
		Date:          body.Date.Time,
		StartLocation: body.StartLocation,
		EndLocation:   derefString(body.EndLocation),
		DistanceKm:    body.DistanceKm,
		Purpose:       derefString(body.Purpose),
		PurposeID:     body.PurposeID,
		BusinessTrip:  body.BusinessTrip,
		Notes:         derefString(body.Notes),
		StartOdometer: body.StartOdometer,
		EndOdometer:   body.EndOdometer,
		VehicleID:     body.VehicleID,
		IsActive:      body.IsActive,
		IsGhost:       body.IsGhost,
	}
}

func tripToResponse(t domain.Trip) Trip {
	return Trip{
		ID:            t.ID,
		Date:          openapi_types.Date{Time: t.Date},
		StartLocation: t.StartLocation,
		EndLocation:   optString(t.EndLocation),
		DistanceKm:    t.DistanceKm,
		Purpose:       optString(t.Purpose),
		PurposeID:     t.PurposeID,
		BusinessTrip:  t.BusinessTrip,
		Notes:         optString(t.Notes),
		StartOdometer: t.StartOdometer,
		EndOdometer:   t.EndOdometer,
		VehicleID:     t.VehicleID,
		Phase:         t.Phase(),
		IsActive:      t.IsActive,
		IsGhost:       t.IsGhost,
		CreatedAt:     t.CreatedAt,
		UpdatedAt:     t.UpdatedAt,
	}
}

func tripFilter(r *http.Request) (domain.TripFilter, error) {
	var f domain.TripFilter
	vehicleID, err := queryInt(r, "vehicleId")
	if err != nil {
		return f, err
	}
	if vehicleID != nil {
		v := int64(*vehicleID)
		f.VehicleID = &v
	}
	if f.From, err = queryDate(r, "from"); err != nil {
		return f, err
	}
	if f.To, err = queryDate(r, "to"); err != nil {
		return f, err
	}
	return f, nil
}

// queryDate parses an optional calendar-date query parameter.
func queryDate(r *http.Request, key string) (*time.Time, error) {
	raw := r.URL.Query().Get(key)
	if raw == "" {
		return nil, nil
	}
	d, err := time.Parse(openapi_types.DateFormat, raw)
	if err != nil {
		return nil, fmt.Errorf("%s must be a date like 2025-01-31", key)
	}
	return &d, nil
}

func derefString(p *string) string {
	if p == nil {
		return ""
	}
	return *p
}

func optString(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}
