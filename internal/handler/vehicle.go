package handler

import (
	"net/http"

	"github.com/pkordes/fahrtenbuch/internal/domain"
)

// VehicleRequest is the body of POST /vehicles and PUT /vehicles/{id}.
type VehicleRequest struct {
	Make           string `json:"make"`
	Model          string `json:"model"`
	LicensePlate   string `json:"license_plate"`
	FuelType       string `json:"fuel_type"`
	IsPrimary      bool   `json:"is_primary"`
	AuditProtected bool   `json:"audit_protected"`
}

func (b VehicleRequest) toDomain(id int64) domain.Vehicle {
	return domain.Vehicle{
		ID:             id,
		Make:           b.Make,
		Model:          b.Model,
		LicensePlate:   b.LicensePlate,
		FuelType:       b.FuelType,
		IsPrimary:      b.IsPrimary,
		AuditProtected: b.AuditProtected,
	}
}

// ListVehicles handles GET /vehicles.
func (s *Server) ListVehicles(w http.ResponseWriter, r *http.Request) {
	vs, err := s.svc.Vehicles.List(r.Context())
	if err != nil {
		s.writeError(w, r, err, "")
		return
	}
	if vs == nil {
		vs = []domain.Vehicle{}
	}
	writeJSON(w, http.StatusOK, vs)
}

// CreateVehicle handles POST /vehicles.
func (s *Server) CreateVehicle(w http.ResponseWriter, r *http.Request) {
	var body VehicleRequest
	if !decode(w, r, &body) {
		return
	}

	created, err := s.svc.Vehicles.Insert(r.Context(), body.toDomain(0))
	if err != nil {
		s.writeError(w, r, err, "vehicle not found")
		return
	}
	writeJSON(w, http.StatusCreated, created)
}

// GetVehicle handles GET /vehicles/{id}.
func (s *Server) GetVehicle(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r)
	if !ok {
		return
	}

	v, err := s.svc.Vehicles.GetByID(r.Context(), id)
	if err != nil {
		s.writeError(w, r, err, "vehicle not found")
		return
	}
	writeJSON(w, http.StatusOK, v)
}

// UpdateVehicle handles PUT /vehicles/{id}.
func (s *Server) UpdateVehicle(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r)
	if !ok {
		return
	}
	var body VehicleRequest
	if !decode(w, r, &body) {
		return
	}

	updated, err := s.svc.Vehicles.Update(r.Context(), body.toDomain(id))
	if err != nil {
		s.writeError(w, r, err, "vehicle not found")
		return
	}
	writeJSON(w, http.StatusOK, updated)
}

// DeleteVehicle handles DELETE /vehicles/{id}.
func (s *Server) DeleteVehicle(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r)
	if !ok {
		return
	}

	if err := s.svc.Vehicles.Delete(r.Context(), id); err != nil {
		s.writeError(w, r, err, "vehicle not found")
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// SetPrimaryVehicle handles POST /vehicles/{id}/primary.
func (s *Server) SetPrimaryVehicle(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r)
	if !ok {
		return
	}

	v, err := s.svc.Vehicles.SetPrimary(r.Context(), id)
	if err != nil {
		s.writeError(w, r, err, "vehicle not found")
		return
	}
	writeJSON(w, http.StatusOK, v)
}
