package handler

import (
	"net/http"

	"github.com/pkordes/fahrtenbuch/internal/domain"
)

// PurposeRequest is the body of POST /purposes and PUT /purposes/{id}.
type PurposeRequest struct {
	Name               string `json:"name"`
	IsBusinessRelevant bool   `json:"is_business_relevant"`
	Color              string `json:"color,omitempty"`
}

// ListPurposes handles GET /purposes.
func (s *Server) ListPurposes(w http.ResponseWriter, r *http.Request) {
	ps, err := s.svc.Purposes.List(r.Context())
	if err != nil {
		s.writeError(w, r, err, "")
		return
	}
	if ps == nil {
		ps = []domain.TripPurpose{}
	}
	writeJSON(w, http.StatusOK, ps)
}

// CreatePurpose handles POST /purposes.
func (s *Server) CreatePurpose(w http.ResponseWriter, r *http.Request) {
	var body PurposeRequest
	if !decode(w, r, &body) {
		return
	}

	created, err := s.svc.Purposes.Create(r.Context(), domain.TripPurpose{
		Name: body.Name, IsBusinessRelevant: body.IsBusinessRelevant, Color: body.Color,
	})
	if err != nil {
		s.writeError(w, r, err, "purpose not found")
		return
	}
	writeJSON(w, http.StatusCreated, created)
}

// UpdatePurpose handles PUT /purposes/{id}.
func (s *Server) UpdatePurpose(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r)
	if !ok {
		return
	}
	var body PurposeRequest
	if !decode(w, r, &body) {
		return
	}

	updated, err := s.svc.Purposes.Update(r.Context(), domain.TripPurpose{
		ID: id, Name: body.Name, IsBusinessRelevant: body.IsBusinessRelevant, Color: body.Color,
	})
	if err != nil {
		s.writeError(w, r, err, "purpose not found")
		return
	}
	writeJSON(w, http.StatusOK, updated)
}

// DeletePurpose handles DELETE /purposes/{id}.
func (s *Server) DeletePurpose(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r)
	if !ok {
		return
	}

	if err := s.svc.Purposes.Delete(r.Context(), id); err != nil {
		s.writeError(w, r, err, "purpose not found")
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
