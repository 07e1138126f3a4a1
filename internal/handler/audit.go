package handler

import (
	"net/http"

	"github.com/pkordes/fahrtenbuch/internal/domain"
)

// ListAudit handles GET /trips/{id}/audit.
func (s *Server) ListAudit(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r)
	if !ok {
		return
	}

	entries, err := s.svc.Audit.ForTrip(r.Context(), id)
	if err != nil {
		s.writeError(w, r, err, "trip not found")
		return
	}
	if entries == nil {
		entries = []domain.TripAuditLog{}
	}
	writeJSON(w, http.StatusOK, entries)
}
