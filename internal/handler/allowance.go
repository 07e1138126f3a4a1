package handler

import (
	"net/http"
	"strconv"

	"github.com/pkordes/fahrtenbuch/internal/allowance"
)

// GetAllowance handles GET /allowance.
// With ?oneWayKm= it prices a fixed commute; otherwise it prices the business
// distance recorded in ?year= (default: the current year). ?workingDays=
// overrides the configured default in both modes.
func (s *Server) GetAllowance(w http.ResponseWriter, r *http.Request) {
	days, err := queryInt(r, "workingDays")
	if err != nil {
		requestError(w, err.Error())
		return
	}
	workingDays := 0
	if days != nil {
		workingDays = *days
	}

	if raw := r.URL.Query().Get("oneWayKm"); raw != "" {
		km, err := strconv.ParseFloat(raw, 64)
		if err != nil || km < 0 {
			requestError(w, "oneWayKm must be a non-negative number")
			return
		}
		writeJSON(w, http.StatusOK, s.svc.Allowance.ForCommute(km, workingDays))
		return
	}

	year, err := s.year(r)
	if err != nil {
		requestError(w, err.Error())
		return
	}
	var res allowance.Result
	if res, err = s.svc.Allowance.ForYear(r.Context(), year, workingDays); err != nil {
		s.writeError(w, r, err, "")
		return
	}
	writeJSON(w, http.StatusOK, res)
}

// year parses ?year=, defaulting to the current year.
func (s *Server) year(r *http.Request) (int, error) {
	y, err := queryInt(r, "year")
	if err != nil {
		return 0, err
	}
	if y == nil {
		return s.clock.Now().Year(), nil
	}
	return *y, nil
}
