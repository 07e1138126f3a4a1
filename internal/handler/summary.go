package handler

import (
	"context"
	"net/http"
	"time"

	"github.com/gorilla/websocket"
	openapi_types "github.com/oapi-codegen/runtime/types"

	"github.com/pkordes/fahrtenbuch/internal/view"
)

const wsWriteTimeout = 10 * time.Second

// Summary is the API representation of view.Summary.
type Summary struct {
	Year       int            `json:"year"`
	TripCount  int            `json:"trip_count"`
	GhostCount int            `json:"ghost_count"`
	ActiveTrip *Trip          `json:"active_trip"`
	Distances  view.Distances `json:"distances"`
	MonthlyKm  [12]float64    `json:"monthly_km"`
}

// CountRequest is the body of POST /trips/count. Both bounds are inclusive.
type CountRequest struct {
	From openapi_types.Date `json:"from"`
	To   openapi_types.Date `json:"to"`
}

// CountResponse is the body returned by POST /trips/count.
type CountResponse struct {
	Count int `json:"count"`
}

// streamMessage is one frame of the live summary socket.
type streamMessage struct {
	Summary *Summary `json:"summary,omitempty"`
	Error   string   `json:"error,omitempty"`
}

// GetSummary handles GET /trips/summary.
func (s *Server) GetSummary(w http.ResponseWriter, r *http.Request) {
	year, err := s.year(r)
	if err != nil {
		requestError(w, err.Error())
		return
	}

	sum, err := s.svc.View.Summary(r.Context(), year)
	if err != nil {
		s.writeError(w, r, err, "")
		return
	}
	writeJSON(w, http.StatusOK, summaryToResponse(sum))
}

// CountTrips handles POST /trips/count.
func (s *Server) CountTrips(w http.ResponseWriter, r *http.Request) {
	var body CountRequest
	if !decode(w, r, &body) {
		return
	}
	if body.From.Time.IsZero() || body.To.Time.IsZero() {
		requestError(w, "from and to are required")
		return
	}

	n, err := s.svc.View.CountInRange(r.Context(), body.From.Time, body.To.Time)
	if err != nil {
		s.writeError(w, r, err, "")
		return
	}
	writeJSON(w, http.StatusOK, CountResponse{Count: n})
}

// StreamSummary handles GET /ws/summary. It upgrades to a WebSocket and sends
// the year's summary, then a fresh one after every trip change, until the
// client disconnects.
func (s *Server) StreamSummary(w http.ResponseWriter, r *http.Request) {
	year, err := s.year(r)
	if err != nil {
		requestError(w, err.Error())
		return
	}

	conn, err := s.upgrader.Upgrade(w, r, nil)
	if err != nil {
		s.log.WarnContext(r.Context(), "websocket upgrade failed", "error", err)
		return
	}
	defer conn.Close()

	ctx, cancel := context.WithCancel(r.Context())
	defer cancel()

	// The read loop only notices the client going away.
	go func() {
		defer cancel()
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				return
			}
		}
	}()

	for u := range s.svc.View.WatchSummary(ctx, year) {
		msg := streamMessage{}
		if u.Err != nil {
			s.log.ErrorContext(ctx, "summary reload failed", "error", u.Err)
			msg.Error = "summary unavailable"
		} else {
			sum := summaryToResponse(u.Value)
			msg.Summary = &sum
		}
		_ = conn.SetWriteDeadline(time.Now().Add(wsWriteTimeout))
		if err := conn.WriteJSON(msg); err != nil {
			return
		}
	}
	_ = conn.WriteControl(websocket.CloseMessage,
		websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""), time.Now().Add(time.Second))
}

func summaryToResponse(sum view.Summary) Summary {
	resp := Summary{
		Year:       sum.Year,
		TripCount:  sum.TripCount,
		GhostCount: sum.GhostCount,
		Distances:  sum.Distances,
		MonthlyKm:  sum.MonthlyKm,
	}
	if sum.ActiveTrip != nil {
		t := tripToResponse(*sum.ActiveTrip)
		resp.ActiveTrip = &t
	}
	return resp
}
