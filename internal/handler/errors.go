package handler

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/pkordes/fahrtenbuch/internal/domain"
)

// ErrorDetail is the body of every error response.
type ErrorDetail struct {
	Code    string            `json:"code"`
	Message string            `json:"message"`
	Fields  map[string]string `json:"fields,omitempty"`
}

// ErrorResponse wraps ErrorDetail under an "error" key.
type ErrorResponse struct {
	Error ErrorDetail `json:"error"`
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeDetail(w http.ResponseWriter, status int, d ErrorDetail) {
	writeJSON(w, status, ErrorResponse{Error: d})
}

// requestError answers a request rejected before it reached the service layer
// (e.g. a malformed body or path parameter).
func requestError(w http.ResponseWriter, message string) {
	writeDetail(w, http.StatusUnprocessableEntity, ErrorDetail{Code: "validation_error", Message: message})
}

// writeError maps a service error to its HTTP status. Unexpected errors are
// logged and answered with a generic 500.
func (s *Server) writeError(w http.ResponseWriter, r *http.Request, err error, notFound string) {
	var vErr *domain.ValidationError
	switch {
	case errors.As(err, &vErr):
		writeDetail(w, http.StatusUnprocessableEntity, ErrorDetail{
			Code: "validation_error", Message: "validation failed", Fields: vErr.Fields,
		})
	case errors.Is(err, domain.ErrValidation):
		writeDetail(w, http.StatusUnprocessableEntity, ErrorDetail{Code: "validation_error", Message: unwrapMessage(err)})
	case errors.Is(err, domain.ErrNotFound):
		writeDetail(w, http.StatusNotFound, ErrorDetail{Code: "not_found", Message: notFound})
	case errors.Is(err, domain.ErrProtected):
		writeDetail(w, http.StatusConflict, ErrorDetail{Code: "protected", Message: unwrapMessage(err)})
	case errors.Is(err, domain.ErrDuplicate):
		writeDetail(w, http.StatusConflict, ErrorDetail{Code: "duplicate", Message: unwrapMessage(err)})
	case errors.Is(err, domain.ErrInvalidState):
		writeDetail(w, http.StatusConflict, ErrorDetail{Code: "invalid_state", Message: unwrapMessage(err)})
	default:
		s.log.ErrorContext(r.Context(), "request failed", "method", r.Method, "path", r.URL.Path, "error", err)
		writeDetail(w, http.StatusInternalServerError, ErrorDetail{Code: "internal_error", Message: "internal server error"})
	}
}

// unwrapMessage strips the "pkg.Type.Method: " prefixes services add while
// wrapping, leaving the human-readable cause.
// e.g. "service.PurposeService.Delete: purpose 3 cannot be deleted: default purpose"
// → "purpose 3 cannot be deleted: default purpose"
func unwrapMessage(err error) string {
	if err == nil {
		return ""
	}
	msg := err.Error()
	for {
		head, rest, ok := strings.Cut(msg, ": ")
		if !ok || strings.Count(head, ".") < 2 || strings.Contains(head, " ") {
			return msg
		}
		msg = rest
	}
}

// decode reads a JSON body into v. It reports false after answering the
// request when the body is missing or malformed.
func decode(w http.ResponseWriter, r *http.Request, v any) bool {
	if r.Body == nil || r.Body == http.NoBody {
		requestError(w, "request body is required")
		return false
	}
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			writeDetail(w, http.StatusRequestEntityTooLarge, ErrorDetail{Code: "too_large", Message: "request body too large"})
			return false
		}
		requestError(w, "malformed JSON body: "+err.Error())
		return false
	}
	return true
}

// pathID parses the {id} URL parameter.
func pathID(w http.ResponseWriter, r *http.Request) (int64, bool) {
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil || id <= 0 {
		requestError(w, "id must be a positive integer")
		return 0, false
	}
	return id, true
}

// queryInt parses an optional integer query parameter. A missing parameter
// yields nil.
func queryInt(r *http.Request, key string) (*int, error) {
	raw := r.URL.Query().Get(key)
	if raw == "" {
		return nil, nil
	}
	v, err := strconv.Atoi(raw)
	if err != nil {
		return nil, errors.New(key + " must be an integer")
	}
	return &v, nil
}
