package handlers

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/UjjwalAsati/Attendance-System/internal/attendance"
	"github.com/UjjwalAsati/Attendance-System/internal/database"
)

// errInvalidRequestBody is a shared error message for invalid JSON request bodies.
const errInvalidRequestBody = "invalid request body"

// maxBodyBytes bounds request bodies; a 128-value descriptor is ~3KB of JSON.
const maxBodyBytes = 1 << 20

// Error codes carried in the "code" field of error responses.
const (
	codeBadRequest    = "bad_request"
	codeValidation    = "validation_error"
	codeConflict      = "conflict"
	codeUnauthorized  = "unauthorized"
	codeUnknownTenant = "unknown_tenant"
	codeUnavailable   = "store_unavailable"
	codeInternal      = "internal_error"
)

// sanitizeForLog removes newlines and carriage returns to prevent log injection.
func sanitizeForLog(s string) string {
	return strings.NewReplacer("\n", "", "\r", "").Replace(s)
}

// respondJSON sends a JSON response.
func respondJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if data != nil {
		json.NewEncoder(w).Encode(data)
	}
}

// ErrorResponse is the body of every error response.
type ErrorResponse struct {
	Error string `json:"error"`
	Code  string `json:"code"`
}

// respondError sends an error response.
func respondError(w http.ResponseWriter, status int, code, message string) {
	respondJSON(w, status, ErrorResponse{Error: message, Code: code})
}

// respondServiceError maps a service error to a status code by its kind.
// Infrastructure details are logged, not returned.
func respondServiceError(w http.ResponseWriter, r *http.Request, err error) {
	switch attendance.KindOf(err) {
	case attendance.KindValidation:
		if errors.Is(err, attendance.ErrDuplicateEmployee) {
			respondError(w, http.StatusConflict, codeConflict, err.Error())
			return
		}
		respondError(w, http.StatusBadRequest, codeValidation, err.Error())
	case attendance.KindPolicy:
		respondError(w, http.StatusConflict, codeConflict, err.Error())
	default:
		slog.Error("request failed",
			slog.String("method", r.Method),
			slog.String("path", r.URL.Path),
			slog.String("error", err.Error()),
		)
		switch {
		case errors.Is(err, database.ErrUnknownTenant):
			respondError(w, http.StatusInternalServerError, codeUnknownTenant, "unknown tenant")
		case errors.Is(err, attendance.ErrStoreUnavailable):
			respondError(w, http.StatusServiceUnavailable, codeUnavailable, "storage is unavailable, retry later")
		default:
			respondError(w, http.StatusInternalServerError, codeInternal, "internal error")
		}
	}
}

// decodeJSON decodes a bounded request body into dst.
func decodeJSON(w http.ResponseWriter, r *http.Request, dst any) bool {
	r.Body = http.MaxBytesReader(w, r.Body, maxBodyBytes)
	if err := json.NewDecoder(r.Body).Decode(dst); err != nil {
		respondError(w, http.StatusBadRequest, codeBadRequest, errInvalidRequestBody)
		return false
	}
	return true
}

// parseRange reads the from/to query parameters. Each accepts an RFC 3339
// instant or a civil date; a date in "to" means the end of that day.
func parseRange(r *http.Request, offsetMinutes int) (from, to time.Time, ok bool) {
	q := r.URL.Query()
	from, okFrom := parseBound(q.Get("from"), offsetMinutes, false)
	to, okTo := parseBound(q.Get("to"), offsetMinutes, true)
	return from, to, okFrom && okTo
}

func parseBound(s string, offsetMinutes int, end bool) (time.Time, bool) {
	if s == "" {
		return time.Time{}, false
	}
	if t, err := time.Parse(time.RFC3339Nano, s); err == nil {
		return t.UTC(), true
	}
	win, err := attendance.DayBounds(s, offsetMinutes)
	if err != nil {
		return time.Time{}, false
	}
	if end {
		return win.End, true
	}
	return win.Start, true
}

// HealthCheck handles the health check endpoint.
func HealthCheck(w http.ResponseWriter, r *http.Request) {
	respondJSON(w, http.StatusOK, map[string]string{
		"status": "ok",
	})
}
