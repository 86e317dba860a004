package handlers

import (
	"bytes"
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/UjjwalAsati/Attendance-System/internal/attendance"
	"github.com/UjjwalAsati/Attendance-System/internal/database"
	"github.com/UjjwalAsati/Attendance-System/internal/report"
	"github.com/UjjwalAsati/Attendance-System/internal/web/middleware"
)

// AttendanceHandler handles submission and ledger endpoints
type AttendanceHandler struct {
	service *attendance.Service
}

// NewAttendanceHandler creates a new attendance handler
func NewAttendanceHandler(svc *attendance.Service) *AttendanceHandler {
	return &AttendanceHandler{service: svc}
}

// submitTime accepts an RFC 3339 string or epoch milliseconds
type submitTime struct {
	time.Time
}

func (t *submitTime) UnmarshalJSON(data []byte) error {
	if bytes.Equal(data, []byte("null")) {
		return nil
	}
	if len(data) > 0 && data[0] == '"' {
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return err
		}
		parsed, err := time.Parse(time.RFC3339Nano, s)
		if err != nil {
			return err
		}
		t.Time = parsed
		return nil
	}
	var ms int64
	if err := json.Unmarshal(data, &ms); err != nil {
		return errors.New("timestamp must be an RFC 3339 string or epoch milliseconds")
	}
	t.Time = time.UnixMilli(ms)
	return nil
}

type submitRequest struct {
	Descriptor []float32          `json:"descriptor"`
	Timestamp  submitTime         `json:"timestamp"`
	Type       string             `json:"type"`
	Location   *database.Location `json:"location"`
	// Legacy kiosks send the coordinates flat
	Latitude  *float64 `json:"latitude"`
	Longitude *float64 `json:"longitude"`
}

func (req *submitRequest) location() *database.Location {
	if req.Location != nil {
		return req.Location
	}
	if req.Latitude != nil && req.Longitude != nil {
		return &database.Location{Latitude: *req.Latitude, Longitude: *req.Longitude}
	}
	return nil
}

// SubmitResponse is the outcome of a submission
type SubmitResponse struct {
	Success           bool       `json:"success"`
	Reason            string     `json:"reason,omitempty"`
	Message           string     `json:"message"`
	EmployeeName      string     `json:"employeeName,omitempty"`
	Type              string     `json:"type,omitempty"`
	RecordedTimestamp *time.Time `json:"recordedTimestamp,omitempty"`
	Distance          *int       `json:"distance,omitempty"`
}

// Submit matches a descriptor and records a check-in or check-out. Policy
// rejections are 200 responses with success=false.
func (h *AttendanceHandler) Submit(w http.ResponseWriter, r *http.Request) {
	var req submitRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	out, err := h.service.Submit(r.Context(), attendance.Submission{
		Tenant:     middleware.TenantFromContext(r.Context()),
		Descriptor: req.Descriptor,
		Timestamp:  req.Timestamp.Time,
		Type:       req.Type,
		Location:   req.location(),
	})
	if err != nil {
		respondServiceError(w, r, err)
		return
	}

	resp := SubmitResponse{
		Success:  out.Success,
		Reason:   string(out.Reason),
		Message:  out.Message,
		Type:     string(out.Type),
		Distance: out.Distance,
	}
	if out.Success {
		resp.EmployeeName = out.EmployeeName
		ts := out.RecordedTimestamp
		resp.RecordedTimestamp = &ts
	}
	respondJSON(w, http.StatusOK, resp)
}

// RecordResponse is the public view of an attendance record
type RecordResponse struct {
	ID           string             `json:"id"`
	EmployeeID   string             `json:"employee_id"`
	EmployeeName string             `json:"employee_name"`
	Type         string             `json:"type"`
	Timestamp    time.Time          `json:"timestamp"`
	Day          string             `json:"day"`
	Location     *database.Location `json:"location,omitempty"`
}

// List returns raw records of the session's tenant within ?from&to,
// oldest first
func (h *AttendanceHandler) List(w http.ResponseWriter, r *http.Request) {
	from, to, ok := parseRange(r, h.service.OffsetMinutes())
	if !ok {
		respondError(w, http.StatusBadRequest, codeValidation, "from and to must be RFC 3339 instants or YYYY-MM-DD dates")
		return
	}

	records, err := h.service.ListAttendance(r.Context(), middleware.TenantFromContext(r.Context()), from, to)
	if err != nil {
		respondServiceError(w, r, err)
		return
	}

	out := make([]RecordResponse, 0, len(records))
	for _, rec := range records {
		out = append(out, RecordResponse{
			ID:           rec.ID,
			EmployeeID:   rec.EmployeeID,
			EmployeeName: rec.EmployeeName,
			Type:         string(rec.Type),
			Timestamp:    rec.Timestamp,
			Day:          rec.Day,
			Location:     rec.Location,
		})
	}
	respondJSON(w, http.StatusOK, out)
}

// Report returns the per-day summary of ?from&to. With absent=true every
// roster employee without a record is listed per day.
func (h *AttendanceHandler) Report(w http.ResponseWriter, r *http.Request) {
	offset := h.service.OffsetMinutes()
	from, to, ok := parseRange(r, offset)
	if !ok {
		respondError(w, http.StatusBadRequest, codeValidation, "from and to must be RFC 3339 instants or YYYY-MM-DD dates")
		return
	}
	tenant := middleware.TenantFromContext(r.Context())

	records, err := h.service.ListAttendance(r.Context(), tenant, from, to)
	if err != nil {
		respondServiceError(w, r, err)
		return
	}

	var roster []database.Employee
	if r.URL.Query().Get("absent") == "true" {
		roster, err = h.service.ListEmployees(r.Context(), tenant)
		if err != nil {
			respondServiceError(w, r, err)
			return
		}
	}

	respondJSON(w, http.StatusOK, report.Build(records, roster, offset))
}
