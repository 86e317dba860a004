package handlers

import (
	"net/http"
	"time"

	"github.com/UjjwalAsati/Attendance-System/internal/attendance"
	"github.com/UjjwalAsati/Attendance-System/internal/database"
	"github.com/UjjwalAsati/Attendance-System/internal/web/middleware"
)

// EmployeesHandler handles roster endpoints
type EmployeesHandler struct {
	service *attendance.Service
}

// NewEmployeesHandler creates a new employees handler
func NewEmployeesHandler(svc *attendance.Service) *EmployeesHandler {
	return &EmployeesHandler{service: svc}
}

// EmployeeResponse is the public view of an employee. Descriptors are not
// returned.
type EmployeeResponse struct {
	ID        string    `json:"id"`
	Name      string    `json:"name"`
	CreatedAt time.Time `json:"created_at"`
}

func toEmployeeResponse(e database.Employee) EmployeeResponse {
	return EmployeeResponse{ID: e.ID, Name: e.Name, CreatedAt: e.CreatedAt}
}

type enrollRequest struct {
	Name       string    `json:"name"`
	Descriptor []float32 `json:"descriptor"`
	// Legacy kiosk field name
	FaceDescriptor []float32 `json:"faceDescriptor"`
}

// Create enrolls a new employee in the session's tenant
func (h *EmployeesHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req enrollRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	desc := req.Descriptor
	if len(desc) == 0 {
		desc = req.FaceDescriptor
	}

	emp, err := h.service.Enroll(r.Context(), attendance.EnrollRequest{
		Tenant:     middleware.TenantFromContext(r.Context()),
		Name:       req.Name,
		Descriptor: desc,
	})
	if err != nil {
		respondServiceError(w, r, err)
		return
	}

	respondJSON(w, http.StatusCreated, map[string]any{
		"success":  true,
		"message":  "Face registered successfully",
		"employee": toEmployeeResponse(*emp),
	})
}

// List returns the roster of the session's tenant in enrollment order
func (h *EmployeesHandler) List(w http.ResponseWriter, r *http.Request) {
	employees, err := h.service.ListEmployees(r.Context(), middleware.TenantFromContext(r.Context()))
	if err != nil {
		respondServiceError(w, r, err)
		return
	}

	out := make([]EmployeeResponse, 0, len(employees))
	for _, e := range employees {
		out = append(out, toEmployeeResponse(e))
	}
	respondJSON(w, http.StatusOK, out)
}
