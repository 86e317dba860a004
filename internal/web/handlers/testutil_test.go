package handlers

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/UjjwalAsati/Attendance-System/internal/attendance"
	"github.com/UjjwalAsati/Attendance-System/internal/config"
	"github.com/UjjwalAsati/Attendance-System/internal/database"
	"github.com/UjjwalAsati/Attendance-System/internal/database/mock"
	"github.com/UjjwalAsati/Attendance-System/internal/facematch"
	"github.com/UjjwalAsati/Attendance-System/internal/web/middleware"
)

// testDim keeps descriptors short in handler tests
const testDim = 4

// testConfig creates a minimal config for testing
func testConfig() *config.Config {
	return &config.Config{
		Matching: config.MatchingConfig{Threshold: 0.5, DescriptorDim: testDim, Strategy: "first"},
		Calendar: config.CalendarConfig{OffsetMinutes: 330},
	}
}

// testService creates a service over an in-memory directory
func testService(t *testing.T) (*attendance.Service, *mock.MockDirectory) {
	t.Helper()
	dir := mock.NewMockDirectory()
	svc := attendance.NewService(dir, facematch.NewFirstMatcher(0.5), attendance.Options{
		DescriptorDim: testDim,
		OffsetMinutes: 330,
	})
	return svc, dir
}

// addEmployee puts an employee straight into a tenant's mock roster
func addEmployee(dir *mock.MockDirectory, tenant, id, name string, desc []float32) {
	dir.Backend(tenant).EmployeeStore.AddEmployee(database.Employee{
		ID:         id,
		Tenant:     tenant,
		Name:       name,
		NameKey:    facematch.NormalizeEmployeeName(name),
		Descriptor: desc,
		CreatedAt:  time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC),
	})
}

// jsonRequest builds a request with a JSON body
func jsonRequest(t *testing.T, method, path string, body any) *http.Request {
	t.Helper()
	var buf bytes.Buffer
	if s, ok := body.(string); ok {
		buf.WriteString(s)
	} else if err := json.NewEncoder(&buf).Encode(body); err != nil {
		t.Fatalf("encoding request body: %v", err)
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	return req
}

// withTenant puts a tenant key in the request context
func withTenant(r *http.Request, tenant string) *http.Request {
	return r.WithContext(middleware.SetTenantInContext(r.Context(), tenant))
}

// parseJSONResponse parses a JSON response body into the target type
func parseJSONResponse(t *testing.T, recorder *httptest.ResponseRecorder, target any) {
	t.Helper()
	if err := json.Unmarshal(recorder.Body.Bytes(), target); err != nil {
		t.Fatalf("failed to parse JSON response: %v\nBody: %s", err, recorder.Body.String())
	}
}

// assertStatusCode checks if the response has the expected status code
func assertStatusCode(t *testing.T, recorder *httptest.ResponseRecorder, expected int) {
	t.Helper()
	if recorder.Code != expected {
		t.Errorf("expected status %d, got %d\nBody: %s", expected, recorder.Code, recorder.Body.String())
	}
}

// assertContentType checks if the response has the expected content type
func assertContentType(t *testing.T, recorder *httptest.ResponseRecorder, expected string) {
	t.Helper()
	ct := recorder.Header().Get("Content-Type")
	if ct != expected {
		t.Errorf("expected Content-Type '%s', got '%s'", expected, ct)
	}
}

// assertJSONError checks if the response is a JSON error with the expected code
func assertJSONError(t *testing.T, recorder *httptest.ResponseRecorder, expectedCode string) {
	t.Helper()
	var result ErrorResponse
	if err := json.Unmarshal(recorder.Body.Bytes(), &result); err != nil {
		t.Fatalf("failed to parse error response: %v\nBody: %s", err, recorder.Body.String())
	}
	if result.Code != expectedCode {
		t.Errorf("expected error code '%s', got '%s' (%s)", expectedCode, result.Code, result.Error)
	}
}
