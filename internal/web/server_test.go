package web

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"golang.org/x/crypto/bcrypt"

	"github.com/UjjwalAsati/Attendance-System/internal/attendance"
	"github.com/UjjwalAsati/Attendance-System/internal/config"
	"github.com/UjjwalAsati/Attendance-System/internal/database/mock"
	"github.com/UjjwalAsati/Attendance-System/internal/facematch"
	"github.com/UjjwalAsati/Attendance-System/internal/metrics"
)

type testServer struct {
	srv *Server
	dir *mock.MockDirectory
}

func newTestServer(t *testing.T, submitPerMinute int) *testServer {
	t.Helper()
	hash, err := bcrypt.GenerateFromPassword([]byte("secret"), bcrypt.MinCost)
	if err != nil {
		t.Fatal(err)
	}
	jmHash, err := bcrypt.GenerateFromPassword([]byte("jm-secret"), bcrypt.MinCost)
	if err != nil {
		t.Fatal(err)
	}
	cfg := &config.Config{
		Matching: config.MatchingConfig{Threshold: 0.5, DescriptorDim: 4, Strategy: "first"},
		Calendar: config.CalendarConfig{OffsetMinutes: 330},
		Auth:     config.AuthConfig{Email: "dealer@example.com", PasswordHash: string(hash), SessionSecret: "s3cret"},
		Web:      config.WebConfig{Host: "127.0.0.1", Port: 0, SubmitRatePerMinute: submitPerMinute},
		Tenants: []config.TenantConfig{
			{Key: "jm", Driver: config.DriverPostgres, DSN: "x", Email: "jm@example.com", PasswordHash: string(jmHash)},
		},
	}

	dir := mock.NewMockDirectory()
	dir.Backend("jm")
	reg := prometheus.NewRegistry()
	svc := attendance.NewService(dir, facematch.NewFirstMatcher(0.5), attendance.Options{
		DescriptorDim: 4,
		OffsetMinutes: 330,
		Recorder:      metrics.NewCollector(reg),
	})

	srv := NewServer(cfg, svc, nil, reg)
	t.Cleanup(func() {
		srv.sessionManager.Stop()
		srv.submitLimiter.Stop()
	})
	return &testServer{srv: srv, dir: dir}
}

func (ts *testServer) do(t *testing.T, method, path, token string, body any, header map[string]string) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		if err := json.NewEncoder(&buf).Encode(body); err != nil {
			t.Fatal(err)
		}
	}
	req := httptest.NewRequest(method, path, &buf)
	req.RemoteAddr = "192.0.2.10:4321"
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	for k, v := range header {
		req.Header.Set(k, v)
	}
	w := httptest.NewRecorder()
	ts.srv.Router().ServeHTTP(w, req)
	return w
}

func (ts *testServer) login(t *testing.T, email, password string) string {
	t.Helper()
	w := ts.do(t, "POST", "/api/v1/auth/login", "", map[string]string{"email": email, "password": password}, nil)
	if w.Code != http.StatusOK {
		t.Fatalf("login: status %d: %s", w.Code, w.Body.String())
	}
	var resp struct {
		SessionID string `json:"session_id"`
	}
	if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
		t.Fatal(err)
	}
	return resp.SessionID
}

func TestServer_Health(t *testing.T) {
	ts := newTestServer(t, 60)

	w := ts.do(t, "GET", "/api/v1/health", "", nil, nil)

	if w.Code != http.StatusOK {
		t.Errorf("Status = %d, want 200", w.Code)
	}
	if w.Header().Get("X-Content-Type-Options") != "nosniff" {
		t.Error("expected security headers on every response")
	}
}

func TestServer_ProtectedRoutesRequireSession(t *testing.T) {
	ts := newTestServer(t, 60)

	for _, path := range []string{
		"/api/v1/employees",
		"/api/v1/attendance?from=2024-03-11&to=2024-03-11",
		"/api/v1/attendance/report?from=2024-03-11&to=2024-03-11",
		"/api/v1/config",
	} {
		if w := ts.do(t, "GET", path, "", nil, nil); w.Code != http.StatusUnauthorized {
			t.Errorf("GET %s: Status = %d, want 401", path, w.Code)
		}
	}
	if w := ts.do(t, "POST", "/api/v1/employees", "", map[string]any{"name": "x"}, nil); w.Code != http.StatusUnauthorized {
		t.Errorf("POST /employees: Status = %d, want 401", w.Code)
	}
}

func TestServer_EnrollSubmitList(t *testing.T) {
	ts := newTestServer(t, 60)
	token := ts.login(t, "jm@example.com", "jm-secret")
	desc := []float32{0.1, 0.2, 0.3, 0.4}

	w := ts.do(t, "POST", "/api/v1/employees", token, map[string]any{"name": "Asha", "descriptor": desc}, nil)
	if w.Code != http.StatusCreated {
		t.Fatalf("enroll: Status = %d: %s", w.Code, w.Body.String())
	}
	if n, _ := ts.dir.Backend("jm").EmployeeStore.CountEmployees(t.Context()); n != 1 {
		t.Fatalf("expected the session's tenant to hold the employee, got %d", n)
	}

	// The kiosk addresses the tenant by header
	w = ts.do(t, "POST", "/api/v1/attendance", "", map[string]any{
		"descriptor": desc, "timestamp": "2024-03-11T03:30:00Z", "type": "checkin",
	}, map[string]string{"X-Tenant": "jm"})
	if w.Code != http.StatusOK || !strings.Contains(w.Body.String(), `"success":true`) {
		t.Fatalf("submit: Status = %d: %s", w.Code, w.Body.String())
	}

	w = ts.do(t, "GET", "/api/v1/attendance?from=2024-03-11&to=2024-03-11", token, nil, nil)
	if w.Code != http.StatusOK {
		t.Fatalf("list: Status = %d: %s", w.Code, w.Body.String())
	}
	var records []map[string]any
	if err := json.Unmarshal(w.Body.Bytes(), &records); err != nil {
		t.Fatal(err)
	}
	if len(records) != 1 || records[0]["employee_name"] != "Asha" {
		t.Errorf("unexpected records %v", records)
	}

	// The default tenant's dealer sees none of it
	other := ts.login(t, "dealer@example.com", "secret")
	w = ts.do(t, "GET", "/api/v1/attendance?from=2024-03-11&to=2024-03-11", other, nil, nil)
	if strings.TrimSpace(w.Body.String()) != "[]" {
		t.Errorf("expected empty list for default tenant, got %s", w.Body.String())
	}
}

func TestServer_SessionCannotCrossTenants(t *testing.T) {
	ts := newTestServer(t, 60)
	token := ts.login(t, "dealer@example.com", "secret")

	w := ts.do(t, "GET", "/api/v1/employees", token, nil, map[string]string{"X-Tenant": "jm"})

	if w.Code != http.StatusForbidden {
		t.Errorf("Status = %d, want 403", w.Code)
	}
}

func TestServer_SubmitRateLimited(t *testing.T) {
	ts := newTestServer(t, 2)
	body := map[string]any{"descriptor": []float32{9, 9, 9, 9}, "type": "checkin"}

	for i := range 2 {
		if w := ts.do(t, "POST", "/api/v1/attendance", "", body, nil); w.Code != http.StatusOK {
			t.Fatalf("request %d: Status = %d: %s", i, w.Code, w.Body.String())
		}
	}
	if w := ts.do(t, "POST", "/api/v1/attendance", "", body, nil); w.Code != http.StatusTooManyRequests {
		t.Errorf("Status = %d, want 429", w.Code)
	}
}

func TestServer_Metrics(t *testing.T) {
	ts := newTestServer(t, 60)
	ts.do(t, "POST", "/api/v1/attendance", "", map[string]any{"descriptor": []float32{9, 9, 9, 9}, "type": "checkin"}, nil)

	w := ts.do(t, "GET", "/metrics", "", nil, nil)

	if w.Code != http.StatusOK {
		t.Fatalf("Status = %d, want 200", w.Code)
	}
	if !strings.Contains(w.Body.String(), `attendance_submissions_total{outcome="not recognized"} 1`) {
		t.Errorf("expected submission counter in metrics output:\n%s", w.Body.String())
	}
}
