// Package mock provides in-memory implementations of the database interfaces for testing.
package mock

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/UjjwalAsati/Attendance-System/internal/database"
	"github.com/UjjwalAsati/Attendance-System/internal/geofence"
)

// MockEmployeeStore is a mock implementation of database.EmployeeWriter
type MockEmployeeStore struct {
	mu        sync.RWMutex
	employees []database.Employee

	// Error injection
	ListError   error
	GetError    error
	CountError  error
	CreateError error
}

// NewMockEmployeeStore creates a new mock employee store
func NewMockEmployeeStore() *MockEmployeeStore {
	return &MockEmployeeStore{}
}

// AddEmployee adds an employee directly, bypassing uniqueness checks
func (m *MockEmployeeStore) AddEmployee(emp database.Employee) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.employees = append(m.employees, emp)
}

func (m *MockEmployeeStore) ListEmployees(ctx context.Context) ([]database.Employee, error) {
	if m.ListError != nil {
		return nil, m.ListError
	}
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := make([]database.Employee, len(m.employees))
	copy(out, m.employees)
	return out, nil
}

func (m *MockEmployeeStore) GetEmployee(ctx context.Context, id string) (*database.Employee, error) {
	if m.GetError != nil {
		return nil, m.GetError
	}
	m.mu.RLock()
	defer m.mu.RUnlock()
	for i := range m.employees {
		if m.employees[i].ID == id {
			emp := m.employees[i]
			return &emp, nil
		}
	}
	return nil, nil
}

func (m *MockEmployeeStore) CountEmployees(ctx context.Context) (int, error) {
	if m.CountError != nil {
		return 0, m.CountError
	}
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.employees), nil
}

func (m *MockEmployeeStore) CreateEmployee(ctx context.Context, emp *database.Employee) error {
	if m.CreateError != nil {
		return m.CreateError
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, e := range m.employees {
		if e.NameKey == emp.NameKey {
			return database.ErrEmployeeExists
		}
	}
	m.employees = append(m.employees, *emp)
	return nil
}

// MockAttendanceStore is a mock implementation of database.AttendanceWriter.
// AppendRecord enforces the (employee, day, type) uniqueness a real store has.
type MockAttendanceStore struct {
	mu      sync.RWMutex
	records []database.AttendanceRecord

	// HideRecords makes FindRecords return nothing, as if another process
	// had written concurrently and the read was stale.
	HideRecords bool

	// Error injection
	FindError   error
	ListError   error
	AppendError error
}

// NewMockAttendanceStore creates a new mock attendance store
func NewMockAttendanceStore() *MockAttendanceStore {
	return &MockAttendanceStore{}
}

// AddRecord adds a record directly, bypassing uniqueness checks
func (m *MockAttendanceStore) AddRecord(rec database.AttendanceRecord) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.records = append(m.records, rec)
}

// Records returns a copy of all stored records
func (m *MockAttendanceStore) Records() []database.AttendanceRecord {
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := make([]database.AttendanceRecord, len(m.records))
	copy(out, m.records)
	return out
}

func inRange(t, from, to time.Time) bool {
	return !t.Before(from) && !t.After(to)
}

func sortByTimestamp(recs []database.AttendanceRecord) {
	sort.SliceStable(recs, func(i, j int) bool { return recs[i].Timestamp.Before(recs[j].Timestamp) })
}

func (m *MockAttendanceStore) FindRecords(ctx context.Context, employeeID string, from, to time.Time) ([]database.AttendanceRecord, error) {
	if m.FindError != nil {
		return nil, m.FindError
	}
	m.mu.RLock()
	defer m.mu.RUnlock()
	if m.HideRecords {
		return nil, nil
	}
	var out []database.AttendanceRecord
	for _, r := range m.records {
		if r.EmployeeID == employeeID && inRange(r.Timestamp, from, to) {
			out = append(out, r)
		}
	}
	sortByTimestamp(out)
	return out, nil
}

func (m *MockAttendanceStore) ListRecords(ctx context.Context, from, to time.Time) ([]database.AttendanceRecord, error) {
	if m.ListError != nil {
		return nil, m.ListError
	}
	m.mu.RLock()
	defer m.mu.RUnlock()
	var out []database.AttendanceRecord
	for _, r := range m.records {
		if inRange(r.Timestamp, from, to) {
			out = append(out, r)
		}
	}
	sortByTimestamp(out)
	return out, nil
}

func (m *MockAttendanceStore) AppendRecord(ctx context.Context, rec *database.AttendanceRecord) error {
	if m.AppendError != nil {
		return m.AppendError
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, r := range m.records {
		if r.EmployeeID == rec.EmployeeID && r.Day == rec.Day && r.Type == rec.Type {
			return database.ErrRecordExists
		}
	}
	m.records = append(m.records, *rec)
	return nil
}

// MockBackend bundles the mock stores as a database.Backend
type MockBackend struct {
	EmployeeStore   *MockEmployeeStore
	AttendanceStore *MockAttendanceStore

	PingError error

	mu     sync.Mutex
	closed bool
}

// NewMockBackend creates a backend with empty stores
func NewMockBackend() *MockBackend {
	return &MockBackend{
		EmployeeStore:   NewMockEmployeeStore(),
		AttendanceStore: NewMockAttendanceStore(),
	}
}

func (b *MockBackend) Employees() database.EmployeeWriter    { return b.EmployeeStore }
func (b *MockBackend) Attendance() database.AttendanceWriter { return b.AttendanceStore }

func (b *MockBackend) Ping(ctx context.Context) error { return b.PingError }

func (b *MockBackend) Close() error {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.closed = true
	return nil
}

// Closed reports whether Close was called
func (b *MockBackend) Closed() bool {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.closed
}

// MockDirectory maps tenant keys to mock backends and geofence policies.
type MockDirectory struct {
	mu       sync.RWMutex
	backends map[string]*MockBackend
	fences   map[string]geofence.Policy

	ResolveError error
}

// NewMockDirectory creates a directory with a single default-tenant backend
func NewMockDirectory() *MockDirectory {
	return &MockDirectory{
		backends: map[string]*MockBackend{"": NewMockBackend()},
		fences:   make(map[string]geofence.Policy),
	}
}

// Backend returns the backend of a tenant, creating it when missing
func (d *MockDirectory) Backend(tenant string) *MockBackend {
	d.mu.Lock()
	defer d.mu.Unlock()
	b, ok := d.backends[tenant]
	if !ok {
		b = NewMockBackend()
		d.backends[tenant] = b
	}
	return b
}

// SetGeoFence sets the geofence policy of a tenant
func (d *MockDirectory) SetGeoFence(tenant string, p geofence.Policy) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.fences[tenant] = p
}

func (d *MockDirectory) Resolve(ctx context.Context, tenant string) (database.Backend, error) {
	if d.ResolveError != nil {
		return nil, d.ResolveError
	}
	d.mu.RLock()
	defer d.mu.RUnlock()
	b, ok := d.backends[tenant]
	if !ok {
		return nil, fmt.Errorf("%w: %q", database.ErrUnknownTenant, tenant)
	}
	return b, nil
}

func (d *MockDirectory) GeoFence(tenant string) geofence.Policy {
	d.mu.RLock()
	defer d.mu.RUnlock()
	return d.fences[tenant]
}
