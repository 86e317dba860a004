package database

import (
	"context"
	"errors"
	"time"
)

var (
	// ErrEmployeeExists is returned when an enrollment collides with an
	// existing employee name of the same tenant.
	ErrEmployeeExists = errors.New("employee already exists")

	// ErrRecordExists is returned when an attendance record of the same type
	// already exists for the employee and civil day.
	ErrRecordExists = errors.New("attendance record already exists")

	// ErrUnknownTenant is returned when a tenant key has no configured backend.
	ErrUnknownTenant = errors.New("unknown tenant")
)

// EmployeeReader provides read-only access to the roster
type EmployeeReader interface {
	// ListEmployees returns the roster in enrollment order
	ListEmployees(ctx context.Context) ([]Employee, error)
	// GetEmployee retrieves an employee by ID, returns nil if not found
	GetEmployee(ctx context.Context, id string) (*Employee, error)
	// CountEmployees returns the roster size
	CountEmployees(ctx context.Context) (int, error)
}

// EmployeeWriter provides write access to the roster
type EmployeeWriter interface {
	EmployeeReader

	// CreateEmployee stores a new employee. Returns ErrEmployeeExists when the
	// name key is already taken.
	CreateEmployee(ctx context.Context, emp *Employee) error
}

// AttendanceReader provides read-only access to the attendance ledger
type AttendanceReader interface {
	// FindRecords returns the employee's records with from <= timestamp <= to, oldest first
	FindRecords(ctx context.Context, employeeID string, from, to time.Time) ([]AttendanceRecord, error)
	// ListRecords returns all records with from <= timestamp <= to, oldest first
	ListRecords(ctx context.Context, from, to time.Time) ([]AttendanceRecord, error)
}

// AttendanceWriter provides append access to the attendance ledger
type AttendanceWriter interface {
	AttendanceReader

	// AppendRecord stores a new record. The store enforces uniqueness of
	// (employee, day, type) and returns ErrRecordExists on a collision.
	AppendRecord(ctx context.Context, rec *AttendanceRecord) error
}

// Backend is one tenant's isolated roster and ledger store
type Backend interface {
	Employees() EmployeeWriter
	Attendance() AttendanceWriter
	// Ping verifies the backend is reachable
	Ping(ctx context.Context) error
	Close() error
}
