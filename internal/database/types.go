package database

import (
	"time"
)

// RecordType distinguishes the two attendance events of a day.
type RecordType string

const (
	RecordCheckIn  RecordType = "checkin"
	RecordCheckOut RecordType = "checkout"
)

// ParseRecordType converts a wire value into a RecordType.
func ParseRecordType(s string) (RecordType, bool) {
	switch RecordType(s) {
	case RecordCheckIn, RecordCheckOut:
		return RecordType(s), true
	}
	return "", false
}

// Label returns the human form used in messages ("Check-in", "Checkout").
func (t RecordType) Label() string {
	if t == RecordCheckIn {
		return "Check-in"
	}
	return "Checkout"
}

// Location is a WGS84 coordinate submitted by the client.
type Location struct {
	Latitude  float64 `json:"latitude"`
	Longitude float64 `json:"longitude"`
}

// Employee is an enrolled identity with its face descriptor.
type Employee struct {
	ID         string
	Tenant     string
	Name       string
	NameKey    string    // Normalized name, unique within the tenant
	Descriptor []float32 // Fixed-length face descriptor
	CreatedAt  time.Time
}

// AttendanceRecord is one append-only check-in or check-out event.
type AttendanceRecord struct {
	ID           string
	Tenant       string
	EmployeeID   string
	EmployeeName string
	Type         RecordType
	Timestamp    time.Time // Submitted instant, UTC
	Day          string    // Civil date (YYYY-MM-DD) the timestamp falls into
	Location     *Location
	CreatedAt    time.Time
}
