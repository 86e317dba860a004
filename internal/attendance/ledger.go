package attendance

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/UjjwalAsati/Attendance-System/internal/database"
)

// State of one employee on one civil day.
type State int

const (
	StateNoRecord State = iota
	StateCheckedIn
	StateCheckedOut
)

func (s State) String() string {
	switch s {
	case StateCheckedIn:
		return "checked-in"
	case StateCheckedOut:
		return "checked-out"
	default:
		return "no-record"
	}
}

// DeriveState computes the day state from the records of that day.
func DeriveState(records []database.AttendanceRecord) State {
	state := StateNoRecord
	for _, r := range records {
		switch r.Type {
		case database.RecordCheckOut:
			return StateCheckedOut
		case database.RecordCheckIn:
			state = StateCheckedIn
		}
	}
	return state
}

// Transition validates moving from state by an event of type typ.
func Transition(state State, typ database.RecordType) error {
	switch typ {
	case database.RecordCheckIn:
		if state != StateNoRecord {
			return ErrDuplicateCheckIn
		}
	case database.RecordCheckOut:
		switch state {
		case StateNoRecord:
			return ErrCheckoutWithoutCheckin
		case StateCheckedOut:
			return ErrDuplicateCheckOut
		}
	default:
		return ErrInvalidType
	}
	return nil
}

// duplicateErr is the rejection for a record the store already holds.
func duplicateErr(typ database.RecordType) error {
	if typ == database.RecordCheckOut {
		return ErrDuplicateCheckOut
	}
	return ErrDuplicateCheckIn
}

// Ledger applies check-in/check-out events. It keeps no state of its own:
// the day state is read from the store on every event.
type Ledger struct {
	offsetMinutes int
	locks         *keyLock
}

// NewLedger returns a Ledger computing civil days at the given UTC offset.
func NewLedger(offsetMinutes int) *Ledger {
	return &Ledger{offsetMinutes: offsetMinutes, locks: newKeyLock()}
}

// Entry is one event to apply to the ledger.
type Entry struct {
	Tenant    string
	Employee  *database.Employee
	Type      database.RecordType
	Timestamp time.Time
	Location  *database.Location
}

// Record applies e and returns the appended record. Rejections are returned
// as ErrDuplicateCheckIn, ErrDuplicateCheckOut or ErrCheckoutWithoutCheckin
// and leave the store untouched.
//
// The read-decide-write sequence is serialized per employee inside the
// process; across processes the store's unique (employee, day, type)
// constraint turns a lost race into a duplicate rejection.
func (l *Ledger) Record(ctx context.Context, store database.AttendanceWriter, e Entry) (*database.AttendanceRecord, error) {
	unlock := l.locks.Lock(e.Tenant + "\x00" + e.Employee.ID)
	defer unlock()

	window := Bounds(e.Timestamp, l.offsetMinutes)
	existing, err := store.FindRecords(ctx, e.Employee.ID, window.Start, window.End)
	if err != nil {
		return nil, fmt.Errorf("%w: finding records: %w", ErrStoreUnavailable, err)
	}
	if err := Transition(DeriveState(existing), e.Type); err != nil {
		return nil, err
	}

	rec := &database.AttendanceRecord{
		ID:           uuid.NewString(),
		Tenant:       e.Tenant,
		EmployeeID:   e.Employee.ID,
		EmployeeName: e.Employee.Name,
		Type:         e.Type,
		Timestamp:    e.Timestamp.UTC(),
		Day:          window.Day,
		Location:     e.Location,
	}
	if err := store.AppendRecord(ctx, rec); err != nil {
		if errors.Is(err, database.ErrRecordExists) {
			return nil, duplicateErr(e.Type)
		}
		return nil, fmt.Errorf("%w: appending record: %w", ErrStoreUnavailable, err)
	}
	return rec, nil
}

// StateOf returns the current day state of an employee at instant t.
func (l *Ledger) StateOf(ctx context.Context, store database.AttendanceReader, employeeID string, t time.Time) (State, error) {
	window := Bounds(t, l.offsetMinutes)
	existing, err := store.FindRecords(ctx, employeeID, window.Start, window.End)
	if err != nil {
		return StateNoRecord, fmt.Errorf("%w: finding records: %w", ErrStoreUnavailable, err)
	}
	return DeriveState(existing), nil
}
