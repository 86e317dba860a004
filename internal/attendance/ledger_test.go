package attendance

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/UjjwalAsati/Attendance-System/internal/database"
	"github.com/UjjwalAsati/Attendance-System/internal/database/mock"
)

func TestTransition(t *testing.T) {
	tests := []struct {
		name  string
		state State
		typ   database.RecordType
		want  error
	}{
		{"checkin from none", StateNoRecord, database.RecordCheckIn, nil},
		{"checkin twice", StateCheckedIn, database.RecordCheckIn, ErrDuplicateCheckIn},
		{"checkin after checkout", StateCheckedOut, database.RecordCheckIn, ErrDuplicateCheckIn},
		{"checkout without checkin", StateNoRecord, database.RecordCheckOut, ErrCheckoutWithoutCheckin},
		{"checkout after checkin", StateCheckedIn, database.RecordCheckOut, nil},
		{"checkout twice", StateCheckedOut, database.RecordCheckOut, ErrDuplicateCheckOut},
		{"unknown type", StateNoRecord, database.RecordType("lunch"), ErrInvalidType},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if err := Transition(tt.state, tt.typ); !errors.Is(err, tt.want) {
				t.Errorf("Transition(%v, %s) = %v, want %v", tt.state, tt.typ, err, tt.want)
			}
		})
	}
}

func TestDeriveState(t *testing.T) {
	in := database.AttendanceRecord{Type: database.RecordCheckIn}
	out := database.AttendanceRecord{Type: database.RecordCheckOut}

	if s := DeriveState(nil); s != StateNoRecord {
		t.Errorf("expected no-record, got %v", s)
	}
	if s := DeriveState([]database.AttendanceRecord{in}); s != StateCheckedIn {
		t.Errorf("expected checked-in, got %v", s)
	}
	if s := DeriveState([]database.AttendanceRecord{in, out}); s != StateCheckedOut {
		t.Errorf("expected checked-out, got %v", s)
	}
}

func asha() *database.Employee {
	return &database.Employee{ID: "emp-asha", Name: "Asha"}
}

func TestLedger_CheckInOnce(t *testing.T) {
	ctx := context.Background()
	store := mock.NewMockAttendanceStore()
	l := NewLedger(330)

	nine := mustParse(t, "2024-03-11T03:30:00Z") // 09:00 civil
	rec, err := l.Record(ctx, store, Entry{Employee: asha(), Type: database.RecordCheckIn, Timestamp: nine})
	if err != nil {
		t.Fatalf("first check-in error = %v", err)
	}
	if !rec.Timestamp.Equal(nine) || rec.Day != "2024-03-11" {
		t.Errorf("unexpected record %+v", rec)
	}

	_, err = l.Record(ctx, store, Entry{Employee: asha(), Type: database.RecordCheckIn, Timestamp: nine.Add(5 * time.Minute)})
	if !errors.Is(err, ErrDuplicateCheckIn) {
		t.Fatalf("expected ErrDuplicateCheckIn, got %v", err)
	}
	if n := len(store.Records()); n != 1 {
		t.Errorf("expected exactly one record, got %d", n)
	}
}

func TestLedger_CheckoutWithoutCheckin(t *testing.T) {
	store := mock.NewMockAttendanceStore()
	l := NewLedger(330)

	_, err := l.Record(context.Background(), store, Entry{
		Employee:  asha(),
		Type:      database.RecordCheckOut,
		Timestamp: mustParse(t, "2024-03-11T12:00:00Z"),
	})
	if !errors.Is(err, ErrCheckoutWithoutCheckin) {
		t.Fatalf("expected ErrCheckoutWithoutCheckin, got %v", err)
	}
	if n := len(store.Records()); n != 0 {
		t.Errorf("expected no records, got %d", n)
	}
}

func TestLedger_FullDay(t *testing.T) {
	ctx := context.Background()
	store := mock.NewMockAttendanceStore()
	l := NewLedger(330)
	day := mustParse(t, "2024-03-11T03:30:00Z")

	steps := []struct {
		typ  database.RecordType
		at   time.Duration
		want error
	}{
		{database.RecordCheckIn, 0, nil},
		{database.RecordCheckOut, 8 * time.Hour, nil},
		{database.RecordCheckOut, 9 * time.Hour, ErrDuplicateCheckOut},
		{database.RecordCheckIn, 10 * time.Hour, ErrDuplicateCheckIn},
	}
	for i, s := range steps {
		_, err := l.Record(ctx, store, Entry{Employee: asha(), Type: s.typ, Timestamp: day.Add(s.at)})
		if !errors.Is(err, s.want) {
			t.Fatalf("step %d: got %v, want %v", i, err, s.want)
		}
	}

	state, err := l.StateOf(ctx, store, "emp-asha", day)
	if err != nil || state != StateCheckedOut {
		t.Errorf("expected checked-out state, got %v, %v", state, err)
	}

	// Next civil day starts over.
	next := day.Add(24 * time.Hour)
	if _, err := l.Record(ctx, store, Entry{Employee: asha(), Type: database.RecordCheckIn, Timestamp: next}); err != nil {
		t.Errorf("check-in on next day error = %v", err)
	}
}

func TestLedger_DayBoundary(t *testing.T) {
	ctx := context.Background()
	store := mock.NewMockAttendanceStore()
	l := NewLedger(330)

	lastMs := mustParse(t, "2024-03-10T18:29:59.999Z")
	if _, err := l.Record(ctx, store, Entry{Employee: asha(), Type: database.RecordCheckIn, Timestamp: lastMs}); err != nil {
		t.Fatalf("check-in error = %v", err)
	}
	// One millisecond later is a new civil day, so check-in is allowed again
	// and checkout has nothing to close.
	midnight := lastMs.Add(time.Millisecond)
	if _, err := l.Record(ctx, store, Entry{Employee: asha(), Type: database.RecordCheckOut, Timestamp: midnight}); !errors.Is(err, ErrCheckoutWithoutCheckin) {
		t.Errorf("expected ErrCheckoutWithoutCheckin across midnight, got %v", err)
	}
	if _, err := l.Record(ctx, store, Entry{Employee: asha(), Type: database.RecordCheckIn, Timestamp: midnight}); err != nil {
		t.Errorf("check-in after civil midnight error = %v", err)
	}
}

func TestLedger_ConcurrentCheckIns(t *testing.T) {
	ctx := context.Background()
	store := mock.NewMockAttendanceStore()
	l := NewLedger(330)
	ts := mustParse(t, "2024-03-11T03:30:00Z")

	const workers = 16
	var (
		wg         sync.WaitGroup
		mu         sync.Mutex
		successes  int
		duplicates int
	)
	for i := range workers {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := l.Record(ctx, store, Entry{
				Employee:  asha(),
				Type:      database.RecordCheckIn,
				Timestamp: ts.Add(time.Duration(i) * time.Second),
			})
			mu.Lock()
			defer mu.Unlock()
			switch {
			case err == nil:
				successes++
			case errors.Is(err, ErrDuplicateCheckIn):
				duplicates++
			default:
				t.Errorf("unexpected error %v", err)
			}
		}()
	}
	wg.Wait()

	if successes != 1 || duplicates != workers-1 {
		t.Errorf("expected 1 success and %d duplicates, got %d and %d", workers-1, successes, duplicates)
	}
	if n := len(store.Records()); n != 1 {
		t.Errorf("expected 1 record, got %d", n)
	}
	if n := l.locks.size(); n != 0 {
		t.Errorf("expected lock table to be empty, got %d entries", n)
	}
}

func TestLedger_StoreConstraintMapsToDuplicate(t *testing.T) {
	ctx := context.Background()
	store := mock.NewMockAttendanceStore()
	l := NewLedger(330)
	ts := mustParse(t, "2024-03-11T03:30:00Z")

	if _, err := l.Record(ctx, store, Entry{Employee: asha(), Type: database.RecordCheckIn, Timestamp: ts}); err != nil {
		t.Fatalf("check-in error = %v", err)
	}
	if _, err := l.Record(ctx, store, Entry{Employee: asha(), Type: database.RecordCheckOut, Timestamp: ts.Add(time.Hour)}); err != nil {
		t.Fatalf("checkout error = %v", err)
	}

	// Another process wrote the records; this one reads stale state.
	store.HideRecords = true

	_, err := l.Record(ctx, store, Entry{Employee: asha(), Type: database.RecordCheckIn, Timestamp: ts.Add(2 * time.Hour)})
	if !errors.Is(err, ErrDuplicateCheckIn) {
		t.Errorf("expected ErrDuplicateCheckIn from store constraint, got %v", err)
	}
	store.HideRecords = false

	if n := len(store.Records()); n != 2 {
		t.Errorf("expected 2 records, got %d", n)
	}
}

func TestLedger_StoreErrors(t *testing.T) {
	ctx := context.Background()
	ts := mustParse(t, "2024-03-11T03:30:00Z")
	l := NewLedger(330)

	findFails := mock.NewMockAttendanceStore()
	findFails.FindError = errors.New("connection refused")
	_, err := l.Record(ctx, findFails, Entry{Employee: asha(), Type: database.RecordCheckIn, Timestamp: ts})
	if !errors.Is(err, ErrStoreUnavailable) || KindOf(err) != KindInfrastructure {
		t.Errorf("expected infrastructure error, got %v", err)
	}

	appendFails := mock.NewMockAttendanceStore()
	appendFails.AppendError = errors.New("disk full")
	_, err = l.Record(ctx, appendFails, Entry{Employee: asha(), Type: database.RecordCheckIn, Timestamp: ts})
	if !errors.Is(err, ErrStoreUnavailable) {
		t.Errorf("expected ErrStoreUnavailable, got %v", err)
	}
}

func TestKeyLock_SerializesSameKey(t *testing.T) {
	k := newKeyLock()
	unlock := k.Lock("a")

	acquired := make(chan struct{})
	released := make(chan struct{})
	go func() {
		u := k.Lock("a")
		close(acquired)
		u()
		close(released)
	}()

	// A different key is not blocked.
	k.Lock("b")()

	select {
	case <-acquired:
		t.Fatal("second lock on the same key acquired while held")
	case <-time.After(20 * time.Millisecond):
	}

	unlock()
	select {
	case <-acquired:
	case <-time.After(time.Second):
		t.Fatal("second lock never acquired")
	}
	<-released
	if n := k.size(); n != 0 {
		t.Errorf("expected empty lock table, got %d", n)
	}
}

func TestKindOf(t *testing.T) {
	tests := []struct {
		err  error
		want Kind
	}{
		{ErrMissingField, KindValidation},
		{ErrInvalidType, KindValidation},
		{ErrDuplicateEmployee, KindValidation},
		{ErrDuplicateCheckIn, KindPolicy},
		{ErrDuplicateCheckOut, KindPolicy},
		{ErrCheckoutWithoutCheckin, KindPolicy},
		{ErrStoreUnavailable, KindInfrastructure},
		{errors.New("boom"), KindInfrastructure},
	}
	for _, tt := range tests {
		if got := KindOf(tt.err); got != tt.want {
			t.Errorf("KindOf(%v) = %v, want %v", tt.err, got, tt.want)
		}
	}
}
