//go:build integration

package postgres

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/wait"

	"github.com/UjjwalAsati/Attendance-System/internal/attendance"
	"github.com/UjjwalAsati/Attendance-System/internal/config"
	"github.com/UjjwalAsati/Attendance-System/internal/database"
	"github.com/UjjwalAsati/Attendance-System/internal/web/middleware"
)

func setupTestContainer(t *testing.T) (*Pool, func()) {
	ctx := context.Background()

	req := testcontainers.ContainerRequest{
		Image:        "pgvector/pgvector:pg16",
		ExposedPorts: []string{"5432/tcp"},
		Env: map[string]string{
			"POSTGRES_USER":     "test",
			"POSTGRES_PASSWORD": "test",
			"POSTGRES_DB":       "testdb",
		},
		WaitingFor: wait.ForLog("database system is ready to accept connections").
			WithOccurrence(2).
			WithStartupTimeout(60 * time.Second),
	}

	container, err := testcontainers.GenericContainer(ctx, testcontainers.GenericContainerRequest{
		ContainerRequest: req,
		Started:          true,
	})
	if err != nil {
		t.Skipf("Docker not available or container failed to start, skipping integration test: %v", err)
		return nil, func() {}
	}

	host, err := container.Host(ctx)
	if err != nil {
		t.Fatalf("Failed to get container host: %v", err)
	}
	port, err := container.MappedPort(ctx, "5432")
	if err != nil {
		t.Fatalf("Failed to get container port: %v", err)
	}

	cfg := &config.DatabaseConfig{
		URL:          fmt.Sprintf("postgres://test:test@%s:%s/testdb?sslmode=disable", host, port.Port()),
		MaxOpenConns: 10,
		MaxIdleConns: 2,
	}

	pool, err := Initialize(ctx, cfg)
	if err != nil {
		container.Terminate(ctx)
		t.Fatalf("Failed to initialize pool: %v", err)
	}

	cleanup := func() {
		pool.Close()
		container.Terminate(ctx)
	}
	return pool, cleanup
}

func newEmployee(name string, seed float32) *database.Employee {
	desc := make([]float32, 128)
	for i := range desc {
		desc[i] = seed + float32(i)/1000
	}
	return &database.Employee{
		ID:         uuid.NewString(),
		Name:       name,
		NameKey:    name,
		Descriptor: desc,
		CreatedAt:  time.Now().UTC(),
	}
}

func TestPostgresBackend(t *testing.T) {
	pool, cleanup := setupTestContainer(t)
	if pool == nil {
		return
	}
	defer cleanup()

	ctx := context.Background()
	main := NewBackend(pool, "")
	other := NewBackend(pool, "jm")

	asha := newEmployee("asha", 0.1)
	ravi := newEmployee("ravi", 0.2)

	t.Run("EmployeesInEnrollmentOrder", func(t *testing.T) {
		for _, e := range []*database.Employee{asha, ravi} {
			if err := main.Employees().CreateEmployee(ctx, e); err != nil {
				t.Fatalf("CreateEmployee(%s) error = %v", e.Name, err)
			}
		}

		list, err := main.Employees().ListEmployees(ctx)
		if err != nil {
			t.Fatalf("ListEmployees() error = %v", err)
		}
		if len(list) != 2 || list[0].ID != asha.ID || list[1].ID != ravi.ID {
			t.Fatalf("unexpected roster %+v", list)
		}
		if len(list[0].Descriptor) != 128 || list[0].Descriptor[5] != asha.Descriptor[5] {
			t.Errorf("descriptor did not round-trip")
		}

		got, err := main.Employees().GetEmployee(ctx, ravi.ID)
		if err != nil || got == nil || got.Name != "ravi" {
			t.Errorf("GetEmployee() = %+v, %v", got, err)
		}
		missing, err := main.Employees().GetEmployee(ctx, uuid.NewString())
		if err != nil || missing != nil {
			t.Errorf("expected nil for unknown employee, got %+v, %v", missing, err)
		}
	})

	t.Run("DuplicateNameWithinTenant", func(t *testing.T) {
		dup := newEmployee("asha", 0.3)
		if err := main.Employees().CreateEmployee(ctx, dup); !errors.Is(err, database.ErrEmployeeExists) {
			t.Errorf("expected ErrEmployeeExists, got %v", err)
		}
		// The same name is free in another tenant.
		if err := other.Employees().CreateEmployee(ctx, newEmployee("asha", 0.4)); err != nil {
			t.Errorf("expected other tenant to accept name, got %v", err)
		}
		n, _ := main.Employees().CountEmployees(ctx)
		if n != 2 {
			t.Errorf("expected 2 employees in default tenant, got %d", n)
		}
	})

	t.Run("AttendanceUniquePerDay", func(t *testing.T) {
		ts := time.Date(2024, 3, 11, 3, 30, 0, 0, time.UTC)
		w := attendance.Bounds(ts, 330)

		rec := &database.AttendanceRecord{
			ID: uuid.NewString(), EmployeeID: asha.ID, EmployeeName: asha.Name,
			Type: database.RecordCheckIn, Timestamp: ts, Day: w.Day,
			Location: &database.Location{Latitude: 25.03, Longitude: 79.49},
		}
		if err := main.Attendance().AppendRecord(ctx, rec); err != nil {
			t.Fatalf("AppendRecord() error = %v", err)
		}

		again := *rec
		again.ID = uuid.NewString()
		again.Timestamp = ts.Add(time.Minute)
		if err := main.Attendance().AppendRecord(ctx, &again); !errors.Is(err, database.ErrRecordExists) {
			t.Errorf("expected ErrRecordExists, got %v", err)
		}

		found, err := main.Attendance().FindRecords(ctx, asha.ID, w.Start, w.End)
		if err != nil {
			t.Fatalf("FindRecords() error = %v", err)
		}
		if len(found) != 1 || found[0].Day != "2024-03-11" || found[0].Location == nil {
			t.Fatalf("unexpected records %+v", found)
		}
		if !found[0].Timestamp.Equal(ts) {
			t.Errorf("timestamp did not round-trip: %v", found[0].Timestamp)
		}

		outside, _ := main.Attendance().FindRecords(ctx, asha.ID, w.End.Add(time.Millisecond), w.End.Add(time.Hour))
		if len(outside) != 0 {
			t.Errorf("expected no records after the window, got %d", len(outside))
		}

		all, err := other.Attendance().ListRecords(ctx, w.Start, w.End)
		if err != nil || len(all) != 0 {
			t.Errorf("expected tenant jm to see no records, got %d, %v", len(all), err)
		}
	})

	t.Run("LedgersInSeparateProcessesRecordOnce", func(t *testing.T) {
		ts := time.Date(2024, 3, 12, 3, 30, 0, 0, time.UTC)

		var (
			wg        sync.WaitGroup
			mu        sync.Mutex
			successes int
		)
		for i := range 8 {
			wg.Add(1)
			go func() {
				defer wg.Done()
				// A fresh ledger per goroutine shares no in-process lock,
				// leaving only the database constraint.
				l := attendance.NewLedger(330)
				_, err := l.Record(ctx, main.Attendance(), attendance.Entry{
					Employee:  ravi,
					Type:      database.RecordCheckIn,
					Timestamp: ts.Add(time.Duration(i) * time.Second),
				})
				mu.Lock()
				defer mu.Unlock()
				if err == nil {
					successes++
				} else if !errors.Is(err, attendance.ErrDuplicateCheckIn) {
					t.Errorf("unexpected error %v", err)
				}
			}()
		}
		wg.Wait()

		if successes != 1 {
			t.Errorf("expected exactly one success, got %d", successes)
		}
	})
}

func TestSessionRepository(t *testing.T) {
	pool, cleanup := setupTestContainer(t)
	if pool == nil {
		return
	}
	defer cleanup()

	ctx := context.Background()
	repo := NewSessionRepository(pool)
	now := time.Now().UTC().Truncate(time.Microsecond)

	live := &middleware.Session{ID: "live", Email: "dealer@example.com", Tenant: "jm", CreatedAt: now, ExpiresAt: now.Add(time.Hour)}
	expired := &middleware.Session{ID: "old", Email: "dealer@example.com", CreatedAt: now.Add(-2 * time.Hour), ExpiresAt: now.Add(-time.Hour)}
	for _, s := range []*middleware.Session{live, expired} {
		if err := repo.Save(ctx, s); err != nil {
			t.Fatalf("Save() error = %v", err)
		}
	}

	got, err := repo.Get(ctx, "live")
	if err != nil || got == nil || got.Tenant != "jm" {
		t.Fatalf("Get() = %+v, %v", got, err)
	}
	if gone, _ := repo.Get(ctx, "old"); gone != nil {
		t.Error("expected expired session to be hidden")
	}

	n, err := repo.DeleteExpired(ctx)
	if err != nil || n != 1 {
		t.Errorf("DeleteExpired() = %d, %v", n, err)
	}
	if err := repo.Delete(ctx, "live"); err != nil {
		t.Fatalf("Delete() error = %v", err)
	}
	if gone, _ := repo.Get(ctx, "live"); gone != nil {
		t.Error("expected deleted session to be gone")
	}
}
