package postgres

import (
	"context"

	"github.com/UjjwalAsati/Attendance-System/internal/config"
	"github.com/UjjwalAsati/Attendance-System/internal/database"
)

// Backend is the PostgreSQL store of one tenant.
type Backend struct {
	pool       *Pool
	ownsPool   bool
	employees  *EmployeeRepository
	attendance *AttendanceRepository
}

// NewBackend wraps a shared pool. Closing the backend leaves the pool open.
func NewBackend(pool *Pool, tenant string) *Backend {
	return &Backend{
		pool:       pool,
		employees:  NewEmployeeRepository(pool, tenant),
		attendance: NewAttendanceRepository(pool, tenant),
	}
}

func (b *Backend) Employees() database.EmployeeWriter    { return b.employees }
func (b *Backend) Attendance() database.AttendanceWriter { return b.attendance }

func (b *Backend) Ping(ctx context.Context) error { return b.pool.Ping(ctx) }

func (b *Backend) Close() error {
	if b.ownsPool {
		return b.pool.Close()
	}
	return nil
}

// Opener returns a database.Opener that opens a dedicated, migrated pool per
// tenant with the pool limits of cfg.
func Opener(cfg config.DatabaseConfig) database.Opener {
	return func(ctx context.Context, tenant, dsn string) (database.Backend, error) {
		poolCfg := cfg
		poolCfg.URL = dsn
		pool, err := Initialize(ctx, &poolCfg)
		if err != nil {
			return nil, err
		}
		b := NewBackend(pool, tenant)
		b.ownsPool = true
		return b, nil
	}
}
