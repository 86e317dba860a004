package mariadb

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/UjjwalAsati/Attendance-System/internal/config"
	"github.com/UjjwalAsati/Attendance-System/internal/database"
)

// EmployeeRepository provides MariaDB-backed roster storage for one tenant.
// Descriptors are stored as JSON arrays.
type EmployeeRepository struct {
	pool   *Pool
	tenant string
}

func scanEmployee(row interface{ Scan(...any) error }) (database.Employee, error) {
	var (
		e    database.Employee
		desc string
	)
	if err := row.Scan(&e.ID, &e.Tenant, &e.Name, &e.NameKey, &desc, &e.CreatedAt); err != nil {
		return e, err
	}
	if err := json.Unmarshal([]byte(desc), &e.Descriptor); err != nil {
		return e, fmt.Errorf("decode descriptor of %s: %w", e.ID, err)
	}
	return e, nil
}

const employeeColumns = `id, tenant, name, name_key, descriptor, created_at`

func (r *EmployeeRepository) ListEmployees(ctx context.Context) ([]database.Employee, error) {
	rows, err := r.pool.db.QueryContext(ctx, `SELECT `+employeeColumns+` FROM employees WHERE tenant = ? ORDER BY seq`, r.tenant)
	if err != nil {
		return nil, fmt.Errorf("list employees: %w", err)
	}
	defer rows.Close()

	var out []database.Employee
	for rows.Next() {
		e, err := scanEmployee(rows)
		if err != nil {
			return nil, fmt.Errorf("scan employee: %w", err)
		}
		out = append(out, e)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate employees: %w", err)
	}
	return out, nil
}

func (r *EmployeeRepository) GetEmployee(ctx context.Context, id string) (*database.Employee, error) {
	row := r.pool.db.QueryRowContext(ctx, `SELECT `+employeeColumns+` FROM employees WHERE tenant = ? AND id = ?`, r.tenant, id)
	e, err := scanEmployee(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get employee: %w", err)
	}
	return &e, nil
}

func (r *EmployeeRepository) CountEmployees(ctx context.Context) (int, error) {
	var n int
	if err := r.pool.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM employees WHERE tenant = ?`, r.tenant).Scan(&n); err != nil {
		return 0, fmt.Errorf("count employees: %w", err)
	}
	return n, nil
}

func (r *EmployeeRepository) CreateEmployee(ctx context.Context, emp *database.Employee) error {
	desc, err := json.Marshal(emp.Descriptor)
	if err != nil {
		return fmt.Errorf("encode descriptor: %w", err)
	}
	_, err = r.pool.db.ExecContext(ctx, `
		INSERT INTO employees (id, tenant, name, name_key, descriptor, created_at)
		VALUES (?, ?, ?, ?, ?, ?)
	`, emp.ID, r.tenant, emp.Name, emp.NameKey, string(desc), emp.CreatedAt.UTC())
	if isDuplicateEntry(err) {
		return database.ErrEmployeeExists
	}
	if err != nil {
		return fmt.Errorf("create employee: %w", err)
	}
	emp.Tenant = r.tenant
	return nil
}

// AttendanceRepository provides MariaDB-backed ledger storage for one tenant
type AttendanceRepository struct {
	pool   *Pool
	tenant string
}

const recordColumns = `id, tenant, employee_id, employee_name, type, ts, DATE_FORMAT(civil_day, '%Y-%m-%d'), latitude, longitude, created_at`

func (r *AttendanceRepository) queryRecords(ctx context.Context, query string, args ...any) ([]database.AttendanceRecord, error) {
	rows, err := r.pool.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []database.AttendanceRecord
	for rows.Next() {
		var (
			rec      database.AttendanceRecord
			typ      string
			lat, lon sql.NullFloat64
		)
		if err := rows.Scan(&rec.ID, &rec.Tenant, &rec.EmployeeID, &rec.EmployeeName, &typ,
			&rec.Timestamp, &rec.Day, &lat, &lon, &rec.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan record: %w", err)
		}
		rec.Type = database.RecordType(typ)
		if lat.Valid && lon.Valid {
			rec.Location = &database.Location{Latitude: lat.Float64, Longitude: lon.Float64}
		}
		out = append(out, rec)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate records: %w", err)
	}
	return out, nil
}

func (r *AttendanceRepository) FindRecords(ctx context.Context, employeeID string, from, to time.Time) ([]database.AttendanceRecord, error) {
	recs, err := r.queryRecords(ctx, `
		SELECT `+recordColumns+`
		FROM attendance
		WHERE tenant = ? AND employee_id = ? AND ts >= ? AND ts <= ?
		ORDER BY ts
	`, r.tenant, employeeID, from.UTC(), to.UTC())
	if err != nil {
		return nil, fmt.Errorf("find records: %w", err)
	}
	return recs, nil
}

func (r *AttendanceRepository) ListRecords(ctx context.Context, from, to time.Time) ([]database.AttendanceRecord, error) {
	recs, err := r.queryRecords(ctx, `
		SELECT `+recordColumns+`
		FROM attendance
		WHERE tenant = ? AND ts >= ? AND ts <= ?
		ORDER BY ts, id
	`, r.tenant, from.UTC(), to.UTC())
	if err != nil {
		return nil, fmt.Errorf("list records: %w", err)
	}
	return recs, nil
}

// AppendRecord stores a new record; the uq_attendance_day key rejects a
// second record of the same type on the same day.
func (r *AttendanceRepository) AppendRecord(ctx context.Context, rec *database.AttendanceRecord) error {
	var lat, lon sql.NullFloat64
	if rec.Location != nil {
		lat = sql.NullFloat64{Float64: rec.Location.Latitude, Valid: true}
		lon = sql.NullFloat64{Float64: rec.Location.Longitude, Valid: true}
	}
	_, err := r.pool.db.ExecContext(ctx, `
		INSERT INTO attendance (id, tenant, employee_id, employee_name, type, ts, civil_day, latitude, longitude)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
	`, rec.ID, r.tenant, rec.EmployeeID, rec.EmployeeName, string(rec.Type), rec.Timestamp.UTC(), rec.Day, lat, lon)
	if isDuplicateEntry(err) {
		return database.ErrRecordExists
	}
	if err != nil {
		return fmt.Errorf("append record: %w", err)
	}
	rec.Tenant = r.tenant
	return nil
}

// Backend is the MariaDB store of one tenant.
type Backend struct {
	pool       *Pool
	employees  *EmployeeRepository
	attendance *AttendanceRepository
}

// NewBackend wraps pool for tenant. Closing the backend closes the pool.
func NewBackend(pool *Pool, tenant string) *Backend {
	return &Backend{
		pool:       pool,
		employees:  &EmployeeRepository{pool: pool, tenant: tenant},
		attendance: &AttendanceRepository{pool: pool, tenant: tenant},
	}
}

func (b *Backend) Employees() database.EmployeeWriter    { return b.employees }
func (b *Backend) Attendance() database.AttendanceWriter { return b.attendance }
func (b *Backend) Ping(ctx context.Context) error        { return b.pool.Ping(ctx) }
func (b *Backend) Close() error                          { return b.pool.Close() }

// Opener returns a database.Opener that opens and migrates a MariaDB pool
// per tenant.
func Opener(cfg config.DatabaseConfig) database.Opener {
	return func(ctx context.Context, tenant, dsn string) (database.Backend, error) {
		pool, err := NewPool(dsn, cfg.MaxOpenConns, cfg.MaxIdleConns)
		if err != nil {
			return nil, err
		}
		if err := pool.Migrate(ctx); err != nil {
			_ = pool.Close()
			return nil, err
		}
		return NewBackend(pool, tenant), nil
	}
}
