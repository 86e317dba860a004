package postgres

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/UjjwalAsati/Attendance-System/internal/database"
)

// AttendanceRepository provides PostgreSQL-backed ledger storage for one tenant
type AttendanceRepository struct {
	pool   *Pool
	tenant string
}

// NewAttendanceRepository creates a ledger repository scoped to tenant
func NewAttendanceRepository(pool *Pool, tenant string) *AttendanceRepository {
	return &AttendanceRepository{pool: pool, tenant: tenant}
}

const recordColumns = `id, tenant, employee_id, employee_name, type, ts, to_char(civil_day, 'YYYY-MM-DD'), latitude, longitude, created_at`

func (r *AttendanceRepository) queryRecords(ctx context.Context, query string, args ...any) ([]database.AttendanceRecord, error) {
	rows, err := r.pool.Query(ctx, query, args...)
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
		rec.Timestamp = rec.Timestamp.UTC()
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

// FindRecords returns the employee's records with from <= ts <= to, oldest first
func (r *AttendanceRepository) FindRecords(ctx context.Context, employeeID string, from, to time.Time) ([]database.AttendanceRecord, error) {
	recs, err := r.queryRecords(ctx, `
		SELECT `+recordColumns+`
		FROM attendance
		WHERE tenant = $1 AND employee_id = $2 AND ts >= $3 AND ts <= $4
		ORDER BY ts
	`, r.tenant, employeeID, from, to)
	if err != nil {
		return nil, fmt.Errorf("find records: %w", err)
	}
	return recs, nil
}

// ListRecords returns all records with from <= ts <= to, oldest first
func (r *AttendanceRepository) ListRecords(ctx context.Context, from, to time.Time) ([]database.AttendanceRecord, error) {
	recs, err := r.queryRecords(ctx, `
		SELECT `+recordColumns+`
		FROM attendance
		WHERE tenant = $1 AND ts >= $2 AND ts <= $3
		ORDER BY ts, id
	`, r.tenant, from, to)
	if err != nil {
		return nil, fmt.Errorf("list records: %w", err)
	}
	return recs, nil
}

// AppendRecord stores a new record. The unique (employee_id, civil_day, type)
// constraint rejects a second record of the same type on the same day.
func (r *AttendanceRepository) AppendRecord(ctx context.Context, rec *database.AttendanceRecord) error {
	var lat, lon sql.NullFloat64
	if rec.Location != nil {
		lat = sql.NullFloat64{Float64: rec.Location.Latitude, Valid: true}
		lon = sql.NullFloat64{Float64: rec.Location.Longitude, Valid: true}
	}

	result, err := r.pool.Exec(ctx, `
		INSERT INTO attendance (id, tenant, employee_id, employee_name, type, ts, civil_day, latitude, longitude)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
		ON CONFLICT (employee_id, civil_day, type) DO NOTHING
	`, rec.ID, r.tenant, rec.EmployeeID, rec.EmployeeName, string(rec.Type), rec.Timestamp, rec.Day, lat, lon)
	if err != nil {
		return fmt.Errorf("append record: %w", err)
	}
	n, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("getting rows affected: %w", err)
	}
	if n == 0 {
		return database.ErrRecordExists
	}
	rec.Tenant = r.tenant
	return nil
}
