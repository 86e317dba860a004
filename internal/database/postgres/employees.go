package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/lib/pq"
	"github.com/pgvector/pgvector-go"

	"github.com/UjjwalAsati/Attendance-System/internal/database"
)

const uniqueViolation = "23505"

func isUniqueViolation(err error) bool {
	var pqErr *pq.Error
	return errors.As(err, &pqErr) && pqErr.Code == uniqueViolation
}

// EmployeeRepository provides PostgreSQL-backed roster storage for one tenant
type EmployeeRepository struct {
	pool   *Pool
	tenant string
}

// NewEmployeeRepository creates a roster repository scoped to tenant
func NewEmployeeRepository(pool *Pool, tenant string) *EmployeeRepository {
	return &EmployeeRepository{pool: pool, tenant: tenant}
}

const employeeColumns = `id, tenant, name, name_key, descriptor, created_at`

func scanEmployee(row interface{ Scan(...any) error }) (database.Employee, error) {
	var (
		e   database.Employee
		vec pgvector.Vector
	)
	if err := row.Scan(&e.ID, &e.Tenant, &e.Name, &e.NameKey, &vec, &e.CreatedAt); err != nil {
		return e, err
	}
	e.Descriptor = vec.Slice()
	return e, nil
}

// ListEmployees returns the roster in enrollment order
func (r *EmployeeRepository) ListEmployees(ctx context.Context) ([]database.Employee, error) {
	rows, err := r.pool.Query(ctx, `SELECT `+employeeColumns+` FROM employees WHERE tenant = $1 ORDER BY seq`, r.tenant)
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

// GetEmployee retrieves an employee by ID, returns nil if not found
func (r *EmployeeRepository) GetEmployee(ctx context.Context, id string) (*database.Employee, error) {
	row := r.pool.QueryRow(ctx, `SELECT `+employeeColumns+` FROM employees WHERE tenant = $1 AND id = $2`, r.tenant, id)
	e, err := scanEmployee(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get employee: %w", err)
	}
	return &e, nil
}

// CountEmployees returns the roster size
func (r *EmployeeRepository) CountEmployees(ctx context.Context) (int, error) {
	var n int
	if err := r.pool.QueryRow(ctx, `SELECT COUNT(*) FROM employees WHERE tenant = $1`, r.tenant).Scan(&n); err != nil {
		return 0, fmt.Errorf("count employees: %w", err)
	}
	return n, nil
}

// CreateEmployee stores a new employee
func (r *EmployeeRepository) CreateEmployee(ctx context.Context, emp *database.Employee) error {
	_, err := r.pool.Exec(ctx, `
		INSERT INTO employees (id, tenant, name, name_key, descriptor, created_at)
		VALUES ($1, $2, $3, $4, $5, $6)
	`, emp.ID, r.tenant, emp.Name, emp.NameKey, pgvector.NewVector(emp.Descriptor), emp.CreatedAt)
	if isUniqueViolation(err) {
		return database.ErrEmployeeExists
	}
	if err != nil {
		return fmt.Errorf("create employee: %w", err)
	}
	emp.Tenant = r.tenant
	return nil
}
