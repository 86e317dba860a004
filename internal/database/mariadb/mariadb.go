// Package mariadb stores a tenant's roster and ledger in MariaDB/MySQL.
package mariadb

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/go-sql-driver/mysql"
)

// Pool manages a MariaDB connection pool.
type Pool struct {
	db *sql.DB
}

// NewPool creates a new MariaDB connection pool. Timestamps are always read
// and written as UTC regardless of the DSN.
func NewPool(dsn string, maxOpen, maxIdle int) (*Pool, error) {
	if dsn == "" {
		return nil, errors.New("MariaDB DSN is required")
	}

	cfg, err := mysql.ParseDSN(dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to parse MariaDB DSN: %w", err)
	}
	cfg.ParseTime = true
	cfg.Loc = time.UTC

	connector, err := mysql.NewConnector(cfg)
	if err != nil {
		return nil, fmt.Errorf("failed to create MariaDB connector: %w", err)
	}
	db := sql.OpenDB(connector)

	db.SetMaxOpenConns(maxOpen)
	db.SetMaxIdleConns(maxIdle)
	db.SetConnMaxLifetime(time.Hour)

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to ping MariaDB: %w", err)
	}

	return &Pool{db: db}, nil
}

// Ping verifies the connection is alive.
func (p *Pool) Ping(ctx context.Context) error {
	if err := p.db.PingContext(ctx); err != nil {
		return fmt.Errorf("pinging MariaDB: %w", err)
	}
	return nil
}

// Close closes the connection pool.
func (p *Pool) Close() error {
	if p.db != nil {
		if err := p.db.Close(); err != nil {
			return fmt.Errorf("closing database connection: %w", err)
		}
	}
	return nil
}

var schema = []string{
	`CREATE TABLE IF NOT EXISTS employees (
		id          CHAR(36) NOT NULL PRIMARY KEY,
		seq         BIGINT NOT NULL AUTO_INCREMENT UNIQUE,
		tenant      VARCHAR(64) NOT NULL DEFAULT '',
		name        VARCHAR(255) NOT NULL,
		name_key    VARCHAR(255) NOT NULL,
		descriptor  LONGTEXT NOT NULL,
		created_at  DATETIME(3) NOT NULL,
		UNIQUE KEY uq_employees_name (tenant, name_key)
	) DEFAULT CHARSET = utf8mb4`,
	`CREATE TABLE IF NOT EXISTS attendance (
		id             CHAR(36) NOT NULL PRIMARY KEY,
		tenant         VARCHAR(64) NOT NULL DEFAULT '',
		employee_id    CHAR(36) NOT NULL,
		employee_name  VARCHAR(255) NOT NULL,
		type           VARCHAR(16) NOT NULL,
		ts             DATETIME(3) NOT NULL,
		civil_day      DATE NOT NULL,
		latitude       DOUBLE NULL,
		longitude      DOUBLE NULL,
		created_at     DATETIME(3) NOT NULL DEFAULT CURRENT_TIMESTAMP(3),
		UNIQUE KEY uq_attendance_day (employee_id, civil_day, type),
		KEY idx_attendance_tenant_ts (tenant, ts),
		CONSTRAINT fk_attendance_employee FOREIGN KEY (employee_id) REFERENCES employees (id)
	) DEFAULT CHARSET = utf8mb4`,
}

// Migrate creates the tables when they do not exist yet.
func (p *Pool) Migrate(ctx context.Context) error {
	for _, stmt := range schema {
		if _, err := p.db.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("apply schema: %w", err)
		}
	}
	return nil
}

const duplicateEntry = 1062

func isDuplicateEntry(err error) bool {
	var myErr *mysql.MySQLError
	return errors.As(err, &myErr) && myErr.Number == duplicateEntry
}
