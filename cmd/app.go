package cmd

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/UjjwalAsati/Attendance-System/internal/attendance"
	"github.com/UjjwalAsati/Attendance-System/internal/config"
	"github.com/UjjwalAsati/Attendance-System/internal/constants"
	"github.com/UjjwalAsati/Attendance-System/internal/database"
	"github.com/UjjwalAsati/Attendance-System/internal/database/mariadb"
	"github.com/UjjwalAsati/Attendance-System/internal/database/postgres"
	"github.com/UjjwalAsati/Attendance-System/internal/facematch"
	"github.com/UjjwalAsati/Attendance-System/internal/metrics"
	"github.com/UjjwalAsati/Attendance-System/internal/tenant"
)

// app holds the components shared by the commands that touch storage.
type app struct {
	cfg      *config.Config
	pool     *postgres.Pool // Default tenant pool, nil without DATABASE_URL
	resolver *tenant.Resolver
	service  *attendance.Service
}

// registerBackends makes every storage driver available to the tenant resolver.
func registerBackends(cfg *config.Config) {
	database.RegisterBackend(config.DriverPostgres, postgres.Opener(cfg.Database))
	database.RegisterBackend(config.DriverMariaDB, mariadb.Opener(cfg.Database))
}

func newMatcher(cfg config.MatchingConfig) facematch.Matcher {
	if cfg.Strategy == constants.MatchStrategyHNSW {
		return facematch.NewIndexedMatcher(cfg.Threshold)
	}
	return facematch.NewFirstMatcher(cfg.Threshold)
}

// newApp connects the default tenant (when configured) and builds the
// attendance service. A nil recorder disables metrics.
func newApp(ctx context.Context, cfg *config.Config, recorder metrics.Recorder) (*app, error) {
	if cfg.Database.URL == "" && len(cfg.Tenants) == 0 {
		return nil, errors.New("DATABASE_URL or TENANTS_FILE is required")
	}

	registerBackends(cfg)
	resolver := tenant.NewResolver(cfg, nil)

	a := &app{cfg: cfg, resolver: resolver}
	if cfg.Database.URL != "" {
		slog.Info("connecting to PostgreSQL", slog.String("tenant", "default"))
		pool, err := postgres.Initialize(ctx, &cfg.Database)
		if err != nil {
			return nil, fmt.Errorf("failed to initialize PostgreSQL: %w", err)
		}
		a.pool = pool
		resolver.Register(config.DefaultTenant, postgres.NewBackend(pool, config.DefaultTenant))
	}

	a.service = attendance.NewService(resolver, newMatcher(cfg.Matching), attendance.Options{
		DescriptorDim: cfg.Matching.DescriptorDim,
		OffsetMinutes: cfg.Calendar.OffsetMinutes,
		Recorder:      recorder,
	})
	return a, nil
}

// Close releases every tenant backend and the default pool.
func (a *app) Close() {
	if err := a.resolver.Close(); err != nil {
		slog.Error("closing tenant backends", slog.String("error", err.Error()))
	}
	if a.pool != nil {
		if err := a.pool.Close(); err != nil {
			slog.Error("closing PostgreSQL pool", slog.String("error", err.Error()))
		}
	}
}

// loadApp is the common prologue of storage commands.
func loadApp(ctx context.Context) (*app, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, fmt.Errorf("loading configuration: %w", err)
	}
	return newApp(ctx, cfg, nil)
}
