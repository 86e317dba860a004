// Package tenant maps tenant keys to their isolated storage backends.
package tenant

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sort"
	"sync"

	"github.com/UjjwalAsati/Attendance-System/internal/config"
	"github.com/UjjwalAsati/Attendance-System/internal/database"
	"github.com/UjjwalAsati/Attendance-System/internal/geofence"
)

var (
	// ErrUnknownTenant is returned for keys not present in the configuration.
	ErrUnknownTenant = database.ErrUnknownTenant
	// ErrClosed is returned by Resolve after Close.
	ErrClosed = errors.New("tenant resolver closed")
)

// Opener opens a backend; database.OpenBackend in production.
type Opener func(ctx context.Context, driver, tenant, dsn string) (database.Backend, error)

type entry struct {
	driver string
	dsn    string

	mu      sync.Mutex
	backend database.Backend
}

// Resolver lazily opens one backend per allow-listed tenant key and keeps it
// for the process lifetime.
type Resolver struct {
	cfg  *config.Config
	open Opener

	mu      sync.RWMutex
	entries map[string]*entry
	closed  bool
}

// NewResolver builds the allow-list from cfg. The default tenant is included
// when DATABASE_URL is set. A nil opener means database.OpenBackend.
func NewResolver(cfg *config.Config, open Opener) *Resolver {
	if open == nil {
		open = database.OpenBackend
	}
	r := &Resolver{
		cfg:     cfg,
		open:    open,
		entries: make(map[string]*entry, len(cfg.Tenants)+1),
	}
	if cfg.Database.URL != "" {
		r.entries[config.DefaultTenant] = &entry{driver: config.DriverPostgres, dsn: cfg.Database.URL}
	}
	for _, t := range cfg.Tenants {
		r.entries[t.Key] = &entry{driver: t.Driver, dsn: t.DSN}
	}
	return r
}

// Register binds an already opened backend to key, adding key to the
// allow-list. Used to share the default pool with other components.
func (r *Resolver) Register(key string, backend database.Backend) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.entries[key] = &entry{backend: backend}
}

// Resolve returns the backend of key, opening it on first use. Concurrent
// first calls for the same key open it once; a failed open is retried by the
// next call.
func (r *Resolver) Resolve(ctx context.Context, key string) (database.Backend, error) {
	r.mu.RLock()
	e, ok := r.entries[key]
	closed := r.closed
	r.mu.RUnlock()
	if closed {
		return nil, ErrClosed
	}
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrUnknownTenant, key)
	}

	e.mu.Lock()
	defer e.mu.Unlock()
	if e.backend != nil {
		return e.backend, nil
	}
	// Close may have run since the check above; it would never see a
	// backend opened now.
	r.mu.RLock()
	closed = r.closed
	r.mu.RUnlock()
	if closed {
		return nil, ErrClosed
	}

	backend, err := r.open(ctx, e.driver, key, e.dsn)
	if err != nil {
		return nil, fmt.Errorf("opening tenant %q: %w", key, err)
	}
	slog.Info("tenant backend opened", slog.String("tenant", key), slog.String("driver", e.driver))
	e.backend = backend
	return backend, nil
}

// GeoFence returns the geofence policy of key.
func (r *Resolver) GeoFence(key string) geofence.Policy {
	return geofence.FromConfig(r.cfg.GeoFenceFor(key))
}

// Keys returns the allow-listed tenant keys, sorted.
func (r *Resolver) Keys() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	keys := make([]string, 0, len(r.entries))
	for k := range r.entries {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// Has reports whether key is allow-listed.
func (r *Resolver) Has(key string) bool {
	r.mu.RLock()
	defer r.mu.RUnlock()
	_, ok := r.entries[key]
	return ok
}

// Close closes every opened backend. Further Resolve calls fail.
func (r *Resolver) Close() error {
	r.mu.Lock()
	r.closed = true
	entries := make([]*entry, 0, len(r.entries))
	for _, e := range r.entries {
		entries = append(entries, e)
	}
	r.mu.Unlock()

	var errs []error
	for _, e := range entries {
		e.mu.Lock()
		if e.backend != nil {
			if err := e.backend.Close(); err != nil {
				errs = append(errs, err)
			}
			e.backend = nil
		}
		e.mu.Unlock()
	}
	return errors.Join(errs...)
}
