package database

import (
	"context"
	"fmt"
	"sort"
	"sync"
)

// Opener opens the backend for one tenant from its DSN.
type Opener func(ctx context.Context, tenant, dsn string) (Backend, error)

var (
	openersMu sync.RWMutex
	openers   = make(map[string]Opener)
)

// RegisterBackend registers a backend constructor under a driver name.
// This is called from cmd to avoid import cycles between the storage packages.
func RegisterBackend(driver string, open Opener) {
	openersMu.Lock()
	defer openersMu.Unlock()
	openers[driver] = open
}

// OpenBackend opens a tenant backend with the opener registered for driver.
func OpenBackend(ctx context.Context, driver, tenant, dsn string) (Backend, error) {
	openersMu.RLock()
	open, ok := openers[driver]
	openersMu.RUnlock()
	if !ok {
		return nil, fmt.Errorf("storage driver %q not registered", driver)
	}
	return open(ctx, tenant, dsn)
}

// RegisteredDrivers returns the names of all registered drivers, sorted.
func RegisteredDrivers() []string {
	openersMu.RLock()
	defer openersMu.RUnlock()
	drivers := make([]string, 0, len(openers))
	for d := range openers {
		drivers = append(drivers, d)
	}
	sort.Strings(drivers)
	return drivers
}
