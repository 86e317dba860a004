package config

import (
	"errors"
	"fmt"
	"os"
	"regexp"
	"strconv"
	"strings"

	"github.com/UjjwalAsati/Attendance-System/internal/constants"
	"gopkg.in/yaml.v3"
)

// Supported storage drivers for tenant backends.
const (
	DriverPostgres = "postgres"
	DriverMariaDB  = "mariadb"
)

// DefaultTenant is the tenant key used by single-tenant deployments.
const DefaultTenant = ""

type Config struct {
	Database DatabaseConfig
	Matching MatchingConfig
	Calendar CalendarConfig
	GeoFence GeoFenceConfig
	Auth     AuthConfig
	Web      WebConfig
	Tenants  []TenantConfig
}

type DatabaseConfig struct {
	URL          string // PostgreSQL connection URL of the default tenant (optional when tenants are configured)
	MaxOpenConns int    // Maximum open connections per tenant pool (default 25)
	MaxIdleConns int    // Maximum idle connections per tenant pool (default 5)
}

type MatchingConfig struct {
	Threshold     float64 // Euclidean distance below which a descriptor matches (default 0.5)
	DescriptorDim int     // Expected descriptor length (default 128)
	Strategy      string  // "first" (default) or "hnsw"
}

type CalendarConfig struct {
	OffsetMinutes int // Civil day offset from UTC in minutes (default 330, UTC+5:30)
}

type GeoFenceConfig struct {
	Enabled      bool    `yaml:"enabled"`
	CenterLat    float64 `yaml:"center_lat"`
	CenterLon    float64 `yaml:"center_lon"`
	RadiusMeters float64 `yaml:"radius_meters"`
}

type AuthConfig struct {
	Email         string // Dealer login email for the default tenant
	PasswordHash  string // bcrypt hash of the dealer password
	SessionSecret string // HMAC secret for session cookies
}

type WebConfig struct {
	Host                string
	Port                int
	AllowedOrigins      []string
	SubmitRatePerMinute int
}

// TenantConfig describes one isolated roster/ledger store.
type TenantConfig struct {
	Key          string          `yaml:"key"`
	Driver       string          `yaml:"driver"`
	DSN          string          `yaml:"dsn"`
	Email        string          `yaml:"email"`
	PasswordHash string          `yaml:"password_hash"`
	GeoFence     *GeoFenceConfig `yaml:"geofence"`
}

// Account is a dealer login bound to a tenant.
type Account struct {
	Email        string
	PasswordHash string
	Tenant       string
}

// envRef matches ${VAR} references. Bare $VAR is left alone so bcrypt hashes
// survive expansion.
var envRef = regexp.MustCompile(`\$\{([A-Za-z_][A-Za-z0-9_]*)\}`)

func expandEnvRefs(s string) string {
	return envRef.ReplaceAllStringFunc(s, func(ref string) string {
		return os.Getenv(ref[2 : len(ref)-1])
	})
}

type tenantsFile struct {
	Tenants []TenantConfig `yaml:"tenants"`
}

// envInt reads an environment variable and parses it as a positive integer.
// Returns the default value if the env var is unset, empty, or invalid.
func envInt(key string, defaultVal int) int {
	s := os.Getenv(key)
	if s == "" {
		return defaultVal
	}
	if n, err := strconv.Atoi(s); err == nil && n > 0 {
		return n
	}
	return defaultVal
}

// envSignedInt is envInt for values where zero and negatives are meaningful.
func envSignedInt(key string, defaultVal int) int {
	if n, err := strconv.Atoi(os.Getenv(key)); err == nil {
		return n
	}
	return defaultVal
}

// envFloat reads an environment variable as a float64, falling back to defaultVal.
func envFloat(key string, defaultVal float64) float64 {
	s := os.Getenv(key)
	if s == "" {
		return defaultVal
	}
	if f, err := strconv.ParseFloat(s, 64); err == nil {
		return f
	}
	return defaultVal
}

func envBool(key string) bool {
	b, _ := strconv.ParseBool(os.Getenv(key))
	return b
}

func envList(key string) []string {
	var out []string
	for s := range strings.SplitSeq(os.Getenv(key), ",") {
		if s = strings.TrimSpace(s); s != "" {
			out = append(out, s)
		}
	}
	return out
}

// Load reads the configuration from the environment and, if TENANTS_FILE is
// set, the tenant list from that YAML file.
func Load() (*Config, error) {
	cfg := &Config{
		Database: DatabaseConfig{
			URL:          os.Getenv("DATABASE_URL"),
			MaxOpenConns: envInt("DATABASE_MAX_OPEN_CONNS", 25),
			MaxIdleConns: envInt("DATABASE_MAX_IDLE_CONNS", 5),
		},
		Matching: MatchingConfig{
			Threshold:     envFloat("MATCH_THRESHOLD", constants.DefaultMatchThreshold),
			DescriptorDim: envInt("DESCRIPTOR_DIM", constants.DefaultDescriptorDim),
			Strategy:      os.Getenv("MATCH_STRATEGY"),
		},
		Calendar: CalendarConfig{
			OffsetMinutes: envSignedInt("CIVIL_OFFSET_MINUTES", constants.DefaultCivilOffsetMinutes),
		},
		GeoFence: GeoFenceConfig{
			Enabled:      envBool("GEOFENCE_ENABLED"),
			CenterLat:    envFloat("GEOFENCE_CENTER_LAT", 0),
			CenterLon:    envFloat("GEOFENCE_CENTER_LON", 0),
			RadiusMeters: envFloat("GEOFENCE_RADIUS_METERS", constants.DefaultGeoFenceRadiusMeters),
		},
		Auth: AuthConfig{
			Email:         os.Getenv("AUTH_EMAIL"),
			PasswordHash:  os.Getenv("AUTH_PASSWORD_HASH"),
			SessionSecret: os.Getenv("WEB_SESSION_SECRET"),
		},
		Web: WebConfig{
			Host:                envString("WEB_HOST", "0.0.0.0"),
			Port:                envInt("WEB_PORT", 8080),
			AllowedOrigins:      envList("WEB_ALLOWED_ORIGINS"),
			SubmitRatePerMinute: envInt("WEB_SUBMIT_RATE_PER_MINUTE", constants.DefaultSubmitRatePerMinute),
		},
	}
	if cfg.Matching.Strategy == "" {
		cfg.Matching.Strategy = constants.MatchStrategyFirst
	}

	if path := os.Getenv("TENANTS_FILE"); path != "" {
		tenants, err := LoadTenants(path)
		if err != nil {
			return nil, err
		}
		cfg.Tenants = tenants
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func envString(key, defaultVal string) string {
	if s := os.Getenv(key); s != "" {
		return s
	}
	return defaultVal
}

// LoadTenants reads the tenant list from a YAML file. ${VAR} references in
// DSNs and password hashes are expanded from the environment so that secrets
// can stay out of the file.
func LoadTenants(path string) ([]TenantConfig, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading tenants file: %w", err)
	}
	return ParseTenants(data)
}

// ParseTenants decodes a tenants YAML document.
func ParseTenants(data []byte) ([]TenantConfig, error) {
	var f tenantsFile
	if err := yaml.Unmarshal(data, &f); err != nil {
		return nil, fmt.Errorf("parsing tenants file: %w", err)
	}
	for i := range f.Tenants {
		t := &f.Tenants[i]
		t.DSN = expandEnvRefs(t.DSN)
		t.PasswordHash = expandEnvRefs(t.PasswordHash)
		if t.Driver == "" {
			t.Driver = DriverPostgres
		}
	}
	return f.Tenants, nil
}

// Validate checks the configuration for values the core cannot work with.
func (c *Config) Validate() error {
	if c.Matching.Threshold <= 0 {
		return errors.New("MATCH_THRESHOLD must be positive")
	}
	if c.Matching.DescriptorDim <= 0 {
		return errors.New("DESCRIPTOR_DIM must be positive")
	}
	switch c.Matching.Strategy {
	case constants.MatchStrategyFirst, constants.MatchStrategyHNSW:
	default:
		return fmt.Errorf("unknown MATCH_STRATEGY %q", c.Matching.Strategy)
	}
	if c.Calendar.OffsetMinutes <= -24*60 || c.Calendar.OffsetMinutes >= 24*60 {
		return fmt.Errorf("CIVIL_OFFSET_MINUTES out of range: %d", c.Calendar.OffsetMinutes)
	}
	if err := c.GeoFence.validate(); err != nil {
		return err
	}

	seen := make(map[string]struct{}, len(c.Tenants))
	for _, t := range c.Tenants {
		if t.Key == DefaultTenant {
			return errors.New("tenant key must not be empty")
		}
		if _, dup := seen[t.Key]; dup {
			return fmt.Errorf("duplicate tenant key %q", t.Key)
		}
		seen[t.Key] = struct{}{}
		if t.Driver != DriverPostgres && t.Driver != DriverMariaDB {
			return fmt.Errorf("tenant %q: unsupported driver %q", t.Key, t.Driver)
		}
		if t.DSN == "" {
			return fmt.Errorf("tenant %q: dsn is required", t.Key)
		}
		if t.GeoFence != nil {
			if err := t.GeoFence.validate(); err != nil {
				return fmt.Errorf("tenant %q: %w", t.Key, err)
			}
		}
	}
	return nil
}

func (g GeoFenceConfig) validate() error {
	if !g.Enabled {
		return nil
	}
	if g.RadiusMeters <= 0 {
		return errors.New("geofence radius must be positive")
	}
	if g.CenterLat < -90 || g.CenterLat > 90 || g.CenterLon < -180 || g.CenterLon > 180 {
		return errors.New("geofence center is not a valid coordinate")
	}
	return nil
}

// GeoFenceFor returns the geofence settings that apply to a tenant. Tenants
// without their own section inherit the global settings.
func (c *Config) GeoFenceFor(tenant string) GeoFenceConfig {
	for _, t := range c.Tenants {
		if t.Key == tenant && t.GeoFence != nil {
			return *t.GeoFence
		}
	}
	return c.GeoFence
}

// Accounts returns every dealer login known to the configuration.
func (c *Config) Accounts() []Account {
	var accounts []Account
	if c.Auth.Email != "" && c.Auth.PasswordHash != "" {
		accounts = append(accounts, Account{
			Email:        c.Auth.Email,
			PasswordHash: c.Auth.PasswordHash,
			Tenant:       DefaultTenant,
		})
	}
	for _, t := range c.Tenants {
		if t.Email == "" || t.PasswordHash == "" {
			continue
		}
		accounts = append(accounts, Account{Email: t.Email, PasswordHash: t.PasswordHash, Tenant: t.Key})
	}
	return accounts
}
