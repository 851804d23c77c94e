package config // package config loads application configuration from environment variables

import (
	"fmt"
	"os"
	"sort"
	"strconv"
	"strings"
	"time"
)

// Config holds the runtime configuration required to boot the HTTP
// server.  Each field corresponds to an environment variable.
type Config struct {
	Env            string // application environment (e.g. "dev", "prod")
	Port           string // HTTP port to listen on
	DBUser         string // database username
	DBPass         string // database password (optional)
	DBHost         string // database host address
	DBPort         string // database port number
	DBName         string // database name
	JWTSecret      string // secret used to sign JWTs
	AccessTTLMin   int    // access token time-to-live in minutes
	RefreshTTLDays int    // refresh token time-to-live in days
	BcryptCost     int    // bcrypt cost for password hashing
}

// MissingError lists every required variable that was unset or invalid.
type MissingError struct {
	Keys    []string
	Invalid []string
}

func (e *MissingError) Error() string {
	var parts []string
	if len(e.Keys) > 0 {
		parts = append(parts, "missing required env vars: "+strings.Join(e.Keys, ", "))
	}
	if len(e.Invalid) > 0 {
		parts = append(parts, "invalid int env vars: "+strings.Join(e.Invalid, ", "))
	}
	return strings.Join(parts, "; ")
}

// Load reads configuration values from environment variables.  Unlike a
// fail-fast lookup it checks every key first so that a single error
// reports all problems at once.
func Load() (Config, error) {
	r := &reader{}
	cfg := Config{
		Env:            r.must("APP_ENV"),
		Port:           r.must("APP_PORT"),
		DBUser:         r.must("DB_USER"),
		DBPass:         os.Getenv("DB_PASS"), // empty allowed
		DBHost:         r.must("DB_HOST"),
		DBPort:         r.must("DB_PORT"),
		DBName:         r.must("DB_NAME"),
		JWTSecret:      r.must("JWT_SECRET"),
		AccessTTLMin:   r.mustInt("ACCESS_TOKEN_TTL_MIN"),
		RefreshTTLDays: r.mustInt("REFRESH_TOKEN_TTL_DAYS"),
		BcryptCost:     r.mustInt("BCRYPT_COST"),
	}
	if err := r.err(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// DatabaseConfig is the subset of Config needed to open the store.  The
// migrate and seatmap commands use it without requiring JWT settings.
type DatabaseConfig struct {
	User string
	Pass string
	Host string
	Port string
	Name string
}

// LoadDatabaseConfig reads only the DB_* variables.
func LoadDatabaseConfig() (DatabaseConfig, error) {
	r := &reader{}
	cfg := DatabaseConfig{
		User: r.must("DB_USER"),
		Pass: os.Getenv("DB_PASS"),
		Host: r.must("DB_HOST"),
		Port: r.must("DB_PORT"),
		Name: r.must("DB_NAME"),
	}
	if err := r.err(); err != nil {
		return DatabaseConfig{}, err
	}
	return cfg, nil
}

// Database returns the DB_* portion of the configuration.
func (c Config) Database() DatabaseConfig {
	return DatabaseConfig{User: c.DBUser, Pass: c.DBPass, Host: c.DBHost, Port: c.DBPort, Name: c.DBName}
}

// IsProduction reports whether APP_ENV names a production deployment.
func (c Config) IsProduction() bool {
	switch strings.ToLower(c.Env) {
	case "prod", "production":
		return true
	}
	return false
}

// BookingConfig tunes the order commit engine and its satellites.
type BookingConfig struct {
	CommitTimeout      time.Duration // upper bound for one order transaction
	OrderPageSize      int           // orders per page on GET /v1/orders
	AuditEnabled       bool          // run the periodic consistency audit
	AuditInterval      time.Duration // how often the audit runs
	OrderEventsEnabled bool          // publish order.created events
	IdempotencyTTL     time.Duration // how long an Idempotency-Key is remembered
}

// LoadBookingConfig reads booking settings, falling back to defaults.
func LoadBookingConfig() BookingConfig {
	cfg := BookingConfig{
		CommitTimeout:      envDur("BOOKING_COMMIT_TIMEOUT", 5*time.Second),
		OrderPageSize:      envInt("ORDER_PAGE_SIZE", 10),
		AuditEnabled:       envBool("AUDIT_ENABLED", true),
		AuditInterval:      envDur("AUDIT_INTERVAL", 5*time.Minute),
		OrderEventsEnabled: envBool("ORDER_EVENTS_ENABLED", true),
		IdempotencyTTL:     envDur("IDEMPOTENCY_TTL", 24*time.Hour),
	}
	if cfg.CommitTimeout <= 0 {
		cfg.CommitTimeout = 5 * time.Second
	}
	if cfg.OrderPageSize < 1 {
		cfg.OrderPageSize = 10
	}
	if cfg.AuditInterval < time.Second {
		cfg.AuditInterval = time.Second
	}
	return cfg
}

// reader accumulates missing and malformed keys.
type reader struct {
	missing []string
	invalid []string
}

func (r *reader) must(key string) string {
	v, ok := os.LookupEnv(key)
	if !ok || v == "" {
		r.missing = append(r.missing, key)
	}
	return v
}

func (r *reader) mustInt(key string) int {
	s := r.must(key)
	if s == "" {
		return 0
	}
	n, err := strconv.Atoi(s)
	if err != nil {
		r.invalid = append(r.invalid, fmt.Sprintf("%s=%q", key, s))
	}
	return n
}

func (r *reader) err() error {
	if len(r.missing) == 0 && len(r.invalid) == 0 {
		return nil
	}
	sort.Strings(r.missing)
	return &MissingError{Keys: r.missing, Invalid: r.invalid}
}

// LogSettings returns APP_ENV and LOG_LEVEL for commands that build a
// logger before, or without, the full Config.
func LogSettings() (env, level string) {
	return envStr("APP_ENV", "dev"), envStr("LOG_LEVEL", "info")
}
