// Package config handles loading and validating runtime configuration for the Gym API.
// Configuration values (database DSN, port, password hashing cost, ...) are read from
// environment variables rather than being hardcoded, so the same binary runs in every
// environment. A .env file in the working directory is honoured for local development.
package config

import (
	"fmt"
	"strings"
	"time"

	// mapstructure supplies the decode hooks koanf runs while unmarshalling.
	"github.com/go-viper/mapstructure/v2"
	// godotenv reads a .env file and loads its key=value pairs into the process environment.
	"github.com/joho/godotenv"
	// koanf layers the built-in defaults under the environment and decodes the
	// merged result into the Config struct (durations, ints and comma lists included).
	"github.com/knadh/koanf/providers/confmap"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/v2"
	"golang.org/x/crypto/bcrypt"
)

// Supported values for DATABASE_DRIVER.
const (
	DriverMySQL    = "mysql"
	DriverPostgres = "postgres"
)

// Supported values for UNSET_FILTER: how an omitted list filter is sent to a procedure.
const (
	UnsetFilterEmpty = "empty" // bind '' (the convention the deployed procedures expect)
	UnsetFilterNull  = "null"  // bind SQL NULL
)

// Config holds all runtime configuration values for the application.
type Config struct {
	Port     string `conf:"port"`      // TCP port the HTTP server listens on
	Env      string `conf:"env"`       // "development", "staging" or "production"
	LogLevel string `conf:"log_level"` // zap level name: debug, info, warn, error

	DatabaseDriver   string        `conf:"database_driver"`      // "mysql" or "postgres"
	DatabaseURL      string        `conf:"database_url"`         // Driver-specific DSN; required
	MaxOpenConns     int           `conf:"db_max_open_conns"`    // Upper bound on concurrent procedure calls
	MaxIdleConns     int           `conf:"db_max_idle_conns"`    // Connections kept warm between requests
	ConnMaxLifetime  time.Duration `conf:"db_conn_max_lifetime"` // Recycle connections after this long
	CallTimeout      time.Duration `conf:"db_call_timeout"`      // Deadline for a single CALL round trip
	MigrationsURL    string        `conf:"migrations_url"`       // Optional golang-migrate source, e.g. file://migrations
	UnsetFilter      string        `conf:"unset_filter"`         // See UnsetFilterEmpty / UnsetFilterNull
	BcryptCost       int           `conf:"bcrypt_cost"`          // Work factor for password hashes
	PasswordColumn   string        `conf:"password_column"`      // Column of the Login row holding the stored hash
	JWTSecret        string        `conf:"jwt_secret"`           // HMAC key for login tokens; empty disables tokens
	JWTTTL           time.Duration `conf:"jwt_ttl"`              // Lifetime of issued tokens
	CORSOrigins      []string      `conf:"cors_origins"`         // Allowed origins, "*" for any
	BodyLimit        int           `conf:"body_limit"`           // Max request body in bytes
	ReadinessTimeout time.Duration `conf:"readiness_timeout"`    // Deadline for the /health/ready ping
	ShutdownTimeout  time.Duration `conf:"shutdown_timeout"`     // Grace period for in-flight requests on SIGTERM
}

// defaults are layered underneath the environment. Keys match the conf tags above,
// which in turn are the lower-cased environment variable names.
var defaults = map[string]interface{}{
	"port":                 "14291",
	"env":                  "development",
	"log_level":            "info",
	"database_driver":      DriverMySQL,
	"db_max_open_conns":    10,
	"db_max_idle_conns":    5,
	"db_conn_max_lifetime": "30m",
	"db_call_timeout":      "15s",
	"unset_filter":         UnsetFilterEmpty,
	"bcrypt_cost":          bcrypt.DefaultCost,
	"password_column":      "Password",
	"jwt_ttl":              "24h",
	"cors_origins":         "*",
	"body_limit":           1024 * 1024,
	"readiness_timeout":    "2s",
	"shutdown_timeout":     "10s",
}

// Load reads configuration from the environment (after an optional .env file) on top
// of the built-in defaults and validates the result.
func Load() (*Config, error) {
	// A missing .env is fine: real environment variables are set by the deployment platform.
	_ = godotenv.Load()

	k := koanf.New(".")

	if err := k.Load(confmap.Provider(defaults, "."), nil); err != nil {
		return nil, fmt.Errorf("load config defaults: %w", err)
	}

	// DATABASE_URL -> database_url. The "." delimiter never appears in our keys, so
	// every variable stays a flat key.
	if err := k.Load(env.Provider("", ".", strings.ToLower), nil); err != nil {
		return nil, fmt.Errorf("load environment: %w", err)
	}

	// koanf's default decoder only knows durations; comma lists such as
	// CORS_ORIGINS=a,b need the slice hook as well.
	var cfg Config
	if err := k.UnmarshalWithConf("", &cfg, koanf.UnmarshalConf{
		Tag: "conf",
		DecoderConfig: &mapstructure.DecoderConfig{
			DecodeHook: mapstructure.ComposeDecodeHookFunc(
				mapstructure.StringToTimeDurationHookFunc(),
				mapstructure.StringToSliceHookFunc(","),
			),
			Result:           &cfg,
			WeaklyTypedInput: true,
		},
	}); err != nil {
		return nil, fmt.Errorf("decode config: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return &cfg, nil
}

// Validate rejects configurations the server cannot start with.
func (c *Config) Validate() error {
	switch c.DatabaseDriver {
	case DriverMySQL, DriverPostgres:
	default:
		return fmt.Errorf("config: unsupported DATABASE_DRIVER %q (want %q or %q)",
			c.DatabaseDriver, DriverMySQL, DriverPostgres)
	}

	if c.DatabaseURL == "" {
		return fmt.Errorf("config: DATABASE_URL is required")
	}

	if c.BcryptCost < bcrypt.MinCost || c.BcryptCost > bcrypt.MaxCost {
		return fmt.Errorf("config: BCRYPT_COST must be between %d and %d, got %d",
			bcrypt.MinCost, bcrypt.MaxCost, c.BcryptCost)
	}

	switch c.UnsetFilter {
	case UnsetFilterEmpty, UnsetFilterNull:
	default:
		return fmt.Errorf("config: unsupported UNSET_FILTER %q", c.UnsetFilter)
	}

	if c.PasswordColumn == "" {
		return fmt.Errorf("config: PASSWORD_COLUMN cannot be empty")
	}

	if c.CallTimeout <= 0 {
		return fmt.Errorf("config: DB_CALL_TIMEOUT must be positive")
	}

	return nil
}

// IsProduction reports whether the server runs with production defaults
// (JSON logs, no stack traces in recovered panics).
func (c *Config) IsProduction() bool {
	return c.Env == "production"
}
