// Package config handles loading application configuration from environment
// variables. All config is centralized here so no other package reads env
// vars directly. Sensible defaults are provided for development.
package config

import (
	"fmt"
	"net"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/go-sql-driver/mysql"
)

// Storage backends understood by the key/value store.
const (
	BackendSQLite = "sqlite"
	BackendRedis  = "redis"
	BackendMySQL  = "mysql"
	BackendMemory = "memory"
)

// MaxActiveMissions caps the mission board size.
const MaxActiveMissions = 3

// Config holds all application configuration. Populated from environment
// variables at startup. Passed to other packages via dependency injection.
type Config struct {
	// Env is the runtime environment: "development" or "production".
	Env string

	// Port is the HTTP listen port (default: 8080).
	Port int

	// BaseURL is the public-facing URL of the web client, used for CORS.
	BaseURL string

	// LogLevel controls log verbosity: "debug", "info", "warn", "error".
	LogLevel string

	// TrustedProxies lists the CIDRs whose forwarding headers are believed
	// when resolving the client IP.
	TrustedProxies []string

	// Store selects and tunes the local key/value store.
	Store StoreConfig

	// Database holds MariaDB connection settings (STORE_BACKEND=mysql).
	Database DatabaseConfig

	// Redis holds Redis connection settings (STORE_BACKEND=redis).
	Redis RedisConfig

	// Remote holds settings for the Sprout Found backend API.
	Remote RemoteConfig

	// Missions holds mission rotation settings.
	Missions MissionsConfig
}

// StoreConfig holds the key/value store settings.
type StoreConfig struct {
	// Backend is one of "sqlite", "redis", "mysql", "memory" (default: "sqlite").
	Backend string

	// Path is the sqlite database file (default: "./data/sproutfound.db").
	Path string

	// Namespace scopes all keys of this client in shared backends like Redis.
	Namespace string

	// Secret, when set, seals stored values with AES-256-GCM. Empty means
	// values are only base64-encoded.
	Secret string

	// InitTimeout bounds how long the lazy backend initialization may take.
	InitTimeout time.Duration
}

// DatabaseConfig holds MariaDB connection parameters. Individual fields
// (Host, User, Password, Name) are read from separate env vars.
// If DATABASE_URL is set, it takes precedence over the individual fields.
type DatabaseConfig struct {
	// Host is the MariaDB address in host:port format (default: "localhost:3306").
	// If no port is specified, 3306 is appended automatically.
	Host string

	// User is the MariaDB username (default: "sprout").
	User string

	// Password is the MariaDB password (default: "sprout").
	Password string

	// Name is the database name (default: "sprout").
	Name string

	// dsnOverride is set when DATABASE_URL is provided, bypassing individual fields.
	dsnOverride string

	// MaxOpenConns is the maximum number of open connections in the pool.
	MaxOpenConns int

	// MaxIdleConns is the maximum number of idle connections in the pool.
	MaxIdleConns int

	// ConnMaxLifetime is how long a connection can be reused.
	ConnMaxLifetime time.Duration

	// MigrationsPath is the directory holding the *.up.sql files.
	MigrationsPath string
}

// DSN returns the go-sql-driver/mysql connection string. If DATABASE_URL was
// set, it is returned as-is. Otherwise the DSN is built from the individual
// Host/User/Password/Name fields using the driver's Config.FormatDSN()
// to safely handle special characters in passwords.
func (d DatabaseConfig) DSN() string {
	if d.dsnOverride != "" {
		return d.dsnOverride
	}
	cfg := mysql.NewConfig()
	cfg.User = d.User
	cfg.Passwd = d.Password
	cfg.Net = "tcp"
	cfg.Addr = ensurePort(d.Host, "3306")
	cfg.DBName = d.Name
	cfg.ParseTime = true
	cfg.MultiStatements = true
	return cfg.FormatDSN()
}

// ensurePort appends the default port if the host string doesn't include one.
func ensurePort(host, defaultPort string) string {
	_, _, err := net.SplitHostPort(host)
	if err != nil {
		return net.JoinHostPort(host, defaultPort)
	}
	return host
}

// RedisConfig holds Redis connection parameters.
type RedisConfig struct {
	// URL is the Redis connection URL (e.g., "redis://localhost:6379").
	URL string
}

// RemoteConfig holds the backend API client settings.
type RemoteConfig struct {
	// BaseURL is the backend root including its path prefix.
	BaseURL string

	// Timeout applies to every remote call.
	Timeout time.Duration
}

// MissionsConfig holds the gamified mission settings.
type MissionsConfig struct {
	// RotateInterval is how long a rotation stays active (default: 3m).
	RotateInterval time.Duration

	// ActiveCount is the maximum number of missions per rotation, 1 to
	// MaxActiveMissions.
	ActiveCount int

	// TickInterval is how often the rotation countdown is recomputed.
	TickInterval time.Duration

	// CatalogFile optionally replaces the built-in catalog with a YAML file.
	CatalogFile string
}

// Load reads configuration from environment variables with sensible defaults.
// Returns an error if a value is present but unusable.
func Load() (*Config, error) {
	cfg := &Config{
		Env:      getEnv("ENV", "development"),
		Port:     getEnvInt("PORT", 8080),
		BaseURL:  getEnv("BASE_URL", "http://localhost:5173"),
		LogLevel: getEnv("LOG_LEVEL", "debug"),

		TrustedProxies: getEnvList("TRUSTED_PROXIES", []string{"127.0.0.0/8", "::1/128"}),

		Store: StoreConfig{
			Backend:     strings.ToLower(getEnv("STORE_BACKEND", BackendSQLite)),
			Path:        getEnv("STORE_PATH", "./data/sproutfound.db"),
			Namespace:   getEnv("STORE_NAMESPACE", "sproutfound"),
			Secret:      getEnv("STORE_SECRET", ""),
			InitTimeout: getEnvDuration("STORE_INIT_TIMEOUT", 10*time.Second),
		},

		Database: DatabaseConfig{
			Host:            getEnv("DB_HOST", "localhost:3306"),
			User:            getEnv("DB_USER", "sprout"),
			Password:        getEnv("DB_PASSWORD", "sprout"),
			Name:            getEnv("DB_NAME", "sprout"),
			dsnOverride:     getEnv("DATABASE_URL", ""),
			MaxOpenConns:    getEnvInt("DB_MAX_OPEN_CONNS", 10),
			MaxIdleConns:    getEnvInt("DB_MAX_IDLE_CONNS", 2),
			ConnMaxLifetime: getEnvDuration("DB_CONN_MAX_LIFETIME", 5*time.Minute),
			MigrationsPath:  getEnv("DB_MIGRATIONS_PATH", "db/migrations"),
		},

		Redis: RedisConfig{
			URL: getEnv("REDIS_URL", "redis://localhost:6379"),
		},

		Remote: RemoteConfig{
			BaseURL: strings.TrimRight(getEnv("REMOTE_API_URL", "http://localhost:3000/api"), "/"),
			Timeout: getEnvDuration("REMOTE_TIMEOUT", 10*time.Second),
		},

		Missions: MissionsConfig{
			RotateInterval: getEnvDuration("MISSION_ROTATE_INTERVAL", 3*time.Minute),
			ActiveCount:    getEnvInt("MISSION_ACTIVE_COUNT", 3),
			TickInterval:   getEnvDuration("MISSION_TICK_INTERVAL", time.Second),
			CatalogFile:    getEnv("MISSION_CATALOG_FILE", ""),
		},
	}

	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// validate rejects combinations that would leave the core in a broken state.
func (c *Config) validate() error {
	switch c.Store.Backend {
	case BackendSQLite, BackendRedis, BackendMySQL, BackendMemory:
	default:
		return fmt.Errorf("STORE_BACKEND %q is not one of sqlite, redis, mysql, memory", c.Store.Backend)
	}
	if c.Missions.RotateInterval <= 0 {
		return fmt.Errorf("MISSION_ROTATE_INTERVAL must be positive")
	}
	if c.Missions.ActiveCount <= 0 || c.Missions.ActiveCount > MaxActiveMissions {
		return fmt.Errorf("MISSION_ACTIVE_COUNT must be between 1 and %d", MaxActiveMissions)
	}
	if c.Missions.TickInterval <= 0 {
		return fmt.Errorf("MISSION_TICK_INTERVAL must be positive")
	}

	// Sealing with a guessable secret is worse than plain encoding because it
	// suggests protection that isn't there.
	envLower := strings.ToLower(c.Env)
	if (envLower == "production" || envLower == "prod") && c.Store.Secret != "" && len(c.Store.Secret) < 32 {
		return fmt.Errorf("STORE_SECRET must be at least 32 characters in production")
	}
	return nil
}

// IsDevelopment returns true if running in development mode.
func (c *Config) IsDevelopment() bool {
	env := strings.ToLower(c.Env)
	return env == "development" || env == "dev"
}

// --- Helper functions for reading environment variables ---

// getEnv reads a string env var or returns the default.
func getEnv(key, defaultVal string) string {
	if val, ok := os.LookupEnv(key); ok {
		return val
	}
	return defaultVal
}

// getEnvList reads a comma-separated env var or returns the default. Empty
// items are dropped.
func getEnvList(key string, defaultVal []string) []string {
	val, ok := os.LookupEnv(key)
	if !ok {
		return defaultVal
	}
	var out []string
	for _, item := range strings.Split(val, ",") {
		if item = strings.TrimSpace(item); item != "" {
			out = append(out, item)
		}
	}
	return out
}

// getEnvInt reads an integer env var or returns the default.
func getEnvInt(key string, defaultVal int) int {
	if val, ok := os.LookupEnv(key); ok {
		if i, err := strconv.Atoi(val); err == nil {
			return i
		}
	}
	return defaultVal
}

// getEnvDuration reads a duration env var (e.g., "3m") or returns the default.
func getEnvDuration(key string, defaultVal time.Duration) time.Duration {
	if val, ok := os.LookupEnv(key); ok {
		if d, err := time.ParseDuration(val); err == nil {
			return d
		}
	}
	return defaultVal
}
