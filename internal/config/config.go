package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/rs/zerolog"
)

// Storage backends.
const (
	StoreMemory   = "memory"
	StorePostgres = "postgres"
)

// Config holds service configuration.
type Config struct {
	ServerAddr        string
	Store             string
	DatabaseURL       string
	RunMigrations     bool
	LogLevel          string
	AdmissionRule     string
	AdminTokenHash    string
	TransitionRetries int
	ShutdownTimeout   time.Duration
	CatalogTitle      string
	SeedFile          string
}

// Load reads configuration from environment.
func Load() (*Config, error) {
	dsn := os.Getenv("DATABASE_URL")
	if dsn == "" {
		user := getenv("POSTGRES_USER", "connector")
		pass := getenv("POSTGRES_PASSWORD", "connector_pass")
		db := getenv("POSTGRES_DB", "connector")
		host := getenv("POSTGRES_HOST", "localhost")
		port := getenv("POSTGRES_PORT", "5432")
		sslmode := getenv("DATABASE_SSLMODE", "disable")
		dsn = fmt.Sprintf("postgres://%s:%s@%s:%s/%s?sslmode=%s", user, pass, host, port, db, sslmode)
	}

	cfg := &Config{
		ServerAddr:        getenv("SERVER_ADDR", "0.0.0.0:3000"),
		Store:             strings.ToLower(getenv("STORE", StoreMemory)),
		DatabaseURL:       dsn,
		RunMigrations:     parseBool(getenv("MIGRATIONS", "true"), true),
		LogLevel:          strings.ToLower(getenv("LOG_LEVEL", "info")),
		AdmissionRule:     os.Getenv("ADMISSION_RULE"),
		AdminTokenHash:    os.Getenv("ADMIN_TOKEN_HASH"),
		TransitionRetries: parseInt(getenv("TRANSITION_RETRIES", "3"), 3),
		ShutdownTimeout:   parseDuration(getenv("SHUTDOWN_TIMEOUT", "10s"), 10*time.Second),
		CatalogTitle:      getenv("CATALOG_TITLE", "Connector Catalog"),
		SeedFile:          os.Getenv("SEED_FILE"),
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate reports every invalid setting at once.
func (c *Config) Validate() error {
	var errs []error
	switch c.Store {
	case StoreMemory, StorePostgres:
	default:
		errs = append(errs, fmt.Errorf("STORE must be %q or %q, got %q", StoreMemory, StorePostgres, c.Store))
	}
	if c.ServerAddr == "" {
		errs = append(errs, errors.New("SERVER_ADDR must not be empty"))
	}
	if _, err := zerolog.ParseLevel(c.LogLevel); err != nil {
		errs = append(errs, fmt.Errorf("LOG_LEVEL: %w", err))
	}
	if c.TransitionRetries < 0 {
		errs = append(errs, errors.New("TRANSITION_RETRIES must not be negative"))
	}
	if c.ShutdownTimeout <= 0 {
		errs = append(errs, errors.New("SHUTDOWN_TIMEOUT must be positive"))
	}
	if c.AdminTokenHash != "" && !strings.HasPrefix(c.AdminTokenHash, "$2") {
		errs = append(errs, errors.New("ADMIN_TOKEN_HASH must be a bcrypt hash"))
	}
	return errors.Join(errs...)
}

// Level returns the parsed log level.
func (c *Config) Level() zerolog.Level {
	lvl, err := zerolog.ParseLevel(c.LogLevel)
	if err != nil {
		return zerolog.InfoLevel
	}
	return lvl
}

func getenv(key, def string) string {
	val := os.Getenv(key)
	if val == "" {
		return def
	}
	return val
}

func parseDuration(val string, def time.Duration) time.Duration {
	if val == "" {
		return def
	}
	d, err := time.ParseDuration(val)
	if err != nil {
		return def
	}
	return d
}

func parseBool(val string, def bool) bool {
	if val == "" {
		return def
	}
	b, err := strconv.ParseBool(val)
	if err != nil {
		return def
	}
	return b
}

func parseInt(val string, def int) int {
	if val == "" {
		return def
	}
	i, err := strconv.Atoi(val)
	if err != nil {
		return def
	}
	return i
}
