// Package config loads the qagate service configuration from TOML files,
// a .env file and QAGATE_* environment variables.
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"time"

	"github.com/joho/godotenv"
	"github.com/pelletier/go-toml/v2"

	"github.com/JaimeStill/qagate/internal/analytics"
	"github.com/JaimeStill/qagate/internal/records"
	"github.com/JaimeStill/qagate/pkg/database"
	"github.com/JaimeStill/qagate/pkg/storage"
)

const (
	BaseConfigFile       = "config.toml"
	OverlayConfigPattern = "config.%s.toml"
	DotEnvFile           = ".env"

	EnvQagateEnv             = "QAGATE_ENV"
	EnvQagateShutdownTimeout = "QAGATE_SHUTDOWN_TIMEOUT"
	EnvQagateVersion         = "QAGATE_VERSION"
)

var databaseEnv = &database.Env{
	Driver:          "QAGATE_DB_DRIVER",
	Path:            "QAGATE_DB_PATH",
	Host:            "QAGATE_DB_HOST",
	Port:            "QAGATE_DB_PORT",
	Name:            "QAGATE_DB_NAME",
	User:            "QAGATE_DB_USER",
	Password:        "QAGATE_DB_PASSWORD",
	SSLMode:         "QAGATE_DB_SSL_MODE",
	MaxOpenConns:    "QAGATE_DB_MAX_OPEN_CONNS",
	MaxIdleConns:    "QAGATE_DB_MAX_IDLE_CONNS",
	ConnMaxLifetime: "QAGATE_DB_CONN_MAX_LIFETIME",
	ConnTimeout:     "QAGATE_DB_CONN_TIMEOUT",
	AutoMigrate:     "QAGATE_DB_AUTO_MIGRATE",
}

var storageEnv = &storage.Env{
	Enabled:          "QAGATE_STORAGE_ENABLED",
	ContainerName:    "QAGATE_STORAGE_CONTAINER_NAME",
	ConnectionString: "QAGATE_STORAGE_CONNECTION_STRING",
	AccountURL:       "QAGATE_STORAGE_ACCOUNT_URL",
}

var ingestEnv = &records.Env{
	Granularity:          "QAGATE_INGEST_GRANULARITY",
	ExcludedFailureModes: "QAGATE_INGEST_EXCLUDED_FAILURE_MODES",
}

var analyticsEnv = &analytics.Env{
	WarningThreshold:  "QAGATE_ANALYTICS_WARNING_THRESHOLD",
	CriticalThreshold: "QAGATE_ANALYTICS_CRITICAL_THRESHOLD",
	OutlierThreshold:  "QAGATE_ANALYTICS_OUTLIER_THRESHOLD",
	OutlierMethod:     "QAGATE_ANALYTICS_OUTLIER_METHOD",
	Window:            "QAGATE_ANALYTICS_WINDOW",
	Bucket:            "QAGATE_ANALYTICS_BUCKET",
}

// Config is the root configuration for the qagate service and CLI.
type Config struct {
	Server          ServerConfig     `toml:"server"`
	Database        database.Config  `toml:"database"`
	Storage         storage.Config   `toml:"storage"`
	API             APIConfig        `toml:"api"`
	Logging         LoggingConfig    `toml:"logging"`
	Ingest          records.Config   `toml:"ingest"`
	Analytics       analytics.Config `toml:"analytics"`
	ShutdownTimeout string           `toml:"shutdown_timeout"`
	Version         string           `toml:"version"`
}

// Env returns the QAGATE_ENV value, defaulting to "local".
func (c *Config) Env() string {
	if env := os.Getenv(EnvQagateEnv); env != "" {
		return env
	}
	return "local"
}

// ShutdownTimeoutDuration returns ShutdownTimeout as a time.Duration.
func (c *Config) ShutdownTimeoutDuration() time.Duration {
	return duration(c.ShutdownTimeout)
}

// Load reads the configuration from the working directory. See LoadFrom.
func Load() (*Config, error) {
	return LoadFrom(".")
}

// LoadFrom loads dir/.env into the process environment without replacing
// variables that are already set, reads dir/config.toml and the
// config.<QAGATE_ENV>.toml overlay when present, and finalizes all values.
// With no files present, defaults and environment variables provide all
// configuration.
func LoadFrom(dir string) (*Config, error) {
	if err := godotenv.Load(filepath.Join(dir, DotEnvFile)); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("load %s: %w", DotEnvFile, err)
	}

	cfg := &Config{}

	base := filepath.Join(dir, BaseConfigFile)
	if _, err := os.Stat(base); err == nil {
		loaded, err := load(base)
		if err != nil {
			return nil, err
		}
		cfg = loaded
	}

	if path := overlayPath(dir); path != "" {
		overlay, err := load(path)
		if err != nil {
			return nil, fmt.Errorf("load overlay %s: %w", path, err)
		}
		cfg.Merge(overlay)
	}

	if err := cfg.Finalize(); err != nil {
		return nil, fmt.Errorf("finalize config: %w", err)
	}

	return cfg, nil
}

// Merge overwrites non-zero fields from overlay across all sub-configs.
func (c *Config) Merge(overlay *Config) {
	mergeString(&c.ShutdownTimeout, overlay.ShutdownTimeout)
	mergeString(&c.Version, overlay.Version)
	c.Server.Merge(&overlay.Server)
	c.Database.Merge(&overlay.Database)
	c.Storage.Merge(&overlay.Storage)
	c.API.Merge(&overlay.API)
	c.Logging.Merge(&overlay.Logging)
	c.Ingest.Merge(&overlay.Ingest)
	c.Analytics.Merge(&overlay.Analytics)
}

// Finalize applies defaults, QAGATE_* overrides and validation to every section.
func (c *Config) Finalize() error {
	if c.ShutdownTimeout == "" {
		c.ShutdownTimeout = "30s"
	}
	if c.Version == "" {
		c.Version = "0.1.0"
	}
	envString(&c.ShutdownTimeout, EnvQagateShutdownTimeout)
	envString(&c.Version, EnvQagateVersion)

	if _, err := time.ParseDuration(c.ShutdownTimeout); err != nil {
		return fmt.Errorf("invalid shutdown_timeout: %w", err)
	}

	sections := []struct {
		name     string
		finalize func() error
	}{
		{"server", c.Server.Finalize},
		{"database", func() error { return c.Database.Finalize(databaseEnv) }},
		{"storage", func() error { return c.Storage.Finalize(storageEnv) }},
		{"api", c.API.Finalize},
		{"logging", c.Logging.Finalize},
		{"ingest", func() error { return c.Ingest.Finalize(ingestEnv) }},
		{"analytics", func() error { return c.Analytics.Finalize(analyticsEnv) }},
	}
	for _, s := range sections {
		if err := s.finalize(); err != nil {
			return fmt.Errorf("%s: %w", s.name, err)
		}
	}
	return nil
}

func load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config: %w", err)
	}

	var cfg Config
	if err := toml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("parse config %s: %w", path, err)
	}

	return &cfg, nil
}

func overlayPath(dir string) string {
	if env := os.Getenv(EnvQagateEnv); env != "" {
		path := filepath.Join(dir, fmt.Sprintf(OverlayConfigPattern, env))
		if _, err := os.Stat(path); err == nil {
			return path
		}
	}
	return ""
}
