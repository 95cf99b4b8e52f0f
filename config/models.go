package config

import (
	"errors"
	"fmt"
	"time"
)

// Repository backends.
const (
	BackendPostgres = "postgres"
	BackendMemory   = "memory"
)

// Config holds application configuration.
type Config struct {
	Server     ServerConfig     `mapstructure:"server"`
	Postgres   PostgresConfig   `mapstructure:"postgres"`
	Repository RepositoryConfig `mapstructure:"repository"`
	HTTP       HTTPConfig       `mapstructure:"http"`
	Logging    LoggingConfig    `mapstructure:"logging"`
	Dedup      DedupConfig      `mapstructure:"dedup"`
	Metrics    MetricsConfig    `mapstructure:"metrics"`
}

// Validate ensures required fields are present.
func (c Config) Validate() error {
	if c.Server.Port == 0 {
		return errors.New("server.port is required")
	}
	switch c.Repository.Backend {
	case BackendPostgres:
		if c.Postgres.User == "" || c.Postgres.Password == "" || c.Postgres.DBName == "" {
			return errors.New("postgres credentials are required")
		}
		if c.Postgres.Host == "" {
			return errors.New("postgres.host is required")
		}
	case BackendMemory:
	default:
		return fmt.Errorf("repository.backend %q is not supported", c.Repository.Backend)
	}
	if c.Dedup.DefaultThreshold < 0 || c.Dedup.DefaultThreshold > 100 {
		return errors.New("dedup.default_threshold must be within 0..100")
	}
	if c.Dedup.UndoWindow <= 0 {
		return errors.New("dedup.undo_window must be positive")
	}
	if c.Dedup.ScanWorkers < 0 {
		return errors.New("dedup.scan_workers must not be negative")
	}
	return nil
}

// ServerAddr returns host:port for HTTP server binding.
func (c Config) ServerAddr() string {
	return fmt.Sprintf("%s:%d", c.Server.Host, c.Server.Port)
}

// ServerConfig contains HTTP server options.
type ServerConfig struct {
	Host            string        `mapstructure:"host"`
	Port            int           `mapstructure:"port"`
	ShutdownTimeout time.Duration `mapstructure:"shutdown_timeout"`
}

// HTTPConfig contains transport settings.
type HTTPConfig struct {
	RequestTimeout time.Duration `mapstructure:"request_timeout"`
}

// LoggingConfig contains logger preferences.
type LoggingConfig struct {
	Level string `mapstructure:"level"`
}

// RepositoryConfig selects the storage backend.
type RepositoryConfig struct {
	Backend string `mapstructure:"backend"`
}

// DedupConfig tunes duplicate detection and merging.
type DedupConfig struct {
	DefaultThreshold int           `mapstructure:"default_threshold"`
	UndoWindow       time.Duration `mapstructure:"undo_window"`
	// ScanWorkers bounds scan parallelism; zero means one worker per CPU.
	ScanWorkers int           `mapstructure:"scan_workers"`
	ScanTimeout time.Duration `mapstructure:"scan_timeout"`
}

// MetricsConfig controls the Prometheus endpoint.
type MetricsConfig struct {
	Enabled bool   `mapstructure:"enabled"`
	Path    string `mapstructure:"path"`
}

// PostgresConfig describes database connection parameters.
type PostgresConfig struct {
	Host           string        `mapstructure:"host"`
	Port           int           `mapstructure:"port"`
	User           string        `mapstructure:"user"`
	Password       string        `mapstructure:"password"`
	DBName         string        `mapstructure:"db_name"`
	SSLMode        string        `mapstructure:"ssl_mode"`
	MigrationsDir  string        `mapstructure:"migrations_dir"`
	MigrateTimeout time.Duration `mapstructure:"migrate_timeout"`
	QueryTimeout   time.Duration `mapstructure:"query_timeout"`
	MaxConns       int32         `mapstructure:"max_conns"`
	MinConns       int32         `mapstructure:"min_conns"`
}

// DSN returns a Postgres connection string.
func (p PostgresConfig) DSN() string {
	return fmt.Sprintf(
		"host=%s port=%d user=%s password=%s dbname=%s sslmode=%s",
		p.Host, p.Port, p.User, p.Password, p.DBName, p.SSLMode,
	)
}
