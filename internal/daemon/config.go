// Package daemon manages the Bloom daemon lifecycle and configuration.
package daemon

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/BurntSushi/toml"
	"github.com/joho/godotenv"
)

// Config holds all daemon configuration.
type Config struct {
	API       APIConfig       `toml:"api"`
	Store     StoreConfig     `toml:"store"`
	Engine    EngineConfig    `toml:"engine"`
	Logging   LoggingConfig   `toml:"logging"`
	Telemetry TelemetryConfig `toml:"telemetry"`
}

// APIConfig controls the HTTP API server.
type APIConfig struct {
	Host        string   `toml:"host"`
	Port        int      `toml:"port"`
	CORSOrigins []string `toml:"cors_origins"`
}

// StoreConfig selects where the two state documents live.
type StoreConfig struct {
	Backend      string `toml:"backend"` // sqlite, redis or memory
	RedisURL     string `toml:"redis_url"`
	RedisPrefix  string `toml:"redis_prefix"`
	HistoryLimit int    `toml:"history_limit"`
}

// EngineConfig controls the gamification engine.
type EngineConfig struct {
	Timezone          string `toml:"timezone"`
	ReconcileInterval string `toml:"reconcile_interval"`
}

// LoggingConfig controls logging behavior.
type LoggingConfig struct {
	Level string `toml:"level"`
	File  string `toml:"file"`
}

// TelemetryConfig controls the Prometheus endpoint.
type TelemetryConfig struct {
	Prometheus bool `toml:"prometheus"`
}

// Store backends.
const (
	BackendSQLite = "sqlite"
	BackendRedis  = "redis"
	BackendMemory = "memory"
)

// DefaultConfig returns a sensible default configuration.
func DefaultConfig() Config {
	return Config{
		API: APIConfig{
			Host:        "127.0.0.1",
			Port:        7420,
			CORSOrigins: []string{"*"},
		},
		Store: StoreConfig{
			Backend:      BackendSQLite,
			RedisURL:     "redis://localhost:6379/0",
			RedisPrefix:  "bloom:",
			HistoryLimit: 20,
		},
		Engine: EngineConfig{
			Timezone:          "Local",
			ReconcileInterval: "15m",
		},
		Logging: LoggingConfig{
			Level: "info",
		},
		Telemetry: TelemetryConfig{
			Prometheus: true,
		},
	}
}

// LoadConfig reads $BLOOM_HOME/.env and $BLOOM_HOME/config.toml, then
// applies BLOOM_* environment overrides.
func LoadConfig() (Config, error) {
	home := bloomHome()
	if err := godotenv.Load(filepath.Join(home, ".env")); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return DefaultConfig(), fmt.Errorf("load .env: %w", err)
	}
	return LoadConfigFile(filepath.Join(home, "config.toml"))
}

// LoadConfigFile decodes path over the defaults and applies environment
// overrides. A missing file is not an error.
func LoadConfigFile(path string) (Config, error) {
	cfg := DefaultConfig()

	if _, err := os.Stat(path); err == nil {
		if _, err := toml.DecodeFile(path, &cfg); err != nil {
			return cfg, fmt.Errorf("parse config: %w", err)
		}
	}

	if err := applyEnv(&cfg); err != nil {
		return cfg, err
	}
	return cfg, cfg.Validate()
}

func applyEnv(cfg *Config) error {
	if v := os.Getenv("BLOOM_STORE"); v != "" {
		cfg.Store.Backend = v
	}
	if v := os.Getenv("BLOOM_REDIS_URL"); v != "" {
		cfg.Store.RedisURL = v
	}
	if v := os.Getenv("BLOOM_API_HOST"); v != "" {
		cfg.API.Host = v
	}
	if v := os.Getenv("BLOOM_API_PORT"); v != "" {
		port, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("BLOOM_API_PORT: %w", err)
		}
		cfg.API.Port = port
	}
	if v := os.Getenv("BLOOM_TIMEZONE"); v != "" {
		cfg.Engine.Timezone = v
	}
	if v := os.Getenv("BLOOM_LOG_LEVEL"); v != "" {
		cfg.Logging.Level = v
	}
	return nil
}

// Validate rejects settings the daemon cannot start with.
func (c Config) Validate() error {
	switch c.Store.Backend {
	case BackendSQLite, BackendRedis, BackendMemory:
	default:
		return fmt.Errorf("store.backend %q: want sqlite, redis or memory", c.Store.Backend)
	}
	if c.API.Port <= 0 || c.API.Port > 65535 {
		return fmt.Errorf("api.port %d out of range", c.API.Port)
	}
	if _, err := c.Location(); err != nil {
		return err
	}
	if ri := c.Engine.ReconcileInterval; ri != "" {
		d, err := time.ParseDuration(ri)
		if err != nil {
			return fmt.Errorf("engine.reconcile_interval: %w", err)
		}
		if d <= 0 {
			return fmt.Errorf("engine.reconcile_interval %q must be positive", ri)
		}
	}
	return nil
}

// Location resolves engine.timezone. Empty and "Local" mean the host zone.
func (c Config) Location() (*time.Location, error) {
	tz := strings.TrimSpace(c.Engine.Timezone)
	if tz == "" || strings.EqualFold(tz, "local") {
		return time.Local, nil
	}
	loc, err := time.LoadLocation(tz)
	if err != nil {
		return nil, fmt.Errorf("engine.timezone: %w", err)
	}
	return loc, nil
}

// Debug reports whether verbose transition logs are enabled.
func (c Config) Debug() bool {
	return strings.EqualFold(c.Logging.Level, "debug")
}

// SaveConfig writes the config to $BLOOM_HOME/config.toml.
func SaveConfig(cfg Config) error {
	path := filepath.Join(bloomHome(), "config.toml")
	if err := os.MkdirAll(filepath.Dir(path), 0700); err != nil {
		return err
	}

	f, err := os.Create(path)
	if err != nil {
		return err
	}
	defer f.Close()

	return toml.NewEncoder(f).Encode(cfg)
}

// parseDuration parses a duration string, returning a fallback on error.
func parseDuration(s string, fallback time.Duration) time.Duration {
	if s == "" {
		return fallback
	}
	d, err := time.ParseDuration(s)
	if err != nil || d <= 0 {
		return fallback
	}
	return d
}

// bloomHome returns the Bloom data directory.
func bloomHome() string {
	if env := os.Getenv("BLOOM_HOME"); env != "" {
		return env
	}
	home, _ := os.UserHomeDir()
	return filepath.Join(home, ".bloom")
}

// BloomHome is exported for use by other packages.
func BloomHome() string {
	return bloomHome()
}
