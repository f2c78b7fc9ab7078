// Package config loads the portal server's settings from the environment,
// optionally seeded from a .env file.
package config

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/sethvargo/go-envconfig"
)

// Storage backends
const (
	StorageMemory = "memory"
	StorageRedis  = "redis"
	StorageFile   = "file"
)

type Config struct {
	Port     string `env:"PORT, default=8080"`
	LogLevel string `env:"LOG_LEVEL, default=info"`

	// APIURL is the remote REST API that owns all portal data
	APIURL     string        `env:"PORTAL_API_URL, default=https://localhost:44315/"`
	APITimeout time.Duration `env:"PORTAL_API_TIMEOUT, default=30s"`

	StorageType string `env:"STORAGE_TYPE, default=memory"`
	Redis       RedisConfig
	// StateDir holds client state files when STORAGE_TYPE=file
	StateDir string `env:"STATE_DIR, default=.portal-state"`

	ContentTTL         time.Duration `env:"CONTENT_TTL, default=30s"`
	SessionIdleTimeout time.Duration `env:"SESSION_IDLE_TIMEOUT, default=30m"`
	NavMountTimeout    time.Duration `env:"NAV_MOUNT_TIMEOUT, default=2s"`

	LoginRatePerMinute int  `env:"LOGIN_RATE_PER_MINUTE, default=10"`
	CookieSecure       bool `env:"COOKIE_SECURE, default=false"`
}

type RedisConfig struct {
	URL            string        `env:"REDIS_URL"`
	PoolSize       int           `env:"REDIS_POOL_SIZE, default=10"`
	ClientStateTTL time.Duration `env:"REDIS_CLIENT_STATE_TTL, default=720h"`
}

// Load reads .env (when present) into the process environment, then the
// environment into a Config
func Load(ctx context.Context, dotenvFiles ...string) (*Config, error) {
	if err := godotenv.Load(dotenvFiles...); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("config: failed to read .env: %w", err)
	}

	var cfg Config
	if err := envconfig.Process(ctx, &cfg); err != nil {
		return nil, fmt.Errorf("config: failed to load configuration: %w", err)
	}
	return &cfg, cfg.Validate()
}

// LoadFrom reads a Config from the given variables only
func LoadFrom(ctx context.Context, vars map[string]string) (*Config, error) {
	var cfg Config
	err := envconfig.ProcessWith(ctx, &envconfig.Config{
		Target:   &cfg,
		Lookuper: envconfig.MapLookuper(vars),
	})
	if err != nil {
		return nil, fmt.Errorf("config: failed to load configuration: %w", err)
	}
	return &cfg, cfg.Validate()
}

// Validate checks settings that depend on each other
func (c *Config) Validate() error {
	switch c.StorageType {
	case StorageMemory, StorageFile:
	case StorageRedis:
		if c.Redis.URL == "" {
			return errors.New("config: REDIS_URL required when STORAGE_TYPE=redis")
		}
	default:
		return fmt.Errorf("config: invalid STORAGE_TYPE %q: must be %q, %q or %q", c.StorageType, StorageMemory, StorageRedis, StorageFile)
	}
	if c.LoginRatePerMinute < 0 {
		return errors.New("config: LOGIN_RATE_PER_MINUTE must not be negative")
	}
	return nil
}

// Addr is the listen address
func (c *Config) Addr() string {
	return ":" + c.Port
}

// SlogLevel maps LOG_LEVEL to a slog level, defaulting to info
func (c *Config) SlogLevel() slog.Level {
	switch strings.ToLower(c.LogLevel) {
	case "debug":
		return slog.LevelDebug
	case "warn", "warning":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}
