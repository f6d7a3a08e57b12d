package config

import (
	"fmt"
	"time"

	"github.com/caarlos0/env/v11"
)

// Config holds all habitpal configuration. Default gives the baseline and
// Load overlays HABITPAL_* environment variables.
type Config struct {
	Server   ServerConfig
	Database DatabaseConfig
	Engine   EngineConfig
	Log      LogConfig
	Client   ClientConfig
}

type ServerConfig struct {
	Bind string `env:"HABITPAL_BIND"`
	Port int    `env:"HABITPAL_PORT"`
}

type DatabaseConfig struct {
	Path      string `env:"HABITPAL_DB"`         // "" resolves to store.DefaultDBPath()
	LegacyDir string `env:"HABITPAL_LEGACY_DIR"` // flat-file data imported on first start
}

type EngineConfig struct {
	WindowDays   int           `env:"HABITPAL_WINDOW_DAYS"`
	TickSpec     string        `env:"HABITPAL_TICK"` // cron spec
	TimeZone     string        `env:"HABITPAL_TZ"`   // IANA name, "" is the system zone
	WriteTimeout time.Duration `env:"HABITPAL_WRITE_TIMEOUT"`
}

type LogConfig struct {
	Level      string `env:"HABITPAL_LOG_LEVEL"` // debug, info, warn, error
	File       string `env:"HABITPAL_LOG_FILE"`  // "" logs to stderr
	MaxSizeMB  int    `env:"HABITPAL_LOG_MAX_SIZE_MB"`
	MaxBackups int    `env:"HABITPAL_LOG_MAX_BACKUPS"`
	MaxAgeDays int    `env:"HABITPAL_LOG_MAX_AGE_DAYS"`
}

type ClientConfig struct {
	URL     string        `env:"HABITPAL_URL"` // "" derives from Server
	Timeout time.Duration `env:"HABITPAL_CLIENT_TIMEOUT"`
}

// Default returns a Config with sensible defaults.
func Default() Config {
	return Config{
		Server: ServerConfig{
			Bind: "127.0.0.1",
			Port: 37790,
		},
		Engine: EngineConfig{
			WindowDays:   90,
			TickSpec:     "@every 1m",
			WriteTimeout: 5 * time.Second,
		},
		Log: LogConfig{
			Level:      "info",
			MaxSizeMB:  50,
			MaxBackups: 7,
			MaxAgeDays: 14,
		},
		Client: ClientConfig{
			Timeout: 5 * time.Second,
		},
	}
}

// Load returns Default overlaid with the environment.
func Load() (Config, error) {
	cfg := Default()
	if err := env.Parse(&cfg); err != nil {
		return cfg, fmt.Errorf("parse env: %w", err)
	}
	if cfg.Engine.TimeZone != "" {
		if _, err := time.LoadLocation(cfg.Engine.TimeZone); err != nil {
			return cfg, fmt.Errorf("HABITPAL_TZ: %w", err)
		}
	}
	return cfg, nil
}

// ListenAddr returns the bind:port address string.
func (c *Config) ListenAddr() string {
	return fmt.Sprintf("%s:%d", c.Server.Bind, c.Server.Port)
}

// BaseURL is where CLI commands reach the running server.
func (c *Config) BaseURL() string {
	if c.Client.URL != "" {
		return c.Client.URL
	}
	return "http://" + c.ListenAddr()
}

// Location returns the calendar zone for day keys and the sleep window.
func (c *Config) Location() *time.Location {
	if c.Engine.TimeZone == "" {
		return time.Local
	}
	loc, err := time.LoadLocation(c.Engine.TimeZone)
	if err != nil {
		return time.Local
	}
	return loc
}
