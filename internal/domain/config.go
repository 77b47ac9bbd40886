package domain

import (
	"time"
)

// Config represents the main application configuration
type Config struct {
	Server  ServerConfig  `mapstructure:"server"`
	Grid    GridSpec      `mapstructure:"grid"`
	Store   StoreConfig   `mapstructure:"store"`
	Builder BuilderConfig `mapstructure:"builder"`
	Cache   CacheConfig   `mapstructure:"cache"`
	Logging LoggingConfig `mapstructure:"logging"`
}

// ServerConfig represents HTTP server configuration
type ServerConfig struct {
	Host             string        `mapstructure:"host"`
	Port             int           `mapstructure:"port"`
	ReadTimeout      time.Duration `mapstructure:"read_timeout"`
	WriteTimeout     time.Duration `mapstructure:"write_timeout"`
	IdleTimeout      time.Duration `mapstructure:"idle_timeout"`
	RateLimitPerSec  float64       `mapstructure:"rate_limit_per_sec"`
	RateLimitBurst   int           `mapstructure:"rate_limit_burst"`
	RateLimitEnabled bool          `mapstructure:"rate_limit_enabled"`
}

// StoreConfig selects and configures table persistence. Driver is either
// "sqlite" (Path) or "postgres" (DatabaseURL).
type StoreConfig struct {
	Driver      string `mapstructure:"driver"`
	Path        string `mapstructure:"path"`
	DatabaseURL string `mapstructure:"database_url"`
}

// BuilderConfig configures the grid sweep.
type BuilderConfig struct {
	Workers int `mapstructure:"workers"`
}

// CacheConfig configures the in-memory hot-key cache in front of the table.
type CacheConfig struct {
	Size int `mapstructure:"size"`
}

// LoggingConfig represents logging configuration
type LoggingConfig struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"`
}
