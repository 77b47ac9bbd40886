// Package config loads application configuration from YAML files and
// GENORISK_* environment variables via Viper.
package config

import (
	"fmt"
	"strings"

	"github.com/spf13/viper"

	"github.com/genorisk-server/internal/domain"
)

// Manager implements the ConfigManager interface using Viper
type Manager struct {
	config *domain.Config
}

// NewManager creates a new configuration manager
func NewManager() (*Manager, error) {
	m := &Manager{}
	if err := m.loadConfig(); err != nil {
		return nil, fmt.Errorf("failed to load configuration: %w", err)
	}
	return m, nil
}

// loadConfig loads configuration from various sources
func (m *Manager) loadConfig() error {
	// Set configuration file name and paths
	viper.SetConfigName("config")
	viper.SetConfigType("yaml")
	viper.AddConfigPath(".")
	viper.AddConfigPath("./config")
	viper.AddConfigPath("/etc/genorisk-server/")

	// Set environment variable prefix and enable automatic env binding
	viper.SetEnvPrefix("GENORISK")
	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	viper.AutomaticEnv()

	m.setDefaults()

	// Read configuration file (optional - will use defaults and env vars if not found)
	if err := viper.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return fmt.Errorf("error reading config file: %w", err)
		}
		// Config file not found; using defaults and environment variables
	}

	config := &domain.Config{}
	if err := viper.Unmarshal(config); err != nil {
		return fmt.Errorf("error unmarshaling config: %w", err)
	}

	m.config = config
	return nil
}

// setDefaults sets default configuration values
func (m *Manager) setDefaults() {
	// Server defaults
	viper.SetDefault("server.host", "0.0.0.0")
	viper.SetDefault("server.port", 8080)
	viper.SetDefault("server.read_timeout", "30s")
	viper.SetDefault("server.write_timeout", "30s")
	viper.SetDefault("server.idle_timeout", "120s")
	viper.SetDefault("server.rate_limit_enabled", true)
	viper.SetDefault("server.rate_limit_per_sec", 50)
	viper.SetDefault("server.rate_limit_burst", 100)

	// Grid defaults reproduce the reference sweep
	reference := domain.DefaultGridSpec()
	viper.SetDefault("grid.prevalence_step", reference.PrevalenceStep)
	viper.SetDefault("grid.prevalence_steps", reference.PrevalenceSteps)
	viper.SetDefault("grid.allele_freq_step", reference.AlleleFreqStep)
	viper.SetDefault("grid.allele_freq_steps", reference.AlleleFreqSteps)
	viper.SetDefault("grid.relative_risk_step", reference.RelativeRiskStep)
	viper.SetDefault("grid.relative_risk_steps", reference.RelativeRiskSteps)
	viper.SetDefault("grid.rounding_decimals", reference.RoundingDecimals)

	// Store defaults
	viper.SetDefault("store.driver", "sqlite")
	viper.SetDefault("store.path", "./data/genorisk.db")
	viper.SetDefault("store.database_url", "")

	// Builder defaults: 0 selects one worker per CPU
	viper.SetDefault("builder.workers", 0)

	// Cache defaults
	viper.SetDefault("cache.size", 4096)

	// Logging defaults
	viper.SetDefault("logging.level", "info")
	viper.SetDefault("logging.format", "json")
}

// GetConfig returns the complete configuration
func (m *Manager) GetConfig() *domain.Config {
	return m.config
}

// GetServerConfig returns server configuration
func (m *Manager) GetServerConfig() *domain.ServerConfig {
	return &m.config.Server
}

// GetGridSpec returns the configured sweep grid
func (m *Manager) GetGridSpec() domain.GridSpec {
	return m.config.Grid
}

// Reload reloads the configuration
func (m *Manager) Reload() error {
	return m.loadConfig()
}

// Validate validates the configuration
func (m *Manager) Validate() error {
	config := m.config

	if config.Server.Port <= 0 || config.Server.Port > 65535 {
		return fmt.Errorf("invalid server port: %d", config.Server.Port)
	}

	if err := config.Grid.Validate(); err != nil {
		return fmt.Errorf("invalid grid configuration: %w", err)
	}

	switch config.Store.Driver {
	case "sqlite":
		if config.Store.Path == "" {
			return fmt.Errorf("sqlite store requires a path")
		}
	case "postgres":
		if config.Store.DatabaseURL == "" {
			return fmt.Errorf("postgres store requires a database URL")
		}
	default:
		return fmt.Errorf("invalid store driver: %s", config.Store.Driver)
	}

	validLogLevels := map[string]bool{
		"debug": true, "info": true, "warn": true, "error": true, "fatal": true, "panic": true,
	}
	if !validLogLevels[strings.ToLower(config.Logging.Level)] {
		return fmt.Errorf("invalid log level: %s", config.Logging.Level)
	}

	return nil
}
