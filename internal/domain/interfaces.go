package domain

import (
	"context"
)

// TableStore persists a completed lookup table. Implementations must give
// round-trip fidelity: LoadTable after SaveTable yields the identical
// mapping, including the grid specification.
type TableStore interface {
	SaveTable(ctx context.Context, table *LookupTable) error
	LoadTable(ctx context.Context) (*LookupTable, error)
	Count(ctx context.Context) (int64, error)
	Close() error
}

// ConfigManager defines the interface for configuration management
type ConfigManager interface {
	GetConfig() *Config
	GetServerConfig() *ServerConfig
	GetGridSpec() GridSpec
	Reload() error
	Validate() error
}
