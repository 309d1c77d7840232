package postgres

import (
	"fmt"

	"github.com/ekaya-inc/dbschema-knowledge/pkg/adapters/datasource"
)

// Config contains PostgreSQL-specific connection options.
type Config struct {
	Host     string
	Port     int
	User     string
	Password string
	Database string
	SSLMode  string // "disable", "prefer", "require", "verify-ca", "verify-full"

	// Schema scopes enumeration and is injected into the session search_path.
	// Empty means DefaultSchema for catalog queries and no search_path override.
	Schema string
}

// DefaultPort returns the default PostgreSQL port.
func DefaultPort() int {
	return 5432
}

// DefaultSSLMode returns the default SSL mode.
func DefaultSSLMode() string {
	return "prefer"
}

// DefaultSchema returns the schema used for catalog queries when none is configured.
func DefaultSchema() string {
	return "public"
}

// FromSpec creates a Config from a normalized connection spec.
func FromSpec(spec datasource.ConnectionSpec) (*Config, error) {
	cfg := &Config{
		Host:     spec.Host,
		Port:     spec.Port,
		User:     spec.Username,
		Password: spec.Password,
		Database: spec.Database,
		SSLMode:  DefaultSSLMode(),
		Schema:   spec.Schema,
	}

	if cfg.Host == "" {
		return nil, fmt.Errorf("host is required")
	}
	if cfg.User == "" {
		return nil, fmt.Errorf("user is required")
	}
	if cfg.Database == "" {
		return nil, fmt.Errorf("database is required")
	}
	if cfg.Port == 0 {
		cfg.Port = DefaultPort()
	}

	return cfg, nil
}

// catalogSchema is the schema used to filter catalog queries.
func (c *Config) catalogSchema() string {
	if c.Schema == "" {
		return DefaultSchema()
	}
	return c.Schema
}
