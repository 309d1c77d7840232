package mssql

import (
	"fmt"

	"github.com/ekaya-inc/dbschema-knowledge/pkg/adapters/datasource"
)

// Config contains SQL Server-specific connection options.
type Config struct {
	Host     string
	Port     int
	Database string
	Username string
	Password string

	// Schema scopes table enumeration. Defaults to "dbo".
	Schema string

	// Connection options
	Encrypt                bool
	TrustServerCertificate bool
	ConnectionTimeout      int
}

// DefaultPort returns the default SQL Server port.
func DefaultPort() int {
	return 1433
}

// DefaultSchema returns the schema used when none is configured.
func DefaultSchema() string {
	return "dbo"
}

// DefaultConnectionTimeout returns the default connection timeout in seconds.
func DefaultConnectionTimeout() int {
	return 30
}

// FromSpec creates a Config from a normalized connection spec.
// Encryption is on with the server certificate trusted, matching typical
// self-signed on-prem installs.
func FromSpec(spec datasource.ConnectionSpec) (*Config, error) {
	cfg := &Config{
		Host:                   spec.Host,
		Port:                   spec.Port,
		Database:               spec.Database,
		Username:               spec.Username,
		Password:               spec.Password,
		Schema:                 spec.Schema,
		Encrypt:                true,
		TrustServerCertificate: true,
		ConnectionTimeout:      DefaultConnectionTimeout(),
	}

	if cfg.Host == "" {
		return nil, fmt.Errorf("host is required")
	}
	if cfg.Database == "" {
		return nil, fmt.Errorf("database is required")
	}
	if cfg.Port == 0 {
		cfg.Port = DefaultPort()
	}
	if cfg.Schema == "" {
		cfg.Schema = DefaultSchema()
	}

	return cfg, nil
}
