package oracle

import (
	"fmt"
	"strings"

	"github.com/ekaya-inc/dbschema-knowledge/pkg/adapters/datasource"
)

// Config contains Oracle-specific connection options.
type Config struct {
	Host        string
	Port        int
	ServiceName string
	Username    string
	Password    string

	// Owner scopes catalog queries. Defaults to the upper-cased user name,
	// which is where unqualified CREATE TABLE puts tables.
	Owner string
}

// DefaultPort returns the default Oracle listener port.
func DefaultPort() int {
	return 1521
}

// FromSpec creates a Config from a normalized connection spec.
// spec.Database is the service name; spec.Schema, when set, is the owner.
func FromSpec(spec datasource.ConnectionSpec) (*Config, error) {
	cfg := &Config{
		Host:        spec.Host,
		Port:        spec.Port,
		ServiceName: spec.Database,
		Username:    spec.Username,
		Password:    spec.Password,
		Owner:       spec.Schema,
	}

	if cfg.Host == "" {
		return nil, fmt.Errorf("host is required")
	}
	if cfg.ServiceName == "" {
		return nil, fmt.Errorf("service name (database) is required")
	}
	if cfg.Port == 0 {
		cfg.Port = DefaultPort()
	}
	if cfg.Owner == "" {
		if cfg.Username == "" {
			return nil, fmt.Errorf("schema or username is required to resolve the table owner")
		}
		cfg.Owner = strings.ToUpper(cfg.Username)
	}

	return cfg, nil
}
