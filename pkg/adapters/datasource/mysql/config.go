package mysql

import (
	"fmt"
	"net"
	"strconv"
	"time"

	mysqldriver "github.com/go-sql-driver/mysql"

	"github.com/ekaya-inc/dbschema-knowledge/pkg/adapters/datasource"
)

// Config contains MySQL-protocol connection options, shared by MySQL and Doris.
type Config struct {
	Host     string
	Port     int
	Database string
	Username string
	Password string

	// Doris selects the Doris strategy and client-side parameter interpolation.
	Doris bool

	DialTimeout time.Duration
}

// DefaultPort returns the default MySQL port. Doris FE usually listens on 9030.
func DefaultPort() int {
	return 3306
}

// DefaultDialTimeout returns the default TCP dial timeout.
func DefaultDialTimeout() time.Duration {
	return 30 * time.Second
}

// FromSpec creates a Config from a normalized connection spec.
func FromSpec(spec datasource.ConnectionSpec) (*Config, error) {
	cfg := &Config{
		Host:        spec.Host,
		Port:        spec.Port,
		Database:    spec.Database,
		Username:    spec.Username,
		Password:    spec.Password,
		Doris:       spec.Dialect == datasource.DialectDoris,
		DialTimeout: DefaultDialTimeout(),
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

	return cfg, nil
}

// driverConfig builds the go-sql-driver config. Using mysql.Config instead of a
// hand-formatted DSN keeps passwords with @ / ( ) intact.
func (c *Config) driverConfig() *mysqldriver.Config {
	dc := mysqldriver.NewConfig()
	dc.User = c.Username
	dc.Passwd = c.Password
	dc.Net = "tcp"
	dc.Addr = net.JoinHostPort(c.Host, strconv.Itoa(c.Port))
	dc.DBName = c.Database
	dc.Timeout = c.DialTimeout
	if c.Doris {
		// Older Doris FEs reject the binary prepared-statement protocol
		dc.InterpolateParams = true
	}
	return dc
}
