package mssql

import (
	"context"
	"database/sql"
	"fmt"
	"net"
	"net/url"
	"strconv"
	"strings"

	_ "github.com/microsoft/go-mssqldb" // SQL Server driver
	"go.uber.org/zap"

	"github.com/ekaya-inc/dbschema-knowledge/pkg/adapters/datasource"
)

// Adapter provides SQL Server connectivity.
type Adapter struct {
	*datasource.SQLConnection
	config *Config
}

// buildConnectionString builds a sqlserver:// URL for SQL authentication.
func buildConnectionString(cfg *Config) string {
	query := url.Values{}
	query.Add("database", cfg.Database)

	if cfg.Encrypt {
		query.Add("encrypt", "true")
	} else {
		query.Add("encrypt", "false")
	}

	if cfg.TrustServerCertificate {
		query.Add("TrustServerCertificate", "true")
	}

	if cfg.ConnectionTimeout > 0 {
		query.Add("connection timeout", strconv.Itoa(cfg.ConnectionTimeout))
	}

	u := &url.URL{
		Scheme:   "sqlserver",
		User:     url.UserPassword(cfg.Username, cfg.Password),
		Host:     net.JoinHostPort(cfg.Host, strconv.Itoa(cfg.Port)),
		RawQuery: query.Encode(),
	}
	return u.String()
}

// NewAdapter creates a SQL Server adapter. No connection is made until Open.
func NewAdapter(cfg *Config, spec datasource.ConnectionSpec, logger *zap.Logger) (*Adapter, error) {
	if logger == nil {
		logger = zap.NewNop()
	}

	db, err := sql.Open("sqlserver", buildConnectionString(cfg))
	if err != nil {
		return nil, fmt.Errorf("open SQL auth connection: %w", err)
	}

	return newAdapterWithDB(cfg, spec, db, logger), nil
}

func newAdapterWithDB(cfg *Config, spec datasource.ConnectionSpec, db *sql.DB, logger *zap.Logger) *Adapter {
	spec.Schema = cfg.Schema
	conn := datasource.NewSQLConnection(spec, db,
		func(db *sql.DB) datasource.SchemaExtractionStrategy {
			return NewSchemaStrategy(db, cfg.Schema)
		},
		logger.Named("mssql"),
		datasource.WithVerify(verifyDatabase(cfg.Database)),
	)
	return &Adapter{SQLConnection: conn, config: cfg}
}

// verifyDatabase checks the session landed in the configured database.
// SQL Server silently falls back to the login's default database when the
// requested one is inaccessible.
func verifyDatabase(expected string) func(ctx context.Context, db *sql.DB) error {
	return func(ctx context.Context, db *sql.DB) error {
		var currentDB string
		if err := db.QueryRowContext(ctx, "SELECT DB_NAME()").Scan(&currentDB); err != nil {
			return fmt.Errorf("failed to get current database name: %w", err)
		}
		if !strings.EqualFold(currentDB, expected) {
			return fmt.Errorf("connected to wrong database: expected %q but connected to %q", expected, currentDB)
		}
		return nil
	}
}

// Ensure Adapter implements Connection at compile time.
var _ datasource.Connection = (*Adapter)(nil)
