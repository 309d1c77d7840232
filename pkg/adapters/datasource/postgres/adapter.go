package postgres

import (
	"context"
	"database/sql"
	"fmt"
	"net"
	"net/url"
	"strconv"
	"strings"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/stdlib"
	"go.uber.org/zap"

	"github.com/ekaya-inc/dbschema-knowledge/pkg/adapters/datasource"
)

// Adapter provides PostgreSQL connectivity through pgx's database/sql driver.
type Adapter struct {
	*datasource.SQLConnection
	config *Config
}

// buildConnectionString builds a PostgreSQL URL with proper escaping.
// Passwords with @, /, # or ? would otherwise break URL parsing.
func buildConnectionString(cfg *Config) string {
	sslMode := cfg.SSLMode
	if sslMode == "" {
		sslMode = DefaultSSLMode()
	}

	u := &url.URL{
		Scheme:   "postgresql",
		User:     url.UserPassword(cfg.User, cfg.Password),
		Host:     net.JoinHostPort(cfg.Host, strconv.Itoa(cfg.Port)),
		Path:     "/" + cfg.Database,
		RawQuery: url.Values{"sslmode": {sslMode}}.Encode(),
	}
	return u.String()
}

// buildConnConfig parses the URL and injects the schema into search_path so
// unqualified names resolve inside it.
func buildConnConfig(cfg *Config) (*pgx.ConnConfig, error) {
	connConfig, err := pgx.ParseConfig(buildConnectionString(cfg))
	if err != nil {
		return nil, fmt.Errorf("parse postgres config: %w", err)
	}
	if cfg.Schema != "" {
		if connConfig.RuntimeParams == nil {
			connConfig.RuntimeParams = make(map[string]string)
		}
		connConfig.RuntimeParams["search_path"] = pgx.Identifier{cfg.Schema}.Sanitize()
	}
	return connConfig, nil
}

// NewAdapter creates a PostgreSQL adapter. No connection is made until Open.
func NewAdapter(cfg *Config, spec datasource.ConnectionSpec, logger *zap.Logger) (*Adapter, error) {
	if logger == nil {
		logger = zap.NewNop()
	}

	connConfig, err := buildConnConfig(cfg)
	if err != nil {
		return nil, err
	}

	return newAdapterWithDB(cfg, spec, stdlib.OpenDB(*connConfig), logger), nil
}

func newAdapterWithDB(cfg *Config, spec datasource.ConnectionSpec, db *sql.DB, logger *zap.Logger) *Adapter {
	conn := datasource.NewSQLConnection(spec, db,
		func(db *sql.DB) datasource.SchemaExtractionStrategy {
			return NewSchemaStrategy(db, cfg.catalogSchema())
		},
		logger.Named("postgres"),
		datasource.WithVerify(verifyDatabase(cfg.Database)),
	)
	return &Adapter{SQLConnection: conn, config: cfg}
}

// verifyDatabase checks the session is connected to the configured database.
// PostgreSQL names are case-sensitive, but the comparison is case-insensitive
// to match SQL Server behavior.
func verifyDatabase(expected string) func(ctx context.Context, db *sql.DB) error {
	return func(ctx context.Context, db *sql.DB) error {
		var currentDB string
		if err := db.QueryRowContext(ctx, "SELECT current_database()").Scan(&currentDB); err != nil {
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
