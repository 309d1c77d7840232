package mysql

import (
	"database/sql"
	"fmt"

	mysqldriver "github.com/go-sql-driver/mysql"
	"go.uber.org/zap"

	"github.com/ekaya-inc/dbschema-knowledge/pkg/adapters/datasource"
)

// Adapter provides MySQL and Doris connectivity.
type Adapter struct {
	*datasource.SQLConnection
	config *Config
}

// NewAdapter creates an adapter. No connection is made until Open.
func NewAdapter(cfg *Config, spec datasource.ConnectionSpec, logger *zap.Logger) (*Adapter, error) {
	if logger == nil {
		logger = zap.NewNop()
	}

	connector, err := mysqldriver.NewConnector(cfg.driverConfig())
	if err != nil {
		return nil, fmt.Errorf("build mysql connector: %w", err)
	}

	return newAdapterWithDB(cfg, spec, sql.OpenDB(connector), logger), nil
}

func newAdapterWithDB(cfg *Config, spec datasource.ConnectionSpec, db *sql.DB, logger *zap.Logger) *Adapter {
	name := "mysql"
	if cfg.Doris {
		name = "doris"
	}

	conn := datasource.NewSQLConnection(spec, db,
		func(db *sql.DB) datasource.SchemaExtractionStrategy {
			if cfg.Doris {
				return NewDorisStrategy(db, cfg.Database)
			}
			return NewSchemaStrategy(db)
		},
		logger.Named(name),
	)
	return &Adapter{SQLConnection: conn, config: cfg}
}

// Ensure Adapter implements Connection at compile time.
var _ datasource.Connection = (*Adapter)(nil)
