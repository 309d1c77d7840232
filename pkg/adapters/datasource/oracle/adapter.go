package oracle

import (
	"database/sql"

	go_ora "github.com/sijms/go-ora/v2" // registers the "oracle" driver
	"go.uber.org/zap"

	"github.com/ekaya-inc/dbschema-knowledge/pkg/adapters/datasource"
)

// Adapter provides Oracle connectivity through the pure Go go-ora driver.
type Adapter struct {
	*datasource.SQLConnection
	config *Config
}

// buildConnectionString builds an oracle:// URL. go_ora.BuildUrl path-escapes
// the credentials, which leaves '@' in place; URL parsing still splits the
// user info at the last '@'.
func buildConnectionString(cfg *Config) string {
	return go_ora.BuildUrl(cfg.Host, cfg.Port, cfg.ServiceName, cfg.Username, cfg.Password, nil)
}

// NewAdapter creates an Oracle adapter. No connection is made until Open.
func NewAdapter(cfg *Config, spec datasource.ConnectionSpec, logger *zap.Logger) (*Adapter, error) {
	if logger == nil {
		logger = zap.NewNop()
	}

	db, err := sql.Open("oracle", buildConnectionString(cfg))
	if err != nil {
		return nil, err
	}

	return newAdapterWithDB(cfg, spec, db, logger), nil
}

func newAdapterWithDB(cfg *Config, spec datasource.ConnectionSpec, db *sql.DB, logger *zap.Logger) *Adapter {
	spec.Schema = cfg.Owner
	conn := datasource.NewSQLConnection(spec, db,
		func(db *sql.DB) datasource.SchemaExtractionStrategy {
			return NewSchemaStrategy(db, cfg.Owner)
		},
		logger.Named("oracle"),
	)
	return &Adapter{SQLConnection: conn, config: cfg}
}

// Ensure Adapter implements Connection at compile time.
var _ datasource.Connection = (*Adapter)(nil)
