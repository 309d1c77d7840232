package datasource

import "context"

// Connection is a source database handle built by BuildConnection.
// Construction never touches the network; Open is the explicit connect step.
// Each implementation owns its connection and must be closed when done.
type Connection interface {
	// Open verifies the database is reachable with valid credentials.
	// Failures wrap apperrors.ErrConnection.
	Open(ctx context.Context) error

	// Strategy returns the dialect's schema extraction strategy bound to this connection.
	Strategy() SchemaExtractionStrategy

	// Spec returns the normalized connection spec.
	Spec() ConnectionSpec

	// Close releases the database connection. Safe to call more than once.
	Close() error
}

// SchemaExtractionStrategy reads catalog metadata for one dialect.
// Implementations return raw comments; the Extractor strips newlines and
// applies the table-name fallback.
type SchemaExtractionStrategy interface {
	// ListTables returns the table names of the target database/schema in
	// catalog order.
	ListTables(ctx context.Context) ([]string, error)

	// TableComment returns the table comment, or "" when the catalog has none.
	TableComment(ctx context.Context, table string) (string, error)

	// Columns returns the table's columns ordered by native ordinal position.
	Columns(ctx context.Context, table string) ([]ColumnInfo, error)
}

// TableNameNormalizer is implemented by strategies whose catalog folds
// identifier case. The Extractor uses it to match table filter entries that
// are not spelled exactly as ListTables returns them.
type TableNameNormalizer interface {
	NormalizeTableName(name string) string
}
