package datasource

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/ekaya-inc/dbschema-knowledge/pkg/apperrors"
)

// Extractor reads table metadata through a connection's dialect strategy.
type Extractor struct {
	conn   Connection
	logger *zap.Logger
}

// NewExtractor creates an Extractor over an opened connection.
func NewExtractor(conn Connection, logger *zap.Logger) *Extractor {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Extractor{
		conn:   conn,
		logger: logger.Named("extractor"),
	}
}

// DatabaseName returns the database name of the underlying connection.
func (e *Extractor) DatabaseName() string {
	return e.conn.Spec().Database
}

// GetAllTablesSchema enumerates tables, applies tableFilter (see ResolveTables)
// and extracts each table. Any query failure aborts the whole call with an
// error wrapping apperrors.ErrExtractionQuery.
func (e *Extractor) GetAllTablesSchema(ctx context.Context, tableFilter string) (*SchemaMap, error) {
	strategy := e.conn.Strategy()

	all, err := strategy.ListTables(ctx)
	if err != nil {
		return nil, fmt.Errorf("%w: list tables: %w", apperrors.ErrExtractionQuery, err)
	}

	var normalize func(string) string
	if n, ok := strategy.(TableNameNormalizer); ok {
		normalize = n.NormalizeTableName
	}
	targets := ResolveTablesWith(all, tableFilter, normalize)
	e.logger.Debug("Resolved target tables",
		zap.Int("existing", len(all)),
		zap.Int("selected", len(targets)),
		zap.String("filter", tableFilter))

	schemas := NewSchemaMap()
	for _, table := range targets {
		schema, err := e.extractTable(ctx, strategy, table)
		if err != nil {
			return nil, err
		}
		schemas.Add(schema)
	}

	e.logger.Info("Extracted schema",
		zap.String("database", e.DatabaseName()),
		zap.Int("tables", schemas.Len()))

	return schemas, nil
}

func (e *Extractor) extractTable(ctx context.Context, strategy SchemaExtractionStrategy, table string) (TableSchema, error) {
	comment, err := strategy.TableComment(ctx, table)
	if err != nil {
		return TableSchema{}, fmt.Errorf("%w: comment for table %s: %w", apperrors.ErrExtractionQuery, table, err)
	}
	comment = StripNewlines(comment)
	if comment == "" {
		comment = table
	}

	columns, err := strategy.Columns(ctx, table)
	if err != nil {
		return TableSchema{}, fmt.Errorf("%w: columns for table %s: %w", apperrors.ErrExtractionQuery, table, err)
	}
	for i := range columns {
		columns[i].Comment = StripNewlines(columns[i].Comment)
	}

	return TableSchema{
		TableName: table,
		Comment:   comment,
		Columns:   columns,
	}, nil
}
