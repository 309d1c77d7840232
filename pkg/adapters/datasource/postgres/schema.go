package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/ekaya-inc/dbschema-knowledge/pkg/adapters/datasource"
)

// SchemaStrategy reads pg_catalog for one schema. Every query is
// schema-qualified, independent of search_path.
type SchemaStrategy struct {
	db     *sql.DB
	schema string
}

// NewSchemaStrategy creates a strategy scoped to schema ("public" when empty).
func NewSchemaStrategy(db *sql.DB, schema string) *SchemaStrategy {
	if schema == "" {
		schema = DefaultSchema()
	}
	return &SchemaStrategy{db: db, schema: schema}
}

// relkind r = ordinary table, p = partitioned table
const listTablesQuery = `
	SELECT c.relname
	FROM pg_catalog.pg_class c
	JOIN pg_catalog.pg_namespace n ON n.oid = c.relnamespace
	WHERE n.nspname = $1
	  AND c.relkind IN ('r', 'p')
	ORDER BY c.relname`

// ListTables returns tables in the configured schema.
func (s *SchemaStrategy) ListTables(ctx context.Context) ([]string, error) {
	rows, err := s.db.QueryContext(ctx, listTablesQuery, s.schema)
	if err != nil {
		return nil, fmt.Errorf("query tables: %w", err)
	}
	defer rows.Close()

	var tables []string
	for rows.Next() {
		var name string
		if err := rows.Scan(&name); err != nil {
			return nil, fmt.Errorf("scan table row: %w", err)
		}
		tables = append(tables, name)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate table rows: %w", err)
	}

	return tables, nil
}

const tableCommentQuery = `
	SELECT obj_description(c.oid, 'pg_class')
	FROM pg_catalog.pg_class c
	JOIN pg_catalog.pg_namespace n ON n.oid = c.relnamespace
	WHERE n.nspname = $1
	  AND c.relname = $2`

// TableComment returns COMMENT ON TABLE, or "".
func (s *SchemaStrategy) TableComment(ctx context.Context, table string) (string, error) {
	var comment sql.NullString
	err := s.db.QueryRowContext(ctx, tableCommentQuery, s.schema, table).Scan(&comment)
	if errors.Is(err, sql.ErrNoRows) {
		return "", nil
	}
	if err != nil {
		return "", fmt.Errorf("query table comment: %w", err)
	}
	return comment.String, nil
}

const columnsQuery = `
	SELECT
	    a.attname,
	    format_type(a.atttypid, a.atttypmod),
	    col_description(a.attrelid, a.attnum)
	FROM pg_catalog.pg_attribute a
	JOIN pg_catalog.pg_class c ON c.oid = a.attrelid
	JOIN pg_catalog.pg_namespace n ON n.oid = c.relnamespace
	WHERE n.nspname = $1
	  AND c.relname = $2
	  AND a.attnum > 0
	  AND NOT a.attisdropped
	ORDER BY a.attnum`

// Columns returns the table's columns ordered by attnum.
func (s *SchemaStrategy) Columns(ctx context.Context, table string) ([]datasource.ColumnInfo, error) {
	rows, err := s.db.QueryContext(ctx, columnsQuery, s.schema, table)
	if err != nil {
		return nil, fmt.Errorf("query columns: %w", err)
	}
	defer rows.Close()

	var columns []datasource.ColumnInfo
	for rows.Next() {
		var (
			col     datasource.ColumnInfo
			comment sql.NullString
		)
		if err := rows.Scan(&col.Name, &col.Type, &comment); err != nil {
			return nil, fmt.Errorf("scan column row: %w", err)
		}
		col.Comment = comment.String
		columns = append(columns, col)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate column rows: %w", err)
	}

	return columns, nil
}

var _ datasource.SchemaExtractionStrategy = (*SchemaStrategy)(nil)
