package mssql

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/ekaya-inc/dbschema-knowledge/pkg/adapters/datasource"
)

// SchemaStrategy reads SQL Server catalog views for one schema.
// Comments come from the MS_Description extended property.
type SchemaStrategy struct {
	db     *sql.DB
	schema string
}

// NewSchemaStrategy creates a strategy scoped to schema ("dbo" when empty).
func NewSchemaStrategy(db *sql.DB, schema string) *SchemaStrategy {
	if schema == "" {
		schema = DefaultSchema()
	}
	return &SchemaStrategy{db: db, schema: schema}
}

const listTablesQuery = `
	SELECT t.name
	FROM sys.tables t
	WHERE t.schema_id = SCHEMA_ID(@p1)
	  AND t.is_ms_shipped = 0
	ORDER BY t.name`

// ListTables returns user tables in the configured schema.
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
	SELECT CAST(ep.value AS NVARCHAR(4000))
	FROM sys.tables t
	INNER JOIN sys.extended_properties ep
	    ON ep.major_id = t.object_id
	   AND ep.minor_id = 0
	   AND ep.class = 1
	   AND ep.name = 'MS_Description'
	WHERE t.schema_id = SCHEMA_ID(@p1)
	  AND t.name = @p2`

// TableComment returns the table-level MS_Description, or "".
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
	    c.name,
	    tp.name,
	    c.max_length,
	    c.precision,
	    c.scale,
	    CAST(ep.value AS NVARCHAR(4000))
	FROM sys.columns c
	INNER JOIN sys.tables t ON t.object_id = c.object_id
	INNER JOIN sys.types tp ON tp.user_type_id = c.user_type_id
	LEFT JOIN sys.extended_properties ep
	    ON ep.major_id = c.object_id
	   AND ep.minor_id = c.column_id
	   AND ep.class = 1
	   AND ep.name = 'MS_Description'
	WHERE t.schema_id = SCHEMA_ID(@p1)
	  AND t.name = @p2
	ORDER BY c.column_id`

// Columns returns the table's columns ordered by column_id.
func (s *SchemaStrategy) Columns(ctx context.Context, table string) ([]datasource.ColumnInfo, error) {
	rows, err := s.db.QueryContext(ctx, columnsQuery, s.schema, table)
	if err != nil {
		return nil, fmt.Errorf("query columns: %w", err)
	}
	defer rows.Close()

	var columns []datasource.ColumnInfo
	for rows.Next() {
		var (
			name, typeName         string
			maxLength, prec, scale int
			comment                sql.NullString
		)
		if err := rows.Scan(&name, &typeName, &maxLength, &prec, &scale, &comment); err != nil {
			return nil, fmt.Errorf("scan column row: %w", err)
		}
		columns = append(columns, datasource.ColumnInfo{
			Name:    name,
			Type:    renderType(typeName, maxLength, prec, scale),
			Comment: comment.String,
		})
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate column rows: %w", err)
	}

	return columns, nil
}

var _ datasource.SchemaExtractionStrategy = (*SchemaStrategy)(nil)
