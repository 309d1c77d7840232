package mysql

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/ekaya-inc/dbschema-knowledge/pkg/adapters/datasource"
)

// SchemaStrategy reads information_schema for the session's current database.
type SchemaStrategy struct {
	db *sql.DB
}

// NewSchemaStrategy creates a strategy scoped to DATABASE().
func NewSchemaStrategy(db *sql.DB) *SchemaStrategy {
	return &SchemaStrategy{db: db}
}

const listTablesQuery = `
	SELECT table_name
	FROM information_schema.tables
	WHERE table_schema = DATABASE()
	  AND table_type = 'BASE TABLE'
	ORDER BY table_name`

// ListTables returns base tables in the current database.
func (s *SchemaStrategy) ListTables(ctx context.Context) ([]string, error) {
	rows, err := s.db.QueryContext(ctx, listTablesQuery)
	if err != nil {
		return nil, fmt.Errorf("query tables: %w", err)
	}
	return scanNames(rows)
}

const tableCommentQuery = `
	SELECT table_comment
	FROM information_schema.tables
	WHERE table_schema = DATABASE()
	  AND table_name = ?`

// TableComment returns information_schema.tables.table_comment, or "".
func (s *SchemaStrategy) TableComment(ctx context.Context, table string) (string, error) {
	return queryComment(ctx, s.db, tableCommentQuery, table)
}

const columnsQuery = `
	SELECT column_name, column_type, column_comment
	FROM information_schema.columns
	WHERE table_schema = DATABASE()
	  AND table_name = ?
	ORDER BY ordinal_position`

// Columns returns the table's columns with their full column_type (e.g. varchar(255)).
func (s *SchemaStrategy) Columns(ctx context.Context, table string) ([]datasource.ColumnInfo, error) {
	rows, err := s.db.QueryContext(ctx, columnsQuery, table)
	if err != nil {
		return nil, fmt.Errorf("query columns: %w", err)
	}
	return scanColumns(rows)
}

func queryComment(ctx context.Context, db *sql.DB, query string, args ...any) (string, error) {
	var comment sql.NullString
	err := db.QueryRowContext(ctx, query, args...).Scan(&comment)
	if errors.Is(err, sql.ErrNoRows) {
		return "", nil
	}
	if err != nil {
		return "", fmt.Errorf("query table comment: %w", err)
	}
	return comment.String, nil
}

func scanNames(rows *sql.Rows) ([]string, error) {
	defer rows.Close()

	var names []string
	for rows.Next() {
		var name string
		if err := rows.Scan(&name); err != nil {
			return nil, fmt.Errorf("scan table row: %w", err)
		}
		names = append(names, name)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate table rows: %w", err)
	}
	return names, nil
}

func scanColumns(rows *sql.Rows) ([]datasource.ColumnInfo, error) {
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
