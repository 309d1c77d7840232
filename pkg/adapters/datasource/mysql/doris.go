package mysql

import (
	"context"
	"database/sql"
	"fmt"
	"regexp"
	"strings"

	"github.com/ekaya-inc/dbschema-knowledge/pkg/adapters/datasource"
)

// DorisStrategy reads Doris metadata. Doris lacks full catalog reflection, so
// tables come from SHOW TABLES and every information_schema query filters by
// schema and table explicitly.
type DorisStrategy struct {
	db       *sql.DB
	database string
}

// NewDorisStrategy creates a strategy for database.
func NewDorisStrategy(db *sql.DB, database string) *DorisStrategy {
	return &DorisStrategy{db: db, database: database}
}

var ddlCommentPattern = regexp.MustCompile(`(?i)COMMENT\s*=\s*'(.*?)'`)

// ListTables returns SHOW TABLES output in server order.
func (s *DorisStrategy) ListTables(ctx context.Context) ([]string, error) {
	rows, err := s.db.QueryContext(ctx, "SHOW TABLES")
	if err != nil {
		return nil, fmt.Errorf("show tables: %w", err)
	}
	return scanNames(rows)
}

const dorisTableCommentQuery = `
	SELECT table_comment
	FROM information_schema.tables
	WHERE table_schema = ?
	  AND table_name = ?`

// TableComment reads information_schema.tables first. When that is empty the
// COMMENT='...' clause of SHOW CREATE TABLE is used.
func (s *DorisStrategy) TableComment(ctx context.Context, table string) (string, error) {
	comment, err := queryComment(ctx, s.db, dorisTableCommentQuery, s.database, table)
	if err != nil {
		return "", err
	}
	if comment != "" {
		return comment, nil
	}

	ddl, err := s.showCreateTable(ctx, table)
	if err != nil {
		return "", err
	}
	return parseDDLComment(ddl), nil
}

const dorisColumnsQuery = `
	SELECT column_name, column_type, column_comment
	FROM information_schema.columns
	WHERE table_schema = ?
	  AND table_name = ?
	ORDER BY ordinal_position`

// Columns returns the table's columns ordered by ordinal_position.
func (s *DorisStrategy) Columns(ctx context.Context, table string) ([]datasource.ColumnInfo, error) {
	rows, err := s.db.QueryContext(ctx, dorisColumnsQuery, s.database, table)
	if err != nil {
		return nil, fmt.Errorf("query columns: %w", err)
	}
	return scanColumns(rows)
}

// showCreateTable returns the DDL column of SHOW CREATE TABLE, or "" when the
// statement yields no row. Views return four columns; the DDL is always second.
func (s *DorisStrategy) showCreateTable(ctx context.Context, table string) (string, error) {
	rows, err := s.db.QueryContext(ctx, "SHOW CREATE TABLE "+quoteIdentifier(table))
	if err != nil {
		return "", fmt.Errorf("show create table: %w", err)
	}
	defer rows.Close()

	cols, err := rows.Columns()
	if err != nil {
		return "", fmt.Errorf("show create table columns: %w", err)
	}
	if len(cols) < 2 {
		return "", fmt.Errorf("show create table: expected at least 2 columns, got %d", len(cols))
	}

	if !rows.Next() {
		if err := rows.Err(); err != nil {
			return "", fmt.Errorf("show create table: %w", err)
		}
		return "", nil
	}

	values := make([]sql.NullString, len(cols))
	dest := make([]any, len(cols))
	for i := range values {
		dest[i] = &values[i]
	}
	if err := rows.Scan(dest...); err != nil {
		return "", fmt.Errorf("scan create table row: %w", err)
	}
	return values[1].String, nil
}

// parseDDLComment extracts the table-level COMMENT='...' value, or "".
func parseDDLComment(ddl string) string {
	match := ddlCommentPattern.FindStringSubmatch(ddl)
	if match == nil {
		return ""
	}
	return match[1]
}

// quoteIdentifier wraps name in backticks, doubling embedded backticks.
func quoteIdentifier(name string) string {
	return "`" + strings.ReplaceAll(name, "`", "``") + "`"
}

var _ datasource.SchemaExtractionStrategy = (*DorisStrategy)(nil)
