package oracle

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"regexp"
	"strconv"
	"strings"

	"github.com/ekaya-inc/dbschema-knowledge/pkg/adapters/datasource"
)

// SchemaStrategy reads the owner-scoped ALL_* catalog views.
//
// Case-insensitive names (stored all upper case, e.g. ORDERS) are reported
// in lower case, so documents read "orders" as they would on the other
// dialects. Queries match the given name exactly OR upper-cased, which finds
// ORDERS for "orders" and still finds quoted mixed-case tables. If both
// "orders" and "ORDERS" exist, rows from both are returned.
type SchemaStrategy struct {
	db    *sql.DB
	owner string
}

// NewSchemaStrategy creates a strategy for owner.
func NewSchemaStrategy(db *sql.DB, owner string) *SchemaStrategy {
	return &SchemaStrategy{db: db, owner: owner}
}

const listTablesQuery = `
	SELECT TABLE_NAME
	FROM ALL_TABLES
	WHERE OWNER = :1
	ORDER BY TABLE_NAME`

var unquotedIdentifier = regexp.MustCompile(`^[A-Z][A-Z0-9_$#]*$`)

// normalizeName lowers identifiers Oracle stored case-insensitively.
// Quoted names with lower-case letters or other characters are kept as-is.
func normalizeName(name string) string {
	if unquotedIdentifier.MatchString(name) {
		return strings.ToLower(name)
	}
	return name
}

// NormalizeTableName maps a filter entry onto the name ListTables reports,
// so "ORDERS", "Orders" and "orders" all select the ORDERS table.
func (s *SchemaStrategy) NormalizeTableName(name string) string {
	if unquotedIdentifier.MatchString(strings.ToUpper(name)) {
		return strings.ToLower(name)
	}
	return name
}

// ListTables returns the owner's tables, case-insensitive names lowered.
// A quoted lower-case table shadowing an upper-case one is listed once.
func (s *SchemaStrategy) ListTables(ctx context.Context) ([]string, error) {
	rows, err := s.db.QueryContext(ctx, listTablesQuery, s.owner)
	if err != nil {
		return nil, fmt.Errorf("query tables: %w", err)
	}
	defer rows.Close()

	var tables []string
	seen := make(map[string]struct{})
	for rows.Next() {
		var name string
		if err := rows.Scan(&name); err != nil {
			return nil, fmt.Errorf("scan table row: %w", err)
		}
		name = normalizeName(name)
		if _, dup := seen[name]; dup {
			continue
		}
		seen[name] = struct{}{}
		tables = append(tables, name)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate table rows: %w", err)
	}

	return tables, nil
}

const tableCommentQuery = `
	SELECT COMMENTS
	FROM ALL_TAB_COMMENTS
	WHERE OWNER = :1
	  AND (TABLE_NAME = :2 OR TABLE_NAME = UPPER(:3))`

// TableComment returns ALL_TAB_COMMENTS.COMMENTS, or "".
func (s *SchemaStrategy) TableComment(ctx context.Context, table string) (string, error) {
	var comment sql.NullString
	err := s.db.QueryRowContext(ctx, tableCommentQuery, s.owner, table, table).Scan(&comment)
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
	    c.COLUMN_NAME,
	    c.DATA_TYPE,
	    NVL(c.CHAR_LENGTH, 0),
	    c.DATA_PRECISION,
	    c.DATA_SCALE,
	    cc.COMMENTS
	FROM ALL_TAB_COLUMNS c
	LEFT JOIN ALL_COL_COMMENTS cc
	    ON c.OWNER = cc.OWNER
	   AND c.TABLE_NAME = cc.TABLE_NAME
	   AND c.COLUMN_NAME = cc.COLUMN_NAME
	WHERE c.OWNER = :1
	  AND (c.TABLE_NAME = :2 OR c.TABLE_NAME = UPPER(:3))
	ORDER BY c.COLUMN_ID`

// Columns returns the table's columns ordered by COLUMN_ID. Column names are
// lowered like table names.
func (s *SchemaStrategy) Columns(ctx context.Context, table string) ([]datasource.ColumnInfo, error) {
	rows, err := s.db.QueryContext(ctx, columnsQuery, s.owner, table, table)
	if err != nil {
		return nil, fmt.Errorf("query columns: %w", err)
	}
	defer rows.Close()

	var columns []datasource.ColumnInfo
	for rows.Next() {
		var (
			name, dataType   string
			charLength       int64
			precision, scale sql.NullInt64
			comment          sql.NullString
		)
		if err := rows.Scan(&name, &dataType, &charLength, &precision, &scale, &comment); err != nil {
			return nil, fmt.Errorf("scan column row: %w", err)
		}
		columns = append(columns, datasource.ColumnInfo{
			Name:    normalizeName(name),
			Type:    renderType(dataType, charLength, precision, scale),
			Comment: comment.String,
		})
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate column rows: %w", err)
	}

	return columns, nil
}

// renderType appends length or precision the way Oracle DDL spells it:
// VARCHAR2(100), NUMBER(10,2), NUMBER(8). Other types are returned as-is.
func renderType(dataType string, charLength int64, precision, scale sql.NullInt64) string {
	switch dataType {
	case "VARCHAR2", "NVARCHAR2", "CHAR", "NCHAR":
		if charLength > 0 {
			return dataType + "(" + strconv.FormatInt(charLength, 10) + ")"
		}
	case "NUMBER":
		if !precision.Valid {
			return dataType
		}
		if scale.Valid && scale.Int64 != 0 {
			return dataType + "(" + strconv.FormatInt(precision.Int64, 10) + "," + strconv.FormatInt(scale.Int64, 10) + ")"
		}
		return dataType + "(" + strconv.FormatInt(precision.Int64, 10) + ")"
	}
	return dataType
}

var (
	_ datasource.SchemaExtractionStrategy = (*SchemaStrategy)(nil)
	_ datasource.TableNameNormalizer      = (*SchemaStrategy)(nil)
)
