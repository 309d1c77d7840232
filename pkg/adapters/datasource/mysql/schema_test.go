package mysql

import (
	"context"
	"database/sql"
	"errors"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ekaya-inc/dbschema-knowledge/pkg/adapters/datasource"
)

func newMockDB(t *testing.T) (*sql.DB, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	return db, mock
}

func TestSchemaStrategy_ListTables(t *testing.T) {
	db, mock := newMockDB(t)

	mock.ExpectQuery(`table_type = 'BASE TABLE'`).
		WillReturnRows(sqlmock.NewRows([]string{"table_name"}).AddRow("orders").AddRow("users"))

	tables, err := NewSchemaStrategy(db).ListTables(context.Background())
	require.NoError(t, err)
	assert.Equal(t, []string{"orders", "users"}, tables)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestSchemaStrategy_TableComment(t *testing.T) {
	db, mock := newMockDB(t)

	mock.ExpectQuery(`SELECT table_comment`).
		WithArgs("orders").
		WillReturnRows(sqlmock.NewRows([]string{"table_comment"}).AddRow("Order table"))

	comment, err := NewSchemaStrategy(db).TableComment(context.Background(), "orders")
	require.NoError(t, err)
	assert.Equal(t, "Order table", comment)
}

func TestSchemaStrategy_TableComment_NoRow(t *testing.T) {
	db, mock := newMockDB(t)

	mock.ExpectQuery(`SELECT table_comment`).
		WithArgs("ghost").
		WillReturnRows(sqlmock.NewRows([]string{"table_comment"}))

	comment, err := NewSchemaStrategy(db).TableComment(context.Background(), "ghost")
	require.NoError(t, err)
	assert.Equal(t, "", comment)
}

func TestSchemaStrategy_Columns(t *testing.T) {
	db, mock := newMockDB(t)

	mock.ExpectQuery(`ORDER BY ordinal_position`).
		WithArgs("orders").
		WillReturnRows(sqlmock.NewRows([]string{"column_name", "column_type", "column_comment"}).
			AddRow("id", "int", "PK").
			AddRow("note", "varchar(255)", "").
			AddRow("status", "enum('new','paid')", nil))

	columns, err := NewSchemaStrategy(db).Columns(context.Background(), "orders")
	require.NoError(t, err)
	assert.Equal(t, []datasource.ColumnInfo{
		{Name: "id", Type: "int", Comment: "PK"},
		{Name: "note", Type: "varchar(255)", Comment: ""},
		{Name: "status", Type: "enum('new','paid')", Comment: ""},
	}, columns)
}

func TestSchemaStrategy_Columns_Error(t *testing.T) {
	db, mock := newMockDB(t)

	driverErr := errors.New("Error 1146: Table 'shop.orders' doesn't exist")
	mock.ExpectQuery(`ORDER BY ordinal_position`).WithArgs("orders").WillReturnError(driverErr)

	_, err := NewSchemaStrategy(db).Columns(context.Background(), "orders")
	assert.ErrorIs(t, err, driverErr)
}
