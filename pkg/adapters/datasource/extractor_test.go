package datasource

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"

	"github.com/ekaya-inc/dbschema-knowledge/pkg/apperrors"
)

func newTestExtractor(t *testing.T, strategy *fakeStrategy) *Extractor {
	t.Helper()
	conn := &fakeConnection{
		spec:     ConnectionSpec{Dialect: DialectMySQL, Database: "shop"},
		strategy: strategy,
	}
	return NewExtractor(conn, zaptest.NewLogger(t))
}

func TestExtractor_GetAllTablesSchema(t *testing.T) {
	strategy := &fakeStrategy{
		tables:   []string{"orders", "users"},
		comments: map[string]string{"orders": "Order table"},
		columns: map[string][]ColumnInfo{
			"orders": {
				{Name: "id", Type: "int", Comment: "PK"},
				{Name: "note", Type: "varchar(255)", Comment: "free\ntext"},
			},
			"users": {
				{Name: "id", Type: "bigint"},
			},
		},
	}
	e := newTestExtractor(t, strategy)

	schemas, err := e.GetAllTablesSchema(context.Background(), "")
	require.NoError(t, err)

	assert.Equal(t, []string{"orders", "users"}, schemas.Names())

	orders, ok := schemas.Get("orders")
	require.True(t, ok)
	assert.Equal(t, "Order table", orders.Comment)
	assert.Equal(t, []ColumnInfo{
		{Name: "id", Type: "int", Comment: "PK"},
		{Name: "note", Type: "varchar(255)", Comment: "freetext"},
	}, orders.Columns)

	users, ok := schemas.Get("users")
	require.True(t, ok)
	assert.Equal(t, "users", users.Comment, "missing comment falls back to table name")
	assert.Equal(t, "", users.Columns[0].Comment)

	assert.Equal(t, "shop", e.DatabaseName())
}

func TestExtractor_FilterOrderAndUnknownNames(t *testing.T) {
	strategy := &fakeStrategy{
		tables: []string{"orders", "users"},
		columns: map[string][]ColumnInfo{
			"orders": {{Name: "id", Type: "int"}},
			"users":  {{Name: "id", Type: "int"}},
		},
	}
	e := newTestExtractor(t, strategy)

	schemas, err := e.GetAllTablesSchema(context.Background(), "users,ghost,orders")
	require.NoError(t, err)
	assert.Equal(t, []string{"users", "orders"}, schemas.Names())

	// ghost is never queried
	assert.NotContains(t, strategy.calls, "comment:ghost")
	assert.NotContains(t, strategy.calls, "columns:ghost")
}

func TestExtractor_CommentsNeverContainNewlines(t *testing.T) {
	strategy := &fakeStrategy{
		tables:   []string{"t"},
		comments: map[string]string{"t": "line1\nline2\r\n"},
		columns: map[string][]ColumnInfo{
			"t": {{Name: "c", Type: "text", Comment: "a\r\nb\nc"}},
		},
	}
	e := newTestExtractor(t, strategy)

	schemas, err := e.GetAllTablesSchema(context.Background(), "")
	require.NoError(t, err)

	table, _ := schemas.Get("t")
	assert.Equal(t, "line1line2", table.Comment)
	assert.Equal(t, "abc", table.Columns[0].Comment)
}

func TestExtractor_NewlineOnlyCommentFallsBack(t *testing.T) {
	strategy := &fakeStrategy{
		tables:   []string{"t"},
		comments: map[string]string{"t": "\n"},
		columns:  map[string][]ColumnInfo{"t": {{Name: "c", Type: "int"}}},
	}
	e := newTestExtractor(t, strategy)

	schemas, err := e.GetAllTablesSchema(context.Background(), "")
	require.NoError(t, err)

	table, _ := schemas.Get("t")
	assert.Equal(t, "t", table.Comment)
}

func TestExtractor_ListFailure(t *testing.T) {
	driverErr := errors.New("Error 1142: SELECT command denied")
	e := newTestExtractor(t, &fakeStrategy{listErr: driverErr})

	schemas, err := e.GetAllTablesSchema(context.Background(), "")
	require.Error(t, err)
	assert.Nil(t, schemas)
	assert.ErrorIs(t, err, apperrors.ErrExtractionQuery)
	assert.ErrorIs(t, err, driverErr)
}

func TestExtractor_PerTableFailureAbortsWholeCall(t *testing.T) {
	strategy := &fakeStrategy{
		tables: []string{"a", "b", "c"},
		columns: map[string][]ColumnInfo{
			"a": {{Name: "id", Type: "int"}},
			"c": {{Name: "id", Type: "int"}},
		},
		columnsErr: map[string]error{"b": errors.New("connection reset")},
	}
	e := newTestExtractor(t, strategy)

	schemas, err := e.GetAllTablesSchema(context.Background(), "")
	require.Error(t, err)
	assert.Nil(t, schemas, "no partial schema map")
	assert.ErrorIs(t, err, apperrors.ErrExtractionQuery)
	assert.Contains(t, err.Error(), "columns for table b")
	assert.NotContains(t, strategy.calls, "comment:c", "extraction stops at the failing table")
}

func TestExtractor_CommentFailure(t *testing.T) {
	strategy := &fakeStrategy{
		tables:     []string{"a"},
		commentErr: map[string]error{"a": errors.New("ORA-00942: table or view does not exist")},
	}
	e := newTestExtractor(t, strategy)

	_, err := e.GetAllTablesSchema(context.Background(), "")
	require.Error(t, err)
	assert.ErrorIs(t, err, apperrors.ErrExtractionQuery)
	assert.Contains(t, err.Error(), "comment for table a")
}

func TestExtractor_FilterUsesStrategyNormalizer(t *testing.T) {
	inner := &fakeStrategy{tables: []string{"orders", "users", "Quoted"}}
	conn := &fakeConnection{
		spec:     ConnectionSpec{Dialect: DialectOracle, Database: "ORCLPDB1"},
		strategy: foldingStrategy{inner},
	}
	e := NewExtractor(conn, zaptest.NewLogger(t))

	schemas, err := e.GetAllTablesSchema(context.Background(), "ORDERS,Quoted,Users,orders")
	require.NoError(t, err)
	assert.Equal(t, []string{"orders", "Quoted", "users"}, schemas.Names())
}

func TestExtractor_FilterIsExactWithoutNormalizer(t *testing.T) {
	e := newTestExtractor(t, &fakeStrategy{tables: []string{"orders"}})

	schemas, err := e.GetAllTablesSchema(context.Background(), "ORDERS")
	require.NoError(t, err)
	assert.Equal(t, 0, schemas.Len())
}
