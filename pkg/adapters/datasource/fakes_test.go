package datasource

import (
	"context"
	"strings"
	"sync"

	"go.uber.org/zap"
)

// fakeStrategy serves canned catalog data.
type fakeStrategy struct {
	tables   []string
	comments map[string]string
	columns  map[string][]ColumnInfo

	listErr    error
	commentErr map[string]error
	columnsErr map[string]error

	mu    sync.Mutex
	calls []string
}

func (f *fakeStrategy) record(call string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls = append(f.calls, call)
}

func (f *fakeStrategy) ListTables(ctx context.Context) ([]string, error) {
	f.record("list")
	return f.tables, f.listErr
}

func (f *fakeStrategy) TableComment(ctx context.Context, table string) (string, error) {
	f.record("comment:" + table)
	if err := f.commentErr[table]; err != nil {
		return "", err
	}
	return f.comments[table], nil
}

func (f *fakeStrategy) Columns(ctx context.Context, table string) ([]ColumnInfo, error) {
	f.record("columns:" + table)
	if err := f.columnsErr[table]; err != nil {
		return nil, err
	}
	cols := f.columns[table]
	return append([]ColumnInfo(nil), cols...), nil
}

// foldingStrategy is a fakeStrategy whose catalog folds names to lower case.
type foldingStrategy struct {
	*fakeStrategy
}

func (foldingStrategy) NormalizeTableName(name string) string {
	return strings.ToLower(name)
}

// fakeConnection records lifecycle calls.
type fakeConnection struct {
	spec     ConnectionSpec
	strategy SchemaExtractionStrategy
	openErr  error
	opened   bool
	closed   int
}

func (f *fakeConnection) Open(ctx context.Context) error {
	f.opened = true
	return f.openErr
}

func (f *fakeConnection) Strategy() SchemaExtractionStrategy { return f.strategy }
func (f *fakeConnection) Spec() ConnectionSpec               { return f.spec }

func (f *fakeConnection) Close() error {
	f.closed++
	return nil
}

// registerFakeDialects registers fake factories for every normalized dialect.
// The returned map collects the specs passed to each factory.
func registerFakeDialects() map[string]ConnectionSpec {
	seen := make(map[string]ConnectionSpec)
	var mu sync.Mutex
	for _, d := range []string{DialectMySQL, DialectDoris, DialectPostgreSQL, DialectMSSQL, DialectOracle} {
		dialect := d
		Register(DatasourceAdapterRegistration{
			Info: DatasourceAdapterInfo{Type: dialect, DisplayName: dialect, Driver: "fake"},
			Factory: func(spec ConnectionSpec, logger *zap.Logger) (Connection, error) {
				mu.Lock()
				seen[dialect] = spec
				mu.Unlock()
				return &fakeConnection{spec: spec, strategy: &fakeStrategy{}}, nil
			},
		})
	}
	return seen
}
