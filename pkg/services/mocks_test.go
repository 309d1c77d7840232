package services

import (
	"context"
	"fmt"
	"strings"
	"sync"

	"github.com/stretchr/testify/mock"

	"github.com/ekaya-inc/dbschema-knowledge/pkg/adapters/datasource"
	"github.com/ekaya-inc/dbschema-knowledge/pkg/apperrors"
	"github.com/ekaya-inc/dbschema-knowledge/pkg/jsonutil"
	"github.com/ekaya-inc/dbschema-knowledge/pkg/knowledge"
)

type mockKnowledgeAPI struct {
	mock.Mock
}

func (m *mockKnowledgeAPI) CreateDataset(ctx context.Context, name string) (string, error) {
	args := m.Called(ctx, name)
	return args.String(0), args.Error(1)
}

func (m *mockKnowledgeAPI) GetDatasetDetail(ctx context.Context, datasetID string) (*knowledge.Dataset, error) {
	args := m.Called(ctx, datasetID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*knowledge.Dataset), args.Error(1)
}

func (m *mockKnowledgeAPI) ListDocuments(ctx context.Context, datasetID, keyword string, page, limit int) (*knowledge.DocumentList, error) {
	args := m.Called(ctx, datasetID, keyword, page, limit)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*knowledge.DocumentList), args.Error(1)
}

func (m *mockKnowledgeAPI) DeleteDocument(ctx context.Context, datasetID, documentID string) error {
	args := m.Called(ctx, datasetID, documentID)
	return args.Error(0)
}

func (m *mockKnowledgeAPI) CreateDocumentFromText(ctx context.Context, datasetID, name, text string) (*knowledge.Document, error) {
	args := m.Called(ctx, datasetID, name, text)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*knowledge.Document), args.Error(1)
}

// memoryKnowledgeAPI is an in-memory knowledge service with keyword search on
// document names.
type memoryKnowledgeAPI struct {
	mu       sync.Mutex
	datasets map[string][]knowledge.Document
	texts    map[string]string
	nextID   int
}

func newMemoryKnowledgeAPI() *memoryKnowledgeAPI {
	return &memoryKnowledgeAPI{
		datasets: make(map[string][]knowledge.Document),
		texts:    make(map[string]string),
	}
}

func (m *memoryKnowledgeAPI) id(prefix string) string {
	m.nextID++
	return fmt.Sprintf("%s-%d", prefix, m.nextID)
}

func (m *memoryKnowledgeAPI) CreateDataset(ctx context.Context, name string) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	id := m.id("ds")
	m.datasets[id] = nil
	return id, nil
}

func (m *memoryKnowledgeAPI) GetDatasetDetail(ctx context.Context, datasetID string) (*knowledge.Dataset, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.datasets[datasetID]; !ok {
		return nil, &knowledge.HTTPError{Method: "GET", URL: "/datasets/" + datasetID, StatusCode: 404}
	}
	return &knowledge.Dataset{ID: jsonutil.FlexibleString(datasetID)}, nil
}

func (m *memoryKnowledgeAPI) ListDocuments(ctx context.Context, datasetID, keyword string, page, limit int) (*knowledge.DocumentList, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	docs, ok := m.datasets[datasetID]
	if !ok {
		return nil, apperrors.ErrNotFound
	}
	list := &knowledge.DocumentList{Page: page, Limit: limit}
	for _, d := range docs {
		if strings.Contains(d.Name, keyword) {
			list.Data = append(list.Data, d)
		}
	}
	list.Total = len(list.Data)
	return list, nil
}

func (m *memoryKnowledgeAPI) DeleteDocument(ctx context.Context, datasetID, documentID string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	docs := m.datasets[datasetID]
	for i, d := range docs {
		if d.ID.String() == documentID {
			m.datasets[datasetID] = append(docs[:i], docs[i+1:]...)
			delete(m.texts, documentID)
			return nil
		}
	}
	return apperrors.ErrNotFound
}

func (m *memoryKnowledgeAPI) CreateDocumentFromText(ctx context.Context, datasetID, name, text string) (*knowledge.Document, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.datasets[datasetID]; !ok {
		return nil, apperrors.ErrNotFound
	}
	doc := knowledge.Document{ID: jsonutil.FlexibleString(m.id("doc")), Name: name}
	m.datasets[datasetID] = append(m.datasets[datasetID], doc)
	m.texts[doc.ID.String()] = text
	return &doc, nil
}

func (m *memoryKnowledgeAPI) documentNames(datasetID string) []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	var names []string
	for _, d := range m.datasets[datasetID] {
		names = append(names, d.Name)
	}
	return names
}

// fakeStrategy serves a fixed catalog.
type fakeStrategy struct {
	tables   []string
	comments map[string]string
	columns  map[string][]datasource.ColumnInfo
	err      error
}

func (f *fakeStrategy) ListTables(ctx context.Context) ([]string, error) {
	return f.tables, f.err
}

func (f *fakeStrategy) TableComment(ctx context.Context, table string) (string, error) {
	return f.comments[table], nil
}

func (f *fakeStrategy) Columns(ctx context.Context, table string) ([]datasource.ColumnInfo, error) {
	return append([]datasource.ColumnInfo(nil), f.columns[table]...), nil
}

// fakeConnection counts lifecycle calls.
type fakeConnection struct {
	spec     datasource.ConnectionSpec
	strategy datasource.SchemaExtractionStrategy
	openErr  error
	opened   int
	closed   int
}

func (f *fakeConnection) Open(ctx context.Context) error {
	f.opened++
	return f.openErr
}

func (f *fakeConnection) Strategy() datasource.SchemaExtractionStrategy { return f.strategy }
func (f *fakeConnection) Spec() datasource.ConnectionSpec               { return f.spec }

func (f *fakeConnection) Close() error {
	f.closed++
	return nil
}
