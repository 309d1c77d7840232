package datasource

import (
	"fmt"
	"strconv"

	"gopkg.in/yaml.v3"
)

// ConnectionSpec describes a source database. Treat as an immutable value.
type ConnectionSpec struct {
	Dialect  string
	Host     string
	Port     int
	Username string
	Password string
	Database string
	Schema   string // optional; postgresql search_path, mssql schema, oracle owner

	// ConnectRetries bounds retries of transient ping failures in Open.
	ConnectRetries int
}

// DriverDialect returns the wire-compatible family for the connection's dialect.
func (s ConnectionSpec) DriverDialect() string {
	return DriverDialect(s.Dialect)
}

// String renders the connection settings without the password, safe for logs.
func (s ConnectionSpec) String() string {
	return fmt.Sprintf("%s://%s@%s:%s/%s", s.Dialect, s.Username, s.Host, strconv.Itoa(s.Port), s.Database)
}

// ColumnInfo describes one column. Comment never contains newlines.
type ColumnInfo struct {
	Name    string `json:"name" yaml:"name"`
	Type    string `json:"type" yaml:"type"`
	Comment string `json:"comment" yaml:"comment"`
}

// TableSchema is the extracted metadata for one table.
type TableSchema struct {
	TableName string       `json:"table_name" yaml:"table_name"`
	Comment   string       `json:"comment" yaml:"comment"`
	Columns   []ColumnInfo `json:"columns" yaml:"columns"`
}

// SchemaMap maps table names to schemas, preserving insertion order.
type SchemaMap struct {
	order  []string
	tables map[string]*TableSchema
}

// NewSchemaMap returns an empty SchemaMap.
func NewSchemaMap() *SchemaMap {
	return &SchemaMap{tables: make(map[string]*TableSchema)}
}

// Add stores t under t.TableName. Re-adding a name replaces the schema and
// keeps its position.
func (m *SchemaMap) Add(t TableSchema) {
	if m.tables == nil {
		m.tables = make(map[string]*TableSchema)
	}
	if _, ok := m.tables[t.TableName]; !ok {
		m.order = append(m.order, t.TableName)
	}
	m.tables[t.TableName] = &t
}

// Get returns the schema for name.
func (m *SchemaMap) Get(name string) (TableSchema, bool) {
	if m == nil {
		return TableSchema{}, false
	}
	t, ok := m.tables[name]
	if !ok {
		return TableSchema{}, false
	}
	return *t, true
}

// Names returns table names in insertion order.
func (m *SchemaMap) Names() []string {
	if m == nil {
		return nil
	}
	return append([]string(nil), m.order...)
}

// Tables returns schemas in insertion order.
func (m *SchemaMap) Tables() []TableSchema {
	if m == nil {
		return nil
	}
	result := make([]TableSchema, 0, len(m.order))
	for _, name := range m.order {
		result = append(result, *m.tables[name])
	}
	return result
}

// Len returns the number of tables.
func (m *SchemaMap) Len() int {
	if m == nil {
		return 0
	}
	return len(m.order)
}

// MarshalYAML renders the map as a YAML mapping in insertion order.
func (m *SchemaMap) MarshalYAML() (any, error) {
	node := &yaml.Node{Kind: yaml.MappingNode, Tag: "!!map"}
	for _, name := range m.order {
		var value yaml.Node
		if err := value.Encode(m.tables[name]); err != nil {
			return nil, fmt.Errorf("encode table %s: %w", name, err)
		}
		node.Content = append(node.Content,
			&yaml.Node{Kind: yaml.ScalarNode, Tag: "!!str", Value: name},
			&value,
		)
	}
	return node, nil
}
