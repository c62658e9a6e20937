package datasource

import (
	"bytes"
	"encoding/json"
	"sort"

	"gopkg.in/yaml.v3"
)

// AttributePrimaryKey tags a column that belongs to a primary or unique constraint.
const AttributePrimaryKey = "primaryKey"

// SchemaColumn is one column of an introspected table.
type SchemaColumn struct {
	Name       string   `json:"name" yaml:"name"`
	Type       string   `json:"type" yaml:"type"`
	Attributes []string `json:"attributes" yaml:"attributes"`
}

// IsPrimaryKey reports whether the column carries the primaryKey attribute.
func (c SchemaColumn) IsPrimaryKey() bool {
	for _, a := range c.Attributes {
		if a == AttributePrimaryKey {
			return true
		}
	}
	return false
}

// SchemaTable is a table and its columns, ordered by column name.
type SchemaTable struct {
	Name    string
	Columns []SchemaColumn
}

// Schema is a database schema (owner) and its tables, ordered by table name.
type Schema struct {
	Name   string
	Tables []SchemaTable
}

// SchemaMap is an ordered schema -> table -> columns mapping.
// It is built fresh on every introspection call and must not be mutated once returned.
type SchemaMap struct {
	Schemas []Schema
}

// SchemaNames returns schema names in order.
func (m *SchemaMap) SchemaNames() []string {
	names := make([]string, len(m.Schemas))
	for i, s := range m.Schemas {
		names[i] = s.Name
	}
	return names
}

// Columns returns the columns of schema.table, or false if the table is unknown.
func (m *SchemaMap) Columns(schema, table string) ([]SchemaColumn, bool) {
	for _, s := range m.Schemas {
		if s.Name != schema {
			continue
		}
		for _, t := range s.Tables {
			if t.Name == table {
				return t.Columns, true
			}
		}
	}
	return nil, false
}

// MarshalJSON renders the map as nested JSON objects, keeping key order.
func (m SchemaMap) MarshalJSON() ([]byte, error) {
	var buf bytes.Buffer
	buf.WriteByte('{')
	for i, s := range m.Schemas {
		if i > 0 {
			buf.WriteByte(',')
		}
		if err := writeJSONKey(&buf, s.Name); err != nil {
			return nil, err
		}
		buf.WriteByte('{')
		for j, t := range s.Tables {
			if j > 0 {
				buf.WriteByte(',')
			}
			if err := writeJSONKey(&buf, t.Name); err != nil {
				return nil, err
			}
			cols := t.Columns
			if cols == nil {
				cols = []SchemaColumn{}
			}
			encoded, err := json.Marshal(cols)
			if err != nil {
				return nil, err
			}
			buf.Write(encoded)
		}
		buf.WriteByte('}')
	}
	buf.WriteByte('}')
	return buf.Bytes(), nil
}

func writeJSONKey(buf *bytes.Buffer, key string) error {
	encoded, err := json.Marshal(key)
	if err != nil {
		return err
	}
	buf.Write(encoded)
	buf.WriteByte(':')
	return nil
}

// MarshalYAML renders the map as nested YAML mappings, keeping key order.
func (m SchemaMap) MarshalYAML() (any, error) {
	root := &yaml.Node{Kind: yaml.MappingNode}
	for _, s := range m.Schemas {
		tables := &yaml.Node{Kind: yaml.MappingNode}
		for _, t := range s.Tables {
			cols := &yaml.Node{}
			if err := cols.Encode(t.Columns); err != nil {
				return nil, err
			}
			tables.Content = append(tables.Content, stringNode(t.Name), cols)
		}
		root.Content = append(root.Content, stringNode(s.Name), tables)
	}
	return root, nil
}

func stringNode(v string) *yaml.Node {
	return &yaml.Node{Kind: yaml.ScalarNode, Tag: "!!str", Value: v}
}

// SchemaBuilder accumulates columns in any order and produces a sorted SchemaMap.
// Repeated entries for the same column are merged; attributes are unioned.
type SchemaBuilder struct {
	schemas map[string]map[string]map[string]*SchemaColumn
}

// NewSchemaBuilder returns an empty builder.
func NewSchemaBuilder() *SchemaBuilder {
	return &SchemaBuilder{schemas: make(map[string]map[string]map[string]*SchemaColumn)}
}

// Add records one column of schema.table.
func (b *SchemaBuilder) Add(schema, table string, col SchemaColumn) {
	tables, ok := b.schemas[schema]
	if !ok {
		tables = make(map[string]map[string]*SchemaColumn)
		b.schemas[schema] = tables
	}
	cols, ok := tables[table]
	if !ok {
		cols = make(map[string]*SchemaColumn)
		tables[table] = cols
	}

	existing, ok := cols[col.Name]
	if !ok {
		c := SchemaColumn{Name: col.Name, Type: col.Type, Attributes: []string{}}
		c.Attributes = mergeAttributes(c.Attributes, col.Attributes)
		cols[col.Name] = &c
		return
	}
	if existing.Type == "" {
		existing.Type = col.Type
	}
	existing.Attributes = mergeAttributes(existing.Attributes, col.Attributes)
}

func mergeAttributes(dst, src []string) []string {
	for _, a := range src {
		found := false
		for _, d := range dst {
			if d == a {
				found = true
				break
			}
		}
		if !found {
			dst = append(dst, a)
		}
	}
	sort.Strings(dst)
	return dst
}

// Build returns the accumulated columns ordered by name at every level.
func (b *SchemaBuilder) Build() *SchemaMap {
	m := &SchemaMap{Schemas: make([]Schema, 0, len(b.schemas))}
	for _, schemaName := range sortedKeys(b.schemas) {
		tables := b.schemas[schemaName]
		s := Schema{Name: schemaName, Tables: make([]SchemaTable, 0, len(tables))}
		for _, tableName := range sortedKeys(tables) {
			cols := tables[tableName]
			t := SchemaTable{Name: tableName, Columns: make([]SchemaColumn, 0, len(cols))}
			for _, colName := range sortedKeys(cols) {
				t.Columns = append(t.Columns, *cols[colName])
			}
			s.Tables = append(s.Tables, t)
		}
		m.Schemas = append(m.Schemas, s)
	}
	return m
}

func sortedKeys[V any](m map[string]V) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
