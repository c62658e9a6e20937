package oracle

import (
	"github.com/ekaya-inc/ekaya-oracle/pkg/adapters/datasource"
)

// ColumnRow is one row of the catalog query: a column, plus the type of one
// constraint covering it when there is one.
type ColumnRow struct {
	Schema   string
	Table    string
	Column   string
	DataType string
	KeyType  string // "P", "U", or empty
}

// isKey reports whether the constraint type marks the column as identifying.
func isKey(keyType string) bool {
	return keyType == "P" || keyType == "U"
}

// ReduceSchema folds catalog rows into an ordered SchemaMap. Rows may come
// in any order; a column covered by several constraints appears once, and
// is a primary key when any of its rows says so.
func ReduceSchema(rows []ColumnRow) *datasource.SchemaMap {
	b := datasource.NewSchemaBuilder()
	for _, r := range rows {
		var attrs []string
		if isKey(r.KeyType) {
			attrs = []string{datasource.AttributePrimaryKey}
		}
		b.Add(r.Schema, r.Table, datasource.SchemaColumn{
			Name:       r.Column,
			Type:       r.DataType,
			Attributes: attrs,
		})
	}
	return b.Build()
}
