package oracle

import (
	"context"
	"fmt"

	"github.com/ekaya-inc/ekaya-oracle/pkg/adapters/datasource"
)

// tablesSchemaQuery lists every column owned by the connected user with the
// primary or unique constraints covering it. A column in several
// constraints yields one row per constraint.
const tablesSchemaQuery = `
SELECT tc.owner           "table_schema",
       tc.table_name      "table_name",
       tc.column_name     "column_name",
       tc.data_type       "data_type",
       c.constraint_type  "key_type"
FROM all_tab_columns tc
LEFT JOIN all_cons_columns cc
  ON cc.owner = tc.owner
 AND cc.table_name = tc.table_name
 AND cc.column_name = tc.column_name
LEFT JOIN all_constraints c
  ON c.owner = tc.owner
 AND c.table_name = tc.table_name
 AND c.constraint_name = cc.constraint_name
 AND c.constraint_type IN ('P', 'U')
WHERE tc.owner = USER`

// SchemaReader introspects through a statement executor.
type SchemaReader struct {
	executor datasource.SQLExecutor
}

// NewSchemaReader creates a reader running its catalog query on executor.
func NewSchemaReader(executor datasource.SQLExecutor) *SchemaReader {
	return &SchemaReader{executor: executor}
}

// Schema returns the current user's tables and columns, freshly queried.
func (r *SchemaReader) Schema(ctx context.Context) (*datasource.SchemaMap, error) {
	result, err := r.executor.Execute(ctx, tablesSchemaQuery, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to query catalog: %w", err)
	}
	return ReduceSchema(columnRows(result)), nil
}

func columnRows(result *datasource.QueryResult) []ColumnRow {
	rows := make([]ColumnRow, 0, len(result.Rows))
	for _, r := range result.Rows {
		rows = append(rows, ColumnRow{
			Schema:   stringValue(r["table_schema"]),
			Table:    stringValue(r["table_name"]),
			Column:   stringValue(r["column_name"]),
			DataType: stringValue(r["data_type"]),
			KeyType:  stringValue(r["key_type"]),
		})
	}
	return rows
}

func stringValue(v any) string {
	switch s := v.(type) {
	case nil:
		return ""
	case string:
		return s
	case []byte:
		return string(s)
	default:
		return fmt.Sprint(s)
	}
}

var _ datasource.SchemaIntrospector = (*SchemaReader)(nil)
