package oracle

import (
	"context"
	"encoding/json"
	"errors"
	"math/rand"
	"regexp"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ekaya-inc/ekaya-oracle/pkg/adapters/datasource"
	"github.com/ekaya-inc/ekaya-oracle/pkg/apperrors"
)

func catalogRows() []ColumnRow {
	return []ColumnRow{
		{Schema: "SALES", Table: "ORDERS", Column: "STATUS", DataType: "VARCHAR2"},
		{Schema: "SALES", Table: "ORDERS", Column: "ID", DataType: "NUMBER", KeyType: "P"},
		{Schema: "SALES", Table: "CUSTOMERS", Column: "EMAIL", DataType: "VARCHAR2", KeyType: "U"},
		{Schema: "SALES", Table: "CUSTOMERS", Column: "ID", DataType: "NUMBER", KeyType: "P"},
		{Schema: "HR", Table: "EMPLOYEES", Column: "NAME", DataType: "VARCHAR2"},
		{Schema: "SALES", Table: "ORDERS", Column: "CREATED_AT", DataType: "DATE"},
	}
}

func TestReduceSchema_OrdersEveryLevel(t *testing.T) {
	m := ReduceSchema(catalogRows())

	assert.Equal(t, []string{"HR", "SALES"}, m.SchemaNames())
	require.Len(t, m.Schemas[1].Tables, 2)
	assert.Equal(t, "CUSTOMERS", m.Schemas[1].Tables[0].Name)
	assert.Equal(t, "ORDERS", m.Schemas[1].Tables[1].Name)

	cols, ok := m.Columns("SALES", "ORDERS")
	require.True(t, ok)
	require.Len(t, cols, 3)
	assert.Equal(t, "CREATED_AT", cols[0].Name)
	assert.Equal(t, "ID", cols[1].Name)
	assert.Equal(t, "STATUS", cols[2].Name)

	assert.True(t, cols[1].IsPrimaryKey())
	assert.Equal(t, []string{"primaryKey"}, cols[1].Attributes)
	assert.False(t, cols[2].IsPrimaryKey())
	assert.Equal(t, []string{}, cols[2].Attributes)

	cols, _ = m.Columns("SALES", "CUSTOMERS")
	assert.True(t, cols[0].IsPrimaryKey(), "unique key counts as primaryKey")
}

func TestReduceSchema_IndependentOfRowOrder(t *testing.T) {
	want, err := json.Marshal(ReduceSchema(catalogRows()))
	require.NoError(t, err)

	rng := rand.New(rand.NewSource(7))
	for i := 0; i < 20; i++ {
		rows := catalogRows()
		rng.Shuffle(len(rows), func(a, b int) { rows[a], rows[b] = rows[b], rows[a] })

		got, err := json.Marshal(ReduceSchema(rows))
		require.NoError(t, err)
		assert.JSONEq(t, string(want), string(got))
		assert.Equal(t, string(want), string(got), "key order must be stable")
	}
}

func TestReduceSchema_MergesColumnsInSeveralConstraints(t *testing.T) {
	m := ReduceSchema([]ColumnRow{
		{Schema: "APP", Table: "T", Column: "CODE", DataType: "VARCHAR2"},
		{Schema: "APP", Table: "T", Column: "CODE", DataType: "VARCHAR2", KeyType: "U"},
		{Schema: "APP", Table: "T", Column: "CODE", DataType: "VARCHAR2", KeyType: "P"},
		{Schema: "APP", Table: "T", Column: "CODE", DataType: "VARCHAR2", KeyType: "R"},
	})

	cols, ok := m.Columns("APP", "T")
	require.True(t, ok)
	require.Len(t, cols, 1)
	assert.Equal(t, []string{"primaryKey"}, cols[0].Attributes)
}

func TestReduceSchema_Empty(t *testing.T) {
	m := ReduceSchema(nil)
	assert.Empty(t, m.Schemas)

	out, err := json.Marshal(m)
	require.NoError(t, err)
	assert.Equal(t, "{}", string(out))
}

func TestSchemaReader_RunsCatalogQuery(t *testing.T) {
	executor, mock, leaser, _ := newTestExecutor(t, testConfig())

	mock.ExpectQuery(regexp.QuoteMeta(tablesSchemaQuery)).
		WillReturnRows(mockRows(mock, "table_schema", "table_name", "column_name", "data_type", "key_type").
			AddRow("SALES", "ORDERS", "ID", "NUMBER", "P").
			AddRow("SALES", "ORDERS", "ID", "NUMBER", nil).
			AddRow("SALES", "ORDERS", "AMOUNT", []byte("NUMBER"), nil))

	m, err := NewSchemaReader(executor).Schema(context.Background())
	require.NoError(t, err)

	cols, ok := m.Columns("SALES", "ORDERS")
	require.True(t, ok)
	assert.Equal(t, []datasource.SchemaColumn{
		{Name: "AMOUNT", Type: "NUMBER", Attributes: []string{}},
		{Name: "ID", Type: "NUMBER", Attributes: []string{"primaryKey"}},
	}, cols)
	assert.Equal(t, int32(1), leaser.released.Load())
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestSchemaReader_PropagatesExecutionError(t *testing.T) {
	executor, mock, _, _ := newTestExecutor(t, testConfig())
	mock.ExpectQuery(regexp.QuoteMeta(tablesSchemaQuery)).
		WillReturnError(errors.New("ORA-00942: table or view does not exist"))

	_, err := NewSchemaReader(executor).Schema(context.Background())
	var execErr *apperrors.ExecutionError
	require.True(t, errors.As(err, &execErr))
	assert.Equal(t, "ORA-00942", execErr.Code)
}
