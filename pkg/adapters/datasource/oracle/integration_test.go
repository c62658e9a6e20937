//go:build integration

package oracle

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"

	"github.com/ekaya-inc/ekaya-oracle/pkg/adapters/datasource"
	"github.com/ekaya-inc/ekaya-oracle/pkg/apperrors"
	"github.com/ekaya-inc/ekaya-oracle/pkg/dialect"
	"github.com/ekaya-inc/ekaya-oracle/pkg/testhelpers"
)

func newIntegrationAdapter(t *testing.T) *Adapter {
	t.Helper()
	testDB := testhelpers.GetTestDB(t)

	cfg, err := FromMap(testDB.AdapterConfig())
	require.NoError(t, err)

	adapter, err := NewAdapter(cfg, datasource.Dependencies{Logger: zaptest.NewLogger(t)})
	require.NoError(t, err)
	t.Cleanup(func() { _ = adapter.Close() })
	return adapter
}

func TestIntegration_TestConnection(t *testing.T) {
	adapter := newIntegrationAdapter(t)
	require.NoError(t, adapter.TestConnection(context.Background()))
}

func TestIntegration_SchemaIntrospection(t *testing.T) {
	adapter := newIntegrationAdapter(t)

	m, err := adapter.Schema(context.Background())
	require.NoError(t, err)

	cols, ok := m.Columns("CUBE", "CUSTOMERS")
	require.True(t, ok)
	require.Len(t, cols, 3)
	assert.Equal(t, "EMAIL", cols[0].Name)
	assert.True(t, cols[0].IsPrimaryKey(), "unique column is tagged")
	assert.Equal(t, "ID", cols[1].Name)
	assert.True(t, cols[1].IsPrimaryKey())
	assert.False(t, cols[2].IsPrimaryKey())

	cols, ok = m.Columns("CUBE", "ORDERS")
	require.True(t, ok)
	for _, c := range cols {
		if c.Name == "CUSTOMER_ID" {
			assert.False(t, c.IsPrimaryKey(), "foreign keys are not tagged")
		}
	}
}

func TestIntegration_DialectFragmentsRunOnOracle(t *testing.T) {
	adapter := newIntegrationAdapter(t)
	rules := adapter.Rules()
	ctx := context.Background()

	bucket, err := rules.TimeGroupedColumn(dialect.GranularityMonth, "o.created_at")
	require.NoError(t, err)

	query := fmt.Sprintf(
		"SELECT %s month_start, COUNT(*) cnt FROM %s WHERE %s%s ORDER BY 1%s",
		bucket,
		dialect.AliasTable(rules, "orders", "o"),
		rules.LikeIgnoreCase("o.status", false, ":status", dialect.MatchStarts),
		rules.GroupByClause([]string{bucket}),
		rules.Pagination(10, 0),
	)

	result, err := adapter.Execute(ctx, query, map[string]any{"status": "SHIP"})
	require.NoError(t, err)
	require.Len(t, result.Rows, 2)
	assert.Equal(t, "1", result.Rows[0]["CNT"])
	assert.Equal(t, "1", result.Rows[1]["CNT"])

	result, err = adapter.Execute(ctx, "SELECT id FROM orders ORDER BY id"+rules.Pagination(1, 1), nil)
	require.NoError(t, err)
	require.Len(t, result.Rows, 1)
	assert.Equal(t, "2", result.Rows[0]["ID"])
}

func TestIntegration_ExecutionErrorCarriesCode(t *testing.T) {
	adapter := newIntegrationAdapter(t)

	_, err := adapter.Execute(context.Background(), "SELECT * FROM no_such_table", nil)
	var execErr *apperrors.ExecutionError
	require.True(t, errors.As(err, &execErr))
	assert.Equal(t, "ORA-00942", execErr.Code)
}

func TestIntegration_CallTimeout(t *testing.T) {
	testDB := testhelpers.GetTestDB(t)
	cfgMap := testDB.AdapterConfig()
	cfgMap["call_timeout"] = 1

	cfg, err := FromMap(cfgMap)
	require.NoError(t, err)
	adapter, err := NewAdapter(cfg, datasource.Dependencies{Logger: zaptest.NewLogger(t)})
	require.NoError(t, err)
	t.Cleanup(func() { _ = adapter.Close() })

	start := time.Now()
	_, err = adapter.Execute(context.Background(), "SELECT COUNT(*) FROM all_objects a, all_objects b, all_objects c", nil)
	var timeoutErr *apperrors.TimeoutError
	require.True(t, errors.As(err, &timeoutErr), "got %v", err)
	assert.Less(t, time.Since(start), 30*time.Second)

	// The pool is still usable after the timeout.
	require.NoError(t, adapter.TestConnection(context.Background()))
}
