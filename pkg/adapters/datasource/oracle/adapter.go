package oracle

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/ekaya-inc/ekaya-oracle/pkg/adapters/datasource"
	oracledialect "github.com/ekaya-inc/ekaya-oracle/pkg/dialect/oracle"
)

// Adapter ties together the pool, executor, schema reader and SQL rules
// for one Oracle datasource. It owns the pool; Close releases it.
type Adapter struct {
	config   *Config
	pool     *Pool
	executor *QueryExecutor
	schema   *SchemaReader
	rules    *oracledialect.Rules
	logger   *zap.Logger
}

// NewAdapter validates cfg and builds an adapter. No connection is made
// until the first statement or TestConnection.
func NewAdapter(cfg *Config, deps datasource.Dependencies, opts ...PoolOption) (*Adapter, error) {
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}

	logger := deps.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	var observer datasource.PoolObserver = datasource.NopObserver{}
	if deps.Observer != nil {
		observer = deps.Observer
	}
	if cfg.EnableStats {
		observer = datasource.MultiObserver{observer, datasource.NewLogObserver(logger)}
	}

	pool := NewPool(cfg, logger, opts...)
	executor := NewQueryExecutor(pool, cfg, logger, observer)

	return &Adapter{
		config:   cfg,
		pool:     pool,
		executor: executor,
		schema:   NewSchemaReader(executor),
		rules:    oracledialect.New(oracledialect.WithMaxIdentifierLength(cfg.MaxIdentifierLength)),
		logger:   logger,
	}, nil
}

// TestConnection verifies the database is reachable with valid credentials.
func (a *Adapter) TestConnection(ctx context.Context) error {
	return a.executor.TestConnection(ctx)
}

// Execute runs one statement. See QueryExecutor.Execute.
func (a *Adapter) Execute(ctx context.Context, query string, params map[string]any) (*datasource.QueryResult, error) {
	return a.executor.Execute(ctx, query, params)
}

// Schema introspects the connected user's tables.
func (a *Adapter) Schema(ctx context.Context) (*datasource.SchemaMap, error) {
	return a.schema.Schema(ctx)
}

// Rules returns the SQL rules configured for this datasource's identifier ceiling.
func (a *Adapter) Rules() *oracledialect.Rules {
	return a.rules
}

// Pool exposes the underlying pool for stats and health checks.
func (a *Adapter) Pool() *Pool {
	return a.pool
}

// Close releases the pool.
func (a *Adapter) Close() error {
	return a.pool.Close()
}

// Ensure Adapter implements datasource.Adapter at compile time.
var _ datasource.Adapter = (*Adapter)(nil)
