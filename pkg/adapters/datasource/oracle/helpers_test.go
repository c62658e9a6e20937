package oracle

import (
	"context"
	"database/sql"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	sqlmock "github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"

	"github.com/ekaya-inc/ekaya-oracle/pkg/adapters/datasource"
)

func testConfig() *Config {
	return &Config{
		Host:         "db.internal",
		Port:         DefaultPort(),
		ServiceName:  "FREEPDB1",
		User:         "cube",
		Password:     "s3cret",
		PoolMax:      4,
		CallTimeout:  DefaultCallTimeout(),
		MaxRows:      DefaultMaxRows(),
		PrefetchRows: DefaultPrefetchRows(),
	}
}

// newMockPool returns a Pool whose opener hands out a sqlmock database.
func newMockPool(t *testing.T, cfg *Config) (*Pool, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	return newPoolOver(t, cfg, db), mock
}

func newPoolOver(t *testing.T, cfg *Config, db *sql.DB) *Pool {
	t.Helper()
	pool := NewPool(cfg, zaptest.NewLogger(t), WithOpener(func(context.Context, *Config) (*sql.DB, error) {
		return db, nil
	}))
	t.Cleanup(func() { _ = pool.Close() })
	return pool
}

// mockRows builds rows with column metadata so ColumnTypes works.
func mockRows(mock sqlmock.Sqlmock, columns ...string) *sqlmock.Rows {
	defs := make([]*sqlmock.Column, len(columns))
	for i, c := range columns {
		defs[i] = mock.NewColumn(c)
	}
	return mock.NewRowsWithColumnDefinition(defs...)
}

// recordingObserver captures observer signals.
type recordingObserver struct {
	mu              sync.Mutex
	poolCalls       int
	queries         []error
	releaseFailures []error
	lastStats       datasource.PoolStats
}

func (o *recordingObserver) ObservePool(_ string, stats datasource.PoolStats) {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.poolCalls++
	o.lastStats = stats
}

func (o *recordingObserver) ObserveQuery(_ string, _ time.Duration, err error) {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.queries = append(o.queries, err)
}

func (o *recordingObserver) ObserveReleaseFailure(_ string, err error) {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.releaseFailures = append(o.releaseFailures, err)
}

// countingLeaser wraps a Leaser and tracks every lease and release.
type countingLeaser struct {
	inner    Leaser
	closeErr error

	acquired atomic.Int32
	released atomic.Int32
	inUse    atomic.Int32
	maxInUse atomic.Int32
}

func (l *countingLeaser) Acquire(ctx context.Context) (Conn, error) {
	c, err := l.inner.Acquire(ctx)
	if err != nil {
		return nil, err
	}
	l.acquired.Add(1)
	n := l.inUse.Add(1)
	for {
		m := l.maxInUse.Load()
		if n <= m || l.maxInUse.CompareAndSwap(m, n) {
			break
		}
	}
	return &countingConn{Conn: c, leaser: l}, nil
}

func (l *countingLeaser) Stats() datasource.PoolStats {
	return l.inner.Stats()
}

type countingConn struct {
	Conn
	leaser *countingLeaser
}

func (c *countingConn) Close() error {
	c.leaser.released.Add(1)
	c.leaser.inUse.Add(-1)
	if err := c.Conn.Close(); err != nil {
		return err
	}
	return c.leaser.closeErr
}
