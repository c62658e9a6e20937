package oracle

import (
	"context"
	"database/sql"
	"fmt"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	go_ora "github.com/sijms/go-ora/v2"
	"go.uber.org/zap"

	"github.com/ekaya-inc/ekaya-oracle/pkg/adapters/datasource"
	"github.com/ekaya-inc/ekaya-oracle/pkg/apperrors"
	"github.com/ekaya-inc/ekaya-oracle/pkg/logging"
)

// DSType is the registry key and the type reported to observers.
const DSType = "oracle"

// driverName is the database/sql driver registered by go-ora.
const driverName = "oracle"

// Conn is a connection leased exclusively for one statement.
// Close returns it to the pool. *sql.Conn satisfies it.
type Conn interface {
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	Close() error
}

// Opener creates the underlying *sql.DB. It must not dial; Pool pings after opening.
type Opener func(ctx context.Context, cfg *Config) (*sql.DB, error)

// PoolOption configures a Pool.
type PoolOption func(*Pool)

// WithOpener replaces the go-ora opener, e.g. with sqlmock in tests.
func WithOpener(open Opener) PoolOption {
	return func(p *Pool) {
		if open != nil {
			p.open = open
		}
	}
}

// Pool owns the Oracle connection pool for one datasource. It is created
// closed and opens itself on first use. Safe for concurrent use.
type Pool struct {
	cfg    *Config
	logger *zap.Logger
	open   Opener
	id     string

	mu     sync.Mutex
	db     *sql.DB
	closed bool
}

// NewPool returns a Pool that will open lazily with cfg.
func NewPool(cfg *Config, logger *zap.Logger, opts ...PoolOption) *Pool {
	if logger == nil {
		logger = zap.NewNop()
	}
	p := &Pool{
		cfg:    cfg,
		logger: logger.Named("oracle-pool"),
		open:   openGoOra,
		id:     uuid.NewString(),
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// ID identifies this pool instance in logs and metrics.
func (p *Pool) ID() string {
	return p.id
}

// Acquire leases a connection, opening the pool first if needed.
// Waiting for a free connection is bounded only by ctx.
func (p *Pool) Acquire(ctx context.Context) (Conn, error) {
	db, err := p.ensureOpen(ctx)
	if err != nil {
		return nil, err
	}

	conn, err := db.Conn(ctx)
	if err != nil {
		return nil, &apperrors.ConnectionError{Target: p.target(), Cause: err}
	}
	return conn, nil
}

// Ping verifies the pool can reach the database.
func (p *Pool) Ping(ctx context.Context) error {
	db, err := p.ensureOpen(ctx)
	if err != nil {
		return err
	}
	if err := db.PingContext(ctx); err != nil {
		return &apperrors.ConnectionError{Target: p.target(), Cause: err}
	}
	return nil
}

// Close tears the pool down. Safe to call on a pool that never opened and
// safe to call more than once.
func (p *Pool) Close() error {
	p.mu.Lock()
	defer p.mu.Unlock()

	p.closed = true
	if p.db == nil {
		return nil
	}

	err := p.db.Close()
	p.db = nil
	p.logger.Info("connection pool closed", zap.String("poolID", p.id))
	if err != nil {
		return fmt.Errorf("close pool: %w", err)
	}
	return nil
}

func (p *Pool) GetType() string {
	return DSType
}

// Stats returns a snapshot of pool usage. A pool that has not opened yet
// reports only its configured bound.
func (p *Pool) Stats() datasource.PoolStats {
	p.mu.Lock()
	db := p.db
	p.mu.Unlock()

	if db == nil {
		return datasource.PoolStats{PoolID: p.id, MaxOpen: p.cfg.PoolMax}
	}
	s := db.Stats()
	return datasource.PoolStats{
		PoolID:       p.id,
		MaxOpen:      s.MaxOpenConnections,
		Open:         s.OpenConnections,
		InUse:        s.InUse,
		Idle:         s.Idle,
		WaitCount:    s.WaitCount,
		WaitDuration: s.WaitDuration,
	}
}

// ensureOpen creates the pool under the mutex. A failed open leaves the
// pool closed so the next call tries again.
func (p *Pool) ensureOpen(ctx context.Context) (*sql.DB, error) {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.closed {
		return nil, apperrors.ErrPoolClosed
	}
	if p.db != nil {
		return p.db, nil
	}

	start := time.Now()
	db, err := p.open(ctx, p.cfg)
	if err != nil {
		p.logger.Error("failed to open connection pool",
			zap.String("target", p.target()),
			zap.String("error", logging.SanitizeError(err)),
		)
		return nil, &apperrors.ConnectionError{Target: p.target(), Cause: err}
	}

	db.SetMaxOpenConns(p.cfg.PoolMax)
	db.SetMaxIdleConns(max(p.cfg.PoolMin, p.cfg.PoolMax))

	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		p.logger.Error("connection test failed",
			zap.String("target", p.target()),
			zap.String("error", logging.SanitizeError(err)),
		)
		return nil, &apperrors.ConnectionError{Target: p.target(), Cause: err}
	}

	p.warmUp(ctx, db)
	p.db = db

	p.logger.Info("created new connection pool",
		zap.String("poolID", p.id),
		zap.String("target", p.target()),
		zap.Int("poolMin", p.cfg.PoolMin),
		zap.Int("poolMax", p.cfg.PoolMax),
		zap.Duration("elapsed", time.Since(start)),
	)
	return db, nil
}

// warmUp opens PoolMin connections and parks them idle.
func (p *Pool) warmUp(ctx context.Context, db *sql.DB) {
	conns := make([]*sql.Conn, 0, p.cfg.PoolMin)
	defer func() {
		for _, c := range conns {
			_ = c.Close()
		}
	}()

	for i := 0; i < p.cfg.PoolMin; i++ {
		c, err := db.Conn(ctx)
		if err != nil {
			p.logger.Warn("pool warm-up stopped early",
				zap.Int("opened", len(conns)),
				zap.Int("poolMin", p.cfg.PoolMin),
				zap.String("error", logging.SanitizeError(err)),
			)
			return
		}
		conns = append(conns, c)
	}
}

func (p *Pool) target() string {
	return logging.SanitizeConnectionString(p.cfg.ConnectTarget())
}

func openGoOra(_ context.Context, cfg *Config) (*sql.DB, error) {
	dsn, err := buildDSN(cfg)
	if err != nil {
		return nil, err
	}
	db, err := sql.Open(driverName, dsn)
	if err != nil {
		return nil, fmt.Errorf("open oracle connection: %w", err)
	}
	return db, nil
}

// buildDSN turns the config into a go-ora URL.
func buildDSN(cfg *Config) (string, error) {
	var options map[string]string
	if cfg.PrefetchRows > 0 {
		options = map[string]string{"PREFETCH_ROWS": strconv.Itoa(cfg.PrefetchRows)}
	}

	cs := strings.TrimSpace(cfg.ConnectionString)
	switch {
	case cs == "":
		return go_ora.BuildUrl(cfg.Host, cfg.Port, cfg.ServiceName, cfg.User, cfg.Password, options), nil
	case strings.HasPrefix(cs, "oracle://"):
		return cs, nil
	case strings.HasPrefix(cs, "("):
		return go_ora.BuildJDBC(cfg.User, cfg.Password, cs, options), nil
	default:
		host, port, service, err := parseEZConnect(cs, cfg.Port)
		if err != nil {
			return "", err
		}
		return go_ora.BuildUrl(host, port, service, cfg.User, cfg.Password, options), nil
	}
}

var _ datasource.PoolConnector = (*Pool)(nil)
