package oracle

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"regexp"
	"strconv"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/ekaya-inc/ekaya-oracle/pkg/adapters/datasource"
	"github.com/ekaya-inc/ekaya-oracle/pkg/apperrors"
	"github.com/ekaya-inc/ekaya-oracle/pkg/logging"
)

// testQuery is the cheapest statement Oracle accepts.
const testQuery = "SELECT 1 FROM DUAL"

// Oracle codes that mean the call timeout fired inside the server or the
// network round trip.
const (
	codeUserCancel  = "ORA-01013"
	codeCallTimeout = "ORA-03156"
)

var oraCodePattern = regexp.MustCompile(`ORA-\d{5}`)

// Leaser hands out exclusive connections and reports pool usage.
// *Pool is the production implementation.
type Leaser interface {
	Acquire(ctx context.Context) (Conn, error)
	Stats() datasource.PoolStats
}

// QueryExecutor runs statements on leased connections. Every call acquires
// one connection and always returns it, whatever the outcome.
type QueryExecutor struct {
	leaser   Leaser
	cfg      *Config
	logger   *zap.Logger
	observer datasource.PoolObserver
}

// NewQueryExecutor creates an executor over leaser.
func NewQueryExecutor(leaser Leaser, cfg *Config, logger *zap.Logger, observer datasource.PoolObserver) *QueryExecutor {
	if logger == nil {
		logger = zap.NewNop()
	}
	if observer == nil {
		observer = datasource.NopObserver{}
	}
	return &QueryExecutor{
		leaser:   leaser,
		cfg:      cfg,
		logger:   logger.Named("oracle-executor"),
		observer: observer,
	}
}

// Execute runs query with named bind parameters (":name" placeholders).
// The call timeout starts once a connection is held, so time spent waiting
// for the pool does not count against it.
func (e *QueryExecutor) Execute(ctx context.Context, query string, params map[string]any) (result *datasource.QueryResult, err error) {
	start := time.Now()
	defer func() {
		e.observer.ObserveQuery(DSType, time.Since(start), err)
		e.observer.ObservePool(DSType, e.leaser.Stats())
	}()

	conn, err := e.leaser.Acquire(ctx)
	if err != nil {
		e.logger.Error("failed to acquire connection",
			zap.Duration("elapsed", time.Since(start)),
			zap.String("error", logging.SanitizeError(err)),
		)
		return nil, err
	}
	defer e.release(conn)

	acquired := time.Since(start)
	e.logger.Debug("connection acquired",
		zap.Duration("elapsed", acquired),
		zap.Duration("callTimeout", e.cfg.CallTimeout),
	)

	callCtx, cancel := e.callContext(ctx)
	defer cancel()

	result, err = e.run(callCtx, conn, query, params)
	if err != nil {
		err = e.classify(ctx, callCtx, query, err)
		e.logger.Error("statement failed",
			zap.String("query", logging.SanitizeQuery(query)),
			zap.Strings("params", logging.ParamNames(params)),
			zap.Duration("elapsed", time.Since(start)),
			zap.String("error", logging.SanitizeError(err)),
		)
		return nil, err
	}

	e.logger.Debug("statement executed",
		zap.String("query", logging.SanitizeQuery(query)),
		zap.Strings("params", logging.ParamNames(params)),
		zap.Int("rows", len(result.Rows)),
		zap.Bool("truncated", result.Truncated),
		zap.Duration("elapsed", time.Since(start)),
	)
	return result, nil
}

// TestConnection verifies a connection can be leased and used.
func (e *QueryExecutor) TestConnection(ctx context.Context) error {
	if _, err := e.Execute(ctx, testQuery, nil); err != nil {
		return fmt.Errorf("test query failed: %w", err)
	}
	return nil
}

func (e *QueryExecutor) callContext(ctx context.Context) (context.Context, context.CancelFunc) {
	if e.cfg.CallTimeout <= 0 {
		return context.WithCancel(ctx)
	}
	return context.WithTimeout(ctx, e.cfg.CallTimeout)
}

// run executes on conn and closes the result set before returning, so the
// connection is free to be released.
func (e *QueryExecutor) run(ctx context.Context, conn Conn, query string, params map[string]any) (*datasource.QueryResult, error) {
	rows, err := conn.QueryContext(ctx, query, namedArgs(params)...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	columns, err := rows.Columns()
	if err != nil {
		return nil, fmt.Errorf("failed to get columns: %w", err)
	}
	columnTypes, err := rows.ColumnTypes()
	if err != nil {
		return nil, fmt.Errorf("failed to get column types: %w", err)
	}

	result := &datasource.QueryResult{
		Columns: columns,
		Rows:    make([]datasource.Row, 0),
	}

	values := make([]any, len(columns))
	valuePtrs := make([]any, len(columns))
	for i := range values {
		valuePtrs[i] = &values[i]
	}

	for rows.Next() {
		if e.cfg.MaxRows > 0 && len(result.Rows) >= e.cfg.MaxRows {
			result.Truncated = true
			break
		}
		if err := rows.Scan(valuePtrs...); err != nil {
			return nil, fmt.Errorf("failed to scan row: %w", err)
		}

		row := make(datasource.Row, len(columns))
		for i, col := range columns {
			row[col] = normalizeValue(values[i], columnTypes[i].DatabaseTypeName())
		}
		result.Rows = append(result.Rows, row)
	}

	if err := rows.Err(); err != nil {
		return nil, err
	}
	return result, nil
}

// release returns conn to the pool. A failure is reported but never
// replaces the statement's own result or error.
func (e *QueryExecutor) release(conn Conn) {
	if err := conn.Close(); err != nil {
		warning := &apperrors.ReleaseWarning{Cause: err}
		e.logger.Warn("failed to release connection",
			zap.String("error", logging.SanitizeError(warning)),
		)
		e.observer.ObserveReleaseFailure(DSType, warning)
	}
}

// classify maps a driver error onto the apperrors kinds. parent is the
// caller's context, call the derived one carrying the call timeout.
func (e *QueryExecutor) classify(parent, call context.Context, query string, err error) error {
	shape := logging.SanitizeQuery(query)
	code := oraCode(err)

	callExpired := errors.Is(call.Err(), context.DeadlineExceeded) && parent.Err() == nil
	if callExpired || code == codeUserCancel || code == codeCallTimeout {
		return &apperrors.TimeoutError{Query: shape, Timeout: e.cfg.CallTimeout, Cause: err}
	}
	return &apperrors.ExecutionError{Query: shape, Code: code, Cause: err}
}

func oraCode(err error) string {
	if err == nil {
		return ""
	}
	return oraCodePattern.FindString(err.Error())
}

// namedArgs binds params in name order so statements are deterministic.
func namedArgs(params map[string]any) []any {
	names := logging.ParamNames(params)
	args := make([]any, 0, len(names))
	for _, name := range names {
		args = append(args, sql.Named(strings.TrimPrefix(name, ":"), params[name]))
	}
	return args
}

// normalizeValue returns NUMBER values as decimal strings so precision
// beyond float64 survives, and character data as string.
func normalizeValue(v any, dbType string) any {
	if v == nil {
		return nil
	}
	switch strings.ToUpper(dbType) {
	case "NUMBER", "FLOAT", "BINARY_DOUBLE", "BINARY_FLOAT":
		return numberString(v)
	case "CHAR", "NCHAR", "VARCHAR", "VARCHAR2", "NVARCHAR2", "CLOB", "NCLOB", "LONG", "ROWID", "UROWID":
		if b, ok := v.([]byte); ok {
			return string(b)
		}
	}
	return v
}

func numberString(v any) any {
	switch n := v.(type) {
	case string:
		return n
	case []byte:
		return string(n)
	case int64:
		return strconv.FormatInt(n, 10)
	case int:
		return strconv.Itoa(n)
	case float64:
		return strconv.FormatFloat(n, 'f', -1, 64)
	case float32:
		return strconv.FormatFloat(float64(n), 'f', -1, 32)
	case fmt.Stringer:
		return n.String()
	default:
		return v
	}
}
