package main

import (
	"context"
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"go.uber.org/zap"
	"gopkg.in/yaml.v3"

	"github.com/ekaya-inc/ekaya-oracle/pkg/adapters/datasource"
	"github.com/ekaya-inc/ekaya-oracle/pkg/adapters/datasource/oracle"
	"github.com/ekaya-inc/ekaya-oracle/pkg/apperrors"
	"github.com/ekaya-inc/ekaya-oracle/pkg/config"
	"github.com/ekaya-inc/ekaya-oracle/pkg/handlers"
	"github.com/ekaya-inc/ekaya-oracle/pkg/middleware"
	"github.com/ekaya-inc/ekaya-oracle/pkg/observability"
	"github.com/ekaya-inc/ekaya-oracle/pkg/retry"
	sqlcheck "github.com/ekaya-inc/ekaya-oracle/pkg/sql"
)

const (
	defaultServeAddr = ":9090"
	shutdownTimeout  = 10 * time.Second
)

var commands = []string{"test", "schema", "query", "serve"}

func isCommand(name string) bool {
	for _, c := range commands {
		if c == name {
			return true
		}
	}
	return false
}

func run(ctx context.Context, cfg *config.Config, logger *zap.Logger, command string, args []string, out io.Writer) error {
	reg := prometheus.NewRegistry()

	// Leave Observer unset unless metrics are exported so the adapter
	// falls back to its no-op observer.
	deps := datasource.Dependencies{Logger: logger}
	if command == "serve" || cfg.MetricsAddr != "" {
		metrics, err := observability.NewPoolMetrics(reg)
		if err != nil {
			return err
		}
		deps.Observer = metrics
	}

	adapter, err := newAdapter(ctx, cfg, deps)
	if err != nil {
		return err
	}
	defer func() {
		if err := adapter.Close(); err != nil {
			logger.Warn("failed to close adapter", zap.Error(err))
		}
	}()

	switch command {
	case "test":
		return runTest(ctx, adapter, logger, out)
	case "schema":
		return runSchema(ctx, adapter, args, out)
	case "query":
		return runQuery(ctx, adapter, args, logger, out)
	case "serve":
		return runServe(ctx, cfg, adapter.Pool(), reg, logger)
	default:
		return fmt.Errorf("unknown command %q", command)
	}
}

// newAdapter resolves the Oracle adapter through the datasource registry.
func newAdapter(ctx context.Context, cfg *config.Config, deps datasource.Dependencies) (*oracle.Adapter, error) {
	adapter, err := datasource.NewAdapter(ctx, oracle.DSType, cfg.Oracle.AdapterConfig(), deps)
	if err != nil {
		return nil, err
	}
	oracleAdapter, ok := adapter.(*oracle.Adapter)
	if !ok {
		_ = adapter.Close()
		return nil, fmt.Errorf("unexpected adapter type %T", adapter)
	}
	return oracleAdapter, nil
}

// runTest retries transient connection failures before giving up.
func runTest(ctx context.Context, tester datasource.ConnectionTester, logger *zap.Logger, out io.Writer) error {
	err := retry.DoIfRetryable(ctx, retry.DefaultConfig(), func() error {
		return tester.TestConnection(ctx)
	})
	if err != nil {
		return err
	}

	logger.Info("connection test succeeded")
	_, err = fmt.Fprintln(out, "connection ok")
	return err
}

func runSchema(ctx context.Context, introspector datasource.SchemaIntrospector, args []string, out io.Writer) error {
	fs := flag.NewFlagSet("schema", flag.ContinueOnError)
	fs.SetOutput(io.Discard)
	format := fs.String("format", "json", "output format: json or yaml")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if *format != "json" && *format != "yaml" {
		return fmt.Errorf("unsupported format %q (want json or yaml)", *format)
	}

	schema, err := introspector.Schema(ctx)
	if err != nil {
		return err
	}
	return writeSchema(out, schema, *format)
}

func writeSchema(out io.Writer, schema *datasource.SchemaMap, format string) error {
	if format == "yaml" {
		enc := yaml.NewEncoder(out)
		enc.SetIndent(2)
		if err := enc.Encode(schema); err != nil {
			return fmt.Errorf("failed to encode schema: %w", err)
		}
		return enc.Close()
	}

	enc := json.NewEncoder(out)
	enc.SetIndent("", "  ")
	if err := enc.Encode(schema); err != nil {
		return fmt.Errorf("failed to encode schema: %w", err)
	}
	return nil
}

// paramFlags collects repeated -param name=value flags.
type paramFlags map[string]any

func (p paramFlags) String() string {
	names := make([]string, 0, len(p))
	for name := range p {
		names = append(names, name)
	}
	return strings.Join(names, ",")
}

func (p paramFlags) Set(value string) error {
	name, val, ok := strings.Cut(value, "=")
	name = strings.TrimPrefix(strings.TrimSpace(name), ":")
	if !ok || name == "" {
		return fmt.Errorf("expected name=value, got %q", value)
	}
	p[name] = val
	return nil
}

// runQuery normalizes the statement and checks its bind variables against
// the -param flags before executing it.
func runQuery(ctx context.Context, executor datasource.SQLExecutor, args []string, logger *zap.Logger, out io.Writer) error {
	fs := flag.NewFlagSet("query", flag.ContinueOnError)
	fs.SetOutput(io.Discard)
	params := paramFlags{}
	fs.Var(params, "param", "bind parameter as name=value (repeatable)")
	if err := fs.Parse(args); err != nil {
		return err
	}

	validated := sqlcheck.ValidateAndNormalize(strings.Join(fs.Args(), " "))
	if validated.Error != nil {
		return &apperrors.UserError{Message: validated.Error.Error()}
	}
	query := validated.NormalizedSQL
	if query == "" {
		return errors.New("query requires a SQL statement")
	}
	if err := sqlcheck.ValidateBinds(query, params); err != nil {
		return err
	}
	for _, hit := range sqlcheck.CheckAllParameters(params) {
		logger.Warn("parameter value looks like SQL injection",
			zap.String("param", hit.ParamName),
			zap.String("fingerprint", hit.Fingerprint))
	}

	result, err := executor.Execute(ctx, query, params)
	if err != nil {
		return err
	}

	enc := json.NewEncoder(out)
	enc.SetIndent("", "  ")
	return enc.Encode(result)
}

func runServe(ctx context.Context, cfg *config.Config, pool datasource.PoolConnector, gatherer prometheus.Gatherer, logger *zap.Logger) error {
	addr := cfg.MetricsAddr
	if addr == "" {
		addr = defaultServeAddr
	}

	mux := http.NewServeMux()
	mux.Handle("GET /metrics", observability.Handler(gatherer))
	handlers.NewHealthHandler(cfg, pool, logger).RegisterRoutes(mux)

	server := &http.Server{
		Addr:              addr,
		Handler:           middleware.RequestLogger(logger)(mux),
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		logger.Info("starting server", zap.String("addr", addr))
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err, ok := <-errCh:
		if ok {
			return fmt.Errorf("server failed: %w", err)
		}
		return nil
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()

	logger.Info("shutting down server")
	if err := server.Shutdown(shutdownCtx); err != nil {
		_ = server.Close()
		return fmt.Errorf("graceful shutdown failed: %w", err)
	}
	return nil
}
