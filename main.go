package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	_ "time/tzdata"

	"go.uber.org/zap"

	"github.com/ekaya-inc/ekaya-oracle/pkg/config"
	"github.com/ekaya-inc/ekaya-oracle/pkg/logging"
)

// Version is set at build time via ldflags
var Version = "dev"

func main() {
	configPath := flag.String("config", "", "path to YAML config (default: ./config.yaml when present)")
	flag.Usage = usage
	flag.Parse()

	if flag.NArg() == 0 {
		usage()
		os.Exit(2)
	}
	command := flag.Arg(0)
	if !isCommand(command) {
		fmt.Fprintf(os.Stderr, "unknown command %q\n\n", command)
		usage()
		os.Exit(2)
	}

	cfg, err := config.Load(*configPath, Version)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load config: %v\n", err)
		os.Exit(1)
	}

	logger, err := newLogger(cfg)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to create logger: %v\n", err)
		os.Exit(1)
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	err = run(ctx, cfg, logger, command, flag.Args()[1:], os.Stdout)
	stop()

	if err != nil {
		logger.Error("command failed",
			zap.String("command", command),
			zap.String("error", logging.SanitizeError(err)))
		_ = logger.Sync()
		os.Exit(1)
	}
	_ = logger.Sync()
}

func usage() {
	out := flag.CommandLine.Output()
	fmt.Fprintf(out, "Usage: ekaya-oracle [-config path] <command> [args]\n\n")
	fmt.Fprintf(out, "Commands:\n")
	fmt.Fprintf(out, "  test                         verify the database is reachable\n")
	fmt.Fprintf(out, "  schema [-format json|yaml]   print the tables and columns visible to the user\n")
	fmt.Fprintf(out, "  query [-param name=value] SQL\n")
	fmt.Fprintf(out, "                               run one statement and print its rows as JSON\n")
	fmt.Fprintf(out, "  serve                        serve /metrics, /health, /ready and /ping\n\n")
	fmt.Fprintf(out, "Flags:\n")
	flag.PrintDefaults()
}

// newLogger builds a JSON logger in production and a console logger elsewhere.
func newLogger(cfg *config.Config) (*zap.Logger, error) {
	level, err := zap.ParseAtomicLevel(cfg.LogLevel)
	if err != nil {
		return nil, fmt.Errorf("invalid log level %q: %w", cfg.LogLevel, err)
	}

	logConfig := zap.NewDevelopmentConfig()
	if cfg.IsProduction() {
		logConfig = zap.NewProductionConfig()
	}
	logConfig.Level = level

	logger, err := logConfig.Build()
	if err != nil {
		return nil, err
	}
	return logger.With(zap.String("version", cfg.Version)), nil
}
