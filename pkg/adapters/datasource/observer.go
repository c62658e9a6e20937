package datasource

import (
	"time"

	"go.uber.org/zap"

	"github.com/ekaya-inc/ekaya-oracle/pkg/logging"
)

// PoolObserver receives best-effort usage signals from executors.
// Implementations must not block and must never fail the calling statement.
type PoolObserver interface {
	// ObservePool is called after every Execute, successful or not.
	ObservePool(dsType string, stats PoolStats)

	// ObserveQuery is called once per Execute with the total call latency.
	ObserveQuery(dsType string, elapsed time.Duration, err error)

	// ObserveReleaseFailure is called when returning a connection fails.
	ObserveReleaseFailure(dsType string, err error)
}

// NopObserver discards every signal.
type NopObserver struct{}

func (NopObserver) ObservePool(string, PoolStats)             {}
func (NopObserver) ObserveQuery(string, time.Duration, error) {}
func (NopObserver) ObserveReleaseFailure(string, error)       {}

// LogObserver writes pool statistics to a zap logger.
type LogObserver struct {
	logger *zap.Logger
}

// NewLogObserver returns an observer logging at debug level through logger.
func NewLogObserver(logger *zap.Logger) *LogObserver {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &LogObserver{logger: logger.Named("pool-stats")}
}

func (o *LogObserver) ObservePool(dsType string, stats PoolStats) {
	o.logger.Info("pool statistics",
		zap.String("type", dsType),
		zap.String("pool_id", stats.PoolID),
		zap.Int("max_open", stats.MaxOpen),
		zap.Int("open", stats.Open),
		zap.Int("in_use", stats.InUse),
		zap.Int("idle", stats.Idle),
		zap.Int64("wait_count", stats.WaitCount),
		zap.Duration("wait_duration", stats.WaitDuration),
	)
}

func (o *LogObserver) ObserveQuery(dsType string, elapsed time.Duration, err error) {
	o.logger.Debug("statement finished",
		zap.String("type", dsType),
		zap.Duration("elapsed", elapsed),
		zap.Bool("failed", err != nil),
	)
}

func (o *LogObserver) ObserveReleaseFailure(dsType string, err error) {
	o.logger.Warn("connection release failed",
		zap.String("type", dsType),
		zap.String("error", logging.SanitizeError(err)),
	)
}

// MultiObserver fans signals out to several observers.
type MultiObserver []PoolObserver

func (m MultiObserver) ObservePool(dsType string, stats PoolStats) {
	for _, o := range m {
		o.ObservePool(dsType, stats)
	}
}

func (m MultiObserver) ObserveQuery(dsType string, elapsed time.Duration, err error) {
	for _, o := range m {
		o.ObserveQuery(dsType, elapsed, err)
	}
}

func (m MultiObserver) ObserveReleaseFailure(dsType string, err error) {
	for _, o := range m {
		o.ObserveReleaseFailure(dsType, err)
	}
}

var (
	_ PoolObserver = NopObserver{}
	_ PoolObserver = (*LogObserver)(nil)
	_ PoolObserver = MultiObserver(nil)
)
