// Package observability exports executor and pool signals as Prometheus metrics.
package observability

import (
	"errors"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/ekaya-inc/ekaya-oracle/pkg/adapters/datasource"
	"github.com/ekaya-inc/ekaya-oracle/pkg/apperrors"
)

// Statement outcomes used as the "outcome" label.
const (
	OutcomeOK         = "ok"
	OutcomeTimeout    = "timeout"
	OutcomeConnection = "connection"
	OutcomeError      = "error"
)

// PoolMetrics is a datasource.PoolObserver backed by Prometheus collectors.
type PoolMetrics struct {
	poolMaxOpen      *prometheus.GaugeVec
	poolOpen         *prometheus.GaugeVec
	poolInUse        *prometheus.GaugeVec
	poolIdle         *prometheus.GaugeVec
	poolWaitCount    *prometheus.GaugeVec
	poolWaitSeconds  *prometheus.GaugeVec
	statementsTotal  *prometheus.CounterVec
	statementSeconds *prometheus.HistogramVec
	releaseFailures  *prometheus.CounterVec
}

// NewPoolMetrics creates the collectors and registers them with reg.
func NewPoolMetrics(reg prometheus.Registerer) (*PoolMetrics, error) {
	poolLabels := []string{"type", "pool_id"}
	m := &PoolMetrics{
		poolMaxOpen: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Name: "oracle_pool_max_open_connections",
			Help: "Configured upper bound on open connections.",
		}, poolLabels),
		poolOpen: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Name: "oracle_pool_open_connections",
			Help: "Connections currently open, in use or idle.",
		}, poolLabels),
		poolInUse: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Name: "oracle_pool_in_use_connections",
			Help: "Connections currently leased to a statement.",
		}, poolLabels),
		poolIdle: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Name: "oracle_pool_idle_connections",
			Help: "Connections currently idle in the pool.",
		}, poolLabels),
		poolWaitCount: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Name: "oracle_pool_wait_count",
			Help: "Cumulative number of leases that had to wait for a free connection.",
		}, poolLabels),
		poolWaitSeconds: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Name: "oracle_pool_wait_seconds",
			Help: "Cumulative time spent waiting for a free connection.",
		}, poolLabels),
		statementsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "oracle_statements_total",
			Help: "Total number of statements executed, by outcome.",
		}, []string{"type", "outcome"}),
		statementSeconds: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "oracle_statement_duration_seconds",
			Help:    "Statement latency including the wait for a connection.",
			Buckets: []float64{0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10, 30, 60},
		}, []string{"type", "outcome"}),
		releaseFailures: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "oracle_connection_release_failures_total",
			Help: "Total number of connections that failed to return to the pool.",
		}, []string{"type"}),
	}

	for _, c := range []prometheus.Collector{
		m.poolMaxOpen,
		m.poolOpen,
		m.poolInUse,
		m.poolIdle,
		m.poolWaitCount,
		m.poolWaitSeconds,
		m.statementsTotal,
		m.statementSeconds,
		m.releaseFailures,
	} {
		if err := reg.Register(c); err != nil {
			return nil, err
		}
	}
	return m, nil
}

func (m *PoolMetrics) ObservePool(dsType string, stats datasource.PoolStats) {
	labels := prometheus.Labels{"type": dsType, "pool_id": stats.PoolID}
	m.poolMaxOpen.With(labels).Set(float64(stats.MaxOpen))
	m.poolOpen.With(labels).Set(float64(stats.Open))
	m.poolInUse.With(labels).Set(float64(stats.InUse))
	m.poolIdle.With(labels).Set(float64(stats.Idle))
	m.poolWaitCount.With(labels).Set(float64(stats.WaitCount))
	m.poolWaitSeconds.With(labels).Set(stats.WaitDuration.Seconds())
}

func (m *PoolMetrics) ObserveQuery(dsType string, elapsed time.Duration, err error) {
	outcome := Outcome(err)
	m.statementsTotal.WithLabelValues(dsType, outcome).Inc()
	m.statementSeconds.WithLabelValues(dsType, outcome).Observe(elapsed.Seconds())
}

func (m *PoolMetrics) ObserveReleaseFailure(dsType string, _ error) {
	m.releaseFailures.WithLabelValues(dsType).Inc()
}

// Outcome buckets an Execute error into a label value.
func Outcome(err error) string {
	if err == nil {
		return OutcomeOK
	}
	var timeoutErr *apperrors.TimeoutError
	if errors.As(err, &timeoutErr) {
		return OutcomeTimeout
	}
	var connErr *apperrors.ConnectionError
	if errors.As(err, &connErr) || errors.Is(err, apperrors.ErrPoolClosed) {
		return OutcomeConnection
	}
	return OutcomeError
}

// Handler serves the metrics gathered by g in the Prometheus text format.
func Handler(g prometheus.Gatherer) http.Handler {
	return promhttp.HandlerFor(g, promhttp.HandlerOpts{})
}

var _ datasource.PoolObserver = (*PoolMetrics)(nil)
