// Package telemetry provides Prometheus metrics and correlation-id aware logging helpers.
package telemetry

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	once sync.Once

	// Counters
	PresencePolls     prometheus.Counter
	PresenceChanges   prometheus.Counter
	MatchesTracked    prometheus.Counter
	StreamerResets    prometheus.Counter
	ReconcilerInserts prometheus.Counter
	APICalls          *prometheus.CounterVec
	APIErrors         *prometheus.CounterVec

	// Histograms (seconds)
	LimiterWaitDuration prometheus.Observer
	APICallDuration     prometheus.Observer

	// Gauges
	PromisedMatchesGauge prometheus.Gauge
	HistoryReadyGauge    prometheus.Gauge // 1=reconciled,0=pending
)

// Init registers metrics (idempotent).
func Init() {
	once.Do(func() {
		PresencePolls = promauto.NewCounter(prometheus.CounterOpts{Name: "dota_presence_polls_total", Help: "Number of rich presence polls performed"})
		PresenceChanges = promauto.NewCounter(prometheus.CounterOpts{Name: "dota_presence_changes_total", Help: "Number of presence status transitions observed"})
		MatchesTracked = promauto.NewCounter(prometheus.CounterOpts{Name: "dota_matches_tracked_total", Help: "Number of matches the tracker attached to"})
		StreamerResets = promauto.NewCounter(prometheus.CounterOpts{Name: "dota_streamer_resets_total", Help: "Number of streamer state resets"})
		ReconcilerInserts = promauto.NewCounter(prometheus.CounterOpts{Name: "dota_reconciler_inserts_total", Help: "Number of ledger rows inserted by reconciliation"})
		APICalls = promauto.NewCounterVec(prometheus.CounterOpts{Name: "dota_api_calls_total", Help: "Backend API calls by backend and endpoint"}, []string{"backend", "endpoint"})
		APIErrors = promauto.NewCounterVec(prometheus.CounterOpts{Name: "dota_api_errors_total", Help: "Backend API call failures by backend and endpoint"}, []string{"backend", "endpoint"})
		LimiterWaitDuration = promauto.NewHistogram(prometheus.HistogramOpts{Name: "dota_limiter_wait_seconds", Help: "Time spent waiting on the adaptive rate limiter", Buckets: prometheus.DefBuckets})
		APICallDuration = promauto.NewHistogram(prometheus.HistogramOpts{Name: "dota_api_call_duration_seconds", Help: "Backend API call duration seconds", Buckets: prometheus.DefBuckets})
		PromisedMatchesGauge = promauto.NewGauge(prometheus.GaugeOpts{Name: "dota_promised_matches", Help: "Matches awaiting history settlement"})
		HistoryReadyGauge = promauto.NewGauge(prometheus.GaugeOpts{Name: "dota_history_ready", Help: "Full reconciliation done=1 pending=0"})
	})
}

// CountAPICall records one backend call, and its failure when err is non-nil.
func CountAPICall(backend, endpoint string, err error) {
	if APICalls == nil {
		return
	}
	APICalls.WithLabelValues(backend, endpoint).Inc()
	if err != nil {
		APIErrors.WithLabelValues(backend, endpoint).Inc()
	}
}

// ObserveLimiterWait records time spent blocked on the rate limiter.
func ObserveLimiterWait(d time.Duration) {
	if LimiterWaitDuration != nil {
		LimiterWaitDuration.Observe(d.Seconds())
	}
}

// TimeFunc measures the duration of fn and records in observer if non-nil.
func TimeFunc(obs prometheus.Observer, fn func()) time.Duration {
	start := time.Now()
	fn()
	d := time.Since(start)
	if obs != nil {
		obs.Observe(d.Seconds())
	}
	return d
}

// Correlation ID helpers ----------------------------------------------------
type corrKeyType struct{}

var corrKey corrKeyType

// WithCorrelation returns a new context embedding correlation id (if absent) and the id.
func WithCorrelation(ctx context.Context, id string) context.Context {
	return context.WithValue(ctx, corrKey, id)
}

// GetCorrelation returns correlation id or empty string.
func GetCorrelation(ctx context.Context) string {
	v := ctx.Value(corrKey)
	if s, ok := v.(string); ok {
		return s
	}
	return ""
}

// LoggerWithCorr returns a logger with corr attribute if present.
func LoggerWithCorr(ctx context.Context) *slog.Logger {
	if id := GetCorrelation(ctx); id != "" {
		return slog.Default().With(slog.String("corr", id))
	}
	return slog.Default()
}
