package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Recorder implements domain repository.Metrics using Prometheus.
type Recorder struct {
	runDuration     *prometheus.HistogramVec
	seriesEvaluated *prometheus.CounterVec
	signals         *prometheus.CounterVec
	ledgerFailures  *prometheus.CounterVec
	fetchErrors     *prometheus.CounterVec
}

// New creates a new Prometheus metrics recorder.
func New() *Recorder {
	return &Recorder{
		runDuration: promauto.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "riskpulse_run_duration_seconds",
				Help:    "Duration of one module evaluation pass",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"module"},
		),
		seriesEvaluated: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "riskpulse_series_evaluated_total",
				Help: "Series evaluated across runs",
			},
			[]string{"module"},
		),
		signals: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "riskpulse_signals_total",
				Help: "Emitted signals by tier",
			},
			[]string{"module", "tier"},
		),
		ledgerFailures: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "riskpulse_ledger_failures_total",
				Help: "Ledger partitions recovered fail-open or failed to save",
			},
			[]string{"module"},
		),
		fetchErrors: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "riskpulse_fetch_errors_total",
				Help: "Provider fetch or parse failures",
			},
			[]string{"series"},
		),
	}
}

// RecordRunDuration records one module pass duration in seconds.
func (r *Recorder) RecordRunDuration(module string, seconds float64) {
	r.runDuration.WithLabelValues(module).Observe(seconds)
}

// RecordSeriesEvaluated counts one evaluated series.
func (r *Recorder) RecordSeriesEvaluated(module string) {
	r.seriesEvaluated.WithLabelValues(module).Inc()
}

// RecordSignal counts one emitted signal at its tier.
func (r *Recorder) RecordSignal(module, tier string) {
	r.signals.WithLabelValues(module, tier).Inc()
}

// RecordLedgerFailure counts a ledger load/save problem.
func (r *Recorder) RecordLedgerFailure(module string) {
	r.ledgerFailures.WithLabelValues(module).Inc()
}

// RecordFetchError counts a provider failure for one series.
func (r *Recorder) RecordFetchError(seriesID string) {
	r.fetchErrors.WithLabelValues(seriesID).Inc()
}
