// Package observability provides Prometheus metrics for batch runs.
package observability

import (
	"fmt"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// DefaultNamespace prefixes every metric name.
const DefaultNamespace = "sentiment_lab"

// Lag test outcomes.
const (
	OutcomeSignificant    = "significant"
	OutcomeNotSignificant = "not_significant"
	OutcomeFailed         = "failed"
)

// Metrics holds all Prometheus metrics for one run.
// A nil *Metrics is valid and records nothing.
type Metrics struct {
	registry *prometheus.Registry

	// Ingestion metrics
	RecordsLoaded  *prometheus.CounterVec
	BarsLoaded     prometheus.Counter
	SourceDuration *prometheus.HistogramVec

	// Scoring metrics
	RecordsScored   prometheus.Counter
	ScoreFallbacks  prometheus.Counter
	ScoreFailures   prometheus.Counter
	DaysAggregated  prometheus.Gauge
	AlignedRows     prometheus.Gauge
	MarketRows      prometheus.Gauge
	LagTests        *prometheus.CounterVec
	MinPValue       prometheus.Gauge
	StageDuration   *prometheus.HistogramVec
	PipelineRuns    *prometheus.CounterVec
	LastSuccessUnix prometheus.Gauge
}

// NewMetrics creates a Metrics instance registered on its own registry.
func NewMetrics(namespace string) *Metrics {
	if namespace == "" {
		namespace = DefaultNamespace
	}

	reg := prometheus.NewRegistry()
	factory := promauto.With(reg)

	return &Metrics{
		registry: reg,

		RecordsLoaded: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "ingestion",
			Name:      "records_loaded_total",
			Help:      "Total number of text records loaded by source",
		}, []string{"source"}),
		BarsLoaded: factory.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "ingestion",
			Name:      "bars_loaded_total",
			Help:      "Total number of daily price bars loaded",
		}),
		SourceDuration: factory.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "ingestion",
			Name:      "source_duration_seconds",
			Help:      "Time spent reading each data source",
			Buckets:   prometheus.ExponentialBuckets(0.01, 4, 8),
		}, []string{"source"}),

		RecordsScored: factory.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "sentiment",
			Name:      "records_scored_total",
			Help:      "Total number of records scored",
		}),
		ScoreFallbacks: factory.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "sentiment",
			Name:      "fallbacks_total",
			Help:      "Records given the neutral score because they had no usable text",
		}),
		ScoreFailures: factory.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "sentiment",
			Name:      "failures_total",
			Help:      "Records excluded from aggregation because scoring failed",
		}),
		DaysAggregated: factory.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Subsystem: "aggregation",
			Name:      "days",
			Help:      "Number of calendar days in the sentiment series",
		}),
		MarketRows: factory.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Subsystem: "market",
			Name:      "rows",
			Help:      "Number of daily market rows with a full volatility window",
		}),
		AlignedRows: factory.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Subsystem: "alignment",
			Name:      "rows",
			Help:      "Number of days present in both series",
		}),
		LagTests: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "causality",
			Name:      "lag_tests_total",
			Help:      "Granger lag tests by outcome",
		}, []string{"outcome"}),
		MinPValue: factory.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Subsystem: "causality",
			Name:      "min_p_value",
			Help:      "Smallest p-value across computed lags",
		}),
		StageDuration: factory.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "pipeline",
			Name:      "stage_duration_seconds",
			Help:      "Duration of pipeline stages in seconds",
			Buckets:   prometheus.ExponentialBuckets(0.001, 4, 10),
		}, []string{"stage"}),
		PipelineRuns: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "pipeline",
			Name:      "runs_total",
			Help:      "Total number of pipeline runs by status",
		}, []string{"status"}),
		LastSuccessUnix: factory.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Subsystem: "pipeline",
			Name:      "last_success_timestamp_seconds",
			Help:      "Unix time of the last successful run",
		}),
	}
}

// Registry exposes the underlying registry.
func (m *Metrics) Registry() *prometheus.Registry {
	if m == nil {
		return nil
	}
	return m.registry
}

// WriteToTextfile writes all metrics in the node_exporter textfile format.
func (m *Metrics) WriteToTextfile(path string) error {
	if m == nil {
		return nil
	}
	if err := prometheus.WriteToTextfile(path, m.registry); err != nil {
		return fmt.Errorf("write metrics textfile: %w", err)
	}
	return nil
}

// RecordRecordsLoaded counts records read from a source.
func (m *Metrics) RecordRecordsLoaded(source string, n int, seconds float64) {
	if m == nil {
		return
	}
	m.RecordsLoaded.WithLabelValues(source).Add(float64(n))
	m.SourceDuration.WithLabelValues(source).Observe(seconds)
}

// RecordBarsLoaded counts price bars read.
func (m *Metrics) RecordBarsLoaded(n int, seconds float64) {
	if m == nil {
		return
	}
	m.BarsLoaded.Add(float64(n))
	m.SourceDuration.WithLabelValues("market").Observe(seconds)
}

// RecordScoring records scoring counters.
func (m *Metrics) RecordScoring(scored, fallbacks, failed, days int) {
	if m == nil {
		return
	}
	m.RecordsScored.Add(float64(scored))
	m.ScoreFallbacks.Add(float64(fallbacks))
	m.ScoreFailures.Add(float64(failed))
	m.DaysAggregated.Set(float64(days))
}

// RecordSeriesSizes records market and aligned row counts.
func (m *Metrics) RecordSeriesSizes(marketRows, alignedRows int) {
	if m == nil {
		return
	}
	m.MarketRows.Set(float64(marketRows))
	m.AlignedRows.Set(float64(alignedRows))
}

// RecordLagTest records one lag outcome.
func (m *Metrics) RecordLagTest(outcome string) {
	if m == nil {
		return
	}
	m.LagTests.WithLabelValues(outcome).Inc()
}

// RecordMinPValue sets the smallest p-value gauge.
func (m *Metrics) RecordMinPValue(p float64) {
	if m == nil {
		return
	}
	m.MinPValue.Set(p)
}

// RecordStage observes a stage duration.
func (m *Metrics) RecordStage(stage string, seconds float64) {
	if m == nil {
		return
	}
	m.StageDuration.WithLabelValues(stage).Observe(seconds)
}

// RecordPipelineRun records a finished run. unixTime is set on success only.
func (m *Metrics) RecordPipelineRun(status string, unixTime int64) {
	if m == nil {
		return
	}
	m.PipelineRuns.WithLabelValues(status).Inc()
	if status == "success" {
		m.LastSuccessUnix.Set(float64(unixTime))
	}
}
