// Package metrics provides Prometheus metrics for podium runs.
package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Unit outcomes.
const (
	OutcomeBuilt  = "built"
	OutcomeFresh  = "fresh"
	OutcomeFailed = "failed"
)

// Manager manages all Prometheus metrics for a podium process.
type Manager struct {
	namespace    string
	subsystem    string
	buildBuckets []float64
	constLabels  map[string]string
	registry     prometheus.Registerer

	// Run metrics
	runsTotal       prometheus.Counter
	runLastUnix     prometheus.Gauge
	runLastDuration prometheus.Gauge

	// Unit metrics
	unitsTotal        *prometheus.CounterVec
	unitBuildDuration *prometheus.HistogramVec
	cacheDecisions    *prometheus.CounterVec

	// Input quality metrics
	eventsSkipped  *prometheus.CounterVec
	recordsSkipped *prometheus.CounterVec
	eventCollision *prometheus.CounterVec
}

// Global metrics manager instance.
var globalManager *Manager //nolint:gochecknoglobals // intentional global for singleton metrics manager

// Custom registry to avoid default Go metrics.
var customRegistry = prometheus.NewRegistry() //nolint:gochecknoglobals // intentional global for metrics registry

func init() { //nolint:gochecknoinits // intentional init for global metrics setup
	globalManager = NewManager(WithPrometheusRegistry(customRegistry))
}

// NewManager creates a new metrics manager with default configuration.
func NewManager(opts ...Option) *Manager {
	m := &Manager{
		namespace:    "podium",
		subsystem:    "build",
		buildBuckets: []float64{0.001, 0.005, 0.01, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5},
		constLabels:  make(map[string]string),
		registry:     prometheus.DefaultRegisterer,
	}

	for _, opt := range opts {
		opt(m)
	}

	m.initializeMetrics()

	return m
}

// initializeMetrics creates all the Prometheus metrics.
func (m *Manager) initializeMetrics() {
	auto := promauto.With(m.registry)

	m.runsTotal = auto.NewCounter(prometheus.CounterOpts{
		Namespace:   m.namespace,
		Subsystem:   m.subsystem,
		Name:        "runs_total",
		Help:        "Total number of batch runs",
		ConstLabels: m.constLabels,
	})

	m.runLastUnix = auto.NewGauge(prometheus.GaugeOpts{
		Namespace:   m.namespace,
		Subsystem:   m.subsystem,
		Name:        "last_run_timestamp_seconds",
		Help:        "Unix time at which the last run finished",
		ConstLabels: m.constLabels,
	})

	m.runLastDuration = auto.NewGauge(prometheus.GaugeOpts{
		Namespace:   m.namespace,
		Subsystem:   m.subsystem,
		Name:        "last_run_duration_seconds",
		Help:        "Wall time of the last run",
		ConstLabels: m.constLabels,
	})

	m.unitsTotal = auto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace:   m.namespace,
			Subsystem:   m.subsystem,
			Name:        "units_total",
			Help:        "Work units processed by report kind and outcome",
			ConstLabels: m.constLabels,
		},
		[]string{"report", "outcome"},
	)

	m.unitBuildDuration = auto.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace:   m.namespace,
			Subsystem:   m.subsystem,
			Name:        "unit_build_duration_seconds",
			Help:        "Time spent building and writing one stale unit",
			Buckets:     m.buildBuckets,
			ConstLabels: m.constLabels,
		},
		[]string{"report"},
	)

	m.cacheDecisions = auto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace:   m.namespace,
			Subsystem:   m.subsystem,
			Name:        "cache_decisions_total",
			Help:        "Freshness decisions by report kind and reason",
			ConstLabels: m.constLabels,
		},
		[]string{"report", "reason"},
	)

	m.eventsSkipped = auto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace:   m.namespace,
			Subsystem:   m.subsystem,
			Name:        "events_skipped_total",
			Help:        "Per-event input files skipped by report kind and reason",
			ConstLabels: m.constLabels,
		},
		[]string{"report", "reason"},
	)

	m.recordsSkipped = auto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace:   m.namespace,
			Subsystem:   m.subsystem,
			Name:        "records_skipped_total",
			Help:        "Malformed result records skipped by report kind",
			ConstLabels: m.constLabels,
		},
		[]string{"report"},
	)

	m.eventCollision = auto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace:   m.namespace,
			Subsystem:   m.subsystem,
			Name:        "event_id_collisions_total",
			Help:        "Event column codes derived by more than one race",
			ConstLabels: m.constLabels,
		},
		[]string{"report"},
	)
}

// RecordRun marks the end of a batch run.
func RecordRun(finished time.Time, took time.Duration) {
	globalManager.runsTotal.Inc()
	globalManager.runLastUnix.Set(float64(finished.Unix()))
	globalManager.runLastDuration.Set(took.Seconds())
}

// RecordUnit increments the unit counter for a report kind and outcome.
func RecordUnit(report, outcome string) {
	globalManager.unitsTotal.WithLabelValues(report, outcome).Inc()
}

// RecordUnitBuildDuration observes the build time of a stale unit.
func RecordUnitBuildDuration(report string, took time.Duration) {
	globalManager.unitBuildDuration.WithLabelValues(report).Observe(took.Seconds())
}

// RecordCacheDecision counts a freshness decision.
func RecordCacheDecision(report, reason string) {
	globalManager.cacheDecisions.WithLabelValues(report, reason).Inc()
}

// RecordEventSkipped counts a skipped per-event input file.
func RecordEventSkipped(report, reason string) {
	globalManager.eventsSkipped.WithLabelValues(report, reason).Inc()
}

// RecordRecordsSkipped adds n malformed records.
func RecordRecordsSkipped(report string, n int) {
	if n <= 0 {
		return
	}
	globalManager.recordsSkipped.WithLabelValues(report).Add(float64(n))
}

// RecordEventCollision counts an event code collision.
func RecordEventCollision(report string) {
	globalManager.eventCollision.WithLabelValues(report).Inc()
}
