package telemetry

import (
	"fmt"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics provides Prometheus metrics for configuration resolution.
type Metrics struct {
	config MetricsConfig

	// Resolution metrics
	resolutionsStarted   prometheus.Counter
	resolutionsCompleted *prometheus.CounterVec
	resolutionDuration   prometheus.Histogram

	// Validation metrics
	validationFailures *prometheus.CounterVec

	// Reload metrics
	reloads *prometheus.CounterVec

	// Topology metrics
	peersResolved       prometheus.Gauge
	shardingReplicasets prometheus.Gauge

	registry *prometheus.Registry
}

// NewMetrics creates a new metrics collector with the given configuration.
func NewMetrics(cfg MetricsConfig) (*Metrics, error) {
	if !cfg.Enabled {
		// Return a no-op metrics instance
		return &Metrics{config: cfg}, nil
	}

	namespace := cfg.Namespace
	buckets := cfg.DefaultHistogramBuckets
	if len(buckets) == 0 {
		buckets = prometheus.DefBuckets
	}

	registry := prometheus.NewRegistry()

	m := &Metrics{
		config:   cfg,
		registry: registry,

		resolutionsStarted: prometheus.NewCounter(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "resolutions_started_total",
				Help:      "Total number of configuration resolutions started",
			},
		),
		resolutionsCompleted: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "resolutions_completed_total",
				Help:      "Total number of configuration resolutions completed",
			},
			[]string{"status"},
		),
		resolutionDuration: prometheus.NewHistogram(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Name:      "resolution_duration_seconds",
				Help:      "Duration of configuration resolution in seconds",
				Buckets:   buckets,
			},
		),
		validationFailures: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "validation_failures_total",
				Help:      "Total number of resolution failures by error code",
			},
			[]string{"code"},
		),
		reloads: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "reloads_total",
				Help:      "Total number of document reloads by outcome",
			},
			[]string{"outcome"},
		),
		peersResolved: prometheus.NewGauge(
			prometheus.GaugeOpts{
				Namespace: namespace,
				Name:      "peers_resolved",
				Help:      "Number of peers in the resolved replicaset",
			},
		),
		shardingReplicasets: prometheus.NewGauge(
			prometheus.GaugeOpts{
				Namespace: namespace,
				Name:      "sharding_replicasets",
				Help:      "Number of replicasets in the derived sharding topology",
			},
		),
	}

	collectors := []prometheus.Collector{
		m.resolutionsStarted,
		m.resolutionsCompleted,
		m.resolutionDuration,
		m.validationFailures,
		m.reloads,
		m.peersResolved,
		m.shardingReplicasets,
	}
	for _, collector := range collectors {
		if err := registry.Register(collector); err != nil {
			return nil, fmt.Errorf("failed to register collector: %w", err)
		}
	}

	return m, nil
}

// ResolutionStarted records the start of a resolution.
func (m *Metrics) ResolutionStarted() {
	if m.registry == nil {
		return
	}
	m.resolutionsStarted.Inc()
}

// ResolutionCompleted records the outcome and duration of a resolution.
func (m *Metrics) ResolutionCompleted(status string, duration time.Duration) {
	if m.registry == nil {
		return
	}
	m.resolutionsCompleted.WithLabelValues(status).Inc()
	m.resolutionDuration.Observe(duration.Seconds())
}

// ValidationFailed records a resolution failure by error code.
func (m *Metrics) ValidationFailed(code string) {
	if m.registry == nil {
		return
	}
	m.validationFailures.WithLabelValues(code).Inc()
}

// ReloadObserved records a document reload outcome (applied, rejected).
func (m *Metrics) ReloadObserved(outcome string) {
	if m.registry == nil {
		return
	}
	m.reloads.WithLabelValues(outcome).Inc()
}

// SetPeersResolved sets the size of the resolved replicaset.
func (m *Metrics) SetPeersResolved(n int) {
	if m.registry == nil {
		return
	}
	m.peersResolved.Set(float64(n))
}

// SetShardingReplicasets sets the size of the derived sharding topology.
func (m *Metrics) SetShardingReplicasets(n int) {
	if m.registry == nil {
		return
	}
	m.shardingReplicasets.Set(float64(n))
}

// Handler returns the HTTP handler for the metrics endpoint.
func (m *Metrics) Handler() http.Handler {
	if m.registry == nil {
		return http.NotFoundHandler()
	}
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}

// Serve starts the metrics HTTP server. It blocks until the server fails.
func (m *Metrics) Serve() error {
	if m.registry == nil {
		return fmt.Errorf("metrics are disabled")
	}

	path := m.config.Path
	if path == "" {
		path = "/metrics"
	}

	mux := http.NewServeMux()
	mux.Handle(path, m.Handler())

	server := &http.Server{
		Addr:              m.config.ListenAddress,
		Handler:           mux,
		ReadHeaderTimeout: 5 * time.Second,
	}
	return server.ListenAndServe()
}
