package telemetry

import (
	"context"
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"github.com/tether-dev/tether/pkg/live"
	"github.com/tether-dev/tether/pkg/state"
)

// MetricsConfig configures the Prometheus instrumentation.
type MetricsConfig struct {
	// Namespace is the metrics namespace (default: "tether").
	Namespace string

	// Subsystem is the metrics subsystem (default: "").
	Subsystem string

	// ConstLabels are constant labels added to all metrics.
	ConstLabels prometheus.Labels

	// Buckets are the histogram buckets for event duration.
	// Default: prometheus.DefBuckets
	Buckets []float64

	// Registry is the Prometheus registry to use.
	// Default: prometheus.DefaultRegisterer
	Registry prometheus.Registerer
}

// MetricsOption configures the Prometheus instrumentation.
type MetricsOption func(*MetricsConfig)

// WithNamespace sets the metrics namespace.
func WithNamespace(namespace string) MetricsOption {
	return func(c *MetricsConfig) {
		c.Namespace = namespace
	}
}

// WithSubsystem sets the metrics subsystem.
func WithSubsystem(subsystem string) MetricsOption {
	return func(c *MetricsConfig) {
		c.Subsystem = subsystem
	}
}

// WithConstLabels sets constant labels for all metrics.
func WithConstLabels(labels prometheus.Labels) MetricsOption {
	return func(c *MetricsConfig) {
		c.ConstLabels = labels
	}
}

// WithBuckets sets the histogram buckets.
func WithBuckets(buckets []float64) MetricsOption {
	return func(c *MetricsConfig) {
		c.Buckets = buckets
	}
}

// WithRegistry sets the Prometheus registry.
func WithRegistry(registry prometheus.Registerer) MetricsOption {
	return func(c *MetricsConfig) {
		c.Registry = registry
	}
}

// defaultMetricsConfig returns the default metrics configuration.
func defaultMetricsConfig() MetricsConfig {
	return MetricsConfig{
		Namespace: "tether",
		Buckets:   prometheus.DefBuckets,
		Registry:  prometheus.DefaultRegisterer,
	}
}

// StoreMetrics records container activity. It implements state.Observer;
// attach it with state.WithObserver. A registry accepts a single
// StoreMetrics, so share one instance across every container it should
// observe.
type StoreMetrics struct {
	mutations    prometheus.Counter
	mutationKeys prometheus.Histogram
	decisions    *prometheus.CounterVec
	subscribers  prometheus.Gauge
}

var _ state.Observer = (*StoreMetrics)(nil)

// NewStoreMetrics creates and registers the container metrics.
func NewStoreMetrics(opts ...MetricsOption) *StoreMetrics {
	config := defaultMetricsConfig()
	for _, opt := range opts {
		opt(&config)
	}
	factory := promauto.With(config.Registry)

	return &StoreMetrics{
		mutations: factory.NewCounter(prometheus.CounterOpts{
			Namespace:   config.Namespace,
			Subsystem:   config.Subsystem,
			Name:        "store_mutations_total",
			Help:        "Total number of state mutations applied",
			ConstLabels: config.ConstLabels,
		}),

		mutationKeys: factory.NewHistogram(prometheus.HistogramOpts{
			Namespace:   config.Namespace,
			Subsystem:   config.Subsystem,
			Name:        "store_mutation_keys",
			Help:        "Number of keys per applied partial",
			ConstLabels: config.ConstLabels,
			Buckets:     []float64{1, 2, 5, 10, 25, 50},
		}),

		decisions: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace:   config.Namespace,
			Subsystem:   config.Subsystem,
			Name:        "store_notifications_total",
			Help:        "Notification decisions by outcome",
			ConstLabels: config.ConstLabels,
		}, []string{"outcome"}),

		subscribers: factory.NewGauge(prometheus.GaugeOpts{
			Namespace:   config.Namespace,
			Subsystem:   config.Subsystem,
			Name:        "store_subscribers",
			Help:        "Number of registered listeners",
			ConstLabels: config.ConstLabels,
		}),
	}
}

// RecordMutation implements state.Observer.
func (m *StoreMetrics) RecordMutation(keys int) {
	m.mutations.Inc()
	m.mutationKeys.Observe(float64(keys))
}

// RecordDecision implements state.Observer.
func (m *StoreMetrics) RecordDecision(fired bool) {
	if fired {
		m.decisions.WithLabelValues("fired").Inc()
	} else {
		m.decisions.WithLabelValues("suppressed").Inc()
	}
}

// RecordSubscribers implements state.Observer.
func (m *StoreMetrics) RecordSubscribers(n int) {
	m.subscribers.Set(float64(n))
}

// eventMetrics holds the Prometheus metrics for live event handling.
type eventMetrics struct {
	eventsTotal   *prometheus.CounterVec
	eventDuration *prometheus.HistogramVec
}

// globalEventMetrics is the singleton metrics instance.
// Created on first call to Prometheus().
var (
	globalEventMetrics *eventMetrics
	globalEventMu      sync.Mutex
)

// initEventMetrics initializes the event handling metrics.
func initEventMetrics(config MetricsConfig) *eventMetrics {
	factory := promauto.With(config.Registry)

	return &eventMetrics{
		eventsTotal: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace:   config.Namespace,
			Subsystem:   config.Subsystem,
			Name:        "events_total",
			Help:        "Total number of client events processed",
			ConstLabels: config.ConstLabels,
		}, []string{"view", "event", "status"}),

		eventDuration: factory.NewHistogramVec(prometheus.HistogramOpts{
			Namespace:   config.Namespace,
			Subsystem:   config.Subsystem,
			Name:        "event_duration_seconds",
			Help:        "Event handler duration in seconds",
			ConstLabels: config.ConstLabels,
			Buckets:     config.Buckets,
		}, []string{"view"}),
	}
}

// Prometheus creates middleware that collects Prometheus metrics for
// live events.
//
// Metrics collected:
//   - tether_events_total: Counter of events by view, event name and status
//   - tether_event_duration_seconds: Histogram of handler duration by view
//
// Example:
//
//	srv := live.NewServer(nil)
//	srv.Use(telemetry.Prometheus(
//	    telemetry.WithNamespace("myapp"),
//	))
func Prometheus(opts ...MetricsOption) live.Middleware {
	config := defaultMetricsConfig()
	for _, opt := range opts {
		opt(&config)
	}

	// Initialize metrics once
	globalEventMu.Lock()
	if globalEventMetrics == nil {
		globalEventMetrics = initEventMetrics(config)
	}
	m := globalEventMetrics
	globalEventMu.Unlock()

	return func(next live.Handler) live.Handler {
		return func(ctx context.Context, ev live.Event) error {
			start := time.Now()

			err := next(ctx, ev)

			duration := time.Since(start).Seconds()
			m.eventDuration.WithLabelValues(ev.View).Observe(duration)

			status := "success"
			if err != nil {
				status = "error"
			}
			m.eventsTotal.WithLabelValues(ev.View, ev.Name, status).Inc()

			return err
		}
	}
}
