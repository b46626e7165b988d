// Package metrics holds the Prometheus collectors for theme persistence,
// theme store transitions and cross-tab broadcasts.
//
// A nil *Metrics is valid and records nothing, so components can take an
// optional metrics handle without nil checks at every call site.
package metrics

import (
	"sync"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Config configures the collectors.
type Config struct {
	// Namespace is the metrics namespace (default: "themes").
	Namespace string

	// Subsystem is the metrics subsystem (default: "").
	Subsystem string

	// ConstLabels are constant labels added to all metrics.
	ConstLabels prometheus.Labels

	// Buckets are the histogram buckets for action duration.
	// Default: prometheus.DefBuckets
	Buckets []float64

	// Registry is the Prometheus registry to use.
	// Default: prometheus.DefaultRegisterer
	Registry prometheus.Registerer
}

// Option configures the collectors.
type Option func(*Config)

// WithNamespace sets the metrics namespace.
func WithNamespace(namespace string) Option {
	return func(c *Config) {
		c.Namespace = namespace
	}
}

// WithSubsystem sets the metrics subsystem.
func WithSubsystem(subsystem string) Option {
	return func(c *Config) {
		c.Subsystem = subsystem
	}
}

// WithConstLabels sets constant labels for all metrics.
func WithConstLabels(labels prometheus.Labels) Option {
	return func(c *Config) {
		c.ConstLabels = labels
	}
}

// WithBuckets sets the histogram buckets.
func WithBuckets(buckets []float64) Option {
	return func(c *Config) {
		c.Buckets = buckets
	}
}

// WithRegistry sets the Prometheus registry.
func WithRegistry(registry prometheus.Registerer) Option {
	return func(c *Config) {
		c.Registry = registry
	}
}

func defaultConfig() Config {
	return Config{
		Namespace: "themes",
		Buckets:   prometheus.DefBuckets,
		Registry:  prometheus.DefaultRegisterer,
	}
}

// Action outcomes.
const (
	OutcomeSaved     = "saved"
	OutcomeReset     = "reset"
	OutcomeRejected  = "rejected"
	OutcomeMalformed = "malformed"
	OutcomeFailed    = "failed"
)

// Transition sources.
const (
	SourceUser      = "user"
	SourceSystem    = "system"
	SourceBroadcast = "broadcast"
)

// Metrics is a set of registered collectors.
type Metrics struct {
	actionsTotal        *prometheus.CounterVec
	actionDuration      prometheus.Histogram
	transitionsTotal    *prometheus.CounterVec
	persistsTotal       *prometheus.CounterVec
	broadcastsSent      prometheus.Counter
	broadcastsDelivered prometheus.Counter
	broadcastErrors     prometheus.Counter
	activeStores        prometheus.Gauge
}

// New registers the collectors with the configured registry.
// It panics if the collectors are already registered there.
func New(opts ...Option) *Metrics {
	config := defaultConfig()
	for _, opt := range opts {
		opt(&config)
	}
	factory := promauto.With(config.Registry)

	return &Metrics{
		actionsTotal: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace:   config.Namespace,
			Subsystem:   config.Subsystem,
			Name:        "persist_actions_total",
			Help:        "Theme persist action requests by outcome",
			ConstLabels: config.ConstLabels,
		}, []string{"outcome"}),

		actionDuration: factory.NewHistogram(prometheus.HistogramOpts{
			Namespace:   config.Namespace,
			Subsystem:   config.Subsystem,
			Name:        "persist_action_duration_seconds",
			Help:        "Theme persist action duration in seconds",
			ConstLabels: config.ConstLabels,
			Buckets:     config.Buckets,
		}),

		transitionsTotal: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace:   config.Namespace,
			Subsystem:   config.Subsystem,
			Name:        "store_transitions_total",
			Help:        "Theme store state changes by source",
			ConstLabels: config.ConstLabels,
		}, []string{"source"}),

		persistsTotal: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace:   config.Namespace,
			Subsystem:   config.Subsystem,
			Name:        "store_persists_total",
			Help:        "Persist requests issued by theme stores by result",
			ConstLabels: config.ConstLabels,
		}, []string{"result"}),

		broadcastsSent: factory.NewCounter(prometheus.CounterOpts{
			Namespace:   config.Namespace,
			Subsystem:   config.Subsystem,
			Name:        "broadcasts_sent_total",
			Help:        "Theme changes published to the cross-tab channel",
			ConstLabels: config.ConstLabels,
		}),

		broadcastsDelivered: factory.NewCounter(prometheus.CounterOpts{
			Namespace:   config.Namespace,
			Subsystem:   config.Subsystem,
			Name:        "broadcasts_delivered_total",
			Help:        "Theme changes delivered to other tabs",
			ConstLabels: config.ConstLabels,
		}),

		broadcastErrors: factory.NewCounter(prometheus.CounterOpts{
			Namespace:   config.Namespace,
			Subsystem:   config.Subsystem,
			Name:        "broadcast_errors_total",
			Help:        "Undecodable cross-tab messages",
			ConstLabels: config.ConstLabels,
		}),

		activeStores: factory.NewGauge(prometheus.GaugeOpts{
			Namespace:   config.Namespace,
			Subsystem:   config.Subsystem,
			Name:        "active_stores",
			Help:        "Number of open theme stores",
			ConstLabels: config.ConstLabels,
		}),
	}
}

var (
	defaultMetrics     *Metrics
	defaultMetricsOnce sync.Once
)

// Default returns a process-wide Metrics registered with
// prometheus.DefaultRegisterer on first use.
func Default() *Metrics {
	defaultMetricsOnce.Do(func() {
		defaultMetrics = New()
	})
	return defaultMetrics
}

// ObserveAction records one persist action request.
func (m *Metrics) ObserveAction(outcome string, seconds float64) {
	if m == nil {
		return
	}
	m.actionsTotal.WithLabelValues(outcome).Inc()
	m.actionDuration.Observe(seconds)
}

// Transition records a theme store state change.
func (m *Metrics) Transition(source string) {
	if m == nil {
		return
	}
	m.transitionsTotal.WithLabelValues(source).Inc()
}

// Persist records a persist request issued by a store.
func (m *Metrics) Persist(ok bool) {
	if m == nil {
		return
	}
	result := "ok"
	if !ok {
		result = "error"
	}
	m.persistsTotal.WithLabelValues(result).Inc()
}

// BroadcastSent records a published message.
func (m *Metrics) BroadcastSent() {
	if m == nil {
		return
	}
	m.broadcastsSent.Inc()
}

// BroadcastDelivered records n deliveries of one message.
func (m *Metrics) BroadcastDelivered(n int) {
	if m == nil || n <= 0 {
		return
	}
	m.broadcastsDelivered.Add(float64(n))
}

// BroadcastError records an undecodable message.
func (m *Metrics) BroadcastError() {
	if m == nil {
		return
	}
	m.broadcastErrors.Inc()
}

// StoreOpened records a new theme store.
func (m *Metrics) StoreOpened() {
	if m == nil {
		return
	}
	m.activeStores.Inc()
}

// StoreClosed records a closed theme store.
func (m *Metrics) StoreClosed() {
	if m == nil {
		return
	}
	m.activeStores.Dec()
}
