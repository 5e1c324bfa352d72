package observe

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"github.com/vango-dev/ley/internal/errors"
	"github.com/vango-dev/ley/pkg/fiber"
	"github.com/vango-dev/ley/pkg/host"
)

// MetricsConfig configures the Prometheus observer.
type MetricsConfig struct {
	// Namespace is the metrics namespace (default: "ley").
	Namespace string

	// Subsystem is the metrics subsystem (default: "").
	Subsystem string

	// ConstLabels are constant labels added to all metrics.
	ConstLabels prometheus.Labels

	// Buckets are the histogram buckets for pass and commit duration.
	// Default: 100µs to about 1.6s in powers of four.
	Buckets []float64

	// Registry is the Prometheus registry to use.
	// Default: prometheus.DefaultRegisterer
	Registry prometheus.Registerer
}

// MetricsOption configures the Prometheus observer.
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

func defaultMetricsConfig() MetricsConfig {
	return MetricsConfig{
		Namespace: "ley",
		Buckets:   prometheus.ExponentialBuckets(0.0001, 4, 8),
		Registry:  prometheus.DefaultRegisterer,
	}
}

// Metrics is a fiber.Observer that records Prometheus metrics.
type Metrics struct {
	passesStarted   *prometheus.CounterVec
	passesCommitted prometheus.Counter
	passFailures    *prometheus.CounterVec
	redirects       *prometheus.CounterVec
	queued          prometheus.Counter
	yields          prometheus.Counter
	fibersVisited   prometheus.Counter
	fiberOps        *prometheus.CounterVec
	effects         *prometheus.CounterVec
	passDuration    prometheus.Histogram
	commitDuration  prometheus.Histogram
	hostOps         *prometheus.CounterVec
}

// NewMetrics creates and registers the scheduler metrics. It panics if the
// metrics are already registered with the registry, so create one Metrics
// per registry.
func NewMetrics(opts ...MetricsOption) *Metrics {
	config := defaultMetricsConfig()
	for _, opt := range opts {
		opt(&config)
	}
	factory := promauto.With(config.Registry)

	counter := func(name, help string) prometheus.CounterOpts {
		return prometheus.CounterOpts{
			Namespace:   config.Namespace,
			Subsystem:   config.Subsystem,
			Name:        name,
			Help:        help,
			ConstLabels: config.ConstLabels,
		}
	}
	histogram := func(name, help string) prometheus.HistogramOpts {
		return prometheus.HistogramOpts{
			Namespace:   config.Namespace,
			Subsystem:   config.Subsystem,
			Name:        name,
			Help:        help,
			ConstLabels: config.ConstLabels,
			Buckets:     config.Buckets,
		}
	}

	return &Metrics{
		passesStarted: factory.NewCounterVec(
			counter("passes_started_total", "Render passes started, by mode"),
			[]string{"mode"}),
		passesCommitted: factory.NewCounter(
			counter("passes_committed_total", "Render passes that were committed")),
		passFailures: factory.NewCounterVec(
			counter("pass_failures_total", "Render passes discarded after an error, by error code"),
			[]string{"code"}),
		redirects: factory.NewCounterVec(
			counter("redirects_total", "In-flight passes restarted by an update, by reason"),
			[]string{"reason"}),
		queued: factory.NewCounter(
			counter("updates_queued_total", "Updates deferred until the current pass commits")),
		yields: factory.NewCounter(
			counter("yields_total", "Times a render pass yielded to the host")),
		fibersVisited: factory.NewCounter(
			counter("fibers_visited_total", "Fibers processed by committed passes")),
		fiberOps: factory.NewCounterVec(
			counter("fiber_ops_total", "Committed fiber operations, by kind"),
			[]string{"op"}),
		effects: factory.NewCounterVec(
			counter("effects_total", "Effect callbacks run, by kind"),
			[]string{"kind"}),
		passDuration: factory.NewHistogram(
			histogram("pass_duration_seconds", "Render pass duration from start to end of commit")),
		commitDuration: factory.NewHistogram(
			histogram("commit_duration_seconds", "Commit phase duration")),
		hostOps: factory.NewCounterVec(
			counter("host_ops_total", "Host operations applied, by kind"),
			[]string{"kind"}),
	}
}

func mode(sync bool) string {
	if sync {
		return "sync"
	}
	return "async"
}

// PassStarted implements fiber.Observer.
func (m *Metrics) PassStarted(_ *fiber.Fiber, sync bool) {
	m.passesStarted.WithLabelValues(mode(sync)).Inc()
}

// Yielded implements fiber.Observer.
func (m *Metrics) Yielded() {
	m.yields.Inc()
}

// Redirected implements fiber.Observer.
func (m *Metrics) Redirected(reason string) {
	m.redirects.WithLabelValues(reason).Inc()
}

// Queued implements fiber.Observer.
func (m *Metrics) Queued() {
	m.queued.Inc()
}

// Committed implements fiber.Observer.
func (m *Metrics) Committed(st fiber.PassStats) {
	m.passesCommitted.Inc()
	m.fibersVisited.Add(float64(st.Fibers))
	m.fiberOps.WithLabelValues("insert").Add(float64(st.Inserts))
	m.fiberOps.WithLabelValues("update").Add(float64(st.Updates))
	m.fiberOps.WithLabelValues("delete").Add(float64(st.Deletions))
	m.passDuration.Observe(st.Duration.Seconds())
	m.commitDuration.Observe(st.Commit.Seconds())
}

// Failed implements fiber.Observer.
func (m *Metrics) Failed(err error) {
	code := errors.CodeOf(err)
	if code == "" {
		code = "unknown"
	}
	m.passFailures.WithLabelValues(code).Inc()
}

// EffectRan implements fiber.Observer.
func (m *Metrics) EffectRan(layout bool) {
	kind := "deferred"
	if layout {
		kind = "layout"
	}
	m.effects.WithLabelValues(kind).Inc()
}

// ObserveOp counts a host operation. It has the signature of a
// host.Memory subscriber:
//
//	mem.Subscribe(m.ObserveOp)
func (m *Metrics) ObserveOp(op host.Op) {
	m.hostOps.WithLabelValues(op.Kind.String()).Inc()
}

var _ fiber.Observer = (*Metrics)(nil)
