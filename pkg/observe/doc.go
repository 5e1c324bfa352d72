// Package observe turns scheduler events into Prometheus metrics and
// OpenTelemetry spans.
//
// Both Metrics and Tracing implement fiber.Observer. Combine them with Multi:
//
//	reg := prometheus.NewRegistry()
//	m := observe.NewMetrics(observe.WithRegistry(reg))
//	s := fiber.New(h, fiber.WithObserver(observe.Multi(m, observe.NewTracing())))
//
// Metrics collected (namespace "ley" by default):
//   - ley_passes_started_total: render passes by mode (sync, async)
//   - ley_passes_committed_total: passes that reached commit
//   - ley_pass_failures_total: failed passes by error code
//   - ley_redirects_total: in-flight passes restarted, by reason
//   - ley_updates_queued_total: updates deferred until the current pass commits
//   - ley_yields_total: times a pass yielded to the host
//   - ley_fibers_visited_total: fibers processed by committed passes
//   - ley_fiber_ops_total: committed insertions, updates and deletions
//   - ley_effects_total: effect callbacks run, by kind (layout, deferred)
//   - ley_pass_duration_seconds: pass start to end of commit
//   - ley_commit_duration_seconds: commit phase only
//   - ley_host_ops_total: host operations by kind (see ObserveOp)
//
// The tracer uses the global OpenTelemetry tracer provider unless one is
// given with WithTracerProvider. Each pass is one span; yields, redirects
// and queued updates are recorded as span events.
package observe
