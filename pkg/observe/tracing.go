package observe

import (
	"context"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/vango-dev/ley/internal/errors"
	"github.com/vango-dev/ley/pkg/fiber"
)

// Default tracer name.
const defaultTracerName = "ley"

// TracingConfig configures the OpenTelemetry observer.
type TracingConfig struct {
	// TracerName is the name of the tracer (default: "ley").
	TracerName string

	// Provider supplies the tracer. Default: the global provider.
	Provider trace.TracerProvider

	// Context is the parent of every pass span (default: context.Background()).
	Context context.Context
}

// TracingOption configures the OpenTelemetry observer.
type TracingOption func(*TracingConfig)

// WithTracerName sets the tracer name.
func WithTracerName(name string) TracingOption {
	return func(c *TracingConfig) {
		c.TracerName = name
	}
}

// WithTracerProvider sets the tracer provider.
func WithTracerProvider(tp trace.TracerProvider) TracingOption {
	return func(c *TracingConfig) {
		c.Provider = tp
	}
}

// WithParentContext sets the context pass spans are started from.
func WithParentContext(ctx context.Context) TracingOption {
	return func(c *TracingConfig) {
		c.Context = ctx
	}
}

// Tracing is a fiber.Observer that records one span per render pass.
//
// A pass that is restarted or abandoned before commit ends with the
// attribute ley.outcome=superseded; committed passes end with status Ok and
// failed passes with status Error. Effects run after commit and are counted
// on the next span as ley.effects.
//
// Tracing is not safe for concurrent use, like the scheduler it observes.
type Tracing struct {
	tracer trace.Tracer
	ctx    context.Context

	span    trace.Span
	effects int
}

// NewTracing creates a tracing observer.
func NewTracing(opts ...TracingOption) *Tracing {
	config := TracingConfig{
		TracerName: defaultTracerName,
		Context:    context.Background(),
	}
	for _, opt := range opts {
		opt(&config)
	}
	provider := config.Provider
	if provider == nil {
		provider = otel.GetTracerProvider()
	}
	return &Tracing{
		tracer: provider.Tracer(config.TracerName),
		ctx:    config.Context,
	}
}

// PassStarted implements fiber.Observer.
func (t *Tracing) PassStarted(root *fiber.Fiber, sync bool) {
	t.end(attribute.String("ley.outcome", "superseded"))

	_, t.span = t.tracer.Start(t.ctx, "ley.pass",
		trace.WithSpanKind(trace.SpanKindInternal),
		trace.WithAttributes(
			attribute.String("ley.root", root.Name()),
			attribute.Bool("ley.sync", sync),
			attribute.Int("ley.effects", t.effects),
		),
	)
	t.effects = 0
}

// Yielded implements fiber.Observer.
func (t *Tracing) Yielded() {
	t.event("yield")
}

// Redirected implements fiber.Observer.
func (t *Tracing) Redirected(reason string) {
	t.event("redirect", attribute.String("ley.reason", reason))
}

// Queued implements fiber.Observer.
func (t *Tracing) Queued() {
	t.event("queued")
}

// Committed implements fiber.Observer.
func (t *Tracing) Committed(st fiber.PassStats) {
	if t.span == nil {
		return
	}
	t.span.SetAttributes(
		attribute.Int("ley.fibers", st.Fibers),
		attribute.Int("ley.yields", st.Yields),
		attribute.Int("ley.inserts", st.Inserts),
		attribute.Int("ley.updates", st.Updates),
		attribute.Int("ley.deletions", st.Deletions),
		attribute.Int64("ley.commit_us", st.Commit.Microseconds()),
	)
	t.span.SetStatus(codes.Ok, "")
	t.end(attribute.String("ley.outcome", "committed"))
}

// Failed implements fiber.Observer.
func (t *Tracing) Failed(err error) {
	if t.span == nil {
		return
	}
	t.span.RecordError(err)
	t.span.SetStatus(codes.Error, err.Error())
	t.end(
		attribute.String("ley.outcome", "failed"),
		attribute.String("ley.error_code", errors.CodeOf(err)),
	)
}

// EffectRan implements fiber.Observer.
func (t *Tracing) EffectRan(bool) {
	t.effects++
}

func (t *Tracing) event(name string, attrs ...attribute.KeyValue) {
	if t.span == nil {
		return
	}
	t.span.AddEvent(name, trace.WithAttributes(attrs...))
}

func (t *Tracing) end(attrs ...attribute.KeyValue) {
	if t.span == nil {
		return
	}
	t.span.SetAttributes(attrs...)
	t.span.End()
	t.span = nil
}

var _ fiber.Observer = (*Tracing)(nil)
