package main

import (
	"context"
	"io"
	"log/slog"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"

	"github.com/vango-dev/ley/internal/config"
	"github.com/vango-dev/ley/internal/demo"
	"github.com/vango-dev/ley/pkg/fiber"
	"github.com/vango-dev/ley/pkg/host"
	"github.com/vango-dev/ley/pkg/loop"
	"github.com/vango-dev/ley/pkg/observe"
)

// loadConfig reads the configuration named by the flags, or the one in the
// working directory, or the defaults, and applies flag overrides.
func loadConfig(flags *globalFlags) (*config.Config, error) {
	var (
		cfg *config.Config
		err error
	)
	switch {
	case flags.configPath != "":
		cfg, err = config.LoadFile(flags.configPath)
	case config.Exists("."):
		cfg, err = config.Load(".")
	default:
		cfg = config.New()
	}
	if err != nil {
		return nil, err
	}

	if flags.logLevel != "" {
		cfg.Log.Level = flags.logLevel
	}
	if flags.logFormat != "" {
		cfg.Log.Format = flags.logFormat
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func newLogger(cfg *config.Config, w io.Writer) *slog.Logger {
	opts := &slog.HandlerOptions{Level: cfg.LogLevel()}
	if cfg.Log.Format == "json" {
		return slog.New(slog.NewJSONHandler(w, opts))
	}
	return slog.New(slog.NewTextHandler(w, opts))
}

// engine wires a scheduler to the memory host, a loop and the observers.
type engine struct {
	cfg      *config.Config
	logger   *slog.Logger
	registry *prometheus.Registry
	metrics  *observe.Metrics
	host     *host.Memory
	loop     *loop.Loop
	sched    *fiber.Scheduler
}

func newEngine(cfg *config.Config, logger *slog.Logger) *engine {
	reg := prometheus.NewRegistry()
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	metrics := observe.NewMetrics(
		observe.WithRegistry(reg),
		observe.WithNamespace(cfg.Metrics.Namespace),
	)

	h := host.NewMemory()
	h.Subscribe(metrics.ObserveOp)

	return &engine{
		cfg:      cfg,
		logger:   logger,
		registry: reg,
		metrics:  metrics,
		host:     h,
		loop:     loop.New(loop.WithSlice(cfg.Slice()), loop.WithLogger(logger)),
	}
}

// start creates the scheduler. extra observers receive events after the
// metrics and tracing observers.
func (e *engine) start(extra ...fiber.Observer) {
	obs := append([]fiber.Observer{e.metrics, observe.NewTracing()}, extra...)
	e.sched = fiber.New(e.host,
		fiber.WithIdle(e.loop),
		fiber.WithLogger(e.logger),
		fiber.WithObserver(observe.Multi(obs...)),
		fiber.WithSync(e.cfg.Scheduler.Sync),
		fiber.WithDebugHooks(e.cfg.Scheduler.DebugHooks),
		fiber.WithErrorHandler(func(err error) {
			e.logger.Error("render failed", "error", err)
		}),
	)
}

// mount renders d into a new container on the loop goroutine.
func (e *engine) mount(ctx context.Context, d demo.Demo) (root *fiber.Root, container *host.Node, err error) {
	err = e.loop.Do(ctx, func() error {
		container = e.host.NewContainer("main")
		root, err = e.sched.Render(d.New(demo.Env{After: e.loop.After, Logger: e.logger}), container)
		return err
	})
	return root, container, err
}

// html renders the container on the loop goroutine.
func (e *engine) html(ctx context.Context, container *host.Node) string {
	var out string
	_ = e.loop.Do(ctx, func() error {
		out = e.host.InnerHTML(container)
		return nil
	})
	return out
}
