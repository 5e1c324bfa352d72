package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/vango-dev/ley/internal/demo"
	"github.com/vango-dev/ley/pkg/inspect"
)

func serveCmd(flags *globalFlags) *cobra.Command {
	var addr string

	cmd := &cobra.Command{
		Use:   "serve [demo...]",
		Short: "Serve demos through the inspector",
		Long: `Mount demos on the event loop and expose them over HTTP.

Each demo becomes a root named after it. With no arguments every demo is
mounted. The inspector serves:

  GET  /healthz                 liveness
  GET  /metrics                 Prometheus metrics
  GET  /roots                   mounted roots
  GET  /roots/{name}/tree       fiber tree snapshot
  GET  /roots/{name}/html       rendered HTML
  POST /nodes/{id}/{event}      dispatch an event to a host node
  GET  /ops                     websocket stream of host operations

Examples:
  ley serve
  ley serve counter list --addr :8080`,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig(flags)
			if err != nil {
				return err
			}
			if addr != "" {
				cfg.Inspect.Addr = addr
			}
			if len(args) == 0 {
				args = demo.Names()
			}
			demos := make([]demo.Demo, 0, len(args))
			for _, name := range args {
				d, err := demo.Lookup(name)
				if err != nil {
					return err
				}
				demos = append(demos, d)
			}

			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			e := newEngine(cfg, newLogger(cfg, os.Stderr))
			srv := inspect.New(inspect.Config{
				Host:     e.host,
				Loop:     e.loop,
				Gatherer: e.registry,
				Logger:   e.logger,
			})
			e.start(srv.Hub().Observer())

			printBanner()
			return runServe(ctx, e, srv, demos, cfg.Inspect.Addr)
		},
	}

	cmd.Flags().StringVarP(&addr, "addr", "a", "", "Inspector listen address (default from config)")

	return cmd
}

func runServe(ctx context.Context, e *engine, srv *inspect.Server, demos []demo.Demo, addr string) error {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	loopErr := make(chan error, 1)
	go func() { loopErr <- e.loop.Run(ctx) }()

	for _, d := range demos {
		root, _, err := e.mount(ctx, d)
		if err != nil {
			cancel()
			<-loopErr
			return err
		}
		srv.Mount(d.Name, root)
		info("mounted %s", d.Name)
	}
	info("inspector on http://%s", addr)
	fmt.Println()

	err := srv.Serve(ctx, addr)
	cancel()
	if lerr := <-loopErr; err == nil {
		err = lerr
	}
	return err
}
