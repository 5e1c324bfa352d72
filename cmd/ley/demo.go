package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/vango-dev/ley/internal/demo"
	"github.com/vango-dev/ley/internal/errors"
	"github.com/vango-dev/ley/pkg/host"
)

func demoCmd(flags *globalFlags) *cobra.Command {
	var (
		list   bool
		runFor time.Duration
		ops    bool
		clicks []string
	)

	cmd := &cobra.Command{
		Use:   "demo [name]",
		Short: "Run a demo application headless",
		Long: `Mount a demo into the memory host, drive it, and print the result.

The demo runs on the event loop with time-sliced rendering. Clicks are
dispatched in order to the first element whose class matches, then the
command waits for the engine to settle (or for --for to elapse) and
prints the rendered HTML.

Examples:
  ley demo --list
  ley demo counter --click inc --click inc
  ley demo list --click rotate --ops
  ley demo clock --for 3s`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if list || len(args) == 0 {
				out := cmd.OutOrStdout()
				for _, name := range demo.Names() {
					d, _ := demo.Lookup(name)
					fmt.Fprintf(out, "  %-10s %s\n", d.Name, d.Description)
				}
				return nil
			}
			d, err := demo.Lookup(args[0])
			if err != nil {
				return err
			}

			cfg, err := loadConfig(flags)
			if err != nil {
				return err
			}
			e := newEngine(cfg, newLogger(cfg, os.Stderr))
			if ops {
				out := cmd.OutOrStdout()
				e.host.Subscribe(func(op host.Op) {
					fmt.Fprintf(out, "  op  %s\n", op)
				})
			}
			e.start()

			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()
			return runDemo(ctx, e, d, clicks, runFor, cmd.OutOrStdout())
		},
	}

	cmd.Flags().BoolVarP(&list, "list", "l", false, "List available demos")
	cmd.Flags().DurationVar(&runFor, "for", 0, "Keep the demo running for this long before printing")
	cmd.Flags().BoolVar(&ops, "ops", false, "Print every host operation")
	cmd.Flags().StringArrayVar(&clicks, "click", nil, "Click the first element with this class (repeatable)")

	return cmd
}

func runDemo(ctx context.Context, e *engine, d demo.Demo, clicks []string, runFor time.Duration, out io.Writer) error {
	ctx, cancel := context.WithCancel(ctx)
	loopErr := make(chan error, 1)
	go func() { loopErr <- e.loop.Run(ctx) }()
	defer func() {
		cancel()
		<-loopErr
	}()

	root, container, err := e.mount(ctx, d)
	if err != nil {
		return err
	}

	for _, class := range clicks {
		if err := e.loop.Do(ctx, func() error {
			n := findByClass(container, class)
			if n == nil || !e.host.Dispatch(n, "click", nil) {
				return errors.New("E142").
					WithDetail("No clickable element with class " + class + " in " + d.Name + ".")
			}
			return nil
		}); err != nil {
			return err
		}
		if err := settle(ctx, e); err != nil {
			return err
		}
	}

	if runFor > 0 {
		select {
		case <-time.After(runFor):
		case <-ctx.Done():
		}
	}
	if err := settle(ctx, e); err != nil {
		return err
	}

	fmt.Fprintln(out, e.html(ctx, container))
	return e.loop.Do(ctx, root.Unmount)
}

// settle waits until the scheduler has no pass in progress and no queued
// effects.
func settle(ctx context.Context, e *engine) error {
	for {
		var busy bool
		if err := e.loop.Do(ctx, func() error {
			busy = e.sched.Busy() || e.sched.PendingEffects() > 0
			return nil
		}); err != nil {
			return err
		}
		if !busy {
			return nil
		}
		select {
		case <-time.After(e.loop.Slice()):
		case <-ctx.Done():
			return ctx.Err()
		}
	}
}

// findByClass returns the first element under n whose class list contains
// class.
func findByClass(n *host.Node, class string) *host.Node {
	if n.Kind == host.NodeElement {
		if c, ok := n.Attr("class"); ok {
			for _, f := range strings.Fields(c) {
				if f == class {
					return n
				}
			}
		}
	}
	for _, c := range n.Children {
		if found := findByClass(c, class); found != nil {
			return found
		}
	}
	return nil
}
