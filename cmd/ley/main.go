package main

import (
	stderrors "errors"
	"fmt"
	"os"

	"github.com/mattn/go-isatty"
	"github.com/spf13/cobra"

	"github.com/vango-dev/ley/internal/errors"
)

// Version information set at build time.
var (
	version = "dev"
	commit  = "none"
	date    = "unknown"
)

const banner = `
  ┬  ┌─┐┬ ┬
  │  ├┤ └┬┘
  ┴─┘└─┘ ┴
`

// globalFlags are shared by every command.
type globalFlags struct {
	configPath string
	logLevel   string
	logFormat  string
}

func main() {
	if fd := os.Stderr.Fd(); !isatty.IsTerminal(fd) && !isatty.IsCygwinTerminal(fd) {
		errors.DisableColors()
	}
	if err := newRootCmd().Execute(); err != nil {
		var le *errors.LeyError
		if stderrors.As(err, &le) {
			fmt.Fprint(os.Stderr, le.Format())
		} else {
			fmt.Fprintf(os.Stderr, "Error: %s\n", err)
		}
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	flags := &globalFlags{}

	rootCmd := &cobra.Command{
		Use:   "ley",
		Short: "A retained-mode UI reconciliation engine",
		Long: `ley renders component trees into a host through a fiber reconciler.

Renders are split into units of work that yield to the host between
idle slots, and the result is committed in one step. Features include:

  • Keyed reconciliation that moves nodes instead of recreating them
  • Interruptible render passes that restart on higher-priority updates
  • State, memo, ref, effect and store hooks
  • Prometheus metrics, OpenTelemetry spans and a live inspector`,
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	pf := rootCmd.PersistentFlags()
	pf.StringVarP(&flags.configPath, "config", "c", "", "Path to ley.json or ley.yaml (default: search the working directory)")
	pf.StringVar(&flags.logLevel, "log-level", "", "Log level: debug, info, warn, error (default from config)")
	pf.StringVar(&flags.logFormat, "log-format", "", "Log format: text or json (default from config)")

	rootCmd.AddCommand(
		demoCmd(flags),
		serveCmd(flags),
		benchCmd(flags),
		versionCmd(),
	)
	return rootCmd
}

// printBanner prints the ASCII art banner.
func printBanner() {
	fmt.Print(banner)
}

// info prints an info message.
func info(format string, args ...any) {
	fmt.Printf("  %s\n", fmt.Sprintf(format, args...))
}
