package main

import (
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"math"
	"math/rand/v2"
	"os"
	"os/exec"
	"runtime"
	"slices"
	"strings"
	"time"

	"github.com/oklog/ulid/v2"
	"github.com/spf13/cobra"

	"github.com/vango-dev/ley/internal/demo"
	"github.com/vango-dev/ley/internal/errors"
	"github.com/vango-dev/ley/pkg/element"
	"github.com/vango-dev/ley/pkg/fiber"
	"github.com/vango-dev/ley/pkg/host"
)

const benchVersion = "1"

type profile struct {
	Name   string
	Items  int
	Rounds int
	Budget int // Units of work per idle slot; 0 renders each pass in one slot
}

var profiles = map[string]profile{
	"fast": {
		Name:   "fast",
		Items:  100,
		Rounds: 200,
		Budget: 64,
	},
	"standard": {
		Name:   "standard",
		Items:  1000,
		Rounds: 500,
		Budget: 256,
	},
	"stress": {
		Name:   "stress",
		Items:  5000,
		Rounds: 1000,
		Budget: 512,
	},
}

type benchConfig struct {
	profile
	Seed     uint64
	JSONPath string
}

func benchCmd(flags *globalFlags) *cobra.Command {
	var (
		name   string
		cfg    benchConfig
		items  int
		rounds int
		budget int
	)

	cmd := &cobra.Command{
		Use:   "bench",
		Short: "Benchmark keyed list reconciliation",
		Long: `Render a keyed todo list and apply random store mutations to it.

Each round rotates, reverses, toggles, or replaces entries, then runs the
resulting pass to completion in idle slots of --budget units of work.
Pass and commit latencies, host operations, and GC statistics are
reported.

Examples:
  ley bench
  ley bench --profile stress --json report.json
  ley bench --items 2000 --budget 0`,
		RunE: func(cmd *cobra.Command, args []string) error {
			base, ok := profiles[name]
			if !ok {
				return errors.Newf(errors.CategoryCLI, "unknown profile %q", name).
					WithSuggestion("Use one of: fast, standard, stress")
			}
			cfg.profile = base
			if items > 0 {
				cfg.Items = items
			}
			if rounds > 0 {
				cfg.Rounds = rounds
			}
			if cmd.Flags().Changed("budget") {
				cfg.Budget = budget
			}

			conf, err := loadConfig(flags)
			if err != nil {
				return err
			}
			report, err := runBench(cfg, newLogger(conf, os.Stderr))
			if err != nil {
				return err
			}
			writeSummary(cmd.OutOrStdout(), report)
			if cfg.JSONPath != "" {
				return writeJSON(cfg.JSONPath, report)
			}
			return nil
		},
	}

	cmd.Flags().StringVarP(&name, "profile", "p", "fast", "Workload profile: fast, standard, stress")
	cmd.Flags().IntVar(&items, "items", 0, "Override the list size")
	cmd.Flags().IntVar(&rounds, "rounds", 0, "Override the number of mutation rounds")
	cmd.Flags().IntVar(&budget, "budget", 0, "Override units of work per idle slot (0 = unlimited)")
	cmd.Flags().Uint64Var(&cfg.Seed, "seed", 1, "Random seed for the mutation sequence")
	cmd.Flags().StringVar(&cfg.JSONPath, "json", "", "Write the JSON report to this path (- for stdout)")

	return cmd
}

// passCollector records the statistics of every committed pass.
type passCollector struct {
	stats    []fiber.PassStats
	failures int
}

func (c *passCollector) PassStarted(*fiber.Fiber, bool) {}
func (c *passCollector) Yielded()                       {}
func (c *passCollector) Redirected(string)              {}
func (c *passCollector) Queued()                        {}
func (c *passCollector) EffectRan(bool)                 {}
func (c *passCollector) Failed(error)                   { c.failures++ }
func (c *passCollector) Committed(st fiber.PassStats)   { c.stats = append(c.stats, st) }

func runBench(cfg benchConfig, logger *slog.Logger) (benchReport, error) {
	h := host.NewMemory()
	opCounts := make(map[string]uint64)
	h.Subscribe(func(op host.Op) { opCounts[op.Kind.String()]++ })

	idle := fiber.NewManualIdle(cfg.Budget)
	collector := &passCollector{}
	sched := fiber.New(h,
		fiber.WithIdle(idle),
		fiber.WithLogger(logger),
		fiber.WithObserver(collector),
	)

	texts := make([]string, cfg.Items)
	for i := range texts {
		texts[i] = fmt.Sprintf("item %d", i)
	}
	todos := demo.NewTodos(texts...)
	if _, err := sched.Render(element.C(demo.TodoList, element.Props{"todos": todos}), h.NewContainer("main")); err != nil {
		return benchReport{}, err
	}
	idle.Flush()
	collector.stats = collector.stats[:0]
	clear(opCounts)

	rng := rand.New(rand.NewPCG(cfg.Seed, cfg.Seed))
	var before, after runtime.MemStats
	runtime.GC()
	runtime.ReadMemStats(&before)
	start := time.Now()

	for i := 0; i < cfg.Rounds; i++ {
		mutate(todos, rng)
		idle.Flush()
	}

	elapsed := time.Since(start)
	runtime.ReadMemStats(&after)

	return buildReport(cfg, collector, opCounts, elapsed, before, after), nil
}

// mutate applies one random change to the list.
func mutate(todos *demo.Todos, rng *rand.Rand) {
	items := todos.Items()
	if len(items) == 0 {
		todos.Add("item")
		return
	}
	pick := items[rng.IntN(len(items))]
	switch rng.IntN(4) {
	case 0:
		todos.Rotate()
	case 1:
		todos.Reverse()
	case 2:
		todos.Toggle(pick.ID)
	default:
		todos.Remove(pick.ID)
		todos.Add(pick.Text)
	}
}

func percentile(sorted []time.Duration, p float64) time.Duration {
	if len(sorted) == 0 {
		return 0
	}
	if p <= 0 {
		return sorted[0]
	}
	if p >= 1 {
		return sorted[len(sorted)-1]
	}
	idx := int(math.Ceil(float64(len(sorted))*p)) - 1
	if idx < 0 {
		idx = 0
	}
	if idx >= len(sorted) {
		idx = len(sorted) - 1
	}
	return sorted[idx]
}

func ms(d time.Duration) float64 {
	return float64(d) / float64(time.Millisecond)
}

type benchReport struct {
	Version   string       `json:"version"`
	Run       runInfo      `json:"run"`
	Workload  workloadInfo `json:"workload"`
	PassMS    latencyInfo  `json:"pass_ms"`
	CommitMS  latencyInfo  `json:"commit_ms"`
	Work      workInfo     `json:"work"`
	GC        gcInfo       `json:"gc"`
	ElapsedMS float64      `json:"elapsed_ms"`
}

type runInfo struct {
	ID        string `json:"id"`
	Timestamp string `json:"timestamp"`
	Go        string `json:"go"`
	OS        string `json:"os"`
	Arch      string `json:"arch"`
	CPUCount  int    `json:"cpu_count"`
	GitCommit string `json:"git_commit,omitempty"`
}

type workloadInfo struct {
	Profile string `json:"profile"`
	Items   int    `json:"items"`
	Rounds  int    `json:"rounds"`
	Budget  int    `json:"budget"`
	Seed    uint64 `json:"seed"`
}

type latencyInfo struct {
	Min float64 `json:"min"`
	P50 float64 `json:"p50"`
	P95 float64 `json:"p95"`
	P99 float64 `json:"p99"`
	Max float64 `json:"max"`
}

type workInfo struct {
	Passes        int               `json:"passes"`
	Failures      int               `json:"failures"`
	Fibers        int               `json:"fibers"`
	Yields        int               `json:"yields"`
	Inserts       int               `json:"inserts"`
	Updates       int               `json:"updates"`
	Deletions     int               `json:"deletions"`
	FibersPerPass float64           `json:"fibers_per_pass"`
	HostOps       map[string]uint64 `json:"host_ops"`
}

type gcInfo struct {
	AllocMB       float64 `json:"alloc_mb"`
	NumGC         uint32  `json:"num_gc"`
	PauseTotalMS  float64 `json:"pause_total_ms"`
	AllocsObjects uint64  `json:"allocs_objects"`
}

func latencies(durations []time.Duration) latencyInfo {
	if len(durations) == 0 {
		return latencyInfo{}
	}
	sorted := slices.Clone(durations)
	slices.Sort(sorted)
	return latencyInfo{
		Min: ms(sorted[0]),
		P50: ms(percentile(sorted, 0.50)),
		P95: ms(percentile(sorted, 0.95)),
		P99: ms(percentile(sorted, 0.99)),
		Max: ms(sorted[len(sorted)-1]),
	}
}

func buildReport(
	cfg benchConfig,
	collector *passCollector,
	opCounts map[string]uint64,
	elapsed time.Duration,
	before, after runtime.MemStats,
) benchReport {
	pass := make([]time.Duration, 0, len(collector.stats))
	commit := make([]time.Duration, 0, len(collector.stats))
	work := workInfo{
		Passes:   len(collector.stats),
		Failures: collector.failures,
		HostOps:  opCounts,
	}
	for _, st := range collector.stats {
		pass = append(pass, st.Duration)
		commit = append(commit, st.Commit)
		work.Fibers += st.Fibers
		work.Yields += st.Yields
		work.Inserts += st.Inserts
		work.Updates += st.Updates
		work.Deletions += st.Deletions
	}
	if work.Passes > 0 {
		work.FibersPerPass = float64(work.Fibers) / float64(work.Passes)
	}

	return benchReport{
		Version: benchVersion,
		Run: runInfo{
			ID:        ulid.Make().String(),
			Timestamp: time.Now().UTC().Format(time.RFC3339),
			Go:        runtime.Version(),
			OS:        runtime.GOOS,
			Arch:      runtime.GOARCH,
			CPUCount:  runtime.NumCPU(),
			GitCommit: gitCommit(),
		},
		Workload: workloadInfo{
			Profile: cfg.Name,
			Items:   cfg.Items,
			Rounds:  cfg.Rounds,
			Budget:  cfg.Budget,
			Seed:    cfg.Seed,
		},
		PassMS:   latencies(pass),
		CommitMS: latencies(commit),
		Work:     work,
		GC: gcInfo{
			AllocMB:       float64(after.TotalAlloc-before.TotalAlloc) / (1 << 20),
			NumGC:         after.NumGC - before.NumGC,
			PauseTotalMS:  ms(time.Duration(after.PauseTotalNs - before.PauseTotalNs)),
			AllocsObjects: after.Mallocs - before.Mallocs,
		},
		ElapsedMS: ms(elapsed),
	}
}

func writeSummary(w io.Writer, report benchReport) {
	fmt.Fprintln(w, "=== ley reconciliation benchmark ===")
	fmt.Fprintf(w, "Run: %s\n", report.Run.ID)
	fmt.Fprintf(w, "Profile: %s\n", report.Workload.Profile)
	fmt.Fprintf(w, "Items: %d\n", report.Workload.Items)
	fmt.Fprintf(w, "Rounds: %d\n", report.Workload.Rounds)
	if report.Workload.Budget > 0 {
		fmt.Fprintf(w, "Budget: %d units per slot\n", report.Workload.Budget)
	} else {
		fmt.Fprintln(w, "Budget: unlimited")
	}
	fmt.Fprintf(w, "Elapsed: %.1f ms\n", report.ElapsedMS)
	fmt.Fprintln(w)

	fmt.Fprintf(w, "Passes: %d (%d failed)\n", report.Work.Passes, report.Work.Failures)
	fmt.Fprintf(w, "Fibers/pass: %.1f\n", report.Work.FibersPerPass)
	fmt.Fprintf(w, "Yields: %d\n", report.Work.Yields)
	fmt.Fprintf(w, "Inserts: %d  Updates: %d  Deletions: %d\n", report.Work.Inserts, report.Work.Updates, report.Work.Deletions)
	fmt.Fprintln(w)

	if report.PassMS.Max == 0 {
		fmt.Fprintln(w, "No passes recorded.")
	} else {
		writeLatency(w, "Pass (start -> end of commit):", report.PassMS)
		writeLatency(w, "Commit:", report.CommitMS)
	}

	fmt.Fprintln(w, "Host ops:")
	kinds := make([]string, 0, len(report.Work.HostOps))
	for k := range report.Work.HostOps {
		kinds = append(kinds, k)
	}
	slices.Sort(kinds)
	for _, k := range kinds {
		fmt.Fprintf(w, "  %-14s %d\n", k, report.Work.HostOps[k])
	}
	fmt.Fprintln(w)

	fmt.Fprintln(w, "Go runtime / GC:")
	fmt.Fprintf(w, "  alloc:   %.2f MB\n", report.GC.AllocMB)
	fmt.Fprintf(w, "  objects: %d\n", report.GC.AllocsObjects)
	fmt.Fprintf(w, "  gc runs: %d (%.2f ms paused)\n", report.GC.NumGC, report.GC.PauseTotalMS)
}

func writeLatency(w io.Writer, title string, l latencyInfo) {
	fmt.Fprintln(w, title)
	fmt.Fprintf(w, "  min: %.3f ms\n", l.Min)
	fmt.Fprintf(w, "  p50: %.3f ms\n", l.P50)
	fmt.Fprintf(w, "  p95: %.3f ms\n", l.P95)
	fmt.Fprintf(w, "  p99: %.3f ms\n", l.P99)
	fmt.Fprintf(w, "  max: %.3f ms\n", l.Max)
	fmt.Fprintln(w)
}

func writeJSON(path string, report benchReport) error {
	var out io.Writer
	if path == "-" {
		out = os.Stdout
	} else {
		file, err := os.Create(path)
		if err != nil {
			return err
		}
		defer file.Close()
		out = file
	}

	enc := json.NewEncoder(out)
	enc.SetIndent("", "  ")
	return enc.Encode(report)
}

func gitCommit() string {
	if val := strings.TrimSpace(os.Getenv("LEY_GIT_COMMIT")); val != "" {
		return val
	}
	if val := strings.TrimSpace(os.Getenv("GIT_COMMIT")); val != "" {
		return val
	}
	out, err := exec.Command("git", "rev-parse", "HEAD").Output()
	if err != nil {
		return ""
	}
	return strings.TrimSpace(string(out))
}
