package fiber_test

import (
	"io"
	"log/slog"

	"github.com/vango-dev/ley/pkg/fiber"
	"github.com/vango-dev/ley/pkg/host"
)

// recorder is an Observer that keeps every event.
type recorder struct {
	started   []string
	syncs     []bool
	redirects []string
	queued    int
	yields    int
	commits   []fiber.PassStats
	failures  []error
	layout    int
	passive   int
}

func (r *recorder) PassStarted(root *fiber.Fiber, sync bool) {
	r.started = append(r.started, root.Name())
	r.syncs = append(r.syncs, sync)
}
func (r *recorder) Yielded()                 { r.yields++ }
func (r *recorder) Redirected(reason string) { r.redirects = append(r.redirects, reason) }
func (r *recorder) Queued()                  { r.queued++ }
func (r *recorder) Committed(st fiber.PassStats) {
	r.commits = append(r.commits, st)
}
func (r *recorder) Failed(err error) { r.failures = append(r.failures, err) }
func (r *recorder) EffectRan(layout bool) {
	if layout {
		r.layout++
	} else {
		r.passive++
	}
}

func (r *recorder) committedRoots() []string {
	out := make([]string, len(r.commits))
	for i, c := range r.commits {
		out[i] = c.Root
	}
	return out
}

func quietLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

type harness struct {
	h    *host.Memory
	root *host.Node
	s    *fiber.Scheduler
	obs  *recorder
	idle *fiber.ManualIdle
}

// newHarness builds a scheduler over a memory host. budget < 0 means no
// idle scheduler (every pass synchronous).
func newHarness(budget int, opts ...fiber.Option) *harness {
	h := host.NewMemory()
	hs := &harness{
		h:    h,
		root: h.NewContainer("main"),
		obs:  &recorder{},
	}
	all := []fiber.Option{fiber.WithLogger(quietLogger()), fiber.WithObserver(hs.obs)}
	if budget >= 0 {
		hs.idle = fiber.NewManualIdle(budget)
		all = append(all, fiber.WithIdle(hs.idle))
	}
	hs.s = fiber.New(h, append(all, opts...)...)
	return hs
}

func texts(nodes []*host.Node) []string {
	out := make([]string, len(nodes))
	for i, n := range nodes {
		out[i] = n.TextContent()
	}
	return out
}
