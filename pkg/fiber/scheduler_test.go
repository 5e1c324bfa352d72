package fiber_test

import (
	"fmt"
	"testing"

	"github.com/google/go-cmp/cmp"

	"github.com/vango-dev/ley/internal/errors"
	"github.com/vango-dev/ley/pkg/element"
	"github.com/vango-dev/ley/pkg/fiber"
	"github.com/vango-dev/ley/pkg/host"
)

// branches is App -> [Left, Right], each with a setter and a render count.
type branches struct {
	app, left, right  *element.Component
	setApp            *fiber.Setter[int]
	setLeft, setRight *fiber.Setter[int]
	renders           map[string]int
}

func newBranches() *branches {
	b := &branches{renders: make(map[string]int)}
	leaf := func(name string, set **fiber.Setter[int]) *element.Component {
		return &element.Component{Name: name, Render: func(s element.Scope, p element.Props) any {
			b.renders[name]++
			v, st := fiber.UseState(s, 0)
			*set = st
			return element.H("span", element.Prop("class", name), name, v)
		}}
	}
	b.left = leaf("Left", &b.setLeft)
	b.right = leaf("Right", &b.setRight)
	b.app = &element.Component{Name: "App", Render: func(s element.Scope, p element.Props) any {
		b.renders["App"]++
		v, st := fiber.UseState(s, 0)
		b.setApp = st
		return []any{element.C(b.left, nil), element.C(b.right, nil), element.Textf("app%d", v)}
	}}
	return b
}

func TestRenderIsSynchronousWithIdle(t *testing.T) {
	hs := newHarness(1)
	b := newBranches()

	if _, err := hs.s.Render(element.C(b.app, nil), hs.root); err != nil {
		t.Fatalf("Render: %v", err)
	}
	if got := hs.h.InnerHTML(hs.root); got != `<span class="Left">Left0</span><span class="Right">Right0</span>app0` {
		t.Errorf("InnerHTML = %q", got)
	}
	if hs.idle.Pending() != 0 {
		t.Errorf("pending idle callbacks = %d, want 0", hs.idle.Pending())
	}
	if diff := cmp.Diff([]bool{true}, hs.obs.syncs); diff != "" {
		t.Errorf("PassStarted sync mismatch (-want +got):\n%s", diff)
	}

	b.setLeft.Set(1)
	if diff := cmp.Diff([]bool{true, false}, hs.obs.syncs); diff != "" {
		t.Errorf("PassStarted sync after update mismatch (-want +got):\n%s", diff)
	}
}

func TestYieldingPassTouchesHostOnlyAtCommit(t *testing.T) {
	hs := newHarness(1)
	b := newBranches()
	_, _ = hs.s.Render(element.C(b.app, nil), hs.root)
	hs.h.Reset()

	b.setApp.Set(1)
	if !hs.s.Busy() || hs.idle.Pending() != 1 {
		t.Fatalf("update did not schedule an idle callback")
	}

	slices := 0
	for hs.idle.Pending() > 0 {
		if len(host.Mutations(hs.h.Ops())) != 0 {
			t.Fatalf("host mutated before commit after %d slices", slices)
		}
		hs.idle.RunNext()
		slices++
	}
	if slices < 2 || hs.obs.yields == 0 {
		t.Errorf("slices = %d, yields = %d; want a yielding pass", slices, hs.obs.yields)
	}
	if got := hs.root.TextContent(); got != "Left0Right0app1" {
		t.Errorf("TextContent = %q", got)
	}
	if len(hs.obs.commits) != 2 || hs.obs.commits[1].Yields != hs.obs.yields {
		t.Errorf("commits = %+v", hs.obs.commits)
	}
}

func TestRedirect(t *testing.T) {
	tests := []struct {
		name      string
		first     func(b *branches)
		second    func(b *branches)
		redirects []string
		queued    int
		commits   []string
		renders   map[string]int
	}{
		{
			name:      "ancestor restarts at the ancestor",
			first:     func(b *branches) { b.setLeft.Set(1) },
			second:    func(b *branches) { b.setApp.Set(1) },
			redirects: []string{fiber.RedirectAncestor},
			commits:   []string{"#root", "App"},
			renders:   map[string]int{"App": 2, "Left": 3, "Right": 2},
		},
		{
			name:      "descendant restarts at the pass root",
			first:     func(b *branches) { b.setApp.Set(1) },
			second:    func(b *branches) { b.setLeft.Set(1) },
			redirects: []string{fiber.RedirectDescendant},
			commits:   []string{"#root", "App"},
			renders:   map[string]int{"App": 3, "Left": 2, "Right": 2},
		},
		{
			name:      "same target restarts",
			first:     func(b *branches) { b.setLeft.Set(1) },
			second:    func(b *branches) { b.setLeft.Set(2) },
			redirects: []string{fiber.RedirectAncestor},
			commits:   []string{"#root", "Left"},
			renders:   map[string]int{"App": 1, "Left": 3, "Right": 1},
		},
		{
			name:    "unrelated branch is queued",
			first:   func(b *branches) { b.setLeft.Set(1) },
			second:  func(b *branches) { b.setRight.Set(1) },
			queued:  1,
			commits: []string{"#root", "Left", "Right"},
			renders: map[string]int{"App": 1, "Left": 2, "Right": 2},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			hs := newHarness(1)
			b := newBranches()
			if _, err := hs.s.Render(element.C(b.app, nil), hs.root); err != nil {
				t.Fatalf("Render: %v", err)
			}

			tt.first(b)
			hs.idle.RunNext() // render the pass root, then yield
			tt.second(b)
			hs.idle.Flush()

			if diff := cmp.Diff(tt.redirects, hs.obs.redirects); diff != "" {
				t.Errorf("redirects mismatch (-want +got):\n%s", diff)
			}
			if hs.obs.queued != tt.queued {
				t.Errorf("queued = %d, want %d", hs.obs.queued, tt.queued)
			}
			if diff := cmp.Diff(tt.commits, hs.obs.committedRoots()); diff != "" {
				t.Errorf("commits mismatch (-want +got):\n%s", diff)
			}
			if diff := cmp.Diff(tt.renders, b.renders); diff != "" {
				t.Errorf("renders mismatch (-want +got):\n%s", diff)
			}
			if hs.s.Busy() {
				t.Error("scheduler still busy")
			}
		})
	}
}

func TestUpdatesDuringCommitAreQueued(t *testing.T) {
	hs := newHarness(-1)
	var set *fiber.Setter[int]
	comp := &element.Component{Name: "Sync", Render: func(s element.Scope, p element.Props) any {
		v, st := fiber.UseState(s, 0)
		set = st
		fiber.UseLayoutEffect(s, func() func() {
			if v < 3 {
				st.Set(v + 1)
			}
			return nil
		}, []any{v})
		return v
	}}

	if _, err := hs.s.Render(element.C(comp, nil), hs.root); err != nil {
		t.Fatalf("Render: %v", err)
	}
	if got := hs.root.TextContent(); got != "3" {
		t.Errorf("TextContent = %q, want 3", got)
	}
	if hs.obs.queued != 3 || len(hs.obs.commits) != 4 {
		t.Errorf("queued = %d commits = %d", hs.obs.queued, len(hs.obs.commits))
	}
	_ = set
}

func TestSetStateDuringFirstRenderRerendersInPlace(t *testing.T) {
	hs := newHarness(-1)
	comp := &element.Component{Name: "Init", Render: func(s element.Scope, p element.Props) any {
		v, set := fiber.UseState(s, 0)
		if v == 0 {
			set.Set(7)
		}
		return v
	}}

	if _, err := hs.s.Render(element.H("div", element.C(comp, nil)), hs.root); err != nil {
		t.Fatalf("Render: %v", err)
	}
	if got := hs.root.TextContent(); got != "7" {
		t.Errorf("TextContent = %q, want 7", got)
	}
	if diff := cmp.Diff([]string{fiber.RedirectRerender}, hs.obs.redirects); diff != "" {
		t.Errorf("redirects mismatch (-want +got):\n%s", diff)
	}
}

func TestSetStateOfEarlierSiblingDuringFirstRender(t *testing.T) {
	hs := newHarness(-1)
	var setA *fiber.Setter[int]
	a := &element.Component{Name: "A", Render: func(s element.Scope, p element.Props) any {
		v, set := fiber.UseState(s, 0)
		setA = set
		return v
	}}
	fired := false
	b := &element.Component{Name: "B", Render: func(s element.Scope, p element.Props) any {
		if !fired {
			fired = true
			setA.Set(5)
		}
		return "b"
	}}

	r, err := hs.s.Render(element.H("p", element.Key("p"), element.H("span", "old")), hs.root)
	if err != nil {
		t.Fatalf("Render: %v", err)
	}
	span := hs.root.Find("span")

	err = r.Update([]any{
		element.C(a, nil),
		element.H("p", element.Key("p"), element.H("em", "new")),
		element.C(b, nil),
	})
	if err != nil {
		t.Fatalf("Update: %v", err)
	}
	if got := hs.h.InnerHTML(hs.root); got != "5<p><em>new</em></p>b" {
		t.Errorf("InnerHTML = %q", got)
	}
	if span.Parent != nil {
		t.Error("dropped span is still attached")
	}
	if len(hs.obs.failures) != 0 {
		t.Errorf("failures = %v", hs.obs.failures)
	}
	if diff := cmp.Diff([]string{fiber.RedirectRerender}, hs.obs.redirects); diff != "" {
		t.Errorf("redirects mismatch (-want +got):\n%s", diff)
	}
	if n := len(hs.obs.commits); n != 2 || hs.obs.commits[1].Deletions != 1 {
		t.Errorf("commits = %+v, want a second commit with 1 deletion", hs.obs.commits)
	}
}

func TestSyncComponentSkipsYielding(t *testing.T) {
	hs := newHarness(1)
	var set *fiber.Setter[string]
	input := &element.Component{Name: "Input", Sync: true, Render: func(s element.Scope, p element.Props) any {
		v, st := fiber.UseState(s, "")
		set = st
		return element.H("input", element.Prop("value", v))
	}}

	_, _ = hs.s.Render(element.C(input, nil), hs.root)
	set.Set("abc")

	if hs.idle.Pending() != 0 || hs.s.Busy() {
		t.Fatalf("sync update was deferred to an idle slot")
	}
	if v, _ := hs.root.Find("input").Attr("value"); v != "abc" {
		t.Errorf("value = %q", v)
	}
}

func TestRenderErrorDiscardsWorkInProgress(t *testing.T) {
	var handled []error
	hs := newHarness(-1, fiber.WithErrorHandler(func(err error) { handled = append(handled, err) }))
	boom := &element.Component{Name: "Boom", Render: func(s element.Scope, p element.Props) any {
		if p["fail"] == true {
			panic("kaboom")
		}
		return element.H("b", "ok")
	}}
	tree := func(fail bool) *element.Element {
		return element.H("div", element.H("span", "before"), element.C(boom, element.Props{"fail": fail}))
	}

	r, err := hs.s.Render(tree(false), hs.root)
	if err != nil {
		t.Fatalf("Render: %v", err)
	}
	before := hs.h.InnerHTML(hs.root)
	hs.h.Reset()

	err = r.Update(tree(true))
	if !errors.HasCode(err, "E101") {
		t.Fatalf("err = %v, want E101", err)
	}
	if le := errors.FromError(err, ""); le.Component != "Boom" {
		t.Errorf("Component = %q, want Boom", le.Component)
	}
	if muts := host.Mutations(hs.h.Ops()); len(muts) != 0 {
		t.Errorf("host mutated by failed pass: %v", muts)
	}
	if got := hs.h.InnerHTML(hs.root); got != before {
		t.Errorf("InnerHTML = %q, want %q", got, before)
	}
	if len(hs.obs.failures) != 1 || len(handled) != 1 || hs.s.Busy() {
		t.Errorf("failures = %d handled = %d busy = %v", len(hs.obs.failures), len(handled), hs.s.Busy())
	}

	if err := r.Update(tree(false)); err != nil {
		t.Fatalf("recovery Update: %v", err)
	}
}

func TestRenderWhileRenderingRestartsInterruptedPass(t *testing.T) {
	hs := newHarness(1)
	b := newBranches()
	_, _ = hs.s.Render(element.C(b.app, nil), hs.root)

	b.setLeft.Set(5)
	hs.idle.RunNext()

	other := hs.h.NewContainer("aside")
	if _, err := hs.s.Render("second", other); err != nil {
		t.Fatalf("Render: %v", err)
	}
	hs.idle.Flush()

	if got := other.TextContent(); got != "second" {
		t.Errorf("second root = %q", got)
	}
	if got := hs.root.TextContent(); got != "Left5Right0app0" {
		t.Errorf("first root = %q", got)
	}
}

func TestRenderRejectsNilContainer(t *testing.T) {
	hs := newHarness(-1)
	if _, err := hs.s.Render("x", nil); !errors.HasCode(err, "E104") {
		t.Errorf("err = %v, want E104", err)
	}
}

func TestUnmountRoot(t *testing.T) {
	hs := newHarness(-1)
	cleaned := 0
	comp := &element.Component{Name: "C", Render: func(s element.Scope, p element.Props) any {
		fiber.UseEffect(s, func() func() { return func() { cleaned++ } }, nil)
		return element.H("p", "x")
	}}

	r, _ := hs.s.Render([]any{element.C(comp, nil), element.C(comp, nil)}, hs.root)
	if err := r.Unmount(); err != nil {
		t.Fatalf("Unmount: %v", err)
	}
	if cleaned != 2 {
		t.Errorf("cleanups = %d, want 2", cleaned)
	}
	if len(hs.root.Children) != 0 {
		t.Errorf("container not emptied: %v", hs.root.Children)
	}
	if r.Fiber() != nil {
		t.Error("Fiber() not nil after unmount")
	}
	if err := r.Unmount(); !errors.HasCode(err, "E105") {
		t.Errorf("second Unmount err = %v, want E105", err)
	}
	if err := r.Update("y"); !errors.HasCode(err, "E105") {
		t.Errorf("Update err = %v, want E105", err)
	}
}

func TestStepBudgetAndManualIdle(t *testing.T) {
	d := fiber.StepBudget(2)
	got := []bool{d.TimeRemaining() > 0, d.TimeRemaining() > 0, d.TimeRemaining() > 0}
	if diff := cmp.Diff([]bool{true, true, false}, got); diff != "" {
		t.Errorf("budget mismatch (-want +got):\n%s", diff)
	}

	m := fiber.NewManualIdle(0)
	ran := 0
	h1 := m.RequestIdle(func(fiber.Deadline) { ran++ })
	m.RequestIdle(func(d fiber.Deadline) {
		if d.TimeRemaining() <= 0 {
			t.Error("unbudgeted slot has no time")
		}
		ran += 10
	})
	m.CancelIdle(h1)
	if m.Pending() != 1 {
		t.Fatalf("Pending = %d, want 1", m.Pending())
	}
	if n := m.Flush(); n != 1 || ran != 10 {
		t.Errorf("Flush = %d ran = %d", n, ran)
	}
	if m.RunNext() {
		t.Error("RunNext on empty queue returned true")
	}
}

// failingHost refuses the selected operations.
type failingHost struct {
	*host.Memory
	failUpdate, failInsert, failRemove bool
}

func (h *failingHost) UpdateNode(f *fiber.Fiber) error {
	if h.failUpdate {
		return fmt.Errorf("update refused")
	}
	return h.Memory.UpdateNode(f)
}

func (h *failingHost) InsertNode(parent, node, before fiber.Node) error {
	if h.failInsert {
		return fmt.Errorf("insert refused")
	}
	return h.Memory.InsertNode(parent, node, before)
}

func (h *failingHost) RemoveNode(node fiber.Node) error {
	if h.failRemove {
		return fmt.Errorf("remove refused")
	}
	return h.Memory.RemoveNode(node)
}

func TestHostFailureDuringCommit(t *testing.T) {
	list := func(keys ...string) *element.Element {
		return element.H("ul", element.Map(keys, func(_ int, k string) *element.Element {
			return element.H("li", element.Key(k), k)
		}))
	}
	tests := []struct {
		name          string
		before, after *element.Element
		fail          func(h *failingHost)
	}{
		{
			name:   "update",
			before: element.H("p", element.Prop("class", "a"), "x"),
			after:  element.H("p", element.Prop("class", "b"), "x"),
			fail:   func(h *failingHost) { h.failUpdate = true },
		},
		{
			name:   "insert",
			before: list("a"),
			after:  list("a", "b"),
			fail:   func(h *failingHost) { h.failInsert = true },
		},
		{
			name:   "remove",
			before: list("a", "b"),
			after:  list("a"),
			fail:   func(h *failingHost) { h.failRemove = true },
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			fh := &failingHost{Memory: host.NewMemory()}
			container := fh.NewContainer("main")
			obs := &recorder{}
			var handled []error
			s := fiber.New(fh,
				fiber.WithLogger(quietLogger()),
				fiber.WithObserver(obs),
				fiber.WithErrorHandler(func(err error) { handled = append(handled, err) }),
			)

			r, err := s.Render(tt.before, container)
			if err != nil {
				t.Fatalf("Render: %v", err)
			}
			tt.fail(fh)

			err = r.Update(tt.after)
			if !errors.HasCode(err, "E103") {
				t.Fatalf("err = %v, want E103", err)
			}
			if len(obs.failures) != 1 || len(handled) != 1 {
				t.Errorf("failures = %d handled = %d, want 1, 1", len(obs.failures), len(handled))
			}
			if s.Busy() {
				t.Error("scheduler still busy after a failed commit")
			}
			if len(obs.started) != 2 || len(obs.commits) != 1 {
				t.Errorf("passes started = %d commits = %d, want 2, 1 (no retry)", len(obs.started), len(obs.commits))
			}
		})
	}
}
