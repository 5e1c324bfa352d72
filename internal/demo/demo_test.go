package demo

import (
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"

	"github.com/vango-dev/ley/internal/errors"
	"github.com/vango-dev/ley/pkg/element"
	"github.com/vango-dev/ley/pkg/fiber"
	"github.com/vango-dev/ley/pkg/host"
)

type env struct {
	h    *host.Memory
	root *host.Node
	s    *fiber.Scheduler
}

func mount(t *testing.T, el *element.Element) *env {
	t.Helper()
	h := host.NewMemory()
	e := &env{h: h, root: h.NewContainer("main")}
	e.s = fiber.New(h, fiber.WithLogger(quietLogger()))
	if _, err := e.s.Render(el, e.root); err != nil {
		t.Fatalf("Render: %v", err)
	}
	return e
}

func quietLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

// byClass returns the first element with tag and class.
func (e *env) byClass(tag, class string) *host.Node {
	for _, n := range e.root.FindAll(tag) {
		if c, _ := n.Attr("class"); c == class {
			return n
		}
	}
	return nil
}

func (e *env) click(t *testing.T, n *host.Node) {
	t.Helper()
	if n == nil || !e.h.Dispatch(n, "click", nil) {
		t.Fatalf("click on %v not handled", n)
	}
}

func TestLookup(t *testing.T) {
	if diff := cmp.Diff([]string{"clock", "counter", "list"}, Names()); diff != "" {
		t.Errorf("Names mismatch (-want +got):\n%s", diff)
	}
	for _, name := range Names() {
		d, err := Lookup(name)
		if err != nil || d.Name != name || d.New == nil {
			t.Errorf("Lookup(%q) = %+v, %v", name, d, err)
		}
	}
	if _, err := Lookup("tetris"); !errors.HasCode(err, "E140") {
		t.Errorf("Lookup(tetris) = %v, want E140", err)
	}
}

func TestEveryDemoRenders(t *testing.T) {
	for _, name := range Names() {
		t.Run(name, func(t *testing.T) {
			d, _ := Lookup(name)
			e := mount(t, d.New(Env{Logger: quietLogger()}))
			if len(e.root.Children) == 0 {
				t.Error("nothing rendered")
			}
		})
	}
}

func TestCounter(t *testing.T) {
	e := mount(t, element.C(Counter, element.Props{"start": 5}))
	value := e.byClass("span", "value")

	e.click(t, e.byClass("button", "inc"))
	e.click(t, e.byClass("button", "inc"))
	e.click(t, e.byClass("button", "dec"))

	if got := value.TextContent(); got != "6" {
		t.Errorf("value = %q, want 6", got)
	}
	if e.byClass("span", "value") != value {
		t.Error("value node was replaced")
	}
}

func rowTexts(e *env) []string {
	var out []string
	for _, li := range e.root.FindAll("li") {
		out = append(out, li.Find("span").TextContent())
	}
	return out
}

func TestTodoListReorderKeepsNodes(t *testing.T) {
	todos := NewTodos("a", "b", "c")
	e := mount(t, element.C(TodoList, element.Props{"todos": todos}))
	before := e.root.FindAll("li")

	e.h.Reset()
	e.click(t, e.byClass("button", "rotate"))

	if diff := cmp.Diff([]string{"c", "a", "b"}, rowTexts(e)); diff != "" {
		t.Errorf("rows mismatch (-want +got):\n%s", diff)
	}
	after := e.root.FindAll("li")
	if after[0] != before[2] || after[1] != before[0] {
		t.Error("rows were recreated instead of moved")
	}
	if n := host.Count(e.h.Ops(), host.OpCreate); n != 0 {
		t.Errorf("creates = %d, want 0", n)
	}

	e.click(t, e.byClass("button", "reverse"))
	if diff := cmp.Diff([]string{"b", "a", "c"}, rowTexts(e)); diff != "" {
		t.Errorf("rows mismatch (-want +got):\n%s", diff)
	}
}

func TestTodoListAddToggleRemove(t *testing.T) {
	todos := NewTodos("a")
	e := mount(t, element.C(TodoList, element.Props{"todos": todos}))

	input := e.root.Find("input")
	e.h.Dispatch(input, "input", "  b  ")
	e.click(t, e.byClass("button", "add"))
	if diff := cmp.Diff([]string{"a", "b"}, rowTexts(e)); diff != "" {
		t.Errorf("rows mismatch (-want +got):\n%s", diff)
	}
	if v, _ := input.Attr("value"); v != "" {
		t.Errorf("draft not cleared: %q", v)
	}

	// Blank drafts add nothing.
	e.click(t, e.byClass("button", "add"))
	if len(todos.Items()) != 2 {
		t.Errorf("items = %v", todos.Items())
	}

	e.click(t, e.byClass("li", "todo").Find("button"))
	if e.byClass("li", "todo done") == nil {
		t.Error("toggle did not mark the row done")
	}
	if got := e.byClass("p", "left").TextContent(); got != "1 left" {
		t.Errorf("left = %q", got)
	}

	e.click(t, e.byClass("li", "todo done").FindAll("button")[1])
	if diff := cmp.Diff([]string{"b"}, rowTexts(e)); diff != "" {
		t.Errorf("rows mismatch (-want +got):\n%s", diff)
	}
}

func TestTodosIgnoresNoops(t *testing.T) {
	todos := NewTodos("only")
	w := &countingWatcher{}
	todos.Store().Watch(w)

	todos.Remove(99)
	todos.Toggle(99)
	todos.Rotate()
	todos.Reverse()
	todos.Add("   ")
	if w.n != 0 {
		t.Errorf("notified = %d, want 0", w.n)
	}
	todos.Add("more")
	if w.n != 1 {
		t.Errorf("notified = %d after Add, want 1", w.n)
	}
}

type countingWatcher struct{ n int }

func (w *countingWatcher) Notify() { w.n++ }

// fakeTimers collects scheduled callbacks so tests can fire them.
type fakeTimers struct {
	pending []func()
	active  int
}

func (f *fakeTimers) After(d time.Duration, fn func()) func() bool {
	f.pending = append(f.pending, fn)
	f.active++
	stopped := false
	return func() bool {
		if stopped {
			return false
		}
		stopped = true
		f.active--
		return true
	}
}

func (f *fakeTimers) fire() {
	next := f.pending[0]
	f.pending = f.pending[1:]
	f.active--
	next()
}

func TestClockTicksWhileMounted(t *testing.T) {
	now := time.Date(2026, 1, 2, 10, 0, 9, 0, time.UTC)
	clock := NewClock(func() time.Time { return now })
	timers := &fakeTimers{}

	renders := 0
	child := &element.Component{Name: "Child", Render: func(s element.Scope, p element.Props) any {
		renders++
		return element.C(ClockFace, element.Props{"clock": clock, "after": afterFunc(timers.After)})
	}}
	e := mount(t, element.C(child, nil))

	if got := e.root.Find("time").TextContent(); got != "10:00:09" {
		t.Errorf("time = %q", got)
	}
	if len(timers.pending) != 1 {
		t.Fatalf("pending timers = %d, want 1", len(timers.pending))
	}

	now = now.Add(time.Second)
	timers.fire()
	if got := e.root.Find("time").TextContent(); got != "10:00:10" {
		t.Errorf("time = %q", got)
	}
	if got := e.byClass("div", "seconds").TextContent(); got != "##" {
		t.Errorf("seconds = %q", got)
	}
	if renders != 1 {
		t.Errorf("child renders = %d; clock ticks must not re-render the parent", renders)
	}

	// Same second: no notification, no render.
	e.h.Reset()
	timers.fire()
	if n := len(host.Mutations(e.h.Ops())); n != 0 {
		t.Errorf("mutations = %d, want 0", n)
	}
	if timers.active != 1 {
		t.Errorf("active timers = %d, want 1", timers.active)
	}
}
