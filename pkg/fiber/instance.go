package fiber

import (
	"github.com/vango-dev/ley/pkg/store"
)

type hookKind uint8

const (
	hookState hookKind = iota + 1
	hookMemo
	hookRef
	hookEffect
	hookLayoutEffect
	hookStore
)

func (k hookKind) String() string {
	switch k {
	case hookState:
		return "UseState"
	case hookMemo:
		return "UseMemo"
	case hookRef:
		return "UseRef"
	case hookEffect:
		return "UseEffect"
	case hookLayoutEffect:
		return "UseLayoutEffect"
	case hookStore:
		return "UseStore"
	default:
		return "unknown"
	}
}

// cell is one call-order slot of an instance's hook store.
type cell struct {
	kind   hookKind
	value  any
	setter any
	deps   []any
	effect *effect
	store  store.Subscribable
}

type effect struct {
	layout bool

	fn      func() func()
	cleanup func()
	deps    []any // deps of the last committed run
	ran     bool

	// Set by the latest render, consumed at commit.
	pending bool
	nextFn  func() func()
	next    []any
}

// Instance is the stable identity of a mounted component (or root). Every
// clone of the same logical component shares one Instance, so setters and
// store subscriptions keep working while fibers are replaced wholesale on
// each render.
//
// Instance implements store.Watcher.
type Instance struct {
	s *Scheduler

	// fiber is the committed incarnation, nil until first commit and after unmount.
	fiber *Fiber

	// wip is the latest work-in-progress incarnation rendered in pass;
	// mark is the length of the pass's deletion list when it was rendered.
	wip  *Fiber
	pass uint64
	mark int

	cells    []*cell
	cursor   int
	rendered bool

	stores []store.Subscribable // subscribed at the last commit
	used   []store.Subscribable // used by the latest render

	unmounted bool
}

func newInstance() *Instance {
	return &Instance{}
}

// Fiber returns the committed incarnation, or nil.
func (i *Instance) Fiber() *Fiber {
	return i.fiber
}

// Mounted reports whether the instance is part of the committed tree.
func (i *Instance) Mounted() bool {
	return i.fiber != nil && !i.unmounted
}

// Update requests a re-render of the instance's subtree.
func (i *Instance) Update() {
	if i.s != nil {
		i.s.RequestUpdate(i)
	}
}

// Notify implements store.Watcher.
func (i *Instance) Notify() {
	i.Update()
}

func (i *Instance) use(st store.Subscribable) {
	for _, u := range i.used {
		if u == st {
			return
		}
	}
	i.used = append(i.used, st)
}

// syncStores reconciles the committed subscriptions with the stores used
// by the latest render.
func (i *Instance) syncStores() {
	for _, st := range i.stores {
		if !containsStore(i.used, st) {
			st.Unwatch(i)
		}
	}
	for _, st := range i.used {
		st.Watch(i)
	}
	i.stores = append(i.stores[:0], i.used...)
}

func (i *Instance) unwatchAll() {
	for _, st := range i.stores {
		st.Unwatch(i)
	}
	i.stores = nil
	i.used = nil
}

func containsStore(list []store.Subscribable, st store.Subscribable) bool {
	for _, s := range list {
		if s == st {
			return true
		}
	}
	return false
}

// Hooks returns the hook names of the instance in call order.
func (i *Instance) Hooks() []string {
	out := make([]string, len(i.cells))
	for n, c := range i.cells {
		out[n] = c.kind.String()
	}
	return out
}
