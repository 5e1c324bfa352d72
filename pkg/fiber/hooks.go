package fiber

import (
	"fmt"

	"github.com/vango-dev/ley/internal/errors"
	"github.com/vango-dev/ley/pkg/element"
	"github.com/vango-dev/ley/pkg/store"
)

// Ctx is the Scope handed to a component function for one render.
type Ctx struct {
	s    *Scheduler
	f    *Fiber
	inst *Instance
	done bool
}

// Name implements element.Scope.
func (c *Ctx) Name() string {
	return c.f.Name()
}

// Fiber returns the work-in-progress fiber being rendered.
func (c *Ctx) Fiber() *Fiber {
	return c.f
}

// Instance returns the component instance being rendered.
func (c *Ctx) Instance() *Instance {
	return c.inst
}

func scope(s element.Scope, code string) *Ctx {
	c, ok := s.(*Ctx)
	if !ok || c == nil || c.done {
		panic(errors.New(code))
	}
	return c
}

// use claims the next hook cell. fresh is true on the instance's first visit
// to this slot.
func use(s element.Scope, kind hookKind, code string) (c *Ctx, cl *cell, fresh bool) {
	c = scope(s, code)
	inst := c.inst
	i := inst.cursor
	inst.cursor++

	if i < len(inst.cells) {
		cl = inst.cells[i]
		if c.s.debugHooks && cl.kind != kind {
			panic(errors.New("E002").
				WithComponent(c.Name()).
				WithDetail(fmt.Sprintf("Hook %d was %s on the first render and is %s now.", i, cl.kind, kind)))
		}
		return c, cl, false
	}
	if c.s.debugHooks && inst.rendered {
		panic(errors.New("E002").
			WithComponent(c.Name()).
			WithDetail(fmt.Sprintf("Hook %d (%s) was not called on the first render.", i, kind)))
	}
	cl = &cell{kind: kind}
	inst.cells = append(inst.cells, cl)
	return c, cl, true
}

// Setter writes a state cell and schedules a re-render of its component.
// It stays valid for the lifetime of the component instance and becomes a
// no-op once the instance is unmounted.
type Setter[T any] struct {
	inst *Instance
	c    *cell
}

// Get returns the latest value of the cell, including writes not yet rendered.
func (st *Setter[T]) Get() T {
	v, _ := st.c.value.(T)
	return v
}

// Set replaces the value. Every call requests an update, even if v equals
// the current value.
func (st *Setter[T]) Set(v T) {
	if st.inst.unmounted {
		return
	}
	st.c.value = v
	st.inst.Update()
}

// Update replaces the value with fn applied to the latest value.
func (st *Setter[T]) Update(fn func(T) T) {
	if st.inst.unmounted {
		return
	}
	st.c.value = fn(st.Get())
	st.inst.Update()
}

// UseState returns the cell's current value and its setter.
func UseState[T any](s element.Scope, initial T) (T, *Setter[T]) {
	c, cl, fresh := use(s, hookState, "E001")
	if fresh {
		cl.value = initial
		cl.setter = &Setter[T]{inst: c.inst, c: cl}
	}
	st := cl.setter.(*Setter[T])
	return st.Get(), st
}

// UseMemo returns the memoized result of compute, recomputing it when deps
// change. nil deps recompute on every render.
func UseMemo[T any](s element.Scope, compute func() T, deps []any) T {
	_, cl, fresh := use(s, hookMemo, "E001")
	if fresh || !depsEqual(cl.deps, deps) {
		cl.value = compute()
		cl.deps = copyDeps(deps)
	}
	v, _ := cl.value.(T)
	return v
}

// UseRef returns a Ref that persists for the lifetime of the instance.
func UseRef(s element.Scope, initial any) *element.Ref {
	_, cl, fresh := use(s, hookRef, "E001")
	if fresh {
		cl.value = &element.Ref{Current: initial}
	}
	return cl.value.(*element.Ref)
}

// UseEffect registers fn to run after commit, once the host is idle.
//
// deps controls reruns: nil reruns after every render, an empty slice runs
// once, otherwise fn reruns when any element differs from the previous
// render (see SameValue). The returned cleanup, if any, runs before the
// next rerun and on unmount.
func UseEffect(s element.Scope, fn func() func(), deps []any) {
	useEffect(s, hookEffect, fn, deps)
}

// UseLayoutEffect is UseEffect, but fn runs synchronously during commit
// after the host has been mutated and before control returns to the host.
func UseLayoutEffect(s element.Scope, fn func() func(), deps []any) {
	useEffect(s, hookLayoutEffect, fn, deps)
}

func useEffect(s element.Scope, kind hookKind, fn func() func(), deps []any) {
	_, cl, fresh := use(s, kind, "E001")
	if fresh {
		cl.effect = &effect{layout: kind == hookLayoutEffect}
	}
	e := cl.effect
	e.pending = true
	e.nextFn = fn
	e.next = copyDeps(deps)
}

// UseStore subscribes the component to st and returns its current value.
// The subscription is applied at commit and dropped on unmount or when a
// later render no longer uses the store.
func UseStore[T any](s element.Scope, st *store.Store[T]) T {
	c, cl, fresh := use(s, hookStore, "E003")
	if fresh {
		cl.store = st
	}
	c.inst.use(st)
	return st.Get()
}
