package fiber

import (
	"time"

	"github.com/vango-dev/ley/internal/errors"
	"github.com/vango-dev/ley/pkg/element"
)

// commit applies the finished work-in-progress tree to the host.
func (s *Scheduler) commit() error {
	s.state = stateCommitting
	start := time.Now()

	s.flushPassive()

	root := s.root
	splice(root)

	for _, d := range s.deletions {
		s.unmount(d)
	}
	if err := s.mutate(root); err != nil {
		return err
	}
	for _, d := range s.deletions {
		if err := s.remove(d); err != nil {
			return err
		}
	}
	s.stats.Deletions = len(s.deletions)

	s.runLayout()

	stats := s.stats
	stats.Commit = time.Since(start)
	stats.Duration = time.Since(s.started)

	s.root = nil
	s.next = nil
	s.deletions = s.deletions[:0]
	s.state = stateIdle

	s.logger.Debug("pass committed",
		"root", stats.Root,
		"fibers", stats.Fibers,
		"inserts", stats.Inserts,
		"updates", stats.Updates,
		"deletions", stats.Deletions,
		"yields", stats.Yields,
		"duration", stats.Duration,
	)
	s.obs.Committed(stats)
	return nil
}

// splice puts root in place of its alternate in the committed tree.
func splice(root *Fiber) {
	alt := root.alt
	p := alt.parent
	if p == nil {
		return
	}
	root.sibling = alt.sibling
	if p.child == alt {
		p.child = root
		return
	}
	for c := p.child; c != nil; c = c.sibling {
		if c.sibling == alt {
			c.sibling = root
			return
		}
	}
}

// mutate walks the committed subtree bottom-up, children before their
// parent and siblings in order, applying each fiber's tag to the host.
func (s *Scheduler) mutate(f *Fiber) error {
	for ; f != nil; f = f.sibling {
		if err := s.mutate(f.child); err != nil {
			return err
		}
		s.side(f)

		var err error
		switch f.tag {
		case TagInsert:
			if err = s.updateNode(f); err == nil {
				err = s.place(f)
			}
		case TagUpdate:
			err = s.updateNode(f)
		}
		if err != nil {
			return errors.FromError(err, "E103").WithComponent(f.Name())
		}

		isRoot := f == s.root
		clean(f)
		if isRoot {
			break
		}
	}
	return nil
}

// updateNode re-applies props to a reused host node when they changed.
func (s *Scheduler) updateNode(f *Fiber) error {
	if f.alt == nil || f.IsComponent() || f.node == nil {
		return nil
	}
	if f.text == f.alt.text && sameProps(f.alt.props, f.props) {
		return nil
	}
	s.stats.Updates++
	return s.host.UpdateNode(f)
}

func sameProps(a, b element.Props) bool {
	if len(a) != len(b) {
		return false
	}
	for k, va := range a {
		vb, ok := b[k]
		if !ok || !SameValue(va, vb) {
			return false
		}
	}
	return true
}

// place inserts or moves the nodes of f right after the last node of its
// relation, or at the end of the host parent when it has none.
func (s *Scheduler) place(f *Fiber) error {
	parent := hostParent(f)
	var before Node
	if f.relation != nil {
		if last := lastHostNode(f.relation); last != nil {
			before = s.host.NextSibling(last)
		}
	}

	if !f.IsComponent() {
		if before != nil && before == f.node {
			return nil
		}
		s.stats.Inserts++
		return s.host.InsertNode(parent, f.node, before)
	}

	for _, n := range hostNodes(f.child) {
		if before != nil && n == before {
			before = s.host.NextSibling(n)
			continue
		}
		s.stats.Inserts++
		if err := s.host.InsertNode(parent, n, before); err != nil {
			return err
		}
	}
	return nil
}

// side promotes a component's instance to the committed fiber, applies its
// store subscriptions and collects its effects.
func (s *Scheduler) side(f *Fiber) {
	inst := f.inst
	if inst == nil {
		return
	}
	inst.fiber = f
	inst.wip = nil
	if !f.IsComponent() {
		return
	}
	inst.syncStores()

	name := f.Name()
	for _, c := range inst.cells {
		e := c.effect
		if e == nil || !e.pending {
			continue
		}
		e.pending = false
		if e.ran && e.next != nil && depsEqual(e.deps, e.next) {
			continue
		}
		e.fn = e.nextFn
		e.deps = e.next
		e.ran = true

		if e.layout {
			if cleanup := e.cleanup; cleanup != nil {
				e.cleanup = nil
				s.invoke(name, true, cleanup)
			}
			s.layout = append(s.layout, s.setup(inst, name, e))
			continue
		}
		if e.cleanup != nil {
			s.passive = append(s.passive, s.teardown(name, e))
		}
		s.passive = append(s.passive, s.setup(inst, name, e))
	}
}

func (s *Scheduler) setup(inst *Instance, name string, e *effect) func() {
	return func() {
		if inst.unmounted || e.fn == nil {
			return
		}
		s.invoke(name, e.layout, func() {
			e.cleanup = e.fn()
		})
	}
}

func (s *Scheduler) teardown(name string, e *effect) func() {
	return func() {
		cleanup := e.cleanup
		if cleanup == nil {
			return
		}
		e.cleanup = nil
		s.invoke(name, e.layout, cleanup)
	}
}

// invoke runs an effect callback, recovering a panic into E106.
func (s *Scheduler) invoke(component string, layout bool, fn func()) {
	defer func() {
		if r := recover(); r != nil {
			err := errors.New("E106").WithComponent(component).Wrap(panicError(r))
			s.logger.Error("effect failed", "component", component, "layout", layout, "error", err)
			if s.onError != nil {
				s.onError(err)
			}
		}
	}()
	fn()
	s.obs.EffectRan(layout)
}

func (s *Scheduler) runLayout() {
	for len(s.layout) > 0 {
		fn := s.layout[0]
		s.layout = s.layout[1:]
		fn()
	}
	s.layout = nil
}

// schedulePassive runs deferred effects one per idle slot, or right away
// when there is no idle scheduler.
func (s *Scheduler) schedulePassive() {
	if len(s.passive) == 0 || s.passiveHandle != 0 {
		return
	}
	if s.idle == nil {
		s.flushPassive()
		return
	}
	s.passiveHandle = s.idle.RequestIdle(s.nextPassive)
}

func (s *Scheduler) nextPassive(Deadline) {
	s.passiveHandle = 0
	if len(s.passive) == 0 {
		return
	}
	fn := s.passive[0]
	s.passive = s.passive[1:]
	fn()
	s.schedulePassive()
}

// flushPassive runs every outstanding deferred effect now.
func (s *Scheduler) flushPassive() {
	if s.passiveHandle != 0 {
		s.idle.CancelIdle(s.passiveHandle)
		s.passiveHandle = 0
	}
	for len(s.passive) > 0 {
		fn := s.passive[0]
		s.passive = s.passive[1:]
		fn()
	}
	s.passive = nil
}

// unmount runs the cleanups of f's subtree, children first, and detaches
// its instances.
func (s *Scheduler) unmount(f *Fiber) {
	for c := f.child; c != nil; c = c.sibling {
		s.unmount(c)
	}
	inst := f.inst
	if inst == nil || !f.IsComponent() {
		return
	}
	inst.unmounted = true
	inst.fiber = nil
	inst.wip = nil
	inst.unwatchAll()

	name := f.Name()
	for _, c := range inst.cells {
		if e := c.effect; e != nil && e.cleanup != nil {
			cleanup := e.cleanup
			e.cleanup = nil
			s.invoke(name, e.layout, cleanup)
		}
	}
}

// remove detaches the host nodes of a deleted fiber.
func (s *Scheduler) remove(f *Fiber) error {
	var nodes []Node
	if f.IsComponent() {
		nodes = hostNodes(f.child)
	} else if f.node != nil {
		nodes = []Node{f.node}
	}
	for _, n := range nodes {
		if err := s.host.RemoveNode(n); err != nil {
			return errors.FromError(err, "E103").WithComponent(f.Name())
		}
	}
	return nil
}

func panicError(r any) error {
	if err, ok := r.(error); ok {
		return err
	}
	return errors.Newf(errors.CategoryRender, "panic: %v", r)
}
