package fiber

import (
	"github.com/vango-dev/ley/internal/errors"
	"github.com/vango-dev/ley/pkg/element"
)

// rootType is the type of the fiber that owns a render container.
var rootType = element.Type{Kind: element.KindHost, Tag: "#root"}

// Root is a tree mounted into a host container.
type Root struct {
	s    *Scheduler
	inst *Instance
}

// Render mounts el into container and commits the first paint
// synchronously. A pass in flight for another root is abandoned and
// restarted after the new root is committed.
func (s *Scheduler) Render(el any, container Node) (*Root, error) {
	if container == nil {
		return nil, errors.New("E104")
	}

	f := &Fiber{
		typ:      rootType,
		node:     container,
		children: element.Normalize(el),
		inst:     newInstance(),
	}
	f.inst.s = s
	f.inst.fiber = f
	r := &Root{s: s, inst: f.inst}

	if s.inUnit || s.working || s.state == stateCommitting {
		s.enqueue(f.inst)
		return r, nil
	}
	if s.state == stateRendering {
		interrupted := s.root.alt.inst
		s.logger.Debug("pass abandoned for new root", "root", s.root.Name())
		s.abort()
		s.enqueue(interrupted)
	}
	if err := s.start(f, true); err != nil {
		return r, err
	}
	return r, nil
}

// Fiber returns the committed root fiber, or nil once unmounted.
func (r *Root) Fiber() *Fiber {
	return r.inst.fiber
}

// Container returns the host node the root is mounted into.
func (r *Root) Container() Node {
	if r.inst.fiber == nil {
		return nil
	}
	return r.inst.fiber.node
}

// Update re-renders the root with el. The pass follows the scheduler's
// normal rules: it yields when an idle scheduler is configured.
func (r *Root) Update(el any) error {
	if r.inst.unmounted {
		return errors.New("E105")
	}
	r.inst.fiber.children = element.Normalize(el)
	return r.s.update(r.inst)
}

// Unmount runs every cleanup in the tree and removes its nodes from the
// container. Outstanding deferred effects are flushed first.
func (r *Root) Unmount() error {
	if r.inst.unmounted {
		return errors.New("E105")
	}
	s := r.s
	f := r.inst.fiber

	if s.state == stateRendering && isAncestorOrSelf(f, s.root.alt) {
		s.abort()
	}
	s.flushPassive()

	nodes := hostNodes(f.child)
	for c := f.child; c != nil; c = c.sibling {
		s.unmount(c)
	}
	var firstErr error
	for _, n := range nodes {
		if err := s.host.RemoveNode(n); err != nil && firstErr == nil {
			firstErr = errors.FromError(err, "E103")
		}
	}
	f.child = nil
	r.inst.unmounted = true
	r.inst.fiber = nil
	return firstErr
}
