// Package fiber implements the reconciliation engine: a mutable shadow tree
// of fibers, a keyed tree diff, a cooperative time-sliced scheduler and the
// hook store that gives components local state and lifecycle.
//
// # Trees
//
// The committed tree is what the host currently shows. An update clones the
// committed fiber it targets into a work-in-progress root and reconciles the
// whole subtree below it, fiber by fiber. Each work-in-progress fiber keeps a
// back-reference (Alt) to the fiber it supersedes until commit splices the
// new subtree in place of the old one.
//
// # Scheduling
//
// A render pass advances one fiber per step and checks its Deadline between
// steps; when the deadline is spent it yields to the host's IdleScheduler and
// resumes in the next idle slot. An update that arrives while a pass is in
// flight redirects it: an ancestor (or the same fiber) restarts the pass at
// itself, a descendant restarts the pass at its current root, and an
// unrelated branch is queued until the pass commits. Nothing touches the
// host before commit, so aborting is always safe.
//
// # Hooks
//
// Component functions receive a Scope and pass it to hook functions:
//
//	var Counter = &element.Component{Name: "Counter", Render: func(s element.Scope, p element.Props) any {
//	    n, set := fiber.UseState(s, 0)
//	    fiber.UseEffect(s, func() func() {
//	        log.Println("count", n)
//	        return nil
//	    }, []any{n})
//	    return element.H("button", element.On("click", func() { set.Update(func(v int) int { return v + 1 }) }), n)
//	}}
//
// Hook cells are addressed by call order and shared by every clone of the
// same component instance. Calling hooks conditionally is undefined
// behavior; WithDebugHooks turns order drift into a panic.
//
// # Thread Safety
//
// A Scheduler is not safe for concurrent use. Drive it from a single
// goroutine (see package loop) and post work to that goroutine from others.
package fiber
