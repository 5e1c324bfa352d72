package fiber

import "time"

// Redirect reasons reported to Observer.Redirected.
const (
	RedirectAncestor   = "ancestor"
	RedirectDescendant = "descendant"
	RedirectRerender   = "rerender"
)

// PassStats summarizes one committed render pass.
type PassStats struct {
	Root      string        // Name of the pass root
	Fibers    int           // Fibers visited
	Yields    int           // Times the pass yielded to the host
	Inserts   int           // Host insertions and moves
	Updates   int           // Host prop updates
	Deletions int           // Fibers unmounted
	Duration  time.Duration // From pass start to end of commit
	Commit    time.Duration // Commit phase only
}

// Observer receives scheduler lifecycle events. Implementations must not
// call back into the scheduler.
type Observer interface {
	PassStarted(root *Fiber, sync bool)
	Yielded()
	Redirected(reason string)
	Queued()
	Committed(stats PassStats)
	Failed(err error)
	EffectRan(layout bool)
}

type nopObserver struct{}

func (nopObserver) PassStarted(*Fiber, bool) {}
func (nopObserver) Yielded()                 {}
func (nopObserver) Redirected(string)        {}
func (nopObserver) Queued()                  {}
func (nopObserver) Committed(PassStats)      {}
func (nopObserver) Failed(error)             {}
func (nopObserver) EffectRan(bool)           {}
