package fiber

import (
	"fmt"
	"log/slog"
	"time"

	"github.com/vango-dev/ley/internal/errors"
	"github.com/vango-dev/ley/pkg/element"
)

type state uint8

const (
	stateIdle state = iota
	stateRendering
	stateCommitting
)

func (s state) String() string {
	switch s {
	case stateIdle:
		return "idle"
	case stateRendering:
		return "rendering"
	case stateCommitting:
		return "committing"
	default:
		return "unknown"
	}
}

// Option configures a Scheduler.
type Option func(*Scheduler)

// WithIdle sets the idle scheduler used for yielding passes and deferred
// effects. Without one every pass renders synchronously and deferred
// effects run at the end of commit.
func WithIdle(idle IdleScheduler) Option {
	return func(s *Scheduler) {
		s.idle = idle
	}
}

// WithLogger sets the logger. Defaults to slog.Default().
func WithLogger(logger *slog.Logger) Option {
	return func(s *Scheduler) {
		if logger != nil {
			s.logger = logger
		}
	}
}

// WithObserver sets the lifecycle observer.
func WithObserver(o Observer) Option {
	return func(s *Scheduler) {
		if o != nil {
			s.obs = o
		}
	}
}

// WithSync disables yielding for every pass.
func WithSync(sync bool) Option {
	return func(s *Scheduler) {
		s.sync = sync
	}
}

// WithDebugHooks enables hook order checking. A component whose hook calls
// drift from its first render fails with E002.
func WithDebugHooks(on bool) Option {
	return func(s *Scheduler) {
		s.debugHooks = on
	}
}

// WithErrorHandler sets a function that receives render, commit and effect
// failures, including those of passes that run inside idle callbacks.
func WithErrorHandler(fn func(error)) Option {
	return func(s *Scheduler) {
		s.onError = fn
	}
}

// Scheduler owns the committed fiber trees of its roots and runs render
// passes over them.
type Scheduler struct {
	host       Host
	idle       IdleScheduler
	logger     *slog.Logger
	obs        Observer
	onError    func(error)
	sync       bool
	debugHooks bool

	state     state
	root      *Fiber // work-in-progress root of the pass in flight
	next      *Fiber
	deletions []*Fiber
	pass      uint64
	passSync  bool
	started   time.Time
	stats     PassStats

	queue    []*Instance // updates waiting for the pass in flight to commit
	deferred []*Instance // updates requested while a fiber was being rendered
	inUnit   bool
	working  bool
	handle   IdleHandle

	layout        []func()
	passive       []func()
	passiveHandle IdleHandle
}

// New creates a Scheduler that mutates host.
func New(host Host, opts ...Option) *Scheduler {
	s := &Scheduler{
		host:   host,
		logger: slog.Default(),
		obs:    nopObserver{},
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Busy reports whether a render pass is in flight.
func (s *Scheduler) Busy() bool {
	return s.state != stateIdle
}

// PendingEffects returns the number of deferred effect callbacks not yet run.
func (s *Scheduler) PendingEffects() int {
	return len(s.passive)
}

// RequestUpdate schedules a re-render of the subtree rooted at inst.
//
// While idle a new pass starts. While rendering, an update for an ancestor
// of (or the same fiber as) the pass root restarts the pass there, an
// update for a descendant restarts it at its own root, and anything else
// is queued until the pass commits. Updates requested during commit, or
// from inside a component function, are applied once that phase ends.
func (s *Scheduler) RequestUpdate(inst *Instance) {
	_ = s.update(inst)
}

func (s *Scheduler) update(inst *Instance) error {
	if inst == nil {
		return nil
	}
	if inst.unmounted {
		s.logger.Debug("update ignored", "code", "E100")
		return nil
	}
	if s.inUnit {
		s.deferred = appendUnique(s.deferred, inst)
		return nil
	}

	switch s.state {
	case stateCommitting:
		s.enqueue(inst)
		return nil
	case stateRendering:
		s.redirect(inst)
		return s.kick()
	}

	if inst.fiber == nil {
		return nil
	}
	return s.start(inst.fiber, false)
}

func (s *Scheduler) redirect(inst *Instance) {
	t := inst.fiber
	if t == nil {
		// Never committed: only reachable while its first pass is in
		// flight, so rewind the pass to the work-in-progress fiber. Every
		// unit after it in depth-first order is visited again and records
		// its deletions again, so drop the ones recorded since.
		if inst.wip != nil && inst.pass == s.pass {
			s.logger.Debug("pass redirected", "reason", RedirectRerender, "target", inst.wip.Name())
			s.obs.Redirected(RedirectRerender)
			s.deletions = s.deletions[:inst.mark]
			s.next = inst.wip
		}
		return
	}

	current := s.root.alt
	switch {
	case isAncestorOrSelf(t, current):
		s.restart(t, RedirectAncestor)
	case isAncestorOrSelf(current, t):
		s.restart(current, RedirectDescendant)
	default:
		s.enqueue(inst)
	}
}

func (s *Scheduler) restart(target *Fiber, reason string) {
	s.logger.Debug("pass redirected", "reason", reason, "from", s.root.Name(), "to", target.Name())
	s.obs.Redirected(reason)
	yields := s.stats.Yields
	started := s.started
	sync := s.passSync
	s.abort()
	s.begin(target, sync)
	s.stats.Yields = yields
	s.started = started
}

func (s *Scheduler) enqueue(inst *Instance) {
	for _, q := range s.queue {
		if q == inst {
			return
		}
	}
	s.queue = append(s.queue, inst)
	s.logger.Debug("update queued", "target", inst.fiber.Name(), "pending", len(s.queue))
	s.obs.Queued()
}

// start begins a pass at target and runs it now if it is synchronous.
func (s *Scheduler) start(target *Fiber, sync bool) error {
	s.begin(target, sync)
	return s.kick()
}

// begin sets up a pass at target. sync forces the pass to run without
// yielding; it is also synchronous without an idle scheduler, in sync mode,
// or inside a Sync component.
func (s *Scheduler) begin(target *Fiber, sync bool) {
	s.pass++
	s.root = clone(target, nil, nil, TagNone, nil)
	s.next = s.root
	s.deletions = s.deletions[:0]
	s.passSync = sync || s.idle == nil || s.sync || syncSubtree(target)
	s.state = stateRendering
	s.started = time.Now()
	s.stats = PassStats{Root: target.Name()}

	s.logger.Debug("pass started", "root", target.Name(), "sync", s.passSync)
	s.obs.PassStarted(s.root, s.passSync)
}

// kick makes sure the pass in flight makes progress: synchronous passes run
// to completion now, yielding ones wait for an idle slot.
func (s *Scheduler) kick() error {
	if s.working || s.state != stateRendering {
		return nil
	}
	if !s.passSync {
		if s.handle == 0 {
			s.handle = s.idle.RequestIdle(s.work)
		}
		return nil
	}
	if s.handle != 0 {
		s.idle.CancelIdle(s.handle)
		s.handle = 0
	}
	_, err := s.run(Unlimited)
	s.settle()
	return err
}

// work is the idle callback of a yielding pass.
func (s *Scheduler) work(d Deadline) {
	s.handle = 0
	if s.state != stateRendering {
		return
	}
	done, _ := s.run(d)
	if !done {
		s.stats.Yields++
		s.obs.Yielded()
		s.handle = s.idle.RequestIdle(s.work)
		return
	}
	s.settle()
}

// run advances the pass one fiber at a time until it is committed, fails,
// or d runs out.
func (s *Scheduler) run(d Deadline) (done bool, err error) {
	s.working = true
	defer func() {
		s.working = false
	}()

	for s.next != nil {
		if !s.passSync && d.TimeRemaining() <= 0 {
			return false, nil
		}
		if err := s.step(); err != nil {
			s.fail(err)
			return true, err
		}
	}
	if s.state != stateRendering {
		return true, nil
	}
	if err := s.commit(); err != nil {
		s.fail(err)
		return true, err
	}
	return true, nil
}

func (s *Scheduler) step() error {
	f := s.next
	s.inUnit = true
	err := s.performUnit(f)
	s.inUnit = false
	if err != nil {
		return err
	}
	s.stats.Fibers++
	s.next = s.nextUnit(f)

	for len(s.deferred) > 0 {
		pending := s.deferred
		s.deferred = nil
		for _, inst := range pending {
			s.RequestUpdate(inst)
		}
	}
	return nil
}

// nextUnit returns the fiber after f in depth-first order, never leaving
// the pass root.
func (s *Scheduler) nextUnit(f *Fiber) *Fiber {
	if f.child != nil {
		return f.child
	}
	for ; f != nil && f != s.root; f = f.parent {
		if f.sibling != nil {
			return f.sibling
		}
	}
	return nil
}

func (s *Scheduler) performUnit(f *Fiber) error {
	switch f.typ.Kind {
	case element.KindComponent:
		children, err := s.renderComponent(f)
		if err != nil {
			return err
		}
		s.reconcileChildren(f, children)
	case element.KindText, element.KindInline:
		return s.createNode(f)
	default:
		if err := s.createNode(f); err != nil {
			return err
		}
		s.reconcileChildren(f, f.children)
	}
	return nil
}

func (s *Scheduler) createNode(f *Fiber) error {
	if f.node != nil {
		return nil
	}
	node, err := s.host.CreateNode(f)
	if err != nil {
		return errors.FromError(err, "E102").WithComponent(f.Name())
	}
	f.node = node
	return nil
}

func (s *Scheduler) renderComponent(f *Fiber) (children []*element.Element, err error) {
	inst := f.inst
	inst.s = s
	inst.wip = f
	inst.pass = s.pass
	inst.mark = len(s.deletions)
	inst.cursor = 0
	inst.used = inst.used[:0]

	ctx := &Ctx{s: s, f: f, inst: inst}
	defer func() {
		ctx.done = true
		if r := recover(); r != nil {
			err = renderPanic(f, r)
		}
	}()

	out := f.typ.Comp.Render(ctx, f.props)
	if s.debugHooks && inst.rendered && inst.cursor != len(inst.cells) {
		panic(errors.New("E002").
			WithComponent(f.Name()).
			WithDetail(fmt.Sprintf("%d hooks were called on the first render and %d now.", len(inst.cells), inst.cursor)))
	}
	inst.rendered = true
	return element.Normalize(out), nil
}

func renderPanic(f *Fiber, r any) error {
	if le, ok := r.(*errors.LeyError); ok {
		if le.Component == "" {
			le.WithComponent(f.Name())
		}
		return le
	}
	err, ok := r.(error)
	if !ok {
		err = fmt.Errorf("%v", r)
	}
	return errors.New("E101").WithComponent(f.Name()).Wrap(err)
}

// settle runs after a pass has left the work loop: deferred effects are
// scheduled, then queued updates are drained.
func (s *Scheduler) settle() {
	s.schedulePassive()
	s.drain()
}

// drain turns the updates queued during the last pass into fresh requests.
func (s *Scheduler) drain() {
	if s.state != stateIdle || len(s.queue) == 0 {
		return
	}
	pending := s.queue
	s.queue = nil
	for _, inst := range pending {
		s.RequestUpdate(inst)
	}
}

func (s *Scheduler) fail(err error) {
	name := ""
	if s.root != nil {
		name = s.root.Name()
	}
	s.logger.Error("render pass failed", "root", name, "error", err)
	s.obs.Failed(err)
	s.abort()
	s.deferred = nil
	if s.onError != nil {
		s.onError(err)
	}
}

// abort discards the work-in-progress tree. Nothing has touched the host
// yet, so the committed tree stays consistent.
func (s *Scheduler) abort() {
	if s.handle != 0 {
		s.idle.CancelIdle(s.handle)
		s.handle = 0
	}
	s.root = nil
	s.next = nil
	s.deletions = s.deletions[:0]
	s.layout = nil
	s.state = stateIdle
}

func syncSubtree(f *Fiber) bool {
	for ; f != nil; f = f.parent {
		if f.IsComponent() && f.typ.Comp.Sync {
			return true
		}
	}
	return false
}

func appendUnique(list []*Instance, inst *Instance) []*Instance {
	for _, i := range list {
		if i == inst {
			return list
		}
	}
	return append(list, inst)
}
