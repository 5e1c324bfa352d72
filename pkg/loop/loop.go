package loop

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"github.com/vango-dev/ley/pkg/fiber"
)

// DefaultSlice is the idle slot length used when none is configured.
const DefaultSlice = 5 * time.Millisecond

var (
	// ErrLoopAlreadyRunning is returned by Run when the loop is already running.
	ErrLoopAlreadyRunning = errors.New("loop: already running")

	// ErrLoopTerminated is returned when posting to a loop that has stopped.
	ErrLoopTerminated = errors.New("loop: terminated")
)

// State is the lifecycle state of a Loop.
type State int32

const (
	StateIdle State = iota
	StateRunning
	StateTerminated
)

// String returns the state name.
func (s State) String() string {
	switch s {
	case StateIdle:
		return "idle"
	case StateRunning:
		return "running"
	case StateTerminated:
		return "terminated"
	default:
		return fmt.Sprintf("State(%d)", int32(s))
	}
}

// Option configures a Loop.
type Option func(*Loop)

// WithSlice sets the idle slot length. Non-positive values are ignored.
func WithSlice(d time.Duration) Option {
	return func(l *Loop) {
		if d > 0 {
			l.slice = d
		}
	}
}

// WithLogger sets the logger used for recovered panics.
func WithLogger(logger *slog.Logger) Option {
	return func(l *Loop) {
		if logger != nil {
			l.logger = logger
		}
	}
}

// Loop runs posted tasks and idle callbacks on a single goroutine.
//
// # Thread Safety
//
// Post, RequestIdle, CancelIdle and State are safe from any goroutine.
// Tasks and idle callbacks always run on the goroutine that called Run.
type Loop struct {
	slice  time.Duration
	logger *slog.Logger

	state atomic.Int32
	wake  chan struct{}

	mu      sync.Mutex
	ingress []func()
	idle    []idleTask
	nextID  fiber.IdleHandle
}

type idleTask struct {
	h  fiber.IdleHandle
	fn func(fiber.Deadline)
}

// New creates a loop. It does nothing until Run is called.
func New(opts ...Option) *Loop {
	l := &Loop{
		slice:  DefaultSlice,
		logger: slog.Default(),
		wake:   make(chan struct{}, 1),
	}
	for _, opt := range opts {
		opt(l)
	}
	return l
}

// Slice returns the idle slot length.
func (l *Loop) Slice() time.Duration {
	return l.slice
}

// State returns the current lifecycle state.
func (l *Loop) State() State {
	return State(l.state.Load())
}

// Post queues fn to run on the loop goroutine.
func (l *Loop) Post(fn func()) error {
	if fn == nil {
		return nil
	}
	l.mu.Lock()
	if l.State() == StateTerminated {
		l.mu.Unlock()
		return ErrLoopTerminated
	}
	l.ingress = append(l.ingress, fn)
	l.mu.Unlock()

	l.signal()
	return nil
}

// Do posts fn and waits for it to finish. It returns ctx.Err() if ctx is done
// first; fn may still run afterwards in that case.
func (l *Loop) Do(ctx context.Context, fn func() error) error {
	done := make(chan error, 1)
	if err := l.Post(func() { done <- l.call(fn) }); err != nil {
		return err
	}
	select {
	case err := <-done:
		return err
	case <-ctx.Done():
		return ctx.Err()
	}
}

// After posts fn once delay has elapsed. The returned function cancels it.
func (l *Loop) After(delay time.Duration, fn func()) (cancel func() bool) {
	t := time.AfterFunc(delay, func() {
		if err := l.Post(fn); err != nil {
			l.logger.Debug("loop: timer dropped", "error", err)
		}
	})
	return t.Stop
}

// RequestIdle implements fiber.IdleScheduler.
func (l *Loop) RequestIdle(fn func(fiber.Deadline)) fiber.IdleHandle {
	l.mu.Lock()
	l.nextID++
	h := l.nextID
	l.idle = append(l.idle, idleTask{h: h, fn: fn})
	l.mu.Unlock()

	l.signal()
	return h
}

// CancelIdle implements fiber.IdleScheduler.
func (l *Loop) CancelIdle(h fiber.IdleHandle) {
	l.mu.Lock()
	defer l.mu.Unlock()
	for i, t := range l.idle {
		if t.h == h {
			l.idle = append(l.idle[:i], l.idle[i+1:]...)
			return
		}
	}
}

// Run processes tasks until ctx is done. It returns nil on cancellation.
// A loop runs once; afterwards Post returns ErrLoopTerminated.
func (l *Loop) Run(ctx context.Context) error {
	if !l.state.CompareAndSwap(int32(StateIdle), int32(StateRunning)) {
		if l.State() == StateTerminated {
			return ErrLoopTerminated
		}
		return ErrLoopAlreadyRunning
	}
	defer l.terminate()

	for {
		if ctx.Err() != nil {
			return nil
		}
		if l.tick() {
			continue
		}
		select {
		case <-ctx.Done():
			return nil
		case <-l.wake:
		}
	}
}

// tick runs every posted task, or one idle callback if none were posted.
// It reports whether any work ran.
func (l *Loop) tick() bool {
	l.mu.Lock()
	tasks := l.ingress
	l.ingress = nil
	var idle *idleTask
	if len(tasks) == 0 && len(l.idle) > 0 {
		t := l.idle[0]
		l.idle = l.idle[1:]
		idle = &t
	}
	l.mu.Unlock()

	for _, fn := range tasks {
		l.safeExecute(fn)
	}
	if idle != nil {
		d := slot{end: time.Now().Add(l.slice)}
		l.safeExecute(func() { idle.fn(d) })
	}
	return len(tasks) > 0 || idle != nil
}

func (l *Loop) terminate() {
	l.mu.Lock()
	l.state.Store(int32(StateTerminated))
	dropped := len(l.ingress) + len(l.idle)
	l.ingress = nil
	l.idle = nil
	l.mu.Unlock()

	if dropped > 0 {
		l.logger.Debug("loop: dropped pending work", "tasks", dropped)
	}
}

func (l *Loop) signal() {
	select {
	case l.wake <- struct{}{}:
	default:
	}
}

// safeExecute keeps a panicking task from taking the loop down.
func (l *Loop) safeExecute(fn func()) {
	defer func() {
		if r := recover(); r != nil {
			l.logger.Error("loop: task panicked", "panic", r)
		}
	}()
	fn()
}

func (l *Loop) call(fn func() error) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("loop: task panicked: %v", r)
		}
	}()
	return fn()
}

// slot is the deadline of one idle callback.
type slot struct {
	end time.Time
}

func (s slot) TimeRemaining() time.Duration {
	if d := time.Until(s.end); d > 0 {
		return d
	}
	return 0
}

var _ fiber.IdleScheduler = (*Loop)(nil)
