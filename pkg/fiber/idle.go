package fiber

import (
	"math"
	"time"
)

// Deadline reports how much of the current idle slot is left.
type Deadline interface {
	TimeRemaining() time.Duration
}

// IdleHandle identifies a pending idle callback. Zero means none.
type IdleHandle uint64

// IdleScheduler runs callbacks when the host is idle.
type IdleScheduler interface {
	RequestIdle(fn func(Deadline)) IdleHandle
	CancelIdle(h IdleHandle)
}

type unlimited struct{}

func (unlimited) TimeRemaining() time.Duration { return math.MaxInt64 }

// Unlimited is a Deadline that never runs out.
var Unlimited Deadline = unlimited{}

type stepBudget struct {
	left int
}

func (b *stepBudget) TimeRemaining() time.Duration {
	if b.left <= 0 {
		return 0
	}
	b.left--
	return time.Millisecond
}

// StepBudget returns a Deadline that allows n scheduler steps. The
// scheduler consults its deadline once before each fiber visit, so a pass
// driven by StepBudget(n) visits at most n fibers per slot.
func StepBudget(n int) Deadline {
	return &stepBudget{left: n}
}

// ManualIdle is an IdleScheduler driven explicitly, for tests and tools.
// Each callback receives StepBudget(Budget), or Unlimited when Budget <= 0.
type ManualIdle struct {
	Budget int

	next  IdleHandle
	tasks []idleTask
}

type idleTask struct {
	h  IdleHandle
	fn func(Deadline)
}

// NewManualIdle creates a ManualIdle allowing budget steps per slot.
func NewManualIdle(budget int) *ManualIdle {
	return &ManualIdle{Budget: budget}
}

// RequestIdle implements IdleScheduler.
func (m *ManualIdle) RequestIdle(fn func(Deadline)) IdleHandle {
	m.next++
	m.tasks = append(m.tasks, idleTask{h: m.next, fn: fn})
	return m.next
}

// CancelIdle implements IdleScheduler.
func (m *ManualIdle) CancelIdle(h IdleHandle) {
	for i, t := range m.tasks {
		if t.h == h {
			m.tasks = append(m.tasks[:i], m.tasks[i+1:]...)
			return
		}
	}
}

// Pending returns the number of queued callbacks.
func (m *ManualIdle) Pending() int {
	return len(m.tasks)
}

// RunNext runs the oldest queued callback. It returns false if none was queued.
func (m *ManualIdle) RunNext() bool {
	if len(m.tasks) == 0 {
		return false
	}
	t := m.tasks[0]
	m.tasks = m.tasks[1:]

	var d Deadline = Unlimited
	if m.Budget > 0 {
		d = StepBudget(m.Budget)
	}
	t.fn(d)
	return true
}

// maxFlush bounds Flush so that a callback that keeps rescheduling itself
// fails loudly instead of hanging.
const maxFlush = 100000

// Flush runs callbacks until the queue is empty and returns how many ran.
func (m *ManualIdle) Flush() int {
	n := 0
	for m.RunNext() {
		n++
		if n >= maxFlush {
			panic("fiber: idle queue did not settle")
		}
	}
	return n
}
