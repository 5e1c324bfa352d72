package demo

import (
	"strings"
	"time"

	"github.com/vango-dev/ley/pkg/element"
	"github.com/vango-dev/ley/pkg/fiber"
	"github.com/vango-dev/ley/pkg/store"
)

// Clock is a store of the current time, advanced by Tick.
type Clock struct {
	now  func() time.Time
	time *store.Store[time.Time]
}

// NewClock creates a clock reading now.
func NewClock(now func() time.Time) *Clock {
	return &Clock{now: now, time: store.New(now().Truncate(time.Second))}
}

// Store returns the underlying store.
func (c *Clock) Store() *store.Store[time.Time] {
	return c.time
}

// Tick reads the time. Watchers are only notified when the second changed.
func (c *Clock) Tick() {
	t := c.now().Truncate(time.Second)
	c.time.MutateIf(func(p *time.Time) bool {
		if p.Equal(t) {
			return false
		}
		*p = t
		return true
	})
}

type afterFunc = func(d time.Duration, fn func()) (cancel func() bool)

// ClockFace shows the time of props["clock"] (*Clock). If props["after"] is
// set, it ticks the clock every second while mounted.
var ClockFace = &element.Component{Name: "ClockFace", Render: func(s element.Scope, p element.Props) any {
	clock := p["clock"].(*Clock)
	after, _ := p["after"].(afterFunc)
	now := fiber.UseStore(s, clock.Store())

	fiber.UseEffect(s, func() func() {
		if after == nil {
			return nil
		}
		var cancel func() bool
		var tick func()
		tick = func() {
			clock.Tick()
			cancel = after(time.Second, tick)
		}
		cancel = after(time.Second, tick)
		return func() { cancel() }
	}, []any{})

	return element.H("div", element.Prop("class", "clock"),
		element.H("time", now.Format("15:04:05")),
		element.C(SecondHand, element.Props{"clock": clock}),
	)
}}

// SecondHand draws a bar with one segment per five seconds.
var SecondHand = &element.Component{Name: "SecondHand", Render: func(s element.Scope, p element.Props) any {
	clock := p["clock"].(*Clock)
	now := fiber.UseStore(s, clock.Store())
	return element.H("div", element.Prop("class", "seconds"),
		strings.Repeat("#", now.Second()/5),
	)
}}
