package demo

import (
	"log/slog"
	"sort"
	"strings"
	"time"

	"github.com/vango-dev/ley/internal/errors"
	"github.com/vango-dev/ley/pkg/element"
)

// Env is what a demo needs from the running engine.
type Env struct {
	// After runs fn on the engine goroutine once d has elapsed. The returned
	// function cancels it. If nil, demos do not start timers.
	After func(d time.Duration, fn func()) (cancel func() bool)

	// Logger receives demo log output (default: slog.Default()).
	Logger *slog.Logger
}

func (e Env) logger() *slog.Logger {
	if e.Logger == nil {
		return slog.Default()
	}
	return e.Logger
}

// Demo is a runnable sample application.
type Demo struct {
	Name        string
	Description string

	// New builds the root element.
	New func(env Env) *element.Element
}

var registry = map[string]Demo{
	"counter": {
		Name:        "counter",
		Description: "Local state with increment and decrement buttons",
		New: func(env Env) *element.Element {
			return element.C(Counter, element.Props{"start": 0, "logger": env.logger()})
		},
	},
	"list": {
		Name:        "list",
		Description: "Keyed todo list backed by a store",
		New: func(env Env) *element.Element {
			todos := NewTodos("write the reconciler", "test the scheduler", "ship it")
			return element.C(TodoList, element.Props{"todos": todos})
		},
	},
	"clock": {
		Name:        "clock",
		Description: "A clock store ticked once per second",
		New: func(env Env) *element.Element {
			return element.C(ClockFace, element.Props{"clock": NewClock(time.Now), "after": env.After})
		},
	},
}

// Lookup returns the demo called name.
func Lookup(name string) (Demo, error) {
	d, ok := registry[name]
	if !ok {
		return Demo{}, errors.New("E140").
			WithDetail("No demo named " + name + ".").
			WithSuggestion("Available demos: " + strings.Join(Names(), ", "))
	}
	return d, nil
}

// Names returns the demo names in sorted order.
func Names() []string {
	names := make([]string, 0, len(registry))
	for name := range registry {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
