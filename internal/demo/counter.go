package demo

import (
	"log/slog"

	"github.com/vango-dev/ley/pkg/element"
	"github.com/vango-dev/ley/pkg/fiber"
)

// Counter renders a number with buttons to change it.
//
// Props: "start" (int) initial value, "logger" (*slog.Logger) optional.
var Counter = &element.Component{Name: "Counter", Render: func(s element.Scope, p element.Props) any {
	start, _ := p["start"].(int)
	logger, _ := p["logger"].(*slog.Logger)

	n, set := fiber.UseState(s, start)
	fiber.UseEffect(s, func() func() {
		if logger != nil {
			logger.Info("count changed", "count", n)
		}
		return nil
	}, []any{n})

	return element.H("div", element.Prop("class", "counter"),
		element.H("button", element.Prop("class", "dec"),
			element.On("click", func() { set.Update(func(v int) int { return v - 1 }) }),
			"-",
		),
		element.H("span", element.Prop("class", "value"), n),
		element.H("button", element.Prop("class", "inc"),
			element.On("click", func() { set.Update(func(v int) int { return v + 1 }) }),
			"+",
		),
	)
}}
