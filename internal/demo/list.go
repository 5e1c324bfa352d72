package demo

import (
	"slices"
	"strings"

	"github.com/vango-dev/ley/pkg/element"
	"github.com/vango-dev/ley/pkg/fiber"
	"github.com/vango-dev/ley/pkg/store"
)

// Item is one todo entry.
type Item struct {
	ID   int
	Text string
	Done bool
}

// Todos is a todo list held in a store. Every change replaces the slice, so
// renders can compare items by identity.
type Todos struct {
	items *store.Store[[]Item]
	next  int
}

// NewTodos creates a list with one entry per text.
func NewTodos(texts ...string) *Todos {
	t := &Todos{items: store.New[[]Item](nil)}
	for _, text := range texts {
		t.Add(text)
	}
	return t
}

// Store returns the underlying store.
func (t *Todos) Store() *store.Store[[]Item] {
	return t.items
}

// Items returns the current entries.
func (t *Todos) Items() []Item {
	return t.items.Get()
}

// Add appends an entry. Blank text is ignored.
func (t *Todos) Add(text string) {
	text = strings.TrimSpace(text)
	t.items.MutateIf(func(p *[]Item) bool {
		if text == "" {
			return false
		}
		t.next++
		*p = append(slices.Clip(*p), Item{ID: t.next, Text: text})
		return true
	})
}

// Remove deletes the entry with id.
func (t *Todos) Remove(id int) {
	t.items.MutateIf(func(p *[]Item) bool {
		i := t.index(*p, id)
		if i < 0 {
			return false
		}
		*p = slices.Delete(slices.Clone(*p), i, i+1)
		return true
	})
}

// Toggle flips the Done flag of the entry with id.
func (t *Todos) Toggle(id int) {
	t.items.MutateIf(func(p *[]Item) bool {
		i := t.index(*p, id)
		if i < 0 {
			return false
		}
		next := slices.Clone(*p)
		next[i].Done = !next[i].Done
		*p = next
		return true
	})
}

// Rotate moves the last entry to the front.
func (t *Todos) Rotate() {
	t.items.MutateIf(func(p *[]Item) bool {
		n := len(*p)
		if n < 2 {
			return false
		}
		*p = append([]Item{(*p)[n-1]}, (*p)[:n-1]...)
		return true
	})
}

// Reverse reverses the order of the entries.
func (t *Todos) Reverse() {
	t.items.MutateIf(func(p *[]Item) bool {
		if len(*p) < 2 {
			return false
		}
		next := slices.Clone(*p)
		slices.Reverse(next)
		*p = next
		return true
	})
}

func (t *Todos) index(items []Item, id int) int {
	return slices.IndexFunc(items, func(it Item) bool { return it.ID == id })
}

// TodoList renders the entries of props["todos"] (*Todos) with controls to
// add, rotate and reverse them. Rows are keyed by item ID.
var TodoList = &element.Component{Name: "TodoList", Render: func(s element.Scope, p element.Props) any {
	todos := p["todos"].(*Todos)
	items := fiber.UseStore(s, todos.Store())
	draft, setDraft := fiber.UseState(s, "")

	left := fiber.UseMemo(s, func() int {
		n := 0
		for _, it := range items {
			if !it.Done {
				n++
			}
		}
		return n
	}, []any{items})

	return element.H("section", element.Prop("class", "todos"),
		element.H("div", element.Prop("class", "controls"),
			element.H("input",
				element.Prop("value", draft),
				element.On("input", func(v any) {
					text, _ := v.(string)
					setDraft.Set(text)
				}),
			),
			element.H("button", element.Prop("class", "add"),
				element.On("click", func() {
					todos.Add(setDraft.Get())
					setDraft.Set("")
				}),
				"Add",
			),
			element.H("button", element.Prop("class", "rotate"), element.On("click", todos.Rotate), "Rotate"),
			element.H("button", element.Prop("class", "reverse"), element.On("click", todos.Reverse), "Reverse"),
		),
		element.H("ul", element.Map(items, func(_ int, it Item) *element.Element {
			return element.C(TodoRow, element.Props{"key": it.ID, "item": it, "todos": todos})
		})),
		element.H("p", element.Prop("class", "left"), element.Textf("%d left", left)),
	)
}}

// TodoRow renders one entry.
var TodoRow = &element.Component{Name: "TodoRow", Render: func(s element.Scope, p element.Props) any {
	it := p["item"].(Item)
	todos := p["todos"].(*Todos)

	class := "todo"
	if it.Done {
		class += " done"
	}
	return element.H("li", element.Prop("class", class), element.Prop("data-id", it.ID),
		element.H("button", element.Prop("class", "toggle"), element.On("click", func() { todos.Toggle(it.ID) }), "✓"),
		element.H("span", it.Text),
		element.H("button", element.Prop("class", "remove"), element.On("click", func() { todos.Remove(it.ID) }), "×"),
	)
}}
