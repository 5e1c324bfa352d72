package element

import "fmt"

// Kind is the element type discriminator.
type Kind uint8

const (
	KindHost      Kind = iota // <div>, <button>, etc.
	KindComponent             // Component function
	KindText                  // Plain text leaf
	KindInline                // Raw markup leaf (dangerous)
)

// String returns the string representation of the Kind.
func (k Kind) String() string {
	switch k {
	case KindHost:
		return "Host"
	case KindComponent:
		return "Component"
	case KindText:
		return "Text"
	case KindInline:
		return "Inline"
	default:
		return "Unknown"
	}
}

// Type identifies what an element renders to. Two elements have the same
// type iff their Types compare equal.
type Type struct {
	Kind Kind
	Tag  string     // KindHost only
	Comp *Component // KindComponent only
}

// String returns a readable name for the type.
func (t Type) String() string {
	switch t.Kind {
	case KindHost:
		return t.Tag
	case KindComponent:
		if t.Comp == nil {
			return "Component"
		}
		return t.Comp.Name
	default:
		return "#" + t.Kind.String()
	}
}

// Props holds attributes, event handlers and component arguments.
type Props map[string]any

// Reserved prop names excluded from generic attribute handling.
const (
	PropChildren = "children"
	PropRef      = "ref"
	PropHTML     = "html"
	PropKey      = "key"
)

// Children returns the normalized children passed to a component.
func (p Props) Children() []*Element {
	if p == nil {
		return nil
	}
	children, _ := p[PropChildren].([]*Element)
	return children
}

// Scope is the per-render handle a component function receives.
// Hook functions take it as their first argument.
type Scope interface {
	// Name returns the name of the rendering component.
	Name() string
}

// RenderFunc renders a component from its props into a raw children value:
// an Element, a slice, a primitive or nil.
type RenderFunc func(s Scope, props Props) any

// Component is a named render function. Identity is the pointer: declare
// components once, as package-level variables.
type Component struct {
	Name   string
	Render RenderFunc

	// Sync marks the subtree rooted at this component as synchronous:
	// updates targeting it are rendered without yielding to the host.
	Sync bool
}

// Element is an immutable description of a node-to-be.
type Element struct {
	Type     Type
	Props    Props
	Children []*Element // Normalized; host elements only
	Key      string
	Keyed    bool
	Text     string // KindText value or KindInline markup
}

// Ref is bound to the host node of the element it is attached to.
type Ref struct {
	Current any
}

// IsComponent reports whether the element renders through a component.
func (e *Element) IsComponent() bool {
	return e != nil && e.Type.Kind == KindComponent
}

// String returns a short debug description.
func (e *Element) String() string {
	if e == nil {
		return "<nil>"
	}
	s := e.Type.String()
	if e.Type.Kind == KindText {
		s += fmt.Sprintf("(%q)", e.Text)
	}
	if e.Keyed {
		s += "#" + e.Key
	}
	return s
}

// SameType reports whether a and b render to the same type.
func SameType(a, b *Element) bool {
	if a == nil || b == nil {
		return a == b
	}
	return a.Type == b.Type
}
