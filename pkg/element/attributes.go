package element

import (
	"fmt"
	"strings"
)

// Attr represents a single prop.
type Attr struct {
	Key   string
	Value any
}

// IsEmpty returns true if this is an empty/nil attribute.
func (a Attr) IsEmpty() bool {
	return a.Key == ""
}

// Prop creates a prop attribute.
func Prop(key string, value any) Attr {
	return Attr{Key: key, Value: value}
}

// Key creates the identity key attribute. Non-string keys are formatted.
func Key(k any) Attr {
	return Attr{Key: PropKey, Value: keyString(k)}
}

// On creates an event handler attribute. The event name is prefixed with "on".
func On(event string, handler any) Attr {
	event = strings.ToLower(event)
	if !strings.HasPrefix(event, "on") {
		event = "on" + event
	}
	return Attr{Key: event, Value: handler}
}

// BindRef creates a ref attribute; the host sets r.Current to the node.
func BindRef(r *Ref) Attr {
	return Attr{Key: PropRef, Value: r}
}

// IsEventProp reports whether a prop name denotes an event handler.
func IsEventProp(key string) bool {
	return len(key) > 2 && strings.EqualFold(key[:2], "on")
}

// IsReservedProp reports whether a prop is handled by the engine rather than
// applied as a generic attribute.
func IsReservedProp(key string) bool {
	return key == PropChildren || key == PropHTML || key == PropKey
}

func keyString(k any) string {
	switch v := k.(type) {
	case string:
		return v
	case fmt.Stringer:
		return v.String()
	default:
		return fmt.Sprint(v)
	}
}

// H creates a host element with the given tag.
// Arguments can be: nil, Attr, []Attr, Props, or any child value accepted
// by Normalize.
func H(tag string, args ...any) *Element {
	el := &Element{
		Type:  Type{Kind: KindHost, Tag: tag},
		Props: make(Props),
	}

	var children []any
	for _, arg := range args {
		switch v := arg.(type) {
		case nil:
			continue
		case Attr:
			el.setAttr(v)
		case []Attr:
			for _, a := range v {
				el.setAttr(a)
			}
		case Props:
			for k, val := range v {
				el.setAttr(Attr{Key: k, Value: val})
			}
		default:
			children = append(children, v)
		}
	}

	el.Children = Normalize(children...)
	return el
}

func (e *Element) setAttr(a Attr) {
	switch a.Key {
	case "":
		return
	case PropKey:
		e.Key = keyString(a.Value)
		e.Keyed = true
	case PropChildren:
		// Children are positional arguments.
	default:
		e.Props[a.Key] = a.Value
	}
}

// C creates a component element. A "key" entry in props becomes the
// element key and is not passed to the component; children, if any, are
// normalized into props["children"].
func C(comp *Component, props Props, children ...any) *Element {
	el := &Element{
		Type:  Type{Kind: KindComponent, Comp: comp},
		Props: make(Props, len(props)+1),
	}
	for k, v := range props {
		if k == PropKey {
			el.Key = keyString(v)
			el.Keyed = true
			continue
		}
		el.Props[k] = v
	}
	if len(children) > 0 {
		el.Props[PropChildren] = Normalize(children...)
	}
	return el
}

// Text creates a text element.
func Text(content string) *Element {
	return &Element{
		Type: Type{Kind: KindText},
		Text: content,
	}
}

// Textf creates a formatted text element.
func Textf(format string, args ...any) *Element {
	return Text(fmt.Sprintf(format, args...))
}

// Inline creates a raw markup element.
// Use with caution - the markup is handed to the host unescaped.
func Inline(html string) *Element {
	return &Element{
		Type: Type{Kind: KindInline},
		Text: html,
	}
}

// Keyed returns a copy of el carrying key k.
func Keyed(k any, el *Element) *Element {
	if el == nil {
		return nil
	}
	cp := *el
	cp.Key = keyString(k)
	cp.Keyed = true
	return &cp
}

// If returns the element if condition is true, nil otherwise.
func If(condition bool, el *Element) *Element {
	if condition {
		return el
	}
	return nil
}

// Map renders each item of a slice through fn.
func Map[T any](items []T, fn func(i int, item T) *Element) []*Element {
	out := make([]*Element, 0, len(items))
	for i, item := range items {
		out = append(out, fn(i, item))
	}
	return out
}
