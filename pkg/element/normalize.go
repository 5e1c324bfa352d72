package element

import (
	"fmt"
	"reflect"
	"strings"

	"github.com/vango-dev/ley/internal/errors"
)

// Normalize flattens raw children into an ordered list of Elements.
//
//   - nil, booleans and empty strings are dropped
//   - functions are called and their result normalized in place
//   - strings, numbers and Stringers coalesce into adjacent text elements
//   - slices and arrays are flattened, whatever their element type
//   - named booleans, strings and numbers are treated like the builtin ones
//   - inline markup is trimmed; empty markup is dropped and markup not
//     starting with '<' degrades to text
//   - an element whose key was already seen is dropped
//
// The result is never empty: a single empty text element is returned when
// nothing survives. Any other child (a struct, map, channel, ...) panics
// with E004.
func Normalize(raw ...any) []*Element {
	n := normalizer{keys: make(map[string]struct{})}
	for _, r := range raw {
		n.add(r)
	}
	if len(n.out) == 0 {
		return []*Element{Text("")}
	}
	return n.out
}

type normalizer struct {
	out  []*Element
	keys map[string]struct{}
	// owned marks text elements created here, which may be extended in place.
	owned map[*Element]struct{}
}

func (n *normalizer) add(child any) {
	switch v := child.(type) {
	case nil, bool:
		return
	case string:
		n.text(v)
	case int, int8, int16, int32, int64, uint, uint8, uint16, uint32, uint64, float32, float64:
		n.text(fmt.Sprint(v))
	case *Element:
		n.element(v)
	case []*Element:
		for _, c := range v {
			n.element(c)
		}
	case []any:
		for _, c := range v {
			n.add(c)
		}
	case []string:
		for _, c := range v {
			n.text(c)
		}
	case func() any:
		n.add(v())
	case func() *Element:
		n.element(v())
	case func() []*Element:
		for _, c := range v() {
			n.element(c)
		}
	case fmt.Stringer:
		n.text(v.String())
	default:
		n.reflected(reflect.ValueOf(child))
	}
}

// reflected handles children whose dynamic type is not listed in add.
func (n *normalizer) reflected(rv reflect.Value) {
	switch rv.Kind() {
	case reflect.Bool:
		return
	case reflect.String:
		n.text(rv.String())
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64,
		reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64, reflect.Uintptr,
		reflect.Float32, reflect.Float64:
		n.text(fmt.Sprint(rv.Interface()))
	case reflect.Slice, reflect.Array:
		for i := 0; i < rv.Len(); i++ {
			n.add(rv.Index(i).Interface())
		}
	case reflect.Pointer, reflect.Interface:
		if rv.IsNil() {
			return
		}
		n.add(rv.Elem().Interface())
	default:
		panic(errors.New("E004").WithDetail(fmt.Sprintf("A child of type %s cannot be rendered.", rv.Type())))
	}
}

func (n *normalizer) text(s string) {
	if s == "" {
		return
	}
	if last := n.last(); last != nil && last.Type.Kind == KindText && !last.Keyed {
		if _, ok := n.owned[last]; ok {
			last.Text += s
			return
		}
		merged := Text(last.Text + s)
		n.own(merged)
		n.out[len(n.out)-1] = merged
		return
	}
	el := Text(s)
	n.own(el)
	n.out = append(n.out, el)
}

func (n *normalizer) element(el *Element) {
	if el == nil {
		return
	}

	if el.Type.Kind == KindInline {
		html := strings.TrimSpace(el.Text)
		if html == "" {
			return
		}
		if html[0] != '<' {
			before, _, _ := strings.Cut(html, "<")
			n.text(before)
			return
		}
		if html != el.Text {
			cp := *el
			cp.Text = html
			el = &cp
		}
	}

	if el.Keyed {
		if _, dup := n.keys[el.Key]; dup {
			return
		}
		n.keys[el.Key] = struct{}{}
	}

	n.out = append(n.out, el)
}

func (n *normalizer) last() *Element {
	if len(n.out) == 0 {
		return nil
	}
	return n.out[len(n.out)-1]
}

func (n *normalizer) own(el *Element) {
	if n.owned == nil {
		n.owned = make(map[*Element]struct{})
	}
	n.owned[el] = struct{}{}
}
