package fiber

import (
	"github.com/vango-dev/ley/pkg/element"
)

// Tag is the commit disposition of a work-in-progress fiber.
type Tag uint8

const (
	TagNone   Tag = iota
	TagInsert     // Insert (or move) the fiber's nodes after its relation
	TagUpdate     // Reuse in place; re-apply changed props
	TagSkip       // Previous fiber already claimed by a lookahead match
)

// String returns the string representation of the Tag.
func (t Tag) String() string {
	switch t {
	case TagNone:
		return "None"
	case TagInsert:
		return "Insert"
	case TagUpdate:
		return "Update"
	case TagSkip:
		return "Skip"
	default:
		return "Unknown"
	}
}

// Fiber is the mutable shadow record for one rendered position.
type Fiber struct {
	typ      element.Type
	props    element.Props
	children []*element.Element // pending children of host fibers
	text     string
	key      string
	keyed    bool

	node Node

	parent  *Fiber
	child   *Fiber
	sibling *Fiber
	alt     *Fiber

	tag      Tag
	relation *Fiber

	// inst is the stable identity shared by every clone of a component
	// instance (and of a root container).
	inst *Instance
}

// newFiber creates a fresh fiber for a position that has no reusable predecessor.
func newFiber(el *element.Element, parent *Fiber, tag Tag, relation *Fiber) *Fiber {
	f := &Fiber{
		typ:      el.Type,
		props:    el.Props,
		children: el.Children,
		text:     el.Text,
		key:      el.Key,
		keyed:    el.Keyed,
		parent:   parent,
		tag:      tag,
		relation: relation,
	}
	if f.IsComponent() {
		f.inst = newInstance()
	}
	return f
}

// clone creates the successor of alt. When el is nil the pending props of
// alt are carried over.
func clone(alt *Fiber, parent *Fiber, el *element.Element, tag Tag, relation *Fiber) *Fiber {
	f := &Fiber{
		typ:      alt.typ,
		props:    alt.props,
		children: alt.children,
		text:     alt.text,
		key:      alt.key,
		keyed:    alt.keyed,
		node:     alt.node,
		parent:   parent,
		alt:      alt,
		tag:      tag,
		relation: relation,
		inst:     alt.inst,
	}
	if f.parent == nil {
		f.parent = alt.parent
	}
	if el != nil {
		f.props = el.Props
		f.children = el.Children
		f.text = el.Text
	}
	return f
}

// clean drops the per-pass bookkeeping once the fiber is committed.
func clean(f *Fiber) {
	f.alt = nil
	f.tag = TagNone
	f.relation = nil
}

// Type returns the element type this fiber renders.
func (f *Fiber) Type() element.Type { return f.typ }

// Name returns a readable name for the fiber's type.
func (f *Fiber) Name() string {
	if f == nil {
		return ""
	}
	return f.typ.String()
}

// Props returns the props the fiber was last rendered with.
func (f *Fiber) Props() element.Props { return f.props }

// Text returns the text value of text fibers or the markup of inline fibers.
func (f *Fiber) Text() string { return f.text }

// Key returns the identity key and whether the fiber is keyed.
func (f *Fiber) Key() (string, bool) { return f.key, f.keyed }

// Node returns the host node, nil for components.
func (f *Fiber) Node() Node { return f.node }

// Parent returns the parent fiber.
func (f *Fiber) Parent() *Fiber { return f.parent }

// Child returns the first child fiber.
func (f *Fiber) Child() *Fiber { return f.child }

// Sibling returns the next sibling fiber.
func (f *Fiber) Sibling() *Fiber { return f.sibling }

// Alt returns the fiber this one supersedes. Only valid during a pass.
func (f *Fiber) Alt() *Fiber { return f.alt }

// Tag returns the commit disposition. Only valid during a pass.
func (f *Fiber) Tag() Tag { return f.tag }

// Instance returns the stable identity of a component or root fiber.
func (f *Fiber) Instance() *Instance { return f.inst }

// IsComponent reports whether the fiber renders through a component function.
func (f *Fiber) IsComponent() bool { return f.typ.Kind == element.KindComponent }

// Children returns the child fibers in order.
func (f *Fiber) Children() []*Fiber {
	var out []*Fiber
	for c := f.child; c != nil; c = c.sibling {
		out = append(out, c)
	}
	return out
}

// isAncestorOrSelf reports whether a is b or one of b's ancestors.
func isAncestorOrSelf(a, b *Fiber) bool {
	for f := b; f != nil; f = f.parent {
		if f == a {
			return true
		}
	}
	return false
}

// hostParent returns the nearest ancestor host node.
func hostParent(f *Fiber) Node {
	for p := f.parent; p != nil; p = p.parent {
		if p.node != nil {
			return p.node
		}
	}
	return nil
}

// hostNodes returns the nearest non-component nodes of f and its following
// siblings, in order.
func hostNodes(f *Fiber) []Node {
	var nodes []Node
	for ; f != nil; f = f.sibling {
		if f.IsComponent() {
			nodes = append(nodes, hostNodes(f.child)...)
			continue
		}
		if f.node != nil {
			nodes = append(nodes, f.node)
		}
	}
	return nodes
}

// lastHostNode returns the last host node rendered by f alone.
func lastHostNode(f *Fiber) Node {
	if !f.IsComponent() {
		return f.node
	}
	var last Node
	for c := f.child; c != nil; c = c.sibling {
		if n := lastHostNode(c); n != nil {
			last = n
		}
	}
	return last
}
