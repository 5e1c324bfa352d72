package host

import (
	"fmt"
	"sort"
	"sync"

	"github.com/vango-dev/ley/internal/errors"
	"github.com/vango-dev/ley/pkg/element"
	"github.com/vango-dev/ley/pkg/fiber"
)

// Memory is an in-memory fiber.Host.
type Memory struct {
	mu      sync.Mutex
	nextID  int
	ops     []Op
	subs    map[int]func(Op)
	nextSub int
}

var _ fiber.Host = (*Memory)(nil)

// NewMemory creates an empty memory host.
func NewMemory() *Memory {
	return &Memory{
		subs: make(map[int]func(Op)),
	}
}

// NewContainer creates a detached element to render into. It is not
// recorded in the op log.
func (m *Memory) NewContainer(tag string) *Node {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.newNode(NodeElement, tag, "")
}

func (m *Memory) newNode(kind NodeKind, tag, text string) *Node {
	m.nextID++
	return &Node{
		id:   m.nextID,
		Kind: kind,
		Tag:  tag,
		Text: text,
	}
}

// CreateNode implements fiber.Host.
func (m *Memory) CreateNode(f *fiber.Fiber) (fiber.Node, error) {
	m.mu.Lock()
	var n *Node
	var pending []Op
	switch f.Type().Kind {
	case element.KindText:
		n = m.newNode(NodeText, "", f.Text())
		pending = m.record(pending, Op{Kind: OpCreate, Node: n.id, Value: "#text"})
	case element.KindInline:
		n = m.newNode(NodeRaw, "", f.Text())
		pending = m.record(pending, Op{Kind: OpCreate, Node: n.id, Value: "#inline"})
	case element.KindHost:
		if existing, ok := f.Props()[element.PropHTML].(*Node); ok {
			n = existing
		} else {
			n = m.newNode(NodeElement, f.Type().Tag, "")
			pending = m.record(pending, Op{Kind: OpCreate, Node: n.id, Value: n.Tag})
		}
		pending = m.apply(pending, n, nil, f.Props())
	default:
		m.mu.Unlock()
		return nil, errors.Newf(errors.CategoryHost, "cannot create a node for %s", f.Name())
	}
	m.mu.Unlock()
	m.publish(pending)
	return n, nil
}

// UpdateNode implements fiber.Host.
func (m *Memory) UpdateNode(f *fiber.Fiber) error {
	n, err := asNode(f.Node())
	if err != nil {
		return err
	}
	var prev element.Props
	if alt := f.Alt(); alt != nil {
		prev = alt.Props()
	}

	m.mu.Lock()
	var pending []Op
	if n.Kind != NodeElement {
		if n.Text != f.Text() {
			n.Text = f.Text()
			pending = m.record(pending, Op{Kind: OpSetText, Node: n.id, Value: n.Text})
		}
	} else {
		pending = m.apply(pending, n, prev, f.Props())
	}
	m.mu.Unlock()
	m.publish(pending)
	return nil
}

// apply diffs prev against next onto n. Refs are rebound, handlers
// replaced and unchanged attribute values skipped.
func (m *Memory) apply(pending []Op, n *Node, prev, next element.Props) []Op {
	for _, k := range sortedKeys(prev) {
		v := prev[k]
		switch {
		case element.IsReservedProp(k):
		case k == element.PropRef:
			if r, ok := v.(*element.Ref); ok && next[k] != v {
				r.Current = nil
			}
		case element.IsEventProp(k):
			if _, ok := next[k]; !ok {
				delete(n.Handlers, k)
				pending = m.record(pending, Op{Kind: OpRemoveHandler, Node: n.id, Key: k})
			}
		default:
			if _, ok := next[k]; !ok {
				pending = m.removeAttr(pending, n, k)
			}
		}
	}

	for _, k := range sortedKeys(next) {
		v := next[k]
		switch {
		case element.IsReservedProp(k):
		case k == element.PropRef:
			if r, ok := v.(*element.Ref); ok {
				r.Current = n
			}
		case element.IsEventProp(k):
			if n.Handlers == nil {
				n.Handlers = make(map[string]any)
			}
			n.Handlers[k] = v
			pending = m.record(pending, Op{Kind: OpSetHandler, Node: n.id, Key: k})
		default:
			if pv, ok := prev[k]; ok && fiber.SameValue(pv, v) {
				continue
			}
			switch val := v.(type) {
			case nil:
				pending = m.removeAttr(pending, n, k)
			case bool:
				if val {
					pending = m.setAttr(pending, n, k, "")
				} else {
					pending = m.removeAttr(pending, n, k)
				}
			default:
				pending = m.setAttr(pending, n, k, attrToString(v))
			}
		}
	}
	return pending
}

func (m *Memory) setAttr(pending []Op, n *Node, k, v string) []Op {
	if cur, ok := n.Attrs[k]; ok && cur == v {
		return pending
	}
	if n.Attrs == nil {
		n.Attrs = make(map[string]string)
	}
	n.Attrs[k] = v
	return m.record(pending, Op{Kind: OpSetAttr, Node: n.id, Key: k, Value: v})
}

func (m *Memory) removeAttr(pending []Op, n *Node, k string) []Op {
	if _, ok := n.Attrs[k]; !ok {
		return pending
	}
	delete(n.Attrs, k)
	return m.record(pending, Op{Kind: OpRemoveAttr, Node: n.id, Key: k})
}

// InsertNode implements fiber.Host. An attached node is moved.
func (m *Memory) InsertNode(parent, node, before fiber.Node) error {
	p, err := asNode(parent)
	if err != nil {
		return err
	}
	n, err := asNode(node)
	if err != nil {
		return err
	}
	var b *Node
	if before != nil {
		if b, err = asNode(before); err != nil {
			return err
		}
	}
	if p.Kind != NodeElement {
		return errors.Newf(errors.CategoryHost, "node %d cannot have children", p.id)
	}

	m.mu.Lock()
	n.detach()
	i := len(p.Children)
	if b != nil {
		if j := p.indexOf(b); j >= 0 {
			i = j
		} else {
			b = nil
		}
	}
	p.Children = append(p.Children, nil)
	copy(p.Children[i+1:], p.Children[i:])
	p.Children[i] = n
	n.Parent = p
	pending := m.record(nil, Op{Kind: OpInsert, Node: n.id, Parent: p.id, Before: b.ID()})
	m.mu.Unlock()
	m.publish(pending)
	return nil
}

// RemoveNode implements fiber.Host.
func (m *Memory) RemoveNode(node fiber.Node) error {
	n, err := asNode(node)
	if err != nil {
		return err
	}
	m.mu.Lock()
	if n.Parent == nil {
		m.mu.Unlock()
		return errors.Newf(errors.CategoryHost, "node %d is not attached", n.id)
	}
	n.detach()
	pending := m.record(nil, Op{Kind: OpRemove, Node: n.id})
	m.mu.Unlock()
	m.publish(pending)
	return nil
}

// NextSibling implements fiber.Host.
func (m *Memory) NextSibling(node fiber.Node) fiber.Node {
	n, ok := node.(*Node)
	if !ok || n == nil {
		return nil
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	p := n.Parent
	if p == nil {
		return nil
	}
	i := p.indexOf(n)
	if i < 0 || i+1 >= len(p.Children) {
		return nil
	}
	return p.Children[i+1]
}

// Dispatch calls the handler bound to event on n. It reports whether a
// handler was found. Handlers of type func() and func(any) are supported;
// arg is passed to the latter.
func (m *Memory) Dispatch(n *Node, event string, arg any) bool {
	key := element.On(event, nil).Key
	m.mu.Lock()
	h := n.Handlers[key]
	m.mu.Unlock()

	switch fn := h.(type) {
	case func():
		fn()
	case func(any):
		fn(arg)
	default:
		return false
	}
	return true
}

// Ops returns a copy of the op log.
func (m *Memory) Ops() []Op {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]Op, len(m.ops))
	copy(out, m.ops)
	return out
}

// Reset clears the op log.
func (m *Memory) Reset() {
	m.mu.Lock()
	m.ops = nil
	m.mu.Unlock()
}

// Subscribe calls fn for every op recorded from now on, on the goroutine
// that performed it. The returned function cancels the subscription.
func (m *Memory) Subscribe(fn func(Op)) (cancel func()) {
	m.mu.Lock()
	m.nextSub++
	id := m.nextSub
	m.subs[id] = fn
	m.mu.Unlock()
	return func() {
		m.mu.Lock()
		delete(m.subs, id)
		m.mu.Unlock()
	}
}

// record appends op to the log; callers hold m.mu and publish the returned
// ops after unlocking.
func (m *Memory) record(pending []Op, op Op) []Op {
	m.ops = append(m.ops, op)
	return append(pending, op)
}

func (m *Memory) publish(ops []Op) {
	if len(ops) == 0 {
		return
	}
	m.mu.Lock()
	subs := make([]func(Op), 0, len(m.subs))
	for _, fn := range m.subs {
		subs = append(subs, fn)
	}
	m.mu.Unlock()
	for _, op := range ops {
		for _, fn := range subs {
			fn(op)
		}
	}
}

func asNode(n fiber.Node) (*Node, error) {
	node, ok := n.(*Node)
	if !ok || node == nil {
		return nil, errors.Newf(errors.CategoryHost, "not a memory node: %T", n)
	}
	return node, nil
}

func sortedKeys(p element.Props) []string {
	keys := make([]string, 0, len(p))
	for k := range p {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// attrToString converts an attribute value to a string.
func attrToString(value any) string {
	switch v := value.(type) {
	case string:
		return v
	case fmt.Stringer:
		return v.String()
	case int:
		return fmt.Sprintf("%d", v)
	case int64:
		return fmt.Sprintf("%d", v)
	case float64:
		return fmt.Sprintf("%g", v)
	default:
		return fmt.Sprintf("%v", v)
	}
}
