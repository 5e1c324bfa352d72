package host

import "strings"

// NodeKind distinguishes the node variants of the memory host.
type NodeKind uint8

const (
	NodeElement NodeKind = iota // Tagged element with attributes
	NodeText                    // Text leaf
	NodeRaw                     // Raw markup leaf
)

// Node is a node of the memory host's tree. Fields are read-only outside
// the host; read them through Memory when other goroutines render.
type Node struct {
	id       int
	Kind     NodeKind
	Tag      string
	Text     string
	Attrs    map[string]string
	Handlers map[string]any
	Parent   *Node
	Children []*Node
}

// ID returns the node's stable identifier. IDs start at 1.
func (n *Node) ID() int {
	if n == nil {
		return 0
	}
	return n.id
}

// Attr returns the value of an attribute and whether it is set.
func (n *Node) Attr(name string) (string, bool) {
	v, ok := n.Attrs[name]
	return v, ok
}

// TextContent returns the concatenated text of the node's subtree.
func (n *Node) TextContent() string {
	var sb strings.Builder
	n.walk(func(c *Node) bool {
		if c.Kind == NodeText {
			sb.WriteString(c.Text)
		}
		return true
	})
	return sb.String()
}

// Find returns the first descendant element with tag, depth first.
func (n *Node) Find(tag string) *Node {
	var found *Node
	n.walk(func(c *Node) bool {
		if c != n && c.Kind == NodeElement && c.Tag == tag {
			found = c
			return false
		}
		return true
	})
	return found
}

// FindAll returns every descendant element with tag, in document order.
func (n *Node) FindAll(tag string) []*Node {
	var out []*Node
	n.walk(func(c *Node) bool {
		if c != n && c.Kind == NodeElement && c.Tag == tag {
			out = append(out, c)
		}
		return true
	})
	return out
}

// FindByID returns the node with id in n's subtree, n included.
func (n *Node) FindByID(id int) *Node {
	var found *Node
	n.walk(func(c *Node) bool {
		if c.id == id {
			found = c
			return false
		}
		return true
	})
	return found
}

func (n *Node) walk(fn func(*Node) bool) bool {
	if !fn(n) {
		return false
	}
	for _, c := range n.Children {
		if !c.walk(fn) {
			return false
		}
	}
	return true
}

func (n *Node) indexOf(child *Node) int {
	for i, c := range n.Children {
		if c == child {
			return i
		}
	}
	return -1
}

func (n *Node) detach() {
	p := n.Parent
	if p == nil {
		return
	}
	if i := p.indexOf(n); i >= 0 {
		p.Children = append(p.Children[:i], p.Children[i+1:]...)
	}
	n.Parent = nil
}
