package inspect

import (
	"github.com/vango-dev/ley/pkg/element"
	"github.com/vango-dev/ley/pkg/fiber"
	"github.com/vango-dev/ley/pkg/host"
)

// TreeNode is the JSON form of a committed fiber.
type TreeNode struct {
	Name     string      `json:"name"`
	Kind     string      `json:"kind"`
	Key      string      `json:"key,omitempty"`
	Text     string      `json:"text,omitempty"`
	Node     int         `json:"node,omitempty"`
	Hooks    []string    `json:"hooks,omitempty"`
	Children []*TreeNode `json:"children,omitempty"`
}

// Snapshot converts the committed subtree rooted at f. It must run on the
// goroutine that owns the scheduler.
func Snapshot(f *fiber.Fiber) *TreeNode {
	if f == nil {
		return nil
	}
	t := &TreeNode{
		Name: f.Name(),
		Kind: f.Type().Kind.String(),
	}
	if k, ok := f.Key(); ok {
		t.Key = k
	}
	switch f.Type().Kind {
	case element.KindText, element.KindInline:
		t.Text = f.Text()
	}
	if n, ok := f.Node().(*host.Node); ok {
		t.Node = n.ID()
	}
	if f.IsComponent() && f.Instance() != nil {
		t.Hooks = f.Instance().Hooks()
	}
	for c := f.Child(); c != nil; c = c.Sibling() {
		t.Children = append(t.Children, Snapshot(c))
	}
	return t
}
