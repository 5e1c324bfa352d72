package fiber

// Node is an opaque handle supplied by the host adapter.
type Node any

// Host creates and mutates host nodes. The engine calls it only from commit
// (and CreateNode from the render step of host fibers), never concurrently.
type Host interface {
	// CreateNode creates the node for a host, text or inline fiber and
	// applies its initial props.
	CreateNode(f *Fiber) (Node, error)

	// UpdateNode diffs f.Alt().Props() against f.Props() (or the text of
	// text/inline fibers) and applies the deltas to f.Node(). The ref,
	// children and html props are reserved.
	UpdateNode(f *Fiber) error

	// InsertNode inserts node into parent before the given sibling, or
	// appends it when before is nil. Inserting an attached node moves it.
	InsertNode(parent, node, before Node) error

	// RemoveNode detaches node from its parent.
	RemoveNode(node Node) error

	// NextSibling returns the node following node in its parent, or nil.
	NextSibling(node Node) Node
}
