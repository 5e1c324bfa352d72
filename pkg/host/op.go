package host

import "fmt"

// OpKind is the type of host operation.
type OpKind uint8

const (
	OpCreate        OpKind = 0x01 // Create a node
	OpSetAttr       OpKind = 0x02 // Set/update attribute
	OpRemoveAttr    OpKind = 0x03 // Remove attribute
	OpSetText       OpKind = 0x04 // Update text or raw markup
	OpInsert        OpKind = 0x05 // Insert or move a node
	OpRemove        OpKind = 0x06 // Detach a node
	OpSetHandler    OpKind = 0x07 // Bind an event handler
	OpRemoveHandler OpKind = 0x08 // Unbind an event handler
)

// String returns the string representation of the OpKind.
func (k OpKind) String() string {
	switch k {
	case OpCreate:
		return "Create"
	case OpSetAttr:
		return "SetAttr"
	case OpRemoveAttr:
		return "RemoveAttr"
	case OpSetText:
		return "SetText"
	case OpInsert:
		return "Insert"
	case OpRemove:
		return "Remove"
	case OpSetHandler:
		return "SetHandler"
	case OpRemoveHandler:
		return "RemoveHandler"
	default:
		return "Unknown"
	}
}

// MarshalText implements encoding.TextMarshaler.
func (k OpKind) MarshalText() ([]byte, error) {
	return []byte(k.String()), nil
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (k *OpKind) UnmarshalText(b []byte) error {
	for c := OpCreate; c <= OpRemoveHandler; c++ {
		if c.String() == string(b) {
			*k = c
			return nil
		}
	}
	return fmt.Errorf("host: unknown op kind %q", b)
}

// Op is a single recorded host operation.
type Op struct {
	Kind   OpKind `json:"op"`
	Node   int    `json:"node"`             // Target node ID
	Parent int    `json:"parent,omitempty"` // Insert only
	Before int    `json:"before,omitempty"` // Insert only; 0 appends
	Key    string `json:"key,omitempty"`    // Attribute or event name
	Value  string `json:"value,omitempty"`  // New value, tag or text
}

// IsMutation reports whether the op changed the attached tree or a node's
// content. Creating a detached node is not a mutation.
func (o Op) IsMutation() bool {
	return o.Kind != OpCreate
}

// String returns a compact description, e.g. "Insert 4 into 1 before 3".
func (o Op) String() string {
	switch o.Kind {
	case OpCreate:
		return fmt.Sprintf("Create %d %s", o.Node, o.Value)
	case OpSetAttr:
		return fmt.Sprintf("SetAttr %d %s=%q", o.Node, o.Key, o.Value)
	case OpRemoveAttr, OpSetHandler, OpRemoveHandler:
		return fmt.Sprintf("%s %d %s", o.Kind, o.Node, o.Key)
	case OpSetText:
		return fmt.Sprintf("SetText %d %q", o.Node, o.Value)
	case OpInsert:
		if o.Before == 0 {
			return fmt.Sprintf("Insert %d into %d", o.Node, o.Parent)
		}
		return fmt.Sprintf("Insert %d into %d before %d", o.Node, o.Parent, o.Before)
	case OpRemove:
		return fmt.Sprintf("Remove %d", o.Node)
	default:
		return "Unknown"
	}
}

// Mutations filters ops down to those that changed the tree.
func Mutations(ops []Op) []Op {
	var out []Op
	for _, o := range ops {
		if o.IsMutation() {
			out = append(out, o)
		}
	}
	return out
}

// Count returns how many ops are of kind k.
func Count(ops []Op, k OpKind) int {
	n := 0
	for _, o := range ops {
		if o.Kind == k {
			n++
		}
	}
	return n
}
