// Package element provides the immutable description of a node-to-be.
//
// An Element is produced fresh on every render pass, consumed once by the
// reconciler and then discarded. Its Type is a closed sum: a host tag, a
// component, a text leaf or a raw inline markup leaf.
//
// # Element API
//
// Elements are created using variadic factory functions:
//
//	H("ul", Prop("class", "todos"),
//	    H("li", Key("a"), "first"),
//	    H("li", Key("b"), "second"),
//	)
//
// Components are declared once and referenced by pointer:
//
//	var Counter = &Component{Name: "Counter", Render: func(s Scope, p Props) any {
//	    return H("span", p["label"])
//	}}
//
//	C(Counter, Props{"label": "clicks"})
//
// # Normalization
//
// Children of any raw shape (nested slices, functions, strings, numbers,
// nil and booleans) are flattened by Normalize into an ordered list of
// Elements. The list is never empty: a single empty text element stands in
// for "no children" so that the host subtree always keeps a first node.
package element
