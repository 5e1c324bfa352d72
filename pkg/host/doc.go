// Package host provides an in-memory host adapter for the fiber engine.
//
// Memory keeps a tree of Nodes with attributes, event handlers and raw
// markup, binds ref props to the node they are attached to and records
// every operation it performs in an Op log. It serves the demo and
// inspector tools and is the host the engine's own tests run against.
//
//	h := host.NewMemory()
//	root := h.NewContainer("main")
//	s := fiber.New(h)
//	s.Render(element.H("p", "hello"), root)
//	h.HTML(root) // <main><p>hello</p></main>
//
// All methods are safe for concurrent use, so the tree and op log can be
// read from other goroutines while the engine's goroutine mutates it.
package host
