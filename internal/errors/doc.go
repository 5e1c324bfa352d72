// Package errors provides structured, coded errors for the ley engine.
//
// Every failure the engine surfaces to its host carries a stable code that
// maps to a short message, a longer explanation and a category:
//   - render: a component function panicked or misused a hook
//   - host: the host adapter failed to create or mutate a node
//   - schedule: an update was requested against an invalid target
//   - config: the configuration file is missing or malformed
//   - cli: command-line usage errors
//
// # Usage
//
//	err := errors.New("E101").
//	    WithComponent("TodoList").
//	    Wrap(cause)
//
//	fmt.Println(err.Format())
//	// Output:
//	// ERROR E101: Component render failed
//	//
//	//   in <TodoList>
//	//
//	//   The component function panicked while rendering. ...
package errors
