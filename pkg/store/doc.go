// Package store provides external state containers that component instances
// can subscribe to.
//
// A Store holds a value of any type. Mutations go through Mutate or
// MutateIf; when the outermost mutation in a call stack returns, every
// subscribed Watcher is notified once. Nested mutations (a mutation that
// calls another mutation of the same store) do not notify on their own:
//
//	todos := store.New([]string{})
//
//	addAll := func(items ...string) {
//	    todos.Mutate(func(list *[]string) {
//	        for _, it := range items {
//	            todos.Mutate(func(l *[]string) { *l = append(*l, it) })
//	        }
//	    })
//	} // watchers notified once, after the outer Mutate returns
//
// Components subscribe with fiber.UseStore; the engine watches on commit
// and unwatches on unmount.
//
// Stores are not safe for concurrent use: like the scheduler, a store is
// owned by the goroutine that runs the engine. Mutations coming from other
// goroutines go through loop.Post.
package store
