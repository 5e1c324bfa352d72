// Package demo contains the sample applications served by "ley demo".
//
// Each demo is a component tree that exercises one part of the engine:
//
//   - counter: local state, handlers and deferred effects
//   - list: a keyed list backed by a store, with reorder operations that
//     move host nodes instead of recreating them
//   - clock: a store ticked from loop timers and read by both an ancestor
//     and a descendant component
package demo
