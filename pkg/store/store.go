package store

import "sync/atomic"

// Watcher is notified after a store mutation completes.
type Watcher interface {
	Notify()
}

// Subscribable is implemented by every store type.
type Subscribable interface {
	// Watch adds w to the watcher set. It returns false if w was already watching.
	Watch(w Watcher) bool
	// Unwatch removes w from the watcher set.
	Unwatch(w Watcher)
}

var idCounter uint64

func nextID() uint64 {
	return atomic.AddUint64(&idCounter, 1)
}

// Store is an observable value cell.
//
// A Store is not safe for concurrent use. It belongs to the goroutine that
// runs the engine its watchers render in; other goroutines hand mutations
// to that goroutine (loop.Post) instead of calling the store directly.
type Store[T any] struct {
	id uint64

	value T
	depth int

	// watchers preserves subscription order; set gives O(1) membership.
	watchers []Watcher
	set      map[Watcher]struct{}
}

// New creates a store holding initial.
func New[T any](initial T) *Store[T] {
	return &Store[T]{
		id:    nextID(),
		value: initial,
		set:   make(map[Watcher]struct{}),
	}
}

// ID returns the unique identifier for this store.
func (s *Store[T]) ID() uint64 {
	return s.id
}

// Get returns the current value.
func (s *Store[T]) Get() T {
	return s.value
}

// Set replaces the value and notifies watchers.
func (s *Store[T]) Set(v T) {
	s.Mutate(func(p *T) { *p = v })
}

// Mutate runs fn against the stored value. Watchers are notified after the
// outermost Mutate/MutateIf returns.
func (s *Store[T]) Mutate(fn func(*T)) {
	s.MutateIf(func(p *T) bool {
		fn(p)
		return true
	})
}

// MutateIf is Mutate where fn reports whether anything changed. Returning
// false from the outermost call suppresses the notification.
//
// fn may call back into the store; the depth counter keeps nested calls
// from notifying.
func (s *Store[T]) MutateIf(fn func(*T) bool) {
	s.depth++
	changed := false
	defer func() {
		s.depth--
		if s.depth == 0 && changed {
			s.notify()
		}
	}()

	changed = fn(&s.value)
}

// Depth returns the current mutation nesting depth.
func (s *Store[T]) Depth() int {
	return s.depth
}

// Watch implements Subscribable.
func (s *Store[T]) Watch(w Watcher) bool {
	if _, ok := s.set[w]; ok {
		return false
	}
	s.set[w] = struct{}{}
	s.watchers = append(s.watchers, w)
	return true
}

// Unwatch implements Subscribable.
func (s *Store[T]) Unwatch(w Watcher) {
	if _, ok := s.set[w]; !ok {
		return
	}
	delete(s.set, w)
	for i, x := range s.watchers {
		if x == w {
			s.watchers = append(s.watchers[:i], s.watchers[i+1:]...)
			return
		}
	}
}

// Watchers returns a snapshot of the current watchers in subscription order.
func (s *Store[T]) Watchers() []Watcher {
	return append([]Watcher(nil), s.watchers...)
}

func (s *Store[T]) notify() {
	for _, w := range s.Watchers() {
		w.Notify()
	}
}
