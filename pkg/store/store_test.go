package store

import "testing"

type countingWatcher struct {
	n int
}

func (w *countingWatcher) Notify() { w.n++ }

func TestStoreGetSet(t *testing.T) {
	s := New(1)
	if s.Get() != 1 {
		t.Errorf("Get() = %d, want 1", s.Get())
	}
	s.Set(5)
	if s.Get() != 5 {
		t.Errorf("Get() = %d, want 5", s.Get())
	}
}

func TestStoreNotifiesWatchers(t *testing.T) {
	s := New(0)
	a, b := &countingWatcher{}, &countingWatcher{}
	s.Watch(a)
	s.Watch(b)

	s.Mutate(func(v *int) { *v++ })

	if a.n != 1 || b.n != 1 {
		t.Errorf("notifications = %d, %d, want 1, 1", a.n, b.n)
	}
}

func TestStoreNestedMutationsNotifyOnce(t *testing.T) {
	s := New([]string{})
	w := &countingWatcher{}
	s.Watch(w)

	s.Mutate(func(list *[]string) {
		for _, it := range []string{"a", "b", "c"} {
			s.Mutate(func(l *[]string) { *l = append(*l, it) })
			if s.Depth() != 1 {
				t.Errorf("Depth() inside outer mutation = %d, want 1", s.Depth())
			}
		}
	})

	if w.n != 1 {
		t.Errorf("notifications = %d, want 1", w.n)
	}
	if got := s.Get(); len(got) != 3 {
		t.Errorf("Get() = %v", got)
	}
	if s.Depth() != 0 {
		t.Errorf("Depth() = %d, want 0", s.Depth())
	}
}

func TestStoreMutateIfSuppresses(t *testing.T) {
	s := New(0)
	w := &countingWatcher{}
	s.Watch(w)

	s.MutateIf(func(v *int) bool { return false })
	if w.n != 0 {
		t.Errorf("notifications = %d, want 0", w.n)
	}

	s.MutateIf(func(v *int) bool { *v = 2; return true })
	if w.n != 1 {
		t.Errorf("notifications = %d, want 1", w.n)
	}
}

func TestStoreWatchIsIdempotent(t *testing.T) {
	s := New(0)
	w := &countingWatcher{}
	if !s.Watch(w) {
		t.Error("first Watch should return true")
	}
	if s.Watch(w) {
		t.Error("second Watch should return false")
	}
	s.Set(1)
	if w.n != 1 {
		t.Errorf("notifications = %d, want 1", w.n)
	}

	s.Unwatch(w)
	s.Unwatch(w)
	s.Set(2)
	if w.n != 1 {
		t.Errorf("notifications after Unwatch = %d, want 1", w.n)
	}
	if len(s.Watchers()) != 0 {
		t.Errorf("Watchers() = %d, want 0", len(s.Watchers()))
	}
}

func TestStorePanicRestoresDepth(t *testing.T) {
	s := New(0)
	w := &countingWatcher{}
	s.Watch(w)

	func() {
		defer func() { _ = recover() }()
		s.Mutate(func(v *int) { panic("boom") })
	}()

	if s.Depth() != 0 {
		t.Errorf("Depth() = %d, want 0", s.Depth())
	}
	if w.n != 0 {
		t.Errorf("notifications = %d, want 0", w.n)
	}
	s.Set(1)
	if w.n != 1 {
		t.Errorf("notifications = %d, want 1", w.n)
	}
}

func TestStoreIDsAreUnique(t *testing.T) {
	if New(0).ID() == New(0).ID() {
		t.Error("store IDs should be unique")
	}
}
