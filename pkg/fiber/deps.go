package fiber

import "reflect"

// SameValue reports whether two dependency values are identical.
//
// Comparable values use ==. Maps and channels compare by identity, slices
// by backing array and length. Functions are never identical, so a
// dependency list holding a closure always reruns.
func SameValue(a, b any) (same bool) {
	if a == nil || b == nil {
		return a == nil && b == nil
	}
	va, vb := reflect.ValueOf(a), reflect.ValueOf(b)
	if va.Type() != vb.Type() {
		return false
	}
	switch va.Kind() {
	case reflect.Func:
		return false
	case reflect.Map, reflect.Chan, reflect.UnsafePointer:
		return va.Pointer() == vb.Pointer()
	case reflect.Slice:
		return va.Pointer() == vb.Pointer() && va.Len() == vb.Len()
	}
	if !va.Type().Comparable() {
		return false
	}
	// Interface fields holding uncomparable values still panic.
	defer func() {
		if recover() != nil {
			same = false
		}
	}()
	return a == b
}

// depsEqual compares two dependency lists pairwise. A nil list never
// equals anything.
func depsEqual(prev, next []any) bool {
	if prev == nil || next == nil || len(prev) != len(next) {
		return false
	}
	for i := range prev {
		if !SameValue(prev[i], next[i]) {
			return false
		}
	}
	return true
}

// copyDeps keeps the distinction between nil and empty lists.
func copyDeps(deps []any) []any {
	if deps == nil {
		return nil
	}
	out := make([]any, len(deps))
	copy(out, deps)
	return out
}
