// Package refs wraps the runtime's weak-reference machinery behind a
// type-erased interface, so a single slot type can hold weak references
// to keys of heterogeneous pointer types.
package refs

import (
	"hash/maphash"
	"runtime"
	"weak"
)

// Ref is a type-erased weak reference to a heap object. A Ref never keeps
// its referent alive.
//
// Identity survives reclamation: Same continues to answer correctly, and
// Hash keeps returning the same value, after the referent is collected.
// This relies on the documented guarantee that two weak.Pointer values
// created from the same pointer compare equal even once the object is gone.
type Ref interface {
	// Load returns a strong reference to the referent,
	// or false if it has been reclaimed.
	Load() (any, bool)

	// Alive reports whether the referent is still reachable.
	Alive() bool

	// Same reports whether other refers to the same object.
	Same(other Ref) bool

	// Hash returns a seed-keyed identity hash of the referent.
	Hash(seed maphash.Seed) uint64
}

// Make wraps the object ptr points to as a Ref. ptr must be non-nil.
func Make[T any](ptr *T) Ref { return ref[T]{weak.Make(ptr)} }

// Watch registers fn to run on a runtime-owned goroutine once the object
// ptr points to becomes unreachable. The returned handle cancels the
// registration.
//
// fn must not reference the object (directly or through anything it
// captures); the runtime would otherwise consider the object reachable
// and never run fn.
func Watch[T any](ptr *T, fn func()) runtime.Cleanup {
	return runtime.AddCleanup(ptr, func(struct{}) { fn() }, struct{}{})
}

type ref[T any] struct{ p weak.Pointer[T] }

func (r ref[T]) Load() (any, bool) {
	if p := r.p.Value(); p != nil {
		return p, true
	}
	return nil, false
}

func (r ref[T]) Alive() bool { return r.p.Value() != nil }

func (r ref[T]) Same(other Ref) bool {
	o, ok := other.(ref[T])
	return ok && o.p == r.p
}

func (r ref[T]) Hash(seed maphash.Seed) uint64 {
	return maphash.Comparable(seed, r.p)
}
