package store

import "runtime"

// multiKey implements MultiKeyStore on top of the shared core with
// positional identity matching.
type multiKey[V any] struct {
	core *core[V]
}

// New constructs a MultiKeyStore with the provided Options.
func New[V any](opt Options[V]) MultiKeyStore[V] {
	m := &multiKey[V]{}
	m.core = newCore(opt, sameIdentity)
	return m
}

// bindAll registers one reclamation watch per key of the tuple. Any
// single key's death fires its watch, and the dispose gate turns the
// n watches into the required "evict when ANY key dies" semantics
// without an n-way liveness primitive.
func bindAll(keys []Key) bindFunc {
	return func(onAnyKeyDead func()) []runtime.Cleanup {
		cls := make([]runtime.Cleanup, len(keys))
		for i, k := range keys {
			cls[i] = k.watch(onAnyKeyDead)
		}
		return cls
	}
}

func (m *multiKey[V]) Get(keys ...Key) (V, bool) {
	if m.core.closed.Load() {
		var zero V
		return zero, false
	}
	ek := transientKey(m.core.seed, keys)
	return m.core.get(&ek)
}

func (m *multiKey[V]) GetOrCreate(factory func() (V, error), keys ...Key) (V, error) {
	if factory == nil {
		panic("weakstore: nil factory")
	}
	if m.core.closed.Load() {
		var zero V
		return zero, ErrClosed
	}
	ek := transientKey(m.core.seed, keys)
	return m.core.getOrInsert(&ek, factory, bindAll(keys))
}

func (m *multiKey[V]) Set(v V, keys ...Key) (V, bool) {
	if m.core.closed.Load() {
		var zero V
		return zero, false
	}
	ek := transientKey(m.core.seed, keys)
	return m.core.set(&ek, v, bindAll(keys))
}

func (m *multiKey[V]) Remove(keys ...Key) bool {
	if m.core.closed.Load() {
		return false
	}
	ek := transientKey(m.core.seed, keys)
	_, ok := m.core.removeKey(&ek)
	return ok
}

func (m *multiKey[V]) Len() int { return m.core.lenAll() }

func (m *multiKey[V]) Stats() Stats { return m.core.stats() }

// Close evicts every entry and marks the store closed.
// Entries evicted here are reported as EvictExplicit.
func (m *multiKey[V]) Close() error {
	if m.core.closed.CompareAndSwap(false, true) {
		m.core.clear(EvictExplicit)
	}
	return nil
}
