package store

import (
	"context"
	"runtime"

	"github.com/IvanBrykalov/weakstore/internal/refs"
	"github.com/IvanBrykalov/weakstore/internal/singleflight"
)

// table implements WeakTable on top of the shared core, with hashing and
// equality delegated to the user Comparator. Two distinct key objects
// that compare equal address the same entry, so a transient probe never
// needs to be the stored key.
type table[K, V any] struct {
	core *core[V]
	cmp  Comparator[K]
	opt  TableOptions[K, V]

	// singleflight group for coalescing concurrent loads in GetOrLoad.
	sf singleflight.Group[*K, V]
}

// NewTable constructs a WeakTable keyed by cmp's equality relation.
func NewTable[K, V any](cmp Comparator[K], opt TableOptions[K, V]) WeakTable[K, V] {
	if cmp == nil {
		panic("weakstore: nil comparator")
	}
	t := &table[K, V]{cmp: cmp, opt: opt}
	t.core = newCore(opt.Options, t.matchKeys)
	return t
}

// matchKeys resolves both sides to strong references and defers to the
// user comparator. A reclaimed key on either side compares unequal, so a
// slot whose key died is invisible before its removal completes; the
// comparator itself only ever sees live keys.
func (t *table[K, V]) matchKeys(a, b *entryKey) bool {
	if a == b {
		return true
	}
	ka, ok := a.load(0)
	if !ok {
		return false
	}
	kb, ok := b.load(0)
	if !ok {
		return false
	}
	return t.cmp.Equal(ka.(*K), kb.(*K))
}

// probe builds a transient entry key for k. The hash comes from the
// comparator and is cached for the slot's whole lifetime, so the slot can
// still be unlinked from its bucket after k has been reclaimed.
func (t *table[K, V]) probe(k *K) entryKey {
	if k == nil {
		panic("weakstore: nil key")
	}
	return entryKey{
		hash:   t.cmp.Hash(k),
		strong: []any{k},
		refs:   []refs.Ref{refs.Make(k)},
	}
}

func (t *table[K, V]) bind(k *K) bindFunc {
	return func(onKeyDead func()) []runtime.Cleanup {
		return []runtime.Cleanup{refs.Watch(k, onKeyDead)}
	}
}

func (t *table[K, V]) Get(k *K) (V, bool) {
	if t.core.closed.Load() {
		var zero V
		return zero, false
	}
	ek := t.probe(k)
	return t.core.get(&ek)
}

func (t *table[K, V]) Add(k *K, v V) error {
	if !t.TryAdd(k, v) {
		return ErrDuplicateKey
	}
	return nil
}

func (t *table[K, V]) TryAdd(k *K, v V) bool {
	if t.core.closed.Load() {
		return false
	}
	ek := t.probe(k)
	return t.core.add(&ek, v, t.bind(k))
}

func (t *table[K, V]) Set(k *K, v V) (V, bool) {
	if t.core.closed.Load() {
		var zero V
		return zero, false
	}
	ek := t.probe(k)
	return t.core.set(&ek, v, t.bind(k))
}

func (t *table[K, V]) GetOrCreate(k *K, factory func() (V, error)) (V, error) {
	if factory == nil {
		panic("weakstore: nil factory")
	}
	if t.core.closed.Load() {
		var zero V
		return zero, ErrClosed
	}
	ek := t.probe(k)
	return t.core.getOrInsert(&ek, factory, t.bind(k))
}

// GetOrLoad returns the value for k; on miss it loads via Loader,
// coalescing concurrent loads for the same key object (singleflight).
// If no Loader is configured, returns ErrNoLoader.
func (t *table[K, V]) GetOrLoad(ctx context.Context, k *K) (V, error) {
	// fast path
	if v, ok := t.Get(k); ok {
		return v, nil
	}
	if t.core.closed.Load() {
		var zero V
		return zero, ErrClosed
	}
	if t.opt.Loader == nil {
		var zero V
		return zero, ErrNoLoader
	}

	// singleflight: exactly one real load for the key
	return t.sf.Do(ctx, k, func() (V, error) {
		// double-check after flight join
		if v, ok := t.Get(k); ok {
			return v, nil
		}
		v, err := t.opt.Loader(ctx, k)
		if err == nil {
			t.Set(k, v)
		}
		return v, err
	})
}

func (t *table[K, V]) Remove(k *K) bool {
	if t.core.closed.Load() {
		return false
	}
	ek := t.probe(k)
	_, ok := t.core.removeKey(&ek)
	return ok
}

// Range yields (key, value) snapshots of live entries, shard by shard.
// Keys are materialized strongly for the duration of the callback; a
// consumer that stashes them pins the corresponding entries for as long
// as the references are held.
func (t *table[K, V]) Range(f func(k *K, v V) bool) {
	if t.core.closed.Load() {
		return
	}
	type pair struct {
		k *K
		v V
	}
	for _, sh := range t.core.shards {
		sh.mu.RLock()
		snap := make([]pair, 0, sh.len)
		for _, b := range sh.buckets {
			for _, s := range b {
				if s.state.Load() != stateLive {
					continue
				}
				kp, ok := s.key.refs[0].Load()
				if !ok {
					continue
				}
				snap = append(snap, pair{kp.(*K), s.val})
			}
		}
		sh.mu.RUnlock()
		for _, p := range snap {
			if !f(p.k, p.v) {
				return
			}
		}
	}
}

func (t *table[K, V]) Keys() []*K {
	var ks []*K
	t.Range(func(k *K, _ V) bool {
		ks = append(ks, k)
		return true
	})
	return ks
}

func (t *table[K, V]) Values() []V {
	var vs []V
	t.Range(func(_ *K, v V) bool {
		vs = append(vs, v)
		return true
	})
	return vs
}

func (t *table[K, V]) Clear() {
	if t.core.closed.Load() {
		return
	}
	t.core.clear(EvictExplicit)
}

func (t *table[K, V]) Len() int { return t.core.lenAll() }

func (t *table[K, V]) Stats() Stats { return t.core.stats() }

// Close clears the table and marks it closed.
func (t *table[K, V]) Close() error {
	if t.core.closed.CompareAndSwap(false, true) {
		t.core.clear(EvictExplicit)
	}
	return nil
}
