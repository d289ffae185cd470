// Package store provides weak associative containers: a multi-key store
// that binds a value to an ordered tuple of key objects, and a weak table
// that binds a value to a single key under user-defined equality. In both,
// the association lives exactly as long as the keys do: storing a value
// never extends a key's lifetime, and once a key is garbage-collected the
// entry is evicted and its value released through a user hook.
//
// Design
//
//   - Concurrency: the index is split into shards, each protected by an
//     RWMutex. The default shard count is chosen by a heuristic
//     (ReasonableShardCount) and is a power of two. The cached 64-bit
//     entry hash selects both the shard and the bucket.
//
//   - Storage: each shard keeps hash-keyed buckets of slot pointers.
//     A slot records the value, weak references to its keys, and an
//     atomic lifecycle state (Live → Dying → Gone). Go maps cannot carry
//     custom equality, so buckets hold short slices scanned with the
//     container's match function.
//
//   - Weak keys: built on the runtime's weak.Pointer and
//     runtime.AddCleanup. Each key of an entry carries a reclamation
//     watch; when any key becomes unreachable its watch fires and the
//     entry is disposed. The per-entry hash is computed at insert and
//     cached, so a slot can still be unlinked from its bucket after its
//     keys are gone, and a slot with a dead key compares unequal to every
//     probe, making it invisible to lookups even before removal completes.
//
//   - Disposal: explicit removal, Clear/Close, and the reclamation
//     watches all funnel into one dispose path guarded by a state CAS, so
//     the Release hook runs exactly once per evicted value, no matter how
//     many disposers race. Replacement does not dispose the slot: Set
//     swaps the value in place under the shard lock and releases the old
//     value, unless the same value is being reinstalled.
//
//   - GetOrLoad: the weak table can coalesce concurrent loads for the
//     same key using singleflight. If Loader is nil, GetOrLoad returns
//     ErrNoLoader.
//
//   - Metrics: Options.Metrics receives Hit/Miss/Evict/Size signals.
//     By default NoopMetrics is used; plug the Prometheus adapter from
//     metrics/prom to export them.
//
// Basic usage
//
//	// A value held while both of its keys are alive.
//	s := store.New[string](store.Options[string]{})
//	k1, k2 := new(Conn), new(Session)
//	s.Set("attached", store.KeyOf(k1), store.KeyOf(k2))
//	if v, ok := s.Get(store.KeyOf(k1), store.KeyOf(k2)); ok {
//	    _ = v // use value
//	}
//	// Once k1 or k2 becomes unreachable the entry goes away on its own.
//
// Weak table with non-identity lookup
//
//	t := store.NewTable[string, int](store.FoldedStringComparator{},
//	    store.TableOptions[string, int]{})
//	name := "Hello"
//	t.Set(&name, 1)
//	probe := "HELLO"
//	v, ok := t.Get(&probe) // ok == true, v == 1
//
// Release hook
//
//	s := store.New[*Buffer](store.Options[*Buffer]{
//	    Release: func(b *Buffer) { b.Free() },
//	})
//
// Collection-driven eviction runs on a runtime-owned goroutine, so the
// Release hook is effectively asynchronous; callers that need a
// synchronous release should call Remove (or Set with a new value)
// themselves. A value that strongly references one of its own keys pins
// that key and defeats reclamation; the runtime cannot detect this for
// you.
//
// Thread-safety & complexity
//
// All methods are safe for concurrent use. Typical operation cost is O(1)
// expected time: one bucket lookup plus a scan of a (nearly always
// single-element) collision list under a shard lock.
package store
