package store

import "context"

// MultiKeyStore associates a value with an ordered tuple of key objects.
// The association holds only while every key in the tuple is still
// reachable through the caller's own references; as soon as any key is
// garbage-collected the entry is evicted and the value is released.
// Keys are compared by identity, positionally.
//
// All methods are safe for concurrent use by multiple goroutines.
// Reclamation is best-effort and may lag the moment a key becomes
// unreachable; callers needing a synchronous release should use Remove.
type MultiKeyStore[V any] interface {
	// Get returns the value stored under exactly these keys, in this
	// order, and a presence flag. No slot is allocated on a miss.
	Get(keys ...Key) (V, bool)

	// GetOrCreate returns the value stored under the keys, invoking
	// factory to produce it on a miss. factory runs at most once per
	// successful install, inside the index's insertion critical section:
	// keep it short and do not call back into the store from it (the
	// guard is not reentrant). A factory error installs nothing and the
	// Release hook never fires for the failed value.
	GetOrCreate(factory func() (V, error), keys ...Key) (V, error)

	// Set inserts or replaces the value under the keys. On replace the
	// previous value is returned and released, unless it is the same
	// value the caller is reinstalling.
	Set(v V, keys ...Key) (prev V, replaced bool)

	// Remove evicts the entry if present. Returns false if there was no
	// entry, or if a concurrent disposer (another Remove, or the
	// runtime reclaiming a key) won the race.
	Remove(keys ...Key) bool

	// Len returns the number of resident entries across all shards.
	// Entries whose keys have died but whose cleanup has not yet run
	// are still counted.
	Len() int

	// Stats returns a snapshot of the per-shard counters.
	Stats() Stats

	// Close evicts every entry (the Release hook fires once per value)
	// and marks the store closed. Further operations are no-ops.
	Close() error
}

// WeakTable associates a value with a single key object under a
// user-supplied equality relation. The entry survives while the key
// object is reachable; lookup does not require the original key object,
// any key that the Comparator reports equal resolves to the same entry.
//
// All methods are safe for concurrent use by multiple goroutines.
type WeakTable[K, V any] interface {
	// Get returns the value stored under a key equal to k.
	Get(k *K) (V, bool)

	// Add inserts k→v only if no equal key is present.
	// Returns ErrDuplicateKey if one is.
	Add(k *K, v V) error

	// TryAdd is Add with a boolean result instead of an error.
	TryAdd(k *K, v V) bool

	// Set inserts or replaces the value under k. On replace the previous
	// value is returned and released, unless it is the same value the
	// caller is reinstalling.
	Set(k *K, v V) (prev V, replaced bool)

	// GetOrCreate returns the value under k, invoking factory on a miss.
	// Same contract as MultiKeyStore.GetOrCreate.
	GetOrCreate(k *K, factory func() (V, error)) (V, error)

	// GetOrLoad returns the value under k, loading it via the configured
	// Loader on miss. Concurrent loads for the same key object are
	// coalesced (singleflight). If no Loader was configured, returns
	// ErrNoLoader.
	GetOrLoad(ctx context.Context, k *K) (V, error)

	// Remove evicts the entry under k if present.
	Remove(k *K) bool

	// Range calls f for each live entry until f returns false. Each
	// yielded key is a strong reference; a consumer that retains it
	// keeps the entry alive for as long as the reference is held.
	// Iteration order is unspecified; entries inserted or evicted
	// concurrently may or may not be observed.
	Range(f func(k *K, v V) bool)

	// Keys returns strong references to the keys of all live entries.
	Keys() []*K

	// Values returns the values of all live entries.
	Values() []V

	// Clear evicts every entry. Release fires once per value.
	Clear()

	// Len returns the number of resident entries across all shards.
	Len() int

	// Stats returns a snapshot of the per-shard counters.
	Stats() Stats

	// Close clears the table and marks it closed. Further operations
	// are no-ops.
	Close() error
}

// Stats is a point-in-time snapshot of store counters, aggregated across
// shards. Counters are sampled independently, so a snapshot taken under
// concurrent load is approximate.
type Stats struct {
	Hits      int64
	Misses    int64
	Evictions uint64
	Entries   int
}
