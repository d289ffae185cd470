package store

import "context"

// Options configures a store. Zero values are safe; sane defaults are
// applied in the constructors:
//   - nil Metrics  -> NoopMetrics
//   - Shards <= 0  -> auto, rounded up to the next power of two
type Options[V any] struct {
	// Shards defines the number of shards. If 0, an automatic value is
	// chosen (≈ 2*GOMAXPROCS) and rounded to the next power of two.
	Shards int

	// Release is invoked exactly once for every value evicted from the
	// store: by Remove/Clear/Close, by Set replacing it with a different
	// value, or by one of the entry's keys being garbage-collected.
	// Collection-driven calls arrive on a runtime-owned goroutine; keep
	// the hook short, defer heavy work, and do not call back into the
	// store from it. Nil means no hook.
	Release func(v V)

	// OnReleasePanic receives a value recovered from a panicking Release
	// hook. Reclamation continues regardless; nil discards the value.
	OnReleasePanic func(recovered any)

	// Observability
	Metrics Metrics
}

// TableOptions configures a WeakTable. It extends Options with the
// key-typed Loader used by GetOrLoad.
type TableOptions[K, V any] struct {
	Options[V]

	// Loader fetches a value on table miss. Used by GetOrLoad; concurrent
	// loads for the same key object are coalesced (singleflight).
	Loader func(ctx context.Context, k *K) (V, error)
}
