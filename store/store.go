package store

import (
	"hash/maphash"
	"reflect"
	"runtime"
	"sync/atomic"

	"github.com/IvanBrykalov/weakstore/internal/util"
)

// ErrNoLoader is returned by GetOrLoad when no Loader was configured in
// TableOptions.
var ErrNoLoader = errorsNew("weakstore: no Loader provided")

// ErrDuplicateKey is returned by WeakTable.Add when an equal key is
// already present.
var ErrDuplicateKey = errorsNew("weakstore: key already present")

// ErrClosed is returned by GetOrCreate and GetOrLoad on a closed store.
var ErrClosed = errorsNew("weakstore: store is closed")

// lightweight local errors.New to avoid importing std 'errors' everywhere
func errorsNew(s string) error { return &strErr{s} }

type strErr struct{ s string }

func (e *strErr) Error() string { return e.s }

// core implements the index machinery shared by MultiKeyStore and
// WeakTable: sharded hash buckets, the dispose protocol, and the metrics
// plumbing. The two containers differ only in how entry keys are hashed
// and matched, which they supply through the match functor.
type core[V any] struct {
	shards []*shard[V]
	seed   maphash.Seed
	match  func(a, b *entryKey) bool
	closed atomic.Bool

	opt Options[V]
}

// newCore applies the Options defaults and builds the shard array.
func newCore[V any](opt Options[V], match func(a, b *entryKey) bool) *core[V] {
	if opt.Metrics == nil {
		opt.Metrics = NoopMetrics{}
	}
	sh := opt.Shards
	if sh <= 0 {
		sh = util.ReasonableShardCount()
	} else {
		sh = int(util.NextPow2(uint64(sh)))
	}
	c := &core[V]{
		shards: make([]*shard[V], sh),
		seed:   maphash.MakeSeed(),
		match:  match,
		opt:    opt,
	}
	for i := range c.shards {
		c.shards[i] = newShard[V]()
	}
	return c
}

// shardFor picks a shard from a cached entry hash.
// len(c.shards) is guaranteed to be a power of two.
func (c *core[V]) shardFor(hash uint64) *shard[V] {
	return c.shards[util.ShardIndex(hash, len(c.shards))]
}

// findLocked returns the Live slot matching ek, or nil. Slots already
// claimed by a disposer are skipped rather than terminating the scan: an
// explicitly removed slot may sit in the bucket with live keys for a
// moment, alongside its freshly installed replacement.
func (c *core[V]) findLocked(sh *shard[V], ek *entryKey) *slot[V] {
	for _, s := range sh.buckets[ek.hash] {
		if s.state.Load() != stateLive {
			continue
		}
		if c.match(&s.key, ek) {
			return s
		}
	}
	return nil
}

// get returns the value under ek. The value is read under the shard read
// lock while the slot is still Live, which serializes the read against
// dispose's clear-and-release: a released value can never be observed.
func (c *core[V]) get(ek *entryKey) (V, bool) {
	sh := c.shardFor(ek.hash)
	sh.mu.RLock()
	s := c.findLocked(sh, ek)
	var v V
	if s != nil {
		v = s.val
	}
	sh.mu.RUnlock()
	runtime.KeepAlive(ek.strong)

	if s == nil {
		sh.misses.Add(1)
		c.opt.Metrics.Miss()
		return v, false
	}
	sh.hits.Add(1)
	c.opt.Metrics.Hit()
	return v, true
}

// bindFunc registers reclamation watches for every key of a new slot and
// returns their handles. Supplied by the container, invoked inside the
// install critical section.
type bindFunc func(onAnyKeyDead func()) []runtime.Cleanup

// installLocked publishes a new Live slot under ek and arranges for any
// key's death to dispose it. Runs with the shard write lock held, so a
// watch firing immediately (the caller dropped its last strong reference
// right away) blocks in dispose until the install is complete.
func (c *core[V]) installLocked(sh *shard[V], ek *entryKey, v V, bind bindFunc) *slot[V] {
	s := &slot[V]{key: ek.resident(), val: v}
	sh.buckets[ek.hash] = append(sh.buckets[ek.hash], s)
	sh.len++
	s.cleanups = bind(func() { c.dispose(s, EvictCollected) })
	c.opt.Metrics.Size(sh.len)
	return s
}

// getOrInsert implements GetOrCreate: a single critical section covers the
// re-check, the factory call, and the install, so the factory runs at most
// once per successful install.
func (c *core[V]) getOrInsert(ek *entryKey, factory func() (V, error), bind bindFunc) (V, error) {
	sh := c.shardFor(ek.hash)
	sh.mu.Lock()
	if s := c.findLocked(sh, ek); s != nil {
		v := s.val
		sh.mu.Unlock()
		runtime.KeepAlive(ek.strong)
		sh.hits.Add(1)
		c.opt.Metrics.Hit()
		return v, nil
	}
	v, err := factory()
	if err != nil {
		sh.mu.Unlock()
		var zero V
		return zero, err
	}
	c.installLocked(sh, ek, v, bind)
	sh.mu.Unlock()
	runtime.KeepAlive(ek.strong)
	sh.misses.Add(1)
	c.opt.Metrics.Miss()
	return v, nil
}

// add installs ek→v only if no live equal entry exists.
func (c *core[V]) add(ek *entryKey, v V, bind bindFunc) bool {
	sh := c.shardFor(ek.hash)
	sh.mu.Lock()
	if s := c.findLocked(sh, ek); s != nil {
		sh.mu.Unlock()
		runtime.KeepAlive(ek.strong)
		return false
	}
	c.installLocked(sh, ek, v, bind)
	sh.mu.Unlock()
	runtime.KeepAlive(ek.strong)
	return true
}

// set installs or replaces the value under ek. A replace swaps the value
// in place under the shard lock and releases the old value afterwards,
// unless the caller reinstalled the very same value.
func (c *core[V]) set(ek *entryKey, v V, bind bindFunc) (V, bool) {
	sh := c.shardFor(ek.hash)
	sh.mu.Lock()
	if s := c.findLocked(sh, ek); s != nil {
		old := s.val
		s.val = v
		sh.mu.Unlock()
		runtime.KeepAlive(ek.strong)
		if !sameValue(old, v) {
			c.opt.Metrics.Evict(EvictReplaced)
			c.release(old)
		}
		return old, true
	}
	c.installLocked(sh, ek, v, bind)
	sh.mu.Unlock()
	runtime.KeepAlive(ek.strong)
	var zero V
	return zero, false
}

// removeKey disposes the entry under ek if present. Returns false when no
// entry exists or a concurrent disposer won.
func (c *core[V]) removeKey(ek *entryKey) (V, bool) {
	sh := c.shardFor(ek.hash)
	sh.mu.RLock()
	s := c.findLocked(sh, ek)
	sh.mu.RUnlock()
	runtime.KeepAlive(ek.strong)
	if s == nil {
		var zero V
		return zero, false
	}
	return c.dispose(s, EvictExplicit)
}

// dispose is the single exit path for a slot. Explicit removal, Clear and
// Close, and the reclamation watches all funnel here; the Live→Dying CAS
// admits exactly one of them, which is what makes Release at-most-once
// per slot.
//
// Ordering: the CAS precedes the index unlink, so a concurrent lookup
// either still finds the slot (and skips it as non-Live, or fails the key
// match because a weak ref already expired) or misses it entirely. It can
// never observe a slot whose value has been handed to Release.
func (c *core[V]) dispose(s *slot[V], reason EvictReason) (V, bool) {
	var zero V
	if !s.state.CompareAndSwap(stateLive, stateDying) {
		return zero, false
	}
	sh := c.shardFor(s.key.hash)
	sh.mu.Lock()
	sh.unlinkLocked(s)
	old := s.val
	s.val = zero
	n := sh.len
	sh.mu.Unlock()

	// Cancel the remaining watches. A watch that is firing right now is
	// the caller of this dispose or has already lost the CAS; stopping
	// it is a no-op.
	for _, cl := range s.cleanups {
		cl.Stop()
	}

	sh.evicts.Add(1)
	c.opt.Metrics.Evict(reason)
	c.opt.Metrics.Size(n)
	c.release(old)
	s.state.Store(stateGone)
	return old, true
}

// clear disposes every resident slot. Slots are collected under the read
// lock and disposed outside it; the CAS gate absorbs any race with
// concurrent disposers.
func (c *core[V]) clear(reason EvictReason) {
	for _, sh := range c.shards {
		sh.mu.RLock()
		slots := make([]*slot[V], 0, sh.len)
		for _, b := range sh.buckets {
			slots = append(slots, b...)
		}
		sh.mu.RUnlock()
		for _, s := range slots {
			c.dispose(s, reason)
		}
	}
}

// lenAll returns the total number of resident entries across all shards.
func (c *core[V]) lenAll() int {
	total := 0
	for _, sh := range c.shards {
		sh.mu.RLock()
		total += sh.len
		sh.mu.RUnlock()
	}
	return total
}

// stats aggregates the per-shard counters.
func (c *core[V]) stats() Stats {
	var st Stats
	for _, sh := range c.shards {
		st.Hits += sh.hits.Load()
		st.Misses += sh.misses.Load()
		st.Evictions += sh.evicts.Load()
		sh.mu.RLock()
		st.Entries += sh.len
		sh.mu.RUnlock()
	}
	return st
}

// release invokes the user hook, isolating panics so that a reclamation
// pass can never abort with other pending slots untouched. The recovered
// value is forwarded to OnReleasePanic when configured.
func (c *core[V]) release(v V) {
	if c.opt.Release == nil {
		return
	}
	defer func() {
		if r := recover(); r != nil && c.opt.OnReleasePanic != nil {
			c.opt.OnReleasePanic(r)
		}
	}()
	c.opt.Release(v)
}

// sameValue reports whether old and new box the same value; Set uses it
// to skip Release when a caller reinstalls the value already stored.
// Values of a non-comparable dynamic type never count as the same.
func sameValue[V any](a, b V) bool {
	av, bv := any(a), any(b)
	if av == nil || bv == nil {
		return av == nil && bv == nil
	}
	if !reflect.TypeOf(av).Comparable() {
		return false
	}
	return av == bv
}
