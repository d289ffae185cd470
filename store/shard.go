package store

import (
	"sync"

	"github.com/IvanBrykalov/weakstore/internal/util"
)

// shard is an independent partition of the index with its own lock and
// hash-bucketed slot lists. The full 64-bit entry hash is the bucket key,
// so a bucket longer than one slot means a genuine hash collision, a
// non-identity table holding several equal-hash keys, or a slot that is
// mid-reclamation while a replacement is already installed.
type shard[V any] struct {
	// ---- guarded by mu ----
	mu      sync.RWMutex
	buckets map[uint64][]*slot[V]
	len     int // number of resident entries

	// ---- hot counters (separate cache lines to avoid false sharing) ----
	_      util.CacheLinePad
	hits   util.PaddedAtomicInt64
	misses util.PaddedAtomicInt64
	evicts util.PaddedAtomicUint64
}

func newShard[V any]() *shard[V] {
	return &shard[V]{buckets: make(map[uint64][]*slot[V])}
}

// unlinkLocked removes dead from its bucket by slot identity. Removal by
// identity rather than key equality is deliberate: the slot's keys may
// already have been reclaimed, and a replacement slot under an equal key
// must not be disturbed.
func (s *shard[V]) unlinkLocked(dead *slot[V]) {
	b := s.buckets[dead.key.hash]
	for i, sl := range b {
		if sl != dead {
			continue
		}
		last := len(b) - 1
		b[i] = b[last]
		b[last] = nil // drop the stale reference so the slot can be collected
		b = b[:last]
		if len(b) == 0 {
			delete(s.buckets, dead.key.hash)
		} else {
			s.buckets[dead.key.hash] = b
		}
		s.len--
		return
	}
}
