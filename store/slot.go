package store

import (
	"runtime"
	"sync/atomic"
)

// Slot lifecycle. A slot enters the index Live, is claimed by exactly one
// disposer (the Live→Dying CAS in dispose), and becomes Gone once it has
// been unlinked from the index and its value released. Gone slots are
// never re-published; the index only ever holds Live and Dying slots.
const (
	stateLive int32 = iota
	stateDying
	stateGone
)

// slot is the stored record for one entry: the resident key, the value,
// the lifecycle state, and the reclamation watches registered on the
// entry's keys. The value field is guarded by the owning shard's lock;
// key and cleanups are immutable once the install critical section ends.
type slot[V any] struct {
	key      entryKey
	val      V
	state    atomic.Int32
	cleanups []runtime.Cleanup
}
