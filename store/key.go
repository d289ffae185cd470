package store

import (
	"hash/maphash"
	"runtime"

	"github.com/IvanBrykalov/weakstore/internal/refs"
	"github.com/IvanBrykalov/weakstore/internal/util"
)

// Key is a capsule around one user key object for MultiKeyStore calls.
// It pins the object for as long as the Key value itself is held, so a
// probe can never race with the collection of its own key. Build one with
// KeyOf at each call site; Keys are cheap and not meant to be retained.
type Key struct {
	strong any
	ref    refs.Ref
	watch  func(fn func()) runtime.Cleanup
}

// KeyOf wraps the object p points to as a store Key.
// p must be non-nil; a nil key has no reachability to track.
func KeyOf[T any](p *T) Key {
	if p == nil {
		panic("weakstore: nil key")
	}
	return Key{
		strong: p,
		ref:    refs.Make(p),
		watch: func(fn func()) runtime.Cleanup {
			return refs.Watch(p, fn)
		},
	}
}

// entryKey is the hashable surrogate that indexes a slot. It exists in two
// forms. The transient form, built at API entry, pins the user keys via
// strong references and is only ever used to probe the index. The resident
// form, attached to an installed slot, drops the pins and keeps the weak
// refs plus the cached hash, so the index never extends a key's lifetime
// and the hash outlives the keys themselves.
type entryKey struct {
	hash   uint64
	strong []any // nil once resident
	refs   []refs.Ref
}

// transientKey builds a probe key from the caller's key tuple. The hash is
// an order-sensitive fold of per-key identity hashes, computed once here
// and reused for the slot's whole lifetime.
func transientKey(seed maphash.Seed, keys []Key) entryKey {
	if len(keys) == 0 {
		panic("weakstore: empty key tuple")
	}
	ek := entryKey{
		strong: make([]any, len(keys)),
		refs:   make([]refs.Ref, len(keys)),
	}
	h := util.HashOffset64
	for i, k := range keys {
		if k.ref == nil {
			panic("weakstore: zero Key; construct keys with KeyOf")
		}
		ek.strong[i] = k.strong
		ek.refs[i] = k.ref
		h = util.Combine64(h, k.ref.Hash(seed))
	}
	ek.hash = h
	return ek
}

// resident returns the index form of ek: same refs and cached hash,
// no strong pins.
func (ek *entryKey) resident() entryKey {
	return entryKey{hash: ek.hash, refs: ek.refs}
}

// load resolves position i to a strong reference, or false if the key has
// been reclaimed. Transient keys always resolve.
func (ek *entryKey) load(i int) (any, bool) {
	if ek.strong != nil {
		return ek.strong[i], true
	}
	return ek.refs[i].Load()
}

// sameIdentity reports positional identity equality between a and b.
// A reclaimed key on either side makes the keys unequal regardless of
// identity; that is what keeps a dying slot invisible to lookups before
// its removal from the index completes.
func sameIdentity(a, b *entryKey) bool {
	if a == b {
		return true
	}
	if len(a.refs) != len(b.refs) {
		return false
	}
	for i := range a.refs {
		if !a.refs[i].Same(b.refs[i]) {
			return false
		}
		if a.strong == nil && !a.refs[i].Alive() {
			return false
		}
		if b.strong == nil && !b.refs[i].Alive() {
			return false
		}
	}
	return true
}
