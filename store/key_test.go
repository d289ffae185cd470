package store

import (
	"hash/maphash"
	"runtime"
	"testing"
)

// The tuple hash is order-sensitive: (a, b) and (b, a) land in different
// buckets.
func TestEntryKey_OrderSensitiveHash(t *testing.T) {
	t.Parallel()

	seed := maphash.MakeSeed()
	a, b := new(keyObject), new(keyObject)

	ab := transientKey(seed, []Key{KeyOf(a), KeyOf(b)})
	ba := transientKey(seed, []Key{KeyOf(b), KeyOf(a)})
	if ab.hash == ba.hash {
		t.Fatal("reversed tuples must not collide")
	}

	// The hash is a pure function of the tuple.
	again := transientKey(seed, []Key{KeyOf(a), KeyOf(b)})
	if ab.hash != again.hash {
		t.Fatal("hash must be stable across probes for the same tuple")
	}
	runtime.KeepAlive(a)
	runtime.KeepAlive(b)
}

// The cached hash survives the keys' death, and identity comparison holds
// for live keys across the transient/resident boundary.
func TestEntryKey_ResidentIdentity(t *testing.T) {
	t.Parallel()

	seed := maphash.MakeSeed()
	a, b := new(keyObject), new(keyObject)

	probe := transientKey(seed, []Key{KeyOf(a), KeyOf(b)})
	res := probe.resident()
	if res.hash != probe.hash {
		t.Fatal("resident form must keep the cached hash")
	}
	if res.strong != nil {
		t.Fatal("resident form must not pin the keys")
	}

	probe2 := transientKey(seed, []Key{KeyOf(a), KeyOf(b)})
	if !sameIdentity(&res, &probe2) {
		t.Fatal("resident and transient forms of the same tuple must match")
	}

	other := transientKey(seed, []Key{KeyOf(a), KeyOf(new(keyObject))})
	if sameIdentity(&res, &other) {
		t.Fatal("tuples differing in one position must not match")
	}

	short := transientKey(seed, []Key{KeyOf(a)})
	if sameIdentity(&res, &short) {
		t.Fatal("tuples of different arity must not match")
	}
	runtime.KeepAlive(a)
	runtime.KeepAlive(b)
}

// A resident key whose referent died compares unequal to everything,
// including an identical resident key: the zombie entry turns invisible
// before its removal from the index completes.
func TestEntryKey_DeadKeyNeverMatches(t *testing.T) {
	seed := maphash.MakeSeed()

	// Build the resident forms in a helper so the key and the pinning
	// transient form are unreachable once it returns.
	res, twin := func() (entryKey, entryKey) {
		a := new(keyObject)
		probe := transientKey(seed, []Key{KeyOf(a)})
		return probe.resident(), probe.resident()
	}()
	hash := res.hash

	collectUntil(t, func() bool { return !res.refs[0].Alive() })

	if sameIdentity(&res, &twin) {
		t.Fatal("dead keys must not match, even against their own twin")
	}
	if res.hash != hash {
		t.Fatal("cached hash must survive the key's death")
	}
}
