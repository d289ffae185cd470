package store

import (
	"runtime"
	"strings"
	"testing"
)

// Fuzz basic Set/Get/Remove semantics of the weak table under arbitrary
// string keys and values. Guards against panics and checks that content
// equality holds across distinct key objects.
// NOTE: key/value lengths are capped to avoid pathological memory usage
// during fuzzing (this does not weaken the invariants we check).
func FuzzTable_SetGetRemove(f *testing.F) {
	// Seed corpus: empty, ASCII, Unicode, long strings.
	f.Add("", "")
	f.Add("a", "1")
	f.Add("b", "2")
	f.Add("αβγ", "δ")
	f.Add("emoji🙂", "🙂🙂")
	f.Add("long", strings.Repeat("x", 1024))

	f.Fuzz(func(t *testing.T, k, v string) {
		const limit = 1 << 12 // 4096
		if len(k) > limit {
			k = k[:limit]
		}
		if len(v) > limit {
			v = v[:limit]
		}

		tb := NewTable[string, string](StringComparator{}, TableOptions[string, string]{})
		t.Cleanup(func() { _ = tb.Close() })

		// Set -> Get through a distinct-but-equal key object.
		tb.Set(&k, v)
		alias := strings.Clone(k)
		got, ok := tb.Get(&alias)
		if !ok || got != v {
			t.Fatalf("after Set/Get: want %q, got %q ok=%v", v, got, ok)
		}
		if tb.Len() != 1 {
			t.Fatalf("Len want 1, got %d", tb.Len())
		}

		// Remove through the alias deletes the entry.
		if !tb.Remove(&alias) {
			t.Fatal("Remove must be true")
		}
		if _, ok := tb.Get(&k); ok {
			t.Fatal("key must be absent after Remove")
		}
		if tb.Len() != 0 {
			t.Fatalf("Len want 0, got %d", tb.Len())
		}
		runtime.KeepAlive(&k)
	})
}
