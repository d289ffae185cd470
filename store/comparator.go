package store

import (
	"hash/maphash"
	"strings"

	"github.com/cespare/xxhash/v2"
)

// Comparator supplies the equality relation and hash for WeakTable keys.
// Hash and Equal must be consistent: Equal(a, b) implies Hash(a) == Hash(b).
// Both are called only with live, non-nil keys; the table resolves weak
// references before delegating.
type Comparator[K any] interface {
	Hash(k *K) uint64
	Equal(a, b *K) bool
}

// StringComparator compares *string keys by content (case-sensitive).
type StringComparator struct{}

func (StringComparator) Hash(k *string) uint64 { return xxhash.Sum64String(*k) }

func (StringComparator) Equal(a, b *string) bool { return *a == *b }

// FoldedStringComparator compares *string keys case-insensitively.
// Both hash and equality go through strings.ToLower; strings.EqualFold is
// deliberately not used for equality because its folding differs from
// ToLower for a few code points, which would break hash consistency.
type FoldedStringComparator struct{}

func (FoldedStringComparator) Hash(k *string) uint64 {
	return xxhash.Sum64String(strings.ToLower(*k))
}

func (FoldedStringComparator) Equal(a, b *string) bool {
	return strings.ToLower(*a) == strings.ToLower(*b)
}

// BytesComparator compares *[]byte keys by content.
type BytesComparator struct{}

func (BytesComparator) Hash(k *[]byte) uint64 { return xxhash.Sum64(*k) }

func (BytesComparator) Equal(a, b *[]byte) bool { return string(*a) == string(*b) }

// comparableSeed is shared by all ComparableComparator instances so that
// equal values hash equally across tables within one process.
var comparableSeed = maphash.MakeSeed()

// ComparableComparator compares keys of any comparable type by value.
type ComparableComparator[K comparable] struct{}

func (ComparableComparator[K]) Hash(k *K) uint64 {
	return maphash.Comparable(comparableSeed, *k)
}

func (ComparableComparator[K]) Equal(a, b *K) bool { return *a == *b }
