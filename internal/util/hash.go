// Package util contains internal helpers (hash folding, sharding, padding).
//revive:disable:var-naming  // allow 'util' as an internal helpers package name
package util

// 64-bit FNV-1a parameters, used to fold per-key hashes into a tuple hash.
const (
	// HashOffset64 is the FNV-1a offset basis; tuple hashing starts here.
	HashOffset64 uint64 = 14695981039346656037
	hashPrime64  uint64 = 1099511628211
)

// Combine64 folds the 8 little-endian bytes of k into the running FNV-1a
// hash h and returns the result. Folding is order-sensitive:
// Combine64(Combine64(o, a), b) differs from Combine64(Combine64(o, b), a),
// so tuples that differ only in key order hash differently.
func Combine64(h, k uint64) uint64 {
	for i := 0; i < 8; i++ {
		h ^= uint64(byte(k))
		h *= hashPrime64
		k >>= 8
	}
	return h
}
