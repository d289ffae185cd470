package store

import (
	"math/rand"
	"strconv"
	"sync/atomic"
	"testing"
)

// benchmarkTableMix exercises a read/write mix against a warm table with
// a stable key pool (no churn, so the numbers measure the index itself,
// not the collector). RunParallel spawns GOMAXPROCS goroutines.
func benchmarkTableMix(b *testing.B, readsPct int) {
	tb := NewTable[string, string](StringComparator{}, TableOptions[string, string]{})
	b.Cleanup(func() { _ = tb.Close() })

	const poolSize = 1 << 16
	pool := make([]*string, poolSize)
	for i := range pool {
		k := "k:" + strconv.Itoa(i)
		pool[i] = &k
		tb.Set(&k, "v")
	}

	// Report per-op allocations for a rough idea where costs go.
	b.ReportAllocs()
	b.ResetTimer()

	var seed int64 = 1
	b.RunParallel(func(pb *testing.PB) {
		// Independent RNG stream for each worker.
		r := rand.New(rand.NewSource(atomic.AddInt64(&seed, 1)))
		i := 0
		for pb.Next() {
			k := pool[i&(poolSize-1)]
			if r.Intn(100) < readsPct {
				tb.Get(k)
			} else {
				tb.Set(k, "v")
			}
			i++
		}
	})
}

func BenchmarkTable_90r10w(b *testing.B) { benchmarkTableMix(b, 90) }
func BenchmarkTable_50r50w(b *testing.B) { benchmarkTableMix(b, 50) }

// BenchmarkMultiKey_GetHit measures the pure lookup path for two-key
// tuples, including the per-call transient key construction.
func BenchmarkMultiKey_GetHit(b *testing.B) {
	s := New[string](Options[string]{})
	b.Cleanup(func() { _ = s.Close() })

	const poolSize = 1 << 12
	pool := make([]*keyObject, poolSize)
	for i := range pool {
		pool[i] = new(keyObject)
	}
	for i := 0; i < poolSize-1; i++ {
		s.Set("v", KeyOf(pool[i]), KeyOf(pool[i+1]))
	}

	b.ReportAllocs()
	b.ResetTimer()

	b.RunParallel(func(pb *testing.PB) {
		i := 0
		for pb.Next() {
			j := i & (poolSize - 2)
			s.Get(KeyOf(pool[j]), KeyOf(pool[j+1]))
			i++
		}
	})
}
