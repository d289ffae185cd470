// Command bench runs a synthetic workload against the weak table and
// exposes optional pprof/Prometheus endpoints. A churn goroutine keeps
// replacing key objects so the garbage collector continuously reclaims
// entries, which is the interesting part of this store.
package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"math/rand"
	"net/http"
	_ "net/http/pprof" // registers /debug/pprof/* on DefaultServeMux
	"runtime"
	"strconv"
	"sync"
	"sync/atomic"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"

	pmet "github.com/IvanBrykalov/weakstore/metrics/prom"
	"github.com/IvanBrykalov/weakstore/store"
)

func main() {
	// ---- Flags ----
	var (
		shards = flag.Int("shards", 0, "number of shards (0=auto)")

		workers  = flag.Int("workers", 2*runtime.GOMAXPROCS(0), "number of worker goroutines")
		duration = flag.Duration("duration", 10*time.Second, "benchmark duration")
		readPct  = flag.Int("reads", 80, "read percentage [0..100]")

		keys      = flag.Int("keys", 100_000, "key pool size")
		churn     = flag.Duration("churn", 5*time.Millisecond, "interval between key replacements (0 = no churn)")
		zipfS     = flag.Float64("zipf_s", 1.1, "Zipf s > 1 (skew)")
		zipfV     = flag.Float64("zipf_v", 1.0, "Zipf v")
		seed      = flag.Int64("seed", time.Now().UnixNano(), "random seed")
		gcEvery   = flag.Duration("gc", 200*time.Millisecond, "forced GC interval (0 = GC on its own)")
		pprofAddr = flag.String("pprof", "", "serve pprof at addr (e.g. :6060); empty = disabled")
		httpAddr  = flag.String("http", ":8080", "serve Prometheus metrics at addr")
	)
	flag.Parse()

	// ---- pprof server (on DefaultServeMux) ----
	if *pprofAddr != "" {
		go func() {
			log.Printf("pprof: serving at %s", *pprofAddr)
			log.Println(http.ListenAndServe(*pprofAddr, nil))
		}()
	}

	// ---- Prometheus metrics (on DefaultServeMux) ----
	metrics := pmet.New(nil, "weakstore", "bench", nil)
	http.Handle("/metrics", promhttp.Handler())
	go func() {
		log.Printf("metrics: serving at %s", *httpAddr)
		log.Println(http.ListenAndServe(*httpAddr, nil))
	}()

	// ---- Build table ----
	var released uint64
	t := store.NewTable[string, string](store.StringComparator{},
		store.TableOptions[string, string]{
			Options: store.Options[string]{
				Shards:  *shards,
				Metrics: metrics,
				Release: func(string) { atomic.AddUint64(&released, 1) },
			},
		})
	defer func() { _ = t.Close() }()

	// ---- Key pool: strong references the workload reads through.
	// The churn goroutine swaps entries for fresh objects, making the old
	// key objects unreachable so their entries get collected.
	pool := make([]atomic.Pointer[string], *keys)
	for i := range pool {
		k := "k:" + strconv.Itoa(i)
		pool[i].Store(&k)
		t.Set(&k, "v"+strconv.Itoa(i))
	}

	ctx, cancel := context.WithTimeout(context.Background(), *duration)
	defer cancel()

	if *churn > 0 {
		go func() {
			r := rand.New(rand.NewSource(*seed ^ 0x5eed))
			tick := time.NewTicker(*churn)
			defer tick.Stop()
			for {
				select {
				case <-ctx.Done():
					return
				case <-tick.C:
					i := r.Intn(len(pool))
					k := "k:" + strconv.Itoa(i)
					pool[i].Store(&k)
					t.Set(&k, "v"+strconv.Itoa(r.Int()))
				}
			}
		}()
	}
	if *gcEvery > 0 {
		go func() {
			tick := time.NewTicker(*gcEvery)
			defer tick.Stop()
			for {
				select {
				case <-ctx.Done():
					return
				case <-tick.C:
					runtime.GC()
				}
			}
		}()
	}

	// ---- Load generation ----
	var reads, writes, hits, misses, total uint64

	start := time.Now()
	var wg sync.WaitGroup
	wg.Add(*workers)
	for w := 0; w < *workers; w++ {
		go func(id int) {
			defer wg.Done()

			// Each worker gets its own RNG + Zipf (rand.Rand is NOT goroutine-safe).
			localR := rand.New(rand.NewSource(*seed + int64(id)*9973))
			localZipf := rand.NewZipf(localR, *zipfS, *zipfV, uint64(len(pool)-1))

			for {
				select {
				case <-ctx.Done():
					return
				default:
				}

				atomic.AddUint64(&total, 1)
				i := int(localZipf.Uint64())
				k := pool[i].Load()
				if int(localR.Int31n(100)) < *readPct {
					atomic.AddUint64(&reads, 1)
					if _, ok := t.Get(k); ok {
						atomic.AddUint64(&hits, 1)
					} else {
						atomic.AddUint64(&misses, 1)
					}
				} else {
					atomic.AddUint64(&writes, 1)
					t.Set(k, "v"+strconv.Itoa(localR.Int()))
				}
			}
		}(w)
	}
	wg.Wait()
	elapsed := time.Since(start)

	// ---- Report ----
	ops := atomic.LoadUint64(&total)
	readsN := atomic.LoadUint64(&reads)
	hitsN := atomic.LoadUint64(&hits)
	missesN := atomic.LoadUint64(&misses)

	hitRate := 0.0
	if readsN > 0 {
		hitRate = float64(hitsN) / float64(readsN) * 100
	}

	st := t.Stats()
	fmt.Printf("shards=%d workers=%d keys=%d churn=%v dur=%v seed=%d\n",
		*shards, *workers, *keys, *churn, elapsed, *seed)
	fmt.Printf("ops=%d (%.0f ops/s)  reads=%d  writes=%d\n",
		ops, float64(ops)/elapsed.Seconds(), readsN, atomic.LoadUint64(&writes))
	fmt.Printf("hits=%d  misses=%d  hit-rate=%.2f%%\n", hitsN, missesN, hitRate)
	fmt.Printf("Len()=%d  evictions=%d  released=%d\n",
		t.Len(), st.Evictions, atomic.LoadUint64(&released))
}
