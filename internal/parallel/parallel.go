// Package parallel splits loops over independent items across goroutines.
package parallel

import (
	"runtime"
	"sync"
)

// Config controls parallel execution behavior.
type Config struct {
	Workers  int // Maximum number of goroutines; values below 2 run sequentially.
	MinChunk int // Minimum items per goroutine to avoid overhead.
}

// DefaultConfig uses one worker per available CPU.
func DefaultConfig() Config {
	return WithWorkers(0)
}

// WithWorkers returns the default config limited to n workers.
// n <= 0 means one worker per available CPU.
func WithWorkers(n int) Config {
	if n <= 0 {
		n = runtime.GOMAXPROCS(0)
	}
	return Config{
		Workers:  n,
		MinChunk: 16,
	}
}

// Sequential returns a config that never spawns goroutines.
func Sequential() Config {
	return Config{Workers: 1}
}

// Range calls f on disjoint [start, end) chunks that together cover [0, n).
// Chunks may run concurrently; Range returns once all of them are done.
func Range(n int, cfg Config, f func(start, end int)) {
	if n <= 0 {
		return
	}
	minChunk := max(cfg.MinChunk, 1)
	if cfg.Workers < 2 || n < 2*minChunk {
		f(0, n)
		return
	}

	chunk := max((n+cfg.Workers-1)/cfg.Workers, minChunk)

	var wg sync.WaitGroup
	for start := 0; start < n; start += chunk {
		end := min(start+chunk, n)
		wg.Add(1)
		go func(s, e int) {
			defer wg.Done()
			f(s, e)
		}(start, end)
	}
	wg.Wait()
}

// For executes f(i) for i in [0, n).
func For(n int, cfg Config, f func(i int)) {
	Range(n, cfg, func(start, end int) {
		for i := start; i < end; i++ {
			f(i)
		}
	})
}
