// Package parallel runs independent work items on a bounded number of
// goroutines.
//
// Work items must not share mutable state; callers write results into
// per-item slots and reduce them afterwards, so results do not depend on
// scheduling.
package parallel

import (
	"runtime"
	"sync"
)

// Config controls parallel execution.
type Config struct {
	Enabled      bool // Run on multiple goroutines
	NumWorkers   int  // Upper bound on goroutines
	MinChunkSize int  // Minimum items per goroutine
}

// DefaultConfig returns a configuration for cheap per-item work, based on
// the CPU count.
func DefaultConfig() Config {
	n := runtime.NumCPU()
	return Config{
		Enabled:      n > 1,
		NumWorkers:   n,
		MinChunkSize: 64,
	}
}

// HeavyConfig returns a configuration for items that each take long enough
// to be worth a goroutine of their own, such as whole image planes.
func HeavyConfig() Config {
	cfg := DefaultConfig()
	cfg.MinChunkSize = 1
	return cfg
}

// For calls f(i) for every i in [0, n) and returns when all calls are done.
// It runs sequentially when parallelism is disabled or n is below
// MinChunkSize.
func For(n int, f func(i int), cfg Config) {
	workers := max(cfg.NumWorkers, 1)
	if !cfg.Enabled || workers == 1 || n < max(cfg.MinChunkSize, 1)*2 {
		for i := 0; i < n; i++ {
			f(i)
		}
		return
	}

	chunk := max((n+workers-1)/workers, cfg.MinChunkSize, 1)
	var wg sync.WaitGroup
	for start := 0; start < n; start += chunk {
		end := min(start+chunk, n)
		wg.Add(1)
		go func() {
			defer wg.Done()
			for i := start; i < end; i++ {
				f(i)
			}
		}()
	}
	wg.Wait()
}

// ForBatch calls f for every (batch, channel) pair.
func ForBatch(batch, channels int, f func(b, c int), cfg Config) {
	For(batch*channels, func(k int) {
		f(k/channels, k%channels)
	}, cfg)
}
