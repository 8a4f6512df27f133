package refine

import (
	"context"
	"errors"
	"fmt"
	"io"
	"sync"

	"golang.org/x/sync/errgroup"

	"github.com/born-ml/bbsga/internal/dataset"
	"github.com/born-ml/bbsga/internal/rng"
)

// Runner refines every batch of a Source.
type Runner struct {
	Refiner *Refiner
	Jobs    int    // Batches refined concurrently; values below 1 mean 1
	Seed    uint64 // Base seed of the per-batch generators
}

// Run pulls batches from src until io.EOF and returns their results in
// batch order. Batch i uses the generator rng.Derive(Seed, i), so results do
// not depend on Jobs. The first error cancels the remaining batches.
func (rn *Runner) Run(ctx context.Context, src dataset.Source) ([]*Result, error) {
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(max(rn.Jobs, 1))

	var mu sync.Mutex
	byBatch := make(map[int]*Result)

	batches := 0
	for ; ; batches++ {
		if gctx.Err() != nil {
			break
		}
		x, err := src.Next()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			g.Go(func() error { return fmt.Errorf("batch %d: %w", batches, err) })
			break
		}

		i := batches
		g.Go(func() error {
			res, err := rn.Refiner.Refine(gctx, i, x, rng.Derive(rn.Seed, i))
			if err != nil {
				return fmt.Errorf("batch %d: %w", i, err)
			}
			mu.Lock()
			byBatch[i] = res
			mu.Unlock()
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return nil, err
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	results := make([]*Result, batches)
	for i := range results {
		results[i] = byBatch[i]
	}
	return results, nil
}
