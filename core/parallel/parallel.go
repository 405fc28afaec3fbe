// Package parallel runs row-chunked work across CPU cores. Tree traversal
// for prediction is read-only, so chunks of rows can be evaluated
// independently and written into disjoint output rows.
package parallel

import (
	"context"
	"runtime"

	"golang.org/x/sync/errgroup"
)

// DefaultThreshold is the row count below which work runs inline.
const DefaultThreshold = 2048

// Parallelize splits [0, items) into at most NumCPU contiguous chunks and
// runs fn on each. The first error cancels ctx for the remaining chunks
// and is returned.
func Parallelize(ctx context.Context, items int, fn func(ctx context.Context, start, end int) error) error {
	if items == 0 {
		return nil
	}

	numWorkers := runtime.NumCPU()
	if numWorkers > items {
		numWorkers = items
	}
	chunkSize := (items + numWorkers - 1) / numWorkers

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(numWorkers)
	for start := 0; start < items; start += chunkSize {
		end := start + chunkSize
		if end > items {
			end = items
		}
		s, e := start, end
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			return fn(gctx, s, e)
		})
	}
	return g.Wait()
}

// ParallelizeWithThreshold runs fn(0, items) inline when items <= threshold
// and falls back to Parallelize otherwise.
func ParallelizeWithThreshold(ctx context.Context, items, threshold int, fn func(ctx context.Context, start, end int) error) error {
	if items <= threshold {
		return fn(ctx, 0, items)
	}
	return Parallelize(ctx, items, fn)
}
