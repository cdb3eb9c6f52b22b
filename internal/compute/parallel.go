package compute

import (
	"context"

	"golang.org/x/sync/errgroup"
)

// ParallelFor runs fn over [0, n) split into contiguous chunks of at least
// minChunk elements, at most workers at a time. Chunks are disjoint, so fn may
// write to its own range without locking. A cancelled ctx stops chunks that
// have not started yet.
func ParallelFor(ctx context.Context, n, minChunk, workers int, fn func(start, end int)) error {
	if n == 0 {
		return ctx.Err()
	}
	if minChunk < 1 {
		minChunk = 1
	}
	if n <= minChunk || workers <= 1 {
		if err := ctx.Err(); err != nil {
			return err
		}
		fn(0, n)
		return nil
	}

	if n/minChunk < workers {
		workers = n / minChunk
	}
	chunkSize := (n + workers - 1) / workers

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(workers)

	for start := 0; start < n; start += chunkSize {
		end := min(start+chunkSize, n)
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			fn(start, end)
			return nil
		})
	}

	return g.Wait()
}
