package umap

import (
	"context"

	"golang.org/x/sync/errgroup"
)

// bruteForceKNNParallel computes exact neighbors by scanning all pairs,
// splitting rows into contiguous blocks across numWorkers goroutines. Each
// worker writes only its own rows, so no synchronization is needed for the
// results, and the output is identical to a single-threaded scan.
//
// The context is checked between row blocks.
func bruteForceKNNParallel(ctx context.Context, points *PointMatrix, k int, metric DistanceMetric, numWorkers int) ([][]int, [][]float64, error) {
	n := points.n
	indices := make([][]int, n)
	distances := make([][]float64, n)

	if numWorkers <= 1 || n <= 1 {
		if err := ctx.Err(); err != nil {
			return nil, nil, err
		}
		bruteForceKNN(points, k, metric, 0, n, indices, distances)
		return indices, distances, nil
	}

	// More blocks than workers keeps the tail short when rows cost the same.
	blocks := numWorkers * 4
	rowsPerBlock := max(1, (n+blocks-1)/blocks)

	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(numWorkers)
	for start := 0; start < n; start += rowsPerBlock {
		end := min(start+rowsPerBlock, n)
		g.Go(func() error {
			if err := ctx.Err(); err != nil {
				return err
			}
			bruteForceKNN(points, k, metric, start, end, indices, distances)
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, nil, err
	}
	return indices, distances, nil
}
