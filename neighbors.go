package umap

import (
	"context"
	"fmt"
)

// NeighborGraph holds, for every point, its K nearest neighbors in input
// space. Indices[i] and Distances[i] are sorted by ascending distance with
// ties broken by lower index, and never contain i itself.
type NeighborGraph struct {
	Indices   [][]int
	Distances [][]float64
	K         int
}

// N returns the number of points in the graph.
func (g *NeighborGraph) N() int { return len(g.Indices) }

// validateNeighbors checks the neighbor count against the point count.
func validateNeighbors(n, nNeighbors int) error {
	if n < 2 {
		return fmt.Errorf("umap: need at least 2 points to build a neighbor graph, got %d: %w", n, ErrInsufficientData)
	}
	if nNeighbors < 2 {
		return fmt.Errorf("umap: n_neighbors must be >= 2, got %d: %w", nNeighbors, ErrInvalidParameter)
	}
	if nNeighbors > n-1 {
		return fmt.Errorf("umap: n_neighbors must be <= %d for %d points, got %d: %w", n-1, n, nNeighbors, ErrInvalidParameter)
	}
	return nil
}

// BuildNeighborGraph computes the exact nNeighbors nearest neighbors of every
// point. It fails with ErrInsufficientData for fewer than 2 points and with
// ErrInvalidParameter unless 2 <= nNeighbors <= N-1.
func BuildNeighborGraph(points *PointMatrix, nNeighbors int, cfg Config) (*NeighborGraph, error) {
	cfg, err := prepareConfig(cfg)
	if err != nil {
		return nil, err
	}
	return buildNeighborGraph(context.Background(), points, nNeighbors, cfg)
}

func buildNeighborGraph(ctx context.Context, points *PointMatrix, nNeighbors int, cfg Config) (*NeighborGraph, error) {
	if points == nil {
		return nil, fmt.Errorf("umap: nil point matrix: %w", ErrInsufficientData)
	}
	if err := validateNeighbors(points.n, nNeighbors); err != nil {
		return nil, err
	}

	algo, err := selectNeighborAlgorithm(cfg, points.dims)
	if err != nil {
		return nil, err
	}

	var indices [][]int
	var distances [][]float64
	switch algo {
	case NeighborKDTree:
		indices, distances = NewKDTree(points, cfg.Metric, cfg.LeafSize).QueryKNN(nNeighbors)
	case NeighborBallTree:
		indices, distances = NewBallTree(points, cfg.Metric, cfg.LeafSize).QueryKNN(nNeighbors)
	default:
		indices, distances, err = bruteForceKNNParallel(ctx, points, nNeighbors, cfg.Metric, cfg.Workers)
		if err != nil {
			return nil, err
		}
	}

	return &NeighborGraph{Indices: indices, Distances: distances, K: nNeighbors}, nil
}

// bruteForceKNN scans all pairs for rows [start, end).
func bruteForceKNN(points *PointMatrix, k int, metric DistanceMetric, start, end int, indices [][]int, distances [][]float64) {
	h := make(neighborHeap, 0, k)
	for i := start; i < end; i++ {
		query := points.Row(i)
		for j := 0; j < points.n; j++ {
			if j == i {
				continue
			}
			h.offer(neighborItem{index: j, dist: metric.Distance(query, points.Row(j))}, k)
		}
		indices[i], distances[i] = h.drain()
	}
}
