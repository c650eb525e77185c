package umap

import "fmt"

// NeighborAlgorithm selects the exact nearest-neighbor search strategy.
type NeighborAlgorithm string

const (
	NeighborAuto     NeighborAlgorithm = "auto"
	NeighborBrute    NeighborAlgorithm = "brute"
	NeighborKDTree   NeighborAlgorithm = "kdtree"
	NeighborBallTree NeighborAlgorithm = "balltree"
)

// kdTreeMaxDims is the dimensionality above which "auto" prefers a ball
// tree over a KD-tree.
const kdTreeMaxDims = 16

// ballTreeMaxDims is the dimensionality above which "auto" stops using
// trees at all; pruning is ineffective on uniform data that wide.
const ballTreeMaxDims = 60

// KDTreeValidMetric reports whether the metric supports KD-tree acceleration.
// KD-trees require metrics that decompose along coordinate axes.
func KDTreeValidMetric(m DistanceMetric) bool {
	switch m.(type) {
	case EuclideanMetric, ManhattanMetric, ChebyshevMetric, MinkowskiMetric:
		return true
	default:
		return false
	}
}

// BallTreeValidMetric reports whether the metric supports ball tree
// acceleration. Ball trees need the triangle inequality, which cosine
// distance does not satisfy.
func BallTreeValidMetric(m DistanceMetric) bool {
	switch m.(type) {
	case EuclideanMetric, ManhattanMetric, ChebyshevMetric, MinkowskiMetric:
		return true
	default:
		return false
	}
}

// selectNeighborAlgorithm resolves NeighborAuto into a concrete strategy
// based on the metric and data dimensionality, and validates that forced
// choices are compatible with the metric.
func selectNeighborAlgorithm(cfg Config, dims int) (NeighborAlgorithm, error) {
	algo := cfg.NeighborAlgorithm

	if algo == NeighborAuto {
		switch {
		case KDTreeValidMetric(cfg.Metric) && dims <= kdTreeMaxDims:
			return NeighborKDTree, nil
		case BallTreeValidMetric(cfg.Metric) && dims <= ballTreeMaxDims:
			return NeighborBallTree, nil
		default:
			return NeighborBrute, nil
		}
	}

	switch algo {
	case NeighborKDTree:
		if !KDTreeValidMetric(cfg.Metric) {
			return "", fmt.Errorf("umap: metric %T is not supported by the KD-tree: %w", cfg.Metric, ErrInvalidParameter)
		}
	case NeighborBallTree:
		if !BallTreeValidMetric(cfg.Metric) {
			return "", fmt.Errorf("umap: metric %T is not supported by the ball tree: %w", cfg.Metric, ErrInvalidParameter)
		}
	}
	return algo, nil
}
