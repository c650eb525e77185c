package umap

import (
	"fmt"
	"math"

	"gonum.org/v1/gonum/floats"
)

// DistanceMetric measures dissimilarity between two points in input space.
// ReducedDistance is a cheaper monotone transform of Distance used to prune
// tree searches (e.g. squared Euclidean); DistToRdist converts a true
// distance into that reduced space.
type DistanceMetric interface {
	Distance(a, b []float64) float64
	ReducedDistance(a, b []float64) float64
	DistToRdist(d float64) float64
}

// DistanceFunc adapts a plain function into a DistanceMetric. Custom
// functions are only searched by brute force.
type DistanceFunc func(a, b []float64) float64

func (f DistanceFunc) Distance(a, b []float64) float64        { return f(a, b) }
func (f DistanceFunc) ReducedDistance(a, b []float64) float64 { return f(a, b) }
func (f DistanceFunc) DistToRdist(d float64) float64          { return d }

// EuclideanMetric is the L2 distance. Its reduced distance is the squared
// distance, which orders pairs the same way without the root.
type EuclideanMetric struct{}

func (EuclideanMetric) Distance(a, b []float64) float64 { return floats.Distance(a, b, 2) }

func (EuclideanMetric) ReducedDistance(a, b []float64) float64 {
	var sum float64
	for i, x := range a {
		sum += (x - b[i]) * (x - b[i])
	}
	return sum
}

func (EuclideanMetric) DistToRdist(d float64) float64 { return d * d }

// ManhattanMetric is the L1 (city-block) distance.
type ManhattanMetric struct{}

func (ManhattanMetric) Distance(a, b []float64) float64        { return floats.Distance(a, b, 1) }
func (ManhattanMetric) ReducedDistance(a, b []float64) float64 { return floats.Distance(a, b, 1) }
func (ManhattanMetric) DistToRdist(d float64) float64          { return d }

// ChebyshevMetric is the L-infinity distance.
type ChebyshevMetric struct{}

func (ChebyshevMetric) Distance(a, b []float64) float64 { return floats.Distance(a, b, math.Inf(1)) }
func (c ChebyshevMetric) ReducedDistance(a, b []float64) float64 {
	return c.Distance(a, b)
}
func (ChebyshevMetric) DistToRdist(d float64) float64 { return d }

// MinkowskiMetric is the Lp distance for P >= 1. The reduced distance is
// the p-th power of the distance.
type MinkowskiMetric struct {
	P float64
}

func (m MinkowskiMetric) Distance(a, b []float64) float64 { return floats.Distance(a, b, m.P) }

func (m MinkowskiMetric) ReducedDistance(a, b []float64) float64 {
	var sum float64
	for i, x := range a {
		sum += math.Pow(math.Abs(x-b[i]), m.P)
	}
	return sum
}

func (m MinkowskiMetric) DistToRdist(d float64) float64 { return math.Pow(d, m.P) }

// CosineMetric is 1 - cosine similarity, clamped at 0. Two zero vectors are
// at distance 0 from each other and at distance 1 from everything else.
type CosineMetric struct{}

func (CosineMetric) Distance(a, b []float64) float64 {
	na, nb := floats.Norm(a, 2), floats.Norm(b, 2)
	if na == 0 || nb == 0 {
		if na == nb {
			return 0
		}
		return 1
	}
	return max(0, 1-floats.Dot(a, b)/(na*nb))
}

func (c CosineMetric) ReducedDistance(a, b []float64) float64 { return c.Distance(a, b) }
func (CosineMetric) DistToRdist(d float64) float64            { return d }

// metricKey renders a metric as a stable string for cache keys.
func metricKey(m DistanceMetric) string {
	switch v := m.(type) {
	case EuclideanMetric:
		return "euclidean"
	case ManhattanMetric:
		return "manhattan"
	case ChebyshevMetric:
		return "chebyshev"
	case MinkowskiMetric:
		return fmt.Sprintf("minkowski:%g", v.P)
	case CosineMetric:
		return "cosine"
	case DistanceFunc:
		return fmt.Sprintf("func:%p", v)
	default:
		return fmt.Sprintf("%T:%v", m, m)
	}
}
