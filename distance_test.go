package umap

import (
	"math"
	"testing"
)

const floatTol = 1e-10

func almostEqual(a, b, tol float64) bool {
	return math.Abs(a-b) <= tol
}

func TestMetrics_HandComputed(t *testing.T) {
	a := []float64{1, 2, 3}
	b := []float64{4, 6, 3}

	tests := []struct {
		name   string
		metric DistanceMetric
		want   float64
	}{
		{"euclidean", EuclideanMetric{}, 5},
		{"manhattan", ManhattanMetric{}, 7},
		{"chebyshev", ChebyshevMetric{}, 4},
		{"minkowski p=1", MinkowskiMetric{P: 1}, 7},
		{"minkowski p=2", MinkowskiMetric{P: 2}, 5},
		{"minkowski p=3", MinkowskiMetric{P: 3}, math.Cbrt(27 + 64)},
		{"cosine", CosineMetric{}, 1 - (4+12+9)/(math.Sqrt(14)*math.Sqrt(61))},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if d := tt.metric.Distance(a, b); !almostEqual(d, tt.want, floatTol) {
				t.Errorf("Distance = %v, want %v", d, tt.want)
			}
			if d := tt.metric.Distance(a, a); !almostEqual(d, 0, floatTol) {
				t.Errorf("Distance(a, a) = %v, want 0", d)
			}
		})
	}
}

func TestMetrics_ReducedDistanceConsistent(t *testing.T) {
	a := []float64{0.5, -1, 2, 7}
	b := []float64{3, 1, -2, 6}
	for _, m := range []DistanceMetric{
		EuclideanMetric{},
		ManhattanMetric{},
		ChebyshevMetric{},
		MinkowskiMetric{P: 3},
		CosineMetric{},
	} {
		d := m.Distance(a, b)
		rd := m.ReducedDistance(a, b)
		if got := m.DistToRdist(d); !almostEqual(got, rd, 1e-9) {
			t.Errorf("%T: DistToRdist(%v) = %v, ReducedDistance = %v", m, d, got, rd)
		}
	}
}

func TestCosineDistance_ZeroVectors(t *testing.T) {
	m := CosineMetric{}
	zero := []float64{0, 0}
	if d := m.Distance(zero, zero); d != 0 {
		t.Errorf("two zero vectors: got %v, want 0", d)
	}
	if d := m.Distance(zero, []float64{1, 0}); d != 1 {
		t.Errorf("zero vs non-zero: got %v, want 1", d)
	}
}

func TestCosineDistance_ParallelNeverNegative(t *testing.T) {
	m := CosineMetric{}
	a := []float64{0.1, 0.2, 0.3}
	b := []float64{0.3, 0.6, 0.9}
	if d := m.Distance(a, b); d < 0 || d > floatTol {
		t.Errorf("parallel vectors: got %v, want ~0 and >= 0", d)
	}
}

func TestDistanceFunc_Adapter(t *testing.T) {
	fn := DistanceFunc(func(a, b []float64) float64 {
		return math.Abs(a[0] - b[0])
	})
	if d := fn.Distance([]float64{1}, []float64{4}); d != 3 {
		t.Errorf("Distance = %v, want 3", d)
	}
	if rd := fn.ReducedDistance([]float64{1}, []float64{4}); rd != 3 {
		t.Errorf("ReducedDistance = %v, want 3", rd)
	}
}

func TestMetricKey(t *testing.T) {
	if metricKey(MinkowskiMetric{P: 3}) == metricKey(MinkowskiMetric{P: 4}) {
		t.Error("Minkowski keys must depend on P")
	}
	if metricKey(EuclideanMetric{}) == metricKey(ManhattanMetric{}) {
		t.Error("distinct metrics share a key")
	}
}
