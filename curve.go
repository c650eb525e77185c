package umap

import (
	"fmt"
	"math"

	"gonum.org/v1/gonum/optimize"
)

// curveSamples is the number of points at which the target curve is
// sampled on [0, 3*spread].
const curveSamples = 300

// FitAB finds the curve parameters a, b > 0 for which 1/(1 + a·d^(2b))
// best matches, in the least-squares sense, the target membership curve
// that is 1 for d < minDist and exp(-(d - minDist)/spread) beyond.
//
// Smaller minDist yields a steeper curve and lets embedded points pack more
// tightly.
func FitAB(spread, minDist float64) (a, b float64, err error) {
	if spread <= 0 {
		return 0, 0, fmt.Errorf("umap: spread must be > 0, got %g: %w", spread, ErrInvalidParameter)
	}
	if minDist < 0 || minDist > spread {
		return 0, 0, fmt.Errorf("umap: min_dist must be in [0, spread=%g], got %g: %w", spread, minDist, ErrInvalidParameter)
	}

	xs := make([]float64, curveSamples)
	ys := make([]float64, curveSamples)
	for i := range xs {
		xs[i] = 3 * spread * float64(i) / float64(curveSamples-1)
		if xs[i] < minDist {
			ys[i] = 1
		} else {
			ys[i] = math.Exp(-(xs[i] - minDist) / spread)
		}
	}

	// Optimize over (log a, log b) so both stay positive.
	problem := optimize.Problem{
		Func: func(x []float64) float64 {
			a, b := math.Exp(x[0]), math.Exp(x[1])
			var sse float64
			for i, d := range xs {
				r := abCurve(d, a, b) - ys[i]
				sse += r * r
			}
			return sse
		},
	}
	settings := &optimize.Settings{
		MajorIterations: 5000,
		Converger: &optimize.FunctionConverge{
			Absolute:   1e-14,
			Iterations: 200,
		},
	}
	result, err := optimize.Minimize(problem, []float64{0, 0}, settings, &optimize.NelderMead{})
	if result == nil {
		return 0, 0, fmt.Errorf("umap: fitting curve for min_dist=%g: %v: %w", minDist, err, ErrNumericalNonConvergence)
	}
	a, b = math.Exp(result.X[0]), math.Exp(result.X[1])
	if math.IsNaN(a) || math.IsNaN(b) || math.IsInf(a, 0) || math.IsInf(b, 0) {
		return 0, 0, fmt.Errorf("umap: curve fit for min_dist=%g diverged: %w", minDist, ErrNumericalNonConvergence)
	}
	return a, b, nil
}

// abCurve is the low-dimensional membership 1/(1 + a·d^(2b)).
func abCurve(d, a, b float64) float64 {
	return 1 / (1 + a*math.Pow(d, 2*b))
}
