package umap

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFitAB_KnownValues(t *testing.T) {
	// Reference values from the least-squares fit of the standard curve.
	a, b, err := FitAB(1.0, 0.1)
	require.NoError(t, err)
	assert.InDelta(t, 1.577, a, 0.02)
	assert.InDelta(t, 0.895, b, 0.01)
}

func TestFitAB_CurveShape(t *testing.T) {
	for _, minDist := range []float64{0, 0.05, 0.25, 0.5, 0.99} {
		a, b, err := FitAB(1.0, minDist)
		require.NoError(t, err, "min_dist=%g", minDist)
		assert.Greater(t, a, 0.0)
		assert.Greater(t, b, 0.0)
		// The fitted curve starts at 1 and decays.
		assert.InDelta(t, 1.0, abCurve(0, a, b), 1e-12)
		assert.Less(t, abCurve(3, a, b), abCurve(minDist+0.01, a, b))
	}

	// Larger minDist keeps memberships high further out.
	aTight, bTight, _ := FitAB(1.0, 0.0)
	aLoose, bLoose, _ := FitAB(1.0, 0.8)
	assert.Greater(t, abCurve(0.8, aLoose, bLoose), abCurve(0.8, aTight, bTight))
}

func TestFitAB_InvalidParameters(t *testing.T) {
	_, _, err := FitAB(0, 0.1)
	assert.ErrorIs(t, err, ErrInvalidParameter)
	_, _, err = FitAB(1, -0.1)
	assert.ErrorIs(t, err, ErrInvalidParameter)
	_, _, err = FitAB(0.5, 0.6)
	assert.ErrorIs(t, err, ErrInvalidParameter)
}
