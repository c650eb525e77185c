package umap

import "errors"

// Error categories returned by the pipeline. Callers should test with
// errors.Is; the concrete error carries a message describing the value
// that was rejected.
var (
	// ErrInvalidParameter reports an out-of-range or inconsistent
	// hyperparameter, e.g. a neighbor count >= the number of points.
	ErrInvalidParameter = errors.New("invalid parameter")

	// ErrInsufficientData reports an input too small to form a graph.
	ErrInsufficientData = errors.New("insufficient data")

	// ErrNumericalNonConvergence reports that a numerical routine did not
	// converge. The layout optimizer recovers from it with a fallback and
	// never returns it; it is surfaced only to loggers and observers.
	ErrNumericalNonConvergence = errors.New("numerical non-convergence")

	// ErrUpstreamFailure wraps failures of a dependency such as the
	// dataset generator.
	ErrUpstreamFailure = errors.New("upstream failure")
)
