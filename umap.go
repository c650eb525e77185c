package umap

import (
	"fmt"
	"runtime"
)

// Config controls neighbor search, layout optimization and caching.
// Start with [DefaultConfig] and override the fields you need. The
// per-call hyperparameters (neighbor count, minimum distance, seed) are
// passed to the operations directly.
type Config struct {
	// Metric is the input-space distance. Default: EuclideanMetric.
	Metric DistanceMetric

	// NeighborAlgorithm selects the exact kNN strategy. "auto" picks a
	// KD-tree for low-dimensional data, a ball tree for moderate
	// dimensionality and brute force beyond. Default: "auto".
	NeighborAlgorithm NeighborAlgorithm

	// LeafSize is the maximum number of points in a spatial tree leaf.
	// Default: 40.
	LeafSize int

	// Workers is the number of goroutines used by brute-force neighbor
	// search. 0 means runtime.NumCPU(). Results do not depend on it.
	Workers int

	// Epochs is the number of layout optimization epochs. 0 picks 500 for
	// up to 10000 points and 200 above. Must be >= 0.
	Epochs int

	// LearningRate is the initial SGD step size; it decays linearly to 0.
	// Must be > 0. Default: 1.0.
	LearningRate float64

	// NegativeSampleRate is the number of repulsive samples drawn per
	// attractive edge update. Must be >= 1. Default: 5.
	NegativeSampleRate int

	// RepulsionStrength weights the repulsive term. Must be > 0.
	// Default: 1.0.
	RepulsionStrength float64

	// Spread is the effective scale of embedded points; together with the
	// minimum distance it determines the output curve shape. Must be > 0.
	// Default: 1.0.
	Spread float64

	// DenseSpectralLimit is the largest point count for which the spectral
	// initialization uses a dense eigendecomposition. Larger graphs use
	// block power iteration on the sparse Laplacian. Default: 2048.
	DenseSpectralLimit int

	// SpectralIterations bounds the block power iteration. Default: 1000.
	SpectralIterations int

	// SpectralTolerance is the subspace change below which power iteration
	// is considered converged. Default: 1e-7.
	SpectralTolerance float64

	// CacheCapacity is the number of results each pipeline stage keeps.
	// 1 keeps only the most recent parameter set. Default: 8.
	CacheCapacity int

	// Logger receives structured stage logs. Default: NoopLogger().
	Logger *Logger

	// Observer receives per-stage timings. Default: NoopObserver{}.
	Observer Observer
}

// DefaultConfig returns a Config with reasonable defaults.
func DefaultConfig() Config {
	return Config{
		Metric:             EuclideanMetric{},
		NeighborAlgorithm:  NeighborAuto,
		LeafSize:           40,
		LearningRate:       1.0,
		NegativeSampleRate: 5,
		RepulsionStrength:  1.0,
		Spread:             1.0,
		DenseSpectralLimit: 2048,
		SpectralIterations: 1000,
		SpectralTolerance:  1e-7,
		CacheCapacity:      DefaultCacheCapacity,
	}
}

// applyDefaults fills in zero-valued config fields with their defaults.
func applyDefaults(cfg *Config) {
	def := DefaultConfig()
	if cfg.Metric == nil {
		cfg.Metric = def.Metric
	}
	if cfg.NeighborAlgorithm == "" {
		cfg.NeighborAlgorithm = def.NeighborAlgorithm
	}
	if cfg.LeafSize == 0 {
		cfg.LeafSize = def.LeafSize
	}
	if cfg.Workers == 0 {
		cfg.Workers = runtime.NumCPU()
	}
	if cfg.LearningRate == 0 {
		cfg.LearningRate = def.LearningRate
	}
	if cfg.NegativeSampleRate == 0 {
		cfg.NegativeSampleRate = def.NegativeSampleRate
	}
	if cfg.RepulsionStrength == 0 {
		cfg.RepulsionStrength = def.RepulsionStrength
	}
	if cfg.Spread == 0 {
		cfg.Spread = def.Spread
	}
	if cfg.DenseSpectralLimit == 0 {
		cfg.DenseSpectralLimit = def.DenseSpectralLimit
	}
	if cfg.SpectralIterations == 0 {
		cfg.SpectralIterations = def.SpectralIterations
	}
	if cfg.SpectralTolerance == 0 {
		cfg.SpectralTolerance = def.SpectralTolerance
	}
	if cfg.CacheCapacity == 0 {
		cfg.CacheCapacity = def.CacheCapacity
	}
	if cfg.Logger == nil {
		cfg.Logger = NoopLogger()
	}
	if cfg.Observer == nil {
		cfg.Observer = NoopObserver{}
	}
}

// validateConfig checks that cfg fields are valid and returns a descriptive
// error wrapping ErrInvalidParameter if not.
func validateConfig(cfg *Config) error {
	switch cfg.NeighborAlgorithm {
	case NeighborAuto, NeighborBrute, NeighborKDTree, NeighborBallTree:
	default:
		return fmt.Errorf("umap: invalid NeighborAlgorithm %q: %w", cfg.NeighborAlgorithm, ErrInvalidParameter)
	}
	if m, ok := cfg.Metric.(MinkowskiMetric); ok && m.P < 1 {
		return fmt.Errorf("umap: MinkowskiMetric P must be >= 1, got %g: %w", m.P, ErrInvalidParameter)
	}
	if cfg.LeafSize < 1 {
		return fmt.Errorf("umap: LeafSize must be >= 1, got %d: %w", cfg.LeafSize, ErrInvalidParameter)
	}
	if cfg.Workers < 1 {
		return fmt.Errorf("umap: Workers must be >= 1, got %d: %w", cfg.Workers, ErrInvalidParameter)
	}
	if cfg.Epochs < 0 {
		return fmt.Errorf("umap: Epochs must be >= 0, got %d: %w", cfg.Epochs, ErrInvalidParameter)
	}
	if cfg.LearningRate <= 0 {
		return fmt.Errorf("umap: LearningRate must be > 0, got %g: %w", cfg.LearningRate, ErrInvalidParameter)
	}
	if cfg.NegativeSampleRate < 1 {
		return fmt.Errorf("umap: NegativeSampleRate must be >= 1, got %d: %w", cfg.NegativeSampleRate, ErrInvalidParameter)
	}
	if cfg.RepulsionStrength <= 0 {
		return fmt.Errorf("umap: RepulsionStrength must be > 0, got %g: %w", cfg.RepulsionStrength, ErrInvalidParameter)
	}
	if cfg.Spread <= 0 {
		return fmt.Errorf("umap: Spread must be > 0, got %g: %w", cfg.Spread, ErrInvalidParameter)
	}
	if cfg.DenseSpectralLimit < 0 {
		return fmt.Errorf("umap: DenseSpectralLimit must be >= 0, got %d: %w", cfg.DenseSpectralLimit, ErrInvalidParameter)
	}
	if cfg.SpectralIterations < 1 {
		return fmt.Errorf("umap: SpectralIterations must be >= 1, got %d: %w", cfg.SpectralIterations, ErrInvalidParameter)
	}
	if cfg.SpectralTolerance <= 0 {
		return fmt.Errorf("umap: SpectralTolerance must be > 0, got %g: %w", cfg.SpectralTolerance, ErrInvalidParameter)
	}
	return nil
}

// prepareConfig applies defaults and validates.
func prepareConfig(cfg Config) (Config, error) {
	applyDefaults(&cfg)
	if err := validateConfig(&cfg); err != nil {
		return cfg, err
	}
	return cfg, nil
}

// epochsFor returns the configured epoch count, or the size-based default.
func (cfg Config) epochsFor(n int) int {
	if cfg.Epochs > 0 {
		return cfg.Epochs
	}
	if n <= 10000 {
		return 500
	}
	return 200
}
