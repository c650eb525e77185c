package umap

import (
	"context"
	"fmt"

	"gonum.org/v1/gonum/stat/distuv"
)

// Generator produces an n×d point matrix from seed.
type Generator func(ctx context.Context, n, d int, seed int64) (*PointMatrix, error)

// UniformPoints draws n points of dimension d with coordinates i.i.d.
// uniform on [0, 1). The same seed always yields the same matrix.
func UniformPoints(n, d int, seed int64) (*PointMatrix, error) {
	if err := validateShape(n, d); err != nil {
		return nil, err
	}
	u := distuv.Uniform{Min: 0, Max: 1, Src: newSource(seed, streamDataset)}
	data := make([]float64, n*d)
	for i := range data {
		data[i] = u.Rand()
	}
	return newPointMatrix(data, n, d), nil
}

func uniformGenerator(_ context.Context, n, d int, seed int64) (*PointMatrix, error) {
	return UniformPoints(n, d, seed)
}

func validateShape(n, d int) error {
	if n < 1 {
		return fmt.Errorf("umap: n_points must be >= 1, got %d: %w", n, ErrInvalidParameter)
	}
	if d < 1 {
		return fmt.Errorf("umap: n_dimensions must be >= 1, got %d: %w", d, ErrInvalidParameter)
	}
	return nil
}

// DatasetProvider hands out point matrices by shape and seed. A (shape,
// seed) pair is generated once and the same matrix is returned for as long
// as it stays cached.
type DatasetProvider struct {
	seed     int64
	generate Generator
	cache    *Cache[*PointMatrix]
}

// NewDatasetProvider returns a provider drawing uniform points, by default
// from seed, and keeping up to capacity datasets.
func NewDatasetProvider(seed int64, capacity int) *DatasetProvider {
	return NewDatasetProviderWith(uniformGenerator, seed, capacity)
}

// NewDatasetProviderWith is NewDatasetProvider with a custom generator.
func NewDatasetProviderWith(gen Generator, seed int64, capacity int) *DatasetProvider {
	if gen == nil {
		gen = uniformGenerator
	}
	return &DatasetProvider{
		seed:     seed,
		generate: gen,
		cache:    NewCache[*PointMatrix](string(StageDataset), capacity),
	}
}

// Generate returns the n×d dataset for the provider's seed. Shapes outside
// n >= 1, d >= 1 fail with ErrInvalidParameter before the generator runs;
// generator failures are wrapped in ErrUpstreamFailure and not cached.
func (p *DatasetProvider) Generate(ctx context.Context, n, d int) (*PointMatrix, error) {
	return p.GenerateSeeded(ctx, n, d, p.seed)
}

// GenerateSeeded is Generate drawing from seed instead of the provider's
// seed.
func (p *DatasetProvider) GenerateSeeded(ctx context.Context, n, d int, seed int64) (*PointMatrix, error) {
	pts, _, err := p.generateCached(ctx, n, d, seed)
	return pts, err
}

func (p *DatasetProvider) generateCached(ctx context.Context, n, d int, seed int64) (*PointMatrix, bool, error) {
	if err := validateShape(n, d); err != nil {
		return nil, false, err
	}
	key := NewKey(string(StageDataset)).Int(n).Int(d).Uint64(uint64(seed)).Sum()
	return p.cache.GetOrCompute(ctx, key, func(ctx context.Context) (*PointMatrix, error) {
		pts, err := p.generate(ctx, n, d, seed)
		if err != nil {
			return nil, fmt.Errorf("umap: generating %dx%d dataset: %w: %w", n, d, ErrUpstreamFailure, err)
		}
		if pts == nil || pts.n != n || pts.dims != d {
			return nil, fmt.Errorf("umap: generator returned wrong shape for %dx%d dataset: %w", n, d, ErrUpstreamFailure)
		}
		return pts, nil
	})
}

// Stats reports the dataset cache counters.
func (p *DatasetProvider) Stats() CacheStats { return p.cache.Stats() }
