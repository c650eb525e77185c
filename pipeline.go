package umap

import (
	"context"
	"fmt"
	"math"
	"time"
)

// DefaultSeed seeds datasets and layouts when the caller does not choose.
const DefaultSeed int64 = 42

// Params is one parameter set of an interactive session.
type Params struct {
	Points    int     `yaml:"points" json:"points"`
	Dims      int     `yaml:"dims" json:"dims"`
	Neighbors int     `yaml:"neighbors" json:"neighbors"`
	MinDist   float64 `yaml:"min_dist" json:"min_dist"`
	Seed      int64   `yaml:"seed" json:"seed"`
}

// Bounds of the interactive parameter source.
const (
	MinPoints    = 100
	MaxPoints    = 5000
	MinDims      = 2
	MaxDims      = 4000
	MinNeighbors = 2
	MaxNeighbors = 100
)

// DefaultParams returns the parameter set an interactive session starts
// from.
func DefaultParams() Params {
	return Params{
		Points:    1000,
		Dims:      100,
		Neighbors: 15,
		MinDist:   0.1,
		Seed:      DefaultSeed,
	}
}

// Validate checks p against the bounds of the interactive parameter source.
// The pipeline stages themselves accept a wider range.
func (p Params) Validate() error {
	if p.Points < MinPoints || p.Points > MaxPoints {
		return fmt.Errorf("umap: points must be in [%d, %d], got %d: %w", MinPoints, MaxPoints, p.Points, ErrInvalidParameter)
	}
	if p.Dims < MinDims || p.Dims > MaxDims {
		return fmt.Errorf("umap: dims must be in [%d, %d], got %d: %w", MinDims, MaxDims, p.Dims, ErrInvalidParameter)
	}
	if p.Neighbors < MinNeighbors || p.Neighbors > MaxNeighbors {
		return fmt.Errorf("umap: neighbors must be in [%d, %d], got %d: %w", MinNeighbors, MaxNeighbors, p.Neighbors, ErrInvalidParameter)
	}
	if math.IsNaN(p.MinDist) || p.MinDist < 0 || p.MinDist > 1 {
		return fmt.Errorf("umap: min_dist must be in [0, 1], got %g: %w", p.MinDist, ErrInvalidParameter)
	}
	return nil
}

// Pipeline chains neighbor search, fuzzy graph construction and layout
// optimization, memoizing each stage in its own Cache and the whole
// embedding in another. A stage reruns only when one of its own inputs
// changes: a new minimum distance reuses the cached neighbor and fuzzy
// graphs.
//
// Pipeline is safe for concurrent use.
type Pipeline struct {
	cfg      Config
	datasets *DatasetProvider

	neighbors  *Cache[*NeighborGraph]
	fuzzy      *Cache[*FuzzyGraph]
	layout     *Cache[*Embedding]
	embeddings *Cache[*Embedding]
}

// NewPipeline creates a pipeline whose datasets are uniform points. It
// fails if cfg is invalid.
func NewPipeline(cfg Config) (*Pipeline, error) {
	return NewPipelineWith(cfg, nil)
}

// NewPipelineWith creates a pipeline drawing datasets from datasets. Run
// passes Params.Seed to the provider, so the provider's own seed is unused
// here. A nil provider means NewDatasetProvider(DefaultSeed,
// cfg.CacheCapacity).
func NewPipelineWith(cfg Config, datasets *DatasetProvider) (*Pipeline, error) {
	cfg, err := prepareConfig(cfg)
	if err != nil {
		return nil, err
	}
	if datasets == nil {
		datasets = NewDatasetProvider(DefaultSeed, cfg.CacheCapacity)
	}
	return &Pipeline{
		cfg:        cfg,
		datasets:   datasets,
		neighbors:  NewCache[*NeighborGraph](string(StageNeighbors), cfg.CacheCapacity),
		fuzzy:      NewCache[*FuzzyGraph](string(StageFuzzy), cfg.CacheCapacity),
		layout:     NewCache[*Embedding](string(StageLayout), cfg.CacheCapacity),
		embeddings: NewCache[*Embedding](string(StageEmbedding), cfg.CacheCapacity),
	}, nil
}

// Run generates (or reuses) the dataset described by p and embeds it. The
// dataset and the layout are both drawn from p.Seed, so one parameter set
// always yields the same embedding.
// Only the algorithmic bounds are enforced; call p.Validate first to
// enforce the interactive ones.
func (pl *Pipeline) Run(ctx context.Context, p Params) (*PointMatrix, *Embedding, error) {
	points, err := pl.dataset(ctx, p.Points, p.Dims, p.Seed)
	if err != nil {
		return nil, nil, err
	}
	emb, err := pl.Embed(ctx, points, p.Neighbors, p.MinDist, p.Seed)
	if err != nil {
		return nil, nil, err
	}
	return points, emb, nil
}

// Embed returns the 2D embedding of points. Arguments are validated before
// any stage runs; a failing stage aborts the call and nothing it would have
// produced is cached. The returned Embedding is shared with the cache and
// must not be modified.
func (pl *Pipeline) Embed(ctx context.Context, points *PointMatrix, nNeighbors int, minDist float64, seed int64) (*Embedding, error) {
	if points == nil {
		return nil, fmt.Errorf("umap: nil point matrix: %w", ErrInsufficientData)
	}
	if err := validateNeighbors(points.n, nNeighbors); err != nil {
		return nil, err
	}
	if math.IsNaN(minDist) || minDist < 0 || minDist > 1 || minDist > pl.cfg.Spread {
		return nil, fmt.Errorf("umap: min_dist must be in [0, min(1, spread=%g)], got %g: %w", pl.cfg.Spread, minDist, ErrInvalidParameter)
	}

	start := time.Now()
	key := NewKey(string(StageEmbedding)).
		Uint64(points.Identity()).
		Int(nNeighbors).
		Float(minDist).
		Uint64(uint64(seed)).
		Sum()
	emb, cached, err := pl.embeddings.GetOrCompute(ctx, key, func(ctx context.Context) (*Embedding, error) {
		return pl.embed(ctx, points, nNeighbors, minDist, seed)
	})
	d := time.Since(start)
	pl.cfg.Observer.ObserveStage(StageEmbedding, d, cached, err)
	if err != nil {
		pl.cfg.Logger.LogStage(ctx, StageEmbedding, d, cached, err)
		return nil, err
	}
	pl.cfg.Logger.LogEmbedding(ctx, points.n, d, cached)
	return emb, nil
}

func (pl *Pipeline) embed(ctx context.Context, points *PointMatrix, nNeighbors int, minDist float64, seed int64) (*Embedding, error) {
	neighborKey := NewKey(string(StageNeighbors)).
		Uint64(points.Identity()).
		Int(nNeighbors).
		Text(metricKey(pl.cfg.Metric)).
		Sum()
	graph, err := runStage(ctx, pl, pl.neighbors, neighborKey, func(ctx context.Context) (*NeighborGraph, error) {
		return buildNeighborGraph(ctx, points, nNeighbors, pl.cfg)
	})
	if err != nil {
		return nil, err
	}

	fuzzyKey := NewKey(string(StageFuzzy)).Key(neighborKey).Int(nNeighbors).Sum()
	fuzzy, err := runStage(ctx, pl, pl.fuzzy, fuzzyKey, func(context.Context) (*FuzzyGraph, error) {
		return ConstructFuzzyGraph(graph, nNeighbors)
	})
	if err != nil {
		return nil, err
	}

	layoutKey := NewKey(string(StageLayout)).
		Key(fuzzyKey).
		Float(minDist).
		Uint64(uint64(seed)).
		Sum()
	return runStage(ctx, pl, pl.layout, layoutKey, func(ctx context.Context) (*Embedding, error) {
		return optimizeLayout(ctx, fuzzy, points.n, minDist, seed, pl.cfg)
	})
}

func (pl *Pipeline) dataset(ctx context.Context, n, d int, seed int64) (*PointMatrix, error) {
	start := time.Now()
	pts, cached, err := pl.datasets.generateCached(ctx, n, d, seed)
	elapsed := time.Since(start)
	pl.cfg.Logger.LogStage(ctx, StageDataset, elapsed, cached, err)
	pl.cfg.Observer.ObserveStage(StageDataset, elapsed, cached, err)
	return pts, err
}

// runStage checks for cancellation, runs one memoized stage and reports it
// under the cache's name.
func runStage[V any](ctx context.Context, pl *Pipeline, c *Cache[V], key Key, compute func(context.Context) (V, error)) (V, error) {
	if err := ctx.Err(); err != nil {
		var zero V
		return zero, err
	}
	stage := Stage(c.Name())
	start := time.Now()
	v, cached, err := c.GetOrCompute(ctx, key, compute)
	d := time.Since(start)
	pl.cfg.Logger.LogStage(ctx, stage, d, cached, err)
	pl.cfg.Observer.ObserveStage(stage, d, cached, err)
	return v, err
}

// Stats returns the counters of every stage cache.
func (pl *Pipeline) Stats() map[Stage]CacheStats {
	return map[Stage]CacheStats{
		StageDataset:   pl.datasets.Stats(),
		StageNeighbors: pl.neighbors.Stats(),
		StageFuzzy:     pl.fuzzy.Stats(),
		StageLayout:    pl.layout.Stats(),
		StageEmbedding: pl.embeddings.Stats(),
	}
}

// Purge drops every memoized result, datasets included. Counters keep
// accumulating.
func (pl *Pipeline) Purge() {
	pl.datasets.cache.Purge()
	pl.neighbors.Purge()
	pl.fuzzy.Purge()
	pl.layout.Purge()
	pl.embeddings.Purge()
}

// Config returns the pipeline's effective configuration.
func (pl *Pipeline) Config() Config { return pl.cfg }
