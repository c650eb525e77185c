package umap

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBuildNeighborGraph_Invariants(t *testing.T) {
	p := randomPoints(t, 90, 6, 5, 1)
	g, err := BuildNeighborGraph(p, 12, DefaultConfig())
	require.NoError(t, err)

	require.Equal(t, 90, g.N())
	assert.Equal(t, 12, g.K)
	for i := 0; i < g.N(); i++ {
		require.Len(t, g.Indices[i], 12)
		for c, j := range g.Indices[i] {
			assert.NotEqual(t, i, j, "row %d contains itself", i)
			if c > 0 {
				assert.LessOrEqual(t, g.Distances[i][c-1], g.Distances[i][c], "row %d not sorted", i)
			}
		}
	}
}

func TestBuildNeighborGraph_Boundaries(t *testing.T) {
	p := randomPoints(t, 10, 2, 1, 1)
	cfg := DefaultConfig()

	_, err := BuildNeighborGraph(p, 9, cfg)
	assert.NoError(t, err, "k = N-1 must succeed")

	_, err = BuildNeighborGraph(p, 10, cfg)
	assert.ErrorIs(t, err, ErrInvalidParameter, "k = N")

	_, err = BuildNeighborGraph(p, 1, cfg)
	assert.ErrorIs(t, err, ErrInvalidParameter, "k = 1")

	single, _ := NewPointMatrix([][]float64{{1, 2}})
	_, err = BuildNeighborGraph(single, 2, cfg)
	assert.ErrorIs(t, err, ErrInsufficientData)

	_, err = BuildNeighborGraph(nil, 2, cfg)
	assert.ErrorIs(t, err, ErrInsufficientData)
}

func TestBuildNeighborGraph_TiesByLowerIndex(t *testing.T) {
	p, _ := NewPointMatrix([][]float64{{0}, {1}, {-1}, {2}, {-2}})
	for _, algo := range []NeighborAlgorithm{NeighborBrute, NeighborKDTree, NeighborBallTree} {
		cfg := DefaultConfig()
		cfg.NeighborAlgorithm = algo
		cfg.LeafSize = 1
		g, err := BuildNeighborGraph(p, 4, cfg)
		require.NoError(t, err, algo)
		assert.Equal(t, []int{1, 2, 3, 4}, g.Indices[0], algo)
		assert.Equal(t, []float64{1, 1, 2, 2}, g.Distances[0], algo)
	}
}

func TestBuildNeighborGraph_AlgorithmsAgree(t *testing.T) {
	for _, dims := range []int{2, 20} {
		p := randomPoints(t, 200, dims, uint64(dims), 1)
		var graphs []*NeighborGraph
		for _, algo := range []NeighborAlgorithm{NeighborBrute, NeighborKDTree, NeighborBallTree} {
			cfg := DefaultConfig()
			cfg.NeighborAlgorithm = algo
			cfg.LeafSize = 10
			g, err := BuildNeighborGraph(p, 15, cfg)
			require.NoError(t, err)
			graphs = append(graphs, g)
		}
		for _, g := range graphs[1:] {
			assert.Equal(t, graphs[0].Indices, g.Indices, "dims=%d", dims)
			assert.Equal(t, graphs[0].Distances, g.Distances, "dims=%d", dims)
		}
	}
}

func TestBuildNeighborGraph_CosineRejectsTrees(t *testing.T) {
	p := randomPoints(t, 20, 3, 2, 1)
	cfg := DefaultConfig()
	cfg.Metric = CosineMetric{}
	cfg.NeighborAlgorithm = NeighborKDTree
	_, err := BuildNeighborGraph(p, 5, cfg)
	assert.ErrorIs(t, err, ErrInvalidParameter)

	cfg.NeighborAlgorithm = NeighborAuto
	g, err := BuildNeighborGraph(p, 5, cfg)
	require.NoError(t, err)
	assert.Equal(t, 20, g.N())
}

func TestSelectNeighborAlgorithm_Auto(t *testing.T) {
	cfg := DefaultConfig()
	tests := []struct {
		metric DistanceMetric
		dims   int
		want   NeighborAlgorithm
	}{
		{EuclideanMetric{}, 2, NeighborKDTree},
		{EuclideanMetric{}, kdTreeMaxDims, NeighborKDTree},
		{EuclideanMetric{}, kdTreeMaxDims + 1, NeighborBallTree},
		{EuclideanMetric{}, ballTreeMaxDims + 1, NeighborBrute},
		{CosineMetric{}, 2, NeighborBrute},
	}
	for _, tt := range tests {
		cfg.Metric = tt.metric
		got, err := selectNeighborAlgorithm(cfg, tt.dims)
		require.NoError(t, err)
		assert.Equal(t, tt.want, got, "%T dims=%d", tt.metric, tt.dims)
	}
}

func TestBruteForceKNNParallel_MatchesSequential(t *testing.T) {
	p := randomPoints(t, 101, 4, 9, 1)
	seqIdx := make([][]int, p.N())
	seqDist := make([][]float64, p.N())
	bruteForceKNN(p, 7, EuclideanMetric{}, 0, p.N(), seqIdx, seqDist)

	for _, workers := range []int{1, 2, 3, 8} {
		idx, dist, err := bruteForceKNNParallel(context.Background(), p, 7, EuclideanMetric{}, workers)
		require.NoError(t, err)
		assert.Equal(t, seqIdx, idx, "workers=%d", workers)
		assert.Equal(t, seqDist, dist, "workers=%d", workers)
	}
}

func TestBruteForceKNNParallel_Canceled(t *testing.T) {
	p := randomPoints(t, 50, 2, 1, 1)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, _, err := bruteForceKNNParallel(ctx, p, 3, EuclideanMetric{}, 4)
	if !errors.Is(err, context.Canceled) {
		t.Errorf("err = %v, want context.Canceled", err)
	}
}

func TestConfigValidation(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Config)
	}{
		{"algorithm", func(c *Config) { c.NeighborAlgorithm = "annoy" }},
		{"minkowski p", func(c *Config) { c.Metric = MinkowskiMetric{P: 0.5} }},
		{"leaf size", func(c *Config) { c.LeafSize = -1 }},
		{"epochs", func(c *Config) { c.Epochs = -5 }},
		{"learning rate", func(c *Config) { c.LearningRate = -1 }},
		{"negative rate", func(c *Config) { c.NegativeSampleRate = -1 }},
		{"spread", func(c *Config) { c.Spread = -1 }},
		{"spectral tolerance", func(c *Config) { c.SpectralTolerance = -1 }},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := DefaultConfig()
			tt.mutate(&cfg)
			_, err := prepareConfig(cfg)
			assert.ErrorIs(t, err, ErrInvalidParameter)
		})
	}

	cfg, err := prepareConfig(Config{})
	require.NoError(t, err)
	assert.Equal(t, 40, cfg.LeafSize)
	assert.Equal(t, 500, cfg.epochsFor(10000))
	assert.Equal(t, 200, cfg.epochsFor(10001))
}
