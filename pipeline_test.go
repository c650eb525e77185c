package umap

import (
	"bytes"
	"context"
	"log/slog"
	"math"
	"strings"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestPipeline(t *testing.T, cfg Config) *Pipeline {
	t.Helper()
	p, err := NewPipeline(cfg)
	require.NoError(t, err)
	return p
}

func TestPipeline_EmbedIdempotent(t *testing.T) {
	obs := &BasicObserver{}
	cfg := testConfig()
	cfg.Observer = obs
	pl := newTestPipeline(t, cfg)
	points := randomPoints(t, 100, 4, 1, 1)
	ctx := context.Background()

	first, err := pl.Embed(ctx, points, 10, 0.1, 42)
	require.NoError(t, err)
	second, err := pl.Embed(ctx, points, 10, 0.1, 42)
	require.NoError(t, err)

	assert.Same(t, first, second)
	stats := pl.Stats()
	assert.Equal(t, int64(1), stats[StageEmbedding].Computes)
	assert.Equal(t, int64(1), stats[StageEmbedding].Hits)
	assert.Equal(t, int64(1), stats[StageLayout].Computes)
	assert.Equal(t, int64(2), obs.Counters(StageEmbedding).Requests.Load())
	assert.Equal(t, int64(1), obs.Counters(StageEmbedding).CacheHits.Load())
}

func TestPipeline_ConcurrentEmbedSameContent(t *testing.T) {
	pl := newTestPipeline(t, testConfig())
	src := randomPoints(t, 50, 3, 9, 1)
	ctx := context.Background()

	const callers = 4
	results := make([]*Embedding, callers)
	errs := make([]error, callers)
	var wg sync.WaitGroup
	for i := range callers {
		wg.Add(1)
		go func() {
			defer wg.Done()
			// Each caller builds its own matrix from the same rows.
			points, err := NewPointMatrix(src.Rows())
			if err != nil {
				errs[i] = err
				return
			}
			results[i], errs[i] = pl.Embed(ctx, points, 5, 0.1, 1)
		}()
	}
	wg.Wait()

	for i := range callers {
		require.NoError(t, errs[i])
		assert.Same(t, results[0], results[i])
	}
	assert.Equal(t, int64(1), pl.Stats()[StageEmbedding].Computes)
}

func TestPipeline_ZeroPointMatrix(t *testing.T) {
	pl := newTestPipeline(t, testConfig())
	_, err := pl.Embed(context.Background(), &PointMatrix{}, 5, 0.1, 1)
	assert.ErrorIs(t, err, ErrInsufficientData)
}

func TestPipeline_RunSeedsDataset(t *testing.T) {
	pl := newTestPipeline(t, testConfig())
	ctx := context.Background()
	params := Params{Points: 100, Dims: 3, Neighbors: 8, MinDist: 0.1, Seed: 1}

	first, _, err := pl.Run(ctx, params)
	require.NoError(t, err)
	params.Seed = 2
	second, _, err := pl.Run(ctx, params)
	require.NoError(t, err)
	assert.NotEqual(t, first.Identity(), second.Identity())

	params.Seed = 1
	again, _, err := pl.Run(ctx, params)
	require.NoError(t, err)
	assert.Same(t, first, again)
}

func TestPipeline_PurgeForcesRecompute(t *testing.T) {
	pl := newTestPipeline(t, testConfig())
	ctx := context.Background()
	params := Params{Points: 100, Dims: 3, Neighbors: 8, MinDist: 0.1, Seed: 42}

	_, first, err := pl.Run(ctx, params)
	require.NoError(t, err)
	pl.Purge()
	for stage, st := range pl.Stats() {
		assert.Zero(t, st.Len, "stage %s still holds entries", stage)
	}

	_, second, err := pl.Run(ctx, params)
	require.NoError(t, err)
	assert.NotSame(t, first, second)
	assert.Equal(t, first.Coords, second.Coords)
	assert.Equal(t, int64(2), pl.Stats()[StageDataset].Computes)
	assert.Equal(t, int64(2), pl.Stats()[StageLayout].Computes)
}

func TestPipeline_EqualContentSharesCache(t *testing.T) {
	pl := newTestPipeline(t, testConfig())
	a := randomPoints(t, 60, 3, 5, 1)
	b, err := NewPointMatrix(a.Rows())
	require.NoError(t, err)

	ea, err := pl.Embed(context.Background(), a, 5, 0.1, 42)
	require.NoError(t, err)
	eb, err := pl.Embed(context.Background(), b, 5, 0.1, 42)
	require.NoError(t, err)
	assert.Same(t, ea, eb)
}

func TestPipeline_MinDistChangeOnlyReoptimizes(t *testing.T) {
	pl := newTestPipeline(t, testConfig())
	ctx := context.Background()
	params := Params{Points: 100, Dims: 5, Neighbors: 10, MinDist: 0.1, Seed: 42}

	_, first, err := pl.Run(ctx, params)
	require.NoError(t, err)
	params.MinDist = 0.5
	_, second, err := pl.Run(ctx, params)
	require.NoError(t, err)
	assert.NotEqual(t, first.Coords, second.Coords)

	stats := pl.Stats()
	assert.Equal(t, int64(1), stats[StageDataset].Computes)
	assert.Equal(t, int64(1), stats[StageNeighbors].Computes)
	assert.Equal(t, int64(1), stats[StageFuzzy].Computes)
	assert.Equal(t, int64(2), stats[StageLayout].Computes)
	assert.Equal(t, int64(2), stats[StageEmbedding].Computes)

	// A new seed reruns only the layout as well.
	params.Seed = 7
	_, _, err = pl.Run(ctx, params)
	require.NoError(t, err)
	stats = pl.Stats()
	assert.Equal(t, int64(1), stats[StageNeighbors].Computes)
	assert.Equal(t, int64(3), stats[StageLayout].Computes)
}

func TestPipeline_NeighborChangeReusesDataset(t *testing.T) {
	pl := newTestPipeline(t, testConfig())
	ctx := context.Background()
	params := Params{Points: 100, Dims: 5, Neighbors: 10, MinDist: 0.1, Seed: 42}

	pointsA, _, err := pl.Run(ctx, params)
	require.NoError(t, err)
	params.Neighbors = 20
	pointsB, _, err := pl.Run(ctx, params)
	require.NoError(t, err)

	assert.Same(t, pointsA, pointsB)
	stats := pl.Stats()
	assert.Equal(t, int64(1), stats[StageDataset].Computes)
	assert.Equal(t, int64(2), stats[StageNeighbors].Computes)
}

func TestPipeline_Boundaries(t *testing.T) {
	pl := newTestPipeline(t, testConfig())
	ctx := context.Background()
	points := randomPoints(t, 12, 3, 2, 1)

	emb, err := pl.Embed(ctx, points, 11, 0.1, 1)
	require.NoError(t, err, "n_neighbors = N-1")
	assert.Equal(t, 12, emb.Len())

	_, err = pl.Embed(ctx, points, 12, 0.1, 1)
	assert.ErrorIs(t, err, ErrInvalidParameter, "n_neighbors = N")

	single, _ := NewPointMatrix([][]float64{{1, 2, 3}})
	_, err = pl.Embed(ctx, single, 2, 0.1, 1)
	assert.ErrorIs(t, err, ErrInsufficientData)

	_, err = pl.Embed(ctx, points, 5, 1.5, 1)
	assert.ErrorIs(t, err, ErrInvalidParameter)

	// Rejected requests never reach a stage.
	assert.Equal(t, int64(1), pl.Stats()[StageNeighbors].Computes)
}

func TestPipeline_FailedRunIsNotCached(t *testing.T) {
	pl := newTestPipeline(t, testConfig())
	points := randomPoints(t, 40, 3, 8, 1)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := pl.Embed(ctx, points, 5, 0.1, 1)
	require.ErrorIs(t, err, context.Canceled)

	emb, err := pl.Embed(context.Background(), points, 5, 0.1, 1)
	require.NoError(t, err)
	assert.Equal(t, 40, emb.Len())
	assert.Equal(t, 1, pl.Stats()[StageEmbedding].Len)
}

func TestPipeline_NearDuplicatesStayClose(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Epochs = 200
	pl := newTestPipeline(t, cfg)

	src, err := UniformPoints(200, 5, 42)
	require.NoError(t, err)
	rows := src.Rows()
	// Rows 2i and 2i+1 are identical for the first 40 rows.
	for i := 0; i < 40; i += 2 {
		copy(rows[i+1], rows[i])
	}
	points, err := NewPointMatrix(rows)
	require.NoError(t, err)

	emb, err := pl.Embed(context.Background(), points, 15, 0.1, 42)
	require.NoError(t, err)
	require.Equal(t, 200, emb.Len())

	dist := func(i, j int) float64 {
		dx := emb.Coords[i][0] - emb.Coords[j][0]
		dy := emb.Coords[i][1] - emb.Coords[j][1]
		return math.Hypot(dx, dy)
	}
	var dupSum float64
	for i := 0; i < 40; i += 2 {
		dupSum += dist(i, i+1)
	}
	var allSum float64
	var pairs int
	for i := 0; i < emb.Len(); i++ {
		for j := i + 1; j < emb.Len(); j++ {
			allSum += dist(i, j)
			pairs++
		}
	}
	assert.Less(t, dupSum/20, allSum/float64(pairs))
}

func TestPipeline_HighDimensional(t *testing.T) {
	cfg := testConfig()
	pl := newTestPipeline(t, cfg)
	_, emb, err := pl.Run(context.Background(), Params{Points: 100, Dims: 100, Neighbors: 50, MinDist: 0.1, Seed: 42})
	require.NoError(t, err)
	assert.Equal(t, 100, emb.Len())
}

func TestPipeline_LogsEmbeddingDuration(t *testing.T) {
	var buf bytes.Buffer
	cfg := testConfig()
	cfg.Logger = NewTextLogger(&buf, slog.LevelDebug)
	pl := newTestPipeline(t, cfg)

	_, err := pl.Embed(context.Background(), randomPoints(t, 30, 2, 3, 1), 5, 0.1, 1)
	require.NoError(t, err)

	out := buf.String()
	assert.Contains(t, out, "computed embedding")
	assert.Contains(t, out, "seconds=")
	for _, stage := range []string{"neighbors", "fuzzy", "layout"} {
		assert.True(t, strings.Contains(out, "stage="+stage), "missing %s stage log", stage)
	}
}

func TestParams_Validate(t *testing.T) {
	assert.NoError(t, DefaultParams().Validate())

	tests := []struct {
		name   string
		mutate func(*Params)
	}{
		{"few points", func(p *Params) { p.Points = 99 }},
		{"many points", func(p *Params) { p.Points = 5001 }},
		{"one dim", func(p *Params) { p.Dims = 1 }},
		{"one neighbor", func(p *Params) { p.Neighbors = 1 }},
		{"min_dist", func(p *Params) { p.MinDist = -0.05 }},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p := DefaultParams()
			tt.mutate(&p)
			assert.ErrorIs(t, p.Validate(), ErrInvalidParameter)
		})
	}
}

func TestNewPipeline_InvalidConfig(t *testing.T) {
	cfg := DefaultConfig()
	cfg.LearningRate = -1
	_, err := NewPipeline(cfg)
	assert.ErrorIs(t, err, ErrInvalidParameter)
}
