package umap

import (
	"math/rand/v2"
	"sort"
	"testing"
)

type weightedEdge struct {
	i, j int
	w    float64
}

// graphFromEdges builds a symmetric FuzzyGraph from undirected edges.
func graphFromEdges(n int, edges []weightedEdge) *FuzzyGraph {
	rows := make([]map[int]float64, n)
	for i := range rows {
		rows[i] = map[int]float64{}
	}
	for _, e := range edges {
		rows[e.i][e.j] = e.w
		rows[e.j][e.i] = e.w
	}
	g := &FuzzyGraph{N: n, Indptr: make([]int, n+1)}
	for i, row := range rows {
		cols := make([]int, 0, len(row))
		for j := range row {
			cols = append(cols, j)
		}
		sort.Ints(cols)
		for _, j := range cols {
			g.Indices = append(g.Indices, j)
			g.Weights = append(g.Weights, row[j])
		}
		g.Indptr[i+1] = len(g.Indices)
	}
	return g
}

// randomPoints returns n uniform points in [0, scale)^dims.
func randomPoints(t testing.TB, n, dims int, seed uint64, scale float64) *PointMatrix {
	t.Helper()
	rng := rand.New(rand.NewPCG(seed, seed))
	data := make([]float64, n*dims)
	for i := range data {
		data[i] = rng.Float64() * scale
	}
	p, err := NewPointMatrixFlat(data, n, dims)
	if err != nil {
		t.Fatal(err)
	}
	return p
}

// testConfig is DefaultConfig with a short optimization.
func testConfig() Config {
	cfg := DefaultConfig()
	cfg.Epochs = 50
	return cfg
}
