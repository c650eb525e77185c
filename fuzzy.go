package umap

import (
	"fmt"
	"math"
	"sort"

	"gonum.org/v1/gonum/stat"
)

const (
	// smoothKIterations is the bisection budget for each bandwidth.
	smoothKIterations = 64
	// smoothKTolerance is the allowed error of the membership sum.
	smoothKTolerance = 1e-5
	// minKDistScale floors a bandwidth at this fraction of the mean
	// neighbor distance.
	minKDistScale = 1e-3
	// minSigma is the bandwidth used when every distance is zero.
	minSigma = 1e-3
)

// FuzzyGraph is the symmetric fuzzy simplicial set over N points, stored in
// compressed sparse row form. The neighbors of point i are
// Indices[Indptr[i]:Indptr[i+1]] in ascending order, with membership
// strengths in (0, 1] at the same positions of Weights. Both directions of
// every edge are stored with equal weights.
type FuzzyGraph struct {
	N       int
	Indptr  []int
	Indices []int
	Weights []float64

	// Sigmas and Rhos are the calibrated bandwidth and local connectivity
	// offset of each point.
	Sigmas []float64
	Rhos   []float64
}

// NumEdges returns the number of stored directed edges (twice the number
// of undirected edges).
func (g *FuzzyGraph) NumEdges() int { return len(g.Indices) }

// Weight returns the membership strength of edge (i, j), or 0 when absent.
func (g *FuzzyGraph) Weight(i, j int) float64 {
	row := g.Indices[g.Indptr[i]:g.Indptr[i+1]]
	pos := sort.SearchInts(row, j)
	if pos < len(row) && row[pos] == j {
		return g.Weights[g.Indptr[i]+pos]
	}
	return 0
}

// Degree returns the sum of edge weights incident to i.
func (g *FuzzyGraph) Degree(i int) float64 {
	var sum float64
	for _, w := range g.Weights[g.Indptr[i]:g.Indptr[i+1]] {
		sum += w
	}
	return sum
}

// ConstructFuzzyGraph converts a neighbor graph into a symmetric fuzzy graph.
// Each point gets a local connectivity offset rho (distance to its nearest
// non-identical neighbor) and a bandwidth sigma chosen by bisection so that
// its memberships sum to log2(nNeighbors). Directed memberships are combined
// with the fuzzy union w + wᵀ - w·wᵀ.
//
// nNeighbors must be in [2, graph.K]; only the first nNeighbors columns of
// the graph are used.
func ConstructFuzzyGraph(graph *NeighborGraph, nNeighbors int) (*FuzzyGraph, error) {
	if graph == nil || graph.N() < 2 {
		return nil, fmt.Errorf("umap: fuzzy graph needs at least 2 points: %w", ErrInsufficientData)
	}
	if nNeighbors < 2 || nNeighbors > graph.K {
		return nil, fmt.Errorf("umap: n_neighbors must be in [2, %d], got %d: %w", graph.K, nNeighbors, ErrInvalidParameter)
	}

	n := graph.N()
	distances := make([][]float64, n)
	for i := range distances {
		distances[i] = graph.Distances[i][:nNeighbors]
	}

	sigmas, rhos := smoothKNNDist(distances, nNeighbors)

	type edge struct{ i, j int }
	directed := make(map[edge]float64, n*nNeighbors)
	for i := 0; i < n; i++ {
		for c := 0; c < nNeighbors; c++ {
			j := graph.Indices[i][c]
			directed[edge{i, j}] = membership(distances[i][c], rhos[i], sigmas[i])
		}
	}

	union := make(map[edge]float64, 2*len(directed))
	for e, w := range directed {
		wt := directed[edge{e.j, e.i}]
		v := min(w+wt-w*wt, 1)
		if v <= 0 {
			continue
		}
		union[e] = v
		union[edge{e.j, e.i}] = v
	}

	edges := make([]edge, 0, len(union))
	for e := range union {
		edges = append(edges, e)
	}
	sort.Slice(edges, func(a, b int) bool {
		if edges[a].i != edges[b].i {
			return edges[a].i < edges[b].i
		}
		return edges[a].j < edges[b].j
	})

	g := &FuzzyGraph{
		N:       n,
		Indptr:  make([]int, n+1),
		Indices: make([]int, len(edges)),
		Weights: make([]float64, len(edges)),
		Sigmas:  sigmas,
		Rhos:    rhos,
	}
	for p, e := range edges {
		g.Indptr[e.i+1]++
		g.Indices[p] = e.j
		g.Weights[p] = union[e]
	}
	for i := 0; i < n; i++ {
		g.Indptr[i+1] += g.Indptr[i]
	}
	return g, nil
}

// membership is the directed fuzzy membership of a neighbor at dist.
func membership(dist, rho, sigma float64) float64 {
	d := dist - rho
	if d <= 0 {
		return 1
	}
	return math.Exp(-d / sigma)
}

// smoothKNNDist calibrates rho and sigma for each row of distances so that
// the sum of memberships is log2(k).
func smoothKNNDist(distances [][]float64, k int) (sigmas, rhos []float64) {
	n := len(distances)
	sigmas = make([]float64, n)
	rhos = make([]float64, n)
	target := math.Log2(float64(k))

	for i, row := range distances {
		for _, d := range row {
			if d > 0 {
				rhos[i] = d
				break
			}
		}

		lo, hi, mid := 0.0, math.Inf(1), 1.0
		for iter := 0; iter < smoothKIterations; iter++ {
			var psum float64
			for _, d := range row {
				psum += membership(d, rhos[i], mid)
			}
			if math.Abs(psum-target) < smoothKTolerance {
				break
			}
			if psum > target {
				hi = mid
				mid = (lo + hi) / 2
			} else {
				lo = mid
				if math.IsInf(hi, 1) {
					mid *= 2
				} else {
					mid = (lo + hi) / 2
				}
			}
		}

		if rhos[i] > 0 {
			sigmas[i] = max(mid, minKDistScale*stat.Mean(row, nil))
		} else {
			// Every neighbor coincides with the point.
			sigmas[i] = minSigma
		}
	}
	return sigmas, rhos
}
