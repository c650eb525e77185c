package umap

import (
	"fmt"
	"math"
	"sort"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/mat"
	"gonum.org/v1/gonum/stat/distuv"
)

const (
	// initScale is the largest absolute coordinate of the initial layout.
	initScale = 10.0
	// initJitter is the standard deviation of the noise added to a
	// spectral layout so coincident points can separate.
	initJitter = 1e-4
	// spectralBlock is the number of vectors carried by power iteration;
	// the two beyond those needed speed up convergence.
	spectralBlock = 4
)

// initialLayout places the graph's nodes in 2D, preferring the spectral
// layout and falling back to uniform random coordinates seeded by seed
// when the graph is disconnected or the eigensolver fails. The returned
// error is non-nil only to report that the fallback was taken.
func initialLayout(g *FuzzyGraph, seed int64, cfg Config) ([][2]float64, error) {
	coords, err := spectralLayout(g, seed, cfg)
	if err != nil {
		return randomLayout(g.N, seed), err
	}

	maxAbs := 0.0
	for _, c := range coords {
		maxAbs = max(maxAbs, math.Abs(c[0]), math.Abs(c[1]))
	}
	if maxAbs == 0 || math.IsNaN(maxAbs) {
		return randomLayout(g.N, seed), fmt.Errorf("umap: spectral layout is degenerate: %w", ErrNumericalNonConvergence)
	}
	expansion := initScale / maxAbs
	noise := distuv.Normal{Mu: 0, Sigma: initJitter, Src: newSource(seed, streamInit)}
	for i := range coords {
		coords[i][0] = coords[i][0]*expansion + noise.Rand()
		coords[i][1] = coords[i][1]*expansion + noise.Rand()
	}
	return coords, nil
}

// randomLayout draws coordinates uniformly from [-10, 10)².
func randomLayout(n int, seed int64) [][2]float64 {
	u := distuv.Uniform{Min: -initScale, Max: initScale, Src: newSource(seed, streamInit)}
	coords := make([][2]float64, n)
	for i := range coords {
		coords[i] = [2]float64{u.Rand(), u.Rand()}
	}
	return coords
}

// spectralLayout returns the eigenvectors of the symmetric normalized
// Laplacian L = I - D^-1/2 W D^-1/2 belonging to its second and third
// smallest eigenvalues.
func spectralLayout(g *FuzzyGraph, seed int64, cfg Config) ([][2]float64, error) {
	if g.N < 3 {
		return nil, fmt.Errorf("umap: spectral layout needs at least 3 points, got %d: %w", g.N, ErrNumericalNonConvergence)
	}
	if cc := graphComponents(g); cc.count > 1 {
		return nil, fmt.Errorf("umap: graph has %d connected components, largest %d of %d nodes: %w",
			cc.count, cc.largest(), g.N, ErrNumericalNonConvergence)
	}

	invSqrtDeg := make([]float64, g.N)
	for i := range invSqrtDeg {
		invSqrtDeg[i] = 1 / math.Sqrt(g.Degree(i))
	}

	if g.N <= cfg.DenseSpectralLimit {
		return denseSpectral(g, invSqrtDeg)
	}
	return sparseSpectral(g, invSqrtDeg, seed, cfg.SpectralIterations, cfg.SpectralTolerance)
}

// denseSpectral factorizes the full Laplacian.
func denseSpectral(g *FuzzyGraph, invSqrtDeg []float64) ([][2]float64, error) {
	lap := mat.NewSymDense(g.N, nil)
	for i := 0; i < g.N; i++ {
		lap.SetSym(i, i, 1)
		for p := g.Indptr[i]; p < g.Indptr[i+1]; p++ {
			j := g.Indices[p]
			if j > i {
				lap.SetSym(i, j, -g.Weights[p]*invSqrtDeg[i]*invSqrtDeg[j])
			}
		}
	}

	var eig mat.EigenSym
	if ok := eig.Factorize(lap, true); !ok {
		return nil, fmt.Errorf("umap: dense eigendecomposition of %dx%d Laplacian failed: %w", g.N, g.N, ErrNumericalNonConvergence)
	}
	var vectors mat.Dense
	eig.VectorsTo(&vectors)

	// Eigenvalues are ascending; column 0 is the trivial sqrt(degree) vector.
	coords := make([][2]float64, g.N)
	for i := range coords {
		coords[i] = [2]float64{vectors.At(i, 1), vectors.At(i, 2)}
	}
	return coords, nil
}

// sparseSpectral runs block power iteration with Rayleigh–Ritz on the
// shifted normalized adjacency M = (I + D^-1/2 W D^-1/2)/2, whose largest
// eigenvectors are the Laplacian's smallest. The trivial eigenvector is
// deflated explicitly.
func sparseSpectral(g *FuzzyGraph, invSqrtDeg []float64, seed int64, maxIter int, tol float64) ([][2]float64, error) {
	n := g.N

	trivial := make([]float64, n)
	for i := range trivial {
		trivial[i] = 1 / invSqrtDeg[i]
	}
	floats.Scale(1/floats.Norm(trivial, 2), trivial)

	apply := func(dst, x []float64) {
		for i := 0; i < n; i++ {
			var sum float64
			for p := g.Indptr[i]; p < g.Indptr[i+1]; p++ {
				j := g.Indices[p]
				sum += g.Weights[p] * invSqrtDeg[i] * invSqrtDeg[j] * x[j]
			}
			dst[i] = 0.5 * (x[i] + sum)
		}
	}

	normal := distuv.Normal{Mu: 0, Sigma: 1, Src: newSource(seed, streamSpectral)}
	block := make([][]float64, spectralBlock)
	for c := range block {
		block[c] = make([]float64, n)
		for i := range block[c] {
			block[c][i] = normal.Rand()
		}
	}
	if !orthonormalize(block, trivial) {
		return nil, fmt.Errorf("umap: power iteration start block is rank deficient: %w", ErrNumericalNonConvergence)
	}

	work := make([][]float64, spectralBlock)
	for c := range work {
		work[c] = make([]float64, n)
	}
	prev := make([][]float64, 2)
	for c := range prev {
		prev[c] = make([]float64, n)
	}

	for iter := 0; iter < maxIter; iter++ {
		for c := range block {
			apply(work[c], block[c])
		}
		block, work = work, block
		if !orthonormalize(block, trivial) {
			return nil, fmt.Errorf("umap: power iteration lost rank at iteration %d: %w", iter, ErrNumericalNonConvergence)
		}
		rayleighRitz(block, work, apply)

		if iter > 0 {
			change := 0.0
			for c := range prev {
				change = max(change, 1-math.Abs(floats.Dot(prev[c], block[c])))
			}
			if change < tol {
				coords := make([][2]float64, n)
				for i := range coords {
					coords[i] = [2]float64{block[0][i], block[1][i]}
				}
				return coords, nil
			}
		}
		for c := range prev {
			copy(prev[c], block[c])
		}
	}
	return nil, fmt.Errorf("umap: power iteration did not converge in %d iterations: %w", maxIter, ErrNumericalNonConvergence)
}

// orthonormalize applies modified Gram–Schmidt to the vectors, first
// projecting out the unit vector deflate. It reports false if a vector
// collapses to zero.
func orthonormalize(vectors [][]float64, deflate []float64) bool {
	for c, v := range vectors {
		floats.AddScaled(v, -floats.Dot(deflate, v), deflate)
		for _, u := range vectors[:c] {
			floats.AddScaled(v, -floats.Dot(u, v), u)
		}
		norm := floats.Norm(v, 2)
		if norm < 1e-300 || math.IsNaN(norm) {
			return false
		}
		floats.Scale(1/norm, v)
	}
	return true
}

// rayleighRitz rotates the orthonormal block into Ritz vectors of the
// operator, ordered by descending Ritz value. scratch must match block in
// shape.
func rayleighRitz(block, scratch [][]float64, apply func(dst, x []float64)) {
	p := len(block)
	for c := range block {
		apply(scratch[c], block[c])
	}
	proj := mat.NewSymDense(p, nil)
	for a := 0; a < p; a++ {
		for b := a; b < p; b++ {
			proj.SetSym(a, b, floats.Dot(block[a], scratch[b]))
		}
	}
	var eig mat.EigenSym
	if !eig.Factorize(proj, true) {
		return
	}
	values := eig.Values(nil)
	var rot mat.Dense
	eig.VectorsTo(&rot)

	order := make([]int, p)
	for i := range order {
		order[i] = i
	}
	sort.Slice(order, func(i, j int) bool { return values[order[i]] > values[order[j]] })

	n := len(block[0])
	for c := range scratch {
		clear(scratch[c])
	}
	for c, col := range order {
		for a := 0; a < p; a++ {
			floats.AddScaled(scratch[c], rot.At(a, col), block[a])
		}
	}
	for c := range block {
		copy(block[c], scratch[c][:n])
	}
}
