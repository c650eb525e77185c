// Package umap implements Uniform Manifold Approximation and Projection
// (UMAP) for projecting high-dimensional point clouds into two dimensions,
// together with a memoizing pipeline for interactive exploration.
//
// UMAP builds a k-nearest-neighbor graph over the input, converts it into a
// fuzzy topological representation whose edge weights measure local
// connectivity, and then optimizes a 2D layout whose own fuzzy
// representation matches it as closely as possible.
//
// Basic usage:
//
//	points, err := umap.NewPointMatrix(data)
//	graph, err := umap.BuildNeighborGraph(points, 15, umap.DefaultConfig())
//	fuzzy, err := umap.ConstructFuzzyGraph(graph, 15)
//	emb, err := umap.OptimizeLayout(fuzzy, points.N(), 0.1, 42, umap.DefaultConfig())
//	// emb.Coords[i] is the 2D position of points row i
//
// For repeated runs where only some parameters change, use a [Pipeline]. Each
// stage has its own [Cache], so changing only the minimum distance reruns
// the layout optimizer and nothing upstream of it:
//
//	p, err := umap.NewPipeline(umap.DefaultConfig())
//	emb, err := p.Embed(ctx, points, 15, 0.1, 42)
//
// # Neighbor search
//
// By default (NeighborAlgorithm: "auto"), exact neighbors are found with a
// KD-tree for low-dimensional Euclidean-like metrics, a ball tree for higher
// dimensions, and a parallel brute-force scan otherwise. All strategies
// return identical graphs: rows sorted by ascending distance with ties
// broken by lower point index.
//
//	cfg.NeighborAlgorithm = umap.NeighborBrute   // O(N²·D) scan
//	cfg.NeighborAlgorithm = umap.NeighborKDTree  // axis-aligned splits
//	cfg.NeighborAlgorithm = umap.NeighborBallTree
package umap
