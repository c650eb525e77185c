package umap

// disjointSets partitions the nodes of a graph into connected components.
// A root is its own parent; find halves paths as it walks them and union
// hangs the smaller tree under the larger.
type disjointSets struct {
	parent []int
	size   []int
	count  int
}

func newDisjointSets(n int) *disjointSets {
	ds := &disjointSets{parent: make([]int, n), size: make([]int, n), count: n}
	for i := range ds.parent {
		ds.parent[i] = i
		ds.size[i] = 1
	}
	return ds
}

func (ds *disjointSets) find(x int) int {
	for ds.parent[x] != x {
		ds.parent[x] = ds.parent[ds.parent[x]]
		x = ds.parent[x]
	}
	return x
}

// union joins the sets of x and y and reports whether they were distinct.
func (ds *disjointSets) union(x, y int) bool {
	rx, ry := ds.find(x), ds.find(y)
	if rx == ry {
		return false
	}
	if ds.size[rx] < ds.size[ry] {
		rx, ry = ry, rx
	}
	ds.parent[ry] = rx
	ds.size[rx] += ds.size[ry]
	ds.count--
	return true
}

// largest returns the size of the biggest set.
func (ds *disjointSets) largest() int {
	best := 0
	for i, p := range ds.parent {
		if p == i {
			best = max(best, ds.size[i])
		}
	}
	return best
}

// graphComponents groups the nodes of g by connectivity. Edge weights are
// ignored; every stored edge connects.
func graphComponents(g *FuzzyGraph) *disjointSets {
	ds := newDisjointSets(g.N)
	for i := 0; i < g.N && ds.count > 1; i++ {
		for _, j := range g.Indices[g.Indptr[i]:g.Indptr[i+1]] {
			ds.union(i, j)
		}
	}
	return ds
}
