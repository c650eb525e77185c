package umap

import "math"

// KDTree is an exact nearest-neighbor index that splits space with
// axis-aligned planes. Each node keeps the bounding box of its points; a
// query skips any box whose nearest corner is farther than its current k-th
// neighbor.
type KDTree struct {
	treeBase
	// lower[node*dims+j], upper[node*dims+j] bound coordinate j in node.
	lower, upper []float64
}

// NewKDTree builds a KD-tree over points with at most leafSize points per
// leaf. The metric must decompose along coordinate axes (see
// KDTreeValidMetric).
func NewKDTree(points *PointMatrix, metric DistanceMetric, leafSize int) *KDTree {
	t := &KDTree{treeBase: newTreeBase(points, metric, leafSize)}
	t.lower = make([]float64, len(t.nodes)*points.dims)
	t.upper = make([]float64, len(t.nodes)*points.dims)
	if points.n > 0 {
		t.build(0, 0, points.n)
		t.numNodes = countNodes(t.nodes, 0)
	}
	return t
}

func (t *KDTree) build(nodeID, start, end int) {
	if added := t.grow(nodeID); added > 0 {
		t.lower = append(t.lower, make([]float64, added*t.points.dims)...)
		t.upper = append(t.upper, make([]float64, added*t.points.dims)...)
	}
	t.fitBox(nodeID, start, end)

	if end-start <= t.leafSize {
		t.nodes[nodeID] = NodeData{IdxStart: start, IdxEnd: end, IsLeaf: true}
		return
	}
	t.nodes[nodeID] = NodeData{IdxStart: start, IdxEnd: end}

	// The box is already known, so the widest side is read off it.
	dims := t.points.dims
	box := nodeID * dims
	dim, widest := 0, -1.0
	for j := 0; j < dims; j++ {
		if w := t.upper[box+j] - t.lower[box+j]; w > widest {
			dim, widest = j, w
		}
	}
	mid := t.splitMedian(start, end, dim)
	t.build(2*nodeID+1, start, mid)
	t.build(2*nodeID+2, mid, end)
}

// fitBox sets the bounding box of idxArray[start:end].
func (t *KDTree) fitBox(nodeID, start, end int) {
	dims := t.points.dims
	lo := t.lower[nodeID*dims : (nodeID+1)*dims]
	hi := t.upper[nodeID*dims : (nodeID+1)*dims]
	for j := range lo {
		lo[j], hi[j] = math.Inf(1), math.Inf(-1)
	}
	for _, i := range t.idxArray[start:end] {
		for j, v := range t.points.Row(i) {
			lo[j], hi[j] = min(lo[j], v), max(hi[j], v)
		}
	}
}

// QueryKNN finds the k nearest neighbors of every indexed point.
func (t *KDTree) QueryKNN(k int) ([][]int, [][]float64) {
	return t.queryAll(k, func(self int, query []float64, h *neighborHeap) {
		t.search(0, self, query, k, h)
	})
}

func (t *KDTree) search(nodeID, self int, query []float64, k int, h *neighborHeap) {
	if nodeID >= len(t.nodes) {
		return
	}
	node := t.nodes[nodeID]
	if node.IsLeaf {
		t.scanLeaf(node, self, query, k, h)
		return
	}
	descend(nodeID,
		func(child int) float64 { return t.boxRdist(child, query) },
		t.metric.DistToRdist,
		k, h,
		func(child int) { t.search(child, self, query, k, h) },
	)
}

// boxRdist is a lower bound, in reduced-distance units, on the distance
// from point to anything inside the box of node.
func (t *KDTree) boxRdist(node int, point []float64) float64 {
	if node >= len(t.nodes) {
		return math.Inf(1)
	}
	dims := t.points.dims
	lo := t.lower[node*dims : (node+1)*dims]
	hi := t.upper[node*dims : (node+1)*dims]
	var rdist float64
	for j, x := range point {
		gap := max(0, lo[j]-x, x-hi[j])
		switch m := t.metric.(type) {
		case ChebyshevMetric:
			rdist = max(rdist, gap)
		case ManhattanMetric:
			rdist += gap
		case MinkowskiMetric:
			rdist += math.Pow(gap, m.P)
		default:
			rdist += gap * gap
		}
	}
	return rdist
}
