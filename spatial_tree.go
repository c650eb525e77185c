package umap

import (
	"container/heap"
	"math"
	"sort"
)

// NodeData describes a single node in a spatial tree.
type NodeData struct {
	IdxStart, IdxEnd int
	IsLeaf           bool
	Radius           float64 // ball tree radius; 0 for KD-tree
}

// SpatialTree is the read interface shared by KDTree and BallTree.
type SpatialTree interface {
	// QueryKNN finds the k nearest neighbors of every indexed point,
	// excluding the point itself. Rows are sorted by ascending distance,
	// ties broken by lower index.
	QueryKNN(k int) (indices [][]int, distances [][]float64)

	// NumPoints returns the number of points in the tree.
	NumPoints() int

	// NumFeatures returns the dimensionality of each point.
	NumFeatures() int

	// IdxArray returns the permutation array mapping tree-order positions
	// back to original point indices.
	IdxArray() []int

	// NodeDataArray returns the metadata for every node in the tree.
	NodeDataArray() []NodeData
}

var (
	_ SpatialTree = (*KDTree)(nil)
	_ SpatialTree = (*BallTree)(nil)
)

// treeBase is the part of a binary space-partitioning tree that does not
// depend on the node geometry. Nodes live in a complete binary tree in array
// form: node i has children 2i+1 and 2i+2. Building reorders idxArray so
// that every node owns the contiguous range idxArray[IdxStart:IdxEnd].
type treeBase struct {
	points   *PointMatrix
	metric   DistanceMetric
	leafSize int
	idxArray []int
	nodes    []NodeData
	numNodes int
}

func newTreeBase(points *PointMatrix, metric DistanceMetric, leafSize int) treeBase {
	idx := make([]int, points.n)
	for i := range idx {
		idx[i] = i
	}
	return treeBase{
		points:   points,
		metric:   metric,
		leafSize: max(1, leafSize),
		idxArray: idx,
		nodes:    make([]NodeData, treeMaxNodes(points.n, max(1, leafSize))),
	}
}

func (t *treeBase) NumPoints() int            { return t.points.n }
func (t *treeBase) NumFeatures() int          { return t.points.dims }
func (t *treeBase) IdxArray() []int           { return t.idxArray }
func (t *treeBase) NodeDataArray() []NodeData { return t.nodes[:t.numNodes] }

// grow makes room for nodeID and reports how many nodes were added.
func (t *treeBase) grow(nodeID int) int {
	added := 0
	for nodeID >= len(t.nodes) {
		t.nodes = append(t.nodes, NodeData{})
		added++
	}
	return added
}

// spreadDim returns the coordinate with the largest range over
// idxArray[start:end].
func (t *treeBase) spreadDim(start, end int) int {
	best, bestSpread := 0, -1.0
	for d := 0; d < t.points.dims; d++ {
		lo, hi := math.Inf(1), math.Inf(-1)
		for _, i := range t.idxArray[start:end] {
			v := t.points.data[i*t.points.dims+d]
			lo, hi = min(lo, v), max(hi, v)
		}
		if hi-lo > bestSpread {
			best, bestSpread = d, hi-lo
		}
	}
	return best
}

// splitMedian orders idxArray[start:end] along dim and returns the median
// position. Equal coordinates keep index order so builds are reproducible.
func (t *treeBase) splitMedian(start, end, dim int) int {
	sub := t.idxArray[start:end]
	data, dims := t.points.data, t.points.dims
	sort.SliceStable(sub, func(a, b int) bool {
		return data[sub[a]*dims+dim] < data[sub[b]*dims+dim]
	})
	return start + (end-start)/2
}

// scanLeaf offers every point of a leaf except self.
func (t *treeBase) scanLeaf(node NodeData, self int, query []float64, k int, h *neighborHeap) {
	for _, i := range t.idxArray[node.IdxStart:node.IdxEnd] {
		if i != self {
			h.offer(neighborItem{index: i, dist: t.metric.Distance(query, t.points.Row(i))}, k)
		}
	}
}

// queryAll runs search for every indexed point and collects the rows.
func (t *treeBase) queryAll(k int, search func(self int, query []float64, h *neighborHeap)) ([][]int, [][]float64) {
	n := t.points.n
	indices := make([][]int, n)
	distances := make([][]float64, n)
	h := make(neighborHeap, 0, k)
	for q := 0; q < n; q++ {
		search(q, t.points.Row(q), &h)
		indices[q], distances[q] = h.drain()
	}
	return indices, distances
}

// descend visits the nearer child first and the farther one only when it
// may still hold a candidate. Bounds are compared in the units of worst.
func descend(nodeID int, bound func(child int) float64, toBoundUnits func(float64) float64, k int, h *neighborHeap, visit func(child int)) {
	left, right := 2*nodeID+1, 2*nodeID+2
	leftBound, rightBound := bound(left), bound(right)
	near, far, farBound := left, right, rightBound
	if rightBound < leftBound {
		near, far, farBound = right, left, leftBound
	}
	visit(near)
	if worst, ok := h.full(k); !ok || mayContain(farBound, toBoundUnits(worst)) {
		visit(far)
	}
}

// treeMaxNodes returns an upper bound on the number of nodes needed for a
// binary tree with n points and the given leaf size.
func treeMaxNodes(n, leafSize int) int {
	if n == 0 {
		return 1
	}
	leaves := (n + leafSize - 1) / leafSize
	depth := 0
	for v := 1; v < leaves; v *= 2 {
		depth++
	}
	return (1 << (depth + 1)) - 1 + 2
}

// countNodes counts how many nodes were initialized by a build.
func countNodes(nodes []NodeData, nodeID int) int {
	if nodeID >= len(nodes) {
		return 0
	}
	if nodes[nodeID].IdxStart == 0 && nodes[nodeID].IdxEnd == 0 && nodeID != 0 {
		return 0
	}
	count := 1
	if !nodes[nodeID].IsLeaf {
		count += countNodes(nodes, 2*nodeID+1)
		count += countNodes(nodes, 2*nodeID+2)
	}
	return count
}

// pruneSlack absorbs rounding when comparing a node lower bound against the
// current k-th distance, so exact ties on a node boundary are still visited.
const pruneSlack = 1e-9

// mayContain reports whether a node whose lower bound is lower could still
// hold a candidate no worse than the current k-th distance worst.
func mayContain(lower, worst float64) bool {
	return lower <= worst+pruneSlack*(1+worst)
}

// --- bounded max-heap for KNN queries ---

type neighborItem struct {
	index int
	dist  float64
}

// worse reports whether a ranks after b: farther, or equally far with a
// higher index.
func worse(a, b neighborItem) bool {
	if a.dist != b.dist {
		return a.dist > b.dist
	}
	return a.index > b.index
}

// neighborHeap keeps the k best candidates with the worst on top.
type neighborHeap []neighborItem

func (h neighborHeap) Len() int            { return len(h) }
func (h neighborHeap) Less(i, j int) bool  { return worse(h[i], h[j]) }
func (h neighborHeap) Swap(i, j int)       { h[i], h[j] = h[j], h[i] }
func (h *neighborHeap) Push(x interface{}) { *h = append(*h, x.(neighborItem)) }
func (h *neighborHeap) Pop() interface{} {
	old := *h
	n := len(old)
	item := old[n-1]
	*h = old[:n-1]
	return item
}

// offer inserts item if the heap holds fewer than k entries or item ranks
// ahead of the current worst.
func (h *neighborHeap) offer(item neighborItem, k int) {
	if h.Len() < k {
		heap.Push(h, item)
		return
	}
	if worse((*h)[0], item) {
		(*h)[0] = item
		heap.Fix(h, 0)
	}
}

// full reports whether the heap holds k entries, and if so the distance of
// the worst one.
func (h neighborHeap) full(k int) (float64, bool) {
	if len(h) < k {
		return 0, false
	}
	return h[0].dist, true
}

// drain empties the heap into index/distance rows sorted best first.
func (h *neighborHeap) drain() ([]int, []float64) {
	n := h.Len()
	idx := make([]int, n)
	dist := make([]float64, n)
	for i := n - 1; i >= 0; i-- {
		item := heap.Pop(h).(neighborItem)
		idx[i] = item.index
		dist[i] = item.dist
	}
	return idx, dist
}
