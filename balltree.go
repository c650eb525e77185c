package umap

import "math"

// BallTree is an exact nearest-neighbor index whose nodes are balls around
// the centroid of their points. Balls keep pruning useful in moderate
// dimensions where KD-tree boxes degrade. The metric must satisfy the
// triangle inequality (see BallTreeValidMetric).
type BallTree struct {
	treeBase
	// centroids[node*dims : (node+1)*dims] is the mean of node's points.
	centroids []float64
}

// NewBallTree builds a ball tree over points with at most leafSize points
// per leaf.
func NewBallTree(points *PointMatrix, metric DistanceMetric, leafSize int) *BallTree {
	t := &BallTree{treeBase: newTreeBase(points, metric, leafSize)}
	t.centroids = make([]float64, len(t.nodes)*points.dims)
	if points.n > 0 {
		t.build(0, 0, points.n)
		t.numNodes = countNodes(t.nodes, 0)
	}
	return t
}

func (t *BallTree) build(nodeID, start, end int) {
	if added := t.grow(nodeID); added > 0 {
		t.centroids = append(t.centroids, make([]float64, added*t.points.dims)...)
	}

	center := t.centroid(nodeID)
	clear(center)
	for _, i := range t.idxArray[start:end] {
		for j, v := range t.points.Row(i) {
			center[j] += v
		}
	}
	for j := range center {
		center[j] /= float64(end - start)
	}
	var radius float64
	for _, i := range t.idxArray[start:end] {
		radius = max(radius, t.metric.Distance(center, t.points.Row(i)))
	}

	node := NodeData{IdxStart: start, IdxEnd: end, Radius: radius}
	if end-start <= t.leafSize {
		node.IsLeaf = true
		t.nodes[nodeID] = node
		return
	}
	t.nodes[nodeID] = node

	mid := t.splitMedian(start, end, t.spreadDim(start, end))
	t.build(2*nodeID+1, start, mid)
	t.build(2*nodeID+2, mid, end)
}

func (t *BallTree) centroid(node int) []float64 {
	return t.centroids[node*t.points.dims : (node+1)*t.points.dims]
}

// QueryKNN finds the k nearest neighbors of every indexed point.
func (t *BallTree) QueryKNN(k int) ([][]int, [][]float64) {
	return t.queryAll(k, func(self int, query []float64, h *neighborHeap) {
		t.search(0, self, query, k, h)
	})
}

func (t *BallTree) search(nodeID, self int, query []float64, k int, h *neighborHeap) {
	if nodeID >= len(t.nodes) {
		return
	}
	node := t.nodes[nodeID]
	if node.IsLeaf {
		t.scanLeaf(node, self, query, k, h)
		return
	}
	descend(nodeID,
		func(child int) float64 { return t.ballDist(child, query) },
		func(d float64) float64 { return d },
		k, h,
		func(child int) { t.search(child, self, query, k, h) },
	)
}

// ballDist is a lower bound on the distance from point to anything in node:
// the distance to the centroid less the radius.
func (t *BallTree) ballDist(node int, point []float64) float64 {
	if node >= len(t.nodes) {
		return math.Inf(1)
	}
	return max(0, t.metric.Distance(point, t.centroid(node))-t.nodes[node].Radius)
}
