package umap

import "math/rand/v2"

// Random streams derived from one seed. Each consumer gets its own stream
// so adding draws to one stage does not shift another.
const (
	streamDataset uint64 = iota + 1
	streamInit
	streamSpectral
	streamOptimize
)

// newSource returns a deterministic PCG source for the given seed and
// stream.
func newSource(seed int64, stream uint64) *rand.PCG {
	return rand.NewPCG(uint64(seed), 0x9e3779b97f4a7c15^stream)
}
