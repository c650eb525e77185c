package umap

import (
	"context"
	"errors"
	"fmt"
	"math"
	"math/rand/v2"

	"gonum.org/v1/gonum/floats"
)

const (
	// gradClip bounds every per-coordinate gradient step.
	gradClip = 4.0
	// repulsionFloor keeps the repulsive gradient finite as d -> 0.
	repulsionFloor = 0.001
	// layoutScale is the per-axis extent of the layout entering SGD.
	layoutScale = 10.0

	// defaultCurveA and defaultCurveB fit spread 1 and min_dist 0.1. They
	// stand in when a curve fit does not converge.
	defaultCurveA = 1.5769434603113077
	defaultCurveB = 0.8950608779109733
)

// Embedding is a 2D layout, index-aligned with the points it was computed
// from: Coords[i] is the position of input row i.
type Embedding struct {
	Coords [][2]float64
}

// Len returns the number of embedded points.
func (e *Embedding) Len() int { return len(e.Coords) }

// PlotPoint is one embedded point with its input row index, which a
// renderer can use as a color channel.
type PlotPoint struct {
	X     float64 `json:"x" yaml:"x"`
	Y     float64 `json:"y" yaml:"y"`
	Index int     `json:"index" yaml:"index"`
}

// Tuples returns the embedding as (x, y, index) tuples in input order.
func (e *Embedding) Tuples() []PlotPoint {
	out := make([]PlotPoint, len(e.Coords))
	for i, c := range e.Coords {
		out[i] = PlotPoint{X: c[0], Y: c[1], Index: i}
	}
	return out
}

// OptimizeLayout computes a 2D embedding of the n nodes of g. minDist in
// [0, 1] (and at most cfg.Spread) sets how tightly points may pack. All
// randomness derives from seed, so identical inputs produce identical
// layouts.
//
// The initial layout is spectral; when the graph is disconnected or the
// eigensolver fails the layout starts from uniform random coordinates
// instead, and the failure is reported to cfg.Logger and cfg.Observer only.
func OptimizeLayout(g *FuzzyGraph, n int, minDist float64, seed int64, cfg Config) (*Embedding, error) {
	cfg, err := prepareConfig(cfg)
	if err != nil {
		return nil, err
	}
	return optimizeLayout(context.Background(), g, n, minDist, seed, cfg)
}

func validateLayout(g *FuzzyGraph, n int, minDist, spread float64) error {
	if n < 2 {
		return fmt.Errorf("umap: layout needs at least 2 points, got %d: %w", n, ErrInsufficientData)
	}
	if g == nil || g.N != n {
		got := 0
		if g != nil {
			got = g.N
		}
		return fmt.Errorf("umap: fuzzy graph has %d nodes, want %d: %w", got, n, ErrInvalidParameter)
	}
	if math.IsNaN(minDist) || minDist < 0 || minDist > 1 {
		return fmt.Errorf("umap: min_dist must be in [0, 1], got %g: %w", minDist, ErrInvalidParameter)
	}
	if minDist > spread {
		return fmt.Errorf("umap: min_dist %g exceeds spread %g: %w", minDist, spread, ErrInvalidParameter)
	}
	return nil
}

func optimizeLayout(ctx context.Context, g *FuzzyGraph, n int, minDist float64, seed int64, cfg Config) (*Embedding, error) {
	if err := validateLayout(g, n, minDist, cfg.Spread); err != nil {
		return nil, err
	}
	a, b, err := layoutCurve(ctx, cfg, minDist, FitAB)
	if err != nil {
		return nil, err
	}

	coords, initErr := initialLayout(g, seed, cfg)
	if initErr != nil {
		cfg.Logger.WithStage(StageLayout).LogFallback(ctx, "random initialization", initErr)
		cfg.Observer.ObserveFallback(StageLayout, initErr)
	}
	normalizeAxes(coords)

	epochs := cfg.epochsFor(n)
	s := newEdgeSchedule(g, epochs, cfg.NegativeSampleRate)
	opt := sgd{
		coords: coords,
		a:      a,
		b:      b,
		gamma:  cfg.RepulsionStrength,
		rng:    rand.New(newSource(seed, streamOptimize)),
	}
	for epoch := 0; epoch < epochs; epoch++ {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		alpha := cfg.LearningRate * (1 - float64(epoch)/float64(epochs))
		opt.epoch(s, float64(epoch), alpha)
	}
	return &Embedding{Coords: coords}, nil
}

// layoutCurve fits the output membership curve. A fit that does not
// converge is reported as a fallback and replaced by the default curve.
func layoutCurve(ctx context.Context, cfg Config, minDist float64, fit func(spread, minDist float64) (float64, float64, error)) (a, b float64, err error) {
	a, b, err = fit(cfg.Spread, minDist)
	switch {
	case err == nil:
		return a, b, nil
	case errors.Is(err, ErrNumericalNonConvergence):
		cfg.Logger.WithStage(StageLayout).LogFallback(ctx, "default curve", err)
		cfg.Observer.ObserveFallback(StageLayout, err)
		return defaultCurveA, defaultCurveB, nil
	default:
		return 0, 0, err
	}
}

// normalizeAxes maps each axis linearly onto [0, layoutScale]. A constant
// axis is left as is.
func normalizeAxes(coords [][2]float64) {
	axis := make([]float64, len(coords))
	for dim := 0; dim < 2; dim++ {
		for i, c := range coords {
			axis[i] = c[dim]
		}
		lo, hi := floats.Min(axis), floats.Max(axis)
		if hi-lo <= 0 {
			continue
		}
		for i := range coords {
			coords[i][dim] = layoutScale * (coords[i][dim] - lo) / (hi - lo)
		}
	}
}

// edgeSchedule lists the directed edges of the graph together with how
// often, in epochs, each is sampled. Heavier edges are sampled more often;
// the heaviest once per epoch.
type edgeSchedule struct {
	head, tail []int

	epochsPerSample   []float64
	nextSample        []float64
	epochsPerNegative []float64
	nextNegative      []float64
}

func newEdgeSchedule(g *FuzzyGraph, epochs, negativeRate int) *edgeSchedule {
	maxW := 0.0
	if len(g.Weights) > 0 {
		maxW = floats.Max(g.Weights)
	}
	// Edges too weak to be sampled even once are dropped.
	cutoff := maxW / float64(epochs)

	s := &edgeSchedule{}
	for i := 0; i < g.N; i++ {
		for p := g.Indptr[i]; p < g.Indptr[i+1]; p++ {
			w := g.Weights[p]
			if w < cutoff || w <= 0 {
				continue
			}
			eps := maxW / w
			s.head = append(s.head, i)
			s.tail = append(s.tail, g.Indices[p])
			s.epochsPerSample = append(s.epochsPerSample, eps)
			s.epochsPerNegative = append(s.epochsPerNegative, eps/float64(negativeRate))
		}
	}
	s.nextSample = append([]float64(nil), s.epochsPerSample...)
	s.nextNegative = append([]float64(nil), s.epochsPerNegative...)
	return s
}

// sgd holds the state of the stochastic gradient descent over one layout.
type sgd struct {
	coords [][2]float64
	a, b   float64
	gamma  float64
	rng    *rand.Rand
}

func clip(v float64) float64 {
	return max(-gradClip, min(gradClip, v))
}

func (o *sgd) epoch(s *edgeSchedule, n, alpha float64) {
	nPoints := len(o.coords)
	for e := range s.head {
		if s.nextSample[e] > n {
			continue
		}
		j, k := s.head[e], s.tail[e]
		cur, other := &o.coords[j], &o.coords[k]

		d2 := sqDist2(cur, other)
		coeff := 0.0
		if d2 > 0 {
			coeff = -2 * o.a * o.b * math.Pow(d2, o.b-1) / (o.a*math.Pow(d2, o.b) + 1)
		}
		for dim := 0; dim < 2; dim++ {
			grad := clip(coeff * (cur[dim] - other[dim]))
			cur[dim] += grad * alpha
			other[dim] -= grad * alpha
		}
		s.nextSample[e] += s.epochsPerSample[e]

		negatives := int((n - s.nextNegative[e]) / s.epochsPerNegative[e])
		for range negatives {
			neg := o.rng.IntN(nPoints)
			if neg == j {
				continue
			}
			other := &o.coords[neg]
			d2 := sqDist2(cur, other)
			coeff := 0.0
			if d2 > 0 {
				coeff = 2 * o.gamma * o.b / ((repulsionFloor + d2) * (o.a*math.Pow(d2, o.b) + 1))
			}
			for dim := 0; dim < 2; dim++ {
				grad := gradClip
				if coeff > 0 {
					grad = clip(coeff * (cur[dim] - other[dim]))
				}
				cur[dim] += grad * alpha
			}
		}
		s.nextNegative[e] += float64(negatives) * s.epochsPerNegative[e]
	}
}

func sqDist2(p, q *[2]float64) float64 {
	dx, dy := p[0]-q[0], p[1]-q[1]
	return dx*dx + dy*dy
}
