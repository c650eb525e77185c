package umap

import (
	"sync"
	"sync/atomic"
	"time"
)

// Stage names a memoized pipeline stage.
type Stage string

const (
	StageDataset   Stage = "dataset"
	StageNeighbors Stage = "neighbors"
	StageFuzzy     Stage = "fuzzy"
	StageLayout    Stage = "layout"
	// StageEmbedding covers neighbors, fuzzy and layout together.
	StageEmbedding Stage = "embedding"
)

// Observer receives per-stage wall-clock timings. It is an informational
// side channel; implementations must not block.
//
// Example Prometheus integration lives in the promobserver package.
type Observer interface {
	// ObserveStage is called once per stage request. cached reports a cache
	// hit; err is nil on success.
	ObserveStage(stage Stage, duration time.Duration, cached bool, err error)

	// ObserveFallback is called when a numerical routine failed and the
	// pipeline recovered with a fallback.
	ObserveFallback(stage Stage, err error)
}

// NoopObserver discards all observations.
type NoopObserver struct{}

func (NoopObserver) ObserveStage(Stage, time.Duration, bool, error) {}
func (NoopObserver) ObserveFallback(Stage, error)                  {}

// StageCounters aggregates observations of one stage.
type StageCounters struct {
	Requests   atomic.Int64
	CacheHits  atomic.Int64
	Errors     atomic.Int64
	Fallbacks  atomic.Int64
	TotalNanos atomic.Int64
	LastNanos  atomic.Int64
}

// BasicObserver keeps in-memory counters per stage. Useful for tests and
// debugging without external dependencies.
type BasicObserver struct {
	stages sync.Map // Stage → *StageCounters
}

// Counters returns the counters for stage, creating them on first use.
func (b *BasicObserver) Counters(stage Stage) *StageCounters {
	v, _ := b.stages.LoadOrStore(stage, &StageCounters{})
	return v.(*StageCounters)
}

// ObserveStage implements Observer.
func (b *BasicObserver) ObserveStage(stage Stage, d time.Duration, cached bool, err error) {
	c := b.Counters(stage)
	c.Requests.Add(1)
	c.TotalNanos.Add(d.Nanoseconds())
	c.LastNanos.Store(d.Nanoseconds())
	if cached {
		c.CacheHits.Add(1)
	}
	if err != nil {
		c.Errors.Add(1)
	}
}

// ObserveFallback implements Observer.
func (b *BasicObserver) ObserveFallback(stage Stage, _ error) {
	b.Counters(stage).Fallbacks.Add(1)
}
