// Package session drives an interactive exploration: every parameter change
// re-evaluates the pipeline from the top, and cached stages make the
// unaffected parts free. A failed update keeps the last good embedding.
package session

import (
	"context"
	"sync"
	"time"

	"github.com/TrevorS/umap"
)

// Result is one successfully computed view.
type Result struct {
	Params    umap.Params
	Points    *umap.PointMatrix
	Embedding *umap.Embedding
	Elapsed   time.Duration
}

// Session evaluates parameter sets against one pipeline.
type Session struct {
	pipeline *umap.Pipeline
	logger   *umap.Logger

	mu      sync.Mutex
	last    *Result
	lastErr error
}

// New creates a session over p. A nil logger discards output.
func New(p *umap.Pipeline, logger *umap.Logger) *Session {
	if logger == nil {
		logger = umap.NoopLogger()
	}
	return &Session{pipeline: p, logger: logger}
}

// Update validates params and recomputes the view. On failure the error is
// returned and the previous result stays current.
func (s *Session) Update(ctx context.Context, params umap.Params) (*Result, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := params.Validate(); err != nil {
		s.lastErr = err
		return nil, err
	}
	start := time.Now()
	points, emb, err := s.pipeline.Run(ctx, params)
	if err != nil {
		s.lastErr = err
		s.logger.WarnContext(ctx, "update failed, keeping last embedding", "error", err)
		return nil, err
	}
	s.last = &Result{
		Params:    params,
		Points:    points,
		Embedding: emb,
		Elapsed:   time.Since(start),
	}
	s.lastErr = nil
	return s.last, nil
}

// Last returns the most recent successful result, or nil before the first.
func (s *Session) Last() *Result {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.last
}

// Err returns the error of the most recent update, if it failed.
func (s *Session) Err() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.lastErr
}

// Stats exposes the pipeline's cache counters.
func (s *Session) Stats() map[umap.Stage]umap.CacheStats { return s.pipeline.Stats() }
