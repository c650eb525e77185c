// Package promobserver exports pipeline stage timings as Prometheus
// metrics.
package promobserver

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/TrevorS/umap"
)

// Observer implements umap.Observer on Prometheus collectors.
type Observer struct {
	stageLatency *prometheus.HistogramVec
	requests     *prometheus.CounterVec
	fallbacks    *prometheus.CounterVec
}

var _ umap.Observer = (*Observer)(nil)

// New creates an Observer and registers its collectors with reg. A nil reg
// means prometheus.DefaultRegisterer.
func New(reg prometheus.Registerer) (*Observer, error) {
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	o := &Observer{
		stageLatency: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "umap_stage_duration_seconds",
			Help:    "Wall-clock duration of pipeline stage requests",
			Buckets: prometheus.ExponentialBuckets(0.0005, 4, 10),
		}, []string{"stage", "status"}),
		requests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "umap_stage_requests_total",
			Help: "Pipeline stage requests by cache outcome",
		}, []string{"stage", "cache"}),
		fallbacks: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "umap_fallbacks_total",
			Help: "Numerical failures recovered with a fallback",
		}, []string{"stage"}),
	}
	for _, c := range []prometheus.Collector{o.stageLatency, o.requests, o.fallbacks} {
		if err := reg.Register(c); err != nil {
			return nil, err
		}
	}
	return o, nil
}

// ObserveStage implements umap.Observer.
func (o *Observer) ObserveStage(stage umap.Stage, d time.Duration, cached bool, err error) {
	status := "success"
	if err != nil {
		status = "error"
	}
	o.stageLatency.WithLabelValues(string(stage), status).Observe(d.Seconds())

	outcome := "miss"
	if cached {
		outcome = "hit"
	}
	o.requests.WithLabelValues(string(stage), outcome).Inc()
}

// ObserveFallback implements umap.Observer.
func (o *Observer) ObserveFallback(stage umap.Stage, _ error) {
	o.fallbacks.WithLabelValues(string(stage)).Inc()
}
