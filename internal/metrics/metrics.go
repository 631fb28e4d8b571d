package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics holds the batch collectors. Build one per registry.
type Metrics struct {
	// Feature throughput
	FeaturesProcessed prometheus.Counter
	FeaturesSkipped   *prometheus.CounterVec

	// Output volume
	PointsGenerated prometheus.Counter

	LineDuration prometheus.Histogram

	// Worker pool
	ActiveWorkers prometheus.Gauge
}

// New registers the collectors on reg. A nil reg leaves them unregistered.
func New(reg prometheus.Registerer) *Metrics {
	f := promauto.With(reg)
	return &Metrics{
		FeaturesProcessed: f.NewCounter(prometheus.CounterOpts{
			Name: "chainage_features_processed_total",
			Help: "Total number of line features that produced chainage points",
		}),
		FeaturesSkipped: f.NewCounterVec(prometheus.CounterOpts{
			Name: "chainage_features_skipped_total",
			Help: "Total number of line features skipped, by failure reason",
		}, []string{"reason"}),
		PointsGenerated: f.NewCounter(prometheus.CounterOpts{
			Name: "chainage_points_generated_total",
			Help: "Total number of chainage points emitted",
		}),
		LineDuration: f.NewHistogram(prometheus.HistogramOpts{
			Name:    "chainage_line_duration_seconds",
			Help:    "Time taken to generate chainage for a single line",
			Buckets: prometheus.ExponentialBuckets(0.0001, 4, 10), // 0.1ms to ~26s
		}),
		ActiveWorkers: f.NewGauge(prometheus.GaugeOpts{
			Name: "chainage_active_workers",
			Help: "Current number of busy batch workers",
		}),
	}
}
