// Package monitoring exports collection metrics and catalog health.
package monitoring

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"github.com/ntoujavaproject/store-strategist/internal/fanout"
)

// Metrics holds the collectors for one process. It satisfies
// fanout.Observer, review.PageObserver and sink.UploadObserver.
type Metrics struct {
	registry *prometheus.Registry

	units           *prometheus.CounterVec
	unitDuration    *prometheus.HistogramVec
	pages           *prometheus.CounterVec
	uploads         *prometheus.CounterVec
	uploadedReviews prometheus.Counter
	discovered      prometheus.Gauge
}

// NewMetrics registers the collectors on a fresh registry.
func NewMetrics() *Metrics {
	reg := prometheus.NewRegistry()
	f := promauto.With(reg)

	return &Metrics{
		registry: reg,
		units: f.NewCounterVec(
			prometheus.CounterOpts{
				Name: "strategist_units_total",
				Help: "Fan-out units by fan-out name and outcome.",
			},
			[]string{"fanout", "outcome"},
		),
		unitDuration: f.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "strategist_unit_duration_seconds",
				Help:    "Duration of completed fan-out units.",
				Buckets: []float64{0.1, 0.5, 1, 2, 5, 10, 30, 60, 300},
			},
			[]string{"fanout"},
		),
		pages: f.NewCounterVec(
			prometheus.CounterOpts{
				Name: "strategist_review_pages_total",
				Help: "Review feed pages by status.",
			},
			[]string{"status"},
		),
		uploads: f.NewCounterVec(
			prometheus.CounterOpts{
				Name: "strategist_uploads_total",
				Help: "Restaurant uploads by status.",
			},
			[]string{"status"},
		),
		uploadedReviews: f.NewCounter(
			prometheus.CounterOpts{
				Name: "strategist_uploaded_reviews_total",
				Help: "Reviews written to the sink.",
			},
		),
		discovered: f.NewGauge(
			prometheus.GaugeOpts{
				Name: "strategist_discovered_ids",
				Help: "New identifiers found by the last grid scan.",
			},
		),
	}
}

// Registry returns the registry the collectors live on.
func (m *Metrics) Registry() *prometheus.Registry {
	return m.registry
}

func (m *Metrics) ObserveUnit(name string, outcome fanout.Outcome, elapsed time.Duration) {
	m.units.WithLabelValues(name, string(outcome)).Inc()
	if outcome != fanout.OutcomeSkipped {
		m.unitDuration.WithLabelValues(name).Observe(elapsed.Seconds())
	}
}

func (m *Metrics) ObservePage(ok bool) {
	m.pages.WithLabelValues(status(ok)).Inc()
}

func (m *Metrics) ObserveUpload(ok bool, reviews int) {
	m.uploads.WithLabelValues(status(ok)).Inc()
	if ok {
		m.uploadedReviews.Add(float64(reviews))
	}
}

// SetDiscovered records the size of the last scan's new-ID set.
func (m *Metrics) SetDiscovered(n int) {
	m.discovered.Set(float64(n))
}

func status(ok bool) string {
	if ok {
		return "ok"
	}
	return "error"
}
