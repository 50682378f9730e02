// Package metrics holds the Prometheus instrumentation for the analysis
// pipeline. The set is intentionally small: fetch outcomes, classification
// counts by category, and batch item outcomes.
package metrics

import (
	"fmt"

	"github.com/prometheus/client_golang/prometheus"
)

// RadarMetrics bundles the pipeline collectors. A nil *RadarMetrics is a
// valid no-op receiver for the Observe methods, so callers don't need guard
// clauses.
type RadarMetrics struct {
	fetchTotal           *prometheus.CounterVec
	pagesFetchedTotal    prometheus.Counter
	classificationsTotal *prometheus.CounterVec
	batchItemsTotal      *prometheus.CounterVec
}

// NewRadarMetrics creates and registers the collectors on the given
// registry.
func NewRadarMetrics(registry *prometheus.Registry) (*RadarMetrics, error) {
	m := &RadarMetrics{
		fetchTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "radar_site_fetches_total",
				Help: "Site fetch attempts by result.",
			},
			[]string{"result"},
		),
		pagesFetchedTotal: prometheus.NewCounter(
			prometheus.CounterOpts{
				Name: "radar_pages_fetched_total",
				Help: "Individual pages retrieved across all site fetches.",
			},
		),
		classificationsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "radar_classifications_total",
				Help: "Completed classifications by category.",
			},
			[]string{"category"},
		),
		batchItemsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "radar_batch_items_total",
				Help: "Batch analysis items by result.",
			},
			[]string{"result"},
		),
	}

	collectors := []prometheus.Collector{
		m.fetchTotal, m.pagesFetchedTotal, m.classificationsTotal, m.batchItemsTotal,
	}
	for _, c := range collectors {
		if err := registry.Register(c); err != nil {
			return nil, fmt.Errorf("registering radar metrics: %w", err)
		}
	}
	return m, nil
}

// ObserveFetch records one site fetch outcome and its page count.
func (m *RadarMetrics) ObserveFetch(success bool, pages int) {
	if m == nil {
		return
	}
	m.fetchTotal.WithLabelValues(resultLabel(success)).Inc()
	if pages > 0 {
		m.pagesFetchedTotal.Add(float64(pages))
	}
}

// ObserveClassification records one completed classification.
func (m *RadarMetrics) ObserveClassification(category string) {
	if m == nil {
		return
	}
	m.classificationsTotal.WithLabelValues(category).Inc()
}

// ObserveBatchItem records one batch item outcome.
func (m *RadarMetrics) ObserveBatchItem(success bool) {
	if m == nil {
		return
	}
	m.batchItemsTotal.WithLabelValues(resultLabel(success)).Inc()
}

func resultLabel(success bool) string {
	if success {
		return "success"
	}
	return "error"
}
