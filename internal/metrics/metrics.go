// Package metrics exports bot and search counters in Prometheus format.
package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Search outcomes
const (
	OutcomeOK      = "ok"
	OutcomeEmpty   = "empty"
	OutcomeInvalid = "invalid"
	OutcomeError   = "error"
)

// Metrics holds the collectors of one bot instance. A nil *Metrics is valid
// and records nothing.
type Metrics struct {
	registry *prometheus.Registry

	searches       *prometheus.CounterVec
	searchResults  prometheus.Histogram
	searchDuration prometheus.Histogram
	updates        *prometheus.CounterVec
}

// New registers all collectors on a fresh registry
func New() *Metrics {
	m := &Metrics{registry: prometheus.NewRegistry()}

	m.searches = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "placesbot",
			Name:      "searches_total",
			Help:      "Proximity searches by venue type and outcome",
		},
		[]string{"type", "outcome"},
	)

	m.searchResults = prometheus.NewHistogram(
		prometheus.HistogramOpts{
			Namespace: "placesbot",
			Name:      "search_results",
			Help:      "Number of venues returned per successful search",
			Buckets:   []float64{0, 1, 5, 10, 20, 50, 100, 200},
		},
	)

	m.searchDuration = prometheus.NewHistogram(
		prometheus.HistogramOpts{
			Namespace: "placesbot",
			Name:      "search_duration_seconds",
			Help:      "Time spent in a proximity search including the store query",
			Buckets:   []float64{0.005, 0.01, 0.05, 0.1, 0.25, 0.5, 1, 2, 5},
		},
	)

	m.updates = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "placesbot",
			Name:      "updates_total",
			Help:      "Telegram updates handled by kind",
		},
		[]string{"kind"},
	)

	m.registry.MustRegister(m.searches, m.searchResults, m.searchDuration, m.updates)
	return m
}

// Registry exposes the underlying registry
func (m *Metrics) Registry() *prometheus.Registry {
	return m.registry
}

// Handler serves the registry for /metrics
func (m *Metrics) Handler() http.Handler {
	if m == nil {
		return http.NotFoundHandler()
	}
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}

// ObserveSearch records one search
func (m *Metrics) ObserveSearch(venueType, outcome string, results int, took time.Duration) {
	if m == nil {
		return
	}
	if venueType == "" {
		venueType = "any"
	}

	m.searches.WithLabelValues(venueType, outcome).Inc()
	m.searchDuration.Observe(took.Seconds())
	if outcome == OutcomeOK || outcome == OutcomeEmpty {
		m.searchResults.Observe(float64(results))
	}
}

// IncUpdate counts one handled update (message, callback, location...)
func (m *Metrics) IncUpdate(kind string) {
	if m == nil {
		return
	}
	m.updates.WithLabelValues(kind).Inc()
}
