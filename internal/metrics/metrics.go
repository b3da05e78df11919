// Package metrics exposes Prometheus counters for related-show refreshes.
package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "showlink"

const (
	ResultSuccess  = "success"
	ResultNotFound = "not_found"
	ResultError    = "error"
)

type Metrics struct {
	registry       *prometheus.Registry
	refreshes      *prometheus.CounterVec
	childFailures  prometheus.Counter
	fetchedRelated prometheus.Counter
	refreshSeconds prometheus.Histogram
}

func New() *Metrics {
	m := &Metrics{
		registry: prometheus.NewRegistry(),
		refreshes: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "related_refreshes_total",
			Help:      "Related-show refreshes by result.",
		}, []string{"result"}),
		childFailures: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "show_update_failures_total",
			Help:      "Related show detail updates that failed after a refresh.",
		}),
		fetchedRelated: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "related_shows_fetched_total",
			Help:      "Related shows returned by the catalog.",
		}),
		refreshSeconds: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "related_refresh_duration_seconds",
			Help:      "Time spent refreshing related shows, fan-out included.",
			Buckets:   prometheus.DefBuckets,
		}),
	}

	m.registry.MustRegister(
		m.refreshes,
		m.childFailures,
		m.fetchedRelated,
		m.refreshSeconds,
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	return m
}

func (m *Metrics) RefreshCompleted(result string, seconds float64) {
	m.refreshes.WithLabelValues(result).Inc()
	m.refreshSeconds.Observe(seconds)
}

func (m *Metrics) RelatedFetched(n int) {
	m.fetchedRelated.Add(float64(n))
}

func (m *Metrics) ShowUpdateFailed() {
	m.childFailures.Inc()
}

func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}
