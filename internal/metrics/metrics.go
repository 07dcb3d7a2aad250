// Package metrics provides Prometheus metrics for khobor-dash.
package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// RetrievalsTotal counts orchestrator retrievals by provider and outcome.
	RetrievalsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "khobor",
			Name:      "retrievals_total",
			Help:      "Total number of article retrievals",
		},
		[]string{"provider", "outcome"},
	)

	// RetrievalDuration measures retrieval latency.
	RetrievalDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "khobor",
			Name:      "retrieval_duration_seconds",
			Help:      "Duration of article retrievals in seconds",
			Buckets:   prometheus.DefBuckets,
		},
		[]string{"provider"},
	)

	// ArticlesReturned observes result set sizes.
	ArticlesReturned = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "khobor",
			Name:      "articles_returned",
			Help:      "Distribution of articles returned per retrieval",
			Buckets:   []float64{0, 1, 2, 4, 8, 16, 32, 64},
		},
		[]string{"provider"},
	)

	// ScrapeTargetsTotal counts scrape fan-out results per target.
	ScrapeTargetsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "khobor",
			Name:      "scrape_targets_total",
			Help:      "Total number of scrape target attempts",
		},
		[]string{"target", "status"},
	)

	// ProxyRequestsTotal counts scrape proxy requests by status code class.
	ProxyRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "khobor",
			Name:      "proxy_requests_total",
			Help:      "Total number of scrape proxy requests",
		},
		[]string{"status"},
	)

	// PublishTotal counts article events delivered to sinks.
	PublishTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "khobor",
			Name:      "publish_total",
			Help:      "Total number of article publish attempts",
		},
		[]string{"publisher", "status"},
	)
)

// RecordRetrieval records one finished retrieval.
func RecordRetrieval(provider, outcome string, articles int, elapsed time.Duration) {
	RetrievalsTotal.WithLabelValues(provider, outcome).Inc()
	RetrievalDuration.WithLabelValues(provider).Observe(elapsed.Seconds())
	ArticlesReturned.WithLabelValues(provider).Observe(float64(articles))
}

// RecordScrapeTarget records the outcome of one scrape target.
func RecordScrapeTarget(target, status string) {
	ScrapeTargetsTotal.WithLabelValues(target, status).Inc()
}

// RecordProxyRequest records a proxied scrape request.
func RecordProxyRequest(status string) {
	ProxyRequestsTotal.WithLabelValues(status).Inc()
}

// RecordPublish records one sink delivery attempt.
func RecordPublish(publisher, status string) {
	PublishTotal.WithLabelValues(publisher, status).Inc()
}
