package telemetry

import (
	"sync"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics holds all Prometheus metrics for the service.
type Metrics struct {
	WebhooksTotal   *prometheus.CounterVec
	WebhookDuration *prometheus.HistogramVec
	RatesReturned   *prometheus.HistogramVec
	ProviderErrors  *prometheus.CounterVec
	CacheOperations *prometheus.CounterVec
}

var (
	metricsOnce sync.Once
	metrics     *Metrics
)

// NewMetrics returns the process-wide metrics set, registering the
// collectors on first use. promauto registration panics on duplicates,
// so the set is a singleton.
func NewMetrics() *Metrics {
	metricsOnce.Do(func() {
		metrics = newMetrics()
	})
	return metrics
}

func newMetrics() *Metrics {
	return &Metrics{
		WebhooksTotal: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "cartbridge_webhooks_total",
				Help: "Total webhook requests by event and status",
			},
			[]string{"event", "status"},
		),
		WebhookDuration: promauto.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "cartbridge_webhook_duration_seconds",
				Help:    "Webhook handling duration in seconds by event",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"event"},
		),
		RatesReturned: promauto.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "cartbridge_rates_returned",
				Help:    "Number of shipping rates returned per aggregation",
				Buckets: []float64{0, 1, 2, 4, 8, 16},
			},
			[]string{},
		),
		ProviderErrors: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "cartbridge_provider_errors_total",
				Help: "Total provider dispatch errors by provider",
			},
			[]string{"provider"},
		),
		CacheOperations: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "cartbridge_cache_operations_total",
				Help: "Cache invalidations and sweeps by operation",
			},
			[]string{"operation"},
		),
	}
}

// RecordWebhook records one handled webhook.
func (m *Metrics) RecordWebhook(event, status string, duration float64) {
	m.WebhooksTotal.WithLabelValues(event, status).Inc()
	m.WebhookDuration.WithLabelValues(event).Observe(duration)
}

// RecordRates records how many rates an aggregation produced.
func (m *Metrics) RecordRates(count int) {
	m.RatesReturned.WithLabelValues().Observe(float64(count))
}

// RecordProviderError records a provider dispatch error.
func (m *Metrics) RecordProviderError(provider string) {
	m.ProviderErrors.WithLabelValues(provider).Inc()
}

// RecordCacheOperation records a cache maintenance operation.
func (m *Metrics) RecordCacheOperation(operation string) {
	m.CacheOperations.WithLabelValues(operation).Inc()
}
