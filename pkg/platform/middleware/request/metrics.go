package request

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics is the per-route latency histogram. Buckets reach past the scorer
// timeout so slow submissions land in a real bucket, not +Inf.
type Metrics struct {
	latency *prometheus.HistogramVec
}

func NewMetrics() *Metrics {
	return &Metrics{
		latency: promauto.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "verigate_http_request_duration_seconds",
			Help:    "HTTP request latency by chi route pattern.",
			Buckets: []float64{0.005, 0.025, 0.1, 0.25, 1, 2.5, 5, 10, 15, 30},
		}, []string{"endpoint"}),
	}
}

func (m *Metrics) ObserveEndpointLatency(endpoint string, seconds float64) {
	m.latency.WithLabelValues(endpoint).Observe(seconds)
}
