package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics holds process-wide Prometheus metrics.
type Metrics struct {
	BuildInfo *prometheus.GaugeVec
}

// New creates and registers process metrics.
func New(version, provider string) *Metrics {
	m := &Metrics{
		BuildInfo: promauto.NewGaugeVec(prometheus.GaugeOpts{
			Name: "verigate_build_info",
			Help: "Build and runtime selection info; value is always 1",
		}, []string{"version", "provider"}),
	}
	m.BuildInfo.WithLabelValues(version, provider).Set(1)
	return m
}

// Handler exposes the default registry for scraping.
func Handler() http.Handler {
	return promhttp.Handler()
}
