package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics provides observability for the decision pipeline.
type Metrics struct {
	// Decision outcomes by route and status
	DecisionOutcome *prometheus.CounterVec

	// Reason codes written per decision
	ReasonCodes *prometheus.CounterVec

	// Scorer call latency by result (ok, timeout, unavailable, malformed)
	ScorerLatency *prometheus.HistogramVec

	// Sink forward results by outcome route (sent, failed, skipped)
	Forwards *prometheus.CounterVec

	// Full submission latency including persistence
	SubmitLatency prometheus.Histogram
}

// New creates a new Metrics instance with all decision metrics registered.
func New() *Metrics {
	return &Metrics{
		DecisionOutcome: promauto.NewCounterVec(prometheus.CounterOpts{
			Name: "verigate_decision_outcomes_total",
			Help: "Total decision outcomes by deciding route and status",
		}, []string{"route", "status"}),

		ReasonCodes: promauto.NewCounterVec(prometheus.CounterOpts{
			Name: "verigate_decision_reasons_total",
			Help: "Reason codes attached to decisions",
		}, []string{"reason"}),

		ScorerLatency: promauto.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "verigate_decision_scorer_duration_seconds",
			Help:    "Duration of external scorer calls by result",
			Buckets: []float64{0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10},
		}, []string{"result"}),

		Forwards: promauto.NewCounterVec(prometheus.CounterOpts{
			Name: "verigate_decision_forwards_total",
			Help: "Metrics sink forwards by status and result",
		}, []string{"status", "result"}),

		SubmitLatency: promauto.NewHistogram(prometheus.HistogramOpts{
			Name:    "verigate_decision_submit_duration_seconds",
			Help:    "Duration of portal submissions including persistence",
			Buckets: []float64{0.01, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10, 30},
		}),
	}
}

// IncrementOutcome records a decision and its reason codes.
func (m *Metrics) IncrementOutcome(route, status string, reasons []string) {
	if m == nil {
		return
	}
	m.DecisionOutcome.WithLabelValues(route, status).Inc()
	for _, r := range reasons {
		m.ReasonCodes.WithLabelValues(r).Inc()
	}
}

// ObserveScorerLatency records one scorer call.
func (m *Metrics) ObserveScorerLatency(result string, d time.Duration) {
	if m != nil {
		m.ScorerLatency.WithLabelValues(result).Observe(d.Seconds())
	}
}

// IncrementForward records a sink forward attempt.
func (m *Metrics) IncrementForward(status, result string) {
	if m != nil {
		m.Forwards.WithLabelValues(status, result).Inc()
	}
}

// ObserveSubmitLatency records the end-to-end submission duration.
func (m *Metrics) ObserveSubmitLatency(d time.Duration) {
	if m != nil {
		m.SubmitLatency.Observe(d.Seconds())
	}
}
