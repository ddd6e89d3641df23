package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Resolve outcomes.
const (
	ResolveOK      = "ok"
	ResolveUnknown = "unknown"
	ResolveExpired = "expired"
	ResolveNoState = "missing_state"
	ResolveFailed  = "error"
)

// Metrics tracks handshake issuance and resolution.
type Metrics struct {
	Issued           prometheus.Counter
	Resolved         *prometheus.CounterVec
	CallbackOutcomes *prometheus.CounterVec
	Swept            prometheus.Counter
}

// New registers handshake metrics with the default registry.
func New() *Metrics {
	return &Metrics{
		Issued: promauto.NewCounter(prometheus.CounterOpts{
			Name: "verigate_handshake_issued_total",
			Help: "Handshake tokens issued",
		}),
		Resolved: promauto.NewCounterVec(prometheus.CounterOpts{
			Name: "verigate_handshake_resolved_total",
			Help: "Handshake resolutions by result",
		}, []string{"result"}),
		CallbackOutcomes: promauto.NewCounterVec(prometheus.CounterOpts{
			Name: "verigate_handshake_callback_outcomes_total",
			Help: "Verification callback outcomes by provider and status",
		}, []string{"provider", "status"}),
		Swept: promauto.NewCounter(prometheus.CounterOpts{
			Name: "verigate_handshake_swept_total",
			Help: "Expired handshake tokens removed by the cleanup worker",
		}),
	}
}

func (m *Metrics) IncrementIssued() {
	if m != nil {
		m.Issued.Inc()
	}
}

func (m *Metrics) IncrementResolved(result string) {
	if m != nil {
		m.Resolved.WithLabelValues(result).Inc()
	}
}

func (m *Metrics) IncrementCallbackOutcome(provider, status string) {
	if m != nil {
		m.CallbackOutcomes.WithLabelValues(provider, status).Inc()
	}
}

func (m *Metrics) AddSwept(n int) {
	if m != nil && n > 0 {
		m.Swept.Add(float64(n))
	}
}
