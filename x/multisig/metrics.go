package multisig

import (
	"github.com/iov-one/multisafe"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const (
	stepDelegate = "delegate"
	stepSign     = "sign"
)

// Metrics counts the outcome of signing requests. One instance should be
// shared by all Safes registering to the same registry.
type Metrics struct {
	signResults *prometheus.CounterVec
	converted   *prometheus.CounterVec
}

// NewMetrics creates the counters and registers them with reg. A nil
// registry leaves them unregistered.
func NewMetrics(reg prometheus.Registerer) *Metrics {
	factory := promauto.With(reg)
	return &Metrics{
		signResults: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: "multisafe",
				Name:      "sign_results_total",
				Help:      "Signing requests by network, step and result.",
			},
			[]string{"network", "step", "result"},
		),
		converted: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: "multisafe",
				Name:      "published_transactions_total",
				Help:      "Fully signed transactions converted for broadcast.",
			},
			[]string{"network"},
		),
	}
}

func (m *Metrics) observeSign(network, step string, res multisafe.SignTransactionResult) {
	result := res.ErrorType.String()
	switch {
	case res.OK() && res.AlreadySigned:
		result = "already_signed"
	case res.OK():
		result = "signed"
	}
	m.signResults.WithLabelValues(network, step, result).Inc()
}

func (m *Metrics) observeConverted(network string) {
	m.converted.WithLabelValues(network).Inc()
}
