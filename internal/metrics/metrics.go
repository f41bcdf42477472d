// Package metrics exposes the storefront's Prometheus collectors.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics is safe to use as a nil pointer; every recorder is then a no-op.
type Metrics struct {
	cartMutations    *prometheus.CounterVec
	checkoutSessions *prometheus.CounterVec
	watchOutcomes    *prometheus.CounterVec
	fulfillments     *prometheus.CounterVec
}

func New(reg prometheus.Registerer) *Metrics {
	factory := promauto.With(reg)
	return &Metrics{
		cartMutations: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: "storefront",
			Name:      "cart_mutations_total",
			Help:      "Persisted cart mutations by operation.",
		}, []string{"op"}),
		checkoutSessions: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: "storefront",
			Name:      "checkout_sessions_total",
			Help:      "Checkout session creation attempts by result.",
		}, []string{"result"}),
		watchOutcomes: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: "storefront",
			Name:      "checkout_watch_outcomes_total",
			Help:      "Terminal states reached by checkout session watchers.",
		}, []string{"state"}),
		fulfillments: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: "storefront",
			Name:      "checkout_fulfillments_total",
			Help:      "Checkout sessions completed by the payment worker, by result.",
		}, []string{"result"}),
	}
}

func (m *Metrics) CartMutation(op string) {
	if m == nil {
		return
	}
	m.cartMutations.WithLabelValues(op).Inc()
}

func (m *Metrics) CheckoutSession(result string) {
	if m == nil {
		return
	}
	m.checkoutSessions.WithLabelValues(result).Inc()
}

func (m *Metrics) WatchOutcome(state string) {
	if m == nil {
		return
	}
	m.watchOutcomes.WithLabelValues(state).Inc()
}

func (m *Metrics) Fulfillment(result string) {
	if m == nil {
		return
	}
	m.fulfillments.WithLabelValues(result).Inc()
}
