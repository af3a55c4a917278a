package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// OrderMetrics records counters for the order lifecycle and the payment
// reconciliation path.
type OrderMetrics struct {
	ordersCreated   *prometheus.CounterVec
	transitions     *prometheus.CounterVec
	webhookOutcomes *prometheus.CounterVec
	gatewayDuration *prometheus.HistogramVec
}

// NewOrderMetrics registers the order metrics on the provided registerer.
func NewOrderMetrics(reg prometheus.Registerer) *OrderMetrics {
	if reg == nil {
		return &OrderMetrics{}
	}
	ordersCreated := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "orders_created_total",
		Help: "Orders accepted, labelled by payment method.",
	}, []string{"payment_method"})
	transitions := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "order_status_transitions_total",
		Help: "Order status transitions applied.",
	}, []string{"from", "to"})
	webhookOutcomes := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "payment_webhook_outcomes_total",
		Help: "Provider webhook deliveries by reconciliation outcome.",
	}, []string{"outcome"})
	gatewayDuration := prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "pix_gateway_duration_seconds",
		Help:    "Latency of PIX gateway calls in seconds.",
		Buckets: prometheus.DefBuckets,
	}, []string{"operation"})
	reg.MustRegister(ordersCreated, transitions, webhookOutcomes, gatewayDuration)
	return &OrderMetrics{
		ordersCreated:   ordersCreated,
		transitions:     transitions,
		webhookOutcomes: webhookOutcomes,
		gatewayDuration: gatewayDuration,
	}
}

// IncOrderCreated increments the created counter for the payment method.
func (m *OrderMetrics) IncOrderCreated(paymentMethod string) {
	if m == nil || m.ordersCreated == nil {
		return
	}
	m.ordersCreated.WithLabelValues(normalizeLabel(paymentMethod)).Inc()
}

// IncTransition increments the transition counter for the given edge.
func (m *OrderMetrics) IncTransition(from, to string) {
	if m == nil || m.transitions == nil {
		return
	}
	m.transitions.WithLabelValues(normalizeLabel(from), normalizeLabel(to)).Inc()
}

// IncWebhookOutcome increments the webhook outcome counter.
func (m *OrderMetrics) IncWebhookOutcome(outcome string) {
	if m == nil || m.webhookOutcomes == nil {
		return
	}
	m.webhookOutcomes.WithLabelValues(normalizeLabel(outcome)).Inc()
}

// ObserveGatewayDuration records the latency of a gateway operation.
func (m *OrderMetrics) ObserveGatewayDuration(operation string, duration time.Duration) {
	if m == nil || m.gatewayDuration == nil {
		return
	}
	m.gatewayDuration.WithLabelValues(normalizeLabel(operation)).Observe(duration.Seconds())
}

func normalizeLabel(value string) string {
	if value == "" {
		return "unknown"
	}
	return value
}
