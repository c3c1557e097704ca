package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
)

// Webhook event outcomes recorded per event type.
const (
	OutcomeReconciled    = "reconciled"
	OutcomeStatusOnly    = "status_only"
	OutcomeOrphaned      = "orphaned"
	OutcomeIgnored       = "ignored"
	OutcomeInternalError = "internal_error"
)

// WebhookMetrics counts settlement events by type and outcome.
type WebhookMetrics struct {
	events *prometheus.CounterVec
}

// NewWebhookMetrics registers the webhook counters on the provided registerer.
func NewWebhookMetrics(reg prometheus.Registerer) *WebhookMetrics {
	if reg == nil {
		return &WebhookMetrics{}
	}
	events := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "webhook_events_total",
		Help: "Settlement webhook events by event type and processing outcome.",
	}, []string{"event_type", "outcome"})
	reg.MustRegister(events)
	return &WebhookMetrics{events: events}
}

// IncEvent increments the counter for the given event type and outcome.
func (m *WebhookMetrics) IncEvent(eventType, outcome string) {
	if m == nil || m.events == nil {
		return
	}
	m.events.WithLabelValues(normalizeLabel(eventType), normalizeLabel(outcome)).Inc()
}

func normalizeLabel(value string) string {
	if value == "" {
		return "unknown"
	}
	return value
}
