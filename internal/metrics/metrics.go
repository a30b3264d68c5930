// Package metrics holds the Prometheus collectors exported by logitrack.
package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	// EscalationTransitions counts committed state transitions by event type.
	EscalationTransitions = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "logitrack_escalation_transitions_total",
		Help: "Total number of committed escalation transitions",
	}, []string{"event"})
	// EscalationErrors counts rejected engine operations by error kind.
	EscalationErrors = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "logitrack_escalation_errors_total",
		Help: "Total number of escalation operations rejected, by operation and error kind",
	}, []string{"operation", "kind"})
	ActiveEscalations = prometheus.NewGauge(prometheus.GaugeOpts{
		Name: "logitrack_escalations_active",
		Help: "Number of outstanding escalation chains seen at the last listing",
	})

	// Notification fan-out
	NotificationsSent = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "logitrack_notifications_sent_total",
		Help: "Total number of notifications delivered to a sink",
	}, []string{"sink"})
	NotificationsFailed = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "logitrack_notifications_failed_total",
		Help: "Total number of notifications a sink failed to deliver",
	}, []string{"sink"})
	PagesSent = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "logitrack_contact_pages_sent_total",
		Help: "Total number of contact pages sent, by contact type",
	}, []string{"contact_type"})
	PagesFailed = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "logitrack_contact_pages_failed_total",
		Help: "Total number of contact pages that failed, by contact type",
	}, []string{"contact_type"})

	WebSocketSubscribers = prometheus.NewGauge(prometheus.GaugeOpts{
		Name: "logitrack_websocket_subscribers",
		Help: "Number of websocket connections subscribed to at least one channel",
	})
)

func init() {
	prometheus.MustRegister(EscalationTransitions)
	prometheus.MustRegister(EscalationErrors)
	prometheus.MustRegister(ActiveEscalations)
	prometheus.MustRegister(NotificationsSent)
	prometheus.MustRegister(NotificationsFailed)
	prometheus.MustRegister(PagesSent)
	prometheus.MustRegister(PagesFailed)
	prometheus.MustRegister(WebSocketSubscribers)
}

// Handler returns the HTTP handler serving the default registry.
func Handler() http.Handler {
	return promhttp.Handler()
}
