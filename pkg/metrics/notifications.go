package metrics

import "github.com/prometheus/client_golang/prometheus"

// NotificationMetrics counts post-commit hook deliveries.
type NotificationMetrics struct {
	deliveries *prometheus.CounterVec
}

func NewNotificationMetrics(reg prometheus.Registerer) *NotificationMetrics {
	if reg == nil {
		return &NotificationMetrics{}
	}
	deliveries := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "agridiary_notification_deliveries_total",
		Help: "Notification hook executions by hook, event and outcome.",
	}, []string{"hook", "event", "outcome"})
	reg.MustRegister(deliveries)
	return &NotificationMetrics{deliveries: deliveries}
}

func (m *NotificationMetrics) Delivered(hook, event string, err error) {
	if m == nil || m.deliveries == nil {
		return
	}
	outcome := "ok"
	if err != nil {
		outcome = "error"
	}
	m.deliveries.WithLabelValues(normalizeLabel(hook), normalizeLabel(event), outcome).Inc()
}
