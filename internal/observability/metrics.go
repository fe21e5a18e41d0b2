package observability

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// AuthEvents counts signup, login and logout attempts by outcome.
	AuthEvents = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "murmur_auth_events_total",
		Help: "Total authentication events by event and outcome",
	}, []string{"event", "outcome"})

	// NotificationsCreated counts notifications written by type.
	NotificationsCreated = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "murmur_notifications_created_total",
		Help: "Total notifications created by type",
	}, []string{"type"})

	// ImageHostOperations counts image host calls by operation and outcome.
	ImageHostOperations = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "murmur_image_host_operations_total",
		Help: "Total image host operations by operation and outcome",
	}, []string{"op", "outcome"})

	// NotificationPublishErrors counts failed Redis publishes.
	NotificationPublishErrors = promauto.NewCounter(prometheus.CounterOpts{
		Name: "murmur_notification_publish_errors_total",
		Help: "Total notification fan-out publishes that failed",
	})
)

// Outcome label values.
const (
	OutcomeSuccess = "success"
	OutcomeFailure = "failure"
)

// OutcomeOf maps err to an outcome label.
func OutcomeOf(err error) string {
	if err != nil {
		return OutcomeFailure
	}
	return OutcomeSuccess
}
