// internal/common/metrics/metrics.go
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	WorkerJobsCompleted = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "worker_jobs_completed_total",
			Help: "Total number of jobs completed by worker",
		},
		[]string{"task_type"},
	)

	WorkerJobsFailed = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "worker_jobs_failed_total",
			Help: "Total number of jobs failed by worker",
		},
		[]string{"task_type", "error_code"},
	)

	WorkerJobDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name: "worker_job_duration_seconds",
			Help: "Duration of job processing in seconds",
		},
		[]string{"task_type"},
	)

	NotificationsDispatched = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "notifications_dispatched_total",
			Help: "Notification send attempts by channel, event and outcome",
		},
		[]string{"channel", "event", "status"},
	)

	NotificationsSuppressed = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "notifications_suppressed_total",
			Help: "Events not dispatched because the user disabled the category",
		},
		[]string{"event"},
	)

	ChannelsSkipped = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "notification_channels_skipped_total",
			Help: "Channels skipped during dispatch by reason",
		},
		[]string{"channel", "reason"},
	)

	SimulationsActive = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "notification_simulations_active",
			Help: "Lifecycle simulations currently running",
		},
	)
)
