// Package metrics holds the Prometheus collectors exported on /metrics.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	ReminderPasses = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "reminder_passes_total",
			Help: "Reminder passes over all scheduled tasks, by trigger",
		},
		[]string{"trigger"},
	)

	RemindersFired = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "reminders_fired_total",
			Help: "Reminder offsets claimed and delivered",
		},
	)

	ReminderDeliveryErrors = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "reminder_delivery_errors_total",
			Help: "Failed reminder deliveries, by channel",
		},
		[]string{"channel"},
	)

	TaskEvaluationErrors = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "task_evaluation_errors_total",
			Help: "Tasks whose evaluation failed during a reminder pass",
		},
	)

	StatusTransitions = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "task_status_transitions_total",
			Help: "Automatic task status transitions, by target status",
		},
		[]string{"to"},
	)

	RequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "http_requests_total",
			Help: "Total number of HTTP requests",
		},
		[]string{"method", "route", "status"},
	)

	RequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "http_request_duration_seconds",
			Help:    "Duration of HTTP requests in seconds",
			Buckets: []float64{0.01, 0.05, 0.1, 0.3, 1, 3},
		},
		[]string{"method", "route"},
	)
)
