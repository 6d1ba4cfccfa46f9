package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const (
	TransitionReminder        = "reminder"
	TransitionFeedbackRequest = "feedback_request"
	TransitionConsolidation   = "consolidation"

	SourceDirect   = "direct"
	SourceApproval = "approval"

	ChannelMessage   = "message"
	ChannelBroadcast = "broadcast"
)

var (
	InterviewsBooked = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "autopilot_interviews_booked_total",
			Help: "Total number of interviews materialized",
		},
		[]string{"source"},
	)

	LifecycleTransitions = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "autopilot_lifecycle_transitions_total",
			Help: "Total number of lifecycle transitions applied",
		},
		[]string{"transition"},
	)

	LifecycleFailures = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "autopilot_lifecycle_failures_total",
			Help: "Total number of lifecycle transitions that failed",
		},
		[]string{"transition"},
	)

	NotificationFailures = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "autopilot_notification_failures_total",
			Help: "Total number of notifications that could not be delivered",
		},
		[]string{"channel"},
	)

	SummarizerFallbacks = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "autopilot_summarizer_fallbacks_total",
			Help: "Total number of consolidations that fell back to the rule-based summary",
		},
	)

	CalendarBlocksImported = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "autopilot_calendar_blocks_imported_total",
			Help: "Total number of busy blocks imported from external calendars",
		},
	)

	TickDuration = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "autopilot_tick_duration_seconds",
			Help:    "Duration of one orchestration tick",
			Buckets: prometheus.DefBuckets,
		},
	)
)
