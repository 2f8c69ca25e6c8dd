// Package metrics provides Prometheus metrics for the pinboard service.
package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	TasksCreated = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "pinboard_tasks_created_total",
			Help: "Total number of tasks created",
		},
	)
	TasksUpdated = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "pinboard_tasks_updated_total",
			Help: "Total number of task updates applied",
		},
	)
	TasksDeleted = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "pinboard_tasks_deleted_total",
			Help: "Total number of tasks deleted",
		},
	)
	BoardTasks = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "pinboard_board_tasks",
			Help: "Current number of tasks on the board by status and urgency label",
		},
		[]string{"status", "label"},
	)
	AssistantTurns = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "pinboard_assistant_turns_total",
			Help: "Total number of assistant conversation turns by outcome",
		},
		[]string{"outcome"},
	)
	AssistantToolCalls = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "pinboard_assistant_tool_calls_total",
			Help: "Total number of tool calls applied by the assistant",
		},
		[]string{"action"},
	)
	CompletionRetries = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "pinboard_completion_retries_total",
			Help: "Total number of completion-service retries after transient failures",
		},
	)
	CompletionDuration = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "pinboard_completion_duration_seconds",
			Help:    "Completion-service call duration in seconds, including retries",
			Buckets: []float64{.1, .25, .5, 1, 2.5, 5, 10, 30, 60},
		},
	)
	VoiceTranscriptions = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "pinboard_voice_transcriptions_total",
			Help: "Total number of speech-to-text transcriptions",
		},
	)
	VoiceSyntheses = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "pinboard_voice_syntheses_total",
			Help: "Total number of text-to-speech syntheses",
		},
	)
	RemindersSent = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "pinboard_reminders_sent_total",
			Help: "Total number of overdue-task reminder emails sent",
		},
	)
	HTTPRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "pinboard_http_requests_total",
			Help: "Total number of HTTP requests",
		},
		[]string{"method", "endpoint", "status"},
	)
	HTTPRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "pinboard_http_request_duration_seconds",
			Help:    "HTTP request duration in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"method", "endpoint"},
	)
)

func RecordTaskCreated() { TasksCreated.Inc() }
func RecordTaskUpdated() { TasksUpdated.Inc() }
func RecordTaskDeleted() { TasksDeleted.Inc() }

func RecordAssistantTurn(outcome string) {
	AssistantTurns.WithLabelValues(outcome).Inc()
}

func RecordToolCall(action string) {
	AssistantToolCalls.WithLabelValues(action).Inc()
}

func RecordCompletionRetry() { CompletionRetries.Inc() }

func RecordCompletionDuration(d time.Duration) {
	CompletionDuration.Observe(d.Seconds())
}

func RecordTranscription() { VoiceTranscriptions.Inc() }
func RecordSynthesis()     { VoiceSyntheses.Inc() }
func RecordReminderSent()  { RemindersSent.Inc() }

// UpdateBoardGauges replaces the board gauges with fresh status/label counts.
func UpdateBoardGauges(counts map[string]map[string]int) {
	BoardTasks.Reset()
	for status, labels := range counts {
		for label, count := range labels {
			BoardTasks.WithLabelValues(status, label).Set(float64(count))
		}
	}
}

func RecordHTTPRequest(method, endpoint, status string, duration time.Duration) {
	HTTPRequestsTotal.WithLabelValues(method, endpoint, status).Inc()
	HTTPRequestDuration.WithLabelValues(method, endpoint).Observe(duration.Seconds())
}
