// Package metrics provides Prometheus metrics for observability.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const namespace = "meeting_insight"

// Metrics holds all Prometheus metrics for the service.
type Metrics struct {
	// Capture metrics
	ChunksCaptured     prometheus.Counter
	AudioBytesCaptured prometheus.Counter
	CaptureReadErrors  prometheus.Counter

	// Conversion metrics
	ClipsConverted    prometheus.Counter
	ClipWriteFailures prometheus.Counter

	// Transcription metrics
	ClipsTranscribed  prometheus.Counter
	UtterancesScored  prometheus.Counter
	LinesSuppressed   *prometheus.CounterVec
	TranscribeLatency prometheus.Histogram

	// Summarization metrics
	PartialSummaries   prometheus.Counter
	FinalSummaries     prometheus.Counter
	EvaluationsRun     prometheus.Counter
	SummarizeLatency   prometheus.Histogram

	// External service metrics
	ServiceErrors *prometheus.CounterVec

	// Delivery metrics
	UIEventsDelivered   *prometheus.CounterVec
	UIEventsDropped     prometheus.Counter
	KafkaPublishTotal   *prometheus.CounterVec
	KafkaPublishErrors  *prometheus.CounterVec
	KafkaPublishLatency *prometheus.HistogramVec

	// Lifecycle metrics
	SessionsStarted prometheus.Counter
	SessionsStopped prometheus.Counter
	StagesAbandoned *prometheus.CounterVec
}

// DefaultMetrics is the global metrics instance.
var DefaultMetrics = NewMetrics()

// NewMetrics creates and registers all Prometheus metrics.
func NewMetrics() *Metrics {
	return &Metrics{
		ChunksCaptured: promauto.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "chunks_captured_total",
			Help:      "Total number of audio chunks captured",
		}),
		AudioBytesCaptured: promauto.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "audio_bytes_captured_total",
			Help:      "Total raw audio bytes captured",
		}),
		CaptureReadErrors: promauto.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "capture_read_errors_total",
			Help:      "Total transient device read failures",
		}),

		ClipsConverted: promauto.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "clips_converted_total",
			Help:      "Total audio chunks encoded into clip artifacts",
		}),
		ClipWriteFailures: promauto.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "clip_write_failures_total",
			Help:      "Total clip artifact write failures (chunk dropped)",
		}),

		ClipsTranscribed: promauto.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "clips_transcribed_total",
			Help:      "Total clips successfully transcribed",
		}),
		UtterancesScored: promauto.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "utterances_scored_total",
			Help:      "Total utterances scored for tone",
		}),
		LinesSuppressed: promauto.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "lines_suppressed_total",
			Help:      "Total transcript lines suppressed before emission",
		}, []string{"reason"}),
		TranscribeLatency: promauto.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "transcribe_latency_seconds",
			Help:      "Latency of external transcription calls",
			Buckets:   []float64{0.25, 0.5, 1, 2, 5, 10, 30},
		}),

		PartialSummaries: promauto.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "partial_summaries_total",
			Help:      "Total partial summaries produced",
		}),
		FinalSummaries: promauto.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "final_summaries_total",
			Help:      "Total final summaries produced",
		}),
		EvaluationsRun: promauto.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "evaluations_run_total",
			Help:      "Total objective evaluations completed",
		}),
		SummarizeLatency: promauto.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "summarize_latency_seconds",
			Help:      "Latency of external summarization calls",
			Buckets:   []float64{0.5, 1, 2, 5, 10, 30, 60},
		}),

		ServiceErrors: promauto.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "service_errors_total",
			Help:      "Total external service failures recovered locally",
		}, []string{"service"}),

		UIEventsDelivered: promauto.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "ui_events_delivered_total",
			Help:      "Total UI events delivered to the sink",
		}, []string{"type"}),
		UIEventsDropped: promauto.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "ui_events_dropped_total",
			Help:      "Total UI events dropped because the sink was full",
		}),
		KafkaPublishTotal: promauto.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "kafka_publish_total",
			Help:      "Total number of Kafka messages published",
		}, []string{"topic"}),
		KafkaPublishErrors: promauto.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "kafka_publish_errors_total",
			Help:      "Total number of Kafka publish errors",
		}, []string{"topic"}),
		KafkaPublishLatency: promauto.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "kafka_publish_latency_seconds",
			Help:      "Kafka publish latency in seconds",
			Buckets:   []float64{0.001, 0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1},
		}, []string{"topic"}),

		SessionsStarted: promauto.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "sessions_started_total",
			Help:      "Total pipeline sessions started",
		}),
		SessionsStopped: promauto.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "sessions_stopped_total",
			Help:      "Total pipeline sessions stopped",
		}),
		StagesAbandoned: promauto.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "stages_abandoned_total",
			Help:      "Total stages that did not exit within the shutdown timeout",
		}, []string{"stage"}),
	}
}

// RecordChunkCaptured records one captured audio chunk.
func (m *Metrics) RecordChunkCaptured(bytes int) {
	m.ChunksCaptured.Inc()
	m.AudioBytesCaptured.Add(float64(bytes))
}

// RecordCaptureReadError records a transient device read failure.
func (m *Metrics) RecordCaptureReadError() {
	m.CaptureReadErrors.Inc()
}

// RecordClipConverted records one chunk encoded into a clip artifact.
func (m *Metrics) RecordClipConverted() {
	m.ClipsConverted.Inc()
}

// RecordClipWriteFailure records a dropped chunk due to a write failure.
func (m *Metrics) RecordClipWriteFailure() {
	m.ClipWriteFailures.Inc()
}

// RecordClipTranscribed records a successful transcription call.
func (m *Metrics) RecordClipTranscribed(latencySeconds float64) {
	m.ClipsTranscribed.Inc()
	m.TranscribeLatency.Observe(latencySeconds)
}

// RecordUtteranceScored records one tone-scored utterance.
func (m *Metrics) RecordUtteranceScored() {
	m.UtterancesScored.Inc()
}

// RecordLineSuppressed records a suppressed transcript line.
func (m *Metrics) RecordLineSuppressed(reason string) {
	m.LinesSuppressed.WithLabelValues(reason).Inc()
}

// RecordPartialSummary records one partial summary.
func (m *Metrics) RecordPartialSummary(latencySeconds float64) {
	m.PartialSummaries.Inc()
	m.SummarizeLatency.Observe(latencySeconds)
}

// RecordFinalSummary records the final summary.
func (m *Metrics) RecordFinalSummary(latencySeconds float64) {
	m.FinalSummaries.Inc()
	m.SummarizeLatency.Observe(latencySeconds)
}

// RecordEvaluation records one completed objective evaluation.
func (m *Metrics) RecordEvaluation() {
	m.EvaluationsRun.Inc()
}

// RecordServiceError records a recovered external service failure.
func (m *Metrics) RecordServiceError(service string) {
	m.ServiceErrors.WithLabelValues(service).Inc()
}

// RecordUIEvent records a delivered UI event.
func (m *Metrics) RecordUIEvent(eventType string) {
	m.UIEventsDelivered.WithLabelValues(eventType).Inc()
}

// RecordUIEventDropped records a UI event dropped on a full sink.
func (m *Metrics) RecordUIEventDropped() {
	m.UIEventsDropped.Inc()
}

// RecordKafkaPublish records a Kafka publish attempt.
func (m *Metrics) RecordKafkaPublish(topic string, err error, latencySeconds float64) {
	m.KafkaPublishTotal.WithLabelValues(topic).Inc()
	m.KafkaPublishLatency.WithLabelValues(topic).Observe(latencySeconds)
	if err != nil {
		m.KafkaPublishErrors.WithLabelValues(topic).Inc()
	}
}

// RecordSessionStarted records a pipeline session start.
func (m *Metrics) RecordSessionStarted() {
	m.SessionsStarted.Inc()
}

// RecordSessionStopped records a pipeline session stop.
func (m *Metrics) RecordSessionStopped() {
	m.SessionsStopped.Inc()
}

// RecordStageAbandoned records a stage that outlived the shutdown timeout.
func (m *Metrics) RecordStageAbandoned(stage string) {
	m.StagesAbandoned.WithLabelValues(stage).Inc()
}
