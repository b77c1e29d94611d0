package events

import (
	"github.com/rs/zerolog"

	"meeting-insight-service/internal/models"
	"meeting-insight-service/internal/observability/metrics"
)

// Sink is the one-directional delivery channel for UI events: many producers
// (transcription and summarization stages), one consumer (the presentation
// layer). Publishing never blocks a pipeline worker; when the consumer falls
// behind, events are dropped and counted.
type Sink struct {
	ch      chan models.UIEvent
	log     zerolog.Logger
	metrics *metrics.Metrics
}

// NewSink creates a Sink with the given buffer capacity.
func NewSink(capacity int, log zerolog.Logger) *Sink {
	return &Sink{
		ch:      make(chan models.UIEvent, capacity),
		log:     log,
		metrics: metrics.DefaultMetrics,
	}
}

// Publish delivers an event without blocking.
func (s *Sink) Publish(ev models.UIEvent) {
	select {
	case s.ch <- ev:
		s.metrics.RecordUIEvent(eventType(ev))
	default:
		s.metrics.RecordUIEventDropped()
		s.log.Debug().Str("type", eventType(ev)).Msg("UI sink full, event dropped")
	}
}

// Events returns the consumer side of the sink.
func (s *Sink) Events() <-chan models.UIEvent {
	return s.ch
}

func eventType(ev models.UIEvent) string {
	switch ev.(type) {
	case models.TranscriptEvent:
		return "transcript"
	case models.PartialSummaryEvent:
		return "partial"
	case models.FinalSummaryEvent:
		return "final"
	default:
		return "unknown"
	}
}
