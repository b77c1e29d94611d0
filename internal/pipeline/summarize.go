package pipeline

import (
	"context"
	"errors"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"meeting-insight-service/internal/ai"
	"meeting-insight-service/internal/evaluate"
	"meeting-insight-service/internal/events"
	"meeting-insight-service/internal/models"
	"meeting-insight-service/internal/observability/metrics"
	"meeting-insight-service/internal/storage"
)

// ErrNoPartialSummaries is returned by Finalize when the session produced no
// partial summaries to combine.
var ErrNoPartialSummaries = errors.New("no partial summaries to finalize")

// SummarizeStage produces partial summaries on a sliding window over
// transcript snapshots: every interval-th snapshot it summarizes the
// content added during the last window snapshots, evaluates the summary
// against the session objectives, and publishes the result. Finalize
// combines all partials into one end-of-session summary.
type SummarizeStage struct {
	in         <-chan models.TranscriptSnapshot
	summarizer ai.Summarizer
	embedder   ai.Embedder
	objectives []models.Objective
	acc        *Accumulator
	sink       *events.Sink
	publisher  *events.Publisher
	store      *storage.Store
	sessionID  string
	interval   int // summarize every interval-th snapshot
	window     int // snapshots covered by each partial
	log        zerolog.Logger
	metrics    *metrics.Metrics

	mu           sync.Mutex
	partials     []string
	seq          int
	finalSummary string
	finalized    bool
}

// Run consumes snapshots until the sentinel (nil snapshot) arrives.
func (s *SummarizeStage) Run(ctx context.Context) {
	s.log.Info().Int("interval", s.interval).Int("window", s.window).Msg("Summarization started")

	count := 0
	// recent holds the last window+1 snapshots so the window's delta can be
	// computed against the snapshot just before it.
	var recent []models.TranscriptSnapshot

	for {
		snap := <-s.in
		if snap == nil {
			s.log.Info().Int("snapshots", count).Msg("Summarization finished")
			return
		}

		count++
		recent = append(recent, snap)
		if len(recent) > s.window+1 {
			recent = recent[1:]
		}
		if count%s.interval != 0 {
			continue
		}

		var prev models.TranscriptSnapshot
		if len(recent) > s.window {
			prev = recent[0]
		}
		text := flattenDelta(prev, snap)
		if text == "" {
			s.log.Debug().Int("snapshot", count).Msg("Window added no content, skipping summary")
			continue
		}

		s.summarizeWindow(ctx, text)
	}
}

func (s *SummarizeStage) summarizeWindow(ctx context.Context, text string) {
	start := time.Now()
	summary, err := s.summarizer.Summarize(ctx, text)
	if err != nil {
		s.metrics.RecordServiceError("completion")
		s.log.Error().Err(err).Msg("Partial summary failed, cycle skipped")
		return
	}
	s.metrics.RecordPartialSummary(time.Since(start).Seconds())

	s.mu.Lock()
	s.seq++
	seq := s.seq
	s.partials = append(s.partials, summary)
	s.mu.Unlock()

	var eval *models.EvaluationResult
	if s.embedder != nil && len(s.objectives) > 0 {
		res, err := evaluate.Objectives(ctx, s.embedder, s.objectives, summary, s.acc.Speakers())
		if err != nil {
			s.metrics.RecordServiceError("embedding")
			s.log.Warn().Err(err).Msg("Objective evaluation failed, summary delivered unscored")
		} else {
			eval = res
			s.metrics.RecordEvaluation()
		}
	}

	event := models.PartialSummaryEvent{Seq: seq, Content: summary, Evaluation: eval}
	s.sink.Publish(event)
	if s.publisher != nil {
		if err := s.publisher.PublishSummary(ctx, s.sessionID, event); err != nil {
			s.log.Warn().Err(err).Msg("Summary publish failed")
		}
	}
	if s.store != nil {
		if err := s.store.SaveSummary(s.sessionID, seq, "partial", summary); err != nil {
			s.log.Warn().Err(err).Msg("Summary persist failed")
		}
	}
}

// Finalize combines all partial summaries into the end-of-session summary.
// Idempotent: the first successful result is cached and returned on every
// later call.
func (s *SummarizeStage) Finalize(ctx context.Context) (string, error) {
	s.mu.Lock()
	if s.finalized {
		final := s.finalSummary
		s.mu.Unlock()
		return final, nil
	}
	if len(s.partials) == 0 {
		s.mu.Unlock()
		return "", ErrNoPartialSummaries
	}
	joined := strings.Join(s.partials, "\n\n")
	s.mu.Unlock()

	start := time.Now()
	final, err := s.summarizer.Summarize(ctx, joined)
	if err != nil {
		s.metrics.RecordServiceError("completion")
		return "", err
	}
	s.metrics.RecordFinalSummary(time.Since(start).Seconds())

	s.mu.Lock()
	s.finalSummary = final
	s.finalized = true
	s.mu.Unlock()

	s.sink.Publish(models.FinalSummaryEvent{Content: final})
	if s.publisher != nil {
		if err := s.publisher.PublishSummary(ctx, s.sessionID, models.FinalSummaryEvent{Content: final}); err != nil {
			s.log.Warn().Err(err).Msg("Final summary publish failed")
		}
	}
	if s.store != nil {
		if err := s.store.SaveSummary(s.sessionID, 0, "final", final); err != nil {
			s.log.Warn().Err(err).Msg("Final summary persist failed")
		}
	}
	return final, nil
}

// flattenDelta renders the utterances present in cur but not in prev as
// plain "Speaker: text" transcript lines, speakers in sorted order.
func flattenDelta(prev, cur models.TranscriptSnapshot) string {
	speakers := make([]string, 0, len(cur))
	for speaker := range cur {
		speakers = append(speakers, speaker)
	}
	sort.Strings(speakers)

	var b strings.Builder
	for _, speaker := range speakers {
		utterances := cur[speaker]
		if prev != nil {
			utterances = utterances[min(len(prev[speaker]), len(utterances)):]
		}
		if len(utterances) == 0 {
			continue
		}
		b.WriteString(speaker)
		b.WriteString(": ")
		b.WriteString(strings.Join(utterances, " "))
		b.WriteString("\n")
	}
	return strings.TrimSpace(b.String())
}
