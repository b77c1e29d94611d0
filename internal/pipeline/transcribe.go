package pipeline

import (
	"context"
	"fmt"
	"regexp"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"meeting-insight-service/internal/ai"
	"meeting-insight-service/internal/events"
	"meeting-insight-service/internal/models"
	"meeting-insight-service/internal/observability/metrics"
	"meeting-insight-service/internal/storage"
)

// noisePlaceholders are tokens the transcriber emits for non-speech audio;
// they are stripped before a line is considered for emission.
var noisePlaceholders = []string{"<nlb>", "<nlb", "nlb>"}

var speakerIDPattern = regexp.MustCompile(`(?i)^speaker[_\s]*(\d+)$`)

// TranscribeStage turns clips into scored transcript lines. It owns the
// transcript accumulator and the session time offset, and hands a deep-copy
// snapshot downstream after every clip. Clip files are removed once
// processed, whether or not transcription succeeded.
type TranscribeStage struct {
	in          <-chan models.ConvertedClip
	out         chan<- models.TranscriptSnapshot
	transcriber ai.Transcriber
	tone        ai.ToneScorer
	acc         *Accumulator
	offset      *OffsetState
	workDir     *storage.WorkDir
	sink        *events.Sink
	publisher   *events.Publisher
	store       *storage.Store
	sessionID   string
	language    string
	log         zerolog.Logger
	metrics     *metrics.Metrics

	// lastEmitted suppresses a speaker repeating their previous line, which
	// diarization produces around clip boundaries.
	lastEmitted map[string]string
}

// Run processes clips until the sentinel (empty path) arrives, then forwards
// a nil snapshot as its own sentinel.
func (t *TranscribeStage) Run(ctx context.Context) {
	t.log.Info().Msg("Transcription started")
	t.lastEmitted = map[string]string{}

	for {
		clip := <-t.in
		if clip.Path == "" {
			t.out <- nil
			t.log.Info().Msg("Transcription finished")
			return
		}
		t.process(ctx, clip)
	}
}

func (t *TranscribeStage) process(ctx context.Context, clip models.ConvertedClip) {
	defer t.workDir.Remove(clip.Path)
	// The session clock advances by the clip's duration regardless of
	// transcription outcome, so later clips keep absolute timestamps.
	defer t.offset.Advance(clip.Duration)

	base := t.offset.Seconds()

	start := time.Now()
	transcript, err := t.transcriber.Transcribe(ctx, clip.Path, t.language, true)
	if err != nil {
		t.metrics.RecordServiceError("transcriber")
		t.log.Error().Err(err).Int("index", clip.Index).Msg("Transcription failed, clip dropped")
		return
	}
	t.metrics.RecordClipTranscribed(time.Since(start).Seconds())

	for _, seg := range segmentWords(transcript.Words) {
		speaker := normalizeSpeaker(seg.speaker)
		text := cleanUtterance(seg.text)
		if text == "" {
			t.metrics.RecordLineSuppressed("empty")
			continue
		}
		if t.lastEmitted[speaker] == text {
			t.metrics.RecordLineSuppressed("duplicate")
			continue
		}
		t.lastEmitted[speaker] = text

		tone, err := t.tone.ScoreTone(ctx, text)
		if err != nil {
			t.metrics.RecordServiceError("completion")
			t.log.Warn().Err(err).Msg("Tone scoring failed, using neutral")
			tone = ai.NeutralTone()
		}
		t.metrics.RecordUtteranceScored()

		line := models.TranscriptLine{
			Time:       formatTimestamp(base + seg.start),
			Speaker:    speaker,
			Language:   transcript.Language,
			Sentiment:  tone.Sentiment,
			Aggression: tone.Aggression,
			Text:       text,
		}

		t.acc.Append(speaker, text)
		t.sink.Publish(models.TranscriptEvent{Line: line})
		if t.publisher != nil {
			if err := t.publisher.PublishTranscript(ctx, t.sessionID, line); err != nil {
				t.log.Warn().Err(err).Msg("Transcript publish failed")
			}
		}
		if t.store != nil {
			if err := t.store.SaveLine(t.sessionID, line); err != nil {
				t.log.Warn().Err(err).Msg("Transcript persist failed")
			}
		}
	}

	t.out <- t.acc.Snapshot()
}

// segment is a run of consecutive words by one speaker.
type segment struct {
	speaker string
	text    string
	start   float64
}

// segmentWords groups consecutive word entries by speaker. Non-word entries
// (audio events, spacing) are skipped without breaking a run.
func segmentWords(words []ai.Word) []segment {
	var segs []segment
	var cur *segment
	var parts []string

	flush := func() {
		if cur != nil {
			cur.text = strings.Join(parts, " ")
			segs = append(segs, *cur)
			cur = nil
			parts = nil
		}
	}

	for _, w := range words {
		if w.Type != ai.WordTypeWord {
			continue
		}
		if cur == nil || cur.speaker != w.SpeakerID {
			flush()
			cur = &segment{speaker: w.SpeakerID, start: w.Start}
		}
		parts = append(parts, strings.TrimSpace(w.Text))
	}
	flush()
	return segs
}

// normalizeSpeaker maps raw diarization labels like "speaker_0" to the
// display form "Speaker 0". Unrecognized labels pass through unchanged.
func normalizeSpeaker(id string) string {
	if m := speakerIDPattern.FindStringSubmatch(id); m != nil {
		return "Speaker " + m[1]
	}
	return id
}

func cleanUtterance(text string) string {
	for _, p := range noisePlaceholders {
		text = strings.ReplaceAll(text, p, "")
	}
	return strings.TrimSpace(strings.Join(strings.Fields(text), " "))
}

// formatTimestamp renders absolute session seconds as HH:MM:SS.
func formatTimestamp(seconds float64) string {
	s := int(seconds)
	return fmt.Sprintf("%02d:%02d:%02d", s/3600, (s%3600)/60, s%60)
}
