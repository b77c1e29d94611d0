// Package mock provides mock AI service adapters for testing and for running
// the pipeline without credentials. The transcriber simulates diarized
// two-speaker conversations; the tone scorer, summarizer, and embedder return
// deterministic results.
package mock

import (
	"context"
	"errors"
	"fmt"
	"hash/fnv"
	"strings"
	"sync"

	"meeting-insight-service/internal/ai"
)

// ErrScripted is returned when a scripted failure is requested.
var ErrScripted = errors.New("scripted failure")

// DefaultClips provides sample diarized clips the transcriber cycles through.
var DefaultClips = []*ai.ClipTranscript{
	{
		Language: "en",
		Words: []ai.Word{
			{Type: "word", SpeakerID: "speaker_0", Text: "We", Start: 0.0, End: 0.2},
			{Type: "word", SpeakerID: "speaker_0", Text: "should", Start: 0.2, End: 0.4},
			{Type: "word", SpeakerID: "speaker_0", Text: "split", Start: 0.4, End: 0.6},
			{Type: "word", SpeakerID: "speaker_0", Text: "the", Start: 0.6, End: 0.7},
			{Type: "word", SpeakerID: "speaker_0", Text: "chores", Start: 0.7, End: 1.0},
		},
	},
	{
		Language: "en",
		Words: []ai.Word{
			{Type: "word", SpeakerID: "speaker_1", Text: "I", Start: 0.0, End: 0.1},
			{Type: "word", SpeakerID: "speaker_1", Text: "agree", Start: 0.1, End: 0.4},
			{Type: "audio_event", SpeakerID: "speaker_1", Text: "(laughs)", Start: 0.4, End: 0.6},
			{Type: "word", SpeakerID: "speaker_0", Text: "Great", Start: 0.6, End: 0.9},
		},
	},
}

// Transcriber implements ai.Transcriber with scripted responses. When the
// script runs out it cycles through DefaultClips.
type Transcriber struct {
	mu        sync.Mutex
	Responses []*ai.ClipTranscript
	Errs      []error
	calls     int
}

// Transcribe pops the next scripted response, or cycles the defaults.
func (t *Transcriber) Transcribe(ctx context.Context, clipPath, language string, diarize bool) (*ai.ClipTranscript, error) {
	t.mu.Lock()
	defer t.mu.Unlock()

	call := t.calls
	t.calls++

	if call < len(t.Errs) && t.Errs[call] != nil {
		return nil, t.Errs[call]
	}
	if call < len(t.Responses) {
		return t.Responses[call], nil
	}
	return DefaultClips[call%len(DefaultClips)], nil
}

// Calls returns the number of Transcribe invocations.
func (t *Transcriber) Calls() int {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.calls
}

// ToneScorer implements ai.ToneScorer. Scores are derived from the utterance
// text: lines containing an exclamation mark score as Negative with high
// aggression, everything else is Neutral. FailAll forces the error path.
type ToneScorer struct {
	mu      sync.Mutex
	FailAll bool
	calls   int
}

// ScoreTone returns a deterministic score for the utterance.
func (t *ToneScorer) ScoreTone(ctx context.Context, utterance string) (ai.ToneScore, error) {
	t.mu.Lock()
	t.calls++
	fail := t.FailAll
	t.mu.Unlock()

	if fail {
		return ai.NeutralTone(), ErrScripted
	}
	if strings.Contains(utterance, "!") {
		return ai.ToneScore{Sentiment: ai.SentimentNegative, Aggression: 0.8}, nil
	}
	return ai.NeutralTone(), nil
}

// Calls returns the number of ScoreTone invocations.
func (t *ToneScorer) Calls() int {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.calls
}

// Summarizer implements ai.Summarizer, returning numbered canned summaries
// and recording every input it received.
type Summarizer struct {
	mu      sync.Mutex
	FailAll bool
	Inputs  []string
}

// Summarize records the input and returns a canned summary.
func (s *Summarizer) Summarize(ctx context.Context, transcript string) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.FailAll {
		return "", ErrScripted
	}
	s.Inputs = append(s.Inputs, transcript)
	return fmt.Sprintf("Summary #%d covering: %s", len(s.Inputs), firstLine(transcript)), nil
}

// Calls returns the number of successful Summarize invocations.
func (s *Summarizer) Calls() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.Inputs)
}

// Embedder implements ai.Embedder with deterministic vectors derived from a
// hash of each input, so equal texts always embed equally.
type Embedder struct {
	FailAll bool
}

// Embed returns one three-dimensional vector per input.
func (e *Embedder) Embed(ctx context.Context, texts []string) ([][]float64, error) {
	if e.FailAll {
		return nil, ErrScripted
	}
	vecs := make([][]float64, len(texts))
	for i, text := range texts {
		h := fnv.New32a()
		h.Write([]byte(text))
		sum := h.Sum32()
		vecs[i] = []float64{
			float64(sum%97) + 1,
			float64(sum%89) + 1,
			float64(sum%83) + 1,
		}
	}
	return vecs, nil
}

func firstLine(s string) string {
	if i := strings.IndexByte(s, '\n'); i >= 0 {
		return s[:i]
	}
	return s
}
