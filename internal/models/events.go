// Package models defines the data structures shared across the pipeline:
// inter-stage items, UI-facing events, and evaluation results.
package models

// AudioChunk is one fixed-duration window of raw PCM samples produced by the
// capture stage. Immutable once emitted.
type AudioChunk struct {
	PCM   []byte
	Index int
}

// ConvertedClip references one encoded audio artifact on disk, created from
// exactly one AudioChunk. Ownership transfers to the transcription stage,
// which removes the file once processed.
type ConvertedClip struct {
	Path     string
	Duration float64 // seconds
	Index    int
}

// TranscriptSnapshot maps a speaker label to that speaker's ordered
// utterances. Snapshots handed to the summarization stage are deep copies,
// never shared with the live accumulator.
type TranscriptSnapshot map[string][]string

// Objective is a discussion goal the session is scored against.
type Objective struct {
	Name        string `yaml:"name" json:"name"`
	Description string `yaml:"description" json:"description"`
}

// ObjectiveScore is the alignment of one objective with the current summary.
// Score is in [0,1].
type ObjectiveScore struct {
	Score float64 `json:"score"`
	Label string  `json:"label"`
}

// EvaluationResult holds per-objective alignment scores plus the speakers
// with no detected utterances in the evaluated summary. Recomputed from
// scratch on every partial summary.
type EvaluationResult struct {
	Objectives     map[string]ObjectiveScore `json:"objectives"`
	SilentSpeakers []string                  `json:"silentSpeakers"`
}

// TranscriptLine is one scored utterance ready for display.
type TranscriptLine struct {
	Time       string  `json:"time"` // absolute HH:MM:SS within the session
	Speaker    string  `json:"speaker"`
	Language   string  `json:"language"`
	Sentiment  string  `json:"sentiment"`
	Aggression float64 `json:"aggression"`
	Text       string  `json:"text"`
}

// UIEvent is the closed set of events delivered to the presentation layer.
// Consumers switch exhaustively over the three concrete types below.
type UIEvent interface {
	uiEvent()
}

// TranscriptEvent carries one scored transcript line.
type TranscriptEvent struct {
	Line TranscriptLine `json:"line"`
}

// PartialSummaryEvent carries one sliding-window summary and, when the
// evaluation step succeeded, the objective-alignment results for it.
type PartialSummaryEvent struct {
	Seq        int               `json:"seq"`
	Content    string            `json:"content"`
	Evaluation *EvaluationResult `json:"evaluation,omitempty"`
}

// FinalSummaryEvent carries the combined end-of-session summary.
type FinalSummaryEvent struct {
	Content string `json:"content"`
}

func (TranscriptEvent) uiEvent()     {}
func (PartialSummaryEvent) uiEvent() {}
func (FinalSummaryEvent) uiEvent()   {}
