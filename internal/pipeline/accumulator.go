package pipeline

import (
	"sync"

	"meeting-insight-service/internal/models"
)

// Accumulator is the session-wide transcript: per-speaker ordered utterances
// plus the order in which speakers first appeared. The transcription stage
// appends; the summarization stage reads deep-copied snapshots.
type Accumulator struct {
	mu    sync.Mutex
	order []string
	lines map[string][]string
}

// NewAccumulator returns an empty transcript accumulator.
func NewAccumulator() *Accumulator {
	return &Accumulator{lines: map[string][]string{}}
}

// Append records one utterance for a speaker.
func (a *Accumulator) Append(speaker, text string) {
	a.mu.Lock()
	defer a.mu.Unlock()
	if _, seen := a.lines[speaker]; !seen {
		a.order = append(a.order, speaker)
	}
	a.lines[speaker] = append(a.lines[speaker], text)
}

// Snapshot returns a deep copy of the current transcript. The copy never
// aliases the live accumulator state.
func (a *Accumulator) Snapshot() models.TranscriptSnapshot {
	a.mu.Lock()
	defer a.mu.Unlock()
	snap := make(models.TranscriptSnapshot, len(a.lines))
	for speaker, utterances := range a.lines {
		cp := make([]string, len(utterances))
		copy(cp, utterances)
		snap[speaker] = cp
	}
	return snap
}

// Speakers returns the speakers seen so far, in order of first appearance.
func (a *Accumulator) Speakers() []string {
	a.mu.Lock()
	defer a.mu.Unlock()
	cp := make([]string, len(a.order))
	copy(cp, a.order)
	return cp
}
