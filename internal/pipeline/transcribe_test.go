package pipeline

import (
	"context"
	"testing"

	"github.com/rs/zerolog"

	"meeting-insight-service/internal/ai"
	"meeting-insight-service/internal/ai/mock"
	"meeting-insight-service/internal/events"
	"meeting-insight-service/internal/models"
	"meeting-insight-service/internal/observability/metrics"
	"meeting-insight-service/internal/storage"
)

func newTranscribeStage(t *testing.T, transcriber ai.Transcriber, tone ai.ToneScorer,
	in chan models.ConvertedClip, out chan models.TranscriptSnapshot, sink *events.Sink) *TranscribeStage {
	t.Helper()
	wd, err := storage.NewWorkDir(t.TempDir())
	if err != nil {
		t.Fatalf("NewWorkDir: %v", err)
	}
	return &TranscribeStage{
		in:          in,
		out:         out,
		transcriber: transcriber,
		tone:        tone,
		acc:         NewAccumulator(),
		offset:      &OffsetState{},
		workDir:     wd,
		sink:        sink,
		sessionID:   "test-session",
		language:    "eng",
		log:         zerolog.Nop(),
		metrics:     metrics.DefaultMetrics,
	}
}

func drainTranscriptLines(sink *events.Sink) []models.TranscriptLine {
	var lines []models.TranscriptLine
	for {
		select {
		case ev := <-sink.Events():
			if te, ok := ev.(models.TranscriptEvent); ok {
				lines = append(lines, te.Line)
			}
		default:
			return lines
		}
	}
}

func TestTranscribe_SegmentsAndOffsets(t *testing.T) {
	in := make(chan models.ConvertedClip, 4)
	out := make(chan models.TranscriptSnapshot, 4)
	sink := events.NewSink(32, zerolog.Nop())
	stage := newTranscribeStage(t,
		&mock.Transcriber{Responses: mock.DefaultClips}, &mock.ToneScorer{}, in, out, sink)

	in <- models.ConvertedClip{Path: "clip0.wav", Duration: 5, Index: 0}
	in <- models.ConvertedClip{Path: "clip1.wav", Duration: 5, Index: 1}
	in <- models.ConvertedClip{}
	stage.Run(context.Background())

	snap1 := <-out
	if got := snap1["Speaker 0"]; len(got) != 1 || got[0] != "We should split the chores" {
		t.Errorf("first snapshot: %v", snap1)
	}

	snap2 := <-out
	if got := snap2["Speaker 0"]; len(got) != 2 || got[1] != "Great" {
		t.Errorf("second snapshot Speaker 0: %v", got)
	}
	if got := snap2["Speaker 1"]; len(got) != 1 || got[0] != "I agree" {
		t.Errorf("second snapshot Speaker 1: %v", got)
	}

	if sentinel := <-out; sentinel != nil {
		t.Errorf("expected nil sentinel snapshot, got %v", sentinel)
	}

	lines := drainTranscriptLines(sink)
	if len(lines) != 3 {
		t.Fatalf("expected 3 transcript lines, got %d: %v", len(lines), lines)
	}
	if lines[0].Time != "00:00:00" || lines[0].Speaker != "Speaker 0" {
		t.Errorf("first line: %+v", lines[0])
	}
	// Second clip starts after the first clip's 5 seconds.
	if lines[1].Time != "00:00:05" || lines[1].Speaker != "Speaker 1" {
		t.Errorf("second line: %+v", lines[1])
	}
	if lines[1].Language != "en" || lines[1].Sentiment != ai.SentimentNeutral {
		t.Errorf("second line metadata: %+v", lines[1])
	}
}

func TestTranscribe_SuppressesDuplicatesAndNoise(t *testing.T) {
	repeated := &ai.ClipTranscript{
		Language: "en",
		Words: []ai.Word{
			{Type: "word", SpeakerID: "speaker_0", Text: "same", Start: 0, End: 0.5},
			{Type: "word", SpeakerID: "speaker_0", Text: "thing", Start: 0.5, End: 1},
		},
	}
	noise := &ai.ClipTranscript{
		Language: "en",
		Words: []ai.Word{
			{Type: "word", SpeakerID: "speaker_0", Text: "<nlb>", Start: 0, End: 0.5},
		},
	}

	in := make(chan models.ConvertedClip, 4)
	out := make(chan models.TranscriptSnapshot, 4)
	sink := events.NewSink(32, zerolog.Nop())
	stage := newTranscribeStage(t,
		&mock.Transcriber{Responses: []*ai.ClipTranscript{repeated, repeated, noise}},
		&mock.ToneScorer{}, in, out, sink)

	for i := 0; i < 3; i++ {
		in <- models.ConvertedClip{Path: "c.wav", Duration: 1, Index: i}
	}
	in <- models.ConvertedClip{}
	stage.Run(context.Background())

	lines := drainTranscriptLines(sink)
	if len(lines) != 1 {
		t.Fatalf("expected 1 line after suppression, got %d: %v", len(lines), lines)
	}
	if lines[0].Text != "same thing" {
		t.Errorf("line text = %q", lines[0].Text)
	}

	// Snapshots are still produced for every processed clip.
	for i := 0; i < 3; i++ {
		snap := <-out
		if got := snap["Speaker 0"]; len(got) != 1 {
			t.Errorf("snapshot %d: %v", i, snap)
		}
	}
}

func TestTranscribe_FailedClipAdvancesOffset(t *testing.T) {
	in := make(chan models.ConvertedClip, 4)
	out := make(chan models.TranscriptSnapshot, 4)
	sink := events.NewSink(32, zerolog.Nop())
	stage := newTranscribeStage(t,
		&mock.Transcriber{
			Responses: []*ai.ClipTranscript{nil, mock.DefaultClips[0]},
			Errs:      []error{mock.ErrScripted},
		},
		&mock.ToneScorer{}, in, out, sink)

	in <- models.ConvertedClip{Path: "bad.wav", Duration: 5, Index: 0}
	in <- models.ConvertedClip{Path: "good.wav", Duration: 5, Index: 1}
	in <- models.ConvertedClip{}
	stage.Run(context.Background())

	// The failed clip emits no snapshot but its duration still counts, so
	// the next clip's lines start at 00:00:05.
	snap := <-out
	if len(snap) != 1 {
		t.Fatalf("expected one snapshot from the good clip, got %v", snap)
	}
	lines := drainTranscriptLines(sink)
	if len(lines) != 1 || lines[0].Time != "00:00:05" {
		t.Fatalf("expected one line at 00:00:05, got %v", lines)
	}
}

func TestTranscribe_ToneFailureFallsBackToNeutral(t *testing.T) {
	in := make(chan models.ConvertedClip, 2)
	out := make(chan models.TranscriptSnapshot, 2)
	sink := events.NewSink(32, zerolog.Nop())
	stage := newTranscribeStage(t,
		&mock.Transcriber{Responses: mock.DefaultClips},
		&mock.ToneScorer{FailAll: true}, in, out, sink)

	in <- models.ConvertedClip{Path: "c.wav", Duration: 1, Index: 0}
	in <- models.ConvertedClip{}
	stage.Run(context.Background())

	lines := drainTranscriptLines(sink)
	if len(lines) != 1 {
		t.Fatalf("expected line despite tone failure, got %d", len(lines))
	}
	if lines[0].Sentiment != ai.SentimentNeutral || lines[0].Aggression != 0 {
		t.Errorf("expected neutral fallback, got %+v", lines[0])
	}
}

func TestSegmentWords(t *testing.T) {
	words := []ai.Word{
		{Type: "word", SpeakerID: "speaker_0", Text: "hello", Start: 0.0},
		{Type: "word", SpeakerID: "speaker_0", Text: "there", Start: 0.4},
		{Type: "audio_event", SpeakerID: "speaker_0", Text: "(cough)", Start: 0.8},
		{Type: "word", SpeakerID: "speaker_1", Text: "hi", Start: 1.2},
		{Type: "word", SpeakerID: "speaker_0", Text: "bye", Start: 1.6},
	}

	segs := segmentWords(words)
	if len(segs) != 3 {
		t.Fatalf("expected 3 segments, got %d: %v", len(segs), segs)
	}
	if segs[0].speaker != "speaker_0" || segs[0].text != "hello there" || segs[0].start != 0.0 {
		t.Errorf("segment 0: %+v", segs[0])
	}
	if segs[1].speaker != "speaker_1" || segs[1].text != "hi" {
		t.Errorf("segment 1: %+v", segs[1])
	}
	if segs[2].speaker != "speaker_0" || segs[2].text != "bye" || segs[2].start != 1.6 {
		t.Errorf("segment 2: %+v", segs[2])
	}
}

func TestNormalizeSpeaker(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"speaker_0", "Speaker 0"},
		{"speaker_12", "Speaker 12"},
		{"Speaker 3", "Speaker 3"},
		{"SPEAKER_4", "Speaker 4"},
		{"alice", "alice"},
	}
	for _, tt := range tests {
		if got := normalizeSpeaker(tt.in); got != tt.want {
			t.Errorf("normalizeSpeaker(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestCleanUtterance(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"plain text", "plain text"},
		{"<nlb> noise at start", "noise at start"},
		{"broken nlb> tail", "broken tail"},
		{"<nlb", ""},
		{"  spaced   out  ", "spaced out"},
	}
	for _, tt := range tests {
		if got := cleanUtterance(tt.in); got != tt.want {
			t.Errorf("cleanUtterance(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestFormatTimestamp(t *testing.T) {
	tests := []struct {
		seconds float64
		want    string
	}{
		{0, "00:00:00"},
		{5.7, "00:00:05"},
		{65, "00:01:05"},
		{3661.2, "01:01:01"},
	}
	for _, tt := range tests {
		if got := formatTimestamp(tt.seconds); got != tt.want {
			t.Errorf("formatTimestamp(%v) = %q, want %q", tt.seconds, got, tt.want)
		}
	}
}
