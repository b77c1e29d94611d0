package pipeline

import (
	"context"
	"errors"
	"io"
	"strings"
	"testing"
	"time"

	"github.com/rs/zerolog"

	"meeting-insight-service/internal/ai"
	"meeting-insight-service/internal/ai/mock"
	"meeting-insight-service/internal/audio"
	"meeting-insight-service/internal/events"
	"meeting-insight-service/internal/models"
	"meeting-insight-service/internal/storage"
)

func newTestController(t *testing.T, dev audio.Device, sink *events.Sink) *Controller {
	t.Helper()
	wd, err := storage.NewWorkDir(t.TempDir())
	if err != nil {
		t.Fatalf("NewWorkDir: %v", err)
	}
	return NewController(
		Config{
			SampleRate:      16000,
			FrameSize:       3200,
			ClipSeconds:     0.1,
			Language:        "eng",
			PartialInterval: 1,
			PartialWindow:   1,
			MaxReadFailures: 1,
			StopTimeout:     3 * time.Second,
		},
		Deps{
			NewDevice:   func() (audio.Device, error) { return dev, nil },
			Transcriber: &mock.Transcriber{},
			Tone:        &mock.ToneScorer{},
			Summarizer:  &mock.Summarizer{},
			Embedder:    &mock.Embedder{},
			Sink:        sink,
			WorkDir:     wd,
			Objectives:  []models.Objective{{Name: "chores", Description: "divide the chores"}},
		},
	)
}

func collectEvents(t *testing.T, sink *events.Sink, n int) []models.UIEvent {
	t.Helper()
	got := make([]models.UIEvent, 0, n)
	deadline := time.After(5 * time.Second)
	for len(got) < n {
		select {
		case ev := <-sink.Events():
			got = append(got, ev)
		case <-deadline:
			t.Fatalf("timed out waiting for events, have %d of %d: %v", len(got), n, got)
		}
	}
	return got
}

func TestController_EndToEnd(t *testing.T) {
	// Four 0.1s frames, then the device drains: the capture stage ends the
	// session on its own and the sentinel walks the whole pipeline down.
	frames := make([][]byte, 4)
	for i := range frames {
		frames[i] = make([]byte, 3200)
	}
	dev := audio.NewMemoryDevice(frames)
	dev.Drained = io.EOF

	sink := events.NewSink(128, zerolog.Nop())
	ctrl := newTestController(t, dev, sink)

	if err := ctrl.Start(); err != nil {
		t.Fatalf("Start: %v", err)
	}
	if err := ctrl.Start(); !errors.Is(err, ErrAlreadyRunning) {
		t.Errorf("second Start = %v, want ErrAlreadyRunning", err)
	}
	if ctrl.SessionID() == "" {
		t.Error("expected a session ID while running")
	}

	// The mock transcriber cycles two clips: the repeated "I agree" in the
	// fourth clip is deduplicated, leaving 5 transcript lines. With a
	// window of one clip, every snapshot yields a partial: 4 in total.
	evs := collectEvents(t, sink, 9)
	var lines, partials int
	for _, ev := range evs {
		switch ev.(type) {
		case models.TranscriptEvent:
			lines++
		case models.PartialSummaryEvent:
			partials++
		default:
			t.Errorf("unexpected event %T before stop", ev)
		}
	}
	if lines != 5 || partials != 4 {
		t.Errorf("got %d lines and %d partials, want 5 and 4", lines, partials)
	}

	final, err := ctrl.Stop(context.Background())
	if err != nil {
		t.Fatalf("Stop: %v", err)
	}
	if !strings.HasPrefix(final, "Summary #5") {
		t.Errorf("final = %q, want combined fifth summary", final)
	}

	ev := collectEvents(t, sink, 1)[0]
	fe, ok := ev.(models.FinalSummaryEvent)
	if !ok || fe.Content != final {
		t.Errorf("expected final event %q, got %#v", final, ev)
	}

	st := ctrl.Status()
	if st.Running || st.SessionID != "" {
		t.Errorf("expected idle status after Stop, got %+v", st)
	}
}

func TestController_WindowedSession(t *testing.T) {
	// Three one-clip frames with a two-snapshot interval and window: exactly
	// one partial fires (after the second snapshot), and the final summary
	// is built from that single partial.
	frames := make([][]byte, 3)
	for i := range frames {
		frames[i] = make([]byte, 3200)
	}
	dev := audio.NewMemoryDevice(frames)
	dev.Drained = io.EOF

	sink := events.NewSink(128, zerolog.Nop())
	wd, err := storage.NewWorkDir(t.TempDir())
	if err != nil {
		t.Fatalf("NewWorkDir: %v", err)
	}
	ctrl := NewController(
		Config{
			SampleRate:      16000,
			FrameSize:       3200,
			ClipSeconds:     0.1,
			Language:        "eng",
			PartialInterval: 2,
			PartialWindow:   2,
			MaxReadFailures: 1,
			StopTimeout:     3 * time.Second,
		},
		Deps{
			NewDevice:   func() (audio.Device, error) { return dev, nil },
			Transcriber: &mock.Transcriber{},
			Tone:        &mock.ToneScorer{},
			Summarizer:  &mock.Summarizer{},
			Embedder:    &mock.Embedder{},
			Sink:        sink,
			WorkDir:     wd,
		},
	)

	if err := ctrl.Start(); err != nil {
		t.Fatalf("Start: %v", err)
	}

	// Clips cycle two mock transcripts: 1 + 2 + 1 transcript lines.
	evs := collectEvents(t, sink, 5)
	var partials []models.PartialSummaryEvent
	for _, ev := range evs {
		if pe, ok := ev.(models.PartialSummaryEvent); ok {
			partials = append(partials, pe)
		}
	}
	if len(partials) != 1 || partials[0].Seq != 1 {
		t.Fatalf("expected exactly one partial with seq 1, got %v", partials)
	}

	final, err := ctrl.Stop(context.Background())
	if err != nil {
		t.Fatalf("Stop: %v", err)
	}
	if !strings.HasPrefix(final, "Summary #2") {
		t.Errorf("final = %q, want summary built from the single partial", final)
	}
}

func TestController_LifecycleErrors(t *testing.T) {
	sink := events.NewSink(8, zerolog.Nop())
	ctrl := newTestController(t, audio.NewMemoryDevice(nil), sink)

	if _, err := ctrl.Stop(context.Background()); !errors.Is(err, ErrNotRunning) {
		t.Errorf("Stop while idle = %v, want ErrNotRunning", err)
	}
	if err := ctrl.Pause(); !errors.Is(err, ErrNotRunning) {
		t.Errorf("Pause while idle = %v, want ErrNotRunning", err)
	}
	if err := ctrl.Resume(); !errors.Is(err, ErrNotRunning) {
		t.Errorf("Resume while idle = %v, want ErrNotRunning", err)
	}
	if _, err := ctrl.Finalize(context.Background()); !errors.Is(err, ErrNotRunning) {
		t.Errorf("Finalize while idle = %v, want ErrNotRunning", err)
	}
}

func TestController_DeviceOpenFailureAbortsStart(t *testing.T) {
	wd, err := storage.NewWorkDir(t.TempDir())
	if err != nil {
		t.Fatalf("NewWorkDir: %v", err)
	}
	openErr := errors.New("no microphone")
	ctrl := NewController(Config{SampleRate: 16000, FrameSize: 3200, ClipSeconds: 1}, Deps{
		NewDevice:   func() (audio.Device, error) { return nil, openErr },
		Transcriber: &mock.Transcriber{},
		Tone:        &mock.ToneScorer{},
		Summarizer:  &mock.Summarizer{},
		Embedder:    &mock.Embedder{},
		Sink:        events.NewSink(8, zerolog.Nop()),
		WorkDir:     wd,
	})

	if err := ctrl.Start(); !errors.Is(err, openErr) {
		t.Fatalf("Start = %v, want device open error", err)
	}
	if st := ctrl.Status(); st.Running {
		t.Error("controller must stay idle after a failed Start")
	}
}

// slowToneScorer delays each score so queued clips drain at a rate the test
// can observe.
type slowToneScorer struct{ delay time.Duration }

func (s *slowToneScorer) ScoreTone(ctx context.Context, utterance string) (ai.ToneScore, error) {
	time.Sleep(s.delay)
	return ai.NeutralTone(), nil
}

func TestController_PauseKeepsDownstreamDraining(t *testing.T) {
	// Pause gates only capture: chunks already sitting in the bounded
	// queues must keep flowing through transcription while paused.
	dev := audio.NewMemoryDevice(nil)
	sink := events.NewSink(512, zerolog.Nop())
	wd, err := storage.NewWorkDir(t.TempDir())
	if err != nil {
		t.Fatalf("NewWorkDir: %v", err)
	}
	ctrl := NewController(
		Config{
			SampleRate:  16000,
			FrameSize:   3200,
			ClipSeconds: 0.1,
			Language:    "eng",
			StopTimeout: 10 * time.Second,
		},
		Deps{
			NewDevice:   func() (audio.Device, error) { return dev, nil },
			Transcriber: &mock.Transcriber{},
			Tone:        &slowToneScorer{delay: 5 * time.Millisecond},
			Summarizer:  &mock.Summarizer{},
			Embedder:    &mock.Embedder{},
			Sink:        sink,
			WorkDir:     wd,
		},
	)

	if err := ctrl.Start(); err != nil {
		t.Fatalf("Start: %v", err)
	}

	// The silent device outruns the slow scorer, so by the time lines are
	// flowing the inter-stage queues hold a backlog of chunks.
	collectEvents(t, sink, 3)

	if err := ctrl.Pause(); err != nil {
		t.Fatalf("Pause: %v", err)
	}
	if !ctrl.Status().Paused {
		t.Fatal("Status should report paused")
	}

	// Discard everything already buffered; events after this point were
	// published while the session was paused.
	for {
		drained := true
		select {
		case <-sink.Events():
			drained = false
		default:
		}
		if drained {
			break
		}
	}

	deadline := time.After(5 * time.Second)
	sawLine := false
	for !sawLine {
		select {
		case ev := <-sink.Events():
			if _, ok := ev.(models.TranscriptEvent); ok {
				sawLine = true
			}
		case <-deadline:
			t.Fatal("no transcript events while paused; downstream drain is blocked")
		}
	}
	if !ctrl.Status().Paused {
		t.Fatal("session unexpectedly resumed")
	}

	if _, err := ctrl.Stop(context.Background()); err != nil {
		t.Fatalf("Stop: %v", err)
	}
}

func TestController_PauseResumeRoundTrip(t *testing.T) {
	// A silent device keeps capturing until stopped; pause must be visible
	// in Status and survive a resume.
	dev := audio.NewMemoryDevice(nil)
	sink := events.NewSink(128, zerolog.Nop())
	ctrl := newTestController(t, dev, sink)

	// Keep the sink drained so no stage ever parks on a full queue.
	stopDrain := make(chan struct{})
	go func() {
		for {
			select {
			case <-sink.Events():
			case <-stopDrain:
				return
			}
		}
	}()
	defer close(stopDrain)

	if err := ctrl.Start(); err != nil {
		t.Fatalf("Start: %v", err)
	}

	if err := ctrl.Pause(); err != nil {
		t.Fatalf("Pause: %v", err)
	}
	if st := ctrl.Status(); !st.Paused {
		t.Error("Status should report paused")
	}
	// Pausing again is a harmless no-op.
	if err := ctrl.Pause(); err != nil {
		t.Fatalf("second Pause: %v", err)
	}

	if err := ctrl.Resume(); err != nil {
		t.Fatalf("Resume: %v", err)
	}
	if st := ctrl.Status(); st.Paused {
		t.Error("Status should report running after Resume")
	}

	if _, err := ctrl.Stop(context.Background()); err != nil {
		t.Fatalf("Stop: %v", err)
	}
}
