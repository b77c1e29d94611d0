package pipeline

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/google/uuid"

	"meeting-insight-service/internal/ai"
	"meeting-insight-service/internal/audio"
	"meeting-insight-service/internal/events"
	"meeting-insight-service/internal/models"
	"meeting-insight-service/internal/observability/logging"
	"meeting-insight-service/internal/observability/metrics"
	"meeting-insight-service/internal/storage"
)

// DefaultQueueCapacity bounds every inter-stage queue. A full queue blocks
// the producer, so a stalled stage throttles everything upstream instead of
// growing memory without bound.
const DefaultQueueCapacity = 50

var (
	// ErrAlreadyRunning is returned by Start when a session is active.
	ErrAlreadyRunning = errors.New("pipeline already running")
	// ErrNotRunning is returned by lifecycle calls without an active session.
	ErrNotRunning = errors.New("pipeline not running")
)

// Config holds the pipeline tuning knobs.
type Config struct {
	SampleRate      int
	FrameSize       int
	ClipSeconds     float64
	Language        string
	PartialInterval int
	PartialWindow   int
	MaxReadFailures int
	QueueCapacity   int
	StopTimeout     time.Duration
	Grace           time.Duration
}

// Deps are the controller's collaborators. Publisher and Store may be nil;
// the stages then skip publishing and persistence.
type Deps struct {
	NewDevice   func() (audio.Device, error)
	Transcriber ai.Transcriber
	Tone        ai.ToneScorer
	Summarizer  ai.Summarizer
	Embedder    ai.Embedder
	Sink        *events.Sink
	Publisher   *events.Publisher
	Store       *storage.Store
	WorkDir     *storage.WorkDir
	Objectives  []models.Objective
}

// stageHandle tracks one stage goroutine for shutdown joins.
type stageHandle struct {
	name string
	done chan struct{}
}

// Controller owns the lifecycle of one pipeline session at a time: it wires
// the four stages together with bounded queues, relays pause and resume, and
// performs the ordered shutdown with bounded joins and the final summary.
type Controller struct {
	cfg     Config
	deps    Deps
	metrics *metrics.Metrics

	mu        sync.Mutex
	running   bool
	sessionID string
	sig       *Signal
	stages    []stageHandle
	summarize *SummarizeStage
	cancel    context.CancelFunc
}

// Status is a point-in-time view of the controller.
type Status struct {
	Running   bool            `json:"running"`
	Paused    bool            `json:"paused"`
	SessionID string          `json:"sessionId,omitempty"`
	Stages    map[string]bool `json:"stages,omitempty"` // stage name -> still alive
}

// NewController creates a controller. Zero config fields fall back to
// defaults.
func NewController(cfg Config, deps Deps) *Controller {
	if cfg.QueueCapacity <= 0 {
		cfg.QueueCapacity = DefaultQueueCapacity
	}
	if cfg.MaxReadFailures <= 0 {
		cfg.MaxReadFailures = DefaultMaxReadFailures
	}
	if cfg.PartialInterval <= 0 {
		cfg.PartialInterval = 2
	}
	if cfg.PartialWindow <= 0 {
		cfg.PartialWindow = cfg.PartialInterval
	}
	if cfg.StopTimeout <= 0 {
		cfg.StopTimeout = 3 * time.Second
	}
	return &Controller{cfg: cfg, deps: deps, metrics: metrics.DefaultMetrics}
}

// Start opens the capture device and launches all four stages. A device
// that cannot be opened aborts the start; no goroutines are left behind.
func (c *Controller) Start() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.running {
		return ErrAlreadyRunning
	}

	dev, err := c.deps.NewDevice()
	if err != nil {
		return err
	}

	sessionID := uuid.NewString()
	sig := NewSignal()
	ctx, cancel := context.WithCancel(context.Background())

	chunks := make(chan models.AudioChunk, c.cfg.QueueCapacity)
	clips := make(chan models.ConvertedClip, c.cfg.QueueCapacity)
	snapshots := make(chan models.TranscriptSnapshot, c.cfg.QueueCapacity)

	acc := NewAccumulator()
	offset := &OffsetState{}

	capture := &CaptureStage{
		dev:             dev,
		frameSize:       c.cfg.FrameSize,
		clipBytes:       int(c.cfg.ClipSeconds*float64(c.cfg.SampleRate)) * audio.BytesPerSample,
		maxReadFailures: c.cfg.MaxReadFailures,
		sig:             sig,
		out:             chunks,
		log:             logging.WithStage(sessionID, "capture"),
		metrics:         c.metrics,
	}
	convert := &ConvertStage{
		in:         chunks,
		out:        clips,
		workDir:    c.deps.WorkDir,
		sampleRate: c.cfg.SampleRate,
		log:        logging.WithStage(sessionID, "convert"),
		metrics:    c.metrics,
	}
	transcribe := &TranscribeStage{
		in:          clips,
		out:         snapshots,
		transcriber: c.deps.Transcriber,
		tone:        c.deps.Tone,
		acc:         acc,
		offset:      offset,
		workDir:     c.deps.WorkDir,
		sink:        c.deps.Sink,
		publisher:   c.deps.Publisher,
		store:       c.deps.Store,
		sessionID:   sessionID,
		language:    c.cfg.Language,
		log:         logging.WithStage(sessionID, "transcribe"),
		metrics:     c.metrics,
	}
	summarize := &SummarizeStage{
		in:         snapshots,
		summarizer: c.deps.Summarizer,
		embedder:   c.deps.Embedder,
		objectives: c.deps.Objectives,
		acc:        acc,
		sink:       c.deps.Sink,
		publisher:  c.deps.Publisher,
		store:      c.deps.Store,
		sessionID:  sessionID,
		interval:   c.cfg.PartialInterval,
		window:     c.cfg.PartialWindow,
		log:        logging.WithStage(sessionID, "summarize"),
		metrics:    c.metrics,
	}

	c.stages = []stageHandle{
		{name: "capture", done: make(chan struct{})},
		{name: "convert", done: make(chan struct{})},
		{name: "transcribe", done: make(chan struct{})},
		{name: "summarize", done: make(chan struct{})},
	}
	go func(done chan struct{}) { defer close(done); capture.Run() }(c.stages[0].done)
	go func(done chan struct{}) { defer close(done); convert.Run() }(c.stages[1].done)
	go func(done chan struct{}) { defer close(done); transcribe.Run(ctx) }(c.stages[2].done)
	go func(done chan struct{}) { defer close(done); summarize.Run(ctx) }(c.stages[3].done)

	c.running = true
	c.sessionID = sessionID
	c.sig = sig
	c.summarize = summarize
	c.cancel = cancel
	c.metrics.RecordSessionStarted()
	log := logging.WithSession(sessionID)
	log.Info().Msg("Pipeline started")
	return nil
}

// Pause halts capture at the next window boundary. Returns ErrNotRunning
// without a session; pausing a paused session is a no-op.
func (c *Controller) Pause() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if !c.running {
		return ErrNotRunning
	}
	if c.sig.Pause() {
		log := logging.WithSession(c.sessionID)
		log.Info().Msg("Pipeline paused")
	}
	return nil
}

// Resume reopens capture. Resuming a running session is a no-op.
func (c *Controller) Resume() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if !c.running {
		return ErrNotRunning
	}
	if c.sig.Resume() {
		log := logging.WithSession(c.sessionID)
		log.Info().Msg("Pipeline resumed")
	}
	return nil
}

// Stop shuts the session down: it signals stop, joins the stages in pipeline
// order with a shared deadline, and produces the final summary from whatever
// partials exist. Stages that outlive the deadline are abandoned and
// counted; Stop still returns.
func (c *Controller) Stop(ctx context.Context) (string, error) {
	c.mu.Lock()
	if !c.running {
		c.mu.Unlock()
		return "", ErrNotRunning
	}
	sessionID := c.sessionID
	sig := c.sig
	stages := c.stages
	summarize := c.summarize
	cancel := c.cancel
	c.mu.Unlock()

	log := logging.WithSession(sessionID)
	log.Info().Msg("Stopping pipeline")
	sig.Stop()

	deadline := time.Now().Add(c.cfg.StopTimeout)
	for _, st := range stages {
		select {
		case <-st.done:
		case <-time.After(time.Until(deadline)):
			c.metrics.RecordStageAbandoned(st.name)
			log.Warn().Str("stage", st.name).Msg("Stage did not exit before deadline, abandoned")
		}
	}

	// Give in-flight deliveries a moment to land before finalizing.
	if c.cfg.Grace > 0 {
		time.Sleep(c.cfg.Grace)
	}

	final, err := summarize.Finalize(ctx)
	if errors.Is(err, ErrNoPartialSummaries) {
		log.Info().Msg("No partial summaries, skipping final summary")
		final, err = "", nil
	} else if err != nil {
		log.Error().Err(err).Msg("Final summary failed")
	}

	cancel()

	c.mu.Lock()
	c.running = false
	c.sessionID = ""
	c.sig = nil
	c.stages = nil
	c.summarize = nil
	c.cancel = nil
	c.mu.Unlock()

	c.metrics.RecordSessionStopped()
	log.Info().Msg("Pipeline stopped")
	return final, err
}

// Finalize produces (or returns the cached) final summary for the active
// session without stopping it.
func (c *Controller) Finalize(ctx context.Context) (string, error) {
	c.mu.Lock()
	summarize := c.summarize
	running := c.running
	c.mu.Unlock()
	if !running || summarize == nil {
		return "", ErrNotRunning
	}
	return summarize.Finalize(ctx)
}

// Status reports whether a session is active and which stages are alive.
func (c *Controller) Status() Status {
	c.mu.Lock()
	defer c.mu.Unlock()

	st := Status{Running: c.running, SessionID: c.sessionID}
	if !c.running {
		return st
	}
	st.Paused = c.sig.Paused()
	st.Stages = make(map[string]bool, len(c.stages))
	for _, h := range c.stages {
		select {
		case <-h.done:
			st.Stages[h.name] = false
		default:
			st.Stages[h.name] = true
		}
	}
	return st
}

// SessionID returns the active session's identifier, or "" when idle.
func (c *Controller) SessionID() string {
	c.mu.Lock()
	defer c.mu.Unlock()
	if !c.running {
		return ""
	}
	return c.sessionID
}
