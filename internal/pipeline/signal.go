// Package pipeline implements the four-stage capture, conversion,
// transcription and summarization pipeline and its controller.
package pipeline

import "sync"

// Signal carries the shared stop and pause state of one session. Stop is
// one-way and permanent; pause toggles a gate that capture waits on between
// windows. Stop always wins: a stopped pipeline cannot stay paused.
type Signal struct {
	stop     chan struct{}
	stopOnce sync.Once

	mu     sync.Mutex
	gate   chan struct{} // closed while running, open (blocking) while paused
	paused bool
}

// NewSignal returns a running (unpaused, unstopped) signal.
func NewSignal() *Signal {
	s := &Signal{
		stop: make(chan struct{}),
		gate: make(chan struct{}),
	}
	close(s.gate)
	return s
}

// Stop marks the session stopped and releases any goroutine blocked on the
// pause gate. Idempotent.
func (s *Signal) Stop() {
	s.stopOnce.Do(func() {
		close(s.stop)
		s.mu.Lock()
		if s.paused {
			s.paused = false
			close(s.gate)
		}
		s.mu.Unlock()
	})
}

// Done returns a channel closed when the session is stopped.
func (s *Signal) Done() <-chan struct{} {
	return s.stop
}

// Stopped reports whether Stop has been called.
func (s *Signal) Stopped() bool {
	select {
	case <-s.stop:
		return true
	default:
		return false
	}
}

// Pause closes the gate. Returns false if already paused or stopped. The
// stop flag is checked under the mutex so a concurrent Stop cannot leave a
// stopped signal reporting itself paused.
func (s *Signal) Pause() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.paused || s.Stopped() {
		return false
	}
	s.paused = true
	s.gate = make(chan struct{})
	return true
}

// Resume reopens the gate. Returns false if not paused.
func (s *Signal) Resume() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.paused {
		return false
	}
	s.paused = false
	close(s.gate)
	return true
}

// Paused reports whether the session is currently paused.
func (s *Signal) Paused() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.paused
}

// AwaitResume blocks while paused. It returns false when the session is
// stopped, whether or not it was paused.
func (s *Signal) AwaitResume() bool {
	if s.Stopped() {
		return false
	}
	s.mu.Lock()
	gate := s.gate
	s.mu.Unlock()

	select {
	case <-s.stop:
		return false
	case <-gate:
		return !s.Stopped()
	}
}
