package pipeline

import "sync"

// OffsetState accumulates the audio time already handed to transcription, so
// that per-clip word timings can be mapped to absolute session timestamps.
// The offset only ever moves forward.
type OffsetState struct {
	mu      sync.Mutex
	seconds float64
}

// Advance moves the offset forward by d seconds. Non-positive values are
// ignored.
func (o *OffsetState) Advance(d float64) {
	if d <= 0 {
		return
	}
	o.mu.Lock()
	o.seconds += d
	o.mu.Unlock()
}

// Seconds returns the current absolute offset.
func (o *OffsetState) Seconds() float64 {
	o.mu.Lock()
	defer o.mu.Unlock()
	return o.seconds
}
