package pipeline

import (
	"github.com/rs/zerolog"

	"meeting-insight-service/internal/audio"
	"meeting-insight-service/internal/models"
	"meeting-insight-service/internal/observability/metrics"
)

// DefaultMaxReadFailures is how many consecutive device read failures the
// capture stage tolerates before declaring the device dead and shutting the
// pipeline down cleanly.
const DefaultMaxReadFailures = 5

// CaptureStage reads PCM frames from the device, groups them into
// fixed-duration chunks, and pushes them downstream. It is the sole writer
// of its output channel: the shutdown sentinel (a chunk with nil PCM) is
// always the last item it sends, after any partial window has been flushed.
type CaptureStage struct {
	dev             audio.Device
	frameSize       int
	clipBytes       int
	maxReadFailures int
	sig             *Signal
	out             chan<- models.AudioChunk
	log             zerolog.Logger
	metrics         *metrics.Metrics
}

// Run captures until the session is stopped or the device fails. Pause is
// honored between windows only: an in-progress window always completes.
func (c *CaptureStage) Run() {
	defer c.dev.Close()
	c.log.Info().Int("clipBytes", c.clipBytes).Msg("Capture started")

	index := 0
	failures := 0
	buf := make([]byte, 0, c.clipBytes)
	frame := make([]byte, c.frameSize)

capture:
	for {
		if !c.sig.AwaitResume() {
			break
		}

		for len(buf) < c.clipBytes {
			if c.sig.Stopped() {
				break capture
			}
			n, err := c.dev.ReadFrame(frame)
			if err != nil {
				failures++
				c.metrics.RecordCaptureReadError()
				c.log.Warn().Err(err).Int("consecutive", failures).Msg("Device read failed")
				if failures >= c.maxReadFailures {
					c.log.Error().Msg("Device unrecoverable, ending capture")
					break capture
				}
				continue
			}
			failures = 0
			buf = append(buf, frame[:n]...)
		}

		if len(buf) >= c.clipBytes {
			c.emit(buf, index)
			index++
			buf = buf[:0]
		}
	}

	// Flush the partial window so trailing audio is not lost.
	total := index
	if len(buf) > 0 {
		c.emit(buf, index)
		total++
	}

	c.out <- models.AudioChunk{}
	c.log.Info().Int("chunks", total).Msg("Capture finished")
}

func (c *CaptureStage) emit(buf []byte, index int) {
	pcm := make([]byte, len(buf))
	copy(pcm, buf)
	c.out <- models.AudioChunk{PCM: pcm, Index: index}
	c.metrics.RecordChunkCaptured(len(pcm))
}
