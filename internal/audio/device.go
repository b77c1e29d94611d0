// Package audio provides the capture device abstraction and PCM/WAV
// encoding for the pipeline's fixed 16-bit mono capture format.
package audio

import (
	"errors"
	"fmt"
	"io"
	"os/exec"
	"strconv"
	"sync"
)

// Device reads raw 16-bit mono PCM frames from a live audio input.
// Implementations must be safe to Close while a ReadFrame is blocked.
type Device interface {
	// ReadFrame fills p with the next frame of PCM bytes and returns the
	// number of bytes read.
	ReadFrame(p []byte) (int, error)

	// Close releases the underlying input.
	Close() error
}

// FFmpegDevice captures microphone audio by piping raw PCM from an ffmpeg
// child process.
type FFmpegDevice struct {
	cmd    *exec.Cmd
	stdout io.ReadCloser

	mu     sync.Mutex
	closed bool
}

// OpenFFmpegDevice starts ffmpeg reading from the given capture backend
// (e.g. alsa, avfoundation) and input identifier, emitting s16le mono PCM at
// sampleRate on stdout. Returns an error if the process cannot start, which
// aborts pipeline start.
func OpenFFmpegDevice(format, input string, sampleRate int) (*FFmpegDevice, error) {
	if _, err := exec.LookPath("ffmpeg"); err != nil {
		return nil, fmt.Errorf("ffmpeg not found: %w", err)
	}

	cmd := exec.Command("ffmpeg",
		"-f", format,
		"-i", input,
		"-ac", "1",
		"-ar", strconv.Itoa(sampleRate),
		"-f", "s16le",
		"-loglevel", "quiet",
		"-",
	)
	stdout, err := cmd.StdoutPipe()
	if err != nil {
		return nil, err
	}
	if err := cmd.Start(); err != nil {
		return nil, fmt.Errorf("start ffmpeg: %w", err)
	}
	return &FFmpegDevice{cmd: cmd, stdout: stdout}, nil
}

// ReadFrame reads one full frame of PCM bytes from the ffmpeg pipe.
func (d *FFmpegDevice) ReadFrame(p []byte) (int, error) {
	return io.ReadFull(d.stdout, p)
}

// Close terminates the ffmpeg process. Idempotent.
func (d *FFmpegDevice) Close() error {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.closed {
		return nil
	}
	d.closed = true

	d.stdout.Close()
	if d.cmd.Process != nil {
		_ = d.cmd.Process.Kill()
	}
	_ = d.cmd.Wait()
	return nil
}

// ErrDeviceClosed is returned by MemoryDevice reads after Close.
var ErrDeviceClosed = errors.New("device closed")

// MemoryDevice is an in-memory Device for tests. It serves queued PCM frames
// in order; Drained controls what happens when the queue empties: a non-nil
// Drained error is returned on every further read, otherwise silence frames
// are served indefinitely.
type MemoryDevice struct {
	mu      sync.Mutex
	frames  [][]byte
	Drained error
	closed  bool
}

// NewMemoryDevice creates a MemoryDevice serving the given frames.
func NewMemoryDevice(frames [][]byte) *MemoryDevice {
	return &MemoryDevice{frames: frames}
}

// Push appends frames to the queue.
func (d *MemoryDevice) Push(frames ...[]byte) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.frames = append(d.frames, frames...)
}

// ReadFrame pops the next queued frame into p.
func (d *MemoryDevice) ReadFrame(p []byte) (int, error) {
	d.mu.Lock()
	defer d.mu.Unlock()

	if d.closed {
		return 0, ErrDeviceClosed
	}
	if len(d.frames) == 0 {
		if d.Drained != nil {
			return 0, d.Drained
		}
		for i := range p {
			p[i] = 0
		}
		return len(p), nil
	}

	frame := d.frames[0]
	d.frames = d.frames[1:]
	n := copy(p, frame)
	return n, nil
}

// Close marks the device closed.
func (d *MemoryDevice) Close() error {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.closed = true
	return nil
}
