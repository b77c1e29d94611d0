package audio

import (
	"bytes"
	"encoding/binary"
	"testing"
)

func TestEncodeWAV_Header(t *testing.T) {
	pcm := make([]byte, 3200) // 0.1s at 16kHz
	out := EncodeWAV(pcm, 16000)

	if len(out) != 44+len(pcm) {
		t.Fatalf("expected %d bytes, got %d", 44+len(pcm), len(out))
	}
	if !bytes.Equal(out[0:4], []byte("RIFF")) || !bytes.Equal(out[8:12], []byte("WAVE")) {
		t.Error("missing RIFF/WAVE markers")
	}

	rate := binary.LittleEndian.Uint32(out[24:28])
	if rate != 16000 {
		t.Errorf("expected sample rate 16000, got %d", rate)
	}
	channels := binary.LittleEndian.Uint16(out[22:24])
	if channels != 1 {
		t.Errorf("expected mono, got %d channels", channels)
	}
	bits := binary.LittleEndian.Uint16(out[34:36])
	if bits != 16 {
		t.Errorf("expected 16 bits per sample, got %d", bits)
	}
	dataLen := binary.LittleEndian.Uint32(out[40:44])
	if dataLen != uint32(len(pcm)) {
		t.Errorf("expected data length %d, got %d", len(pcm), dataLen)
	}
}

func TestDuration(t *testing.T) {
	tests := []struct {
		name       string
		pcmBytes   int
		sampleRate int
		want       float64
	}{
		{"one second", 32000, 16000, 1.0},
		{"half second", 16000, 16000, 0.5},
		{"empty", 0, 16000, 0},
		{"zero rate", 32000, 0, 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Duration(make([]byte, tt.pcmBytes), tt.sampleRate)
			if got != tt.want {
				t.Errorf("Duration = %v, want %v", got, tt.want)
			}
		})
	}
}
