package audio

import (
	"bytes"
	"encoding/binary"
)

const (
	// BytesPerSample is fixed by the 16-bit capture format.
	BytesPerSample = 2

	wavHeaderSize = 44
)

// Duration returns the playback length in seconds of raw 16-bit mono PCM.
func Duration(pcm []byte, sampleRate int) float64 {
	if sampleRate <= 0 {
		return 0
	}
	return float64(len(pcm)) / float64(sampleRate*BytesPerSample)
}

// EncodeWAV wraps raw 16-bit mono PCM in a RIFF/WAVE container.
func EncodeWAV(pcm []byte, sampleRate int) []byte {
	var buf bytes.Buffer
	buf.Grow(wavHeaderSize + len(pcm))

	byteRate := uint32(sampleRate * BytesPerSample)
	dataLen := uint32(len(pcm))

	buf.WriteString("RIFF")
	binary.Write(&buf, binary.LittleEndian, uint32(wavHeaderSize-8)+dataLen)
	buf.WriteString("WAVE")

	buf.WriteString("fmt ")
	binary.Write(&buf, binary.LittleEndian, uint32(16))             // fmt chunk size
	binary.Write(&buf, binary.LittleEndian, uint16(1))              // PCM
	binary.Write(&buf, binary.LittleEndian, uint16(1))              // mono
	binary.Write(&buf, binary.LittleEndian, uint32(sampleRate))     // sample rate
	binary.Write(&buf, binary.LittleEndian, byteRate)               // byte rate
	binary.Write(&buf, binary.LittleEndian, uint16(BytesPerSample)) // block align
	binary.Write(&buf, binary.LittleEndian, uint16(16))             // bits per sample

	buf.WriteString("data")
	binary.Write(&buf, binary.LittleEndian, dataLen)
	buf.Write(pcm)

	return buf.Bytes()
}
