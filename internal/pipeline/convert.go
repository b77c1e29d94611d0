package pipeline

import (
	"github.com/rs/zerolog"

	"meeting-insight-service/internal/audio"
	"meeting-insight-service/internal/models"
	"meeting-insight-service/internal/observability/metrics"
	"meeting-insight-service/internal/storage"
)

// ConvertStage encodes PCM chunks into WAV clip files on disk. A chunk that
// cannot be written is dropped; the stage keeps running. The sentinel (nil
// PCM) is forwarded downstream as a clip with an empty path.
type ConvertStage struct {
	in         <-chan models.AudioChunk
	out        chan<- models.ConvertedClip
	workDir    *storage.WorkDir
	sampleRate int
	log        zerolog.Logger
	metrics    *metrics.Metrics
}

// Run converts chunks until the sentinel arrives.
func (s *ConvertStage) Run() {
	s.log.Info().Msg("Conversion started")

	for {
		chunk := <-s.in
		if chunk.PCM == nil {
			s.out <- models.ConvertedClip{}
			s.log.Info().Msg("Conversion finished")
			return
		}

		wav := audio.EncodeWAV(chunk.PCM, s.sampleRate)
		path, err := s.workDir.WriteClip(chunk.Index, wav)
		if err != nil {
			s.metrics.RecordClipWriteFailure()
			s.log.Error().Err(err).Int("index", chunk.Index).Msg("Clip write failed, chunk dropped")
			continue
		}

		s.metrics.RecordClipConverted()
		s.out <- models.ConvertedClip{
			Path:     path,
			Duration: audio.Duration(chunk.PCM, s.sampleRate),
			Index:    chunk.Index,
		}
	}
}
