// Package ai defines the narrow interfaces for the external AI services the
// pipeline depends on, so that failure injection and retries can be added
// uniformly without touching stage logic.
package ai

import "context"

// WordTypeWord marks a transcribed word entry. Entries of any other type
// (audio events, spacing) are ignored for segmentation.
const WordTypeWord = "word"

// Word is one entry of a diarized word-level transcript. Start and End are
// offsets in seconds relative to the clip.
type Word struct {
	Type      string  `json:"type"`
	SpeakerID string  `json:"speaker_id"`
	Text      string  `json:"text"`
	Start     float64 `json:"start"`
	End       float64 `json:"end"`
}

// ClipTranscript is the diarized transcription of one audio clip.
type ClipTranscript struct {
	Language string `json:"language_code"`
	Words    []Word `json:"words"`
}

// Sentiment labels returned by the tone scorer.
const (
	SentimentPositive = "Positive"
	SentimentNeutral  = "Neutral"
	SentimentNegative = "Negative"
)

// ToneScore is the result of scoring one utterance.
type ToneScore struct {
	Sentiment  string  `json:"sentiment"`
	Aggression float64 `json:"aggression_score"` // in [0,1]
}

// NeutralTone is the safe fallback when scoring fails.
func NeutralTone() ToneScore {
	return ToneScore{Sentiment: SentimentNeutral, Aggression: 0}
}

// Transcriber converts one audio artifact into a diarized word stream.
type Transcriber interface {
	Transcribe(ctx context.Context, clipPath, language string, diarize bool) (*ClipTranscript, error)
}

// ToneScorer scores a single utterance for sentiment and aggression.
type ToneScorer interface {
	ScoreTone(ctx context.Context, utterance string) (ToneScore, error)
}

// Summarizer produces a structured meeting summary from plain transcript text.
type Summarizer interface {
	Summarize(ctx context.Context, transcript string) (string, error)
}

// Embedder returns one fixed-dimension vector per input string, same order.
type Embedder interface {
	Embed(ctx context.Context, texts []string) ([][]float64, error)
}
