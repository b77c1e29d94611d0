package httpapi

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"meeting-insight-service/internal/ai"
)

// chat-completion wire types, OpenAI compatible.
type chatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type chatRequest struct {
	Model       string        `json:"model"`
	Messages    []chatMessage `json:"messages"`
	Temperature float64       `json:"temperature"`
	MaxTokens   int           `json:"max_tokens"`
}

type chatResponse struct {
	Choices []struct {
		Message chatMessage `json:"message"`
	} `json:"choices"`
}

func (h *Client) chat(ctx context.Context, url, apiKey string, req chatRequest) (string, error) {
	var out chatResponse
	if err := h.postJSON(ctx, url+"/chat/completions", apiKey, req, &out); err != nil {
		return "", err
	}
	if len(out.Choices) == 0 {
		return "", fmt.Errorf("completion: empty choices")
	}
	return strings.TrimSpace(out.Choices[0].Message.Content), nil
}

// ToneScorer scores utterances through the chat-completion endpoint with a
// strict-JSON instruction template.
type ToneScorer struct {
	client *Client
	url    string
	apiKey string
	model  string
}

// NewToneScorer creates a ToneScorer for the given completion endpoint.
func NewToneScorer(client *Client, url, apiKey, model string) *ToneScorer {
	return &ToneScorer{client: client, url: url, apiKey: apiKey, model: model}
}

const tonePrompt = `Analyze the emotional tone and aggression level of this meeting line:
%q

Return ONLY JSON like:
{
  "sentiment": "Positive | Neutral | Negative",
  "aggression_score": 0.0-1.0
}`

// ScoreTone asks the model for a tone score and parses it defensively. A
// transport error or malformed response yields an error; callers substitute
// the neutral fallback.
func (t *ToneScorer) ScoreTone(ctx context.Context, utterance string) (ai.ToneScore, error) {
	raw, err := t.client.chat(ctx, t.url, t.apiKey, chatRequest{
		Model: t.model,
		Messages: []chatMessage{
			{Role: "system", Content: "You are a precise language tone analyzer."},
			{Role: "user", Content: fmt.Sprintf(tonePrompt, utterance)},
		},
		Temperature: 0,
		MaxTokens:   100,
	})
	if err != nil {
		return ai.NeutralTone(), err
	}

	var score ai.ToneScore
	if err := json.Unmarshal([]byte(raw), &score); err != nil {
		return ai.NeutralTone(), fmt.Errorf("tone parse: %w", err)
	}

	// Normalize the model's output regardless of its casing or range.
	switch strings.ToLower(score.Sentiment) {
	case "positive":
		score.Sentiment = ai.SentimentPositive
	case "negative":
		score.Sentiment = ai.SentimentNegative
	default:
		score.Sentiment = ai.SentimentNeutral
	}
	if score.Aggression < 0 {
		score.Aggression = 0
	}
	if score.Aggression > 1 {
		score.Aggression = 1
	}
	return score, nil
}
