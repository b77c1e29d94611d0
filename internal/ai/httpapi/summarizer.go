package httpapi

import (
	"context"
	"fmt"
	"regexp"
	"sort"
	"strings"
)

// maxTranscriptBytes bounds the transcript text embedded in the summary
// prompt so a long session cannot overload the model.
const maxTranscriptBytes = 8000

var speakerPattern = regexp.MustCompile(`Speaker\s*\d+`)

// Summarizer produces structured five-section meeting summaries through the
// chat-completion endpoint.
type Summarizer struct {
	client *Client
	url    string
	apiKey string
	model  string
}

// NewSummarizer creates a Summarizer for the given completion endpoint.
func NewSummarizer(client *Client, url, apiKey, model string) *Summarizer {
	return &Summarizer{client: client, url: url, apiKey: apiKey, model: model}
}

const summaryPrompt = `You are an expert meeting summarizer and corporate analyst.
Analyze the following meeting transcript and output these 5 sections **in this exact order**:

1. **Agenda** - Extract or infer agenda topics.
2. **Participants (%d)** - The speakers involved in the meeting were: %s.
3. **Key Takeaways** - Main conclusions and learnings.
4. **Follow Up** - Future actions or checkpoints to be done after the meeting.
5. **Action Points** - All specific tasks or next steps discussed.

Output each section clearly labeled and formatted with bullet points where appropriate.
Do not add extra commentary or invented information.

Meeting Transcript:
%s`

// Summarize requests a structured summary of the transcript text. Participant
// names are detected from the text itself.
func (s *Summarizer) Summarize(ctx context.Context, transcript string) (string, error) {
	if len(transcript) > maxTranscriptBytes {
		transcript = transcript[:maxTranscriptBytes]
	}

	names := detectSpeakers(transcript)
	prompt := fmt.Sprintf(summaryPrompt, len(names), strings.Join(names, ", "), transcript)

	return s.client.chat(ctx, s.url, s.apiKey, chatRequest{
		Model: s.model,
		Messages: []chatMessage{
			{Role: "system", Content: "You are a precise and structured meeting summarizer."},
			{Role: "user", Content: prompt},
		},
		Temperature: 0.3,
		MaxTokens:   1200,
	})
}

func detectSpeakers(text string) []string {
	seen := map[string]bool{}
	for _, m := range speakerPattern.FindAllString(text, -1) {
		seen[m] = true
	}
	if len(seen) == 0 {
		return []string{"Speaker 1"}
	}
	names := make([]string, 0, len(seen))
	for n := range seen {
		names = append(names, n)
	}
	sort.Strings(names)
	return names
}
