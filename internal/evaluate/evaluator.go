// Package evaluate scores summary text against the configured discussion
// objectives using embedding similarity.
package evaluate

import (
	"context"
	"fmt"
	"math"
	"regexp"

	"meeting-insight-service/internal/ai"
	"meeting-insight-service/internal/models"
)

// Label thresholds for objective-alignment scores.
const (
	highlyRelevantAbove  = 0.85
	relevantAbove        = 0.6
	somewhatRelatedAbove = 0.4
)

var spokenPattern = regexp.MustCompile(`Speaker[_\s]*\d+`)

// Cosine returns the cosine similarity of two vectors, in [-1,1]. Mismatched
// or zero-norm vectors score 0.
func Cosine(a, b []float64) float64 {
	if len(a) != len(b) || len(a) == 0 {
		return 0
	}
	var dot, na, nb float64
	for i := range a {
		dot += a[i] * b[i]
		na += a[i] * a[i]
		nb += b[i] * b[i]
	}
	if na == 0 || nb == 0 {
		return 0
	}
	return dot / (math.Sqrt(na) * math.Sqrt(nb))
}

// Label maps a normalized [0,1] score to its relevance label.
func Label(score float64) string {
	switch {
	case score > highlyRelevantAbove:
		return "Highly Relevant"
	case score > relevantAbove:
		return "Relevant"
	case score > somewhatRelatedAbove:
		return "Somewhat Related"
	default:
		return "Irrelevant"
	}
}

// Objectives embeds every objective description together with the summary
// text and scores each objective by cosine similarity, normalized from
// [-1,1] to [0,1]. knownSpeakers are the speakers seen so far in the
// session; those without a mention in the summary are reported as silent.
func Objectives(ctx context.Context, embedder ai.Embedder, objectives []models.Objective, summary string, knownSpeakers []string) (*models.EvaluationResult, error) {
	texts := make([]string, 0, len(objectives)+1)
	for _, o := range objectives {
		texts = append(texts, o.Description)
	}
	texts = append(texts, summary)

	vecs, err := embedder.Embed(ctx, texts)
	if err != nil {
		return nil, fmt.Errorf("embed objectives: %w", err)
	}
	if len(vecs) != len(texts) {
		return nil, fmt.Errorf("embed objectives: got %d vectors for %d texts", len(vecs), len(texts))
	}

	summaryVec := vecs[len(vecs)-1]
	scores := make(map[string]models.ObjectiveScore, len(objectives))
	for i, o := range objectives {
		raw := Cosine(vecs[i], summaryVec)
		score := (raw + 1) / 2
		scores[o.Name] = models.ObjectiveScore{
			Score: math.Round(score*100) / 100,
			Label: Label(score),
		}
	}

	return &models.EvaluationResult{
		Objectives:     scores,
		SilentSpeakers: silentSpeakers(summary, knownSpeakers),
	}, nil
}

func silentSpeakers(summary string, known []string) []string {
	spoken := map[string]bool{}
	for _, m := range spokenPattern.FindAllString(summary, -1) {
		spoken[normalizeSpeaker(m)] = true
	}

	silent := []string{}
	for _, s := range known {
		if !spoken[normalizeSpeaker(s)] {
			silent = append(silent, s)
		}
	}
	return silent
}

var speakerSep = regexp.MustCompile(`[_\s]+`)

func normalizeSpeaker(s string) string {
	return speakerSep.ReplaceAllString(s, " ")
}
