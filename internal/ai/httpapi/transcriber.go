package httpapi

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"os"
	"path/filepath"

	"meeting-insight-service/internal/ai"
)

// Transcriber calls a diarizing speech-to-text service with multipart audio
// uploads and word-level timestamps.
type Transcriber struct {
	client *Client
	url    string
	apiKey string
	model  string
}

// NewTranscriber creates a Transcriber for the given endpoint.
func NewTranscriber(client *Client, url, apiKey, model string) *Transcriber {
	return &Transcriber{client: client, url: url, apiKey: apiKey, model: model}
}

// Transcribe uploads the clip and returns its diarized word stream.
func (t *Transcriber) Transcribe(ctx context.Context, clipPath, language string, diarize bool) (*ai.ClipTranscript, error) {
	var b bytes.Buffer
	w := multipart.NewWriter(&b)

	fw, err := w.CreateFormFile("file", filepath.Base(clipPath))
	if err != nil {
		return nil, err
	}
	fd, err := os.Open(clipPath)
	if err != nil {
		return nil, err
	}
	defer fd.Close()

	if _, err = io.Copy(fw, fd); err != nil {
		return nil, err
	}
	if err = w.WriteField("model_id", t.model); err != nil {
		return nil, err
	}
	if err = w.WriteField("language_code", language); err != nil {
		return nil, err
	}
	if err = w.WriteField("diarize", fmt.Sprintf("%t", diarize)); err != nil {
		return nil, err
	}
	if err = w.WriteField("timestamps_granularity", "word"); err != nil {
		return nil, err
	}
	if err = w.Close(); err != nil {
		return nil, err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, t.url+"/speech-to-text", &b)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", w.FormDataContentType())
	if t.apiKey != "" {
		req.Header.Set("Authorization", "Bearer "+t.apiKey)
	}

	resp, err := t.client.c.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(resp.Body)
		return nil, fmt.Errorf("transcribe %s: %s", resp.Status, string(body))
	}

	var out ai.ClipTranscript
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return nil, fmt.Errorf("transcribe decode: %w", err)
	}
	return &out, nil
}
