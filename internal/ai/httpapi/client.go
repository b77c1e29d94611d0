// Package httpapi implements the ai interfaces against HTTP services: a
// diarizing speech-to-text endpoint, a chat-completion endpoint used for tone
// scoring and summarization, and an embedding endpoint.
package httpapi

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"
)

// Client is the shared HTTP transport for all AI service clients.
type Client struct {
	c *http.Client
}

// NewClient returns a Client with a timeout suitable for slow model calls.
func NewClient() *Client {
	return &Client{c: &http.Client{Timeout: 60 * time.Second}}
}

// postJSON sends a JSON request with bearer auth and decodes a JSON response.
func (h *Client) postJSON(ctx context.Context, url, apiKey string, in, out any) error {
	b, err := json.Marshal(in)
	if err != nil {
		return err
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(b))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")
	if apiKey != "" {
		req.Header.Set("Authorization", "Bearer "+apiKey)
	}

	resp, err := h.c.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(resp.Body)
		return fmt.Errorf("%s: %s", resp.Status, string(body))
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("decode: %w", err)
	}
	return nil
}
