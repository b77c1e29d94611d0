package httpapi

import (
	"context"
	"fmt"
)

type embedRequest struct {
	Model string   `json:"model"`
	Input []string `json:"input"`
}

type embedResponse struct {
	Data []struct {
		Embedding []float64 `json:"embedding"`
	} `json:"data"`
}

// Embedder calls an embedding endpoint, one vector per input string.
type Embedder struct {
	client *Client
	url    string
	apiKey string
	model  string
}

// NewEmbedder creates an Embedder for the given endpoint.
func NewEmbedder(client *Client, url, apiKey, model string) *Embedder {
	return &Embedder{client: client, url: url, apiKey: apiKey, model: model}
}

// Embed returns embeddings for texts in input order.
func (e *Embedder) Embed(ctx context.Context, texts []string) ([][]float64, error) {
	var out embedResponse
	err := e.client.postJSON(ctx, e.url+"/embeddings", e.apiKey, embedRequest{
		Model: e.model,
		Input: texts,
	}, &out)
	if err != nil {
		return nil, err
	}
	if len(out.Data) != len(texts) {
		return nil, fmt.Errorf("embeddings: got %d vectors for %d inputs", len(out.Data), len(texts))
	}
	vecs := make([][]float64, len(out.Data))
	for i, d := range out.Data {
		vecs[i] = d.Embedding
	}
	return vecs, nil
}
