// Package embed turns redacted text into an embedding vector using a local
// Ollama server. The embedder never fails a request: any error yields a zero
// vector of the configured dimension.
package embed

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"time"
)

// DefaultDimension matches nomic-embed-text and BERT-style models.
const DefaultDimension = 768

// Embedder produces a vector for text.
type Embedder interface {
	Vector(ctx context.Context, text string) []float64
}

// Client calls Ollama's /api/embeddings endpoint.
type Client struct {
	url       string
	model     string
	dimension int
	http      *http.Client
}

// New creates a Client. baseURL is the Ollama server, e.g. "http://localhost:11434".
func New(baseURL, model string, dimension int, timeout time.Duration) *Client {
	if dimension <= 0 {
		dimension = DefaultDimension
	}
	if timeout <= 0 {
		timeout = 300 * time.Second
	}
	return &Client{
		url:       strings.TrimRight(baseURL, "/") + "/api/embeddings",
		model:     model,
		dimension: dimension,
		http:      &http.Client{Timeout: timeout},
	}
}

// Dimension returns the length of the fallback vector.
func (c *Client) Dimension() int { return c.dimension }

type embedRequest struct {
	Model  string `json:"model"`
	Prompt string `json:"prompt"`
}

type embedResponse struct {
	Embedding []float64 `json:"embedding"`
}

// Vector implements Embedder.
func (c *Client) Vector(ctx context.Context, text string) []float64 {
	v, err := c.Embed(ctx, text)
	if err != nil {
		slog.Warn("embed: falling back to zero vector", "model", c.model, "err", err)
		return make([]float64, c.dimension)
	}
	return v
}

// Embed returns the embedding of text or an error.
func (c *Client) Embed(ctx context.Context, text string) ([]float64, error) {
	clean := strings.TrimSpace(strings.ReplaceAll(text, "\n", " "))

	body, err := json.Marshal(embedRequest{Model: c.model, Prompt: clean})
	if err != nil {
		return nil, fmt.Errorf("embed: marshal: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.url, bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("embed: request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("embed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		msg, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return nil, fmt.Errorf("embed: status %d: %s", resp.StatusCode, strings.TrimSpace(string(msg)))
	}

	var out embedResponse
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return nil, fmt.Errorf("embed: decode: %w", err)
	}
	if len(out.Embedding) == 0 {
		return nil, fmt.Errorf("embed: no embedding returned for model %s", c.model)
	}
	return out.Embedding, nil
}
