// Package ner provides an EntityModel that calls a GLiNER-style NER sidecar
// over HTTP. The sidecar loads the model once and serves predictions; this
// client holds no model state and is safe for concurrent use.
package ner

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/gonkalabs/safedata/internal/sanitize"
)

// DefaultTimeout bounds one sidecar call.
const DefaultTimeout = 30 * time.Second

// Client calls the NER sidecar's /predict endpoint.
type Client struct {
	url  string
	http *http.Client
}

// New creates a NER Client pointing at the given base URL
// (e.g. "http://ner:8001").
func New(baseURL string, timeout time.Duration) *Client {
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	return &Client{
		url: strings.TrimRight(baseURL, "/") + "/predict",
		http: &http.Client{
			Timeout: timeout,
		},
	}
}

type predictRequest struct {
	Text      string   `json:"text"`
	Labels    []string `json:"labels"`
	Threshold float64  `json:"threshold"`
}

type predictResponse struct {
	Entities []entity `json:"entities"`
}

type entity struct {
	Text  string  `json:"text"`
	Label string  `json:"label"`
	Score float64 `json:"score"`
	Start int     `json:"start"` // code point offset
	End   int     `json:"end"`
}

// Predict sends text to the sidecar and returns its entities with byte
// offsets into text. Entities whose offsets do not fit text are dropped.
func (c *Client) Predict(ctx context.Context, text string, labels []string, threshold float64) ([]sanitize.Finding, error) {
	if strings.TrimSpace(text) == "" {
		return nil, nil
	}

	body, err := json.Marshal(predictRequest{Text: text, Labels: labels, Threshold: threshold})
	if err != nil {
		return nil, fmt.Errorf("ner: marshal: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.url, bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("ner: request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("ner: sidecar unreachable: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		msg, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return nil, fmt.Errorf("ner: unexpected status %d: %s", resp.StatusCode, strings.TrimSpace(string(msg)))
	}

	var result predictResponse
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		return nil, fmt.Errorf("ner: decode: %w", err)
	}

	offsets := byteOffsets(text)
	findings := make([]sanitize.Finding, 0, len(result.Entities))
	for _, e := range result.Entities {
		if e.Start < 0 || e.End >= len(offsets) || e.Start >= e.End {
			continue
		}
		start, end := offsets[e.Start], offsets[e.End]
		findings = append(findings, sanitize.Finding{
			Text:   text[start:end],
			Label:  e.Label,
			Score:  e.Score,
			Start:  start,
			End:    end,
			Source: sanitize.SourceModel,
		})
	}
	return findings, nil
}

// byteOffsets maps each code point index of s to its byte offset. The extra
// final entry maps RuneCount(s) to len(s).
func byteOffsets(s string) []int {
	out := make([]int, 0, utf8.RuneCountInString(s)+1)
	for i := range s {
		out = append(out, i)
	}
	return append(out, len(s))
}
