// Package llmclassifier provides a secret auditor: an EntityModel backed by a
// local OpenAI-compatible LLM (e.g. Ollama) that spots hardcoded credentials
// the regex table has no rule for.
//
// The model is asked for the secret strings verbatim rather than offsets,
// because small models get offsets wrong. Every whole-token occurrence of a
// returned string is located in the text here. All findings carry the
// security_secret label, so they are redacted but never made reversible.
package llmclassifier

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"regexp"
	"strings"
	"time"

	"github.com/gonkalabs/safedata/internal/sanitize"
)

// Label is the label of every finding produced by the auditor.
const Label = "security_secret"

const systemPrompt = `You are a Security Auditor. Your task is to identify SENSITIVE SECRETS in the provided text.
Target Entities:
1. API Keys (e.g., sk-..., AWS_ACCESS_KEY)
2. Hardcoded Passwords
3. Database Connection Strings
4. Private Key Blocks

Instructions:
- Return ONLY a JSON list of the exact strings found.
- If no secrets are found, return an empty list [].
- Do not output any markdown or conversational text.
- Never return placeholder tags such as <PERSON_1>.`

// Classifier calls a local LLM to detect secrets.
type Classifier struct {
	url   string
	model string
	http  *http.Client
}

// New creates a Classifier.
// baseURL is the Ollama (or any OpenAI-compatible) server, e.g. "http://ollama:11434".
func New(baseURL, model string, timeout time.Duration) *Classifier {
	if timeout <= 0 {
		timeout = 120 * time.Second
	}
	return &Classifier{
		url:   strings.TrimRight(baseURL, "/") + "/v1/chat/completions",
		model: model,
		http:  &http.Client{Timeout: timeout},
	}
}

type chatRequest struct {
	Model       string    `json:"model"`
	Messages    []message `json:"messages"`
	Temperature float64   `json:"temperature"`
	MaxTokens   int       `json:"max_tokens"`
	Think       bool      `json:"think"`
}

type message struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type chatResponse struct {
	Choices []struct {
		Message struct {
			Content   string `json:"content"`
			Reasoning string `json:"reasoning"`
		} `json:"message"`
		FinishReason string `json:"finish_reason"`
	} `json:"choices"`
}

// Predict implements sanitize.EntityModel. labels and threshold are ignored:
// the auditor only reports secrets.
func (c *Classifier) Predict(ctx context.Context, text string, _ []string, _ float64) ([]sanitize.Finding, error) {
	if strings.TrimSpace(text) == "" {
		return nil, nil
	}

	body, err := json.Marshal(chatRequest{
		Model: c.model,
		Messages: []message{
			{Role: "system", Content: systemPrompt},
			{Role: "user", Content: text},
		},
		MaxTokens: 512,
	})
	if err != nil {
		return nil, fmt.Errorf("llmclassifier: marshal: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.url, bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("llmclassifier: request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("llmclassifier: LLM unreachable: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		msg, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return nil, fmt.Errorf("llmclassifier: unexpected status %d: %s", resp.StatusCode, strings.TrimSpace(string(msg)))
	}

	var out chatResponse
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return nil, fmt.Errorf("llmclassifier: decode response: %w", err)
	}
	if len(out.Choices) == 0 {
		return nil, nil
	}
	choice := out.Choices[0]
	if choice.FinishReason == "length" {
		slog.Warn("llmclassifier: response truncated by token limit")
	}

	raw := strings.TrimSpace(choice.Message.Content)
	if raw == "" {
		raw = strings.TrimSpace(choice.Message.Reasoning)
	}
	secrets, err := parseSecrets(raw)
	if err != nil {
		return nil, err
	}

	findings := locate(text, secrets)
	if len(findings) > 0 {
		slog.Debug("llmclassifier: secrets located", "count", len(findings), "values", len(secrets))
	}
	return findings, nil
}

// locate returns a finding for every occurrence of each secret in text that
// is not part of a longer token.
func locate(text string, secrets []string) []sanitize.Finding {
	var findings []sanitize.Finding
	for _, val := range secrets {
		val = strings.TrimSpace(val)
		if val == "" || (strings.HasPrefix(val, "<") && strings.HasSuffix(val, ">")) {
			continue
		}
		for start := 0; ; {
			idx := strings.Index(text[start:], val)
			if idx < 0 {
				break
			}
			abs := start + idx
			end := abs + len(val)
			start = end
			if isInsideToken(text, abs, end) {
				continue
			}
			findings = append(findings, sanitize.Finding{
				Text:   val,
				Label:  Label,
				Score:  1.0,
				Start:  abs,
				End:    end,
				Source: sanitize.SourceModel,
			})
		}
	}
	return findings
}

// isInsideToken reports whether span [start,end) sits inside a larger word.
func isInsideToken(text string, start, end int) bool {
	if start > 0 && !isBoundary(text[start-1]) {
		return true
	}
	return end < len(text) && !isBoundary(text[end])
}

func isBoundary(b byte) bool {
	switch b {
	case ' ', '\t', '\n', '\r', '<', '>', ',', ';', '(', ')', '[', ']', '{', '}', '"', '\'', '`', '=', ':':
		return true
	}
	return false
}

var thinkBlock = regexp.MustCompile(`(?s)<think>.*?(?:</think>|\z)`)

// parseSecrets pulls the JSON string array out of a model reply. Reasoning
// blocks, code fences and chatter around the array are ignored.
func parseSecrets(reply string) ([]string, error) {
	s := thinkBlock.ReplaceAllString(reply, "")
	if i, j := strings.IndexByte(s, '['), strings.LastIndexByte(s, ']'); i >= 0 && j > i {
		s = s[i : j+1]
	}
	var secrets []string
	if err := json.Unmarshal([]byte(strings.TrimSpace(s)), &secrets); err != nil {
		return nil, fmt.Errorf("llmclassifier: parse model output: %w", err)
	}
	return secrets, nil
}
