package sanitize

import (
	"context"
	"errors"
	"strings"
	"sync"
)

// needleModel reports every occurrence of each needle as a finding with the
// mapped label. It records the chunks it was asked about.
type needleModel struct {
	needles map[string]string // needle → label
	err     error

	mu     sync.Mutex
	chunks []string
}

func (m *needleModel) Predict(_ context.Context, text string, _ []string, _ float64) ([]Finding, error) {
	m.mu.Lock()
	m.chunks = append(m.chunks, text)
	m.mu.Unlock()
	if m.err != nil {
		return nil, m.err
	}
	var out []Finding
	for needle, label := range m.needles {
		for start := 0; ; {
			i := strings.Index(text[start:], needle)
			if i < 0 {
				break
			}
			abs := start + i
			out = append(out, Finding{Text: needle, Label: label, Score: 0.9, Start: abs, End: abs + len(needle)})
			start = abs + len(needle)
		}
	}
	return out, nil
}

func (m *needleModel) calls() []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]string(nil), m.chunks...)
}

// fixedModel returns the same findings for every call.
type fixedModel []Finding

func (m fixedModel) Predict(context.Context, string, []string, float64) ([]Finding, error) {
	return append([]Finding(nil), m...), nil
}

var errModelDown = errors.New("model down")

func finding(text, sub, label string, src Source) Finding {
	i := strings.Index(text, sub)
	if i < 0 {
		panic("substring not found: " + sub)
	}
	return Finding{Text: sub, Label: label, Score: 1, Start: i, End: i + len(sub), Source: src}
}
