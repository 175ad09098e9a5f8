package sanitize

import (
	"context"
	"log/slog"
	"strings"
	"unicode"
	"unicode/utf8"
)

// Default chunking parameters, in words.
const (
	DefaultChunkSize    = 300
	DefaultChunkOverlap = 50
)

// Adapter runs an EntityModel over arbitrarily long text. Texts longer than
// ChunkSize words are split into overlapping word windows; findings from
// every window are shifted back into whole-text coordinates.
type Adapter struct {
	model     EntityModel
	labels    []string
	threshold float64
}

// NewAdapter wraps model. labels and threshold are passed to every Predict.
func NewAdapter(model EntityModel, labels []string, threshold float64) *Adapter {
	return &Adapter{model: model, labels: labels, threshold: threshold}
}

// word is the byte range of one whitespace-delimited word.
type word struct{ start, end int }

func splitWords(text string) []word {
	var words []word
	start := -1
	for i, r := range text {
		if unicode.IsSpace(r) {
			if start >= 0 {
				words = append(words, word{start, i})
				start = -1
			}
			continue
		}
		if start < 0 {
			start = i
		}
	}
	if start >= 0 {
		words = append(words, word{start, len(text)})
	}
	return words
}

// Scan returns the model's findings for text with Source set to
// SourceModel. A model error yields no findings for the affected chunk; it
// is logged and not retried.
func (a *Adapter) Scan(ctx context.Context, text string, chunkSize, overlap int) []Finding {
	if a == nil || a.model == nil || strings.TrimSpace(text) == "" {
		return nil
	}
	if chunkSize <= 0 {
		chunkSize = DefaultChunkSize
	}
	step := chunkSize - overlap
	if step < 1 {
		step = 1
	}

	words := splitWords(text)
	if len(words) <= chunkSize {
		return a.predict(ctx, text, 0)
	}

	var all []Finding
	for i := 0; i < len(words); i += step {
		last := min(i+chunkSize, len(words)) - 1
		offset := words[i].start
		chunk := text[offset:words[last].end]
		all = append(all, a.predict(ctx, chunk, offset)...)
		if last == len(words)-1 {
			break
		}
	}
	return all
}

// predict runs the model on one chunk and shifts its findings by offset.
// Findings outside the chunk are dropped.
func (a *Adapter) predict(ctx context.Context, chunk string, offset int) []Finding {
	found, err := a.model.Predict(ctx, chunk, a.labels, a.threshold)
	if err != nil {
		slog.Warn("sanitize: entity model failed, chunk skipped", "offset", offset, "len", len(chunk), "err", err)
		return nil
	}
	out := make([]Finding, 0, len(found))
	for _, f := range found {
		if f.Start < 0 || f.End > len(chunk) || f.Start >= f.End {
			slog.Debug("sanitize: model span out of chunk", "start", f.Start, "end", f.End)
			continue
		}
		f.Start += offset
		f.End += offset
		f.Source = SourceModel
		out = append(out, f)
	}
	return out
}

func isRuneBoundary(s string, i int) bool {
	if i == 0 || i == len(s) {
		return true
	}
	return utf8.RuneStart(s[i])
}
