// Package sanitize detects PII and secrets in text and replaces them with
// reversible placeholder tags.
//
// Detection combines a fixed regex rule table (Matcher) with an external
// entity model (Adapter). Their findings are fused into one non-overlapping
// span list (Dedup), each distinct value gets a <LABEL_N> tag (CreateMap),
// and the text is rewritten (Redact). Tags can be turned back into the
// original values with BoomerangMap.Restore.
//
// Usage:
//
//	sc := sanitize.NewScanner(sanitize.DefaultMatcher(), adapter, sanitize.ScanOptions{})
//	findings := sc.Scan(ctx, text)
//	safe, m := sc.Redact(text, findings)
//	original := m.Restore(safe)
package sanitize

import (
	"context"
	"log/slog"

	"golang.org/x/sync/errgroup"
)

// ScanOptions sets the chunk window used for the entity model.
type ScanOptions struct {
	ChunkSize    int // words per model call; 0 means DefaultChunkSize
	ChunkOverlap int // words shared by consecutive chunks
}

// Scanner is the top-level detector created once at startup. It holds no
// per-request state and is safe for concurrent use.
type Scanner struct {
	matcher *Matcher
	adapter *Adapter
	opts    ScanOptions
}

// NewScanner creates a Scanner. Either detector may be nil.
func NewScanner(matcher *Matcher, adapter *Adapter, opts ScanOptions) *Scanner {
	if opts.ChunkSize <= 0 {
		opts.ChunkSize = DefaultChunkSize
		if opts.ChunkOverlap == 0 {
			opts.ChunkOverlap = DefaultChunkOverlap
		}
	}
	return &Scanner{matcher: matcher, adapter: adapter, opts: opts}
}

// Scan runs the rule table and the entity model on text in parallel and
// returns their fused findings, ordered by start and non-overlapping.
func (s *Scanner) Scan(ctx context.Context, text string) []Finding {
	if text == "" {
		return nil
	}

	var modelFound, patternFound []Finding
	var g errgroup.Group
	g.Go(func() error {
		modelFound = s.adapter.Scan(ctx, text, s.opts.ChunkSize, s.opts.ChunkOverlap)
		return nil
	})
	g.Go(func() error {
		if s.matcher != nil {
			patternFound = s.matcher.Match(text)
		}
		return nil
	})
	_ = g.Wait()

	all := append(validFindings(text, modelFound), validFindings(text, patternFound)...)
	if len(all) == 0 {
		return nil
	}
	fused := Dedup(all)
	slog.Debug("sanitize: scan complete", "model", len(modelFound), "pattern", len(patternFound), "fused", len(fused))
	return fused
}

// Redact rewrites text using findings and also returns the boomerang map
// that reverses it.
func (s *Scanner) Redact(text string, findings []Finding) (string, *BoomerangMap) {
	m := CreateMap(findings)
	if len(findings) == 0 {
		return text, m
	}
	safe := redactWithMap(text, findings, m)
	for _, f := range findings {
		tag, ok := m.Tag(f.Text)
		if !ok {
			tag = genericTag(f.Label)
		}
		slog.Debug("sanitize: redacted", "label", f.Label, "tag", tag)
	}
	return safe, m
}

// validFindings drops findings with impossible offsets and makes Text the
// exact source substring.
func validFindings(text string, findings []Finding) []Finding {
	out := make([]Finding, 0, len(findings))
	for _, f := range findings {
		if f.Start < 0 || f.End > len(text) || f.Start >= f.End {
			continue
		}
		if !isRuneBoundary(text, f.Start) || !isRuneBoundary(text, f.End) {
			continue
		}
		f.Text = text[f.Start:f.End]
		out = append(out, f)
	}
	return out
}
