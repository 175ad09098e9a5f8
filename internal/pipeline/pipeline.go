// Package pipeline wires detection, redaction, embedding and noise into the
// standard security wrapper applied to every input: text, form fields, and
// text derived from audio, images and documents by external collaborators.
package pipeline

import (
	"context"
	"fmt"
	"log/slog"
	"slices"
	"strings"

	"github.com/google/uuid"

	"github.com/gonkalabs/safedata/internal/embed"
	"github.com/gonkalabs/safedata/internal/privacy"
	"github.com/gonkalabs/safedata/internal/sanitize"
)

// Kind identifies where the redacted text came from.
type Kind string

const (
	KindText     Kind = "text"
	KindForm     Kind = "form"
	KindAudio    Kind = "audio"    // transcript
	KindImage    Kind = "image"    // image description
	KindDocument Kind = "document" // document description
)

// ParseDerivedKind validates the kind of a derived-text request.
func ParseDerivedKind(s string) (Kind, error) {
	switch k := Kind(strings.ToLower(strings.TrimSpace(s))); k {
	case KindAudio, KindImage, KindDocument:
		return k, nil
	}
	return "", fmt.Errorf("pipeline: unknown media kind %q", s)
}

// Metrics summarises the privacy/utility trade-off of one result.
type Metrics struct {
	UtilityScore float64        `json:"utility_score"`
	Epsilon      float64        `json:"epsilon"`
	Budget       privacy.Budget `json:"budget"`
}

// Result is what every pipeline entry point returns.
type Result struct {
	RequestID    string                 `json:"request_id"`
	Kind         Kind                   `json:"kind"`
	SafeContent  string                 `json:"safe_content"`
	BoomerangMap *sanitize.BoomerangMap `json:"boomerang_map"`
	AuditLog     []sanitize.Finding     `json:"audit_log"`
	SafeVector   []float64              `json:"safe_vector"`
	VectorDim    int                    `json:"vector_dim"`
	Metrics      Metrics                `json:"metrics"`
}

// Pipeline is built once at startup and shared by all requests.
type Pipeline struct {
	scanner  *sanitize.Scanner
	embedder embed.Embedder
	engine   *privacy.Engine
}

// New creates a Pipeline.
func New(scanner *sanitize.Scanner, embedder embed.Embedder, engine *privacy.Engine) *Pipeline {
	return &Pipeline{scanner: scanner, embedder: embedder, engine: engine}
}

// Engine returns the privacy engine, for budget queries.
func (p *Pipeline) Engine() *privacy.Engine { return p.engine }

// Text redacts and embeds raw text.
func (p *Pipeline) Text(ctx context.Context, text string, epsilon float64) Result {
	return p.secure(ctx, KindText, text, epsilon)
}

// Derived redacts and embeds text produced from media, e.g. an audio
// transcript or an image description.
func (p *Pipeline) Derived(ctx context.Context, kind Kind, text string, epsilon float64) Result {
	return p.secure(ctx, kind, text, epsilon)
}

// Form flattens fields into "key: value" sentences in key order and runs
// them through one scan, so a value repeated across fields gets one tag.
// Values are coerced to strings.
func (p *Pipeline) Form(ctx context.Context, fields map[string]any, epsilon float64) Result {
	return p.secure(ctx, KindForm, FlattenForm(fields), epsilon)
}

// FlattenForm renders fields as "k1: v1. k2: v2" with keys sorted.
func FlattenForm(fields map[string]any) string {
	keys := make([]string, 0, len(fields))
	for k := range fields {
		keys = append(keys, k)
	}
	slices.Sort(keys)

	parts := make([]string, 0, len(keys))
	for _, k := range keys {
		v := fields[k]
		if v == nil {
			v = ""
		}
		parts = append(parts, fmt.Sprintf("%s: %v", k, v))
	}
	return strings.Join(parts, ". ")
}

// secure is the standard wrapper: scan, redact, embed the safe text, then
// add noise calibrated to epsilon.
func (p *Pipeline) secure(ctx context.Context, kind Kind, raw string, epsilon float64) Result {
	findings := p.scanner.Scan(ctx, raw)
	safe, m := p.scanner.Redact(raw, findings)

	rawVec := p.embedder.Vector(ctx, safe)
	safeVec := p.engine.AddNoise(rawVec, epsilon)

	if findings == nil {
		findings = []sanitize.Finding{}
	}
	res := Result{
		RequestID:    uuid.NewString(),
		Kind:         kind,
		SafeContent:  safe,
		BoomerangMap: m,
		AuditLog:     findings,
		SafeVector:   safeVec,
		VectorDim:    len(safeVec),
		Metrics: Metrics{
			UtilityScore: privacy.UtilityScore(rawVec, safeVec),
			Epsilon:      epsilon,
			Budget:       p.engine.BudgetStatus(epsilon),
		},
	}
	slog.Info("pipeline: secured",
		"request_id", res.RequestID,
		"kind", kind,
		"findings", len(findings),
		"mapped", m.Len(),
		"epsilon", epsilon,
	)
	return res
}
