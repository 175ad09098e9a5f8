package sanitize

import (
	"encoding/json"
	"fmt"
	"strings"
)

// Source identifies which detector produced a Finding.
type Source int

const (
	SourceModel   Source = iota // entity model (NER sidecar, LLM auditor)
	SourcePattern               // fixed regex rule
)

func (s Source) String() string {
	switch s {
	case SourcePattern:
		return "Pattern"
	default:
		return "Model"
	}
}

// MarshalJSON encodes the source by name so audit logs stay readable.
func (s Source) MarshalJSON() ([]byte, error) {
	return json.Marshal(s.String())
}

// UnmarshalJSON accepts the names produced by MarshalJSON.
func (s *Source) UnmarshalJSON(b []byte) error {
	var name string
	if err := json.Unmarshal(b, &name); err != nil {
		return err
	}
	switch strings.ToLower(name) {
	case "pattern", "regex":
		*s = SourcePattern
	case "model", "":
		*s = SourceModel
	default:
		return fmt.Errorf("sanitize: unknown finding source %q", name)
	}
	return nil
}

// Finding is one detected span. Start and End are byte offsets into the
// scanned text; End is exclusive.
type Finding struct {
	Text   string  `json:"text"`
	Label  string  `json:"label"`
	Score  float64 `json:"score"`
	Start  int     `json:"start"`
	End    int     `json:"end"`
	Source Source  `json:"source"`
}

// Len returns the span length in bytes.
func (f Finding) Len() int { return f.End - f.Start }

// SecretLabel is the normalized label of findings that are never made
// reversible: they always redact to the generic <SECURITY_SECRET> tag.
const SecretLabel = "SECURITY_SECRET"

// NormalizeLabel upper-cases a detector label and replaces spaces with
// underscores. Any other byte outside [A-Z0-9_] is also replaced so the
// result is always safe to embed in a tag.
func NormalizeLabel(label string) string {
	label = strings.ToUpper(strings.TrimSpace(label))
	if label == "" {
		return "ENTITY"
	}
	b := []byte(label)
	for i, c := range b {
		if (c >= 'A' && c <= 'Z') || (c >= '0' && c <= '9') || c == '_' {
			continue
		}
		b[i] = '_'
	}
	return string(b)
}

// genericTag is the non-reversible tag used for values that have no
// boomerang entry.
func genericTag(label string) string {
	return "<" + NormalizeLabel(label) + ">"
}
