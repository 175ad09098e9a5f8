package sanitize

import (
	"cmp"
	"encoding/json"
	"slices"
	"strconv"
	"strings"
)

// BoomerangMap maps each distinct detected value to its <LABEL_N> tag.
// It is built for one text and discarded with it. Several originals may
// share a tag (the parts of a person's name share the full name's tag); the
// first original registered for a tag is the one Restore brings back.
type BoomerangMap struct {
	toTag map[string]string // original value → <LABEL_N>
	order []string          // originals in registration order
}

func newBoomerangMap() *BoomerangMap {
	return &BoomerangMap{toTag: make(map[string]string)}
}

// CreateMap assigns tags to the findings' values. Longer values claim tags
// first, so a full name is tagged before any of its parts could be.
// Counters are per label and start at 1. Findings labelled security_secret
// are never mapped.
func CreateMap(findings []Finding) *BoomerangMap {
	m := newBoomerangMap()
	sorted := slices.Clone(findings)
	slices.SortStableFunc(sorted, func(a, b Finding) int {
		return cmp.Compare(len(b.Text), len(a.Text))
	})

	counts := make(map[string]int)
	for _, f := range sorted {
		label := NormalizeLabel(f.Label)
		if label == SecretLabel || f.Text == "" {
			continue
		}
		if _, ok := m.toTag[f.Text]; ok {
			continue
		}
		counts[label]++
		tag := "<" + label + "_" + strconv.Itoa(counts[label]) + ">"
		m.register(f.Text, tag)

		if !strings.Contains(label, "PERSON") {
			continue
		}
		parts := strings.Fields(f.Text)
		if len(parts) < 2 {
			continue
		}
		for _, part := range parts {
			if len(part) > 2 {
				if _, ok := m.toTag[part]; !ok {
					m.register(part, tag)
				}
			}
		}
	}
	return m
}

func (m *BoomerangMap) register(original, tag string) {
	m.toTag[original] = tag
	m.order = append(m.order, original)
}

// Tag returns the tag assigned to original.
func (m *BoomerangMap) Tag(original string) (string, bool) {
	if m == nil {
		return "", false
	}
	tag, ok := m.toTag[original]
	return tag, ok
}

// Len returns the number of mapped originals, name parts included.
func (m *BoomerangMap) Len() int {
	if m == nil {
		return 0
	}
	return len(m.order)
}

// IsEmpty reports whether nothing was mapped.
func (m *BoomerangMap) IsEmpty() bool { return m.Len() == 0 }

// Originals returns the mapped values in registration order.
func (m *BoomerangMap) Originals() []string {
	if m == nil {
		return nil
	}
	return slices.Clone(m.order)
}

// Map returns a copy of the original → tag mapping.
func (m *BoomerangMap) Map() map[string]string {
	out := make(map[string]string, m.Len())
	if m == nil {
		return out
	}
	for k, v := range m.toTag {
		out[k] = v
	}
	return out
}

// FromMap rebuilds a BoomerangMap from a plain mapping, e.g. one returned to a
// client earlier. Originals are registered longest first so that a full name
// wins over its parts when both share a tag.
func FromMap(mapping map[string]string) *BoomerangMap {
	m := newBoomerangMap()
	keys := make([]string, 0, len(mapping))
	for k := range mapping {
		keys = append(keys, k)
	}
	slices.SortFunc(keys, func(a, b string) int {
		if c := cmp.Compare(len(b), len(a)); c != 0 {
			return c
		}
		return strings.Compare(a, b)
	})
	for _, k := range keys {
		if k != "" && mapping[k] != "" {
			m.register(k, mapping[k])
		}
	}
	return m
}

// MarshalJSON encodes the map as a JSON object of original → tag.
func (m *BoomerangMap) MarshalJSON() ([]byte, error) {
	return json.Marshal(m.Map())
}

// UnmarshalJSON decodes the object produced by MarshalJSON.
func (m *BoomerangMap) UnmarshalJSON(b []byte) error {
	var raw map[string]string
	if err := json.Unmarshal(b, &raw); err != nil {
		return err
	}
	*m = *FromMap(raw)
	return nil
}

// fromTag returns tag → original, keeping the first original per tag.
func (m *BoomerangMap) fromTag() map[string]string {
	out := make(map[string]string, m.Len())
	if m == nil {
		return out
	}
	for _, orig := range m.order {
		tag := m.toTag[orig]
		if _, ok := out[tag]; !ok {
			out[tag] = orig
		}
	}
	return out
}

// Restore replaces every tag in text with its original value. Tags are
// disjoint strings, so the result does not depend on replacement order.
func (m *BoomerangMap) Restore(text string) string {
	if m.IsEmpty() || text == "" {
		return text
	}
	rev := m.fromTag()
	pairs := make([]string, 0, 2*len(rev))
	for tag, orig := range rev {
		pairs = append(pairs, tag, orig)
	}
	return strings.NewReplacer(pairs...).Replace(text)
}

// Restore is the free-function form of BoomerangMap.Restore.
func Restore(text string, m *BoomerangMap) string {
	return m.Restore(text)
}

// maxTagLen returns the length of the longest tag in the map.
func (m *BoomerangMap) maxTagLen() int {
	n := 0
	if m == nil {
		return n
	}
	for _, tag := range m.toTag {
		n = max(n, len(tag))
	}
	return n
}
