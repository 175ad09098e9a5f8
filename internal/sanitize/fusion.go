package sanitize

import (
	"cmp"
	"slices"
)

// Dedup fuses findings from every detector into one ordered, mutually
// non-overlapping list.
//
// Findings are ordered by start, longest first. Sweeping left to right, an
// overlapping finding replaces the current one when it comes from a pattern
// and the current one does not, or when it is strictly longer. Otherwise the
// first-seen finding is kept.
func Dedup(findings []Finding) []Finding {
	if len(findings) == 0 {
		return nil
	}

	sorted := slices.Clone(findings)
	slices.SortStableFunc(sorted, func(a, b Finding) int {
		if c := cmp.Compare(a.Start, b.Start); c != 0 {
			return c
		}
		return cmp.Compare(b.Len(), a.Len())
	})

	out := make([]Finding, 0, len(sorted))
	current := sorted[0]
	for _, next := range sorted[1:] {
		if next.Start < current.End {
			switch {
			case next.Source == SourcePattern && current.Source != SourcePattern:
				current = next
			case next.Len() > current.Len():
				current = next
			}
			continue
		}
		out = append(out, current)
		current = next
	}
	return append(out, current)
}
