package sanitize

import (
	"cmp"
	"log/slog"
	"regexp"
	"slices"
	"unicode"
	"unicode/utf8"
)

// Interval is one planned rewrite of text[Start:End] to Replacement.
type Interval struct {
	Start       int
	End         int
	Replacement string
}

// Len returns the length of the replaced region in bytes.
func (iv Interval) Len() int { return iv.End - iv.Start }

// backScanSafe matches originals that can be searched for verbatim as whole
// words. Anything with punctuation (emails, keys) is only replaced where a
// detector found it.
var backScanSafe = regexp.MustCompile(`^[a-zA-Z0-9\s]+$`)

// Redact replaces every finding in text with its boomerang tag and returns
// the rewritten text. Values the mapper leaves out (secrets) get the generic
// <LABEL> tag. Mapped values are also replaced wherever they recur in text
// as whole words, even where no detector reported them.
func Redact(text string, findings []Finding) string {
	if len(findings) == 0 || text == "" {
		return text
	}
	return redactWithMap(text, findings, CreateMap(findings))
}

func redactWithMap(text string, findings []Finding, m *BoomerangMap) string {
	return applyIntervals(text, ResolveIntervals(plannedIntervals(text, findings, m)))
}

// plannedIntervals lists the rewrites for findings, followed by the
// back-scan hits of every mapped original.
func plannedIntervals(text string, findings []Finding, m *BoomerangMap) []Interval {
	planned := make([]Interval, 0, len(findings))
	for _, f := range findings {
		tag, ok := m.Tag(f.Text)
		if !ok {
			tag = genericTag(f.Label)
		}
		planned = append(planned, Interval{Start: f.Start, End: f.End, Replacement: tag})
	}

	for _, original := range m.Originals() {
		if !backScanSafe.MatchString(original) {
			continue
		}
		tag, _ := m.Tag(original)
		re, err := regexp.Compile(`\b` + regexp.QuoteMeta(original) + `\b`)
		if err != nil {
			slog.Debug("sanitize: back-scan pattern rejected", "err", err)
			continue
		}
		for _, loc := range re.FindAllStringIndex(text, -1) {
			if !wordBounded(text, loc[0], loc[1]) {
				continue
			}
			planned = append(planned, Interval{Start: loc[0], End: loc[1], Replacement: tag})
		}
	}
	return planned
}

// wordBounded reports whether text[start:end] is not glued to a neighbouring
// word rune. RE2's \b only knows ASCII word characters, so "Jos" would
// otherwise match inside "José".
func wordBounded(text string, start, end int) bool {
	if start > 0 {
		if r, _ := utf8.DecodeLastRuneInString(text[:start]); isWordRune(r) {
			return false
		}
	}
	if end < len(text) {
		if r, _ := utf8.DecodeRuneInString(text[end:]); isWordRune(r) {
			return false
		}
	}
	return true
}

func isWordRune(r rune) bool {
	return r == '_' || unicode.IsLetter(r) || unicode.IsDigit(r)
}

// ResolveIntervals orders intervals by start and drops overlaps. An
// interval starting before the last kept one ends replaces it only when it
// is strictly longer. The result is sorted and non-overlapping.
func ResolveIntervals(intervals []Interval) []Interval {
	sorted := slices.Clone(intervals)
	slices.SortStableFunc(sorted, func(a, b Interval) int {
		return cmp.Compare(a.Start, b.Start)
	})

	kept := make([]Interval, 0, len(sorted))
	lastEnd := -1
	for _, iv := range sorted {
		if iv.Start >= lastEnd {
			kept = append(kept, iv)
			lastEnd = iv.End
			continue
		}
		if iv.End > lastEnd && len(kept) > 0 && iv.Len() > kept[len(kept)-1].Len() {
			kept[len(kept)-1] = iv
			lastEnd = iv.End
		}
	}
	return kept
}

// applyIntervals rewrites text from the last interval to the first so that
// earlier offsets stay valid. Intervals outside text are skipped.
func applyIntervals(text string, intervals []Interval) string {
	for i := len(intervals) - 1; i >= 0; i-- {
		iv := intervals[i]
		if iv.Start < 0 || iv.End > len(text) || iv.Start > iv.End {
			slog.Debug("sanitize: interval out of bounds", "start", iv.Start, "end", iv.End, "len", len(text))
			continue
		}
		if !isRuneBoundary(text, iv.Start) || !isRuneBoundary(text, iv.End) {
			continue
		}
		text = text[:iv.Start] + iv.Replacement + text[iv.End:]
	}
	return text
}
