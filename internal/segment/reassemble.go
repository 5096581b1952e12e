package segment

import (
	"slices"
	"strings"
	"unicode/utf8"
)

// Reassemble merges ordered segments into one text, dropping the bytes each
// segment shares with its predecessor.
//
// Overlap is computed from the original offsets (previous End minus Start).
// When a segment's text was rewritten, the trimmed length is still the
// original overlap, clamped to the text and rounded up to a rune boundary.
func Reassemble(segs []Segment) string {
	switch len(segs) {
	case 0:
		return ""
	case 1:
		return segs[0].Text
	}

	sorted := slices.Clone(segs)
	slices.SortStableFunc(sorted, func(a, b Segment) int {
		return a.Start - b.Start
	})

	var b strings.Builder
	b.WriteString(sorted[0].Text)
	runningEnd := sorted[0].End

	for _, s := range sorted[1:] {
		overlap := max(0, runningEnd-s.Start)
		b.WriteString(trimLead(s.Text, overlap))
		runningEnd = max(runningEnd, s.End)
	}
	return b.String()
}

func trimLead(text string, n int) string {
	if n >= len(text) {
		return ""
	}
	for n > 0 && n < len(text) && !utf8.RuneStart(text[n]) {
		n++
	}
	return text[n:]
}
