// Package segment splits long content into overlapping, sentence-aligned
// segments that fit a generative model's input budget, and merges the
// processed segments back into a single text.
//
// Sizes and offsets are byte positions in the original UTF-8 text. Cuts are
// always placed on rune boundaries.
package segment

import (
	"fmt"
	"strings"
	"unicode/utf8"
)

// SentenceSearchWindow is how far back from a window boundary Split looks for
// the end of a sentence before falling back to a hard cut.
const SentenceSearchWindow = 500

// Options configures Split.
type Options struct {
	// MaxChunkSize is the maximum segment size in bytes, media placeholders
	// counted at their placeholder size.
	MaxChunkSize int
	// OverlapSize is how many bytes of the previous segment are repeated at
	// the start of the next one.
	OverlapSize int
	// PreserveMedia substitutes media markup with atomic placeholders before
	// splitting and records a MediaRef for each element.
	PreserveMedia bool
}

// Validate checks option values.
func (o Options) Validate() error {
	if o.MaxChunkSize < 1 {
		return fmt.Errorf("max chunk size must be >= 1, got %d: %w", o.MaxChunkSize, ErrInvalidOptions)
	}
	if o.OverlapSize < 0 {
		return fmt.Errorf("overlap size must be >= 0, got %d: %w", o.OverlapSize, ErrInvalidOptions)
	}
	if o.OverlapSize >= o.MaxChunkSize {
		return fmt.Errorf("overlap size %d must be smaller than max chunk size %d: %w",
			o.OverlapSize, o.MaxChunkSize, ErrInvalidOptions)
	}
	return nil
}

// Segment is one slice of the original content.
// Start and End are half-open byte offsets in the original text; Text is the
// original bytes of that range with media markup restored.
type Segment struct {
	Index int
	Text  string
	Start int
	End   int
	Media []MediaRef
}

// Split divides content into ordered segments.
//
// Content that fits in MaxChunkSize comes back as a single untouched segment.
// Longer content is cut at the last sentence end found within
// SentenceSearchWindow bytes before each window boundary (or at the boundary
// itself when there is none), and every segment after the first starts
// OverlapSize bytes before the previous cut. Each MediaRef is attached to
// exactly one segment, and no overlap region contains media.
func Split(content string, opts Options) ([]Segment, error) {
	if err := opts.Validate(); err != nil {
		return nil, err
	}

	var refs []MediaRef
	if opts.PreserveMedia {
		if strings.ContainsRune(content, placeholderOpen) || strings.ContainsRune(content, placeholderClose) {
			return nil, ErrReservedRune
		}
		refs = ScanMedia(content)
	}

	if len(content) <= opts.MaxChunkSize {
		return []Segment{{Index: 0, Text: content, Start: 0, End: len(content), Media: refs}}, nil
	}

	sub := substitute(content, refs)
	text := sub.text

	var segs []Segment
	start := 0
	for {
		end := start + opts.MaxChunkSize
		if end >= len(text) {
			segs = append(segs, sub.segment(len(segs), start, len(text)))
			break
		}

		cut := findCut(sub, start, end)
		segs = append(segs, sub.segment(len(segs), start, cut))
		if cut >= len(text) {
			break
		}
		start = nextStart(sub, start, cut, opts.OverlapSize)
	}
	return segs, nil
}

func (s substituted) segment(index, a, b int) Segment {
	text, media := s.restore(a, b)
	return Segment{
		Index: index,
		Text:  text,
		Start: s.toOriginal(a),
		End:   s.toOriginal(b),
		Media: media,
	}
}

// findCut chooses where the segment starting at start ends, given the raw
// window boundary end (< len(text)). The result is in (start, len(text)].
func findCut(s substituted, start, end int) int {
	text := s.text

	// Never bisect a placeholder.
	if sl, ok := s.slotAt(end); ok {
		if sl.pos > start {
			end = sl.pos
		} else {
			end = sl.pos + sl.size
		}
	}
	end = runeFloor(text, start, end)

	lo := max(start+1, end-SentenceSearchWindow)
	for i := end - 2; i >= lo; i-- {
		if isTerminal(text[i]) && isSpace(text[i+1]) {
			return i + 2
		}
	}
	return end
}

// nextStart returns where the segment following [start, cut) begins.
// It backs up overlap bytes from cut, keeps at least one byte of progress,
// and moves forward past any placeholder so overlap regions stay media-free.
func nextStart(s substituted, start, cut, overlap int) int {
	next := max(cut-overlap, start+1)
	if next < cut {
		if end, ok := s.lastSlotEndIn(next, cut); ok {
			next = end
		}
	}
	return runeCeil(s.text, next)
}

func isTerminal(b byte) bool {
	return b == '.' || b == '!' || b == '?'
}

func isSpace(b byte) bool {
	return b == ' ' || b == '\n' || b == '\t' || b == '\r'
}

// runeFloor moves p back to a rune boundary, or forward if backing up would
// reach floor.
func runeFloor(text string, floor, p int) int {
	q := p
	for q > floor && q < len(text) && !utf8.RuneStart(text[q]) {
		q--
	}
	if q > floor {
		return q
	}
	return runeCeil(text, p)
}

// runeCeil moves p forward to the next rune boundary.
func runeCeil(text string, p int) int {
	for p < len(text) && !utf8.RuneStart(text[p]) {
		p++
	}
	return p
}
