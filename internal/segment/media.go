package segment

import (
	"regexp"
	"sort"
	"strconv"
	"strings"
)

// MediaKind classifies an embedded non-text element.
type MediaKind string

// Recognized media kinds.
const (
	KindImage         MediaKind = "image"
	KindPicture       MediaKind = "picture"
	KindFigure        MediaKind = "figure"
	KindVideo         MediaKind = "video"
	KindAudio         MediaKind = "audio"
	KindIframe        MediaKind = "iframe"
	KindMarkdownImage MediaKind = "markdown-image"
)

// MediaRef records one embedded media element found in the original text.
// It is created once per input and never modified afterwards.
type MediaRef struct {
	Kind   MediaKind
	Src    string // source locator, may be empty
	Alt    string // optional label (alt, title or figcaption text)
	Markup string // original serialized markup
	Offset int    // byte offset of Markup in the original text
}

// mediaPattern pairs a kind with its matcher. Container elements come first:
// when matches overlap, the earliest and then the longest one wins, so a
// <figure> swallows the <img> it wraps.
type mediaPattern struct {
	kind MediaKind
	re   *regexp.Regexp
}

var mediaPatterns = []mediaPattern{
	{KindFigure, regexp.MustCompile(`(?is)<figure\b[^>]*>.*?</figure\s*>`)},
	{KindPicture, regexp.MustCompile(`(?is)<picture\b[^>]*>.*?</picture\s*>`)},
	{KindVideo, regexp.MustCompile(`(?is)<video\b[^>]*>.*?</video\s*>`)},
	{KindAudio, regexp.MustCompile(`(?is)<audio\b[^>]*>.*?</audio\s*>`)},
	{KindIframe, regexp.MustCompile(`(?is)<iframe\b[^>]*>.*?</iframe\s*>`)},
	{KindImage, regexp.MustCompile(`(?i)<img\b[^>]*>`)},
	{KindMarkdownImage, regexp.MustCompile(`!\[([^\]\n]*)\]\(([^)\s]+)(?:\s+"[^"\n]*")?\)`)},
}

var (
	srcAttr    = regexp.MustCompile(`(?i)\bsrc\s*=\s*["']([^"']*)["']`)
	altAttr    = regexp.MustCompile(`(?i)\balt\s*=\s*["']([^"']*)["']`)
	titleAttr  = regexp.MustCompile(`(?i)\btitle\s*=\s*["']([^"']*)["']`)
	figcaption = regexp.MustCompile(`(?is)<figcaption\b[^>]*>(.*?)</figcaption\s*>`)
	anyTag     = regexp.MustCompile(`<[^>]*>`)
)

// ScanMedia returns every media element in text, ordered by offset.
// Matches never overlap.
func ScanMedia(text string) []MediaRef {
	type match struct {
		kind       MediaKind
		start, end int
		sub        []int
	}

	var found []match
	for _, p := range mediaPatterns {
		for _, loc := range p.re.FindAllStringSubmatchIndex(text, -1) {
			found = append(found, match{kind: p.kind, start: loc[0], end: loc[1], sub: loc})
		}
	}
	if len(found) == 0 {
		return nil
	}

	sort.SliceStable(found, func(i, j int) bool {
		if found[i].start != found[j].start {
			return found[i].start < found[j].start
		}
		return found[i].end > found[j].end
	})

	refs := make([]MediaRef, 0, len(found))
	lastEnd := -1
	for _, m := range found {
		if m.start < lastEnd {
			continue
		}
		markup := text[m.start:m.end]
		ref := MediaRef{Kind: m.kind, Markup: markup, Offset: m.start}
		if m.kind == KindMarkdownImage {
			ref.Alt = text[m.sub[2]:m.sub[3]]
			ref.Src = text[m.sub[4]:m.sub[5]]
		} else {
			ref.Src = firstGroup(srcAttr, markup)
			ref.Alt = mediaLabel(markup)
		}
		refs = append(refs, ref)
		lastEnd = m.end
	}
	return refs
}

func mediaLabel(markup string) string {
	if c := firstGroup(figcaption, markup); c != "" {
		return strings.TrimSpace(anyTag.ReplaceAllString(c, ""))
	}
	if a := firstGroup(altAttr, markup); a != "" {
		return a
	}
	return firstGroup(titleAttr, markup)
}

func firstGroup(re *regexp.Regexp, s string) string {
	m := re.FindStringSubmatch(s)
	if len(m) < 2 {
		return ""
	}
	return m[1]
}

// Placeholder tokens use Unicode private-use code points so that neither the
// sentence scanner nor a reader of the text can mistake them for content.
const (
	placeholderOpen  = '\uE000'
	placeholderClose = '\uE001'
)

func placeholder(i int) string {
	return string(placeholderOpen) + strconv.Itoa(i) + string(placeholderClose)
}

// slot is one substituted media element: its span in the substituted text and
// the matching span in the original text.
type slot struct {
	ref        int // index into refs
	pos, size  int // span in substituted text
	orig, olen int // span in original text
}

// substituted is the original text with every media element replaced by a
// placeholder, plus the bookkeeping needed to map positions back.
type substituted struct {
	text  string
	refs  []MediaRef
	slots []slot
}

func substitute(text string, refs []MediaRef) substituted {
	var b strings.Builder
	b.Grow(len(text))

	slots := make([]slot, 0, len(refs))
	prev := 0
	for i, r := range refs {
		b.WriteString(text[prev:r.Offset])
		token := placeholder(i)
		slots = append(slots, slot{
			ref:  i,
			pos:  b.Len(),
			size: len(token),
			orig: r.Offset,
			olen: len(r.Markup),
		})
		b.WriteString(token)
		prev = r.Offset + len(r.Markup)
	}
	b.WriteString(text[prev:])

	return substituted{text: b.String(), refs: refs, slots: slots}
}

// toOriginal maps a position in the substituted text to the original text.
// A position inside a placeholder maps to the start of its markup.
func (s substituted) toOriginal(p int) int {
	delta := 0
	for _, sl := range s.slots {
		if p >= sl.pos+sl.size {
			delta += sl.olen - sl.size
			continue
		}
		if p > sl.pos {
			return sl.orig
		}
		break
	}
	return p + delta
}

// slotAt returns the placeholder covering position p (strictly inside it).
func (s substituted) slotAt(p int) (slot, bool) {
	for _, sl := range s.slots {
		if p > sl.pos && p < sl.pos+sl.size {
			return sl, true
		}
		if sl.pos >= p {
			break
		}
	}
	return slot{}, false
}

// lastSlotEndIn returns the end of the last placeholder that intersects [lo, hi).
func (s substituted) lastSlotEndIn(lo, hi int) (int, bool) {
	end, ok := 0, false
	for _, sl := range s.slots {
		if sl.pos >= hi {
			break
		}
		if sl.pos+sl.size > lo {
			end, ok = sl.pos+sl.size, true
		}
	}
	return end, ok
}

// restore rebuilds the original markup for the substituted span [a, b) and
// returns the references whose placeholder lies inside it.
func (s substituted) restore(a, b int) (string, []MediaRef) {
	var out strings.Builder
	var media []MediaRef
	prev := a
	for _, sl := range s.slots {
		if sl.pos < a {
			continue
		}
		if sl.pos+sl.size > b {
			break
		}
		out.WriteString(s.text[prev:sl.pos])
		out.WriteString(s.refs[sl.ref].Markup)
		media = append(media, s.refs[sl.ref])
		prev = sl.pos + sl.size
	}
	out.WriteString(s.text[prev:b])
	return out.String(), media
}
