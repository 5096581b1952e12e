package enhance

import (
	"fmt"
	"strings"
)

const formattingRule = `Formatting:
- Keep the existing markup (Markdown or HTML) exactly as structured
- Keep headings, lists, tables, links, emphasis and paragraph breaks
- Do not convert between Markdown and HTML`

const mediaRule = `Embedded media:
- The text contains media elements (<img>, <picture>, <figure>, <video>, <audio>, <iframe> or ![alt](src))
- Keep every media element verbatim and at the same position
- Do not describe, translate, remove or reorder them`

const partNote = `IMPORTANT: This document has been split into %d parts due to length.
You are processing part %d of %d.
- The start of this part may repeat the end of the previous part; keep that lead-in unchanged so the parts can be joined
- Do not add an introduction or a conclusion that is not in this part
- Do not mention that the text is split`

// buildInstructions composes the instructions for one call. total is 1 for an
// unsegmented run; part is 1-based.
func buildInstructions(req Request, hasMedia bool, part, total int) string {
	var sections []string
	if !req.OutputLang.IsZero() {
		sections = append(sections, fmt.Sprintf("Respond in %s.", req.OutputLang.DisplayName()))
	}
	sections = append(sections, req.ContentType.Prompt())
	if req.PreserveFormatting {
		sections = append(sections, formattingRule)
	}
	if hasMedia {
		sections = append(sections, mediaRule)
	}
	if total > 1 {
		sections = append(sections, fmt.Sprintf(partNote, total, part, total))
	}
	return strings.Join(sections, "\n\n")
}
