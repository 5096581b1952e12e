// Package template holds the enhancement instructions for each content type.
package template

import (
	"fmt"
	"strings"
)

// Content type constants.
const (
	Article       = "article"
	Documentation = "documentation"
	News          = "news"
	Notes         = "notes"
	Generic       = "generic"
)

// ---------------------------------------------------------------------------
// Name type - a validated content type
// ---------------------------------------------------------------------------

// Name is a validated content type.
// The zero value means "not chosen"; Prompt falls back to Generic for it.
type Name struct {
	name string
}

// Pre-parsed names.
var (
	ArticleName       = Name{name: Article}
	DocumentationName = Name{name: Documentation}
	NewsName          = Name{name: News}
	NotesName         = Name{name: Notes}
	GenericName       = Name{name: Generic}
)

// ParseName validates a content type. Matching is case-insensitive.
func ParseName(s string) (Name, error) {
	name := strings.ToLower(strings.TrimSpace(s))
	if name == "" {
		return Name{}, fmt.Errorf("content type cannot be empty: %w", ErrUnknown)
	}
	if _, ok := prompts[name]; !ok {
		return Name{}, fmt.Errorf("unknown content type %q (use %s): %w",
			s, strings.Join(order, ", "), ErrUnknown)
	}
	return Name{name: name}, nil
}

// MustParseName parses a content type, panicking if invalid.
// Use only for constants and tests.
func MustParseName(s string) Name {
	n, err := ParseName(s)
	if err != nil {
		panic(err)
	}
	return n
}

// String returns the content type, or "" for the zero value.
func (n Name) String() string {
	return n.name
}

// IsZero reports whether no content type is set.
func (n Name) IsZero() bool {
	return n.name == ""
}

// OrDefault returns n, or GenericName when n is zero.
func (n Name) OrDefault() Name {
	if n.IsZero() {
		return GenericName
	}
	return n
}

// Prompt returns the instructions for n.
func (n Name) Prompt() string {
	return prompts[n.OrDefault().name]
}

// Names returns the content types in display order.
func Names() []string {
	return append([]string(nil), order...)
}

var order = []string{Article, Documentation, News, Notes, Generic}

// prompts are versioned with the binary; changing one requires a rebuild.
var prompts = map[string]string{
	Article:       articlePrompt,
	Documentation: documentationPrompt,
	News:          newsPrompt,
	Notes:         notesPrompt,
	Generic:       genericPrompt,
}

// Prompts are written in English. A "Respond in {language}" line is added by
// the caller when an output language is chosen.

const articlePrompt = `You improve a long-form article for clarity and readability while keeping the author's voice.

Rules:
- Keep every argument, fact, figure and quotation
- Fix spelling, grammar and punctuation
- Split run-on sentences and tighten wordy passages
- Keep the paragraph order; improve transitions between paragraphs
- Keep existing headings; add none unless a section obviously lacks one
- Do not summarize, do not add opinions, do not invent anything
- Output only the improved text, without commentary`

const documentationPrompt = `You improve technical documentation for accuracy of language and ease of use.

Rules:
- Keep every instruction, parameter, value and warning exactly as stated
- Never change code blocks, commands, identifiers, paths or URLs
- Fix spelling and grammar; prefer short imperative sentences for steps
- Keep heading structure and list numbering
- Make ambiguous pronouns explicit when the referent is clear from context
- Do not invent features, defaults or limitations
- Output only the improved text, without commentary`

const newsPrompt = `You copy-edit a news story.

Rules:
- Keep every name, date, number, place and attribution unchanged
- Keep direct quotations verbatim
- Fix spelling, grammar and punctuation
- Prefer active voice and short paragraphs
- Keep the original order of information
- Do not add context, analysis or opinion
- Output only the edited story, without commentary`

const notesPrompt = `You turn rough notes into clean, well-organized notes.

Rules:
- Keep every distinct idea, fact and action item
- Group related points under short headings when the notes cover several topics
- One bullet = one idea; use sub-bullets for details
- Complete fragments into readable phrases without changing their meaning
- Fix spelling and grammar
- Do not invent content
- Output only the notes, without commentary`

const genericPrompt = `You improve the following text for clarity, correctness and readability.

Rules:
- Keep all information and the original meaning
- Fix spelling, grammar and punctuation
- Improve sentence flow without changing the structure of the text
- Do not summarize, do not invent anything
- Output only the improved text, without commentary`
