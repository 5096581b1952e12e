package source

import (
	"regexp"
	"strings"

	"github.com/alnah/go-enhance/internal/template"
)

var (
	codeFence  = regexp.MustCompile("(?m)^\\s*(```|~~~)")
	htmlCode   = regexp.MustCompile(`(?i)<(pre|code)\b`)
	docWords   = regexp.MustCompile(`(?i)\b(install(ation)?|usage|configur(e|ation)|parameters?|returns?|example|api|command)\b`)
	dateline   = regexp.MustCompile(`^[A-Z][A-Za-z .'-]{1,40}(, [A-Z][A-Za-z .'-]{1,40})?\s*(\([A-Za-z .]+\))?\s*[-–—]\s`)
	newsWords  = regexp.MustCompile(`(?i)\b(said|according to|reported|told reporters|spokes(man|woman|person))\b`)
	bulletLine = regexp.MustCompile(`^\s*([-*+•]|\d+[.)])\s+`)
)

// Classify picks a content type for doc. An explicit ContentType wins.
func Classify(doc Document) template.Name {
	if !doc.ContentType.IsZero() {
		return doc.ContentType
	}
	text := doc.Text

	var bullets, nonEmpty int
	for line := range strings.Lines(text) {
		if strings.TrimSpace(line) == "" {
			continue
		}
		nonEmpty++
		if bulletLine.MatchString(line) {
			bullets++
		}
	}

	switch {
	case codeFence.MatchString(text) || htmlCode.MatchString(text) ||
		len(docWords.FindAllStringIndex(text, 20)) >= 8:
		return template.DocumentationName
	case nonEmpty >= 4 && bullets*5 >= nonEmpty*2:
		return template.NotesName
	case dateline.MatchString(firstParagraph(text)) || len(newsWords.FindAllStringIndex(text, 10)) >= 4:
		return template.NewsName
	case len(text) >= 2000:
		return template.ArticleName
	default:
		return template.GenericName
	}
}

func firstParagraph(text string) string {
	text = strings.TrimSpace(text)
	if i := strings.Index(text, "\n\n"); i >= 0 {
		return text[:i]
	}
	return text
}
