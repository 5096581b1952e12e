package output

import (
	"bytes"
	"fmt"
	"html"
	"regexp"
	"strings"

	"github.com/jung-kurt/gofpdf"
)

var (
	htmlTag   = regexp.MustCompile(`(?i)</?(p|div|span|h[1-6]|img|a|ul|ol|li|figure|section|article|br|em|strong|table)\b[^>]*>`)
	blockTag  = regexp.MustCompile(`(?i)</?(p|div|h[1-6]|li|figure|section|article|br|tr)\b[^>]*>`)
	anyTag    = regexp.MustCompile(`<[^>]*>`)
	manyBlank = regexp.MustCompile(`\n{3,}`)
)

// Page layout in millimetres.
const (
	pdfLineHeight  = 5.5
	pdfTitleHeight = 9
	pdfParaGap     = 3
)

// renderPDF lays out doc on A4 pages with core fonts. Text outside the
// cp1252 range is replaced by the font translator.
func renderPDF(doc Document) ([]byte, error) {
	pdf := gofpdf.New("P", "mm", "A4", "")
	pdf.SetTitle(doc.Title, true)
	pdf.SetCreator("go-enhance", true)
	pdf.SetMargins(20, 20, 20)
	pdf.SetAutoPageBreak(true, 20)
	tr := pdf.UnicodeTranslatorFromDescriptor("")

	pdf.AddPage()
	if doc.Title != "" {
		pdf.SetFont("Helvetica", "B", 16)
		pdf.MultiCell(0, pdfTitleHeight, tr(doc.Title), "", "L", false)
		pdf.Ln(pdfParaGap)
	}

	pdf.SetFont("Helvetica", "", 11)
	for _, p := range paragraphs(plainText(doc.Text)) {
		if h, ok := markdownHeading(p); ok {
			pdf.SetFont("Helvetica", "B", 13)
			pdf.MultiCell(0, pdfLineHeight+1, tr(h), "", "L", false)
			pdf.SetFont("Helvetica", "", 11)
		} else {
			pdf.MultiCell(0, pdfLineHeight, tr(p), "", "L", false)
		}
		pdf.Ln(pdfParaGap)
	}

	var buf bytes.Buffer
	if err := pdf.Output(&buf); err != nil {
		return nil, fmt.Errorf("render pdf: %w", err)
	}
	return buf.Bytes(), nil
}

// plainText turns HTML content into paragraphs of text. Markdown passes through.
func plainText(s string) string {
	if !looksLikeHTML(s) {
		return s
	}
	s = blockTag.ReplaceAllString(s, "\n\n")
	s = anyTag.ReplaceAllString(s, "")
	s = html.UnescapeString(s)
	return manyBlank.ReplaceAllString(s, "\n\n")
}

func markdownHeading(p string) (string, bool) {
	if strings.Contains(p, "\n") || !strings.HasPrefix(p, "#") {
		return "", false
	}
	h := strings.TrimLeft(p, "#")
	if len(h) == len(p) || !strings.HasPrefix(h, " ") {
		return "", false
	}
	return strings.TrimSpace(h), true
}
