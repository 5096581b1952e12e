// Package source loads documents from disk into plain or marked-up text.
//
// Plain text and Markdown are read as is, HTML goes through a readability
// extractor that keeps the article markup (images included), and PDF text is
// extracted page by page. All text is NFC-normalized.
package source

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"golang.org/x/text/unicode/norm"

	"github.com/alnah/go-enhance/internal/template"
)

// MaxInputSize bounds the size of an input file.
const MaxInputSize = 20 << 20 // 20 MiB

// Format is the markup of a loaded document.
type Format string

// Supported formats.
const (
	FormatText     Format = "text"
	FormatMarkdown Format = "markdown"
	FormatHTML     Format = "html"
	FormatPDF      Format = "pdf"
)

// Document is a loaded input.
type Document struct {
	Path  string
	Title string
	Text  string
	// ContentType is left zero by Load; see Classify.
	ContentType template.Name
	Format      Format
}

// FormatFor returns the format implied by a file extension.
func FormatFor(path string) (Format, error) {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".txt", ".text", "":
		return FormatText, nil
	case ".md", ".markdown":
		return FormatMarkdown, nil
	case ".html", ".htm", ".xhtml":
		return FormatHTML, nil
	case ".pdf":
		return FormatPDF, nil
	default:
		return "", fmt.Errorf("%s: %w", filepath.Ext(path), ErrUnsupportedFormat)
	}
}

// Load reads the document at path.
func Load(ctx context.Context, path string) (Document, error) {
	if err := ctx.Err(); err != nil {
		return Document{}, err
	}
	format, err := FormatFor(path)
	if err != nil {
		return Document{}, err
	}

	info, err := os.Stat(path)
	if err != nil {
		return Document{}, fmt.Errorf("stat input: %w", err)
	}
	if info.Size() > MaxInputSize {
		return Document{}, fmt.Errorf("%s is %d bytes (limit %d): %w", path, info.Size(), MaxInputSize, ErrTooLarge)
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return Document{}, fmt.Errorf("read input: %w", err)
	}

	doc := Document{Path: path, Format: format}
	switch format {
	case FormatHTML:
		doc.Title, doc.Text, err = extractHTML(data, path)
	case FormatPDF:
		doc.Text, err = extractPDF(ctx, data)
	default:
		doc.Text = string(data)
	}
	if err != nil {
		return Document{}, err
	}

	doc.Text = normalize(doc.Text)
	if strings.TrimSpace(doc.Text) == "" {
		return Document{}, fmt.Errorf("%s: %w", path, ErrEmptyDocument)
	}
	if doc.Title == "" {
		doc.Title = guessTitle(doc.Text, format)
	}
	if doc.Title == "" {
		doc.Title = strings.TrimSuffix(filepath.Base(path), filepath.Ext(path))
	}
	return doc, nil
}

// normalize applies NFC, drops a leading BOM and unifies line endings.
func normalize(s string) string {
	s = strings.TrimPrefix(s, "\uFEFF")
	s = strings.ReplaceAll(s, "\r\n", "\n")
	return norm.NFC.String(s)
}

// guessTitle picks the first Markdown H1, or the first short line of text.
func guessTitle(text string, format Format) string {
	for line := range strings.Lines(text) {
		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}
		if format == FormatMarkdown {
			if h, ok := strings.CutPrefix(line, "# "); ok {
				return strings.TrimSpace(h)
			}
			continue
		}
		if len(line) <= 120 && !strings.HasPrefix(line, "<") {
			return line
		}
		return ""
	}
	return ""
}
