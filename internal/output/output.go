// Package output writes enhanced documents to disk as text, Markdown, HTML
// or PDF, chosen by file extension.
package output

import (
	"bytes"
	"errors"
	"fmt"
	"html"
	"os"
	"path/filepath"
	"strings"
)

// Kind is the rendering used for an output file.
type Kind string

// Output kinds.
const (
	KindText     Kind = "text"
	KindMarkdown Kind = "markdown"
	KindHTML     Kind = "html"
	KindPDF      Kind = "pdf"
)

// KindFor returns the rendering implied by the extension of path.
// Unknown extensions are written as plain text.
func KindFor(path string) Kind {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".md", ".markdown":
		return KindMarkdown
	case ".html", ".htm":
		return KindHTML
	case ".pdf":
		return KindPDF
	default:
		return KindText
	}
}

// Document is what gets written.
type Document struct {
	Title string
	Text  string
}

// DefaultPath derives an output path from an input path: the input name with
// ".enhanced" inserted before the extension, placed in dir (or next to the
// input when dir is empty). PDF inputs produce Markdown.
func DefaultPath(input, dir string) string {
	ext := filepath.Ext(input)
	base := strings.TrimSuffix(filepath.Base(input), ext)
	if strings.EqualFold(ext, ".pdf") || ext == "" {
		ext = ".md"
	}
	if dir == "" {
		dir = filepath.Dir(input)
	}
	return filepath.Join(dir, base+".enhanced"+ext)
}

// Write renders doc for the extension of path and writes it atomically.
func Write(path string, doc Document) error {
	var (
		data []byte
		err  error
	)
	switch KindFor(path) {
	case KindPDF:
		data, err = renderPDF(doc)
	case KindHTML:
		data = renderHTML(doc)
	default:
		data = []byte(ensureTrailingNewline(doc.Text))
	}
	if err != nil {
		return err
	}
	return WriteFileAtomic(path, data)
}

// WriteFileAtomic writes data to path.
// It fails if the file already exists (O_EXCL), and removes the partial file
// when a write fails.
func WriteFileAtomic(path string, data []byte) error {
	if dir := filepath.Dir(path); dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("cannot create output directory: %w", err)
		}
	}
	// #nosec G302 G304 -- user-specified output file with standard permissions
	f, err := os.OpenFile(path, os.O_CREATE|os.O_EXCL|os.O_WRONLY, 0o644)
	if err != nil {
		if errors.Is(err, os.ErrExist) {
			return fmt.Errorf("%s: %w", path, ErrExists)
		}
		return fmt.Errorf("cannot create output file: %w", err)
	}

	writeErr := func() error {
		defer func() { _ = f.Close() }()
		if _, err := f.Write(data); err != nil {
			return fmt.Errorf("failed to write output: %w", err)
		}
		return f.Sync()
	}()
	if writeErr != nil {
		_ = os.Remove(path)
		return writeErr
	}
	return nil
}

func renderHTML(doc Document) []byte {
	if looksLikeHTMLDocument(doc.Text) {
		return []byte(ensureTrailingNewline(doc.Text))
	}
	var b bytes.Buffer
	b.WriteString("<!DOCTYPE html>\n<html>\n<head>\n<meta charset=\"utf-8\">\n")
	fmt.Fprintf(&b, "<title>%s</title>\n", html.EscapeString(doc.Title))
	b.WriteString("</head>\n<body>\n")
	if looksLikeHTML(doc.Text) {
		b.WriteString(strings.TrimSpace(doc.Text))
		b.WriteString("\n")
	} else {
		for _, p := range paragraphs(doc.Text) {
			fmt.Fprintf(&b, "<p>%s</p>\n", html.EscapeString(p))
		}
	}
	b.WriteString("</body>\n</html>\n")
	return b.Bytes()
}

func looksLikeHTMLDocument(s string) bool {
	head := strings.ToLower(strings.TrimSpace(s))
	return strings.HasPrefix(head, "<!doctype html") || strings.HasPrefix(head, "<html")
}

func looksLikeHTML(s string) bool {
	return htmlTag.MatchString(s)
}

func paragraphs(text string) []string {
	var out []string
	for _, p := range strings.Split(strings.ReplaceAll(text, "\r\n", "\n"), "\n\n") {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}

func ensureTrailingNewline(s string) string {
	if strings.HasSuffix(s, "\n") {
		return s
	}
	return s + "\n"
}
