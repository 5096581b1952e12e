package source_test

// Notes:
// - Inputs are written to t.TempDir() so every loader runs on real files
// - The PDF fixture is generated with gofpdf, then read back through Load

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/jung-kurt/gofpdf"

	"github.com/alnah/go-enhance/internal/source"
	"github.com/alnah/go-enhance/internal/template"
)

// ---------------------------------------------------------------------------
// Helpers
// ---------------------------------------------------------------------------

func writeFile(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("write %s: %v", name, err)
	}
	return path
}

func writePDF(t *testing.T, pages ...string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "doc.pdf")
	pdf := gofpdf.New("P", "mm", "A4", "")
	pdf.SetFont("Helvetica", "", 12)
	for _, p := range pages {
		pdf.AddPage()
		pdf.MultiCell(0, 6, p, "", "L", false)
	}
	if err := pdf.OutputFileAndClose(path); err != nil {
		t.Fatalf("write pdf: %v", err)
	}
	return path
}

const articleHTML = `<!DOCTYPE html>
<html><head><title>Quarterly Report</title></head>
<body>
<nav><a href="/">Home</a> | <a href="/about">About</a></nav>
<article>
<h1>Quarterly Report</h1>
<p>The committee reviewed the quarterly figures in detail, comparing them with the forecasts made at the start of the year, and found that revenue grew faster than expected.</p>
<p>Costs, however, rose as well, driven by higher energy prices, new hires in the support team, and a one-off investment in the data platform that will pay off next year.</p>
<img src="chart.png" alt="Quarterly chart">
<p>The board asked for a detailed breakdown of the investment, including the expected savings, the migration schedule, and the risks identified by the engineering team.</p>
<p>Next quarter, the company will focus on retention, pricing, and the launch of the new subscription tier, which was delayed twice because of supplier issues.</p>
</article>
<footer>Copyright 2025</footer>
</body></html>`

// ---------------------------------------------------------------------------
// TestFormatFor
// ---------------------------------------------------------------------------

func TestFormatFor(t *testing.T) {
	t.Parallel()

	tests := []struct {
		path    string
		want    source.Format
		wantErr bool
	}{
		{"notes.txt", source.FormatText, false},
		{"README", source.FormatText, false},
		{"post.MD", source.FormatMarkdown, false},
		{"page.htm", source.FormatHTML, false},
		{"page.html", source.FormatHTML, false},
		{"paper.pdf", source.FormatPDF, false},
		{"slides.pptx", "", true},
	}

	for _, tt := range tests {
		t.Run(tt.path, func(t *testing.T) {
			t.Parallel()

			got, err := source.FormatFor(tt.path)
			if (err != nil) != tt.wantErr {
				t.Fatalf("FormatFor(%q) error = %v, wantErr %v", tt.path, err, tt.wantErr)
			}
			if err != nil && !errors.Is(err, source.ErrUnsupportedFormat) {
				t.Errorf("error should wrap ErrUnsupportedFormat: %v", err)
			}
			if got != tt.want {
				t.Errorf("FormatFor(%q) = %q, want %q", tt.path, got, tt.want)
			}
		})
	}
}

// ---------------------------------------------------------------------------
// TestLoad
// ---------------------------------------------------------------------------

func TestLoad_Text(t *testing.T) {
	t.Parallel()

	// Decomposed accents, CRLF line endings and a BOM.
	path := writeFile(t, "summer.txt", "\uFEFFSummer notes\r\nWe spent the e\u0301te\u0301 by the sea.\r\n")
	doc, err := source.Load(context.Background(), path)
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if want := "Summer notes\nWe spent the été by the sea.\n"; doc.Text != want {
		t.Errorf("Text = %q, want %q", doc.Text, want)
	}
	if doc.Title != "Summer notes" || doc.Format != source.FormatText || doc.Path != path {
		t.Errorf("doc = %+v", doc)
	}
	if !doc.ContentType.IsZero() {
		t.Errorf("Load should leave ContentType unset, got %s", doc.ContentType)
	}
}

func TestLoad_Markdown(t *testing.T) {
	t.Parallel()

	path := writeFile(t, "post.md", "Intro line before the heading.\n\n# Release Notes\n\nBody text.\n")
	doc, err := source.Load(context.Background(), path)
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if doc.Title != "Release Notes" || doc.Format != source.FormatMarkdown {
		t.Errorf("Title = %q, Format = %q", doc.Title, doc.Format)
	}
}

func TestLoad_HTML(t *testing.T) {
	t.Parallel()

	path := writeFile(t, "report.html", articleHTML)
	doc, err := source.Load(context.Background(), path)
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if doc.Format != source.FormatHTML {
		t.Errorf("Format = %q", doc.Format)
	}
	if doc.Title != "Quarterly Report" {
		t.Errorf("Title = %q, want %q", doc.Title, "Quarterly Report")
	}
	for _, want := range []string{"<img", "chart.png", "revenue grew faster"} {
		if !strings.Contains(doc.Text, want) {
			t.Errorf("Text missing %q:\n%s", want, doc.Text)
		}
	}
	if strings.Contains(doc.Text, "Copyright 2025") {
		t.Error("boilerplate footer was not removed")
	}
}

func TestLoad_PDF(t *testing.T) {
	t.Parallel()

	path := writePDF(t, "Quarterly figures improved.", "Second page text.")
	doc, err := source.Load(context.Background(), path)
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if doc.Format != source.FormatPDF {
		t.Errorf("Format = %q", doc.Format)
	}
	for _, want := range []string{"Quarterly", "Second"} {
		if !strings.Contains(doc.Text, want) {
			t.Errorf("Text missing %q: %q", want, doc.Text)
		}
	}
}

func TestLoad_Errors(t *testing.T) {
	t.Parallel()

	canceled, cancel := context.WithCancel(context.Background())
	cancel()

	tests := []struct {
		name    string
		ctx     context.Context
		path    func(t *testing.T) string
		wantErr error
	}{
		{"unsupported", context.Background(), func(t *testing.T) string { return writeFile(t, "a.docx", "x") }, source.ErrUnsupportedFormat},
		{"empty", context.Background(), func(t *testing.T) string { return writeFile(t, "a.txt", " \n\t\n") }, source.ErrEmptyDocument},
		{"missing", context.Background(), func(t *testing.T) string { return filepath.Join(t.TempDir(), "nope.txt") }, os.ErrNotExist},
		{"canceled", canceled, func(t *testing.T) string { return writeFile(t, "a.txt", "text") }, context.Canceled},
		{"corrupt pdf", context.Background(), func(t *testing.T) string { return writeFile(t, "a.pdf", "not a pdf") }, nil},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			_, err := source.Load(tt.ctx, tt.path(t))
			if err == nil {
				t.Fatal("Load() succeeded, want error")
			}
			if tt.wantErr != nil && !errors.Is(err, tt.wantErr) {
				t.Errorf("Load() error = %v, want %v", err, tt.wantErr)
			}
		})
	}
}

// ---------------------------------------------------------------------------
// TestClassify
// ---------------------------------------------------------------------------

func TestClassify(t *testing.T) {
	t.Parallel()

	long := strings.Repeat("Writing long paragraphs about ideas and the way they travel between people. ", 40)

	tests := []struct {
		name string
		doc  source.Document
		want template.Name
	}{
		{"explicit type wins", source.Document{Text: "- a\n- b\n- c\n- d\n", ContentType: template.NewsName}, template.NewsName},
		{"code fence", source.Document{Text: "Run this:\n\n```sh\nmake\n```\n"}, template.DocumentationName},
		{"bullets", source.Document{Text: "Groceries\n- milk\n- eggs\n- bread\n- jam\n"}, template.NotesName},
		{"dateline", source.Document{Text: "PARIS (Reuters) - The government announced a new plan on Monday.\n\nMore text."}, template.NewsName},
		{"long prose", source.Document{Text: long}, template.ArticleName},
		{"short prose", source.Document{Text: "Just a short paragraph of text."}, template.GenericName},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			if got := source.Classify(tt.doc); got != tt.want {
				t.Errorf("Classify() = %s, want %s", got, tt.want)
			}
		})
	}
}
