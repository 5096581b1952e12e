package source

import (
	"bytes"
	"fmt"
	"net/url"
	"path/filepath"
	"strings"

	readability "github.com/go-shiori/go-readability"
)

// extractHTML returns the readable article of an HTML page. The content keeps
// its markup so embedded media survive.
func extractHTML(data []byte, path string) (title, content string, err error) {
	abs, err := filepath.Abs(path)
	if err != nil {
		abs = path
	}
	base := &url.URL{Scheme: "file", Path: filepath.ToSlash(abs)}

	article, err := readability.FromReader(bytes.NewReader(data), base)
	if err != nil {
		return "", "", fmt.Errorf("extract article: %w", err)
	}
	content = strings.TrimSpace(article.Content)
	if content == "" {
		content = strings.TrimSpace(article.TextContent)
	}
	return strings.TrimSpace(article.Title), content, nil
}
