// Package pdfsource turns uploaded PDFs into page images or page text.
package pdfsource

import (
	"bytes"
	"context"
	"fmt"
	"image"
	"strings"

	"github.com/ledongthuc/pdf"
)

// Renderer rasterizes every page of a PDF in page order.
type Renderer interface {
	Render(ctx context.Context, data []byte) ([]image.Image, error)
}

// TextLayer reads the text embedded in a PDF instead of running OCR on it.
type TextLayer struct{}

// Pages returns the non-blank lines of each page. Pages without extractable text
// yield a nil entry so page numbers stay aligned with the rendered images.
func (TextLayer) Pages(data []byte) ([][]string, error) {
	r, err := pdf.NewReader(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return nil, fmt.Errorf("failed to open PDF: %w", err)
	}

	total := r.NumPage()
	pages := make([][]string, total)
	for i := 1; i <= total; i++ {
		page := r.Page(i)
		if page.V.IsNull() {
			continue
		}
		text, err := page.GetPlainText(nil)
		if err != nil {
			continue
		}
		pages[i-1] = CleanLines(text)
	}
	return pages, nil
}

// HasText reports whether at least one page carries text.
func HasText(pages [][]string) bool {
	for _, p := range pages {
		if len(p) > 0 {
			return true
		}
	}
	return false
}

// CleanLines splits text into trimmed, non-empty lines.
func CleanLines(text string) []string {
	var lines []string
	for _, line := range strings.Split(text, "\n") {
		if line = strings.TrimSpace(line); line != "" {
			lines = append(lines, line)
		}
	}
	return lines
}
