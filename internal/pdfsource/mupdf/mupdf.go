// Package mupdf renders PDF pages with MuPDF through go-fitz.
package mupdf

import (
	"context"
	"fmt"
	"image"

	"github.com/gen2brain/go-fitz"
)

// DefaultZoom renders pages at twice the PDF's 72 DPI user space.
const DefaultZoom = 2.0

type Renderer struct {
	zoom float64
}

func New(zoom float64) *Renderer {
	if zoom <= 0 {
		zoom = DefaultZoom
	}
	return &Renderer{zoom: zoom}
}

func (r *Renderer) Render(ctx context.Context, data []byte) ([]image.Image, error) {
	doc, err := fitz.NewFromMemory(data)
	if err != nil {
		return nil, fmt.Errorf("open pdf: %w", err)
	}
	defer doc.Close()

	pages := make([]image.Image, 0, doc.NumPage())
	for i := 0; i < doc.NumPage(); i++ {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		img, err := doc.ImageDPI(i, 72*r.zoom)
		if err != nil {
			return nil, fmt.Errorf("render page %d: %w", i+1, err)
		}
		pages = append(pages, img)
	}
	return pages, nil
}
