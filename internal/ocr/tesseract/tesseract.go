// Package tesseract recognizes text with the Tesseract engine through gosseract.
package tesseract

import (
	"context"
	"fmt"
	"strings"
	"sync"

	"github.com/otiai10/gosseract/v2"

	"exam-grader/internal/ocr"
)

// Recognizer wraps one gosseract client loaded with a fixed language model.
// The client is not safe for concurrent use, so calls are serialized.
type Recognizer struct {
	mu     sync.Mutex
	client *gosseract.Client
}

// NewFactory maps service language codes ("en", "ta") to Tesseract model names
// ("eng", "tam"). Codes missing from the map are passed through unchanged.
func NewFactory(models map[string]string) ocr.Factory {
	return func(lang string) (ocr.Recognizer, error) {
		model := lang
		if m, ok := models[lang]; ok {
			model = m
		}
		return New(model)
	}
}

// New loads the given Tesseract models.
func New(models ...string) (*Recognizer, error) {
	client := gosseract.NewClient()
	if len(models) > 0 {
		if err := client.SetLanguage(models...); err != nil {
			client.Close()
			return nil, fmt.Errorf("set languages %v: %w", models, err)
		}
	}
	return &Recognizer{client: client}, nil
}

// Recognize returns the non-blank text lines found in a PNG/JPEG image.
func (r *Recognizer) Recognize(ctx context.Context, image []byte) ([]string, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if err := r.client.SetImageFromBytes(image); err != nil {
		return nil, fmt.Errorf("set image: %w", err)
	}
	text, err := r.client.Text()
	if err != nil {
		return nil, fmt.Errorf("recognize text: %w", err)
	}

	var lines []string
	for _, line := range strings.Split(text, "\n") {
		if line = strings.TrimSpace(line); line != "" {
			lines = append(lines, line)
		}
	}
	return lines, nil
}

func (r *Recognizer) Close() error {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.client.Close()
}
