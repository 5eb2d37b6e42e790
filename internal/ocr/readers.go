// Package ocr turns prepared page images into recognized text lines.
package ocr

import (
	"context"
	"errors"
	"sync"

	"golang.org/x/sync/singleflight"
)

// Recognizer reads the text lines of a single PNG-encoded image, top to bottom.
type Recognizer interface {
	Recognize(ctx context.Context, image []byte) ([]string, error)
	Close() error
}

// Factory builds a recognizer for one language code (e.g. "en", "ta").
type Factory func(lang string) (Recognizer, error)

// Readers lazily builds one recognizer per language and keeps it for the life of the cache.
// Model loading is expensive, so concurrent first requests for a language share one build.
type Readers struct {
	factory Factory
	sf      singleflight.Group

	mu      sync.RWMutex
	readers map[string]Recognizer
}

func NewReaders(factory Factory) *Readers {
	return &Readers{
		factory: factory,
		readers: make(map[string]Recognizer),
	}
}

// Get returns the cached recognizer for lang, building it on first use.
func (r *Readers) Get(lang string) (Recognizer, error) {
	r.mu.RLock()
	if reader, ok := r.readers[lang]; ok {
		r.mu.RUnlock()
		return reader, nil
	}
	r.mu.RUnlock()

	result, err, _ := r.sf.Do(lang, func() (interface{}, error) {
		r.mu.RLock()
		if reader, ok := r.readers[lang]; ok {
			r.mu.RUnlock()
			return reader, nil
		}
		r.mu.RUnlock()

		reader, err := r.factory(lang)
		if err != nil {
			return nil, err
		}
		r.mu.Lock()
		r.readers[lang] = reader
		r.mu.Unlock()
		return reader, nil
	})
	if err != nil {
		return nil, err
	}
	return result.(Recognizer), nil
}

// Loaded lists the languages with a built recognizer.
func (r *Readers) Loaded() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	langs := make([]string, 0, len(r.readers))
	for lang := range r.readers {
		langs = append(langs, lang)
	}
	return langs
}

// Close releases every recognizer and empties the cache.
func (r *Readers) Close() error {
	r.mu.Lock()
	defer r.mu.Unlock()
	var errs []error
	for lang, reader := range r.readers {
		if err := reader.Close(); err != nil {
			errs = append(errs, err)
		}
		delete(r.readers, lang)
	}
	return errors.Join(errs...)
}
