package ocr

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
)

type stubRecognizer struct {
	lang   string
	closed bool
}

func (s *stubRecognizer) Recognize(context.Context, []byte) ([]string, error) {
	return []string{s.lang}, nil
}

func (s *stubRecognizer) Close() error {
	s.closed = true
	return nil
}

func TestReadersBuildOncePerLanguage(t *testing.T) {
	var builds atomic.Int32
	readers := NewReaders(func(lang string) (Recognizer, error) {
		builds.Add(1)
		return &stubRecognizer{lang: lang}, nil
	})

	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if _, err := readers.Get("ta"); err != nil {
				t.Errorf("get: %v", err)
			}
		}()
	}
	wg.Wait()

	if _, err := readers.Get("en"); err != nil {
		t.Fatalf("get en: %v", err)
	}
	if got := builds.Load(); got != 2 {
		t.Fatalf("expected one build per language, got %d", got)
	}
	if got := len(readers.Loaded()); got != 2 {
		t.Fatalf("expected 2 loaded languages, got %d", got)
	}
}

func TestReadersDoNotCacheFailures(t *testing.T) {
	fail := true
	readers := NewReaders(func(lang string) (Recognizer, error) {
		if fail {
			return nil, errors.New("model missing")
		}
		return &stubRecognizer{lang: lang}, nil
	})

	if _, err := readers.Get("ta"); err == nil {
		t.Fatalf("expected factory error")
	}
	fail = false
	if _, err := readers.Get("ta"); err != nil {
		t.Fatalf("expected retry to succeed, got %v", err)
	}
}

func TestReadersClose(t *testing.T) {
	stub := &stubRecognizer{lang: "en"}
	readers := NewReaders(func(string) (Recognizer, error) { return stub, nil })
	if _, err := readers.Get("en"); err != nil {
		t.Fatalf("get: %v", err)
	}
	if err := readers.Close(); err != nil {
		t.Fatalf("close: %v", err)
	}
	if !stub.closed || len(readers.Loaded()) != 0 {
		t.Fatalf("expected recognizer closed and cache emptied")
	}
}
