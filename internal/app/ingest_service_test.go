package app_test

import (
	"bytes"
	"context"
	"errors"
	"image"
	"image/png"
	"os"
	"reflect"
	"strings"
	"sync"
	"testing"
	"time"

	"exam-grader/internal/app"
	"exam-grader/internal/domain"
	"exam-grader/internal/ocr"
)

func TestOCRJoinsLinesInUploadOrder(t *testing.T) {
	readers := &fakeReaders{lines: map[int][]string{
		10: {"The mitochondria", "  ", "is the powerhouse\t"},
		20: {"ｐｈｏｔｏsynthesis"},
	}}
	observer := &recordingRecognition{}
	service := app.NewIngestService(readers, &fakeRenderer{}, app.IngestConfig{Languages: []string{"en", "ta"}}, nil, observer)

	result, err := service.OCR(context.Background(), "en", []app.Upload{
		{Filename: "q1.png", Data: pngOfWidth(t, 10)},
		{Filename: "q2.png", Data: pngOfWidth(t, 20)},
	})
	if err != nil {
		t.Fatalf("ocr failed: %v", err)
	}
	if len(result.PerImage) != 2 || result.PerImage[0].Source != "q1.png" || result.PerImage[1].Source != "q2.png" {
		t.Fatalf("unexpected per-image results: %+v", result.PerImage)
	}
	want := "The mitochondria\nis the powerhouse\nphotosynthesis"
	if result.Text != want {
		t.Fatalf("expected joined text %q, got %q", want, result.Text)
	}
	if readers.requested[0] != "en" {
		t.Fatalf("expected english reader, got %v", readers.requested)
	}
	if observer.count() != 2 {
		t.Fatalf("expected 2 recognitions observed, got %d", observer.count())
	}
}

func TestOCRLanguageDefaults(t *testing.T) {
	readers := &fakeReaders{}
	service := app.NewIngestService(readers, &fakeRenderer{}, app.IngestConfig{Languages: []string{"en", "ta"}}, nil, nil)

	cases := map[string]string{"": "ta", "ta": "ta", "TA": "ta", "en": "en", "fr": "en"}
	for in, want := range cases {
		if got := service.ResolveLanguage(in); got != want {
			t.Fatalf("ResolveLanguage(%q) = %q, want %q", in, got, want)
		}
	}
}

func TestOCRRendersPDFPages(t *testing.T) {
	readers := &fakeReaders{lines: map[int][]string{30: {"page one"}, 40: {"page two"}}}
	renderer := &fakeRenderer{pages: []image.Image{
		image.NewGray(image.Rect(0, 0, 30, 10)),
		image.NewGray(image.Rect(0, 0, 40, 10)),
	}}
	service := app.NewIngestService(readers, renderer, app.IngestConfig{}, nil, nil)

	result, err := service.OCR(context.Background(), "ta", []app.Upload{
		{Filename: "answers.pdf", ContentType: "application/pdf", Data: []byte("%PDF-1.4")},
	})
	if err != nil {
		t.Fatalf("ocr failed: %v", err)
	}
	if len(result.PerImage) != 2 {
		t.Fatalf("expected one entry per page, got %+v", result.PerImage)
	}
	if result.PerImage[0].Source != "answers.pdf[page:0]" || result.PerImage[1].Source != "answers.pdf[page:1]" {
		t.Fatalf("unexpected page sources: %+v", result.PerImage)
	}
	if result.Text != "page one\npage two" {
		t.Fatalf("unexpected text %q", result.Text)
	}
}

func TestOCRUsesPDFTextLayer(t *testing.T) {
	data, err := os.ReadFile("testdata/answers_text.pdf")
	if err != nil {
		t.Fatalf("read fixture: %v", err)
	}
	readers := &fakeReaders{}
	renderer := &fakeRenderer{}
	service := app.NewIngestService(readers, renderer, app.IngestConfig{UseTextLayer: true}, nil, nil)

	result, err := service.OCR(context.Background(), "en", []app.Upload{
		{Filename: "answers.pdf", ContentType: "application/pdf", Data: data},
	})
	if err != nil {
		t.Fatalf("ocr failed: %v", err)
	}
	if len(readers.requested) != 0 || renderer.calls != 0 {
		t.Fatalf("expected text layer to skip recognition, readers=%v renders=%d", readers.requested, renderer.calls)
	}
	want := []domain.ImageText{
		{Source: "answers.pdf[page:0]", Lines: []string{"Water boils at 100 degrees"}},
		{Source: "answers.pdf[page:1]", Lines: []string{"Plants make food by photosynthesis"}},
	}
	if !reflect.DeepEqual(result.PerImage, want) {
		t.Fatalf("expected %+v, got %+v", want, result.PerImage)
	}
	if result.Text != "Water boils at 100 degrees\nPlants make food by photosynthesis" {
		t.Fatalf("unexpected text %q", result.Text)
	}
}

func TestOCRFallsBackToRenderingWithoutTextLayer(t *testing.T) {
	data, err := os.ReadFile("testdata/answers_scanned.pdf")
	if err != nil {
		t.Fatalf("read fixture: %v", err)
	}
	readers := &fakeReaders{lines: map[int][]string{30: {"handwritten answer"}}}
	renderer := &fakeRenderer{pages: []image.Image{image.NewGray(image.Rect(0, 0, 30, 10))}}
	service := app.NewIngestService(readers, renderer, app.IngestConfig{UseTextLayer: true}, nil, nil)

	result, err := service.OCR(context.Background(), "en", []app.Upload{
		{Filename: "scan.pdf", Data: data},
	})
	if err != nil {
		t.Fatalf("ocr failed: %v", err)
	}
	if renderer.calls != 1 || len(readers.requested) != 1 {
		t.Fatalf("expected one render and one reader, got renders=%d readers=%v", renderer.calls, readers.requested)
	}
	if len(result.PerImage) != 1 || result.PerImage[0].Source != "scan.pdf[page:0]" || result.Text != "handwritten answer" {
		t.Fatalf("unexpected result %+v", result)
	}
}

func TestOCRErrors(t *testing.T) {
	ctx := context.Background()
	service := app.NewIngestService(&fakeReaders{}, &fakeRenderer{err: errors.New("broken xref")}, app.IngestConfig{}, nil, nil)

	if _, err := service.OCR(ctx, "en", nil); !errors.Is(err, domain.ErrNoImages) {
		t.Fatalf("expected no images error, got %v", err)
	}
	if _, err := service.OCR(ctx, "en", []app.Upload{{Filename: "x.png", Data: []byte("nope")}}); !errors.Is(err, domain.ErrUnreadableImage) {
		t.Fatalf("expected unreadable image, got %v", err)
	}
	if _, err := service.OCR(ctx, "en", []app.Upload{{Filename: "x.pdf", Data: []byte("nope")}}); !errors.Is(err, domain.ErrUnreadablePDF) {
		t.Fatalf("expected unreadable pdf, got %v", err)
	}

	failing := app.NewIngestService(&fakeReaders{err: errors.New("engine crashed")}, &fakeRenderer{}, app.IngestConfig{}, nil, nil)
	_, err := failing.OCR(ctx, "en", []app.Upload{{Filename: "x.png", Data: pngOfWidth(t, 5)}})
	if !errors.Is(err, domain.ErrRecognitionFailed) {
		t.Fatalf("expected recognition failure, got %v", err)
	}
}

func TestExtractPagesReturnsDataURLs(t *testing.T) {
	renderer := &fakeRenderer{pages: []image.Image{
		image.NewGray(image.Rect(0, 0, 4, 4)),
		image.NewGray(image.Rect(0, 0, 4, 4)),
	}}
	service := app.NewIngestService(&fakeReaders{}, renderer, app.IngestConfig{}, nil, nil)

	pages, err := service.ExtractPages(context.Background(), []byte("%PDF-1.4"))
	if err != nil {
		t.Fatalf("extract pages: %v", err)
	}
	if len(pages) != 2 || pages[1].Page != 1 {
		t.Fatalf("unexpected pages %+v", pages)
	}
	if !strings.HasPrefix(pages[0].ImageBase64, "data:image/png;base64,") {
		t.Fatalf("expected png data url, got %q", pages[0].ImageBase64[:30])
	}

	if _, err := service.ExtractPages(context.Background(), nil); !errors.Is(err, domain.ErrNoPDF) {
		t.Fatalf("expected no pdf error, got %v", err)
	}
}

func TestUploadIsPDF(t *testing.T) {
	cases := []struct {
		upload app.Upload
		want   bool
	}{
		{app.Upload{Filename: "scan.PDF"}, true},
		{app.Upload{ContentType: "application/pdf"}, true},
		{app.Upload{Filename: "blob", Data: []byte("%PDF-1.7\n")}, true},
		{app.Upload{Filename: "scan.png", ContentType: "image/png"}, false},
	}
	for _, c := range cases {
		if got := c.upload.IsPDF(); got != c.want {
			t.Fatalf("IsPDF(%+v) = %v, want %v", c.upload, got, c.want)
		}
	}
}

// fakeReaders returns a recognizer that answers by image width, so tests can
// tell uploads apart without a real OCR engine.
type fakeReaders struct {
	lines map[int][]string
	err   error

	mu        sync.Mutex
	requested []string
}

func (f *fakeReaders) Get(lang string) (ocr.Recognizer, error) {
	f.mu.Lock()
	f.requested = append(f.requested, lang)
	f.mu.Unlock()
	return &fakeRecognizer{lines: f.lines, err: f.err}, nil
}

type fakeRecognizer struct {
	lines map[int][]string
	err   error
}

func (r *fakeRecognizer) Recognize(_ context.Context, data []byte) ([]string, error) {
	if r.err != nil {
		return nil, r.err
	}
	img, err := png.Decode(bytes.NewReader(data))
	if err != nil {
		return nil, err
	}
	return r.lines[img.Bounds().Dx()], nil
}

func (r *fakeRecognizer) Close() error { return nil }

type fakeRenderer struct {
	pages []image.Image
	err   error
	calls int
}

func (r *fakeRenderer) Render(context.Context, []byte) ([]image.Image, error) {
	r.calls++
	return r.pages, r.err
}

type recordingRecognition struct {
	mu sync.Mutex
	n  int
}

func (o *recordingRecognition) ObserveRecognition(string, time.Duration) {
	o.mu.Lock()
	o.n++
	o.mu.Unlock()
}

func (o *recordingRecognition) count() int {
	o.mu.Lock()
	defer o.mu.Unlock()
	return o.n
}

func pngOfWidth(t *testing.T, width int) []byte {
	t.Helper()
	var buf bytes.Buffer
	if err := png.Encode(&buf, image.NewRGBA(image.Rect(0, 0, width, 8))); err != nil {
		t.Fatalf("encode png: %v", err)
	}
	return buf.Bytes()
}
