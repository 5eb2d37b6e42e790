package app

import (
	"bytes"
	"context"
	"encoding/base64"
	"errors"
	"fmt"
	"path/filepath"
	"strings"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"exam-grader/internal/domain"
	"exam-grader/internal/imaging"
	"exam-grader/internal/ocr"
	"exam-grader/internal/pdfsource"
)

// Upload is one file received by the OCR endpoint.
type Upload struct {
	Filename    string
	ContentType string
	Data        []byte
}

// IsPDF follows the content type first and falls back to the extension and magic bytes.
func (u Upload) IsPDF() bool {
	if strings.Contains(strings.ToLower(u.ContentType), "pdf") {
		return true
	}
	if strings.EqualFold(filepath.Ext(u.Filename), ".pdf") {
		return true
	}
	return bytes.HasPrefix(u.Data, []byte("%PDF-"))
}

// RecognizerSource hands out a recognizer per language (ocr.Readers in production).
type RecognizerSource interface {
	Get(lang string) (ocr.Recognizer, error)
}

// RecognitionObserver is notified after every recognized image or page.
type RecognitionObserver interface {
	ObserveRecognition(lang string, d time.Duration)
}

// IngestConfig carries the OCR settings from config.OCR.
type IngestConfig struct {
	DefaultLanguage   string
	Languages         []string // supported codes; anything else falls back to FallbackLanguage
	MaxImageDimension int
	UseTextLayer      bool
	Concurrency       int
}

// FallbackLanguage is used for unsupported language codes.
const FallbackLanguage = "en"

// IngestService turns uploaded scans and PDFs into student text.
type IngestService struct {
	readers   RecognizerSource
	renderer  pdfsource.Renderer
	textLayer pdfsource.TextLayer
	cfg       IngestConfig
	logger    *zap.Logger
	observer  RecognitionObserver
}

func NewIngestService(readers RecognizerSource, renderer pdfsource.Renderer, cfg IngestConfig, logger *zap.Logger, observer RecognitionObserver) *IngestService {
	if cfg.DefaultLanguage == "" {
		cfg.DefaultLanguage = "ta"
	}
	if cfg.MaxImageDimension <= 0 {
		cfg.MaxImageDimension = imaging.DefaultMaxDimension
	}
	if cfg.Concurrency <= 0 {
		cfg.Concurrency = 4
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &IngestService{
		readers:  readers,
		renderer: renderer,
		cfg:      cfg,
		logger:   logger,
		observer: observer,
	}
}

// ResolveLanguage applies the default for an empty code and the fallback for unsupported ones.
func (s *IngestService) ResolveLanguage(lang string) string {
	lang = strings.ToLower(strings.TrimSpace(lang))
	if lang == "" {
		return s.cfg.DefaultLanguage
	}
	for _, supported := range s.cfg.Languages {
		if lang == supported {
			return lang
		}
	}
	return FallbackLanguage
}

type pageTask struct {
	source string
	image  []byte // prepared PNG, nil when lines came from the text layer
	lines  []string
}

// OCR recognizes every upload in order. PDFs contribute one entry per page.
func (s *IngestService) OCR(ctx context.Context, lang string, files []Upload) (domain.OCRResult, error) {
	if len(files) == 0 {
		return domain.OCRResult{}, domain.ErrNoImages
	}
	lang = s.ResolveLanguage(lang)

	var tasks []pageTask
	for _, f := range files {
		t, err := s.prepare(ctx, f)
		if err != nil {
			return domain.OCRResult{}, err
		}
		tasks = append(tasks, t...)
	}

	if needsRecognition(tasks) {
		reader, err := s.readers.Get(lang)
		if err != nil {
			return domain.OCRResult{}, fmt.Errorf("%w: load %s reader: %v", domain.ErrRecognitionFailed, lang, err)
		}
		if err := s.recognize(ctx, reader, lang, tasks); err != nil {
			return domain.OCRResult{}, err
		}
	}

	result := domain.OCRResult{PerImage: make([]domain.ImageText, 0, len(tasks))}
	var all []string
	for _, t := range tasks {
		lines := ocr.NormalizeLines(t.lines)
		result.PerImage = append(result.PerImage, domain.ImageText{Source: t.source, Lines: lines})
		all = append(all, lines...)
	}
	result.Text = strings.Join(all, "\n")

	s.logger.Info("ocr completed",
		zap.String("lang", lang),
		zap.Int("files", len(files)),
		zap.Int("pages", len(tasks)),
		zap.Int("lines", len(all)),
	)
	return result, nil
}

func (s *IngestService) prepare(ctx context.Context, f Upload) ([]pageTask, error) {
	if !f.IsPDF() {
		png, err := imaging.Prepare(f.Data, s.cfg.MaxImageDimension)
		if err != nil {
			return nil, fmt.Errorf("%w: %s: %v", domain.ErrUnreadableImage, f.Filename, err)
		}
		return []pageTask{{source: f.Filename, image: png}}, nil
	}

	if s.cfg.UseTextLayer {
		pages, err := s.textLayer.Pages(f.Data)
		if err == nil && pdfsource.HasText(pages) {
			tasks := make([]pageTask, len(pages))
			for i, lines := range pages {
				tasks[i] = pageTask{source: pageSource(f.Filename, i), lines: lines}
			}
			return tasks, nil
		}
		if err != nil {
			s.logger.Debug("pdf text layer unavailable", zap.String("file", f.Filename), zap.Error(err))
		}
	}

	images, err := s.renderer.Render(ctx, f.Data)
	if err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return nil, ctxErr
		}
		return nil, fmt.Errorf("%w: %s: %v", domain.ErrUnreadablePDF, f.Filename, err)
	}
	tasks := make([]pageTask, len(images))
	for i, img := range images {
		png, err := imaging.PrepareImage(img, s.cfg.MaxImageDimension)
		if err != nil {
			return nil, fmt.Errorf("prepare %s: %w", pageSource(f.Filename, i), err)
		}
		tasks[i] = pageTask{source: pageSource(f.Filename, i), image: png}
	}
	return tasks, nil
}

func (s *IngestService) recognize(ctx context.Context, reader ocr.Recognizer, lang string, tasks []pageTask) error {
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(s.cfg.Concurrency)
	for i := range tasks {
		if tasks[i].image == nil {
			continue
		}
		g.Go(func() error {
			start := time.Now()
			lines, err := reader.Recognize(gctx, tasks[i].image)
			if err != nil {
				if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
					return err
				}
				return fmt.Errorf("%w: %s: %v", domain.ErrRecognitionFailed, tasks[i].source, err)
			}
			if s.observer != nil {
				s.observer.ObserveRecognition(lang, time.Since(start))
			}
			tasks[i].lines = lines
			return nil
		})
	}
	return g.Wait()
}

// ExtractPages renders each PDF page to a PNG data URL. Pages are numbered from 0.
func (s *IngestService) ExtractPages(ctx context.Context, pdf []byte) ([]domain.PageImage, error) {
	if len(pdf) == 0 {
		return nil, domain.ErrNoPDF
	}
	images, err := s.renderer.Render(ctx, pdf)
	if err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return nil, ctxErr
		}
		return nil, fmt.Errorf("%w: %v", domain.ErrUnreadablePDF, err)
	}
	pages := make([]domain.PageImage, len(images))
	for i, img := range images {
		png, err := imaging.EncodePNG(img)
		if err != nil {
			return nil, fmt.Errorf("encode page %d: %w", i, err)
		}
		pages[i] = domain.PageImage{
			Page:        i,
			ImageBase64: "data:image/png;base64," + base64.StdEncoding.EncodeToString(png),
		}
	}
	return pages, nil
}

func needsRecognition(tasks []pageTask) bool {
	for _, t := range tasks {
		if t.image != nil {
			return true
		}
	}
	return false
}

func pageSource(filename string, page int) string {
	return fmt.Sprintf("%s[page:%d]", filename, page)
}
