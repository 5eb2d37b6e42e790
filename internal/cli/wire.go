package cli

import (
	"context"
	"fmt"
	"sort"
	"time"

	"github.com/jackc/pgx/v4/pgxpool"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"exam-grader/internal/app"
	"exam-grader/internal/config"
	"exam-grader/internal/grading"
	"exam-grader/internal/infra/memory"
	pgstore "exam-grader/internal/infra/postgres"
	redisstore "exam-grader/internal/infra/redis"
	"exam-grader/internal/logging"
	"exam-grader/internal/ocr"
	"exam-grader/internal/ocr/tesseract"
	"exam-grader/internal/pdfsource/mupdf"
)

func loadConfig(path string) (config.Config, *zap.Logger, error) {
	cfg, err := config.Load(path)
	if err != nil {
		return config.Config{}, nil, fmt.Errorf("load config %s: %w", path, err)
	}
	logger, err := logging.New(logging.Options{Level: cfg.Log.Level, File: cfg.Log.File})
	if err != nil {
		return config.Config{}, nil, fmt.Errorf("build logger: %w", err)
	}
	return cfg, logger, nil
}

// backends holds the optional Redis and Postgres connections.
type backends struct {
	redis *redis.Client
	pool  *pgxpool.Pool
}

func connectBackends(ctx context.Context, cfg config.Config) (*backends, error) {
	b := &backends{}
	if cfg.Redis.Addr != "" {
		b.redis = redis.NewClient(&redis.Options{
			Addr:     cfg.Redis.Addr,
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
		})
	}
	if cfg.Postgres.URL != "" {
		pool, err := pgxpool.Connect(ctx, cfg.Postgres.URL)
		if err != nil {
			b.close()
			return nil, fmt.Errorf("connect postgres: %w", err)
		}
		b.pool = pool
	}
	return b, nil
}

func (b *backends) close() {
	if b.pool != nil {
		b.pool.Close()
	}
	if b.redis != nil {
		_ = b.redis.Close()
	}
}

// newGradingService picks the answer key and report stores from what is configured:
// Postgres as the source of truth, Redis as cache, memory otherwise.
func newGradingService(cfg config.Config, b *backends, logger *zap.Logger, observer app.EvaluationObserver) *app.GradingService {
	var loader memory.AnswerKeyLoader = memory.NewStaticAnswerKeyLoader(nil)
	if b.pool != nil {
		loader = pgstore.NewAnswerKeyLoader(b.pool)
	}

	keyTTL := config.TTLDuration(cfg.AnswerKeys.TTL, 10*time.Minute)
	var keys app.AnswerKeyRepository
	if b.redis != nil {
		keys = redisstore.NewAnswerKeyRepository(b.redis, loader, keyTTL)
	} else {
		keys = memory.NewAnswerKeyRepository(loader, keyTTL)
	}

	reportTTL := config.TTLDuration(cfg.Reports.TTL, 24*time.Hour)
	var reports app.ReportRepository
	switch {
	case b.pool != nil:
		reports = pgstore.NewReportStore(b.pool)
	case b.redis != nil:
		reports = redisstore.NewReportStore(b.redis, reportTTL)
	default:
		reports = memory.NewReportStore(reportTTL)
	}

	engine := grading.NewEngine(grading.WithKeywordThreshold(cfg.Grading.KeywordThreshold))
	opts := []app.GradingOption{app.WithLogger(logger)}
	if observer != nil {
		opts = append(opts, app.WithEvaluationObserver(observer))
	}
	return app.NewGradingService(engine, keys, reports, opts...)
}

func newIngestService(cfg config.Config, logger *zap.Logger, observer app.RecognitionObserver) (*app.IngestService, *ocr.Readers) {
	readers := ocr.NewReaders(tesseract.NewFactory(cfg.OCR.Languages))
	languages := make([]string, 0, len(cfg.OCR.Languages))
	for lang := range cfg.OCR.Languages {
		languages = append(languages, lang)
	}
	sort.Strings(languages)

	service := app.NewIngestService(readers, mupdf.New(cfg.OCR.PDFZoom), app.IngestConfig{
		DefaultLanguage:   cfg.OCR.DefaultLanguage,
		Languages:         languages,
		MaxImageDimension: cfg.OCR.MaxImageDimension,
		UseTextLayer:      cfg.OCR.PDFTextLayer,
	}, logger, observer)
	return service, readers
}
