package metrics

import (
	"bufio"
	"errors"
	"net"
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics groups the collectors exported on /metrics.
type Metrics struct {
	Evaluations     prometheus.Counter
	QuestionsGraded prometheus.Counter
	ScoreRatio      prometheus.Histogram
	PagesRecognized *prometheus.CounterVec
	RecognitionTime *prometheus.HistogramVec
	RequestCounter  *prometheus.CounterVec
	RequestDuration *prometheus.HistogramVec
	gatherer        prometheus.Gatherer
}

// New registers the collectors with reg. Passing a fresh prometheus.NewRegistry keeps tests isolated.
func New(reg *prometheus.Registry) *Metrics {
	m := &Metrics{
		Evaluations: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "grader_evaluations_total",
			Help: "Total number of graded submissions",
		}),
		QuestionsGraded: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "grader_questions_graded_total",
			Help: "Total number of graded questions",
		}),
		ScoreRatio: prometheus.NewHistogram(prometheus.HistogramOpts{
			Name:    "grader_score_ratio",
			Help:    "Total score divided by maximum score per submission",
			Buckets: prometheus.LinearBuckets(0, 0.1, 11),
		}),
		PagesRecognized: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "grader_ocr_pages_total",
				Help: "Images and PDF pages passed through OCR",
			},
			[]string{"lang"},
		),
		RecognitionTime: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "grader_ocr_duration_seconds",
				Help:    "Duration of OCR per image",
				Buckets: []float64{0.1, 0.5, 1, 2, 5, 10},
			},
			[]string{"lang"},
		),
		RequestCounter: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "http_requests_total",
				Help: "Total number of HTTP requests",
			},
			[]string{"method", "endpoint", "status"},
		),
		RequestDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "http_request_duration_seconds",
				Help:    "Duration of HTTP requests",
				Buckets: []float64{0.1, 0.5, 1, 2, 5},
			},
			[]string{"method", "endpoint"},
		),
		gatherer: reg,
	}
	reg.MustRegister(
		m.Evaluations,
		m.QuestionsGraded,
		m.ScoreRatio,
		m.PagesRecognized,
		m.RecognitionTime,
		m.RequestCounter,
		m.RequestDuration,
	)
	return m
}

// ObserveEvaluation records one graded submission.
func (m *Metrics) ObserveEvaluation(questions int, total, max float64) {
	m.Evaluations.Inc()
	m.QuestionsGraded.Add(float64(questions))
	if max > 0 {
		m.ScoreRatio.Observe(total / max)
	}
}

// ObserveRecognition records OCR of one image or page.
func (m *Metrics) ObserveRecognition(lang string, d time.Duration) {
	m.PagesRecognized.WithLabelValues(lang).Inc()
	m.RecognitionTime.WithLabelValues(lang).Observe(d.Seconds())
}

// Handler serves the registry in the Prometheus exposition format.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.gatherer, promhttp.HandlerOpts{})
}

// Middleware counts requests per route pattern and status.
func (m *Metrics) Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
		next.ServeHTTP(rec, r)

		endpoint := r.Pattern
		if endpoint == "" {
			endpoint = "unmatched"
		}
		m.RequestCounter.WithLabelValues(r.Method, endpoint, strconv.Itoa(rec.status)).Inc()
		m.RequestDuration.WithLabelValues(r.Method, endpoint).Observe(time.Since(start).Seconds())
	})
}

type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (r *statusRecorder) WriteHeader(code int) {
	r.status = code
	r.ResponseWriter.WriteHeader(code)
}

// Hijack exposes the underlying connection to websocket upgrades.
func (r *statusRecorder) Hijack() (net.Conn, *bufio.ReadWriter, error) {
	h, ok := r.ResponseWriter.(http.Hijacker)
	if !ok {
		return nil, nil, errors.New("response writer does not support hijacking")
	}
	return h.Hijack()
}

// Unwrap lets http.ResponseController reach the underlying writer.
func (r *statusRecorder) Unwrap() http.ResponseWriter {
	return r.ResponseWriter
}
