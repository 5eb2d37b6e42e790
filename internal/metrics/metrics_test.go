package metrics

import (
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
)

func TestObserveEvaluation(t *testing.T) {
	m := New(prometheus.NewRegistry())
	m.ObserveEvaluation(3, 4, 8)
	m.ObserveEvaluation(0, 0, 0)

	if got := testutil.ToFloat64(m.Evaluations); got != 2 {
		t.Fatalf("expected 2 evaluations, got %v", got)
	}
	if got := testutil.ToFloat64(m.QuestionsGraded); got != 3 {
		t.Fatalf("expected 3 questions, got %v", got)
	}
}

func TestMiddlewareRecordsPattern(t *testing.T) {
	m := New(prometheus.NewRegistry())
	m.ObserveRecognition("en", 20*time.Millisecond)

	mux := http.NewServeMux()
	mux.HandleFunc("GET /reports/{id}", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
	})
	mux.Handle("GET /metrics", m.Handler())
	server := httptest.NewServer(m.Middleware(mux))
	defer server.Close()

	resp, err := http.Get(server.URL + "/reports/abc")
	if err != nil {
		t.Fatalf("get report: %v", err)
	}
	resp.Body.Close()

	if got := testutil.ToFloat64(m.RequestCounter.WithLabelValues("GET", "GET /reports/{id}", "404")); got != 1 {
		t.Fatalf("expected one 404 on the report route, got %v", got)
	}

	resp, err = http.Get(server.URL + "/metrics")
	if err != nil {
		t.Fatalf("get metrics: %v", err)
	}
	defer resp.Body.Close()
	body, _ := io.ReadAll(resp.Body)
	if !strings.Contains(string(body), "grader_ocr_pages_total") {
		t.Fatalf("expected ocr counter in exposition, got %s", body)
	}
}
