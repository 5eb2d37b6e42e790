package http

import (
	"encoding/json"
	"errors"
	"io"
	"mime/multipart"
	"net/http"
	"unicode"
	"unicode/utf8"

	"go.uber.org/zap"

	"exam-grader/internal/app"
	"exam-grader/internal/domain"
)

// DefaultMaxUploadBytes bounds multipart bodies when no limit is configured.
const DefaultMaxUploadBytes = 32 << 20

// Handler serves the REST endpoints of the grader.
type Handler struct {
	grading   *app.GradingService
	ingest    *app.IngestService
	logger    *zap.Logger
	maxUpload int64
}

func NewHandler(grading *app.GradingService, ingest *app.IngestService, logger *zap.Logger, maxUpload int64) *Handler {
	if logger == nil {
		logger = zap.NewNop()
	}
	if maxUpload <= 0 {
		maxUpload = DefaultMaxUploadBytes
	}
	return &Handler{grading: grading, ingest: ingest, logger: logger, maxUpload: maxUpload}
}

// Register mounts the routes on mux.
func (h *Handler) Register(mux *http.ServeMux) {
	mux.HandleFunc("POST /evaluate", h.Evaluate)
	mux.HandleFunc("GET /reports/{id}", h.GetReport)
	mux.HandleFunc("POST /answer-keys", h.CreateAnswerKey)
	mux.HandleFunc("GET /answer-keys/{id}", h.GetAnswerKey)
	mux.HandleFunc("POST /ocr", h.OCR)
	mux.HandleFunc("POST /extract_pdf", h.ExtractPDF)
	mux.HandleFunc("GET /healthz", func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("ok"))
	})
}

func (h *Handler) Evaluate(w http.ResponseWriter, r *http.Request) {
	var sub domain.Submission
	if err := decodeJSON(r, &sub); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON body")
		return
	}
	report, err := h.grading.Evaluate(r.Context(), sub)
	if err != nil {
		h.fail(w, err)
		return
	}
	writeJSON(w, http.StatusOK, report)
}

func (h *Handler) GetReport(w http.ResponseWriter, r *http.Request) {
	report, err := h.grading.Report(r.Context(), r.PathValue("id"))
	if err != nil {
		h.fail(w, err)
		return
	}
	writeJSON(w, http.StatusOK, report)
}

func (h *Handler) CreateAnswerKey(w http.ResponseWriter, r *http.Request) {
	var key domain.AnswerKey
	if err := decodeJSON(r, &key); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON body")
		return
	}
	saved, err := h.grading.SaveAnswerKey(r.Context(), key)
	if err != nil {
		h.fail(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, saved)
}

func (h *Handler) GetAnswerKey(w http.ResponseWriter, r *http.Request) {
	key, err := h.grading.AnswerKey(r.Context(), r.PathValue("id"))
	if err != nil {
		h.fail(w, err)
		return
	}
	writeJSON(w, http.StatusOK, key)
}

// OCR accepts the files under the first of "images", "image" or "file" that is present.
func (h *Handler) OCR(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, h.maxUpload)
	if err := r.ParseMultipartForm(h.maxUpload); err != nil && !errors.Is(err, http.ErrNotMultipart) {
		writeError(w, http.StatusBadRequest, "invalid multipart body")
		return
	}

	files, err := readUploads(r, "images", "image", "file")
	if err != nil {
		writeError(w, http.StatusBadRequest, "cannot read upload")
		return
	}
	result, err := h.ingest.OCR(r.Context(), r.URL.Query().Get("lang"), files)
	if err != nil {
		h.fail(w, err)
		return
	}
	writeJSON(w, http.StatusOK, result)
}

func (h *Handler) ExtractPDF(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, h.maxUpload)
	if err := r.ParseMultipartForm(h.maxUpload); err != nil && !errors.Is(err, http.ErrNotMultipart) {
		writeError(w, http.StatusBadRequest, "invalid multipart body")
		return
	}

	files, err := readUploads(r, "file", "pdf")
	if err != nil {
		writeError(w, http.StatusBadRequest, "cannot read upload")
		return
	}
	var data []byte
	if len(files) > 0 {
		data = files[0].Data
	}
	pages, err := h.ingest.ExtractPages(r.Context(), data)
	if err != nil {
		h.fail(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"pages": pages})
}

func (h *Handler) fail(w http.ResponseWriter, err error) {
	status, message := statusFor(err)
	if status >= http.StatusInternalServerError {
		h.logger.Error("request failed", zap.Error(err))
	}
	writeError(w, status, message)
}

// statusFor maps domain errors to HTTP statuses. Unknown errors are hidden from clients.
func statusFor(err error) (int, string) {
	switch {
	case errors.Is(err, domain.ErrAnswerKeyNotFound), errors.Is(err, domain.ErrReportNotFound):
		return http.StatusNotFound, capitalize(err.Error())
	case errors.Is(err, domain.ErrNoImages), errors.Is(err, domain.ErrNoPDF),
		errors.Is(err, domain.ErrUnreadableImage), errors.Is(err, domain.ErrUnreadablePDF):
		return http.StatusBadRequest, capitalize(err.Error())
	case errors.Is(err, domain.ErrRecognitionFailed):
		return http.StatusInternalServerError, capitalize(err.Error())
	default:
		return http.StatusInternalServerError, "internal server error"
	}
}

func readUploads(r *http.Request, fields ...string) ([]app.Upload, error) {
	if r.MultipartForm == nil {
		return nil, nil
	}
	for _, field := range fields {
		headers := r.MultipartForm.File[field]
		if len(headers) == 0 {
			continue
		}
		uploads := make([]app.Upload, 0, len(headers))
		for _, fh := range headers {
			data, err := readFile(fh)
			if err != nil {
				return nil, err
			}
			uploads = append(uploads, app.Upload{
				Filename:    fh.Filename,
				ContentType: fh.Header.Get("Content-Type"),
				Data:        data,
			})
		}
		return uploads, nil
	}
	return nil, nil
}

func readFile(fh *multipart.FileHeader) ([]byte, error) {
	f, err := fh.Open()
	if err != nil {
		return nil, err
	}
	defer f.Close()
	return io.ReadAll(f)
}

func decodeJSON(r *http.Request, v any) error {
	defer r.Body.Close()
	return json.NewDecoder(r.Body).Decode(v)
}

type errorResponse struct {
	Error string `json:"error"`
}

func writeError(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, errorResponse{Error: message})
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func capitalize(s string) string {
	r, size := utf8.DecodeRuneInString(s)
	if r == utf8.RuneError {
		return s
	}
	return string(unicode.ToUpper(r)) + s[size:]
}
