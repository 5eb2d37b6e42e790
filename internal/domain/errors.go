package domain

import "errors"

var (
	// ErrAnswerKeyNotFound is returned when a stored answer key cannot be loaded.
	ErrAnswerKeyNotFound = errors.New("answer key not found")
	// ErrReportNotFound is returned when an evaluation report was never stored or has expired.
	ErrReportNotFound = errors.New("report not found")
	// ErrNoImages indicates an OCR request without any uploaded file.
	ErrNoImages = errors.New("no image(s) provided")
	// ErrNoPDF indicates a page extraction request without a PDF upload.
	ErrNoPDF = errors.New("no PDF provided")
	// ErrUnreadableImage indicates an upload that cannot be decoded as an image.
	ErrUnreadableImage = errors.New("cannot open image")
	// ErrUnreadablePDF indicates an upload that cannot be opened as a PDF.
	ErrUnreadablePDF = errors.New("cannot open PDF")
	// ErrRecognitionFailed wraps failures reported by the OCR engine.
	ErrRecognitionFailed = errors.New("text recognition failed")
)
