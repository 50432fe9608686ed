// Package ocr wraps the Tesseract engine behind a small interface.
//
// The default engine is built on github.com/otiai10/gosseract/v2 and needs
// libtesseract at link time. Building with the notesseract tag replaces it
// with an engine that always reports [ErrUnavailable], which lets the rest of
// the service build and run on hosts without Tesseract.
package ocr

import (
	"context"
	"errors"
	"image"
	"strings"
)

// ErrUnavailable is returned when no OCR engine is compiled in or the engine
// cannot be initialised.
var ErrUnavailable = errors.New("ocr: engine unavailable")

// Options tune a single recognition.
type Options struct {
	// Languages are Tesseract language codes ("por", "eng"). Empty means the
	// engine default.
	Languages []string
	// DPI is passed to Tesseract as user_defined_dpi when positive.
	DPI int
	// Lines asks for per-line boxes in addition to the plain text.
	Lines bool
}

// Line is one recognized text line with its pixel bounding box.
type Line struct {
	Text       string
	Box        image.Rectangle
	Confidence float64
}

// Result is the outcome of recognizing one image.
type Result struct {
	Text  string
	Lines []Line
}

// LineText joins the recognized lines, one per row.
func (r Result) LineText() string {
	parts := make([]string, 0, len(r.Lines))
	for _, l := range r.Lines {
		if s := strings.TrimSpace(l.Text); s != "" {
			parts = append(parts, s)
		}
	}
	return strings.Join(parts, "\n")
}

// Engine recognizes text in encoded images (PNG, JPEG, TIFF).
type Engine interface {
	Name() string
	Recognize(ctx context.Context, img []byte, opts Options) (Result, error)
}
