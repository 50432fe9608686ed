//go:build !notesseract

package ocr

import (
	"context"
	"fmt"
	"strings"

	"github.com/otiai10/gosseract/v2"
)

// Tesseract is the gosseract-backed engine. A fresh client is created for
// every call; gosseract clients are not safe for concurrent use.
type Tesseract struct {
	newClient func() *gosseract.Client
}

// NewTesseract returns the Tesseract engine.
func NewTesseract() *Tesseract {
	return &Tesseract{newClient: gosseract.NewClient}
}

// Default returns the engine compiled into this binary.
func Default() Engine { return NewTesseract() }

func (e *Tesseract) Name() string { return "tesseract" }

// Recognize runs OCR on one encoded image.
func (e *Tesseract) Recognize(ctx context.Context, img []byte, opts Options) (Result, error) {
	if err := ctx.Err(); err != nil {
		return Result{}, err
	}
	c := e.newClient()
	defer c.Close()

	if err := c.SetImageFromBytes(img); err != nil {
		return Result{}, fmt.Errorf("set image: %w", err)
	}
	if len(opts.Languages) > 0 {
		if err := c.SetLanguage(opts.Languages...); err != nil {
			return Result{}, fmt.Errorf("set languages: %w", err)
		}
	}
	if opts.DPI > 0 {
		if err := c.SetVariable(gosseract.SettableVariable("user_defined_dpi"), fmt.Sprint(opts.DPI)); err != nil {
			return Result{}, fmt.Errorf("set dpi: %w", err)
		}
	}

	text, err := c.Text()
	if err != nil {
		return Result{}, fmt.Errorf("recognize text: %w", err)
	}
	res := Result{Text: strings.TrimSpace(text)}
	if !opts.Lines {
		return res, nil
	}

	boxes, err := c.GetBoundingBoxes(gosseract.RIL_TEXTLINE)
	if err != nil {
		return Result{}, fmt.Errorf("line boxes: %w", err)
	}
	for _, b := range boxes {
		s := strings.TrimSpace(b.Word)
		if s == "" {
			continue
		}
		res.Lines = append(res.Lines, Line{Text: s, Box: b.Box, Confidence: b.Confidence / 100.0})
	}
	return res, nil
}
