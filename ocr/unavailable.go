//go:build notesseract

package ocr

import "context"

type unavailable struct{}

// Default returns the engine compiled into this binary. Built with the
// notesseract tag, every call fails with ErrUnavailable.
func Default() Engine { return unavailable{} }

func (unavailable) Name() string { return "none" }

func (unavailable) Recognize(context.Context, []byte, Options) (Result, error) {
	return Result{}, ErrUnavailable
}
