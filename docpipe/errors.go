package docpipe

import (
	"errors"
	"fmt"
	"strings"
)

var (
	// ErrNotFound is returned by Lookup for an unknown library id.
	ErrNotFound = errors.New("library not found")
	// ErrUnsupportedExtension is returned when a file type is not accepted
	// by the selected library.
	ErrUnsupportedExtension = errors.New("unsupported file type")
	// ErrTooLarge is returned when an upload exceeds Config.MaxFileSize.
	ErrTooLarge = errors.New("file too large")
)

const failurePrefix = "Erro ao processar com "

// FailureText formats a processing failure the way it is shown to the user.
func FailureText(libraryName string, err error) string {
	return failurePrefix + libraryName + ": " + err.Error()
}

// IsFailure reports whether a result string is a failure message.
func IsFailure(s string) bool {
	return strings.HasPrefix(s, failurePrefix)
}

// PageError reports a failure on a given page. Pages before it were
// extracted but their output is discarded.
type PageError struct {
	Page int
	Err  error
}

func (e *PageError) Error() string {
	return fmt.Sprintf("página %d: %v", e.Page, e.Err)
}

func (e *PageError) Unwrap() error { return e.Err }

// panicError wraps a value recovered from a panicking handler.
type panicError struct {
	value any
}

func (e *panicError) Error() string {
	return fmt.Sprintf("falha interna: %v", e.value)
}
