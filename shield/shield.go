// Package shield provides the HTTP middleware placed in front of the
// extraction UI and API: security headers, upload body limits, request
// tracing and HEAD method handling.
//
// Usage:
//
//	r := chi.NewRouter()
//	for _, mw := range shield.DefaultStack(50 << 20) {
//	    r.Use(mw)
//	}
package shield

import "net/http"

type contextKey string

// LoggerKey is the context key for the per-request structured logger.
const LoggerKey contextKey = "shield_logger"

// DefaultStack returns the standard middleware stack, ordered:
// HeadToGet → SecurityHeaders → MaxUploadBody → TraceID.
func DefaultStack(maxUpload int64) []func(http.Handler) http.Handler {
	return []func(http.Handler) http.Handler{
		HeadToGet,
		SecurityHeaders(DefaultHeaders()),
		MaxUploadBody(maxUpload),
		TraceID,
	}
}
