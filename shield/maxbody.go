package shield

import (
	"mime"
	"net/http"
)

// multipartSlack covers multipart boundaries and form fields on top of the
// file itself.
const multipartSlack = 1 << 20

// jsonSlack covers the JSON-RPC envelope around a base64 file.
const jsonSlack = 64 << 10

// MaxUploadBody returns middleware that limits the request body of POST and
// PUT requests. Multipart uploads get maxBytes plus a small allowance for the
// envelope. JSON bodies carry files as base64, so they get the encoded size
// of maxBytes plus their own allowance. Other bodies get maxBytes.
func MaxUploadBody(maxBytes int64) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if maxBytes > 0 && (r.Method == http.MethodPost || r.Method == http.MethodPut) {
				r.Body = http.MaxBytesReader(w, r.Body, bodyLimit(maxBytes, r.Header.Get("Content-Type")))
			}
			next.ServeHTTP(w, r)
		})
	}
}

func bodyLimit(maxBytes int64, contentType string) int64 {
	mt, _, _ := mime.ParseMediaType(contentType)
	switch mt {
	case "multipart/form-data":
		return maxBytes + multipartSlack
	case "application/json":
		return base64Len(maxBytes) + jsonSlack
	}
	return maxBytes
}

// base64Len is the padded standard encoding length of n bytes.
func base64Len(n int64) int64 {
	return (n + 2) / 3 * 4
}
