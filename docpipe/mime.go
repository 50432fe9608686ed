package docpipe

import (
	"fmt"
	"path/filepath"
	"strings"
)

var mimeTypes = map[string]string{
	"pdf":  "application/pdf",
	"png":  "image/png",
	"jpg":  "image/jpeg",
	"jpeg": "image/jpeg",
	"tiff": "image/tiff",
}

// Extension returns the lowercase extension of name without the dot.
func Extension(name string) string {
	return strings.ToLower(strings.TrimPrefix(filepath.Ext(name), "."))
}

// MIMEType returns the content type for a file name, or
// application/octet-stream for unknown extensions.
func MIMEType(name string) string {
	if mt, ok := mimeTypes[Extension(name)]; ok {
		return mt
	}
	return "application/octet-stream"
}

// AcceptsFile reports whether the library accepts a file with this name.
// The comparison is case-insensitive.
func (d Descriptor) AcceptsFile(name string) bool {
	ext := Extension(name)
	for _, a := range d.Accepts {
		if a == ext {
			return true
		}
	}
	return false
}

// CheckUpload returns ErrUnsupportedExtension, wrapped with the file name and
// the accepted types, when the library does not accept name.
func (d Descriptor) CheckUpload(name string) error {
	if d.AcceptsFile(name) {
		return nil
	}
	return fmt.Errorf("%w: %q (%s aceita %s)", ErrUnsupportedExtension, name, d.Name, strings.Join(d.Accepts, ", "))
}

// AcceptAttr renders the accepted types for an HTML file input, e.g.
// ".png,.jpg,.jpeg,image/png,image/jpeg".
func (d Descriptor) AcceptAttr() string {
	var exts, types []string
	seen := map[string]bool{}
	for _, a := range d.Accepts {
		exts = append(exts, "."+a)
		if mt, ok := mimeTypes[a]; ok && !seen[mt] {
			seen[mt] = true
			types = append(types, mt)
		}
	}
	return strings.Join(append(exts, types...), ",")
}
