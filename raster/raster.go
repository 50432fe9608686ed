// Package raster renders PDF pages to PNG files with poppler's pdftoppm.
package raster

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os/exec"
	"path/filepath"
	"sort"
	"strconv"
	"strings"
)

// ErrNoPages is returned when pdftoppm succeeded but wrote no images.
var ErrNoPages = errors.New("raster: no pages rendered")

const prefix = "page"

// Rasterizer runs pdftoppm.
type Rasterizer struct {
	binPath string
	dpi     int
}

// New returns a Rasterizer. An empty binPath means "pdftoppm" from PATH; a
// non-positive dpi means 300.
func New(binPath string, dpi int) *Rasterizer {
	if binPath == "" {
		binPath = "pdftoppm"
	}
	if dpi <= 0 {
		dpi = 300
	}
	return &Rasterizer{binPath: binPath, dpi: dpi}
}

// DPI returns the rendering resolution.
func (r *Rasterizer) DPI() int { return r.dpi }

// Rasterize renders every page of pdfPath into outDir and returns the PNG
// paths in page order.
func (r *Rasterizer) Rasterize(ctx context.Context, pdfPath, outDir string) ([]string, error) {
	root := filepath.Join(outDir, prefix)
	cmd := exec.CommandContext(ctx, r.binPath, "-r", strconv.Itoa(r.dpi), "-png", pdfPath, root)

	var stderr bytes.Buffer
	cmd.Stderr = &stderr
	if err := cmd.Run(); err != nil {
		msg := strings.TrimSpace(stderr.String())
		if msg == "" {
			return nil, fmt.Errorf("pdftoppm %s: %w", filepath.Base(pdfPath), err)
		}
		return nil, fmt.Errorf("pdftoppm %s: %w: %s", filepath.Base(pdfPath), err, msg)
	}

	files, err := filepath.Glob(root + "-*.png")
	if err != nil {
		return nil, fmt.Errorf("list pages: %w", err)
	}
	if len(files) == 0 {
		return nil, ErrNoPages
	}
	sort.SliceStable(files, func(i, j int) bool {
		return pageNumber(files[i]) < pageNumber(files[j])
	})
	return files, nil
}

// pageNumber parses N out of ".../page-N.png". pdftoppm zero-pads N to the
// width of the page count, so a numeric sort is needed.
func pageNumber(path string) int {
	base := strings.TrimSuffix(filepath.Base(path), ".png")
	n, err := strconv.Atoi(base[strings.LastIndexByte(base, '-')+1:])
	if err != nil {
		return 0
	}
	return n
}
