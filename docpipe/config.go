package docpipe

import (
	"log/slog"

	"github.com/hazyhaar/extractlab/observability"
	"github.com/hazyhaar/extractlab/ocr"
)

// Config configures the extraction pipeline.
type Config struct {
	// MaxFileSize is the maximum upload size to process (default: 50 MB).
	MaxFileSize int64 `json:"max_file_size" yaml:"max_file_size"`

	// OCRLanguages are the Tesseract languages used by the tesseract,
	// binarize and pdftoppm routines (default: ["por"]).
	OCRLanguages []string `json:"ocr_languages" yaml:"ocr_languages"`

	// TextLinesLanguages are used by the textlines routine (default: OCRLanguages).
	TextLinesLanguages []string `json:"textlines_languages" yaml:"textlines_languages"`

	// DPI is the pdftoppm rendering resolution (default: 300).
	DPI int `json:"dpi" yaml:"dpi"`

	// PdftoppmPath is the pdftoppm binary (default: "pdftoppm" from PATH).
	PdftoppmPath string `json:"pdftoppm_path" yaml:"pdftoppm_path"`

	// WorkDir is the parent of the pipeline's scratch directory
	// (default: os.TempDir()).
	WorkDir string `json:"work_dir" yaml:"work_dir"`

	// OCR is the recognition engine (default: ocr.Default()).
	OCR ocr.Engine `json:"-" yaml:"-"`

	// Events, when set, records one row per run.
	Events *observability.EventLogger `json:"-" yaml:"-"`

	// Metrics, when set, records run timings.
	Metrics *observability.MetricsManager `json:"-" yaml:"-"`

	// Logger for debug/error messages.
	Logger *slog.Logger `json:"-" yaml:"-"`
}

func (c *Config) defaults() {
	if c.MaxFileSize <= 0 {
		c.MaxFileSize = 50 * 1024 * 1024
	}
	if len(c.OCRLanguages) == 0 {
		c.OCRLanguages = []string{"por"}
	}
	if len(c.TextLinesLanguages) == 0 {
		c.TextLinesLanguages = c.OCRLanguages
	}
	if c.DPI <= 0 {
		c.DPI = 300
	}
	if c.OCR == nil {
		c.OCR = ocr.Default()
	}
	if c.Logger == nil {
		c.Logger = slog.Default()
	}
}
