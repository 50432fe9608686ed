package main

import (
	"fmt"
	"log/slog"
	"os"
	"regexp"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// Config holds the full extractlab configuration.
type Config struct {
	Listen             string        `yaml:"listen"`
	MaxUploadMB        int           `yaml:"max_upload_mb"`
	WorkDir            string        `yaml:"work_dir"`
	OCRLanguages       []string      `yaml:"ocr_languages"`
	TextLinesLanguages []string      `yaml:"textlines_languages"`
	DPI                int           `yaml:"dpi"`
	PdftoppmPath       string        `yaml:"pdftoppm_path"`
	ResultTTL          time.Duration `yaml:"result_ttl"`
	MaxResults         int           `yaml:"max_results"`
	EventsDB           string        `yaml:"events_db"`      // empty disables event recording
	RetentionDays      int           `yaml:"retention_days"` // 0 keeps events forever
	LogLevel           string        `yaml:"log_level"`      // debug | info | warn | error
	MCP                bool          `yaml:"mcp"`
}

// DefaultConfig returns sane defaults.
func DefaultConfig() *Config {
	return &Config{
		Listen:        ":8501",
		MaxUploadMB:   50,
		OCRLanguages:  []string{"por"},
		DPI:           300,
		PdftoppmPath:  "pdftoppm",
		ResultTTL:     30 * time.Minute,
		MaxResults:    100,
		RetentionDays: 30,
		LogLevel:      "info",
	}
}

// LoadConfig reads a YAML config file over the defaults, then applies
// environment overrides. An empty path skips the file.
func LoadConfig(path string) (*Config, error) {
	cfg := DefaultConfig()
	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("read config %s: %w", path, err)
		}
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("parse config %s: %w", path, err)
		}
	}
	if err := cfg.applyEnv(os.LookupEnv); err != nil {
		return nil, err
	}
	return cfg, cfg.Validate()
}

// applyEnv overrides fields from EXTRACTLAB_* variables. PORT, as set by
// most hosting platforms, overrides the listen port.
func (c *Config) applyEnv(lookup func(string) (string, bool)) error {
	str := func(key string, dst *string) {
		if v, ok := lookup(key); ok && v != "" {
			*dst = v
		}
	}
	num := func(key string, dst *int) error {
		v, ok := lookup(key)
		if !ok || v == "" {
			return nil
		}
		n, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("%s: %w", key, err)
		}
		*dst = n
		return nil
	}
	list := func(key string, dst *[]string) {
		if v, ok := lookup(key); ok && v != "" {
			*dst = splitList(v)
		}
	}

	str("EXTRACTLAB_LISTEN", &c.Listen)
	if port, ok := lookup("PORT"); ok && port != "" {
		c.Listen = ":" + port
	}
	str("EXTRACTLAB_WORK_DIR", &c.WorkDir)
	str("EXTRACTLAB_PDFTOPPM", &c.PdftoppmPath)
	str("EXTRACTLAB_EVENTS_DB", &c.EventsDB)
	str("EXTRACTLAB_LOG_LEVEL", &c.LogLevel)
	list("EXTRACTLAB_OCR_LANGUAGES", &c.OCRLanguages)
	list("EXTRACTLAB_TEXTLINES_LANGUAGES", &c.TextLinesLanguages)
	for key, dst := range map[string]*int{
		"EXTRACTLAB_MAX_UPLOAD_MB": &c.MaxUploadMB,
		"EXTRACTLAB_DPI":           &c.DPI,
		"EXTRACTLAB_MAX_RESULTS":   &c.MaxResults,
	} {
		if err := num(key, dst); err != nil {
			return err
		}
	}
	if v, ok := lookup("EXTRACTLAB_RESULT_TTL"); ok && v != "" {
		d, err := time.ParseDuration(v)
		if err != nil {
			return fmt.Errorf("EXTRACTLAB_RESULT_TTL: %w", err)
		}
		c.ResultTTL = d
	}
	if v, ok := lookup("EXTRACTLAB_MCP"); ok && v != "" {
		b, err := strconv.ParseBool(v)
		if err != nil {
			return fmt.Errorf("EXTRACTLAB_MCP: %w", err)
		}
		c.MCP = b
	}
	return nil
}

// splitList accepts "por,eng", "por+eng" or "por eng".
func splitList(s string) []string {
	return strings.FieldsFunc(s, func(r rune) bool {
		return r == ',' || r == '+' || r == ' '
	})
}

var langCode = regexp.MustCompile(`^[a-z]{3}(_[a-z]+)?$`)

// Validate checks that required fields are present and values are sane.
func (c *Config) Validate() error {
	if c.Listen == "" {
		return fmt.Errorf("listen is required")
	}
	if c.MaxUploadMB <= 0 {
		return fmt.Errorf("max_upload_mb must be > 0")
	}
	if c.DPI < 72 || c.DPI > 1200 {
		return fmt.Errorf("dpi must be between 72 and 1200, got %d", c.DPI)
	}
	if c.ResultTTL <= 0 {
		return fmt.Errorf("result_ttl must be > 0")
	}
	if c.MaxResults <= 0 {
		return fmt.Errorf("max_results must be > 0")
	}
	if c.RetentionDays < 0 {
		return fmt.Errorf("retention_days must be >= 0")
	}
	if len(c.OCRLanguages) == 0 {
		return fmt.Errorf("ocr_languages is required")
	}
	for _, l := range append(append([]string(nil), c.OCRLanguages...), c.TextLinesLanguages...) {
		if !langCode.MatchString(l) {
			return fmt.Errorf("invalid tesseract language %q", l)
		}
	}
	if _, err := c.level(); err != nil {
		return err
	}
	return nil
}

// MaxUploadBytes returns the upload limit in bytes.
func (c *Config) MaxUploadBytes() int64 { return int64(c.MaxUploadMB) * 1024 * 1024 }

func (c *Config) level() (slog.Level, error) {
	switch c.LogLevel {
	case "debug":
		return slog.LevelDebug, nil
	case "info", "":
		return slog.LevelInfo, nil
	case "warn":
		return slog.LevelWarn, nil
	case "error":
		return slog.LevelError, nil
	}
	return 0, fmt.Errorf("unsupported log_level %q (use debug, info, warn or error)", c.LogLevel)
}
