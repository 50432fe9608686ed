// Package docpipe runs one of eleven extraction libraries over an uploaded PDF
// or image and normalises the outcome into a single display string.
//
// Every library is registered with a name, a description and the file
// extensions it accepts. [Pipeline.Process] never fails: errors and panics
// raised while extracting become "Erro ao processar com <Name>: <message>".
//
// Usage:
//
//	pipe := docpipe.New(docpipe.Config{})
//	defer pipe.Close()
//	text := pipe.Process(ctx, docpipe.LibRscPDF, raw)
package docpipe

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"sync"
	"time"
	"unicode/utf8"

	"github.com/hazyhaar/extractlab/kit"
	"github.com/hazyhaar/extractlab/observability"
	"github.com/hazyhaar/extractlab/raster"
)

// Pipeline is the extraction engine. It is safe for concurrent use.
type Pipeline struct {
	cfg      Config
	logger   *slog.Logger
	registry *Registry
	raster   *raster.Rasterizer

	workOnce sync.Once
	workDir  string
	workErr  error
}

// New creates a Pipeline with the given configuration.
func New(cfg Config) *Pipeline {
	cfg.defaults()
	p := &Pipeline{
		cfg:    cfg,
		logger: cfg.Logger,
		raster: raster.New(cfg.PdftoppmPath, cfg.DPI),
	}
	p.registry = newRegistry(p.builtins())
	return p
}

// Libraries returns every library in display order.
func (p *Pipeline) Libraries() []Descriptor { return p.registry.All() }

// Lookup returns the descriptor for id.
func (p *Pipeline) Lookup(id LibraryID) (Descriptor, error) { return p.registry.Lookup(id) }

// Process runs library id over raw and returns the text to show: either the
// extracted content or a failure message. It never panics.
func (p *Pipeline) Process(ctx context.Context, id LibraryID, raw []byte) string {
	return p.Run(ctx, id, Upload{Data: raw}).Text
}

// Run is Process with side outputs and timing. When up.Name is set, the
// extension is checked against the library before anything runs.
func (p *Pipeline) Run(ctx context.Context, id LibraryID, up Upload) *Result {
	start := time.Now()
	res := &Result{Library: id}

	desc, err := p.registry.Lookup(id)
	name := string(id)
	if err == nil {
		name = desc.Name
		if up.Name != "" {
			err = desc.CheckUpload(up.Name)
		}
	}
	if err == nil && int64(len(up.Data)) > p.cfg.MaxFileSize {
		err = fmt.Errorf("%w: %d bytes (máximo %d)", ErrTooLarge, len(up.Data), p.cfg.MaxFileSize)
	}

	var out *Output
	if err == nil {
		out, err = p.invoke(kit.WithLibrary(ctx, string(id)), desc, up.Data)
	}
	res.Duration = time.Since(start)

	if err != nil {
		res.Failed = true
		res.Text = FailureText(name, err)
		attrs := []any{"library", id, "file", up.Name, "error", err, "duration", res.Duration,
			"request_id", kit.GetRequestID(ctx)}
		var pe *PageError
		if errors.As(err, &pe) {
			attrs = append(attrs, "pages_completed", pe.Page-1)
		}
		p.logger.Warn("docpipe: extraction failed", attrs...)
	} else {
		res.Text = out.Text
		res.Attachments = out.Attachments
		res.Quality = out.Quality
		p.logger.Info("docpipe: extracted",
			"library", id, "file", up.Name, "chars", utf8.RuneCountInString(res.Text),
			"attachments", len(res.Attachments), "duration", res.Duration,
			"request_id", kit.GetRequestID(ctx))
	}

	p.record(ctx, up, res, err)
	return res
}

// invoke calls the handler, turning a panic into an error.
func (p *Pipeline) invoke(ctx context.Context, d Descriptor, raw []byte) (out *Output, err error) {
	defer func() {
		if v := recover(); v != nil {
			out, err = nil, &panicError{value: v}
		}
	}()
	out, err = d.handler(ctx, raw)
	if err == nil && out == nil {
		out = &Output{}
	}
	return out, err
}

func (p *Pipeline) record(ctx context.Context, up Upload, res *Result, err error) {
	chars := utf8.RuneCountInString(res.Text)
	ev := observability.ProcessingEvent{
		Library:     string(res.Library),
		FileName:    up.Name,
		MIMEType:    up.MIMEType,
		FileSize:    int64(len(up.Data)),
		Transport:   kit.GetTransport(ctx),
		TraceID:     kit.GetTraceID(ctx),
		Success:     err == nil,
		ResultChars: chars,
		Attachments: len(res.Attachments),
		Duration:    res.Duration,
	}
	if err != nil {
		ev.Error = err.Error()
	}
	// Recording must not be cut short by a client that already went away.
	p.cfg.Events.LogProcessing(context.WithoutCancel(ctx), ev)
	p.cfg.Metrics.RecordRun(ev.Library, ev.Success, res.Duration, ev.FileSize, chars)
}

// scratch returns a fresh directory for one run under the pipeline's work
// directory, which is created on first use.
func (p *Pipeline) scratch() (string, error) {
	p.workOnce.Do(func() {
		p.workDir, p.workErr = os.MkdirTemp(p.cfg.WorkDir, "extractlab-")
	})
	if p.workErr != nil {
		return "", fmt.Errorf("work dir: %w", p.workErr)
	}
	dir, err := os.MkdirTemp(p.workDir, "run-")
	if err != nil {
		return "", fmt.Errorf("run dir: %w", err)
	}
	return dir, nil
}

// Close removes the pipeline's work directory.
func (p *Pipeline) Close() error {
	if p.workDir == "" {
		return nil
	}
	return os.RemoveAll(p.workDir)
}
