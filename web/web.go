// Package web serves the extraction page, result downloads and a small JSON
// API over a docpipe pipeline.
//
// Results live in memory for a limited time so the download link and the
// attachment images can be fetched after the page is rendered.
package web

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"mime"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/hazyhaar/extractlab/docpipe"
	"github.com/hazyhaar/extractlab/idgen"
	"github.com/hazyhaar/extractlab/kit"
	"github.com/hazyhaar/extractlab/observability"
	"github.com/hazyhaar/extractlab/shield"
)

// Pipeline is the part of docpipe.Pipeline the web layer needs.
type Pipeline interface {
	Libraries() []docpipe.Descriptor
	Lookup(id docpipe.LibraryID) (docpipe.Descriptor, error)
	Run(ctx context.Context, id docpipe.LibraryID, up docpipe.Upload) *docpipe.Result
}

// Config configures the web server.
type Config struct {
	// MaxUpload is the request body limit in bytes (default: 50 MB).
	MaxUpload int64
	// ResultTTL is how long a result stays downloadable (default: 30 min).
	ResultTTL time.Duration
	// MaxResults caps the number of results kept in memory (default: 100).
	MaxResults int
	// Events, when set, backs GET /api/stats.
	Events *observability.EventLogger
	// Metrics, when set, backs GET /api/stats/metrics.
	Metrics *observability.MetricsManager
	// MCP, when set, is mounted at /mcp.
	MCP http.Handler
}

func (c *Config) defaults() {
	if c.MaxUpload <= 0 {
		c.MaxUpload = 50 << 20
	}
	if c.ResultTTL <= 0 {
		c.ResultTTL = 30 * time.Minute
	}
	if c.MaxResults <= 0 {
		c.MaxResults = 100
	}
}

// Server holds the routes and the result store.
type Server struct {
	pipe  Pipeline
	cfg   Config
	store *resultStore
}

// New creates a Server over pipe.
func New(pipe Pipeline, cfg Config) *Server {
	cfg.defaults()
	return &Server{
		pipe:  pipe,
		cfg:   cfg,
		store: newResultStore(cfg.ResultTTL, cfg.MaxResults),
	}
}

// Handler returns the chi router with the shield stack applied.
func (s *Server) Handler() http.Handler {
	r := chi.NewRouter()
	for _, mw := range shield.DefaultStack(s.cfg.MaxUpload) {
		r.Use(mw)
	}
	r.Use(requestID(idgen.Prefixed("req_", idgen.Default)))

	r.Get("/health", func(w http.ResponseWriter, _ *http.Request) {
		writeJSON(w, 200, map[string]string{"status": "ok"})
	})

	r.Get("/", s.handleIndex)
	r.Post("/process", s.handleProcess)
	r.Get("/results/{id}/download", s.handleDownload)
	r.Get("/results/{id}/attachments/{n}", s.handleAttachment)

	r.Route("/api", func(r chi.Router) {
		r.Get("/libraries", func(w http.ResponseWriter, _ *http.Request) {
			writeJSON(w, 200, s.pipe.Libraries())
		})
		r.Post("/process", s.handleAPIProcess)
		r.Get("/stats", s.handleStats)
		r.Get("/stats/metrics", s.handleMetrics)
	})

	if s.cfg.MCP != nil {
		r.Handle("/mcp", s.cfg.MCP)
	}
	return r
}

type pageData struct {
	Libraries []docpipe.Descriptor
	Selected  docpipe.Descriptor
	Entry     *entry
	About     []struct{ Name, Text string }
}

func (s *Server) page(sel docpipe.Descriptor, e *entry) pageData {
	return pageData{
		Libraries: s.pipe.Libraries(),
		Selected:  sel,
		Entry:     e,
		About:     docpipe.About,
	}
}

// selected resolves the library query parameter, falling back to the first
// library when it is empty.
func (s *Server) selected(id string) (docpipe.Descriptor, error) {
	if id == "" {
		return s.pipe.Libraries()[0], nil
	}
	return s.pipe.Lookup(docpipe.LibraryID(id))
}

func (s *Server) handleIndex(w http.ResponseWriter, r *http.Request) {
	sel, err := s.selected(r.URL.Query().Get("library"))
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	s.render(w, r, s.page(sel, nil))
}

func (s *Server) handleProcess(w http.ResponseWriter, r *http.Request) {
	e, code, err := s.process(r)
	if err != nil {
		http.Error(w, err.Error(), code)
		return
	}
	s.render(w, r, s.page(e.Library, e))
}

type processResp struct {
	ID          string            `json:"id"`
	Library     docpipe.LibraryID `json:"library"`
	Filename    string            `json:"filename"`
	Text        string            `json:"text"`
	Failed      bool              `json:"failed"`
	Attachments int               `json:"attachments"`
	DownloadURL string            `json:"download_url"`
}

func (s *Server) handleAPIProcess(w http.ResponseWriter, r *http.Request) {
	e, code, err := s.process(r)
	if err != nil {
		writeError(w, code, err)
		return
	}
	writeJSON(w, 200, processResp{
		ID:          e.ID,
		Library:     e.Library.ID,
		Filename:    e.FileName,
		Text:        e.Result.Text,
		Failed:      e.Result.Failed,
		Attachments: len(e.Result.Attachments),
		DownloadURL: "/results/" + e.ID + "/download",
	})
}

// process reads the multipart upload, checks it against the selected library
// and runs the extraction. The returned code is meaningful only with an error.
func (s *Server) process(r *http.Request) (*entry, int, error) {
	if err := r.ParseMultipartForm(32 << 20); err != nil {
		var tooBig *http.MaxBytesError
		if errors.As(err, &tooBig) {
			return nil, http.StatusRequestEntityTooLarge, fmt.Errorf("arquivo maior que %d bytes", tooBig.Limit)
		}
		return nil, http.StatusBadRequest, fmt.Errorf("formulário inválido: %w", err)
	}
	defer r.MultipartForm.RemoveAll()

	desc, err := s.pipe.Lookup(docpipe.LibraryID(r.FormValue("library")))
	if err != nil {
		return nil, http.StatusBadRequest, err
	}

	f, hdr, err := r.FormFile("file")
	if err != nil {
		return nil, http.StatusBadRequest, fmt.Errorf("nenhum arquivo enviado: %w", err)
	}
	defer f.Close()

	// Refuse before reading the file into memory.
	if err := desc.CheckUpload(hdr.Filename); err != nil {
		return nil, http.StatusUnsupportedMediaType, err
	}

	// The body limit leaves room for the multipart envelope; the file
	// itself must fit in MaxUpload.
	data, err := shield.LimitedReadAll(f, s.cfg.MaxUpload)
	if errors.Is(err, shield.ErrTooLarge) {
		return nil, http.StatusRequestEntityTooLarge, fmt.Errorf("arquivo maior que %d bytes", s.cfg.MaxUpload)
	}
	if err != nil {
		return nil, http.StatusBadRequest, fmt.Errorf("ler arquivo: %w", err)
	}
	mimeType := hdr.Header.Get("Content-Type")
	if mimeType == "" || mimeType == "application/octet-stream" {
		mimeType = docpipe.MIMEType(hdr.Filename)
	}

	res := s.pipe.Run(r.Context(), desc.ID, docpipe.Upload{Name: hdr.Filename, MIMEType: mimeType, Data: data})
	e := s.store.put(&entry{
		FileName: hdr.Filename,
		MIMEType: mimeType,
		Size:     len(data),
		Library:  desc,
		Result:   res,
	})
	shield.GetLogger(r.Context()).Info("web: processed",
		"result_id", e.ID, "library", desc.ID, "file", hdr.Filename, "failed", res.Failed)
	return e, 0, nil
}

func (s *Server) handleDownload(w http.ResponseWriter, r *http.Request) {
	e, ok := s.store.get(chi.URLParam(r, "id"))
	if !ok {
		http.NotFound(w, r)
		return
	}
	name := e.FileName + "_resultado.txt"
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	w.Header().Set("Content-Disposition", mime.FormatMediaType("attachment", map[string]string{"filename": name}))
	w.Header().Set("Content-Length", strconv.Itoa(len(e.Result.Text)))
	io.WriteString(w, e.Result.Text)
}

func (s *Server) handleAttachment(w http.ResponseWriter, r *http.Request) {
	e, ok := s.store.get(chi.URLParam(r, "id"))
	if !ok {
		http.NotFound(w, r)
		return
	}
	n, err := strconv.Atoi(chi.URLParam(r, "n"))
	if err != nil || n < 0 || n >= len(e.Result.Attachments) {
		http.NotFound(w, r)
		return
	}
	a := e.Result.Attachments[n]
	if a.Kind != docpipe.AttachImage {
		http.NotFound(w, r)
		return
	}
	w.Header().Set("Content-Type", "image/png")
	w.Header().Set("Cache-Control", "private, max-age=300")
	w.Write(a.PNG)
}

func (s *Server) handleStats(w http.ResponseWriter, r *http.Request) {
	if s.cfg.Events == nil {
		writeJSON(w, 404, map[string]string{"error": "estatísticas desativadas"})
		return
	}
	stats, err := s.cfg.Events.Stats(r.Context())
	if err != nil {
		writeError(w, 500, err)
		return
	}
	if stats == nil {
		stats = []observability.LibraryStats{}
	}
	writeJSON(w, 200, stats)
}

// handleMetrics lists recent datapoints of one metric, newest first.
// Query parameters: name (default extract_duration_ms), limit (1..1000,
// default 100) and since, a duration such as "24h".
func (s *Server) handleMetrics(w http.ResponseWriter, r *http.Request) {
	if s.cfg.Metrics == nil {
		writeJSON(w, 404, map[string]string{"error": "estatísticas desativadas"})
		return
	}
	q := r.URL.Query()
	name := q.Get("name")
	if name == "" {
		name = observability.MetricExtractDurationMs
	}
	limit := 100
	if v := q.Get("limit"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n < 1 || n > 1000 {
			writeJSON(w, 400, map[string]string{"error": "limit inválido"})
			return
		}
		limit = n
	}
	var since *time.Time
	if v := q.Get("since"); v != "" {
		d, err := time.ParseDuration(v)
		if err != nil || d <= 0 {
			writeJSON(w, 400, map[string]string{"error": "since inválido"})
			return
		}
		t := time.Now().Add(-d)
		since = &t
	}

	metrics, err := s.cfg.Metrics.Query(r.Context(), name, since, nil, limit)
	if err != nil {
		writeError(w, 500, err)
		return
	}
	if metrics == nil {
		metrics = []*observability.Metric{}
	}
	writeJSON(w, 200, metrics)
}

func (s *Server) render(w http.ResponseWriter, r *http.Request, data pageData) {
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	if err := pageTmpl.Execute(w, data); err != nil {
		shield.GetLogger(r.Context()).Error("web: render", "error", err)
	}
}

// requestID tags each request with an id, echoed in X-Request-ID, so
// processing events can be correlated with access logs.
func requestID(gen idgen.Generator) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			id := gen()
			w.Header().Set("X-Request-ID", id)
			ctx := kit.WithTransport(kit.WithRequestID(r.Context(), id), "http")
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

func writeJSON(w http.ResponseWriter, code int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, code int, err error) {
	writeJSON(w, code, map[string]string{"error": err.Error()})
}
