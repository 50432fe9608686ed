package web

import (
	"bytes"
	"context"
	"encoding/json"
	"image"
	"image/png"
	"io"
	"mime"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"regexp"
	"strings"
	"testing"
	"time"

	"github.com/hazyhaar/extractlab/dbopen"
	"github.com/hazyhaar/extractlab/docpipe"
	"github.com/hazyhaar/extractlab/observability"
	"github.com/hazyhaar/extractlab/ocr"
	"github.com/hazyhaar/extractlab/pdffixture"
	_ "modernc.org/sqlite"
)

type stubOCR struct{}

func (stubOCR) Name() string { return "stub" }

func (stubOCR) Recognize(context.Context, []byte, ocr.Options) (ocr.Result, error) {
	return ocr.Result{Text: "texto da imagem"}, nil
}

func newTestServer(t *testing.T, cfg Config, pcfg docpipe.Config) *httptest.Server {
	t.Helper()
	pcfg.WorkDir = t.TempDir()
	pcfg.OCR = stubOCR{}
	pipe := docpipe.New(pcfg)
	t.Cleanup(func() { pipe.Close() })
	ts := httptest.NewServer(New(pipe, cfg).Handler())
	t.Cleanup(ts.Close)
	return ts
}

func upload(t *testing.T, url, library, filename string, data []byte) *http.Response {
	t.Helper()
	var body bytes.Buffer
	mw := multipart.NewWriter(&body)
	mw.WriteField("library", library)
	fw, err := mw.CreateFormFile("file", filename)
	if err != nil {
		t.Fatal(err)
	}
	fw.Write(data)
	mw.Close()

	resp, err := http.Post(url, mw.FormDataContentType(), &body)
	if err != nil {
		t.Fatalf("POST %s: %v", url, err)
	}
	t.Cleanup(func() { resp.Body.Close() })
	return resp
}

func readBody(t *testing.T, resp *http.Response) string {
	t.Helper()
	b, err := io.ReadAll(resp.Body)
	if err != nil {
		t.Fatal(err)
	}
	return string(b)
}

func get(t *testing.T, url string) *http.Response {
	t.Helper()
	resp, err := http.Get(url)
	if err != nil {
		t.Fatalf("GET %s: %v", url, err)
	}
	t.Cleanup(func() { resp.Body.Close() })
	return resp
}

func pngBytes(t *testing.T) []byte {
	t.Helper()
	var buf bytes.Buffer
	if err := png.Encode(&buf, image.NewGray(image.Rect(0, 0, 16, 16))); err != nil {
		t.Fatal(err)
	}
	return buf.Bytes()
}

// --- Page ---

func TestIndex_ListsLibrariesAndFooter(t *testing.T) {
	ts := newTestServer(t, Config{}, docpipe.Config{})
	resp := get(t, ts.URL+"/")
	body := readBody(t, resp)

	if resp.StatusCode != 200 {
		t.Fatalf("status: %d", resp.StatusCode)
	}
	if n := strings.Count(body, "<option value="); n != 11 {
		t.Errorf("options: got %d, want 11", n)
	}
	for _, s := range []string{"Sobre as bibliotecas disponíveis", "Faça upload de um arquivo (pdf)", `accept=".pdf,application/pdf"`} {
		if !strings.Contains(body, s) {
			t.Errorf("missing %q", s)
		}
	}
}

func TestIndex_SelectedLibraryRestrictsAccept(t *testing.T) {
	ts := newTestServer(t, Config{}, docpipe.Config{})
	body := readBody(t, get(t, ts.URL+"/?library=tesseract"))
	if !strings.Contains(body, `accept=".png,.jpg,.jpeg,.tiff,image/png,image/jpeg,image/tiff"`) {
		t.Errorf("accept attribute not restricted:\n%s", body)
	}
	if !strings.Contains(body, `<option value="tesseract" selected>`) {
		t.Error("tesseract not selected")
	}
}

func TestIndex_UnknownLibrary(t *testing.T) {
	ts := newTestServer(t, Config{}, docpipe.Config{})
	if resp := get(t, ts.URL+"/?library=nope"); resp.StatusCode != 400 {
		t.Fatalf("status: %d", resp.StatusCode)
	}
}

func TestProcess_RendersDetailsAndResult(t *testing.T) {
	ts := newTestServer(t, Config{}, docpipe.Config{})
	raw := pdffixture.Text("Hello")
	resp := upload(t, ts.URL+"/process", "rscpdf", "hello.pdf", raw)
	body := readBody(t, resp)

	if resp.StatusCode != 200 {
		t.Fatalf("status: %d: %s", resp.StatusCode, body)
	}
	for _, s := range []string{
		"Detalhes do arquivo",
		"<strong>Nome:</strong> hello.pdf",
		"<strong>Tipo:</strong> application/pdf",
		"KB</p>",
		"--- Página 1 ---",
		"Hello",
		"Baixar resultado como arquivo de texto",
	} {
		if !strings.Contains(body, s) {
			t.Errorf("missing %q", s)
		}
	}
	if !regexp.MustCompile(`href="/results/res_[A-Za-z0-9_-]+/download"`).MatchString(body) {
		t.Error("download link missing")
	}
}

func TestProcess_RejectsExtensionBeforeProcessing(t *testing.T) {
	// WHAT: a PDF sent to an image-only library is refused with 415.
	// WHY: the upload form restricts file types per library; the server
	// enforces the same rule.
	ts := newTestServer(t, Config{}, docpipe.Config{})
	resp := upload(t, ts.URL+"/process", "tesseract", "doc.pdf", pdffixture.Text("Hello"))
	if resp.StatusCode != http.StatusUnsupportedMediaType {
		t.Fatalf("status: got %d, want 415", resp.StatusCode)
	}

	apiResp := upload(t, ts.URL+"/api/process", "tesseract", "doc.pdf", pdffixture.Text("Hello"))
	if apiResp.StatusCode != http.StatusUnsupportedMediaType {
		t.Fatalf("api status: got %d, want 415", apiResp.StatusCode)
	}
	var e map[string]string
	json.NewDecoder(apiResp.Body).Decode(&e)
	if !strings.Contains(e["error"], "doc.pdf") {
		t.Errorf("error: %q", e["error"])
	}
}

func TestProcess_UnknownLibrary(t *testing.T) {
	ts := newTestServer(t, Config{}, docpipe.Config{})
	resp := upload(t, ts.URL+"/process", "nope", "a.pdf", pdffixture.Text("x"))
	if resp.StatusCode != 400 {
		t.Fatalf("status: %d", resp.StatusCode)
	}
}

func TestProcess_BodyTooLarge(t *testing.T) {
	pipe := docpipe.New(docpipe.Config{WorkDir: t.TempDir(), OCR: stubOCR{}})
	h := New(pipe, Config{MaxUpload: 64}).Handler()

	var body bytes.Buffer
	mw := multipart.NewWriter(&body)
	mw.WriteField("library", "rscpdf")
	fw, _ := mw.CreateFormFile("file", "big.pdf")
	fw.Write(bytes.Repeat([]byte("x"), 2<<20))
	mw.Close()

	req := httptest.NewRequest("POST", "/api/process", &body)
	req.Header.Set("Content-Type", mw.FormDataContentType())
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	if rec.Code != http.StatusRequestEntityTooLarge {
		t.Fatalf("status: got %d, want 413: %s", rec.Code, rec.Body.String())
	}
}

// --- Download ---

func TestDownload_RoundTrip(t *testing.T) {
	// WHAT: the downloaded file is byte-for-byte the text shown.
	ts := newTestServer(t, Config{}, docpipe.Config{})
	resp := upload(t, ts.URL+"/api/process", "rscpdf", "hello.pdf", pdffixture.Text("Hello", "World"))
	if resp.StatusCode != 200 {
		t.Fatalf("status: %d", resp.StatusCode)
	}
	var pr processResp
	if err := json.NewDecoder(resp.Body).Decode(&pr); err != nil {
		t.Fatal(err)
	}
	if pr.Failed || pr.Library != docpipe.LibRscPDF || pr.Filename != "hello.pdf" {
		t.Fatalf("response: %+v", pr)
	}

	dl := get(t, ts.URL+pr.DownloadURL)
	if dl.StatusCode != 200 {
		t.Fatalf("download status: %d", dl.StatusCode)
	}
	if got := readBody(t, dl); got != pr.Text {
		t.Fatalf("download differs:\n%q\nshown:\n%q", got, pr.Text)
	}
	if ct := dl.Header.Get("Content-Type"); ct != "text/plain; charset=utf-8" {
		t.Errorf("content type: %q", ct)
	}
	disp, params, err := mime.ParseMediaType(dl.Header.Get("Content-Disposition"))
	if err != nil {
		t.Fatal(err)
	}
	if disp != "attachment" || params["filename"] != "hello.pdf_resultado.txt" {
		t.Errorf("disposition: %s %v", disp, params)
	}
}

func TestDownload_FailureTextToo(t *testing.T) {
	ts := newTestServer(t, Config{}, docpipe.Config{})
	resp := upload(t, ts.URL+"/api/process", "rscpdf", "bad.pdf", pdffixture.Corrupt())
	var pr processResp
	json.NewDecoder(resp.Body).Decode(&pr)
	if !pr.Failed || !docpipe.IsFailure(pr.Text) {
		t.Fatalf("expected failure: %+v", pr)
	}
	if got := readBody(t, get(t, ts.URL+pr.DownloadURL)); got != pr.Text {
		t.Fatalf("download %q, shown %q", got, pr.Text)
	}
}

func TestDownload_Unknown(t *testing.T) {
	ts := newTestServer(t, Config{}, docpipe.Config{})
	if resp := get(t, ts.URL+"/results/res_missing/download"); resp.StatusCode != 404 {
		t.Fatalf("status: %d", resp.StatusCode)
	}
}

// --- Attachments ---

func TestAttachment_BinarizePreview(t *testing.T) {
	ts := newTestServer(t, Config{}, docpipe.Config{})
	resp := upload(t, ts.URL+"/api/process", "binarize", "scan.png", pngBytes(t))
	var pr processResp
	json.NewDecoder(resp.Body).Decode(&pr)
	if pr.Failed || pr.Attachments != 1 {
		t.Fatalf("response: %+v", pr)
	}

	att := get(t, ts.URL+"/results/"+pr.ID+"/attachments/0")
	if att.StatusCode != 200 || att.Header.Get("Content-Type") != "image/png" {
		t.Fatalf("attachment: %d %s", att.StatusCode, att.Header.Get("Content-Type"))
	}
	if _, err := png.Decode(att.Body); err != nil {
		t.Errorf("not a png: %v", err)
	}
	if resp := get(t, ts.URL+"/results/"+pr.ID+"/attachments/1"); resp.StatusCode != 404 {
		t.Errorf("out of range: %d", resp.StatusCode)
	}
}

func TestProcess_RendersTableAttachment(t *testing.T) {
	ts := newTestServer(t, Config{}, docpipe.Config{})
	raw := pdffixture.Build(pdffixture.Page{Tables: []pdffixture.Grid{{
		X: 72, TopY: 700, ColWidth: 100, RowHeight: 20,
		Cells: [][]string{{"Nome", "Idade"}, {"Ana", "30"}},
		Ruled: true,
	}}})
	body := readBody(t, upload(t, ts.URL+"/process", "lattice", "tabela.pdf", raw))
	for _, s := range []string{"Tabela 1 (Página 1):", "<td>Ana</td>", "<td>30</td>"} {
		if !strings.Contains(body, s) {
			t.Errorf("missing %q", s)
		}
	}
}

// --- API ---

func TestAPI_Libraries(t *testing.T) {
	ts := newTestServer(t, Config{}, docpipe.Config{})
	var libs []docpipe.Descriptor
	if err := json.NewDecoder(get(t, ts.URL+"/api/libraries").Body).Decode(&libs); err != nil {
		t.Fatal(err)
	}
	if len(libs) != 11 || libs[10].ID != docpipe.LibTextLines {
		t.Fatalf("libraries: %+v", libs)
	}
}

func TestAPI_StatsDisabled(t *testing.T) {
	ts := newTestServer(t, Config{}, docpipe.Config{})
	if resp := get(t, ts.URL+"/api/stats"); resp.StatusCode != 404 {
		t.Fatalf("status: %d", resp.StatusCode)
	}
}

func TestAPI_Stats(t *testing.T) {
	db := dbopen.OpenMemory(t, dbopen.WithSchema(observability.Schema))
	events := observability.NewEventLogger(db)
	ts := newTestServer(t, Config{Events: events}, docpipe.Config{Events: events})

	upload(t, ts.URL+"/api/process", "rscpdf", "a.pdf", pdffixture.Text("Hello"))

	var stats []observability.LibraryStats
	if err := json.NewDecoder(get(t, ts.URL+"/api/stats").Body).Decode(&stats); err != nil {
		t.Fatal(err)
	}
	if len(stats) != 1 || stats[0].Library != "rscpdf" || stats[0].Runs != 1 {
		t.Fatalf("stats: %+v", stats)
	}
}

func TestAPI_StatsMetrics(t *testing.T) {
	// WHAT: each run's duration and upload size are listed per library.
	db := dbopen.OpenMemory(t, dbopen.WithSchema(observability.Schema))
	mm := observability.NewMetricsManager(db, 1, time.Hour)
	t.Cleanup(func() { mm.Close() })
	ts := newTestServer(t, Config{Metrics: mm}, docpipe.Config{Metrics: mm})

	raw := pdffixture.Text("Hello")
	upload(t, ts.URL+"/api/process", "rscpdf", "a.pdf", raw)

	var durations []observability.Metric
	if err := json.NewDecoder(get(t, ts.URL+"/api/stats/metrics").Body).Decode(&durations); err != nil {
		t.Fatal(err)
	}
	if len(durations) != 1 || durations[0].Name != observability.MetricExtractDurationMs {
		t.Fatalf("durations: %+v", durations)
	}
	if durations[0].Labels["library"] != "rscpdf" || durations[0].Labels["status"] != "ok" {
		t.Errorf("labels: %v", durations[0].Labels)
	}

	var sizes []observability.Metric
	if err := json.NewDecoder(get(t, ts.URL+"/api/stats/metrics?name=upload_bytes&since=1h").Body).Decode(&sizes); err != nil {
		t.Fatal(err)
	}
	if len(sizes) != 1 || sizes[0].Value != float64(len(raw)) {
		t.Fatalf("sizes: %+v", sizes)
	}

	for _, bad := range []string{"?limit=0", "?limit=abc", "?since=ontem"} {
		if resp := get(t, ts.URL+"/api/stats/metrics"+bad); resp.StatusCode != 400 {
			t.Errorf("%s: status %d", bad, resp.StatusCode)
		}
	}
}

func TestAPI_StatsMetricsDisabled(t *testing.T) {
	ts := newTestServer(t, Config{}, docpipe.Config{})
	if resp := get(t, ts.URL+"/api/stats/metrics"); resp.StatusCode != 404 {
		t.Fatalf("status: %d", resp.StatusCode)
	}
}

func TestHealthAndHeaders(t *testing.T) {
	ts := newTestServer(t, Config{}, docpipe.Config{})
	resp := get(t, ts.URL+"/health")
	if resp.StatusCode != 200 {
		t.Fatalf("status: %d", resp.StatusCode)
	}
	if resp.Header.Get("X-Content-Type-Options") != "nosniff" {
		t.Error("security headers missing")
	}
	if resp.Header.Get("X-Trace-ID") == "" {
		t.Error("trace id missing")
	}
	if !strings.HasPrefix(resp.Header.Get("X-Request-ID"), "req_") {
		t.Errorf("request id: %q", resp.Header.Get("X-Request-ID"))
	}
}

func TestMCPMounted(t *testing.T) {
	mcpHandler := http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusTeapot)
	})
	ts := newTestServer(t, Config{MCP: mcpHandler}, docpipe.Config{})
	if resp := get(t, ts.URL+"/mcp"); resp.StatusCode != http.StatusTeapot {
		t.Fatalf("status: %d", resp.StatusCode)
	}
}

func TestMCPMounted_JSONBodyAboveRawLimit(t *testing.T) {
	// WHAT: a JSON body bigger than MaxUpload but within its base64 size
	// reaches the MCP handler.
	// WHY: extract_process carries the file base64-encoded.
	var read int
	mcpHandler := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		data, err := io.ReadAll(r.Body)
		if err != nil {
			w.WriteHeader(http.StatusRequestEntityTooLarge)
			return
		}
		read = len(data)
	})
	ts := newTestServer(t, Config{MaxUpload: 300, MCP: mcpHandler}, docpipe.Config{})

	body := `{"content_base64":"` + strings.Repeat("A", 380) + `"}`
	resp, err := http.Post(ts.URL+"/mcp", "application/json", strings.NewReader(body))
	if err != nil {
		t.Fatal(err)
	}
	resp.Body.Close()
	if resp.StatusCode != http.StatusOK || read != len(body) {
		t.Fatalf("status %d, read %d of %d", resp.StatusCode, read, len(body))
	}
}

// --- Store ---

func TestStore_TTL(t *testing.T) {
	s := newResultStore(time.Minute, 10)
	now := time.Unix(1000, 0)
	s.now = func() time.Time { return now }

	e := s.put(&entry{FileName: "a.pdf"})
	if _, ok := s.get(e.ID); !ok {
		t.Fatal("fresh entry missing")
	}
	now = now.Add(2 * time.Minute)
	if _, ok := s.get(e.ID); ok {
		t.Fatal("expired entry returned")
	}
	s.put(&entry{FileName: "b.pdf"})
	if s.len() != 1 {
		t.Errorf("expired entry not evicted: %d", s.len())
	}
}

func TestStore_MaxEntries(t *testing.T) {
	s := newResultStore(time.Hour, 2)
	a := s.put(&entry{})
	b := s.put(&entry{})
	c := s.put(&entry{})
	if _, ok := s.get(a.ID); ok {
		t.Error("oldest entry kept")
	}
	for _, e := range []*entry{b, c} {
		if _, ok := s.get(e.ID); !ok {
			t.Errorf("entry %s evicted", e.ID)
		}
	}
	if !strings.HasPrefix(a.ID, "res_") {
		t.Errorf("id: %q", a.ID)
	}
}
