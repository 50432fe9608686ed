package docpipe

import (
	"bytes"
	"context"
	"fmt"
	"strings"

	lpdf "github.com/ledongthuc/pdf"
	rpdf "rsc.io/pdf"

	"github.com/hazyhaar/extractlab/pdftext"
	"github.com/hazyhaar/extractlab/tables"
)

// extractLattice finds ruled tables on every page. Cells are read from the
// rectangles and ruling lines drawn on the page; columns are numbered from 0.
func (p *Pipeline) extractLattice(ctx context.Context, raw []byte) (*Output, error) {
	r, err := lpdf.NewReader(bytes.NewReader(raw), int64(len(raw)))
	if err != nil {
		return nil, fmt.Errorf("abrir PDF: %w", err)
	}
	cfg := tables.DefaultConfig()

	var found []tables.Table
	for i := 1; i <= r.NumPage(); i++ {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		page := r.Page(i)
		if page.V.IsNull() {
			continue
		}
		c := page.Content()
		words := pdftext.Words(ledongthucGlyphs(c))
		found = append(found, tables.DetectLattice(i, pageRules(page, c), words, cfg)...)
	}

	text, atts := tableReport(found, false, true)
	return &Output{Text: text, Attachments: atts}, nil
}

// extractStream finds tables from column alignment alone. The first row of
// each table labels its columns.
func (p *Pipeline) extractStream(ctx context.Context, raw []byte) (*Output, error) {
	r, err := rpdf.NewReader(bytes.NewReader(raw), int64(len(raw)))
	if err != nil {
		return nil, fmt.Errorf("abrir PDF: %w", err)
	}
	cfg := tables.DefaultConfig()

	var found []tables.Table
	for i := 1; i <= r.NumPage(); i++ {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		page := r.Page(i)
		if page.V.IsNull() {
			continue
		}
		lines := pdftext.Lines(rscGlyphs(page.Content()))
		found = append(found, tables.DetectStream(i, lines, cfg)...)
	}

	text, atts := tableReport(found, true, false)
	return &Output{Text: text, Attachments: atts}, nil
}

// extractPlumber writes each page's text followed by the tables found on
// it. Ruled tables win; pages without rulings fall back to alignment.
func (p *Pipeline) extractPlumber(ctx context.Context, raw []byte) (*Output, error) {
	r, err := lpdf.NewReader(bytes.NewReader(raw), int64(len(raw)))
	if err != nil {
		return nil, fmt.Errorf("abrir PDF: %w", err)
	}
	cfg := tables.DefaultConfig()

	var b strings.Builder
	var atts []Attachment
	for i := 1; i <= r.NumPage(); i++ {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		writePageHeader(&b, i)
		page := r.Page(i)
		if page.V.IsNull() {
			b.WriteString(noPageText)
			continue
		}
		c := page.Content()
		lines := pdftext.Lines(ledongthucGlyphs(c))
		if text := pdftext.Plain(lines); text != "" {
			b.WriteString(text)
		} else {
			b.WriteString(noPageText)
		}

		var words []pdftext.Word
		for _, l := range lines {
			words = append(words, l.Words...)
		}
		found := tables.DetectLattice(i, pageRules(page, c), words, cfg)
		if len(found) == 0 {
			found = tables.DetectStream(i, lines, cfg)
		}
		if len(found) == 0 {
			continue
		}

		fmt.Fprintf(&b, "\n  %d tabelas encontradas nesta página.\n", len(found))
		for j := range found {
			fmt.Fprintf(&b, "\n  Tabela %d:\n", j+1)
			b.WriteString(tables.Render(found[j], true))
			b.WriteByte('\n')
			if i == 1 && j == 0 {
				atts = append(atts, Attachment{
					Kind:    AttachTable,
					Caption: fmt.Sprintf("Exemplo de tabela extraída (Página %d):", i),
					Table:   &found[j],
				})
			}
		}
	}
	return &Output{Text: b.String(), Attachments: atts}, nil
}
