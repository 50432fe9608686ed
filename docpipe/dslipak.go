package docpipe

import (
	"bytes"
	"context"
	"fmt"
	"strings"

	dpdf "github.com/dslipak/pdf"

	"github.com/hazyhaar/extractlab/pdftext"
)

var infoFields = []struct{ key, label string }{
	{"Title", "Título"},
	{"Author", "Autor"},
	{"Producer", "Produtor"},
}

// extractDslipak renders pages keeping horizontal layout and prepends the
// document information dictionary when it has any of the known fields.
func (p *Pipeline) extractDslipak(ctx context.Context, raw []byte) (*Output, error) {
	r, err := dpdf.NewReader(bytes.NewReader(raw), int64(len(raw)))
	if err != nil {
		return nil, fmt.Errorf("abrir PDF: %w", err)
	}

	var b strings.Builder
	info := r.Trailer().Key("Info")
	for _, f := range infoFields {
		if v := strings.TrimSpace(info.Key(f.key).Text()); v != "" {
			fmt.Fprintf(&b, "%s: %s\n", f.label, v)
		}
	}

	for i := 1; i <= r.NumPage(); i++ {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		writePageHeader(&b, i)
		page := r.Page(i)
		if page.V.IsNull() {
			continue
		}
		c := page.Content()
		glyphs := make([]pdftext.Glyph, 0, len(c.Text))
		for _, t := range c.Text {
			glyphs = append(glyphs, pdftext.Glyph{X: t.X, Y: t.Y, W: t.W, FontSize: t.FontSize, S: t.S})
		}
		b.WriteString(pdftext.Layout(pdftext.Lines(glyphs)))
	}
	return &Output{Text: b.String()}, nil
}
