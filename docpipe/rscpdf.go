package docpipe

import (
	"bytes"
	"context"
	"fmt"
	"strings"

	rpdf "rsc.io/pdf"

	"github.com/hazyhaar/extractlab/pdftext"
)

// extractRscPDF rebuilds lines from positioned glyphs, so text comes out in
// reading order even when the content stream is not.
func (p *Pipeline) extractRscPDF(ctx context.Context, raw []byte) (*Output, error) {
	r, err := rpdf.NewReader(bytes.NewReader(raw), int64(len(raw)))
	if err != nil {
		return nil, fmt.Errorf("abrir PDF: %w", err)
	}

	var b strings.Builder
	for i := 1; i <= r.NumPage(); i++ {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		writePageHeader(&b, i)
		page := r.Page(i)
		if page.V.IsNull() {
			continue
		}
		b.WriteString(pdftext.Plain(pdftext.Lines(rscGlyphs(page.Content()))))
	}
	return &Output{Text: b.String()}, nil
}
