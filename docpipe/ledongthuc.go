package docpipe

import (
	"bytes"
	"context"
	"fmt"
	"strings"

	lpdf "github.com/ledongthuc/pdf"
)

// extractLedongthuc returns each page's plain text as decoded by the reader,
// in content-stream order.
func (p *Pipeline) extractLedongthuc(ctx context.Context, raw []byte) (*Output, error) {
	r, err := lpdf.NewReader(bytes.NewReader(raw), int64(len(raw)))
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
		text, err := page.GetPlainText(nil)
		if err != nil {
			return nil, &PageError{Page: i, Err: err}
		}
		b.WriteString(text)
	}
	return &Output{Text: b.String()}, nil
}
