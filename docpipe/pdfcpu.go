package docpipe

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"strings"
	"unicode"
	"unicode/utf8"

	"github.com/pdfcpu/pdfcpu/pkg/api"
	"github.com/pdfcpu/pdfcpu/pkg/pdfcpu"
	"github.com/pdfcpu/pdfcpu/pkg/pdfcpu/model"
	"github.com/pdfcpu/pdfcpu/pkg/pdfcpu/types"

	"github.com/hazyhaar/extractlab/kit"
)

// extractPdfcpu validates the document with pdfcpu and reads text operators
// straight from each page's content stream. It also scores the extraction so
// the UI can suggest OCR for scanned documents.
func (p *Pipeline) extractPdfcpu(ctx context.Context, raw []byte) (*Output, error) {
	conf := model.NewDefaultConfiguration()
	pctx, err := api.ReadValidateAndOptimize(bytes.NewReader(raw), conf)
	if err != nil {
		return nil, fmt.Errorf("pdfcpu read: %w", err)
	}

	var b, all strings.Builder
	chars := 0
	for pageNr := 1; pageNr <= pctx.PageCount; pageNr++ {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		writePageHeader(&b, pageNr)
		text, err := pageStreamText(pctx, pageNr)
		if err != nil {
			return nil, &PageError{Page: pageNr, Err: err}
		}
		b.WriteString(text)
		chars += utf8.RuneCountInString(text)
		if all.Len() > 0 {
			all.WriteByte('\n')
		}
		all.WriteString(text)
	}

	full := all.String()
	q := &ExtractionQuality{
		PageCount:       pctx.PageCount,
		PrintableRatio:  computePrintableRatio(full),
		WordlikeRatio:   computeWordlikeRatio(full),
		HasImageStreams: detectImageStreams(pctx),
		VisualRefCount:  countVisualRefs(full),
	}
	if pctx.PageCount > 0 {
		q.CharsPerPage = float64(chars) / float64(pctx.PageCount)
	}
	if q.NeedsOCR() {
		p.logger.Info("docpipe: pdf likely needs OCR", "library", kit.GetLibrary(ctx), "pages", q.PageCount, "chars_per_page", q.CharsPerPage)
	}
	return &Output{Text: b.String(), Quality: q}, nil
}

// pageStreamText extracts text from a single page's content stream. A page
// without content yields "".
func pageStreamText(ctx *model.Context, pageNr int) (string, error) {
	r, err := pdfcpu.ExtractPageContent(ctx, pageNr)
	if err != nil {
		return "", fmt.Errorf("page content: %w", err)
	}
	if r == nil {
		return "", nil
	}
	data, err := io.ReadAll(r)
	if err != nil {
		return "", fmt.Errorf("read page content: %w", err)
	}
	return extractTextFromStream(data), nil
}

// detectImageStreams checks if the PDF contains image XObjects.
func detectImageStreams(ctx *model.Context) bool {
	if ctx.Optimize != nil {
		for pageNr := 1; pageNr <= ctx.PageCount; pageNr++ {
			if len(pdfcpu.ImageObjNrs(ctx, pageNr)) > 0 {
				return true
			}
		}
	}
	// Fallback: scan XRefTable for image subtype objects.
	for _, entry := range ctx.Table {
		if entry == nil || entry.Free || entry.Compressed {
			continue
		}
		sd, ok := entry.Object.(types.StreamDict)
		if !ok {
			continue
		}
		if subtype, found := sd.Find("Subtype"); found {
			if name, isName := subtype.(types.Name); isName && name == "Image" {
				return true
			}
		}
	}
	return false
}

// tjWordGap is the TJ adjustment, in thousandths of text space, below which
// a positioning offset reads as a space between words.
const tjWordGap = -200

// extractTextFromStream runs the content stream operators and keeps the
// text they show. Moves to a new line, and new text objects, start a new
// output line.
func extractTextFromStream(data []byte) string {
	var sb strings.Builder
	newline := func() {
		if sb.Len() > 0 {
			sb.WriteByte('\n')
		}
	}
	space := func() {
		if sb.Len() > 0 {
			sb.WriteByte(' ')
		}
	}
	show := func(args []operand) {
		if n := len(args); n > 0 && args[n-1].kind == opString {
			sb.WriteString(textOf(args[n-1].str))
		}
	}
	lineY, haveY := 0.0, false

	walkContent(data, func(op string, args []operand) {
		switch op {
		case "BT", "T*":
			newline()
			haveY = false
		case "Td", "TD":
			if v, ok := nums(args, 2); ok && v[1] == 0 {
				space()
				return
			}
			newline()
		case "Tm":
			v, ok := nums(args, 6)
			if !ok {
				newline()
				haveY = false
				return
			}
			if haveY && v[5] == lineY {
				space()
				return
			}
			newline()
			lineY, haveY = v[5], true
		case "Tj":
			show(args)
		case "'", "\"":
			newline()
			show(args)
		case "TJ":
			if n := len(args); n > 0 && args[n-1].kind == opArray {
				for _, e := range args[n-1].arr {
					switch {
					case e.kind == opString:
						sb.WriteString(textOf(e.str))
					case e.kind == opNumber && e.num < tjWordGap:
						sb.WriteByte(' ')
					}
				}
			}
		}
	})
	return cleanPDFText(sb.String())
}

// cleanPDFText collapses runs of blanks inside lines and drops empty lines
// and non-printable runes.
func cleanPDFText(text string) string {
	var lines []string
	for _, l := range strings.Split(text, "\n") {
		var sb strings.Builder
		prevSpace := false
		for _, r := range l {
			switch {
			case unicode.IsSpace(r):
				if !prevSpace && sb.Len() > 0 {
					sb.WriteByte(' ')
					prevSpace = true
				}
			case unicode.IsPrint(r):
				sb.WriteRune(r)
				prevSpace = false
			}
		}
		if s := strings.TrimSpace(sb.String()); s != "" {
			lines = append(lines, s)
		}
	}
	return strings.Join(lines, "\n")
}
