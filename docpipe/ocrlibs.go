package docpipe

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/hazyhaar/extractlab/imaging"
	"github.com/hazyhaar/extractlab/ocr"
)

// previewWidth bounds the width of preview images shown in the UI.
const previewWidth = 1000

func (p *Pipeline) recognize(ctx context.Context, img []byte, langs []string, lines bool) (ocr.Result, error) {
	res, err := p.cfg.OCR.Recognize(ctx, img, ocr.Options{Languages: langs, DPI: p.cfg.DPI, Lines: lines})
	if err != nil {
		return ocr.Result{}, fmt.Errorf("ocr %s: %w", p.cfg.OCR.Name(), err)
	}
	return res, nil
}

// extractTesseract runs OCR on the uploaded image as is.
func (p *Pipeline) extractTesseract(ctx context.Context, raw []byte) (*Output, error) {
	if _, _, err := imaging.Decode(raw); err != nil {
		return nil, err
	}
	res, err := p.recognize(ctx, raw, p.cfg.OCRLanguages, false)
	if err != nil {
		return nil, err
	}
	return &Output{Text: res.Text}, nil
}

// extractBinarized converts the image to black and white with Otsu's
// threshold before OCR and shows both versions side by side.
func (p *Pipeline) extractBinarized(ctx context.Context, raw []byte) (*Output, error) {
	img, _, err := imaging.Decode(raw)
	if err != nil {
		return nil, err
	}
	bin := imaging.Binarize(img)

	preview, err := imaging.EncodePNG(imaging.SideBySide(
		imaging.Fit(img, previewWidth/2), imaging.Fit(bin, previewWidth/2),
		"Original", "Processada (Threshold)"))
	if err != nil {
		return nil, err
	}

	data, err := imaging.EncodePNG(bin)
	if err != nil {
		return nil, err
	}
	res, err := p.recognize(ctx, data, p.cfg.OCRLanguages, false)
	if err != nil {
		return nil, err
	}
	return &Output{
		Text:        res.Text,
		Attachments: []Attachment{{Kind: AttachImage, Caption: "Original | Processada (Threshold)", PNG: preview}},
	}, nil
}

// extractPdftoppm renders every page with pdftoppm and runs OCR on each one.
func (p *Pipeline) extractPdftoppm(ctx context.Context, raw []byte) (*Output, error) {
	dir, err := p.scratch()
	if err != nil {
		return nil, err
	}
	defer os.RemoveAll(dir)

	in := filepath.Join(dir, "input.pdf")
	if err := os.WriteFile(in, raw, 0o600); err != nil {
		return nil, fmt.Errorf("write input: %w", err)
	}
	pages, err := p.raster.Rasterize(ctx, in, dir)
	if err != nil {
		return nil, err
	}

	var b strings.Builder
	var atts []Attachment
	for i, path := range pages {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, &PageError{Page: i + 1, Err: err}
		}
		res, err := p.recognize(ctx, data, p.cfg.OCRLanguages, false)
		if err != nil {
			return nil, &PageError{Page: i + 1, Err: err}
		}
		writePageHeader(&b, i+1)
		b.WriteString(res.Text)

		if i == 0 {
			img, _, err := imaging.Decode(data)
			if err != nil {
				return nil, &PageError{Page: 1, Err: err}
			}
			preview, err := imaging.EncodePNG(imaging.Fit(img, previewWidth))
			if err != nil {
				return nil, err
			}
			atts = append(atts, Attachment{Kind: AttachImage, Caption: "Página 1", PNG: preview})
		}
	}
	return &Output{Text: b.String(), Attachments: atts}, nil
}

// extractTextLines returns one recognized line per row and draws each line's
// box and label over the image.
func (p *Pipeline) extractTextLines(ctx context.Context, raw []byte) (*Output, error) {
	img, _, err := imaging.Decode(raw)
	if err != nil {
		return nil, err
	}
	res, err := p.recognize(ctx, raw, p.cfg.TextLinesLanguages, true)
	if err != nil {
		return nil, err
	}

	boxes := make([]imaging.Box, 0, len(res.Lines))
	for _, l := range res.Lines {
		boxes = append(boxes, imaging.Box{Rect: l.Box, Label: imaging.Truncate(l.Text, 20)})
	}
	text := res.LineText()
	if text == "" {
		text = strings.TrimSpace(res.Text)
	}
	if text != "" {
		text += "\n"
	}

	loaded, err := imaging.EncodePNG(imaging.Fit(img, previewWidth))
	if err != nil {
		return nil, err
	}
	annotated, err := imaging.EncodePNG(imaging.Annotate(img, boxes))
	if err != nil {
		return nil, err
	}
	return &Output{
		Text: text,
		Attachments: []Attachment{
			{Kind: AttachImage, Caption: "Imagem carregada", PNG: loaded},
			{Kind: AttachImage, Caption: "Linhas detectadas", PNG: annotated},
		},
	}, nil
}
