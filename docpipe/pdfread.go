package docpipe

import (
	"io"
	"math"

	lpdf "github.com/ledongthuc/pdf"
	rpdf "rsc.io/pdf"

	"github.com/hazyhaar/extractlab/pdftext"
	"github.com/hazyhaar/extractlab/tables"
)

// Readers report the same Text and Rect shapes from different packages.

func ledongthucGlyphs(c lpdf.Content) []pdftext.Glyph {
	out := make([]pdftext.Glyph, 0, len(c.Text))
	for _, t := range c.Text {
		out = append(out, pdftext.Glyph{X: t.X, Y: t.Y, W: t.W, FontSize: t.FontSize, S: t.S})
	}
	return out
}

func ledongthucRects(c lpdf.Content) []tables.Rect {
	out := make([]tables.Rect, 0, len(c.Rect))
	for _, r := range c.Rect {
		out = append(out, tables.Rect{X0: r.Min.X, Y0: r.Min.Y, X1: r.Max.X, Y1: r.Max.Y})
	}
	return out
}

func rscGlyphs(c rpdf.Content) []pdftext.Glyph {
	out := make([]pdftext.Glyph, 0, len(c.Text))
	for _, t := range c.Text {
		out = append(out, pdftext.Glyph{X: t.X, Y: t.Y, W: t.W, FontSize: t.FontSize, S: t.S})
	}
	return out
}

// pageRules returns the ruling boxes of a page: the rectangles the reader
// found plus the horizontal and vertical segments drawn with m and l.
func pageRules(page lpdf.Page, c lpdf.Content) []tables.Rect {
	rules := ledongthucRects(c)
	return append(rules, ruleSegments(contentBytes(page.V.Key("Contents")))...)
}

// contentBytes concatenates the decoded content streams of a page.
func contentBytes(v lpdf.Value) (data []byte) {
	// The reader panics on filters it does not implement.
	defer func() {
		if recover() != nil {
			data = nil
		}
	}()
	switch v.Kind() {
	case lpdf.Stream:
		rc := v.Reader()
		defer rc.Close()
		b, err := io.ReadAll(rc)
		if err != nil {
			return nil
		}
		return b
	case lpdf.Array:
		var out []byte
		for i := 0; i < v.Len(); i++ {
			out = append(out, contentBytes(v.Index(i))...)
			out = append(out, '\n')
		}
		return out
	}
	return nil
}

// minRuleLength drops dots and hairline ticks that are not table rules.
const minRuleLength = 2.0

// ruleSegments returns painted axis-aligned line segments as zero-width
// rectangles in page space. Rectangles drawn with re are left to the
// reader's own Rect list.
func ruleSegments(data []byte) []tables.Rect {
	ctm := identity
	var saved []matrix
	var path, out []tables.Rect
	var cx, cy, sx, sy float64

	segment := func(x0, y0, x1, y1 float64) {
		ax, ay := ctm.apply(x0, y0)
		bx, by := ctm.apply(x1, y1)
		dx, dy := math.Abs(bx-ax), math.Abs(by-ay)
		if (dx < 0.5 && dy >= minRuleLength) || (dy < 0.5 && dx >= minRuleLength) {
			path = append(path, tables.Rect{X0: ax, Y0: ay, X1: bx, Y1: by})
		}
	}

	walkContent(data, func(op string, args []operand) {
		switch op {
		case "q":
			saved = append(saved, ctm)
		case "Q":
			if n := len(saved); n > 0 {
				ctm, saved = saved[n-1], saved[:n-1]
			}
		case "cm":
			if v, ok := nums(args, 6); ok {
				ctm = matrix{v[0], v[1], v[2], v[3], v[4], v[5]}.mul(ctm)
			}
		case "m":
			if v, ok := nums(args, 2); ok {
				cx, cy = v[0], v[1]
				sx, sy = cx, cy
			}
		case "l":
			if v, ok := nums(args, 2); ok {
				segment(cx, cy, v[0], v[1])
				cx, cy = v[0], v[1]
			}
		case "re":
			if v, ok := nums(args, 4); ok {
				cx, cy = v[0], v[1]
				sx, sy = cx, cy
			}
		case "h":
			segment(cx, cy, sx, sy)
			cx, cy = sx, sy
		case "s", "b", "b*":
			segment(cx, cy, sx, sy)
			out = append(out, path...)
			path = nil
		case "S", "f", "F", "f*", "B", "B*":
			out = append(out, path...)
			path = nil
		case "n":
			path = nil
		}
	})
	return out
}
