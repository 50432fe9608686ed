// Package pdftext rebuilds words and lines from positioned glyphs.
//
// PDF readers such as rsc.io/pdf and github.com/ledongthuc/pdf report page
// content as individual glyphs with an origin, an advance width and a font
// size. This package groups them into words (glyphs on the same baseline with
// no visible gap) and lines (words sharing a baseline), top of page first.
package pdftext

import (
	"math"
	"sort"
	"strings"
)

// Glyph is one positioned piece of text as reported by a PDF reader.
type Glyph struct {
	X, Y     float64
	W        float64
	FontSize float64
	S        string
}

// Word is a run of adjacent glyphs on one baseline.
type Word struct {
	X0, X1   float64
	Y        float64
	FontSize float64
	Text     string
}

// CenterX returns the horizontal midpoint of the word.
func (w Word) CenterX() float64 { return (w.X0 + w.X1) / 2 }

// Line is a set of words sharing a baseline, ordered left to right.
type Line struct {
	Y     float64
	Words []Word
}

// FontSize returns the largest font size on the line.
func (l Line) FontSize() float64 {
	var fs float64
	for _, w := range l.Words {
		fs = math.Max(fs, w.FontSize)
	}
	if fs == 0 {
		return 10
	}
	return fs
}

// Text joins the words with single spaces.
func (l Line) Text() string {
	parts := make([]string, len(l.Words))
	for i, w := range l.Words {
		parts[i] = w.Text
	}
	return strings.Join(parts, " ")
}

// wordGap is the fraction of the font size above which two glyphs no longer
// belong to the same word.
const wordGap = 0.2

// Lines groups glyphs into lines, top of the page first.
func Lines(glyphs []Glyph) []Line {
	if len(glyphs) == 0 {
		return nil
	}
	gs := make([]Glyph, len(glyphs))
	copy(gs, glyphs)
	sort.SliceStable(gs, func(i, j int) bool { return gs[i].Y > gs[j].Y })

	var rows [][]Glyph
	var row []Glyph
	rowY := gs[0].Y
	for _, g := range gs {
		tol := math.Max(sizeOf(g)*0.5, 1)
		if len(row) > 0 && math.Abs(g.Y-rowY) > tol {
			rows = append(rows, row)
			row = nil
		}
		if len(row) == 0 {
			rowY = g.Y
		}
		row = append(row, g)
	}
	if len(row) > 0 {
		rows = append(rows, row)
	}

	lines := make([]Line, 0, len(rows))
	for _, r := range rows {
		sort.SliceStable(r, func(i, j int) bool { return r[i].X < r[j].X })
		words := groupWords(r)
		if len(words) == 0 {
			continue
		}
		lines = append(lines, Line{Y: r[0].Y, Words: words})
	}
	return lines
}

// Words returns every word of the page in reading order.
func Words(glyphs []Glyph) []Word {
	var out []Word
	for _, l := range Lines(glyphs) {
		out = append(out, l.Words...)
	}
	return out
}

func groupWords(row []Glyph) []Word {
	var words []Word
	var cur *Word
	flush := func() {
		if cur != nil && strings.TrimSpace(cur.Text) != "" {
			words = append(words, *cur)
		}
		cur = nil
	}
	for _, g := range row {
		if strings.TrimSpace(g.S) == "" {
			flush()
			continue
		}
		if cur != nil && g.X-cur.X1 > sizeOf(g)*wordGap {
			flush()
		}
		if cur == nil {
			cur = &Word{X0: g.X, X1: g.X + g.W, Y: g.Y, FontSize: sizeOf(g)}
		}
		cur.Text += g.S
		cur.X1 = math.Max(cur.X1, g.X+g.W)
		cur.FontSize = math.Max(cur.FontSize, sizeOf(g))
	}
	flush()
	return words
}

func sizeOf(g Glyph) float64 {
	if g.FontSize <= 0 {
		return 10
	}
	return g.FontSize
}

// Plain renders lines as text, one line per row, words separated by a space.
func Plain(lines []Line) string {
	var b strings.Builder
	for i, l := range lines {
		if i > 0 {
			b.WriteByte('\n')
		}
		b.WriteString(l.Text())
	}
	return b.String()
}

// Layout renders lines keeping their horizontal placement: each word starts
// at the column matching its x offset, measured in average glyph widths.
func Layout(lines []Line) string {
	if len(lines) == 0 {
		return ""
	}
	minX := math.MaxFloat64
	var widthSum float64
	var glyphs int
	for _, l := range lines {
		for _, w := range l.Words {
			minX = math.Min(minX, w.X0)
			n := len([]rune(w.Text))
			if n > 0 && w.X1 > w.X0 {
				widthSum += w.X1 - w.X0
				glyphs += n
			}
		}
	}
	charW := lines[0].FontSize() * 0.5
	if glyphs > 0 {
		charW = widthSum / float64(glyphs)
	}

	var b strings.Builder
	for i, l := range lines {
		if i > 0 {
			b.WriteByte('\n')
		}
		col := 0
		for j, w := range l.Words {
			target := int(math.Round((w.X0 - minX) / charW))
			pad := target - col
			if j > 0 && pad < 1 {
				pad = 1
			}
			if pad > 0 {
				b.WriteString(strings.Repeat(" ", pad))
				col += pad
			}
			b.WriteString(w.Text)
			col += len([]rune(w.Text))
		}
	}
	return b.String()
}
