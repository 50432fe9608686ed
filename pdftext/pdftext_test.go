package pdftext

import (
	"strings"
	"testing"
)

// glyphs lays out s as Courier-like glyphs (0.6 em advance) starting at x.
func glyphs(x, y float64, s string) []Glyph {
	const size = 12
	var out []Glyph
	for _, r := range s {
		out = append(out, Glyph{X: x, Y: y, W: 0.6 * size, FontSize: size, S: string(r)})
		x += 0.6 * size
	}
	return out
}

func TestLines_OrderAndWords(t *testing.T) {
	// WHAT: glyphs from two baselines become two lines, top first, split on spaces.
	// WHY: Readers emit glyphs in content-stream order, not reading order.
	var gs []Glyph
	gs = append(gs, glyphs(72, 600, "second line")...)
	gs = append(gs, glyphs(72, 700, "Hello world")...)

	lines := Lines(gs)
	if len(lines) != 2 {
		t.Fatalf("lines: got %d, want 2", len(lines))
	}
	if got := lines[0].Text(); got != "Hello world" {
		t.Errorf("line 0: got %q", got)
	}
	if got := lines[1].Text(); got != "second line" {
		t.Errorf("line 1: got %q", got)
	}
	if n := len(lines[0].Words); n != 2 {
		t.Errorf("words on line 0: got %d, want 2", n)
	}
}

func TestLines_GapSplitsWords(t *testing.T) {
	var gs []Glyph
	gs = append(gs, glyphs(72, 700, "Nome")...)
	gs = append(gs, glyphs(200, 700, "Idade")...)

	words := Words(gs)
	if len(words) != 2 {
		t.Fatalf("words: got %d, want 2", len(words))
	}
	if words[0].Text != "Nome" || words[1].Text != "Idade" {
		t.Errorf("words: got %q, %q", words[0].Text, words[1].Text)
	}
	if words[1].X0 != 200 {
		t.Errorf("X0: got %v, want 200", words[1].X0)
	}
}

func TestLines_Empty(t *testing.T) {
	if lines := Lines(nil); lines != nil {
		t.Fatalf("expected nil, got %v", lines)
	}
	if s := Plain(nil); s != "" {
		t.Fatalf("Plain(nil) = %q", s)
	}
	if s := Layout(nil); s != "" {
		t.Fatalf("Layout(nil) = %q", s)
	}
}

func TestPlain(t *testing.T) {
	var gs []Glyph
	gs = append(gs, glyphs(72, 700, "a b")...)
	gs = append(gs, glyphs(72, 680, "c")...)
	if got := Plain(Lines(gs)); got != "a b\nc" {
		t.Fatalf("Plain: got %q", got)
	}
}

func TestLayout_KeepsColumns(t *testing.T) {
	// WHAT: words that start at the same x land in the same text column.
	// WHY: The layout renderer is meant to keep tabular alignment readable.
	var gs []Glyph
	gs = append(gs, glyphs(72, 700, "Nome")...)
	gs = append(gs, glyphs(72+0.6*12*10, 700, "Idade")...)
	gs = append(gs, glyphs(72, 680, "Ana")...)
	gs = append(gs, glyphs(72+0.6*12*10, 680, "30")...)

	out := Layout(Lines(gs))
	rows := strings.Split(out, "\n")
	if len(rows) != 2 {
		t.Fatalf("rows: got %d (%q)", len(rows), out)
	}
	if strings.Index(rows[0], "Idade") != 10 {
		t.Errorf("Idade column: got %d in %q", strings.Index(rows[0], "Idade"), rows[0])
	}
	if strings.Index(rows[1], "30") != 10 {
		t.Errorf("30 column: got %d in %q", strings.Index(rows[1], "30"), rows[1])
	}
}
