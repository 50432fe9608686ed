// Package pdffixture builds small, fully valid PDF files in memory for tests.
//
// Every fixture uses the standard Courier font with an explicit /Widths array
// (600 units per glyph) so that readers computing glyph positions get stable,
// predictable coordinates. Content streams put one operator per line unless
// a page asks for the compact layout.
package pdffixture

import (
	"fmt"
	"strconv"
	"strings"
)

// FontSize is the font size used by every text operator in the fixtures.
const FontSize = 12

// Page describes one page: free text lines and optional tables.
type Page struct {
	Lines  []string
	Tables []Grid
	// Compact writes each text object on a single line, as
	// "BT /F1 12 Tf 72 720 Td (Hello) Tj ET".
	Compact bool
	// Hex writes strings as hex, as "<48656C6C6F> Tj".
	Hex bool
}

// Grid is a table placed on a page. TopY is the top edge in PDF user space.
type Grid struct {
	X         float64
	TopY      float64
	ColWidth  float64
	RowHeight float64
	Cells     [][]string
	// Ruled draws one stroked rectangle per cell.
	Ruled bool
	// Rules draws the grid lines as stroked m/l segments.
	Rules bool
}

// Text returns a PDF with one page per argument, each holding a single line.
func Text(pages ...string) []byte {
	ps := make([]Page, len(pages))
	for i, s := range pages {
		ps[i] = Page{Lines: []string{s}}
	}
	return Build(ps...)
}

// Build assembles a PDF from the given pages.
func Build(pages ...Page) []byte {
	if len(pages) == 0 {
		pages = []Page{{}}
	}

	// Object layout: 1 catalog, 2 pages, 3 font, then (page, content) pairs.
	objs := []string{
		"<< /Type /Catalog /Pages 2 0 R >>",
		"", // filled once page refs are known
		fontDict(),
	}

	kids := make([]string, 0, len(pages))
	for _, p := range pages {
		pageNr := len(objs) + 1
		contentNr := pageNr + 1
		kids = append(kids, fmt.Sprintf("%d 0 R", pageNr))
		stream := pageStream(p)
		objs = append(objs,
			fmt.Sprintf("<< /Type /Page /Parent 2 0 R /MediaBox [0 0 612 792] /Contents %d 0 R /Resources << /Font << /F1 3 0 R >> >> >>", contentNr),
			"<< /Length "+strconv.Itoa(len(stream))+" >>\nstream\n"+stream+"\nendstream",
		)
	}
	objs[1] = fmt.Sprintf("<< /Type /Pages /Kids [%s] /Count %d >>", strings.Join(kids, " "), len(pages))

	var b strings.Builder
	b.WriteString("%PDF-1.4\n")
	offsets := make([]int, len(objs)+1)
	for i, body := range objs {
		offsets[i+1] = b.Len()
		fmt.Fprintf(&b, "%d 0 obj\n%s\nendobj\n", i+1, body)
	}

	xref := b.Len()
	fmt.Fprintf(&b, "xref\n0 %d\n", len(objs)+1)
	b.WriteString("0000000000 65535 f \n")
	for i := 1; i <= len(objs); i++ {
		fmt.Fprintf(&b, "%010d 00000 n \n", offsets[i])
	}
	fmt.Fprintf(&b, "trailer\n<< /Size %d /Root 1 0 R >>\nstartxref\n%d\n%%%%EOF\n", len(objs)+1, xref)
	return []byte(b.String())
}

// Corrupt returns bytes that no PDF or image decoder accepts.
func Corrupt() []byte {
	return []byte("%PDF-1.4\nthis is not a real document\n%%EOF")
}

func fontDict() string {
	widths := make([]string, 126-32+1)
	for i := range widths {
		widths[i] = "600"
	}
	return "<< /Type /Font /Subtype /Type1 /BaseFont /Courier /Encoding /WinAnsiEncoding /FirstChar 32 /LastChar 126 /Widths [" +
		strings.Join(widths, " ") + "] >>"
}

func pageStream(p Page) string {
	var b strings.Builder
	y := 720.0
	for _, line := range p.Lines {
		writeText(&b, p, 72, y, line)
		y -= 2 * FontSize
	}
	for _, g := range p.Tables {
		writeGrid(&b, p, g)
	}
	return strings.TrimSuffix(b.String(), "\n")
}

func writeText(b *strings.Builder, p Page, x, y float64, s string) {
	str := "(" + escape(s) + ")"
	if p.Hex {
		str = fmt.Sprintf("<%X>", s)
	}
	ops := []string{
		"BT",
		fmt.Sprintf("/F1 %d Tf", FontSize),
		fmt.Sprintf("%s %s Td", num(x), num(y)),
		str + " Tj",
		"ET",
	}
	sep := "\n"
	if p.Compact {
		sep = " "
	}
	b.WriteString(strings.Join(ops, sep))
	b.WriteByte('\n')
}

func writeGrid(b *strings.Builder, p Page, g Grid) {
	if g.Rules {
		writeRules(b, g)
	}
	for r, row := range g.Cells {
		top := g.TopY - float64(r)*g.RowHeight
		for c, cell := range row {
			left := g.X + float64(c)*g.ColWidth
			if g.Ruled {
				fmt.Fprintf(b, "%s %s %s %s re\n", num(left), num(top-g.RowHeight), num(g.ColWidth), num(g.RowHeight))
				b.WriteString("S\n")
			}
			if cell != "" {
				writeText(b, p, left+4, top-g.RowHeight+6, cell)
			}
		}
	}
}

func writeRules(b *strings.Builder, g Grid) {
	rows := len(g.Cells)
	cols := 0
	for _, row := range g.Cells {
		cols = max(cols, len(row))
	}
	right := g.X + float64(cols)*g.ColWidth
	bottom := g.TopY - float64(rows)*g.RowHeight
	for r := 0; r <= rows; r++ {
		y := g.TopY - float64(r)*g.RowHeight
		fmt.Fprintf(b, "%s %s m\n%s %s l\nS\n", num(g.X), num(y), num(right), num(y))
	}
	for c := 0; c <= cols; c++ {
		x := g.X + float64(c)*g.ColWidth
		fmt.Fprintf(b, "%s %s m\n%s %s l\nS\n", num(x), num(g.TopY), num(x), num(bottom))
	}
}

func escape(s string) string {
	s = strings.ReplaceAll(s, `\`, `\\`)
	s = strings.ReplaceAll(s, "(", `\(`)
	return strings.ReplaceAll(s, ")", `\)`)
}

func num(f float64) string {
	return strconv.FormatFloat(f, 'f', -1, 64)
}
