package tables

import (
	"math"
	"sort"

	"github.com/hazyhaar/extractlab/pdftext"
)

// segment is a run of words on one line not separated by a column gap.
type segment struct {
	x0, x1 float64
	text   string
}

// DetectStream finds whitespace-separated tables among the lines of a page.
func DetectStream(page int, lines []pdftext.Line, cfg Config) []Table {
	cfg.defaults()

	var out []Table
	var run [][]segment
	var runLines []pdftext.Line
	flush := func() {
		if len(run) >= cfg.MinRows {
			if t, ok := buildStream(page, run, runLines, cfg); ok {
				out = append(out, t)
			}
		}
		run, runLines = nil, nil
	}

	for _, l := range lines {
		segs := segments(l, cfg.ColumnGap)
		if len(segs) < cfg.MinCols {
			flush()
			continue
		}
		if n := len(runLines); n > 0 {
			prev := runLines[n-1]
			if prev.Y-l.Y > cfg.RowGap*l.FontSize() {
				flush()
			}
		}
		run = append(run, segs)
		runLines = append(runLines, l)
	}
	flush()
	return out
}

func segments(l pdftext.Line, gap float64) []segment {
	var segs []segment
	limit := gap * l.FontSize()
	for _, w := range l.Words {
		if n := len(segs); n > 0 && w.X0-segs[n-1].x1 < limit {
			segs[n-1].text = appendCell(segs[n-1].text, w.Text)
			segs[n-1].x1 = math.Max(segs[n-1].x1, w.X1)
			continue
		}
		segs = append(segs, segment{x0: w.X0, x1: w.X1, text: w.Text})
	}
	return segs
}

func buildStream(page int, run [][]segment, lines []pdftext.Line, cfg Config) (Table, bool) {
	var starts []float64
	for _, segs := range run {
		for _, s := range segs {
			starts = append(starts, s.x0)
		}
	}
	sort.Float64s(starts)

	tol := cfg.AlignTolerance * lines[0].FontSize()
	var anchors []float64
	for _, x := range starts {
		if len(anchors) == 0 || x-anchors[len(anchors)-1] > tol {
			anchors = append(anchors, x)
		}
	}
	if len(anchors) < cfg.MinCols {
		return Table{}, false
	}

	rows := make([][]string, len(run))
	for i, segs := range run {
		row := make([]string, len(anchors))
		for _, s := range segs {
			col := 0
			for j, a := range anchors {
				if a <= s.x0+tol {
					col = j
				}
			}
			row[col] = appendCell(row[col], cleanCell(s.text))
		}
		rows[i] = row
	}
	return Table{Page: page, Rows: rows}, true
}
