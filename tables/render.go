package tables

import (
	"strconv"
	"strings"

	"github.com/mattn/go-runewidth"
)

// Render prints t as a fixed-width grid: a left-aligned row index followed by
// right-aligned columns separated by two spaces. With header set, the first
// row labels the columns; otherwise columns are numbered from 0.
func Render(t Table, header bool) string {
	cols := t.NumCols()
	if cols == 0 {
		return ""
	}
	rows := t.Rows
	labels := make([]string, cols)
	if header {
		copy(labels, rows[0])
		rows = rows[1:]
	} else {
		for i := range labels {
			labels[i] = strconv.Itoa(i)
		}
	}

	index := make([]string, len(rows))
	indexW := 0
	for i := range rows {
		index[i] = strconv.Itoa(i)
		indexW = max(indexW, runewidth.StringWidth(index[i]))
	}

	widths := make([]int, cols)
	for c := range widths {
		widths[c] = runewidth.StringWidth(labels[c])
		for _, r := range rows {
			if c < len(r) {
				widths[c] = max(widths[c], runewidth.StringWidth(r[c]))
			}
		}
	}

	var b strings.Builder
	writeRow := func(idx string, cells []string) {
		line := runewidth.FillRight(idx, indexW)
		for c := 0; c < cols; c++ {
			var v string
			if c < len(cells) {
				v = cells[c]
			}
			line += "  " + runewidth.FillLeft(v, widths[c])
		}
		b.WriteString(strings.TrimRight(line, " "))
		b.WriteByte('\n')
	}
	writeRow("", labels)
	for i, r := range rows {
		writeRow(index[i], r)
	}
	return strings.TrimSuffix(b.String(), "\n")
}
