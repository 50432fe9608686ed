// Package tables detects tabular data on PDF pages and renders it as
// fixed-width text.
//
// Two detectors are provided:
//
//   - [DetectStream] finds tables from text alignment alone: consecutive lines
//     split into several cells by wide horizontal gaps, with cells aligned on
//     shared column anchors.
//   - [DetectLattice] finds tables from drawn rectangles: touching rectangles
//     form a grid whose edges define rows and columns, and words are assigned
//     to the cell containing their center.
//
// Both work on words produced by the pdftext package, so they are independent
// of the PDF reader that produced the glyphs.
package tables

import "strings"

// Table is a detected table. Rows are top to bottom; every row has the same
// number of cells.
type Table struct {
	Page int
	Rows [][]string
}

// NumRows returns the number of rows.
func (t Table) NumRows() int { return len(t.Rows) }

// NumCols returns the number of columns.
func (t Table) NumCols() int {
	if len(t.Rows) == 0 {
		return 0
	}
	return len(t.Rows[0])
}

// Config controls detection thresholds. Distances are in font-size units.
type Config struct {
	MinRows int
	MinCols int
	// ColumnGap is the horizontal gap that separates two cells on a line.
	ColumnGap float64
	// AlignTolerance is how far a cell start may drift from its column anchor.
	AlignTolerance float64
	// RowGap is the vertical gap that ends a stream table.
	RowGap float64
	// EdgeTolerance merges lattice edges closer than this many points.
	EdgeTolerance float64
}

// DefaultConfig returns the thresholds used by the extraction pipeline.
func DefaultConfig() Config {
	return Config{
		MinRows:        2,
		MinCols:        2,
		ColumnGap:      1.0,
		AlignTolerance: 1.0,
		RowGap:         3.0,
		EdgeTolerance:  2.0,
	}
}

func (c *Config) defaults() {
	d := DefaultConfig()
	if c.MinRows <= 0 {
		c.MinRows = d.MinRows
	}
	if c.MinCols <= 0 {
		c.MinCols = d.MinCols
	}
	if c.ColumnGap <= 0 {
		c.ColumnGap = d.ColumnGap
	}
	if c.AlignTolerance <= 0 {
		c.AlignTolerance = d.AlignTolerance
	}
	if c.RowGap <= 0 {
		c.RowGap = d.RowGap
	}
	if c.EdgeTolerance <= 0 {
		c.EdgeTolerance = d.EdgeTolerance
	}
}

func appendCell(cur, s string) string {
	if cur == "" {
		return s
	}
	return cur + " " + s
}

func cleanCell(s string) string {
	s = strings.ReplaceAll(s, "\r", " ")
	return strings.TrimSpace(strings.ReplaceAll(s, "\n", " "))
}
