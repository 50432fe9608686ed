package tables

import (
	"math"
	"sort"

	"github.com/hazyhaar/extractlab/pdftext"
)

// Rect is an axis-aligned rectangle in PDF user space (y grows upwards).
type Rect struct {
	X0, Y0, X1, Y1 float64
}

func (r Rect) normalize() Rect {
	if r.X0 > r.X1 {
		r.X0, r.X1 = r.X1, r.X0
	}
	if r.Y0 > r.Y1 {
		r.Y0, r.Y1 = r.Y1, r.Y0
	}
	return r
}

func (r Rect) touches(o Rect, tol float64) bool {
	return r.X0-tol <= o.X1 && o.X0-tol <= r.X1 &&
		r.Y0-tol <= o.Y1 && o.Y0-tol <= r.Y1
}

func (r Rect) contains(x, y float64) bool {
	return x >= r.X0 && x <= r.X1 && y >= r.Y0 && y <= r.Y1
}

// DetectLattice finds ruled tables: groups of touching rectangles whose
// edges form a grid of at least two cells that holds some text.
func DetectLattice(page int, rects []Rect, words []pdftext.Word, cfg Config) []Table {
	cfg.defaults()
	if len(rects) == 0 {
		return nil
	}
	norm := make([]Rect, len(rects))
	for i, r := range rects {
		norm[i] = r.normalize()
	}

	var out []Table
	for _, group := range groupRects(norm, cfg.EdgeTolerance) {
		if t, ok := buildLattice(page, group, words, cfg); ok {
			out = append(out, t)
		}
	}
	return out
}

// groupRects clusters rectangles that touch, keeping groups in top-down order.
func groupRects(rects []Rect, tol float64) [][]Rect {
	parent := make([]int, len(rects))
	for i := range parent {
		parent[i] = i
	}
	var find func(int) int
	find = func(i int) int {
		for parent[i] != i {
			parent[i] = parent[parent[i]]
			i = parent[i]
		}
		return i
	}
	for i := range rects {
		for j := i + 1; j < len(rects); j++ {
			if rects[i].touches(rects[j], tol) {
				parent[find(i)] = find(j)
			}
		}
	}

	byRoot := make(map[int][]Rect)
	var roots []int
	for i, r := range rects {
		root := find(i)
		if _, ok := byRoot[root]; !ok {
			roots = append(roots, root)
		}
		byRoot[root] = append(byRoot[root], r)
	}
	groups := make([][]Rect, 0, len(roots))
	for _, root := range roots {
		groups = append(groups, byRoot[root])
	}
	sort.SliceStable(groups, func(i, j int) bool {
		return bounds(groups[i]).Y1 > bounds(groups[j]).Y1
	})
	return groups
}

func bounds(rs []Rect) Rect {
	b := Rect{X0: math.MaxFloat64, Y0: math.MaxFloat64, X1: -math.MaxFloat64, Y1: -math.MaxFloat64}
	for _, r := range rs {
		b.X0 = math.Min(b.X0, r.X0)
		b.Y0 = math.Min(b.Y0, r.Y0)
		b.X1 = math.Max(b.X1, r.X1)
		b.Y1 = math.Max(b.Y1, r.Y1)
	}
	return b
}

func buildLattice(page int, group []Rect, words []pdftext.Word, cfg Config) (Table, bool) {
	var xs, ys []float64
	for _, r := range group {
		xs = append(xs, r.X0, r.X1)
		ys = append(ys, r.Y0, r.Y1)
	}
	xs = mergeEdges(xs, cfg.EdgeTolerance)
	ys = mergeEdges(ys, cfg.EdgeTolerance)
	cols, rows := len(xs)-1, len(ys)-1
	if cols < 1 || rows < 1 || cols*rows < 2 {
		return Table{}, false
	}

	// Rows run top to bottom while ys ascend, so row index counts from the top.
	grid := make([][]string, rows)
	for i := range grid {
		grid[i] = make([]string, cols)
	}
	box := bounds(group)
	filled := false
	for _, w := range words {
		cx := w.CenterX()
		cy := w.Y + w.FontSize*0.3
		if !box.contains(cx, cy) {
			continue
		}
		c := slot(xs, cx)
		r := rows - 1 - slot(ys, cy)
		if c < 0 || r < 0 || r >= rows {
			continue
		}
		grid[r][c] = appendCell(grid[r][c], cleanCell(w.Text))
		filled = true
	}
	if !filled {
		return Table{}, false
	}
	return Table{Page: page, Rows: grid}, true
}

func mergeEdges(vs []float64, tol float64) []float64 {
	sort.Float64s(vs)
	var out []float64
	for _, v := range vs {
		if len(out) == 0 || v-out[len(out)-1] > tol {
			out = append(out, v)
		}
	}
	return out
}

// slot returns i such that edges[i] <= v < edges[i+1], or -1.
func slot(edges []float64, v float64) int {
	for i := 0; i+1 < len(edges); i++ {
		if v >= edges[i] && v < edges[i+1] {
			return i
		}
	}
	if n := len(edges); n >= 2 && v == edges[n-1] {
		return n - 2
	}
	return -1
}
