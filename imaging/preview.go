package imaging

import (
	"image"
	"image/color"

	"golang.org/x/image/draw"
	"golang.org/x/image/font"
	"golang.org/x/image/font/basicfont"
	"golang.org/x/image/math/fixed"
)

const (
	titleHeight = 20
	gutter      = 10
)

var (
	red  = color.RGBA{R: 255, A: 255}
	blue = color.RGBA{B: 255, A: 255}
)

// SideBySide places left and right next to each other on a white canvas, each
// under its title.
func SideBySide(left, right image.Image, leftTitle, rightTitle string) *image.RGBA {
	lb, rb := left.Bounds(), right.Bounds()
	w := lb.Dx() + gutter + rb.Dx()
	h := titleHeight + max(lb.Dy(), rb.Dy())
	dst := image.NewRGBA(image.Rect(0, 0, w, h))
	fill(dst, color.White)

	draw.Draw(dst, image.Rect(0, titleHeight, lb.Dx(), titleHeight+lb.Dy()), left, lb.Min, draw.Src)
	x := lb.Dx() + gutter
	draw.Draw(dst, image.Rect(x, titleHeight, x+rb.Dx(), titleHeight+rb.Dy()), right, rb.Min, draw.Src)

	label(dst, 2, titleHeight-6, leftTitle, color.Black)
	label(dst, x+2, titleHeight-6, rightTitle, color.Black)
	return dst
}

// Box is a labelled region to outline on an image.
type Box struct {
	Rect  image.Rectangle
	Label string
}

// Annotate draws each box as a red outline with its label in blue just above
// it, on a copy of img.
func Annotate(img image.Image, boxes []Box) *image.RGBA {
	b := img.Bounds()
	dst := image.NewRGBA(image.Rect(0, 0, b.Dx(), b.Dy()))
	fill(dst, color.White)
	draw.Draw(dst, dst.Bounds(), img, b.Min, draw.Over)

	for _, bx := range boxes {
		r := bx.Rect.Sub(b.Min).Intersect(dst.Bounds())
		if r.Empty() {
			continue
		}
		outline(dst, r, red, 2)
		y := r.Min.Y - 3
		if y < 12 {
			y = r.Max.Y + 12
		}
		label(dst, r.Min.X, y, bx.Label, blue)
	}
	return dst
}

// Truncate shortens s to n runes, appending "..." when it was cut.
func Truncate(s string, n int) string {
	rs := []rune(s)
	if len(rs) <= n {
		return s
	}
	return string(rs[:n]) + "..."
}

func outline(dst *image.RGBA, r image.Rectangle, c color.Color, width int) {
	u := image.NewUniform(c)
	for i := 0; i < width; i++ {
		draw.Draw(dst, image.Rect(r.Min.X, r.Min.Y+i, r.Max.X, r.Min.Y+i+1), u, image.Point{}, draw.Src)
		draw.Draw(dst, image.Rect(r.Min.X, r.Max.Y-1-i, r.Max.X, r.Max.Y-i), u, image.Point{}, draw.Src)
		draw.Draw(dst, image.Rect(r.Min.X+i, r.Min.Y, r.Min.X+i+1, r.Max.Y), u, image.Point{}, draw.Src)
		draw.Draw(dst, image.Rect(r.Max.X-1-i, r.Min.Y, r.Max.X-i, r.Max.Y), u, image.Point{}, draw.Src)
	}
}

func label(dst draw.Image, x, y int, s string, c color.Color) {
	d := &font.Drawer{
		Dst:  dst,
		Src:  image.NewUniform(c),
		Face: basicfont.Face7x13,
		Dot:  fixed.P(x, y),
	}
	d.DrawString(s)
}
