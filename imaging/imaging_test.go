package imaging

import (
	"bytes"
	"errors"
	"image"
	"image/color"
	"image/png"
	"testing"

	"golang.org/x/image/tiff"
)

func bimodal(w, h int) *image.Gray {
	g := image.NewGray(image.Rect(0, 0, w, h))
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			v := uint8(20)
			if x >= w/2 {
				v = 220
			}
			g.SetGray(x, y, color.Gray{Y: v})
		}
	}
	return g
}

func TestOtsu_Bimodal(t *testing.T) {
	// WHAT: Otsu picks a threshold that separates the two gray levels.
	g := bimodal(10, 4)
	th := Otsu(g)
	if th < 20 || th >= 220 {
		t.Fatalf("threshold %d does not separate 20 and 220", th)
	}
	out := Threshold(g, th)
	if out.GrayAt(0, 0).Y != 0 || out.GrayAt(9, 0).Y != 255 {
		t.Fatalf("binarized pixels: %d, %d", out.GrayAt(0, 0).Y, out.GrayAt(9, 0).Y)
	}
}

func TestBinarize_OnlyBlackAndWhite(t *testing.T) {
	src := image.NewRGBA(image.Rect(0, 0, 8, 8))
	for i := range src.Pix {
		src.Pix[i] = uint8(i * 7)
	}
	for _, v := range Binarize(src).Pix {
		if v != 0 && v != 255 {
			t.Fatalf("unexpected gray level %d", v)
		}
	}
}

func TestDecode_Formats(t *testing.T) {
	g := bimodal(6, 3)

	var pngBuf, tiffBuf bytes.Buffer
	if err := png.Encode(&pngBuf, g); err != nil {
		t.Fatal(err)
	}
	if err := tiff.Encode(&tiffBuf, g, nil); err != nil {
		t.Fatal(err)
	}

	for name, data := range map[string][]byte{"png": pngBuf.Bytes(), "tiff": tiffBuf.Bytes()} {
		img, format, err := Decode(data)
		if err != nil {
			t.Fatalf("%s: %v", name, err)
		}
		if format != name {
			t.Errorf("format: got %q, want %q", format, name)
		}
		if img.Bounds().Dx() != 6 || img.Bounds().Dy() != 3 {
			t.Errorf("%s bounds: %v", name, img.Bounds())
		}
	}
}

func TestDecode_Errors(t *testing.T) {
	if _, _, err := Decode(nil); !errors.Is(err, ErrEmpty) {
		t.Fatalf("empty: got %v", err)
	}
	if _, _, err := Decode([]byte("definitely not an image")); err == nil {
		t.Fatal("expected decode error")
	}
}

func TestSideBySide_Size(t *testing.T) {
	a := image.NewGray(image.Rect(0, 0, 30, 20))
	b := image.NewGray(image.Rect(0, 0, 40, 10))
	out := SideBySide(a, b, "Original", "Processada (Threshold)")
	if got := out.Bounds().Dx(); got != 30+gutter+40 {
		t.Errorf("width: got %d", got)
	}
	if got := out.Bounds().Dy(); got != titleHeight+20 {
		t.Errorf("height: got %d", got)
	}
}

func TestAnnotate_DrawsRedOutline(t *testing.T) {
	src := image.NewGray(image.Rect(0, 0, 100, 60))
	for i := range src.Pix {
		src.Pix[i] = 255
	}
	out := Annotate(src, []Box{{Rect: image.Rect(10, 20, 50, 40), Label: "texto"}})
	if c := out.RGBAAt(10, 30); c != red {
		t.Errorf("left edge: got %v, want red", c)
	}
	if c := out.RGBAAt(30, 30); c.R != 255 || c.G != 255 || c.B != 255 {
		t.Errorf("inside box should stay white, got %v", c)
	}
}

func TestFit(t *testing.T) {
	img := image.NewGray(image.Rect(0, 0, 200, 100))
	if got := Fit(img, 50).Bounds(); got.Dx() != 50 || got.Dy() != 25 {
		t.Errorf("scaled bounds: %v", got)
	}
	if got := Fit(img, 500); got != image.Image(img) {
		t.Error("narrow image should be returned unchanged")
	}
}

func TestTruncate(t *testing.T) {
	if got := Truncate("curto", 20); got != "curto" {
		t.Errorf("got %q", got)
	}
	if got := Truncate("uma linha bem comprida demais", 20); got != "uma linha bem compri..." {
		t.Errorf("got %q", got)
	}
}
