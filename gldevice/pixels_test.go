package gldevice

import (
	"image"
	"image/color"
	"testing"
)

func TestFlipRows(t *testing.T) {
	for _, h := range []int{1, 2, 3, 4} {
		img := image.NewRGBA(image.Rect(0, 0, 2, h))
		for y := 0; y < h; y++ {
			img.SetRGBA(0, y, color.RGBA{uint8(y), 0, 0, 255})
		}
		flipRows(img)
		for y := 0; y < h; y++ {
			if got := img.RGBAAt(0, y).R; int(got) != h-1-y {
				t.Errorf("h=%d row %d holds %d", h, y, got)
			}
		}
	}
}

func TestTightPixels(t *testing.T) {
	parent := image.NewNRGBA(image.Rect(0, 0, 4, 3))
	parent.SetNRGBA(1, 1, color.NRGBA{1, 2, 3, 4})
	parent.SetNRGBA(2, 2, color.NRGBA{5, 6, 7, 8})
	sub := parent.SubImage(image.Rect(1, 1, 3, 3)).(*image.NRGBA)

	pix := tightPixels(sub)
	if len(pix) != 2*2*4 {
		t.Fatalf("len = %d", len(pix))
	}
	if pix[0] != 1 || pix[12] != 5 {
		t.Errorf("pixels = %v", pix)
	}

	whole := image.NewNRGBA(image.Rect(0, 0, 2, 2))
	if &tightPixels(whole)[0] != &whole.Pix[0] {
		t.Error("packed image should not be copied")
	}
}
