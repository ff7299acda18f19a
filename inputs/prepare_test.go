package inputs

import (
	"image"
	"image/color"
	"testing"
)

func TestToNRGBA_RebasesOrigin(t *testing.T) {
	src := image.NewRGBA(image.Rect(5, 5, 7, 8))
	src.SetRGBA(5, 5, color.RGBA{255, 0, 0, 255})
	got := ToNRGBA(src)
	if got.Rect != image.Rect(0, 0, 2, 3) {
		t.Fatalf("rect = %v", got.Rect)
	}
	if c := got.NRGBAAt(0, 0); c.R != 255 {
		t.Errorf("origin pixel = %v, want red", c)
	}
}

func TestToNRGBA_PassThrough(t *testing.T) {
	src := image.NewNRGBA(image.Rect(0, 0, 2, 2))
	if ToNRGBA(src) != src {
		t.Error("an origin-anchored NRGBA should be returned as is")
	}
}

func TestToNRGBA_KeepsStraightAlpha(t *testing.T) {
	src := image.NewNRGBA(image.Rect(1, 1, 2, 2))
	src.SetNRGBA(1, 1, color.NRGBA{200, 100, 50, 128})
	// a premultiplied copy would darken the color to roughly half
	if got := ToNRGBA(src).NRGBAAt(0, 0); got != (color.NRGBA{200, 100, 50, 128}) {
		t.Errorf("texel = %v, want the unpremultiplied color", got)
	}
}

func TestFit(t *testing.T) {
	tests := []struct {
		name         string
		w, h, limit  int
		wantW, wantH int
	}{
		{"under limit", 10, 10, 16, 10, 10},
		{"no limit", 100, 50, 0, 100, 50},
		{"wide", 100, 50, 20, 20, 10},
		{"tall", 30, 120, 60, 15, 60},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			b := Fit(image.NewRGBA(image.Rect(0, 0, tt.w, tt.h)), tt.limit).Bounds()
			if b.Dx() != tt.wantW || b.Dy() != tt.wantH {
				t.Errorf("Fit = %dx%d, want %dx%d", b.Dx(), b.Dy(), tt.wantW, tt.wantH)
			}
		})
	}
}

func TestPrepareMask(t *testing.T) {
	mask := image.NewGray(image.Rect(0, 0, 9, 9))
	for y := 0; y < 9; y++ {
		for x := 5; x < 9; x++ {
			mask.SetGray(x, y, color.Gray{255})
		}
	}
	if PrepareMask(0)(mask) != image.Image(mask) {
		t.Error("zero sigma should not touch the mask")
	}
	soft := ToNRGBA(PrepareMask(1.5)(mask))
	edge := soft.NRGBAAt(4, 4).R
	if edge == 0 || edge == 255 {
		t.Errorf("feathered edge = %d, want a partial value", edge)
	}
}
