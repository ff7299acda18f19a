package renderer

import (
	"fmt"
	"image"
	"image/color"
	"math"
	"testing"

	"github.com/richinsley/rosecolored/picking"
)

// gradient gives every texel its own color so a sample identifies its texel.
func gradient(w, h int) *image.RGBA {
	img := image.NewRGBA(image.Rect(0, 0, w, h))
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			img.SetRGBA(x, y, color.RGBA{uint8(40 + 30*x), uint8(40 + 30*y), 90, 255})
		}
	}
	return img
}

// nearEdge reports whether a texel coordinate sits too close to a texel
// boundary for float32 rasterization and float64 mapping to agree.
func nearEdge(t float64) bool {
	return math.Abs(t-math.Round(t)) < 1e-3
}

// checkPicking clicks every pixel of the frame and verifies the mapped UV
// names the texel that is drawn there, or lands outside the photo where the
// background shows.
func checkPicking(t *testing.T, s *Surface, photo *image.RGBA) {
	t.Helper()
	img := frame(t, s)
	w, h := s.Size()
	iw, ih := photo.Bounds().Dx(), photo.Bounds().Dy()
	box := picking.Box{Width: float64(w), Height: float64(h)}
	checked := 0
	for py := 0; py < h; py++ {
		for px := 0; px < w; px++ {
			uv, err := picking.Map(picking.Point{X: float64(px) + 0.5, Y: float64(py) + 0.5}, box, iw, ih)
			if err != nil {
				t.Fatal(err)
			}
			tx, ty := uv.U*float64(iw), uv.V*float64(ih)
			if nearEdge(tx) || nearEdge(ty) {
				continue
			}
			got := img.RGBAAt(px, py)
			if !uv.InRange() {
				if got.B != 0 {
					t.Errorf("%dx%d pixel (%d,%d): uv %v is outside the photo but shows %v", w, h, px, py, uv, got)
				}
				continue
			}
			want := photo.RGBAAt(int(tx), int(ty))
			if !closeTo(got, want, 1) {
				t.Errorf("%dx%d pixel (%d,%d): uv %v names texel %v but %v is drawn", w, h, px, py, uv, want, got)
			}
			checked++
		}
	}
	if checked == 0 {
		t.Fatalf("%dx%d: no pixel of the photo was checked", w, h)
	}
}

func TestSurface_DrawnPhotoMatchesPicking(t *testing.T) {
	wide, tall := gradient(6, 2), gradient(2, 6)
	loader := newFakeLoader()
	loader.add("wide", wide)
	loader.add("tall", tall)
	s := newSurface(t, SurfaceOptions{Loader: loader, Width: 16, Height: 8})

	steps := []struct {
		photo         string
		width, height int
	}{
		{"wide", 16, 8},
		{"wide", 8, 8},
		{"tall", 8, 8},
		{"tall", 12, 6},
	}
	for _, step := range steps {
		t.Run(fmt.Sprintf("%s in %dx%d", step.photo, step.width, step.height), func(t *testing.T) {
			if err := s.Resize(step.width, step.height); err != nil {
				t.Fatal(err)
			}
			if err := s.SetPhotoURL(step.photo); err != nil {
				t.Fatal(err)
			}
			if err := await(t, s); err != nil {
				t.Fatal(err)
			}
			photo := wide
			if step.photo == "tall" {
				photo = tall
			}
			checkPicking(t, s, photo)
		})
	}
}
