package shader

import (
	"errors"
	"image"
	"image/color"
	"strings"
	"testing"

	"github.com/richinsley/rosecolored/colorspace"
	"github.com/richinsley/rosecolored/graphics"
	"github.com/richinsley/rosecolored/softdevice"
)

// fullscreen covers clip space when drawn with the identity matrix.
var fullscreen = []float32{
	-1, -1, 0, 0,
	1, -1, 1, 0,
	1, 1, 1, 1,
	-1, 1, 0, 1,
}

var quadIndices = []uint16{0, 1, 2, 0, 2, 3}

func solid(w, h int, c color.RGBA) *image.NRGBA {
	img := image.NewNRGBA(image.Rect(0, 0, w, h))
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			img.Set(x, y, c)
		}
	}
	return img
}

type fixture struct {
	dev   *softdevice.Device
	prog  *Program
	photo graphics.Texture
	mask  graphics.Texture
	mesh  graphics.Mesh
}

func newFixture(t *testing.T, w, h int) *fixture {
	t.Helper()
	dev := softdevice.New(w, h)
	Register(dev)
	prog, err := NewProgram(dev)
	if err != nil {
		t.Fatalf("NewProgram: %v", err)
	}
	photo, _ := dev.NewTexture()
	mask, _ := dev.NewTexture()
	mesh, err := dev.NewMesh(fullscreen, quadIndices)
	if err != nil {
		t.Fatalf("NewMesh: %v", err)
	}
	return &fixture{dev: dev, prog: prog, photo: photo, mask: mask, mesh: mesh}
}

func (f *fixture) draw(t *testing.T) *image.RGBA {
	t.Helper()
	Bind(f.dev, f.prog)
	f.dev.BindTexture(PhotoUnit, f.photo)
	f.dev.BindTexture(MaskUnit, f.mask)
	f.dev.Clear([4]float32{0, 0, 0, 1})
	f.dev.DrawMesh(f.mesh, f.prog.Position, f.prog.Texcoord)
	Unbind(f.dev, f.prog)
	out, err := f.dev.ReadPixels()
	if err != nil {
		t.Fatal(err)
	}
	return out
}

func TestSourcesDeclareBindings(t *testing.T) {
	for _, name := range []string{AttribPosition, AttribTexcoord, UniformClipMatrix} {
		if !strings.Contains(VertexSource, name) {
			t.Errorf("vertex source does not mention %s", name)
		}
	}
	for _, name := range []string{UniformPhoto, UniformMask, UniformColor, "1.0e-10"} {
		if !strings.Contains(FragmentSource, name) {
			t.Errorf("fragment source does not mention %s", name)
		}
	}
	if !strings.Contains(VertexSource, "1.0 - a_texcoord.y") {
		t.Error("vertex source should flip the V coordinate")
	}
}

func TestNewProgram_CompileFailure(t *testing.T) {
	dev := softdevice.New(4, 4) // nothing registered
	prog, err := NewProgram(dev)
	if prog != nil {
		t.Fatal("expected a nil program on compile failure")
	}
	if !errors.Is(err, graphics.ErrShaderCompile) {
		t.Fatalf("err = %v, want ErrShaderCompile", err)
	}
}

func TestNewProgram_Locations(t *testing.T) {
	f := newFixture(t, 2, 2)
	p := f.prog
	for name, loc := range map[string]int32{
		"position": p.Position, "texcoord": p.Texcoord, "photo": p.Photo,
		"mask": p.Mask, "clip": p.ClipMatrix, "color": p.ColorLoc,
	} {
		if loc < 0 {
			t.Errorf("%s location = %d", name, loc)
		}
	}
	if p.Color != colorspace.Gray {
		t.Errorf("initial color = %v, want gray", p.Color)
	}
}

func TestDraw_ZeroMaskShowsPhoto(t *testing.T) {
	f := newFixture(t, 4, 4)
	photoColor := color.RGBA{200, 120, 40, 255}
	if err := f.dev.UploadTexture(f.photo, solid(2, 2, photoColor)); err != nil {
		t.Fatal(err)
	}
	SetColor(f.dev, f.prog, colorspace.Color{R: 0, G: 0, B: 1})
	out := f.draw(t)
	for y := 0; y < 4; y++ {
		for x := 0; x < 4; x++ {
			if got := out.RGBAAt(x, y); got != photoColor {
				t.Fatalf("pixel (%d,%d) = %v, want %v", x, y, got, photoColor)
			}
		}
	}
}

func TestDraw_FullMaskRecolors(t *testing.T) {
	f := newFixture(t, 4, 4)
	f.dev.UploadTexture(f.photo, solid(2, 2, color.RGBA{200, 120, 40, 255}))
	f.dev.UploadTexture(f.mask, solid(2, 2, color.RGBA{255, 255, 255, 255}))
	target := colorspace.Color{R: 0.1, G: 0.3, B: 0.9}
	SetColor(f.dev, f.prog, target)

	out := f.draw(t)
	got := out.RGBAAt(1, 1)
	hsv := colorspace.RGBToHSV(colorspace.Color{
		R: float32(got.R) / 255, G: float32(got.G) / 255, B: float32(got.B) / 255,
	})
	want := colorspace.RGBToHSV(target)
	if d := hsv.H - want.H; d > 0.01 || d < -0.01 {
		t.Errorf("hue = %v, want %v", hsv.H, want.H)
	}
	if d := hsv.V - 200.0/255; d > 0.01 || d < -0.01 {
		t.Errorf("value = %v, want the photo's %v", hsv.V, 200.0/255)
	}
}

func TestDraw_ImageRowZeroIsTop(t *testing.T) {
	f := newFixture(t, 4, 4)
	photo := image.NewNRGBA(image.Rect(0, 0, 1, 2))
	photo.SetNRGBA(0, 0, color.NRGBA{255, 0, 0, 255})
	photo.SetNRGBA(0, 1, color.NRGBA{0, 0, 255, 255})
	f.dev.UploadTexture(f.photo, photo)

	out := f.draw(t)
	if got := out.RGBAAt(0, 0); got.R != 255 || got.B != 0 {
		t.Errorf("top-left = %v, want red", got)
	}
	if got := out.RGBAAt(0, 3); got.B != 255 || got.R != 0 {
		t.Errorf("bottom-left = %v, want blue", got)
	}
}

func TestSetColor_TakesEffectNextDraw(t *testing.T) {
	f := newFixture(t, 2, 2)
	f.dev.UploadTexture(f.photo, solid(1, 1, color.RGBA{128, 128, 128, 255}))
	f.dev.UploadTexture(f.mask, solid(1, 1, color.RGBA{255, 0, 0, 255}))

	SetColor(f.dev, f.prog, colorspace.Color{R: 1, G: 0, B: 0})
	red := f.draw(t).RGBAAt(0, 0)
	SetColor(f.dev, f.prog, colorspace.Color{R: 0, G: 1, B: 0})
	green := f.draw(t).RGBAAt(0, 0)

	if red.R <= red.G || green.G <= green.R {
		t.Errorf("red draw = %v, green draw = %v", red, green)
	}
}

func TestSetColor_Clamps(t *testing.T) {
	f := newFixture(t, 1, 1)
	SetColor(f.dev, f.prog, colorspace.Color{R: 2, G: -1, B: 0.5})
	if f.prog.Color != (colorspace.Color{R: 1, G: 0, B: 0.5}) {
		t.Errorf("color = %v", f.prog.Color)
	}
}

func TestDelete(t *testing.T) {
	f := newFixture(t, 1, 1)
	Delete(f.dev, f.prog)
	if f.prog.Handle != 0 {
		t.Error("handle should be cleared")
	}
	Delete(f.dev, f.prog)
	Delete(f.dev, nil)
}
