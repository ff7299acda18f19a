package colorspace

import (
	"math"
	"math/rand"
	"testing"

	colorful "github.com/lucasb-eyer/go-colorful"
)

func near(a, b, tol float32) bool {
	return math.Abs(float64(a-b)) <= float64(tol)
}

// hueDistance measures on the circle so 0.999 and 0.001 are neighbours.
func hueDistance(a, b float32) float32 {
	d := abs32(a - b)
	if d > 0.5 {
		d = 1 - d
	}
	return d
}

func randomColor(rng *rand.Rand) Color {
	return Color{rng.Float32(), rng.Float32(), rng.Float32()}
}

func TestRGBToHSV_Primaries(t *testing.T) {
	tests := []struct {
		name string
		in   Color
		want HSV
	}{
		{"black", Color{0, 0, 0}, HSV{0, 0, 0}},
		{"white", Color{1, 1, 1}, HSV{0, 0, 1}},
		{"red", Color{1, 0, 0}, HSV{0, 1, 1}},
		{"green", Color{0, 1, 0}, HSV{1.0 / 3.0, 1, 1}},
		{"blue", Color{0, 0, 1}, HSV{2.0 / 3.0, 1, 1}},
		{"yellow", Color{1, 1, 0}, HSV{1.0 / 6.0, 1, 1}},
		{"cyan", Color{0, 1, 1}, HSV{0.5, 1, 1}},
		{"magenta", Color{1, 0, 1}, HSV{5.0 / 6.0, 1, 1}},
		{"half gray", Color{0.5, 0.5, 0.5}, HSV{0, 0, 0.5}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := RGBToHSV(tt.in)
			if hueDistance(got.H, tt.want.H) > 1e-5 || !near(got.S, tt.want.S, 1e-5) || !near(got.V, tt.want.V, 1e-5) {
				t.Errorf("RGBToHSV(%v) = %+v, want %+v", tt.in, got, tt.want)
			}
		})
	}
}

func TestRGBToHSV_MatchesColorful(t *testing.T) {
	rng := rand.New(rand.NewSource(7))
	for i := 0; i < 2000; i++ {
		c := randomColor(rng)
		got := RGBToHSV(c)
		h, s, v := colorful.Color{R: float64(c.R), G: float64(c.G), B: float64(c.B)}.Hsv()
		if !near(got.V, float32(v), 1e-5) || !near(got.S, float32(s), 1e-4) {
			t.Fatalf("RGBToHSV(%v) = %+v, colorful says s=%v v=%v", c, got, s, v)
		}
		if s > 1e-3 && hueDistance(got.H, float32(h/360)) > 1e-4 {
			t.Fatalf("RGBToHSV(%v).H = %v, colorful says %v", c, got.H, h/360)
		}
	}
}

func TestHSVRoundTrip(t *testing.T) {
	rng := rand.New(rand.NewSource(1))
	check := func(c Color) {
		t.Helper()
		got := HSVToRGB(RGBToHSV(c))
		if !near(got.R, c.R, 1e-4) || !near(got.G, c.G, 1e-4) || !near(got.B, c.B, 1e-4) {
			t.Fatalf("round trip of %v gave %v", c, got)
		}
	}
	for i := 0; i < 5000; i++ {
		check(randomColor(rng))
	}

	// Zero chroma: hue is meaningless but value must survive.
	for _, g := range []float32{0, 1e-6, 0.25, 0.5, 1} {
		c := Color{g, g, g}
		hsv := RGBToHSV(c)
		if hsv.S != 0 {
			t.Errorf("gray %v: saturation = %v, want 0", g, hsv.S)
		}
		check(c)
	}
}

func TestShade_FullMaskKeepsLightness(t *testing.T) {
	rng := rand.New(rand.NewSource(3))
	for i := 0; i < 2000; i++ {
		p := randomColor(rng)
		c := randomColor(rng)
		ph, ch := RGBToHSV(p), RGBToHSV(c)

		out := RGBToHSV(Shade(p, 1, c))
		if !near(out.V, ph.V, 1e-5) {
			t.Fatalf("value changed: photo %v target %v: got %v want %v", p, c, out.V, ph.V)
		}
		if ph.V < 0.05 {
			continue
		}
		if !near(out.S, ch.S, 1e-3) {
			t.Fatalf("saturation: photo %v target %v: got %v want %v", p, c, out.S, ch.S)
		}
		if ch.S > 0.1 && hueDistance(out.H, ch.H) > 1e-3 {
			t.Fatalf("hue: photo %v target %v: got %v want %v", p, c, out.H, ch.H)
		}
	}
}

func TestShade_ZeroMaskIsIdentity(t *testing.T) {
	rng := rand.New(rand.NewSource(5))
	for i := 0; i < 2000; i++ {
		p := randomColor(rng)
		c := randomColor(rng)
		if got := Shade(p, 0, c); got != p {
			t.Fatalf("Shade(%v, 0, %v) = %v, want the photo pixel", p, c, got)
		}
	}
}

func TestShade_PartialMaskInterpolates(t *testing.T) {
	p := Color{0.8, 0.6, 0.4}
	c := Color{0, 0, 1}
	full := Shade(p, 1, c)
	half := Shade(p, 0.5, c)
	want := Color{(p.R + full.R) / 2, (p.G + full.G) / 2, (p.B + full.B) / 2}
	if !near(half.R, want.R, 1e-6) || !near(half.G, want.G, 1e-6) || !near(half.B, want.B, 1e-6) {
		t.Errorf("half mask = %v, want %v", half, want)
	}
}
