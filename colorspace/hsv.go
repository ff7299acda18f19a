package colorspace

import "math"

// Epsilon keeps the hue and saturation divisions finite when chroma is zero.
const Epsilon = 1.0e-10

// HSV holds hue, saturation and value, each in [0,1].
type HSV struct {
	H, S, V float32
}

// RGBToHSV converts with the branch-free sector folding used by the shader:
//
//	K = (0, -1/3, 2/3, -1)
//	p = mix((b, g, K.w, K.z), (g, b, K.x, K.y), step(b, g))
//	q = mix((p.x, p.y, p.w, r), (r, p.y, p.z, p.x), step(p.x, r))
func RGBToHSV(c Color) HSV {
	kx, ky, kz, kw := float32(0), float32(-1.0/3.0), float32(2.0/3.0), float32(-1)

	t := step(c.B, c.G)
	px := mix(c.B, c.G, t)
	py := mix(c.G, c.B, t)
	pz := mix(kw, kx, t)
	pw := mix(kz, ky, t)

	t = step(px, c.R)
	qx := mix(px, c.R, t)
	qy := mix(py, py, t)
	qz := mix(pw, pz, t)
	qw := mix(c.R, px, t)

	d := qx - min32(qw, qy)
	return HSV{
		H: abs32(qz + (qw-qy)/(6*d+Epsilon)),
		S: d / (qx + Epsilon),
		V: qx,
	}
}

// HSVToRGB is the inverse folding:
//
//	p = abs(fract(h + (1, 2/3, 1/3)) * 6 - 3)
//	rgb = v * mix(1, clamp(p - 1, 0, 1), s)
func HSVToRGB(c HSV) Color {
	channel := func(k float32) float32 {
		p := abs32(fract(c.H+k)*6 - 3)
		return c.V * mix(1, clamp(p-1, 0, 1), c.S)
	}
	return Color{
		R: channel(1),
		G: channel(2.0 / 3.0),
		B: channel(1.0 / 3.0),
	}
}

// Recolor keeps the value of p and takes hue and saturation from target.
func Recolor(p, target Color) Color {
	t := RGBToHSV(target)
	return HSVToRGB(HSV{t.H, t.S, RGBToHSV(p).V})
}

// Shade is the fragment stage: mix(photo, recolor(photo, target), mask).
func Shade(photo Color, mask float32, target Color) Color {
	r := Recolor(photo, target)
	return Color{
		R: mix(photo.R, r.R, mask),
		G: mix(photo.G, r.G, mask),
		B: mix(photo.B, r.B, mask),
	}
}

// mix matches GLSL: x*(1-a) + y*a, so a == 0 returns x exactly.
func mix(x, y, a float32) float32 {
	return x*(1-a) + y*a
}

// step matches GLSL: 0 when x < edge, else 1.
func step(edge, x float32) float32 {
	if x < edge {
		return 0
	}
	return 1
}

func fract(x float32) float32 {
	return x - float32(math.Floor(float64(x)))
}

func clamp(x, lo, hi float32) float32 {
	if x < lo {
		return lo
	}
	if x > hi {
		return hi
	}
	return x
}

func abs32(x float32) float32 {
	if x < 0 {
		return -x
	}
	return x
}

func min32(a, b float32) float32 {
	if a < b {
		return a
	}
	return b
}
