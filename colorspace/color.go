// Package colorspace is the CPU reference of the recolor shader: the same
// RGB/HSV folding and mask blend the fragment stage runs on the GPU.
package colorspace

import (
	"fmt"

	colorful "github.com/lucasb-eyer/go-colorful"
)

// Color is a normalized RGB triple. Components are expected in [0,1].
type Color struct {
	R, G, B float32
}

// Gray is the color a surface starts with before a caller picks one.
var Gray = Color{0.5, 0.5, 0.5}

// Vec returns the color as a vec3 in R, G, B order.
func (c Color) Vec() [3]float32 {
	return [3]float32{c.R, c.G, c.B}
}

// Clamp limits every component to [0,1].
func (c Color) Clamp() Color {
	return Color{clamp01(c.R), clamp01(c.G), clamp01(c.B)}
}

// Hex formats the color as #rrggbb.
func (c Color) Hex() string {
	cc := c.Clamp()
	return colorful.Color{R: float64(cc.R), G: float64(cc.G), B: float64(cc.B)}.Hex()
}

func (c Color) String() string {
	return c.Hex()
}

// ParseHex parses "#rrggbb" or "#rgb".
func ParseHex(s string) (Color, error) {
	cf, err := colorful.Hex(s)
	if err != nil {
		return Color{}, fmt.Errorf("invalid color %q: %w", s, err)
	}
	return Color{float32(cf.R), float32(cf.G), float32(cf.B)}, nil
}

// FromHSV builds a color from hue, saturation and value, all in [0,1].
func FromHSV(h, s, v float32) Color {
	return HSVToRGB(HSV{h, s, v})
}

// Sweep returns n colors walking the hue circle at the given saturation and
// value, starting at hue 0.
func Sweep(n int, s, v float32) []Color {
	if n <= 0 {
		return nil
	}
	colors := make([]Color, n)
	for i := range colors {
		colors[i] = FromHSV(float32(i)/float32(n), s, v)
	}
	return colors
}

func clamp01(x float32) float32 {
	return clamp(x, 0, 1)
}
