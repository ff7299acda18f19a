// Package picking turns pointer positions over the rendered photo into
// normalized texture coordinates.
package picking

import (
	"errors"
	"fmt"
)

// ErrEmpty is returned when the box or the image has no area.
var ErrEmpty = errors.New("zero-sized box or image")

// Point is a position in pixels.
type Point struct {
	X, Y float64
}

// Box is the on-screen rectangle the photo is drawn into. Offsets lists the
// positions of the box and each of its ancestors relative to their parent,
// innermost first.
type Box struct {
	Width, Height float64
	Offsets       []Point
}

// UV is a normalized texture coordinate. Values can fall outside [0,1] when
// the pointer is over a cropped-away part of the image.
type UV struct {
	U, V float64
}

// Clamp pins both coordinates into [0,1].
func (uv UV) Clamp() UV {
	return UV{U: clamp01(uv.U), V: clamp01(uv.V)}
}

// InRange reports whether uv already lies inside the unit square.
func (uv UV) InRange() bool {
	return uv.U >= 0 && uv.U <= 1 && uv.V >= 0 && uv.V <= 1
}

func (uv UV) String() string {
	return fmt.Sprintf("(%.4f, %.4f)", uv.U, uv.V)
}

// Local converts a client position plus page scroll into box-local pixels.
func (b Box) Local(client, scroll Point) Point {
	p := Point{X: client.X + scroll.X, Y: client.Y + scroll.Y}
	for _, o := range b.Offsets {
		p.X -= o.X
		p.Y -= o.Y
	}
	return p
}

// Map converts a box-local point to UV for an image of the given natural
// size drawn with "cover" cropping: the image fills the box and whichever
// axis overflows is cropped symmetrically.
func Map(local Point, b Box, imageWidth, imageHeight int) (UV, error) {
	if b.Width <= 0 || b.Height <= 0 || imageWidth <= 0 || imageHeight <= 0 {
		return UV{}, fmt.Errorf("%w: box %gx%g, image %dx%d",
			ErrEmpty, b.Width, b.Height, imageWidth, imageHeight)
	}
	canvasAspect := b.Width / b.Height
	imageAspect := float64(imageWidth) / float64(imageHeight)
	ratio := imageAspect / canvasAspect
	offset := 0.5 * (1 - ratio)

	if canvasAspect < imageAspect {
		// horizontal crop
		return UV{
			U: offset + (local.X/b.Width)*ratio,
			V: local.Y / b.Height,
		}, nil
	}
	return UV{
		U: local.X / b.Width,
		V: offset + (local.Y/b.Height)*ratio,
	}, nil
}

// Extent returns the fraction of the box's width and height covered by the
// image under the same layout Map assumes. The cropped axis gets 1/ratio:
// below 1 the image is letterboxed, above 1 it overflows and is cropped.
// The image is centered on both axes.
func Extent(b Box, imageWidth, imageHeight int) (float64, float64, error) {
	if b.Width <= 0 || b.Height <= 0 || imageWidth <= 0 || imageHeight <= 0 {
		return 1, 1, fmt.Errorf("%w: box %gx%g, image %dx%d",
			ErrEmpty, b.Width, b.Height, imageWidth, imageHeight)
	}
	canvasAspect := b.Width / b.Height
	imageAspect := float64(imageWidth) / float64(imageHeight)
	ratio := imageAspect / canvasAspect
	if canvasAspect < imageAspect {
		return 1 / ratio, 1, nil
	}
	return 1, 1 / ratio, nil
}

// MapClient is Local followed by Map.
func MapClient(client, scroll Point, b Box, imageWidth, imageHeight int) (UV, error) {
	return Map(b.Local(client, scroll), b, imageWidth, imageHeight)
}

func clamp01(x float64) float64 {
	switch {
	case x < 0:
		return 0
	case x > 1:
		return 1
	}
	return x
}
