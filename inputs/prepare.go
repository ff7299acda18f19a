package inputs

import (
	"image"

	"github.com/disintegration/imaging"
	"golang.org/x/image/draw"
)

// ToNRGBA converts any image to an *image.NRGBA anchored at the origin.
// Textures keep straight alpha, so translucent texels keep their color.
func ToNRGBA(img image.Image) *image.NRGBA {
	if nrgba, ok := img.(*image.NRGBA); ok && nrgba.Rect.Min == (image.Point{}) {
		return nrgba
	}
	b := img.Bounds()
	nrgba := image.NewNRGBA(image.Rect(0, 0, b.Dx(), b.Dy()))
	draw.Draw(nrgba, nrgba.Bounds(), img, b.Min, draw.Src)
	return nrgba
}

// Fit scales img down, keeping its aspect, so neither side exceeds limit.
// Smaller images are returned unchanged.
func Fit(img image.Image, limit int) image.Image {
	b := img.Bounds()
	if limit <= 0 || (b.Dx() <= limit && b.Dy() <= limit) {
		return img
	}
	return imaging.Fit(img, limit, limit, imaging.Lanczos)
}

// PrepareMask returns a mask conditioner that feathers edges with a Gaussian
// blur of the given sigma. A sigma of zero returns masks unchanged.
func PrepareMask(sigma float64) func(image.Image) image.Image {
	return func(img image.Image) image.Image {
		if sigma <= 0 {
			return img
		}
		return imaging.Blur(img, sigma)
	}
}
