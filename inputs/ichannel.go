package inputs

import "github.com/richinsley/rosecolored/graphics"

// IChannel is a texture input sampled by the recolor program.
type IChannel interface {
	// Name identifies the input in logs ("photo", "mask").
	Name() string

	// GetTexture returns the device texture to bind.
	GetTexture() graphics.Texture

	// ChannelRes returns the resident texture size as a vec3 (w, h, 1).
	ChannelRes() [3]float32

	// Destroy releases the texture.
	Destroy()
}
