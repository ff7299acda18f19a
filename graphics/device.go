package graphics

import (
	"errors"
	"image"
)

var (
	// ErrContextAcquisition means no rendering context could be bound. Fatal.
	ErrContextAcquisition = errors.New("rendering context unavailable")
	// ErrShaderCompile means a program failed to compile or link. Fatal to the context.
	ErrShaderCompile = errors.New("shader compilation failed")
	// ErrImageLoad marks a fetch or decode failure. The texture keeps its last contents.
	ErrImageLoad = errors.New("image load failed")
)

// Handles are opaque per-device names. Zero is never a valid handle.
type (
	Program uint32
	Texture uint32
	Mesh    uint32
)

// Device is the set of GPU operations the recolor pipeline needs. All calls
// must be made from the goroutine that owns the device.
type Device interface {
	// CompileProgram compiles and links ESSL 3.00 sources. Errors wrap ErrShaderCompile.
	CompileProgram(vertexSource, fragmentSource string) (Program, error)
	DeleteProgram(p Program)
	// AttribLocation and UniformLocation take source-level names and return -1 when absent.
	AttribLocation(p Program, name string) int32
	UniformLocation(p Program, name string) int32
	UseProgram(p Program)
	Uniform1i(loc int32, v int32)
	Uniform3f(loc int32, v [3]float32)
	// UniformMatrix3 takes a column-major 3x3 matrix.
	UniformMatrix3(loc int32, m [9]float32)

	// NewTexture allocates a 1x1 texture whose only texel is zero.
	NewTexture() (Texture, error)
	// UploadTexture replaces the texture contents with straight (not
	// premultiplied) alpha. Row 0 of img is texcoord t=0.
	UploadTexture(t Texture, img *image.NRGBA) error
	TextureSize(t Texture) (int, int)
	BindTexture(unit int, t Texture)
	DeleteTexture(t Texture)
	MaxTextureSize() int

	// NewMesh takes interleaved (x, y, u, v) vertices and triangle indices.
	NewMesh(vertices []float32, indices []uint16) (Mesh, error)
	DrawMesh(m Mesh, positionLoc, texcoordLoc int32)
	DeleteMesh(m Mesh)

	Viewport(width, height int)
	Clear(rgba [4]float32)
	// ReadPixels returns the current viewport with row 0 at the top.
	ReadPixels() (*image.RGBA, error)
}
