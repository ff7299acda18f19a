// Package softdevice is a pure-Go graphics.Device. It cannot run GLSL, so
// every program source pair must be registered with a Go Kernel that
// computes the same thing; unregistered sources fail to compile exactly as a
// broken shader would.
package softdevice

import (
	"fmt"
	"image"
	"image/color"

	"github.com/richinsley/rosecolored/graphics"
)

// Uniforms exposes the uniform state of the program being drawn to a kernel.
type Uniforms interface {
	Vec3(name string) [3]float32
	Mat3(name string) [9]float32
	// Sample reads the texture bound to the unit named by a sampler uniform.
	Sample(sampler string, u, v float32) [4]float32
}

// Kernel is the Go stand-in for a compiled vertex+fragment program.
type Kernel struct {
	Attributes []string
	Uniforms   []string
	Vertex     func(position, texcoord [2]float32, u Uniforms) (clip, varying [2]float32)
	Fragment   func(varying [2]float32, u Uniforms) [4]float32
}

type program struct {
	kernel     Kernel
	attributes map[string]int32
	uniforms   map[string]int32
	values     map[int32][]float32
}

type mesh struct {
	vertices []float32
	indices  []uint16
}

// Device rasterizes into an in-memory RGBA framebuffer.
type Device struct {
	fb         *image.RGBA
	kernels    map[string]Kernel
	programs   map[graphics.Program]*program
	textures   map[graphics.Texture]*image.NRGBA
	meshes     map[graphics.Mesh]*mesh
	units      map[int]graphics.Texture
	current    *program
	next       uint32
	maxTexture int
}

var _ graphics.Device = (*Device)(nil)

// New creates a device with a width x height framebuffer.
func New(width, height int) *Device {
	return &Device{
		fb:         image.NewRGBA(image.Rect(0, 0, width, height)),
		kernels:    make(map[string]Kernel),
		programs:   make(map[graphics.Program]*program),
		textures:   make(map[graphics.Texture]*image.NRGBA),
		meshes:     make(map[graphics.Mesh]*mesh),
		units:      make(map[int]graphics.Texture),
		maxTexture: 4096,
	}
}

func sourceKey(vertexSource, fragmentSource string) string {
	return vertexSource + "\x00" + fragmentSource
}

// Register makes CompileProgram accept this exact pair of sources.
func (d *Device) Register(vertexSource, fragmentSource string, k Kernel) {
	d.kernels[sourceKey(vertexSource, fragmentSource)] = k
}

// SetMaxTextureSize changes the limit reported by MaxTextureSize.
func (d *Device) SetMaxTextureSize(n int) {
	d.maxTexture = n
}

func (d *Device) handle() uint32 {
	d.next++
	return d.next
}

func (d *Device) CompileProgram(vertexSource, fragmentSource string) (graphics.Program, error) {
	k, ok := d.kernels[sourceKey(vertexSource, fragmentSource)]
	if !ok {
		return 0, fmt.Errorf("%w: no kernel registered for these sources", graphics.ErrShaderCompile)
	}
	p := &program{
		kernel:     k,
		attributes: make(map[string]int32),
		uniforms:   make(map[string]int32),
		values:     make(map[int32][]float32),
	}
	for i, name := range k.Attributes {
		p.attributes[name] = int32(i)
	}
	for i, name := range k.Uniforms {
		p.uniforms[name] = int32(i)
	}
	h := graphics.Program(d.handle())
	d.programs[h] = p
	return h, nil
}

func (d *Device) DeleteProgram(p graphics.Program) {
	if d.current == d.programs[p] {
		d.current = nil
	}
	delete(d.programs, p)
}

func (d *Device) AttribLocation(p graphics.Program, name string) int32 {
	if prog, ok := d.programs[p]; ok {
		if loc, ok := prog.attributes[name]; ok {
			return loc
		}
	}
	return -1
}

func (d *Device) UniformLocation(p graphics.Program, name string) int32 {
	if prog, ok := d.programs[p]; ok {
		if loc, ok := prog.uniforms[name]; ok {
			return loc
		}
	}
	return -1
}

func (d *Device) UseProgram(p graphics.Program) {
	d.current = d.programs[p]
}

func (d *Device) setUniform(loc int32, v []float32) {
	if d.current == nil || loc < 0 {
		return
	}
	d.current.values[loc] = v
}

func (d *Device) Uniform1i(loc int32, v int32) {
	d.setUniform(loc, []float32{float32(v)})
}

func (d *Device) Uniform3f(loc int32, v [3]float32) {
	d.setUniform(loc, v[:])
}

func (d *Device) UniformMatrix3(loc int32, m [9]float32) {
	d.setUniform(loc, m[:])
}

func (d *Device) NewTexture() (graphics.Texture, error) {
	h := graphics.Texture(d.handle())
	d.textures[h] = image.NewNRGBA(image.Rect(0, 0, 1, 1))
	return h, nil
}

func (d *Device) UploadTexture(t graphics.Texture, img *image.NRGBA) error {
	if _, ok := d.textures[t]; !ok {
		return fmt.Errorf("upload to unknown texture %d", t)
	}
	b := img.Bounds()
	if b.Dx() > d.maxTexture || b.Dy() > d.maxTexture {
		return fmt.Errorf("texture %dx%d exceeds limit %d", b.Dx(), b.Dy(), d.maxTexture)
	}
	dst := image.NewNRGBA(image.Rect(0, 0, b.Dx(), b.Dy()))
	for y := 0; y < b.Dy(); y++ {
		copy(dst.Pix[y*dst.Stride:y*dst.Stride+b.Dx()*4], img.Pix[img.PixOffset(b.Min.X, b.Min.Y+y):])
	}
	d.textures[t] = dst
	return nil
}

func (d *Device) TextureSize(t graphics.Texture) (int, int) {
	img, ok := d.textures[t]
	if !ok {
		return 0, 0
	}
	return img.Rect.Dx(), img.Rect.Dy()
}

// TextureImage returns the current contents of t, or nil.
func (d *Device) TextureImage(t graphics.Texture) *image.NRGBA {
	return d.textures[t]
}

// Textures reports how many textures are alive.
func (d *Device) Textures() int {
	return len(d.textures)
}

func (d *Device) BindTexture(unit int, t graphics.Texture) {
	if t == 0 {
		delete(d.units, unit)
		return
	}
	d.units[unit] = t
}

func (d *Device) DeleteTexture(t graphics.Texture) {
	delete(d.textures, t)
	for unit, bound := range d.units {
		if bound == t {
			delete(d.units, unit)
		}
	}
}

func (d *Device) MaxTextureSize() int {
	return d.maxTexture
}

func (d *Device) NewMesh(vertices []float32, indices []uint16) (graphics.Mesh, error) {
	if len(vertices)%4 != 0 {
		return 0, fmt.Errorf("vertex data must be (x, y, u, v) tuples, got %d floats", len(vertices))
	}
	if len(indices)%3 != 0 {
		return 0, fmt.Errorf("index count %d is not a multiple of 3", len(indices))
	}
	for _, i := range indices {
		if int(i)*4 >= len(vertices) {
			return 0, fmt.Errorf("index %d out of range", i)
		}
	}
	h := graphics.Mesh(d.handle())
	d.meshes[h] = &mesh{
		vertices: append([]float32(nil), vertices...),
		indices:  append([]uint16(nil), indices...),
	}
	return h, nil
}

func (d *Device) DeleteMesh(m graphics.Mesh) {
	delete(d.meshes, m)
}

func (d *Device) Viewport(width, height int) {
	if d.fb.Rect.Dx() == width && d.fb.Rect.Dy() == height {
		return
	}
	d.fb = image.NewRGBA(image.Rect(0, 0, width, height))
}

func (d *Device) Clear(rgba [4]float32) {
	c := color.RGBA{toByte(rgba[0]), toByte(rgba[1]), toByte(rgba[2]), toByte(rgba[3])}
	for i := 0; i < len(d.fb.Pix); i += 4 {
		d.fb.Pix[i+0] = c.R
		d.fb.Pix[i+1] = c.G
		d.fb.Pix[i+2] = c.B
		d.fb.Pix[i+3] = c.A
	}
}

func (d *Device) ReadPixels() (*image.RGBA, error) {
	out := image.NewRGBA(d.fb.Rect)
	copy(out.Pix, d.fb.Pix)
	return out, nil
}

func toByte(v float32) uint8 {
	if v <= 0 {
		return 0
	}
	if v >= 1 {
		return 255
	}
	return uint8(v*255 + 0.5)
}
