// Package gldevice implements graphics.Device on OpenGL 4.1 core (or
// OpenGL ES 3 through EGL). Program sources are translated from WebGL2
// ESSL to whatever the current context accepts.
package gldevice

import (
	"fmt"
	"image"
	"strings"
	"sync"

	"github.com/go-gl/gl/v4.1-core/gl"
	"github.com/richinsley/rosecolored/graphics"
	"github.com/richinsley/rosecolored/translator"
	"github.com/sirupsen/logrus"
)

// Attribute slots bound before linking so every program agrees on them.
const (
	positionSlot = 0
	texcoordSlot = 1
)

// AttributeSlots maps source attribute names to their fixed slots.
var AttributeSlots = map[string]uint32{
	"a_position": positionSlot,
	"a_texcoord": texcoordSlot,
}

var (
	glInitOnce sync.Once
	glInitErr  error
)

type program struct {
	id    uint32
	names map[string]string
}

type texture struct {
	width, height int
}

type mesh struct {
	vao, vbo, ebo uint32
	count         int32
}

// Device issues GL calls. It must only be used on the goroutine (and OS
// thread) where its context is current.
type Device struct {
	gles       bool
	programs   map[graphics.Program]*program
	textures   map[graphics.Texture]*texture
	meshes     map[graphics.Mesh]*mesh
	width      int
	height     int
	maxTexture int
	log        *logrus.Entry
}

var _ graphics.Device = (*Device)(nil)

// New makes ctx current and loads the GL entry points. Failures wrap
// graphics.ErrContextAcquisition.
func New(ctx graphics.Context) (*Device, error) {
	if ctx == nil {
		return nil, fmt.Errorf("%w: no window or pbuffer", graphics.ErrContextAcquisition)
	}
	ctx.MakeCurrent()
	glInitOnce.Do(func() {
		glInitErr = gl.Init()
	})
	if glInitErr != nil {
		return nil, fmt.Errorf("%w: failed to initialize OpenGL: %v", graphics.ErrContextAcquisition, glInitErr)
	}

	var maxTexture int32
	gl.GetIntegerv(gl.MAX_TEXTURE_SIZE, &maxTexture)
	w, h := ctx.GetFramebufferSize()
	d := &Device{
		gles:       ctx.IsGLES(),
		programs:   make(map[graphics.Program]*program),
		textures:   make(map[graphics.Texture]*texture),
		meshes:     make(map[graphics.Mesh]*mesh),
		width:      w,
		height:     h,
		maxTexture: int(maxTexture),
		log:        logrus.WithField("component", "gldevice"),
	}
	d.log.WithFields(logrus.Fields{
		"version":  gl.GoStr(gl.GetString(gl.VERSION)),
		"renderer": gl.GoStr(gl.GetString(gl.RENDERER)),
		"gles":     d.gles,
	}).Info("OpenGL initialized")
	return d, nil
}

// Factory adapts New to a device factory for ctx.
func Factory(ctx graphics.Context) func() (graphics.Device, error) {
	return func() (graphics.Device, error) {
		d, err := New(ctx)
		if err != nil {
			return nil, err
		}
		return d, nil
	}
}

func (d *Device) CompileProgram(vertexSource, fragmentSource string) (graphics.Program, error) {
	vs, err := translator.Translate(vertexSource, "vertex", d.gles)
	if err != nil {
		return 0, fmt.Errorf("%w: %v", graphics.ErrShaderCompile, err)
	}
	fs, err := translator.Translate(fragmentSource, "fragment", d.gles)
	if err != nil {
		return 0, fmt.Errorf("%w: %v", graphics.ErrShaderCompile, err)
	}
	names := make(map[string]string, len(vs.Names)+len(fs.Names))
	for k, v := range vs.Names {
		names[k] = v
	}
	for k, v := range fs.Names {
		names[k] = v
	}

	id, err := newProgram(vs.Code, fs.Code, func(id uint32) {
		for name, slot := range AttributeSlots {
			gl.BindAttribLocation(id, slot, gl.Str(vs.Mapped(name)+"\x00"))
		}
	})
	if err != nil {
		return 0, fmt.Errorf("%w: %v", graphics.ErrShaderCompile, err)
	}
	p := graphics.Program(id)
	d.programs[p] = &program{id: id, names: names}
	return p, nil
}

func (d *Device) DeleteProgram(p graphics.Program) {
	if _, ok := d.programs[p]; !ok {
		return
	}
	gl.DeleteProgram(uint32(p))
	delete(d.programs, p)
}

func (d *Device) mapped(p *program, name string) string {
	if m, ok := p.names[name]; ok && m != "" {
		return m
	}
	return name
}

func (d *Device) AttribLocation(p graphics.Program, name string) int32 {
	prog, ok := d.programs[p]
	if !ok {
		return -1
	}
	return gl.GetAttribLocation(prog.id, gl.Str(d.mapped(prog, name)+"\x00"))
}

func (d *Device) UniformLocation(p graphics.Program, name string) int32 {
	prog, ok := d.programs[p]
	if !ok {
		return -1
	}
	return gl.GetUniformLocation(prog.id, gl.Str(d.mapped(prog, name)+"\x00"))
}

func (d *Device) UseProgram(p graphics.Program) {
	gl.UseProgram(uint32(p))
}

func (d *Device) Uniform1i(loc int32, v int32) {
	if loc >= 0 {
		gl.Uniform1i(loc, v)
	}
}

func (d *Device) Uniform3f(loc int32, v [3]float32) {
	if loc >= 0 {
		gl.Uniform3f(loc, v[0], v[1], v[2])
	}
}

func (d *Device) UniformMatrix3(loc int32, m [9]float32) {
	if loc >= 0 {
		gl.UniformMatrix3fv(loc, 1, false, &m[0])
	}
}

func (d *Device) NewTexture() (graphics.Texture, error) {
	var id uint32
	gl.GenTextures(1, &id)
	if id == 0 {
		return 0, fmt.Errorf("glGenTextures returned no name")
	}
	gl.BindTexture(gl.TEXTURE_2D, id)
	gl.TexParameteri(gl.TEXTURE_2D, gl.TEXTURE_MIN_FILTER, gl.LINEAR)
	gl.TexParameteri(gl.TEXTURE_2D, gl.TEXTURE_MAG_FILTER, gl.LINEAR)
	gl.TexParameteri(gl.TEXTURE_2D, gl.TEXTURE_WRAP_S, gl.CLAMP_TO_EDGE)
	gl.TexParameteri(gl.TEXTURE_2D, gl.TEXTURE_WRAP_T, gl.CLAMP_TO_EDGE)
	blank := []uint8{0, 0, 0, 0}
	gl.TexImage2D(gl.TEXTURE_2D, 0, gl.RGBA8, 1, 1, 0, gl.RGBA, gl.UNSIGNED_BYTE, gl.Ptr(blank))
	gl.BindTexture(gl.TEXTURE_2D, 0)
	t := graphics.Texture(id)
	d.textures[t] = &texture{width: 1, height: 1}
	return t, nil
}

func (d *Device) UploadTexture(t graphics.Texture, img *image.NRGBA) error {
	tex, ok := d.textures[t]
	if !ok {
		return fmt.Errorf("unknown texture %d", t)
	}
	w, h := img.Rect.Dx(), img.Rect.Dy()
	if w == 0 || h == 0 {
		return fmt.Errorf("empty image")
	}
	if w > d.maxTexture || h > d.maxTexture {
		return fmt.Errorf("image %dx%d exceeds the %d texel limit", w, h, d.maxTexture)
	}
	pix := tightPixels(img)
	gl.BindTexture(gl.TEXTURE_2D, uint32(t))
	gl.PixelStorei(gl.UNPACK_ALIGNMENT, 1)
	gl.TexImage2D(gl.TEXTURE_2D, 0, gl.RGBA8, int32(w), int32(h), 0, gl.RGBA, gl.UNSIGNED_BYTE, gl.Ptr(pix))
	gl.BindTexture(gl.TEXTURE_2D, 0)
	tex.width, tex.height = w, h
	return nil
}

func (d *Device) TextureSize(t graphics.Texture) (int, int) {
	tex, ok := d.textures[t]
	if !ok {
		return 0, 0
	}
	return tex.width, tex.height
}

func (d *Device) BindTexture(unit int, t graphics.Texture) {
	gl.ActiveTexture(gl.TEXTURE0 + uint32(unit))
	gl.BindTexture(gl.TEXTURE_2D, uint32(t))
}

func (d *Device) DeleteTexture(t graphics.Texture) {
	if _, ok := d.textures[t]; !ok {
		return
	}
	id := uint32(t)
	gl.DeleteTextures(1, &id)
	delete(d.textures, t)
}

func (d *Device) MaxTextureSize() int {
	return d.maxTexture
}

func (d *Device) NewMesh(vertices []float32, indices []uint16) (graphics.Mesh, error) {
	if len(vertices) == 0 || len(vertices)%4 != 0 || len(indices) == 0 {
		return 0, fmt.Errorf("invalid mesh: %d floats, %d indices", len(vertices), len(indices))
	}
	m := &mesh{count: int32(len(indices))}
	gl.GenVertexArrays(1, &m.vao)
	gl.BindVertexArray(m.vao)

	gl.GenBuffers(1, &m.vbo)
	gl.BindBuffer(gl.ARRAY_BUFFER, m.vbo)
	gl.BufferData(gl.ARRAY_BUFFER, len(vertices)*4, gl.Ptr(vertices), gl.STATIC_DRAW)

	gl.GenBuffers(1, &m.ebo)
	gl.BindBuffer(gl.ELEMENT_ARRAY_BUFFER, m.ebo)
	gl.BufferData(gl.ELEMENT_ARRAY_BUFFER, len(indices)*2, gl.Ptr(indices), gl.STATIC_DRAW)

	gl.BindVertexArray(0)
	gl.BindBuffer(gl.ARRAY_BUFFER, 0)

	h := graphics.Mesh(m.vao)
	d.meshes[h] = m
	return h, nil
}

func (d *Device) DrawMesh(h graphics.Mesh, positionLoc, texcoordLoc int32) {
	m, ok := d.meshes[h]
	if !ok || positionLoc < 0 {
		return
	}
	gl.BindVertexArray(m.vao)
	gl.BindBuffer(gl.ARRAY_BUFFER, m.vbo)
	gl.EnableVertexAttribArray(uint32(positionLoc))
	gl.VertexAttribPointerWithOffset(uint32(positionLoc), 2, gl.FLOAT, false, 16, 0)
	if texcoordLoc >= 0 {
		gl.EnableVertexAttribArray(uint32(texcoordLoc))
		gl.VertexAttribPointerWithOffset(uint32(texcoordLoc), 2, gl.FLOAT, false, 16, 8)
	}
	gl.DrawElementsWithOffset(gl.TRIANGLES, m.count, gl.UNSIGNED_SHORT, 0)
	gl.BindVertexArray(0)
}

func (d *Device) DeleteMesh(h graphics.Mesh) {
	m, ok := d.meshes[h]
	if !ok {
		return
	}
	gl.DeleteBuffers(1, &m.vbo)
	gl.DeleteBuffers(1, &m.ebo)
	gl.DeleteVertexArrays(1, &m.vao)
	delete(d.meshes, h)
}

func (d *Device) Viewport(width, height int) {
	d.width, d.height = width, height
	gl.Viewport(0, 0, int32(width), int32(height))
}

func (d *Device) Clear(rgba [4]float32) {
	gl.ClearColor(rgba[0], rgba[1], rgba[2], rgba[3])
	gl.Clear(gl.COLOR_BUFFER_BIT)
}

func (d *Device) ReadPixels() (*image.RGBA, error) {
	if d.width <= 0 || d.height <= 0 {
		return nil, fmt.Errorf("no viewport")
	}
	img := image.NewRGBA(image.Rect(0, 0, d.width, d.height))
	gl.PixelStorei(gl.PACK_ALIGNMENT, 1)
	gl.ReadPixels(0, 0, int32(d.width), int32(d.height), gl.RGBA, gl.UNSIGNED_BYTE, gl.Ptr(img.Pix))
	if code := gl.GetError(); code != gl.NO_ERROR {
		return nil, fmt.Errorf("glReadPixels failed: 0x%x", code)
	}
	// GL rows start at the bottom
	flipRows(img)
	return img, nil
}

// tightPixels returns img's pixels with no row padding.
func tightPixels(img *image.NRGBA) []uint8 {
	w, h := img.Rect.Dx(), img.Rect.Dy()
	rowLen := w * 4
	start := img.PixOffset(img.Rect.Min.X, img.Rect.Min.Y)
	if img.Stride == rowLen {
		return img.Pix[start : start+rowLen*h]
	}
	out := make([]uint8, rowLen*h)
	for y := 0; y < h; y++ {
		off := img.PixOffset(img.Rect.Min.X, img.Rect.Min.Y+y)
		copy(out[y*rowLen:], img.Pix[off:off+rowLen])
	}
	return out
}

func flipRows(img *image.RGBA) {
	h := img.Rect.Dy()
	rowLen := img.Rect.Dx() * 4
	tmp := make([]uint8, rowLen)
	for y := 0; y < h/2; y++ {
		top := img.Pix[y*img.Stride : y*img.Stride+rowLen]
		bottom := img.Pix[(h-1-y)*img.Stride : (h-1-y)*img.Stride+rowLen]
		copy(tmp, top)
		copy(top, bottom)
		copy(bottom, tmp)
	}
}

func newProgram(vertexShaderSource, fragmentShaderSource string, beforeLink func(uint32)) (uint32, error) {
	vertexShader, err := compileShader(vertexShaderSource, gl.VERTEX_SHADER)
	if err != nil {
		return 0, err
	}
	defer gl.DeleteShader(vertexShader)
	fragmentShader, err := compileShader(fragmentShaderSource, gl.FRAGMENT_SHADER)
	if err != nil {
		return 0, err
	}
	defer gl.DeleteShader(fragmentShader)

	program := gl.CreateProgram()
	gl.AttachShader(program, vertexShader)
	gl.AttachShader(program, fragmentShader)
	if beforeLink != nil {
		beforeLink(program)
	}
	gl.LinkProgram(program)

	var status int32
	gl.GetProgramiv(program, gl.LINK_STATUS, &status)
	if status == gl.FALSE {
		var logLength int32
		gl.GetProgramiv(program, gl.INFO_LOG_LENGTH, &logLength)
		log := strings.Repeat("\x00", int(logLength+1))
		gl.GetProgramInfoLog(program, logLength, nil, gl.Str(log))
		gl.DeleteProgram(program)
		return 0, fmt.Errorf("failed to link program: %v", strings.TrimRight(log, "\x00"))
	}
	return program, nil
}

func compileShader(source string, shaderType uint32) (uint32, error) {
	shader := gl.CreateShader(shaderType)
	csources, free := gl.Strs(source + "\x00")
	gl.ShaderSource(shader, 1, csources, nil)
	free()
	gl.CompileShader(shader)

	var status int32
	gl.GetShaderiv(shader, gl.COMPILE_STATUS, &status)
	if status == gl.FALSE {
		var logLength int32
		gl.GetShaderiv(shader, gl.INFO_LOG_LENGTH, &logLength)
		logText := strings.Repeat("\x00", int(logLength+1))
		gl.GetShaderInfoLog(shader, logLength, nil, gl.Str(logText))
		gl.DeleteShader(shader)
		return 0, fmt.Errorf("failed to compile shader: %v", strings.TrimRight(logText, "\x00"))
	}
	return shader, nil
}
