package shader

import (
	"fmt"

	"github.com/richinsley/rosecolored/colorspace"
	"github.com/richinsley/rosecolored/graphics"
)

// Names shared by the sources, the Program record and the software kernel.
const (
	AttribPosition    = "a_position"
	AttribTexcoord    = "a_texcoord"
	UniformPhoto      = "u_photo"
	UniformMask       = "u_mask"
	UniformClipMatrix = "u_clipMatrix"
	UniformColor      = "u_color"
)

// Texture units the program samples from.
const (
	PhotoUnit = 0
	MaskUnit  = 1
)

// The sources are written once in WebGL2 ESSL; the GL device translates them
// for desktop contexts.

// VertexSource projects the quad through u_clipMatrix and flips V so image
// row 0 lands at the top of the quad.
const VertexSource = `#version 300 es
in vec2 a_position;
in vec2 a_texcoord;
uniform mat3 u_clipMatrix;
out vec2 v_texcoord;

void main() {
    vec2 position = (u_clipMatrix * vec3(a_position, 1.0)).xy;
    gl_Position = vec4(position, 0.0, 1.0);
    v_texcoord = vec2(a_texcoord.x, 1.0 - a_texcoord.y);
}
`

// FragmentSource replaces hue and saturation with u_color, keeps the photo's
// value, and blends by the mask's red channel.
const FragmentSource = `#version 300 es
precision highp float;
uniform sampler2D u_photo;
uniform sampler2D u_mask;
uniform vec3 u_color;
in vec2 v_texcoord;
out vec4 fragColor;

vec3 rgb2hsv(vec3 c)
{
    vec4 K = vec4(0.0, -1.0 / 3.0, 2.0 / 3.0, -1.0);
    vec4 p = mix(vec4(c.bg, K.wz), vec4(c.gb, K.xy), step(c.b, c.g));
    vec4 q = mix(vec4(p.xyw, c.r), vec4(c.r, p.yzx), step(p.x, c.r));

    float d = q.x - min(q.w, q.y);
    float e = 1.0e-10;
    return vec3(abs(q.z + (q.w - q.y) / (6.0 * d + e)), d / (q.x + e), q.x);
}

vec3 hsv2rgb(vec3 c)
{
    vec4 K = vec4(1.0, 2.0 / 3.0, 1.0 / 3.0, 3.0);
    vec3 p = abs(fract(c.xxx + K.xyz) * 6.0 - K.www);
    return c.z * mix(K.xxx, clamp(p - K.xxx, 0.0, 1.0), c.y);
}

void main() {
    vec3 photoPixel = texture(u_photo, v_texcoord).rgb;
    vec3 maskPixel = texture(u_mask, v_texcoord).rgb;
    vec3 target = rgb2hsv(u_color);
    vec3 recolored = hsv2rgb(vec3(target.x, target.y, rgb2hsv(photoPixel).z));
    fragColor = vec4(mix(photoPixel, recolored, maskPixel.r), 1.0);
}
`

// Program is the linked recolor program and the locations it was built with.
type Program struct {
	Handle     graphics.Program
	Position   int32
	Texcoord   int32
	Photo      int32
	Mask       int32
	ClipMatrix int32
	ColorLoc   int32
	// Color is pushed to ColorLoc on every Bind.
	Color colorspace.Color
}

// NewProgram compiles and links the recolor program. On failure it returns
// nil and an error wrapping graphics.ErrShaderCompile; the caller must not
// draw with this device's pipeline.
func NewProgram(dev graphics.Device) (*Program, error) {
	handle, err := dev.CompileProgram(VertexSource, FragmentSource)
	if err != nil {
		return nil, fmt.Errorf("failed to create recolor program: %w", err)
	}
	p := &Program{
		Handle:     handle,
		Position:   dev.AttribLocation(handle, AttribPosition),
		Texcoord:   dev.AttribLocation(handle, AttribTexcoord),
		Photo:      dev.UniformLocation(handle, UniformPhoto),
		Mask:       dev.UniformLocation(handle, UniformMask),
		ClipMatrix: dev.UniformLocation(handle, UniformClipMatrix),
		ColorLoc:   dev.UniformLocation(handle, UniformColor),
		Color:      colorspace.Gray,
	}
	if p.Position < 0 || p.Photo < 0 || p.Mask < 0 {
		dev.DeleteProgram(handle)
		return nil, fmt.Errorf("%w: recolor program is missing %s, %s or %s",
			graphics.ErrShaderCompile, AttribPosition, UniformPhoto, UniformMask)
	}

	dev.UseProgram(handle)
	dev.Uniform1i(p.Photo, PhotoUnit)
	dev.Uniform1i(p.Mask, MaskUnit)
	dev.Uniform3f(p.ColorLoc, p.Color.Vec())
	dev.UniformMatrix3(p.ClipMatrix, Identity)
	return p, nil
}

// Identity is the column-major 3x3 identity.
var Identity = [9]float32{1, 0, 0, 0, 1, 0, 0, 0, 1}

// Bind makes p current and pushes its per-draw uniforms.
func Bind(dev graphics.Device, p *Program) {
	dev.UseProgram(p.Handle)
	dev.Uniform1i(p.Photo, PhotoUnit)
	dev.Uniform1i(p.Mask, MaskUnit)
	if p.ColorLoc >= 0 {
		dev.Uniform3f(p.ColorLoc, p.Color.Vec())
	}
}

// Unbind clears the texture units the program sampled.
func Unbind(dev graphics.Device, p *Program) {
	dev.BindTexture(PhotoUnit, 0)
	dev.BindTexture(MaskUnit, 0)
}

// SetColor updates the target color without relinking. It is visible on the
// next draw.
func SetColor(dev graphics.Device, p *Program, c colorspace.Color) {
	p.Color = c.Clamp()
	if p.ColorLoc < 0 {
		return
	}
	dev.UseProgram(p.Handle)
	dev.Uniform3f(p.ColorLoc, p.Color.Vec())
}

// SetClipMatrix uploads a column-major clip-space transform.
func SetClipMatrix(dev graphics.Device, p *Program, m [9]float32) {
	if p.ClipMatrix < 0 {
		return
	}
	dev.UseProgram(p.Handle)
	dev.UniformMatrix3(p.ClipMatrix, m)
}

// Delete releases the program. p must not be used afterwards.
func Delete(dev graphics.Device, p *Program) {
	if p == nil || p.Handle == 0 {
		return
	}
	dev.DeleteProgram(p.Handle)
	p.Handle = 0
}
