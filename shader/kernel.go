package shader

import (
	"github.com/richinsley/rosecolored/colorspace"
	"github.com/richinsley/rosecolored/softdevice"
)

// Kernel is the recolor program expressed in Go for the software device.
var Kernel = softdevice.Kernel{
	Attributes: []string{AttribPosition, AttribTexcoord},
	Uniforms:   []string{UniformPhoto, UniformMask, UniformClipMatrix, UniformColor},
	Vertex: func(position, texcoord [2]float32, u softdevice.Uniforms) (clip, varying [2]float32) {
		m := u.Mat3(UniformClipMatrix)
		clip[0] = m[0]*position[0] + m[3]*position[1] + m[6]
		clip[1] = m[1]*position[0] + m[4]*position[1] + m[7]
		varying = [2]float32{texcoord[0], 1 - texcoord[1]}
		return clip, varying
	},
	Fragment: func(varying [2]float32, u softdevice.Uniforms) [4]float32 {
		p := u.Sample(UniformPhoto, varying[0], varying[1])
		m := u.Sample(UniformMask, varying[0], varying[1])
		c := u.Vec3(UniformColor)
		out := colorspace.Shade(
			colorspace.Color{R: p[0], G: p[1], B: p[2]},
			m[0],
			colorspace.Color{R: c[0], G: c[1], B: c[2]},
		)
		return [4]float32{out.R, out.G, out.B, 1}
	},
}

// Register teaches a software device to compile the recolor sources.
func Register(dev *softdevice.Device) {
	dev.Register(VertexSource, FragmentSource, Kernel)
}
