package softdevice

import (
	"math"

	"github.com/richinsley/rosecolored/graphics"
)

type uniformView struct {
	d *Device
	p *program
}

func (u uniformView) value(name string, n int) []float32 {
	loc, ok := u.p.uniforms[name]
	if !ok {
		return make([]float32, n)
	}
	v := u.p.values[loc]
	if len(v) < n {
		return make([]float32, n)
	}
	return v
}

func (u uniformView) Vec3(name string) [3]float32 {
	v := u.value(name, 3)
	return [3]float32{v[0], v[1], v[2]}
}

func (u uniformView) Mat3(name string) [9]float32 {
	var m [9]float32
	copy(m[:], u.value(name, 9))
	return m
}

// Sample uses nearest filtering with clamp-to-edge wrapping.
func (u uniformView) Sample(sampler string, s, t float32) [4]float32 {
	unit := int(u.value(sampler, 1)[0])
	tex, ok := u.d.textures[u.d.units[unit]]
	if !ok {
		return [4]float32{}
	}
	w, h := tex.Rect.Dx(), tex.Rect.Dy()
	x := clampInt(int(math.Floor(float64(s)*float64(w))), 0, w-1)
	y := clampInt(int(math.Floor(float64(t)*float64(h))), 0, h-1)
	i := tex.PixOffset(x, y)
	return [4]float32{
		float32(tex.Pix[i+0]) / 255,
		float32(tex.Pix[i+1]) / 255,
		float32(tex.Pix[i+2]) / 255,
		float32(tex.Pix[i+3]) / 255,
	}
}

type vertexOut struct {
	x, y    float32 // window coordinates, y down
	varying [2]float32
}

func (d *Device) DrawMesh(m graphics.Mesh, positionLoc, texcoordLoc int32) {
	ms, ok := d.meshes[m]
	if !ok || d.current == nil || positionLoc < 0 {
		return
	}
	uv := uniformView{d: d, p: d.current}
	w, h := float32(d.fb.Rect.Dx()), float32(d.fb.Rect.Dy())

	run := func(i uint16) vertexOut {
		base := int(i) * 4
		pos := [2]float32{ms.vertices[base], ms.vertices[base+1]}
		var tex [2]float32
		if texcoordLoc >= 0 {
			tex = [2]float32{ms.vertices[base+2], ms.vertices[base+3]}
		}
		clip, varying := d.current.kernel.Vertex(pos, tex, uv)
		return vertexOut{
			x:       (clip[0] + 1) / 2 * w,
			y:       (1 - clip[1]) / 2 * h,
			varying: varying,
		}
	}

	for i := 0; i+2 < len(ms.indices); i += 3 {
		d.triangle(run(ms.indices[i]), run(ms.indices[i+1]), run(ms.indices[i+2]), uv)
	}
}

func edge(ax, ay, bx, by, px, py float32) float32 {
	return (bx-ax)*(py-ay) - (by-ay)*(px-ax)
}

func (d *Device) triangle(a, b, c vertexOut, uv uniformView) {
	area := edge(a.x, a.y, b.x, b.y, c.x, c.y)
	if area == 0 {
		return
	}
	minX := clampInt(int(math.Floor(float64(min3(a.x, b.x, c.x)))), 0, d.fb.Rect.Dx())
	maxX := clampInt(int(math.Ceil(float64(max3(a.x, b.x, c.x)))), 0, d.fb.Rect.Dx())
	minY := clampInt(int(math.Floor(float64(min3(a.y, b.y, c.y)))), 0, d.fb.Rect.Dy())
	maxY := clampInt(int(math.Ceil(float64(max3(a.y, b.y, c.y)))), 0, d.fb.Rect.Dy())

	for py := minY; py < maxY; py++ {
		for px := minX; px < maxX; px++ {
			cx, cy := float32(px)+0.5, float32(py)+0.5
			w0 := edge(b.x, b.y, c.x, c.y, cx, cy) / area
			w1 := edge(c.x, c.y, a.x, a.y, cx, cy) / area
			w2 := edge(a.x, a.y, b.x, b.y, cx, cy) / area
			if w0 < 0 || w1 < 0 || w2 < 0 {
				continue
			}
			varying := [2]float32{
				w0*a.varying[0] + w1*b.varying[0] + w2*c.varying[0],
				w0*a.varying[1] + w1*b.varying[1] + w2*c.varying[1],
			}
			out := d.current.kernel.Fragment(varying, uv)
			i := d.fb.PixOffset(px, py)
			d.fb.Pix[i+0] = toByte(out[0])
			d.fb.Pix[i+1] = toByte(out[1])
			d.fb.Pix[i+2] = toByte(out[2])
			d.fb.Pix[i+3] = toByte(out[3])
		}
	}
}

func clampInt(v, lo, hi int) int {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}

func min3(a, b, c float32) float32 {
	return float32(math.Min(float64(a), math.Min(float64(b), float64(c))))
}

func max3(a, b, c float32) float32 {
	return float32(math.Max(float64(a), math.Max(float64(b), float64(c))))
}
