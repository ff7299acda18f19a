package renderer

import (
	"gonum.org/v1/gonum/mat"
)

// Camera is an orthographic UI camera. ScaleX and ScaleY world units span
// the full viewport, centered on the origin.
type Camera struct {
	ScaleX, ScaleY float64
}

// NewCamera returns the default 100x100 camera.
func NewCamera() *Camera {
	return &Camera{ScaleX: 100, ScaleY: 100}
}

// Projection maps world units to clip space.
func (c *Camera) Projection() *mat.Dense {
	sx, sy := 1.0, 1.0
	if c.ScaleX != 0 {
		sx = 2 / c.ScaleX
	}
	if c.ScaleY != 0 {
		sy = 2 / c.ScaleY
	}
	return mat.NewDense(3, 3, []float64{
		sx, 0, 0,
		0, sy, 0,
		0, 0, 1,
	})
}

// Transform places an object in world units: scaled first, then translated.
type Transform struct {
	X, Y           float64
	ScaleX, ScaleY float64
}

// Scaled returns a transform that only scales.
func Scaled(sx, sy float64) Transform {
	return Transform{ScaleX: sx, ScaleY: sy}
}

// Matrix returns the model matrix.
func (t Transform) Matrix() *mat.Dense {
	return mat.NewDense(3, 3, []float64{
		t.ScaleX, 0, t.X,
		0, t.ScaleY, t.Y,
		0, 0, 1,
	})
}

// ClipMatrix composes projection and model and flattens the result
// column-major, ready for UniformMatrix3.
func ClipMatrix(c *Camera, t Transform) [9]float32 {
	var m mat.Dense
	m.Mul(c.Projection(), t.Matrix())
	var out [9]float32
	for col := 0; col < 3; col++ {
		for row := 0; row < 3; row++ {
			out[col*3+row] = float32(m.At(row, col))
		}
	}
	return out
}
