package graphics

// Context defines the interface for a window or pbuffer that owns a GL context.
type Context interface {
	MakeCurrent()
	Shutdown()
	ShouldClose() bool
	EndFrame()
	GetFramebufferSize() (int, int)
	Time() float64
	// IsGLES reports whether shaders must be emitted as ESSL rather than desktop GLSL.
	IsGLES() bool
}
